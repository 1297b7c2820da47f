package orchestrator

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/builder"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/submitter"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/txrecord"
	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Submitter interface {
		BuildAndSubmit(ctx context.Context, req builder.Request, opts submitter.Options) submitter.Result
	}

	Records interface {
		CreateTransaction(ctx context.Context, rec model.TransactionRecord) txrecord.CreateResult
		AssignHash(ctx context.Context, id, hash string) (model.TransactionRecord, error)
		FailTransaction(ctx context.Context, id, details string) txrecord.UpdateResult
	}

	Store interface {
		InsertEscrow(ctx context.Context, escrow model.EscrowAccount) error
		EscrowByCampaign(ctx context.Context, campaignID string) (model.EscrowAccount, error)
		UpdateMilestone(ctx context.Context, campaignID string, from model.MilestoneStatus, next model.Milestone, at time.Time) (bool, error)
		UpdateSourceStatus(ctx context.Context, sourceType model.SourceType, sourceID, hash string, status model.SourceStatus, at time.Time) error
		InsertDonation(ctx context.Context, d model.Donation) error
		DueRecurringDonations(ctx context.Context, now time.Time, limit int) ([]model.Donation, error)
		UpdateSchedule(ctx context.Context, donationID string, observed, next model.RecurringSchedule) (bool, error)
	}

	KeyStore interface {
		Put(ctx context.Context, owner string, kp chain.KeyPair) error
		Get(ctx context.Context, owner string) (chain.KeyPair, error)
	}

	KeyGenerator interface {
		NewKeyPair() (chain.KeyPair, error)
	}

	AssetNetwork interface {
		Asset() model.Asset
		Ref() chain.AssetRef
		ValidateAddress(address string) error
		BuildPayment(from, to string, amount decimal.Decimal) (chain.OperationSpec, error)
		CheckBalance(ctx context.Context, account string) (decimal.Decimal, error)
	}

	Metrics interface {
		ObserveSweep(err error, started time.Time)
		ObserveDonation(outcome string)
	}
)
