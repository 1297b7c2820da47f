package transport

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/orchestrator"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/txrecord"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Records interface {
		CreateTransaction(ctx context.Context, rec model.TransactionRecord) txrecord.CreateResult
		UpdateTransactionStatus(ctx context.Context, hash string, status model.TxStatus, details string, extra txrecord.UpdateExtra) txrecord.UpdateResult
		CheckTransactionStatus(ctx context.Context, hash string) txrecord.CheckResult
		GetPendingTransactions(ctx context.Context, maxAge time.Duration, limit int) ([]model.TransactionRecord, error)
		CountByStatus(ctx context.Context, status model.TxStatus) (int64, error)
	}

	Orchestrator interface {
		CreateEscrow(ctx context.Context, req orchestrator.EscrowRequest) orchestrator.EscrowResult
		ReleaseMilestone(ctx context.Context, req orchestrator.ReleaseRequest) orchestrator.ReleaseResult
		Donate(ctx context.Context, req orchestrator.DonationRequest) orchestrator.DonationResult
	}
)
