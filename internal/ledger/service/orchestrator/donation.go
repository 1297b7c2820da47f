package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/builder"
	"go.uber.org/zap"
)

// DonationRequest is the input of Donate. A non-nil Recurring starts a schedule.
type DonationRequest struct {
	CampaignID     string
	CampaignWallet string
	DonorWalletID  string
	Amount         string
	Asset          string
	Memo           string
	Recurring      *model.Frequency
}

// DonationResult is the boundary result of Donate.
type DonationResult struct {
	Success  bool
	Donation model.Donation
	Record   model.TransactionRecord
	Err      error
}

// Donate pays a donation from the donor's wallet to the campaign wallet.
func (o *Orchestrator) Donate(ctx context.Context, req DonationRequest) DonationResult {
	if strings.TrimSpace(req.CampaignID) == "" || strings.TrimSpace(req.DonorWalletID) == "" {
		return DonationResult{Err: fmt.Errorf("%w: campaign and donor wallet are required", model.ErrValidation)}
	}
	asset, err := model.ParseAsset(req.Asset)
	if err != nil {
		return DonationResult{Err: err}
	}
	amount, err := parseAmount(req.Amount, "amount")
	if err != nil {
		return DonationResult{Err: err}
	}

	now := o.now()
	d := model.Donation{
		ID:             o.newID(),
		CampaignID:     req.CampaignID,
		CampaignWallet: req.CampaignWallet,
		DonorWalletID:  req.DonorWalletID,
		Amount:         amount.String(),
		Asset:          asset,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if req.Recurring != nil {
		next, err := req.Recurring.Next(now)
		if err != nil {
			return DonationResult{Err: err}
		}
		d.Recurring = &model.RecurringSchedule{
			Frequency:      *req.Recurring,
			NextProcessing: next,
			Status:         model.ScheduleActive,
		}
	}

	d, exec, err := o.donate(ctx, d, req.Memo)
	if err != nil {
		return DonationResult{Donation: d, Record: exec.Record, Err: err}
	}
	return DonationResult{Success: true, Donation: d, Record: exec.Record}
}

// donate checks the donor balance, stores d as pending and submits its payment. The
// returned execution tells whether the payment reached the ledger.
func (o *Orchestrator) donate(ctx context.Context, d model.Donation, memoText string) (model.Donation, execution, error) {
	network, err := o.networks.Get(d.Asset)
	if err != nil {
		return d, execution{}, err
	}
	if err := network.ValidateAddress(d.CampaignWallet); err != nil {
		return d, execution{}, fmt.Errorf("campaign wallet: %w", err)
	}
	amount, err := parseAmount(d.Amount, "amount")
	if err != nil {
		return d, execution{}, err
	}

	donor, err := o.keys.Get(ctx, d.DonorWalletID)
	if err != nil {
		return d, execution{}, err
	}
	balance, err := network.CheckBalance(ctx, donor.Address)
	if err != nil {
		return d, execution{}, fmt.Errorf("check balance: %w", err)
	}
	if balance.LessThan(amount) {
		return d, execution{}, fmt.Errorf("%w: balance %s %s is below %s",
			model.ErrValidation, balance, d.Asset, amount)
	}
	op, err := network.BuildPayment(donor.Address, d.CampaignWallet, amount)
	if err != nil {
		return d, execution{}, fmt.Errorf("build payment: %w", err)
	}

	logger := o.logger.With(zap.String("donation_id", d.ID))
	d.Status = model.SourcePending
	if err := o.store.InsertDonation(ctx, d); err != nil {
		return d, execution{}, fmt.Errorf("insert donation: %w", err)
	}

	memo := builder.Memo{Identifiers: []string{"DON:" + shortID(d.ID)}, Text: memoText}
	exec, err := o.execute(ctx, logger, model.TransactionRecord{
		Type:       model.TxDonation,
		SourceID:   d.ID,
		SourceType: model.SourceDonation,
		Amount:     d.Amount,
		Asset:      d.Asset,
	}, donor, op, memo, func(ctx context.Context, hash string) error {
		return o.store.UpdateSourceStatus(ctx, model.SourceDonation, d.ID, hash, model.SourcePending, o.now())
	})
	if !exec.Submitted {
		d.Status = model.SourceFailed
		if markErr := o.store.UpdateSourceStatus(ctx, model.SourceDonation, d.ID, "", model.SourceFailed, o.now()); markErr != nil {
			logger.Error("rejected donation not marked failed", zap.Error(markErr))
		}
		return d, exec, fmt.Errorf("submit donation: %w", err)
	}
	d.TransactionHash = exec.Hash
	if err != nil {
		return d, exec, err
	}

	logger.Info("donation submitted",
		zap.String("hash", exec.Hash),
		zap.String("amount", d.Amount),
		zap.String("asset", string(d.Asset)))
	return d, exec, nil
}

func shortID(id string) string {
	id = strings.ReplaceAll(id, "-", "")
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
