package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/builder"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// MilestoneInput describes a milestone of a new escrow. ReleaseDate wins over ReleaseInDays.
type MilestoneInput struct {
	Title             string
	Amount            string
	ReleaseDate       time.Time
	ReleaseInDays     int
	ReleaseConditions string
}

// EscrowRequest is the input of CreateEscrow.
type EscrowRequest struct {
	CampaignID     string
	CampaignWallet string
	InitialFunding string
	Milestones     []MilestoneInput
}

// EscrowResult is the boundary result of CreateEscrow.
type EscrowResult struct {
	Success bool
	Escrow  model.EscrowAccount
	Record  model.TransactionRecord
	Err     error
}

// ReleaseRequest is the input of ReleaseMilestone.
type ReleaseRequest struct {
	CampaignID   string
	MilestoneID  string
	AuthorizedBy string
}

// ReleaseResult is the boundary result of ReleaseMilestone.
type ReleaseResult struct {
	Success   bool
	Milestone model.Milestone
	Record    model.TransactionRecord
	Err       error
}

// CreateEscrow funds a fresh escrow account for a campaign and records its milestones.
// An escrow whose funding failed is replaced.
func (o *Orchestrator) CreateEscrow(ctx context.Context, req EscrowRequest) EscrowResult {
	funding, milestones, err := o.validateEscrow(req)
	if err != nil {
		return EscrowResult{Err: err}
	}
	logger := o.logger.With(zap.String("campaign_id", req.CampaignID))

	var escrowID string
	existing, err := o.store.EscrowByCampaign(ctx, req.CampaignID)
	switch {
	case err == nil && existing.Status != model.SourceFailed:
		return EscrowResult{Err: fmt.Errorf("%w: campaign %s already has an escrow", model.ErrDuplicate, req.CampaignID)}
	case err == nil:
		escrowID = existing.ID
	case errors.Is(err, model.ErrNotFound):
		escrowID = o.newID()
	default:
		return EscrowResult{Err: fmt.Errorf("load escrow: %w", err)}
	}

	kp, err := o.generator.NewKeyPair()
	if err != nil {
		return EscrowResult{Err: fmt.Errorf("generate escrow key: %w", err)}
	}
	// The secret is persisted before the account is funded.
	if err := o.keys.Put(ctx, kp.Address, kp); err != nil {
		return EscrowResult{Err: err}
	}

	now := o.now()
	escrow := model.EscrowAccount{
		ID:             escrowID,
		CampaignID:     req.CampaignID,
		CampaignWallet: req.CampaignWallet,
		PublicKey:      kp.Address,
		InitialFunding: funding.String(),
		Milestones:     milestones,
		Status:         model.SourcePending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	// Inserting before funding makes a concurrent creation fail with ErrDuplicate.
	if err := o.store.InsertEscrow(ctx, escrow); err != nil {
		return EscrowResult{Err: fmt.Errorf("insert escrow: %w", err)}
	}
	logger = logger.With(zap.String("escrow", kp.Address))

	memo := builder.Memo{Identifiers: []string{"ESC:" + req.CampaignID}}
	exec, err := o.execute(ctx, logger, model.TransactionRecord{
		Type:       model.TxEscrow,
		SourceID:   escrow.ID,
		SourceType: model.SourceEscrow,
		Amount:     escrow.InitialFunding,
		Asset:      model.AssetXLM,
	}, o.cfg.Funding, chain.CreateAccountOperation(kp.Address, funding), memo, func(ctx context.Context, hash string) error {
		return o.store.UpdateSourceStatus(ctx, model.SourceEscrow, escrow.ID, hash, model.SourcePending, o.now())
	})
	if !exec.Submitted {
		escrow.Status = model.SourceFailed
		if markErr := o.store.UpdateSourceStatus(ctx, model.SourceEscrow, escrow.ID, "", model.SourceFailed, o.now()); markErr != nil {
			logger.Error("unfunded escrow not marked failed", zap.Error(markErr))
		}
		return EscrowResult{Escrow: escrow, Record: exec.Record, Err: fmt.Errorf("fund escrow: %w", err)}
	}
	escrow.TransactionHash = exec.Hash
	if err != nil {
		return EscrowResult{Escrow: escrow, Record: exec.Record, Err: err}
	}

	logger.Info("escrow created", zap.String("hash", exec.Hash), zap.Int("milestones", len(milestones)))
	return EscrowResult{Success: true, Escrow: escrow, Record: exec.Record}
}

func (o *Orchestrator) validateEscrow(req EscrowRequest) (decimal.Decimal, []model.Milestone, error) {
	if strings.TrimSpace(req.CampaignID) == "" {
		return decimal.Zero, nil, fmt.Errorf("%w: campaign id is required", model.ErrValidation)
	}
	funding, err := decimal.NewFromString(req.InitialFunding)
	if err != nil {
		return decimal.Zero, nil, fmt.Errorf("%w: initial funding %q is not a decimal", model.ErrValidation, req.InitialFunding)
	}
	if funding.LessThan(o.cfg.MinEscrowFunding) {
		return decimal.Zero, nil, fmt.Errorf("%w: initial funding %s is below the reserve minimum %s",
			model.ErrValidation, funding, o.cfg.MinEscrowFunding)
	}
	network, err := o.networks.Get(model.AssetXLM)
	if err != nil {
		return decimal.Zero, nil, err
	}
	if err := network.ValidateAddress(req.CampaignWallet); err != nil {
		return decimal.Zero, nil, fmt.Errorf("campaign wallet: %w", err)
	}

	now := o.now()
	total := decimal.Zero
	milestones := make([]model.Milestone, 0, len(req.Milestones))
	for i, in := range req.Milestones {
		if strings.TrimSpace(in.Title) == "" {
			return decimal.Zero, nil, fmt.Errorf("%w: milestone %d has no title", model.ErrValidation, i)
		}
		amount, err := parseAmount(in.Amount, "milestone amount")
		if err != nil {
			return decimal.Zero, nil, err
		}
		if in.ReleaseInDays < 0 {
			return decimal.Zero, nil, fmt.Errorf("%w: milestone %d releases in the past", model.ErrValidation, i)
		}
		release := in.ReleaseDate
		if release.IsZero() && in.ReleaseInDays > 0 {
			release = now.AddDate(0, 0, in.ReleaseInDays)
		}
		total = total.Add(amount)
		milestones = append(milestones, model.Milestone{
			ID:                o.newID(),
			Title:             in.Title,
			Amount:            amount.String(),
			ReleaseDate:       release.UTC(),
			ReleaseConditions: in.ReleaseConditions,
			Status:            model.MilestonePending,
		})
	}
	if total.GreaterThan(funding) {
		return decimal.Zero, nil, fmt.Errorf("%w: milestones total %s exceeds funding %s", model.ErrValidation, total, funding)
	}
	return funding, milestones, nil
}

// ReleaseMilestone pays a due milestone from the escrow to the campaign wallet. The
// milestone is claimed as releasing before the payment is submitted, so a milestone is
// paid at most once.
func (o *Orchestrator) ReleaseMilestone(ctx context.Context, req ReleaseRequest) ReleaseResult {
	if !o.approver(req.AuthorizedBy) {
		return ReleaseResult{Err: fmt.Errorf("%w: %q may not release milestones", model.ErrForbidden, req.AuthorizedBy)}
	}
	logger := o.logger.With(zap.String("campaign_id", req.CampaignID), zap.String("milestone_id", req.MilestoneID))

	escrow, err := o.store.EscrowByCampaign(ctx, req.CampaignID)
	if err != nil {
		return ReleaseResult{Err: fmt.Errorf("load escrow: %w", err)}
	}
	if escrow.Status == model.SourceFailed {
		return ReleaseResult{Err: fmt.Errorf("%w: escrow of campaign %s was never funded", model.ErrInvalidTransition, req.CampaignID)}
	}
	milestone, ok := escrow.Milestone(req.MilestoneID)
	if !ok {
		return ReleaseResult{Err: fmt.Errorf("%w: milestone %s", model.ErrNotFound, req.MilestoneID)}
	}
	if milestone.Status != model.MilestonePending {
		return ReleaseResult{Milestone: milestone, Err: fmt.Errorf("%w: milestone %s is %s", model.ErrInvalidTransition, milestone.ID, milestone.Status)}
	}
	now := o.now()
	if !milestone.Due(now) {
		return ReleaseResult{Milestone: milestone, Err: fmt.Errorf("%w: milestone %s is not due before %s",
			model.ErrValidation, milestone.ID, milestone.ReleaseDate.Format(time.RFC3339))}
	}
	amount, err := parseAmount(milestone.Amount, "milestone amount")
	if err != nil {
		return ReleaseResult{Milestone: milestone, Err: err}
	}

	network, err := o.networks.Get(model.AssetXLM)
	if err != nil {
		return ReleaseResult{Milestone: milestone, Err: err}
	}
	op, err := network.BuildPayment(escrow.PublicKey, escrow.CampaignWallet, amount)
	if err != nil {
		return ReleaseResult{Milestone: milestone, Err: fmt.Errorf("build release payment: %w", err)}
	}
	kp, err := o.keys.Get(ctx, escrow.PublicKey)
	if err != nil {
		return ReleaseResult{Milestone: milestone, Err: err}
	}

	released := milestone
	released.Status = model.MilestoneReleasing
	released.AuthorizedBy = req.AuthorizedBy
	released.ReleasedAt = now
	claimed, err := o.store.UpdateMilestone(ctx, req.CampaignID, model.MilestonePending, released, now)
	if err != nil {
		return ReleaseResult{Milestone: milestone, Err: fmt.Errorf("claim milestone: %w", err)}
	}
	if !claimed {
		return ReleaseResult{Milestone: milestone, Err: fmt.Errorf("%w: milestone %s was released concurrently", model.ErrInvalidTransition, milestone.ID)}
	}

	memo := builder.Memo{Identifiers: []string{"MS:" + milestone.ID}}
	exec, err := o.execute(ctx, logger, model.TransactionRecord{
		Type:       model.TxMilestone,
		SourceID:   milestone.ID,
		SourceType: model.SourceMilestone,
		Amount:     milestone.Amount,
		Asset:      model.AssetXLM,
	}, kp, op, memo, func(ctx context.Context, hash string) error {
		paid := released
		paid.Status = model.MilestoneReleased
		paid.TransactionHash = hash
		applied, err := o.store.UpdateMilestone(ctx, req.CampaignID, model.MilestoneReleasing, paid, o.now())
		if err == nil && !applied {
			err = fmt.Errorf("%w: milestone %s is no longer releasing", model.ErrInvalidTransition, milestone.ID)
		}
		return err
	})
	if !exec.Submitted {
		if _, revertErr := o.store.UpdateMilestone(ctx, req.CampaignID, model.MilestoneReleasing, milestone, o.now()); revertErr != nil {
			logger.Error("unpaid milestone left releasing", zap.Error(revertErr))
		}
		return ReleaseResult{Milestone: milestone, Record: exec.Record, Err: fmt.Errorf("release milestone: %w", err)}
	}
	released.Status = model.MilestoneReleased
	released.TransactionHash = exec.Hash
	if err != nil {
		return ReleaseResult{Milestone: released, Record: exec.Record, Err: err}
	}

	logger.Info("milestone released", zap.String("hash", exec.Hash), zap.String("authorized_by", req.AuthorizedBy))
	return ReleaseResult{Success: true, Milestone: released, Record: exec.Record}
}
