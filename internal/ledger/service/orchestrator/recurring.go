package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"go.uber.org/zap"
)

const (
	outcomeSpawned   = "spawned"
	outcomeFailed    = "failed"
	outcomeCancelled = "cancelled"
	outcomeSkipped   = "skipped"
)

// RecurringSummary counts the results of one sweep.
type RecurringSummary struct {
	Due       int
	Spawned   int
	Failed    int
	Cancelled int
	// Skipped schedules were claimed by a concurrent sweep.
	Skipped int
}

func (s *RecurringSummary) add(outcome string) {
	switch outcome {
	case outcomeSpawned:
		s.Spawned++
	case outcomeFailed:
		s.Failed++
	case outcomeCancelled:
		s.Cancelled++
	case outcomeSkipped:
		s.Skipped++
	}
}

// RunRecurring sweeps due recurring donations every RecurringInterval until ctx is cancelled.
func (o *Orchestrator) RunRecurring(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := o.runRecurring(ctx); err != nil {
			o.logger.Warn("run iteration failed, backing off", zap.Error(err), zap.Duration("sleep", o.cfg.RecurringInterval))
			if sleepErr := o.sleep(ctx, o.cfg.RecurringInterval); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

func (o *Orchestrator) runRecurring(ctx context.Context) error {
	summary, err := o.ProcessRecurring(ctx, o.now(), o.cfg.RecurringBatch)
	if err != nil {
		return err
	}
	if summary.Due > 0 {
		o.logger.Info("recurring sweep completed",
			zap.Int("due", summary.Due),
			zap.Int("spawned", summary.Spawned),
			zap.Int("failed", summary.Failed),
			zap.Int("cancelled", summary.Cancelled))
	}
	return o.sleep(ctx, o.cfg.RecurringInterval)
}

// ProcessRecurring spawns a child donation for every schedule due at now, up to limit.
// A schedule is claimed by a conditional update before its payment is submitted, so
// concurrent sweeps spawn each period once.
func (o *Orchestrator) ProcessRecurring(ctx context.Context, now time.Time, limit int) (summary RecurringSummary, err error) {
	started := time.Now()
	defer func() {
		o.metrics.ObserveSweep(err, started)
	}()
	if limit <= 0 {
		limit = o.cfg.RecurringBatch
	}

	due, err := o.store.DueRecurringDonations(ctx, now, limit)
	if err != nil {
		return RecurringSummary{}, fmt.Errorf("select due donations: %w", err)
	}
	summary.Due = len(due)

	for _, parent := range due {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		outcome, err := o.processDue(ctx, parent, now)
		if err != nil {
			return summary, fmt.Errorf("process donation %s: %w", parent.ID, err)
		}
		summary.add(outcome)
		if outcome != outcomeSkipped {
			o.metrics.ObserveDonation(outcome)
		}
	}
	return summary, nil
}

func (o *Orchestrator) processDue(ctx context.Context, parent model.Donation, now time.Time) (string, error) {
	observed := *parent.Recurring
	logger := o.logger.With(zap.String("donation_id", parent.ID), zap.Int("sequence", observed.Sequence))

	next, err := o.advance(observed, now)
	if err != nil {
		return "", err
	}
	claimed, err := o.store.UpdateSchedule(ctx, parent.ID, observed, next)
	if err != nil {
		return "", fmt.Errorf("claim schedule: %w", err)
	}
	if !claimed {
		logger.Debug("schedule claimed by another sweep")
		return outcomeSkipped, nil
	}

	child := model.Donation{
		ID:             o.newID(),
		CampaignID:     parent.CampaignID,
		CampaignWallet: parent.CampaignWallet,
		DonorWalletID:  parent.DonorWalletID,
		Amount:         parent.Amount,
		Asset:          parent.Asset,
		ParentID:       parent.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	child, exec, spawnErr := o.donate(ctx, child, fmt.Sprintf("recurring %d", next.Sequence))
	if spawnErr == nil {
		logger.Info("recurring donation spawned", zap.String("child_id", child.ID), zap.Time("next", next.NextProcessing))
		return outcomeSpawned, nil
	}
	// The period is paid once the ledger accepted the payment, whatever happened after.
	if exec.Submitted {
		logger.Error("recurring donation paid but not tracked",
			zap.String("child_id", child.ID),
			zap.String("hash", exec.Hash),
			zap.Error(spawnErr))
		return outcomeSpawned, nil
	}

	failed := observed
	failed.FailureCount++
	outcome := outcomeFailed
	if failed.FailureCount >= o.cfg.MaxRecurringFailures {
		failed.Status = model.ScheduleCancelled
		failed.CancelReason = model.CancelReasonFailureThreshold
		outcome = outcomeCancelled
	}
	if _, err := o.store.UpdateSchedule(ctx, parent.ID, next, failed); err != nil {
		return "", fmt.Errorf("record schedule failure: %w", err)
	}
	logger.Warn("recurring donation failed",
		zap.Error(spawnErr),
		zap.Int("failures", failed.FailureCount),
		zap.String("schedule", string(failed.Status)))
	return outcome, nil
}

// advance moves the schedule one period forward. Missed periods are not replayed.
func (o *Orchestrator) advance(s model.RecurringSchedule, now time.Time) (model.RecurringSchedule, error) {
	next, err := s.Frequency.Next(s.NextProcessing)
	if err != nil {
		return s, err
	}
	if !next.After(now) {
		if next, err = s.Frequency.Next(now); err != nil {
			return s, err
		}
	}
	s.NextProcessing = next
	s.Sequence++
	s.FailureCount = 0
	return s, nil
}
