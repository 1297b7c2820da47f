// Package reconciler resolves unresolved transaction records against the ledger.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/clock"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/txrecord"
	"github.com/goodnatureofminers/donation-ledger-backend/pkg/workerpool"
	"go.uber.org/zap"
)

const (
	defaultPollInterval = 30 * time.Second
	defaultMaxAge       = time.Hour
	defaultBatchLimit   = 100
	defaultWorkers      = 8
	defaultQueryTimeout = 10 * time.Second
)

// Config tunes the reconciler. Zero values fall back to defaults.
type Config struct {
	PollInterval time.Duration
	// MaxAge is how long a pending record may stay invisible on the ledger before it expires.
	MaxAge     time.Duration
	BatchLimit int
	Workers    int
	// RecheckAfter skips records checked more recently. Zero uses the record service poll interval.
	RecheckAfter time.Duration
	QueryTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.PollInterval <= 0 {
		c.PollInterval = defaultPollInterval
	}
	if c.MaxAge <= 0 {
		c.MaxAge = defaultMaxAge
	}
	if c.BatchLimit <= 0 {
		c.BatchLimit = defaultBatchLimit
	}
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = defaultQueryTimeout
	}
	return c
}

type outcome int

const (
	outcomeUnchanged outcome = iota
	outcomeConfirmed
	outcomeFailed
	outcomeExpired
)

// Summary counts the results of one pass.
type Summary struct {
	Checked   int
	Confirmed int
	Failed    int
	Expired   int
	Unchanged int
	Errors    int
}

func (s *Summary) add(o outcome, err error) {
	s.Checked++
	if err != nil {
		s.Errors++
		return
	}
	switch o {
	case outcomeConfirmed:
		s.Confirmed++
	case outcomeFailed:
		s.Failed++
	case outcomeExpired:
		s.Expired++
	default:
		s.Unchanged++
	}
}

// Reconciler polls the ledger for records that are not resolved yet.
type Reconciler struct {
	ledger  Ledger
	records Records
	metrics Metrics
	logger  *zap.Logger
	cfg     Config
	sleep   clock.SleepFunc
	now     clock.NowFunc
}

func New(ledger Ledger, records Records, metrics Metrics, cfg Config, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		ledger:  ledger,
		records: records,
		metrics: metrics,
		logger:  logger.Named("reconciler"),
		cfg:     cfg.withDefaults(),
		sleep:   clock.SleepWithContext,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Run reconciles every PollInterval until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := r.run(ctx); err != nil {
			r.logger.Warn("run iteration failed, backing off", zap.Error(err), zap.Duration("sleep", r.cfg.PollInterval))
			if sleepErr := r.sleep(ctx, r.cfg.PollInterval); sleepErr != nil {
				return sleepErr
			}
		}
	}
}

func (r *Reconciler) run(ctx context.Context) error {
	summary, err := r.ReconcilePending(ctx, r.cfg.MaxAge, r.cfg.BatchLimit)
	if err != nil {
		return err
	}
	if summary.Checked > 0 {
		r.logger.Info("reconciliation pass completed",
			zap.Int("checked", summary.Checked),
			zap.Int("confirmed", summary.Confirmed),
			zap.Int("failed", summary.Failed),
			zap.Int("expired", summary.Expired),
			zap.Int("errors", summary.Errors))
	}
	return r.sleep(ctx, r.cfg.PollInterval)
}

// ReconcilePending checks up to batchLimit due records, least recently checked first.
// Pending records invisible on the ledger for longer than maxAge expire.
func (r *Reconciler) ReconcilePending(ctx context.Context, maxAge time.Duration, batchLimit int) (summary Summary, err error) {
	started := time.Now()
	if maxAge <= 0 {
		maxAge = r.cfg.MaxAge
	}
	if batchLimit <= 0 {
		batchLimit = r.cfg.BatchLimit
	}

	recs, err := r.records.GetPendingTransactions(ctx, r.cfg.RecheckAfter, batchLimit)
	if err != nil {
		r.metrics.ObserveBatch(err, 0, started)
		return Summary{}, fmt.Errorf("select pending records: %w", err)
	}

	var mu sync.Mutex
	err = workerpool.Process(ctx, r.cfg.Workers, recs, func(ctx context.Context, rec model.TransactionRecord) error {
		o, _, err := r.reconcile(ctx, rec, maxAge)
		if err != nil {
			r.logger.Warn("record not reconciled", zap.String("hash", rec.Hash), zap.Error(err))
		}
		mu.Lock()
		summary.add(o, err)
		mu.Unlock()
		return nil
	})
	r.metrics.ObserveBatch(err, len(recs), started)
	return summary, err
}

// Check reconciles the record with hash now.
func (r *Reconciler) Check(ctx context.Context, hash string) (model.TransactionRecord, error) {
	rec, err := r.records.GetTransaction(ctx, hash)
	if err != nil {
		return model.TransactionRecord{}, err
	}
	_, rec, err = r.reconcile(ctx, rec, r.cfg.MaxAge)
	return rec, err
}

func (r *Reconciler) reconcile(ctx context.Context, rec model.TransactionRecord, maxAge time.Duration) (outcome, model.TransactionRecord, error) {
	if rec.Status.Terminal() || rec.Hash == "" {
		return outcomeUnchanged, rec, nil
	}
	logger := r.logger.With(zap.String("hash", rec.Hash), zap.String("record_id", rec.ID))

	qctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	tx, err := r.ledger.TransactionByHash(qctx, rec.Hash)
	cancel()
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return outcomeUnchanged, rec, fmt.Errorf("query transaction: %w", err)
	}
	if touchErr := r.records.MarkChecked(ctx, rec.Hash); touchErr != nil {
		logger.Warn("last checked not updated", zap.Error(touchErr))
	}

	if err != nil {
		age := rec.Age(r.now())
		if rec.Status != model.StatusPending || age <= maxAge {
			return outcomeUnchanged, rec, nil
		}
		details := fmt.Sprintf("not visible on ledger after %s", age.Truncate(time.Second))
		return r.transition(ctx, rec, model.StatusExpired, details, nil)
	}

	details := &model.LedgerDetails{
		Ledger:         tx.Ledger,
		OperationCount: tx.OperationCount,
		Successful:     tx.Successful,
		FeeCharged:     tx.FeeCharged,
		Memo:           tx.Memo,
		ClosedAt:       tx.ClosedAt,
		Destination:    r.destination(ctx, logger, rec.Hash),
	}
	status := model.StatusConfirmed
	if !tx.Successful {
		status = model.StatusFailed
	}
	return r.transition(ctx, rec, status, fmt.Sprintf("ledger %d", tx.Ledger), details)
}

// destination is best effort: the first payment-type operation, if operations can be read.
func (r *Reconciler) destination(ctx context.Context, logger *zap.Logger, hash string) string {
	qctx, cancel := context.WithTimeout(ctx, r.cfg.QueryTimeout)
	defer cancel()

	ops, err := r.ledger.OperationsByTransaction(qctx, hash)
	if err != nil {
		logger.Debug("operations not available", zap.Error(err))
		return ""
	}
	for _, op := range ops {
		if op.IsPayment() {
			return op.To
		}
	}
	return ""
}

func (r *Reconciler) transition(ctx context.Context, rec model.TransactionRecord, status model.TxStatus, details string, ledger *model.LedgerDetails) (outcome, model.TransactionRecord, error) {
	res := r.records.UpdateTransactionStatus(ctx, rec.Hash, status, details, txrecord.UpdateExtra{LedgerDetails: ledger})
	if res.Err != nil {
		return outcomeUnchanged, res.Record, res.Err
	}
	if !res.Applied {
		return outcomeUnchanged, res.Record, nil
	}
	switch status {
	case model.StatusConfirmed:
		return outcomeConfirmed, res.Record, nil
	case model.StatusFailed:
		return outcomeFailed, res.Record, nil
	default:
		return outcomeExpired, res.Record, nil
	}
}

var _ txrecord.Checker = (*Reconciler)(nil)
