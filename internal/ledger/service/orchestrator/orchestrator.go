// Package orchestrator composes fee pricing, building, submission and record keeping into
// escrow, milestone and donation flows.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/clock"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/builder"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/submitter"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	defaultMaxRecurringFailures = 3
	defaultRecurringInterval    = time.Hour
	defaultRecurringBatch       = 50
)

// DefaultMinEscrowFunding is two base reserves of 0.5 XLM.
var DefaultMinEscrowFunding = decimal.NewFromInt(1)

// Config tunes the orchestrator. Zero values fall back to defaults.
type Config struct {
	// Funding pays for escrow account creation.
	Funding          chain.KeyPair
	MinEscrowFunding decimal.Decimal
	// Approvers may release milestones.
	Approvers []string
	// MaxRecurringFailures consecutive failures cancel a schedule.
	MaxRecurringFailures int
	RecurringInterval    time.Duration
	RecurringBatch       int
	Priority             model.Priority
}

func (c Config) withDefaults() Config {
	if !c.MinEscrowFunding.IsPositive() {
		c.MinEscrowFunding = DefaultMinEscrowFunding
	}
	if c.MaxRecurringFailures <= 0 {
		c.MaxRecurringFailures = defaultMaxRecurringFailures
	}
	if c.RecurringInterval <= 0 {
		c.RecurringInterval = defaultRecurringInterval
	}
	if c.RecurringBatch <= 0 {
		c.RecurringBatch = defaultRecurringBatch
	}
	if c.Priority == "" {
		c.Priority = model.PriorityMedium
	}
	return c
}

// Orchestrator runs the escrow, milestone and donation flows.
type Orchestrator struct {
	submitter Submitter
	records   Records
	store     Store
	keys      KeyStore
	generator KeyGenerator
	networks  chain.Networks
	metrics   Metrics
	logger    *zap.Logger
	cfg       Config
	sleep     clock.SleepFunc
	now       clock.NowFunc
	newID     func() string
}

func New(
	sub Submitter,
	records Records,
	store Store,
	keys KeyStore,
	generator KeyGenerator,
	networks chain.Networks,
	metrics Metrics,
	cfg Config,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		submitter: sub,
		records:   records,
		store:     store,
		keys:      keys,
		generator: generator,
		networks:  networks,
		metrics:   metrics,
		logger:    logger.Named("orchestrator"),
		cfg:       cfg.withDefaults(),
		sleep:     clock.SleepWithContext,
		now:       func() time.Time { return time.Now().UTC() },
		newID:     uuid.NewString,
	}
}

func (o *Orchestrator) approver(id string) bool {
	return id != "" && slices.Contains(o.cfg.Approvers, id)
}

func (o *Orchestrator) submit(ctx context.Context, signer chain.KeyPair, op chain.OperationSpec, memo builder.Memo) (chain.SubmitResponse, error) {
	res := o.submitter.BuildAndSubmit(ctx, builder.Request{
		Signer:    signer,
		Operation: op,
		Options:   builder.Options{Memo: memo, Priority: o.cfg.Priority},
	}, submitter.Options{})
	if !res.Success {
		return chain.SubmitResponse{}, fmt.Errorf("submit after %d attempts: %w", res.Attempts, res.Err)
	}
	return res.Response, nil
}

// execution is the outcome of execute. Submitted reports whether the ledger accepted the
// transaction; errors after that point must not be treated as a failed payment.
type execution struct {
	Record    model.TransactionRecord
	Hash      string
	Submitted bool
}

// execute records rec as pending, submits op and links the accepted hash first to the
// source through attach and then to the record. A rejected submission fails the record.
func (o *Orchestrator) execute(
	ctx context.Context,
	logger *zap.Logger,
	rec model.TransactionRecord,
	signer chain.KeyPair,
	op chain.OperationSpec,
	memo builder.Memo,
	attach func(ctx context.Context, hash string) error,
) (execution, error) {
	rec.Memo = memo.Compose()
	created := o.records.CreateTransaction(ctx, rec)
	if !created.Success {
		return execution{}, fmt.Errorf("create record: %w", created.Err)
	}
	out := execution{Record: created.Record}
	logger = logger.With(zap.String("record_id", created.TransactionID))

	resp, err := o.submit(ctx, signer, op, memo)
	if err != nil {
		failed := o.records.FailTransaction(ctx, created.TransactionID, err.Error())
		if failed.Err != nil {
			logger.Error("rejected transaction not marked failed", zap.Error(failed.Err))
		} else {
			out.Record = failed.Record
		}
		return out, err
	}
	out.Hash = resp.Hash
	out.Submitted = true
	logger = logger.With(zap.String("hash", resp.Hash))

	var errs error
	if err := attach(ctx, resp.Hash); err != nil {
		logger.Error("transaction submitted but source not linked", zap.Error(err))
		errs = fmt.Errorf("link source: %w", err)
	}
	tracked, err := o.records.AssignHash(ctx, created.TransactionID, resp.Hash)
	if err != nil {
		logger.Error("transaction submitted but not tracked", zap.Error(err))
		return out, errors.Join(errs, fmt.Errorf("assign hash %s: %w", resp.Hash, err))
	}
	out.Record = tracked
	return out, errs
}

func parseAmount(value, field string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(value)
	if err != nil || !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %s %q must be a positive decimal", model.ErrValidation, field, value)
	}
	return amount, nil
}
