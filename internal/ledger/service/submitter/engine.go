// Package submitter submits signed transactions with retries, backoff and fee escalation.
package submitter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/clock"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/builder"
	"go.uber.org/zap"
)

const (
	defaultMaxRetries     = 3
	defaultBaseDelay      = time.Second
	defaultMaxDelay       = 30 * time.Second
	defaultAttemptTimeout = 20 * time.Second
)

// Config tunes the engine. Zero values fall back to defaults.
type Config struct {
	MaxRetries     int
	BaseDelay      time.Duration
	MaxDelay       time.Duration
	AttemptTimeout time.Duration
	// MaxFee caps escalated fees when positive.
	MaxFee int64
	// FeeSource pays for fee-bump envelopes.
	FeeSource chain.KeyPair
}

func (c Config) withDefaults() Config {
	if c.MaxRetries <= 0 {
		c.MaxRetries = defaultMaxRetries
	}
	if c.BaseDelay <= 0 {
		c.BaseDelay = defaultBaseDelay
	}
	if c.MaxDelay <= 0 {
		c.MaxDelay = defaultMaxDelay
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = defaultAttemptTimeout
	}
	return c
}

// Options tune a single submission. Zero values fall back to the engine config.
type Options struct {
	// MaxRetries is the total number of attempts.
	MaxRetries int
	BaseDelay  time.Duration
	// Rebuild produces a fresh transaction after sequence or time-bounds failures.
	Rebuild func(ctx context.Context) (chain.SignedTransaction, error)
	// FeeSource overrides the engine's fee-bump payer.
	FeeSource *chain.KeyPair
}

// Result is the outcome of a submission.
type Result struct {
	Success     bool
	Response    chain.SubmitResponse
	Transaction chain.SignedTransaction
	Attempts    int
	Err         error
}

// Engine submits transactions to the ledger.
type Engine struct {
	ledger  Ledger
	oracle  FeeOracle
	builder TxBuilder
	metrics Metrics
	logger  *zap.Logger
	cfg     Config
	sleep   clock.SleepFunc
	jitter  func(upper time.Duration) time.Duration
}

// New constructs an Engine.
func New(ledger Ledger, oracle FeeOracle, txBuilder TxBuilder, metrics Metrics, cfg Config, logger *zap.Logger) *Engine {
	return &Engine{
		ledger:  ledger,
		oracle:  oracle,
		builder: txBuilder,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg.withDefaults(),
		sleep:   clock.SleepWithContext,
		jitter:  clock.UniformJitter,
	}
}

// BuildAndSubmit builds req and submits it. Sequence failures rebuild from req.
func (e *Engine) BuildAndSubmit(ctx context.Context, req builder.Request, opts Options) Result {
	signed, err := e.builder.BuildRequest(ctx, req)
	if err != nil {
		return Result{Err: fmt.Errorf("build transaction: %w", err)}
	}
	if opts.Rebuild == nil {
		opts.Rebuild = func(ctx context.Context) (chain.SignedTransaction, error) {
			return e.builder.BuildRequest(ctx, req)
		}
	}
	return e.Submit(ctx, signed, opts)
}

// Submit sends tx, retrying recoverable failures until success, a terminal failure,
// MaxRetries attempts or cancellation of ctx.
func (e *Engine) Submit(ctx context.Context, tx chain.SignedTransaction, opts Options) (res Result) {
	started := time.Now()
	defer func() {
		e.metrics.ObserveSubmission(res.Err, res.Attempts, started)
	}()

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = e.cfg.MaxRetries
	}
	baseDelay := opts.BaseDelay
	if baseDelay <= 0 {
		baseDelay = e.cfg.BaseDelay
	}
	backoff := clock.Backoff{Base: baseDelay, Cap: e.cfg.MaxDelay, Jitter: e.jitter}

	current := tx
	fee := tx.Fee
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger := e.logger.With(zap.String("hash", current.Hash), zap.Int("attempt", attempt), zap.Int64("fee", current.Fee))
		if err := ctx.Err(); err != nil {
			res.Err = fmt.Errorf("submit aborted: %w", err)
			return res
		}
		res.Attempts = attempt

		attemptCtx, cancel := context.WithTimeout(ctx, e.cfg.AttemptTimeout)
		resp, err := e.ledger.SubmitTransaction(attemptCtx, current)
		cancel()
		if err == nil {
			e.metrics.ObserveAttempt("success")
			logger.Info("transaction submitted", zap.Uint32("ledger", resp.Ledger))
			res.Success = true
			res.Response = resp
			res.Transaction = current
			return res
		}
		lastErr = err
		res.Transaction = current

		if ctxErr := ctx.Err(); ctxErr != nil {
			res.Err = fmt.Errorf("submit aborted: %w", errors.Join(ctxErr, err))
			return res
		}

		class := Classify(err)
		e.metrics.ObserveAttempt(attemptOutcome(class))
		if !class.Recoverable() {
			logger.Warn("submission rejected", zap.Error(err))
			res.Err = terminalError(err)
			return res
		}
		if attempt == maxRetries {
			break
		}

		logger.Warn("submission failed, retrying", zap.Error(err), zap.String("class", string(class)))

		next, nextFee, err := e.prepareRetry(ctx, current, fee, class, opts, logger)
		if err != nil {
			logger.Warn("prepare retry failed, resubmitting unchanged", zap.Error(err))
		} else {
			current, fee = next, nextFee
		}

		if err := e.sleep(ctx, backoff.Delay(attempt)); err != nil {
			res.Err = fmt.Errorf("submit aborted: %w", errors.Join(err, lastErr))
			return res
		}
	}

	res.Err = exhaustedError(lastErr, res.Attempts)
	return res
}

func (e *Engine) prepareRetry(
	ctx context.Context,
	current chain.SignedTransaction,
	fee int64,
	class FailureClass,
	opts Options,
	logger *zap.Logger,
) (chain.SignedTransaction, int64, error) {
	switch class {
	case FailureFee:
		feeSource := e.cfg.FeeSource
		if opts.FeeSource != nil {
			feeSource = *opts.FeeSource
		}
		if feeSource.Seed == "" {
			return current, fee, errors.New("no fee source configured for fee bump")
		}

		nextFee := e.escalateFee(ctx, fee)
		bumped, err := e.builder.BuildFeeBump(ctx, current, feeSource, nextFee)
		if err != nil {
			return current, fee, fmt.Errorf("build fee bump: %w", err)
		}
		e.metrics.ObserveFeeBump()
		logger.Info("fee bumped", zap.Int64("previous_fee", fee), zap.Int64("next_fee", nextFee))
		return bumped, nextFee, nil
	case FailureSequence:
		if opts.Rebuild == nil {
			return current, fee, nil
		}
		rebuilt, err := opts.Rebuild(ctx)
		if err != nil {
			return current, fee, fmt.Errorf("rebuild transaction: %w", err)
		}
		return rebuilt, rebuilt.Fee, nil
	default:
		return current, fee, nil
	}
}

// escalateFee prices a high-priority fee from fresh statistics. A fee that does not exceed
// the previous one is doubled from it instead. MaxFee caps the result.
func (e *Engine) escalateFee(ctx context.Context, previous int64) int64 {
	stats := e.oracle.GetFeeStatistics(ctx, true)
	next := e.oracle.RecommendFee(stats, model.PriorityHigh, e.oracle.ClassifyCongestion(stats))
	if next <= previous {
		next = previous * 2
	}
	if e.cfg.MaxFee > 0 && next > e.cfg.MaxFee {
		next = e.cfg.MaxFee
	}
	return next
}

func terminalError(err error) error {
	var ledgerErr *model.LedgerError
	if errors.As(err, &ledgerErr) {
		return err
	}
	return model.NewLedgerError("submit", model.CodeRejected, "", err)
}

func exhaustedError(err error, attempts int) error {
	detail := fmt.Sprintf("gave up after %d attempts", attempts)
	var ledgerErr *model.LedgerError
	if errors.As(err, &ledgerErr) {
		return model.NewLedgerError("submit", ledgerErr.Code, detail, err)
	}
	return model.NewLedgerError("submit", model.CodeTransient, detail, err)
}
