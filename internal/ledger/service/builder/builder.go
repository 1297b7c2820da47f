// Package builder composes and signs ledger transactions.
package builder

import (
	"context"
	"fmt"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"go.uber.org/zap"
)

const defaultValidFor = 30 * time.Second

// Options tune a single build.
type Options struct {
	Memo     Memo
	Priority model.Priority
	// BaseFee skips the fee oracle when positive.
	BaseFee   int64
	CoSigners []chain.KeyPair
}

// Request is everything needed to build a transaction.
type Request struct {
	Signer    chain.KeyPair
	Operation chain.OperationSpec
	Options   Options
}

// Builder turns operation specs into signed transactions.
type Builder struct {
	accounts  AccountReader
	oracle    FeeOracle
	signer    Signer
	addresses AddressValidator
	logger    *zap.Logger
	validFor  time.Duration
	now       func() time.Time
}

// New constructs a Builder. validFor <= 0 selects the default window.
func New(
	accounts AccountReader,
	oracle FeeOracle,
	signer Signer,
	addresses AddressValidator,
	validFor time.Duration,
	logger *zap.Logger,
) *Builder {
	if validFor <= 0 {
		validFor = defaultValidFor
	}
	return &Builder{
		accounts:  accounts,
		oracle:    oracle,
		signer:    signer,
		addresses: addresses,
		logger:    logger,
		validFor:  validFor,
		now:       time.Now,
	}
}

// Build validates op, reads the signer's sequence number, prices and signs a fresh transaction.
func (b *Builder) Build(ctx context.Context, signer chain.KeyPair, op chain.OperationSpec, opts Options) (chain.SignedTransaction, error) {
	if err := b.validate(signer, op); err != nil {
		return chain.SignedTransaction{}, err
	}
	for _, co := range opts.CoSigners {
		if co.Seed == "" {
			return chain.SignedTransaction{}, fmt.Errorf("%w: co-signer %s has no secret", model.ErrValidation, co.Address)
		}
	}

	account, err := b.accounts.Account(ctx, signer.Address)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("load account %s: %w", signer.Address, err)
	}

	fee := opts.BaseFee
	if fee <= 0 {
		priority := opts.Priority
		if priority == "" {
			priority = model.PriorityMedium
		}
		var congestion model.CongestionLevel
		fee, congestion = b.oracle.Recommend(ctx, priority)
		b.logger.Debug("fee recommended",
			zap.Int64("fee", fee),
			zap.String("priority", string(priority)),
			zap.String("congestion", string(congestion)),
		)
	}

	tx := chain.NewTransaction(chain.TransactionParams{
		Source:     signer.Address,
		Sequence:   account.Sequence,
		BaseFee:    fee,
		Memo:       opts.Memo.Compose(),
		Operations: []chain.OperationSpec{op},
		ValidUntil: b.now().Add(b.validFor),
	})

	signers := make([]chain.KeyPair, 0, len(opts.CoSigners)+1)
	signers = append(signers, signer)
	signers = append(signers, opts.CoSigners...)

	signed, err := b.signer.Sign(tx, signers...)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("sign transaction: %w", err)
	}
	return signed, nil
}

// BuildRequest builds req.
func (b *Builder) BuildRequest(ctx context.Context, req Request) (chain.SignedTransaction, error) {
	return b.Build(ctx, req.Signer, req.Operation, req.Options)
}

// BuildFeeBump wraps inner in a fee-bump envelope. Inner operations and signatures are preserved.
func (b *Builder) BuildFeeBump(ctx context.Context, inner chain.SignedTransaction, feeSource chain.KeyPair, baseFee int64) (chain.SignedTransaction, error) {
	if err := ctx.Err(); err != nil {
		return chain.SignedTransaction{}, err
	}
	if feeSource.Address == "" || feeSource.Seed == "" {
		return chain.SignedTransaction{}, fmt.Errorf("%w: fee source is required", model.ErrValidation)
	}
	if inner.Envelope == "" {
		return chain.SignedTransaction{}, fmt.Errorf("%w: inner transaction is not signed", model.ErrValidation)
	}
	if baseFee <= 0 {
		return chain.SignedTransaction{}, fmt.Errorf("%w: fee must be positive", model.ErrValidation)
	}

	bumped, err := b.signer.SignFeeBump(inner, feeSource, baseFee)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("sign fee bump: %w", err)
	}
	return bumped, nil
}

func (b *Builder) validate(signer chain.KeyPair, op chain.OperationSpec) error {
	if signer.Address == "" || signer.Seed == "" {
		return fmt.Errorf("%w: signer is required", model.ErrValidation)
	}
	switch op.Kind {
	case chain.OpPayment, chain.OpCreateAccount:
	default:
		return fmt.Errorf("%w: unsupported operation %q", model.ErrValidation, op.Kind)
	}
	if !op.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", model.ErrValidation)
	}
	if err := b.addresses.ValidateAddress(op.Destination); err != nil {
		return fmt.Errorf("destination: %w", err)
	}
	if op.Source != "" {
		if err := b.addresses.ValidateAddress(op.Source); err != nil {
			return fmt.Errorf("operation source: %w", err)
		}
	}
	return nil
}
