package submitter

import (
	"context"
	"errors"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

// FailureClass decides how a failed attempt is retried.
type FailureClass string

const (
	// FailureTransient retries the same transaction.
	FailureTransient FailureClass = "transient"
	// FailureSequence rebuilds with a fresh sequence number and validity window.
	FailureSequence FailureClass = "sequence"
	// FailureFee resubmits inside a fee-bump envelope with a higher fee.
	FailureFee FailureClass = "fee"
	// FailureTerminal aborts.
	FailureTerminal FailureClass = "terminal"
)

// Recoverable reports whether another attempt may succeed.
func (c FailureClass) Recoverable() bool { return c != FailureTerminal }

// Classify maps a submission error to its failure class.
func Classify(err error) FailureClass {
	var ledgerErr *model.LedgerError
	if errors.As(err, &ledgerErr) {
		switch ledgerErr.Code {
		case model.CodeBadSequence, model.CodeTooLate, model.CodeTooEarly:
			return FailureSequence
		case model.CodeInsufficientFee:
			return FailureFee
		case model.CodeTransient:
			return FailureTransient
		default:
			return FailureTerminal
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, model.ErrIntegration) {
		return FailureTransient
	}
	return FailureTerminal
}

func attemptOutcome(c FailureClass) string {
	switch c {
	case FailureFee:
		return "fee"
	case FailureTerminal:
		return "terminal"
	default:
		return "recoverable"
	}
}
