package model

import (
	"errors"
	"fmt"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrDuplicate         = errors.New("duplicate transaction")
	ErrNotFound          = errors.New("not found")
	ErrIntegration       = errors.New("upstream unavailable")
	ErrRecoverableLedger = errors.New("recoverable ledger error")
	ErrTerminalLedger    = errors.New("terminal ledger error")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnknownSourceType = fmt.Errorf("%w: unknown source type", ErrValidation)
)

// LedgerCode is a ledger-agnostic result code of a rejected submission.
type LedgerCode string

const (
	CodeBadSequence     LedgerCode = "bad_sequence"
	CodeTooLate         LedgerCode = "too_late"
	CodeTooEarly        LedgerCode = "too_early"
	CodeInsufficientFee LedgerCode = "insufficient_fee"
	CodeTransient       LedgerCode = "transient"
	CodeBadAuth         LedgerCode = "bad_auth"
	CodeMalformed       LedgerCode = "malformed"
	CodeRejected        LedgerCode = "rejected"
)

// Recoverable reports whether resubmitting may succeed.
func (c LedgerCode) Recoverable() bool {
	switch c {
	case CodeBadSequence, CodeTooLate, CodeTooEarly, CodeInsufficientFee, CodeTransient:
		return true
	}
	return false
}

// FeeRelated reports whether the ledger rejected the fee.
func (c LedgerCode) FeeRelated() bool {
	return c == CodeInsufficientFee
}

// LedgerError describes a failed ledger call.
type LedgerError struct {
	Op     string
	Code   LedgerCode
	Detail string
	Err    error
}

func (e *LedgerError) Error() string {
	msg := fmt.Sprintf("ledger %s: %s", e.Op, e.Code)
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LedgerError) Unwrap() error { return e.Err }

// Is matches the recoverable/terminal sentinels by code.
func (e *LedgerError) Is(target error) bool {
	switch target {
	case ErrRecoverableLedger:
		return e.Code.Recoverable()
	case ErrTerminalLedger:
		return !e.Code.Recoverable()
	case ErrIntegration:
		return e.Code == CodeTransient
	}
	return false
}

// NewLedgerError builds a LedgerError.
func NewLedgerError(op string, code LedgerCode, detail string, err error) *LedgerError {
	return &LedgerError{Op: op, Code: code, Detail: detail, Err: err}
}
