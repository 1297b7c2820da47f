package stellar

import (
	"errors"
	"net/http"
	"strings"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/stellar/go/clients/horizonclient"
)

// ResultCode maps a transaction result code reported by Horizon to a ledger-agnostic code.
func ResultCode(txCode string) model.LedgerCode {
	switch txCode {
	case "tx_bad_seq":
		return model.CodeBadSequence
	case "tx_too_late":
		return model.CodeTooLate
	case "tx_too_early":
		return model.CodeTooEarly
	case "tx_insufficient_fee":
		return model.CodeInsufficientFee
	case "tx_bad_auth", "tx_bad_auth_extra", "tx_bad_sponsorship":
		return model.CodeBadAuth
	case "tx_malformed", "tx_missing_operation", "tx_not_supported", "tx_bad_min_seq_age_or_gap":
		return model.CodeMalformed
	case "tx_internal_error":
		return model.CodeTransient
	default:
		return model.CodeRejected
	}
}

func horizonError(err error) (*horizonclient.Error, bool) {
	var hErr *horizonclient.Error
	if errors.As(err, &hErr) && hErr != nil {
		return hErr, true
	}
	return nil, false
}

func isNotFound(err error) bool {
	hErr, ok := horizonError(err)
	return ok && hErr.Problem.Status == http.StatusNotFound
}

// submitError turns a failed submission into a *model.LedgerError.
func submitError(err error) error {
	hErr, ok := horizonError(err)
	if !ok {
		return model.NewLedgerError("submit", model.CodeTransient, "", err)
	}

	if codes, cErr := hErr.ResultCodes(); cErr == nil && codes != nil {
		txCode := codes.TransactionCode
		if txCode == "tx_fee_bump_inner_failed" && codes.InnerTransactionCode != "" {
			txCode = codes.InnerTransactionCode
		}
		detail := txCode
		if len(codes.OperationCodes) > 0 {
			detail += " [" + strings.Join(codes.OperationCodes, ",") + "]"
		}
		return model.NewLedgerError("submit", ResultCode(txCode), detail, err)
	}

	switch status := hErr.Problem.Status; {
	case status == http.StatusTooManyRequests, status >= http.StatusInternalServerError:
		return model.NewLedgerError("submit", model.CodeTransient, hErr.Problem.Title, err)
	case status == http.StatusBadRequest:
		return model.NewLedgerError("submit", model.CodeMalformed, hErr.Problem.Title, err)
	default:
		return model.NewLedgerError("submit", model.CodeRejected, hErr.Problem.Title, err)
	}
}

// queryError wraps a failed read; unknown hashes/accounts become model.ErrNotFound.
func queryError(op string, err error) error {
	if isNotFound(err) {
		return errors.Join(model.ErrNotFound, err)
	}
	return model.NewLedgerError(op, model.CodeTransient, "", err)
}
