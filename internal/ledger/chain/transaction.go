package chain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationKind is the closed set of operations the engine composes.
type OperationKind string

const (
	OpPayment       OperationKind = "payment"
	OpCreateAccount OperationKind = "create_account"
)

// NativeCode is the code of the ledger's native asset.
const NativeCode = "XLM"

// AssetRef identifies an asset on the ledger.
type AssetRef struct {
	Code   string
	Issuer string
}

// NativeAsset returns the ledger's native asset.
func NativeAsset() AssetRef { return AssetRef{Code: NativeCode} }

// Native reports whether a is the native asset.
func (a AssetRef) Native() bool { return a.Issuer == "" && (a.Code == NativeCode || a.Code == "") }

// OperationSpec describes one ledger operation.
type OperationSpec struct {
	Kind        OperationKind
	Source      string
	Destination string
	Amount      decimal.Decimal
	Asset       AssetRef
}

// CreateAccountOperation funds a new account with a starting balance.
func CreateAccountOperation(destination string, startingBalance decimal.Decimal) OperationSpec {
	return OperationSpec{
		Kind:        OpCreateAccount,
		Destination: destination,
		Amount:      startingBalance,
		Asset:       NativeAsset(),
	}
}

// TransactionParams are the inputs of NewTransaction.
type TransactionParams struct {
	Source     string
	Sequence   int64
	BaseFee    int64
	Memo       string
	Operations []OperationSpec
	ValidUntil time.Time
}

// Transaction is an unsigned transaction value. It cannot be mutated after construction; a retry
// needs a new value from the builder.
type Transaction struct {
	source     string
	sequence   int64
	baseFee    int64
	memo       string
	operations []OperationSpec
	validUntil time.Time
}

// NewTransaction builds an immutable Transaction.
func NewTransaction(p TransactionParams) Transaction {
	ops := make([]OperationSpec, len(p.Operations))
	copy(ops, p.Operations)
	return Transaction{
		source:     p.Source,
		sequence:   p.Sequence,
		baseFee:    p.BaseFee,
		memo:       p.Memo,
		operations: ops,
		validUntil: p.ValidUntil,
	}
}

func (t Transaction) Source() string        { return t.source }
func (t Transaction) Sequence() int64       { return t.sequence }
func (t Transaction) BaseFee() int64        { return t.baseFee }
func (t Transaction) Memo() string          { return t.memo }
func (t Transaction) ValidUntil() time.Time { return t.validUntil }

// Operations returns a copy of the operations.
func (t Transaction) Operations() []OperationSpec {
	ops := make([]OperationSpec, len(t.operations))
	copy(ops, t.operations)
	return ops
}

// SignedTransaction is a transaction ready for submission.
type SignedTransaction struct {
	Tx        Transaction
	Envelope  string
	Hash      string
	Fee       int64
	FeeBump   bool
	FeeSource string
}
