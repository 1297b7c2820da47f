// Package chain defines the ledger boundary and the transaction values shared by the engine components.
package chain

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/shopspring/decimal"
)

// Ledger is the external ledger network as consumed by the engine.
type Ledger interface {
	SubmitTransaction(ctx context.Context, tx SignedTransaction) (SubmitResponse, error)
	// TransactionByHash returns model.ErrNotFound while the transaction is not visible.
	TransactionByHash(ctx context.Context, hash string) (LedgerTransaction, error)
	OperationsByTransaction(ctx context.Context, hash string) ([]LedgerOperation, error)
	FeeStats(ctx context.Context) (model.FeeStatistics, error)
	Account(ctx context.Context, id string) (Account, error)
}

// KeyPair is a ledger identity. Seed is secret and never logged.
type KeyPair struct {
	Address string
	Seed    string
}

// String hides the seed.
func (k KeyPair) String() string { return k.Address }

// Balance is one asset holding of an account.
type Balance struct {
	Code   string
	Issuer string
	Amount decimal.Decimal
}

// Account is the ledger state of an account.
type Account struct {
	ID       string
	Sequence int64
	Balances []Balance
}

// Balance returns the holding of the given asset or zero.
func (a Account) Balance(asset AssetRef) decimal.Decimal {
	for _, b := range a.Balances {
		if b.Code == asset.Code && b.Issuer == asset.Issuer {
			return b.Amount
		}
	}
	return decimal.Zero
}

// SubmitResponse is what the ledger returned for an accepted submission.
type SubmitResponse struct {
	Hash       string
	Ledger     uint32
	Successful bool
	FeeCharged int64
}

// LedgerTransaction is a transaction as recorded by the ledger.
type LedgerTransaction struct {
	Hash           string
	Ledger         uint32
	Successful     bool
	FeeCharged     int64
	Memo           string
	OperationCount uint32
	ClosedAt       time.Time
}

// LedgerOperation is a simplified operation of a recorded transaction.
type LedgerOperation struct {
	Type   string
	From   string
	To     string
	Amount string
	Asset  AssetRef
}

// IsPayment reports whether the operation moves funds to a destination.
func (o LedgerOperation) IsPayment() bool {
	switch o.Type {
	case "payment", "create_account", "path_payment_strict_receive", "path_payment_strict_send":
		return true
	}
	return false
}

// Signer signs transactions with SDK-provided primitives.
type Signer interface {
	Sign(tx Transaction, signers ...KeyPair) (SignedTransaction, error)
	SignFeeBump(inner SignedTransaction, feeSource KeyPair, baseFee int64) (SignedTransaction, error)
}

// KeyGenerator creates fresh ledger identities.
type KeyGenerator interface {
	NewKeyPair() (KeyPair, error)
}
