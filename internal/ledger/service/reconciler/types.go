package reconciler

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/txrecord"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Ledger interface {
		TransactionByHash(ctx context.Context, hash string) (chain.LedgerTransaction, error)
		OperationsByTransaction(ctx context.Context, hash string) ([]chain.LedgerOperation, error)
	}

	Records interface {
		GetPendingTransactions(ctx context.Context, maxAge time.Duration, limit int) ([]model.TransactionRecord, error)
		GetTransaction(ctx context.Context, hash string) (model.TransactionRecord, error)
		UpdateTransactionStatus(ctx context.Context, hash string, status model.TxStatus, details string, extra txrecord.UpdateExtra) txrecord.UpdateResult
		MarkChecked(ctx context.Context, hash string) error
	}

	Metrics interface {
		ObserveBatch(err error, size int, started time.Time)
	}
)
