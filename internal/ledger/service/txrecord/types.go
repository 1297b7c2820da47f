package txrecord

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Store interface {
		InsertRecord(ctx context.Context, rec model.TransactionRecord) error
		RecordByHash(ctx context.Context, hash string) (model.TransactionRecord, error)
		RecordByID(ctx context.Context, id string) (model.TransactionRecord, error)
		UpdateRecordStatus(ctx context.Context, hash string, upd model.StatusUpdate) (bool, error)
		UpdateRecordStatusByID(ctx context.Context, id string, upd model.StatusUpdate) (bool, error)
		AssignRecordHash(ctx context.Context, id, hash string, entry model.StatusEntry) (bool, error)
		TouchRecord(ctx context.Context, hash string, at time.Time) error
		UnresolvedRecords(ctx context.Context, checkedBefore time.Time, limit int) ([]model.TransactionRecord, error)
		CountRecords(ctx context.Context, status model.TxStatus) (int64, error)
		UpdateSourceStatus(ctx context.Context, sourceType model.SourceType, sourceID, hash string, status model.SourceStatus, at time.Time) error
	}

	// Checker runs one on-demand reconciliation of a hash.
	Checker interface {
		Check(ctx context.Context, hash string) (model.TransactionRecord, error)
	}

	Publisher interface {
		Publish(ctx context.Context, ev model.StatusEvent) error
	}

	AuditSink interface {
		Record(ctx context.Context, ev model.StatusEvent) error
	}

	Metrics interface {
		ObserveTransition(from, to model.TxStatus)
		ObservePropagation(sourceType model.SourceType, err error)
	}
)
