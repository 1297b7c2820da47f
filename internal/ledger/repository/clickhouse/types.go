package clickhouse

import (
	"context"
	"time"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Metrics interface {
		Observe(operation string, err error, started time.Time)
	}

	batchConn interface {
		PrepareBatch(ctx context.Context, query string) (batch, error)
		Close() error
	}

	batch interface {
		Append(v ...any) error
		Send() error
		Abort() error
	}
)
