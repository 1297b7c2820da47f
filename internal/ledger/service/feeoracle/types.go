package feeoracle

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	// FeeSource fetches the current fee distribution from the ledger.
	FeeSource interface {
		FeeStats(ctx context.Context) (model.FeeStatistics, error)
	}
	Metrics interface {
		ObserveFetch(outcome string, started time.Time)
		ObserveRecommendation(priority model.Priority, congestion model.CongestionLevel, fee int64)
	}
)
