package submitter

import (
	"context"
	"time"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/service/builder"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Ledger interface {
		SubmitTransaction(ctx context.Context, tx chain.SignedTransaction) (chain.SubmitResponse, error)
	}
	FeeOracle interface {
		GetFeeStatistics(ctx context.Context, forceRefresh bool) model.FeeStatistics
		ClassifyCongestion(stats model.FeeStatistics) model.CongestionLevel
		RecommendFee(stats model.FeeStatistics, priority model.Priority, congestion model.CongestionLevel) int64
	}
	TxBuilder interface {
		BuildRequest(ctx context.Context, req builder.Request) (chain.SignedTransaction, error)
		BuildFeeBump(ctx context.Context, inner chain.SignedTransaction, feeSource chain.KeyPair, baseFee int64) (chain.SignedTransaction, error)
	}
	Metrics interface {
		ObserveAttempt(outcome string)
		ObserveFeeBump()
		ObserveSubmission(err error, attempts int, started time.Time)
	}
)
