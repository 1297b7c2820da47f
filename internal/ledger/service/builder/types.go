package builder

import (
	"context"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	AccountReader interface {
		Account(ctx context.Context, id string) (chain.Account, error)
	}
	FeeOracle interface {
		Recommend(ctx context.Context, priority model.Priority) (int64, model.CongestionLevel)
	}
	Signer interface {
		Sign(tx chain.Transaction, signers ...chain.KeyPair) (chain.SignedTransaction, error)
		SignFeeBump(inner chain.SignedTransaction, feeSource chain.KeyPair, baseFee int64) (chain.SignedTransaction, error)
	}
	AddressValidator interface {
		ValidateAddress(address string) error
	}
)
