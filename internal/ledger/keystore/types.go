package keystore

import (
	"context"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=$GOPACKAGE

type (
	Store interface {
		PutSecret(ctx context.Context, owner string, sealed []byte) error
		Secret(ctx context.Context, owner string) ([]byte, error)
	}

	KeyParser interface {
		ParseKeyPair(seed string) (chain.KeyPair, error)
	}
)
