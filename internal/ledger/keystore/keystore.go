package keystore

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
)

// KeyStore keeps sealed key pairs per owner, e.g. an escrow per campaign.
type KeyStore struct {
	store  Store
	sealer *Sealer
	keys   KeyParser
}

func New(store Store, sealer *Sealer, keys KeyParser) *KeyStore {
	return &KeyStore{store: store, sealer: sealer, keys: keys}
}

// Put seals the seed of kp under owner.
func (k *KeyStore) Put(ctx context.Context, owner string, kp chain.KeyPair) error {
	sealed, err := k.sealer.Seal([]byte(kp.Seed))
	if err != nil {
		return fmt.Errorf("seal secret of %s: %w", owner, err)
	}
	if err := k.store.PutSecret(ctx, owner, sealed); err != nil {
		return fmt.Errorf("store secret of %s: %w", owner, err)
	}
	return nil
}

// Get restores the key pair of owner.
func (k *KeyStore) Get(ctx context.Context, owner string) (chain.KeyPair, error) {
	sealed, err := k.store.Secret(ctx, owner)
	if err != nil {
		return chain.KeyPair{}, fmt.Errorf("load secret of %s: %w", owner, err)
	}
	seed, err := k.sealer.Open(sealed)
	if err != nil {
		return chain.KeyPair{}, fmt.Errorf("open secret of %s: %w", owner, err)
	}
	kp, err := k.keys.ParseKeyPair(string(seed))
	if err != nil {
		return chain.KeyPair{}, fmt.Errorf("restore key of %s: %w", owner, err)
	}
	return kp, nil
}
