package stellar

import (
	"errors"
	"fmt"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"
)

// amountPrecision is the number of decimal places the ledger stores amounts with.
const amountPrecision = 7

var errNoSigners = errors.New("no signers")

// Passphrase resolves a network name to its passphrase. Unknown names are treated as passphrases.
func Passphrase(name string) string {
	switch name {
	case "public", "mainnet":
		return network.PublicNetworkPassphrase
	case "testnet", "":
		return network.TestNetworkPassphrase
	default:
		return name
	}
}

// Signer signs transactions with the Stellar SDK. It also generates key pairs.
type Signer struct {
	passphrase string
}

// NewSigner constructs a signer for the given network passphrase.
func NewSigner(passphrase string) *Signer {
	return &Signer{passphrase: passphrase}
}

// Sign builds the SDK transaction and signs it with every key pair.
// tx.Sequence() is the current account sequence; the envelope uses the next one.
func (s *Signer) Sign(tx chain.Transaction, signers ...chain.KeyPair) (chain.SignedTransaction, error) {
	if len(signers) == 0 {
		return chain.SignedTransaction{}, errNoSigners
	}

	ops, err := buildOperations(tx.Operations())
	if err != nil {
		return chain.SignedTransaction{}, err
	}

	timebounds := txnbuild.NewInfiniteTimeout()
	if !tx.ValidUntil().IsZero() {
		timebounds = txnbuild.NewTimebounds(0, tx.ValidUntil().Unix())
	}

	account := txnbuild.NewSimpleAccount(tx.Source(), tx.Sequence())
	params := txnbuild.TransactionParams{
		SourceAccount:        &account,
		IncrementSequenceNum: true,
		Operations:           ops,
		BaseFee:              tx.BaseFee(),
		Preconditions:        txnbuild.Preconditions{TimeBounds: timebounds},
	}
	if tx.Memo() != "" {
		params.Memo = txnbuild.MemoText(tx.Memo())
	}

	built, err := txnbuild.NewTransaction(params)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("build transaction: %w", err)
	}

	keys, err := fullKeys(signers)
	if err != nil {
		return chain.SignedTransaction{}, err
	}
	signed, err := built.Sign(s.passphrase, keys...)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("sign transaction: %w", err)
	}

	envelope, err := signed.Base64()
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("encode envelope: %w", err)
	}
	hash, err := signed.HashHex(s.passphrase)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("hash transaction: %w", err)
	}

	return chain.SignedTransaction{
		Tx:       tx,
		Envelope: envelope,
		Hash:     hash,
		Fee:      tx.BaseFee(),
	}, nil
}

// SignFeeBump wraps the inner transaction in a fee-bump envelope paid by feeSource.
// An inner envelope that is already a fee bump is unwrapped first.
func (s *Signer) SignFeeBump(inner chain.SignedTransaction, feeSource chain.KeyPair, baseFee int64) (chain.SignedTransaction, error) {
	generic, err := txnbuild.TransactionFromXDR(inner.Envelope)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("decode envelope: %w", err)
	}

	innerTx, ok := generic.Transaction()
	if !ok {
		bump, isBump := generic.FeeBump()
		if !isBump {
			return chain.SignedTransaction{}, errors.New("unsupported envelope type")
		}
		innerTx = bump.InnerTransaction()
	}

	bump, err := txnbuild.NewFeeBumpTransaction(txnbuild.FeeBumpTransactionParams{
		Inner:      innerTx,
		FeeAccount: feeSource.Address,
		BaseFee:    baseFee,
	})
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("build fee bump: %w", err)
	}

	keys, err := fullKeys([]chain.KeyPair{feeSource})
	if err != nil {
		return chain.SignedTransaction{}, err
	}
	bump, err = bump.Sign(s.passphrase, keys...)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("sign fee bump: %w", err)
	}

	envelope, err := bump.Base64()
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("encode envelope: %w", err)
	}
	hash, err := bump.HashHex(s.passphrase)
	if err != nil {
		return chain.SignedTransaction{}, fmt.Errorf("hash fee bump: %w", err)
	}

	return chain.SignedTransaction{
		Tx:        inner.Tx,
		Envelope:  envelope,
		Hash:      hash,
		Fee:       baseFee,
		FeeBump:   true,
		FeeSource: feeSource.Address,
	}, nil
}

// NewKeyPair generates a random ledger identity.
func (s *Signer) NewKeyPair() (chain.KeyPair, error) {
	kp, err := keypair.Random()
	if err != nil {
		return chain.KeyPair{}, fmt.Errorf("generate key pair: %w", err)
	}
	return chain.KeyPair{Address: kp.Address(), Seed: kp.Seed()}, nil
}

// ParseKeyPair restores the identity of a secret seed.
func (s *Signer) ParseKeyPair(seed string) (chain.KeyPair, error) {
	kp, err := keypair.ParseFull(seed)
	if err != nil {
		return chain.KeyPair{}, fmt.Errorf("%w: parse seed: %v", model.ErrValidation, err)
	}
	return chain.KeyPair{Address: kp.Address(), Seed: kp.Seed()}, nil
}

func fullKeys(signers []chain.KeyPair) ([]*keypair.Full, error) {
	keys := make([]*keypair.Full, 0, len(signers))
	for _, signer := range signers {
		kp, err := keypair.ParseFull(signer.Seed)
		if err != nil {
			return nil, fmt.Errorf("parse seed of %s: %w", signer.Address, err)
		}
		keys = append(keys, kp)
	}
	return keys, nil
}

func buildOperations(specs []chain.OperationSpec) ([]txnbuild.Operation, error) {
	ops := make([]txnbuild.Operation, 0, len(specs))
	for i, spec := range specs {
		amount := spec.Amount.StringFixed(amountPrecision)
		switch spec.Kind {
		case chain.OpPayment:
			ops = append(ops, &txnbuild.Payment{
				Destination:   spec.Destination,
				Amount:        amount,
				Asset:         txAsset(spec.Asset),
				SourceAccount: spec.Source,
			})
		case chain.OpCreateAccount:
			ops = append(ops, &txnbuild.CreateAccount{
				Destination:   spec.Destination,
				Amount:        amount,
				SourceAccount: spec.Source,
			})
		default:
			return nil, fmt.Errorf("operation %d: unsupported kind %q", i, spec.Kind)
		}
	}
	return ops, nil
}

func txAsset(ref chain.AssetRef) txnbuild.Asset {
	if ref.Native() {
		return txnbuild.NativeAsset{}
	}
	return txnbuild.CreditAsset{Code: ref.Code, Issuer: ref.Issuer}
}
