package stellar

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/chain"
	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/shopspring/decimal"
	"github.com/stellar/go/strkey"
)

// ValidateAddress checks that address is a well-formed account id.
func ValidateAddress(address string) error {
	if !strkey.IsValidEd25519PublicKey(address) {
		return fmt.Errorf("%w: invalid account address %q", model.ErrValidation, address)
	}
	return nil
}

// AssetNetwork implements chain.AssetNetwork for one asset of the Stellar ledger.
type AssetNetwork struct {
	asset    model.Asset
	ref      chain.AssetRef
	accounts AccountSource
}

// NewNativeNetwork handles the native asset.
func NewNativeNetwork(accounts AccountSource) *AssetNetwork {
	return &AssetNetwork{asset: model.AssetXLM, ref: chain.NativeAsset(), accounts: accounts}
}

// NewUSDCNetwork handles USDC issued by issuer.
func NewUSDCNetwork(issuer string, accounts AccountSource) *AssetNetwork {
	return &AssetNetwork{
		asset:    model.AssetUSDC,
		ref:      chain.AssetRef{Code: string(model.AssetUSDC), Issuer: issuer},
		accounts: accounts,
	}
}

func (n *AssetNetwork) Asset() model.Asset { return n.asset }

func (n *AssetNetwork) Ref() chain.AssetRef { return n.ref }

func (n *AssetNetwork) ValidateAddress(address string) error { return ValidateAddress(address) }

// BuildPayment returns a payment operation. The operation inherits the transaction source.
func (n *AssetNetwork) BuildPayment(from, to string, amount decimal.Decimal) (chain.OperationSpec, error) {
	if err := ValidateAddress(from); err != nil {
		return chain.OperationSpec{}, err
	}
	if err := ValidateAddress(to); err != nil {
		return chain.OperationSpec{}, err
	}
	if from == to {
		return chain.OperationSpec{}, fmt.Errorf("%w: payment to self", model.ErrValidation)
	}
	if !amount.IsPositive() {
		return chain.OperationSpec{}, fmt.Errorf("%w: amount must be positive", model.ErrValidation)
	}
	if amount.Exponent() < -amountPrecision && !amount.Equal(amount.Truncate(amountPrecision)) {
		return chain.OperationSpec{}, fmt.Errorf("%w: amount %s exceeds %d decimals", model.ErrValidation, amount, amountPrecision)
	}
	return chain.OperationSpec{
		Kind:        chain.OpPayment,
		Destination: to,
		Amount:      amount,
		Asset:       n.ref,
	}, nil
}

// CheckBalance returns the account's holding of the asset.
func (n *AssetNetwork) CheckBalance(ctx context.Context, account string) (decimal.Decimal, error) {
	acc, err := n.accounts.Account(ctx, account)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance(n.ref), nil
}
