package chain

import (
	"context"
	"fmt"

	"github.com/goodnatureofminers/donation-ledger-backend/internal/ledger/model"
	"github.com/shopspring/decimal"
)

// AssetNetwork is the capability set every supported asset provides.
type AssetNetwork interface {
	Asset() model.Asset
	Ref() AssetRef
	ValidateAddress(address string) error
	BuildPayment(from, to string, amount decimal.Decimal) (OperationSpec, error)
	CheckBalance(ctx context.Context, account string) (decimal.Decimal, error)
}

// Networks dispatches by asset.
type Networks map[model.Asset]AssetNetwork

// NewNetworks indexes the given networks by their asset.
func NewNetworks(networks ...AssetNetwork) Networks {
	n := make(Networks, len(networks))
	for _, network := range networks {
		n[network.Asset()] = network
	}
	return n
}

// Get returns the network handling asset.
func (n Networks) Get(asset model.Asset) (AssetNetwork, error) {
	network, ok := n[asset]
	if !ok {
		return nil, fmt.Errorf("%w: no network for asset %q", model.ErrValidation, asset)
	}
	return network, nil
}
