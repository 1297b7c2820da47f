package model

import (
	"fmt"
	"strings"
)

// Asset is the closed set of assets donations can move.
type Asset string

const (
	AssetXLM  Asset = "XLM"
	AssetUSDC Asset = "USDC"
)

// ParseAsset converts a currency code into an Asset.
func ParseAsset(code string) (Asset, error) {
	switch a := Asset(strings.ToUpper(strings.TrimSpace(code))); a {
	case AssetXLM, AssetUSDC:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unsupported asset %q", ErrValidation, code)
	}
}
