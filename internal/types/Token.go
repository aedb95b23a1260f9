/*

Token metadata as reported by the liquidity venue. A token is identified either
by a coin type string or by a fungible-asset address, never both; CanonicalID
is the single place that collapses the variant into the identifier the venue
APIs accept.

*/

package types

import (
	"errors"
	"fmt"
)

// AssetForm discriminates the two shapes of token identity the venue uses.
type AssetForm string

const (
	AssetFormCoin     AssetForm = "coin"
	AssetFormFungible AssetForm = "fungible_asset"
)

var (
	ErrUnknownAssetForm = errors.New("unknown asset form")
	ErrMissingAssetID   = errors.New("token is missing the identifier for its asset form")
)

type Token struct {
	Symbol          string    `json:"symbol"`                     // e.g., "USDC"
	Decimals        int       `json:"decimals"`                   // display decimals, e.g., 6
	Form            AssetForm `json:"form"`                       // discriminator for the identity variant
	CoinType        string    `json:"coin_type,omitempty"`        // set when Form == AssetFormCoin
	FungibleAddress string    `json:"fungible_address,omitempty"` // set when Form == AssetFormFungible
}

// CanonicalID returns the venue-facing identifier for the token. It is total
// over the two declared forms and errors on anything else, so callers never
// do their own presence checks on the variant fields.
func (t Token) CanonicalID() (string, error) {
	switch t.Form {
	case AssetFormCoin:
		if t.CoinType == "" {
			return "", fmt.Errorf("%w: coin token %q has no coin type", ErrMissingAssetID, t.Symbol)
		}
		return t.CoinType, nil
	case AssetFormFungible:
		if t.FungibleAddress == "" {
			return "", fmt.Errorf("%w: fungible token %q has no asset address", ErrMissingAssetID, t.Symbol)
		}
		return t.FungibleAddress, nil
	default:
		return "", fmt.Errorf("%w: %q on token %q", ErrUnknownAssetForm, t.Form, t.Symbol)
	}
}
