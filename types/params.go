package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// DefaultNativeCurrency is the symbol of the ledger's native currency.
const DefaultNativeCurrency = "ETH"

// Params holds the administrative configuration of the ledger.
type Params struct {
	Owner          common.Address `json:"owner"`
	Oracle         common.Address `json:"oracle"`
	NativeCurrency string         `json:"native_currency"`
	Bootstrapped   bool           `json:"bootstrapped"`
}

// HasOracle reports whether a randomness oracle is registered.
func (p Params) HasOracle() bool {
	return !IsZeroAddress(p.Oracle)
}
