package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

const maxCurrencyLen = 16

// Listing is the sale offer attached to an option. The zero Listing is
// NotListed.
type Listing struct {
	OptionID uint64         `json:"option_id"`
	Amount   *uint256.Int   `json:"amount"`
	Currency string         `json:"currency"`
	Status   ListingStatus  `json:"status"`
	Seller   common.Address `json:"seller"`
	Bid      *Bid           `json:"bid,omitempty"`
}

// Bid is an allowance-backed offer to buy a listed option.
type Bid struct {
	Bidder common.Address `json:"bidder"`
	Amount *uint256.Int   `json:"amount"`
}

func (l *Listing) OnSale() bool { return l.Status == ListingOnSale }

// Close takes the listing off the market, dropping any bid.
func (l *Listing) Close() {
	l.Status = ListingNotListed
	l.Bid = nil
}

// ValidateCurrency checks the informational currency symbol of a listing.
func ValidateCurrency(currency string) error {
	if len(currency) == 0 || len(currency) > maxCurrencyLen {
		return Wrapf(ErrInvalidCurrency, "currency must be 1-%d characters, got %q", maxCurrencyLen, currency)
	}
	for _, r := range currency {
		if r < 0x21 || r > 0x7e {
			return Wrapf(ErrInvalidCurrency, "currency %q contains non-printable characters", currency)
		}
	}
	return nil
}
