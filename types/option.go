package types

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// MaxTerms bounds the length of counter offer and price arrays.
const MaxTerms = 64

// Option is a collateralized derivative position.
type Option struct {
	ID             uint64         `json:"id"`
	Creator        common.Address `json:"creator"`
	Owner          common.Address `json:"owner"`
	Collateral     *uint256.Int   `json:"collateral"`
	CounterOffer   []uint64       `json:"counter_offer"`
	Price          []uint64       `json:"price"`
	Status         OptionStatus   `json:"status"`
	Expires        int64          `json:"expires"`
	PendingRequest *uuid.UUID     `json:"pending_request,omitempty"`
}

// Expired reports whether the option has expired at the given unix time.
func (o *Option) Expired(now int64) bool {
	return now >= o.Expires
}

// InTheMoney reports whether settling with the given random word pays the
// owner. The observed term is counterOffer[word % len(counterOffer)]; an option
// without a price or without counter offer terms is always in the money.
func (o *Option) InTheMoney(word uint64) (observed uint64, itm bool) {
	if len(o.CounterOffer) == 0 {
		return 0, true
	}
	observed = o.CounterOffer[word%uint64(len(o.CounterOffer))]
	if len(o.Price) == 0 {
		return observed, true
	}
	return observed, observed >= o.Price[0]
}

// Copy returns a deep copy of the option.
func (o *Option) Copy() *Option {
	cp := *o
	cp.Collateral = new(uint256.Int).Set(o.collateral())
	cp.CounterOffer = append([]uint64{}, o.CounterOffer...)
	cp.Price = append([]uint64{}, o.Price...)
	if o.PendingRequest != nil {
		id := *o.PendingRequest
		cp.PendingRequest = &id
	}
	return &cp
}

func (o *Option) collateral() *uint256.Int {
	if o.Collateral == nil {
		return new(uint256.Int)
	}
	return o.Collateral
}

func (o *Option) String() string {
	return fmt.Sprintf("Option{%d %v owner=%s collateral=%s expires=%d}",
		o.ID, o.Status, o.Owner.Hex(), o.collateral().Dec(), o.Expires)
}

// MarshalZerologObject lets loggers embed an option as a structured object.
func (o *Option) MarshalZerologObject(e *zerolog.Event) {
	e.Uint64("id", o.ID)
	e.Str("status", o.Status.String())
	e.Str("owner", o.Owner.Hex())
	e.Str("collateral", o.collateral().Dec())
	e.Int64("expires", o.Expires)
}

// ValidateTerms checks a counter offer or price array. Empty arrays are
// rejected only when required is set.
func ValidateTerms(terms []uint64, required bool) error {
	if required && len(terms) == 0 {
		return Wrapf(ErrInvalidArray, "array cannot be empty")
	}
	if len(terms) > MaxTerms {
		return Wrapf(ErrInvalidArray, "%d terms exceeds the maximum of %d", len(terms), MaxTerms)
	}
	return nil
}

// FormatTerms renders terms as a comma separated list, the form used in event
// attributes.
func FormatTerms(terms []uint64) string {
	parts := make([]string, len(terms))
	for i, t := range terms {
		parts[i] = strconv.FormatUint(t, 10)
	}
	return strings.Join(parts, ",")
}
