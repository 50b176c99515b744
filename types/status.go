package types

// OptionStatus is the lifecycle position of an option.
//
//	Created -> OnMarket -> Sold -> Executed
//	Created | OnMarket -> Cancelled
//	OnMarket -> Created (removed from market)
//	Created | OnMarket -> Executed (claimed by the creator after expiry)
type OptionStatus uint8

const (
	StatusCreated OptionStatus = iota
	StatusOnMarket
	StatusSold
	StatusExecuted
	StatusCancelled
)

func (s OptionStatus) String() string {
	switch s {
	case StatusCreated:
		return "Created"
	case StatusOnMarket:
		return "OnMarket"
	case StatusSold:
		return "Sold"
	case StatusExecuted:
		return "Executed"
	case StatusCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s OptionStatus) Terminal() bool {
	return s == StatusExecuted || s == StatusCancelled
}

// CanTransition reports whether to is reachable from s in one step.
func (s OptionStatus) CanTransition(to OptionStatus) bool {
	switch s {
	case StatusCreated:
		return to == StatusOnMarket || to == StatusCancelled || to == StatusExecuted
	case StatusOnMarket:
		return to == StatusCreated || to == StatusSold || to == StatusCancelled || to == StatusExecuted
	case StatusSold:
		return to == StatusExecuted
	default:
		return false
	}
}

// ListingStatus is the state of the market listing attached to an option.
// Execution is reflected on the option, never on the listing.
type ListingStatus uint8

const (
	ListingNotListed ListingStatus = iota
	ListingOnSale
	ListingSold
)

func (s ListingStatus) String() string {
	switch s {
	case ListingNotListed:
		return "NotListed"
	case ListingOnSale:
		return "OnSale"
	case ListingSold:
		return "Sold"
	default:
		return "Unknown"
	}
}
