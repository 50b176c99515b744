package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Msg is one ledger operation carried in a Tx.
type Msg interface {
	// Type is the routing key of the message in the tx envelope.
	Type() string
	// ValidateBasic performs stateless validation.
	ValidateBasic() error
}

// Message type names.
const (
	TypeCreateOption      = "create_option"
	TypeTransferOption    = "transfer_option"
	TypeUpdatePrice       = "update_price"
	TypeSetCounterOffer   = "set_counter_offer"
	TypeCancelOption      = "cancel_option"
	TypeAddToMarket       = "add_to_market"
	TypeRemoveFromMarket  = "remove_from_market"
	TypeBuyOption         = "buy_option"
	TypeBidOnMarket       = "bid_on_market"
	TypeAcceptBid         = "accept_bid"
	TypeExecuteOption     = "execute_option"
	TypeClaimOption       = "claim_option"
	TypeFulfillRandomness = "fulfill_randomness"
	TypeApprove           = "approve"
	TypeSend              = "send"
	TypeTransferOwnership = "transfer_ownership"
	TypeSetOracle         = "set_oracle"
)

var msgRegistry = map[string]func() Msg{
	TypeCreateOption:      func() Msg { return &MsgCreateOption{} },
	TypeTransferOption:    func() Msg { return &MsgTransferOption{} },
	TypeUpdatePrice:       func() Msg { return &MsgUpdatePrice{} },
	TypeSetCounterOffer:   func() Msg { return &MsgSetCounterOffer{} },
	TypeCancelOption:      func() Msg { return &MsgCancelOption{} },
	TypeAddToMarket:       func() Msg { return &MsgAddToMarket{} },
	TypeRemoveFromMarket:  func() Msg { return &MsgRemoveFromMarket{} },
	TypeBuyOption:         func() Msg { return &MsgBuyOption{} },
	TypeBidOnMarket:       func() Msg { return &MsgBidOnMarket{} },
	TypeAcceptBid:         func() Msg { return &MsgAcceptBid{} },
	TypeExecuteOption:     func() Msg { return &MsgExecuteOption{} },
	TypeClaimOption:       func() Msg { return &MsgClaimOption{} },
	TypeFulfillRandomness: func() Msg { return &MsgFulfillRandomness{} },
	TypeApprove:           func() Msg { return &MsgApprove{} },
	TypeSend:              func() Msg { return &MsgSend{} },
	TypeTransferOwnership: func() Msg { return &MsgTransferOwnership{} },
	TypeSetOracle:         func() Msg { return &MsgSetOracle{} },
}

// IsPayable reports whether msg accepts attached value.
func IsPayable(msg Msg) bool {
	switch msg.(type) {
	case *MsgCreateOption, *MsgBuyOption:
		return true
	default:
		return false
	}
}

type MsgCreateOption struct {
	CounterOffer []uint64 `json:"counter_offer"`
	Expires      int64    `json:"expires"`
}

func (*MsgCreateOption) Type() string { return TypeCreateOption }

func (m *MsgCreateOption) ValidateBasic() error {
	if m.Expires <= 0 {
		return Wrapf(ErrInvalidTime, "expiration must be a positive unix time")
	}
	return ValidateTerms(m.CounterOffer, false)
}

type MsgTransferOption struct {
	ID       uint64         `json:"id"`
	NewOwner common.Address `json:"new_owner"`
}

func (*MsgTransferOption) Type() string { return TypeTransferOption }

func (m *MsgTransferOption) ValidateBasic() error {
	if IsZeroAddress(m.NewOwner) {
		return Wrapf(ErrInvalidAddress, "new owner cannot be zero")
	}
	return nil
}

type MsgUpdatePrice struct {
	ID    uint64   `json:"id"`
	Price []uint64 `json:"price"`
}

func (*MsgUpdatePrice) Type() string { return TypeUpdatePrice }

func (m *MsgUpdatePrice) ValidateBasic() error { return ValidateTerms(m.Price, true) }

type MsgSetCounterOffer struct {
	ID           uint64   `json:"id"`
	CounterOffer []uint64 `json:"counter_offer"`
}

func (*MsgSetCounterOffer) Type() string { return TypeSetCounterOffer }

func (m *MsgSetCounterOffer) ValidateBasic() error { return ValidateTerms(m.CounterOffer, true) }

type MsgCancelOption struct {
	ID uint64 `json:"id"`
}

func (*MsgCancelOption) Type() string         { return TypeCancelOption }
func (*MsgCancelOption) ValidateBasic() error { return nil }

type MsgAddToMarket struct {
	ID       uint64       `json:"id"`
	Amount   *uint256.Int `json:"amount"`
	Currency string       `json:"currency"`
}

func (*MsgAddToMarket) Type() string { return TypeAddToMarket }

func (m *MsgAddToMarket) ValidateBasic() error {
	if err := requirePositive(m.Amount); err != nil {
		return err
	}
	return ValidateCurrency(m.Currency)
}

type MsgRemoveFromMarket struct {
	ID uint64 `json:"id"`
}

func (*MsgRemoveFromMarket) Type() string         { return TypeRemoveFromMarket }
func (*MsgRemoveFromMarket) ValidateBasic() error { return nil }

type MsgBuyOption struct {
	ID uint64 `json:"id"`
}

func (*MsgBuyOption) Type() string         { return TypeBuyOption }
func (*MsgBuyOption) ValidateBasic() error { return nil }

type MsgBidOnMarket struct {
	ID     uint64       `json:"id"`
	Amount *uint256.Int `json:"amount"`
}

func (*MsgBidOnMarket) Type() string { return TypeBidOnMarket }

func (m *MsgBidOnMarket) ValidateBasic() error { return requirePositive(m.Amount) }

type MsgAcceptBid struct {
	ID uint64 `json:"id"`
}

func (*MsgAcceptBid) Type() string         { return TypeAcceptBid }
func (*MsgAcceptBid) ValidateBasic() error { return nil }

type MsgExecuteOption struct {
	ID uint64 `json:"id"`
}

func (*MsgExecuteOption) Type() string         { return TypeExecuteOption }
func (*MsgExecuteOption) ValidateBasic() error { return nil }

type MsgClaimOption struct {
	ID uint64 `json:"id"`
}

func (*MsgClaimOption) Type() string         { return TypeClaimOption }
func (*MsgClaimOption) ValidateBasic() error { return nil }

type MsgFulfillRandomness struct {
	RequestID uuid.UUID `json:"request_id"`
	Words     []uint64  `json:"words"`
}

func (*MsgFulfillRandomness) Type() string { return TypeFulfillRandomness }

func (m *MsgFulfillRandomness) ValidateBasic() error {
	if m.RequestID == uuid.Nil {
		return Wrapf(ErrUnknownRequest, "request id cannot be nil")
	}
	return ValidateTerms(m.Words, true)
}

type MsgApprove struct {
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

func (*MsgApprove) Type() string { return TypeApprove }

func (m *MsgApprove) ValidateBasic() error {
	if IsZeroAddress(m.Spender) {
		return Wrapf(ErrInvalidAddress, "spender cannot be zero")
	}
	if m.Amount == nil {
		return Wrapf(ErrInvalidAmount, "missing amount")
	}
	return nil
}

type MsgSend struct {
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

func (*MsgSend) Type() string { return TypeSend }

func (m *MsgSend) ValidateBasic() error {
	if IsZeroAddress(m.To) {
		return Wrapf(ErrInvalidAddress, "recipient cannot be zero")
	}
	return requirePositive(m.Amount)
}

type MsgTransferOwnership struct {
	NewOwner common.Address `json:"new_owner"`
}

func (*MsgTransferOwnership) Type() string { return TypeTransferOwnership }

func (m *MsgTransferOwnership) ValidateBasic() error {
	if IsZeroAddress(m.NewOwner) {
		return Wrapf(ErrInvalidAddress, "new owner cannot be zero")
	}
	return nil
}

// MsgSetOracle registers the randomness oracle. The zero address unregisters
// it, after which execution settles without randomness.
type MsgSetOracle struct {
	Oracle common.Address `json:"oracle"`
}

func (*MsgSetOracle) Type() string         { return TypeSetOracle }
func (*MsgSetOracle) ValidateBasic() error { return nil }

func requirePositive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return Wrapf(ErrInvalidAmount, "amount must be greater than zero")
	}
	return nil
}
