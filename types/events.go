package types

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// Event names. They double as the ABCI event type.
const (
	EventOptionCreated           = "OptionCreated"
	EventOptionTransferred       = "OptionTransferred"
	EventPriceUpdated            = "PriceUpdated"
	EventCounterOfferUpdated     = "CounterOfferUpdated"
	EventOptionCancelled         = "OptionCancelled"
	EventOptionAddedToMarket     = "OptionAddedToMarket"
	EventOptionRemovedFromMarket = "OptionRemovedFromMarket"
	EventOptionSold              = "OptionSold"
	EventBidPlaced               = "BidPlaced"
	EventRandomnessRequested     = "RandomnessRequested"
	EventRandomnessFulfilled     = "RandomnessFulfilled"
	EventOptionExecuted          = "OptionExecuted"
	EventOptionClaimed           = "OptionClaimed"
	EventOwnershipTransferred    = "OwnershipTransferred"
	EventOracleUpdated           = "OracleUpdated"
	EventTransfer                = "Transfer"
	EventApproval                = "Approval"
)

// Event is an entry of the ledger's append-only event log.
type Event interface {
	EventName() string
	Attributes() []Attribute
}

// OptionEvent is implemented by events that concern a single option.
type OptionEvent interface {
	Event
	OptionID() uint64
}

// Attribute is a key/value pair of an event, indexed by Tendermint.
type Attribute struct {
	Key   string
	Value string
}

var eventRegistry = map[string]func() Event{
	EventOptionCreated:           func() Event { return &OptionCreated{} },
	EventOptionTransferred:       func() Event { return &OptionTransferred{} },
	EventPriceUpdated:            func() Event { return &PriceUpdated{} },
	EventCounterOfferUpdated:     func() Event { return &CounterOfferUpdated{} },
	EventOptionCancelled:         func() Event { return &OptionCancelled{} },
	EventOptionAddedToMarket:     func() Event { return &OptionAddedToMarket{} },
	EventOptionRemovedFromMarket: func() Event { return &OptionRemovedFromMarket{} },
	EventOptionSold:              func() Event { return &OptionSold{} },
	EventBidPlaced:               func() Event { return &BidPlaced{} },
	EventRandomnessRequested:     func() Event { return &RandomnessRequested{} },
	EventRandomnessFulfilled:     func() Event { return &RandomnessFulfilled{} },
	EventOptionExecuted:          func() Event { return &OptionExecuted{} },
	EventOptionClaimed:           func() Event { return &OptionClaimed{} },
	EventOwnershipTransferred:    func() Event { return &OwnershipTransferred{} },
	EventOracleUpdated:           func() Event { return &OracleUpdated{} },
	EventTransfer:                func() Event { return &Transfer{} },
	EventApproval:                func() Event { return &Approval{} },
}

type OptionCreated struct {
	ID           uint64         `json:"id"`
	Creator      common.Address `json:"creator"`
	Owner        common.Address `json:"owner"`
	Collateral   *uint256.Int   `json:"collateral"`
	CounterOffer []uint64       `json:"counter_offer"`
	Status       OptionStatus   `json:"status"`
	Price        []uint64       `json:"price"`
	Expires      int64          `json:"expires"`
}

func (*OptionCreated) EventName() string  { return EventOptionCreated }
func (e *OptionCreated) OptionID() uint64 { return e.ID }
func (e *OptionCreated) Attributes() []Attribute {
	return []Attribute{
		idAttr(e.ID),
		addrAttr("creator", e.Creator),
		addrAttr("owner", e.Owner),
		amountAttr("collateral", e.Collateral),
		{"counter_offer", FormatTerms(e.CounterOffer)},
		{"status", e.Status.String()},
		{"price", FormatTerms(e.Price)},
		{"expires", strconv.FormatInt(e.Expires, 10)},
	}
}

type OptionTransferred struct {
	ID   uint64         `json:"id"`
	From common.Address `json:"from"`
	To   common.Address `json:"to"`
}

func (*OptionTransferred) EventName() string  { return EventOptionTransferred }
func (e *OptionTransferred) OptionID() uint64 { return e.ID }
func (e *OptionTransferred) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID), addrAttr("from", e.From), addrAttr("to", e.To)}
}

type PriceUpdated struct {
	ID    uint64   `json:"id"`
	Price []uint64 `json:"price"`
}

func (*PriceUpdated) EventName() string  { return EventPriceUpdated }
func (e *PriceUpdated) OptionID() uint64 { return e.ID }
func (e *PriceUpdated) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID), {"price", FormatTerms(e.Price)}}
}

type CounterOfferUpdated struct {
	ID           uint64   `json:"id"`
	CounterOffer []uint64 `json:"counter_offer"`
}

func (*CounterOfferUpdated) EventName() string  { return EventCounterOfferUpdated }
func (e *CounterOfferUpdated) OptionID() uint64 { return e.ID }
func (e *CounterOfferUpdated) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID), {"counter_offer", FormatTerms(e.CounterOffer)}}
}

type OptionCancelled struct {
	ID     uint64         `json:"id"`
	Owner  common.Address `json:"owner"`
	Refund *uint256.Int   `json:"refund"`
}

func (*OptionCancelled) EventName() string  { return EventOptionCancelled }
func (e *OptionCancelled) OptionID() uint64 { return e.ID }
func (e *OptionCancelled) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID), addrAttr("owner", e.Owner), amountAttr("refund", e.Refund)}
}

type OptionAddedToMarket struct {
	ID       uint64       `json:"id"`
	Amount   *uint256.Int `json:"amount"`
	Currency string       `json:"currency"`
}

func (*OptionAddedToMarket) EventName() string  { return EventOptionAddedToMarket }
func (e *OptionAddedToMarket) OptionID() uint64 { return e.ID }
func (e *OptionAddedToMarket) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID), amountAttr("amount", e.Amount), {"currency", e.Currency}}
}

type OptionRemovedFromMarket struct {
	ID uint64 `json:"id"`
}

func (*OptionRemovedFromMarket) EventName() string  { return EventOptionRemovedFromMarket }
func (e *OptionRemovedFromMarket) OptionID() uint64 { return e.ID }
func (e *OptionRemovedFromMarket) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID)}
}

type OptionSold struct {
	ID     uint64         `json:"id"`
	Seller common.Address `json:"seller"`
	Buyer  common.Address `json:"buyer"`
	Amount *uint256.Int   `json:"amount"`
}

func (*OptionSold) EventName() string  { return EventOptionSold }
func (e *OptionSold) OptionID() uint64 { return e.ID }
func (e *OptionSold) Attributes() []Attribute {
	return []Attribute{
		idAttr(e.ID),
		addrAttr("seller", e.Seller),
		addrAttr("buyer", e.Buyer),
		amountAttr("amount", e.Amount),
	}
}

type BidPlaced struct {
	ID     uint64         `json:"id"`
	Bidder common.Address `json:"bidder"`
	Amount *uint256.Int   `json:"amount"`
}

func (*BidPlaced) EventName() string  { return EventBidPlaced }
func (e *BidPlaced) OptionID() uint64 { return e.ID }
func (e *BidPlaced) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID), addrAttr("bidder", e.Bidder), amountAttr("amount", e.Amount)}
}

type RandomnessRequested struct {
	RequestID uuid.UUID `json:"request_id"`
	ID        uint64    `json:"id"`
	NumWords  uint32    `json:"num_words"`
}

func (*RandomnessRequested) EventName() string  { return EventRandomnessRequested }
func (e *RandomnessRequested) OptionID() uint64 { return e.ID }
func (e *RandomnessRequested) Attributes() []Attribute {
	return []Attribute{
		idAttr(e.ID),
		{"request_id", e.RequestID.String()},
		{"num_words", strconv.FormatUint(uint64(e.NumWords), 10)},
	}
}

type RandomnessFulfilled struct {
	RequestID uuid.UUID `json:"request_id"`
	ID        uint64    `json:"id"`
	Words     []uint64  `json:"words"`
}

func (*RandomnessFulfilled) EventName() string  { return EventRandomnessFulfilled }
func (e *RandomnessFulfilled) OptionID() uint64 { return e.ID }
func (e *RandomnessFulfilled) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID), {"request_id", e.RequestID.String()}, {"words", FormatTerms(e.Words)}}
}

type OptionExecuted struct {
	ID         uint64         `json:"id"`
	Payee      common.Address `json:"payee"`
	Payout     *uint256.Int   `json:"payout"`
	Observed   uint64         `json:"observed"`
	InTheMoney bool           `json:"in_the_money"`
}

func (*OptionExecuted) EventName() string  { return EventOptionExecuted }
func (e *OptionExecuted) OptionID() uint64 { return e.ID }
func (e *OptionExecuted) Attributes() []Attribute {
	return []Attribute{
		idAttr(e.ID),
		addrAttr("payee", e.Payee),
		amountAttr("payout", e.Payout),
		{"observed", strconv.FormatUint(e.Observed, 10)},
		{"in_the_money", strconv.FormatBool(e.InTheMoney)},
	}
}

type OptionClaimed struct {
	ID      uint64         `json:"id"`
	Creator common.Address `json:"creator"`
	Amount  *uint256.Int   `json:"amount"`
}

func (*OptionClaimed) EventName() string  { return EventOptionClaimed }
func (e *OptionClaimed) OptionID() uint64 { return e.ID }
func (e *OptionClaimed) Attributes() []Attribute {
	return []Attribute{idAttr(e.ID), addrAttr("creator", e.Creator), amountAttr("amount", e.Amount)}
}

type OwnershipTransferred struct {
	Previous common.Address `json:"previous"`
	New      common.Address `json:"new"`
}

func (*OwnershipTransferred) EventName() string { return EventOwnershipTransferred }
func (e *OwnershipTransferred) Attributes() []Attribute {
	return []Attribute{addrAttr("previous", e.Previous), addrAttr("new", e.New)}
}

type OracleUpdated struct {
	Previous common.Address `json:"previous"`
	New      common.Address `json:"new"`
}

func (*OracleUpdated) EventName() string { return EventOracleUpdated }
func (e *OracleUpdated) Attributes() []Attribute {
	return []Attribute{addrAttr("previous", e.Previous), addrAttr("new", e.New)}
}

type Transfer struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Amount *uint256.Int   `json:"amount"`
}

func (*Transfer) EventName() string { return EventTransfer }
func (e *Transfer) Attributes() []Attribute {
	return []Attribute{addrAttr("from", e.From), addrAttr("to", e.To), amountAttr("amount", e.Amount)}
}

type Approval struct {
	Owner   common.Address `json:"owner"`
	Spender common.Address `json:"spender"`
	Amount  *uint256.Int   `json:"amount"`
}

func (*Approval) EventName() string { return EventApproval }
func (e *Approval) Attributes() []Attribute {
	return []Attribute{addrAttr("owner", e.Owner), addrAttr("spender", e.Spender), amountAttr("amount", e.Amount)}
}

func idAttr(id uint64) Attribute {
	return Attribute{"id", strconv.FormatUint(id, 10)}
}

func addrAttr(key string, addr common.Address) Attribute {
	return Attribute{key, addr.Hex()}
}

func amountAttr(key string, amount *uint256.Int) Attribute {
	if amount == nil {
		return Attribute{key, "0"}
	}
	return Attribute{key, amount.Dec()}
}

//-----------------------------------------------------------------------------

// EventRecord is an event as stored in the ledger's log, numbered by a
// sequence that increases with every committed event.
type EventRecord struct {
	Seq    uint64
	Height int64
	Event  Event
}

type eventRecordJSON struct {
	Seq    uint64          `json:"seq"`
	Height int64           `json:"height"`
	Name   string          `json:"name"`
	Data   json.RawMessage `json:"data"`
}

func (r EventRecord) Name() string { return r.Event.EventName() }

func (r EventRecord) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(r.Event)
	if err != nil {
		return nil, err
	}
	return json.Marshal(eventRecordJSON{Seq: r.Seq, Height: r.Height, Name: r.Name(), Data: data})
}

func (r *EventRecord) UnmarshalJSON(bz []byte) error {
	var raw eventRecordJSON
	if err := json.Unmarshal(bz, &raw); err != nil {
		return err
	}
	newEvent, ok := eventRegistry[raw.Name]
	if !ok {
		return fmt.Errorf("unknown event %q", raw.Name)
	}
	ev := newEvent()
	if err := json.Unmarshal(raw.Data, ev); err != nil {
		return fmt.Errorf("event %s: %w", raw.Name, err)
	}
	r.Seq, r.Height, r.Event = raw.Seq, raw.Height, ev
	return nil
}

// EventFilter selects event records.
type EventFilter func(EventRecord) bool

// ByName matches records whose event has one of the given names.
func ByName(names ...string) EventFilter {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(r EventRecord) bool {
		_, ok := set[r.Name()]
		return ok
	}
}

// ByOption matches records about the given option.
func ByOption(id uint64) EventFilter {
	return func(r EventRecord) bool {
		oe, ok := r.Event.(OptionEvent)
		return ok && oe.OptionID() == id
	}
}

// SinceHeight matches records committed at or after height.
func SinceHeight(height int64) EventFilter {
	return func(r EventRecord) bool { return r.Height >= height }
}

// MatchAll matches records accepted by every filter. No filters match all.
func MatchAll(filters ...EventFilter) EventFilter {
	return func(r EventRecord) bool {
		for _, f := range filters {
			if !f(r) {
				return false
			}
		}
		return true
	}
}

// EventQuery is the JSON form of an event filter, as sent to the /events
// query path.
type EventQuery struct {
	Names       []string `json:"names,omitempty"`
	OptionID    *uint64  `json:"option_id,omitempty"`
	SinceHeight int64    `json:"since_height,omitempty"`
	Limit       int      `json:"limit,omitempty"`
}

func (q EventQuery) Filter() EventFilter {
	var filters []EventFilter
	if len(q.Names) > 0 {
		filters = append(filters, ByName(q.Names...))
	}
	if q.OptionID != nil {
		filters = append(filters, ByOption(*q.OptionID))
	}
	if q.SinceHeight > 0 {
		filters = append(filters, SinceHeight(q.SinceHeight))
	}
	return MatchAll(filters...)
}
