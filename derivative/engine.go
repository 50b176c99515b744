package derivative

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/constellation-lab/constellation-zkevm/libs/log"
	"github.com/constellation-lab/constellation-zkevm/types"
)

const (
	// DefaultOracleWords is the number of random words requested per
	// settlement.
	DefaultOracleWords = 1

	// maxCallDepth bounds the nesting of calls made by receiver hooks.
	maxCallDepth = 16
)

// Engine executes ledger operations. It keeps no ledger state itself: every
// operation reads and writes through the Context it is given.
type Engine struct {
	logger      log.Logger
	metrics     *Metrics
	coordinator Coordinator
	oracleWords uint32
	receivers   map[common.Address]Receiver
}

// EngineOption sets an optional parameter on the Engine.
type EngineOption func(*Engine)

func WithLogger(logger log.Logger) EngineOption {
	return func(e *Engine) { e.logger = logger }
}

func WithMetrics(metrics *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = metrics }
}

// WithCoordinator replaces the ledger coordinator that derives randomness
// request ids.
func WithCoordinator(c Coordinator) EngineOption {
	return func(e *Engine) { e.coordinator = c }
}

// WithOracleWords sets the number of random words requested per settlement.
func WithOracleWords(n uint32) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.oracleWords = n
		}
	}
}

func NewEngine(options ...EngineOption) *Engine {
	e := &Engine{
		logger:      log.NewNopLogger(),
		metrics:     NopMetrics(),
		coordinator: LedgerCoordinator{},
		oracleWords: DefaultOracleWords,
		receivers:   make(map[common.Address]Receiver),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// RegisterReceiver installs a hook that runs whenever value is paid to addr.
func (e *Engine) RegisterReceiver(addr common.Address, r Receiver) {
	e.receivers[addr] = r
}

// Result is what a successful call returns to its caller.
type Result struct {
	OptionID  *uint64    `json:"option_id,omitempty"`
	RequestID *uuid.UUID `json:"request_id,omitempty"`
}

// Deliver executes msg on behalf of ctx's caller. The call runs in its own
// branch of ctx's store: on error nothing it wrote survives, on success its
// writes and events are flushed into ctx.
func (e *Engine) Deliver(ctx *Context, msg types.Msg) (Result, error) {
	if ctx.tx.depth >= maxCallDepth {
		return Result{}, types.Wrapf(types.ErrInternal, "call depth exceeds %d", maxCallDepth)
	}
	ctx.tx.depth++
	defer func() { ctx.tx.depth-- }()

	if err := msg.ValidateBasic(); err != nil {
		return Result{}, err
	}
	if !ctx.value.IsZero() && !types.IsPayable(msg) {
		return Result{}, types.Wrapf(types.ErrNotPayable, "%s does not accept value", msg.Type())
	}

	br, commit := ctx.branch()
	if !br.value.IsZero() {
		if err := e.move(br, br.caller, types.EscrowAddress, br.value); err != nil {
			return Result{}, err
		}
	}

	res, err := e.route(br, msg)
	if err != nil {
		return Result{}, err
	}
	if err := commit(); err != nil {
		return Result{}, fmt.Errorf("commit %s: %w", msg.Type(), err)
	}
	return res, nil
}

// Bootstrap installs the genesis state. A second call fails with
// ErrAlreadyBootstrapped.
func (e *Engine) Bootstrap(ctx *Context, gs types.GenesisState) error {
	br, commit := ctx.branch()
	if err := e.bootstrap(br, gs); err != nil {
		return err
	}
	return commit()
}

func (e *Engine) route(ctx *Context, msg types.Msg) (Result, error) {
	switch m := msg.(type) {
	case *types.MsgCreateOption:
		id, err := e.createOption(ctx, m)
		return Result{OptionID: &id}, err
	case *types.MsgTransferOption:
		return Result{}, e.transferOption(ctx, m)
	case *types.MsgUpdatePrice:
		return Result{}, e.updatePrice(ctx, m)
	case *types.MsgSetCounterOffer:
		return Result{}, e.setCounterOffer(ctx, m)
	case *types.MsgCancelOption:
		return Result{}, e.cancelOption(ctx, m)
	case *types.MsgAddToMarket:
		return Result{}, e.addToMarket(ctx, m)
	case *types.MsgRemoveFromMarket:
		return Result{}, e.removeFromMarket(ctx, m)
	case *types.MsgBuyOption:
		return Result{}, e.buyOption(ctx, m)
	case *types.MsgBidOnMarket:
		return Result{}, e.bidOnMarket(ctx, m)
	case *types.MsgAcceptBid:
		return Result{}, e.acceptBid(ctx, m)
	case *types.MsgExecuteOption:
		reqID, err := e.executeOption(ctx, m)
		if reqID == nil {
			return Result{}, err
		}
		return Result{RequestID: reqID}, err
	case *types.MsgClaimOption:
		return Result{}, e.claimOption(ctx, m)
	case *types.MsgFulfillRandomness:
		return Result{}, e.fulfillRandomness(ctx, m)
	case *types.MsgApprove:
		return Result{}, e.approve(ctx, m)
	case *types.MsgSend:
		return Result{}, e.send(ctx, m)
	case *types.MsgTransferOwnership:
		return Result{}, e.transferOwnership(ctx, m)
	case *types.MsgSetOracle:
		return Result{}, e.setOracle(ctx, m)
	default:
		return Result{}, types.Wrapf(types.ErrEncoding, "unhandled message %T", msg)
	}
}

//-----------------------------------------------------------------------------
// Typed entry points. Each runs the corresponding message through Deliver.

func (e *Engine) CreateOption(ctx *Context, counterOffer []uint64, expires int64) (uint64, error) {
	res, err := e.Deliver(ctx, &types.MsgCreateOption{CounterOffer: counterOffer, Expires: expires})
	if err != nil {
		return 0, err
	}
	return *res.OptionID, nil
}

func (e *Engine) TransferOption(ctx *Context, id uint64, newOwner common.Address) error {
	_, err := e.Deliver(ctx, &types.MsgTransferOption{ID: id, NewOwner: newOwner})
	return err
}

func (e *Engine) UpdatePrice(ctx *Context, id uint64, price []uint64) error {
	_, err := e.Deliver(ctx, &types.MsgUpdatePrice{ID: id, Price: price})
	return err
}

func (e *Engine) SetCounterOffer(ctx *Context, id uint64, terms []uint64) error {
	_, err := e.Deliver(ctx, &types.MsgSetCounterOffer{ID: id, CounterOffer: terms})
	return err
}

func (e *Engine) CancelOption(ctx *Context, id uint64) error {
	_, err := e.Deliver(ctx, &types.MsgCancelOption{ID: id})
	return err
}

func (e *Engine) AddToMarket(ctx *Context, id uint64, amount *uint256.Int, currency string) error {
	_, err := e.Deliver(ctx, &types.MsgAddToMarket{ID: id, Amount: amount, Currency: currency})
	return err
}

func (e *Engine) RemoveFromMarket(ctx *Context, id uint64) error {
	_, err := e.Deliver(ctx, &types.MsgRemoveFromMarket{ID: id})
	return err
}

func (e *Engine) BuyOption(ctx *Context, id uint64) error {
	_, err := e.Deliver(ctx, &types.MsgBuyOption{ID: id})
	return err
}

func (e *Engine) BidOnMarket(ctx *Context, id uint64, amount *uint256.Int) error {
	_, err := e.Deliver(ctx, &types.MsgBidOnMarket{ID: id, Amount: amount})
	return err
}

func (e *Engine) AcceptBid(ctx *Context, id uint64) error {
	_, err := e.Deliver(ctx, &types.MsgAcceptBid{ID: id})
	return err
}

// ExecuteOption settles an expired option. When settlement waits on the
// oracle, the id of the randomness request is returned.
func (e *Engine) ExecuteOption(ctx *Context, id uint64) (*uuid.UUID, error) {
	res, err := e.Deliver(ctx, &types.MsgExecuteOption{ID: id})
	return res.RequestID, err
}

func (e *Engine) ClaimOption(ctx *Context, id uint64) error {
	_, err := e.Deliver(ctx, &types.MsgClaimOption{ID: id})
	return err
}

func (e *Engine) FulfillRandomness(ctx *Context, requestID uuid.UUID, words []uint64) error {
	_, err := e.Deliver(ctx, &types.MsgFulfillRandomness{RequestID: requestID, Words: words})
	return err
}

func (e *Engine) Approve(ctx *Context, spender common.Address, amount *uint256.Int) error {
	_, err := e.Deliver(ctx, &types.MsgApprove{Spender: spender, Amount: amount})
	return err
}

func (e *Engine) Send(ctx *Context, to common.Address, amount *uint256.Int) error {
	_, err := e.Deliver(ctx, &types.MsgSend{To: to, Amount: amount})
	return err
}

func (e *Engine) TransferOwnership(ctx *Context, newOwner common.Address) error {
	_, err := e.Deliver(ctx, &types.MsgTransferOwnership{NewOwner: newOwner})
	return err
}

func (e *Engine) SetOracle(ctx *Context, oracle common.Address) error {
	_, err := e.Deliver(ctx, &types.MsgSetOracle{Oracle: oracle})
	return err
}
