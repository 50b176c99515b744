package derivative

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/constellation-lab/constellation-zkevm/types"
)

func (e *Engine) addToMarket(ctx *Context, m *types.MsgAddToMarket) error {
	opt, err := ctx.ledger.Option(m.ID)
	if err != nil {
		return err
	}
	if err := onlyOptionOwner(ctx, opt); err != nil {
		return err
	}
	if opt.Expired(ctx.BlockTime()) {
		return types.Wrapf(types.ErrInvalidTime, "option %d expired at %d", opt.ID, opt.Expires)
	}
	switch opt.Status {
	case types.StatusCreated:
	case types.StatusOnMarket:
		return types.Wrapf(types.ErrAlreadyListed, "option %d", opt.ID)
	default:
		return types.Wrapf(types.ErrInvalidStatus, "option %d is %s", opt.ID, opt.Status)
	}

	lst := &types.Listing{
		OptionID: opt.ID,
		Amount:   m.Amount.Clone(),
		Currency: m.Currency,
		Status:   types.ListingOnSale,
		Seller:   opt.Owner,
	}
	if err := ctx.ledger.SetListing(lst); err != nil {
		return err
	}
	opt.Status = types.StatusOnMarket
	if err := ctx.ledger.SetOption(opt); err != nil {
		return err
	}
	return ctx.emit(&types.OptionAddedToMarket{ID: opt.ID, Amount: lst.Amount.Clone(), Currency: lst.Currency})
}

func (e *Engine) removeFromMarket(ctx *Context, m *types.MsgRemoveFromMarket) error {
	opt, err := ctx.ledger.Option(m.ID)
	if err != nil {
		return err
	}
	lst, err := ctx.ledger.Listing(m.ID)
	if err != nil {
		return err
	}
	if !lst.OnSale() {
		return types.Wrapf(types.ErrNotOnSale, "option %d", m.ID)
	}
	if err := onlyOptionOwner(ctx, opt); err != nil {
		return err
	}
	if opt.PendingRequest != nil {
		return types.Wrapf(types.ErrSettlementPending, "option %d awaits request %s", opt.ID, opt.PendingRequest)
	}

	lst.Close()
	if err := ctx.ledger.SetListing(lst); err != nil {
		return err
	}
	opt.Status = types.StatusCreated
	if err := ctx.ledger.SetOption(opt); err != nil {
		return err
	}
	return ctx.emit(&types.OptionRemovedFromMarket{ID: opt.ID})
}

// buyOption sells a listed option for exactly the listed amount, which the
// buyer attaches to the call.
func (e *Engine) buyOption(ctx *Context, m *types.MsgBuyOption) error {
	return e.nonReentrant(ctx, func() error {
		opt, lst, err := e.loadSale(ctx, m.ID)
		if err != nil {
			return err
		}
		if ctx.caller == opt.Owner {
			return types.Wrapf(types.ErrInvalidAddress, "owner cannot buy option %d", opt.ID)
		}
		switch ctx.value.Cmp(lst.Amount) {
		case -1:
			return types.Wrapf(types.ErrInsufficientFunds, "attached %s, listed at %s", ctx.value.Dec(), lst.Amount.Dec())
		case 1:
			return types.Wrapf(types.ErrPriceMismatch, "attached %s, listed at %s", ctx.value.Dec(), lst.Amount.Dec())
		}

		seller := opt.Owner
		amount := lst.Amount.Clone()
		if err := e.recordSale(ctx, opt, lst, ctx.caller, amount); err != nil {
			return err
		}

		e.metrics.OptionsSold.With("path", "buy").Add(1)
		return e.pay(ctx, seller, amount)
	})
}

// bidOnMarket records an offer the owner may accept later. The bidder must
// have approved MarketAddress for at least the bid amount.
func (e *Engine) bidOnMarket(ctx *Context, m *types.MsgBidOnMarket) error {
	opt, lst, err := e.loadSale(ctx, m.ID)
	if err != nil {
		return err
	}
	if ctx.caller == opt.Owner {
		return types.Wrapf(types.ErrInvalidAddress, "owner cannot bid on option %d", opt.ID)
	}
	if lst.Bid != nil && !m.Amount.Gt(lst.Bid.Amount) {
		return types.Wrapf(types.ErrInvalidAmount, "bid %s does not exceed best bid %s", m.Amount.Dec(), lst.Bid.Amount.Dec())
	}
	allowance, err := ctx.ledger.Allowance(ctx.caller, types.MarketAddress)
	if err != nil {
		return err
	}
	if allowance.Lt(m.Amount) {
		return types.Wrapf(types.ErrAllowanceExceeded, "allowance %s, bid %s", allowance.Dec(), m.Amount.Dec())
	}

	lst.Bid = &types.Bid{Bidder: ctx.caller, Amount: m.Amount.Clone()}
	if err := ctx.ledger.SetListing(lst); err != nil {
		return err
	}
	return ctx.emit(&types.BidPlaced{ID: opt.ID, Bidder: ctx.caller, Amount: m.Amount.Clone()})
}

// acceptBid sells the option to the best bidder, pulling the bid amount from
// the bidder's balance through the market allowance.
func (e *Engine) acceptBid(ctx *Context, m *types.MsgAcceptBid) error {
	return e.nonReentrant(ctx, func() error {
		opt, err := ctx.ledger.Option(m.ID)
		if err != nil {
			return err
		}
		lst, err := ctx.ledger.Listing(m.ID)
		if err != nil {
			return err
		}
		if !lst.OnSale() {
			return types.Wrapf(types.ErrNotOnSale, "option %d", m.ID)
		}
		if err := onlyOptionOwner(ctx, opt); err != nil {
			return err
		}
		if lst.Bid == nil {
			return types.Wrapf(types.ErrNoBid, "option %d", opt.ID)
		}
		if opt.Expired(ctx.BlockTime()) {
			return types.Wrapf(types.ErrInvalidTime, "option %d expired at %d", opt.ID, opt.Expires)
		}

		bid := *lst.Bid
		if bid.Bidder == opt.Owner {
			return types.Wrapf(types.ErrInvalidAddress, "bidder %s already owns option %d", bid.Bidder.Hex(), opt.ID)
		}
		allowance, err := ctx.ledger.Allowance(bid.Bidder, types.MarketAddress)
		if err != nil {
			return err
		}
		if allowance.Lt(bid.Amount) {
			return types.Wrapf(types.ErrAllowanceExceeded, "allowance %s, bid %s", allowance.Dec(), bid.Amount.Dec())
		}
		if err := e.requireBalance(ctx, bid.Bidder, bid.Amount); err != nil {
			return err
		}

		seller := opt.Owner
		if err := e.recordSale(ctx, opt, lst, bid.Bidder, bid.Amount); err != nil {
			return err
		}

		e.metrics.OptionsSold.With("path", "bid").Add(1)
		return e.transferFrom(ctx, types.MarketAddress, bid.Bidder, seller, bid.Amount)
	})
}

// loadSale loads an option whose listing is open and unexpired.
func (e *Engine) loadSale(ctx *Context, id uint64) (*types.Option, *types.Listing, error) {
	opt, err := ctx.ledger.Option(id)
	if err != nil {
		return nil, nil, err
	}
	lst, err := ctx.ledger.Listing(id)
	if err != nil {
		return nil, nil, err
	}
	if !lst.OnSale() {
		return nil, nil, types.Wrapf(types.ErrNotOnSale, "option %d", id)
	}
	if opt.Expired(ctx.BlockTime()) {
		return nil, nil, types.Wrapf(types.ErrInvalidTime, "option %d expired at %d", opt.ID, opt.Expires)
	}
	return opt, lst, nil
}

// recordSale applies the effects of a sale before any value moves.
func (e *Engine) recordSale(ctx *Context, opt *types.Option, lst *types.Listing, buyer common.Address, amount *uint256.Int) error {
	seller := opt.Owner
	opt.Owner = buyer
	opt.Status = types.StatusSold
	if err := ctx.ledger.SetOption(opt); err != nil {
		return err
	}
	lst.Status = types.ListingSold
	lst.Bid = nil
	if err := ctx.ledger.SetListing(lst); err != nil {
		return err
	}
	return ctx.emit(&types.OptionSold{ID: opt.ID, Seller: seller, Buyer: buyer, Amount: amount.Clone()})
}

// closeListing takes an open listing off the market.
func (e *Engine) closeListing(ctx *Context, id uint64) error {
	lst, err := ctx.ledger.Listing(id)
	if err != nil {
		return err
	}
	if !lst.OnSale() {
		return nil
	}
	lst.Close()
	return ctx.ledger.SetListing(lst)
}
