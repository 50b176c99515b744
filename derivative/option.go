package derivative

import (
	"github.com/constellation-lab/constellation-zkevm/types"
)

func (e *Engine) createOption(ctx *Context, m *types.MsgCreateOption) (uint64, error) {
	if m.Expires <= ctx.BlockTime() {
		return 0, types.Wrapf(types.ErrInvalidTime, "expiration %d must be after block time %d", m.Expires, ctx.BlockTime())
	}
	if err := types.ValidateTerms(m.CounterOffer, false); err != nil {
		return 0, err
	}

	id, err := ctx.ledger.NextOptionID()
	if err != nil {
		return 0, err
	}
	opt := &types.Option{
		ID:           id,
		Creator:      ctx.caller,
		Owner:        ctx.caller,
		Collateral:   ctx.value.Clone(),
		CounterOffer: append([]uint64{}, m.CounterOffer...),
		Price:        []uint64{},
		Status:       types.StatusCreated,
		Expires:      m.Expires,
	}
	if err := ctx.ledger.SetOption(opt); err != nil {
		return 0, err
	}
	if err := ctx.emit(&types.OptionCreated{
		ID:           opt.ID,
		Creator:      opt.Creator,
		Owner:        opt.Owner,
		Collateral:   opt.Collateral.Clone(),
		CounterOffer: opt.CounterOffer,
		Status:       opt.Status,
		Price:        opt.Price,
		Expires:      opt.Expires,
	}); err != nil {
		return 0, err
	}

	e.metrics.OptionsCreated.Add(1)
	e.logger.Debug("created option", "id", id, "creator", opt.Creator.Hex(), "collateral", opt.Collateral.Dec())
	return id, nil
}

func (e *Engine) transferOption(ctx *Context, m *types.MsgTransferOption) error {
	opt, err := ctx.ledger.Option(m.ID)
	if err != nil {
		return err
	}
	if err := onlyOptionOwner(ctx, opt); err != nil {
		return err
	}
	if opt.Status.Terminal() {
		return types.Wrapf(types.ErrInvalidStatus, "option %d is %s", opt.ID, opt.Status)
	}

	from := opt.Owner
	opt.Owner = m.NewOwner
	if err := ctx.ledger.SetOption(opt); err != nil {
		return err
	}
	return ctx.emit(&types.OptionTransferred{ID: opt.ID, From: from, To: m.NewOwner})
}

func (e *Engine) updatePrice(ctx *Context, m *types.MsgUpdatePrice) error {
	opt, err := ctx.ledger.Option(m.ID)
	if err != nil {
		return err
	}
	if err := onlyOwnerOrCreator(ctx, opt); err != nil {
		return err
	}
	if opt.Status.Terminal() {
		return types.Wrapf(types.ErrInvalidStatus, "option %d is %s", opt.ID, opt.Status)
	}

	opt.Price = append([]uint64{}, m.Price...)
	if err := ctx.ledger.SetOption(opt); err != nil {
		return err
	}
	return ctx.emit(&types.PriceUpdated{ID: opt.ID, Price: opt.Price})
}

func (e *Engine) setCounterOffer(ctx *Context, m *types.MsgSetCounterOffer) error {
	opt, err := ctx.ledger.Option(m.ID)
	if err != nil {
		return err
	}
	if err := onlyCreator(ctx, opt); err != nil {
		return err
	}
	if opt.Status != types.StatusCreated {
		return types.Wrapf(types.ErrInvalidStatus, "counter offer of option %d is fixed once %s", opt.ID, opt.Status)
	}

	opt.CounterOffer = append([]uint64{}, m.CounterOffer...)
	if err := ctx.ledger.SetOption(opt); err != nil {
		return err
	}
	return ctx.emit(&types.CounterOfferUpdated{ID: opt.ID, CounterOffer: opt.CounterOffer})
}

func (e *Engine) cancelOption(ctx *Context, m *types.MsgCancelOption) error {
	return e.nonReentrant(ctx, func() error {
		opt, err := ctx.ledger.Option(m.ID)
		if err != nil {
			return err
		}
		if opt.Status != types.StatusCreated && opt.Status != types.StatusOnMarket {
			return types.Wrapf(types.ErrInvalidStatus, "option %d is %s", opt.ID, opt.Status)
		}
		if err := onlyOptionOwner(ctx, opt); err != nil {
			return err
		}
		if opt.PendingRequest != nil {
			return types.Wrapf(types.ErrSettlementPending, "option %d awaits request %s", opt.ID, opt.PendingRequest)
		}

		if err := e.closeListing(ctx, opt.ID); err != nil {
			return err
		}
		opt.Status = types.StatusCancelled
		if err := ctx.ledger.SetOption(opt); err != nil {
			return err
		}
		refund := opt.Collateral.Clone()
		if err := ctx.emit(&types.OptionCancelled{ID: opt.ID, Owner: opt.Owner, Refund: refund}); err != nil {
			return err
		}

		e.metrics.Settlements.With("path", "cancel").Add(1)
		return e.pay(ctx, opt.Owner, refund)
	})
}
