package derivative

import (
	"github.com/google/uuid"

	"github.com/constellation-lab/constellation-zkevm/types"
)

// executeOption settles an expired option that was listed or sold. Anyone may
// call it. With an oracle registered and more than one counter offer term to
// choose from, settlement waits for randomness and the request id is
// returned; otherwise the option settles at once with word 0.
func (e *Engine) executeOption(ctx *Context, m *types.MsgExecuteOption) (*uuid.UUID, error) {
	var reqID *uuid.UUID
	err := e.nonReentrant(ctx, func() error {
		opt, err := ctx.ledger.Option(m.ID)
		if err != nil {
			return err
		}
		if !opt.Expired(ctx.BlockTime()) {
			return types.Wrapf(types.ErrNotExpired, "option %d expires at %d", opt.ID, opt.Expires)
		}
		if opt.Status != types.StatusOnMarket && opt.Status != types.StatusSold {
			return types.Wrapf(types.ErrInvalidStatus, "option %d is %s", opt.ID, opt.Status)
		}
		if opt.PendingRequest != nil {
			return types.Wrapf(types.ErrSettlementPending, "option %d awaits request %s", opt.ID, opt.PendingRequest)
		}

		params, err := ctx.ledger.Params()
		if err != nil {
			return err
		}
		if params.HasOracle() && len(opt.CounterOffer) > 1 {
			id, err := e.requestRandomness(ctx, opt)
			if err != nil {
				return err
			}
			reqID = &id
			return nil
		}
		return e.settle(ctx, opt, 0)
	})
	return reqID, err
}

// settle pays the collateral of opt to whoever the random word favours. The
// caller must hold the reentrancy lock.
func (e *Engine) settle(ctx *Context, opt *types.Option, word uint64) error {
	observed, itm := opt.InTheMoney(word)
	payee := opt.Creator
	if itm {
		payee = opt.Owner
	}

	if err := e.closeListing(ctx, opt.ID); err != nil {
		return err
	}
	opt.Status = types.StatusExecuted
	opt.PendingRequest = nil
	if err := ctx.ledger.SetOption(opt); err != nil {
		return err
	}
	payout := opt.Collateral.Clone()
	if err := ctx.emit(&types.OptionExecuted{
		ID:         opt.ID,
		Payee:      payee,
		Payout:     payout,
		Observed:   observed,
		InTheMoney: itm,
	}); err != nil {
		return err
	}

	e.metrics.Settlements.With("path", "execute").Add(1)
	e.logger.Debug("executed option", "id", opt.ID, "payee", payee.Hex(), "payout", payout.Dec(), "in_the_money", itm)
	return e.pay(ctx, payee, payout)
}

// claimOption returns the collateral of an expired option that never sold to
// its creator.
func (e *Engine) claimOption(ctx *Context, m *types.MsgClaimOption) error {
	return e.nonReentrant(ctx, func() error {
		opt, err := ctx.ledger.Option(m.ID)
		if err != nil {
			return err
		}
		if !opt.Expired(ctx.BlockTime()) {
			return types.Wrapf(types.ErrNotExpired, "option %d expires at %d", opt.ID, opt.Expires)
		}
		if opt.Status != types.StatusCreated && opt.Status != types.StatusOnMarket {
			return types.Wrapf(types.ErrInvalidStatus, "option %d is %s", opt.ID, opt.Status)
		}
		if err := onlyCreator(ctx, opt); err != nil {
			return err
		}
		if opt.PendingRequest != nil {
			return types.Wrapf(types.ErrSettlementPending, "option %d awaits request %s", opt.ID, opt.PendingRequest)
		}

		if err := e.closeListing(ctx, opt.ID); err != nil {
			return err
		}
		opt.Status = types.StatusExecuted
		if err := ctx.ledger.SetOption(opt); err != nil {
			return err
		}
		amount := opt.Collateral.Clone()
		if err := ctx.emit(&types.OptionClaimed{ID: opt.ID, Creator: opt.Creator, Amount: amount}); err != nil {
			return err
		}

		e.metrics.Settlements.With("path", "claim").Add(1)
		return e.pay(ctx, opt.Creator, amount)
	})
}
