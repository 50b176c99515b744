package derivative

import (
	"github.com/constellation-lab/constellation-zkevm/types"
)

func (e *Engine) onlyOwner(ctx *Context) error {
	params, err := ctx.ledger.Params()
	if err != nil {
		return err
	}
	if ctx.caller != params.Owner || types.IsZeroAddress(params.Owner) {
		return types.Wrapf(types.ErrUnauthorized, "caller %s is not the owner", ctx.caller.Hex())
	}
	return nil
}

func (e *Engine) onlyOracle(ctx *Context) error {
	params, err := ctx.ledger.Params()
	if err != nil {
		return err
	}
	if !params.HasOracle() || ctx.caller != params.Oracle {
		return types.Wrapf(types.ErrUnauthorized, "caller %s is not the oracle", ctx.caller.Hex())
	}
	return nil
}

func onlyOptionOwner(ctx *Context, opt *types.Option) error {
	if ctx.caller != opt.Owner {
		return types.Wrapf(types.ErrUnauthorized, "caller %s does not own option %d", ctx.caller.Hex(), opt.ID)
	}
	return nil
}

func onlyCreator(ctx *Context, opt *types.Option) error {
	if ctx.caller != opt.Creator {
		return types.Wrapf(types.ErrUnauthorized, "caller %s is not the creator of option %d", ctx.caller.Hex(), opt.ID)
	}
	return nil
}

func onlyOwnerOrCreator(ctx *Context, opt *types.Option) error {
	if ctx.caller != opt.Owner && ctx.caller != opt.Creator {
		return types.Wrapf(types.ErrUnauthorized, "caller %s is neither owner nor creator of option %d", ctx.caller.Hex(), opt.ID)
	}
	return nil
}

// bootstrap installs the genesis state. It runs once, before any transaction.
func (e *Engine) bootstrap(ctx *Context, gs types.GenesisState) error {
	if err := gs.ValidateBasic(); err != nil {
		return err
	}
	params, err := ctx.ledger.Params()
	if err != nil {
		return err
	}
	if params.Bootstrapped {
		return types.ErrAlreadyBootstrapped
	}

	if err := ctx.ledger.SetParams(types.Params{
		Owner:          gs.Owner,
		Oracle:         gs.Oracle,
		NativeCurrency: gs.NativeCurrency,
		Bootstrapped:   true,
	}); err != nil {
		return err
	}
	for _, b := range gs.Balances {
		if err := ctx.ledger.SetBalance(b.Address, b.Amount); err != nil {
			return err
		}
	}
	if !types.IsZeroAddress(gs.Owner) {
		if err := ctx.emit(&types.OwnershipTransferred{New: gs.Owner}); err != nil {
			return err
		}
	}
	if !types.IsZeroAddress(gs.Oracle) {
		if err := ctx.emit(&types.OracleUpdated{New: gs.Oracle}); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) transferOwnership(ctx *Context, m *types.MsgTransferOwnership) error {
	if err := e.onlyOwner(ctx); err != nil {
		return err
	}
	params, err := ctx.ledger.Params()
	if err != nil {
		return err
	}
	prev := params.Owner
	params.Owner = m.NewOwner
	if err := ctx.ledger.SetParams(params); err != nil {
		return err
	}
	return ctx.emit(&types.OwnershipTransferred{Previous: prev, New: m.NewOwner})
}

func (e *Engine) setOracle(ctx *Context, m *types.MsgSetOracle) error {
	if err := e.onlyOwner(ctx); err != nil {
		return err
	}
	params, err := ctx.ledger.Params()
	if err != nil {
		return err
	}
	prev := params.Oracle
	params.Oracle = m.Oracle
	if err := ctx.ledger.SetParams(params); err != nil {
		return err
	}
	return ctx.emit(&types.OracleUpdated{Previous: prev, New: m.Oracle})
}
