package derivative

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/constellation-lab/constellation-zkevm/types"
)

// Receiver is a programmable account. Receive runs after value has been
// credited to the account; ctx's caller is the receiving account, so calls
// it makes through the Engine are made in its name. Returning an error rejects
// the payment and fails the paying call.
type Receiver interface {
	Receive(ctx *Context, from common.Address, amount *uint256.Int) error
}

// The ReceiverFunc type is an adapter to allow the use of ordinary functions
// as Receivers.
type ReceiverFunc func(ctx *Context, from common.Address, amount *uint256.Int) error

func (f ReceiverFunc) Receive(ctx *Context, from common.Address, amount *uint256.Int) error {
	return f(ctx, from, amount)
}

// move debits from and credits to without running hooks.
func (e *Engine) move(ctx *Context, from, to common.Address, amount *uint256.Int) error {
	if amount.IsZero() {
		return nil
	}
	fromBal, err := ctx.ledger.Balance(from)
	if err != nil {
		return err
	}
	newFrom, underflow := new(uint256.Int).SubOverflow(fromBal, amount)
	if underflow {
		return types.Wrapf(types.ErrInsufficientFunds, "%s has %s, needs %s", from.Hex(), fromBal.Dec(), amount.Dec())
	}
	if err := ctx.ledger.SetBalance(from, newFrom); err != nil {
		return err
	}

	toBal, err := ctx.ledger.Balance(to)
	if err != nil {
		return err
	}
	newTo, overflow := new(uint256.Int).AddOverflow(toBal, amount)
	if overflow {
		return types.Wrapf(types.ErrOverflow, "crediting %s to %s", amount.Dec(), to.Hex())
	}
	if err := ctx.ledger.SetBalance(to, newTo); err != nil {
		return err
	}
	return ctx.emit(&types.Transfer{From: from, To: to, Amount: amount.Clone()})
}

// notify runs the receiver hook of to, if one is registered.
func (e *Engine) notify(ctx *Context, from, to common.Address, amount *uint256.Int) error {
	r, ok := e.receivers[to]
	if !ok {
		return nil
	}
	if err := r.Receive(ctx.WithCaller(to, nil), from, amount.Clone()); err != nil {
		return types.Wrapf(types.ErrTransferFailed, "recipient %s: %v", to.Hex(), err)
	}
	return nil
}

// pay releases amount from escrow to to. It is the last step of every
// settlement and must run under the reentrancy guard.
func (e *Engine) pay(ctx *Context, to common.Address, amount *uint256.Int) error {
	if err := e.move(ctx, types.EscrowAddress, to, amount); err != nil {
		return err
	}
	return e.notify(ctx, types.EscrowAddress, to, amount)
}

// transferFrom moves amount from owner to to against the allowance owner
// granted spender.
func (e *Engine) transferFrom(ctx *Context, spender, owner, to common.Address, amount *uint256.Int) error {
	allowance, err := ctx.ledger.Allowance(owner, spender)
	if err != nil {
		return err
	}
	if allowance.Lt(amount) {
		return types.Wrapf(types.ErrAllowanceExceeded, "%s allowed %s, needs %s", owner.Hex(), allowance.Dec(), amount.Dec())
	}
	if err := ctx.ledger.SetAllowance(owner, spender, new(uint256.Int).Sub(allowance, amount)); err != nil {
		return err
	}
	if err := e.move(ctx, owner, to, amount); err != nil {
		return err
	}
	return e.notify(ctx, owner, to, amount)
}

func (e *Engine) approve(ctx *Context, m *types.MsgApprove) error {
	if err := ctx.ledger.SetAllowance(ctx.caller, m.Spender, m.Amount); err != nil {
		return err
	}
	return ctx.emit(&types.Approval{Owner: ctx.caller, Spender: m.Spender, Amount: m.Amount.Clone()})
}

func (e *Engine) send(ctx *Context, m *types.MsgSend) error {
	if isModuleAddress(m.To) {
		return types.Wrapf(types.ErrInvalidAddress, "cannot send to module account %s", m.To.Hex())
	}
	return e.nonReentrant(ctx, func() error {
		if err := e.move(ctx, ctx.caller, m.To, m.Amount); err != nil {
			return err
		}
		return e.notify(ctx, ctx.caller, m.To, m.Amount)
	})
}

func isModuleAddress(addr common.Address) bool {
	return addr == types.EscrowAddress || addr == types.MarketAddress
}

func (e *Engine) requireBalance(ctx *Context, addr common.Address, amount *uint256.Int) error {
	bal, err := ctx.ledger.Balance(addr)
	if err != nil {
		return err
	}
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", types.ErrInsufficientFunds, addr.Hex(), bal.Dec(), amount.Dec())
	}
	return nil
}
