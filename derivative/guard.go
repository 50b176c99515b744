package derivative

import (
	"github.com/constellation-lab/constellation-zkevm/types"
)

// nonReentrant runs fn holding the transaction's lock. Entering while the lock
// is held, which happens when a receiver hook calls back into a guarded
// operation, fails with ErrReentrantCall before fn runs.
func (e *Engine) nonReentrant(ctx *Context, fn func() error) error {
	if ctx.tx.locked {
		e.metrics.ReentrantCalls.Add(1)
		return types.Wrapf(types.ErrReentrantCall, "caller %s", ctx.caller.Hex())
	}
	ctx.tx.locked = true
	defer func() { ctx.tx.locked = false }()

	return fn()
}
