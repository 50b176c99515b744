package derivative

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/constellation-lab/constellation-zkevm/store"
	"github.com/constellation-lab/constellation-zkevm/types"
)

// Context is the execution environment of one call: who is calling, the value
// attached to the call, the block it belongs to and the store branch its
// writes go to.
//
// Contexts derived from one another within a transaction share the
// transaction's reentrancy lock.
type Context struct {
	context.Context

	caller    common.Address
	value     *uint256.Int
	height    int64
	blockTime time.Time

	kv     store.KVStore
	ledger *store.Ledger
	events *[]types.EventRecord
	tx     *txScope
}

// txScope is the state shared by every call made while one transaction runs.
type txScope struct {
	locked bool
	depth  int
}

// NewContext returns the root context of a transaction executing over kv.
func NewContext(ctx context.Context, kv store.KVStore, height int64, blockTime time.Time) *Context {
	return &Context{
		Context:   ctx,
		value:     new(uint256.Int),
		height:    height,
		blockTime: blockTime,
		kv:        kv,
		ledger:    store.NewLedger(kv),
		events:    new([]types.EventRecord),
		tx:        &txScope{},
	}
}

// WithCaller returns a context for a call made by caller with value attached.
func (c *Context) WithCaller(caller common.Address, value *uint256.Int) *Context {
	cp := *c
	cp.caller = caller
	if value == nil {
		value = new(uint256.Int)
	}
	cp.value = value
	return &cp
}

func (c *Context) Caller() common.Address { return c.caller }

// Value returns the native value attached to the call.
func (c *Context) Value() *uint256.Int { return c.value }

func (c *Context) BlockHeight() int64 { return c.height }

// BlockTime returns the block time in unix seconds.
func (c *Context) BlockTime() int64 { return c.blockTime.Unix() }

// Ledger gives read access to the state visible to the call.
func (c *Context) Ledger() *store.Ledger { return c.ledger }

// Events returns the events emitted through this context so far.
func (c *Context) Events() []types.EventRecord {
	return append([]types.EventRecord(nil), (*c.events)...)
}

// branch opens a cache branch for a nested call. The returned commit function
// flushes the branch's writes and events into c; dropping it discards them.
func (c *Context) branch() (*Context, func() error) {
	cache := store.NewCache(c.kv)
	child := *c
	child.kv = cache
	child.ledger = store.NewLedger(cache)
	child.events = new([]types.EventRecord)
	return &child, func() error {
		if err := cache.Write(); err != nil {
			return err
		}
		*c.events = append(*c.events, *child.events...)
		return nil
	}
}

func (c *Context) emit(ev types.Event) error {
	rec, err := c.ledger.AppendEvent(c.height, ev)
	if err != nil {
		return err
	}
	*c.events = append(*c.events, rec)
	return nil
}
