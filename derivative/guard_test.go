package derivative

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/constellation-lab/constellation-zkevm/types"
)

func TestNonReentrant(t *testing.T) {
	e := NewEngine()
	ctx := NewContext(context.Background(), dbm.NewMemDB(), 1, time.Unix(0, 0))

	var inner error
	err := e.nonReentrant(ctx, func() error {
		// derived contexts share the lock
		inner = e.nonReentrant(ctx.WithCaller(common.Address{1}, nil), func() error { return nil })
		return errors.New("boom")
	})
	require.EqualError(t, err, "boom")
	require.ErrorIs(t, inner, types.ErrReentrantCall)
	require.False(t, ctx.tx.locked)

	require.NoError(t, e.nonReentrant(ctx, func() error { return nil }))
}

func TestDeliverCallDepth(t *testing.T) {
	e := NewEngine()
	ctx := NewContext(context.Background(), dbm.NewMemDB(), 1, time.Unix(0, 0)).
		WithCaller(common.Address{1}, nil)

	ctx.tx.depth = maxCallDepth
	_, err := e.Deliver(ctx, &types.MsgSetOracle{})
	require.ErrorIs(t, err, types.ErrInternal)
	require.Equal(t, maxCallDepth, ctx.tx.depth)
}

func TestBranchDiscard(t *testing.T) {
	db := dbm.NewMemDB()
	ctx := NewContext(context.Background(), db, 1, time.Unix(0, 0))

	br, commit := ctx.branch()
	require.NoError(t, br.ledger.SetBalance(common.Address{1}, uint256.NewInt(7)))
	require.NoError(t, br.emit(&types.Transfer{From: common.Address{2}, To: common.Address{1}, Amount: uint256.NewInt(7)}))
	require.Empty(t, ctx.Events())

	bal, err := ctx.ledger.Balance(common.Address{1})
	require.NoError(t, err)
	require.True(t, bal.IsZero())

	require.NoError(t, commit())
	require.Len(t, ctx.Events(), 1)
	bal, err = ctx.ledger.Balance(common.Address{1})
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(7), bal)
}
