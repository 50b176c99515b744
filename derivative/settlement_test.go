package derivative_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/constellation-lab/constellation-zkevm/derivative"
	"github.com/constellation-lab/constellation-zkevm/types"
)

func TestPrematureSettlement(t *testing.T) {
	env := newTestEnv(t)
	id := env.sell(alice, bob, ether(1), ether(1), []uint64{100}, time.Hour)

	_, err := env.engine.ExecuteOption(env.as(carol), id)
	require.ErrorIs(t, err, types.ErrNotExpired)

	env.advance(time.Hour)
	reqID, err := env.engine.ExecuteOption(env.as(carol), id)
	require.NoError(t, err)
	require.Nil(t, reqID)
	require.Equal(t, types.StatusExecuted, env.option(id).Status)

	// no price set: the owner takes the collateral
	require.Equal(t, ether(100), env.balance(alice))
	require.Equal(t, ether(100), env.balance(bob))
	require.True(t, env.balance(types.EscrowAddress).IsZero())

	executed := env.events(types.ByName(types.EventOptionExecuted))
	require.Len(t, executed, 1)
	require.Equal(t, &types.OptionExecuted{
		ID:         id,
		Payee:      bob,
		Payout:     ether(1),
		Observed:   100,
		InTheMoney: true,
	}, executed[0].Event)

	_, err = env.engine.ExecuteOption(env.as(carol), id)
	require.ErrorIs(t, err, types.ErrInvalidStatus)
}

func TestExecuteRequiresListedOrSold(t *testing.T) {
	env := newTestEnv(t)
	id := env.createOption(alice, ether(1), nil, time.Hour)
	env.advance(2 * time.Hour)

	_, err := env.engine.ExecuteOption(env.as(alice), id)
	require.ErrorIs(t, err, types.ErrInvalidStatus)
	_, err = env.engine.ExecuteOption(env.as(alice), 5)
	require.ErrorIs(t, err, types.ErrNotFound)
}

func TestExecuteListedOption(t *testing.T) {
	env := newTestEnv(t)
	id := env.createOption(alice, ether(1), nil, time.Hour)
	require.NoError(t, env.engine.AddToMarket(env.as(alice), id, ether(1), "ETH"))
	env.advance(time.Hour)

	_, err := env.engine.ExecuteOption(env.as(bob), id)
	require.NoError(t, err)
	require.Equal(t, types.StatusExecuted, env.option(id).Status)
	require.Equal(t, types.ListingNotListed, env.listing(id).Status)
	require.Equal(t, ether(100), env.balance(alice))
}

func setupOracleSettlement(t *testing.T, env *testEnv) (uint64, uuid.UUID) {
	id := env.createOption(alice, ether(2), []uint64{90, 110}, time.Hour)
	require.NoError(t, env.engine.UpdatePrice(env.as(alice), id, []uint64{100}))
	require.NoError(t, env.engine.AddToMarket(env.as(alice), id, ether(1), "ETH"))
	require.NoError(t, env.engine.BuyOption(env.pay(bob, ether(1)), id))
	env.advance(time.Hour)

	reqID, err := env.engine.ExecuteOption(env.as(carol), id)
	require.NoError(t, err)
	require.NotNil(t, reqID)
	return id, *reqID
}

func TestExecuteWithOracle(t *testing.T) {
	env := newTestEnv(t)
	id, reqID := setupOracleSettlement(t, env)

	opt := env.option(id)
	require.Equal(t, types.StatusSold, opt.Status)
	require.Equal(t, &reqID, opt.PendingRequest)

	req, ok, err := env.ledger().Request(reqID)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, &types.OracleRequest{ID: reqID, OptionID: id, NumWords: 1, Height: env.height}, req)

	_, err = env.engine.ExecuteOption(env.as(carol), id)
	require.ErrorIs(t, err, types.ErrSettlementPending)

	require.ErrorIs(t, env.engine.FulfillRandomness(env.as(bob), reqID, []uint64{1}), types.ErrUnauthorized)
	require.ErrorIs(t, env.engine.FulfillRandomness(env.as(oracle), reqID, nil), types.ErrInvalidArray)
	require.ErrorIs(t, env.engine.FulfillRandomness(env.as(oracle), uuid.New(), []uint64{1}), types.ErrUnknownRequest)

	// word 0 observes 90, below the strike of 100: the creator is repaid
	require.NoError(t, env.engine.FulfillRandomness(env.as(oracle), reqID, []uint64{0}))

	opt = env.option(id)
	require.Equal(t, types.StatusExecuted, opt.Status)
	require.Nil(t, opt.PendingRequest)
	require.Equal(t, ether(101), env.balance(alice))
	require.Equal(t, ether(99), env.balance(bob))

	executed := env.events(types.ByName(types.EventOptionExecuted))
	require.Len(t, executed, 1)
	require.Equal(t, &types.OptionExecuted{ID: id, Payee: alice, Payout: ether(2), Observed: 90}, executed[0].Event)

	req, _, err = env.ledger().Request(reqID)
	require.NoError(t, err)
	require.True(t, req.Fulfilled)
	require.Equal(t, []uint64{0}, req.Words)
}

func TestFulfillRandomnessIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, reqID := setupOracleSettlement(t, env)

	require.NoError(t, env.engine.FulfillRandomness(env.as(oracle), reqID, []uint64{1}))
	err := env.engine.FulfillRandomness(env.as(oracle), reqID, []uint64{1})
	require.ErrorIs(t, err, types.ErrUnknownRequest)

	// word 1 observes 110: the owner was paid, once
	require.Equal(t, ether(101), env.balance(bob))
	require.Len(t, env.events(types.ByName(types.EventOptionExecuted)), 1)
	require.Len(t, env.events(types.ByName(types.EventRandomnessFulfilled)), 1)
}

func TestFulfillRevertsWhenPayoutRejected(t *testing.T) {
	env := newTestEnv(t)
	id, reqID := setupOracleSettlement(t, env)

	env.engine.RegisterReceiver(bob, derivative.ReceiverFunc(
		func(*derivative.Context, common.Address, *uint256.Int) error {
			return errors.New("not accepting payments")
		}))

	err := env.engine.FulfillRandomness(env.as(oracle), reqID, []uint64{1})
	require.ErrorIs(t, err, types.ErrTransferFailed)

	// nothing was consumed: the oracle can deliver again
	req, _, err := env.ledger().Request(reqID)
	require.NoError(t, err)
	require.False(t, req.Fulfilled)
	opt := env.option(id)
	require.Equal(t, types.StatusSold, opt.Status)
	require.Equal(t, &reqID, opt.PendingRequest)
	require.Equal(t, ether(2), env.balance(types.EscrowAddress))

	env.engine.RegisterReceiver(bob, derivative.ReceiverFunc(
		func(*derivative.Context, common.Address, *uint256.Int) error { return nil }))
	require.NoError(t, env.engine.FulfillRandomness(env.as(oracle), reqID, []uint64{1}))
	require.Equal(t, types.StatusExecuted, env.option(id).Status)
	require.Equal(t, ether(101), env.balance(bob))
}

func TestSettleWithoutOracle(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.engine.SetOracle(env.as(admin), common.Address{}))

	id := env.sell(alice, bob, ether(1), ether(1), []uint64{90, 110}, time.Hour)
	require.NoError(t, env.engine.UpdatePrice(env.as(bob), id, []uint64{100}))
	env.advance(time.Hour)

	reqID, err := env.engine.ExecuteOption(env.as(bob), id)
	require.NoError(t, err)
	require.Nil(t, reqID)

	// word 0 observes 90: out of the money
	require.Equal(t, types.StatusExecuted, env.option(id).Status)
	require.Equal(t, ether(101), env.balance(alice))
	require.Equal(t, ether(99), env.balance(bob))
}

func TestOracleWordsOption(t *testing.T) {
	env := newTestEnv(t, derivative.WithOracleWords(3))
	id, reqID := setupOracleSettlement(t, env)

	req, _, err := env.ledger().Request(reqID)
	require.NoError(t, err)
	require.Equal(t, uint32(3), req.NumWords)

	err = env.engine.FulfillRandomness(env.as(oracle), reqID, []uint64{0, 1})
	require.ErrorIs(t, err, types.ErrInvalidArray)
	req, _, err = env.ledger().Request(reqID)
	require.NoError(t, err)
	require.False(t, req.Fulfilled)
	require.Equal(t, types.StatusSold, env.option(id).Status)

	// only the first word settles the option
	require.NoError(t, env.engine.FulfillRandomness(env.as(oracle), reqID, []uint64{1, 0, 0}))
	require.Equal(t, types.StatusExecuted, env.option(id).Status)
	require.Equal(t, ether(101), env.balance(bob))
}

func TestClaimOption(t *testing.T) {
	env := newTestEnv(t)
	id := env.createOption(alice, ether(3), nil, time.Hour)
	require.NoError(t, env.engine.TransferOption(env.as(alice), id, bob))

	require.ErrorIs(t, env.engine.ClaimOption(env.as(alice), id), types.ErrNotExpired)
	env.advance(time.Hour)
	require.ErrorIs(t, env.engine.ClaimOption(env.as(bob), id), types.ErrUnauthorized)

	require.NoError(t, env.engine.ClaimOption(env.as(alice), id))
	require.Equal(t, types.StatusExecuted, env.option(id).Status)
	require.Equal(t, ether(100), env.balance(alice))

	claimed := env.events(types.ByName(types.EventOptionClaimed))
	require.Len(t, claimed, 1)
	require.Equal(t, &types.OptionClaimed{ID: id, Creator: alice, Amount: ether(3)}, claimed[0].Event)

	require.ErrorIs(t, env.engine.ClaimOption(env.as(alice), id), types.ErrInvalidStatus)
}

func TestClaimSoldOption(t *testing.T) {
	env := newTestEnv(t)
	id := env.sell(alice, bob, ether(1), ether(1), nil, time.Hour)
	env.advance(time.Hour)
	require.ErrorIs(t, env.engine.ClaimOption(env.as(alice), id), types.ErrInvalidStatus)
}
