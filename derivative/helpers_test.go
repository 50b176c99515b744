package derivative_test

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	dbm "github.com/tendermint/tm-db"

	"github.com/constellation-lab/constellation-zkevm/derivative"
	"github.com/constellation-lab/constellation-zkevm/libs/log"
	"github.com/constellation-lab/constellation-zkevm/store"
	"github.com/constellation-lab/constellation-zkevm/types"
)

var (
	admin   = common.HexToAddress("0x000000000000000000000000000000000000ad01")
	oracle  = common.HexToAddress("0x00000000000000000000000000000000000004ac")
	alice   = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob     = common.HexToAddress("0x0000000000000000000000000000000000000b0b")
	carol   = common.HexToAddress("0x00000000000000000000000000000000000ca201")
	mallory = common.HexToAddress("0x000000000000000000000000000000000000ba0d")

	genesisTime = time.Unix(1_700_000_000, 0)
)

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

func milliEther(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e15))
}

type testEnv struct {
	t      require.TestingT
	engine *derivative.Engine
	db     dbm.DB
	height int64
	now    time.Time
}

func newTestEnv(t require.TestingT, opts ...derivative.EngineOption) *testEnv {
	opts = append([]derivative.EngineOption{derivative.WithLogger(log.TestingLogger())}, opts...)
	env := &testEnv{
		t:      t,
		engine: derivative.NewEngine(opts...),
		db:     dbm.NewMemDB(),
		height: 1,
		now:    genesisTime,
	}

	gs := types.DefaultGenesisState()
	gs.Owner = admin
	gs.Oracle = oracle
	for _, addr := range []common.Address{alice, bob, carol, mallory} {
		gs.Balances = append(gs.Balances, types.GenesisBalance{Address: addr, Amount: ether(100)})
	}
	require.NoError(t, env.engine.Bootstrap(env.root(), gs))
	return env
}

// root returns the context of a fresh transaction.
func (env *testEnv) root() *derivative.Context {
	return derivative.NewContext(context.Background(), env.db, env.height, env.now)
}

// as returns the context of a fresh transaction sent by caller.
func (env *testEnv) as(caller common.Address) *derivative.Context {
	return env.root().WithCaller(caller, nil)
}

// pay returns the context of a fresh transaction sent by caller with value
// attached.
func (env *testEnv) pay(caller common.Address, value *uint256.Int) *derivative.Context {
	return env.root().WithCaller(caller, value)
}

func (env *testEnv) advance(d time.Duration) {
	env.now = env.now.Add(d)
	env.height++
}

func (env *testEnv) expiry(d time.Duration) int64 {
	return env.now.Add(d).Unix()
}

func (env *testEnv) ledger() *store.Ledger {
	return store.NewLedger(env.db)
}

func (env *testEnv) option(id uint64) *types.Option {
	opt, err := env.ledger().Option(id)
	require.NoError(env.t, err)
	return opt
}

func (env *testEnv) listing(id uint64) *types.Listing {
	lst, err := env.ledger().Listing(id)
	require.NoError(env.t, err)
	return lst
}

func (env *testEnv) balance(addr common.Address) *uint256.Int {
	bal, err := env.ledger().Balance(addr)
	require.NoError(env.t, err)
	return bal
}

func (env *testEnv) events(filter types.EventFilter) []types.EventRecord {
	recs, err := env.ledger().Events(filter, 0)
	require.NoError(env.t, err)
	return recs
}

// createOption creates an option owned by creator and returns its id.
func (env *testEnv) createOption(creator common.Address, collateral *uint256.Int, counterOffer []uint64, ttl time.Duration) uint64 {
	id, err := env.engine.CreateOption(env.pay(creator, collateral), counterOffer, env.expiry(ttl))
	require.NoError(env.t, err)
	return id
}

// sell creates an option by seller, lists it for price and sells it to buyer.
func (env *testEnv) sell(seller, buyer common.Address, collateral, price *uint256.Int, counterOffer []uint64, ttl time.Duration) uint64 {
	id := env.createOption(seller, collateral, counterOffer, ttl)
	require.NoError(env.t, env.engine.AddToMarket(env.as(seller), id, price, "ETH"))
	require.NoError(env.t, env.engine.BuyOption(env.pay(buyer, price), id))
	return id
}
