package app_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	abci "github.com/tendermint/tendermint/abci/types"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/constellation-lab/constellation-zkevm/app"
	"github.com/constellation-lab/constellation-zkevm/derivative"
	"github.com/constellation-lab/constellation-zkevm/indexer"
	"github.com/constellation-lab/constellation-zkevm/libs/log"
	"github.com/constellation-lab/constellation-zkevm/types"
)

const testChainID = "constellation-test"

var (
	admin = common.HexToAddress("0x000000000000000000000000000000000000ad01")
	alice = common.HexToAddress("0x00000000000000000000000000000000000a11ce")
	bob   = common.HexToAddress("0x0000000000000000000000000000000000000b0b")

	genesisTime = time.Unix(1_700_000_000, 0).UTC()
)

func ether(n uint64) *uint256.Int {
	return new(uint256.Int).Mul(uint256.NewInt(n), uint256.NewInt(1e18))
}

type recordingPublisher struct {
	mtx     sync.Mutex
	batches []indexer.Batch
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, b indexer.Batch) error {
	p.mtx.Lock()
	defer p.mtx.Unlock()
	p.batches = append(p.batches, b)
	return p.err
}

type testApp struct {
	*app.Application
	t      *testing.T
	db     dbm.DB
	height int64
}

func newTestApp(t *testing.T, db dbm.DB, opts ...app.Option) *testApp {
	t.Helper()
	opts = append([]app.Option{app.WithLogger(log.TestingLogger())}, opts...)
	a, err := app.NewApplication(db, opts...)
	require.NoError(t, err)
	return &testApp{Application: a, t: t, db: db}
}

func genesisBytes(t *testing.T) []byte {
	gs := types.DefaultGenesisState()
	gs.Owner = admin
	gs.Balances = []types.GenesisBalance{
		{Address: alice, Amount: ether(100)},
		{Address: bob, Amount: ether(100)},
	}
	bz, err := json.Marshal(gs)
	require.NoError(t, err)
	return bz
}

func (a *testApp) initChain() {
	a.InitChain(abci.RequestInitChain{
		ChainId:       testChainID,
		Time:          genesisTime,
		InitialHeight: 1,
		AppStateBytes: genesisBytes(a.t),
	})
}

func (a *testApp) beginBlock() {
	a.height++
	a.BeginBlock(abci.RequestBeginBlock{Header: tmproto.Header{
		ChainID: testChainID,
		Height:  a.height,
		Time:    genesisTime.Add(time.Duration(a.height) * time.Minute),
	}})
}

func (a *testApp) deliver(caller common.Address, value *uint256.Int, msg types.Msg) abci.ResponseDeliverTx {
	tx := types.NewTx(caller, msg)
	if value != nil {
		tx = tx.WithValue(value)
	}
	bz, err := tx.Marshal()
	require.NoError(a.t, err)
	return a.DeliverTx(abci.RequestDeliverTx{Tx: bz})
}

// block delivers msgs from alice in one block and commits it.
func (a *testApp) block(txs ...func() abci.ResponseDeliverTx) []abci.ResponseDeliverTx {
	a.beginBlock()
	res := make([]abci.ResponseDeliverTx, 0, len(txs))
	for _, tx := range txs {
		res = append(res, tx())
	}
	a.EndBlock(abci.RequestEndBlock{Height: a.height})
	a.Commit()
	return res
}

func (a *testApp) query(path string, data string, v interface{}) abci.ResponseQuery {
	res := a.Query(abci.RequestQuery{Path: path, Data: []byte(data)})
	if v != nil && res.Code == uint32(types.CodeTypeOK) {
		require.NoError(a.t, json.Unmarshal(res.Value, v))
	}
	return res
}

func (a *testApp) balance(addr common.Address) *uint256.Int {
	bal := new(uint256.Int)
	res := a.query(app.QueryBalance, addr.Hex(), bal)
	require.Equal(a.t, uint32(types.CodeTypeOK), res.Code, res.Log)
	return bal
}

func expires() int64 { return genesisTime.Add(24 * time.Hour).Unix() }

func requireOK(t *testing.T, res abci.ResponseDeliverTx) {
	t.Helper()
	require.Equal(t, uint32(types.CodeTypeOK), res.Code, res.Log)
}

func requireCode(t *testing.T, want types.CodeType, res abci.ResponseDeliverTx) {
	t.Helper()
	require.Equal(t, uint32(want), res.Code, res.Log)
	require.Equal(t, types.Codespace, res.Codespace)
}

func TestOptionLifecycle(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB())
	a.initChain()

	res := a.block(func() abci.ResponseDeliverTx {
		return a.deliver(alice, ether(2), &types.MsgCreateOption{CounterOffer: []uint64{100}, Expires: expires()})
	})
	requireOK(t, res[0])

	var result derivative.Result
	require.NoError(t, json.Unmarshal(res[0].Data, &result))
	require.NotNil(t, result.OptionID)
	assert.Equal(t, uint64(0), *result.OptionID)

	var names []string
	for _, ev := range res[0].Events {
		names = append(names, ev.Type)
	}
	assert.Contains(t, names, types.EventOptionCreated)

	info := a.Info(abci.RequestInfo{})
	assert.EqualValues(t, 1, info.LastBlockHeight)
	assert.NotEmpty(t, info.LastBlockAppHash)

	var opt types.Option
	a.query(app.QueryOption, "0", &opt)
	assert.Equal(t, alice, opt.Owner)
	assert.Equal(t, ether(2), opt.Collateral)
	assert.Equal(t, types.StatusCreated, opt.Status)

	res = a.block(
		func() abci.ResponseDeliverTx {
			return a.deliver(alice, nil, &types.MsgAddToMarket{ID: 0, Amount: ether(3), Currency: "ETH"})
		},
		func() abci.ResponseDeliverTx {
			return a.deliver(bob, ether(3), &types.MsgBuyOption{ID: 0})
		},
	)
	requireOK(t, res[0])
	requireOK(t, res[1])

	var lst types.Listing
	a.query(app.QueryListing, "0", &lst)
	assert.Equal(t, types.ListingSold, lst.Status)

	a.query(app.QueryOption, "0", &opt)
	assert.Equal(t, bob, opt.Owner)

	assert.Equal(t, ether(97), a.balance(bob))
	assert.Equal(t, ether(101), a.balance(alice))
	assert.EqualValues(t, 2, a.Info(abci.RequestInfo{}).LastBlockHeight)
}

func TestDeliverTxFailures(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB())
	a.initChain()
	a.beginBlock()

	res := a.DeliverTx(abci.RequestDeliverTx{Tx: []byte("not json")})
	requireCode(t, types.CodeTypeEncodingError, res)

	res = a.DeliverTx(abci.RequestDeliverTx{Tx: []byte(`{"caller":"0x00000000000000000000000000000000000a11ce","type":"mint","msg":{}}`)})
	requireCode(t, types.CodeTypeEncodingError, res)

	res = a.deliver(bob, ether(1), &types.MsgBuyOption{ID: 7})
	requireCode(t, types.CodeTypeNotFound, res)

	res = a.deliver(alice, ether(1), &types.MsgCreateOption{Expires: genesisTime.Unix() - 1})
	requireCode(t, types.CodeTypeInvalidTime, res)

	res = a.deliver(alice, ether(1), &types.MsgApprove{Spender: bob, Amount: ether(1)})
	requireCode(t, types.CodeTypeNotPayable, res)

	res = a.deliver(admin, nil, &types.MsgTransferOwnership{NewOwner: alice})
	requireOK(t, res)
	res = a.deliver(admin, nil, &types.MsgSetOracle{Oracle: bob})
	requireCode(t, types.CodeTypeUnauthorized, res)

	a.Commit()

	// failed transactions move no value
	assert.Equal(t, ether(100), a.balance(alice))
	assert.Equal(t, ether(100), a.balance(bob))

	var params types.Params
	a.query(app.QueryParams, "", &params)
	assert.Equal(t, alice, params.Owner)
}

func TestCheckTx(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB())
	a.initChain()
	a.block()

	testCases := []struct {
		name string
		tx   func() []byte
		code types.CodeType
	}{
		{"garbage", func() []byte { return []byte{0x01, 0x02} }, types.CodeTypeEncodingError},
		{"invalid basic", func() []byte {
			bz, _ := types.NewTx(alice, &types.MsgSend{To: bob}).Marshal()
			return bz
		}, types.CodeTypeInvalidAmount},
		{"value exceeds balance", func() []byte {
			bz, _ := types.NewTx(alice, &types.MsgCreateOption{Expires: expires()}).WithValue(ether(101)).Marshal()
			return bz
		}, types.CodeTypeInsufficientFunds},
		{"ok", func() []byte {
			bz, _ := types.NewTx(alice, &types.MsgCreateOption{Expires: expires()}).WithValue(ether(100)).Marshal()
			return bz
		}, types.CodeTypeOK},
	}
	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			res := a.CheckTx(abci.RequestCheckTx{Tx: tc.tx()})
			assert.Equal(t, uint32(tc.code), res.Code, res.Log)
		})
	}
}

func runChain(t *testing.T, db dbm.DB, amount uint64) []byte {
	a := newTestApp(t, db)
	a.initChain()
	a.block(func() abci.ResponseDeliverTx {
		return a.deliver(alice, nil, &types.MsgSend{To: bob, Amount: ether(amount)})
	})
	a.block(func() abci.ResponseDeliverTx {
		return a.deliver(bob, ether(1), &types.MsgCreateOption{Expires: expires()})
	})
	return a.Info(abci.RequestInfo{}).LastBlockAppHash
}

func TestAppHashDeterminism(t *testing.T) {
	h1 := runChain(t, dbm.NewMemDB(), 5)
	h2 := runChain(t, dbm.NewMemDB(), 5)
	h3 := runChain(t, dbm.NewMemDB(), 6)

	require.Len(t, h1, 32)
	assert.Equal(t, h1, h2)
	assert.NotEqual(t, h1, h3)
}

func TestEmptyBlocksChainAppHash(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB())
	a.initChain()
	a.block()
	h1 := a.Info(abci.RequestInfo{}).LastBlockAppHash
	a.block()
	h2 := a.Info(abci.RequestInfo{}).LastBlockAppHash
	assert.NotEqual(t, h1, h2)
}

func TestRestartFromDatabase(t *testing.T) {
	db := dbm.NewMemDB()
	hash := runChain(t, db, 5)

	a := newTestApp(t, db)
	info := a.Info(abci.RequestInfo{})
	assert.EqualValues(t, 2, info.LastBlockHeight)
	assert.Equal(t, hash, info.LastBlockAppHash)
	assert.JSONEq(t, `{"options":1}`, info.Data)
	assert.Equal(t, ether(95), a.balance(alice))

	// a replayed genesis is rejected
	assert.Panics(t, func() { a.initChain() })
}

func TestQueryPaths(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB())
	a.initChain()
	a.block(
		func() abci.ResponseDeliverTx {
			return a.deliver(alice, ether(1), &types.MsgCreateOption{Expires: expires()})
		},
		func() abci.ResponseDeliverTx {
			return a.deliver(bob, nil, &types.MsgApprove{Spender: alice, Amount: ether(4)})
		},
	)

	testCases := []struct {
		path string
		data string
		code types.CodeType
	}{
		{app.QueryOption, "0", types.CodeTypeOK},
		{app.QueryOption, "1", types.CodeTypeNotFound},
		{app.QueryOption, "zero", types.CodeTypeEncodingError},
		{app.QueryListing, "0", types.CodeTypeOK},
		{app.QueryListing, "3", types.CodeTypeNotFound},
		{app.QueryRequest, "6ba7b810-9dad-11d1-80b4-00c04fd430c8", types.CodeTypeNotFound},
		{app.QueryRequest, "nope", types.CodeTypeEncodingError},
		{app.QueryBalance, alice.Hex(), types.CodeTypeOK},
		{app.QueryBalance, "0x12", types.CodeTypeInvalidAddress},
		{app.QueryAllowance, bob.Hex() + "/" + alice.Hex(), types.CodeTypeOK},
		{app.QueryAllowance, bob.Hex(), types.CodeTypeEncodingError},
		{app.QueryParams, "", types.CodeTypeOK},
		{app.QueryEvents, "", types.CodeTypeOK},
		{app.QueryEvents, "{", types.CodeTypeEncodingError},
		{"/store", "", types.CodeTypeNotFound},
	}
	for _, tc := range testCases {
		res := a.query(tc.path, tc.data, nil)
		assert.Equal(t, uint32(tc.code), res.Code, "%s %q: %s", tc.path, tc.data, res.Log)
		assert.EqualValues(t, 1, res.Height)
	}

	allowance := new(uint256.Int)
	a.query(app.QueryAllowance, bob.Hex()+"/"+alice.Hex(), allowance)
	assert.Equal(t, ether(4), allowance)

	var records []types.EventRecord
	id := uint64(0)
	q, err := json.Marshal(types.EventQuery{Names: []string{types.EventOptionCreated}, OptionID: &id})
	require.NoError(t, err)
	a.query(app.QueryEvents, string(q), &records)
	require.Len(t, records, 1)
	assert.Equal(t, types.EventOptionCreated, records[0].Name())
	assert.EqualValues(t, 1, records[0].Height)

	q, err = json.Marshal(types.EventQuery{Limit: 2})
	require.NoError(t, err)
	a.query(app.QueryEvents, string(q), &records)
	assert.Len(t, records, 2)
}

func TestRecoverFromPanickingReceiver(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB())
	a.Engine().RegisterReceiver(bob, derivative.ReceiverFunc(
		func(*derivative.Context, common.Address, *uint256.Int) error {
			panic("receiver blew up")
		}))
	a.initChain()

	res := a.block(
		func() abci.ResponseDeliverTx {
			return a.deliver(alice, nil, &types.MsgSend{To: bob, Amount: ether(1)})
		},
		func() abci.ResponseDeliverTx {
			return a.deliver(bob, nil, &types.MsgSend{To: alice, Amount: ether(1)})
		},
	)
	requireCode(t, types.CodeTypeInternalError, res[0])
	requireOK(t, res[1])

	assert.Equal(t, ether(101), a.balance(alice))
	assert.Equal(t, ether(99), a.balance(bob))
}

func TestPublishCommittedEvents(t *testing.T) {
	pub := &recordingPublisher{}
	a := newTestApp(t, dbm.NewMemDB(), app.WithPublisher(pub))
	a.initChain()

	res := a.block(
		func() abci.ResponseDeliverTx {
			return a.deliver(alice, ether(1), &types.MsgCreateOption{Expires: expires()})
		},
		func() abci.ResponseDeliverTx {
			return a.deliver(bob, ether(1), &types.MsgBuyOption{ID: 0})
		},
	)
	requireOK(t, res[0])
	requireCode(t, types.CodeTypeNotOnSale, res[1])

	// empty blocks publish nothing
	a.block()

	pub.mtx.Lock()
	defer pub.mtx.Unlock()
	require.Len(t, pub.batches, 1)
	b := pub.batches[0]
	assert.Equal(t, testChainID, b.ChainID)
	assert.EqualValues(t, 1, b.Height)

	var names []string
	var last uint64
	for i, rec := range b.Records {
		if i > 0 {
			assert.Greater(t, rec.Seq, last)
		}
		last = rec.Seq
		names = append(names, rec.Name())
	}
	assert.Contains(t, names, types.EventOwnershipTransferred)
	assert.Contains(t, names, types.EventOptionCreated)
}

func TestPublishErrorDoesNotHaltCommit(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("queue full")}
	a := newTestApp(t, dbm.NewMemDB(), app.WithPublisher(pub))
	a.initChain()
	a.block(func() abci.ResponseDeliverTx {
		return a.deliver(alice, nil, &types.MsgSend{To: bob, Amount: ether(1)})
	})
	assert.EqualValues(t, 1, a.Info(abci.RequestInfo{}).LastBlockHeight)
	assert.Equal(t, ether(101), a.balance(bob))
}

func TestGenesisFallback(t *testing.T) {
	a := newTestApp(t, dbm.NewMemDB(), app.WithGenesisFallback(genesisBytes(t)))
	a.InitChain(abci.RequestInitChain{ChainId: testChainID, Time: genesisTime, InitialHeight: 1})
	a.block()

	assert.Equal(t, ether(100), a.balance(alice))
	var params types.Params
	a.query(app.QueryParams, "", &params)
	assert.Equal(t, admin, params.Owner)
	assert.True(t, params.Bootstrapped)
}
