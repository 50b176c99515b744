package app

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	abci "github.com/tendermint/tendermint/abci/types"
	"github.com/tendermint/tendermint/crypto/tmhash"
	tmproto "github.com/tendermint/tendermint/proto/tendermint/types"
	dbm "github.com/tendermint/tm-db"

	"github.com/constellation-lab/constellation-zkevm/derivative"
	"github.com/constellation-lab/constellation-zkevm/indexer"
	"github.com/constellation-lab/constellation-zkevm/libs/log"
	"github.com/constellation-lab/constellation-zkevm/store"
	"github.com/constellation-lab/constellation-zkevm/types"
	"github.com/constellation-lab/constellation-zkevm/version"
)

const publishTimeout = 10 * time.Second

var _ abci.Application = (*Application)(nil)

// Publisher receives the event records of every committed block.
type Publisher interface {
	Publish(ctx context.Context, b indexer.Batch) error
}

// Application runs the option ledger as a Tendermint ABCI application.
//
// Writes made while a block executes accumulate in a cache over the database
// and reach it in one batch at Commit. Each DeliverTx runs in its own branch
// of that cache, so a failed transaction leaves nothing behind.
type Application struct {
	abci.BaseApplication

	mtx     sync.Mutex
	db      dbm.DB
	state   store.AppStateJSON
	block   *store.Cache
	header  tmproto.Header
	pending []types.EventRecord

	engine     *derivative.Engine
	engineOpts []derivative.EngineOption
	genesis    []byte
	publisher  Publisher
	logger     log.Logger
	metrics    *Metrics
}

// Option sets an optional parameter on the Application.
type Option func(*Application)

func WithLogger(logger log.Logger) Option {
	return func(app *Application) { app.logger = logger }
}

func WithMetrics(metrics *Metrics) Option {
	return func(app *Application) { app.metrics = metrics }
}

// WithPublisher forwards committed event records to p, usually the indexer
// service.
func WithPublisher(p Publisher) Option {
	return func(app *Application) { app.publisher = p }
}

// WithEngineOptions configures the option engine.
func WithEngineOptions(opts ...derivative.EngineOption) Option {
	return func(app *Application) { app.engineOpts = append(app.engineOpts, opts...) }
}

// WithGenesisFallback sets the genesis state used when InitChain carries no
// app state.
func WithGenesisFallback(bz []byte) Option {
	return func(app *Application) { app.genesis = bz }
}

// NewApplication returns an application over db, resuming from the last
// committed state found there.
func NewApplication(db dbm.DB, opts ...Option) (*Application, error) {
	app := &Application{
		db:      db,
		logger:  log.NewNopLogger(),
		metrics: NopMetrics(),
	}
	for _, opt := range opts {
		opt(app)
	}
	engineOpts := append([]derivative.EngineOption{
		derivative.WithLogger(app.logger.With("module", "derivative")),
	}, app.engineOpts...)
	app.engine = derivative.NewEngine(engineOpts...)

	state, err := store.LoadAppStateJSON(db)
	if err != nil {
		return nil, err
	}
	app.state = state
	return app, nil
}

// Engine returns the option engine, to register receivers on.
func (app *Application) Engine() *derivative.Engine { return app.engine }

func (app *Application) Close() error {
	return app.db.Close()
}

func (app *Application) Info(req abci.RequestInfo) abci.ResponseInfo {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	count, err := store.NewLedger(app.db).OptionCount()
	if err != nil {
		app.logger.Error("failed to count options", "err", err)
	}
	return abci.ResponseInfo{
		Data:             fmt.Sprintf("{\"options\":%d}", count),
		Version:          version.Version,
		AppVersion:       version.AppProtocol.Uint64(),
		LastBlockHeight:  app.state.Height,
		LastBlockAppHash: app.state.AppHash,
	}
}

// InitChain installs the genesis state carried in AppStateBytes. The writes
// are committed with the first block.
func (app *Application) InitChain(req abci.RequestInitChain) abci.ResponseInitChain {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	bz := req.AppStateBytes
	if len(bz) == 0 {
		bz = app.genesis
	}
	gs, err := types.GenesisStateFromJSON(bz)
	if err != nil {
		panic(err)
	}

	app.state.ChainID = req.ChainId
	app.block = store.NewCache(app.db)
	ctx := derivative.NewContext(context.Background(), app.block, req.InitialHeight, req.Time)
	if err := app.engine.Bootstrap(ctx, gs); err != nil {
		panic(fmt.Errorf("bootstrap ledger: %w", err))
	}
	app.pending = append(app.pending, ctx.Events()...)

	app.logger.Info("bootstrapped ledger",
		"chain_id", req.ChainId,
		"owner", gs.Owner.Hex(),
		"oracle", gs.Oracle.Hex(),
		"accounts", len(gs.Balances))
	return abci.ResponseInitChain{}
}

func (app *Application) BeginBlock(req abci.RequestBeginBlock) abci.ResponseBeginBlock {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	app.header = req.Header
	if app.block == nil {
		app.block = store.NewCache(app.db)
	}
	return abci.ResponseBeginBlock{}
}

// CheckTx admits well-formed transactions whose caller can cover the attached
// value at the last committed state.
func (app *Application) CheckTx(req abci.RequestCheckTx) abci.ResponseCheckTx {
	tx, err := decodeTx(req.Tx)
	if err == nil {
		err = app.checkValue(tx)
	}
	if err != nil {
		code := types.CodeOf(err)
		app.metrics.Txs.With("phase", "check", "code", code.String()).Add(1)
		return abci.ResponseCheckTx{Code: uint32(code), Log: err.Error(), Codespace: types.Codespace}
	}
	app.metrics.Txs.With("phase", "check", "code", types.CodeTypeOK.String()).Add(1)
	return abci.ResponseCheckTx{Code: uint32(types.CodeTypeOK), GasWanted: 1}
}

func (app *Application) checkValue(tx types.Tx) error {
	value := tx.AttachedValue()
	if value.IsZero() {
		return nil
	}

	app.mtx.Lock()
	defer app.mtx.Unlock()
	bal, err := store.NewLedger(app.db).Balance(tx.Caller)
	if err != nil {
		return err
	}
	if bal.Lt(value) {
		return types.Wrapf(types.ErrInsufficientFunds, "%s has %s, attaches %s", tx.Caller.Hex(), bal.Dec(), value.Dec())
	}
	return nil
}

// DeliverTx executes one transaction. On success the response carries the
// JSON encoded derivative.Result and the events the transaction emitted.
func (app *Application) DeliverTx(req abci.RequestDeliverTx) (res abci.ResponseDeliverTx) {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	tx, err := decodeTx(req.Tx)
	if err != nil {
		return app.deliverError(err)
	}
	if app.block == nil {
		app.block = store.NewCache(app.db)
	}

	ctx := derivative.NewContext(context.Background(), app.block, app.header.Height, app.header.Time).
		WithCaller(tx.Caller, tx.AttachedValue())

	defer func() {
		if r := recover(); r != nil {
			app.logger.Error("panic while delivering tx",
				"type", tx.Msg.Type(),
				"panic", r,
				"stack", string(debug.Stack()))
			res = app.deliverError(types.Wrapf(types.ErrInternal, "%v", r))
		}
	}()

	result, err := app.engine.Deliver(ctx, tx.Msg)
	if err != nil {
		app.logger.Debug("tx failed", "type", tx.Msg.Type(), "caller", tx.Caller.Hex(), "err", err)
		return app.deliverError(err)
	}
	data, err := json.Marshal(result)
	if err != nil {
		app.logger.Error("failed to encode tx result", "type", tx.Msg.Type(), "err", err)
	}

	records := ctx.Events()
	app.pending = append(app.pending, records...)
	app.metrics.Txs.With("phase", "deliver", "code", types.CodeTypeOK.String()).Add(1)
	return abci.ResponseDeliverTx{
		Code:   uint32(types.CodeTypeOK),
		Data:   data,
		Events: indexer.ABCIEvents(records),
	}
}

func (app *Application) deliverError(err error) abci.ResponseDeliverTx {
	code := types.CodeOf(err)
	app.metrics.Txs.With("phase", "deliver", "code", code.String()).Add(1)
	return abci.ResponseDeliverTx{
		Code:      uint32(code),
		Log:       err.Error(),
		Codespace: types.Codespace,
	}
}

// Commit writes the block to the database and returns the new app hash. The
// hash chains the previous one with the digest of the block's writes.
func (app *Application) Commit() abci.ResponseCommit {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	start := time.Now()
	height := app.header.Height
	if height == 0 {
		height = app.state.Height + 1
	}

	batch := app.db.NewBatch()
	defer batch.Close()

	var digest []byte
	if app.block != nil {
		digest = app.block.Digest()
		if err := app.block.WriteTo(batch); err != nil {
			panic(err)
		}
	}
	app.state.Height = height
	app.state.AppHash = nextAppHash(app.state.AppHash, digest)
	if err := app.state.Save(batch); err != nil {
		panic(err)
	}
	if err := batch.WriteSync(); err != nil {
		panic(err)
	}

	records := app.pending
	app.block = nil
	app.header = tmproto.Header{}
	app.pending = nil

	app.metrics.CommitSeconds.Observe(time.Since(start).Seconds())
	app.metrics.Height.Set(float64(height))
	app.metrics.EventsCommitted.Add(float64(len(records)))
	app.logger.Debug("committed block", "height", height, "app_hash", fmt.Sprintf("%X", app.state.AppHash), "events", len(records))

	app.publish(records)
	return abci.ResponseCommit{Data: app.state.AppHash}
}

func (app *Application) publish(records []types.EventRecord) {
	if app.publisher == nil || len(records) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	b := indexer.Batch{ChainID: app.state.ChainID, Height: app.state.Height, Records: records}
	if err := app.publisher.Publish(ctx, b); err != nil {
		app.logger.Error("failed to publish events", "height", b.Height, "err", err)
	}
}

func nextAppHash(prev, digest []byte) []byte {
	h := tmhash.New()
	h.Write(prev)
	h.Write(digest)
	return h.Sum(nil)
}

func decodeTx(bz []byte) (types.Tx, error) {
	tx, err := types.DecodeTx(bz)
	if err != nil {
		return tx, err
	}
	return tx, tx.ValidateBasic()
}
