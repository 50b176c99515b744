package app

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/constellation-lab/constellation-zkevm/store"
	"github.com/constellation-lab/constellation-zkevm/types"
)

// Query paths served by the application. All answers are JSON and reflect
// the last committed block.
const (
	QueryOption    = "/option"
	QueryListing   = "/listing"
	QueryRequest   = "/request"
	QueryBalance   = "/balance"
	QueryAllowance = "/allowance"
	QueryParams    = "/params"
	QueryEvents    = "/events"
)

// maxEventsPerQuery caps /events answers without an explicit limit.
const maxEventsPerQuery = 1000

func (app *Application) Query(req abci.RequestQuery) abci.ResponseQuery {
	app.mtx.Lock()
	defer app.mtx.Unlock()

	ledger := store.NewLedger(app.db)
	value, err := app.query(ledger, req.Path, req.Data)
	if err != nil {
		return abci.ResponseQuery{
			Code:      uint32(types.CodeOf(err)),
			Log:       err.Error(),
			Height:    app.state.Height,
			Codespace: types.Codespace,
		}
	}
	bz, err := json.Marshal(value)
	if err != nil {
		return abci.ResponseQuery{
			Code:      uint32(types.CodeTypeInternalError),
			Log:       err.Error(),
			Height:    app.state.Height,
			Codespace: types.Codespace,
		}
	}
	return abci.ResponseQuery{
		Code:   uint32(types.CodeTypeOK),
		Key:    req.Data,
		Value:  bz,
		Height: app.state.Height,
	}
}

func (app *Application) query(ledger *store.Ledger, path string, data []byte) (interface{}, error) {
	arg := strings.TrimSpace(string(data))
	switch path {
	case QueryOption:
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		return ledger.Option(id)

	case QueryListing:
		id, err := parseID(arg)
		if err != nil {
			return nil, err
		}
		if _, err := ledger.Option(id); err != nil {
			return nil, err
		}
		return ledger.Listing(id)

	case QueryRequest:
		id, err := uuid.Parse(arg)
		if err != nil {
			return nil, types.Wrapf(types.ErrEncoding, "request id %q: %v", arg, err)
		}
		req, ok, err := ledger.Request(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, types.Wrapf(types.ErrNotFound, "request %s", id)
		}
		return req, nil

	case QueryBalance:
		addr, err := parseAddress(arg)
		if err != nil {
			return nil, err
		}
		return ledger.Balance(addr)

	case QueryAllowance:
		parts := strings.Split(arg, "/")
		if len(parts) != 2 {
			return nil, types.Wrapf(types.ErrEncoding, "expected owner/spender, got %q", arg)
		}
		owner, err := parseAddress(parts[0])
		if err != nil {
			return nil, err
		}
		spender, err := parseAddress(parts[1])
		if err != nil {
			return nil, err
		}
		return ledger.Allowance(owner, spender)

	case QueryParams:
		return ledger.Params()

	case QueryEvents:
		var q types.EventQuery
		if len(data) > 0 {
			if err := json.Unmarshal(data, &q); err != nil {
				return nil, types.Wrapf(types.ErrEncoding, "event query: %v", err)
			}
		}
		limit := q.Limit
		if limit <= 0 || limit > maxEventsPerQuery {
			limit = maxEventsPerQuery
		}
		records, err := ledger.Events(q.Filter(), limit)
		if err != nil {
			return nil, err
		}
		if records == nil {
			records = []types.EventRecord{}
		}
		return records, nil

	default:
		return nil, types.Wrapf(types.ErrNotFound, "unknown query path %q", path)
	}
}

func parseID(s string) (uint64, error) {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, types.Wrapf(types.ErrEncoding, "option id %q", s)
	}
	return id, nil
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, types.Wrapf(types.ErrInvalidAddress, "%q", s)
	}
	return common.HexToAddress(s), nil
}
