package store

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/constellation-lab/constellation-zkevm/types"
)

// Ledger gives typed access to the records held in a KVStore. It holds no
// state of its own, so a Ledger over a cache branch sees exactly what the
// branch sees.
type Ledger struct {
	kv KVStore
}

func NewLedger(kv KVStore) *Ledger {
	return &Ledger{kv: kv}
}

// Params returns the administrative parameters. A ledger that was never
// bootstrapped returns the zero Params.
func (l *Ledger) Params() (types.Params, error) {
	var p types.Params
	_, err := l.getJSON(paramsKey(), &p)
	return p, err
}

func (l *Ledger) SetParams(p types.Params) error {
	return l.setJSON(paramsKey(), p)
}

// Option loads an option, failing with types.ErrNotFound for unknown ids.
func (l *Ledger) Option(id uint64) (*types.Option, error) {
	opt := new(types.Option)
	ok, err := l.getJSON(optionKey(id), opt)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, types.Wrapf(types.ErrNotFound, "option %d", id)
	}
	if opt.Collateral == nil {
		opt.Collateral = new(uint256.Int)
	}
	return opt, nil
}

func (l *Ledger) SetOption(opt *types.Option) error {
	return l.setJSON(optionKey(opt.ID), opt)
}

// NextOptionID allocates the next option id. Ids start at 0 and are never
// reused.
func (l *Ledger) NextOptionID() (uint64, error) {
	return l.nextCounter(counterOptionID)
}

// OptionCount is the number of options ever created.
func (l *Ledger) OptionCount() (uint64, error) {
	return l.counter(counterOptionID)
}

// IterateOptions calls fn for every option in id order until fn returns true.
func (l *Ledger) IterateOptions(fn func(*types.Option) (stop bool)) error {
	start, end := prefixRange(prefixOption)
	it, err := l.kv.Iterator(start, end)
	if err != nil {
		return err
	}
	defer it.Close()

	for ; it.Valid(); it.Next() {
		opt := new(types.Option)
		if err := json.Unmarshal(it.Value(), opt); err != nil {
			return fmt.Errorf("decode option %X: %w", it.Key(), err)
		}
		if fn(opt) {
			break
		}
	}
	return it.Error()
}

// Listing loads the listing of an option. Options that were never listed
// return a NotListed listing.
func (l *Ledger) Listing(id uint64) (*types.Listing, error) {
	lst := &types.Listing{OptionID: id}
	if _, err := l.getJSON(listingKey(id), lst); err != nil {
		return nil, err
	}
	if lst.Amount == nil {
		lst.Amount = new(uint256.Int)
	}
	return lst, nil
}

func (l *Ledger) SetListing(lst *types.Listing) error {
	return l.setJSON(listingKey(lst.OptionID), lst)
}

// Request loads an oracle request. The boolean is false when no request with
// that id was ever made.
func (l *Ledger) Request(id uuid.UUID) (*types.OracleRequest, bool, error) {
	req := new(types.OracleRequest)
	ok, err := l.getJSON(requestKey(id), req)
	if err != nil || !ok {
		return nil, false, err
	}
	return req, true, nil
}

func (l *Ledger) SetRequest(req *types.OracleRequest) error {
	return l.setJSON(requestKey(req.ID), req)
}

// NextOracleNonce returns a fresh nonce for deriving request ids.
func (l *Ledger) NextOracleNonce() (uint64, error) {
	return l.nextCounter(counterOracleNonce)
}

func (l *Ledger) Balance(addr common.Address) (*uint256.Int, error) {
	return l.getAmount(balanceKey(addr))
}

func (l *Ledger) SetBalance(addr common.Address, amount *uint256.Int) error {
	return l.setAmount(balanceKey(addr), amount)
}

func (l *Ledger) Allowance(owner, spender common.Address) (*uint256.Int, error) {
	return l.getAmount(allowanceKey(owner, spender))
}

func (l *Ledger) SetAllowance(owner, spender common.Address, amount *uint256.Int) error {
	return l.setAmount(allowanceKey(owner, spender), amount)
}

// AppendEvent adds ev to the event log and returns its record.
func (l *Ledger) AppendEvent(height int64, ev types.Event) (types.EventRecord, error) {
	seq, err := l.nextCounter(counterEventSeq)
	if err != nil {
		return types.EventRecord{}, err
	}
	rec := types.EventRecord{Seq: seq, Height: height, Event: ev}
	if err := l.setJSON(eventKey(seq), rec); err != nil {
		return types.EventRecord{}, err
	}
	return rec, nil
}

// Events returns the records matching filter in sequence order, at most limit
// of them when limit is positive.
func (l *Ledger) Events(filter types.EventFilter, limit int) ([]types.EventRecord, error) {
	start, end := prefixRange(prefixEvent)
	it, err := l.kv.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var records []types.EventRecord
	for ; it.Valid(); it.Next() {
		if _, err := parseEventKey(it.Key()); err != nil {
			return nil, err
		}
		var rec types.EventRecord
		if err := json.Unmarshal(it.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decode event %X: %w", it.Key(), err)
		}
		if filter != nil && !filter(rec) {
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) == limit {
			break
		}
	}
	return records, it.Error()
}

//-----------------------------------------------------------------------------

func (l *Ledger) getJSON(key []byte, v interface{}) (bool, error) {
	bz, err := l.kv.Get(key)
	if err != nil {
		return false, err
	}
	if bz == nil {
		return false, nil
	}
	if err := json.Unmarshal(bz, v); err != nil {
		return false, fmt.Errorf("decode %X: %w", key, err)
	}
	return true, nil
}

func (l *Ledger) setJSON(key []byte, v interface{}) error {
	bz, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %X: %w", key, err)
	}
	return l.kv.Set(key, bz)
}

func (l *Ledger) getAmount(key []byte) (*uint256.Int, error) {
	bz, err := l.kv.Get(key)
	if err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(bz), nil
}

// setAmount stores amounts as big-endian bytes and drops zero entries.
func (l *Ledger) setAmount(key []byte, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return l.kv.Delete(key)
	}
	return l.kv.Set(key, amount.Bytes())
}

func (l *Ledger) counter(name string) (uint64, error) {
	bz, err := l.kv.Get(counterKey(name))
	if err != nil {
		return 0, err
	}
	if bz == nil {
		return 0, nil
	}
	if len(bz) != 8 {
		return 0, fmt.Errorf("corrupt counter %s: %X", name, bz)
	}
	return binaryUint64(bz), nil
}

func (l *Ledger) nextCounter(name string) (uint64, error) {
	n, err := l.counter(name)
	if err != nil {
		return 0, err
	}
	if err := l.kv.Set(counterKey(name), uint64Bytes(n+1)); err != nil {
		return 0, err
	}
	return n, nil
}
