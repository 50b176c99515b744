package store

import (
	"encoding/json"
	"fmt"

	dbm "github.com/tendermint/tm-db"
)

// KVStore is the read/write surface shared by the database and the cache
// branches layered over it.
type KVStore interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
	Set(key, value []byte) error
	Delete(key []byte) error
	// Iterator iterates over the domain [start, end). A nil start or end is
	// unbounded.
	Iterator(start, end []byte) (dbm.Iterator, error)
}

// Writer receives the writes of a branch. Both KVStore and dbm.Batch satisfy
// it.
type Writer interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

var (
	_ KVStore = dbm.DB(nil)
	_ Writer  = dbm.Batch(nil)
)

//-----------------------------------------------------------------------------

// AppStateJSON is the committed application state stored next to the ledger.
type AppStateJSON struct {
	ChainID string `json:"chain_id"`
	Height  int64  `json:"height"`
	AppHash []byte `json:"app_hash"`
}

// Save writes the state into w, usually the batch that commits the block.
func (s AppStateJSON) Save(w Writer) error {
	bz, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("app state marshal: %w", err)
	}
	return w.Set(appStateKey(), bz)
}

// LoadAppStateJSON returns the AppStateJSON as loaded from kv. If no state was
// previously persisted, it returns the zero value.
func LoadAppStateJSON(kv KVStore) (AppStateJSON, error) {
	var s AppStateJSON
	bz, err := kv.Get(appStateKey())
	if err != nil {
		return s, fmt.Errorf("app state read: %w", err)
	}
	if len(bz) == 0 {
		return s, nil
	}
	if err := json.Unmarshal(bz, &s); err != nil {
		return s, fmt.Errorf("app state unmarshal: %w", err)
	}
	return s, nil
}
