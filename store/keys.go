package store

import (
	"encoding/binary"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/orderedcode"
	"github.com/google/uuid"
)

// Key prefixes. Every ledger record is keyed by an orderedcode tuple that
// starts with one of these, so each record kind occupies its own contiguous
// key range.
const (
	prefixAppState  = int64(0)
	prefixParams    = int64(1)
	prefixOption    = int64(2)
	prefixListing   = int64(3)
	prefixRequest   = int64(4)
	prefixBalance   = int64(5)
	prefixAllowance = int64(6)
	prefixEvent     = int64(7)
	prefixCounter   = int64(8)
)

// Counter names.
const (
	counterOptionID    = "option_id"
	counterEventSeq    = "event_seq"
	counterOracleNonce = "oracle_nonce"
)

func mustKey(items ...interface{}) []byte {
	key, err := orderedcode.Append(nil, items...)
	if err != nil {
		panic(fmt.Sprintf("store key %v: %v", items, err))
	}
	return key
}

func appStateKey() []byte { return mustKey(prefixAppState) }

func paramsKey() []byte { return mustKey(prefixParams) }

func optionKey(id uint64) []byte { return mustKey(prefixOption, int64(id)) }

func listingKey(id uint64) []byte { return mustKey(prefixListing, int64(id)) }

func requestKey(id uuid.UUID) []byte { return mustKey(prefixRequest, string(id[:])) }

func balanceKey(addr common.Address) []byte { return mustKey(prefixBalance, string(addr[:])) }

func allowanceKey(owner, spender common.Address) []byte {
	return mustKey(prefixAllowance, string(owner[:]), string(spender[:]))
}

func eventKey(seq uint64) []byte { return mustKey(prefixEvent, int64(seq)) }

func counterKey(name string) []byte { return mustKey(prefixCounter, name) }

// prefixRange returns the key range holding every key under prefix.
func prefixRange(prefix int64) (start, end []byte) {
	return mustKey(prefix), mustKey(prefix + 1)
}

func parseEventKey(key []byte) (uint64, error) {
	var prefix, seq int64
	remaining, err := orderedcode.Parse(string(key), &prefix, &seq)
	if err != nil {
		return 0, fmt.Errorf("parse event key: %w", err)
	}
	if prefix != prefixEvent || len(remaining) != 0 {
		return 0, fmt.Errorf("not an event key: %X", key)
	}
	return uint64(seq), nil
}

func uint64Bytes(n uint64) []byte {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, n)
	return bz
}

func binaryUint64(bz []byte) uint64 {
	return binary.BigEndian.Uint64(bz)
}
