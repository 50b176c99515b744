package store

import (
	"bytes"
	"encoding/binary"
	"errors"
	"sort"

	"github.com/tendermint/tendermint/crypto/tmhash"
	dbm "github.com/tendermint/tm-db"
)

var (
	errKeyEmpty = errors.New("key cannot be empty")
	errValueNil = errors.New("value cannot be nil")
)

// Cache is a write branch over a parent store. Reads fall through to the
// parent until the key is written in the branch. Nothing reaches the parent
// until Write is called; dropping the Cache discards its writes.
//
// Cache is not safe for concurrent use.
type Cache struct {
	parent KVStore
	writes map[string]cacheEntry
}

type cacheEntry struct {
	value   []byte
	deleted bool
}

var _ KVStore = (*Cache)(nil)

// NewCache opens a branch over parent.
func NewCache(parent KVStore) *Cache {
	return &Cache{
		parent: parent,
		writes: make(map[string]cacheEntry),
	}
}

func (c *Cache) Get(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, errKeyEmpty
	}
	if e, ok := c.writes[string(key)]; ok {
		if e.deleted {
			return nil, nil
		}
		return copyBytes(e.value), nil
	}
	return c.parent.Get(key)
}

func (c *Cache) Has(key []byte) (bool, error) {
	bz, err := c.Get(key)
	if err != nil {
		return false, err
	}
	return bz != nil, nil
}

func (c *Cache) Set(key, value []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	if value == nil {
		return errValueNil
	}
	c.writes[string(key)] = cacheEntry{value: copyBytes(value)}
	return nil
}

func (c *Cache) Delete(key []byte) error {
	if len(key) == 0 {
		return errKeyEmpty
	}
	c.writes[string(key)] = cacheEntry{deleted: true}
	return nil
}

// Dirty returns the number of keys written in the branch.
func (c *Cache) Dirty() int { return len(c.writes) }

// Write flushes the branch into its parent and resets it.
func (c *Cache) Write() error {
	if err := c.WriteTo(c.parent); err != nil {
		return err
	}
	c.Discard()
	return nil
}

// WriteTo applies the branch's writes to w in key order, leaving the branch
// untouched.
func (c *Cache) WriteTo(w Writer) error {
	for _, k := range c.sortedKeys() {
		e := c.writes[k]
		var err error
		if e.deleted {
			err = w.Delete([]byte(k))
		} else {
			err = w.Set([]byte(k), e.value)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Discard drops every write in the branch.
func (c *Cache) Discard() {
	c.writes = make(map[string]cacheEntry)
}

// Digest hashes the branch's writes in key order. Two branches holding the
// same writes have the same digest.
func (c *Cache) Digest() []byte {
	h := tmhash.New()
	var lenBuf [binary.MaxVarintLen64]byte
	writeBytes := func(bz []byte) {
		n := binary.PutUvarint(lenBuf[:], uint64(len(bz)))
		h.Write(lenBuf[:n])
		h.Write(bz)
	}
	for _, k := range c.sortedKeys() {
		e := c.writes[k]
		writeBytes([]byte(k))
		if e.deleted {
			h.Write([]byte{0})
			continue
		}
		h.Write([]byte{1})
		writeBytes(e.value)
	}
	return h.Sum(nil)
}

// Iterator returns an iterator over the merged view of the branch and its
// parent.
func (c *Cache) Iterator(start, end []byte) (dbm.Iterator, error) {
	if (start != nil && len(start) == 0) || (end != nil && len(end) == 0) {
		return nil, errKeyEmpty
	}
	parent, err := c.parent.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	defer parent.Close()

	merged := make(map[string][]byte)
	for ; parent.Valid(); parent.Next() {
		merged[string(parent.Key())] = copyBytes(parent.Value())
	}
	if err := parent.Error(); err != nil {
		return nil, err
	}
	for k, e := range c.writes {
		if !inDomain([]byte(k), start, end) {
			continue
		}
		if e.deleted {
			delete(merged, k)
		} else {
			merged[k] = e.value
		}
	}

	items := make([]kvPair, 0, len(merged))
	for k, v := range merged {
		items = append(items, kvPair{key: []byte(k), value: v})
	}
	sort.Slice(items, func(i, j int) bool { return bytes.Compare(items[i].key, items[j].key) < 0 })
	return &memIterator{start: start, end: end, items: items}, nil
}

func (c *Cache) sortedKeys() []string {
	keys := make([]string, 0, len(c.writes))
	for k := range c.writes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func inDomain(key, start, end []byte) bool {
	if start != nil && bytes.Compare(key, start) < 0 {
		return false
	}
	if end != nil && bytes.Compare(key, end) >= 0 {
		return false
	}
	return true
}

func copyBytes(bz []byte) []byte {
	if bz == nil {
		return nil
	}
	cp := make([]byte, len(bz))
	copy(cp, bz)
	return cp
}

//-----------------------------------------------------------------------------

type kvPair struct {
	key   []byte
	value []byte
}

// memIterator iterates over a sorted snapshot.
type memIterator struct {
	start, end []byte
	items      []kvPair
	pos        int
	closed     bool
}

var _ dbm.Iterator = (*memIterator)(nil)

func (it *memIterator) Domain() ([]byte, []byte) { return it.start, it.end }

func (it *memIterator) Valid() bool { return !it.closed && it.pos < len(it.items) }

func (it *memIterator) Next() {
	if !it.Valid() {
		panic("memIterator: Next on invalid iterator")
	}
	it.pos++
}

func (it *memIterator) Key() []byte {
	if !it.Valid() {
		panic("memIterator: Key on invalid iterator")
	}
	return it.items[it.pos].key
}

func (it *memIterator) Value() []byte {
	if !it.Valid() {
		panic("memIterator: Value on invalid iterator")
	}
	return it.items[it.pos].value
}

func (it *memIterator) Error() error { return nil }

func (it *memIterator) Close() error {
	it.closed = true
	return nil
}
