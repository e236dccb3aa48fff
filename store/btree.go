package store

import (
	"bytes"

	"github.com/google/btree"
	"github.com/iov-one/custody/errors"
)

// DefaultFreeListSize is the number of btree nodes kept for reuse by a
// chain of savepoints.
const DefaultFreeListSize = btree.DefaultFreeListSize

// Atomically runs fn on a savepoint of db. Changes made by fn reach db only
// if fn returns no error, otherwise they are dropped together.
func Atomically(db CacheableKVStore, fn func(KVStore) error) error {
	sp := db.CacheWrap()
	if err := fn(sp); err != nil {
		sp.Discard()
		return err
	}
	if err := sp.Write(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Savepoints makes any KVStore cacheable by placing a Savepoint over it.
type Savepoints struct {
	KVStore
}

var _ CacheableKVStore = Savepoints{}

// CacheWrap opens a savepoint over the wrapped store.
func (s Savepoints) CacheWrap() KVCacheWrap {
	return NewSavepoint(s.KVStore, s.NewBatch(), nil)
}

// MemStore returns a store that keeps everything in memory. Use it in tests
// and in hosts that do not need escrows to survive a restart.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewSavepoint(e, e.NewBatch(), nil)
}

// Savepoint buffers changes in a btree over a read only view of a store.
// Reads see the buffered changes first. Write flushes the buffered changes
// to the batch, Discard forgets them. Both release the buffer, so a
// savepoint must not be used after either call.
type Savepoint struct {
	pending *btree.BTree
	free    *btree.FreeList
	parent  ReadOnlyKVStore
	out     Batch
}

var _ KVCacheWrap = Savepoint{}

// NewSavepoint opens a savepoint reading from parent and flushing to out.
// All writes must go through out, parent is never modified directly.
//
// A nil free list allocates a new one. Nested savepoints share the free
// list of their parent.
func NewSavepoint(parent ReadOnlyKVStore, out Batch, free *btree.FreeList) Savepoint {
	if free == nil {
		free = btree.NewFreeList(DefaultFreeListSize)
	}
	return Savepoint{
		pending: btree.NewWithFreeList(2, free),
		free:    free,
		parent:  parent,
		out:     out,
	}
}

// CacheWrap opens a nested savepoint. Writing it only updates this one.
func (s Savepoint) CacheWrap() KVCacheWrap {
	return NewSavepoint(s, s.NewBatch(), s.free)
}

// NewBatch returns a batch writing into this savepoint.
func (s Savepoint) NewBatch() Batch {
	return NewNonAtomicBatch(s)
}

// Write flushes all buffered changes and releases the buffer.
func (s Savepoint) Write() error {
	err := s.out.Write()
	s.Discard()
	return err
}

// Discard releases the buffer without flushing it.
func (s Savepoint) Discard() {
	for s.pending.DeleteMin() != nil {
	}
}

// Set buffers a new value for key.
func (s Savepoint) Set(key, value []byte) error {
	s.pending.ReplaceOrInsert(change{key: key, value: value})
	return s.out.Set(key, value)
}

// Delete buffers the removal of key.
func (s Savepoint) Delete(key []byte) error {
	s.pending.ReplaceOrInsert(change{key: key, deleted: true})
	return s.out.Delete(key)
}

// Get returns the buffered value of key, or the parent value if key was not
// changed in this savepoint.
func (s Savepoint) Get(key []byte) ([]byte, error) {
	c, ok, err := s.lookup(key)
	if err != nil || !ok {
		if err == nil {
			return s.parent.Get(key)
		}
		return nil, err
	}
	if c.deleted {
		return nil, nil
	}
	return c.value, nil
}

// Has reports if key is present, buffered changes included.
func (s Savepoint) Has(key []byte) (bool, error) {
	c, ok, err := s.lookup(key)
	if err != nil || !ok {
		if err == nil {
			return s.parent.Has(key)
		}
		return false, err
	}
	return !c.deleted, nil
}

func (s Savepoint) lookup(key []byte) (change, bool, error) {
	item := s.pending.Get(change{key: key})
	if item == nil {
		return change{}, false, nil
	}
	c, ok := item.(change)
	if !ok {
		return change{}, false, errors.Wrapf(errors.ErrDatabase, "unknown savepoint item: %#v", item)
	}
	return c, true, nil
}

// change is a single buffered modification. A deleted change shadows any
// value the parent holds for the same key.
type change struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = change{}

// Less orders changes by key.
func (c change) Less(other btree.Item) bool {
	return bytes.Compare(c.key, other.(change).key) < 0
}
