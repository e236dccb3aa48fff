/*
Package iavl persists escrow instances in a versioned IAVL tree.

Every CacheWrap is a btree savepoint on top of the working tree. Writing the
savepoint moves its operations into the working tree, Commit saves a new
version to the backing database.
*/
package iavl

import (
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/store"
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// DefaultCacheSize is the number of tree nodes kept in memory.
const DefaultCacheSize = 10000

// CommitStore manages a iavl committed state
type CommitStore struct {
	db      dbm.DB
	tree    *iavl.MutableTree
	version int64
	hash    []byte
}

var _ store.CommitKVStore = (*CommitStore)(nil)

// NewCommitStore creates a new store with disk backing. When dir is empty
// the tree is kept in memory only.
func NewCommitStore(dir, name string) (*CommitStore, error) {
	if dir == "" {
		return NewCommitStoreFromDB(dbm.NewMemDB()), nil
	}
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrDatabase, "cannot open %s/%s: %s", dir, name, err)
	}
	return NewCommitStoreFromDB(db), nil
}

// NewCommitStoreFromDB creates a store on top of an already opened database.
func NewCommitStoreFromDB(db dbm.DB) *CommitStore {
	return &CommitStore{
		db:   db,
		tree: iavl.NewMutableTree(db, DefaultCacheSize),
	}
}

// DB returns the database backing the tree.
func (s *CommitStore) DB() dbm.DB {
	return s.db
}

// Get returns the value from the working tree. Returns nil iff key
// doesn't exist.
func (s *CommitStore) Get(key []byte) ([]byte, error) {
	_, val := s.tree.Get(key)
	return val, nil
}

// Commit the next version to disk, and returns info
func (s *CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrapf(errors.ErrDatabase, "save version: %s", err)
	}
	s.version, s.hash = version, hash
	return store.CommitID{Version: version, Hash: hash}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s *CommitStore) LoadLatestVersion() error {
	version, err := s.tree.Load()
	if err != nil {
		return errors.Wrapf(errors.ErrDatabase, "load: %s", err)
	}
	s.version, s.hash = version, s.tree.Hash()
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s *CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{Version: s.version, Hash: s.hash}, nil
}

// CacheWrap gives us a savepoint to perform actions on top of the working
// tree.
func (s *CommitStore) CacheWrap() store.KVCacheWrap {
	w := working{tree: s.tree}
	return store.NewSavepoint(w, w.NewBatch(), nil)
}

// working exposes the mutable tree as a KVStore.
type working struct {
	tree *iavl.MutableTree
}

var _ store.KVStore = working{}

func (w working) Get(key []byte) ([]byte, error) {
	_, val := w.tree.Get(key)
	return val, nil
}

func (w working) Has(key []byte) (bool, error) {
	return w.tree.Has(key), nil
}

func (w working) Set(key, value []byte) error {
	w.tree.Set(key, value)
	return nil
}

func (w working) Delete(key []byte) error {
	w.tree.Remove(key)
	return nil
}

// NewBatch returns a batch applying operations to the working tree. The
// tree is only persisted on Commit, so the batch does not need to be atomic.
func (w working) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(w)
}
