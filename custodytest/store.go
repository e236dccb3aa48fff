package custodytest

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/store/iavl"
)

// CommitKVStore returns a store instance that is using a filesystem backend
// engine to store the data.
// This implementation should be used instead of MemStore when you want the
// exact same storage implementation as the production instance is using.
func CommitKVStore(t testing.TB) (db *iavl.CommitStore, cleanup func()) {
	t.Helper()
	dbpath, err := ioutil.TempDir("", "custody")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}
	db, err = iavl.NewCommitStore(dbpath, "db")
	if err != nil {
		os.RemoveAll(dbpath)
		t.Fatalf("cannot open the store: %s", err)
	}
	if err := db.LoadLatestVersion(); err != nil {
		os.RemoveAll(dbpath)
		t.Fatalf("cannot load the store: %s", err)
	}
	return db, func() { os.RemoveAll(dbpath) }
}

// Commit writes a savepoint of db and commits a new version. Use it to move
// state created on a cache wrap into the committed store.
func Commit(t testing.TB, db custody.CommitKVStore, fn func(custody.KVStore)) custody.CommitID {
	t.Helper()
	cache := db.CacheWrap()
	fn(cache)
	if err := cache.Write(); err != nil {
		t.Fatalf("cannot write savepoint: %s", err)
	}
	id, err := db.Commit()
	if err != nil {
		t.Fatalf("cannot commit: %s", err)
	}
	return id
}
