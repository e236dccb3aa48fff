package store

import (
	"testing"

	"github.com/iov-one/custody/custodytest/assert"
)

/*
TestSuite provides the KVStore checks shared by every store implementation.
Package specific test code only customizes the store being tested (pass in
constructor), the rest of the logic is generic to the CacheableKVStore
interface.

It removes duplication between btree_test.go and iavl/adapter_test.go.
*/
type TestSuite struct {
	makeBase TestStoreConstructor
}

// TestStoreConstructor returns a fresh store and a function that releases
// all of its resources.
type TestStoreConstructor func() (base CacheableKVStore, cleanup func())

// NewTestSuite returns a suite running against stores built by constructor.
func NewTestSuite(constructor TestStoreConstructor) *TestSuite {
	return &TestSuite{
		makeBase: constructor,
	}
}

// GetSet does basic sanity checks on our cache
func (s *TestSuite) GetSet(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	// make sure the store is empty at start but returns results
	// that are written to it
	k, v := []byte("french"), []byte("fry")
	s.AssertGetHas(t, base, k, nil, false)
	assert.Nil(t, base.Set(k, v))
	s.AssertGetHas(t, base, k, v, true)

	// now layer a cache on top and make sure that we get base data
	cache := base.CacheWrap()
	s.AssertGetHas(t, cache, k, v, true)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	s.AssertGetHas(t, cache, k2, nil, false)
	assert.Nil(t, cache.Set(k2, v2))
	s.AssertGetHas(t, cache, k2, v2, true)
	s.AssertGetHas(t, base, k2, nil, false)

	// we can write the cache to the base layer...
	assert.Nil(t, cache.Write())
	s.AssertGetHas(t, base, k, v, true)
	s.AssertGetHas(t, base, k2, v2, true)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	s.AssertGetHas(t, c2, k, v, true)
	assert.Nil(t, c2.Set(k3, v3))
	c2.Discard()
	s.AssertGetHas(t, base, k3, nil, false)

	// and commit another
	c3 := base.CacheWrap()
	assert.Nil(t, c3.Delete(k))
	assert.Nil(t, c3.Write())

	// make sure it commits proper
	s.AssertGetHas(t, base, k, nil, false)
	s.AssertGetHas(t, base, k2, v2, true)
	s.AssertGetHas(t, base, k3, nil, false)
}

// CacheConflicts checks that we can handle overwriting values and deleting
// underlying values in nested savepoints.
func (s *TestSuite) CacheConflicts(t *testing.T) {
	base, cleanup := s.makeBase()
	defer cleanup()

	ks := [][]byte{[]byte("k1"), []byte("k2"), []byte("k3")}
	vs := [][]byte{[]byte("v1"), []byte("v2"), []byte("v3"), []byte("v11")}

	parent := base.CacheWrap()
	assert.Nil(t, parent.Set(ks[0], vs[0]))
	assert.Nil(t, parent.Set(ks[1], vs[1]))

	// overwrite one, delete another, add a third
	child := parent.CacheWrap()
	assert.Nil(t, child.Set(ks[0], vs[3]))
	assert.Nil(t, child.Delete(ks[1]))
	assert.Nil(t, child.Set(ks[2], vs[2]))

	// the parent is unaffected
	s.AssertGetHas(t, parent, ks[0], vs[0], true)
	s.AssertGetHas(t, parent, ks[1], vs[1], true)
	s.AssertGetHas(t, parent, ks[2], nil, false)

	// the child shows changes
	s.AssertGetHas(t, child, ks[0], vs[3], true)
	s.AssertGetHas(t, child, ks[1], nil, false)
	s.AssertGetHas(t, child, ks[2], vs[2], true)

	// write child to parent and make sure it also shows proper data
	assert.Nil(t, child.Write())
	s.AssertGetHas(t, parent, ks[0], vs[3], true)
	s.AssertGetHas(t, parent, ks[1], nil, false)
	s.AssertGetHas(t, parent, ks[2], vs[2], true)

	// nothing reached the base before the parent is written
	s.AssertGetHas(t, base, ks[0], nil, false)
	assert.Nil(t, parent.Write())
	s.AssertGetHas(t, base, ks[0], vs[3], true)
	s.AssertGetHas(t, base, ks[2], vs[2], true)
}

// AssertGetHas makes sure that both Get and Has report the expected state
// of given key.
func (s *TestSuite) AssertGetHas(t testing.TB, kv ReadOnlyKVStore, key, val []byte, has bool) {
	t.Helper()
	got, err := kv.Get(key)
	assert.Nil(t, err)
	assert.Equal(t, val, got)
	exists, err := kv.Has(key)
	assert.Nil(t, err)
	assert.Equal(t, has, exists)
}
