package custodytest

import (
	"testing"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
)

// Fungible defines a fungible class in the ledger and mints q of it.
func Fungible(t testing.TB, db custody.KVStore, l *asset.Ledger, name string, q asset.Quantity) (asset.ClassID, *asset.Bucket) {
	t.Helper()
	class, err := l.NewFungible(db, name)
	if err != nil {
		t.Fatalf("cannot define %q: %s", name, err)
	}
	b, err := l.Mint(db, class, q)
	if err != nil {
		t.Fatalf("cannot mint %s %q: %s", q, name, err)
	}
	return class, b
}

// NonFungible defines a non fungible class in the ledger and mints given
// items of it.
func NonFungible(t testing.TB, db custody.KVStore, l *asset.Ledger, name string, items ...asset.ItemID) (asset.ClassID, *asset.Bucket) {
	t.Helper()
	class, err := l.NewNonFungible(db, name)
	if err != nil {
		t.Fatalf("cannot define %q: %s", name, err)
	}
	b, err := l.MintItems(db, class, items...)
	if err != nil {
		t.Fatalf("cannot mint %q items: %s", name, err)
	}
	return class, b
}
