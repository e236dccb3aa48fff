package asset

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
)

// Ledger defines asset classes and mints new assets. It is the minimal
// resource manager the escrow custodian needs from its hosting environment.
type Ledger struct {
	classes orm.ModelBucket
	items   orm.ModelBucket
	seq     orm.Sequence
}

// NewLedger returns a ledger keeping its state in the "class" and "item"
// buckets.
func NewLedger() *Ledger {
	return &Ledger{
		classes: orm.NewModelBucket("class", cdc),
		items:   orm.NewModelBucket("item", cdc),
		seq:     orm.NewSequence("class", "id"),
	}
}

// NewFungible defines a new fungible asset class.
func (l *Ledger) NewFungible(db custody.KVStore, name string) (ClassID, error) {
	return l.define(db, name, Fungible)
}

// NewNonFungible defines a new non fungible asset class.
func (l *Ledger) NewNonFungible(db custody.KVStore, name string) (ClassID, error) {
	return l.define(db, name, NonFungible)
}

func (l *Ledger) define(db custody.KVStore, name string, kind Kind) (ClassID, error) {
	n, err := l.seq.NextVal(db)
	if err != nil {
		return "", errors.Wrap(err, "class sequence")
	}
	c := Class{
		Metadata: &custody.Metadata{Schema: 1},
		ID:       NewClassID(append([]byte("class/"), n...)),
		Kind:     kind,
		Name:     name,
	}
	if err := l.classes.Put(db, []byte(c.ID), &c); err != nil {
		return "", errors.Wrap(err, "cannot store class")
	}
	return c.ID, nil
}

// Class returns the definition of a class. ErrNotFound is returned if the
// class was never defined.
func (l *Ledger) Class(db custody.ReadOnlyKVStore, id ClassID) (*Class, error) {
	var c Class
	if err := l.classes.One(db, []byte(id), &c); err != nil {
		return nil, errors.Wrapf(err, "class %s", id)
	}
	return &c, nil
}

// Mint creates given quantity of a fungible class.
func (l *Ledger) Mint(db custody.ReadOnlyKVStore, id ClassID, q Quantity) (*Bucket, error) {
	if err := l.expect(db, id, Fungible); err != nil {
		return nil, err
	}
	if !q.IsPositive() {
		return nil, errors.Wrapf(errors.ErrAmount, "cannot mint %s", q)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return NewFungibleBucket(id, q), nil
}

// MintItems creates items of a non fungible class. Every item identifier can
// be minted only once within a class.
func (l *Ledger) MintItems(db custody.KVStore, id ClassID, items ...ItemID) (*Bucket, error) {
	if err := l.expect(db, id, NonFungible); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.Wrap(errors.ErrEmpty, "no items")
	}
	b := NewItemBucket(id)
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		key := itemKey(id, item)
		switch err := l.items.Has(db, key); {
		case err == nil:
			return nil, errors.Wrapf(errors.ErrDuplicate, "item %s of %s", item, id)
		case !errors.ErrNotFound.Is(err):
			return nil, err
		}
		if err := l.items.Put(db, key, &mintedItem{Metadata: &custody.Metadata{Schema: 1}}); err != nil {
			return nil, err
		}
		if err := b.Put(NewItemBucket(id, item)); err != nil {
			return nil, err
		}
	}
	return b, nil
}

func (l *Ledger) expect(db custody.ReadOnlyKVStore, id ClassID, kind Kind) error {
	c, err := l.Class(db, id)
	if err != nil {
		return err
	}
	if c.Kind != kind {
		return errors.Wrapf(errors.ErrType, "class %s is %s", id, c.Kind)
	}
	return nil
}

func itemKey(class ClassID, item ItemID) []byte {
	return []byte(string(class) + "/" + string(item))
}

// mintedItem marks an item identifier as taken.
type mintedItem struct {
	Metadata *custody.Metadata
}

func (m *mintedItem) Validate() error {
	return m.Metadata.Validate()
}
