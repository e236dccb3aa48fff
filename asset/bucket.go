package asset

import (
	"sort"

	"github.com/iov-one/custody/errors"
)

// Holding is the content of a container: an amount of a fungible class or a
// set of items of a non fungible class. Holding is a plain value, it is what
// a Vault persists and what a Bucket wraps.
type Holding struct {
	Class  ClassID  `json:"class"`
	Kind   Kind     `json:"kind"`
	Amount Quantity `json:"amount,omitempty"`
	// Items are kept sorted and never contain duplicates.
	Items []ItemID `json:"items,omitempty"`
}

// IsEmpty returns true if the holding contains no asset.
func (h Holding) IsEmpty() bool {
	if h.Kind == NonFungible {
		return len(h.Items) == 0
	}
	return h.Amount.IsZero()
}

// Validate ensures the holding is consistent with its kind.
func (h Holding) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Class", h.Class.Validate())
	errs = errors.AppendField(errs, "Kind", h.Kind.Validate())
	switch h.Kind {
	case Fungible:
		errs = errors.AppendField(errs, "Amount", h.Amount.Validate())
		if len(h.Items) != 0 {
			errs = errors.Append(errs, errors.Field("Items", errors.ErrInput, "fungible holding with items"))
		}
	case NonFungible:
		if !h.Amount.IsZero() {
			errs = errors.Append(errs, errors.Field("Amount", errors.ErrInput, "non fungible holding with amount"))
		}
		for i, id := range h.Items {
			errs = errors.AppendField(errs, "Items", id.Validate())
			if i > 0 && h.Items[i-1] >= id {
				errs = errors.Append(errs, errors.Field("Items", errors.ErrDuplicate, "unsorted or duplicated item %s", id))
			}
		}
	}
	return errs
}

// Bucket is a transient container of assets of a single class. Moving assets
// between buckets never creates or destroys them.
//
// Bucket is not safe for concurrent use.
type Bucket struct {
	h Holding
}

// NewFungibleBucket returns a bucket holding given quantity of class.
func NewFungibleBucket(class ClassID, q Quantity) *Bucket {
	return &Bucket{h: Holding{Class: class, Kind: Fungible, Amount: q}}
}

// NewItemBucket returns a bucket holding given items of class. Duplicated
// identifiers are collapsed.
func NewItemBucket(class ClassID, items ...ItemID) *Bucket {
	return &Bucket{h: Holding{Class: class, Kind: NonFungible, Items: normalizeItems(items)}}
}

// EmptyBucket returns a bucket of class that holds nothing.
func EmptyBucket(class ClassID, kind Kind) *Bucket {
	return &Bucket{h: Holding{Class: class, Kind: kind}}
}

// BucketOf returns a bucket holding a copy of given content.
func BucketOf(h Holding) *Bucket {
	h.Items = normalizeItems(h.Items)
	return &Bucket{h: h}
}

// Class returns the asset class of the bucket content.
func (b *Bucket) Class() ClassID {
	return b.h.Class
}

// Kind returns the kind of the bucket asset class.
func (b *Bucket) Kind() Kind {
	return b.h.Kind
}

// Quantity returns the amount held. For a non fungible class this is the
// number of items.
func (b *Bucket) Quantity() Quantity {
	if b.h.Kind == NonFungible {
		return Units(int64(len(b.h.Items)))
	}
	return b.h.Amount
}

// Items returns a copy of the identifiers of all held items.
func (b *Bucket) Items() []ItemID {
	if len(b.h.Items) == 0 {
		return nil
	}
	return append([]ItemID(nil), b.h.Items...)
}

// Contains returns true if an item with given identifier is held.
func (b *Bucket) Contains(id ItemID) bool {
	_, ok := b.index(id)
	return ok
}

// IsEmpty returns true if the bucket holds nothing. A nil bucket is empty.
func (b *Bucket) IsEmpty() bool {
	return b == nil || b.h.IsEmpty()
}

// Holding returns a copy of the bucket content.
func (b *Bucket) Holding() Holding {
	h := b.h
	h.Items = b.Items()
	return h
}

// Clone returns an independent copy of the bucket.
func (b *Bucket) Clone() *Bucket {
	return &Bucket{h: b.Holding()}
}

// Replace swaps the content of this bucket with the content of other. Other
// is left empty.
func (b *Bucket) Replace(other *Bucket) {
	b.h = other.h
	other.h = Holding{Class: b.h.Class, Kind: b.h.Kind}
}

// Put moves the whole content of other into this bucket. Both buckets must
// hold the same asset class.
func (b *Bucket) Put(other *Bucket) error {
	if other.IsEmpty() {
		return nil
	}
	if other.h.Class != b.h.Class || other.h.Kind != b.h.Kind {
		return errors.Wrapf(errors.ErrClass, "cannot put %s into %s", other.h.Class, b.h.Class)
	}
	switch b.h.Kind {
	case Fungible:
		sum, err := b.h.Amount.Add(other.h.Amount)
		if err != nil {
			return err
		}
		b.h.Amount = sum
	case NonFungible:
		for _, id := range other.h.Items {
			if b.Contains(id) {
				return errors.Wrapf(errors.ErrDuplicate, "item %s", id)
			}
		}
		b.h.Items = normalizeItems(append(b.h.Items, other.h.Items...))
	}
	other.h = Holding{Class: other.h.Class, Kind: other.h.Kind}
	return nil
}

// Take removes given quantity from a fungible bucket and returns it as a new
// bucket. ErrAmount is returned if there is not enough.
func (b *Bucket) Take(q Quantity) (*Bucket, error) {
	if b.h.Kind != Fungible {
		return nil, errors.Wrapf(errors.ErrType, "cannot take a quantity of %s asset", b.h.Kind)
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}
	rest, err := b.h.Amount.Sub(q)
	if err != nil {
		return nil, err
	}
	b.h.Amount = rest
	return NewFungibleBucket(b.h.Class, q), nil
}

// TakeItem removes the item with given identifier and returns it as a new
// bucket. ErrNotFound is returned if the item is not held.
func (b *Bucket) TakeItem(id ItemID) (*Bucket, error) {
	if b.h.Kind != NonFungible {
		return nil, errors.Wrapf(errors.ErrType, "cannot take an item of %s asset", b.h.Kind)
	}
	i, ok := b.index(id)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "item %s", id)
	}
	items := append(append([]ItemID(nil), b.h.Items[:i]...), b.h.Items[i+1:]...)
	b.h.Items = normalizeItems(items)
	return NewItemBucket(b.h.Class, id), nil
}

// TakeAll drains the bucket and returns its whole content as a new bucket.
func (b *Bucket) TakeAll() *Bucket {
	all := &Bucket{h: b.h}
	b.h = Holding{Class: b.h.Class, Kind: b.h.Kind}
	return all
}

func (b *Bucket) index(id ItemID) (int, bool) {
	items := b.h.Items
	i := sort.Search(len(items), func(i int) bool { return items[i] >= id })
	return i, i < len(items) && items[i] == id
}

// normalizeItems returns a sorted copy of given identifiers without
// duplicates. Nil is returned for an empty set.
func normalizeItems(items []ItemID) []ItemID {
	if len(items) == 0 {
		return nil
	}
	res := append([]ItemID(nil), items...)
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	out := res[:1]
	for _, id := range res[1:] {
		if id != out[len(out)-1] {
			out = append(out, id)
		}
	}
	return out
}
