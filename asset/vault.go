package asset

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

// Vault is a persisted container, stored under the address of its owner.
type Vault struct {
	Metadata *custody.Metadata `json:"metadata"`
	Holding  Holding           `json:"holding"`
}

// Validate ensures the vault content is consistent.
func (v *Vault) Validate() error {
	return errors.Append(
		errors.AppendField(nil, "Metadata", v.Metadata.Validate()),
		v.Holding.Validate(),
	)
}

// VaultBucket stores vaults by owner address.
type VaultBucket struct {
	b orm.ModelBucket
}

// NewVaultBucket returns a bucket for managing vaults.
func NewVaultBucket() *VaultBucket {
	return &VaultBucket{b: orm.NewModelBucket("vault", cdc)}
}

// Open creates an empty vault for given class at addr. ErrDuplicate is
// returned if the address already has a vault.
func (vb *VaultBucket) Open(db custody.KVStore, addr custody.Address, class ClassID, kind Kind) error {
	if err := addr.Validate(); err != nil {
		return errors.Wrap(err, "vault address")
	}
	switch err := vb.b.Has(db, addr); {
	case err == nil:
		return errors.Wrapf(errors.ErrDuplicate, "vault %s", addr)
	case !errors.ErrNotFound.Is(err):
		return err
	}
	v := Vault{
		Metadata: &custody.Metadata{Schema: 1},
		Holding:  Holding{Class: class, Kind: kind},
	}
	return vb.b.Put(db, addr, &v)
}

// Deposit moves the whole content of given bucket into the vault at addr.
// A vault is created if none exists yet. The bucket is drained only when the
// vault was updated.
func (vb *VaultBucket) Deposit(db custody.KVStore, addr custody.Address, b *Bucket) error {
	if b.IsEmpty() {
		return nil
	}
	v, err := vb.load(db, addr)
	switch {
	case errors.ErrNotFound.Is(err):
		v = &Vault{
			Metadata: &custody.Metadata{Schema: 1},
			Holding:  Holding{Class: b.Class(), Kind: b.Kind()},
		}
	case err != nil:
		return err
	}
	content := BucketOf(v.Holding)
	if err := content.Put(b.Clone()); err != nil {
		return errors.Wrapf(err, "vault %s", addr)
	}
	v.Holding = content.Holding()
	if err := vb.b.Put(db, addr, v); err != nil {
		return err
	}
	b.TakeAll()
	return nil
}

// TakeAll drains the vault at addr and returns its content.
func (vb *VaultBucket) TakeAll(db custody.KVStore, addr custody.Address) (*Bucket, error) {
	v, err := vb.load(db, addr)
	if err != nil {
		return nil, err
	}
	out := BucketOf(v.Holding)
	v.Holding = Holding{Class: v.Holding.Class, Kind: v.Holding.Kind}
	if err := vb.b.Put(db, addr, v); err != nil {
		return nil, err
	}
	return out, nil
}

// Holding returns the content of the vault at addr without moving it.
func (vb *VaultBucket) Holding(db custody.ReadOnlyKVStore, addr custody.Address) (Holding, error) {
	v, err := vb.load(db, addr)
	if err != nil {
		return Holding{}, err
	}
	return BucketOf(v.Holding).Holding(), nil
}

func (vb *VaultBucket) load(db custody.ReadOnlyKVStore, addr custody.Address) (*Vault, error) {
	var v Vault
	if err := vb.b.One(db, addr, &v); err != nil {
		return nil, errors.Wrapf(err, "vault %s", addr)
	}
	return &v, nil
}
