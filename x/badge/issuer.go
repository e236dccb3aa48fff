package badge

import (
	"crypto/subtle"

	"github.com/google/uuid"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	amino "github.com/tendermint/go-amino"
)

var cdc = amino.NewCodec()

// IDSource returns a new token identifier on every call.
type IDSource func() (uuid.UUID, error)

// Issuer defines badge classes and mints, verifies and burns tokens.
type Issuer struct {
	ledger *asset.Ledger
	badges orm.ModelBucket
	newID  IDSource
}

// Option configures an Issuer.
type Option func(*Issuer)

// WithIDSource replaces the random identifier source. Use it in tests only,
// a predictable source makes tokens forgeable.
func WithIDSource(fn IDSource) Option {
	return func(i *Issuer) {
		i.newID = fn
	}
}

// NewIssuer returns an issuer that defines badge classes in given ledger.
func NewIssuer(ledger *asset.Ledger, opts ...Option) *Issuer {
	i := &Issuer{
		ledger: ledger,
		badges: orm.NewModelBucket("badge", cdc),
		newID:  uuid.NewRandom,
	}
	for _, fn := range opts {
		fn(i)
	}
	return i
}

// NewClass defines a new badge class.
func (i *Issuer) NewClass(db custody.KVStore) (asset.ClassID, error) {
	id, err := i.ledger.NewNonFungible(db, "escrow badge")
	if err != nil {
		return "", errors.Wrap(err, "badge class")
	}
	return id, nil
}

// Mint creates the only token of given class. The token carries the class of
// the offered resource. Minting a second token in a class fails with
// ErrDuplicate.
func (i *Issuer) Mint(db custody.KVStore, class, offered asset.ClassID) (Token, error) {
	if _, err := i.ledger.Class(db, class); err != nil {
		return Token{}, err
	}
	switch err := i.badges.Has(db, []byte(class)); {
	case err == nil:
		return Token{}, errors.Wrapf(errors.ErrDuplicate, "badge class %s already has a token", class)
	case !errors.ErrNotFound.Is(err):
		return Token{}, err
	}

	id, err := i.newID()
	if err != nil {
		return Token{}, errors.Wrapf(errors.ErrHuman, "token id: %s", err)
	}
	b := Badge{
		Metadata:     &custody.Metadata{Schema: 1},
		Class:        class,
		Digest:       digest(id),
		OfferedClass: offered,
	}
	if err := i.badges.Put(db, []byte(class), &b); err != nil {
		return Token{}, errors.Wrap(err, "cannot store badge")
	}
	return Token{Class: class, ID: id, OfferedClass: offered}, nil
}

// Verify checks that the token was minted by this issuer and returns its
// record. A burned token still verifies, check Badge.Burned. ErrUnauthorized
// is returned for any token that was not minted.
func (i *Issuer) Verify(db custody.ReadOnlyKVStore, t Token) (*Badge, error) {
	var b Badge
	switch err := i.badges.One(db, []byte(t.Class), &b); {
	case errors.ErrNotFound.Is(err):
		return nil, errors.Wrap(errors.ErrUnauthorized, "unknown badge class")
	case err != nil:
		return nil, err
	}
	if subtle.ConstantTimeCompare(b.Digest, digest(t.ID)) != 1 {
		return nil, errors.Wrap(errors.ErrUnauthorized, "token id mismatch")
	}
	if b.OfferedClass != t.OfferedClass {
		return nil, errors.Wrap(errors.ErrUnauthorized, "offered class mismatch")
	}
	return &b, nil
}

// Burn invalidates the token. Burning a token twice fails with ErrState.
func (i *Issuer) Burn(db custody.KVStore, t Token) error {
	b, err := i.Verify(db, t)
	if err != nil {
		return err
	}
	if b.Burned {
		return errors.Wrap(errors.ErrState, "badge already burned")
	}
	b.Burned = true
	return i.badges.Put(db, []byte(t.Class), b)
}
