package asset

import (
	"fmt"

	"github.com/iov-one/custody"
	"github.com/iov-one/custody/crypto/bech32"
	"github.com/iov-one/custody/errors"
	"golang.org/x/crypto/blake2b"
)

// ClassHRP is the human readable part of every asset class identifier.
const ClassHRP = "resource"

// classIDLength is the length of the digest encoded in a ClassID.
const classIDLength = 20

// ClassID identifies an asset class. It is the bech32 encoded form of a
// digest, for example "resource1qqqsyqcyq5rqwzqfpg9scrgwpugpzysnzs23v3".
type ClassID string

// NewClassID derives a class identifier from given seed. The same seed
// always produces the same identifier.
func NewClassID(seed []byte) ClassID {
	h := blake2b.Sum256(seed)
	raw, err := bech32.Encode(ClassHRP, h[:classIDLength])
	if err != nil {
		// Encoding of a fixed size payload with a constant prefix
		// cannot fail.
		panic(err)
	}
	return ClassID(raw)
}

// Validate returns an error if the identifier is not a bech32 encoded class
// identifier.
func (c ClassID) Validate() error {
	if c == "" {
		return errors.Wrap(errors.ErrEmpty, "class")
	}
	hrp, payload, err := bech32.Decode(string(c))
	if err != nil {
		return errors.Wrap(errors.ErrClass, err.Error())
	}
	if hrp != ClassHRP {
		return errors.Wrapf(errors.ErrClass, "prefix %q", hrp)
	}
	if len(payload) != classIDLength {
		return errors.Wrapf(errors.ErrClass, "payload length %d", len(payload))
	}
	return nil
}

func (c ClassID) String() string {
	return string(c)
}

// Kind tells how the assets of a class are counted.
type Kind int32

const (
	// Fungible assets are counted with a Quantity.
	Fungible Kind = 1
	// NonFungible assets are a set of uniquely identified items.
	NonFungible Kind = 2
)

func (k Kind) String() string {
	switch k {
	case Fungible:
		return "fungible"
	case NonFungible:
		return "non-fungible"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Validate returns an error if the kind is not known.
func (k Kind) Validate() error {
	switch k {
	case Fungible, NonFungible:
		return nil
	default:
		return errors.Wrapf(errors.ErrInput, "unknown kind %d", k)
	}
}

// Class is the definition of an asset class kept by the Ledger.
type Class struct {
	Metadata *custody.Metadata `json:"metadata"`
	ID       ClassID           `json:"id"`
	Kind     Kind              `json:"kind"`
	Name     string            `json:"name"`
}

// Validate ensures the class definition is complete.
func (c *Class) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "ID", c.ID.Validate())
	errs = errors.AppendField(errs, "Kind", c.Kind.Validate())
	if c.Name == "" {
		errs = errors.AppendField(errs, "Name", errors.ErrEmpty)
	}
	return errs
}
