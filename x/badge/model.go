package badge

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"golang.org/x/crypto/blake2b"
)

// Token is the claim token handed to its holder. It must be kept secret,
// presenting it is the only authorization check.
type Token struct {
	// Class is the badge class the token was minted in.
	Class asset.ClassID
	// ID is the unique, unguessable token identifier.
	ID uuid.UUID
	// OfferedClass is the asset class of the resource this token is a
	// claim on.
	OfferedClass asset.ClassID
}

func (t Token) String() string {
	// Never print the identifier.
	return fmt.Sprintf("badge %s for %s", t.Class, t.OfferedClass)
}

// digest returns the value stored for the token identifier.
func digest(id uuid.UUID) []byte {
	h := blake2b.Sum256(id[:])
	return h[:]
}

// Badge is the record kept by the issuer for every minted token.
type Badge struct {
	Metadata     *custody.Metadata `json:"metadata"`
	Class        asset.ClassID     `json:"class"`
	Digest       []byte            `json:"digest"`
	OfferedClass asset.ClassID     `json:"offered_class"`
	Burned       bool              `json:"burned"`
}

// Validate ensures the badge record is complete.
func (b *Badge) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", b.Metadata.Validate())
	errs = errors.AppendField(errs, "Class", b.Class.Validate())
	errs = errors.AppendField(errs, "OfferedClass", b.OfferedClass.Validate())
	if len(b.Digest) != blake2b.Size256 {
		errs = errors.Append(errs, errors.Field("Digest", errors.ErrInput, "want %d bytes, got %d", blake2b.Size256, len(b.Digest)))
	}
	return errs
}
