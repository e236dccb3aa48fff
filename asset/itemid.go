package asset

import (
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"

	"github.com/google/uuid"
	"github.com/iov-one/custody/errors"
)

// ItemID is the unique identifier of a non fungible item within its class.
// It is kept in its text form, one of
//
//	#<unsigned integer>#
//	<string>
//	[hex encoded bytes]
//	{uuid}
type ItemID string

var isItemID = regexp.MustCompile(`^(#(0|[1-9][0-9]{0,19})#|<[A-Za-z0-9_]{1,64}>|\[([0-9a-f]{2}){1,64}\]|\{[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}\})$`).MatchString

// IntegerItemID returns an item identifier in the #n# form.
func IntegerItemID(n uint64) ItemID {
	return ItemID("#" + strconv.FormatUint(n, 10) + "#")
}

// StringItemID returns an item identifier in the <s> form.
func StringItemID(s string) ItemID {
	return ItemID("<" + s + ">")
}

// BytesItemID returns an item identifier in the [hex] form.
func BytesItemID(b []byte) ItemID {
	return ItemID("[" + hex.EncodeToString(b) + "]")
}

// UUIDItemID returns an item identifier in the {uuid} form.
func UUIDItemID(u uuid.UUID) ItemID {
	return ItemID(fmt.Sprintf("{%s}", u))
}

// Validate returns an error if the identifier is not in one of the
// supported forms.
func (id ItemID) Validate() error {
	if id == "" {
		return errors.Wrap(errors.ErrEmpty, "item id")
	}
	if !isItemID(string(id)) {
		return errors.Wrapf(errors.ErrInput, "malformed item id %q", string(id))
	}
	if id[0] == '#' {
		// The regexp accepts twenty digits, that can still overflow.
		if _, err := strconv.ParseUint(string(id[1:len(id)-1]), 10, 64); err != nil {
			return errors.Wrapf(errors.ErrOverflow, "item id %q", string(id))
		}
	}
	return nil
}

func (id ItemID) String() string {
	return string(id)
}
