package asset

import (
	"bytes"
	"encoding/json"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/iov-one/custody/errors"
)

const (
	// MaxWhole is the largest whole value we accept
	MaxWhole int64 = 999999999999999 // 10^15-1

	// FracUnit is the smallest numbers we divide by
	FracUnit int64 = 1000000000 // fractional units = 10^9
	// MaxFrac is the highest possible fractional value
	MaxFrac = FracUnit - 1
)

// Quantity is a non negative, fixed point decimal amount of a fungible
// asset with nine digits of precision.
type Quantity struct {
	Whole      int64 `json:"whole"`
	Fractional int64 `json:"fractional"`
}

// NewQuantity creates a new quantity.
func NewQuantity(whole, fractional int64) Quantity {
	return Quantity{Whole: whole, Fractional: fractional}
}

// Units returns a quantity of whole units.
func Units(whole int64) Quantity {
	return Quantity{Whole: whole}
}

// IsZero returns true if the amount is 0
func (q Quantity) IsZero() bool {
	return q.Whole == 0 && q.Fractional == 0
}

// IsPositive returns true if the value is greater than 0
func (q Quantity) IsPositive() bool {
	return q.Whole > 0 || (q.Whole == 0 && q.Fractional > 0)
}

// Compare will check values of two quantities. It assumes they were already
// normalized.
//
// Returns 1 if q is larger, -1 if o is larger, 0 if equal
func (q Quantity) Compare(o Quantity) int {
	switch {
	case q.Whole > o.Whole:
		return 1
	case q.Whole < o.Whole:
		return -1
	case q.Fractional > o.Fractional:
		return 1
	case q.Fractional < o.Fractional:
		return -1
	default:
		return 0
	}
}

// Add combines two quantities. Returns ErrOverflow if the result exceeds
// MaxWhole.
func (q Quantity) Add(o Quantity) (Quantity, error) {
	return Quantity{
		Whole:      q.Whole + o.Whole,
		Fractional: q.Fractional + o.Fractional,
	}.normalize()
}

// Sub returns q - o. Subtracting more than there is fails with ErrAmount,
// quantities are never negative.
func (q Quantity) Sub(o Quantity) (Quantity, error) {
	if q.Compare(o) < 0 {
		return Quantity{}, errors.Wrapf(errors.ErrAmount, "cannot subtract %s from %s", o, q)
	}
	return Quantity{
		Whole:      q.Whole - o.Whole,
		Fractional: q.Fractional - o.Fractional,
	}.normalize()
}

// Validate ensures that the quantity is non negative and in the valid range.
func (q Quantity) Validate() error {
	var err error
	if q.Whole < 0 || q.Fractional < 0 {
		err = errors.Append(err, errors.Wrap(errors.ErrAmount, "negative quantity"))
	}
	if q.Whole > MaxWhole {
		err = errors.Append(err, errors.ErrOverflow)
	}
	if q.Fractional > MaxFrac {
		err = errors.Append(err, errors.Wrap(errors.ErrOverflow, "fractional"))
	}
	return err
}

// normalize will adjust the fractional part to correspond to the range and
// the integer part. If the normalized quantity is outside of the range,
// returns an error
func (q Quantity) normalize() (Quantity, error) {
	for q.Fractional < 0 {
		q.Whole--
		q.Fractional += FracUnit
	}
	for q.Fractional > MaxFrac {
		q.Whole++
		q.Fractional -= FracUnit
	}
	if q.Whole > MaxWhole {
		return Quantity{}, errors.ErrOverflow
	}
	if q.Whole < 0 {
		return Quantity{}, errors.Wrap(errors.ErrAmount, "negative quantity")
	}
	return q, nil
}

// String provides a human readable representation of the quantity, for
// example "12.5". The result can be parsed back with ParseQuantity.
func (q Quantity) String() string {
	var b bytes.Buffer
	io.WriteString(&b, strconv.FormatInt(q.Whole, 10))
	if f := q.Fractional; f != 0 {
		s := strconv.FormatInt(f, 10)
		// Add leading zeros to convert it to a floating point number.
		s = "." + strings.Repeat("0", 9-len(s)) + s
		// Remove trailing zeros as they provide no information.
		io.WriteString(&b, strings.TrimRight(s, "0"))
	}
	return b.String()
}

var quantityFormatRx = regexp.MustCompile(`^(\d+)(?:\.(\d{1,9}))?$`)

// ParseQuantity parses a human readable quantity in the format
//
//	"<whole>[.<fractional>]"
func ParseQuantity(s string) (Quantity, error) {
	m := quantityFormatRx.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Quantity{}, errors.Wrapf(errors.ErrInput, "invalid quantity %q", s)
	}
	whole, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return Quantity{}, errors.Wrapf(errors.ErrOverflow, "whole value: %s", err)
	}
	var frac int64
	if m[2] != "" {
		// Pad to nine digits, "5" is 500000000 fractional units.
		frac, err = strconv.ParseInt(m[2]+strings.Repeat("0", 9-len(m[2])), 10, 64)
		if err != nil {
			return Quantity{}, errors.Wrapf(errors.ErrInput, "fractional value: %s", err)
		}
	}
	q := Quantity{Whole: whole, Fractional: frac}
	if err := q.Validate(); err != nil {
		return Quantity{}, err
	}
	return q, nil
}

// UnmarshalJSON accepts both the human readable string format and the
// object format.
func (q *Quantity) UnmarshalJSON(raw []byte) error {
	var human string
	if err := json.Unmarshal(raw, &human); err == nil {
		parsed, err := ParseQuantity(human)
		if err != nil {
			return err
		}
		*q = parsed
		return nil
	}

	// Fallback into the default unmarshaling. Because UnmarshalJSON method
	// is provided, we can no longer use Quantity type for this.
	var obj struct {
		Whole      int64
		Fractional int64
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "quantity: %s", err)
	}
	q.Whole, q.Fractional = obj.Whole, obj.Fractional
	return nil
}
