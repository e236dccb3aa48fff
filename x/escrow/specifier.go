package escrow

import (
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
)

// ResourceSpecifier describes the asset an escrow requests in exchange for
// the offered one. It is implemented by Fungible and NonFungible only.
type ResourceSpecifier interface {
	// AssetClass returns the class of the requested asset.
	AssetClass() asset.ClassID
	// Kind returns the kind of the requested asset class.
	Kind() asset.Kind
	Validate() error

	// take removes the requested asset from payment. It returns a
	// ErrResourceMismatch field error if the payment does not satisfy
	// the request. Payment is not modified on failure.
	take(payment *asset.Bucket, p Overpayment) (*asset.Bucket, error)
}

// Fungible requests an exact quantity of a fungible asset class.
type Fungible struct {
	Class  asset.ClassID  `json:"class"`
	Amount asset.Quantity `json:"amount"`
}

var _ ResourceSpecifier = Fungible{}

// AssetClass returns the requested asset class.
func (f Fungible) AssetClass() asset.ClassID { return f.Class }

// Kind is always asset.Fungible.
func (Fungible) Kind() asset.Kind { return asset.Fungible }

// Validate requires a valid class and a positive amount.
func (f Fungible) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Class", f.Class.Validate())
	errs = errors.AppendField(errs, "Amount", f.Amount.Validate())
	if !f.Amount.IsPositive() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be greater than zero"))
	}
	return errs
}

func (f Fungible) take(payment *asset.Bucket, p Overpayment) (*asset.Bucket, error) {
	if payment.Class() != f.Class || payment.Kind() != asset.Fungible {
		return nil, errors.Field("Class", ErrResourceMismatch, "want %s, got %s", f.Class, payment.Class())
	}
	switch got := payment.Quantity(); {
	case got.Compare(f.Amount) < 0:
		return nil, errors.Field("Amount", ErrResourceMismatch, "want %s, got %s", f.Amount, got)
	case got.Compare(f.Amount) > 0 && p != OverpaymentTake:
		return nil, errors.Field("Amount", ErrResourceMismatch, "want exactly %s, got %s", f.Amount, got)
	}
	return payment.Take(f.Amount)
}

// NonFungible requests a single item of a non fungible asset class.
type NonFungible struct {
	Class  asset.ClassID `json:"class"`
	ItemID asset.ItemID  `json:"item_id"`
}

var _ ResourceSpecifier = NonFungible{}

// AssetClass returns the requested asset class.
func (n NonFungible) AssetClass() asset.ClassID { return n.Class }

// Kind is always asset.NonFungible.
func (NonFungible) Kind() asset.Kind { return asset.NonFungible }

// Validate requires a valid class and item identifier.
func (n NonFungible) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Class", n.Class.Validate())
	errs = errors.AppendField(errs, "ItemID", n.ItemID.Validate())
	return errs
}

// take moves only the requested item, any other item stays in payment.
func (n NonFungible) take(payment *asset.Bucket, _ Overpayment) (*asset.Bucket, error) {
	if payment.Class() != n.Class || payment.Kind() != asset.NonFungible {
		return nil, errors.Field("Class", ErrResourceMismatch, "want %s, got %s", n.Class, payment.Class())
	}
	if !payment.Contains(n.ItemID) {
		return nil, errors.Field("ItemID", ErrResourceMismatch, "item %s not in payment", n.ItemID)
	}
	return payment.TakeItem(n.ItemID)
}
