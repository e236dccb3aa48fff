package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/asset"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/orm"
	amino "github.com/tendermint/go-amino"
)

var cdc = NewCodec()

// NewCodec returns a codec that can serialize escrow models.
func NewCodec() *amino.Codec {
	c := amino.NewCodec()
	RegisterAmino(c)
	return c
}

// RegisterAmino registers the ResourceSpecifier implementations so that
// they can be stored behind the interface.
func RegisterAmino(c *amino.Codec) {
	c.RegisterInterface((*ResourceSpecifier)(nil), nil)
	c.RegisterConcrete(Fungible{}, "custody/escrow/Fungible", nil)
	c.RegisterConcrete(NonFungible{}, "custody/escrow/NonFungible", nil)
}

// Escrow is the stored state of a single escrow instance.
type Escrow struct {
	Metadata *custody.Metadata `json:"metadata"`
	// Requested is set at creation and never changes.
	Requested ResourceSpecifier `json:"requested"`
	// OfferedVault holds the offered asset while the escrow is open.
	OfferedVault custody.Address `json:"offered_vault"`
	// ReceivedVault holds the payment until it is withdrawn.
	ReceivedVault custody.Address `json:"received_vault"`
	// BadgeClass is the class of the claim token.
	BadgeClass   asset.ClassID `json:"badge_class"`
	OfferedClass asset.ClassID `json:"offered_class"`
	State        State         `json:"state"`
}

// Validate ensures the escrow is valid
func (e *Escrow) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", e.Metadata.Validate())
	if e.Requested == nil {
		errs = errors.Append(errs, errors.Field("Requested", errors.ErrEmpty, "missing"))
	} else {
		errs = errors.AppendField(errs, "Requested", e.Requested.Validate())
	}
	errs = errors.AppendField(errs, "OfferedVault", e.OfferedVault.Validate())
	errs = errors.AppendField(errs, "ReceivedVault", e.ReceivedVault.Validate())
	errs = errors.AppendField(errs, "BadgeClass", e.BadgeClass.Validate())
	errs = errors.AppendField(errs, "OfferedClass", e.OfferedClass.Validate())
	errs = errors.AppendField(errs, "State", e.State.Validate())
	return errs
}

// OfferCondition is the condition owning the offered asset of escrow id.
func OfferCondition(id []byte) custody.Condition {
	return custody.NewCondition("escrow", "offer", id)
}

// ReceiveCondition is the condition owning the payment of escrow id.
func ReceiveCondition(id []byte) custody.Condition {
	return custody.NewCondition("escrow", "recv", id)
}

func newEscrowBucket() orm.ModelBucket {
	return orm.NewModelBucket("escrow", cdc)
}

var escrowSeq = orm.NewSequence("escrow", "id")
