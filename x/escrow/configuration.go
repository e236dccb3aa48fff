package escrow

import (
	"github.com/iov-one/custody"
	"github.com/iov-one/custody/errors"
	"github.com/iov-one/custody/gconf"
)

const confPkg = "escrow"

// Overpayment tells what an exchange does with a fungible payment that is
// bigger than requested.
type Overpayment string

const (
	// OverpaymentExact rejects any payment that is not exactly the
	// requested amount.
	OverpaymentExact Overpayment = "exact"
	// OverpaymentTake takes the requested amount and leaves the change in
	// the payment bucket.
	OverpaymentTake Overpayment = "take"
)

// Validate returns an error for an unknown policy.
func (o Overpayment) Validate() error {
	switch o {
	case OverpaymentExact, OverpaymentTake:
		return nil
	default:
		return errors.Wrapf(errors.ErrInput, "unknown overpayment policy %q", string(o))
	}
}

// Configuration of the escrow extension.
type Configuration struct {
	Metadata    *custody.Metadata `json:"metadata"`
	Overpayment Overpayment       `json:"overpayment"`
}

// DefaultConfiguration is used when none was stored.
func DefaultConfiguration() Configuration {
	return Configuration{
		Metadata:    &custody.Metadata{Schema: 1},
		Overpayment: OverpaymentExact,
	}
}

// Validate ensures the configuration is complete.
func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "Overpayment", c.Overpayment.Validate())
	return errs
}

// SaveConfiguration validates and stores the configuration.
func SaveConfiguration(db gconf.Store, c Configuration) error {
	return gconf.Save(db, confPkg, &c)
}

// LoadConfiguration returns the stored configuration or the default one if
// none was stored.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var c Configuration
	switch err := gconf.Load(db, confPkg, &c); {
	case errors.ErrNotFound.Is(err):
		return DefaultConfiguration(), nil
	case err != nil:
		return Configuration{}, errors.Wrap(err, "escrow configuration")
	}
	return c, nil
}

// Initializer fulfils the Initializer interface to load the configuration
// from the genesis file.
type Initializer struct{}

var _ custody.Initializer = Initializer{}

// FromGenesis reads opts["conf"]["escrow"]. The default configuration is
// stored if the genesis does not configure the extension.
func (Initializer) FromGenesis(opts custody.Options, db custody.KVStore) error {
	var c Configuration
	switch err := gconf.InitConfig(db, opts, confPkg, &c); {
	case errors.ErrNotFound.Is(err):
		return SaveConfiguration(db, DefaultConfiguration())
	case err != nil:
		return err
	}
	return nil
}
