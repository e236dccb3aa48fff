package custody

import "github.com/iov-one/custody/errors"

// Metadata is embedded in every stored model. Schema is the version of the
// model layout and must be set.
type Metadata struct {
	Schema uint32 `json:"schema"`
}

// Validate returns an error if the schema version is missing.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrModel, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrModel, "schema version must be at least 1")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when
// implementing orm.Model Copy to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}
