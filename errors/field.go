package errors

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// Field attaches the name of the attribute that failed to err. It returns
// nil if err is nil.
//
// Use Go naming for the field name, for example Class or Amount. Field
// errors nest: a field error of Amount wrapped in a field error of
// Requested is found by FieldErrors under "Requested.Amount".
func Field(fieldName string, err error, description string, args ...interface{}) error {
	if isNilErr(err) {
		return nil
	}
	if stackTrace(err) == nil {
		err = errors.WithStack(err)
	}
	if len(args) > 0 {
		description = fmt.Sprintf(description, args...)
	}
	return &fieldError{parent: err, field: fieldName, desc: description}
}

// AppendField adds the field error of fieldErrOrNil to errorsOrNil.
func AppendField(errorsOrNil error, fieldName string, fieldErrOrNil error) error {
	return Append(errorsOrNil, Field(fieldName, fieldErrOrNil, ""))
}

type fieldError struct {
	parent error
	field  string
	desc   string
}

func (err *fieldError) Error() string {
	if err.desc == "" {
		return fmt.Sprintf("field %q: %s", err.field, err.parent)
	}
	return fmt.Sprintf("field %q: %s: %s", err.field, err.desc, err.parent)
}

func (err *fieldError) Cause() error {
	return err.parent
}

func (err *fieldError) Field() string {
	return err.field
}

// FieldErrors returns all errors reported for the field at path. Path is a
// field name, or field names of nested field errors joined with a dot.
func FieldErrors(err error, path string) []error {
	return collectFields(err, "", path)
}

// collectFields walks err looking for the field error at path. prefix is the
// path of the field errors already passed on the way down.
func collectFields(err error, prefix, path string) []error {
	for !isNilErr(err) {
		if f, ok := err.(fielder); ok {
			name := prefix + f.Field()
			if name == path {
				return []error{err}
			}
			if !strings.HasPrefix(path, name+".") {
				return nil
			}
			prefix = name + "."
		}
		if u, ok := err.(unpacker); ok {
			var res []error
			for _, e := range u.Unpack() {
				res = append(res, collectFields(e, prefix, path)...)
			}
			return res
		}
		c, ok := err.(causer)
		if !ok {
			return nil
		}
		err = c.Cause()
	}
	return nil
}

type fielder interface {
	Field() string
}
