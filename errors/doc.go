/*
Package errors implements the error kinds used across custody.

Reuse as many errors from this package as possible and define custom package
errors only when the kind is specific to an extension. Use
Register(code, description) for that, once, during program start up (see
x/escrow/errors.go).

Every error returned at runtime should wrap one of the registered root errors,
either with ErrXyz.New("...") or with errors.Wrap(err, "..."). Test the kind
with ErrXyz.Is(err).

Field errors (Field, FieldErrors) attach the name of the attribute that failed,
which lets a caller tell apart two failures of the same kind. Append groups
several failures, for example all validation problems of a model.

Stack traces are attached on the innermost wrap. Print them with %+v.
*/
package errors
