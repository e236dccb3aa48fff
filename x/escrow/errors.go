package escrow

import "github.com/iov-one/custody/errors"

// escrow takes 1010-1020
var (
	ErrInvalidOffer     = errors.Register(1010, "invalid offer")
	ErrResourceMismatch = errors.Register(1011, "resource mismatch")
	ErrNotFulfilled     = errors.Register(1012, "escrow not fulfilled")
	ErrAlreadyFulfilled = errors.Register(1013, "escrow already fulfilled")
	ErrAlreadyWithdrawn = errors.Register(1014, "escrow already withdrawn")
	ErrCancelled        = errors.Register(1015, "escrow cancelled")
	ErrInvalidSpecifier = errors.Register(1016, "invalid resource specifier")

	// ErrUnauthorized is returned when the presented claim token was not
	// minted for the escrow.
	ErrUnauthorized = errors.ErrUnauthorized
)

// IsAmountMismatch returns true if the payment was rejected because of its
// quantity, either too little or too much.
func IsAmountMismatch(err error) bool {
	for _, e := range errors.FieldErrors(err, "Amount") {
		if ErrResourceMismatch.Is(e) {
			return true
		}
	}
	return false
}
