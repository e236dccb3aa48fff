package escrow

import (
	"fmt"

	"github.com/iov-one/custody/errors"
)

// State of an escrow.
type State int32

const (
	// Open escrow holds the offered asset and waits for a payment.
	Open State = 1
	// Fulfilled escrow holds the payment until it is withdrawn.
	Fulfilled State = 2
	// Cancelled escrow returned the offered asset. Terminal.
	Cancelled State = 3
	// Closed escrow released the payment. Terminal.
	Closed State = 4
)

var stateNames = map[State]string{
	Open:      "open",
	Fulfilled: "fulfilled",
	Cancelled: "cancelled",
	Closed:    "closed",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return fmt.Sprintf("State(%d)", s)
}

// Validate returns an error if the state is not known.
func (s State) Validate() error {
	if _, ok := stateNames[s]; !ok {
		return errors.Wrapf(errors.ErrState, "unknown state %d", s)
	}
	return nil
}

var transitions = map[State][]State{
	Open:      {Fulfilled, Cancelled},
	Fulfilled: {Closed},
}

// canBecome returns true if an escrow in state s can move to next.
func (s State) canBecome(next State) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}
