/*
Package escrow implements a two party conditional exchange.

A depositor places an offered asset in custody and describes what it wants in
return. Any counterparty that presents a matching payment receives the
offered asset, the payment stays in custody until the depositor withdraws it.
Until then the depositor can cancel and take the offered asset back.

The depositor is identified only by the claim token minted when the escrow is
created. Whoever presents the token may cancel or withdraw, there is no other
identity check.

	Open ──exchange──> Fulfilled ──withdraw──> Closed
	  │
	  └────cancel────> Cancelled

Every operation is a single atomic transition: it either moves the assets,
consumes the token and advances the state, or it fails and leaves the store
and the caller buckets untouched.
*/
package escrow
