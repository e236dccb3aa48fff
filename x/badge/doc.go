/*
Package badge mints claim tokens.

A claim token is a bearer capability: whoever presents it is authorized. Each
token belongs to its own non fungible class and the class never has a second
token. The issuer stores only a digest of the token identifier, so the
content of the store is not enough to forge a token.
*/
package badge
