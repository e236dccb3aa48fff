/*
Package custody defines the interfaces shared by all custody packages: the
key value store an escrow instance lives in, the savepoints that make every
operation atomic, addresses of the containers that hold assets and the
context helpers used for logging.

Look into this package to get a brief overview of the building blocks. The
engine itself lives in x/escrow, the asset primitives it works on in asset
and the claim token mint in x/badge.
*/
package custody
