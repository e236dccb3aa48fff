/*
Package asset is a minimal asset ledger: asset classes, fixed point
quantities, unique item identifiers and the containers that hold them.

A Bucket is a transient container owned by the caller. A Vault is a
container persisted in a KVStore under the address of its owner. The
Ledger defines classes and mints assets, it does not keep balances.
*/
package asset
