/*
Package orm stores models in a KVStore.

A ModelBucket keeps all instances of one model type under a common key
prefix. Models are serialized with go-amino, so any Go struct with exported
fields can be stored as long as the interface values it holds were registered
with the codec the bucket was created with.

A Sequence generates monotonically increasing keys, big endian encoded so
that byte order follows creation order.
*/
package orm
