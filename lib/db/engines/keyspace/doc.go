// Package keyspace implements the db.KVDB interface for the zKV server.
//
// Every key is one entry in a hmap.Map, addressed by the xxhash of the key.
// An entry holds either a string or an owned *zset.ZSet, selected by its
// type tag. Operations that expect the other type fail with db.ErrWrongType
// before anything is modified.
//
// Because the hash index rehashes incrementally, growing the keyspace never
// stalls a single operation for longer than one migration quantum. The
// keyspace is meant to be driven by exactly one goroutine (the server's
// event loop) and does not lock.
//
// GetInfo samples up to 1000 entries to estimate the memory footprint and
// reports the chain length distribution of the hash index as metadata.
package keyspace
