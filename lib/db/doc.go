// Package db provides the interface of the in-memory keyspace that backs
// the zKV server.
//
// The keyspace maps string keys to one of two value types:
//   - TypeString: a plain string
//   - TypeZSet: a sorted set of (name, score) members (see package zset)
//
// Key Components:
//
//   - KVDB Interface: The contract every keyspace implementation satisfies.
//     It covers string access (Set, Get), key management (Delete, Keys, Len),
//     sorted set access (ZSet) and reporting (GetInfo).
//
//   - Type Safety: An operation on a key that holds the other value type fails
//     with ErrWrongType and never modifies or replaces the stored value.
//
//   - Database Information: DatabaseInfo reports key counts and the state of
//     the underlying hash index (bucket count, whether an incremental rehash
//     is running) together with implementation specific metadata.
//
// Note on Concurrency:
//   - Implementations are owned by the server's single event loop goroutine.
//     None of the methods lock, callers must not share a KVDB between goroutines.
//
// Related Packages:
//
// The engines/keyspace package (github.com/ValentinKolb/zKV/lib/db/engines/keyspace)
// implements KVDB on top of the incrementally rehashing hash index in lib/db/hmap.
//
// The building blocks live in their own packages:
//   - hmap: chained hash index with incremental rehashing
//   - avl: AVL tree with subtree counts for rank and offset queries
//   - zset: the sorted set, combining hmap and avl
//   - util: hashing and size statistics
//
// The testing package (github.com/ValentinKolb/zKV/lib/db/testing) provides
// standardized tests and benchmarks for database implementations that satisfy the db.KVDB interface.
//   - RunKVDBTests: Runs a standardized test suite to validate implementations
//   - RunKVDBBenchmarks: Provides performance benchmarks for comparing implementations
package db
