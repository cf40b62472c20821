// Package testing provides standardised tests and benchmarks for
// keyspace implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - testing: A test suite for the KVDB contract (string values, sorted sets,
//     type mismatches, key enumeration, growth through several rehash cycles)
//   - benchmark: Single threaded throughput tests for the common operations
//
// Example usage:
//
//	// Creating a factory function for your implementation
//	factory := func() db.KVDB {
//		return NewMyDatabase()
//	}
//
//	// Running the standard test suite
//	dbtesting.RunKVDBTests(t, "MyDatabase", factory)
//
//	// Running performance benchmarks
//	dbtesting.RunKVDBBenchmarks(b, "MyDatabase", factory)
package testing
