// Package util provides utility components for
// database implementations that satisfy the db.KVDB interface.
//
// The package contains:
//   - statistics: Summary statistics and a SizeHistogram for tracking data size distribution
//   - functions: The xxhash based hash function shared by all in-memory indexes
//
// This package is particularly useful for:
//   - Database developers implementing the KVDB interface
//   - Reporting on hash index quality (bucket chain length distribution)
package util
