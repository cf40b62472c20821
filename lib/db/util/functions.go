package util

import (
	"github.com/cespare/xxhash/v2"
)

// --------------------------------------------------------------------------
// Hash Functions
// --------------------------------------------------------------------------

// HashString returns the 64-bit hash code used by all in-memory indexes
// (keyspace keys and sorted set member names). The value only has to be
// stable for the lifetime of the process.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}
