package db

import (
	"errors"

	"github.com/ValentinKolb/zKV/lib/db/zset"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

type Implementation string

const (
	ImplKeySpace Implementation = "keyspace"
)

// ValueType tags the value stored under a key
type ValueType uint8

const (
	TypeString ValueType = iota // plain string value
	TypeZSet                    // sorted set
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeZSet:
		return "zset"
	default:
		return "unknown"
	}
}

// ErrWrongType is returned when a key holds a value of another type than the
// operation expects. The stored value is left untouched.
var ErrWrongType = errors.New("key holds a value of another type")

type DatabaseInfo struct {
	Keys      int            `json:"keys"`
	ZSets     int            `json:"zsets"`
	SizeBytes int            `json:"size_bytes"`
	DbType    Implementation `json:"db_type"`
	Rehashing bool           `json:"rehashing"`
	Buckets   int            `json:"buckets"`
	Metadata  interface{}    `json:"metadata"`
}

// --------------------------------------------------------------------------
// Database Interface
// --------------------------------------------------------------------------

// KVDB defines the interface of the keyspace: a mapping from string keys to
// either a string or a sorted set.
// Implementations are driven by a single goroutine and need no locking.
type KVDB interface {

	// --------------------------------------------------------------------------
	// String Operations
	// --------------------------------------------------------------------------

	// Set stores value under key, replacing an existing string value.
	// Returns ErrWrongType if key holds a sorted set.
	Set(key string, value string) (err error)

	// Get returns the string stored under key. loaded is false if the key
	// does not exist. Returns ErrWrongType if key holds a sorted set.
	Get(key string) (value string, loaded bool, err error)

	// --------------------------------------------------------------------------
	// Key Operations
	// --------------------------------------------------------------------------

	// Delete removes key regardless of its type and reports whether it existed.
	Delete(key string) (deleted bool)

	// Keys calls visit for every key until visit returns false.
	Keys(visit func(key string) bool)

	// Len returns the number of keys.
	Len() int

	// --------------------------------------------------------------------------
	// Sorted Set Operations
	// --------------------------------------------------------------------------

	// ZSet returns the sorted set stored under key. If the key does not exist
	// and create is true, an empty set is stored and returned; with create
	// false the result is nil. Returns ErrWrongType if key holds a string.
	ZSet(key string, create bool) (set *zset.ZSet, err error)

	// --------------------------------------------------------------------------
	// Maintenance
	// --------------------------------------------------------------------------

	// GetInfo returns information about the database.
	GetInfo() (info DatabaseInfo)

	// Close releases all stored values.
	Close() (err error)
}
