package testing

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"

	"github.com/ValentinKolb/zKV/lib/db"
)

// RunKVDBBenchmarks runs all benchmarks for a key-value database implementations.
// The keyspace is single threaded, so unlike a concurrent store every benchmark
// drives the database from one goroutine.
func RunKVDBBenchmarks(b *testing.B, name string, factory DBFactory) {

	b.Run("Set", func(b *testing.B) {
		benchmarkSet(b, factory())
	})

	b.Run("SetExisting", func(b *testing.B) {
		benchmarkSetExisting(b, factory())
	})

	b.Run("SetLargeValue", func(b *testing.B) {
		benchmarkSetLargeValue(b, factory())
	})

	b.Run("Get", func(b *testing.B) {
		benchmarkGet(b, factory())
	})

	b.Run("Delete", func(b *testing.B) {
		benchmarkDelete(b, factory())
	})

	b.Run("ZAdd", func(b *testing.B) {
		benchmarkZAdd(b, factory())
	})

	b.Run("ZQuery", func(b *testing.B) {
		benchmarkZQuery(b, factory())
	})

	b.Run("MixedUsage", func(b *testing.B) {
		benchmarkMixedUsage(b, factory())
	})
}

// --------------------------------------------------------------------------
// Benchmark functions
// --------------------------------------------------------------------------

// Benchmark for Set operation on new keys (includes index growth)
func benchmarkSet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	keys := makeKeys(b.N)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = database.Set(keys[i], "test-value")
	}
}

// Benchmark for Set operation with existing keys
func benchmarkSetExisting(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	const numKeys = 10_000
	keys := makeKeys(numKeys)
	for _, k := range keys {
		_ = database.Set(k, "test-value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = database.Set(keys[i%numKeys], "updated-value")
	}
}

// Benchmark for Set operation with large values
func benchmarkSetLargeValue(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	const numKeys = 100
	keys := makeKeys(numKeys)
	largeValue := strings.Repeat("x", 64*1024)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = database.Set(keys[i%numKeys], largeValue)
	}
}

// Benchmark for Get operation
func benchmarkGet(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	const numKeys = 100_000
	keys := makeKeys(numKeys)
	for _, k := range keys {
		_ = database.Set(k, "test-value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _ = database.Get(keys[i%numKeys])
	}
}

// Benchmark for Delete operation
func benchmarkDelete(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	keys := makeKeys(b.N)
	for _, k := range keys {
		_ = database.Set(k, "test-value")
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		database.Delete(keys[i])
	}
}

// Benchmark for adding members with random scores to one sorted set
func benchmarkZAdd(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	set, err := database.ZSet("bench-zset", true)
	if err != nil {
		b.Fatal(err)
	}
	names := makeKeys(b.N)
	rnd := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		set.Insert(names[i], rnd.Float64())
	}
}

// Benchmark for a range query of 10 members starting at a random score
func benchmarkZQuery(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	set, err := database.ZSet("bench-zset", true)
	if err != nil {
		b.Fatal(err)
	}
	const numMembers = 100_000
	for i, name := range makeKeys(numMembers) {
		set.Insert(name, float64(i))
	}
	rnd := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		m, ok := set.SeekGE(float64(rnd.Intn(numMembers)), "")
		for n := 0; ok && n < 10; n++ {
			m, ok = set.Offset(m, 1)
		}
	}
}

// Benchmark for a mix of operations (70% get, 20% set, 10% delete)
func benchmarkMixedUsage(b *testing.B, database db.KVDB) {
	b.Cleanup(func() {
		database.Close()
	})

	const numKeys = 10_000
	keys := makeKeys(numKeys)
	for _, k := range keys {
		_ = database.Set(k, "test-value")
	}
	rnd := rand.New(rand.NewSource(1))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		key := keys[rnd.Intn(numKeys)]
		switch op := rnd.Intn(10); {
		case op < 7:
			_, _, _ = database.Get(key)
		case op < 9:
			_ = database.Set(key, "test-value")
		default:
			database.Delete(key)
		}
	}
}

// --------------------------------------------------------------------------
// Helper functions
// --------------------------------------------------------------------------

// makeKeys creates n distinct keys outside the timed section
func makeKeys(n int) []string {
	keys := make([]string, n)
	for i := range keys {
		keys[i] = fmt.Sprintf("test-key-%d", i)
	}
	return keys
}
