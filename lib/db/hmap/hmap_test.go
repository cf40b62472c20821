package hmap

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ValentinKolb/zKV/lib/db/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kv struct {
	key string
	val int
}

func keyEq(key string) func(*kv) bool {
	return func(e *kv) bool { return e.key == key }
}

func insert(m *Map[*kv], key string, val int) {
	m.Insert(util.HashString(key), &kv{key: key, val: val})
}

func lookup(m *Map[*kv], key string) (*kv, bool) {
	return m.Lookup(util.HashString(key), keyEq(key))
}

func TestMapBasic(t *testing.T) {
	m := New[*kv]()

	_, ok := lookup(m, "missing")
	assert.False(t, ok, "lookup on empty map")

	insert(m, "a", 1)
	insert(m, "b", 2)
	assert.Equal(t, 2, m.Len())

	e, ok := lookup(m, "a")
	require.True(t, ok)
	assert.Equal(t, 1, e.val)

	e, ok = m.Delete(util.HashString("a"), keyEq("a"))
	require.True(t, ok)
	assert.Equal(t, "a", e.key)
	assert.Equal(t, 1, m.Len())

	_, ok = m.Delete(util.HashString("a"), keyEq("a"))
	assert.False(t, ok, "second delete must miss")

	_, ok = lookup(m, "b")
	assert.True(t, ok)
}

func TestMapCollisions(t *testing.T) {
	m := New[*kv]()

	// every key shares one hash code, the equality predicate has to tell them apart
	for i := 0; i < 100; i++ {
		m.Insert(42, &kv{key: fmt.Sprintf("k%d", i), val: i})
	}
	for i := 0; i < 100; i++ {
		e, ok := m.Lookup(42, keyEq(fmt.Sprintf("k%d", i)))
		require.True(t, ok)
		assert.Equal(t, i, e.val)
	}
	for i := 0; i < 100; i += 2 {
		_, ok := m.Delete(42, keyEq(fmt.Sprintf("k%d", i)))
		require.True(t, ok)
	}
	assert.Equal(t, 50, m.Len())
	_, ok := m.Lookup(42, keyEq("k2"))
	assert.False(t, ok)
	_, ok = m.Lookup(42, keyEq("k3"))
	assert.True(t, ok)
}

func TestMapKeysSurviveMigration(t *testing.T) {
	m := New[*kv]()

	// fill until a rehash starts that needs more than one quantum to finish
	n := 0
	for !m.Rehashing() || m.older.size < 2*rehashQuantum {
		insert(m, fmt.Sprintf("key-%d", n), n)
		n++
	}
	require.Equal(t, 256, n)

	// every key must be reachable while entries are split across generations
	for m.Rehashing() {
		for i := 0; i < n; i++ {
			e, ok := lookup(m, fmt.Sprintf("key-%d", i))
			require.True(t, ok, "key-%d lost during migration", i)
			require.Equal(t, i, e.val)
		}
	}
	assert.Equal(t, n, m.Len())
	assert.Equal(t, 64, m.Buckets())
}

func TestMapMigrationIsBounded(t *testing.T) {
	m := New[*kv]()

	n := 0
	for !m.Rehashing() || m.older.size < 2*rehashQuantum {
		insert(m, fmt.Sprintf("key-%d", n), n)
		n++
	}

	ops := []struct {
		name string
		run  func(i int)
	}{
		{"insert", func(i int) { insert(m, fmt.Sprintf("extra-%d", i), i) }},
		{"lookup", func(i int) { lookup(m, "key-0") }},
		{"delete", func(i int) { m.Delete(util.HashString("missing"), keyEq("missing")) }},
	}

	// each operation moves exactly one quantum while enough entries are left
	for i := 0; m.Rehashing(); i++ {
		op := ops[i%len(ops)]
		before := m.older.size
		op.run(i)
		moved := before - m.older.size
		assert.LessOrEqual(t, moved, rehashQuantum, "%s moved too many entries", op.name)
		assert.Equal(t, min(before, rehashQuantum), moved, "%s", op.name)
	}
}

func TestMapGrowth(t *testing.T) {
	m := New[*kv]()
	const n = 100_000

	for i := 0; i < n; i++ {
		insert(m, fmt.Sprintf("key-%d", i), i)
	}
	assert.Equal(t, n, m.Len())

	// enough lookups to finish any outstanding migration
	for i := 0; i < n; i++ {
		_, ok := lookup(m, fmt.Sprintf("key-%d", i))
		require.True(t, ok)
	}
	assert.False(t, m.Rehashing())
	assert.LessOrEqual(t, m.Len(), m.Buckets()*maxLoadFactor)

	var total float64
	for _, l := range m.ChainLengths() {
		total += l
	}
	assert.Equal(t, float64(n), total)
}

func TestMapForEach(t *testing.T) {
	m := New[*kv]()
	for i := 0; i < 1000; i++ {
		insert(m, fmt.Sprintf("key-%d", i), i)
	}

	seen := make(map[string]bool)
	done := m.ForEach(func(e *kv) bool {
		seen[e.key] = true
		return true
	})
	assert.True(t, done)
	assert.Len(t, seen, 1000)

	visits := 0
	done = m.ForEach(func(*kv) bool {
		visits++
		return visits < 10
	})
	assert.False(t, done, "walk should report the abort")
	assert.Equal(t, 10, visits)
}

func TestMapSlotReuse(t *testing.T) {
	m := New[*kv]()
	for i := 0; i < 16; i++ {
		insert(m, fmt.Sprintf("key-%d", i), i)
	}
	arena := len(m.nodes)
	for i := 0; i < 16; i++ {
		m.Delete(util.HashString(fmt.Sprintf("key-%d", i)), keyEq(fmt.Sprintf("key-%d", i)))
	}
	for i := 0; i < 16; i++ {
		insert(m, fmt.Sprintf("other-%d", i), i)
	}
	assert.Equal(t, arena, len(m.nodes), "freed nodes should be recycled")

	m.Clear()
	assert.Equal(t, 0, m.Len())
	_, ok := lookup(m, "other-1")
	assert.False(t, ok)
}

// TestMapMatchesReference runs a random operation mix against a builtin map.
func TestMapMatchesReference(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	m := New[*kv]()
	ref := make(map[string]int)

	for i := 0; i < 200_000; i++ {
		key := fmt.Sprintf("k%d", rnd.Intn(5000))
		switch rnd.Intn(3) {
		case 0:
			if e, ok := lookup(m, key); ok {
				e.val = i
			} else {
				insert(m, key, i)
			}
			ref[key] = i
		case 1:
			_, got := m.Delete(util.HashString(key), keyEq(key))
			_, want := ref[key]
			require.Equal(t, want, got, "delete %s", key)
			delete(ref, key)
		case 2:
			e, got := lookup(m, key)
			v, want := ref[key]
			require.Equal(t, want, got, "lookup %s", key)
			if got {
				require.Equal(t, v, e.val)
			}
		}
	}

	require.Equal(t, len(ref), m.Len())
	m.ForEach(func(e *kv) bool {
		assert.Equal(t, ref[e.key], e.val)
		return true
	})
}
