package zset

import (
	"fmt"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	name  string
	score float64
}

// scan returns all members from the first one onwards
func scan(z *ZSet) []pair {
	var out []pair
	m, ok := z.SeekGE(-1e300, "")
	for ok {
		out = append(out, pair{m.Name(), m.Score()})
		m, ok = z.Offset(m, 1)
	}
	return out
}

func TestZSetInsertAndLookup(t *testing.T) {
	z := New()

	assert.True(t, z.Insert("a", 1))
	assert.True(t, z.Insert("b", 2))
	assert.False(t, z.Insert("a", 1), "same score is a no-op")
	assert.Equal(t, 2, z.Len())

	m, ok := z.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, 1.0, m.Score())

	_, ok = z.Lookup("c")
	assert.False(t, ok)

	_, ok = New().Lookup("a")
	assert.False(t, ok, "lookup on empty set")
}

func TestZSetScoreUpdate(t *testing.T) {
	z := New()
	z.Insert("a", 1)
	z.Insert("b", 2)
	z.Insert("c", 3)

	before, _ := z.Lookup("a")
	assert.False(t, z.Insert("a", 10), "update must not create a member")

	after, ok := z.Lookup("a")
	require.True(t, ok)
	assert.Same(t, before, after, "name lookup keeps its identity")
	assert.Equal(t, []pair{{"b", 2}, {"c", 3}, {"a", 10}}, scan(z))
	assert.Equal(t, int64(2), z.Rank(after))
}

func TestZSetOrdering(t *testing.T) {
	z := New()
	z.Insert("bb", 1)
	z.Insert("b", 1)
	z.Insert("a", 1)
	z.Insert("z", 0)
	z.Insert("ba", 1)
	z.Insert("neg", -5)

	// equal scores fall back to byte order, prefixes first
	assert.Equal(t, []pair{
		{"neg", -5}, {"z", 0}, {"a", 1}, {"b", 1}, {"ba", 1}, {"bb", 1},
	}, scan(z))
}

func TestZSetSeekGE(t *testing.T) {
	z := New()
	z.Insert("a", 1)
	z.Insert("b", 2)
	z.Insert("c", 2)
	z.Insert("d", 3)

	tests := []struct {
		score float64
		name  string
		want  string
		found bool
	}{
		{0, "", "a", true},
		{1, "a", "a", true},
		{1, "b", "b", true},
		{2, "", "b", true},
		{2, "bb", "c", true},
		{2, "c", "c", true},
		{2, "d", "d", true},
		{3, "d", "d", true},
		{3, "e", "", false},
		{4, "", "", false},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v/%s", tt.score, tt.name), func(t *testing.T) {
			m, ok := z.SeekGE(tt.score, tt.name)
			require.Equal(t, tt.found, ok)
			if ok {
				assert.Equal(t, tt.want, m.Name())
			}
		})
	}
}

func TestZSetDelete(t *testing.T) {
	z := New()
	for i := 0; i < 100; i++ {
		z.Insert(fmt.Sprintf("m%03d", i), float64(i))
	}

	for i := 0; i < 100; i += 3 {
		m, ok := z.Lookup(fmt.Sprintf("m%03d", i))
		require.True(t, ok)
		z.Delete(m)

		_, ok = z.Lookup(fmt.Sprintf("m%03d", i))
		require.False(t, ok, "deleted member still in the name index")
		m2, ok := z.SeekGE(float64(i), fmt.Sprintf("m%03d", i))
		if ok {
			require.NotEqual(t, fmt.Sprintf("m%03d", i), m2.Name(), "deleted member still in the tree")
		}
	}
	assert.Equal(t, 66, z.Len())
	assert.Len(t, scan(z), 66)
	require.NoError(t, z.tree.Verify())
}

func TestZSetOffset(t *testing.T) {
	z := New()
	for i := 0; i < 50; i++ {
		z.Insert(fmt.Sprintf("m%02d", i), float64(i))
	}

	first, ok := z.SeekGE(0, "")
	require.True(t, ok)

	m, ok := z.Offset(first, 10)
	require.True(t, ok)
	assert.Equal(t, "m10", m.Name())

	m, ok = z.Offset(m, -10)
	require.True(t, ok)
	assert.Same(t, first, m)

	_, ok = z.Offset(first, 50)
	assert.False(t, ok)
	_, ok = z.Offset(first, -1)
	assert.False(t, ok)
}

func TestZSetMatchesReference(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	z := New()
	ref := make(map[string]float64)

	for i := 0; i < 20_000; i++ {
		name := fmt.Sprintf("n%d", rnd.Intn(500))
		if rnd.Intn(4) == 0 {
			if m, ok := z.Lookup(name); ok {
				z.Delete(m)
			}
			delete(ref, name)
			continue
		}
		score := float64(rnd.Intn(100))
		_, existed := ref[name]
		require.Equal(t, !existed, z.Insert(name, score))
		ref[name] = score
	}

	want := make([]pair, 0, len(ref))
	for name, score := range ref {
		want = append(want, pair{name, score})
	}
	sort.Slice(want, func(i, j int) bool {
		if want[i].score != want[j].score {
			return want[i].score < want[j].score
		}
		return want[i].name < want[j].name
	})
	assert.Equal(t, want, scan(z))
	require.NoError(t, z.tree.Verify())
}

func TestZSetClear(t *testing.T) {
	z := New()
	for i := 0; i < 10; i++ {
		z.Insert(fmt.Sprintf("m%d", i), float64(i))
	}
	z.Clear()
	assert.Equal(t, 0, z.Len())
	_, ok := z.Lookup("m1")
	assert.False(t, ok)
	_, ok = z.SeekGE(0, "")
	assert.False(t, ok)

	assert.True(t, z.Insert("m1", 1))
}
