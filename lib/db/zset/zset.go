package zset

import (
	"github.com/ValentinKolb/zKV/lib/db/avl"
	"github.com/ValentinKolb/zKV/lib/db/hmap"
	"github.com/ValentinKolb/zKV/lib/db/util"
)

// Member is a single (name, score) pair of a sorted set. The same record is
// referenced by the name index and by the score tree.
type Member struct {
	name  string
	score float64
	node  avl.Handle
}

// Name returns the member name
func (m *Member) Name() string { return m.name }

// Score returns the member score
func (m *Member) Score() float64 { return m.score }

// ZSet is a sorted set: members are unique by name and ordered by
// (score, name). Lookups by name go through a hash index, ordered and rank
// based access goes through an order statistic tree.
type ZSet struct {
	tree  *avl.Tree[*Member]
	index *hmap.Map[*Member]
}

// New creates an empty sorted set
func New() *ZSet {
	return &ZSet{
		tree:  avl.New(less),
		index: hmap.New[*Member](),
	}
}

// less orders by score first and by name for equal scores
func less(a, b *Member) bool {
	if a.score != b.score {
		return a.score < b.score
	}
	return a.name < b.name
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// Insert adds name with the given score. If name is already a member only
// its score is updated. Returns true if a new member was created.
func (z *ZSet) Insert(name string, score float64) bool {
	if m, ok := z.Lookup(name); ok {
		if m.score != score {
			m.score = score
			z.tree.Reinsert(m.node)
		}
		return false
	}

	m := &Member{name: name, score: score}
	m.node = z.tree.Insert(m)
	z.index.Insert(util.HashString(name), m)
	return true
}

// Lookup returns the member called name
func (z *ZSet) Lookup(name string) (*Member, bool) {
	if z.tree.Len() == 0 {
		return nil, false
	}
	return z.index.Lookup(util.HashString(name), func(m *Member) bool {
		return m.name == name
	})
}

// Delete removes m from the set. m must be a member of z.
func (z *ZSet) Delete(m *Member) {
	z.index.Delete(util.HashString(m.name), func(other *Member) bool {
		return other == m
	})
	z.tree.Delete(m.node)
	m.node = avl.Nil
}

// SeekGE returns the first member ordered at or after (score, name)
func (z *ZSet) SeekGE(score float64, name string) (*Member, bool) {
	h, ok := z.tree.Seek(func(m *Member) bool {
		if m.score != score {
			return m.score < score
		}
		return m.name < name
	})
	if !ok {
		return nil, false
	}
	return z.tree.Value(h), true
}

// Offset returns the member k positions after m (before m for k < 0)
func (z *ZSet) Offset(m *Member, k int64) (*Member, bool) {
	h, ok := z.tree.Offset(m.node, k)
	if !ok {
		return nil, false
	}
	return z.tree.Value(h), true
}

// Rank returns the zero based position of m in (score, name) order
func (z *ZSet) Rank(m *Member) int64 {
	return z.tree.Rank(m.node)
}

// Len returns the number of members
func (z *ZSet) Len() int {
	return z.tree.Len()
}

// Clear removes all members
func (z *ZSet) Clear() {
	z.index.Clear()
	z.tree.Clear(func(m *Member) {
		m.node = avl.Nil
	})
}
