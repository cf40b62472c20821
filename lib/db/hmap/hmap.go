package hmap

const (
	// initialBuckets is the bucket count of a freshly allocated table
	initialBuckets = 4
	// maxLoadFactor is the average chain length that triggers a rehash
	maxLoadFactor = 8
	// rehashQuantum is the max number of entries moved per operation
	rehashQuantum = 128
)

// handle is the index of a node in the arena
type handle int32

const nilHandle handle = -1

// node is a single chained entry. The hash code is cached so the entry can
// be moved between generations without consulting the payload.
type node[T any] struct {
	hcode uint64
	next  handle
	val   T
}

// table is one generation of the index: a power of two array of chain heads
type table struct {
	heads []handle
	mask  uint64
	size  int
}

func (t *table) init(n int) {
	t.heads = make([]handle, n)
	for i := range t.heads {
		t.heads[i] = nilHandle
	}
	t.mask = uint64(n - 1)
	t.size = 0
}

// Map is a chained hash index that grows by incremental rehashing.
//
// Entries live in an arena and are linked by handle. While a resize is in
// progress the index consists of two tables, newer and older. Every call to
// Lookup, Insert or Delete moves up to rehashQuantum entries from older to
// newer, so no single operation pays for the whole resize.
//
// Callers supply the hash code and an equality predicate, the map itself
// never hashes or compares payloads. A Map is not safe for concurrent use.
type Map[T any] struct {
	nodes      []node[T]
	freeList   handle
	newer      table
	older      table
	migratePos int
}

// New creates an empty map. The first table is allocated lazily.
func New[T any]() *Map[T] {
	return &Map[T]{freeList: nilHandle}
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// Insert adds val under the hash code hcode. Duplicates are not checked,
// callers look up first when the key must be unique.
func (m *Map[T]) Insert(hcode uint64, val T) {
	m.helpRehashing()

	if m.newer.heads == nil {
		m.newer.init(initialBuckets)
	}

	m.push(&m.newer, m.alloc(hcode, val))

	// only start a new cycle once the previous one has finished
	if m.older.heads == nil && m.newer.size >= len(m.newer.heads)*maxLoadFactor {
		m.triggerRehashing()
	}
}

// Lookup returns the first entry with hash code hcode for which eq is true.
func (m *Map[T]) Lookup(hcode uint64, eq func(T) bool) (T, bool) {
	m.helpRehashing()

	if from := m.find(&m.newer, hcode, eq); from != nil {
		return m.nodes[*from].val, true
	}
	if from := m.find(&m.older, hcode, eq); from != nil {
		return m.nodes[*from].val, true
	}

	var zero T
	return zero, false
}

// Delete removes the first entry matching hcode and eq and returns it.
func (m *Map[T]) Delete(hcode uint64, eq func(T) bool) (T, bool) {
	m.helpRehashing()

	if from := m.find(&m.newer, hcode, eq); from != nil {
		return m.release(m.detach(&m.newer, from)), true
	}
	if from := m.find(&m.older, hcode, eq); from != nil {
		return m.release(m.detach(&m.older, from)), true
	}

	var zero T
	return zero, false
}

// Len returns the number of entries in both generations.
func (m *Map[T]) Len() int {
	return m.newer.size + m.older.size
}

// ForEach calls fn for every entry, newer generation first. It stops at the
// first call returning false and reports whether the walk completed.
// ForEach does no migration work, fn must not modify the map.
func (m *Map[T]) ForEach(fn func(T) bool) bool {
	return m.walk(&m.newer, fn) && m.walk(&m.older, fn)
}

// Clear drops all entries and releases the arena.
func (m *Map[T]) Clear() {
	*m = Map[T]{freeList: nilHandle}
}

// Rehashing reports whether a migration from older to newer is in progress.
func (m *Map[T]) Rehashing() bool {
	return m.older.heads != nil
}

// Buckets returns the bucket count of the newer generation.
func (m *Map[T]) Buckets() int {
	return len(m.newer.heads)
}

// ChainLengths returns the chain length of every bucket of both generations.
// It is meant for diagnostics and allocates one value per bucket.
func (m *Map[T]) ChainLengths() []float64 {
	lengths := make([]float64, 0, len(m.newer.heads)+len(m.older.heads))
	for _, t := range []*table{&m.newer, &m.older} {
		for _, h := range t.heads {
			n := 0
			for ; h != nilHandle; h = m.nodes[h].next {
				n++
			}
			lengths = append(lengths, float64(n))
		}
	}
	return lengths
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// alloc takes a node from the free list or grows the arena
func (m *Map[T]) alloc(hcode uint64, val T) handle {
	if h := m.freeList; h != nilHandle {
		m.freeList = m.nodes[h].next
		m.nodes[h] = node[T]{hcode: hcode, next: nilHandle, val: val}
		return h
	}
	m.nodes = append(m.nodes, node[T]{hcode: hcode, next: nilHandle, val: val})
	return handle(len(m.nodes) - 1)
}

// release returns the node to the free list and hands back its payload
func (m *Map[T]) release(h handle) T {
	val := m.nodes[h].val
	m.nodes[h] = node[T]{next: m.freeList}
	m.freeList = h
	return val
}

// push links h in front of its bucket chain
func (m *Map[T]) push(t *table, h handle) {
	pos := m.nodes[h].hcode & t.mask
	m.nodes[h].next = t.heads[pos]
	t.heads[pos] = h
	t.size++
}

// find returns the link that points at the matching node, or nil.
// The returned pointer is only valid until the arena grows.
func (m *Map[T]) find(t *table, hcode uint64, eq func(T) bool) *handle {
	if t.heads == nil {
		return nil
	}
	from := &t.heads[hcode&t.mask]
	for *from != nilHandle {
		n := &m.nodes[*from]
		if n.hcode == hcode && eq(n.val) {
			return from
		}
		from = &n.next
	}
	return nil
}

// detach unlinks the node referenced by from
func (m *Map[T]) detach(t *table, from *handle) handle {
	h := *from
	*from = m.nodes[h].next
	m.nodes[h].next = nilHandle
	t.size--
	return h
}

func (m *Map[T]) walk(t *table, fn func(T) bool) bool {
	for _, h := range t.heads {
		for ; h != nilHandle; h = m.nodes[h].next {
			if !fn(m.nodes[h].val) {
				return false
			}
		}
	}
	return true
}

// triggerRehashing moves newer to older and allocates a table twice as large
func (m *Map[T]) triggerRehashing() {
	m.older = m.newer
	m.newer = table{}
	m.newer.init(len(m.older.heads) * 2)
	m.migratePos = 0
}

// helpRehashing moves at most rehashQuantum entries from older to newer
func (m *Map[T]) helpRehashing() {
	moved := 0
	for moved < rehashQuantum && m.older.size > 0 {
		from := &m.older.heads[m.migratePos]
		if *from == nilHandle {
			m.migratePos++
			continue
		}
		m.push(&m.newer, m.detach(&m.older, from))
		moved++
	}

	if m.older.heads != nil && m.older.size == 0 {
		m.older = table{}
	}
}
