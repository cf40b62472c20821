// Package avl implements an AVL tree augmented with subtree sizes
// (an order statistic tree). Besides the usual ordered insert and delete,
// it answers "the node k positions away from this one" in O(log n).
//
// Nodes are stored in an arena owned by the tree and referenced by Handle.
// A handle stays valid until its node is deleted, rotations and rebalancing
// never move a value to another handle.
package avl

import (
	"fmt"
)

// Handle references a node of a Tree
type Handle int32

// Nil is the handle of no node
const Nil Handle = -1

type node[T any] struct {
	left, right, parent Handle
	height              uint32
	count               uint32
	val                 T
}

// Tree is an AVL tree ordered by a caller supplied less function.
// Equal values are allowed and are kept in insertion order.
// A Tree is not safe for concurrent use.
type Tree[T any] struct {
	nodes []node[T]
	free  []Handle
	root  Handle
	less  func(a, b T) bool
}

// New creates an empty tree ordered by less.
func New[T any](less func(a, b T) bool) *Tree[T] {
	return &Tree[T]{root: Nil, less: less}
}

// --------------------------------------------------------------------------
// Public Methods
// --------------------------------------------------------------------------

// Insert adds val to the tree and returns its handle.
func (t *Tree[T]) Insert(val T) Handle {
	h := t.alloc(val)
	t.attach(h)
	return h
}

// Delete removes the node h from the tree and frees it.
func (t *Tree[T]) Delete(h Handle) {
	t.root = t.delete(h)
	t.release(h)
}

// Reinsert moves h to the position matching its current value. Use it after
// changing the ordering key of a stored value; the handle is kept.
func (t *Tree[T]) Reinsert(h Handle) {
	t.root = t.delete(h)
	t.attach(h)
}

// Value returns the value stored in h.
func (t *Tree[T]) Value(h Handle) T {
	return t.nodes[h].val
}

// Root returns the root handle, Nil for an empty tree.
func (t *Tree[T]) Root() Handle {
	return t.root
}

// Len returns the number of values in the tree.
func (t *Tree[T]) Len() int {
	return int(t.count(t.root))
}

// Seek returns the leftmost node whose value is not below the target, where
// below(v) reports whether v orders strictly before the target.
func (t *Tree[T]) Seek(below func(T) bool) (Handle, bool) {
	found := Nil
	for cur := t.root; cur != Nil; {
		if below(t.nodes[cur].val) {
			cur = t.nodes[cur].right
		} else {
			found = cur
			cur = t.nodes[cur].left
		}
	}
	return found, found != Nil
}

// Offset returns the node k positions after h (before h for negative k).
// The second result is false when the target rank is out of range.
func (t *Tree[T]) Offset(h Handle, k int64) (Handle, bool) {
	var pos int64
	for pos != k {
		n := &t.nodes[h]
		switch {
		case pos < k && pos+t.count(n.right) >= k:
			// target is inside the right subtree
			h = n.right
			pos += t.count(t.nodes[h].left) + 1
		case pos > k && pos-t.count(n.left) <= k:
			// target is inside the left subtree
			h = n.left
			pos -= t.count(t.nodes[h].right) + 1
		default:
			parent := n.parent
			if parent == Nil {
				return Nil, false
			}
			if t.nodes[parent].right == h {
				pos -= t.count(n.left) + 1
			} else {
				pos += t.count(n.right) + 1
			}
			h = parent
		}
	}
	return h, true
}

// Rank returns the zero based position of h in sorted order.
func (t *Tree[T]) Rank(h Handle) int64 {
	rank := t.count(t.nodes[h].left)
	for h != t.root {
		parent := t.nodes[h].parent
		if t.nodes[parent].right == h {
			rank += t.count(t.nodes[parent].left) + 1
		}
		h = parent
	}
	return rank
}

// ForEach visits all values in order until fn returns false.
func (t *Tree[T]) ForEach(fn func(h Handle, val T) bool) {
	stack := make([]Handle, 0, t.height(t.root))
	cur := t.root
	for cur != Nil || len(stack) > 0 {
		for ; cur != Nil; cur = t.nodes[cur].left {
			stack = append(stack, cur)
		}
		cur = stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !fn(cur, t.nodes[cur].val) {
			return
		}
		cur = t.nodes[cur].right
	}
}

// Clear removes all values. If dispose is not nil it is called once per
// value, children before parents.
func (t *Tree[T]) Clear(dispose func(T)) {
	if dispose != nil && t.root != Nil {
		// post-order walk with an explicit stack
		stack := []Handle{t.root}
		var last Handle = Nil
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			n := &t.nodes[cur]
			switch {
			case n.left != Nil && last != n.left && last != n.right:
				stack = append(stack, n.left)
			case n.right != Nil && last != n.right:
				stack = append(stack, n.right)
			default:
				stack = stack[:len(stack)-1]
				dispose(n.val)
				last = cur
			}
		}
	}
	t.nodes = nil
	t.free = nil
	t.root = Nil
}

// Verify checks the AVL and size invariants of every node and the ordering
// of the in-order sequence.
func (t *Tree[T]) Verify() error {
	if t.root != Nil && t.nodes[t.root].parent != Nil {
		return fmt.Errorf("root %d has parent %d", t.root, t.nodes[t.root].parent)
	}

	stack := make([]Handle, 0, 64)
	if t.root != Nil {
		stack = append(stack, t.root)
	}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := &t.nodes[h]

		lh, rh := t.height(n.left), t.height(n.right)
		if n.height != 1+max(lh, rh) {
			return fmt.Errorf("node %d: height %d, children %d/%d", h, n.height, lh, rh)
		}
		if lh > rh+1 || rh > lh+1 {
			return fmt.Errorf("node %d: unbalanced %d/%d", h, lh, rh)
		}
		if int64(n.count) != 1+t.count(n.left)+t.count(n.right) {
			return fmt.Errorf("node %d: count %d does not match children", h, n.count)
		}
		for _, c := range []Handle{n.left, n.right} {
			if c == Nil {
				continue
			}
			if t.nodes[c].parent != h {
				return fmt.Errorf("node %d: child %d points to parent %d", h, c, t.nodes[c].parent)
			}
			stack = append(stack, c)
		}
	}

	var err error
	prev := Nil
	t.ForEach(func(h Handle, val T) bool {
		if prev != Nil && t.less(val, t.nodes[prev].val) {
			err = fmt.Errorf("node %d orders before its predecessor %d", h, prev)
			return false
		}
		prev = h
		return true
	})
	return err
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (t *Tree[T]) alloc(val T) Handle {
	n := node[T]{left: Nil, right: Nil, parent: Nil, height: 1, count: 1, val: val}
	if l := len(t.free); l > 0 {
		h := t.free[l-1]
		t.free = t.free[:l-1]
		t.nodes[h] = n
		return h
	}
	t.nodes = append(t.nodes, n)
	return Handle(len(t.nodes) - 1)
}

func (t *Tree[T]) release(h Handle) {
	t.nodes[h] = node[T]{left: Nil, right: Nil, parent: Nil}
	t.free = append(t.free, h)
}

func (t *Tree[T]) height(h Handle) uint32 {
	if h == Nil {
		return 0
	}
	return t.nodes[h].height
}

func (t *Tree[T]) count(h Handle) int64 {
	if h == Nil {
		return 0
	}
	return int64(t.nodes[h].count)
}

// update recomputes height and count of h from its children
func (t *Tree[T]) update(h Handle) {
	n := &t.nodes[h]
	n.height = 1 + max(t.height(n.left), t.height(n.right))
	n.count = uint32(1 + t.count(n.left) + t.count(n.right))
}

// attach links the detached node h below the leaf where its value belongs
func (t *Tree[T]) attach(h Handle) {
	n := &t.nodes[h]
	n.left, n.right, n.parent = Nil, Nil, Nil
	n.height, n.count = 1, 1

	if t.root == Nil {
		t.root = h
		return
	}

	parent := t.root
	for {
		p := &t.nodes[parent]
		if t.less(n.val, p.val) {
			if p.left == Nil {
				p.left = h
				break
			}
			parent = p.left
		} else {
			if p.right == Nil {
				p.right = h
				break
			}
			parent = p.right
		}
	}
	n.parent = parent
	t.root = t.fix(parent)
}

// rotateLeft lifts the right child of h into its place and returns it.
// The parent's child link is left to the caller.
func (t *Tree[T]) rotateLeft(h Handle) Handle {
	n := &t.nodes[h]
	parent, r := n.parent, n.right
	inner := t.nodes[r].left

	n.right = inner
	if inner != Nil {
		t.nodes[inner].parent = h
	}
	t.nodes[r].parent = parent
	t.nodes[r].left = h
	n.parent = r

	t.update(h)
	t.update(r)
	return r
}

// rotateRight mirrors rotateLeft
func (t *Tree[T]) rotateRight(h Handle) Handle {
	n := &t.nodes[h]
	parent, l := n.parent, n.left
	inner := t.nodes[l].right

	n.left = inner
	if inner != Nil {
		t.nodes[inner].parent = h
	}
	t.nodes[l].parent = parent
	t.nodes[l].right = h
	n.parent = l

	t.update(h)
	t.update(l)
	return l
}

// fixLeft repairs a node whose left subtree is two levels taller
func (t *Tree[T]) fixLeft(h Handle) Handle {
	l := t.nodes[h].left
	if t.height(t.nodes[l].left) < t.height(t.nodes[l].right) {
		t.nodes[h].left = t.rotateLeft(l)
	}
	return t.rotateRight(h)
}

// fixRight repairs a node whose right subtree is two levels taller
func (t *Tree[T]) fixRight(h Handle) Handle {
	r := t.nodes[h].right
	if t.height(t.nodes[r].right) < t.height(t.nodes[r].left) {
		t.nodes[h].right = t.rotateRight(r)
	}
	return t.rotateLeft(h)
}

// fix walks from h to the root, updating every ancestor and rebalancing
// where needed. It returns the new root.
func (t *Tree[T]) fix(h Handle) Handle {
	for {
		parent := t.nodes[h].parent
		isLeft := parent != Nil && t.nodes[parent].left == h

		t.update(h)
		lh, rh := t.height(t.nodes[h].left), t.height(t.nodes[h].right)
		if lh == rh+2 {
			h = t.fixLeft(h)
		} else if lh+2 == rh {
			h = t.fixRight(h)
		}

		if parent == Nil {
			return h
		}
		if isLeft {
			t.nodes[parent].left = h
		} else {
			t.nodes[parent].right = h
		}
		h = parent
	}
}

// deleteEasy unlinks h, which has at most one child, and returns the new root
func (t *Tree[T]) deleteEasy(h Handle) Handle {
	n := &t.nodes[h]
	child := n.left
	if child == Nil {
		child = n.right
	}
	parent := n.parent

	if child != Nil {
		t.nodes[child].parent = parent
	}
	if parent == Nil {
		return child
	}
	if t.nodes[parent].left == h {
		t.nodes[parent].left = child
	} else {
		t.nodes[parent].right = child
	}
	return t.fix(parent)
}

// delete unlinks h and returns the new root. A node with two children is
// replaced by its in-order successor, which takes over h's links.
func (t *Tree[T]) delete(h Handle) Handle {
	if t.nodes[h].left == Nil || t.nodes[h].right == Nil {
		return t.deleteEasy(h)
	}

	victim := t.nodes[h].right
	for t.nodes[victim].left != Nil {
		victim = t.nodes[victim].left
	}
	root := t.deleteEasy(victim)

	// h may have been rotated while fixing, read its links only now
	n := t.nodes[h]
	v := &t.nodes[victim]
	v.left, v.right, v.parent = n.left, n.right, n.parent
	v.height, v.count = n.height, n.count
	if n.left != Nil {
		t.nodes[n.left].parent = victim
	}
	if n.right != Nil {
		t.nodes[n.right].parent = victim
	}

	switch {
	case n.parent == Nil:
		root = victim
	case t.nodes[n.parent].left == h:
		t.nodes[n.parent].left = victim
	default:
		t.nodes[n.parent].right = victim
	}
	return root
}
