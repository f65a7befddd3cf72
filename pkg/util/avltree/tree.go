package avltree

import (
	"errors"
)

// CompareFunc defines the total order of the tree payloads. It returns
// a negative number if a < b, zero if a == b and a positive number if a > b.
type CompareFunc[T any] func(a, b T) int

// FreeFunc is called on a payload when it leaves the tree: on Delete,
// on Replace of an existing key and on Destroy.
type FreeFunc[T any] func(T)

// ErrLimitReached is returned by Insert and Replace when the tree already
// holds the configured maximum number of nodes.
var ErrLimitReached = errors.New("tree node limit reached")

type node[T any] struct {
	data  T
	left  *node[T]
	right *node[T]

	// height(right) - height(left), always in [-1, 1].
	balance int8
}

// Tree is a height-balanced (AVL) binary search tree over opaque payloads.
//
// Payloads are ordered by the CompareFunc passed to New. The tree stores at
// most one payload per key. Tree is not safe for concurrent use.
type Tree[T any] struct {
	root *node[T]

	cmp  CompareFunc[T]
	free FreeFunc[T]

	size  int
	limit int
}

// New returns an empty tree ordered by cmp. free is optional and may be nil.
func New[T any](cmp CompareFunc[T], free FreeFunc[T]) *Tree[T] {
	return &Tree[T]{
		cmp:  cmp,
		free: free,
	}
}

// SetLimit sets the maximum number of nodes in the tree. Zero or negative
// values disable the limit.
func (t *Tree[T]) SetLimit(n int) {
	t.limit = n
}

// Len returns the number of payloads currently stored.
func (t *Tree[T]) Len() int {
	return t.size
}

// Insert adds v to the tree.
//
// Returns true if a new node was created and false if a payload with the
// same key is already present; in the latter case the stored payload is
// retained and v is dropped. Returns ErrLimitReached (and leaves the tree
// unchanged) if a new node is required but the node limit is reached.
func (t *Tree[T]) Insert(v T) (bool, error) {
	if t.full() {
		if _, ok := t.Find(v); ok {
			return false, nil
		}
		return false, ErrLimitReached
	}

	var inserted bool
	t.root, _, inserted = t.insert(t.root, v, false)
	if inserted {
		t.size++
	}
	return inserted, nil
}

// Replace works like Insert but on key collision the stored payload is
// released through the FreeFunc and v takes its place.
//
// Returns true if a new node was created and false if an existing payload
// was replaced.
func (t *Tree[T]) Replace(v T) (bool, error) {
	if t.full() {
		if _, ok := t.Find(v); !ok {
			return false, ErrLimitReached
		}
	}

	var inserted bool
	t.root, _, inserted = t.insert(t.root, v, true)
	if inserted {
		t.size++
	}
	return inserted, nil
}

func (t *Tree[T]) full() bool {
	return t.limit > 0 && t.size >= t.limit
}

// insert puts v into the subtree rooted at n and returns the new subtree
// root, whether the subtree became taller and whether a node was created.
func (t *Tree[T]) insert(n *node[T], v T, replace bool) (*node[T], bool, bool) {
	if n == nil {
		return &node[T]{data: v}, true, true
	}

	var taller, inserted bool

	c := t.cmp(n.data, v)
	switch {
	case c > 0:
		n.left, taller, inserted = t.insert(n.left, v, replace)
		if !taller {
			return n, false, inserted
		}

		switch n.balance {
		case -1:
			return fixLeftInsert(n), false, inserted
		case 0:
			n.balance = -1
			return n, true, inserted
		default:
			n.balance = 0
			return n, false, inserted
		}
	case c < 0:
		n.right, taller, inserted = t.insert(n.right, v, replace)
		if !taller {
			return n, false, inserted
		}

		switch n.balance {
		case 1:
			return fixRightInsert(n), false, inserted
		case 0:
			n.balance = 1
			return n, true, inserted
		default:
			n.balance = 0
			return n, false, inserted
		}
	default:
		if replace {
			if t.free != nil {
				t.free(n.data)
			}
			n.data = v
		}
		return n, false, false
	}
}

// Find returns the payload equal to key.
func (t *Tree[T]) Find(key T) (T, bool) {
	for n := t.root; n != nil; {
		c := t.cmp(n.data, key)
		switch {
		case c > 0:
			n = n.left
		case c < 0:
			n = n.right
		default:
			return n.data, true
		}
	}

	var zero T
	return zero, false
}

// FindGE returns the payload with the smallest key greater than or equal
// to key.
func (t *Tree[T]) FindGE(key T) (T, bool) {
	var (
		best  T
		found bool
	)

	for n := t.root; n != nil; {
		c := t.cmp(n.data, key)
		switch {
		case c > 0:
			best, found = n.data, true
			n = n.left
		case c < 0:
			n = n.right
		default:
			return n.data, true
		}
	}

	return best, found
}

// Delete removes the payload equal to key and releases it through the
// FreeFunc. Returns false if there is no such payload.
func (t *Tree[T]) Delete(key T) bool {
	var deleted bool
	t.root, _, deleted = t.delete(t.root, key)
	if deleted {
		t.size--
	}
	return deleted
}

// delete removes key from the subtree rooted at n and returns the new
// subtree root, whether the subtree became shorter and whether the key
// was found.
func (t *Tree[T]) delete(n *node[T], key T) (*node[T], bool, bool) {
	if n == nil {
		return nil, false, false
	}

	var shorter, deleted bool

	c := t.cmp(n.data, key)
	switch {
	case c > 0:
		n.left, shorter, deleted = t.delete(n.left, key)
		if shorter {
			n, shorter = leftShrunk(n)
		}
		return n, shorter, deleted
	case c < 0:
		n.right, shorter, deleted = t.delete(n.right, key)
		if shorter {
			n, shorter = rightShrunk(n)
		}
		return n, shorter, deleted
	}

	if t.free != nil {
		t.free(n.data)
	}

	if n.left == nil {
		return n.right, true, true
	}
	if n.right == nil {
		return n.left, true, true
	}

	// two children: take the in-order predecessor
	n.left, n.data, shorter = removeMax(n.left)
	if shorter {
		n, shorter = leftShrunk(n)
	}
	return n, shorter, true
}

// removeMax unlinks the rightmost node of the subtree and returns the new
// subtree root, the payload of the removed node and whether the subtree
// became shorter.
func removeMax[T any](n *node[T]) (*node[T], T, bool) {
	if n.right == nil {
		return n.left, n.data, true
	}

	var (
		last    T
		shorter bool
	)

	n.right, last, shorter = removeMax(n.right)
	if shorter {
		n, shorter = rightShrunk(n)
	}
	return n, last, shorter
}

// Walk calls f for every payload in ascending order. The first non-nil
// error returned by f aborts the walk and is returned.
func (t *Tree[T]) Walk(f func(T) error) error {
	return walk(t.root, f)
}

func walk[T any](n *node[T], f func(T) error) error {
	if n == nil {
		return nil
	}

	if err := walk(n.left, f); err != nil {
		return err
	}

	if err := f(n.data); err != nil {
		return err
	}

	return walk(n.right, f)
}

// Count returns the number of payloads by traversing the whole tree.
func (t *Tree[T]) Count() int {
	return count(t.root)
}

func count[T any](n *node[T]) int {
	if n == nil {
		return 0
	}
	return count(n.left) + 1 + count(n.right)
}

// ProbeDepth follows a single path from the root, going left when the
// current node is left-heavy and right otherwise, and returns the number
// of visited nodes.
//
// The result is a cheap lower bound of the tree height, not the height
// itself. Use Height for the exact value.
func (t *Tree[T]) ProbeDepth() int {
	var depth int

	for n := t.root; n != nil; depth++ {
		if n.balance == -1 {
			n = n.left
		} else {
			n = n.right
		}
	}

	return depth
}

// Height returns the number of nodes on the longest root-to-leaf path.
func (t *Tree[T]) Height() int {
	return height(t.root)
}

func height[T any](n *node[T]) int {
	if n == nil {
		return 0
	}
	return max(height(n.left), height(n.right)) + 1
}

// Destroy removes all payloads from the tree releasing each of them
// through the FreeFunc.
func (t *Tree[T]) Destroy() {
	if t.free != nil {
		destroy(t.root, t.free)
	}

	t.root = nil
	t.size = 0
}

func destroy[T any](n *node[T], free FreeFunc[T]) {
	if n == nil {
		return
	}

	destroy(n.left, free)
	destroy(n.right, free)
	free(n.data)
}
