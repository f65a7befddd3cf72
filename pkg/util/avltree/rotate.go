package avltree

func rotateLeft[T any](n *node[T]) *node[T] {
	r := n.right
	n.right = r.left
	r.left = n
	return r
}

func rotateRight[T any](n *node[T]) *node[T] {
	l := n.left
	n.left = l.right
	l.right = n
	return l
}

// fixLeftInsert restores the balance of n whose left subtree has grown
// two levels higher than the right one after an insertion.
func fixLeftInsert[T any](n *node[T]) *node[T] {
	l := n.left

	switch l.balance {
	case -1:
		n.balance, l.balance = 0, 0
		return rotateRight(n)
	case 1:
		lr := l.right
		switch lr.balance {
		case -1:
			n.balance, l.balance = 1, 0
		case 0:
			n.balance, l.balance = 0, 0
		case 1:
			n.balance, l.balance = 0, -1
		}
		lr.balance = 0

		n.left = rotateLeft(l)
		return rotateRight(n)
	}

	// unreachable for a freshly grown subtree
	return n
}

// fixRightInsert mirrors fixLeftInsert.
func fixRightInsert[T any](n *node[T]) *node[T] {
	r := n.right

	switch r.balance {
	case 1:
		n.balance, r.balance = 0, 0
		return rotateLeft(n)
	case -1:
		rl := r.left
		switch rl.balance {
		case 1:
			n.balance, r.balance = -1, 0
		case 0:
			n.balance, r.balance = 0, 0
		case -1:
			n.balance, r.balance = 0, 1
		}
		rl.balance = 0

		n.right = rotateRight(r)
		return rotateLeft(n)
	}

	return n
}

// leftShrunk updates n after its left subtree became one level shorter.
// Returns the new subtree root and whether the whole subtree got shorter.
func leftShrunk[T any](n *node[T]) (*node[T], bool) {
	switch n.balance {
	case -1:
		n.balance = 0
		return n, true
	case 0:
		n.balance = 1
		return n, false
	}

	r := n.right

	switch r.balance {
	case 1:
		n.balance, r.balance = 0, 0
		return rotateLeft(n), true
	case 0:
		r.balance = -1
		return rotateLeft(n), false
	}

	rl := r.left
	switch rl.balance {
	case 1:
		n.balance, r.balance = -1, 0
	case 0:
		n.balance, r.balance = 0, 0
	case -1:
		n.balance, r.balance = 0, 1
	}
	rl.balance = 0

	n.right = rotateRight(r)
	return rotateLeft(n), true
}

// rightShrunk mirrors leftShrunk.
func rightShrunk[T any](n *node[T]) (*node[T], bool) {
	switch n.balance {
	case 1:
		n.balance = 0
		return n, true
	case 0:
		n.balance = -1
		return n, false
	}

	l := n.left

	switch l.balance {
	case -1:
		n.balance, l.balance = 0, 0
		return rotateRight(n), true
	case 0:
		l.balance = 1
		return rotateRight(n), false
	}

	lr := l.right
	switch lr.balance {
	case -1:
		n.balance, l.balance = 1, 0
	case 0:
		n.balance, l.balance = 0, 0
	case 1:
		n.balance, l.balance = 0, -1
	}
	lr.balance = 0

	n.left = rotateLeft(l)
	return rotateRight(n), true
}
