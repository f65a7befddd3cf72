package avltree

import (
	"cmp"
	"errors"
	"math/rand"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

type item struct {
	key int
	val string
}

func compareItems(a, b item) int {
	return cmp.Compare(a.key, b.key)
}

func newIntTree(free FreeFunc[int]) *Tree[int] {
	return New(cmp.Compare[int], free)
}

// checkInvariants verifies ordering, stored balance factors and the AVL
// property of every node, returns the subtree height.
func checkInvariants[T any](t *testing.T, tr *Tree[T], n *node[T], lo, hi *T) int {
	if n == nil {
		return 0
	}

	if lo != nil {
		require.Positive(t, tr.cmp(n.data, *lo))
	}
	if hi != nil {
		require.Negative(t, tr.cmp(n.data, *hi))
	}

	lh := checkInvariants(t, tr, n.left, lo, &n.data)
	rh := checkInvariants(t, tr, n.right, &n.data, hi)

	require.EqualValues(t, rh-lh, n.balance)
	require.LessOrEqual(t, n.balance, int8(1))
	require.GreaterOrEqual(t, n.balance, int8(-1))

	return max(lh, rh) + 1
}

func TestTree_Basic(t *testing.T) {
	tr := newIntTree(nil)

	require.Zero(t, tr.Len())
	require.Zero(t, tr.Count())
	require.Zero(t, tr.Height())
	require.Zero(t, tr.ProbeDepth())

	_, ok := tr.Find(1)
	require.False(t, ok)
	require.False(t, tr.Delete(1))

	for _, v := range []int{10, 20, 5} {
		ok, err := tr.Insert(v)
		require.NoError(t, err)
		require.True(t, ok)
	}

	ok, err := tr.Insert(10)
	require.NoError(t, err)
	require.False(t, ok)

	require.Equal(t, 3, tr.Len())
	require.Equal(t, 3, tr.Count())

	v, ok := tr.Find(20)
	require.True(t, ok)
	require.Equal(t, 20, v)
}

func TestTree_InsertKeepsExisting(t *testing.T) {
	var freed []item

	tr := New(compareItems, func(v item) { freed = append(freed, v) })

	ok, err := tr.Insert(item{1, "first"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tr.Insert(item{1, "second"})
	require.NoError(t, err)
	require.False(t, ok)

	v, _ := tr.Find(item{key: 1})
	require.Equal(t, "first", v.val)
	require.Empty(t, freed)
}

func TestTree_Replace(t *testing.T) {
	var freed []item

	tr := New(compareItems, func(v item) { freed = append(freed, v) })

	ok, err := tr.Replace(item{1, "first"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = tr.Replace(item{1, "second"})
	require.NoError(t, err)
	require.False(t, ok)

	v, _ := tr.Find(item{key: 1})
	require.Equal(t, "second", v.val)
	require.Equal(t, []item{{1, "first"}}, freed)
	require.Equal(t, 1, tr.Len())
}

func TestTree_FindGE(t *testing.T) {
	tr := newIntTree(nil)

	for _, v := range []int{10, 20, 30, 40} {
		_, err := tr.Insert(v)
		require.NoError(t, err)
	}

	for _, tc := range []struct {
		key   int
		exp   int
		found bool
	}{
		{key: 1, exp: 10, found: true},
		{key: 10, exp: 10, found: true},
		{key: 11, exp: 20, found: true},
		{key: 35, exp: 40, found: true},
		{key: 40, exp: 40, found: true},
		{key: 41, found: false},
	} {
		v, ok := tr.FindGE(tc.key)
		require.Equal(t, tc.found, ok, tc.key)
		if tc.found {
			require.Equal(t, tc.exp, v, tc.key)
		}
	}

	_, ok := newIntTree(nil).FindGE(0)
	require.False(t, ok)
}

func TestTree_Walk(t *testing.T) {
	tr := newIntTree(nil)

	in := []int{5, 3, 8, 1, 4, 7, 9, 2, 6}
	for _, v := range in {
		_, err := tr.Insert(v)
		require.NoError(t, err)
	}

	var res []int
	require.NoError(t, tr.Walk(func(v int) error {
		res = append(res, v)
		return nil
	}))

	slices.Sort(in)
	require.Equal(t, in, res)

	t.Run("abort", func(t *testing.T) {
		errStop := errors.New("stop")

		var visited []int
		err := tr.Walk(func(v int) error {
			visited = append(visited, v)
			if v == 4 {
				return errStop
			}
			return nil
		})
		require.ErrorIs(t, err, errStop)
		require.Equal(t, []int{1, 2, 3, 4}, visited)
	})
}

func TestTree_DeleteFreesPayload(t *testing.T) {
	var freed []int

	tr := newIntTree(func(v int) { freed = append(freed, v) })

	for _, v := range []int{50, 30, 70, 20, 40, 60, 80} {
		_, err := tr.Insert(v)
		require.NoError(t, err)
	}

	// node with two children
	require.True(t, tr.Delete(50))
	require.Equal(t, []int{50}, freed)

	_, ok := tr.Find(50)
	require.False(t, ok)
	require.Equal(t, 6, tr.Len())
	require.Equal(t, 6, tr.Count())

	checkInvariants(t, tr, tr.root, nil, nil)

	require.False(t, tr.Delete(50))
	require.Len(t, freed, 1)

	tr.Destroy()
	require.Len(t, freed, 7)
	require.Zero(t, tr.Len())
	require.Zero(t, tr.Count())
}

func TestTree_Limit(t *testing.T) {
	tr := newIntTree(nil)
	tr.SetLimit(2)

	for _, v := range []int{1, 2} {
		ok, err := tr.Insert(v)
		require.NoError(t, err)
		require.True(t, ok)
	}

	_, err := tr.Insert(3)
	require.ErrorIs(t, err, ErrLimitReached)
	require.Equal(t, 2, tr.Len())

	_, ok := tr.Find(3)
	require.False(t, ok)

	// existing keys do not need a new node
	ok, err = tr.Insert(1)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = tr.Replace(2)
	require.NoError(t, err)
	require.False(t, ok)

	_, err = tr.Replace(3)
	require.ErrorIs(t, err, ErrLimitReached)

	require.True(t, tr.Delete(1))
	ok, err = tr.Insert(3)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestTree_SequentialHeight(t *testing.T) {
	tr := newIntTree(nil)

	const n = 1<<10 - 1
	for i := range n {
		_, err := tr.Insert(i)
		require.NoError(t, err)
	}

	// perfectly balanced after ascending inserts of 2^k-1 keys
	require.Equal(t, 10, tr.Height())
	require.LessOrEqual(t, tr.ProbeDepth(), tr.Height())
	checkInvariants(t, tr, tr.root, nil, nil)
}

func TestTree_ProbeDepth(t *testing.T) {
	tr := newIntTree(nil)

	// root 2 with a single left child 1: the probe follows the left-heavy
	// root and then stops at the leaf
	for _, v := range []int{2, 1} {
		_, err := tr.Insert(v)
		require.NoError(t, err)
	}
	require.Equal(t, 2, tr.ProbeDepth())
	require.Equal(t, 2, tr.Height())

	// balanced root goes right
	_, err := tr.Insert(3)
	require.NoError(t, err)
	require.Equal(t, 2, tr.ProbeDepth())

	_, err = tr.Insert(0)
	require.NoError(t, err)
	// both the root and 1 are left-heavy now, so the probe reaches 0
	require.Equal(t, 3, tr.ProbeDepth())
	require.Equal(t, 3, tr.Height())
}

func TestTree_Random(t *testing.T) {
	const keys = 200

	r := rand.New(rand.NewSource(42))
	tr := newIntTree(nil)
	ref := make(map[int]struct{})

	for i := 0; i < 5000; i++ {
		k := r.Intn(keys)

		if r.Intn(3) == 0 {
			_, exp := ref[k]
			require.Equal(t, exp, tr.Delete(k), k)
			delete(ref, k)
		} else {
			_, exists := ref[k]
			ok, err := tr.Insert(k)
			require.NoError(t, err)
			require.Equal(t, !exists, ok, k)
			ref[k] = struct{}{}
		}

		checkInvariants(t, tr, tr.root, nil, nil)
		require.Equal(t, len(ref), tr.Len(), i)
	}

	require.Equal(t, len(ref), tr.Count())

	for k := range keys {
		_, exp := ref[k]
		_, ok := tr.Find(k)
		require.Equal(t, exp, ok, k)
	}
}
