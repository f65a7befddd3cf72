package registry

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/util/avltree"
	"go.uber.org/zap"
)

// group holds the blocks of one trunk file sorted by offset.
type group struct {
	id     trunk.Identity
	blocks []trunk.FullInfo
}

func compareGroups(a, b *group) int {
	return a.id.Compare(b.id)
}

// Registry tracks non-overlapping blocks of trunk files. Groups of blocks
// are indexed by trunk file identity in a balanced tree, blocks of the
// same trunk file are kept in a sorted array.
//
// Registry is not safe for concurrent use.
type Registry struct {
	*cfg

	groups *avltree.Tree[*group]
	blocks int
}

// New creates empty Registry.
func New(opts ...Option) *Registry {
	c := defaultCfg()

	for i := range opts {
		opts[i](c)
	}

	c.log = c.log.With(zap.String("component", "TrunkBlockRegistry"))

	r := &Registry{
		cfg:    c,
		groups: avltree.New(compareGroups, nil),
	}
	r.groups.SetLimit(c.maxGroups)

	return r
}

func (r *Registry) find(id trunk.Identity) (*group, bool) {
	return r.groups.Find(&group{id: id})
}

// search returns the position of the first block starting at or after
// offset and whether its offset equals the given one.
func (g *group) search(offset uint32) (int, bool) {
	return slices.BinarySearchFunc(g.blocks, offset, func(b trunk.FullInfo, off uint32) int {
		return cmp.Compare(b.File.Offset, off)
	})
}

// conflict returns the stored block intersecting the range of b or
// starting at the same offset.
func (g *group) conflict(b trunk.FullInfo) (trunk.FullInfo, bool) {
	n := len(g.blocks)
	if n == 0 {
		return trunk.FullInfo{}, false
	}

	end := b.File.End()
	if end <= uint64(g.blocks[0].File.Offset) && b.File.Offset != g.blocks[0].File.Offset {
		return trunk.FullInfo{}, false
	}
	if uint64(b.File.Offset) >= g.blocks[n-1].File.End() && b.File.Offset != g.blocks[n-1].File.Offset {
		return trunk.FullInfo{}, false
	}

	i, found := g.search(b.File.Offset)
	if found {
		return g.blocks[i], true
	}
	if i < n && uint64(g.blocks[i].File.Offset) < end {
		return g.blocks[i], true
	}
	if i > 0 && g.blocks[i-1].File.End() > uint64(b.File.Offset) {
		return g.blocks[i-1], true
	}

	return trunk.FullInfo{}, false
}

// CheckDuplicate returns trunk.ErrConflict if b intersects one of the
// tracked blocks of the same trunk file or starts at the same offset.
func (r *Registry) CheckDuplicate(b trunk.FullInfo) error {
	g, ok := r.find(b.Identity())
	if !ok {
		return nil
	}

	return r.checkGroup(g, b)
}

func (r *Registry) checkGroup(g *group, b trunk.FullInfo) error {
	exist, ok := g.conflict(b)
	if !ok {
		return nil
	}

	r.metrics.IncConflicts()

	if exist.File == b.File {
		r.log.Warn("block already exists", zap.Stringer("block", b))
		return fmt.Errorf("%w: block already exists: %s", trunk.ErrConflict, b)
	}

	r.log.Warn("block overlaps",
		zap.Stringer("block", b),
		zap.Stringer("existing", exist))

	return fmt.Errorf("%w: block %s overlaps %s", trunk.ErrConflict, b, exist)
}

// Insert adds the block. Returns trunk.ErrConflict if it intersects or
// duplicates a tracked one and trunk.ErrResourceExhausted if a configured
// limit does not allow to track it.
func (r *Registry) Insert(b trunk.FullInfo) error {
	id := b.Identity()

	g, ok := r.find(id)
	if ok {
		if err := r.checkGroup(g, b); err != nil {
			return err
		}
	} else {
		g = &group{id: id}
	}

	pos, _ := g.search(b.File.Offset)

	if err := r.grow(g); err != nil {
		return err
	}

	if !ok {
		if _, err := r.groups.Insert(g); err != nil {
			if errors.Is(err, avltree.ErrLimitReached) {
				return fmt.Errorf("%w: trunk file group limit %d reached", trunk.ErrResourceExhausted, r.maxGroups)
			}
			return err
		}
		r.metrics.SetGroupCount(r.groups.Len())
	}

	g.blocks = slices.Insert(g.blocks, pos, b)
	r.blocks++
	r.metrics.SetBlockCount(r.blocks)

	return nil
}

// grow makes room for one more block in the group.
func (r *Registry) grow(g *group) error {
	if len(g.blocks) < cap(g.blocks) {
		return nil
	}

	if r.maxBlocksPerGroup > 0 && len(g.blocks) >= r.maxBlocksPerGroup {
		return fmt.Errorf("%w: block limit %d of trunk file %s reached",
			trunk.ErrResourceExhausted, r.maxBlocksPerGroup, g.id)
	}

	newCap := r.initCap
	if cap(g.blocks) > 0 {
		newCap = 2 * cap(g.blocks)
	}
	if r.maxBlocksPerGroup > 0 {
		newCap = min(newCap, r.maxBlocksPerGroup)
	}

	r.realloc(g, newCap)

	return nil
}

func (r *Registry) realloc(g *group, newCap int) {
	blocks := make([]trunk.FullInfo, len(g.blocks), newCap)
	copy(blocks, g.blocks)
	g.blocks = blocks
}

// Delete removes the block of the trunk file starting at the offset of b.
// Returns trunk.ErrNotFound if there is no such block. The trunk file is
// forgotten as soon as its last block is removed.
func (r *Registry) Delete(b trunk.FullInfo) error {
	g, ok := r.find(b.Identity())
	if !ok {
		r.log.Warn("trunk file not found", zap.Stringer("block", b))
		return fmt.Errorf("%w: trunk file %s", trunk.ErrNotFound, b.Identity())
	}

	i, found := g.search(b.File.Offset)
	if !found {
		r.log.Warn("block not found", zap.Stringer("block", b))
		return fmt.Errorf("%w: block %s", trunk.ErrNotFound, b)
	}

	g.blocks = slices.Delete(g.blocks, i, i+1)
	r.blocks--
	r.metrics.SetBlockCount(r.blocks)

	if len(g.blocks) == 0 {
		r.groups.Delete(g)
		r.metrics.SetGroupCount(r.groups.Len())
		return nil
	}

	if len(g.blocks) < cap(g.blocks)/2 && len(g.blocks) > r.initCap/2 {
		r.realloc(g, cap(g.blocks)/2)
	}

	return nil
}

// TreeNodeCount returns the number of tracked trunk files.
func (r *Registry) TreeNodeCount() int {
	return r.groups.Count()
}

// TotalBlockCount returns the number of tracked blocks of all trunk files.
func (r *Registry) TotalBlockCount() int {
	var n int

	_ = r.groups.Walk(func(g *group) error {
		n += len(g.blocks)
		return nil
	})

	return n
}

// Blocks returns the blocks of the trunk file sorted by offset.
func (r *Registry) Blocks(id trunk.Identity) []trunk.FullInfo {
	g, ok := r.find(id)
	if !ok {
		return nil
	}

	return slices.Clone(g.blocks)
}

// Iterate calls f for each tracked block ordered by trunk file identity
// and offset. An error returned by f stops the iteration and is returned.
func (r *Registry) Iterate(f func(trunk.FullInfo) error) error {
	return r.groups.Walk(func(g *group) error {
		for i := range g.blocks {
			if err := f(g.blocks[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases all the tracked blocks.
func (r *Registry) Close() {
	r.groups.Destroy()
	r.blocks = 0
	r.metrics.SetGroupCount(0)
	r.metrics.SetBlockCount(0)
}
