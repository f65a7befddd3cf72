package allocator

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"

	storagelog "github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/internal/log"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/registry"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/snapshot"
	"github.com/nspcc-dev/neofs-trunk/pkg/util/avltree"
	"go.uber.org/zap"
)

// slot groups the tracked blocks of the same size. New blocks are put in
// front and allocations take the first free one.
type slot struct {
	size  uint32
	nodes []*trunk.FullInfo
}

func compareSlots(a, b *slot) int {
	return cmp.Compare(a.size, b.size)
}

// Allocator hands out byte ranges of trunk files to the writers.
//
// Blocks are tracked per store path in a tree of size slots, the best
// fitting free block is taken for each allocation. A handed out block is
// kept on hold until the write is confirmed. Every tracked block is also
// registered in the block registry which rejects overlapping ranges.
//
// Allocator is safe for concurrent use.
type Allocator struct {
	*cfg

	mtx sync.Mutex

	trees []*avltree.Tree[*slot]
	free  []uint64

	reg *registry.Registry

	lastID uint32
}

// New creates an Allocator with no tracked blocks.
func New(opts ...Option) (*Allocator, error) {
	c := defaultCfg()

	for i := range opts {
		opts[i](c)
	}

	switch {
	case c.slotMinSize == 0:
		return nil, fmt.Errorf("%w: zero slot min size", trunk.ErrInvalidInput)
	case c.slotMinSize > c.slotMaxSize:
		return nil, fmt.Errorf("%w: slot min size %d is greater than max size %d",
			trunk.ErrInvalidInput, c.slotMinSize, c.slotMaxSize)
	case c.slotMaxSize > c.trunkFileSize:
		return nil, fmt.Errorf("%w: slot max size %d is greater than trunk file size %d",
			trunk.ErrInvalidInput, c.slotMaxSize, c.trunkFileSize)
	case c.storePaths > 256:
		return nil, fmt.Errorf("%w: %d store paths, 256 at most", trunk.ErrInvalidInput, c.storePaths)
	}

	c.log = c.log.With(zap.String("component", "TrunkAllocator"))

	a := &Allocator{
		cfg:   c,
		trees: make([]*avltree.Tree[*slot], c.storePaths),
		free:  make([]uint64, c.storePaths),
		reg:   registry.New(append([]registry.Option{registry.WithLogger(c.log)}, c.registryOpts...)...),
	}

	for i := range a.trees {
		a.trees[i] = avltree.New(compareSlots, nil)
		a.metrics.SetFreeSpace(i, 0)
	}

	return a, nil
}

func (a *Allocator) checkIndex(idx int) error {
	if idx < 0 || idx >= len(a.trees) {
		return fmt.Errorf("%w: store path index %d out of [0, %d)", trunk.ErrInvalidInput, idx, len(a.trees))
	}
	return nil
}

// CheckSize checks whether a file of the given size should be stored in a
// trunk file.
func (a *Allocator) CheckSize(size int64) bool {
	return size >= 0 && size <= int64(a.slotMaxSize)
}

// Alloc reserves size bytes in a trunk file of the store path. The smallest
// free block able to hold the data is taken, a new trunk file is created
// if there is none. The rest of the block is tracked as a separate free
// block unless it is smaller than the minimal slot size, in which case the
// whole block is handed out.
//
// The returned block is on hold until Confirm is called.
func (a *Allocator) Alloc(storePathIndex int, size uint32) (trunk.FullInfo, error) {
	if err := a.checkIndex(storePathIndex); err != nil {
		return trunk.FullInfo{}, err
	}
	if size == 0 || size > a.trunkFileSize {
		return trunk.FullInfo{}, fmt.Errorf("%w: can't allocate %d bytes in trunk file of %d bytes",
			trunk.ErrInvalidInput, size, a.trunkFileSize)
	}

	a.mtx.Lock()
	defer a.mtx.Unlock()

	res, b, err := a.take(storePathIndex, size)
	if err != nil {
		a.metrics.IncAllocations(ResultFailed)
		return trunk.FullInfo{}, err
	}

	orig := *b

	var rest *trunk.FullInfo

	if b.File.Size-size >= a.slotMinSize {
		rest = &trunk.FullInfo{
			Status: trunk.StatusFree,
			Path:   b.Path,
			File: trunk.FileInfo{
				ID:     b.File.ID,
				Offset: b.File.Offset + size,
				Size:   b.File.Size - size,
			},
		}

		if err := a.add(rest); err != nil {
			a.restore(orig, nil)
			a.metrics.IncAllocations(ResultFailed)
			return trunk.FullInfo{}, fmt.Errorf("split block %s: %w", orig, err)
		}

		b.File.Size = size
	}

	b.Status = trunk.StatusHold

	if err := a.add(b); err != nil {
		a.restore(orig, rest)
		a.metrics.IncAllocations(ResultFailed)
		return trunk.FullInfo{}, fmt.Errorf("hold block %s: %w", b, err)
	}

	a.metrics.IncAllocations(res)

	storagelog.Write(a.log,
		storagelog.OpField(storagelog.OpAlloc),
		storagelog.BlockField(*b),
		storagelog.SizeField(size))

	return *b, nil
}

// restore returns the block taken by a failed Alloc to the free blocks.
// The already tracked remainder of its split is dropped first.
func (a *Allocator) restore(b trunk.FullInfo, rest *trunk.FullInfo) {
	idx := int(b.Path.StorePathIndex)

	if rest != nil {
		if s, i, err := a.lookup(*rest); err == nil {
			a.detach(idx, s, i)
		}
	}

	b.Status = trunk.StatusFree

	if err := a.add(&b); err != nil {
		a.log.Error("can't return block to free space",
			zap.Stringer("block", b),
			zap.Error(err))
	}
}

// take detaches the best fitting free block or creates a new trunk file.
func (a *Allocator) take(idx int, size uint32) (string, *trunk.FullInfo, error) {
	tree := a.trees[idx]
	target := &slot{size: max(size, a.slotMinSize)}

	for {
		s, ok := tree.FindGE(target)
		if !ok {
			break
		}

		i := slices.IndexFunc(s.nodes, func(b *trunk.FullInfo) bool {
			return b.Status != trunk.StatusHold
		})
		if i < 0 {
			if s.size == ^uint32(0) {
				break
			}
			target.size = s.size + 1
			continue
		}

		b := s.nodes[i]
		a.detach(idx, s, i)

		return ResultReused, b, nil
	}

	b, err := a.createTrunkFile(idx)
	if err != nil {
		return ResultFailed, nil, err
	}

	return ResultCreated, b, nil
}

// detach removes i-th block of the slot from the size tree and from the
// registry.
func (a *Allocator) detach(idx int, s *slot, i int) {
	b := s.nodes[i]

	s.nodes = slices.Delete(s.nodes, i, i+1)
	if len(s.nodes) == 0 {
		a.trees[idx].Delete(s)
	}

	if err := a.reg.Delete(*b); err != nil {
		a.log.Error("tracked block is missing in registry",
			zap.Stringer("block", b),
			zap.Error(err))
	}

	if b.Status == trunk.StatusFree {
		a.free[idx] -= uint64(b.File.Size)
		a.metrics.SetFreeSpace(idx, a.free[idx])
	}
}

// add registers the block and puts it in front of its size slot.
func (a *Allocator) add(b *trunk.FullInfo) error {
	idx := int(b.Path.StorePathIndex)

	if err := a.reg.Insert(*b); err != nil {
		return err
	}

	tree := a.trees[idx]

	s, ok := tree.Find(&slot{size: b.File.Size})
	if !ok {
		s = &slot{size: b.File.Size}
		if _, err := tree.Insert(s); err != nil {
			_ = a.reg.Delete(*b)
			return fmt.Errorf("%w: %w", trunk.ErrResourceExhausted, err)
		}
	}

	s.nodes = slices.Insert(s.nodes, 0, b)
	a.lastID = max(a.lastID, b.File.ID)

	if b.Status == trunk.StatusFree {
		a.free[idx] += uint64(b.File.Size)
		a.metrics.SetFreeSpace(idx, a.free[idx])
	}

	return nil
}

// lookup finds the tracked block with the same location as b.
func (a *Allocator) lookup(b trunk.FullInfo) (*slot, int, error) {
	idx := int(b.Path.StorePathIndex)
	if err := a.checkIndex(idx); err != nil {
		return nil, 0, err
	}

	s, ok := a.trees[idx].Find(&slot{size: b.File.Size})
	if ok {
		i := slices.IndexFunc(s.nodes, func(n *trunk.FullInfo) bool {
			return n.Path == b.Path && n.File == b.File
		})
		if i >= 0 {
			return s, i, nil
		}
	}

	return nil, 0, fmt.Errorf("%w: block %s", trunk.ErrNotFound, b)
}

// createTrunkFile announces the next trunk file and returns its only block
// covering the whole file.
func (a *Allocator) createTrunkFile(idx int) (*trunk.FullInfo, error) {
	for range a.maxAttempts {
		a.lastID++

		var id trunk.Identity

		id.ID = a.lastID
		id.Path.StorePathIndex = uint8(idx)
		id.Path.SubPathHigh, id.Path.SubPathLow = subPath(trunk.EncodeTrunkID(id.ID), a.subdirCount)

		err := a.create(id, a.trunkFileSize)
		if errors.Is(err, trunk.ErrConflict) {
			a.log.Debug("trunk file already exists", zap.Stringer("trunk", id))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create trunk file %s: %w", id, err)
		}

		a.metrics.IncTrunkFiles()

		a.log.Info("trunk file created",
			zap.Stringer("trunk", id),
			zap.Uint32("size", a.trunkFileSize))

		return &trunk.FullInfo{
			Status: trunk.StatusFree,
			Path:   id.Path,
			File: trunk.FileInfo{
				ID:   id.ID,
				Size: a.trunkFileSize,
			},
		}, nil
	}

	return nil, fmt.Errorf("%w: no free trunk file id after %d attempts", trunk.ErrResourceExhausted, a.maxAttempts)
}

// Confirm completes the allocation of the held block. If the write
// succeeded (err is nil) or the data is already there (err wraps
// trunk.ErrConflict), the block stops being tracked. Otherwise it becomes
// free again.
func (a *Allocator) Confirm(b trunk.FullInfo, err error) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	s, i, lerr := a.lookup(b)
	if lerr != nil {
		a.log.Warn("confirmed block is not tracked", zap.Stringer("block", b))
		return lerr
	}

	if err == nil || errors.Is(err, trunk.ErrConflict) {
		a.detach(int(b.Path.StorePathIndex), s, i)
		storagelog.Write(a.log, storagelog.OpField(storagelog.OpConsume), storagelog.BlockField(b))
		return nil
	}

	n := s.nodes[i]
	if n.Status != trunk.StatusFree {
		n.Status = trunk.StatusFree

		idx := int(b.Path.StorePathIndex)
		a.free[idx] += uint64(n.File.Size)
		a.metrics.SetFreeSpace(idx, a.free[idx])
	}

	storagelog.Write(a.log,
		storagelog.OpField(storagelog.OpRestore),
		storagelog.BlockField(b),
		zap.Error(err))

	return nil
}

// Free returns the space of a deleted file to the allocator. Blocks smaller
// than the minimal slot size are not tracked and silently dropped. Returns
// trunk.ErrConflict if the block overlaps a tracked one.
func (a *Allocator) Free(b trunk.FullInfo) error {
	if err := a.checkIndex(int(b.Path.StorePathIndex)); err != nil {
		return err
	}

	if b.File.Size < a.slotMinSize {
		a.log.Debug("block is too small to be tracked", zap.Stringer("block", b))
		return nil
	}

	b.Status = trunk.StatusFree

	a.mtx.Lock()
	defer a.mtx.Unlock()

	if err := a.add(&b); err != nil {
		return err
	}

	storagelog.Write(a.log, storagelog.OpField(storagelog.OpFree), storagelog.BlockField(b))

	return nil
}

// Prealloc creates trunk files on the store path until its free space
// reaches the threshold. Returns the number of created files.
func (a *Allocator) Prealloc(storePathIndex int, threshold uint64) (int, error) {
	if err := a.checkIndex(storePathIndex); err != nil {
		return 0, err
	}

	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.free[storePathIndex] >= threshold {
		return 0, nil
	}

	count := (threshold - a.free[storePathIndex]) / uint64(a.trunkFileSize)

	for i := range count {
		b, err := a.createTrunkFile(storePathIndex)
		if err == nil {
			err = a.add(b)
		}
		if err != nil {
			return int(i), err
		}
	}

	a.log.Debug("trunk files created in advance",
		zap.Int("store path", storePathIndex),
		zap.Uint64("count", count))

	return int(count), nil
}

// FreeSpace returns the total size of the free blocks. Blocks on hold are
// not counted.
func (a *Allocator) FreeSpace() uint64 {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	var sum uint64
	for i := range a.free {
		sum += a.free[i]
	}

	return sum
}

// LastID returns the id of the last announced trunk file. Tracked blocks
// of other trunk files move it forward too, so their ids are never
// announced again.
func (a *Allocator) LastID() uint32 {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.lastID
}

// Iterate calls f for each tracked block ordered by store path and size.
// An error returned by f stops the iteration and is returned. f must not
// call Allocator methods.
func (a *Allocator) Iterate(f func(trunk.FullInfo) error) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.iterate(f)
}

func (a *Allocator) iterate(f func(trunk.FullInfo) error) error {
	for _, tree := range a.trees {
		err := tree.Walk(func(s *slot) error {
			for _, b := range s.nodes {
				if err := f(*b); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return nil
}

// Registry returns the registry of the tracked blocks. It must not be used
// concurrently with the Allocator methods.
func (a *Allocator) Registry() *registry.Registry {
	return a.reg
}

// Dump writes the tracked blocks in the registry dump format.
func (a *Allocator) Dump(w io.Writer) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return a.reg.Dump(w)
}

// Save stores the tracked blocks and the last trunk file id.
func (a *Allocator) Save(s *snapshot.Storage) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	return s.Save(a.lastID, a.iterate)
}

// Load replaces the tracked blocks with the stored ones. Blocks saved on
// hold are restored as free since their writes were never confirmed.
func (a *Allocator) Load(s *snapshot.Storage) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.reset()

	lastID, err := s.Load(func(b trunk.FullInfo) error {
		if err := a.checkIndex(int(b.Path.StorePathIndex)); err != nil {
			return err
		}

		b.Status = trunk.StatusFree

		return a.add(&b)
	})
	if err != nil {
		a.reset()
		return fmt.Errorf("load trunk snapshot: %w", err)
	}

	a.lastID = max(a.lastID, lastID)

	a.log.Info("trunk blocks loaded",
		zap.Int("blocks", a.reg.TotalBlockCount()),
		zap.Uint32("last id", a.lastID))

	return nil
}

func (a *Allocator) reset() {
	for i := range a.trees {
		a.trees[i].Destroy()
		a.free[i] = 0
		a.metrics.SetFreeSpace(i, 0)
	}

	a.reg.Close()
}

// Close drops all the tracked blocks.
func (a *Allocator) Close() {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	a.reset()
}
