package trunk

import (
	"cmp"
	"fmt"
)

// Status is a state of the block tracked by the allocator.
type Status uint8

const (
	// StatusFree marks a block available for allocation.
	StatusFree Status = iota
	// StatusHold marks a block handed out to a writer and waiting for
	// confirmation.
	StatusHold
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusFree:
		return "free"
	case StatusHold:
		return "hold"
	default:
		return fmt.Sprintf("status(%d)", uint8(s))
	}
}

// PathInfo locates the directory of a trunk file: the store path and
// the two-level data sub directory inside it.
type PathInfo struct {
	StorePathIndex uint8
	SubPathHigh    uint8
	SubPathLow     uint8
}

// FileInfo describes a byte range inside the trunk file with the given id.
type FileInfo struct {
	ID     uint32
	Offset uint32
	Size   uint32
}

// End returns the first byte past the range.
func (f FileInfo) End() uint64 {
	return uint64(f.Offset) + uint64(f.Size)
}

// Identity uniquely names a trunk file within the storage node.
type Identity struct {
	Path PathInfo
	ID   uint32
}

// Compare orders identities by store path index, sub path high,
// sub path low and then trunk id.
func (x Identity) Compare(y Identity) int {
	if c := cmp.Compare(x.Path.StorePathIndex, y.Path.StorePathIndex); c != 0 {
		return c
	}
	if c := cmp.Compare(x.Path.SubPathHigh, y.Path.SubPathHigh); c != 0 {
		return c
	}
	if c := cmp.Compare(x.Path.SubPathLow, y.Path.SubPathLow); c != 0 {
		return c
	}
	return cmp.Compare(x.ID, y.ID)
}

// String implements fmt.Stringer.
func (x Identity) String() string {
	return fmt.Sprintf("%d/%02X/%02X/%06d",
		x.Path.StorePathIndex, x.Path.SubPathHigh, x.Path.SubPathLow, x.ID)
}

// FullInfo is a block: a byte range of the particular trunk file together
// with its allocation status.
type FullInfo struct {
	Status Status
	Path   PathInfo
	File   FileInfo
}

// Identity returns the identity of the trunk file the block belongs to.
func (b FullInfo) Identity() Identity {
	return Identity{Path: b.Path, ID: b.File.ID}
}

// Overlaps checks whether two blocks of the same trunk file share at least
// one byte or start at the same offset.
func (b FullInfo) Overlaps(o FullInfo) bool {
	if b.Identity() != o.Identity() {
		return false
	}
	if b.File.Offset == o.File.Offset {
		return true
	}
	return uint64(b.File.Offset) < o.File.End() && uint64(o.File.Offset) < b.File.End()
}

// String implements fmt.Stringer.
func (b FullInfo) String() string {
	return fmt.Sprintf("store_path_index=%d, sub_path_high=%d, sub_path_low=%d, id=%d, offset=%d, size=%d, status=%d",
		b.Path.StorePathIndex, b.Path.SubPathHigh, b.Path.SubPathLow,
		b.File.ID, b.File.Offset, b.File.Size, b.Status)
}
