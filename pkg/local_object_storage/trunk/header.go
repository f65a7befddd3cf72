package trunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// FileType is a kind of the logical file stored in the trunk block.
type FileType byte

const (
	// FileTypeNone marks a released block.
	FileTypeNone FileType = 0
	// FileTypeRegular marks a block holding file content.
	FileTypeRegular FileType = 'F'
	// FileTypeLink marks a block holding the logical filename of a master
	// file (slave file).
	FileTypeLink FileType = 'L'
)

// ExtNameMaxLen is the maximum length of the file extension without the dot.
const ExtNameMaxLen = 6

// FormattedExtNameLen is the length of the random-padded extension suffix
// of every logical filename.
const FormattedExtNameLen = ExtNameMaxLen + 1

// HeaderSize is the size of the binary block header.
const HeaderSize = 17 + ExtNameMaxLen + 1

const (
	headerTypeOffset      = 0
	headerAllocSizeOffset = 1
	headerFileSizeOffset  = 5
	headerCRC32Offset     = 9
	headerMTimeOffset     = 13
	headerExtNameOffset   = 17
)

// Header is written at the beginning of every allocated trunk block and
// repeats what the logical filename claims about the file.
type Header struct {
	FileType  FileType
	AllocSize uint32
	FileSize  uint32
	CRC32     uint32
	MTime     uint32
	// ExtName is the formatted extension, at most FormattedExtNameLen bytes.
	ExtName string
}

// MarshalBinary encodes the header into HeaderSize bytes. Unused ext name
// bytes are zeroed.
func (h Header) MarshalBinary() ([]byte, error) {
	if len(h.ExtName) > FormattedExtNameLen {
		return nil, fmt.Errorf("%w: ext name %q exceeds %d bytes", ErrInvalidInput, h.ExtName, FormattedExtNameLen)
	}

	b := make([]byte, HeaderSize)
	b[headerTypeOffset] = byte(h.FileType)
	binary.BigEndian.PutUint32(b[headerAllocSizeOffset:], h.AllocSize)
	binary.BigEndian.PutUint32(b[headerFileSizeOffset:], h.FileSize)
	binary.BigEndian.PutUint32(b[headerCRC32Offset:], h.CRC32)
	binary.BigEndian.PutUint32(b[headerMTimeOffset:], h.MTime)
	copy(b[headerExtNameOffset:], h.ExtName)

	return b, nil
}

// UnmarshalBinary decodes the header from exactly HeaderSize bytes.
func (h *Header) UnmarshalBinary(b []byte) error {
	if len(b) != HeaderSize {
		return fmt.Errorf("%w: header length %d instead of %d", ErrInvalidInput, len(b), HeaderSize)
	}

	h.FileType = FileType(b[headerTypeOffset])
	h.AllocSize = binary.BigEndian.Uint32(b[headerAllocSizeOffset:])
	h.FileSize = binary.BigEndian.Uint32(b[headerFileSizeOffset:])
	h.CRC32 = binary.BigEndian.Uint32(b[headerCRC32Offset:])
	h.MTime = binary.BigEndian.Uint32(b[headerMTimeOffset:])

	ext := b[headerExtNameOffset:]
	if i := bytes.IndexByte(ext, 0); i >= 0 {
		ext = ext[:i]
	}
	h.ExtName = string(ext)

	return nil
}

// String implements fmt.Stringer.
func (h Header) String() string {
	return fmt.Sprintf("file_type=%d, alloc_size=%d, file_size=%d, crc32=%d, mtime=%d, ext_name(%d)=%s",
		h.FileType, h.AllocSize, h.FileSize, h.CRC32, h.MTime, len(h.ExtName), h.ExtName)
}
