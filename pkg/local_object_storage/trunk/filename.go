package trunk

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// StorePathPrefix starts the store path part of a logical filename.
const StorePathPrefix = 'M'

// Lengths of logical filename parts. The logical filename of a trunk file
// is "M<XX>/<HH>/<HH>/<body><token><ext>", the one of a regular file lacks
// the token. The part after the store path prefix is called true filename.
const (
	// LogicPathLen is the length of "MXX/HH/HH/".
	LogicPathLen = 10
	// TruePathLen is the length of "HH/HH/".
	TruePathLen = 6
	// NameBodyLen is the length of the encoded NameInfo.
	NameBodyLen = 27

	TrunkFilenameLen       = TruePathLen + NameBodyLen + FileInfoLen + FormattedExtNameLen
	TrunkLogicFilenameLen  = TrunkFilenameLen + LogicPathLen - TruePathLen
	NormalLogicFilenameLen = LogicPathLen + NameBodyLen + FormattedExtNameLen
)

// Marks carried in the high bits of the NameInfo.FileSize.
const (
	TrunkFileMark    uint64 = 1 << 59
	AppenderFileMark uint64 = 1 << 58
)

const (
	randSizeMark = 1 << 63
	trueSizeMask = 0xFFFFFFFF
)

// NameInfo is the payload of the logical filename body.
type NameInfo struct {
	SourceID  uint32
	Timestamp uint32
	// FileSize is the masked size: for trunk files it carries TrunkFileMark
	// and for small regular files random high bits.
	FileSize uint64
	CRC32    uint32
}

// IsTrunk checks whether the file is stored inside a trunk file.
func (n NameInfo) IsTrunk() bool {
	return n.FileSize&TrunkFileMark != 0
}

// IsAppender checks whether the file may be appended to.
func (n NameInfo) IsAppender() bool {
	return IsAppenderFile(n.FileSize)
}

// TrueSize returns the size of the file content with the marks cleared.
func (n NameInfo) TrueSize() uint64 {
	if n.IsTrunk() || n.FileSize&randSizeMark != 0 {
		return n.FileSize & trueSizeMask
	}
	return n.FileSize
}

// EncodeNameInfo returns the NameBodyLen-long filename body.
func EncodeNameInfo(n NameInfo) string {
	var buf [20]byte

	binary.BigEndian.PutUint32(buf[0:], n.SourceID)
	binary.BigEndian.PutUint32(buf[4:], n.Timestamp)
	binary.BigEndian.PutUint64(buf[8:], n.FileSize)
	binary.BigEndian.PutUint32(buf[16:], n.CRC32)

	return encoding.EncodeToString(buf[:])
}

// DecodeNameInfo parses the filename body produced by EncodeNameInfo.
func DecodeNameInfo(body string) (NameInfo, error) {
	buf, err := decodeBase64(body, 20)
	if err != nil {
		return NameInfo{}, fmt.Errorf("decode filename body: %w", err)
	}

	return NameInfo{
		SourceID:  binary.BigEndian.Uint32(buf[0:]),
		Timestamp: binary.BigEndian.Uint32(buf[4:]),
		FileSize:  binary.BigEndian.Uint64(buf[8:]),
		CRC32:     binary.BigEndian.Uint32(buf[16:]),
	}, nil
}

// SplitFilename splits the logical filename into the store path index
// and the true filename. Names without the "MXX/" prefix belong to the
// store path 0. The index is not checked against configured paths, use
// StorePaths.Split for that.
func SplitFilename(logical string) (int, string, error) {
	if len(logical) <= LogicPathLen {
		return 0, "", fmt.Errorf("%w: filename length %d <= %d", ErrInvalidInput, len(logical), LogicPathLen)
	}

	if logical[0] != StorePathPrefix {
		return 0, logical, nil
	}

	if logical[3] != '/' {
		return 0, "", fmt.Errorf("%w: filename %s has malformed store path", ErrInvalidInput, logical)
	}

	idx, err := strconv.ParseUint(logical[1:3], 16, 8)
	if err != nil {
		return 0, "", fmt.Errorf("%w: filename %s has malformed store path index: %w", ErrInvalidInput, logical, err)
	}

	return int(idx), logical[4:], nil
}

// DecodeTrunkInfo extracts the trunk block location from the true filename
// of a trunk file.
func DecodeTrunkInfo(storePathIndex int, trueName string) (FullInfo, error) {
	if len(trueName) != TrunkFilenameLen {
		return FullInfo{}, fmt.Errorf("%w: trunk filename length %d != %d", ErrInvalidInput, len(trueName), TrunkFilenameLen)
	}

	if storePathIndex < 0 || storePathIndex > 0xFF {
		return FullInfo{}, fmt.Errorf("%w: store path index %d", ErrInvalidInput, storePathIndex)
	}

	high, low, err := parseSubPath(trueName)
	if err != nil {
		return FullInfo{}, err
	}

	f, err := DecodeFileInfo(trueName[TruePathLen+NameBodyLen : TruePathLen+NameBodyLen+FileInfoLen])
	if err != nil {
		return FullInfo{}, err
	}

	return FullInfo{
		Path: PathInfo{
			StorePathIndex: uint8(storePathIndex),
			SubPathHigh:    high,
			SubPathLow:     low,
		},
		File: f,
	}, nil
}

func parseSubPath(trueName string) (uint8, uint8, error) {
	if len(trueName) < TruePathLen || trueName[2] != '/' || trueName[5] != '/' {
		return 0, 0, fmt.Errorf("%w: filename %s has malformed sub path", ErrInvalidInput, trueName)
	}

	high, err := strconv.ParseUint(trueName[0:2], 16, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sub path high: %w", ErrInvalidInput, err)
	}

	low, err := strconv.ParseUint(trueName[3:5], 16, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: sub path low: %w", ErrInvalidInput, err)
	}

	return uint8(high), uint8(low), nil
}

// IsTrunkFile checks whether the logical filename refers to a file stored
// inside a trunk file.
func IsTrunkFile(logical string) bool {
	if len(logical) != TrunkLogicFilenameLen {
		return false
	}

	n, err := DecodeNameInfo(logical[LogicPathLen : LogicPathLen+NameBodyLen])
	return err == nil && n.IsTrunk()
}

// IsSlaveFile checks whether the logical filename of the given length and
// decoded file size names a slave file.
func IsSlaveFile(nameLen int, fileSize uint64) bool {
	return nameLen > TrunkLogicFilenameLen ||
		(nameLen > NormalLogicFilenameLen && fileSize&TrunkFileMark == 0)
}

// IsAppenderFile checks the appender mark of the decoded file size.
func IsAppenderFile(fileSize uint64) bool {
	return fileSize&AppenderFileMark != 0
}

// MaskTrunkFileSize returns the name size field of the trunk file with
// the given content size.
func MaskTrunkFileSize(size uint32) uint64 {
	return TrunkFileMark | uint64(size)
}

// MaskFileSize returns the name size field of a regular file. Sizes below
// 4GiB get random high bits so that equal files get different names.
func MaskFileSize(size uint64, r *rand.Rand) uint64 {
	if size>>32 != 0 {
		return size
	}

	hi := uint64(r.Uint32()&0x007FFFFF | 0x80000000)
	return hi<<32 | size
}

// FormatExtName pads the extension (without the dot) with random digits to
// the FormattedExtNameLen length. An empty extension turns into digits only.
func FormatExtName(ext string, r *rand.Rand) (string, error) {
	if len(ext) > ExtNameMaxLen {
		return "", fmt.Errorf("%w: ext name %q is longer than %d", ErrInvalidInput, ext, ExtNameMaxLen)
	}

	padLen := ExtNameMaxLen - len(ext)
	if ext == "" {
		padLen = FormattedExtNameLen
	}

	var sb strings.Builder
	sb.Grow(FormattedExtNameLen)

	for range padLen {
		sb.WriteByte('0' + byte(r.Intn(10)))
	}

	if ext != "" {
		sb.WriteByte('.')
		sb.WriteString(ext)
	}

	return sb.String(), nil
}

// NameParams groups the values the logical filename is built from.
type NameParams struct {
	Path PathInfo
	Name NameInfo
	// Trunk is set for files stored inside a trunk file. Its presence forces
	// TrunkFileMark in the name size field.
	Trunk *FileInfo
	// ExtName is the result of FormatExtName.
	ExtName string
}

// BuildFilename returns the logical filename for the given parameters.
func BuildFilename(p NameParams) (string, error) {
	if len(p.ExtName) != FormattedExtNameLen {
		return "", fmt.Errorf("%w: formatted ext name %q length %d != %d",
			ErrInvalidInput, p.ExtName, len(p.ExtName), FormattedExtNameLen)
	}

	n := p.Name
	if p.Trunk != nil {
		n.FileSize |= TrunkFileMark
	}

	var sb strings.Builder
	sb.Grow(TrunkLogicFilenameLen)

	fmt.Fprintf(&sb, "%c%02X/%02X/%02X/", StorePathPrefix,
		p.Path.StorePathIndex, p.Path.SubPathHigh, p.Path.SubPathLow)
	sb.WriteString(EncodeNameInfo(n))

	if p.Trunk != nil {
		sb.WriteString(EncodeFileInfo(*p.Trunk))
	}

	sb.WriteString(p.ExtName)

	return sb.String(), nil
}
