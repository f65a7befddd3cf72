package trunk

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"strings"
)

// FileInfoLen is the length of the encoded FileInfo token.
const FileInfoLen = 16

// encoding is the filename-safe base64 alphabet used in logical filenames.
// Padding is never produced; '.' pads are tolerated on decoding.
var encoding = base64.RawURLEncoding

const padChar = "."

// EncodeFileInfo returns the filename token of the trunk block range.
func EncodeFileInfo(f FileInfo) string {
	var buf [12]byte

	binary.BigEndian.PutUint32(buf[0:], f.ID)
	binary.BigEndian.PutUint32(buf[4:], f.Offset)
	binary.BigEndian.PutUint32(buf[8:], f.Size)

	return encoding.EncodeToString(buf[:])
}

// DecodeFileInfo parses the token produced by EncodeFileInfo.
func DecodeFileInfo(s string) (FileInfo, error) {
	buf, err := decodeBase64(s, 12)
	if err != nil {
		return FileInfo{}, fmt.Errorf("decode trunk file info: %w", err)
	}

	return FileInfo{
		ID:     binary.BigEndian.Uint32(buf[0:]),
		Offset: binary.BigEndian.Uint32(buf[4:]),
		Size:   binary.BigEndian.Uint32(buf[8:]),
	}, nil
}

func decodeBase64(s string, size int) ([]byte, error) {
	s = strings.TrimRight(s, padChar)

	buf, err := encoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	if len(buf) != size {
		return nil, fmt.Errorf("%w: decoded %d bytes instead of %d", ErrInvalidInput, len(buf), size)
	}

	return buf, nil
}

// EncodeTrunkID returns the short base64 name of the trunk id the data sub
// directory of the trunk file is derived from.
func EncodeTrunkID(id uint32) string {
	var buf [4]byte

	binary.BigEndian.PutUint32(buf[:], id)

	return encoding.EncodeToString(buf[:])
}
