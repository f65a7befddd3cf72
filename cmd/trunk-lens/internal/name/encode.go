package name

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/util/rand"
	"github.com/spf13/cobra"
)

const (
	flagStorePath = "store-path"
	flagSubPath   = "sub-path"
	flagSource    = "source-id"
	flagTimestamp = "timestamp"
	flagSize      = "size"
	flagCRC       = "crc32"
	flagExt       = "ext"
	flagAppender  = "appender"
	flagTrunkID   = "trunk-id"
	flagOffset    = "offset"
	flagAllocSize = "alloc-size"
)

var encodeCMD = &cobra.Command{
	Use:   "encode",
	Short: "Build a logical filename",
	Long: `Build a logical filename from its fields. The file is placed into a trunk
file if --trunk-id is set. Random parts of the name differ between runs.`,
	Args: cobra.NoArgs,
	RunE: encodeFunc,
}

func init() {
	ff := encodeCMD.Flags()

	ff.Uint8(flagStorePath, 0, "Store path index")
	ff.String(flagSubPath, "00/00", "Data sub directory pair in the HH/HH form")
	ff.Uint32(flagSource, 0, "Source storage server id")
	ff.Uint32(flagTimestamp, 0, "Creation time in Unix seconds, now if zero")
	ff.Uint64(flagSize, 0, "File content size")
	ff.Uint32(flagCRC, 0, "CRC32 of the file content")
	ff.String(flagExt, "", "Extension name without the dot")
	ff.Bool(flagAppender, false, "Mark the file as appender")
	ff.Uint32(flagTrunkID, 0, "Trunk file id, the file is regular if zero")
	ff.Uint32(flagOffset, 0, "Block offset in the trunk file")
	ff.Uint32(flagAllocSize, 0, "Block size, --size plus the header size if zero")
}

func encodeFunc(cmd *cobra.Command, _ []string) error {
	ff := cmd.Flags()

	idx, _ := ff.GetUint8(flagStorePath)
	sub, _ := ff.GetString(flagSubPath)
	src, _ := ff.GetUint32(flagSource)
	ts, _ := ff.GetUint32(flagTimestamp)
	size, _ := ff.GetUint64(flagSize)
	crc, _ := ff.GetUint32(flagCRC)
	ext, _ := ff.GetString(flagExt)
	appender, _ := ff.GetBool(flagAppender)

	high, low, err := parseSubPath(sub)
	if err != nil {
		return fmt.Errorf("invalid --%s: %w", flagSubPath, err)
	}

	if ts == 0 {
		ts = uint32(time.Now().Unix())
	}

	r := rand.New()

	p := trunk.NameParams{
		Path: trunk.PathInfo{
			StorePathIndex: idx,
			SubPathHigh:    high,
			SubPathLow:     low,
		},
		Name: trunk.NameInfo{
			SourceID:  src,
			Timestamp: ts,
			CRC32:     crc,
		},
	}

	if id, _ := ff.GetUint32(flagTrunkID); id != 0 {
		if size > math.MaxUint32-trunk.HeaderSize {
			return fmt.Errorf("size %d does not fit a trunk block", size)
		}

		off, _ := ff.GetUint32(flagOffset)
		alloc, _ := ff.GetUint32(flagAllocSize)
		if alloc == 0 {
			alloc = uint32(size) + trunk.HeaderSize
		}

		p.Name.FileSize = trunk.MaskTrunkFileSize(uint32(size))
		p.Trunk = &trunk.FileInfo{ID: id, Offset: off, Size: alloc}
	} else {
		p.Name.FileSize = trunk.MaskFileSize(size, r)
	}

	if appender {
		p.Name.FileSize |= trunk.AppenderFileMark
	}

	p.ExtName, err = trunk.FormatExtName(ext, r)
	if err != nil {
		return err
	}

	name, err := trunk.BuildFilename(p)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), name)

	return err
}

func parseSubPath(s string) (uint8, uint8, error) {
	high, low, ok := strings.Cut(s, "/")
	if !ok {
		return 0, 0, fmt.Errorf("missing separator in %q", s)
	}

	h, err := strconv.ParseUint(high, 16, 8)
	if err != nil {
		return 0, 0, err
	}

	l, err := strconv.ParseUint(low, 16, 8)
	if err != nil {
		return 0, 0, err
	}

	return uint8(h), uint8(l), nil
}
