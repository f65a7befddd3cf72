package name

import (
	"fmt"
	"strconv"
	"time"

	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var decodeCMD = &cobra.Command{
	Use:   "decode <filename>...",
	Short: "Decode logical filenames",
	Long:  "Decode the fields packed into logical filenames without touching the storage.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  decodeFunc,
}

func init() {
	common.AddFormatFlag(decodeCMD, &vFormat)
}

// Decoded is the result of filename decoding.
type Decoded struct {
	Name           string        `json:"name"             yaml:"name"`
	StorePathIndex int           `json:"store_path_index" yaml:"store_path_index"`
	SubPath        string        `json:"sub_path"         yaml:"sub_path"`
	SourceID       uint32        `json:"source_id"        yaml:"source_id"`
	Timestamp      time.Time     `json:"timestamp"        yaml:"timestamp"`
	Size           uint64        `json:"size"             yaml:"size"`
	CRC32          string        `json:"crc32"            yaml:"crc32"`
	Appender       bool          `json:"appender"         yaml:"appender"`
	Slave          bool          `json:"slave"            yaml:"slave"`
	Trunk          *common.Block `json:"trunk,omitempty"  yaml:"trunk,omitempty"`
}

// Decode parses the logical filename.
func Decode(logical string) (Decoded, error) {
	idx, trueName, err := trunk.SplitFilename(logical)
	if err != nil {
		return Decoded{}, err
	}

	if len(trueName) < trunk.TruePathLen+trunk.NameBodyLen {
		return Decoded{}, fmt.Errorf("%w: filename %s is too short", trunk.ErrInvalidInput, logical)
	}

	n, err := trunk.DecodeNameInfo(trueName[trunk.TruePathLen : trunk.TruePathLen+trunk.NameBodyLen])
	if err != nil {
		return Decoded{}, err
	}

	// the length of the name with the store path prefix
	fullLen := len(trueName) + trunk.LogicPathLen - trunk.TruePathLen

	res := Decoded{
		Name:           logical,
		StorePathIndex: idx,
		SubPath:        trueName[:trunk.TruePathLen-1],
		SourceID:       n.SourceID,
		Timestamp:      time.Unix(int64(n.Timestamp), 0).UTC(),
		Size:           n.TrueSize(),
		CRC32:          fmt.Sprintf("%08x", n.CRC32),
		Appender:       n.IsAppender(),
		Slave:          trunk.IsSlaveFile(fullLen, n.FileSize),
	}

	if n.IsTrunk() && len(trueName) == trunk.TrunkFilenameLen {
		b, err := trunk.DecodeTrunkInfo(idx, trueName)
		if err != nil {
			return Decoded{}, err
		}

		res.Trunk = common.NewBlock(b)
		res.SubPath = res.Trunk.SubPath
	}

	return res, nil
}

func decodeFunc(cmd *cobra.Command, args []string) error {
	res := make([]Decoded, 0, len(args))

	for _, a := range args {
		d, err := Decode(a)
		if err != nil {
			return common.Errf("invalid filename: %w", err)
		}
		res = append(res, d)
	}

	return common.Print(cmd, vFormat, res, func(tw *tablewriter.Table) {
		tw.SetHeader([]string{"Name", "Store path", "Sub path", "Source", "Timestamp", "Size", "CRC32", "Flags", "Trunk block"})

		for _, d := range res {
			tw.Append([]string{
				d.Name,
				strconv.Itoa(d.StorePathIndex),
				d.SubPath,
				strconv.FormatUint(uint64(d.SourceID), 10),
				d.Timestamp.Format(time.RFC3339),
				strconv.FormatUint(d.Size, 10),
				d.CRC32,
				flags(d),
				d.Trunk.String(),
			})
		}
	})
}

func flags(d Decoded) string {
	var s string
	if d.Trunk != nil {
		s += "T"
	}
	if d.Appender {
		s += "A"
	}
	if d.Slave {
		s += "S"
	}
	if s == "" {
		return "-"
	}
	return s
}
