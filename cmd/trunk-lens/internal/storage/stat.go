package storage

import (
	"fmt"
	"strconv"
	"time"

	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var vNoFollow bool

var statCMD = &cobra.Command{
	Use:   "stat <filename>...",
	Short: "Resolve logical filenames",
	Long: `Resolve metadata of logical filenames. Slave files stored in trunk files
are resolved to their masters unless --no-follow is set.`,
	Args: cobra.MinimumNArgs(1),
	RunE: statFunc,
}

func init() {
	common.AddFormatFlag(statCMD, &vFormat)
	statCMD.Flags().BoolVar(&vNoFollow, "no-follow", false, "Do not follow slave links")
}

// Stat is the resolved metadata of the logical file.
type Stat struct {
	Name     string        `json:"name"                yaml:"name"`
	Mode     string        `json:"mode"                yaml:"mode"`
	Size     int64         `json:"size"                yaml:"size"`
	ModTime  time.Time     `json:"mod_time"            yaml:"mod_time"`
	Trunk    *common.Block `json:"trunk,omitempty"     yaml:"trunk,omitempty"`
	FileType string        `json:"file_type,omitempty" yaml:"file_type,omitempty"`
}

func newStat(name string, m trunk.Meta) Stat {
	s := Stat{
		Name:    name,
		Mode:    m.Mode.String(),
		Size:    m.Size,
		ModTime: m.ModTime.UTC(),
	}

	if m.Trunk != nil {
		s.Trunk = common.NewBlock(*m.Trunk)
	}
	if m.Header != nil {
		s.FileType = string(rune(m.Header.FileType))
	}

	return s
}

func statFunc(cmd *cobra.Command, args []string) error {
	e, err := openResolver(cmd)
	if err != nil {
		return err
	}

	res := make([]Stat, 0, len(args))

	for _, name := range args {
		var m trunk.Meta

		if vNoFollow {
			var (
				idx      int
				trueName string
			)

			idx, trueName, err = e.paths.Split(name)
			if err == nil {
				m, err = e.r.Lstat(idx, trueName)
			}
		} else {
			m, err = e.r.StatLogical(name)
		}
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", name, err)
		}

		res = append(res, newStat(name, m))
	}

	return common.Print(cmd, vFormat, res, func(tw *tablewriter.Table) {
		tw.SetHeader([]string{"Name", "Mode", "Size", "Modified", "Trunk block"})

		for _, s := range res {
			tw.Append([]string{
				s.Name,
				s.Mode,
				strconv.FormatInt(s.Size, 10),
				s.ModTime.Format(time.RFC3339),
				s.Trunk.String(),
			})
		}
	})
}
