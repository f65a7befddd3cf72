package blocks

import (
	"fmt"

	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/pkg/util"
	"github.com/spf13/cobra"
)

var (
	vOutput   string
	vCompress bool
)

var dumpCMD = &cobra.Command{
	Use:   "dump",
	Short: "Dump free blocks of the snapshot",
	Long: `Print free blocks saved in the allocator snapshot, one per line:

  store_path_index sub_path_high sub_path_low trunk_id offset size

Blocks are ordered by trunk file and offset.`,
	Args: cobra.NoArgs,
	RunE: dumpFunc,
}

func init() {
	ff := dumpCMD.Flags()

	common.AddSnapshotFlag(dumpCMD, &vSnapshot)
	ff.StringVarP(&vOutput, "output", "o", "", "Output file, stdout if empty")
	ff.BoolVar(&vCompress, "compress", false, "Compress the dump with zstd")
}

func dumpFunc(cmd *cobra.Command, _ []string) error {
	a, _, err := loadAllocator(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	write := a.Dump
	if vCompress {
		write = compressed(write)
	}

	if vOutput == "" {
		return write(cmd.OutOrStdout())
	}

	if err := util.WriteFileAtomic(vOutput, 0o640, write); err != nil {
		return fmt.Errorf("write dump: %w", err)
	}

	return nil
}
