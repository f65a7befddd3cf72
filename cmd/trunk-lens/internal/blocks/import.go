package blocks

import (
	"errors"
	"fmt"

	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/registry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var importCMD = &cobra.Command{
	Use:   "import <dump>",
	Short: "Replace snapshot blocks with the dump",
	Long: `Replace the allocator snapshot content with free blocks read from the
dump, plain or zstd compressed. Reads stdin if the dump is -. Blocks smaller
than trunk.slot_min_size are skipped. Nothing is written if any block
overlaps another one.`,
	Args: cobra.ExactArgs(1),
	RunE: importFunc,
}

func init() {
	common.AddSnapshotFlag(importCMD, &vSnapshot)
}

func importFunc(cmd *cobra.Command, args []string) error {
	c, l, err := readEnv(cmd)
	if err != nil {
		return err
	}

	a, err := newAllocator(c, l)
	if err != nil {
		return err
	}
	defer a.Close()

	rc, err := openDump(cmd, args[0])
	if err != nil {
		return err
	}
	defer rc.Close()

	if err := registry.ReadDump(rc, a.Free); err != nil {
		err = fmt.Errorf("read dump: %w", err)
		if errors.Is(err, trunk.ErrConflict) {
			return common.Failed(err)
		}
		return err
	}

	s, err := openSnapshot(c, l, false)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := a.Save(s); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	blocks := a.Registry().TotalBlockCount()

	l.Info("blocks imported",
		zap.Int("blocks", blocks),
		zap.Uint32("last id", a.LastID()))

	_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d blocks imported, last trunk id %d\n", blocks, a.LastID())

	return err
}
