package blocks

import (
	"fmt"

	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/config"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/allocator"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/snapshot"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	vSnapshot string
	vFormat   string
)

// Root contains `blocks` command definition.
var Root = &cobra.Command{
	Use:   "blocks",
	Short: "Operations with free trunk blocks",
	Long:  "Operations with free trunk blocks saved in the allocator snapshot and their text dumps.",
}

func init() {
	common.AddConfigFileFlag(Root)

	Root.AddCommand(
		dumpCMD,
		verifyCMD,
		statCMD,
		importCMD,
	)
}

func readEnv(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	c, err := common.ReadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}

	l, err := common.NewLogger(c)
	if err != nil {
		return nil, nil, err
	}

	return c, l, nil
}

func newAllocator(c *config.Config, l *zap.Logger, opts ...allocator.Option) (*allocator.Allocator, error) {
	aOpts, err := c.AllocatorOptions()
	if err != nil {
		return nil, err
	}

	a, err := allocator.New(append(append(aOpts, allocator.WithLogger(l)), opts...)...)
	if err != nil {
		return nil, fmt.Errorf("create allocator: %w", err)
	}

	return a, nil
}

func openSnapshot(c *config.Config, l *zap.Logger, readOnly bool) (*snapshot.Storage, error) {
	path, err := common.SnapshotPath(vSnapshot, c)
	if err != nil {
		return nil, err
	}

	return snapshot.Open(path,
		snapshot.WithLogger(l),
		snapshot.WithTimeout(c.Snapshot.Timeout),
		snapshot.WithReadOnly(readOnly),
	)
}

// loadAllocator returns the allocator filled from the snapshot.
func loadAllocator(cmd *cobra.Command, opts ...allocator.Option) (*allocator.Allocator, *config.Config, error) {
	c, l, err := readEnv(cmd)
	if err != nil {
		return nil, nil, err
	}

	a, err := newAllocator(c, l, opts...)
	if err != nil {
		return nil, nil, err
	}

	s, err := openSnapshot(c, l, true)
	if err != nil {
		return nil, nil, err
	}
	defer s.Close()

	if err := a.Load(s); err != nil {
		return nil, nil, err
	}

	return a, c, nil
}
