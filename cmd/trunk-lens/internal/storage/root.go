package storage

import (
	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/config"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var vFormat string

// Root contains `storage` command definition.
var Root = &cobra.Command{
	Use:   "storage",
	Short: "Operations with files of the store paths",
}

func init() {
	common.AddConfigFileFlag(Root)

	Root.AddCommand(
		statCMD,
		checkCMD,
	)
}

type env struct {
	cfg   *config.Config
	log   *zap.Logger
	paths trunk.StorePaths
	r     *trunk.Resolver
}

func openResolver(cmd *cobra.Command) (*env, error) {
	c, err := common.ReadConfig(cmd)
	if err != nil {
		return nil, err
	}

	l, err := common.NewLogger(c)
	if err != nil {
		return nil, err
	}

	paths, err := c.Paths()
	if err != nil {
		return nil, err
	}

	r, err := trunk.NewResolver(paths,
		trunk.WithLogger(l),
		trunk.WithDecodeCacheSize(c.Trunk.DecodeCacheSize),
	)
	if err != nil {
		return nil, err
	}

	return &env{cfg: c, log: l, paths: paths, r: r}, nil
}
