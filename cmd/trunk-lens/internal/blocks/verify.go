package blocks

import (
	"errors"
	"fmt"
	"strconv"

	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/registry"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var verifyCMD = &cobra.Command{
	Use:   "verify <dump>",
	Short: "Check a block dump for overlaps",
	Long: `Check that blocks of the dump, plain or zstd compressed, neither overlap
nor repeat. Reads stdin if the dump is -. Exits with code 2 on conflicts.`,
	Args: cobra.ExactArgs(1),
	RunE: verifyFunc,
}

func init() {
	common.AddFormatFlag(verifyCMD, &vFormat)
}

// Conflict is the dump block rejected by the registry.
type Conflict struct {
	Block *common.Block `json:"block" yaml:"block"`
	Error string        `json:"error" yaml:"error"`
}

// VerifyReport is the result of the dump check.
type VerifyReport struct {
	Blocks     int        `json:"blocks"      yaml:"blocks"`
	TrunkFiles int        `json:"trunk_files" yaml:"trunk_files"`
	Conflicts  []Conflict `json:"conflicts"   yaml:"conflicts"`
}

func verifyFunc(cmd *cobra.Command, args []string) error {
	_, l, err := readEnv(cmd)
	if err != nil {
		return err
	}

	rc, err := openDump(cmd, args[0])
	if err != nil {
		return err
	}
	defer rc.Close()

	reg := registry.New(registry.WithLogger(l))
	defer reg.Close()

	rep := VerifyReport{Conflicts: []Conflict{}}

	err = registry.ReadDump(rc, func(b trunk.FullInfo) error {
		rep.Blocks++

		err := reg.Insert(b)
		if errors.Is(err, trunk.ErrConflict) {
			rep.Conflicts = append(rep.Conflicts, Conflict{Block: common.NewBlock(b), Error: err.Error()})
			return nil
		}

		return err
	})
	if err != nil {
		return fmt.Errorf("read dump: %w", err)
	}

	rep.TrunkFiles = reg.TreeNodeCount()

	err = common.Print(cmd, vFormat, rep, func(tw *tablewriter.Table) {
		tw.SetHeader([]string{"Store path", "Sub path", "Block", "Error"})
		tw.SetFooter([]string{"Blocks " + strconv.Itoa(rep.Blocks), "Trunk files " + strconv.Itoa(rep.TrunkFiles), "", ""})

		for _, c := range rep.Conflicts {
			tw.Append([]string{
				strconv.Itoa(int(c.Block.StorePathIndex)),
				c.Block.SubPath,
				c.Block.String(),
				c.Error,
			})
		}
	})
	if err != nil {
		return err
	}

	if len(rep.Conflicts) != 0 {
		return common.Failed(fmt.Errorf("%d of %d blocks conflict", len(rep.Conflicts), rep.Blocks))
	}

	return nil
}
