package main

import (
	"os"

	"github.com/nspcc-dev/neofs-trunk/cmd/internal/cmderr"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/blocks"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/name"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/storage"
	"github.com/nspcc-dev/neofs-trunk/misc"
	"github.com/nspcc-dev/neofs-trunk/pkg/util/autocomplete"
	"github.com/spf13/cobra"
)

var command = &cobra.Command{
	Use:   "trunk-lens",
	Short: "Trunk Storage Lens",
	Long: `Trunk Storage Lens provides tools to decode logical filenames, resolve them
against the store paths and inspect free blocks of trunk files.`,
	RunE:          entryPoint,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func entryPoint(cmd *cobra.Command, _ []string) error {
	printVersion, _ := cmd.Flags().GetBool("version")
	if printVersion {
		cmd.Print(misc.BuildInfo("Trunk Lens"))

		return nil
	}

	return cmd.Usage()
}

func init() {
	// use stdout as default output for cmd.Print()
	command.SetOut(os.Stdout)
	command.Flags().Bool("version", false, "Application version")
	command.AddCommand(
		name.Root,
		storage.Root,
		blocks.Root,
		autocomplete.Command("trunk-lens"),
	)
}

func main() {
	err := command.Execute()
	cmderr.ExitOnErr(err)
}
