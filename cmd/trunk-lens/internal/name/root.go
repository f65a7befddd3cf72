package name

import (
	"github.com/spf13/cobra"
)

var vFormat string

// Root contains `name` command definition.
var Root = &cobra.Command{
	Use:   "name",
	Short: "Operations with logical filenames",
}

func init() {
	Root.AddCommand(
		decodeCMD,
		encodeCMD,
	)
}
