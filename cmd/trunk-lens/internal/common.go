package common

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/cheggaaa/pb"
	"github.com/nspcc-dev/neofs-trunk/cmd/internal/cmderr"
	"github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal/config"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/util/logger"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"
)

// Flag names shared by the commands.
const (
	FlagConfig   = "config"
	FlagFormat   = "format"
	FlagSnapshot = "snapshot"
	flagProgress = "no-progress"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// Block is the printable trunk block location.
type Block struct {
	StorePathIndex uint8  `json:"store_path_index" yaml:"store_path_index"`
	SubPath        string `json:"sub_path"         yaml:"sub_path"`
	ID             uint32 `json:"id"               yaml:"id"`
	Offset         uint32 `json:"offset"           yaml:"offset"`
	Size           uint32 `json:"size"             yaml:"size"`
}

// NewBlock returns the printable location of b.
func NewBlock(b trunk.FullInfo) *Block {
	return &Block{
		StorePathIndex: b.Path.StorePathIndex,
		SubPath:        fmt.Sprintf("%02X/%02X", b.Path.SubPathHigh, b.Path.SubPathLow),
		ID:             b.File.ID,
		Offset:         b.File.Offset,
		Size:           b.File.Size,
	}
}

// String returns the short "id:offset+size" form of the block.
func (b *Block) String() string {
	if b == nil {
		return ""
	}
	return fmt.Sprintf("%d:%d+%d", b.ID, b.Offset, b.Size)
}

// Errf returns formatted error in errFmt format if err is not nil.
func Errf(errFmt string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf(errFmt, err)
}

// Failed marks the error as a negative command result rather than
// a failure to run the command.
func Failed(err error) error {
	return cmderr.Wrap(cmderr.CodeFailed, err)
}

// AddConfigFileFlag adds the persistent config file flag to the command.
func AddConfigFileFlag(cmd *cobra.Command) {
	cmd.PersistentFlags().StringP(FlagConfig, "c", "",
		"Path to the config file, "+config.DefaultPath+" is used if present")
}

// AddFormatFlag adds the output format flag to the command.
func AddFormatFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVarP(v, FlagFormat, "f", FormatTable, "Output format: table, json or yaml")
}

// AddSnapshotFlag adds the allocator snapshot path flag to the command.
func AddSnapshotFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVar(v, FlagSnapshot, "", "Path to the allocator snapshot, snapshot.path from config by default")
}

// AddNoProgressFlag adds the flag disabling the progress bar.
func AddNoProgressFlag(cmd *cobra.Command) {
	cmd.Flags().Bool(flagProgress, false, "Do not show the progress bar")
}

// ReadConfig loads the configuration from the file passed to the command.
func ReadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString(FlagConfig)

	c, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return c, nil
}

// NewLogger builds the logger writing to stderr from the configuration.
func NewLogger(c *config.Config) (*zap.Logger, error) {
	l, err := logger.NewLogger(logger.Prm{
		Level:       c.Logger.Level,
		Encoding:    c.Logger.Encoding,
		Timestamp:   c.Logger.Timestamp,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return l, nil
}

// SnapshotPath returns the snapshot path from the flag or the config.
func SnapshotPath(flag string, c *config.Config) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if c.Snapshot.Path != "" {
		return c.Snapshot.Path, nil
	}
	return "", fmt.Errorf("no snapshot path: set --%s or snapshot.path", FlagSnapshot)
}

// Print writes v to the command output in the given format. The table
// callback fills the table for the table format.
func Print(cmd *cobra.Command, format string, v any, table func(*tablewriter.Table)) error {
	w := cmd.OutOrStdout()

	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	case FormatTable:
		tw := tablewriter.NewWriter(w)
		tw.SetAutoWrapText(false)
		tw.SetAlignment(tablewriter.ALIGN_LEFT)
		table(tw)
		tw.Render()
		return nil
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// NewProgressBar returns started progress bar of total steps drawn on
// stderr. Returns nil if stderr is not a terminal or the progress is
// disabled by the flag.
func NewProgressBar(cmd *cobra.Command, total int) *pb.ProgressBar {
	if off, _ := cmd.Flags().GetBool(flagProgress); off {
		return nil
	}

	f, ok := cmd.ErrOrStderr().(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return nil
	}

	p := pb.New(total)
	p.Output = f
	p.ShowSpeed = true

	return p.Start()
}
