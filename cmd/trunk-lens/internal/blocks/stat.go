package blocks

import (
	"fmt"
	"strconv"

	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/misc"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk/allocator"
	"github.com/nspcc-dev/neofs-trunk/pkg/metrics"
	"github.com/olekukonko/tablewriter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
)

var vPrometheus bool

var statCMD = &cobra.Command{
	Use:   "stat",
	Short: "Summarize free blocks of the snapshot",
	Args:  cobra.NoArgs,
	RunE:  statFunc,
}

func init() {
	common.AddSnapshotFlag(statCMD, &vSnapshot)
	common.AddFormatFlag(statCMD, &vFormat)
	statCMD.Flags().BoolVar(&vPrometheus, "prometheus", false, "Print allocator metrics in the Prometheus text format")
}

// PathStat describes free blocks of the store path.
type PathStat struct {
	StorePathIndex int    `json:"store_path_index" yaml:"store_path_index"`
	Blocks         int    `json:"blocks"           yaml:"blocks"`
	FreeSpace      uint64 `json:"free_space"       yaml:"free_space"`
	Largest        uint32 `json:"largest"          yaml:"largest"`
}

// StatReport summarizes the snapshot.
type StatReport struct {
	TrunkFiles int        `json:"trunk_files" yaml:"trunk_files"`
	Blocks     int        `json:"blocks"      yaml:"blocks"`
	LastID     uint32     `json:"last_id"     yaml:"last_id"`
	FreeSpace  uint64     `json:"free_space"  yaml:"free_space"`
	Paths      []PathStat `json:"store_paths" yaml:"store_paths"`
}

func statFunc(cmd *cobra.Command, _ []string) error {
	var (
		opts []allocator.Option
		reg  *prometheus.Registry
	)

	if vPrometheus {
		reg = prometheus.NewRegistry()
		opts = append(opts, allocator.WithMetrics(metrics.NewTrunkMetricsWithRegisterer(reg, misc.Version)))
	}

	a, c, err := loadAllocator(cmd, opts...)
	if err != nil {
		return err
	}
	defer a.Close()

	if vPrometheus {
		return writeMetrics(cmd, reg)
	}

	rep := StatReport{
		TrunkFiles: a.Registry().TreeNodeCount(),
		Blocks:     a.Registry().TotalBlockCount(),
		LastID:     a.LastID(),
		FreeSpace:  a.FreeSpace(),
		Paths:      make([]PathStat, max(len(c.StorePaths), 1)),
	}

	for i := range rep.Paths {
		rep.Paths[i].StorePathIndex = i
	}

	err = a.Iterate(func(b trunk.FullInfo) error {
		p := &rep.Paths[b.Path.StorePathIndex]

		p.Blocks++
		p.FreeSpace += uint64(b.File.Size)
		p.Largest = max(p.Largest, b.File.Size)

		return nil
	})
	if err != nil {
		return err
	}

	return common.Print(cmd, vFormat, rep, func(tw *tablewriter.Table) {
		tw.SetHeader([]string{"Store path", "Blocks", "Free space", "Largest block"})
		tw.SetFooter([]string{
			"Last id " + strconv.FormatUint(uint64(rep.LastID), 10),
			strconv.Itoa(rep.Blocks),
			strconv.FormatUint(rep.FreeSpace, 10),
			"",
		})

		for _, p := range rep.Paths {
			tw.Append([]string{
				strconv.Itoa(p.StorePathIndex),
				strconv.Itoa(p.Blocks),
				strconv.FormatUint(p.FreeSpace, 10),
				strconv.FormatUint(uint64(p.Largest), 10),
			})
		}
	})
}

func writeMetrics(cmd *cobra.Command, reg *prometheus.Registry) error {
	mfs, err := reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	for _, mf := range mfs {
		if _, err := expfmt.MetricFamilyToText(cmd.OutOrStdout(), mf); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}

	return nil
}
