package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"

	common "github.com/nspcc-dev/neofs-trunk/cmd/trunk-lens/internal"
	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/util"
	"github.com/nspcc-dev/neofs-trunk/pkg/util/grace"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	vInput string
	vRead  bool
)

var checkCMD = &cobra.Command{
	Use:   "check [filename]...",
	Short: "Check that logical filenames resolve",
	Long: `Resolve logical filenames given as arguments or read from the input file,
one per line, and report the ones that can not be resolved. Exits with
code 2 if any filename fails.`,
	RunE: checkFunc,
}

func init() {
	ff := checkCMD.Flags()

	common.AddFormatFlag(checkCMD, &vFormat)
	common.AddNoProgressFlag(checkCMD)
	ff.StringVarP(&vInput, "input", "i", "", "File with filenames to check, - for stdin")
	ff.BoolVar(&vRead, "read", false, "Read the content of files stored in trunk files")
}

// Failure kinds.
const (
	KindNotFound = "not found"
	KindInvalid  = "invalid"
	KindIO       = "io"
	KindOther    = "other"
)

// Failure describes the filename that could not be resolved.
type Failure struct {
	Name  string `json:"name"  yaml:"name"`
	Kind  string `json:"kind"  yaml:"kind"`
	Error string `json:"error" yaml:"error"`
}

// Report is the result of the check.
type Report struct {
	Total    int       `json:"total"    yaml:"total"`
	Resolved int       `json:"resolved" yaml:"resolved"`
	Failures []Failure `json:"failures" yaml:"failures"`
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, trunk.ErrNotFound):
		return KindNotFound
	case errors.Is(err, trunk.ErrInvalidInput):
		return KindInvalid
	case errors.Is(err, trunk.ErrIO):
		return KindIO
	default:
		return KindOther
	}
}

func readNames(cmd *cobra.Command, args []string) ([]string, error) {
	names := slices.Clone(args)

	if vInput == "" {
		return names, nil
	}

	var in io.Reader

	if vInput == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(vInput)
		if err != nil {
			return nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()

		in = f
	}

	s := bufio.NewScanner(in)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		names = append(names, line)
	}

	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return names, nil
}

func checkName(r *trunk.Resolver, name string, read bool) error {
	m, err := r.StatLogical(name)
	if err != nil {
		return err
	}

	if read && m.Trunk != nil {
		_, err = r.ReadContent(*m.Trunk, m.Size)
	}

	return err
}

func checkFunc(cmd *cobra.Command, args []string) error {
	e, err := openResolver(cmd)
	if err != nil {
		return err
	}

	names, err := readNames(cmd, args)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("no filenames to check")
	}

	ctx, cancel := grace.NewGracefulContext(cmd.Context(), e.log)
	defer cancel()

	pool, err := util.NewWorkerPool(e.cfg.Workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	bar := common.NewProgressBar(cmd, len(names))

	var (
		mtx sync.Mutex
		rep = Report{Total: len(names), Failures: []Failure{}}
	)

	for _, name := range names {
		if ctx.Err() != nil {
			break
		}

		err = pool.Go(func() {
			err := checkName(e.r, name, vRead)

			mtx.Lock()
			if err != nil {
				rep.Failures = append(rep.Failures, Failure{Name: name, Kind: failureKind(err), Error: err.Error()})
			} else {
				rep.Resolved++
			}
			mtx.Unlock()

			if bar != nil {
				bar.Increment()
			}
		})
		if err != nil {
			break
		}
	}

	pool.Wait()

	if bar != nil {
		bar.Finish()
	}

	if err != nil {
		return fmt.Errorf("submit check: %w", err)
	}
	if ctx.Err() != nil {
		return fmt.Errorf("check interrupted after %d of %d filenames", rep.Resolved+len(rep.Failures), rep.Total)
	}

	slices.SortFunc(rep.Failures, func(a, b Failure) int {
		return strings.Compare(a.Name, b.Name)
	})

	e.log.Debug("filenames checked",
		zap.Int("total", rep.Total),
		zap.Int("failed", len(rep.Failures)))

	err = common.Print(cmd, vFormat, rep, func(tw *tablewriter.Table) {
		tw.SetHeader([]string{"Name", "Kind", "Error"})
		tw.SetFooter([]string{"Total " + strconv.Itoa(rep.Total), "Resolved " + strconv.Itoa(rep.Resolved), ""})

		for _, f := range rep.Failures {
			tw.Append([]string{f.Name, f.Kind, f.Error})
		}
	})
	if err != nil {
		return err
	}

	if len(rep.Failures) != 0 {
		return common.Failed(fmt.Errorf("%d of %d filenames failed", len(rep.Failures), rep.Total))
	}

	return nil
}
