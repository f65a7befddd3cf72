package registry

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"github.com/nspcc-dev/neofs-trunk/pkg/util"
)

// Dump writes every tracked block as a text line
//
//	store_path_index sub_path_high sub_path_low trunk_id offset size
//
// ordered by trunk file identity and offset.
func (r *Registry) Dump(w io.Writer) error {
	bw := bufio.NewWriter(w)

	err := r.Iterate(func(b trunk.FullInfo) error {
		_, err := fmt.Fprintf(bw, "%d %d %d %d %d %d\n",
			b.Path.StorePathIndex, b.Path.SubPathHigh, b.Path.SubPathLow,
			b.File.ID, b.File.Offset, b.File.Size)
		return err
	})
	if err != nil {
		return fmt.Errorf("write block: %w", err)
	}

	return bw.Flush()
}

// DumpToFile writes Dump output into the file. The previous content is
// replaced only if the whole dump has been written.
func (r *Registry) DumpToFile(path string) error {
	err := util.WriteFileAtomic(path, 0o640, r.Dump)
	if err != nil {
		return fmt.Errorf("dump to %s: %w", path, err)
	}

	return nil
}

// ReadDump parses Dump output and passes every block to f. Empty lines are
// skipped. An error returned by f stops reading and is returned.
func ReadDump(rd io.Reader, f func(trunk.FullInfo) error) error {
	s := bufio.NewScanner(rd)

	for line := 1; s.Scan(); line++ {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			continue
		}

		b, err := parseDumpLine(text)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}

		if err := f(b); err != nil {
			return err
		}
	}

	return s.Err()
}

func parseDumpLine(s string) (trunk.FullInfo, error) {
	fields := strings.Fields(s)
	if len(fields) != 6 {
		return trunk.FullInfo{}, fmt.Errorf("%w: %d fields instead of 6", trunk.ErrInvalidInput, len(fields))
	}

	var v [6]uint64

	for i, bits := range [6]int{8, 8, 8, 32, 32, 32} {
		var err error

		v[i], err = strconv.ParseUint(fields[i], 10, bits)
		if err != nil {
			return trunk.FullInfo{}, fmt.Errorf("%w: field #%d: %w", trunk.ErrInvalidInput, i, err)
		}
	}

	return trunk.FullInfo{
		Path: trunk.PathInfo{
			StorePathIndex: uint8(v[0]),
			SubPathHigh:    uint8(v[1]),
			SubPathLow:     uint8(v[2]),
		},
		File: trunk.FileInfo{
			ID:     uint32(v[3]),
			Offset: uint32(v[4]),
			Size:   uint32(v[5]),
		},
	}, nil
}
