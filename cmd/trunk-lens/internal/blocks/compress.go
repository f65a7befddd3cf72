package blocks

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/spf13/cobra"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

type dumpReader struct {
	io.Reader
	closers []func()
}

func (r *dumpReader) Close() error {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	return nil
}

// openDump opens the dump file, - means stdin. Compressed dumps are
// detected by the zstd frame magic.
func openDump(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	r := new(dumpReader)

	var in io.Reader

	if path == "-" {
		in = cmd.InOrStdin()
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open dump: %w", err)
		}

		in = f
		r.closers = append(r.closers, func() { _ = f.Close() })
	}

	br := bufio.NewReader(in)
	r.Reader = br

	magic, _ := br.Peek(len(zstdMagic))
	if bytes.Equal(magic, zstdMagic) {
		zr, err := zstd.NewReader(br)
		if err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("create zstd reader: %w", err)
		}

		r.Reader = zr
		r.closers = append(r.closers, zr.Close)
	}

	return r, nil
}

// compressed wraps the dump writer with the zstd encoder.
func compressed(write func(io.Writer) error) func(io.Writer) error {
	return func(w io.Writer) error {
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return fmt.Errorf("create zstd writer: %w", err)
		}

		if err := write(zw); err != nil {
			_ = zw.Close()
			return err
		}

		return zw.Close()
	}
}
