package trunk

import (
	"fmt"
	"path/filepath"
)

// dataDir is a directory inside each store path holding the files.
const dataDir = "data"

// StorePaths is a list of store path root directories. The position in the
// list is the store path index.
type StorePaths []string

// TrunkFileName returns the short name of the trunk file with the given id.
func TrunkFileName(id uint32) string {
	return fmt.Sprintf("%06d", id)
}

func (p StorePaths) root(idx int) (string, error) {
	if idx < 0 || idx >= len(p) {
		return "", fmt.Errorf("%w: store path index %d out of [0, %d)", ErrInvalidInput, idx, len(p))
	}
	return p[idx], nil
}

// Split works like SplitFilename and additionally checks that the store
// path index is configured.
func (p StorePaths) Split(logical string) (int, string, error) {
	idx, trueName, err := SplitFilename(logical)
	if err != nil {
		return 0, "", err
	}

	if _, err := p.root(idx); err != nil {
		return 0, "", fmt.Errorf("filename %s: %w", logical, err)
	}

	return idx, trueName, nil
}

// TrunkPath returns the physical path of the trunk file:
// <store path>/data/<HH>/<HH>/<id>.
func (p StorePaths) TrunkPath(id Identity) (string, error) {
	root, err := p.root(int(id.Path.StorePathIndex))
	if err != nil {
		return "", err
	}

	return filepath.Join(root, dataDir,
		fmt.Sprintf("%02X", id.Path.SubPathHigh),
		fmt.Sprintf("%02X", id.Path.SubPathLow),
		TrunkFileName(id.ID)), nil
}

// FilePath returns the physical path of the regular file with the given
// true filename.
func (p StorePaths) FilePath(idx int, trueName string) (string, error) {
	root, err := p.root(idx)
	if err != nil {
		return "", err
	}

	return filepath.Join(root, dataDir, trueName), nil
}
