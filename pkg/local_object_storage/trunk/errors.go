package trunk

import "errors"

var (
	// ErrNotFound is returned when the trunk file, block group, block or
	// the logical file itself is missing. A trunk header that does not
	// match the filename also means the file is gone.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a block intersects or duplicates
	// an already tracked one.
	ErrConflict = errors.New("block conflict")

	// ErrInvalidInput is returned for malformed filenames, prefixes
	// and tokens.
	ErrInvalidInput = errors.New("invalid input")

	// ErrResourceExhausted is returned when a configured capacity limit
	// prevents the structure from growing.
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrIO is returned on failed open, seek or short read of the physical
	// trunk file.
	ErrIO = errors.New("trunk file i/o failure")
)
