package trunk

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// maxLinkTargetLen limits the logical filename stored in a slave block.
const maxLinkTargetLen = 127

// Meta is the stat-like description of the logical file.
type Meta struct {
	Mode    fs.FileMode
	Size    int64
	ModTime time.Time

	// Trunk and Header are set for files stored inside a trunk file.
	Trunk  *FullInfo
	Header *Header
}

// IsSymlink checks whether the file refers to another one.
func (m Meta) IsSymlink() bool {
	return m.Mode&fs.ModeSymlink != 0
}

// Resolver resolves logical filenames to their metadata using the files of
// the store paths. Resolver is safe for concurrent use.
type Resolver struct {
	*cfg

	paths StorePaths
	cache *lru.Cache[string, NameInfo]
}

// Option is a Resolver's constructor option.
type Option func(*cfg)

type cfg struct {
	log       *zap.Logger
	cacheSize int
}

func defaultCfg() *cfg {
	return &cfg{
		log:       zap.L(),
		cacheSize: 1024,
	}
}

// WithLogger returns option to specify Resolver's logger.
func WithLogger(l *zap.Logger) Option {
	return func(c *cfg) {
		c.log = l
	}
}

// WithDecodeCacheSize returns option to specify the number of decoded
// filename bodies kept in memory. Zero disables caching.
func WithDecodeCacheSize(n int) Option {
	return func(c *cfg) {
		c.cacheSize = n
	}
}

// NewResolver creates Resolver over the given store paths.
func NewResolver(paths StorePaths, opts ...Option) (*Resolver, error) {
	c := defaultCfg()

	for i := range opts {
		opts[i](c)
	}

	c.log = c.log.With(zap.String("component", "TrunkResolver"))

	r := &Resolver{
		cfg:   c,
		paths: paths,
	}

	if c.cacheSize > 0 {
		var err error

		r.cache, err = lru.New[string, NameInfo](c.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("create decode cache: %w", err)
		}
	}

	return r, nil
}

func (r *Resolver) decodeName(body string) (NameInfo, error) {
	if r.cache != nil {
		if n, ok := r.cache.Get(body); ok {
			return n, nil
		}
	}

	n, err := DecodeNameInfo(body)
	if err != nil {
		return NameInfo{}, err
	}

	if r.cache != nil {
		r.cache.Add(body, n)
	}

	return n, nil
}

// StatLogical resolves the logical filename following one slave hop.
func (r *Resolver) StatLogical(logical string) (Meta, error) {
	idx, trueName, err := r.paths.Split(logical)
	if err != nil {
		return Meta{}, err
	}

	return r.Stat(idx, trueName)
}

// Lstat resolves the file without following the slave link.
func (r *Resolver) Lstat(storePathIndex int, trueName string) (Meta, error) {
	return r.stat(storePathIndex, trueName, false)
}

// Stat resolves the file. If the file is a slave block of a trunk file, its
// master is resolved instead. Only one hop is done: the master is returned
// as is even if it is a link itself.
func (r *Resolver) Stat(storePathIndex int, trueName string) (Meta, error) {
	m, err := r.stat(storePathIndex, trueName, true)
	if err != nil {
		return Meta{}, err
	}

	if m.Trunk == nil || !m.IsSymlink() {
		return m, nil
	}

	if m.Size > maxLinkTargetLen {
		return Meta{}, fmt.Errorf("%w: link target length %d exceeds %d", ErrInvalidInput, m.Size, maxLinkTargetLen)
	}

	target, err := r.ReadContent(*m.Trunk, m.Size)
	if err != nil {
		return Meta{}, fmt.Errorf("read link target: %w", err)
	}

	masterIdx, masterName, err := r.paths.Split(string(target))
	if err != nil {
		r.log.Error("invalid link target",
			zap.String("filename", trueName),
			zap.ByteString("target", target),
			zap.Error(err))
		return Meta{}, err
	}

	return r.stat(masterIdx, masterName, true)
}

func (r *Resolver) stat(storePathIndex int, trueName string, follow bool) (Meta, error) {
	if len(trueName) != TrunkFilenameLen {
		return r.statRegular(storePathIndex, trueName, follow)
	}

	n, err := r.decodeName(trueName[TruePathLen : TruePathLen+NameBodyLen])
	if err != nil {
		return Meta{}, err
	}

	if !n.IsTrunk() {
		// slave file of a regular master
		return r.statRegular(storePathIndex, trueName, follow)
	}

	info, err := DecodeTrunkInfo(storePathIndex, trueName)
	if err != nil {
		return Meta{}, err
	}

	exp := Header{
		AllocSize: info.File.Size,
		FileSize:  uint32(n.TrueSize()),
		CRC32:     n.CRC32,
		MTime:     n.Timestamp,
		ExtName:   trueName[len(trueName)-FormattedExtNameLen:],
	}

	raw, err := r.readAt(info, int64(info.File.Offset), HeaderSize)
	if err != nil {
		return Meta{}, err
	}

	exp.FileType = FileType(raw[headerTypeOffset])

	var mode fs.FileMode

	switch exp.FileType {
	case FileTypeRegular:
	case FileTypeLink:
		mode = fs.ModeSymlink
	case FileTypeNone:
		return Meta{}, fmt.Errorf("%w: block is released: %s", ErrNotFound, info)
	default:
		r.log.Error("invalid trunk file type",
			zap.Stringer("block", info),
			zap.Uint8("type", uint8(exp.FileType)))
		return Meta{}, fmt.Errorf("%w: unknown file type %d of block: %s", ErrNotFound, exp.FileType, info)
	}

	packed, err := exp.MarshalBinary()
	if err != nil {
		return Meta{}, err
	}

	if !bytes.Equal(packed, raw) {
		r.log.Debug("trunk header mismatch",
			zap.String("filename", trueName),
			zap.Stringer("expected", exp))
		return Meta{}, fmt.Errorf("%w: header does not match the filename %s", ErrNotFound, trueName)
	}

	return Meta{
		Mode:    mode,
		Size:    int64(exp.FileSize),
		ModTime: time.Unix(int64(exp.MTime), 0),
		Trunk:   &info,
		Header:  &exp,
	}, nil
}

func (r *Resolver) statRegular(storePathIndex int, trueName string, follow bool) (Meta, error) {
	p, err := r.paths.FilePath(storePathIndex, trueName)
	if err != nil {
		return Meta{}, err
	}

	var fi fs.FileInfo
	if follow {
		fi, err = os.Stat(p)
	} else {
		fi, err = os.Lstat(p)
	}
	if err != nil {
		return Meta{}, wrapOSError(err)
	}

	return Meta{
		Mode:    fi.Mode(),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}, nil
}

// ReadContent reads size bytes of the file content stored in the block.
func (r *Resolver) ReadContent(info FullInfo, size int64) ([]byte, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative content size %d", ErrInvalidInput, size)
	}
	return r.readAt(info, int64(info.File.Offset)+HeaderSize, size)
}

func (r *Resolver) readAt(info FullInfo, off, size int64) ([]byte, error) {
	p, err := r.paths.TrunkPath(info.Identity())
	if err != nil {
		return nil, err
	}

	f, err := os.Open(p)
	if err != nil {
		return nil, wrapOSError(err)
	}
	defer f.Close()

	buf := make([]byte, size)

	_, err = f.ReadAt(buf, off)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: short read of %d bytes at %d from %s", ErrIO, size, off, p)
		}
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	return buf, nil
}

func wrapOSError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %w", ErrIO, err)
}
