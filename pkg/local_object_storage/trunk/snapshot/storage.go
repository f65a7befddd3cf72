package snapshot

import (
	"encoding/binary"
	"fmt"

	"github.com/nspcc-dev/neofs-trunk/pkg/local_object_storage/trunk"
	"go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Storage persists the set of trunk blocks and the trunk file id counter
// in a bbolt database.
type Storage struct {
	*cfg

	db *bbolt.DB
}

var (
	blocksBucket = []byte("blocks")
	metaBucket   = []byte("meta")

	trunkIDKey = []byte("trunk_id")
)

const (
	keySize   = 12
	valueSize = 5
)

// Open opens or creates the database file with 0o600 rights.
func Open(path string, opts ...Option) (*Storage, error) {
	c := defaultCfg()

	for i := range opts {
		opts[i](c)
	}

	c.log = c.log.With(zap.String("component", "TrunkSnapshot"), zap.String("path", path))

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{
		NoSync:   c.noSync,
		ReadOnly: c.readOnly,
		Timeout:  c.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("can't open bbolt at %s: %w", path, err)
	}

	return &Storage{cfg: c, db: db}, nil
}

// Close closes the database.
func (s *Storage) Close() error {
	return s.db.Close()
}

func blockKey(b trunk.FullInfo) []byte {
	k := make([]byte, keySize)
	k[0] = b.Path.StorePathIndex
	k[1] = b.Path.SubPathHigh
	k[2] = b.Path.SubPathLow
	binary.BigEndian.PutUint32(k[4:], b.File.ID)
	binary.BigEndian.PutUint32(k[8:], b.File.Offset)
	return k
}

func blockValue(b trunk.FullInfo) []byte {
	v := make([]byte, valueSize)
	binary.BigEndian.PutUint32(v, b.File.Size)
	v[4] = byte(b.Status)
	return v
}

func decodeBlock(k, v []byte) (trunk.FullInfo, error) {
	if len(k) != keySize || len(v) != valueSize {
		return trunk.FullInfo{}, fmt.Errorf("%w: unexpected record length: key %d, value %d", trunk.ErrInvalidInput, len(k), len(v))
	}

	return trunk.FullInfo{
		Status: trunk.Status(v[4]),
		Path: trunk.PathInfo{
			StorePathIndex: k[0],
			SubPathHigh:    k[1],
			SubPathLow:     k[2],
		},
		File: trunk.FileInfo{
			ID:     binary.BigEndian.Uint32(k[4:]),
			Offset: binary.BigEndian.Uint32(k[8:]),
			Size:   binary.BigEndian.Uint32(v),
		},
	}, nil
}

// Save replaces the stored content with the blocks passed by iterate to its
// argument and the next trunk file id. Everything is written in a single
// transaction: on error the previous content is kept.
func (s *Storage) Save(nextID uint32, iterate func(func(trunk.FullInfo) error) error) error {
	var n int

	err := s.db.Update(func(tx *bbolt.Tx) error {
		if tx.Bucket(blocksBucket) != nil {
			if err := tx.DeleteBucket(blocksBucket); err != nil {
				return fmt.Errorf("can't drop blocks bucket: %w", err)
			}
		}

		b, err := tx.CreateBucket(blocksBucket)
		if err != nil {
			return fmt.Errorf("can't create blocks bucket: %w", err)
		}

		err = iterate(func(info trunk.FullInfo) error {
			n++
			return b.Put(blockKey(info), blockValue(info))
		})
		if err != nil {
			return fmt.Errorf("can't put block: %w", err)
		}

		m, err := tx.CreateBucketIfNotExists(metaBucket)
		if err != nil {
			return fmt.Errorf("can't create meta bucket: %w", err)
		}

		v := make([]byte, 4)
		binary.BigEndian.PutUint32(v, nextID)

		return m.Put(trunkIDKey, v)
	})
	if err != nil {
		return err
	}

	s.log.Debug("trunk snapshot saved", zap.Int("blocks", n), zap.Uint32("next_id", nextID))

	return nil
}

// Load passes every stored block to f ordered by trunk file and offset and
// returns the saved next trunk file id. Empty database yields no blocks and
// zero id. An error returned by f stops loading and is returned.
func (s *Storage) Load(f func(trunk.FullInfo) error) (uint32, error) {
	var nextID uint32

	err := s.db.View(func(tx *bbolt.Tx) error {
		if m := tx.Bucket(metaBucket); m != nil {
			if v := m.Get(trunkIDKey); v != nil {
				if len(v) != 4 {
					return fmt.Errorf("%w: unexpected trunk id length %d", trunk.ErrInvalidInput, len(v))
				}
				nextID = binary.BigEndian.Uint32(v)
			}
		}

		b := tx.Bucket(blocksBucket)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			info, err := decodeBlock(k, v)
			if err != nil {
				return err
			}
			return f(info)
		})
	})

	return nextID, err
}
