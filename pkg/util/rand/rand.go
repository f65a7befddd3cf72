package rand

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// New returns a generator taking its entropy from crypto/rand. Unlike the
// math/rand ones it needs no seeding, so filename masks are unpredictable.
func New() *mrand.Rand {
	return mrand.New(cryptoSource{})
}

// cryptoSource is math/rand.Source64 over crypto/rand.
type cryptoSource struct{}

// Seed implements math/rand.Source.
func (cryptoSource) Seed(int64) {}

// Int63 implements math/rand.Source.
func (s cryptoSource) Int63() int64 {
	return int64(s.Uint64() >> 1)
}

// Uint64 implements math/rand.Source64.
func (cryptoSource) Uint64() uint64 {
	var buf [8]byte
	_, _ = crand.Read(buf[:]) // always returns nil
	return binary.BigEndian.Uint64(buf[:])
}
