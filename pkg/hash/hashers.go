package hash

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
	"github.com/spaolacci/murmur3"
)

// HashFunc computes the full 64-bit hash of a key. The table indexes its
// directory with the low bits of the result.
type HashFunc[K comparable] func(K) uint64

// hashInt64 uses the given hasher function to calculate the hash of a key.
func hashInt64(hasher func(b []byte) uint64, key int64) uint64 {
	buf := make([]byte, binary.MaxVarintLen64)
	binary.PutVarint(buf, key)
	return hasher(buf)
}

// XxHasher returns the xxHash hash of the given key.
func XxHasher(key int64) uint64 {
	return hashInt64(xxhash.Sum64, key)
}

// MurmurHasher returns the MurmurHash3 hash of the given key.
func MurmurHasher(key int64) uint64 {
	return hashInt64(murmur3.Sum64, key)
}

// IdentityHasher returns the key itself. Useful in tests that need full
// control over which directory slot a key lands in.
func IdentityHasher(key int64) uint64 {
	return uint64(key)
}
