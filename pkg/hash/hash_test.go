package hash_test

import (
	"testing"

	"stegodb/pkg/hash"

	"github.com/stretchr/testify/require"
)

func TestFindAndUpsert(t *testing.T) {
	table := hash.NewExtendibleHashTable[int64, int64](8, hash.XxHasher)
	_, found := table.Find(1)
	require.False(t, found)

	table.Insert(1, 10)
	v, found := table.Find(1)
	require.True(t, found)
	require.EqualValues(t, 10, v)

	// Inserting an existing key overwrites its value without growing anything.
	buckets := table.GetNumBuckets()
	table.Insert(1, 20)
	v, found = table.Find(1)
	require.True(t, found)
	require.EqualValues(t, 20, v)
	require.Equal(t, buckets, table.GetNumBuckets())
	require.EqualValues(t, 1, table.Size())
}

func TestRemove(t *testing.T) {
	table := hash.NewExtendibleHashTable[int64, int64](8, hash.XxHasher)
	table.Insert(5, 50)
	require.True(t, table.Remove(5))
	_, found := table.Find(5)
	require.False(t, found)
	// Removing again reports that nothing was there.
	require.False(t, table.Remove(5))
}

// Four keys hashing to 0, 1, 2, 3 with bucket capacity 2 drive the directory
// from global depth 0 to 2, ending with four buckets of local depth 2.
func TestSplitGrowsDirectory(t *testing.T) {
	table := hash.NewExtendibleHashTable[int64, int64](2, hash.IdentityHasher)
	require.EqualValues(t, 0, table.GetGlobalDepth())

	for key := int64(0); key < 4; key++ {
		table.Insert(key, key*100)
	}

	require.EqualValues(t, 2, table.GetGlobalDepth())
	require.EqualValues(t, 4, table.GetNumBuckets())
	for slot := int64(0); slot < 4; slot++ {
		require.EqualValues(t, 2, table.GetLocalDepth(slot))
	}
	for key := int64(0); key < 4; key++ {
		v, found := table.Find(key)
		require.True(t, found, "key %d lost after splits", key)
		require.Equal(t, key*100, v)
	}
}

// A run of identical low bits forces repeated splits from a single insert.
func TestCascadingSplit(t *testing.T) {
	table := hash.NewExtendibleHashTable[int64, int64](2, hash.IdentityHasher)
	// 0 and 8 agree on the low three bits, so they separate only at depth 4.
	table.Insert(0, 1)
	table.Insert(8, 2)
	require.GreaterOrEqual(t, table.GetGlobalDepth(), int64(4))
	v, found := table.Find(0)
	require.True(t, found)
	require.EqualValues(t, 1, v)
	v, found = table.Find(8)
	require.True(t, found)
	require.EqualValues(t, 2, v)
}

func TestManyInserts(t *testing.T) {
	table := hash.NewExtendibleHashTable[int64, int64](8, hash.XxHasher)
	const n = 10_000
	for key := int64(0); key < n; key++ {
		table.Insert(key, -key)
	}
	require.EqualValues(t, n, table.Size())
	for key := int64(0); key < n; key++ {
		v, found := table.Find(key)
		require.True(t, found, "key %d missing", key)
		require.Equal(t, -key, v)
	}
	// Every mapping survives removal of the even keys.
	for key := int64(0); key < n; key += 2 {
		require.True(t, table.Remove(key))
	}
	for key := int64(0); key < n; key++ {
		_, found := table.Find(key)
		require.Equal(t, key%2 == 1, found)
	}
}

func TestMurmurHasherAgreesWithItself(t *testing.T) {
	table := hash.NewExtendibleHashTable[int64, int64](4, hash.MurmurHasher)
	for key := int64(0); key < 1000; key++ {
		table.Insert(key, key)
	}
	for key := int64(0); key < 1000; key++ {
		_, found := table.Find(key)
		require.True(t, found)
	}
}
