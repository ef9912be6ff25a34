package btree_test

import (
	"math/rand"
	"sort"
	"strings"
	"sync"
	"testing"

	"stegodb/pkg/btree"
	"stegodb/pkg/testutils"

	"github.com/stretchr/testify/require"
)

var btreeSecondarySalt int64 = rand.Int63n(1000)

// generateValue deterministically derives a "random" value from a key so
// tests can't hardcode expectations.
func generateValue(key int64) int64 {
	return (key*btreeSecondarySalt)%testutils.Salt + 1
}

// setupBTree creates and opens an empty BTreeIndex with small fanouts so a
// handful of keys exercises splits and merges.
func setupBTree(t *testing.T) *btree.BTreeIndex {
	t.Helper()
	index, err := btree.OpenIndexWithFanout(testutils.GetTempDbFile(t), 4, 4)
	require.NoError(t, err, "Failed to create BTree index")
	return index
}

// insertRange inserts keys [lo, hi) with generated values.
func insertRange(t *testing.T, index *btree.BTreeIndex, lo, hi int64) {
	t.Helper()
	for i := lo; i < hi; i++ {
		require.NoError(t, index.Insert(i, generateValue(i)), "insert of %d failed", i)
	}
}

// checkScan verifies that a full scan yields exactly the given keys in order,
// each with its generated value.
func checkScan(t *testing.T, index *btree.BTreeIndex, wantKeys []int64) {
	t.Helper()
	entries, err := index.Select()
	require.NoError(t, err)
	require.Len(t, entries, len(wantKeys))
	for i, e := range entries {
		require.Equal(t, wantKeys[i], e.Key, "scan out of order at position %d", i)
		require.Equal(t, generateValue(e.Key), e.Value)
	}
}

func TestEmptyTree(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	require.True(t, index.IsEmpty())
	_, err := index.Find(1)
	require.Error(t, err)
	require.NoError(t, index.Delete(1))
}

// Five ascending keys with a leaf fanout of 4 split the root into two leaves
// holding [1,2] and [3,4,5].
func TestRootLeafSplit(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	insertRange(t, index, 1, 6)
	require.False(t, index.IsEmpty())
	checkScan(t, index, []int64{1, 2, 3, 4, 5})
	require.NoError(t, index.CheckInvariants())

	// The root must now be internal.
	w := new(strings.Builder)
	index.Print(w)
	require.Contains(t, w.String(), "Internal (root)")
}

// Scenario: grow to ten keys, then remove one from a minimal leaf and watch
// the tree rebalance.
func TestDeleteRebalances(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	insertRange(t, index, 1, 11)
	require.NoError(t, index.Delete(5))
	checkScan(t, index, []int64{1, 2, 3, 4, 6, 7, 8, 9, 10})
	require.NoError(t, index.CheckInvariants())
}

// Deleting 19 of 20 keys collapses the tree back down to a single leaf root
// holding only the survivor.
func TestDeleteCollapsesToLeafRoot(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	insertRange(t, index, 1, 21)
	for i := int64(1); i < 20; i++ {
		require.NoError(t, index.Delete(i), "delete of %d failed", i)
		require.NoError(t, index.CheckInvariants(), "invariants broken after deleting %d", i)
	}
	entry, err := index.Find(20)
	require.NoError(t, err)
	require.Equal(t, generateValue(20), entry.Value)

	w := new(strings.Builder)
	index.Print(w)
	require.Contains(t, w.String(), "Leaf (root)")
	checkScan(t, index, []int64{20})
}

func TestDeleteToEmptyAndReuse(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	insertRange(t, index, 1, 6)
	for i := int64(1); i < 6; i++ {
		require.NoError(t, index.Delete(i))
	}
	require.True(t, index.IsEmpty())
	// The tree is usable again after emptying out.
	insertRange(t, index, 100, 105)
	checkScan(t, index, []int64{100, 101, 102, 103, 104})
}

func TestRoundTrip(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	require.NoError(t, index.Insert(7, 70))
	entry, err := index.Find(7)
	require.NoError(t, err)
	require.EqualValues(t, 70, entry.Value)
	require.NoError(t, index.Delete(7))
	_, err = index.Find(7)
	require.Error(t, err)
}

func TestDuplicateInsertRejected(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	insertRange(t, index, 1, 10)
	err := index.Insert(4, 999)
	require.Error(t, err)
	// The failed insert left the original entry alone.
	entry, err := index.Find(4)
	require.NoError(t, err)
	require.Equal(t, generateValue(4), entry.Value)
	checkScan(t, index, []int64{1, 2, 3, 4, 5, 6, 7, 8, 9})
}

func TestDeleteIdempotent(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	insertRange(t, index, 1, 10)
	require.NoError(t, index.Delete(4))
	require.NoError(t, index.Delete(4))
	checkScan(t, index, []int64{1, 2, 3, 5, 6, 7, 8, 9})
	require.NoError(t, index.CheckInvariants())
}

func TestUpdate(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	insertRange(t, index, 1, 10)
	require.NoError(t, index.Update(6, 606))
	entry, err := index.Find(6)
	require.NoError(t, err)
	require.EqualValues(t, 606, entry.Value)
	require.Error(t, index.Update(99, 1))
}

func TestSelectRange(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	insertRange(t, index, 0, 50)
	entries, err := index.SelectRange(10, 20)
	require.NoError(t, err)
	require.Len(t, entries, 10)
	for i, e := range entries {
		require.EqualValues(t, 10+i, e.Key)
	}
	// Start key missing from the tree: the scan starts at the next key up.
	require.NoError(t, index.Delete(10))
	entries, err = index.SelectRange(10, 20)
	require.NoError(t, err)
	require.Len(t, entries, 9)
	require.EqualValues(t, 11, entries[0].Key)

	_, err = index.SelectRange(20, 10)
	require.Error(t, err)
}

func TestCursorAt(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	for i := int64(0); i < 40; i += 2 {
		require.NoError(t, index.Insert(i, generateValue(i)))
	}
	// Seeking an absent key lands on its successor.
	c, err := index.CursorAt(11)
	require.NoError(t, err)
	entry, err := c.GetEntry()
	require.NoError(t, err)
	require.EqualValues(t, 12, entry.Key)
	c.Close()
}

// A tree several times larger than the buffer pool keeps working while pages
// shuttle in and out of memory.
func TestLargeAscendingInserts(t *testing.T) {
	index, err := btree.OpenIndex(testutils.GetTempDbFile(t))
	require.NoError(t, err)
	defer index.Close()
	const n = 20_000
	for i := int64(0); i < n; i++ {
		require.NoError(t, index.Insert(i, generateValue(i)))
	}
	for i := int64(0); i < n; i += 97 {
		entry, err := index.Find(i)
		require.NoError(t, err, "find of %d failed", i)
		require.Equal(t, generateValue(i), entry.Value)
	}
	entries, err := index.Select()
	require.NoError(t, err)
	require.Len(t, entries, n)
	require.NoError(t, index.CheckInvariants())
}

func TestRandomWorkload(t *testing.T) {
	index := setupBTree(t)
	defer index.Close()
	reference := make(map[int64]int64)
	rng := rand.New(rand.NewSource(testutils.Salt))

	for round := 0; round < 4000; round++ {
		key := rng.Int63n(500)
		if rng.Intn(3) == 0 {
			require.NoError(t, index.Delete(key))
			delete(reference, key)
		} else {
			value := rng.Int63()
			err := index.Insert(key, value)
			if _, exists := reference[key]; exists {
				require.Error(t, err, "duplicate insert of %d succeeded", key)
			} else {
				require.NoError(t, err)
				reference[key] = value
			}
		}
	}
	require.NoError(t, index.CheckInvariants())

	keys := make([]int64, 0, len(reference))
	for key := range reference {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	entries, err := index.Select()
	require.NoError(t, err)
	require.Len(t, entries, len(keys))
	for i, e := range entries {
		require.Equal(t, keys[i], e.Key)
		require.Equal(t, reference[keys[i]], e.Value)
	}
}

// Closing and reopening the index must bring every entry back from disk.
func TestPersistence(t *testing.T) {
	filename := testutils.GetTempDbFile(t)
	index, err := btree.OpenIndexWithFanout(filename, 4, 4)
	require.NoError(t, err)
	insertRange(t, index, 0, 1000)
	require.NoError(t, index.Close())

	index, err = btree.OpenIndexWithFanout(filename, 4, 4)
	require.NoError(t, err)
	defer index.Close()
	for i := int64(0); i < 1000; i++ {
		entry, err := index.Find(i)
		require.NoError(t, err, "find of %d failed after reopen", i)
		require.Equal(t, generateValue(i), entry.Value)
	}
	require.NoError(t, index.CheckInvariants())
}

// An empty tree persists its emptiness.
func TestPersistenceOfEmptiedTree(t *testing.T) {
	filename := testutils.GetTempDbFile(t)
	index, err := btree.OpenIndexWithFanout(filename, 4, 4)
	require.NoError(t, err)
	insertRange(t, index, 0, 10)
	for i := int64(0); i < 10; i++ {
		require.NoError(t, index.Delete(i))
	}
	require.NoError(t, index.Close())

	index, err = btree.OpenIndexWithFanout(filename, 4, 4)
	require.NoError(t, err)
	defer index.Close()
	require.True(t, index.IsEmpty())
}

// Concurrent writers on disjoint key ranges must all land, with the tree
// intact afterwards. Page-capacity fanouts keep each writer's latch chain
// short so the pool can hold every worker's pins at once.
func TestConcurrentInserts(t *testing.T) {
	index, err := btree.OpenIndex(testutils.GetTempDbFile(t))
	require.NoError(t, err)
	defer index.Close()
	const workers = 8
	const perWorker = 500
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			base := int64(w * perWorker)
			for i := int64(0); i < perWorker; i++ {
				if err := index.Insert(base+i, generateValue(base+i)); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, index.CheckInvariants())
	entries, err := index.Select()
	require.NoError(t, err)
	require.Len(t, entries, workers*perWorker)
}

// Concurrent readers and writers interleave without losing entries.
func TestConcurrentReadsAndWrites(t *testing.T) {
	index, err := btree.OpenIndex(testutils.GetTempDbFile(t))
	require.NoError(t, err)
	defer index.Close()
	insertRange(t, index, 0, 200)
	var wg sync.WaitGroup
	// Writers append beyond the preloaded range.
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			base := int64(200 + w*100)
			for i := int64(0); i < 100; i++ {
				if err := index.Insert(base+i, generateValue(base+i)); err != nil {
					t.Error(err)
					return
				}
			}
		}(w)
	}
	// Readers hammer the preloaded range.
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := int64(0); i < 200; i++ {
				if _, err := index.Find(i); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()
	require.NoError(t, index.CheckInvariants())
	entries, err := index.Select()
	require.NoError(t, err)
	require.Len(t, entries, 600)
}
