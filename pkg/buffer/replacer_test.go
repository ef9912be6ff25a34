package buffer_test

import (
	"testing"

	"stegodb/pkg/buffer"

	"github.com/stretchr/testify/require"
)

func TestEvictEmpty(t *testing.T) {
	replacer := buffer.NewLRUKReplacer(3, 2)
	_, ok := replacer.Evict()
	require.False(t, ok)
	require.EqualValues(t, 0, replacer.Size())
}

// With k=2, frames accessed twice move to the LRU region; a frame seen only
// once stays in FIFO and is evicted first.
func TestFIFOEvictedBeforeLRU(t *testing.T) {
	replacer := buffer.NewLRUKReplacer(3, 2)
	for _, frame := range []int64{0, 1, 2, 0, 1} {
		replacer.RecordAccess(frame)
	}
	for frame := int64(0); frame < 3; frame++ {
		replacer.SetEvictable(frame, true)
	}
	require.EqualValues(t, 3, replacer.Size())

	victim, ok := replacer.Evict()
	require.True(t, ok)
	require.EqualValues(t, 2, victim)

	// The LRU region evicts its least recently accessed frame next.
	victim, ok = replacer.Evict()
	require.True(t, ok)
	require.EqualValues(t, 0, victim)

	victim, ok = replacer.Evict()
	require.True(t, ok)
	require.EqualValues(t, 1, victim)

	_, ok = replacer.Evict()
	require.False(t, ok)
}

// FIFO victims leave in order of first access, regardless of later accesses
// below the k threshold.
func TestFIFOOrderedByFirstAccess(t *testing.T) {
	replacer := buffer.NewLRUKReplacer(4, 3)
	replacer.RecordAccess(2)
	replacer.RecordAccess(0)
	replacer.RecordAccess(1)
	// A second access doesn't reorder the FIFO region when k is 3.
	replacer.RecordAccess(0)
	for frame := int64(0); frame < 3; frame++ {
		replacer.SetEvictable(frame, true)
	}
	victim, _ := replacer.Evict()
	require.EqualValues(t, 2, victim)
	victim, _ = replacer.Evict()
	require.EqualValues(t, 0, victim)
	victim, _ = replacer.Evict()
	require.EqualValues(t, 1, victim)
}

func TestNonEvictableSkipped(t *testing.T) {
	replacer := buffer.NewLRUKReplacer(3, 2)
	replacer.RecordAccess(0)
	replacer.RecordAccess(1)
	replacer.SetEvictable(0, true)
	// Frame 1 stays pinned, so frame 0 is the only victim; once it is gone
	// nothing is evictable.
	victim, ok := replacer.Evict()
	require.True(t, ok)
	require.EqualValues(t, 0, victim)
	_, ok = replacer.Evict()
	require.False(t, ok)
	require.EqualValues(t, 0, replacer.Size())
}

func TestSizeTracksEvictableCount(t *testing.T) {
	replacer := buffer.NewLRUKReplacer(4, 2)
	for frame := int64(0); frame < 4; frame++ {
		replacer.RecordAccess(frame)
	}
	require.EqualValues(t, 0, replacer.Size())
	replacer.SetEvictable(0, true)
	replacer.SetEvictable(1, true)
	require.EqualValues(t, 2, replacer.Size())
	replacer.SetEvictable(1, true) // no change
	require.EqualValues(t, 2, replacer.Size())
	replacer.SetEvictable(0, false)
	require.EqualValues(t, 1, replacer.Size())
}

func TestRemove(t *testing.T) {
	replacer := buffer.NewLRUKReplacer(3, 2)
	replacer.RecordAccess(0)
	replacer.SetEvictable(0, true)
	replacer.Remove(0)
	require.EqualValues(t, 0, replacer.Size())
	_, ok := replacer.Evict()
	require.False(t, ok)
	// Removing an unknown frame is a no-op.
	replacer.Remove(1)
}

func TestProgrammerErrorsPanic(t *testing.T) {
	replacer := buffer.NewLRUKReplacer(3, 2)
	require.Panics(t, func() { replacer.RecordAccess(3) })
	require.Panics(t, func() { replacer.RecordAccess(-1) })
	require.Panics(t, func() { replacer.SetEvictable(7, true) })
	// Removing a known but non-evictable frame is fatal.
	replacer.RecordAccess(0)
	require.Panics(t, func() { replacer.Remove(0) })
}

// With k=1 every access refreshes recency, degrading to plain LRU.
func TestKOneBehavesLikeLRU(t *testing.T) {
	replacer := buffer.NewLRUKReplacer(3, 1)
	replacer.RecordAccess(0)
	replacer.RecordAccess(1)
	replacer.RecordAccess(2)
	replacer.RecordAccess(0)
	for frame := int64(0); frame < 3; frame++ {
		replacer.SetEvictable(frame, true)
	}
	victim, _ := replacer.Evict()
	require.EqualValues(t, 1, victim)
	victim, _ = replacer.Evict()
	require.EqualValues(t, 2, victim)
	victim, _ = replacer.Evict()
	require.EqualValues(t, 0, victim)
}
