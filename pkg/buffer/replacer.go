package buffer

import (
	"fmt"
	"sync"

	"stegodb/pkg/list"
)

// frameInfo tracks one frame's standing within the replacer.
type frameInfo struct {
	frameID   int64
	count     int64 // Number of accesses recorded for this frame so far.
	evictable bool
}

// LRUKReplacer picks the frame the buffer pool should evict next.
//
// Frames are kept in two ordered regions. Frames with fewer than k recorded
// accesses live in the FIFO region, ordered by first access; frames with at
// least k accesses live in the LRU region, ordered by most recent access.
// Eviction prefers the oldest evictable FIFO frame, falling back to the
// least-recently-used evictable LRU frame.
type LRUKReplacer struct {
	numFrames int64
	k         int64
	fifoList  *list.List[*frameInfo] // count < k; most recently admitted at the head
	lruList   *list.List[*frameInfo] // count >= k; most recently accessed at the head
	frames    map[int64]*list.Link[*frameInfo]
	evictable int64 // Number of frames currently marked evictable.
	mtx       sync.Mutex
}

// NewLRUKReplacer returns a replacer for numFrames frames using the given k.
func NewLRUKReplacer(numFrames int64, k int64) *LRUKReplacer {
	return &LRUKReplacer{
		numFrames: numFrames,
		k:         k,
		fifoList:  list.NewList[*frameInfo](),
		lruList:   list.NewList[*frameInfo](),
		frames:    make(map[int64]*list.Link[*frameInfo]),
	}
}

// checkFrame panics if the given frame id can't belong to the pool.
func (replacer *LRUKReplacer) checkFrame(frameID int64) {
	if frameID < 0 || frameID >= replacer.numFrames {
		panic(fmt.Sprintf("lru-k: frame %d out of range [0, %d)", frameID, replacer.numFrames))
	}
}

// RecordAccess notes an access to the given frame, admitting it to the FIFO
// region (non-evictable, count 1) if the replacer hasn't seen it before.
// Crossing the k-access threshold moves a frame to the head of the LRU region.
func (replacer *LRUKReplacer) RecordAccess(frameID int64) {
	replacer.mtx.Lock()
	defer replacer.mtx.Unlock()
	replacer.checkFrame(frameID)

	link, ok := replacer.frames[frameID]
	if !ok {
		info := &frameInfo{frameID: frameID, count: 1}
		link = replacer.fifoList.PushHead(info)
		replacer.frames[frameID] = link
	} else {
		link.GetValue().count++
	}

	info := link.GetValue()
	if info.count >= replacer.k {
		// Splice to the head of the LRU region. A frame already there moves
		// up; a frame crossing the threshold leaves the FIFO region.
		link.PopSelf()
		replacer.frames[frameID] = replacer.lruList.PushHead(info)
	}
}

// SetEvictable flags whether the given frame may be chosen as an eviction
// victim. Unknown frames are ignored.
func (replacer *LRUKReplacer) SetEvictable(frameID int64, evictable bool) {
	replacer.mtx.Lock()
	defer replacer.mtx.Unlock()
	replacer.checkFrame(frameID)

	link, ok := replacer.frames[frameID]
	if !ok {
		return
	}
	info := link.GetValue()
	if info.evictable == evictable {
		return
	}
	info.evictable = evictable
	if evictable {
		replacer.evictable++
	} else {
		replacer.evictable--
	}
}

// Remove forgets the given frame entirely, eg when its page is deleted.
// The frame must be evictable; removing a pinned frame is a programmer error.
func (replacer *LRUKReplacer) Remove(frameID int64) {
	replacer.mtx.Lock()
	defer replacer.mtx.Unlock()
	replacer.checkFrame(frameID)

	link, ok := replacer.frames[frameID]
	if !ok {
		return
	}
	if !link.GetValue().evictable {
		panic(fmt.Sprintf("lru-k: removing non-evictable frame %d", frameID))
	}
	link.PopSelf()
	delete(replacer.frames, frameID)
	replacer.evictable--
}

// Evict selects and forgets the best eviction victim: the oldest evictable
// frame of the FIFO region, else the least-recently-used evictable frame of
// the LRU region. Returns false if nothing is evictable.
func (replacer *LRUKReplacer) Evict() (int64, bool) {
	replacer.mtx.Lock()
	defer replacer.mtx.Unlock()

	for _, region := range []*list.List[*frameInfo]{replacer.fifoList, replacer.lruList} {
		// Oldest entries sit at the tail of each region.
		for link := region.PeekTail(); link != nil; link = link.GetPrev() {
			info := link.GetValue()
			if !info.evictable {
				continue
			}
			link.PopSelf()
			delete(replacer.frames, info.frameID)
			replacer.evictable--
			return info.frameID, true
		}
	}
	return NoPage, false
}

// Size returns the number of evictable frames.
func (replacer *LRUKReplacer) Size() int64 {
	replacer.mtx.Lock()
	defer replacer.mtx.Unlock()
	return replacer.evictable
}
