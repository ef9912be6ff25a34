// Package buffer implements the page cache shared by the database's indexes:
// a fixed set of frames, an LRU-K replacer deciding which frame to reuse, and
// an extendible-hash directory mapping resident page numbers to frames.
package buffer

import (
	"errors"
	"sync"

	"stegodb/pkg/config"
	"stegodb/pkg/disk"
	"stegodb/pkg/hash"
	"stegodb/pkg/list"

	"github.com/ncw/directio"
)

// Error for when there are no free frames and nothing is evictable
var ErrRanOutOfPages = errors.New("no available pages")

// Error for when a page can't be deleted because it is still pinned
var ErrPagePinned = errors.New("page is pinned")

// Number of pairs a directory bucket holds before splitting.
const directoryBucketSize = 8

// Manager is a buffer pool: it mediates every disk access, keeping up to
// MaxPagesInBuffer pages resident and lending them out pinned.
type Manager struct {
	dm        *disk.Manager
	frames    []*Page                                   // All page frames; the slice index is the frame id.
	freeList  *list.List[int64]                         // Frame ids not currently holding a page.
	pageTable *hash.ExtendibleHashTable[int64, int64]   // Maps resident pagenums to frame ids.
	replacer  *LRUKReplacer
	mtx       sync.Mutex // Serialises all of the pool's public operations.
}

// New constructs a buffer pool of the configured size over the given disk
// manager.
func New(dm *disk.Manager) *Manager {
	return NewWithPoolSize(dm, config.MaxPagesInBuffer)
}

// NewWithPoolSize constructs a buffer pool with the given number of frames.
// Every frame's bytes come from a single block-aligned arena so they can be
// handed straight to O_DIRECT file I/O.
func NewWithPoolSize(dm *disk.Manager, poolSize int64) *Manager {
	m := &Manager{
		dm:        dm,
		frames:    make([]*Page, poolSize),
		freeList:  list.NewList[int64](),
		pageTable: hash.NewExtendibleHashTable[int64, int64](directoryBucketSize, hash.XxHasher),
		replacer:  NewLRUKReplacer(poolSize, config.ReplacerK),
	}
	arena := directio.AlignedBlock(int(disk.Pagesize * poolSize))
	for i := range m.frames {
		m.frames[i] = &Page{
			pool:    m,
			pagenum: NoPage,
			data:    arena[int64(i)*disk.Pagesize : int64(i+1)*disk.Pagesize],
		}
		m.freeList.PushTail(int64(i))
	}
	return m
}

// GetFileName returns the file name/path of the pool's backing file.
func (m *Manager) GetFileName() string {
	return m.dm.GetFileName()
}

// GetNumPages returns the number of pages allocated in the backing file.
func (m *Manager) GetNumPages() int64 {
	return m.dm.NumPages()
}

// acquireFrame hands back a frame id ready to hold a new page, taking it from
// the free list or by evicting. A dirty victim is written back before its
// frame is reused. The pool's mutex must be held on entry.
func (m *Manager) acquireFrame() (int64, error) {
	if link := m.freeList.PeekHead(); link != nil {
		link.PopSelf()
		return link.GetValue(), nil
	}
	frameID, ok := m.replacer.Evict()
	if !ok {
		return NoPage, ErrRanOutOfPages
	}
	victim := m.frames[frameID]
	if victim.pagenum != NoPage {
		if victim.dirty {
			if err := m.dm.WritePage(victim.pagenum, victim.data); err != nil {
				// Reinstate the frame so the pool stays consistent.
				m.replacer.RecordAccess(frameID)
				m.replacer.SetEvictable(frameID, true)
				return NoPage, err
			}
			victim.dirty = false
		}
		m.pageTable.Remove(victim.pagenum)
	}
	return frameID, nil
}

// GetNewPage allocates a fresh on-disk page and returns it pinned with its
// contents zeroed. Returns ErrRanOutOfPages if every frame is pinned.
func (m *Manager) GetNewPage() (*Page, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	frameID, err := m.acquireFrame()
	if err != nil {
		return nil, err
	}
	pagenum, err := m.dm.AllocatePage()
	if err != nil {
		m.freeList.PushTail(frameID)
		return nil, err
	}
	page := m.frames[frameID]
	page.reset()
	page.pagenum = pagenum
	// Mark dirty so the new page is eventually flushed to disk.
	page.dirty = true
	page.pinCount.Store(1)
	m.pageTable.Insert(pagenum, frameID)
	m.replacer.RecordAccess(frameID)
	m.replacer.SetEvictable(frameID, false)
	return page, nil
}

// GetPage returns the page with the given pagenum pinned, reading it from
// disk if it isn't already resident.
func (m *Manager) GetPage(pagenum int64) (*Page, error) {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	if pagenum < 0 || pagenum >= m.dm.NumPages() {
		return nil, errors.New("invalid pagenum")
	}
	if frameID, ok := m.pageTable.Find(pagenum); ok {
		page := m.frames[frameID]
		page.Get()
		m.replacer.RecordAccess(frameID)
		m.replacer.SetEvictable(frameID, false)
		return page, nil
	}
	frameID, err := m.acquireFrame()
	if err != nil {
		return nil, err
	}
	page := m.frames[frameID]
	page.reset()
	if err = m.dm.ReadPage(pagenum, page.data); err != nil {
		m.freeList.PushTail(frameID)
		return nil, err
	}
	page.pagenum = pagenum
	page.pinCount.Store(1)
	m.pageTable.Insert(pagenum, frameID)
	m.replacer.RecordAccess(frameID)
	m.replacer.SetEvictable(frameID, false)
	return page, nil
}

// PutPage releases a reference to a page. When the last pin is dropped the
// page's frame becomes eligible for eviction.
func (m *Manager) PutPage(page *Page) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	frameID, ok := m.pageTable.Find(page.pagenum)
	if !ok {
		return errors.New("put of page that is not resident")
	}
	if page.GetPinCount() <= 0 {
		return errors.New("put of page with pin count 0")
	}
	if page.Put() == 0 {
		m.replacer.SetEvictable(frameID, true)
	}
	return nil
}

// FlushPage writes the given page's frame back to disk, dirty or not, and
// clears its dirty flag. Errors if the page isn't resident.
func (m *Manager) FlushPage(pagenum int64) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	frameID, ok := m.pageTable.Find(pagenum)
	if !ok {
		return errors.New("flush of page that is not resident")
	}
	page := m.frames[frameID]
	if err := m.dm.WritePage(pagenum, page.data); err != nil {
		return err
	}
	page.dirty = false
	return nil
}

// FlushAllPages writes every resident dirty page back to disk.
func (m *Manager) FlushAllPages() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.flushAll()
}

// flushAll is FlushAllPages without the locking; the mutex must be held.
func (m *Manager) flushAll() error {
	var firstErr error
	for _, page := range m.frames {
		if page.pagenum == NoPage || !page.dirty {
			continue
		}
		if err := m.dm.WritePage(page.pagenum, page.data); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		page.dirty = false
	}
	if err := m.dm.Sync(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

// DeletePage drops the given page from the pool and deallocates it on disk.
// A page that isn't resident just has its number returned to the allocator;
// deleting a pinned page fails with ErrPagePinned.
func (m *Manager) DeletePage(pagenum int64) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	frameID, ok := m.pageTable.Find(pagenum)
	if !ok {
		m.dm.DeallocatePage(pagenum)
		return nil
	}
	page := m.frames[frameID]
	if page.GetPinCount() > 0 {
		return ErrPagePinned
	}
	m.pageTable.Remove(pagenum)
	m.replacer.Remove(frameID)
	page.reset()
	m.freeList.PushTail(frameID)
	m.dm.DeallocatePage(pagenum)
	return nil
}

// Close flushes all dirty pages and closes the pool's backing file.
// Errors if any page is still pinned.
func (m *Manager) Close() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for _, page := range m.frames {
		if page.pagenum != NoPage && page.GetPinCount() > 0 {
			return errors.New("pages are still pinned on close")
		}
	}
	if err := m.flushAll(); err != nil {
		return err
	}
	return m.dm.Close()
}

// [RECOVERY] Checkpoint flushes every resident page while holding its read
// latch, so no writer can slip a half-applied change into the snapshot.
func (m *Manager) Checkpoint() error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	for _, page := range m.frames {
		if page.pagenum != NoPage {
			page.RLock()
		}
	}
	err := m.flushAll()
	for _, page := range m.frames {
		if page.pagenum != NoPage {
			page.RUnlock()
		}
	}
	return err
}
