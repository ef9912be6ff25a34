package buffer

import (
	"sync"
	"sync/atomic"
)

// NoPage is the pagenum for when there is no page being held
const NoPage int64 = -1

// Page caches a page from disk in a buffer pool frame and stores additional metadata.
type Page struct {
	pool     *Manager     // Pointer to the buffer pool that this page's frame belongs to
	pagenum  int64        // Unique identifier for the page also denoting its position in the backing file
	pinCount atomic.Int64 // The number of active references to this page
	dirty    bool         // Flag on whether the page's data has changed and needs to be written to disk
	rwlock   sync.RWMutex // Reader-writer latch on the page struct itself
	data     []byte       // The actual 4096 bytes of the page, backed by the pool's aligned arena
}

// GetPool returns the buffer pool this page belongs to.
func (page *Page) GetPool() *Manager {
	return page.pool
}

// GetPageNum returns the page's pagenum (unique identifier).
func (page *Page) GetPageNum() int64 {
	return page.pagenum
}

// IsDirty reports whether the page's data has changed and needs to be written to disk.
func (page *Page) IsDirty() bool {
	return page.dirty
}

// SetDirty changes the dirty status of a page.
func (page *Page) SetDirty(dirty bool) {
	page.dirty = dirty
}

// GetData returns the byte data held by the page.
func (page *Page) GetData() []byte {
	return page.data
}

// Get increments the pin count, indicating that another process is using this page.
func (page *Page) Get() {
	page.pinCount.Add(1)
}

// Put decrements the pin count, indicating that a process is done using this page.
func (page *Page) Put() int64 {
	return page.pinCount.Add(-1)
}

// GetPinCount returns the number of active references to this page.
func (page *Page) GetPinCount() int64 {
	return page.pinCount.Load()
}

// Update updates this page with `size` bytes of the given data slice at the specified offset.
func (page *Page) Update(data []byte, offset int64, size int64) {
	page.dirty = true
	copy(page.data[offset:offset+size], data)
}

// reset clears the page's metadata and zeroes its data, readying the frame for reuse.
func (page *Page) reset() {
	page.pagenum = NoPage
	page.pinCount.Store(0)
	page.dirty = false
	for i := range page.data {
		page.data[i] = 0
	}
}

// [CONCURRENCY] Grab a writers latch on the page.
func (page *Page) WLock() {
	page.rwlock.Lock()
}

// [CONCURRENCY] Release a writers latch.
func (page *Page) WUnlock() {
	page.rwlock.Unlock()
}

// [CONCURRENCY] Grab a readers latch on the page.
func (page *Page) RLock() {
	page.rwlock.RLock()
}

// [CONCURRENCY] Release a readers latch.
func (page *Page) RUnlock() {
	page.rwlock.RUnlock()
}
