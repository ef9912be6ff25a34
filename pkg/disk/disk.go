// Package disk implements the block-addressed persistent store that backs the
// buffer pool. Pages are read and written in aligned units of Pagesize bytes;
// the rest of the engine never touches the file directly.
package disk

import (
	"encoding/binary"
	"os"
	"strings"
	"sync"

	"github.com/bits-and-blooms/bitset"
	"github.com/ncw/directio"
	"github.com/pkg/errors"
)

// Pagesize is the size of an individual page (ie the maximum number of bytes
// that a page can hold) - defaults to 4kb.
const Pagesize int64 = directio.BlockSize

// NoPage is the sentinel page number for when there is no page.
const NoPage int64 = -1

// Magic number identifying a stegodb data file.
const fileMagic uint32 = 0x51E60DB0

// On-disk format version.
const fileVersion uint32 = 1

// Header block field offsets. The header occupies the first aligned block of
// the file; page i lives at offset (i+1)*Pagesize.
const (
	magicOffset    = 0
	versionOffset  = 4
	pagesizeOffset = 8
)

// Manager hands out page numbers and moves whole pages between memory and the
// backing file. All methods are safe for concurrent use.
type Manager struct {
	file     *os.File       // File descriptor for the backing data file.
	numPages int64          // High-water mark of page numbers handed out so far.
	free     *bitset.BitSet // Page numbers below the high-water mark that were deallocated.
	mtx      sync.Mutex
}

// Open initializes a disk manager with a data file at the specified filePath,
// creating the file (and any prerequisite directories) if it doesn't exist.
//
// If the file does exist but carries the wrong magic number, the wrong page
// size, or contents not aligned to Pagesize, an error is returned and the
// Manager should not be used.
func Open(filePath string) (*Manager, error) {
	// Create the necessary prerequisite directories.
	if idx := strings.LastIndex(filePath, "/"); idx != -1 {
		if err := os.MkdirAll(filePath[:idx], 0775); err != nil {
			return nil, err
		}
	}
	file, err := directio.OpenFile(filePath, os.O_RDWR|os.O_CREATE, 0666)
	if err != nil {
		return nil, errors.Wrapf(err, "opening data file %s", filePath)
	}
	dm := &Manager{file: file, free: bitset.New(0)}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, errors.Wrap(err, "stating data file")
	}
	size := info.Size()
	if size == 0 {
		// Fresh file; lay down the header block.
		if err = dm.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
		return dm, nil
	}
	if size%Pagesize != 0 {
		file.Close()
		return nil, errors.New("data file has been corrupted")
	}
	if err = dm.readHeader(); err != nil {
		file.Close()
		return nil, err
	}
	// The page count is derived from the file size so that it stays correct
	// even if we crashed after extending the file.
	dm.numPages = size/Pagesize - 1
	return dm, nil
}

// GetFileName returns the file name/path of the manager's backing file.
func (dm *Manager) GetFileName() string {
	return dm.file.Name()
}

// NumPages returns the number of pages handed out so far, including any that
// have since been deallocated.
func (dm *Manager) NumPages() int64 {
	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	return dm.numPages
}

// writeHeader serializes the header fields into the file's first block.
func (dm *Manager) writeHeader() error {
	block := directio.AlignedBlock(int(Pagesize))
	binary.LittleEndian.PutUint32(block[magicOffset:], fileMagic)
	binary.LittleEndian.PutUint32(block[versionOffset:], fileVersion)
	binary.LittleEndian.PutUint32(block[pagesizeOffset:], uint32(Pagesize))
	if _, err := dm.file.WriteAt(block, 0); err != nil {
		return errors.Wrap(err, "writing file header")
	}
	return errors.Wrap(dm.file.Sync(), "syncing file header")
}

// readHeader reads and validates the header fields from the file's first block.
func (dm *Manager) readHeader() error {
	block := directio.AlignedBlock(int(Pagesize))
	if _, err := dm.file.ReadAt(block, 0); err != nil {
		return errors.Wrap(err, "reading file header")
	}
	if binary.LittleEndian.Uint32(block[magicOffset:]) != fileMagic {
		return errors.New("not a stegodb data file (bad magic)")
	}
	if binary.LittleEndian.Uint32(block[versionOffset:]) != fileVersion {
		return errors.New("unsupported data file version")
	}
	if int64(binary.LittleEndian.Uint32(block[pagesizeOffset:])) != Pagesize {
		return errors.New("data file page size does not match")
	}
	return nil
}

// pageOffset returns the file offset of the given page number.
func pageOffset(pagenum int64) int64 {
	return (pagenum + 1) * Pagesize
}

// ReadPage fills buf with the on-disk contents of the given page.
// buf must be exactly Pagesize bytes and block-aligned.
func (dm *Manager) ReadPage(pagenum int64, buf []byte) error {
	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	if pagenum < 0 || pagenum >= dm.numPages {
		return errors.Errorf("read of invalid pagenum %d", pagenum)
	}
	if int64(len(buf)) != Pagesize {
		return errors.Errorf("page buffer size %d does not match page size %d", len(buf), Pagesize)
	}
	if _, err := dm.file.ReadAt(buf, pageOffset(pagenum)); err != nil {
		return errors.Wrapf(err, "reading page %d", pagenum)
	}
	return nil
}

// WritePage writes buf as the on-disk contents of the given page.
// buf must be exactly Pagesize bytes and block-aligned.
func (dm *Manager) WritePage(pagenum int64, buf []byte) error {
	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	if pagenum < 0 || pagenum >= dm.numPages {
		return errors.Errorf("write of invalid pagenum %d", pagenum)
	}
	if int64(len(buf)) != Pagesize {
		return errors.Errorf("page buffer size %d does not match page size %d", len(buf), Pagesize)
	}
	if _, err := dm.file.WriteAt(buf, pageOffset(pagenum)); err != nil {
		return errors.Wrapf(err, "writing page %d", pagenum)
	}
	return nil
}

// AllocatePage returns the number of a page that may be read and written from
// now on. Deallocated page numbers are reused before the file is extended.
func (dm *Manager) AllocatePage() (int64, error) {
	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	if idx, ok := dm.free.NextSet(0); ok {
		dm.free.Clear(idx)
		return int64(idx), nil
	}
	pagenum := dm.numPages
	// Extend the file with a zeroed block so reads of the new page succeed.
	if _, err := dm.file.WriteAt(directio.AlignedBlock(int(Pagesize)), pageOffset(pagenum)); err != nil {
		return NoPage, errors.Wrapf(err, "extending file for page %d", pagenum)
	}
	dm.numPages++
	return pagenum, nil
}

// DeallocatePage returns the given page number to the allocator. The page's
// on-disk bytes are left in place until the number is reused.
func (dm *Manager) DeallocatePage(pagenum int64) {
	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	if pagenum < 0 || pagenum >= dm.numPages {
		return
	}
	dm.free.Set(uint(pagenum))
}

// Sync flushes the backing file to stable storage.
func (dm *Manager) Sync() error {
	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	return dm.file.Sync()
}

// Close syncs and closes the backing file.
func (dm *Manager) Close() error {
	dm.mtx.Lock()
	defer dm.mtx.Unlock()
	if err := dm.file.Sync(); err != nil {
		dm.file.Close()
		return errors.Wrap(err, "syncing data file on close")
	}
	return dm.file.Close()
}
