package btree

import (
	"bytes"
	"errors"

	"stegodb/pkg/buffer"
)

// The header page (pagenum 0) of an index file holds a small table of
// (index name, root pagenum) records, so an index's root can move between
// pages without losing the tree across restarts.

// recordPos returns the header-page offset of the ith root record.
func recordPos(i int64) int64 {
	return NUM_RECORDS_SIZE + i*ROOT_RECORD_SIZE
}

// recordName decodes the NUL-padded index name of a root record.
func recordName(data []byte) string {
	if idx := bytes.IndexByte(data, 0); idx != -1 {
		return string(data[:idx])
	}
	return string(data)
}

// getRootRecord returns the root pagenum recorded under this index's name,
// and whether such a record exists.
func (index *BTreeIndex) getRootRecord() (int64, bool, error) {
	page, err := index.pool.GetPage(HEADER_PN)
	if err != nil {
		return buffer.NoPage, false, err
	}
	page.RLock()
	defer func() {
		page.RUnlock()
		index.pool.PutPage(page)
	}()
	numRecords := getField(page, NUM_RECORDS_OFFSET)
	for i := int64(0); i < numRecords; i++ {
		pos := recordPos(i)
		if recordName(page.GetData()[pos:pos+INDEX_NAME_SIZE]) == index.name {
			return getField(page, pos+INDEX_NAME_SIZE), true, nil
		}
	}
	return buffer.NoPage, false, nil
}

// updateRootPageId records the index's current root pagenum in the header
// page. When insert is true a new record is appended; otherwise the existing
// record is rewritten in place.
func (index *BTreeIndex) updateRootPageId(insert bool) error {
	page, err := index.pool.GetPage(HEADER_PN)
	if err != nil {
		return err
	}
	page.WLock()
	defer func() {
		page.WUnlock()
		index.pool.PutPage(page)
	}()
	numRecords := getField(page, NUM_RECORDS_OFFSET)
	if insert {
		if numRecords >= MAX_ROOT_RECORDS {
			return errors.New("header page is out of record slots")
		}
		pos := recordPos(numRecords)
		nameData := make([]byte, INDEX_NAME_SIZE)
		copy(nameData, index.name)
		page.Update(nameData, pos, INDEX_NAME_SIZE)
		setField(page, pos+INDEX_NAME_SIZE, index.rootPN)
		setField(page, NUM_RECORDS_OFFSET, numRecords+1)
		return nil
	}
	for i := int64(0); i < numRecords; i++ {
		pos := recordPos(i)
		if recordName(page.GetData()[pos:pos+INDEX_NAME_SIZE]) == index.name {
			setField(page, pos+INDEX_NAME_SIZE, index.rootPN)
			return nil
		}
	}
	return errors.New("no header record to update for index")
}
