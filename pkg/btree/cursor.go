package btree

import (
	"errors"

	"stegodb/pkg/buffer"
	"stegodb/pkg/cursor"
	"stegodb/pkg/entry"
)

// BTreeCursor is a data structure that allows for easy iteration through the
// entries in a B+Tree's leaf nodes in order. The current leaf stays pinned
// and read-latched between calls.
type BTreeCursor struct {
	index    *BTreeIndex // The B+Tree index that this cursor iterates through.
	curNode  *LeafNode   // Current leaf node we are pointing at.
	curIndex int64       // The current index within curNode that we are pointing at.
}

// scanLeaf builds a leaf view for iteration without touching the parent
// pointer field, which concurrent structural changes may rewrite under their
// own latches while a scan holds only the leaf's read latch.
func scanLeaf(page *buffer.Page) *LeafNode {
	header := NodeHeader{
		nodeType: LEAF_NODE,
		size:     getField(page, SIZE_OFFSET),
		maxSize:  getField(page, MAX_SIZE_OFFSET),
		parentPN: buffer.NoPage,
		page:     page,
	}
	return &LeafNode{header, getField(page, NEXT_PN_OFFSET)}
}

// CursorAtStart returns a cursor pointing to the first entry of the B+Tree.
// The cursor's leaf is read-latched and pinned on return.
func (index *BTreeIndex) CursorAtStart() (cursor.Cursor, error) {
	index.rootLatch.Lock()
	if index.rootPN == buffer.NoPage {
		index.rootLatch.Unlock()
		return nil, errors.New("index is empty")
	}
	curPage, err := index.pool.GetPage(index.rootPN)
	if err != nil {
		index.rootLatch.Unlock()
		return nil, err
	}
	curPage.RLock()
	index.rootLatch.Unlock()
	// Traverse down the leftmost children until we reach a leaf node.
	for pageToNodeHeader(curPage).nodeType != LEAF_NODE {
		curNode := pageToInternalNode(curPage)
		childPage, err := index.pool.GetPage(curNode.getPNAt(0))
		if err != nil {
			curPage.RUnlock()
			index.pool.PutPage(curPage)
			return nil, err
		}
		childPage.RLock()
		curPage.RUnlock()
		index.pool.PutPage(curPage)
		curPage = childPage
	}
	c := &BTreeCursor{index: index, curIndex: 0, curNode: scanLeaf(curPage)}
	// Account for the edge case where the leftmost leaf is empty; stepping
	// guarantees the cursor isn't stuck in an empty node.
	if c.curNode.size == 0 {
		if noEntries := c.Next(); noEntries {
			c.Close()
			return nil, errors.New("all leaf nodes are empty")
		}
	}
	return c, nil
}

// CursorAt returns a cursor pointing to the first entry whose key is >= the
// given key.
func (index *BTreeIndex) CursorAt(key int64) (cursor.Cursor, error) {
	index.rootLatch.Lock()
	if index.rootPN == buffer.NoPage {
		index.rootLatch.Unlock()
		return nil, errors.New("index is empty")
	}
	curPage, err := index.pool.GetPage(index.rootPN)
	if err != nil {
		index.rootLatch.Unlock()
		return nil, err
	}
	curPage.RLock()
	index.rootLatch.Unlock()
	// Traverse down to the leaf that owns the given key.
	for pageToNodeHeader(curPage).nodeType != LEAF_NODE {
		curNode := pageToInternalNode(curPage)
		childPage, err := index.pool.GetPage(curNode.getPNAt(curNode.search(key)))
		if err != nil {
			curPage.RUnlock()
			index.pool.PutPage(curPage)
			return nil, err
		}
		// [CONCURRENCY] Latch crabbing: latch the child, then release the parent.
		childPage.RLock()
		curPage.RUnlock()
		index.pool.PutPage(curPage)
		curPage = childPage
	}
	c := &BTreeCursor{index: index, curNode: scanLeaf(curPage)}
	c.curIndex = c.curNode.search(key)
	// If the key would sit past this leaf's last entry, the owning entry (if
	// any) starts the next leaf.
	if c.curIndex >= c.curNode.size {
		c.Next()
	}
	return c, nil
}

// Next moves the cursor ahead by one entry. Returns true at the end of the BTree.
func (c *BTreeCursor) Next() (atEnd bool) {
	// If the cursor is at the end of the node, go to the next leaf.
	if c.curIndex+1 >= c.curNode.size {
		nextPN := c.curNode.nextPN
		if nextPN < 0 {
			return true
		}
		nextPage, err := c.index.pool.GetPage(nextPN)
		if err != nil {
			return true
		}
		// [CONCURRENCY] Latch the next leaf before letting go of the current
		// one; scans move left to right, the same direction as merges.
		nextPage.RLock()
		c.curNode.page.RUnlock()
		c.index.pool.PutPage(c.curNode.page)
		c.curIndex = 0
		c.curNode = scanLeaf(nextPage)
		// If the next node is empty, step again. If no deletes are called,
		// then this should never happen.
		if c.curNode.size == 0 {
			return c.Next()
		}
		return false
	}
	c.curIndex++
	return false
}

// GetEntry returns the entry currently pointed to by the cursor.
func (c *BTreeCursor) GetEntry() (entry.Entry, error) {
	if c.curNode.size == 0 {
		return entry.Entry{}, errors.New("getEntry: cursor is in an empty node")
	}
	if c.curIndex >= c.curNode.size {
		return entry.Entry{}, errors.New("getEntry: cursor is not pointing at a valid entry")
	}
	return c.curNode.getEntry(c.curIndex), nil
}

// Close unlatches and unpins the page of the node the cursor is in once the
// cursor is no longer being used.
func (c *BTreeCursor) Close() {
	c.curNode.page.RUnlock()
	c.index.pool.PutPage(c.curNode.page)
}
