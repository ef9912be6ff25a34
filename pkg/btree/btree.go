// Package btree implements a disk-backed B+Tree index on top of the buffer
// pool. Every node operation is expressed in terms of pinned pages; the tree
// never touches the disk manager directly.
package btree

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"stegodb/pkg/buffer"
	"stegodb/pkg/disk"
	"stegodb/pkg/entry"
)

// BTreeIndex is an index that uses a B+Tree as its underlying data structure.
type BTreeIndex struct {
	pool        *buffer.Manager // The buffer pool used to store the B+Tree's data.
	name        string          // Name of this index in the file's header page.
	rootPN      int64           // The pagenum of this B+Tree's root node; -1 when the tree is empty.
	rootLatch   sync.Mutex      // Dedicated latch protecting rootPN so writers can publish a new root atomically.
	leafMax     int64           // Size at which a leaf node splits.
	internalMax int64           // Most children an internal node holds before splitting.
}

// OpenIndex returns a BTreeIndex that stores its data in a file with the
// given name, using the page-capacity fanouts. If the file doesn't exist or
// is empty, creates and returns an empty BTreeIndex.
func OpenIndex(filename string) (*BTreeIndex, error) {
	return OpenIndexWithFanout(filename, ENTRIES_PER_LEAF_NODE, CHILDREN_PER_INTERNAL_NODE)
}

// OpenIndexWithFanout opens an index whose leaves split at leafMax entries
// and whose internal nodes hold at most internalMax children.
// Fanouts smaller than the page-capacity defaults are mainly useful in tests;
// they only apply to nodes created from now on.
func OpenIndexWithFanout(filename string, leafMax int64, internalMax int64) (*BTreeIndex, error) {
	if leafMax < 3 || leafMax > ENTRIES_PER_LEAF_NODE {
		return nil, fmt.Errorf("leaf fanout %d out of range [3, %d]", leafMax, ENTRIES_PER_LEAF_NODE)
	}
	if internalMax < 3 || internalMax > CHILDREN_PER_INTERNAL_NODE {
		return nil, fmt.Errorf("internal fanout %d out of range [3, %d]", internalMax, CHILDREN_PER_INTERNAL_NODE)
	}
	name := filepath.Base(filename)
	if int64(len(name)) >= INDEX_NAME_SIZE {
		return nil, fmt.Errorf("index name %q is too long", name)
	}
	dm, err := disk.Open(filename)
	if err != nil {
		return nil, err
	}
	pool := buffer.New(dm)
	index := &BTreeIndex{
		pool:        pool,
		name:        name,
		rootPN:      buffer.NoPage,
		leafMax:     leafMax,
		internalMax: internalMax,
	}
	if pool.GetNumPages() == 0 {
		// Fresh file; lay down the header page and an empty-root record.
		headerPage, err := pool.GetNewPage()
		if err != nil {
			pool.Close()
			return nil, err
		}
		setField(headerPage, NUM_RECORDS_OFFSET, 0)
		pool.PutPage(headerPage)
		if err = index.updateRootPageId(true); err != nil {
			pool.Close()
			return nil, err
		}
		return index, nil
	}
	rootPN, found, err := index.getRootRecord()
	if err != nil {
		pool.Close()
		return nil, err
	}
	if !found {
		if err = index.updateRootPageId(true); err != nil {
			pool.Close()
			return nil, err
		}
		return index, nil
	}
	index.rootPN = rootPN
	return index, nil
}

// GetName returns the name this index is registered under in its header page.
func (index *BTreeIndex) GetName() string {
	return index.name
}

// GetPool returns this index's buffer pool.
func (index *BTreeIndex) GetPool() *buffer.Manager {
	return index.pool
}

// GetRootPageNum returns the pagenum of the tree's root node, or -1 if the
// tree is empty.
func (index *BTreeIndex) GetRootPageNum() int64 {
	index.rootLatch.Lock()
	defer index.rootLatch.Unlock()
	return index.rootPN
}

// IsEmpty reports whether the tree holds no entries.
func (index *BTreeIndex) IsEmpty() bool {
	return index.GetRootPageNum() == buffer.NoPage
}

// Close flushes all changes to disk.
func (index *BTreeIndex) Close() error {
	return index.pool.Close()
}

/////////////////////////////////////////////////////////////////////////////
////////////////////////// Latch crabbing ///////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// crabContext tracks the chain of write-latched, pinned pages a structural
// operation still holds (root-most first), together with the tree's root
// latch. Releasing on every exit path goes through here so no pin or latch
// can leak.
type crabContext struct {
	index     *BTreeIndex
	pages     []*buffer.Page
	holdsRoot bool
}

// push appends a write-latched, pinned page to the held chain.
func (ctx *crabContext) push(page *buffer.Page) {
	ctx.pages = append(ctx.pages, page)
}

// pop hands ownership of the most recently pushed page to the caller.
func (ctx *crabContext) pop() *buffer.Page {
	page := ctx.pages[len(ctx.pages)-1]
	ctx.pages = ctx.pages[:len(ctx.pages)-1]
	return page
}

// release unlatches and unpins every held page and drops the root latch.
func (ctx *crabContext) release() {
	for _, page := range ctx.pages {
		page.WUnlock()
		ctx.index.pool.PutPage(page)
	}
	ctx.pages = ctx.pages[:0]
	if ctx.holdsRoot {
		ctx.holdsRoot = false
		ctx.index.rootLatch.Unlock()
	}
}

// insertSafe reports whether an insert below this node can't split it.
func insertSafe(node Node) bool {
	if node.getNodeType() == LEAF_NODE {
		return node.getSize() < node.getMaxSize()-1
	}
	return node.getSize() < node.getMaxSize()
}

// deleteSafe reports whether a delete below this node can't underflow it.
func deleteSafe(node Node) bool {
	return node.getSize() > node.getMinSize()
}

// descendForWrite walks from the root to the leaf owning the given key,
// write-latching hand over hand and releasing all ancestors whenever the
// newly latched child is safe for the operation. The root latch must be held
// on entry and is managed through ctx. Every latched page ends up in ctx.
func (index *BTreeIndex) descendForWrite(key int64, ctx *crabContext, safe func(Node) bool) (*LeafNode, error) {
	curPage, err := index.pool.GetPage(index.rootPN)
	if err != nil {
		return nil, err
	}
	curPage.WLock()
	ctx.push(curPage)
	node := pageToNode(curPage)
	for {
		inode, ok := node.(*InternalNode)
		if !ok {
			return node.(*LeafNode), nil
		}
		childPage, err := index.pool.GetPage(inode.getPNAt(inode.search(key)))
		if err != nil {
			return nil, err
		}
		childPage.WLock()
		child := pageToNode(childPage)
		// [CONCURRENCY] Drop every ancestor once the child can absorb the
		// operation without propagating a structural change upward.
		if safe(child) {
			ctx.release()
		}
		ctx.push(childPage)
		node = child
	}
}

/////////////////////////////////////////////////////////////////////////////
////////////////////////// Point operations /////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// Find returns the entry associated with the given key, or an error if
// no entry with that key is found.
func (index *BTreeIndex) Find(key int64) (entry.Entry, error) {
	index.rootLatch.Lock()
	if index.rootPN == buffer.NoPage {
		index.rootLatch.Unlock()
		return entry.Entry{}, fmt.Errorf("no entry with key %d was found", key)
	}
	curPage, err := index.pool.GetPage(index.rootPN)
	if err != nil {
		index.rootLatch.Unlock()
		return entry.Entry{}, err
	}
	curPage.RLock()
	index.rootLatch.Unlock()
	node := pageToNode(curPage)
	for {
		inode, ok := node.(*InternalNode)
		if !ok {
			break
		}
		childPage, err := index.pool.GetPage(inode.getPNAt(inode.search(key)))
		if err != nil {
			curPage.RUnlock()
			index.pool.PutPage(curPage)
			return entry.Entry{}, err
		}
		// [CONCURRENCY] Latch the child before releasing its parent.
		childPage.RLock()
		curPage.RUnlock()
		index.pool.PutPage(curPage)
		curPage = childPage
		node = pageToNode(curPage)
	}
	leaf := node.(*LeafNode)
	defer func() {
		curPage.RUnlock()
		index.pool.PutPage(curPage)
	}()
	pos := leaf.search(key)
	if pos >= leaf.size || leaf.getKeyAt(pos) != key {
		return entry.Entry{}, fmt.Errorf("no entry with key %d was found", key)
	}
	return leaf.getEntry(pos), nil
}

// Insert inserts a key-value entry into the B+Tree, returning an error if an
// entry with that key already exists or the insertion fails partway.
func (index *BTreeIndex) Insert(key int64, value int64) error {
	index.rootLatch.Lock()
	ctx := &crabContext{index: index, holdsRoot: true}
	defer ctx.release()
	// An empty tree grows its first leaf root.
	if index.rootPN == buffer.NoPage {
		root, err := createLeafNode(index.pool, index.leafMax, buffer.NoPage)
		if err != nil {
			return err
		}
		root.insertAt(0, entry.New(key, value))
		index.rootPN = root.page.GetPageNum()
		err = index.updateRootPageId(false)
		index.pool.PutPage(root.page)
		return err
	}
	leaf, err := index.descendForWrite(key, ctx, insertSafe)
	if err != nil {
		return err
	}
	pos := leaf.search(key)
	if pos < leaf.size && leaf.getKeyAt(pos) == key {
		return errors.New("cannot insert duplicate key")
	}
	leaf.insertAt(pos, entry.New(key, value))
	if leaf.size >= leaf.maxSize {
		return index.splitLeaf(leaf, ctx)
	}
	return nil
}

// Update modifies the value associated with an existing key, returning an
// error if no entry with that key exists.
func (index *BTreeIndex) Update(key int64, value int64) error {
	index.rootLatch.Lock()
	if index.rootPN == buffer.NoPage {
		index.rootLatch.Unlock()
		return errors.New("cannot update non-existent entry")
	}
	curPage, err := index.pool.GetPage(index.rootPN)
	if err != nil {
		index.rootLatch.Unlock()
		return err
	}
	curPage.WLock()
	index.rootLatch.Unlock()
	node := pageToNode(curPage)
	for {
		inode, ok := node.(*InternalNode)
		if !ok {
			break
		}
		childPage, err := index.pool.GetPage(inode.getPNAt(inode.search(key)))
		if err != nil {
			curPage.WUnlock()
			index.pool.PutPage(curPage)
			return err
		}
		// [CONCURRENCY] An update never changes the tree's structure, so the
		// parent can be dropped as soon as the child is latched.
		childPage.WLock()
		curPage.WUnlock()
		index.pool.PutPage(curPage)
		curPage = childPage
		node = pageToNode(curPage)
	}
	leaf := node.(*LeafNode)
	defer func() {
		curPage.WUnlock()
		index.pool.PutPage(curPage)
	}()
	pos := leaf.search(key)
	if pos >= leaf.size || leaf.getKeyAt(pos) != key {
		return errors.New("cannot update non-existent entry")
	}
	leaf.updateValueAt(pos, value)
	return nil
}

// Delete removes the entry with the given key from the B+Tree, rebalancing as
// needed. Deleting a key that isn't present leaves the tree unchanged.
func (index *BTreeIndex) Delete(key int64) error {
	index.rootLatch.Lock()
	ctx := &crabContext{index: index, holdsRoot: true}
	if index.rootPN == buffer.NoPage {
		ctx.release()
		return nil
	}
	leaf, err := index.descendForWrite(key, ctx, deleteSafe)
	if err != nil {
		ctx.release()
		return err
	}
	pos := leaf.search(key)
	if pos >= leaf.size || leaf.getKeyAt(pos) != key {
		ctx.release()
		return nil
	}
	leaf.removeAt(pos)
	if leaf.parentPN == buffer.NoPage {
		// The root may legally underflow; an empty root leaf empties the tree.
		var emptiedPN int64 = buffer.NoPage
		if leaf.size == 0 {
			emptiedPN = leaf.page.GetPageNum()
			index.rootPN = buffer.NoPage
			err = index.updateRootPageId(false)
		}
		ctx.release()
		if emptiedPN != buffer.NoPage {
			if derr := index.pool.DeletePage(emptiedPN); err == nil {
				err = derr
			}
		}
		return err
	}
	if leaf.size >= leaf.getMinSize() {
		ctx.release()
		return nil
	}
	err = index.rebalance(ctx)
	ctx.release()
	return err
}

/////////////////////////////////////////////////////////////////////////////
////////////////////////// Split plumbing ///////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// splitLeaf splits the given overfull leaf (the top of ctx), moving the upper
// half of its entries to a fresh right sibling and propagating the sibling's
// first key upward.
func (index *BTreeIndex) splitLeaf(leaf *LeafNode, ctx *crabContext) error {
	right, err := createLeafNode(index.pool, leaf.maxSize, leaf.parentPN)
	if err != nil {
		return err
	}
	mid := leaf.size / 2
	for i := mid; i < leaf.size; i++ {
		right.modifyEntry(i-mid, leaf.getEntry(i))
	}
	right.updateSize(leaf.size - mid)
	leaf.updateSize(mid)
	// Link the new sibling into the leaf chain.
	right.setNextPN(leaf.nextPN)
	leaf.setNextPN(right.page.GetPageNum())
	leftPage := ctx.pop()
	return index.insertIntoParent(leftPage, right.getKeyAt(0), right.page, ctx)
}

// insertIntoParent links a freshly split-off right sibling into the parent of
// the node it split from. leftPage is write-latched and pinned; rightPage is
// pinned only (nothing else can reach it yet). Both are released here on
// every path. Ancestors that may still split sit in ctx.
func (index *BTreeIndex) insertIntoParent(leftPage *buffer.Page, key int64, rightPage *buffer.Page, ctx *crabContext) error {
	pool := index.pool
	releaseSplit := func() {
		leftPage.WUnlock()
		pool.PutPage(leftPage)
		pool.PutPage(rightPage)
	}
	if getField(leftPage, PARENT_PN_OFFSET) == buffer.NoPage {
		// The split node was the root; grow the tree upward.
		newRoot, err := createInternalNode(pool, index.internalMax, buffer.NoPage)
		if err != nil {
			releaseSplit()
			return err
		}
		newRoot.updatePNAt(0, leftPage.GetPageNum())
		newRoot.updateKeyAt(1, key)
		newRoot.updatePNAt(1, rightPage.GetPageNum())
		newRoot.updateSize(2)
		rootPN := newRoot.page.GetPageNum()
		setParentPN(leftPage, rootPN)
		setParentPN(rightPage, rootPN)
		index.rootPN = rootPN
		err = index.updateRootPageId(false)
		pool.PutPage(newRoot.page)
		releaseSplit()
		return err
	}
	parentPage := ctx.pop()
	parent := pageToInternalNode(parentPage)
	if parent.size < parent.maxSize {
		parent.insertChild(key, rightPage.GetPageNum())
		setParentPN(rightPage, parentPage.GetPageNum())
		releaseSplit()
		parentPage.WUnlock()
		pool.PutPage(parentPage)
		return nil
	}
	// The parent is full: build the would-be-oversized child list in scratch
	// space, split it across the parent and a fresh right sibling, and
	// recurse with the rising separator.
	total := parent.size + 1
	keys := make([]int64, total)
	pns := make([]int64, total)
	pos := parent.search(key) + 1
	for i := int64(0); i < pos; i++ {
		keys[i], pns[i] = parent.getKeyAt(i), parent.getPNAt(i)
	}
	keys[pos], pns[pos] = key, rightPage.GetPageNum()
	for i := pos; i < parent.size; i++ {
		keys[i+1], pns[i+1] = parent.getKeyAt(i), parent.getPNAt(i)
	}
	newInternal, err := createInternalNode(pool, parent.maxSize, parent.parentPN)
	if err != nil {
		releaseSplit()
		parentPage.WUnlock()
		pool.PutPage(parentPage)
		return err
	}
	leftCount := 1 + (total-1)/2
	rising := keys[leftCount]
	// Rewrite the parent with the lower half.
	for i := int64(1); i < leftCount; i++ {
		parent.updateKeyAt(i, keys[i])
	}
	for i := int64(0); i < leftCount; i++ {
		parent.updatePNAt(i, pns[i])
	}
	parent.updateSize(leftCount)
	// Fill the new right internal with the upper half. Its key slot 0 holds
	// the rising separator, which only the parent level consults.
	for i := leftCount; i < total; i++ {
		newInternal.updateKeyAt(i-leftCount, keys[i])
		newInternal.updatePNAt(i-leftCount, pns[i])
	}
	newInternal.updateSize(total - leftCount)
	// Retarget the parent pointers of the children that moved.
	newPN := newInternal.page.GetPageNum()
	for i := leftCount; i < total; i++ {
		if err = index.setChildParent(pns[i], newPN, leftPage, rightPage); err != nil {
			releaseSplit()
			parentPage.WUnlock()
			pool.PutPage(parentPage)
			pool.PutPage(newInternal.page)
			return err
		}
	}
	// The freshly linked right sibling may have stayed in the lower half.
	if pos < leftCount {
		setParentPN(rightPage, parentPage.GetPageNum())
	}
	releaseSplit()
	return index.insertIntoParent(parentPage, rising, newInternal.page, ctx)
}

// setChildParent rewrites a child's parent pointer, reusing one of the held
// pages when the child is already pinned by the caller.
func (index *BTreeIndex) setChildParent(childPN int64, parentPN int64, held ...*buffer.Page) error {
	for _, page := range held {
		if page != nil && page.GetPageNum() == childPN {
			setParentPN(page, parentPN)
			return nil
		}
	}
	childPage, err := index.pool.GetPage(childPN)
	if err != nil {
		return err
	}
	setParentPN(childPage, parentPN)
	return index.pool.PutPage(childPage)
}

/////////////////////////////////////////////////////////////////////////////
////////////////////////// Delete rebalancing ///////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// rebalance restores the minimum-size invariant for the node at the top of
// ctx, first trying to redistribute from a sibling and merging otherwise.
// Underflow of the parent recurses; the root collapses when an internal root
// drops to a single child.
func (index *BTreeIndex) rebalance(ctx *crabContext) error {
	pool := index.pool
	nodePage := ctx.pop()
	parentPage := ctx.pages[len(ctx.pages)-1]
	parent := pageToInternalNode(parentPage)
	idx := parent.childIndex(nodePage.GetPageNum())

	releaseW := func(pages ...*buffer.Page) {
		for _, page := range pages {
			if page != nil {
				page.WUnlock()
				pool.PutPage(page)
			}
		}
	}

	// Prefer borrowing from the left sibling, then the right. The parent's
	// write latch keeps everyone else out of both siblings.
	var leftPage *buffer.Page
	if idx > 0 {
		page, err := pool.GetPage(parent.getPNAt(idx - 1))
		if err != nil {
			releaseW(nodePage)
			return err
		}
		page.WLock()
		left := pageToNode(page)
		if left.getSize() > left.getMinSize() {
			err = index.stealFromLeft(page, nodePage, parent, idx)
			releaseW(page, nodePage)
			return err
		}
		// Can't donate; hold on to it as the preferred merge target.
		leftPage = page
	}
	var rightPage *buffer.Page
	if idx < parent.size-1 {
		page, err := pool.GetPage(parent.getPNAt(idx + 1))
		if err != nil {
			releaseW(leftPage, nodePage)
			return err
		}
		page.WLock()
		right := pageToNode(page)
		if right.getSize() > right.getMinSize() {
			err = index.stealFromRight(nodePage, page, parent, idx)
			releaseW(leftPage, nodePage, page)
			return err
		}
		rightPage = page
	}

	// No sibling can donate: merge into the left node of a pair.
	var survivorPage, freedPage *buffer.Page
	var sepIdx int64
	if leftPage != nil {
		survivorPage, freedPage, sepIdx = leftPage, nodePage, idx
		releaseW(rightPage)
	} else {
		survivorPage, freedPage, sepIdx = nodePage, rightPage, idx+1
	}
	if err := index.mergeInto(survivorPage, freedPage, parent, sepIdx); err != nil {
		releaseW(survivorPage, freedPage)
		return err
	}
	freedPN := freedPage.GetPageNum()
	releaseW(freedPage)
	if err := pool.DeletePage(freedPN); err != nil {
		releaseW(survivorPage)
		return err
	}

	if parent.parentPN == buffer.NoPage {
		// The parent is the root. An internal root left with a single child
		// hands the tree down to it.
		if parent.size == 1 {
			setParentPN(survivorPage, buffer.NoPage)
			index.rootPN = survivorPage.GetPageNum()
			err := index.updateRootPageId(false)
			releaseW(survivorPage)
			oldRootPage := ctx.pop()
			oldRootPN := oldRootPage.GetPageNum()
			releaseW(oldRootPage)
			if derr := pool.DeletePage(oldRootPN); err == nil {
				err = derr
			}
			return err
		}
		releaseW(survivorPage)
		return nil
	}
	releaseW(survivorPage)
	if parent.size < parent.getMinSize() {
		return index.rebalance(ctx)
	}
	return nil
}

// stealFromLeft moves the left sibling's last entry (or child) into the
// needy node and rotates the separator in the parent accordingly.
func (index *BTreeIndex) stealFromLeft(leftPage, nodePage *buffer.Page, parent *InternalNode, idx int64) error {
	if pageToNodeHeader(nodePage).nodeType == LEAF_NODE {
		left, node := pageToLeafNode(leftPage), pageToLeafNode(nodePage)
		donated := left.getEntry(left.size - 1)
		left.updateSize(left.size - 1)
		node.insertAt(0, donated)
		parent.updateKeyAt(idx, node.getKeyAt(0))
		return nil
	}
	left, node := pageToInternalNode(leftPage), pageToInternalNode(nodePage)
	// Shift the needy node right to open child slot 0.
	for i := node.size - 1; i >= 0; i-- {
		if i > 0 {
			node.updateKeyAt(i+1, node.getKeyAt(i))
		}
		node.updatePNAt(i+1, node.getPNAt(i))
	}
	// The old separator drops in as the first real key; the donor's last key
	// rotates up to replace it.
	node.updateKeyAt(1, parent.getKeyAt(idx))
	movedPN := left.getPNAt(left.size - 1)
	node.updatePNAt(0, movedPN)
	node.updateSize(node.size + 1)
	parent.updateKeyAt(idx, left.getKeyAt(left.size-1))
	left.updateSize(left.size - 1)
	return index.setChildParent(movedPN, nodePage.GetPageNum())
}

// stealFromRight moves the right sibling's first entry (or child) into the
// needy node and rotates the separator in the parent accordingly.
func (index *BTreeIndex) stealFromRight(nodePage, rightPage *buffer.Page, parent *InternalNode, idx int64) error {
	if pageToNodeHeader(nodePage).nodeType == LEAF_NODE {
		node, right := pageToLeafNode(nodePage), pageToLeafNode(rightPage)
		node.modifyEntry(node.size, right.getEntry(0))
		node.updateSize(node.size + 1)
		right.removeAt(0)
		parent.updateKeyAt(idx+1, right.getKeyAt(0))
		return nil
	}
	node, right := pageToInternalNode(nodePage), pageToInternalNode(rightPage)
	// The separator comes down as the needy node's new last key; the donor's
	// first real key rotates up to replace it.
	node.updateKeyAt(node.size, parent.getKeyAt(idx+1))
	movedPN := right.getPNAt(0)
	node.updatePNAt(node.size, movedPN)
	node.updateSize(node.size + 1)
	parent.updateKeyAt(idx+1, right.getKeyAt(1))
	// Shift the donor left over its surrendered child.
	for i := int64(0); i < right.size-1; i++ {
		if i > 0 {
			right.updateKeyAt(i, right.getKeyAt(i+1))
		}
		right.updatePNAt(i, right.getPNAt(i+1))
	}
	right.updateSize(right.size - 1)
	return index.setChildParent(movedPN, nodePage.GetPageNum())
}

// mergeInto concatenates the right node of a pair into the left and removes
// the separator (and the right child) from the parent. The freed right page
// is deleted by the caller once unpinned.
func (index *BTreeIndex) mergeInto(leftPage, rightPage *buffer.Page, parent *InternalNode, sepIdx int64) error {
	if pageToNodeHeader(leftPage).nodeType == LEAF_NODE {
		left, right := pageToLeafNode(leftPage), pageToLeafNode(rightPage)
		for i := int64(0); i < right.size; i++ {
			left.modifyEntry(left.size+i, right.getEntry(i))
		}
		left.updateSize(left.size + right.size)
		left.setNextPN(right.nextPN)
		parent.removeChildAt(sepIdx)
		return nil
	}
	left, right := pageToInternalNode(leftPage), pageToInternalNode(rightPage)
	// The parent separator takes the place of the merged run's sentinel key.
	left.updateKeyAt(left.size, parent.getKeyAt(sepIdx))
	left.updatePNAt(left.size, right.getPNAt(0))
	for i := int64(1); i < right.size; i++ {
		left.updateKeyAt(left.size+i, right.getKeyAt(i))
		left.updatePNAt(left.size+i, right.getPNAt(i))
	}
	leftPN := leftPage.GetPageNum()
	for i := int64(0); i < right.size; i++ {
		if err := index.setChildParent(right.getPNAt(i), leftPN); err != nil {
			return err
		}
	}
	left.updateSize(left.size + right.size)
	parent.removeChildAt(sepIdx)
	return nil
}

/////////////////////////////////////////////////////////////////////////////
////////////////////////// Scans ////////////////////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// Select returns a slice of all the entries in the B+Tree ordered by their keys.
func (index *BTreeIndex) Select() ([]entry.Entry, error) {
	entries := make([]entry.Entry, 0)
	cursor, err := index.CursorAtStart()
	if err != nil {
		return nil, err
	}
	defer cursor.Close()
	for {
		entry, err := cursor.GetEntry()
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
		if cursor.Next() {
			break
		}
	}
	return entries, nil
}

// SelectRange returns a slice of entries with keys between the startKey and
// endKey. startKey is inclusive, and endKey is exclusive --> [startKey, endKey).
func (index *BTreeIndex) SelectRange(startKey int64, endKey int64) ([]entry.Entry, error) {
	if startKey >= endKey {
		return nil, errors.New("startKey is not smaller than endKey")
	}
	ret := make([]entry.Entry, 0)
	c, err := index.CursorAt(startKey)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	checkEntry, err := c.GetEntry()
	if err != nil {
		// The cursor may have landed past the last entry.
		return ret, nil
	}
	// Accumulate entries until endKey is reached or the entries run out.
	for endKey > checkEntry.Key {
		ret = append(ret, checkEntry)
		if c.Next() {
			return ret, nil
		}
		checkEntry, err = c.GetEntry()
		if err != nil {
			return ret, nil
		}
	}
	return ret, nil
}
