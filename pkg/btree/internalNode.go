package btree

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"stegodb/pkg/buffer"
)

// InternalNode represents a non-leaf node in our B+Tree that stores separator
// keys and pagenums of child nodes to aid traversal.
//
// A node of size s references s children; the key at index i >= 1 lower-bounds
// every key in the subtree of child i. The key slot at index 0 is a sentinel
// and never consulted.
type InternalNode struct {
	NodeHeader // Embeds all NodeHeader fields.
}

// pageToInternalNode returns the internal node corresponding to the given page.
// Concurrency note: the given page must at least be read-latched before calling.
func pageToInternalNode(page *buffer.Page) *InternalNode {
	return &InternalNode{pageToNodeHeader(page)}
}

// createInternalNode creates and returns a new, empty internal node.
// Nodes created with this function must use `PutPage()` accordingly after use.
func createInternalNode(pool *buffer.Manager, maxSize int64, parentPN int64) (*InternalNode, error) {
	newPage, err := pool.GetNewPage()
	if err != nil {
		return nil, err
	}
	initPage(newPage, INTERNAL_NODE, maxSize, parentPN)
	return pageToInternalNode(newPage), nil
}

// search returns the index of the child subtree that owns the given key:
// the last child whose separator key is <= the search key.
func (node *InternalNode) search(key int64) int64 {
	// Binary search over the meaningful keys [1, size) for the first key
	// strictly greater than the search key.
	minIndex := sort.Search(
		int(node.size-1),
		func(idx int) bool {
			return node.getKeyAt(int64(idx)+1) > key
		},
	)
	return int64(minIndex)
}

// childIndex returns the index at which the given pagenum appears among the
// node's children. Panics if the pagenum is not a child; the caller is
// expected to have read it out of this node under latch.
func (node *InternalNode) childIndex(childPN int64) int64 {
	for i := int64(0); i < node.size; i++ {
		if node.getPNAt(i) == childPN {
			return i
		}
	}
	panic(fmt.Sprintf("btree: page %d is not a child of internal node %d",
		childPN, node.page.GetPageNum()))
}

// insertChild inserts the separator key and child pagenum into the node in
// sorted position, shifting existing entries right. The caller guarantees
// there is room (size < maxSize).
func (node *InternalNode) insertChild(key int64, childPN int64) {
	pos := node.search(key) + 1
	for i := node.size - 1; i >= pos; i-- {
		node.updateKeyAt(i+1, node.getKeyAt(i))
		node.updatePNAt(i+1, node.getPNAt(i))
	}
	node.updateKeyAt(pos, key)
	node.updatePNAt(pos, childPN)
	node.updateSize(node.size + 1)
}

// removeChildAt removes the separator key and child pagenum at the given
// index, shifting the entries above it left.
func (node *InternalNode) removeChildAt(index int64) {
	for i := index; i < node.size-1; i++ {
		node.updateKeyAt(i, node.getKeyAt(i+1))
		node.updatePNAt(i, node.getPNAt(i+1))
	}
	node.updateSize(node.size - 1)
}

/////////////////////////////////////////////////////////////////////////////
///////////////////// Internal Node Helper Functions ////////////////////////
/////////////////////////////////////////////////////////////////////////////

// getPage returns the internal node's page.
func (node *InternalNode) getPage() *buffer.Page {
	return node.page
}

// getNodeType returns internalNode.
func (node *InternalNode) getNodeType() NodeType {
	return node.nodeType
}

// getSize returns the number of children the internal node references.
func (node *InternalNode) getSize() int64 {
	return node.size
}

// getMaxSize returns the most children the internal node may hold; adding a
// child to a node of this size splits it.
func (node *InternalNode) getMaxSize() int64 {
	return node.maxSize
}

// getMinSize returns ceil(maxSize/2), the smallest number of children a
// non-root internal node may reference at rest.
func (node *InternalNode) getMinSize() int64 {
	return (node.maxSize + 1) / 2
}

// getParentPN returns the pagenum of the internal node's parent.
func (node *InternalNode) getParentPN() int64 {
	return node.parentPN
}

// keyPos returns the offset in the page to the internal node's ith key.
func keyPos(index int64) int64 {
	return KEYS_OFFSET + index*KEY_SIZE
}

// pnPos returns the page offset to the internal node's ith child's pagenum.
func pnPos(index int64) int64 {
	return PNS_OFFSET + index*PN_SIZE
}

// getKeyAt returns the key stored at the given index of the internal node.
// Concurrency note: this InternalNode's page should at least be read-latched before calling.
func (node *InternalNode) getKeyAt(index int64) int64 {
	return getField(node.page, keyPos(index))
}

// updateKeyAt updates the key at the given index of the internal node.
func (node *InternalNode) updateKeyAt(index int64, newKey int64) {
	setField(node.page, keyPos(index), newKey)
}

// getPNAt returns the pagenum stored at the given index of the internal node.
// Concurrency note: this InternalNode's page should at least be read-latched before calling.
func (node *InternalNode) getPNAt(index int64) int64 {
	return getField(node.page, pnPos(index))
}

// updatePNAt updates the pagenum at the given index of the internal node.
func (node *InternalNode) updatePNAt(index int64, newPagenum int64) {
	setField(node.page, pnPos(index), newPagenum)
}

// updateSize updates the size field in the node struct and the underlying page.
func (node *InternalNode) updateSize(newSize int64) {
	node.size = newSize
	setField(node.page, SIZE_OFFSET, newSize)
}

// printNode pretty prints our internal node.
func (node *InternalNode) printNode(w io.Writer, firstPrefix string, prefix string) {
	// Format header data.
	var nodeType string = "Internal"
	var isRoot string
	if node.parentPN == buffer.NoPage {
		isRoot = " (root)"
	}
	size := strconv.Itoa(int(node.size))
	// Print header data.
	io.WriteString(w, fmt.Sprintf("%v[%v] %v%v size: %v\n",
		firstPrefix, node.page.GetPageNum(), nodeType, isRoot, size))
	// Print children, interleaved with the separator keys.
	nextFirstPrefix := prefix + " |--> "
	nextPrefix := prefix + " |    "
	pool := node.page.GetPool()
	for idx := int64(0); idx < node.size; idx++ {
		io.WriteString(w, fmt.Sprintf("%v\n", nextPrefix))
		childPage, err := pool.GetPage(node.getPNAt(idx))
		if err != nil {
			return
		}
		child := pageToNode(childPage)
		child.printNode(w, nextFirstPrefix, nextPrefix)
		pool.PutPage(childPage)
		if idx+1 < node.size {
			io.WriteString(w, fmt.Sprintf("\n%v[KEY] %v\n", nextPrefix, node.getKeyAt(idx+1)))
		}
	}
}
