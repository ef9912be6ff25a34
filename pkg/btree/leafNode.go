package btree

import (
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strconv"

	"stegodb/pkg/buffer"
	"stegodb/pkg/entry"
)

// LeafNode represents a node at the bottom of a B+Tree that stores the actual
// key-value pairs that represent our data.
type LeafNode struct {
	NodeHeader       // Embeds all NodeHeader fields.
	nextPN     int64 // Pagenum of the next leaf in key order; -1 for the last leaf.
}

// pageToLeafNode returns the leaf node that is stored in the specified page.
// Concurrency note: the given page must at least be read-latched before calling.
func pageToLeafNode(page *buffer.Page) *LeafNode {
	nodeHeader := pageToNodeHeader(page)
	nextPN, _ := binary.Varint(
		page.GetData()[NEXT_PN_OFFSET : NEXT_PN_OFFSET+NEXT_PN_SIZE],
	)
	return &LeafNode{nodeHeader, nextPN}
}

// createLeafNode creates and returns a new, empty leaf node.
// Nodes created with this function must use `PutPage()` accordingly after use.
func createLeafNode(pool *buffer.Manager, maxSize int64, parentPN int64) (*LeafNode, error) {
	newPage, err := pool.GetNewPage()
	if err != nil {
		return nil, err
	}
	// No latch needed here since we are the only one with a reference to it.
	initPage(newPage, LEAF_NODE, maxSize, parentPN)
	node := pageToLeafNode(newPage)
	node.setNextPN(buffer.NoPage)
	return node, nil
}

// search returns the first index where key >= given key.
// If no key satisfies this condition, returns the node's size.
func (node *LeafNode) search(key int64) int64 {
	minIndex := sort.Search(
		int(node.size),
		func(idx int) bool {
			return node.getKeyAt(int64(idx)) >= key
		},
	)
	return int64(minIndex)
}

// insertAt inserts the given entry at the given index, shifting entries right
// to make room. The caller checks afterwards whether the node must split.
func (node *LeafNode) insertAt(index int64, newEntry entry.Entry) {
	for i := node.size - 1; i >= index; i-- {
		node.modifyEntry(i+1, node.getEntry(i))
	}
	node.modifyEntry(index, newEntry)
	node.updateSize(node.size + 1)
}

// removeAt removes the entry at the given index, shifting entries left over it.
func (node *LeafNode) removeAt(index int64) {
	for i := index; i < node.size-1; i++ {
		node.modifyEntry(i, node.getEntry(i+1))
	}
	node.updateSize(node.size - 1)
}

/////////////////////////////////////////////////////////////////////////////
////////////////////////// Leaf Node Helper Functions ///////////////////////
/////////////////////////////////////////////////////////////////////////////

// getPage returns a pointer to the leaf node's page.
func (node *LeafNode) getPage() *buffer.Page {
	return node.page
}

// getNodeType returns leafNode.
func (node *LeafNode) getNodeType() NodeType {
	return node.nodeType
}

// getSize returns the number of entries stored in the leaf node.
func (node *LeafNode) getSize() int64 {
	return node.size
}

// getMaxSize returns the size at which the leaf node splits.
func (node *LeafNode) getMaxSize() int64 {
	return node.maxSize
}

// getMinSize returns ceil((maxSize-1)/2), the smallest number of entries a
// non-root leaf may hold at rest.
func (node *LeafNode) getMinSize() int64 {
	return node.maxSize / 2
}

// getParentPN returns the pagenum of the leaf node's parent.
func (node *LeafNode) getParentPN() int64 {
	return node.parentPN
}

// setNextPN sets the next-leaf pagenum field of the leaf node and updates the
// leaf node's page accordingly. Returns the old next-leaf pagenum.
func (node *LeafNode) setNextPN(nextPN int64) int64 {
	oldNextPN := node.nextPN
	node.nextPN = nextPN
	setField(node.page, NEXT_PN_OFFSET, nextPN)
	return oldNextPN
}

// entryPos returns the page offset to the entry at the given index.
func (node *LeafNode) entryPos(index int64) int64 {
	return LEAF_NODE_HEADER_SIZE + index*ENTRYSIZE
}

// modifyEntry updates the data stored in the entry at the given index.
func (node *LeafNode) modifyEntry(index int64, entry entry.Entry) {
	newdata := entry.Marshal()
	startPos := node.entryPos(index)
	node.page.Update(newdata, startPos, ENTRYSIZE)
}

// getEntry returns the entry stored at the given index.
// Concurrency note: this LeafNode must at least be read-latched before calling.
func (node *LeafNode) getEntry(index int64) entry.Entry {
	startPos := node.entryPos(index)
	return entry.UnmarshalEntry(node.page.GetData()[startPos : startPos+ENTRYSIZE])
}

// getKeyAt returns the key stored at the given index of the leaf node.
// Concurrency note: this LeafNode must at least be read-latched before calling.
func (node *LeafNode) getKeyAt(index int64) int64 {
	return node.getEntry(index).Key
}

// getValueAt returns the value stored at the given index of the leaf node.
// Concurrency note: this LeafNode must at least be read-latched before calling.
func (node *LeafNode) getValueAt(index int64) int64 {
	return node.getEntry(index).Value
}

// updateValueAt updates the value at the given index of the leaf node.
func (node *LeafNode) updateValueAt(index int64, newVal int64) {
	existingKey := node.getKeyAt(index)
	node.modifyEntry(index, entry.New(existingKey, newVal))
}

// updateSize updates the size field in the node struct and the page.
func (node *LeafNode) updateSize(newSize int64) {
	node.size = newSize
	setField(node.page, SIZE_OFFSET, newSize)
}

// printNode pretty prints our leaf node.
func (node *LeafNode) printNode(w io.Writer, firstPrefix string, prefix string) {
	// Format header data.
	var nodeType string = "Leaf"
	var isRoot string
	if node.parentPN == buffer.NoPage {
		isRoot = " (root)"
	}
	numKeys := strconv.Itoa(int(node.size))
	// Print header data.
	io.WriteString(w, fmt.Sprintf("%v[%v] %v%v size: %v\n",
		firstPrefix, node.page.GetPageNum(), nodeType, isRoot, numKeys))
	// Print entries.
	for entrynum := int64(0); entrynum < node.size; entrynum++ {
		entry := node.getEntry(entrynum)
		io.WriteString(w, fmt.Sprintf("%v |--> (%v, %v)\n",
			prefix, entry.Key, entry.Value))
	}
	if node.nextPN > 0 {
		io.WriteString(w, fmt.Sprintf("%v |--+\n", prefix))
		io.WriteString(w, fmt.Sprintf("%v    | next leaf @ [%v]\n",
			prefix, node.nextPN))
		io.WriteString(w, fmt.Sprintf("%v    v\n", prefix))
	}
}
