package btree

import (
	"encoding/binary"
	"io"

	"stegodb/pkg/buffer"
	"stegodb/pkg/disk"
)

/////////////////////////////////////////////////////////////////////////////
///////////////////////// Structs and interfaces ////////////////////////////
/////////////////////////////////////////////////////////////////////////////

// Node defines a common interface for leaf and internal nodes.
type Node interface {
	// getPage returns the node's underlying page where its data is stored.
	getPage() *buffer.Page
	getNodeType() NodeType
	getSize() int64
	getMaxSize() int64
	// getMinSize returns the smallest size a non-root node may hold at rest.
	getMinSize() int64
	getParentPN() int64
	// printNode writes a string representation of the node to the specified writer.
	printNode(io.Writer, string, string)
}

// NodeType identifies if a node is a leaf node or an internal node.
type NodeType bool

const (
	INTERNAL_NODE NodeType = false
	LEAF_NODE     NodeType = true
)

// NodeHeaders contain metadata common to all types of nodes.
type NodeHeader struct {
	nodeType NodeType     // The type of the node (either leaf or internal).
	size     int64        // Entries stored (leaf) or children referenced (internal).
	maxSize  int64        // Leaf: size at which it splits. Internal: most children it holds.
	parentPN int64        // Pagenum of the node's parent; -1 for the root.
	page     *buffer.Page // The page that holds the node's data.
}

/////////////////////////////////////////////////////////////////////////////
//////////////////////// Generic Helper Functions ///////////////////////////
/////////////////////////////////////////////////////////////////////////////

// getField reads the varint header field at the given page offset.
// Concurrency note: the given page must at least be read-latched before calling.
func getField(page *buffer.Page, offset int64) int64 {
	value, _ := binary.Varint(page.GetData()[offset : offset+binary.MaxVarintLen64])
	return value
}

// setField writes the varint header field at the given page offset.
func setField(page *buffer.Page, offset int64, value int64) {
	data := make([]byte, binary.MaxVarintLen64)
	binary.PutVarint(data, value)
	page.Update(data, offset, binary.MaxVarintLen64)
}

// initPage resets the page's data, then writes the node type bit, an empty
// size, the split threshold, and the parent pointer.
func initPage(page *buffer.Page, nodeType NodeType, maxSize int64, parentPN int64) {
	newData := make([]byte, disk.Pagesize)
	// Set the nodeType bit for leaf nodes (the internal bit is just 0).
	if nodeType == LEAF_NODE {
		newData[NODETYPE_OFFSET] = 1
	}
	page.Update(newData, 0, disk.Pagesize)
	setField(page, SIZE_OFFSET, 0)
	setField(page, MAX_SIZE_OFFSET, maxSize)
	setField(page, PARENT_PN_OFFSET, parentPN)
}

// pageToNode returns the node corresponding to the given page.
// Concurrency note: the given page must at least be read-latched before calling.
func pageToNode(page *buffer.Page) Node {
	if pageToNodeHeader(page).nodeType == LEAF_NODE {
		return pageToLeafNode(page)
	}
	return pageToInternalNode(page)
}

// pageToNodeHeader returns node header data from the given page.
// Concurrency note: the given page must at least be read-latched before calling.
func pageToNodeHeader(page *buffer.Page) NodeHeader {
	var nodeType NodeType
	if page.GetData()[NODETYPE_OFFSET] == 0 {
		nodeType = INTERNAL_NODE
	} else {
		nodeType = LEAF_NODE
	}
	return NodeHeader{
		nodeType: nodeType,
		size:     getField(page, SIZE_OFFSET),
		maxSize:  getField(page, MAX_SIZE_OFFSET),
		parentPN: getField(page, PARENT_PN_OFFSET),
		page:     page,
	}
}

// setParentPN rewrites the parent pointer stored on the given page.
// Callers must hold the write latch of the page's current parent, which keeps
// every other reader of this field out (parent pointers are only followed
// upward by operations that latched their way down through the parent).
func setParentPN(page *buffer.Page, parentPN int64) {
	setField(page, PARENT_PN_OFFSET, parentPN)
}
