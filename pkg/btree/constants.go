package btree

import (
	"encoding/binary"

	"stegodb/pkg/disk"
)

// Pagenum of the header page in every index file. The header page maps index
// names to root pagenums so the root can move without losing the tree.
const HEADER_PN int64 = 0

// Entry constants.
const ENTRYSIZE int64 = binary.MaxVarintLen64 * 2

// Node header constants, common to both node types.
// An internal node's size counts children; a leaf node's size counts entries.
const (
	NODETYPE_OFFSET  int64 = 0
	NODETYPE_SIZE    int64 = 1
	SIZE_OFFSET      int64 = NODETYPE_OFFSET + NODETYPE_SIZE
	SIZE_SIZE        int64 = binary.MaxVarintLen64
	MAX_SIZE_OFFSET  int64 = SIZE_OFFSET + SIZE_SIZE
	MAX_SIZE_SIZE    int64 = binary.MaxVarintLen64
	PARENT_PN_OFFSET int64 = MAX_SIZE_OFFSET + MAX_SIZE_SIZE
	PARENT_PN_SIZE   int64 = binary.MaxVarintLen64
	NODE_HEADER_SIZE int64 = NODETYPE_SIZE + SIZE_SIZE + MAX_SIZE_SIZE + PARENT_PN_SIZE
)

// Leaf node header constants.
const (
	NEXT_PN_OFFSET        int64 = NODE_HEADER_SIZE
	NEXT_PN_SIZE          int64 = binary.MaxVarintLen64
	LEAF_NODE_HEADER_SIZE int64 = NODE_HEADER_SIZE + NEXT_PN_SIZE
	// The default (and largest possible) leaf split threshold. A leaf splits as
	// soon as an insert brings it to this size, so the page's last entry slot
	// is never used.
	ENTRIES_PER_LEAF_NODE int64 = ((disk.Pagesize - LEAF_NODE_HEADER_SIZE) / ENTRYSIZE) - 1
)

// Internal node layout constants. The key and child arrays live at fixed
// offsets sized by the page capacity; a node's own max size may be smaller.
const (
	KEY_SIZE   int64 = binary.MaxVarintLen64
	PN_SIZE    int64 = binary.MaxVarintLen64
	MAX_FANOUT int64 = (disk.Pagesize - NODE_HEADER_SIZE) / (KEY_SIZE + PN_SIZE)
	// The default (and largest possible) number of children per internal node.
	CHILDREN_PER_INTERNAL_NODE int64 = MAX_FANOUT - 1
	KEYS_OFFSET                int64 = NODE_HEADER_SIZE
	KEYS_SIZE                  int64 = KEY_SIZE * MAX_FANOUT
	PNS_OFFSET                 int64 = KEYS_OFFSET + KEYS_SIZE
)

// Header page layout constants.
const (
	NUM_RECORDS_OFFSET int64 = 0
	NUM_RECORDS_SIZE   int64 = binary.MaxVarintLen64
	INDEX_NAME_SIZE    int64 = 32
	ROOT_RECORD_SIZE   int64 = INDEX_NAME_SIZE + binary.MaxVarintLen64
	MAX_ROOT_RECORDS   int64 = (disk.Pagesize - NUM_RECORDS_SIZE) / ROOT_RECORD_SIZE
)
