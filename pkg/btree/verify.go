package btree

import (
	"fmt"

	"stegodb/pkg/buffer"
)

// CheckInvariants walks the whole tree and errors on the first structural
// violation it finds: out-of-order keys, separator bounds not honored, leaves
// at unequal depths, undersized non-root nodes, stale parent pointers, or a
// broken leaf chain. Intended for tests and the stress driver; the tree must
// be quiescent while it runs.
func (index *BTreeIndex) CheckInvariants() error {
	rootPN := index.GetRootPageNum()
	if rootPN == buffer.NoPage {
		return nil
	}
	rootPage, err := index.pool.GetPage(rootPN)
	if err != nil {
		return err
	}
	defer index.pool.PutPage(rootPage)
	root := pageToNode(rootPage)
	if root.getParentPN() != buffer.NoPage {
		return fmt.Errorf("root node %d has parent %d", rootPN, root.getParentPN())
	}
	if inode, ok := root.(*InternalNode); ok && inode.size < 2 {
		return fmt.Errorf("internal root %d has %d children", rootPN, inode.size)
	}
	_, _, _, count, err := index.checkSubtree(root, true)
	if err != nil {
		return err
	}
	return index.checkLeafChain(rootPN, count)
}

// checkSubtree recursively validates the subtree under the given node,
// returning its key bounds, leaf depth, and entry count.
func (index *BTreeIndex) checkSubtree(n Node, isRoot bool) (lo int64, hi int64, depth int64, count int64, err error) {
	switch n := n.(type) {
	case *LeafNode:
		if !isRoot && n.size < n.getMinSize() {
			return 0, 0, 0, 0, fmt.Errorf("leaf %d holds %d entries, below min %d",
				n.page.GetPageNum(), n.size, n.getMinSize())
		}
		for i := int64(0); i < n.size-1; i++ {
			if n.getKeyAt(i) >= n.getKeyAt(i+1) {
				return 0, 0, 0, 0, fmt.Errorf("leaf %d keys not strictly ascending at index %d",
					n.page.GetPageNum(), i)
			}
		}
		if n.size == 0 {
			return 0, 0, 1, 0, nil
		}
		return n.getKeyAt(0), n.getKeyAt(n.size - 1), 1, n.size, nil
	case *InternalNode:
		if !isRoot && n.size < n.getMinSize() {
			return 0, 0, 0, 0, fmt.Errorf("internal %d references %d children, below min %d",
				n.page.GetPageNum(), n.size, n.getMinSize())
		}
		for i := int64(1); i < n.size-1; i++ {
			if n.getKeyAt(i) >= n.getKeyAt(i+1) {
				return 0, 0, 0, 0, fmt.Errorf("internal %d separators not strictly ascending at index %d",
					n.page.GetPageNum(), i)
			}
		}
		var childDepth int64
		for i := int64(0); i < n.size; i++ {
			childPage, cerr := index.pool.GetPage(n.getPNAt(i))
			if cerr != nil {
				return 0, 0, 0, 0, cerr
			}
			child := pageToNode(childPage)
			if child.getParentPN() != n.page.GetPageNum() {
				index.pool.PutPage(childPage)
				return 0, 0, 0, 0, fmt.Errorf("node %d has parent pointer %d, expected %d",
					childPage.GetPageNum(), child.getParentPN(), n.page.GetPageNum())
			}
			cl, ch, cd, cc, cerr := index.checkSubtree(child, false)
			index.pool.PutPage(childPage)
			if cerr != nil {
				return 0, 0, 0, 0, cerr
			}
			if i == 0 {
				lo, childDepth = cl, cd
			} else {
				// Every key under child i must be >= separator i, and every
				// key under child i-1 must be < separator i.
				if cl < n.getKeyAt(i) {
					return 0, 0, 0, 0, fmt.Errorf("internal %d: child %d key %d below separator %d",
						n.page.GetPageNum(), i, cl, n.getKeyAt(i))
				}
				if hi >= n.getKeyAt(i) {
					return 0, 0, 0, 0, fmt.Errorf("internal %d: child %d key %d reaches separator %d",
						n.page.GetPageNum(), i-1, hi, n.getKeyAt(i))
				}
				if cd != childDepth {
					return 0, 0, 0, 0, fmt.Errorf("internal %d: leaves at unequal depths %d and %d",
						n.page.GetPageNum(), childDepth, cd)
				}
			}
			hi = ch
			count += cc
		}
		return lo, hi, childDepth + 1, count, nil
	}
	return 0, 0, 0, 0, fmt.Errorf("unknown node type")
}

// checkLeafChain walks the leaf chain from the leftmost leaf, verifying that
// it visits strictly ascending keys and exactly the tree's entries.
func (index *BTreeIndex) checkLeafChain(rootPN int64, wantCount int64) error {
	curPage, err := index.pool.GetPage(rootPN)
	if err != nil {
		return err
	}
	for pageToNodeHeader(curPage).nodeType != LEAF_NODE {
		childPN := pageToInternalNode(curPage).getPNAt(0)
		index.pool.PutPage(curPage)
		if curPage, err = index.pool.GetPage(childPN); err != nil {
			return err
		}
	}
	var count int64
	var last int64
	for {
		leaf := pageToLeafNode(curPage)
		for i := int64(0); i < leaf.size; i++ {
			key := leaf.getKeyAt(i)
			if count > 0 && key <= last {
				index.pool.PutPage(curPage)
				return fmt.Errorf("leaf chain not strictly ascending at key %d", key)
			}
			last = key
			count++
		}
		nextPN := leaf.nextPN
		index.pool.PutPage(curPage)
		if nextPN == buffer.NoPage {
			break
		}
		if curPage, err = index.pool.GetPage(nextPN); err != nil {
			return err
		}
	}
	if count != wantCount {
		return fmt.Errorf("leaf chain visits %d entries, tree holds %d", count, wantCount)
	}
	return nil
}
