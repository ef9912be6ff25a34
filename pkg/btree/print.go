package btree

import (
	"fmt"
	"io"

	"stegodb/pkg/buffer"
)

// Print will pretty-print all nodes in the B+Tree.
func (index *BTreeIndex) Print(w io.Writer) {
	rootPN := index.GetRootPageNum()
	if rootPN == buffer.NoPage {
		io.WriteString(w, "empty tree\n")
		return
	}
	rootPage, err := index.pool.GetPage(rootPN)
	if err != nil {
		return
	}
	defer index.pool.PutPage(rootPage)
	pageToNode(rootPage).printNode(w, "", "")
}

// PrintPN will pretty-print the node with page number PN.
func (index *BTreeIndex) PrintPN(pagenum int, w io.Writer) {
	page, err := index.pool.GetPage(int64(pagenum))
	if err != nil {
		return
	}
	defer index.pool.PutPage(page)
	pageToNode(page).printNode(w, "", "")
}

// Draw writes a DOT-format graph of the whole tree to the specified writer,
// suitable for rendering with graphviz.
func (index *BTreeIndex) Draw(w io.Writer) {
	io.WriteString(w, "digraph tree {\n")
	rootPN := index.GetRootPageNum()
	if rootPN != buffer.NoPage {
		if rootPage, err := index.pool.GetPage(rootPN); err == nil {
			index.toGraph(pageToNode(rootPage), w)
			index.pool.PutPage(rootPage)
		}
	}
	io.WriteString(w, "}\n")
}

// toGraph emits the DOT node for the given tree node and recurses into its
// children.
func (index *BTreeIndex) toGraph(node Node, w io.Writer) {
	switch node := node.(type) {
	case *LeafNode:
		fmt.Fprintf(w, "LEAF_%d [shape=plain color=green label=<<TABLE BORDER=\"0\" CELLBORDER=\"1\" CELLSPACING=\"0\"><TR><TD COLSPAN=\"%d\">P=%d size=%d</TD></TR><TR>",
			node.page.GetPageNum(), max64(node.size, 1), node.page.GetPageNum(), node.size)
		for i := int64(0); i < node.size; i++ {
			fmt.Fprintf(w, "<TD>%d</TD>", node.getKeyAt(i))
		}
		if node.size == 0 {
			io.WriteString(w, "<TD> </TD>")
		}
		io.WriteString(w, "</TR></TABLE>>];\n")
		if node.nextPN != buffer.NoPage {
			fmt.Fprintf(w, "LEAF_%d -> LEAF_%d;\n", node.page.GetPageNum(), node.nextPN)
			fmt.Fprintf(w, "{rank=same LEAF_%d LEAF_%d};\n", node.page.GetPageNum(), node.nextPN)
		}
	case *InternalNode:
		fmt.Fprintf(w, "INT_%d [shape=plain color=pink label=<<TABLE BORDER=\"0\" CELLBORDER=\"1\" CELLSPACING=\"0\"><TR><TD COLSPAN=\"%d\">P=%d size=%d</TD></TR><TR>",
			node.page.GetPageNum(), node.size, node.page.GetPageNum(), node.size)
		for i := int64(0); i < node.size; i++ {
			if i == 0 {
				io.WriteString(w, "<TD> </TD>")
			} else {
				fmt.Fprintf(w, "<TD>%d</TD>", node.getKeyAt(i))
			}
		}
		io.WriteString(w, "</TR></TABLE>>];\n")
		for i := int64(0); i < node.size; i++ {
			childPage, err := index.pool.GetPage(node.getPNAt(i))
			if err != nil {
				return
			}
			child := pageToNode(childPage)
			prefix := "INT"
			if child.getNodeType() == LEAF_NODE {
				prefix = "LEAF"
			}
			fmt.Fprintf(w, "INT_%d -> %s_%d;\n", node.page.GetPageNum(), prefix, childPage.GetPageNum())
			index.toGraph(child, w)
			index.pool.PutPage(childPage)
		}
	}
}

// max64 returns the larger of two int64s.
func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
