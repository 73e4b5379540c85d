package hash

// ---------------------------------------------------------------------------
// Frozen fingerprint tree.
//
// A position-free parallel of compiler.Tree: every node is its frozen tag,
// its text and its children. Source offsets, comments and indentation
// widths never reach it, so two sources differing only in layout produce
// identical fingerprint trees.
// ---------------------------------------------------------------------------

// HNode is one node of the fingerprint tree.
type HNode struct {
	_        struct{} `cbor:",toarray"`
	Tag      byte
	Text     string
	Children []*HNode
}

// Equal reports whether two fingerprint trees are identical.
func (n *HNode) Equal(o *HNode) bool {
	if n == nil || o == nil {
		return n == o
	}
	if n.Tag != o.Tag || n.Text != o.Text || len(n.Children) != len(o.Children) {
		return false
	}
	for i := range n.Children {
		if !n.Children[i].Equal(o.Children[i]) {
			return false
		}
	}
	return true
}

// Size returns the number of nodes in the tree rooted at n.
func (n *HNode) Size() int {
	if n == nil {
		return 0
	}
	size := 1
	for _, c := range n.Children {
		size += c.Size()
	}
	return size
}
