package normalize

import (
	"strings"

	"github.com/roach88/bcnf/internal/schema"
)

// emptyMarker stands in for an absent child when rendering.
const emptyMarker = "-"

// Node is one relation in a decomposition tree.
// A node is a leaf iff both children are nil; internal nodes always have
// two children.
type Node struct {
	Relation schema.Relation
	Left     *Node
	Right    *Node
	Depth    int

	// Violation is the dependency this node was split on, nil for leaves.
	Violation *schema.FD

	// Dependencies is the list the node was checked against: the input
	// list at the root, a projection below it. Not persisted.
	Dependencies []schema.FD
}

// NewNode creates an unvisited root node for rel.
func NewNode(rel schema.Relation) *Node {
	return &Node{Relation: rel}
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return n.Left == nil && n.Right == nil
}

// Walk visits the subtree in pre-order (node, left, right) until fn
// returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	return n.Left.Walk(fn) && n.Right.Walk(fn)
}

// Leaves returns the leaf nodes in left-then-right order.
func (n *Node) Leaves() []*Node {
	var leaves []*Node
	n.Walk(func(node *Node) bool {
		if node.IsLeaf() {
			leaves = append(leaves, node)
		}
		return true
	})
	return leaves
}

// LeafRelations returns the relations of Leaves. Their attribute sets are
// the BCNF decomposition of the root relation.
func (n *Node) LeafRelations() []schema.Relation {
	leaves := n.Leaves()
	rels := make([]schema.Relation, len(leaves))
	for i, leaf := range leaves {
		rels[i] = leaf.Relation
	}
	return rels
}

// Count returns the number of nodes in the subtree.
func (n *Node) Count() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Height returns the number of levels below n; a leaf has height 0.
func (n *Node) Height() int {
	if n == nil || n.IsLeaf() {
		return 0
	}
	return 1 + max(n.Left.Height(), n.Right.Height())
}

// String renders the subtree, one relation per line:
//
//	R(A, B, C)
//	|- R1(A, B)
//	  |- -
//	  |- -
//	|- R2(A, C)
//	  |- -
//	  |- -
func (n *Node) String() string {
	if n == nil {
		return emptyMarker
	}
	var b strings.Builder
	n.render(&b)
	return b.String()
}

func (n *Node) render(b *strings.Builder) {
	b.WriteString(n.Relation.String())
	indent := strings.Repeat("  ", n.Depth)
	for _, child := range []*Node{n.Left, n.Right} {
		b.WriteString("\n")
		b.WriteString(indent)
		b.WriteString("|- ")
		if child == nil {
			b.WriteString(emptyMarker)
			continue
		}
		child.render(b)
	}
}
