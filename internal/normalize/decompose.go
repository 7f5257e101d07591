package normalize

import (
	"log/slog"

	"github.com/roach88/bcnf/internal/schema"
)

// Options configures a Decomposer.
type Options struct {
	// Logger receives a Debug record for every split. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// ProjectFromRoot changes where child dependencies are projected from.
	//
	// By default each child projects from its parent's own dependency list,
	// so the list narrows monotonically along every path of the tree. With
	// ProjectFromRoot set, every child projects from the list passed to
	// DecomposeTree instead. Projecting a projection onto a subset gives
	// the same list as projecting the original, so both modes build the
	// same tree; the default closes over shorter lists.
	ProjectFromRoot bool
}

// Decomposer builds BCNF decomposition trees.
// A Decomposer holds no per-call state and may be reused.
type Decomposer struct {
	opts   Options
	logger *slog.Logger
}

// NewDecomposer creates a Decomposer with the given options.
func NewDecomposer(opts Options) *Decomposer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Decomposer{opts: opts, logger: logger}
}

// DecomposeTree decomposes root.Relation under fds with default options.
// It populates root's subtree in place and returns root.
func DecomposeTree(root *Node, fds []schema.FD) *Node {
	return NewDecomposer(Options{}).DecomposeTree(root, fds)
}

// Decompose returns the leaf relations of the BCNF decomposition of rel,
// in left-then-right order.
func Decompose(rel schema.Relation, fds []schema.FD) []schema.Relation {
	return DecomposeTree(NewNode(rel), fds).LeafRelations()
}

// DecomposeTree populates root's subtree in place and returns root.
//
// At each node the dependencies are examined in list order and the first
// one whose left side is not a superkey splits the node:
//
//	left  = Closure(X)
//	right = (R − Closure(X)) ∪ X
//
// Children are named after the parent with "1" and "2" appended, get their
// own projected dependency lists, and are decomposed left then right. A node
// with no violating dependency is a leaf.
func (d *Decomposer) DecomposeTree(root *Node, fds []schema.FD) *Node {
	d.decompose(root, fds, fds)
	return root
}

func (d *Decomposer) decompose(node *Node, fds, rootFDs []schema.FD) {
	rel := node.Relation
	node.Dependencies = fds

	fd, closure, found := findViolation(rel, fds)
	if !found {
		return
	}

	leftAttrs := closure
	rightAttrs := rel.Attributes.Difference(closure).Union(fd.X)

	source := fds
	if d.opts.ProjectFromRoot {
		source = rootFDs
	}
	leftFDs := ProjectAll(leftAttrs, source)
	rightFDs := ProjectAll(rightAttrs, source)

	node.Violation = &fd
	node.Left = &Node{
		Relation: schema.Relation{Name: rel.Name + "1", Attributes: leftAttrs},
		Depth:    node.Depth + 1,
	}
	node.Right = &Node{
		Relation: schema.Relation{Name: rel.Name + "2", Attributes: rightAttrs},
		Depth:    node.Depth + 1,
	}

	d.logger.Debug("splitting relation",
		"relation", rel.String(),
		"violation", fd.String(),
		"left", node.Left.Relation.String(),
		"right", node.Right.Relation.String(),
		"depth", node.Depth,
	)

	d.decompose(node.Left, leftFDs, rootFDs)
	d.decompose(node.Right, rightFDs, rootFDs)
}

// IsSuperkey reports whether the closure of x under fds is exactly the
// attribute set of rel.
func IsSuperkey(x schema.AttributeSet, rel schema.Relation, fds []schema.FD) bool {
	return Closure(x, fds).Equal(rel.Attributes)
}

// FindViolation returns the first dependency in fds that violates BCNF
// for rel.
func FindViolation(rel schema.Relation, fds []schema.FD) (schema.FD, bool) {
	fd, _, found := findViolation(rel, fds)
	return fd, found
}

// IsBCNF reports whether no dependency in fds violates BCNF for rel.
func IsBCNF(rel schema.Relation, fds []schema.FD) bool {
	_, _, found := findViolation(rel, fds)
	return !found
}

// findViolation also returns the violating dependency's closure so the
// caller can split without recomputing it.
//
// A dependency whose closure adds nothing to X within rel (for example
// A -> A) is skipped: splitting on it would reproduce rel as its own
// right child and never terminate.
func findViolation(rel schema.Relation, fds []schema.FD) (schema.FD, schema.AttributeSet, bool) {
	for _, fd := range fds {
		closure := Closure(fd.X, fds)
		if closure.Equal(rel.Attributes) {
			continue
		}
		if rel.Attributes.Intersect(closure).IsSubsetOf(fd.X) {
			continue
		}
		return fd, closure, true
	}
	return schema.FD{}, schema.AttributeSet{}, false
}
