package normalize

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bcnf/internal/schema"
	"github.com/roach88/bcnf/internal/testutil"
)

func TestDecompose_TextbookExample(t *testing.T) {
	rel := testutil.Relation("R(A, B, C, D, E)")
	fds := testutil.FDs("A -> B", "B -> D E", "C -> E")

	leaves := Decompose(rel, fds)

	assert.Equal(t, [][]string{
		{"B", "D", "E"},
		{"A", "B"},
		{"A", "C"},
	}, testutil.SetStrings(leaves))
}

func TestDecomposeTree_Structure(t *testing.T) {
	root := NewNode(testutil.Relation("R(A, B, C, D, E)"))
	fds := testutil.FDs("A -> B", "B -> D E", "C -> E")

	got := DecomposeTree(root, fds)
	require.Same(t, root, got, "DecomposeTree must return the root it was given")

	require.False(t, root.IsLeaf())
	require.NotNil(t, root.Violation)
	assert.Equal(t, "A -> B", root.Violation.String())

	assert.Equal(t, "R1(A, B, D, E)", root.Left.Relation.String())
	assert.Equal(t, "R2(A, C)", root.Right.Relation.String())
	assert.Equal(t, 1, root.Left.Depth)
	assert.Equal(t, 1, root.Right.Depth)

	assert.Equal(t, "R11(B, D, E)", root.Left.Left.Relation.String())
	assert.Equal(t, "R12(A, B)", root.Left.Right.Relation.String())
	assert.Equal(t, "B -> D", root.Left.Violation.String())
	assert.Equal(t, 2, root.Left.Left.Depth)

	assert.True(t, root.Right.IsLeaf())
	assert.Nil(t, root.Right.Violation)
	assert.Equal(t, 5, root.Count())
	assert.Equal(t, 2, root.Height())
}

func TestDecomposeTree_AlreadyBCNF(t *testing.T) {
	root := NewNode(testutil.Relation("R(A, B, C)"))
	fds := testutil.FDs("A -> B C")

	DecomposeTree(root, fds)

	assert.True(t, root.IsLeaf())
	assert.Nil(t, root.Left)
	assert.Nil(t, root.Right)
	assert.Nil(t, root.Violation)
}

func TestDecomposeTree_NoDependencies(t *testing.T) {
	root := DecomposeTree(NewNode(testutil.Relation("R(A, B)")), nil)
	assert.True(t, root.IsLeaf())
}

func TestDecomposeTree_FirstViolationWins(t *testing.T) {
	// Both dependencies violate BCNF; the split follows list order.
	rel := testutil.Relation("R(A, B, C, D)")

	byB := DecomposeTree(NewNode(rel), testutil.FDs("B -> C", "D -> A"))
	assert.Equal(t, "B -> C", byB.Violation.String())
	assert.Equal(t, []string{"B", "C"}, byB.Left.Relation.Attributes.Names())
	assert.Equal(t, []string{"A", "B", "D"}, byB.Right.Relation.Attributes.Names())

	byD := DecomposeTree(NewNode(rel), testutil.FDs("D -> A", "B -> C"))
	assert.Equal(t, "D -> A", byD.Violation.String())
	assert.Equal(t, []string{"A", "D"}, byD.Left.Relation.Attributes.Names())
	assert.Equal(t, []string{"B", "C", "D"}, byD.Right.Relation.Attributes.Names())
}

func TestDecomposeTree_SuperkeyIsSkipped(t *testing.T) {
	// A determines everything, so the split falls through to B -> C.
	root := DecomposeTree(NewNode(testutil.Relation("R(A, B, C)")), testutil.FDs("A -> B", "B -> C"))
	assert.Equal(t, "B -> C", root.Violation.String())
}

func TestDecomposeTree_CoursesSchema(t *testing.T) {
	s, err := schema.ParseSchema(`Courses(courseCode, courseName, credits, teacherID, teacherName)
courseCode -> courseName credits teacherID
teacherID -> teacherName
`)
	require.NoError(t, err)

	leaves := Decompose(s.Relation, s.Dependencies)

	assert.Equal(t, [][]string{
		{"teacherID", "teacherName"},
		{"courseCode", "courseName", "credits", "teacherID"},
	}, testutil.SetStrings(leaves))
}

func TestDecomposeTree_SkipsTrivialDependency(t *testing.T) {
	root := DecomposeTree(NewNode(testutil.Relation("R(A, B)")), testutil.FDs("A -> A"))
	assert.True(t, root.IsLeaf())
}

func TestDecomposeTree_ProjectFromRoot(t *testing.T) {
	rel := testutil.Relation("R(A, B, C, D, E)")
	fds := testutil.FDs("A -> B", "B -> D E", "C -> E")

	inherited := NewDecomposer(Options{}).DecomposeTree(NewNode(rel), fds)
	fromRoot := NewDecomposer(Options{ProjectFromRoot: true}).DecomposeTree(NewNode(rel), fds)

	assert.Equal(t, inherited.String(), fromRoot.String())
}

func TestDecomposeTree_ChildrenProjectFromParentList(t *testing.T) {
	rel := testutil.Relation("R(A, B, C)")
	fds := testutil.FDs("A -> B", "C -> Z")

	root := DecomposeTree(NewNode(rel), fds)
	require.False(t, root.IsLeaf())

	assert.Equal(t, fds, root.Dependencies)
	assert.Equal(t, []string{"A -> B"}, fdStrings(root.Left.Dependencies))
	assert.Empty(t, root.Right.Dependencies)

	// Every list is the projection of the parent's list and stays within
	// the node's attributes, so lists narrow along each path.
	root.Walk(func(n *Node) bool {
		for _, child := range []*Node{n.Left, n.Right} {
			if child == nil {
				continue
			}
			assert.Equal(t, ProjectAll(child.Relation.Attributes, n.Dependencies), child.Dependencies, child.Relation.Name)
			for _, fd := range child.Dependencies {
				assert.True(t, fd.Attributes().IsSubsetOf(child.Relation.Attributes), "%s: %s", child.Relation.Name, fd)
			}
		}
		return true
	})
}

func TestDecomposeTree_ProjectionModesBuildSameLists(t *testing.T) {
	rel := testutil.Relation("R(A, B, C, D, E, F)")
	fds := testutil.FDs("A B -> C", "C -> D", "D E -> F", "F -> A")

	inherited := NewDecomposer(Options{}).DecomposeTree(NewNode(rel), fds)
	fromRoot := NewDecomposer(Options{ProjectFromRoot: true}).DecomposeTree(NewNode(rel), fds)

	var a, b [][]string
	inherited.Walk(func(n *Node) bool { a = append(a, fdStrings(n.Dependencies)); return true })
	fromRoot.Walk(func(n *Node) bool { b = append(b, fdStrings(n.Dependencies)); return true })
	assert.Equal(t, a, b)
}

func fdStrings(fds []schema.FD) []string {
	out := make([]string, len(fds))
	for i, fd := range fds {
		out[i] = fd.String()
	}
	return out
}

func TestDecomposer_LogsSplits(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	d := NewDecomposer(Options{Logger: logger})
	d.DecomposeTree(NewNode(testutil.Relation("R(A, B, C)")), testutil.FDs("B -> C"))

	out := buf.String()
	assert.Contains(t, out, "splitting relation")
	assert.Contains(t, out, "violation=\"B -> C\"")
}

func TestDecomposeTree_Properties(t *testing.T) {
	cases := []struct {
		name string
		rel  string
		fds  []string
	}{
		{"textbook", "R(A, B, C, D, E)", []string{"A -> B", "B -> D E", "C -> E"}},
		{"chain", "R(A, B, C, D)", []string{"A -> B", "B -> C", "C -> D"}},
		{"cycle", "R(A, B, C, D)", []string{"A -> B", "B -> A", "C -> D"}},
		{"composite", "R(A, B, C, D, E, F)", []string{"A B -> C", "C -> D", "D E -> F", "F -> A"}},
		{"address", "Addr(street, city, zip)", []string{"street city -> zip", "zip -> city"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rel := testutil.Relation(tc.rel)
			fds := testutil.FDs(tc.fds...)

			root := DecomposeTree(NewNode(rel), fds)

			// Leaf coverage: leaves together cover the root attributes.
			var union schema.AttributeSet
			for _, leaf := range root.LeafRelations() {
				union = union.Union(leaf.Attributes)
				assert.True(t, leaf.Attributes.IsSubsetOf(rel.Attributes))
			}
			assert.Equal(t, rel.Attributes, union)

			// Every leaf is in BCNF under its projected dependencies.
			for _, leaf := range root.LeafRelations() {
				projected := ProjectAll(leaf.Attributes, fds)
				assert.True(t, IsBCNF(leaf, projected), "leaf %s not in BCNF", leaf)
			}

			// Internal nodes never split on a superkey, and children shrink.
			root.Walk(func(n *Node) bool {
				if n.IsLeaf() {
					return true
				}
				require.NotNil(t, n.Left)
				require.NotNil(t, n.Right)
				assert.Less(t, n.Left.Relation.Attributes.Len(), n.Relation.Attributes.Len())
				assert.Less(t, n.Right.Relation.Attributes.Len(), n.Relation.Attributes.Len())
				return true
			})
		})
	}
}

func TestIsSuperkey(t *testing.T) {
	rel := testutil.Relation("R(A, B, C)")
	fds := testutil.FDs("A -> B", "B -> C")

	assert.True(t, IsSuperkey(testutil.Set("A"), rel, fds))
	assert.True(t, IsSuperkey(testutil.Set("A", "C"), rel, fds))
	assert.False(t, IsSuperkey(testutil.Set("B"), rel, fds))
}

func TestFindViolation(t *testing.T) {
	rel := testutil.Relation("R(A, B, C)")

	fd, found := FindViolation(rel, testutil.FDs("A -> B", "B -> C"))
	require.True(t, found)
	assert.Equal(t, "B -> C", fd.String())

	_, found = FindViolation(rel, testutil.FDs("A -> B C"))
	assert.False(t, found)
	assert.True(t, IsBCNF(rel, testutil.FDs("A -> B C")))
}

func TestCheckSize(t *testing.T) {
	rel := testutil.Relation("R(A, B, C)")

	assert.NoError(t, CheckSize(rel, 0))
	assert.NoError(t, CheckSize(rel, 3))

	err := CheckSize(rel, 2)
	require.Error(t, err)

	var le *LimitError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, 3, le.Attributes)
	assert.Equal(t, 2, le.Max)
}
