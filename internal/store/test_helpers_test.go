package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
	"github.com/roach88/bcnf/internal/testutil"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// textbookSchema is R(A, B, C, D, E) with A -> B, B -> D E, C -> E.
func textbookSchema() schema.Schema {
	return schema.Schema{
		Relation:     testutil.Relation("R(A, B, C, D, E)"),
		Dependencies: testutil.FDs("A -> B", "B -> D E", "C -> E"),
	}
}

// createTestDecomposition decomposes s and wraps the tree for storage.
func createTestDecomposition(id string, s schema.Schema) *Decomposition {
	return &Decomposition{
		ID:     id,
		Schema: s,
		Tree:   normalize.DecomposeTree(normalize.NewNode(s.Relation), s.Dependencies),
	}
}
