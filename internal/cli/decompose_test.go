package cli

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bcnf/internal/schema"
	"github.com/roach88/bcnf/internal/store"
)

const textbookTree = `R(A, B, C, D, E)
|- R1(A, B, D, E)
  |- R11(B, D, E)
    |- -
    |- -
  |- R12(A, B)
    |- -
    |- -
|- R2(A, C)
  |- -
  |- -`

func TestDecompose_TextOutput(t *testing.T) {
	stdout, _, err := executeCommand(t, "decompose", textbookSchema)
	require.NoError(t, err)

	assert.Contains(t, stdout, textbookTree)
	assert.Contains(t, stdout, "BCNF decomposition (3 relations):")
	assert.Contains(t, stdout, "  R11(B, D, E)\n  R12(A, B)\n  R2(A, C)\n")
	assert.NotContains(t, stdout, "Run:")
}

func TestDecompose_JSONOutput(t *testing.T) {
	stdout, _, err := executeCommand(t, "decompose", textbookSchema, "--format", "json")
	require.NoError(t, err)

	var result DecomposeResult
	resp := decodeResponse(t, stdout, &result)
	assert.Equal(t, "ok", resp.Status)
	assert.Empty(t, resp.RunID)

	assert.Equal(t, "R(A, B, C, D, E)", result.Relation)
	assert.False(t, result.BCNF)
	assert.False(t, result.Cached)
	assert.Equal(t, []string{"R11(B, D, E)", "R12(A, B)", "R2(A, C)"}, result.Leaves)
	assert.Len(t, result.SchemaHash, 64)

	require.NotNil(t, result.Tree)
	assert.Equal(t, "A -> B", result.Tree.Violation)
	require.NotNil(t, result.Tree.Left)
	assert.Equal(t, "B -> D", result.Tree.Left.Violation)
	assert.Equal(t, []string{"A", "C"}, result.Tree.Right.Attributes)
	assert.Nil(t, result.Tree.Right.Left)
}

func TestDecompose_AlreadyBCNF(t *testing.T) {
	stdout, _, err := executeCommand(t, "decompose", coursesSchema, "--relation", "Enrollment")
	require.NoError(t, err)
	assert.Contains(t, stdout, "✓ Enrollment(courseCode, grade, studentID) is in BCNF")
}

func TestDecompose_RelationFromDirectory(t *testing.T) {
	stdout, _, err := executeCommand(t, "decompose", schemasDir, "--relation", "Courses")
	require.NoError(t, err)
	assert.Contains(t, stdout, "|- Courses1(teacherID, teacherName)")
	assert.Contains(t, stdout, "|- Courses2(courseCode, courseName, credits, teacherID)")
}

func TestDecompose_AmbiguousRelation(t *testing.T) {
	stdout, _, err := executeCommand(t, "decompose", schemasDir)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E009]")
	assert.Contains(t, stdout, "Courses, Enrollment, R")
}

func TestDecompose_PathNotFound(t *testing.T) {
	stdout, _, err := executeCommand(t, "decompose", "testdata/missing.fd", "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))

	resp := decodeResponse(t, stdout, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
}

func TestDecompose_InvalidSchema(t *testing.T) {
	stdout, _, err := executeCommand(t, "decompose", "testdata/invalid/unknown.fd")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "✗ Validation failed")
	assert.Contains(t, stdout, schema.ErrUnknownAttribute)
	assert.Contains(t, stdout, schema.ErrTrivialDependency)
}

func TestDecompose_MaxAttributes(t *testing.T) {
	stdout, _, err := executeCommand(t, "decompose", textbookSchema, "--max-attributes", "3")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, schema.ErrTooManyAttributes)
}

func TestDecompose_VerboseLogsSplits(t *testing.T) {
	_, stderr, err := executeCommand(t, "decompose", textbookSchema, "--verbose")
	require.NoError(t, err)
	assert.Contains(t, stderr, "splitting relation")
	assert.Contains(t, stderr, `violation="A -> B"`)

	_, stderr, err = executeCommand(t, "decompose", textbookSchema)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "splitting relation")
}

// runDecomposeDirect calls runDecompose with a fixed run ID generator.
func runDecomposeDirect(t *testing.T, opts *DecomposeOptions, path string) (string, error) {
	t.Helper()

	var stdout bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)

	err := runDecompose(opts, path, cmd)
	return stdout.String(), err
}

func TestDecompose_StoresAndReusesRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bcnf.db")
	runIDs := store.NewFixedGenerator("run-1", "run-2")
	newOpts := func(noCache bool) *DecomposeOptions {
		return &DecomposeOptions{
			RootOptions: &RootOptions{Format: "text"},
			Database:    dbPath,
			NoCache:     noCache,
			RunIDs:      runIDs,
		}
	}

	out, err := runDecomposeDirect(t, newOpts(false), textbookSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "Run: run-1\n")

	out, err = runDecomposeDirect(t, newOpts(false), textbookSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "Run: run-1 (cached)")
	assert.Contains(t, out, textbookTree)

	out, err = runDecomposeDirect(t, newOpts(true), textbookSchema)
	require.NoError(t, err)
	assert.Contains(t, out, "Run: run-2\n")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	runs, err := st.ListDecompositions(t.Context())
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
}

func TestDecompose_CacheKeyedByProjectionMode(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "bcnf.db")
	runIDs := store.NewFixedGenerator("parent-run", "root-run")

	opts := &DecomposeOptions{
		RootOptions: &RootOptions{Format: "json"},
		Database:    dbPath,
		RunIDs:      runIDs,
	}
	out, err := runDecomposeDirect(t, opts, textbookSchema)
	require.NoError(t, err)
	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "parent-run", resp.RunID)

	opts.ProjectFromRoot = true
	out, err = runDecomposeDirect(t, opts, textbookSchema)
	require.NoError(t, err)

	var result DecomposeResult
	resp = decodeResponse(t, out, &result)
	assert.Equal(t, "root-run", resp.RunID)
	assert.False(t, result.Cached)
}
