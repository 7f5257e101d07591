package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosure_Text(t *testing.T) {
	stdout, _, err := executeCommand(t, "closure", textbookSchema, "--attrs", "A")
	require.NoError(t, err)
	assert.Equal(t, "{A}+ = {A, B, D, E}\n", stdout)
}

func TestClosure_Superkey(t *testing.T) {
	stdout, _, err := executeCommand(t, "closure", textbookSchema, "--attrs", "A, C")
	require.NoError(t, err)
	assert.Contains(t, stdout, "{A, C}+ = {A, B, C, D, E}\n")
	assert.Contains(t, stdout, "{A, C} is a superkey of R(A, B, C, D, E)\n")
}

func TestClosure_JSON(t *testing.T) {
	stdout, _, err := executeCommand(t, "closure", coursesSchema,
		"--relation", "Courses", "--attrs", "teacherID", "--format", "json")
	require.NoError(t, err)

	var result ClosureResult
	decodeResponse(t, stdout, &result)
	assert.Equal(t, []string{"teacherID"}, result.Attributes)
	assert.Equal(t, []string{"teacherID", "teacherName"}, result.Closure)
	assert.False(t, result.Superkey)
}

func TestClosure_UnknownAttribute(t *testing.T) {
	stdout, _, err := executeCommand(t, "closure", textbookSchema, "--attrs", "A Z")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, stdout, "Error [E011]")
	assert.Contains(t, stdout, "{Z} not in R(A, B, C, D, E)")
}

func TestClosure_AttrsRequired(t *testing.T) {
	_, _, err := executeCommand(t, "closure", textbookSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "attrs")
}

// The superkey test matches the decomposition engine: the closure must be
// exactly the relation, so a dependency leaving the relation disqualifies it.
func TestClosure_SuperkeyMatchesEngine(t *testing.T) {
	stdout, _, err := executeCommand(t, "closure", "testdata/invalid/unknown.fd", "--attrs", "A B", "--format", "json")
	require.NoError(t, err)

	var result ClosureResult
	decodeResponse(t, stdout, &result)
	assert.Equal(t, []string{"A", "B", "Z"}, result.Closure)
	assert.False(t, result.Superkey)
}
