package harness

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
)

// AssertionError is returned when an assertion fails.
// It includes the rendered tree to help debug the failure.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
	Tree     string // Rendered decomposition for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if e.Tree != "" {
		fmt.Fprintf(&buf, "\nTree:\n%s\n", e.Tree)
	}

	return buf.String()
}

// assertClosure checks Closure(attributes) against the expected set.
func assertClosure(sch schema.Schema, root *normalize.Node, a Assertion) error {
	got := normalize.Closure(schema.SetOf(a.Attributes...), sch.Dependencies)
	want := schema.SetOf(a.Expect...)
	if !got.Equal(want) {
		return &AssertionError{
			Type:     AssertClosure,
			Expected: fmt.Sprintf("closure of %s = %s", schema.SetOf(a.Attributes...), want),
			Actual:   got.String(),
			Tree:     root.String(),
		}
	}
	return nil
}

// assertSuperkey checks whether attributes determine the whole relation.
func assertSuperkey(sch schema.Schema, root *normalize.Node, a Assertion) error {
	x := schema.SetOf(a.Attributes...)
	got := normalize.IsSuperkey(x, sch.Relation, sch.Dependencies)
	if got != a.Superkey {
		return &AssertionError{
			Type:     AssertSuperkey,
			Expected: fmt.Sprintf("superkey(%s) = %v", x, a.Superkey),
			Actual:   fmt.Sprintf("%v", got),
			Tree:     root.String(),
		}
	}
	return nil
}

// assertLeafCount checks the number of leaves.
func assertLeafCount(root *normalize.Node, a Assertion) error {
	count := len(root.Leaves())
	if count != a.Count {
		return &AssertionError{
			Type:     AssertLeafCount,
			Expected: fmt.Sprintf("%d leaves", a.Count),
			Actual:   fmt.Sprintf("%d leaves", count),
			Tree:     root.String(),
		}
	}
	return nil
}

// assertViolation checks the dependency a named node was split on.
func assertViolation(root *normalize.Node, a Assertion) error {
	var found *normalize.Node
	root.Walk(func(n *normalize.Node) bool {
		if n.Relation.Name == a.Node {
			found = n
			return false
		}
		return true
	})

	if found == nil {
		return &AssertionError{
			Type:     AssertViolation,
			Expected: fmt.Sprintf("node %s", a.Node),
			Actual:   "not found in tree",
			Tree:     root.String(),
		}
	}

	actual := ""
	if found.Violation != nil {
		actual = found.Violation.String()
	}

	expected := ""
	if a.Dependency != "" {
		fd, err := schema.ParseFD(a.Dependency)
		if err != nil {
			return fmt.Errorf("violation assertion: %w", err)
		}
		expected = fd.String()
	}

	if actual != expected {
		return &AssertionError{
			Type:     AssertViolation,
			Expected: fmt.Sprintf("%s split on %s", a.Node, describeViolation(expected)),
			Actual:   describeViolation(actual),
			Tree:     root.String(),
		}
	}
	return nil
}

func describeViolation(fd string) string {
	if fd == "" {
		return "nothing (leaf)"
	}
	return fd
}

// assertLeaves compares leaf attribute sets in order.
func assertLeaves(root *normalize.Node, expected [][]string) error {
	want := make([][]string, len(expected))
	for i, leaf := range expected {
		want[i] = schema.SetOf(leaf...).Names()
	}

	got := leafNames(root)
	if !slices.EqualFunc(got, want, slices.Equal[[]string]) {
		return &AssertionError{
			Type:     "leaves",
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
			Tree:     root.String(),
		}
	}
	return nil
}

// assertBCNF checks whether the root relation needed no split.
func assertBCNF(root *normalize.Node, expected bool) error {
	if root.IsLeaf() != expected {
		return &AssertionError{
			Type:     "bcnf",
			Expected: fmt.Sprintf("relation in BCNF = %v", expected),
			Actual:   fmt.Sprintf("%v", root.IsLeaf()),
			Tree:     root.String(),
		}
	}
	return nil
}

// leafNames returns each leaf's sorted attribute names.
func leafNames(root *normalize.Node) [][]string {
	leaves := root.Leaves()
	out := make([][]string, len(leaves))
	for i, leaf := range leaves {
		out[i] = leaf.Relation.Attributes.Names()
	}
	return out
}

// EvaluateAssertions evaluates all assertions against a decomposition.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(sch schema.Schema, root *normalize.Node, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertClosure:
			err = assertClosure(sch, root, assertion)
		case AssertSuperkey:
			err = assertSuperkey(sch, root, assertion)
		case AssertLeafCount:
			err = assertLeafCount(root, assertion)
		case AssertViolation:
			err = assertViolation(root, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
