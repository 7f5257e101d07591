package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
)

// Scenario defines a decomposition scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Relation is the input relation in "Name(a, b, c)" form.
	Relation string `yaml:"relation"`

	// Dependencies are the input dependencies in "a b -> c" form, in the
	// order the decomposition examines them.
	Dependencies []string `yaml:"dependencies"`

	// ProjectFromRoot projects every child's dependencies from the input
	// list instead of the parent's projection.
	ProjectFromRoot bool `yaml:"project_from_root,omitempty"`

	// Expect describes the expected decomposition.
	Expect Expectation `yaml:"expect,omitempty"`

	// Assertions are additional checks against the decomposition.
	Assertions []Assertion `yaml:"assertions,omitempty"`

	// RunID is an optional fixed run ID for the stored decomposition.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Expectation specifies the expected decomposition.
type Expectation struct {
	// Leaves lists the leaf attribute sets in left-then-right order.
	// Attribute order within a leaf is ignored.
	Leaves [][]string `yaml:"leaves,omitempty"`

	// BCNF states whether the input relation is already in BCNF, i.e.
	// whether the tree is a single leaf. Nil skips the check.
	BCNF *bool `yaml:"bcnf,omitempty"`
}

// Assertion is an additional check against a decomposition.
type Assertion struct {
	// Type specifies the assertion type:
	// - "closure": Closure(Attributes) must equal Expect
	// - "superkey": IsSuperkey(Attributes) must equal Superkey
	// - "leaf_count": number of leaves must equal Count
	// - "violation": node Node must have been split on Dependency
	Type string `yaml:"type"`

	// Attributes is the input set (used by closure, superkey).
	Attributes []string `yaml:"attributes,omitempty"`

	// Expect is the expected closure (used by closure).
	Expect []string `yaml:"expect,omitempty"`

	// Superkey is the expected superkey outcome (used by superkey).
	Superkey bool `yaml:"superkey,omitempty"`

	// Count is the expected number of leaves (used by leaf_count).
	Count int `yaml:"count,omitempty"`

	// Node names a tree node, e.g. "R12" (used by violation).
	Node string `yaml:"node,omitempty"`

	// Dependency is the expected split dependency, "" for a leaf
	// (used by violation).
	Dependency string `yaml:"dependency,omitempty"`
}

// Assertion type constants.
const (
	AssertClosure   = "closure"
	AssertSuperkey  = "superkey"
	AssertLeafCount = "leaf_count"
	AssertViolation = "violation"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Parse YAML with strict field validation (catches typos like "dependency:" vs "dependencies:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadDir loads every *.yaml and *.yml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, fmt.Errorf("glob scenarios: %w", err)
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Schema parses the scenario's relation and dependencies and validates the
// result.
func (s *Scenario) Schema() (schema.Schema, error) {
	rel, err := schema.ParseRelation(s.Relation)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("relation: %w", err)
	}

	fds := make([]schema.FD, 0, len(s.Dependencies))
	for i, line := range s.Dependencies {
		fd, err := schema.ParseFD(line)
		if err != nil {
			return schema.Schema{}, fmt.Errorf("dependencies[%d]: %w", i, err)
		}
		fds = append(fds, fd)
	}

	sch := schema.Schema{Relation: rel, Dependencies: fds}
	if err := schema.Check(sch, normalize.DefaultMaxAttributes); err != nil {
		return schema.Schema{}, err
	}
	return sch, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Relation == "" {
		return fmt.Errorf("relation is required")
	}

	if _, err := s.Schema(); err != nil {
		return err
	}

	if s.Expect.Leaves == nil && s.Expect.BCNF == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	for i, leaf := range s.Expect.Leaves {
		if len(leaf) == 0 {
			return fmt.Errorf("expect.leaves[%d]: must be non-empty", i)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertClosure:
		if len(a.Attributes) == 0 {
			return fmt.Errorf("assertions[%d]: attributes is required for closure", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for closure", index)
		}
	case AssertSuperkey:
		if len(a.Attributes) == 0 {
			return fmt.Errorf("assertions[%d]: attributes is required for superkey", index)
		}
	case AssertLeafCount:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for leaf_count", index)
		}
	case AssertViolation:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for violation", index)
		}
		if a.Dependency != "" {
			if _, err := schema.ParseFD(a.Dependency); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
