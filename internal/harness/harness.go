package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
	"github.com/roach88/bcnf/internal/store"
)

// defaultRunID is the run ID of scenarios that do not set run_id.
const defaultRunID = "test-run-default"

// Harness is the scenario execution engine.
// It runs scenarios against an isolated store with fixed run IDs.
type Harness struct {
	store  *store.Store
	runIDs store.RunIDGenerator
	logger *slog.Logger
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Parse and validate the scenario schema
// 2. Decompose the relation
// 3. Store the run and read it back
// 4. Check coverage and leaf BCNF properties
// 5. Check expectations and assertions
func Run(scenario *Scenario) (*Result, error) {
	sch, err := scenario.Schema()
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	runID := scenario.RunID
	if runID == "" {
		runID = defaultRunID
	}

	h := &Harness{
		store:  st,
		runIDs: store.NewFixedGenerator(runID),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
	}

	return h.run(context.Background(), scenario, sch)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario, sch schema.Schema) (*Result, error) {
	dec := normalize.NewDecomposer(normalize.Options{
		Logger:          h.logger,
		ProjectFromRoot: scenario.ProjectFromRoot,
	})
	root := dec.DecomposeTree(normalize.NewNode(sch.Relation), sch.Dependencies)

	result := NewResult()
	result.Tree = root.String()
	result.Leaves = leafNames(root)

	run := &store.Decomposition{
		ID:              h.runIDs.Generate(),
		Schema:          sch,
		ProjectFromRoot: scenario.ProjectFromRoot,
		Tree:            root,
	}
	if err := h.store.WriteDecomposition(ctx, run); err != nil {
		return nil, fmt.Errorf("store decomposition: %w", err)
	}
	result.RunID = run.ID

	stored, err := h.store.ReadDecomposition(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("read decomposition: %w", err)
	}
	if got := stored.Tree.String(); got != result.Tree {
		result.AddError(fmt.Sprintf("stored tree differs from computed tree:\n%s", got))
	}

	checkCoverage(sch.Relation, root, result)
	checkLeafBCNF(sch.Dependencies, root, result)

	if scenario.Expect.Leaves != nil {
		if err := assertLeaves(root, scenario.Expect.Leaves); err != nil {
			result.AddError(err.Error())
		}
	}
	if scenario.Expect.BCNF != nil {
		if err := assertBCNF(root, *scenario.Expect.BCNF); err != nil {
			result.AddError(err.Error())
		}
	}

	for _, msg := range EvaluateAssertions(sch, root, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

// checkCoverage verifies the leaves together carry every root attribute.
func checkCoverage(rel schema.Relation, root *normalize.Node, result *Result) {
	var union schema.AttributeSet
	for _, leaf := range root.Leaves() {
		union = union.Union(leaf.Relation.Attributes)
	}
	if !union.Equal(rel.Attributes) {
		result.AddError(fmt.Sprintf("leaves cover %s, want %s", union, rel.Attributes))
	}
}

// checkLeafBCNF verifies no leaf has a violating dependency among those
// projected onto it.
func checkLeafBCNF(fds []schema.FD, root *normalize.Node, result *Result) {
	for _, leaf := range root.Leaves() {
		projected := normalize.ProjectAll(leaf.Relation.Attributes, fds)
		if fd, ok := normalize.FindViolation(leaf.Relation, projected); ok {
			result.AddError(fmt.Sprintf("leaf %s is not in BCNF: %s", leaf.Relation, fd))
		}
	}
}
