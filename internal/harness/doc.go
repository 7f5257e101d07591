// Package harness runs BCNF decomposition scenarios.
//
// A scenario names a relation, its functional dependencies and what the
// decomposition is expected to produce. The harness decomposes the relation,
// stores the run in a fresh in-memory SQLite database, reads it back and
// checks the expectations together with the properties every decomposition
// must have:
//
//   - coverage: the union of leaf attributes equals the root attributes
//   - leaf BCNF: no leaf has a non-superkey determinant under the
//     dependencies projected onto it
//   - round trip: the stored tree renders identically to the computed one
//
// # Scenario Format
//
//	name: textbook
//	description: "Three-way split of R(A, B, C, D, E)"
//	relation: R(A, B, C, D, E)
//	dependencies:
//	  - A -> B
//	  - B -> D E
//	  - C -> E
//	project_from_root: false
//	expect:
//	  leaves:
//	    - [B, D, E]
//	    - [A, B]
//	    - [A, C]
//	  bcnf: false
//	assertions:
//	  - type: closure
//	    attributes: [A]
//	    expect: [A, B, D, E]
//	  - type: leaf_count
//	    count: 3
//
// expect.leaves lists leaf attribute sets in left-then-right order.
// expect.bcnf states whether the input relation is already in BCNF.
//
// # Assertion Types
//
//   - closure: closure of attributes under the scenario dependencies
//   - superkey: whether attributes form a superkey of the relation
//   - leaf_count: exact number of leaves
//   - violation: the dependency a named node was split on ("" for a leaf)
//
// # Golden Files
//
// RunWithGolden compares the rendered tree against
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
