// Package store provides SQLite-backed storage for decomposition runs.
//
// Each run records the input schema, the options it ran with and the full
// decomposition tree:
//   - decompositions: one row per run, keyed by run ID
//   - nodes: one row per tree node, keyed by (run ID, path)
//
// A node's path is the sequence of turns from the root: "" for the root,
// "L" for its left child, "LR" for that child's right child, and so on.
// Trees are rebuilt from paths on read.
//
// # Ordering
//
// Runs carry a logical seq assigned at write time (max + 1). Listings are
// ORDER BY seq ASC, id ASC COLLATE BINARY so results are stable.
//
// # Caching
//
// The decomposition of a schema is deterministic, so FindBySchemaHash lets
// callers reuse a stored tree for an identical schema and option set
// instead of recomputing an exponential projection.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
