// Package normalize implements Boyce-Codd Normal Form decomposition.
//
// The package has three layers, each depending only on the ones above it:
//
//   - Closure computes the closure of an attribute set under a list of
//     functional dependencies.
//   - Project derives the dependencies that hold on a subset of a
//     relation's attributes.
//   - DecomposeTree finds BCNF violations and splits relations into a
//     binary tree whose leaves are the decomposition.
//
// All operations are pure and deterministic over schema values. Nothing
// here performs I/O; the only mutable structure is the Node tree, which is
// owned by the single call that builds it.
//
// SCALABILITY:
//
// Project enumerates every subset of the target attributes, so its cost is
// exponential in the attribute count. That is the ceiling for the whole
// decomposition. Callers should reject oversized relations up front with
// CheckSize rather than expect the algorithm to bound itself.
package normalize
