package normalize

import (
	"iter"
	"slices"

	"github.com/roach88/bcnf/internal/schema"
)

// Project yields the dependencies that hold on the sub-relation attrs.
//
// For every subset X of attrs (smallest first, then in sorted order) it
// yields X -> {b} for each b in attrs ∩ (Closure(X, fds) − X). Right sides
// are always single attributes.
//
// The sequence is lazy and restartable: ranging over it again recomputes
// from scratch, and breaking out early skips the remaining subsets. Its
// length is bounded by 2^|attrs| × |attrs|.
func Project(attrs schema.AttributeSet, fds []schema.FD) iter.Seq[schema.FD] {
	return func(yield func(schema.FD) bool) {
		for x := range subsets(attrs) {
			derived := attrs.Intersect(Closure(x, fds).Difference(x))
			for b := range derived.All() {
				if !yield(schema.FD{X: x, Y: schema.NewAttributeSet(b)}) {
					return
				}
			}
		}
	}
}

// ProjectAll materializes Project.
func ProjectAll(attrs schema.AttributeSet, fds []schema.FD) []schema.FD {
	return slices.Collect(Project(attrs, fds))
}

// subsets yields the power set of attrs: the empty set, then every
// combination of size 1, 2, ... up to attrs itself. Combinations of one
// size come out in lexicographic order of member positions.
func subsets(attrs schema.AttributeSet) iter.Seq[schema.AttributeSet] {
	members := attrs.Attributes()
	n := len(members)

	return func(yield func(schema.AttributeSet) bool) {
		for k := 0; k <= n; k++ {
			idx := make([]int, k)
			for i := range idx {
				idx[i] = i
			}

			for {
				combo := make([]schema.Attribute, k)
				for i, j := range idx {
					combo[i] = members[j]
				}
				if !yield(schema.NewAttributeSet(combo...)) {
					return
				}

				// Advance to the next combination: find the rightmost
				// index that can still move right.
				i := k - 1
				for i >= 0 && idx[i] == n-k+i {
					i--
				}
				if i < 0 {
					break
				}
				idx[i]++
				for j := i + 1; j < k; j++ {
					idx[j] = idx[j-1] + 1
				}
			}
		}
	}
}
