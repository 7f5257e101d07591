package normalize

import (
	"slices"

	"github.com/roach88/bcnf/internal/schema"
)

// Closure returns the smallest superset of attrs closed under fds.
//
// The scan walks fds in order and applies the first dependency whose left
// side is contained in the accumulator. That dependency is then dropped
// from the working list and the scan restarts from the beginning, so the
// number of rounds is bounded by len(fds) even for cyclic dependency sets.
func Closure(attrs schema.AttributeSet, fds []schema.FD) schema.AttributeSet {
	result := attrs
	remaining := slices.Clone(fds)

	for {
		i := slices.IndexFunc(remaining, func(fd schema.FD) bool {
			return fd.X.IsSubsetOf(result)
		})
		if i < 0 {
			return result
		}
		result = result.Union(remaining[i].Y)
		remaining = slices.Delete(remaining, i, i+1)
	}
}
