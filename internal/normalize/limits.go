package normalize

import (
	"fmt"

	"github.com/roach88/bcnf/internal/schema"
)

// DefaultMaxAttributes is the attribute cap used by the CLI. Projection of
// a 16-attribute relation examines 65536 subsets.
const DefaultMaxAttributes = 16

// LimitError reports a relation too large to project in reasonable time.
type LimitError struct {
	Relation   string
	Attributes int
	Max        int
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("relation %s has %d attributes, limit is %d (projection enumerates 2^n subsets)",
		e.Relation, e.Attributes, e.Max)
}

// CheckSize returns a *LimitError when rel has more than max attributes.
// A max of 0 or less disables the check.
func CheckSize(rel schema.Relation, max int) error {
	if max <= 0 || rel.Attributes.Len() <= max {
		return nil
	}
	return &LimitError{Relation: rel.Name, Attributes: rel.Attributes.Len(), Max: max}
}
