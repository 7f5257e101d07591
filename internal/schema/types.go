package schema

import (
	"fmt"
	"strings"
)

// FD is a functional dependency X -> Y: values of X determine values of Y.
type FD struct {
	X AttributeSet `json:"x"`
	Y AttributeSet `json:"y"`
}

// NewFD builds the dependency lhs -> rhs from plain attribute names.
func NewFD(lhs, rhs []string) FD {
	return FD{X: SetOf(lhs...), Y: SetOf(rhs...)}
}

// IsTrivial reports whether Y ⊆ X.
func (fd FD) IsTrivial() bool {
	return fd.Y.IsSubsetOf(fd.X)
}

// Attributes returns X ∪ Y.
func (fd FD) Attributes() AttributeSet {
	return fd.X.Union(fd.Y)
}

// Equal reports whether both sides match.
func (fd FD) Equal(other FD) bool {
	return fd.X.Equal(other.X) && fd.Y.Equal(other.Y)
}

// String renders the dependency in the parseable form "A B -> C".
func (fd FD) String() string {
	return strings.Join(fd.X.Names(), " ") + " -> " + strings.Join(fd.Y.Names(), " ")
}

// Relation is a named schema. Its attribute set is the universe against
// which superkeys are judged.
type Relation struct {
	Name       string       `json:"name"`
	Attributes AttributeSet `json:"attributes"`
}

// NewRelation builds a relation from plain attribute names.
func NewRelation(name string, attrs ...string) Relation {
	return Relation{Name: name, Attributes: SetOf(attrs...)}
}

// String renders the relation in the parseable form "Name(A, B, C)".
func (r Relation) String() string {
	return fmt.Sprintf("%s(%s)", r.Name, strings.Join(r.Attributes.Names(), ", "))
}

// Schema is a relation together with the dependencies declared on it.
type Schema struct {
	Relation     Relation `json:"relation"`
	Dependencies []FD     `json:"dependencies"`
}

// DependencyStrings renders every dependency in list order.
func (s Schema) DependencyStrings() []string {
	out := make([]string, len(s.Dependencies))
	for i, fd := range s.Dependencies {
		out[i] = fd.String()
	}
	return out
}
