package schema

import (
	"encoding/json"
	"iter"
	"slices"
	"strings"
)

// Attribute is an atomic column name.
type Attribute string

// AttributeSet is an immutable, duplicate-free set of attributes.
// The zero value is the empty set.
type AttributeSet struct {
	attrs []Attribute // sorted, unique
}

// NewAttributeSet builds a set from the given attributes, dropping duplicates.
func NewAttributeSet(attrs ...Attribute) AttributeSet {
	if len(attrs) == 0 {
		return AttributeSet{}
	}
	sorted := slices.Clone(attrs)
	slices.Sort(sorted)
	return AttributeSet{attrs: slices.Compact(sorted)}
}

// SetOf is a convenience for building a set from plain strings.
func SetOf(names ...string) AttributeSet {
	attrs := make([]Attribute, len(names))
	for i, n := range names {
		attrs[i] = Attribute(n)
	}
	return NewAttributeSet(attrs...)
}

// Len returns the number of attributes in the set.
func (s AttributeSet) Len() int {
	return len(s.attrs)
}

// IsEmpty reports whether the set has no members.
func (s AttributeSet) IsEmpty() bool {
	return len(s.attrs) == 0
}

// Contains reports whether a is a member of s.
func (s AttributeSet) Contains(a Attribute) bool {
	_, found := slices.BinarySearch(s.attrs, a)
	return found
}

// At returns the i-th attribute in sorted order.
func (s AttributeSet) At(i int) Attribute {
	return s.attrs[i]
}

// Attributes returns a copy of the members in sorted order.
func (s AttributeSet) Attributes() []Attribute {
	return slices.Clone(s.attrs)
}

// Names returns the members as plain strings in sorted order.
func (s AttributeSet) Names() []string {
	names := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		names[i] = string(a)
	}
	return names
}

// All iterates the members in sorted order.
func (s AttributeSet) All() iter.Seq[Attribute] {
	return func(yield func(Attribute) bool) {
		for _, a := range s.attrs {
			if !yield(a) {
				return
			}
		}
	}
}

// IsSubsetOf reports whether every member of s is in other.
func (s AttributeSet) IsSubsetOf(other AttributeSet) bool {
	if len(s.attrs) > len(other.attrs) {
		return false
	}
	// Both slices are sorted: a single merge pass suffices.
	j := 0
	for _, a := range s.attrs {
		for j < len(other.attrs) && other.attrs[j] < a {
			j++
		}
		if j == len(other.attrs) || other.attrs[j] != a {
			return false
		}
		j++
	}
	return true
}

// Equal reports whether s and other have the same members.
func (s AttributeSet) Equal(other AttributeSet) bool {
	return slices.Equal(s.attrs, other.attrs)
}

// Union returns s ∪ other.
func (s AttributeSet) Union(other AttributeSet) AttributeSet {
	if len(other.attrs) == 0 {
		return s
	}
	if len(s.attrs) == 0 {
		return other
	}
	out := make([]Attribute, 0, len(s.attrs)+len(other.attrs))
	i, j := 0, 0
	for i < len(s.attrs) && j < len(other.attrs) {
		switch {
		case s.attrs[i] < other.attrs[j]:
			out = append(out, s.attrs[i])
			i++
		case s.attrs[i] > other.attrs[j]:
			out = append(out, other.attrs[j])
			j++
		default:
			out = append(out, s.attrs[i])
			i++
			j++
		}
	}
	out = append(out, s.attrs[i:]...)
	out = append(out, other.attrs[j:]...)
	return AttributeSet{attrs: out}
}

// Intersect returns s ∩ other.
func (s AttributeSet) Intersect(other AttributeSet) AttributeSet {
	var out []Attribute
	for _, a := range s.attrs {
		if other.Contains(a) {
			out = append(out, a)
		}
	}
	return AttributeSet{attrs: out}
}

// Difference returns s − other.
func (s AttributeSet) Difference(other AttributeSet) AttributeSet {
	var out []Attribute
	for _, a := range s.attrs {
		if !other.Contains(a) {
			out = append(out, a)
		}
	}
	return AttributeSet{attrs: out}
}

// Key returns a string usable as a map key; equal sets have equal keys.
func (s AttributeSet) Key() string {
	return strings.Join(s.Names(), "\x00")
}

// String renders the set as "{A, B, C}".
func (s AttributeSet) String() string {
	return "{" + strings.Join(s.Names(), ", ") + "}"
}

// MarshalJSON encodes the set as a sorted JSON array of names.
func (s AttributeSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

// UnmarshalJSON decodes a JSON array of names.
func (s *AttributeSet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	*s = SetOf(names...)
	return nil
}
