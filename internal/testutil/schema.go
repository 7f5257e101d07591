package testutil

import (
	"github.com/roach88/bcnf/internal/schema"
)

// Set builds an attribute set from names.
func Set(names ...string) schema.AttributeSet {
	return schema.SetOf(names...)
}

// FD parses "A B -> C" and panics on malformed input.
// Use only with literal test fixtures.
func FD(s string) schema.FD {
	fd, err := schema.ParseFD(s)
	if err != nil {
		panic(err)
	}
	return fd
}

// FDs parses each argument with FD.
func FDs(specs ...string) []schema.FD {
	fds := make([]schema.FD, len(specs))
	for i, s := range specs {
		fds[i] = FD(s)
	}
	return fds
}

// Relation parses "R(A, B)" and panics on malformed input.
func Relation(s string) schema.Relation {
	rel, err := schema.ParseRelation(s)
	if err != nil {
		panic(err)
	}
	return rel
}

// SetStrings renders each relation's attributes as name lists, the shape
// expected leaves are written in.
func SetStrings(rels []schema.Relation) [][]string {
	out := make([][]string, len(rels))
	for i, r := range rels {
		out[i] = r.Attributes.Names()
	}
	return out
}
