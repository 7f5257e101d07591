package compiler

import (
	"fmt"

	"cuelang.org/go/cue"

	"github.com/roach88/bcnf/internal/schema"
)

// CompileRelation parses a CUE value into a Schema.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The CUE value should be the relation struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`relation: Courses: { ... }`)
//	s, err := CompileRelation(v.LookupPath(cue.ParsePath("relation.Courses")))
//
// The relation struct has a required, non-empty attributes list and an
// optional dependencies list. Each dependency is either a string in the
// "a b -> c" syntax or a {from: [...], to: [...]} struct.
func CompileRelation(v cue.Value) (*schema.Schema, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	s := &schema.Schema{}

	// Relation name comes from the struct label
	labels := v.Path().Selectors()
	if len(labels) > 0 {
		s.Relation.Name = labels[len(labels)-1].String()
	}

	attrsVal := v.LookupPath(cue.ParsePath("attributes"))
	if !attrsVal.Exists() {
		return nil, &CompileError{
			Field:   "attributes",
			Message: "attributes are required",
			Pos:     v.Pos(),
		}
	}
	attrs, err := parseAttributeList(attrsVal, "attributes")
	if err != nil {
		return nil, err
	}
	if attrs.IsEmpty() {
		return nil, &CompileError{
			Field:   "attributes",
			Message: "at least one attribute is required",
			Pos:     attrsVal.Pos(),
		}
	}
	s.Relation.Attributes = attrs

	depsVal := v.LookupPath(cue.ParsePath("dependencies"))
	if depsVal.Exists() {
		s.Dependencies, err = parseDependencies(depsVal)
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

// parseDependencies parses a list whose elements are FD strings or
// {from, to} structs.
func parseDependencies(v cue.Value) ([]schema.FD, error) {
	iter, err := v.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var fds []schema.FD
	for i := 0; iter.Next(); i++ {
		fd, err := parseDependency(iter.Value(), i)
		if err != nil {
			return nil, err
		}
		fds = append(fds, fd)
	}
	return fds, nil
}

// parseDependency parses a single dependency.
// Supports string or structured object format.
func parseDependency(v cue.Value, index int) (schema.FD, error) {
	field := fmt.Sprintf("dependencies[%d]", index)

	// Try as string first
	if str, err := v.String(); err == nil {
		fd, err := schema.ParseFD(str)
		if err != nil {
			return schema.FD{}, &CompileError{Field: field, Message: err.Error(), Pos: v.Pos()}
		}
		return fd, nil
	}

	// Try as structured object
	fromVal := v.LookupPath(cue.ParsePath("from"))
	toVal := v.LookupPath(cue.ParsePath("to"))
	if !fromVal.Exists() || !toVal.Exists() {
		return schema.FD{}, &CompileError{
			Field:   field,
			Message: "must be a string or object with from and to fields",
			Pos:     v.Pos(),
		}
	}

	x, err := parseAttributeList(fromVal, field+".from")
	if err != nil {
		return schema.FD{}, err
	}
	y, err := parseAttributeList(toVal, field+".to")
	if err != nil {
		return schema.FD{}, err
	}
	return schema.FD{X: x, Y: y}, nil
}

// parseAttributeList reads a list of attribute name strings.
func parseAttributeList(v cue.Value, field string) (schema.AttributeSet, error) {
	iter, err := v.List()
	if err != nil {
		return schema.AttributeSet{}, formatCUEError(err)
	}

	var attrs []schema.Attribute
	for iter.Next() {
		str, err := iter.Value().String()
		if err != nil {
			return schema.AttributeSet{}, formatCUEError(err)
		}
		a, err := schema.ParseAttribute(str)
		if err != nil {
			return schema.AttributeSet{}, &CompileError{
				Field:   field,
				Message: fmt.Sprintf("invalid attribute name %q", str),
				Pos:     iter.Value().Pos(),
			}
		}
		attrs = append(attrs, a)
	}
	return schema.NewAttributeSet(attrs...), nil
}
