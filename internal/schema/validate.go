package schema

import (
	"fmt"
	"strings"
)

// Validation error codes (E200-E299)
const (
	ErrMissingRelationName = "E201" // relation name is required
	ErrNoAttributes        = "E202" // relation must have at least one attribute
	ErrEmptyDeterminant    = "E203" // dependency left side is empty
	ErrEmptyDependent      = "E204" // dependency right side is empty
	ErrUnknownAttribute    = "E205" // dependency references an attribute outside the relation
	ErrTrivialDependency   = "E206" // right side is contained in the left side
	ErrTooManyAttributes   = "E207" // relation exceeds the projection size cap
)

// ValidationError describes one problem with a schema.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// MalformedSchemaError aggregates the validation errors of one schema.
type MalformedSchemaError struct {
	Relation string
	Errors   []ValidationError
}

func (e *MalformedSchemaError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ve := range e.Errors {
		msgs[i] = ve.Error()
	}
	return fmt.Sprintf("malformed schema %q: %s", e.Relation, strings.Join(msgs, "; "))
}

// Validate checks a schema for problems the normalization algorithms do
// not guard against. Returns all errors found (does not fail fast).
func Validate(s Schema) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(s.Relation.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "relation.name",
			Message: "relation name is required",
			Code:    ErrMissingRelationName,
		})
	}

	if s.Relation.Attributes.IsEmpty() {
		errs = append(errs, ValidationError{
			Field:   "relation.attributes",
			Message: "relation must have at least one attribute",
			Code:    ErrNoAttributes,
		})
	}

	for i, fd := range s.Dependencies {
		field := fmt.Sprintf("dependencies[%d]", i)

		if fd.X.IsEmpty() {
			errs = append(errs, ValidationError{
				Field:   field + ".x",
				Message: "left side is empty",
				Code:    ErrEmptyDeterminant,
			})
		}
		if fd.Y.IsEmpty() {
			errs = append(errs, ValidationError{
				Field:   field + ".y",
				Message: "right side is empty",
				Code:    ErrEmptyDependent,
			})
		}

		if unknown := fd.Attributes().Difference(s.Relation.Attributes); !unknown.IsEmpty() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s references attributes outside %s: %s", fd, s.Relation.Name, unknown),
				Code:    ErrUnknownAttribute,
			})
		}

		if !fd.X.IsEmpty() && !fd.Y.IsEmpty() && fd.IsTrivial() {
			errs = append(errs, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("%s is trivial", fd),
				Code:    ErrTrivialDependency,
			})
		}
	}

	return errs
}

// ValidateSize reports an error when the relation has more than max
// attributes. Projection enumerates every subset, so this is the caller's
// guard against exponential blow-up. A max of 0 disables the check.
func ValidateSize(s Schema, max int) []ValidationError {
	if max <= 0 || s.Relation.Attributes.Len() <= max {
		return nil
	}
	return []ValidationError{{
		Field:   "relation.attributes",
		Message: fmt.Sprintf("%d attributes exceeds the limit of %d", s.Relation.Attributes.Len(), max),
		Code:    ErrTooManyAttributes,
	}}
}

// Check runs Validate and ValidateSize and wraps any findings in a
// *MalformedSchemaError.
func Check(s Schema, maxAttributes int) error {
	errs := Validate(s)
	errs = append(errs, ValidateSize(s, maxAttributes)...)
	if len(errs) == 0 {
		return nil
	}
	return &MalformedSchemaError{Relation: s.Relation.Name, Errors: errs}
}
