package schema

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func codes(errs []ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Code
	}
	return out
}

func TestValidate_ValidSchema(t *testing.T) {
	s := Schema{
		Relation: NewRelation("R", "A", "B", "C"),
		Dependencies: []FD{
			NewFD([]string{"A"}, []string{"B"}),
			NewFD([]string{"B"}, []string{"C"}),
		},
	}
	assert.Empty(t, Validate(s))
	assert.NoError(t, Check(s, 0))
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	s := Schema{
		Relation: Relation{Name: ""},
		Dependencies: []FD{
			{X: AttributeSet{}, Y: SetOf("A")},
			{X: SetOf("A"), Y: AttributeSet{}},
			NewFD([]string{"A", "B"}, []string{"A"}),
		},
	}

	got := codes(Validate(s))
	assert.Contains(t, got, ErrMissingRelationName)
	assert.Contains(t, got, ErrNoAttributes)
	assert.Contains(t, got, ErrEmptyDeterminant)
	assert.Contains(t, got, ErrEmptyDependent)
	assert.Contains(t, got, ErrUnknownAttribute)
	assert.Contains(t, got, ErrTrivialDependency)
}

func TestValidate_UnknownAttribute(t *testing.T) {
	s := Schema{
		Relation:     NewRelation("R", "A", "B"),
		Dependencies: []FD{NewFD([]string{"A"}, []string{"C"})},
	}

	errs := Validate(s)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrUnknownAttribute, errs[0].Code)
	assert.Equal(t, "dependencies[0]", errs[0].Field)
	assert.Contains(t, errs[0].Message, "{C}")
}

func TestValidateSize(t *testing.T) {
	s := Schema{Relation: NewRelation("R", "A", "B", "C")}

	assert.Empty(t, ValidateSize(s, 0))
	assert.Empty(t, ValidateSize(s, 3))

	errs := ValidateSize(s, 2)
	require.Len(t, errs, 1)
	assert.Equal(t, ErrTooManyAttributes, errs[0].Code)
}

func TestCheck_ReturnsMalformedSchemaError(t *testing.T) {
	s := Schema{
		Relation:     NewRelation("R", "A"),
		Dependencies: []FD{NewFD([]string{"A"}, []string{"Z"})},
	}

	err := Check(s, 0)
	require.Error(t, err)

	var mse *MalformedSchemaError
	require.True(t, errors.As(err, &mse))
	assert.Equal(t, "R", mse.Relation)
	assert.Len(t, mse.Errors, 1)
	assert.Contains(t, err.Error(), "E205")
}
