package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/bcnf/internal/schema"
)

// marshalAttributes converts an attribute set to a JSON array TEXT.
// Sets are kept sorted, so the same set always stores the same text.
func marshalAttributes(attrs schema.AttributeSet) (string, error) {
	data, err := json.Marshal(attrs)
	if err != nil {
		return "", fmt.Errorf("marshal attributes: %w", err)
	}
	return string(data), nil
}

// unmarshalAttributes parses a JSON array TEXT into an attribute set.
func unmarshalAttributes(data string) (schema.AttributeSet, error) {
	var attrs schema.AttributeSet
	if err := json.Unmarshal([]byte(data), &attrs); err != nil {
		return schema.AttributeSet{}, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return attrs, nil
}

// marshalDependencies stores dependencies as a JSON array of FD strings in
// list order.
func marshalDependencies(fds []schema.FD) (string, error) {
	lines := make([]string, len(fds))
	for i, fd := range fds {
		lines[i] = fd.String()
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return "", fmt.Errorf("marshal dependencies: %w", err)
	}
	return string(data), nil
}

// unmarshalDependencies parses the form written by marshalDependencies.
func unmarshalDependencies(data string) ([]schema.FD, error) {
	var lines []string
	if err := json.Unmarshal([]byte(data), &lines); err != nil {
		return nil, fmt.Errorf("unmarshal dependencies: %w", err)
	}
	fds := make([]schema.FD, 0, len(lines))
	for _, line := range lines {
		fd, err := schema.ParseFD(line)
		if err != nil {
			return nil, fmt.Errorf("unmarshal dependencies: %w", err)
		}
		fds = append(fds, fd)
	}
	return fds, nil
}

// marshalViolation renders the split dependency, "" for leaves.
func marshalViolation(fd *schema.FD) string {
	if fd == nil {
		return ""
	}
	return fd.String()
}

// unmarshalViolation is the inverse of marshalViolation.
func unmarshalViolation(data string) (*schema.FD, error) {
	if data == "" {
		return nil, nil
	}
	fd, err := schema.ParseFD(data)
	if err != nil {
		return nil, fmt.Errorf("unmarshal violation: %w", err)
	}
	return &fd, nil
}
