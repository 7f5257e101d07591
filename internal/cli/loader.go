package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue/token"

	"github.com/roach88/bcnf/internal/compiler"
	"github.com/roach88/bcnf/internal/schema"
)

// LoadMode controls how errors are handled during schema loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// textExtensions are the file extensions read with the plain schema parser.
var textExtensions = []string{".fd", ".txt"}

// LoadResult contains the schemas loaded from a file or directory.
type LoadResult struct {
	Schemas   []schema.Schema
	FileCount int // Number of schema files found
}

// LoadError represents an error that occurred during schema loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadSchemas loads schemas from a .cue file, a plain text schema file, or
// a directory holding either kind. CUE files of a directory are loaded as
// one instance; text files are parsed one schema per file in name order.
func LoadSchemas(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema path not found: %s", path)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema path: %v", err)}}
	}

	if !info.IsDir() {
		return loadFile(path)
	}

	cueFiles, textFiles, err := FindSchemaFiles(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 && len(textFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no schema files found in %s", path)}}
	}

	result := &LoadResult{FileCount: len(cueFiles) + len(textFiles)}
	var errs []error

	if len(cueFiles) > 0 {
		schemas, compileErrs := compiler.LoadPath(path)
		result.Schemas = append(result.Schemas, schemas...)
		for _, err := range compileErrs {
			errs = append(errs, convertCompileError(err))
			if mode == LoadModeFailFast {
				return result, errs
			}
		}
	}

	for _, file := range textFiles {
		s, err := parseTextFile(file)
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Schemas = append(result.Schemas, s)
	}

	return result, errs
}

func loadFile(path string) (*LoadResult, []error) {
	ext := filepath.Ext(path)
	switch {
	case ext == ".cue":
		schemas, compileErrs := compiler.LoadPath(path)
		errs := make([]error, 0, len(compileErrs))
		for _, err := range compileErrs {
			errs = append(errs, convertCompileError(err))
		}
		return &LoadResult{Schemas: schemas, FileCount: 1}, errs
	case slices.Contains(textExtensions, ext):
		s, err := parseTextFile(path)
		if err != nil {
			return nil, []error{err}
		}
		return &LoadResult{Schemas: []schema.Schema{s}, FileCount: 1}, nil
	default:
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("unsupported schema file %s (want .cue, .fd or .txt)", path)}}
	}
}

// FindSchemaFiles returns the .cue and plain text schema files directly
// inside dir, each sorted by name.
func FindSchemaFiles(dir string) (cueFiles, textFiles []string, err error) {
	cueFiles, err = compiler.FindFiles(dir)
	if err != nil {
		return nil, nil, err
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, err
	}
	for _, entry := range entries {
		if !entry.IsDir() && slices.Contains(textExtensions, filepath.Ext(entry.Name())) {
			textFiles = append(textFiles, filepath.Join(dir, entry.Name()))
		}
	}
	return cueFiles, textFiles, nil
}

// parseTextFile reads a plain text schema.
func parseTextFile(path string) (schema.Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	s, err := schema.ParseSchema(string(data))
	if err != nil {
		return schema.Schema{}, &LoadError{Code: ErrCodeParseFailed, Message: fmt.Sprintf("%s: %v", filepath.Base(path), err)}
	}
	return s, nil
}

// SelectSchema picks the schema named relation. An empty name selects the
// only schema, and is an error when there are several.
func SelectSchema(schemas []schema.Schema, relation string) (schema.Schema, error) {
	if relation == "" {
		switch len(schemas) {
		case 0:
			return schema.Schema{}, &LoadError{Code: ErrCodeNoFiles, Message: "no relations found"}
		case 1:
			return schemas[0], nil
		}
		names := make([]string, len(schemas))
		for i, s := range schemas {
			names[i] = s.Relation.Name
		}
		return schema.Schema{}, &LoadError{
			Code:    ErrCodeRelation,
			Message: fmt.Sprintf("multiple relations (%s); choose one with --relation", strings.Join(names, ", ")),
		}
	}

	for _, s := range schemas {
		if s.Relation.Name == relation {
			return s, nil
		}
	}
	return schema.Schema{}, &LoadError{Code: ErrCodeRelation, Message: fmt.Sprintf("relation %q not found", relation)}
}

// loadOne loads path fail-fast and selects a single relation.
func loadOne(path, relation string) (schema.Schema, error) {
	result, errs := LoadSchemas(path, LoadModeFailFast)
	if len(errs) > 0 {
		return schema.Schema{}, errs[0]
	}
	return SelectSchema(result.Schemas, relation)
}

// convertCompileError converts a compiler error to a LoadError with position info.
func convertCompileError(err error) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: err.Error(),
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeLoadFailed,
		Message: err.Error(),
	}
}

// Error code constants - unified across all CLI commands.
// Schema validation codes (E2xx) come from the schema package.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No schema files found
	ErrCodeLoadFailed  = "E004" // Schema load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeParseFailed = "E008" // Relation or dependency syntax error
	ErrCodeRelation    = "E009" // Relation missing or ambiguous
	ErrCodeStore       = "E010" // Database error
	ErrCodeBadInput    = "E011" // Invalid flag value
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch {
	case field == "cue":
		return ErrCodeBuildFailed
	case field == "relation":
		return ErrCodeNoFiles
	case field == "attributes":
		return schema.ErrNoAttributes
	case strings.HasPrefix(field, "dependencies"):
		return ErrCodeParseFailed
	default:
		return ErrCodeGeneric
	}
}

// loadErrorCode extracts the code of a LoadError, or ErrCodeGeneric.
func loadErrorCode(err error) string {
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		return loadErr.Code
	}
	return ErrCodeGeneric
}
