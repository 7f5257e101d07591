package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
)

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	Relation      string
	MaxAttributes int
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool                     `json:"valid"`
	Relations []string                 `json:"relations,omitempty"`
	Errors    []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <schema-path>",
		Short: "Validate schemas without decomposing",
		Long: `Validate relation schemas without decomposing them.

Reports every problem found: missing names, empty relations, dependencies
with an empty side, dependencies on attributes outside the relation, trivial
dependencies, and relations too large to project.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Relation, "relation", "", "validate only this relation")
	cmd.Flags().IntVar(&opts.MaxAttributes, "max-attributes", normalize.DefaultMaxAttributes, "maximum attributes per relation (0 = unlimited)")

	return cmd
}

func runValidate(opts *ValidateOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	loadResult, loadErrors := LoadSchemas(path, LoadModeCollectAll)

	// Handle load errors (path not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputCommandError(formatter, loadErrorCode(loadErrors[0]), loadErrors[0])
	}

	formatter.VerboseLog("Found %d schema file(s) in %s", loadResult.FileCount, path)

	var validationErrors []schema.ValidationError

	// Add any load errors as validation errors
	for _, err := range loadErrors {
		var loadErr *LoadError
		if errors.As(err, &loadErr) {
			validationErrors = append(validationErrors, schema.ValidationError{
				Field:   "load",
				Message: loadErr.Error(),
				Code:    loadErr.Code,
			})
		}
	}

	schemas := loadResult.Schemas
	if opts.Relation != "" {
		s, err := SelectSchema(schemas, opts.Relation)
		if err != nil {
			return outputCommandError(formatter, loadErrorCode(err), err)
		}
		schemas = []schema.Schema{s}
	}

	names := make([]string, 0, len(schemas))
	for _, s := range schemas {
		formatter.VerboseLog("Validating relation: %s", s.Relation.Name)
		names = append(names, s.Relation.Name)
		validationErrors = append(validationErrors, validateSchema(s, opts.MaxAttributes)...)
	}

	if len(validationErrors) > 0 {
		return outputValidationErrors(formatter, validationErrors)
	}

	return outputValidateSuccess(formatter, names)
}

// validateSchema runs all checks on one schema. Fields are prefixed with the
// relation name so errors from several relations stay distinguishable.
func validateSchema(s schema.Schema, maxAttributes int) []schema.ValidationError {
	errs := schema.Validate(s)
	errs = append(errs, schema.ValidateSize(s, maxAttributes)...)
	for i := range errs {
		errs[i].Field = s.Relation.Name + "." + errs[i].Field
	}
	return errs
}

// outputValidateSuccess outputs successful validation results.
func outputValidateSuccess(formatter *OutputFormatter, relations []string) error {
	if formatter.Format == "json" {
		result := ValidationResult{Valid: true, Relations: relations}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ All schemas valid (%d relation(s))\n", len(relations))
	return nil
}

// outputValidationErrors outputs multiple validation errors.
func outputValidationErrors(formatter *OutputFormatter, errs []schema.ValidationError) error {
	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:  false,
			Errors: errs,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		// Validation failures = exit code 1 (test/validation failure)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	// Text format
	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %s: %s: %s\n", err.Code, err.Field, err.Message)
	}

	// Validation failures = exit code 1 (test/validation failure)
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
