package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/bcnf/internal/schema"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output string // output file path
}

// CompiledRelation is the canonical JSON form of one schema.
type CompiledRelation struct {
	Name         string   `json:"name"`
	Attributes   []string `json:"attributes"`
	Dependencies []string `json:"dependencies"`
	Hash         string   `json:"hash"`
}

// CompilationResult holds the compiled relations.
type CompilationResult struct {
	Relations []CompiledRelation `json:"relations"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <schema-path>",
		Short: "Compile schemas to canonical JSON",
		Long: `Compile CUE or plain text schemas to canonical JSON.

Each relation is written with sorted attributes, its dependencies in
declaration order, and the content hash used to key stored runs.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file path")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	// Use shared loader with collect-all mode
	loadResult, loadErrors := LoadSchemas(path, LoadModeCollectAll)

	// Handle load errors (path not found, no files, etc.)
	if loadResult == nil && len(loadErrors) > 0 {
		return outputCommandError(formatter, loadErrorCode(loadErrors[0]), loadErrors[0])
	}

	formatter.VerboseLog("Found %d schema file(s) in %s", loadResult.FileCount, path)

	// Handle compilation errors
	if len(loadErrors) > 0 {
		return outputCompileErrors(formatter, loadErrors)
	}

	result := CompilationResult{Relations: make([]CompiledRelation, 0, len(loadResult.Schemas))}
	for _, s := range loadResult.Schemas {
		formatter.VerboseLog("Compiling relation: %s", s.Relation.Name)
		result.Relations = append(result.Relations, compileRelation(s))
	}

	// Write to file if --output specified
	if opts.Output != "" {
		if err := writeJSONFile(result, opts.Output); err != nil {
			return outputCommandError(formatter, ErrCodeWriteFailed, fmt.Errorf("writing output file: %w", err))
		}
	}

	return outputCompileSuccess(formatter, result, opts.Output)
}

func compileRelation(s schema.Schema) CompiledRelation {
	return CompiledRelation{
		Name:         s.Relation.Name,
		Attributes:   s.Relation.Attributes.Names(),
		Dependencies: s.DependencyStrings(),
		Hash:         schema.Hash(s),
	}
}

// writeJSONFile writes v as indented JSON with a trailing newline.
func writeJSONFile(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult, outputPath string) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ Compiled %d relation(s)\n", len(result.Relations))
	for _, rel := range result.Relations {
		fmt.Fprintf(formatter.Writer, "  %s: %d attribute(s), %d dependency(ies)\n",
			rel.Name, len(rel.Attributes), len(rel.Dependencies))
	}
	if outputPath != "" {
		fmt.Fprintf(formatter.Writer, "Output written to %s\n", outputPath)
	}
	return nil
}

// outputCompileErrors outputs every compilation error.
func outputCompileErrors(formatter *OutputFormatter, errs []error) error {
	if formatter.Format == "json" {
		details := make([]string, len(errs))
		for i, err := range errs {
			details[i] = err.Error()
		}
		_ = formatter.Error(loadErrorCode(errs[0]), errs[0].Error(), details)
		return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Compilation failed")
	fmt.Fprintln(formatter.Writer)
	for _, err := range errs {
		fmt.Fprintf(formatter.Writer, "  %v\n", err)
	}
	return NewExitError(ExitFailure, fmt.Sprintf("compilation failed with %d error(s)", len(errs)))
}
