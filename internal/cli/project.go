package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
)

// ProjectOptions holds flags for the project command.
type ProjectOptions struct {
	*RootOptions
	Relation      string
	Attrs         string
	Limit         int
	MaxAttributes int
}

// ProjectResult is the output of the project command.
type ProjectResult struct {
	Attributes   []string `json:"attributes"`
	Dependencies []string `json:"dependencies"`
	Truncated    bool     `json:"truncated"`
}

// NewProjectCommand creates the project command.
func NewProjectCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ProjectOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "project <schema-path>",
		Short: "Project dependencies onto an attribute subset",
		Long: `List the dependencies X -> b that hold on an attribute subset, for every
subset X in order of size and every b in its closure.

Enumeration visits every subset of --attrs (the whole relation by default),
so it is exponential in their number. --limit stops after N dependencies.

Example:
  bcnf project ./schemas/textbook.fd --attrs "A B D E" --limit 10`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProject(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Relation, "relation", "", "relation to use when the path holds several")
	cmd.Flags().StringVar(&opts.Attrs, "attrs", "", "attributes to project onto (default: all attributes of the relation)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "stop after this many dependencies (0 = no limit)")
	cmd.Flags().IntVar(&opts.MaxAttributes, "max-attributes", normalize.DefaultMaxAttributes, "refuse to enumerate larger attribute sets (0 = unlimited)")

	return cmd
}

func runProject(opts *ProjectOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if opts.Limit < 0 {
		return outputCommandError(formatter, ErrCodeBadInput, fmt.Errorf("--limit must be non-negative, got %d", opts.Limit))
	}

	s, err := loadOne(path, opts.Relation)
	if err != nil {
		return outputCommandError(formatter, loadErrorCode(err), err)
	}

	attrs := s.Relation.Attributes
	if opts.Attrs != "" {
		attrs, err = parseAttrsFlag(s.Relation, opts.Attrs)
		if err != nil {
			return outputCommandError(formatter, ErrCodeBadInput, err)
		}
	}

	target := schema.Relation{Name: s.Relation.Name, Attributes: attrs}
	if err := normalize.CheckSize(target, opts.MaxAttributes); err != nil {
		var limitErr *normalize.LimitError
		if errors.As(err, &limitErr) {
			_ = formatter.Error(schema.ErrTooManyAttributes, err.Error(), nil)
			return NewExitError(ExitFailure, err.Error())
		}
		return outputCommandError(formatter, ErrCodeGeneric, err)
	}

	result := ProjectResult{
		Attributes:   attrs.Names(),
		Dependencies: []string{},
	}
	for fd := range normalize.Project(attrs, s.Dependencies) {
		if opts.Limit > 0 && len(result.Dependencies) == opts.Limit {
			result.Truncated = true
			break
		}
		result.Dependencies = append(result.Dependencies, fd.String())
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	for _, fd := range result.Dependencies {
		fmt.Fprintln(formatter.Writer, fd)
	}
	if result.Truncated {
		fmt.Fprintf(formatter.Writer, "... (stopped after %d)\n", opts.Limit)
	}
	return nil
}
