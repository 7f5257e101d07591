package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
)

// ClosureOptions holds flags for the closure command.
type ClosureOptions struct {
	*RootOptions
	Relation string
	Attrs    string
}

// ClosureResult is the output of the closure command.
type ClosureResult struct {
	Relation   string   `json:"relation"`
	Attributes []string `json:"attributes"`
	Closure    []string `json:"closure"`
	Superkey   bool     `json:"superkey"`
}

// NewClosureCommand creates the closure command.
func NewClosureCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ClosureOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "closure <schema-path>",
		Short: "Compute the closure of an attribute set",
		Long: `Compute every attribute functionally determined by --attrs under the
relation's dependencies, and report whether --attrs is a superkey.

Example:
  bcnf closure ./schemas/courses.fd --attrs courseCode`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClosure(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Relation, "relation", "", "relation to use when the path holds several")
	cmd.Flags().StringVar(&opts.Attrs, "attrs", "", "attributes to close over, space or comma separated (required)")
	_ = cmd.MarkFlagRequired("attrs")

	return cmd
}

func runClosure(opts *ClosureOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	s, err := loadOne(path, opts.Relation)
	if err != nil {
		return outputCommandError(formatter, loadErrorCode(err), err)
	}

	attrs, err := parseAttrsFlag(s.Relation, opts.Attrs)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadInput, err)
	}

	closure := normalize.Closure(attrs, s.Dependencies)
	result := ClosureResult{
		Relation:   s.Relation.String(),
		Attributes: attrs.Names(),
		Closure:    closure.Names(),
		Superkey:   normalize.IsSuperkey(attrs, s.Relation, s.Dependencies),
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s+ = %s\n", attrs, closure)
	if result.Superkey {
		fmt.Fprintf(formatter.Writer, "%s is a superkey of %s\n", attrs, s.Relation)
	}
	return nil
}

// parseAttrsFlag parses an --attrs value and checks it against rel.
func parseAttrsFlag(rel schema.Relation, value string) (schema.AttributeSet, error) {
	attrs, err := schema.ParseAttributes(value)
	if err != nil {
		return schema.AttributeSet{}, fmt.Errorf("--attrs: %w", err)
	}
	if unknown := attrs.Difference(rel.Attributes); !unknown.IsEmpty() {
		return schema.AttributeSet{}, fmt.Errorf("--attrs: %s not in %s", unknown, rel)
	}
	return attrs, nil
}
