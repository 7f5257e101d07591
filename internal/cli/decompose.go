package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/schema"
	"github.com/roach88/bcnf/internal/store"
)

// DecomposeOptions holds flags for the decompose command.
type DecomposeOptions struct {
	*RootOptions
	Relation        string
	Database        string
	ProjectFromRoot bool
	MaxAttributes   int
	NoCache         bool

	// RunIDs allows overriding the run ID generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	RunIDs store.RunIDGenerator
}

// TreeNode is the JSON form of a decomposition tree.
type TreeNode struct {
	Name       string    `json:"name"`
	Attributes []string  `json:"attributes"`
	Violation  string    `json:"violation,omitempty"`
	Left       *TreeNode `json:"left,omitempty"`
	Right      *TreeNode `json:"right,omitempty"`
}

// DecomposeResult is the output of decompose and show.
type DecomposeResult struct {
	Relation   string    `json:"relation"`
	SchemaHash string    `json:"schema_hash"`
	RunID      string    `json:"run_id,omitempty"`
	Cached     bool      `json:"cached"`
	BCNF       bool      `json:"bcnf"`
	Leaves     []string  `json:"leaves"`
	Tree       *TreeNode `json:"tree"`
	Rendered   string    `json:"-"`
}

// NewDecomposeCommand creates the decompose command.
func NewDecomposeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DecomposeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "decompose <schema-path>",
		Short: "Decompose a relation into BCNF",
		Long: `Decompose a relation into Boyce-Codd Normal Form.

At each node the dependencies are examined in order and the first one whose
left side is not a superkey splits the relation in two. The result is printed
as a tree whose leaves form the decomposition.

With --db the run is stored in a SQLite database, and a stored run for an
identical schema is reused unless --no-cache is given.

Examples:
  bcnf decompose ./schemas/courses.fd
  bcnf decompose ./schemas --relation Courses --db ./bcnf.db
  bcnf decompose ./schemas/courses.cue --format json --verbose`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDecompose(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Relation, "relation", "", "relation to decompose when the path holds several")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database for storing runs")
	cmd.Flags().BoolVar(&opts.ProjectFromRoot, "project-from-root", false, "project child dependencies from the input list instead of the parent's")
	cmd.Flags().IntVar(&opts.MaxAttributes, "max-attributes", normalize.DefaultMaxAttributes, "refuse relations with more attributes (0 = unlimited)")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "always recompute, even if the database holds a run for this schema")

	return cmd
}

func runDecompose(opts *DecomposeOptions, path string, cmd *cobra.Command) error {
	logger := configureLogging(opts.RootOptions, cmd.ErrOrStderr())
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

	if err := schema.Check(s, opts.MaxAttributes); err != nil {
		return outputSchemaError(formatter, err)
	}

	ctx := commandContext(cmd)

	var st *store.Store
	if opts.Database != "" {
		logger.Info("opening database", "path", opts.Database)
		st, err = store.Open(opts.Database)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, fmt.Errorf("failed to open database: %w", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
	}

	run, cached, err := decompose(ctx, opts, st, s, logger)
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, err)
	}

	result := buildDecomposeResult(run, cached)
	return outputDecomposeResult(formatter, result)
}

// decompose returns a run for s, reusing a stored one when allowed.
func decompose(ctx context.Context, opts *DecomposeOptions, st *store.Store, s schema.Schema, logger *slog.Logger) (*store.Decomposition, bool, error) {
	hash := schema.Hash(s)

	if st != nil && !opts.NoCache {
		prev, err := st.FindBySchemaHash(ctx, hash, opts.ProjectFromRoot)
		if err != nil {
			return nil, false, err
		}
		if prev != nil {
			logger.Info("reusing stored decomposition", "run_id", prev.ID, "relation", s.Relation.Name)
			return prev, true, nil
		}
	}

	dec := normalize.NewDecomposer(normalize.Options{
		Logger:          logger,
		ProjectFromRoot: opts.ProjectFromRoot,
	})
	root := dec.DecomposeTree(normalize.NewNode(s.Relation), s.Dependencies)
	logger.Info("decomposed relation", "relation", s.Relation.Name, "leaves", len(root.Leaves()), "height", root.Height())

	run := &store.Decomposition{
		SchemaHash:      hash,
		Schema:          s,
		ProjectFromRoot: opts.ProjectFromRoot,
		EngineVersion:   normalize.EngineVersion,
		Tree:            root,
	}
	if st == nil {
		return run, false, nil
	}

	gen := opts.RunIDs
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}
	run.ID = gen.Generate()
	if err := st.WriteDecomposition(ctx, run); err != nil {
		return nil, false, err
	}
	logger.Info("stored decomposition", "run_id", run.ID, "seq", run.Seq)
	return run, false, nil
}

// configureLogging installs a text handler on w as the default logger.
// Debug records (one per split) are shown only with --verbose.
func configureLogging(opts *RootOptions, w io.Writer) *slog.Logger {
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: logLevel,
	})
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// buildDecomposeResult converts a run into its output form.
func buildDecomposeResult(run *store.Decomposition, cached bool) DecomposeResult {
	leaves := run.Tree.LeafRelations()
	names := make([]string, len(leaves))
	for i, rel := range leaves {
		names[i] = rel.String()
	}

	return DecomposeResult{
		Relation:   run.Schema.Relation.String(),
		SchemaHash: run.SchemaHash,
		RunID:      run.ID,
		Cached:     cached,
		BCNF:       run.Tree.IsLeaf(),
		Leaves:     names,
		Tree:       toTreeNode(run.Tree),
		Rendered:   run.Tree.String(),
	}
}

// toTreeNode converts a decomposition tree to its JSON form.
func toTreeNode(n *normalize.Node) *TreeNode {
	if n == nil {
		return nil
	}
	tn := &TreeNode{
		Name:       n.Relation.Name,
		Attributes: n.Relation.Attributes.Names(),
		Left:       toTreeNode(n.Left),
		Right:      toTreeNode(n.Right),
	}
	if n.Violation != nil {
		tn.Violation = n.Violation.String()
	}
	return tn
}

// outputDecomposeResult prints a decomposition in the configured format.
func outputDecomposeResult(formatter *OutputFormatter, result DecomposeResult) error {
	if formatter.Format == "json" {
		return formatter.SuccessWithRun(result.RunID, result)
	}

	w := formatter.Writer
	fmt.Fprintln(w, result.Rendered)
	fmt.Fprintln(w)
	if result.BCNF {
		fmt.Fprintf(w, "✓ %s is in BCNF\n", result.Relation)
	} else {
		fmt.Fprintf(w, "BCNF decomposition (%d relations):\n", len(result.Leaves))
		for _, leaf := range result.Leaves {
			fmt.Fprintf(w, "  %s\n", leaf)
		}
	}
	if result.RunID != "" {
		suffix := ""
		if result.Cached {
			suffix = " (cached)"
		}
		fmt.Fprintf(w, "Run: %s%s\n", result.RunID, suffix)
	}
	return nil
}

// outputCommandError reports a command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code string, err error) error {
	message := err.Error()
	var loadErr *LoadError
	if errors.As(err, &loadErr) {
		message = loadErr.Message
	}
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}

// outputSchemaError reports a malformed schema (exit code 1).
func outputSchemaError(formatter *OutputFormatter, err error) error {
	var malformed *schema.MalformedSchemaError
	if errors.As(err, &malformed) {
		return outputValidationErrors(formatter, malformed.Errors)
	}
	_ = formatter.Error(ErrCodeGeneric, err.Error(), nil)
	return WrapExitError(ExitFailure, "invalid schema", err)
}
