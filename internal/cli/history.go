package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/bcnf/internal/store"
)

// HistoryOptions holds flags for the history, show and replay commands.
type HistoryOptions struct {
	*RootOptions
	Database string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored decomposition runs",
		Long: `List the decomposition runs stored in a database, oldest first.

Example:
  bcnf history --db ./bcnf.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return outputCommandError(formatter, loadErrorCode(err), err)
	}
	defer st.Close()

	runs, err := st.ListDecompositions(commandContext(cmd))
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, err)
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "No decompositions stored.")
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tRELATION\tLEAVES\tPROJECTION")
	for _, run := range runs {
		mode := "parent"
		if run.ProjectFromRoot {
			mode = "root"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", run.Seq, run.ID, run.Name, run.Leaves, mode)
	}
	return tw.Flush()
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show a stored decomposition",
		Long: `Print the decomposition tree of a stored run.

Example:
  bcnf show 0191e0b2-7c3a-7d4e-9f00-5a1b2c3d4e5f --db ./bcnf.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runShow(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := openExistingStore(opts.Database)
	if err != nil {
		return outputCommandError(formatter, loadErrorCode(err), err)
	}
	defer st.Close()

	run, err := st.ReadDecomposition(commandContext(cmd), runID)
	if errors.Is(err, store.ErrNotFound) {
		return outputCommandError(formatter, ErrCodeNotFound, err)
	}
	if err != nil {
		return outputCommandError(formatter, ErrCodeStore, err)
	}

	return outputDecomposeResult(formatter, buildDecomposeResult(run, false))
}

// openExistingStore opens a database that must already exist.
// Opening a missing path would silently create an empty database.
func openExistingStore(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("database not found: %s", path)}
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeStore, Message: fmt.Sprintf("failed to open database: %v", err)}
	}
	return st, nil
}

// commandContext returns the command's context, or Background if unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
