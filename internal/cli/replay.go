package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/bcnf/internal/normalize"
	"github.com/roach88/bcnf/internal/store"
)

// ReplayRunResult holds the replay result for a single run.
type ReplayRunResult struct {
	RunID         string `json:"run_id"`
	Relation      string `json:"relation"`
	Nodes         int    `json:"nodes"`
	Leaves        int    `json:"leaves"`
	Deterministic bool   `json:"deterministic"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Runs             []ReplayRunResult `json:"runs"`
	TotalRuns        int               `json:"total_runs"`
	AllDeterministic bool              `json:"all_deterministic"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay [run-id]",
		Short: "Recompute stored runs and verify determinism",
		Long: `Recompute stored decompositions from their stored schemas and compare
the result against the stored trees.

Exit codes:
  0 - All runs reproduce exactly
  1 - A recomputed tree differs from the stored one
  2 - Command error (database not found, etc.)

Examples:
  bcnf replay --db ./bcnf.db
  bcnf replay 0191e0b2-7c3a-7d4e-9f00-5a1b2c3d4e5f --db ./bcnf.db --format json`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			runID := ""
			if len(args) == 1 {
				runID = args[0]
			}
			return runReplay(opts, runID, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runReplay(opts *HistoryOptions, runID string, cmd *cobra.Command) error {
	ctx := commandContext(cmd)
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

	// Get run IDs to process
	var runIDs []string
	if runID != "" {
		runIDs = []string{runID}
	} else {
		runs, err := st.ListDecompositions(ctx)
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, err)
		}
		for _, run := range runs {
			runIDs = append(runIDs, run.ID)
		}
	}

	result := ReplayResult{
		Runs:             make([]ReplayRunResult, 0, len(runIDs)),
		TotalRuns:        len(runIDs),
		AllDeterministic: true,
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, id := range runIDs {
		run, err := st.ReadDecomposition(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return outputCommandError(formatter, ErrCodeNotFound, err)
		}
		if err != nil {
			return outputCommandError(formatter, ErrCodeStore, err)
		}

		formatter.VerboseLog("Replaying %s (%s)", id, run.Schema.Relation.Name)
		runResult := replayRun(run, quiet)
		if !runResult.Deterministic {
			result.AllDeterministic = false
		}
		result.Runs = append(result.Runs, runResult)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		outputReplayText(formatter, result)
	}

	if !result.AllDeterministic {
		return NewExitError(ExitFailure, "replay produced a different tree")
	}
	return nil
}

// replayRun recomputes a stored run with the options it was stored with.
func replayRun(run *store.Decomposition, logger *slog.Logger) ReplayRunResult {
	dec := normalize.NewDecomposer(normalize.Options{
		Logger:          logger,
		ProjectFromRoot: run.ProjectFromRoot,
	})
	root := dec.DecomposeTree(normalize.NewNode(run.Schema.Relation), run.Schema.Dependencies)

	return ReplayRunResult{
		RunID:         run.ID,
		Relation:      run.Schema.Relation.String(),
		Nodes:         run.Tree.Count(),
		Leaves:        len(run.Tree.Leaves()),
		Deterministic: root.String() == run.Tree.String(),
	}
}

func outputReplayText(formatter *OutputFormatter, result ReplayResult) {
	w := formatter.Writer
	if result.TotalRuns == 0 {
		fmt.Fprintln(w, "No decompositions stored.")
		return
	}

	for _, run := range result.Runs {
		mark := "✓"
		if !run.Deterministic {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s %s (%d nodes, %d leaves)\n", mark, run.RunID, run.Relation, run.Nodes, run.Leaves)
	}
	fmt.Fprintln(w)
	if result.AllDeterministic {
		fmt.Fprintf(w, "✓ All %d run(s) reproduce exactly\n", result.TotalRuns)
	} else {
		fmt.Fprintln(w, "✗ Replay produced a different tree")
	}
}
