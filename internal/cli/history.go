package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/lutgen/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	ParamID  string
	RunID    string
}

// RunSummary is one recorded run as shown by history.
type RunSummary struct {
	ID          string             `json:"id"`
	Seq         int64              `json:"seq"`
	ParamID     string             `json:"param_id"`
	Source      string             `json:"source,omitempty"`
	Start       int64              `json:"start"`
	End         int64              `json:"end"`
	MaxAbsError Float              `json:"max_abs_error"`
	Outcome     string             `json:"outcome"`
	Step        int64              `json:"step"`
	MaxError    Float              `json:"max_error"`
	ValueType   string             `json:"value_type,omitempty"`
	Segments    int                `json:"segments,omitempty"`
	TableHash   string             `json:"table_hash,omitempty"`
	Iterations  []IterationSummary `json:"iterations,omitempty"`
}

// IterationSummary is one evaluated step of a recorded run.
type IterationSummary struct {
	Ordinal  int   `json:"ordinal"`
	Step     int64 `json:"step"`
	Segments int   `json:"segments"`
	MaxError Float `json:"max_error"`
	Samples  int   `json:"samples"`
	Excluded int   `json:"excluded"`
	Accepted bool  `json:"accepted"`
}

func summarize(run store.Run) RunSummary {
	s := RunSummary{
		ID:          run.ID,
		Seq:         run.Seq,
		ParamID:     run.ParamID,
		Source:      run.Source,
		Start:       run.Start,
		End:         run.End,
		MaxAbsError: Float(run.MaxAbsError),
		Outcome:     string(run.Outcome),
		Step:        run.Step,
		MaxError:    Float(run.MaxError),
		ValueType:   run.ValueType,
		Segments:    run.Segments,
		TableHash:   run.TableHash,
	}
	for _, it := range run.Iterations {
		s.Iterations = append(s.Iterations, IterationSummary{
			Ordinal:  it.Ordinal,
			Step:     it.Step,
			Segments: it.Segments,
			MaxError: Float(it.MaxError),
			Samples:  it.Samples,
			Excluded: it.Excluded,
			Accepted: it.Accepted,
		})
	}
	return s
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded generate runs",
		Long: `List the runs recorded by generate --db, oldest first, or show the
iterations of a single run.

Example:
  lutgen history --db lutgen.db
  lutgen history --db lutgen.db --id sin
  lutgen history --db lutgen.db --run 0192f0c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.ParamID, "id", "", "only list runs for this table id")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show one run with its iterations")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	configureLogging(cmd.ErrOrStderr(), opts.Verbose)
	formatter := newFormatter(opts.RootOptions, cmd)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, "failed to open database", err.Error(), err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrNotFound) {
			return formatter.Fail(ExitCommandError, ErrCodeRunNotFound, fmt.Sprintf("run not found: %s", opts.RunID), nil, err)
		}
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil, err)
		}
		s := summarize(run)
		return formatter.Success(s, func(w io.Writer) { writeRunDetail(w, s) })
	}

	runs, err := st.ListRuns(ctx, opts.ParamID)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil, err)
	}
	summaries := make([]RunSummary, 0, len(runs))
	for _, r := range runs {
		summaries = append(summaries, summarize(r))
	}
	return formatter.Success(summaries, func(w io.Writer) { writeRunList(w, summaries) })
}

func writeRunList(w io.Writer, runs []RunSummary) {
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tRUN\tID\tOUTCOME\tSTEP\tSEGMENTS\tTYPE\tMAX ERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%d\t%s\t%v\n",
			r.Seq, r.ID, r.ParamID, r.Outcome, r.Step, r.Segments, r.ValueType, r.MaxError)
	}
	tw.Flush()
}

func writeRunDetail(w io.Writer, r RunSummary) {
	fmt.Fprintf(w, "Run: %s (seq %d)\n", r.ID, r.Seq)
	fmt.Fprintf(w, "Params: %s from %s\n", r.ParamID, r.Source)
	fmt.Fprintf(w, "Domain: [%d, %d), max error %v\n", r.Start, r.End, r.MaxAbsError)
	fmt.Fprintf(w, "Outcome: %s at step %d\n", r.Outcome, r.Step)
	if r.TableHash != "" {
		fmt.Fprintf(w, "Table: %d entries of %s, hash %s\n", r.Segments, r.ValueType, r.TableHash)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "=== Iterations ===")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "  ITE\tDX\tNX\tERROR\tEXCLUDED\tGOAL")
	for _, it := range r.Iterations {
		goal := "failed"
		if it.Accepted {
			goal = "achieved"
		}
		fmt.Fprintf(tw, "  %d\t%d\t%d\t%v\t%d\t%s\n", it.Ordinal, it.Step, it.Segments, it.MaxError, it.Excluded, goal)
	}
	tw.Flush()
}
