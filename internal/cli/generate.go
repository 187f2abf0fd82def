package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/roach88/lutgen/internal/emit"
	"github.com/roach88/lutgen/internal/lut"
	"github.com/roach88/lutgen/internal/params"
	"github.com/roach88/lutgen/internal/plot"
	"github.com/roach88/lutgen/internal/store"
)

// GenerateOptions holds flags for the generate command.
type GenerateOptions struct {
	*RootOptions
	OutDir   string
	Plot     bool
	CRLF     bool
	Database string
	Workers  int

	// IDs allows overriding the run ID generator (for testing).
	// If nil, defaults to store.UUIDv7Generator.
	IDs store.IDGenerator
}

// GenerateResult is the success payload of generate.
type GenerateResult struct {
	ID         string   `json:"id"`
	Step       int64    `json:"step"`
	Segments   int      `json:"segments"`
	ValueType  string   `json:"value_type"`
	CType      string   `json:"c_type"`
	MaxError   Float    `json:"max_error"`
	Bound      Float    `json:"max_abs_error"`
	Iterations int      `json:"iterations"`
	Files      []string `json:"files"`
	RunID      string   `json:"run_id,omitempty"`
}

// InfeasibleDetails is attached to the E100 error.
type InfeasibleDetails struct {
	ID         string `json:"id"`
	LastStep   int64  `json:"last_step"`
	MaxError   Float  `json:"max_error"`
	Bound      Float  `json:"max_abs_error"`
	Iterations int    `json:"iterations"`
	RunID      string `json:"run_id,omitempty"`
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &GenerateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "generate <params>",
		Short: "Search for a lookup table and write it as C code",
		Long: `Search for the coarsest power-of-two step whose lookup table stays within
the error bound of the parameter file, then write lookup_<id>.c and
lookup_<id>.h into <out>/<id>/.

The parameter file is a CUE file, a CUE package directory, or a YAML file.
If no step meets the bound nothing is written and the exit code is 1.

Example:
  lutgen generate sin.cue
  lutgen generate sin.cue --out build/tables --plot --db lutgen.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.OutDir, "out", "o", "output", "output directory")
	cmd.Flags().BoolVar(&opts.Plot, "plot", false, "also write <id>.png comparing the table with the function")
	cmd.Flags().BoolVar(&opts.CRLF, "crlf", false, "write CRLF line endings")
	cmd.Flags().StringVar(&opts.Database, "db", "", "record the run in this SQLite database")
	cmd.Flags().IntVar(&opts.Workers, "workers", 1, "evaluate candidate steps in parallel (0 = number of CPUs)")

	return cmd
}

func runGenerate(opts *GenerateOptions, path string, cmd *cobra.Command) error {
	configureLogging(cmd.ErrOrStderr(), opts.Verbose)
	formatter := newFormatter(opts.RootOptions, cmd)

	spec, err := loadParams(formatter, path, ExitCommandError)
	if err != nil {
		return err
	}
	if spec.Debug {
		logLevel.Set(slog.LevelDebug)
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	slog.Info("generating lookup table",
		"id", spec.ID, "source", spec.Source,
		"start", spec.Start, "end", spec.End, "max_error", spec.MaxAbsError,
		"workers", workers)

	var its []lut.Iteration
	res, err := lut.SearchConcurrent(spec.Spec, spec.Func(), workers, lut.WithObserver(func(it lut.Iteration) {
		its = append(its, it)
	}))
	if err != nil {
		var serr *lut.SampleError
		if errors.As(err, &serr) {
			return formatter.Fail(ExitCommandError, ErrCodeUndefined, err.Error(), map[string]any{"x": serr.X}, err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeInvalidParams, err.Error(), nil, err)
	}

	runID, err := recordRun(cmd.Context(), opts, spec, res, its)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeDatabase, err.Error(), nil, err)
	}

	artifact, err := emit.NewArtifact(spec.ID, res)
	if errors.Is(err, emit.ErrInfeasible) {
		inf := res.(lut.Infeasible)
		details := InfeasibleDetails{
			ID:         spec.ID,
			LastStep:   inf.LastStep,
			MaxError:   Float(inf.MaxError),
			Bound:      Float(spec.MaxAbsError),
			Iterations: len(its),
			RunID:      runID,
		}
		msg := fmt.Sprintf("no power-of-two step keeps %s within %v (error %v at step %d); try a lower accuracy",
			spec.ID, spec.MaxAbsError, Float(inf.MaxError), inf.LastStep)
		return formatter.Fail(ExitFailure, ErrCodeInfeasible, msg, details, nil)
	}
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil, err)
	}

	files, err := writeArtifacts(opts, spec, artifact)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeWriteFailed, err.Error(), nil, err)
	}

	acc := res.(lut.Accepted)
	result := GenerateResult{
		ID:         spec.ID,
		Step:       acc.Step,
		Segments:   acc.Table.Len(),
		ValueType:  artifact.Type.String(),
		CType:      artifact.Type.CName(),
		MaxError:   Float(acc.MaxError),
		Bound:      Float(spec.MaxAbsError),
		Iterations: len(its),
		Files:      files,
		RunID:      runID,
	}
	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s: %d entries of %s, step %d (max error %v <= %v)\n",
			result.ID, result.Segments, result.CType, result.Step, result.MaxError, result.Bound)
		for _, f := range result.Files {
			fmt.Fprintf(w, "  wrote %s\n", f)
		}
		if result.RunID != "" {
			fmt.Fprintf(w, "  recorded run %s\n", result.RunID)
		}
	})
}

// writeArtifacts writes the C files and, if requested, the plot into
// <out>/<id>/ and returns the written paths.
func writeArtifacts(opts *GenerateOptions, spec *params.Spec, a *emit.Artifact) ([]string, error) {
	rendered, err := emit.Render(a, emit.Options{CRLF: opts.CRLF})
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(opts.OutDir, spec.ID)
	files, err := emit.WriteDir(dir, rendered)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		slog.Info("wrote file", "path", f)
	}

	if opts.Plot {
		png := filepath.Join(dir, spec.ID+".png")
		data := plot.Data{
			Table: a.Table,
			Func:  spec.Func(),
			Grid:  lut.FineGrid(spec.Start, spec.End, a.Table.Step()),
		}
		if err := plot.WriteFile(png, data, plot.DefaultOptions()); err != nil {
			return files, err
		}
		slog.Info("wrote file", "path", png)
		files = append(files, png)
	}
	return files, nil
}

// recordRun stores the search in the history database when --db is set and
// returns the run ID.
func recordRun(ctx context.Context, opts *GenerateOptions, spec *params.Spec, res lut.Result, its []lut.Iteration) (string, error) {
	if opts.Database == "" {
		return "", nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return "", err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	ids := opts.IDs
	if ids == nil {
		ids = store.UUIDv7Generator{}
	}
	run := store.NewRun(ids.Generate(), spec.Spec, spec.Source, res, its)
	seq, err := st.WriteRun(ctx, run)
	if err != nil {
		return "", err
	}
	slog.Info("recorded run", "run", run.ID, "seq", seq, "db", opts.Database)
	return run.ID, nil
}
