package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/lutgen/internal/lut"
)

// Probe is the function value at one domain bound.
type Probe struct {
	X     int64 `json:"x"`
	Y     Float `json:"y"`
	Value int64 `json:"value"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid          bool    `json:"valid"`
	ID             string  `json:"id"`
	Source         string  `json:"source"`
	Start          int64   `json:"start"`
	End            int64   `json:"end"`
	MaxAbsError    Float   `json:"max_abs_error"`
	CandidateSteps []int64 `json:"candidate_steps"`
	Probes         []Probe `json:"probes"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <params>",
		Short: "Validate a parameter file without searching",
		Long: `Load and validate a parameter file, then evaluate the function at the
first and last x of the domain.

Faster than generate for checking that the parameters and the equation are
well formed. Exit code 1 means the parameters are invalid.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	configureLogging(cmd.ErrOrStderr(), opts.Verbose)
	formatter := newFormatter(opts, cmd)

	spec, err := loadParams(formatter, path, ExitFailure)
	if err != nil {
		return err
	}
	slog.Debug("parameters loaded", "id", spec.ID, "source", spec.Source)

	f := spec.Func()
	result := ValidationResult{
		Valid:          true,
		ID:             spec.ID,
		Source:         spec.Source,
		Start:          spec.Start,
		End:            spec.End,
		MaxAbsError:    Float(spec.MaxAbsError),
		CandidateSteps: lut.CandidateSteps(spec.Width()),
	}

	for _, x := range []int64{spec.Start, spec.End - 1} {
		v, err := f.Sample(x)
		if err != nil {
			var serr *lut.SampleError
			if errors.As(err, &serr) {
				return formatter.Fail(ExitFailure, ErrCodeUndefined, err.Error(), map[string]any{"x": serr.X}, err)
			}
			return formatter.Fail(ExitFailure, ErrCodeGeneric, err.Error(), nil, err)
		}
		result.Probes = append(result.Probes, Probe{X: x, Y: Float(f(float64(x))), Value: v})
		if spec.Start == spec.End-1 {
			break
		}
	}

	return formatter.Success(result, func(w io.Writer) {
		fmt.Fprintf(w, "✓ %s: parameters valid\n", result.ID)
		fmt.Fprintf(w, "  domain [%d, %d), max error %v\n", result.Start, result.End, result.MaxAbsError)
		fmt.Fprintf(w, "  %d candidate step(s), coarsest %d\n", len(result.CandidateSteps), result.CandidateSteps[0])
		for _, p := range result.Probes {
			fmt.Fprintf(w, "  f(%d) = %v\n", p.X, p.Y)
		}
	})
}
