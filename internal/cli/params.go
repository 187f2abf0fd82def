package cli

import (
	"errors"

	"github.com/roach88/lutgen/internal/params"
)

// ParamError is the JSON form of a parameter validation failure.
type ParamError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// loadParams loads a parameter file and reports failures through f. Missing
// or unsupported files are command errors; invalidExit is used for files
// that load but fail validation.
func loadParams(f *OutputFormatter, path string, invalidExit int) (*params.Spec, error) {
	spec, err := params.Load(path)
	if err == nil {
		return spec, nil
	}

	if errors.Is(err, params.ErrUnsupportedFormat) {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, err.Error(), nil, err)
	}

	var perr *params.Error
	if !errors.As(err, &perr) {
		return nil, f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil, err)
	}
	if perr.Field == "file" {
		return nil, f.Fail(ExitCommandError, ErrCodeNotFound, perr.Message, nil, err)
	}

	details := ParamError{Field: perr.Field, Message: perr.Message}
	if perr.Pos.IsValid() {
		details.File = perr.Pos.Filename()
		details.Line = perr.Pos.Line()
		details.Column = perr.Pos.Column()
	}
	return nil, f.Fail(invalidExit, ErrCodeInvalidParams, perr.Error(), details, err)
}
