// Package params loads lookup table parameters and the target function.
//
// Parameters come from a CUE file, a directory holding one CUE package, or a
// YAML file. In CUE the function is a struct whose y field depends on x:
//
//	import "math"
//
//	id:     "sin"
//	start:  0
//	end:    1000
//	maxErr: 70
//	equation: {
//		x: number
//		y: 1000 * math.Sin(2*math.Pi*x/1000)
//	}
//
// YAML files carry the same scalar fields and give equation as a CUE
// expression in x, e.g. `equation: "1000 * math.Sin(2*math.Pi*x/1000)"`.
package params

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"cuelang.org/go/cue/token"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/lutgen/internal/lut"
)

// identPattern is what a C identifier may look like.
var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Spec is a loaded parameter set together with its target function.
type Spec struct {
	lut.Spec

	// Source is the file or directory the parameters were read from.
	Source string `json:"source"`

	fn lut.Func
}

// Func returns the target function. It is safe for concurrent use.
func (s *Spec) Func() lut.Func {
	return s.fn
}

// Load reads parameters from path. Directories are loaded as a CUE package.
func Load(path string) (*Spec, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &Error{Field: "file", Message: fmt.Sprintf("parameter file not found: %s", path)}
	}
	if err != nil {
		return nil, &Error{Field: "file", Message: fmt.Sprintf("error accessing %s: %v", path, err)}
	}

	var spec *Spec
	switch ext := strings.ToLower(filepath.Ext(path)); {
	case info.IsDir():
		spec, err = loadCUEDir(path)
	case ext == ".cue":
		spec, err = loadCUEFile(path)
	case ext == ".yaml" || ext == ".yml":
		spec, err = loadYAMLFile(path)
	default:
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedFormat)
	}
	if err != nil {
		return nil, err
	}
	spec.Source = path
	return spec, nil
}

// raw holds decoded fields before validation. Pointers distinguish missing
// fields from zero values.
type raw struct {
	id     *string
	start  *int64
	end    *int64
	maxErr *float64
	debug  bool
}

// validate checks the decoded fields and produces the core spec. posOf
// locates a field in the source, or returns an invalid position.
func (r raw) validate(posOf func(field string) token.Pos) (lut.Spec, error) {
	fail := func(field, msg string) error {
		return &Error{Field: field, Message: msg, Pos: posOf(field)}
	}

	switch {
	case r.id == nil:
		return lut.Spec{}, fail("id", "id is required")
	case r.start == nil:
		return lut.Spec{}, fail("start", "start is required")
	case r.end == nil:
		return lut.Spec{}, fail("end", "end is required")
	case r.maxErr == nil:
		return lut.Spec{}, fail("maxErr", "maxErr is required")
	}

	id, err := NormalizeID(*r.id)
	if err != nil {
		return lut.Spec{}, fail("id", err.Error())
	}

	spec := lut.Spec{
		ID:          id,
		Start:       *r.start,
		End:         *r.end,
		MaxAbsError: *r.maxErr,
		Debug:       r.debug,
	}
	if err := spec.Validate(); err != nil {
		field := "end"
		if errors.Is(err, lut.ErrNegativeErrorBound) {
			field = "maxErr"
		}
		return lut.Spec{}, fail(field, err.Error())
	}
	return spec, nil
}

// NormalizeID trims and NFC-normalizes id and checks that it can be used in C
// identifiers.
func NormalizeID(id string) (string, error) {
	id = norm.NFC.String(strings.TrimSpace(id))
	if id == "" {
		return "", fmt.Errorf("id must not be empty")
	}
	if !identPattern.MatchString(id) {
		return "", fmt.Errorf("id %q is not a valid C identifier", id)
	}
	return id, nil
}
