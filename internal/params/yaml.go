package params

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/lutgen/internal/lut"
)

// yamlParams mirrors the CUE fields. Equation is a CUE expression in x.
type yamlParams struct {
	ID       *string  `yaml:"id"`
	Start    *int64   `yaml:"start"`
	End      *int64   `yaml:"end"`
	MaxErr   *float64 `yaml:"maxErr"`
	Debug    bool     `yaml:"debug"`
	Equation string   `yaml:"equation"`
}

// equationTemplate wraps a YAML equation into the struct shape the CUE form
// uses. The hidden field keeps the math import in use.
const equationTemplate = `import "math"

_pi: math.Pi
x:   number
y:   number & (%s)
`

func loadYAMLFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Field: "file", Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	// Unknown fields are rejected so that a misspelled maxErr is not
	// silently treated as missing.
	var doc yamlParams
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, &Error{Field: "yaml", Message: err.Error()}
	}

	r := raw{
		id:     doc.ID,
		start:  doc.Start,
		end:    doc.End,
		maxErr: doc.MaxErr,
		debug:  doc.Debug,
	}
	core, err := r.validate(func(string) token.Pos { return token.NoPos })
	if err != nil {
		return nil, err
	}

	eq, err := CompileEquation(doc.Equation, path)
	if err != nil {
		return nil, err
	}
	return &Spec{Spec: core, fn: eq}, nil
}

// CompileEquation compiles a CUE expression in x, such as
// "1000 * math.Sin(2*math.Pi*x/1000)", into a function. filename is used in
// error positions. The result is safe for concurrent use.
func CompileEquation(expr, filename string) (lut.Func, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, &Error{Field: "equation", Message: "equation is required"}
	}

	ctx := cuecontext.New()
	v := ctx.CompileString(fmt.Sprintf(equationTemplate, expr), cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return (&evaluator{eq: v}).eval, nil
}
