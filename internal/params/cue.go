package params

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

//go:embed schema.cue
var schemaCUE string

var (
	xPath = cue.ParsePath("x")
	yPath = cue.ParsePath("y")
)

// loadCUEFile compiles a single CUE file. Builtin packages such as math may be
// imported; other imports need a module and the directory form.
func loadCUEFile(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &Error{Field: "file", Message: fmt.Sprintf("reading %s: %v", path, err)}
	}

	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decodeCUE(ctx, v)
}

// loadCUEDir loads the CUE package in dir, the same way specs directories
// are loaded elsewhere: one instance built from ".".
func loadCUEDir(dir string) (*Spec, error) {
	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, &Error{Field: "file", Message: "no CUE instances loaded"}
	}

	inst := instances[0]
	if inst.Err != nil {
		return nil, &Error{Field: "file", Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	v := ctx.BuildInstance(inst)
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	return decodeCUE(ctx, v)
}

// decodeCUE unifies v with #Params and extracts the parameters.
func decodeCUE(ctx *cue.Context, v cue.Value) (*Spec, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compiling parameter schema: %w", err)
	}

	// Checked before unification: the schema itself declares equation.y.
	hasEquation := v.LookupPath(cue.ParsePath("equation.y")).Exists()

	v = v.Unify(schema.LookupPath(cue.ParsePath("#Params")))
	if err := v.Validate(); err != nil {
		return nil, formatCUEError(err)
	}

	var r raw
	var err error
	if r.id, err = lookupConcrete(v, "id", cue.Value.String); err != nil {
		return nil, err
	}
	if r.start, err = lookupConcrete(v, "start", cue.Value.Int64); err != nil {
		return nil, err
	}
	if r.end, err = lookupConcrete(v, "end", cue.Value.Int64); err != nil {
		return nil, err
	}
	if r.maxErr, err = lookupConcrete(v, "maxErr", cue.Value.Float64); err != nil {
		return nil, err
	}
	if debug, err := lookupConcrete(v, "debug", cue.Value.Bool); err != nil {
		return nil, err
	} else if debug != nil {
		r.debug = *debug
	}

	posOf := func(field string) token.Pos {
		if f := v.LookupPath(cue.ParsePath(field)); f.Exists() && f.Pos().IsValid() {
			return f.Pos()
		}
		return v.Pos()
	}
	core, err := r.validate(posOf)
	if err != nil {
		return nil, err
	}

	if !hasEquation {
		return nil, &Error{Field: "equation", Message: "equation.y is required", Pos: posOf("equation")}
	}

	eq := v.LookupPath(cue.ParsePath("equation"))
	return &Spec{Spec: core, fn: (&evaluator{eq: eq}).eval}, nil
}

// lookupConcrete decodes field with get. Missing or non-concrete fields yield
// nil so that validate can report them uniformly.
func lookupConcrete[T any](v cue.Value, field string, get func(cue.Value) (T, error)) (*T, error) {
	f := v.LookupPath(cue.ParsePath(field))
	if !f.Exists() || !f.IsConcrete() {
		return nil, nil
	}
	out, err := get(f)
	if err != nil {
		return nil, &Error{Field: field, Message: err.Error(), Pos: f.Pos()}
	}
	return &out, nil
}

// evaluator computes equation.y for a given x.
//
// cue.Value evaluation is not safe for concurrent use, so calls are serialized.
type evaluator struct {
	mu sync.Mutex
	eq cue.Value
}

// eval returns y(x), or NaN when CUE cannot evaluate y to a number, e.g. on
// division by zero or a failed constraint.
func (e *evaluator) eval(x float64) float64 {
	e.mu.Lock()
	defer e.mu.Unlock()

	y, err := e.eq.FillPath(xPath, x).LookupPath(yPath).Float64()
	if err != nil {
		return math.NaN()
	}
	return y
}
