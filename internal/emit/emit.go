// Package emit renders an accepted lookup table as C source and header files.
//
// For an id "Sin" the output is lookup_sin.c and lookup_sin.h. The header
// defines LU_SIN_START, LU_SIN_DX, LU_SIN_HALFDX, LU_SIN_LOG2DX and the access
// macro
//
//	#define LU_GET_SIN(x) lookup_sin[(x-(LU_SIN_START-LU_SIN_HALFDX))>>LU_SIN_LOG2DX]
//
// whose index arithmetic is lut.Table.IndexInt without the clamping: callers
// must keep x inside the table.
package emit

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/roach88/lutgen/internal/lut"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// ErrInfeasible is returned when asked to emit a search that found no table.
var ErrInfeasible = errors.New("no lookup table to emit: the search was infeasible")

// Artifact is everything needed to render the files of one table.
type Artifact struct {
	ID    string
	Table *lut.Table
	Type  lut.IntType
}

// NewArtifact prepares an accepted search result for rendering. The value
// type is selected from the accepted table only.
func NewArtifact(id string, res lut.Result) (*Artifact, error) {
	acc, ok := res.(lut.Accepted)
	if !ok {
		return nil, ErrInfeasible
	}
	return &Artifact{
		ID:    id,
		Table: acc.Table,
		Type:  acc.Table.ValueType(),
	}, nil
}

// Options controls formatting.
type Options struct {
	// CRLF writes \r\n line endings.
	CRLF bool
}

// File is one rendered output file.
type File struct {
	Name    string
	Content []byte
}

// Names returns the upper-case form used in macros and the lower-case form
// used in file and array names.
func Names(id string) (upper, lower string) {
	return cases.Upper(language.Und).String(id), cases.Lower(language.Und).String(id)
}

// SourceName returns "lookup_<id>.c".
func SourceName(id string) string {
	_, lower := Names(id)
	return "lookup_" + lower + ".c"
}

// HeaderName returns "lookup_<id>.h".
func HeaderName(id string) string {
	_, lower := Names(id)
	return "lookup_" + lower + ".h"
}

type templateData struct {
	Upper      string
	Array      string
	Guard      string
	HeaderName string
	CType      string
	Start      int64
	Step       int64
	HalfStep   int64
	Log2Step   int
	Segments   []lut.Segment
}

// Render produces the source and header files, in that order.
func Render(a *Artifact, opts Options) ([]File, error) {
	if a == nil || a.Table == nil {
		return nil, ErrInfeasible
	}

	upper, lower := Names(a.ID)
	data := templateData{
		Upper:      upper,
		Array:      "lookup_" + lower,
		Guard:      "LOOKUP_" + upper + "_H",
		HeaderName: HeaderName(a.ID),
		CType:      a.Type.CName(),
		Start:      a.Table.Start(),
		Step:       a.Table.Step(),
		HalfStep:   a.Table.HalfStep(),
		Log2Step:   a.Table.Log2Step(),
		Segments:   a.Table.Segments(),
	}

	source, err := execute("source.c.tmpl", data, opts)
	if err != nil {
		return nil, err
	}
	header, err := execute("header.h.tmpl", data, opts)
	if err != nil {
		return nil, err
	}

	return []File{
		{Name: SourceName(a.ID), Content: source},
		{Name: HeaderName(a.ID), Content: header},
	}, nil
}

func execute(name string, data templateData, opts Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return nil, fmt.Errorf("rendering %s: %w", name, err)
	}
	out := buf.Bytes()
	if opts.CRLF {
		out = bytes.ReplaceAll(out, []byte("\n"), []byte("\r\n"))
	}
	return out, nil
}

// WriteDir writes files into dir, creating it if needed, and returns the
// written paths.
func WriteDir(dir string, files []File) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Content, 0644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}
