// Package plot draws a lookup table against the function it approximates.
//
// The image has two panels. The upper one shows the table as horizontal red
// steps over the blue function curve; the lower one shows the error curve
// table(x) - f(x). Points where f is undefined break the curves.
package plot

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/roach88/lutgen/internal/lut"
)

var (
	tableColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	funcColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	gridColor  = color.RGBA{R: 0xcc, G: 0xcc, B: 0xcc, A: 0xff}
	axisColor  = color.RGBA{R: 0x44, G: 0x44, B: 0x44, A: 0xff}
)

const (
	margin    = 40
	lineWidth = 2
	gridLines = 5
)

// Data is what gets plotted.
type Data struct {
	Table *lut.Table
	Func  lut.Func

	// Grid holds the x positions at which Func and the error are drawn,
	// usually lut.FineGrid for the accepted step.
	Grid []float64
}

// Options sets the image size in pixels.
type Options struct {
	Width  int
	Height int
}

// DefaultOptions returns an 800x600 canvas.
func DefaultOptions() Options {
	return Options{Width: 800, Height: 600}
}

// WriteFile renders d as a PNG file at path.
func WriteFile(path string, d Data, opts Options) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating plot file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = fmt.Errorf("closing plot file: %w", cerr)
		}
	}()

	w := bufio.NewWriter(f)
	if err := Render(w, d, opts); err != nil {
		return err
	}
	return w.Flush()
}

// Render encodes the plot of d as PNG into w.
func Render(w io.Writer, d Data, opts Options) error {
	if d.Table == nil || d.Func == nil {
		return fmt.Errorf("plot: table and function are required")
	}
	if opts.Width < 4*margin || opts.Height < 4*margin {
		return fmt.Errorf("plot: canvas %dx%d is too small", opts.Width, opts.Height)
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)
	c := &canvas{img: img, z: vector.NewRasterizer(opts.Width, opts.Height)}

	ys := make([]float64, len(d.Grid))
	for i, x := range d.Grid {
		ys[i] = d.Func(x)
	}
	errs := lut.ErrorCurve(d.Table, d.Func, d.Grid)

	segs := d.Table.Segments()
	xmin := float64(segs[0].Start)
	xmax := float64(segs[len(segs)-1].End + 1)
	if len(d.Grid) > 0 {
		xmin = math.Min(xmin, d.Grid[0])
		xmax = math.Max(xmax, d.Grid[len(d.Grid)-1])
	}

	half := opts.Height / 2
	top := newPanel(image.Rect(margin, margin, opts.Width-margin, half-margin/2), xmin, xmax, valueRange(d.Table, ys))
	bottom := newPanel(image.Rect(margin, half+margin/2, opts.Width-margin, opts.Height-margin), xmin, xmax, finiteRange(errs))

	c.frame(top)
	c.frame(bottom)
	c.hline(bottom, 0, axisColor)

	for _, s := range segs {
		c.line(top, float64(s.Start), float64(s.Value), float64(s.End)+0.9, float64(s.Value))
	}
	c.flush(tableColor)

	c.curve(top, d.Grid, ys)
	c.flush(funcColor)

	c.curve(bottom, d.Grid, errs)
	c.flush(tableColor)

	c.text(margin, margin-12, fmt.Sprintf("N = %d   Dx = %d", d.Table.Len(), d.Table.Step()), color.Black)
	c.text(top.r.Max.X-120, top.r.Min.Y+16, "lookup", tableColor)
	c.text(top.r.Max.X-120, top.r.Min.Y+30, "float", funcColor)
	c.text(bottom.r.Max.X-200, bottom.r.Min.Y+16, "err = lookup - float", tableColor)

	return png.Encode(w, img)
}

// panel maps data coordinates into a pixel rectangle.
type panel struct {
	r          image.Rectangle
	xmin, xmax float64
	ymin, ymax float64
}

func newPanel(r image.Rectangle, xmin, xmax float64, yr [2]float64) panel {
	if xmax <= xmin {
		xmax = xmin + 1
	}
	lo, hi := yr[0], yr[1]
	if hi <= lo {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	return panel{r: r, xmin: xmin, xmax: xmax, ymin: lo - pad, ymax: hi + pad}
}

func (p panel) px(x, y float64) (float32, float32) {
	fx := float64(p.r.Min.X) + (x-p.xmin)/(p.xmax-p.xmin)*float64(p.r.Dx())
	fy := float64(p.r.Max.Y) - (y-p.ymin)/(p.ymax-p.ymin)*float64(p.r.Dy())
	return float32(fx), float32(fy)
}

func valueRange(t *lut.Table, ys []float64) [2]float64 {
	lo, hi := t.Bounds()
	r := finiteRange(ys)
	return [2]float64{math.Min(float64(lo), r[0]), math.Max(float64(hi), r[1])}
}

// finiteRange returns the min and max of the finite values, or [0, 0].
func finiteRange(vs []float64) [2]float64 {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return [2]float64{0, 0}
	}
	return [2]float64{lo, hi}
}

type canvas struct {
	img *image.RGBA
	z   *vector.Rasterizer
}

// line adds a stroked segment to the pending path as a closed quad.
func (c *canvas) line(p panel, x0, y0, x1, y1 float64) {
	ax, ay := p.px(x0, y0)
	bx, by := p.px(x1, y1)
	dx, dy := bx-ax, by-ay
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	nx, ny := -dy/l*lineWidth/2, dx/l*lineWidth/2

	c.z.MoveTo(ax+nx, ay+ny)
	c.z.LineTo(bx+nx, by+ny)
	c.z.LineTo(bx-nx, by-ny)
	c.z.LineTo(ax-nx, ay-ny)
	c.z.ClosePath()
}

// curve strokes ys over xs, starting a new piece after every undefined value.
func (c *canvas) curve(p panel, xs, ys []float64) {
	prev := -1
	for i := range xs {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			prev = -1
			continue
		}
		if prev >= 0 {
			c.line(p, xs[prev], ys[prev], xs[i], ys[i])
		}
		prev = i
	}
}

// flush fills the pending path with col and starts a new one.
func (c *canvas) flush(col color.Color) {
	b := c.img.Bounds()
	c.z.Draw(c.img, b, image.NewUniform(col), image.Point{})
	c.z.Reset(b.Dx(), b.Dy())
}

// frame draws the panel border and horizontal grid lines.
func (c *canvas) frame(p panel) {
	for i := 1; i < gridLines; i++ {
		y := p.r.Min.Y + i*p.r.Dy()/gridLines
		c.rect(image.Rect(p.r.Min.X, y, p.r.Max.X, y+1), gridColor)
	}
	c.rect(image.Rect(p.r.Min.X, p.r.Min.Y, p.r.Max.X, p.r.Min.Y+1), axisColor)
	c.rect(image.Rect(p.r.Min.X, p.r.Max.Y-1, p.r.Max.X, p.r.Max.Y), axisColor)
	c.rect(image.Rect(p.r.Min.X, p.r.Min.Y, p.r.Min.X+1, p.r.Max.Y), axisColor)
	c.rect(image.Rect(p.r.Max.X-1, p.r.Min.Y, p.r.Max.X, p.r.Max.Y), axisColor)
}

// hline draws a one-pixel horizontal line at data value y if it is visible.
func (c *canvas) hline(p panel, y float64, col color.Color) {
	if y < p.ymin || y > p.ymax {
		return
	}
	_, py := p.px(p.xmin, y)
	iy := int(py)
	c.rect(image.Rect(p.r.Min.X, iy, p.r.Max.X, iy+1), col)
}

func (c *canvas) rect(r image.Rectangle, col color.Color) {
	draw.Draw(c.img, r, image.NewUniform(col), image.Point{}, draw.Src)
}

func (c *canvas) text(x, y int, s string, col color.Color) {
	d := font.Drawer{
		Dst:  c.img,
		Src:  image.NewUniform(col),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}
