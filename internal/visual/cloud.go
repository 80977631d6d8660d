// Package visual renders point-cloud samples: a single projected scatter, a
// 2×3 grid of samples, and an interactive 3D page.
package visual

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"pctbench/internal/pointcloud"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ColorbarLabel labels the colour scale of a cloud plot.
const ColorbarLabel = "Normal Z"

type Options struct {
	// Title is drawn above the scatter. Empty means no title.
	Title string

	// PointSize is the marker area in points², as for a scatter "s" argument.
	PointSize float64

	// Elevation and Azimuth place the orthographic camera, in degrees.
	Elevation float64
	Azimuth   float64

	// Colorbar adds a vertical "Normal Z" scale to the right of the scatter.
	Colorbar bool

	// Width and Height size the output image. Zero picks a per-figure default.
	Width  vg.Length
	Height vg.Length
}

func DefaultOptions() Options {
	return Options{
		PointSize: 1,
		Elevation: DefaultElevation,
		Azimuth:   DefaultAzimuth,
	}
}

// CloudPlot is one projected sample, ready to be drawn or further customised.
type CloudPlot struct {
	Plot    *plot.Plot
	Scatter *plotter.Scatter

	// ColorMap maps normal z onto colour; its range is the sample's nz range.
	ColorMap palette.ColorMap

	// Colorbar is nil unless Options.Colorbar was set.
	Colorbar *plot.Plot
}

// NewCloudPlot projects sample i of c and colours every point by the z
// component of its normal. Points are ordered far to near so closer points
// are drawn on top.
func NewCloudPlot(c *pointcloud.Cloud, i int, opts Options) (*CloudPlot, error) {
	sample, err := c.Sample(i)
	if err != nil {
		return nil, err
	}

	screen, depth := Project(pointcloud.Coords(sample), opts.Elevation, opts.Azimuth)
	nz := pointcloud.NormalZ(sample)

	order := make([]int, len(depth))
	for k := range order {
		order[k] = k
	}
	sort.SliceStable(order, func(a, b int) bool { return depth[order[a]] < depth[order[b]] })

	xys := make(plotter.XYs, len(order))
	values := make([]float64, len(order))
	for k, idx := range order {
		xys[k] = plotter.XY{X: screen.At(idx, 0), Y: screen.At(idx, 1)}
		values[k] = nz[idx]
	}

	cm := Viridis(floats.Min(nz), floats.Max(nz))
	sc, err := plotter.NewScatter(xys)
	if err != nil {
		return nil, fmt.Errorf("sample %d: %w", i, err)
	}
	radius := markerRadius(opts.PointSize)
	sc.GlyphStyleFunc = func(k int) draw.GlyphStyle {
		return draw.GlyphStyle{Color: clamped(cm, values[k]), Radius: radius, Shape: draw.CircleGlyph{}}
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.HideAxes()
	p.Add(sc)
	squareRanges(p, screen)

	cp := &CloudPlot{Plot: p, Scatter: sc, ColorMap: cm}
	if opts.Colorbar {
		cb := plot.New()
		cb.HideX()
		cb.Y.Label.Text = ColorbarLabel
		cb.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true, Colors: 64})
		cp.Colorbar = cb
	}
	return cp, nil
}

// Draw renders the plot, and its colour bar if any, onto dc.
func (cp *CloudPlot) Draw(dc draw.Canvas) {
	if cp.Colorbar == nil {
		cp.Plot.Draw(dc)
		return
	}
	width := dc.Max.X - dc.Min.X
	barWidth := width / 7
	cp.Plot.Draw(draw.Crop(dc, 0, -barWidth, 0, 0))
	cp.Colorbar.Draw(draw.Crop(dc, width-barWidth, 0, 0, 0))
}

// RenderCloud draws sample i of c to an image file. The format follows the
// file extension (png, jpg, svg, pdf, ...).
func RenderCloud(c *pointcloud.Cloud, i int, opts Options, path string) error {
	cp, err := NewCloudPlot(c, i, opts)
	if err != nil {
		return err
	}
	w, h := sizeOr(opts, 6*vg.Inch, 6*vg.Inch)
	return save(path, w, h, cp.Draw)
}

func markerRadius(area float64) vg.Length {
	if area <= 0 {
		area = 1
	}
	return vg.Points(math.Max(math.Sqrt(area)/2, 0.25))
}

// squareRanges gives both axes the same span so the projection is not
// stretched.
func squareRanges(p *plot.Plot, screen *mat.Dense) {
	xs := mat.Col(nil, 0, screen)
	ys := mat.Col(nil, 1, screen)
	xmin, xmax := floats.Min(xs), floats.Max(xs)
	ymin, ymax := floats.Min(ys), floats.Max(ys)
	half := math.Max(xmax-xmin, ymax-ymin)/2 + 1e-9
	cx, cy := (xmin+xmax)/2, (ymin+ymax)/2
	p.X.Min, p.X.Max = cx-half, cx+half
	p.Y.Min, p.Y.Max = cy-half, cy+half
}

func sizeOr(opts Options, w, h vg.Length) (vg.Length, vg.Length) {
	if opts.Width > 0 {
		w = opts.Width
	}
	if opts.Height > 0 {
		h = opts.Height
	}
	return w, h
}

func save(path string, w, h vg.Length, render func(draw.Canvas)) error {
	format := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if format == "" {
		return fmt.Errorf("output %q has no file extension", path)
	}
	canvas, err := draw.NewFormattedCanvas(w, h, format)
	if err != nil {
		return fmt.Errorf("output %q: %w", path, err)
	}
	render(draw.New(canvas))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := canvas.WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
