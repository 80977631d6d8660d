package visual

import (
	"fmt"
	"image/color"

	"pctbench/internal/pointcloud"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	GridRows = 2
	GridCols = 3

	// GridMax is how many samples fit in one grid; extra indices are ignored.
	GridMax = GridRows * GridCols
)

// SampleTitle is the per-cell title in a grid.
func SampleTitle(idx int) string { return fmt.Sprintf("Sample %d", idx) }

// NewGrid builds one plot per index, in grid order. Only the first GridMax
// indices are used; every used index must be in range.
func NewGrid(c *pointcloud.Cloud, indices []int, opts Options) ([]*CloudPlot, error) {
	if len(indices) == 0 {
		return nil, fmt.Errorf("no sample indices")
	}
	if len(indices) > GridMax {
		indices = indices[:GridMax]
	}
	cells := make([]*CloudPlot, 0, len(indices))
	for _, idx := range indices {
		cellOpts := opts
		cellOpts.Title = SampleTitle(idx)
		cellOpts.Colorbar = false
		cp, err := NewCloudPlot(c, idx, cellOpts)
		if err != nil {
			return nil, err
		}
		cells = append(cells, cp)
	}
	return cells, nil
}

// RenderGrid draws up to six samples in a 2×3 grid under one figure title.
func RenderGrid(c *pointcloud.Cloud, indices []int, title string, opts Options, path string) error {
	cells, err := NewGrid(c, indices, opts)
	if err != nil {
		return err
	}
	w, h := sizeOr(opts, 15*vg.Inch, 10*vg.Inch)
	return save(path, w, h, func(dc draw.Canvas) {
		drawGrid(dc, cells, title)
	})
}

func drawGrid(dc draw.Canvas, cells []*CloudPlot, title string) {
	dc.SetColor(color.White)
	dc.Fill(dc.Rectangle.Path())

	sty := plot.New().Title.TextStyle
	sty.Font.Size = vg.Points(16)
	sty.XAlign = text.XCenter
	sty.YAlign = text.YTop

	pad := vg.Points(8)
	var titleHeight vg.Length
	if title != "" {
		titleHeight = sty.Height(title) + pad
		center := (dc.Min.X + dc.Max.X) / 2
		dc.FillText(sty, vg.Point{X: center, Y: dc.Max.Y - pad}, title)
	}

	tiles := draw.Tiles{
		Rows:   GridRows,
		Cols:   GridCols,
		PadTop: titleHeight + pad,
		PadX:   pad,
		PadY:   pad,
	}
	for k, cp := range cells {
		cp.Draw(tiles.At(dc, k%GridCols, k/GridCols))
	}
}
