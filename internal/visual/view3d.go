package visual

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"pctbench/internal/pointcloud"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/floats"
)

// DefaultViewAddr binds the interactive view to loopback on a free port.
const DefaultViewAddr = "127.0.0.1:0"

// NewView3D builds an interactive 3D scatter of sample i. Each point carries
// x, y, z, nx, ny, nz; the visual map colours by nz.
func NewView3D(c *pointcloud.Cloud, i int) (*charts.Scatter3D, error) {
	sample, err := c.Sample(i)
	if err != nil {
		return nil, err
	}
	rows, _ := sample.Dims()
	xyz, normals := pointcloud.Coords(sample), pointcloud.Normals(sample)
	data := make([]opts.Chart3DData, 0, rows)
	for r := 0; r < rows; r++ {
		data = append(data, opts.Chart3DData{Value: []interface{}{
			xyz.At(r, 0), xyz.At(r, 1), xyz.At(r, 2),
			normals.At(r, 0), normals.At(r, 1), normals.At(r, 2),
		}})
	}
	nz := pointcloud.NormalZ(sample)
	lo, hi := floats.Min(nz), floats.Max(nz)
	if !(hi > lo) {
		lo, hi = lo-0.5, lo+0.5
	}

	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: SampleTitle(i), Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: SampleTitle(i), Subtitle: fmt.Sprintf("points=%d", rows)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: "X"}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: "Y"}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: "Z"}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        float32(lo),
			Max:        float32(hi),
			Dimension:  "5",
			Text:       []string{ColorbarLabel},
			InRange:    &opts.VisualMapInRange{Color: ViridisStops},
		}),
	)
	scatter.AddSeries(SampleTitle(i), data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))
	return scatter, nil
}

// WriteView3D writes the interactive page for sample i as standalone HTML.
func WriteView3D(w io.Writer, c *pointcloud.Cloud, i int) error {
	scatter, err := NewView3D(c, i)
	if err != nil {
		return err
	}
	return scatter.Render(w)
}

// ServeView3D serves the interactive page for sample i on addr until ctx is
// cancelled. ready, if non-nil, receives the page URL once the listener is
// bound.
func ServeView3D(ctx context.Context, c *pointcloud.Cloud, i int, addr string, ready func(url string)) error {
	var page bytes.Buffer
	if err := WriteView3D(&page, c, i); err != nil {
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(page.Bytes())
	})

	if addr == "" {
		addr = DefaultViewAddr
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	if ready != nil {
		ready("http://" + ln.Addr().String() + "/")
	}

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
