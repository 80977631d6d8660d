package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"pctbench/internal/flags"
	"pctbench/internal/pointcloud"
	"pctbench/internal/visual"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"
)

type plotOptions struct {
	inputs    []string
	points    int
	index     int
	indices   []int
	title     string
	colorbar  bool
	pointSize float64
	elevation float64
	azimuth   float64
	width     float64
	height    float64
	out       string
	addr      string
	html      string
}

var plotOpts = plotOptions{
	pointSize: 1,
	elevation: visual.DefaultElevation,
	azimuth:   visual.DefaultAzimuth,
	addr:      visual.DefaultViewAddr,
}

var plotCmd = &cobra.Command{
	Use:   "plot",
	Short: "Render point-cloud samples",
	Long: `Render point-cloud samples as images or an interactive 3D page.

Inputs:
	.npy  float32/float64 array of shape (n, points, 6) or (points, 6)
	.txt  ModelNet normal_resampled file, one "x,y,z,nx,ny,nz" line per point
	      (repeat --input to stack several files; see --points)

Points are coloured by the z component of their normal (viridis).

Examples:
  pctbench plot cloud --input samples.npy --index 0 --colorbar --out cloud.png
  pctbench plot grid --input samples.npy --indices 0,1,2,3,4,5 --title "Train batch" --out grid.png
  pctbench plot view --input airplane_0001.txt
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var plotCloudCmd = &cobra.Command{
	Use:   "cloud",
	Short: "Render one sample as a projected scatter",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cloud, err := loadPlotInput(plotOpts)
		if err != nil {
			return err
		}
		opts := plotOpts.visualOptions()
		if err := visual.RenderCloud(cloud, plotOpts.index, opts, plotOpts.out); err != nil {
			return err
		}
		return reportWritten(cmd.ErrOrStderr(), plotOpts.out)
	},
}

var plotGridCmd = &cobra.Command{
	Use:   "grid",
	Short: "Render up to six samples in a 2x3 grid",
	Long: `Render up to six samples in a 2x3 grid under one title.

Each cell is titled "Sample <index>". Indices past the sixth are ignored.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cloud, err := loadPlotInput(plotOpts)
		if err != nil {
			return err
		}
		if len(plotOpts.indices) > visual.GridMax {
			fmt.Fprintf(cmd.ErrOrStderr(), "[warn] %d indices given; only the first %d are drawn\n", len(plotOpts.indices), visual.GridMax)
		}
		opts := plotOpts.visualOptions()
		if err := visual.RenderGrid(cloud, plotOpts.indices, plotOpts.title, opts, plotOpts.out); err != nil {
			return err
		}
		return reportWritten(cmd.ErrOrStderr(), plotOpts.out)
	},
}

var plotViewCmd = &cobra.Command{
	Use:   "view",
	Short: "Serve an interactive 3D view of one sample",
	Long: `Serve an interactive 3D scatter of one sample on a local address until
interrupted. With --html the page is written to a file instead.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cloud, err := loadPlotInput(plotOpts)
		if err != nil {
			return err
		}
		if plotOpts.html != "" {
			return writeViewFile(cloud, plotOpts.index, plotOpts.html, cmd.ErrOrStderr())
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return visual.ServeView3D(ctx, cloud, plotOpts.index, plotOpts.addr, func(url string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s %s (Ctrl-C to stop)\n", color.New(color.Bold).Sprint("serving"), url)
		})
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.AddCommand(plotCloudCmd, plotGridCmd, plotViewCmd)
	for _, c := range []*cobra.Command{plotCloudCmd, plotGridCmd, plotViewCmd} {
		// Load and render errors are not usage errors.
		c.SilenceUsage = true
	}

	pf := plotCmd.PersistentFlags()
	pf.StringSliceVar(&plotOpts.inputs, flags.FlagInput, nil, "Point-cloud file (.npy or .txt; repeatable for .txt)")
	pf.IntVar(&plotOpts.points, flags.FlagPoints, 0, "Keep only the first N points of each sample (0 = all)")
	pf.Float64Var(&plotOpts.pointSize, flags.FlagPointSize, plotOpts.pointSize, "Marker area in points^2")
	pf.Float64Var(&plotOpts.elevation, flags.FlagElevation, plotOpts.elevation, "Camera elevation in degrees")
	pf.Float64Var(&plotOpts.azimuth, flags.FlagAzimuth, plotOpts.azimuth, "Camera azimuth in degrees")
	pf.Float64Var(&plotOpts.width, flags.FlagWidth, 0, "Image width in inches (0 = default)")
	pf.Float64Var(&plotOpts.height, flags.FlagHeight, 0, "Image height in inches (0 = default)")

	plotCloudCmd.Flags().IntVar(&plotOpts.index, flags.FlagIndex, 0, "Sample index")
	plotCloudCmd.Flags().BoolVar(&plotOpts.colorbar, flags.FlagColorbar, false, "Draw a \""+visual.ColorbarLabel+"\" colour bar")
	plotCloudCmd.Flags().StringVar(&plotOpts.out, flags.FlagOut, "", "Output image (.png, .jpg, .svg, .pdf)")
	_ = plotCloudCmd.MarkFlagRequired(flags.FlagOut)

	plotGridCmd.Flags().IntSliceVar(&plotOpts.indices, flags.FlagIndices, []int{0, 1, 2, 3, 4, 5}, "Sample indices, comma-separated (at most 6 are drawn)")
	plotGridCmd.Flags().StringVar(&plotOpts.title, flags.FlagTitle, "", "Figure title")
	plotGridCmd.Flags().StringVar(&plotOpts.out, flags.FlagOut, "", "Output image (.png, .jpg, .svg, .pdf)")
	_ = plotGridCmd.MarkFlagRequired(flags.FlagOut)

	plotViewCmd.Flags().IntVar(&plotOpts.index, flags.FlagIndex, 0, "Sample index")
	plotViewCmd.Flags().StringVar(&plotOpts.addr, flags.FlagAddr, plotOpts.addr, "Listen address")
	plotViewCmd.Flags().StringVar(&plotOpts.html, flags.FlagHTML, "", "Write the page to this file instead of serving it")
}

func (o plotOptions) visualOptions() visual.Options {
	opts := visual.DefaultOptions()
	opts.PointSize = o.pointSize
	opts.Elevation = o.elevation
	opts.Azimuth = o.azimuth
	opts.Colorbar = o.colorbar
	opts.Width = vg.Length(o.width) * vg.Inch
	opts.Height = vg.Length(o.height) * vg.Inch
	return opts
}

func loadPlotInput(o plotOptions) (*pointcloud.Cloud, error) {
	if len(o.inputs) == 0 {
		return nil, fmt.Errorf("--%s is required", flags.FlagInput)
	}
	cloud, err := pointcloud.LoadMany(o.inputs, o.points)
	if err != nil {
		return nil, fmt.Errorf("failed to load point cloud: %w", err)
	}
	return cloud, nil
}

func writeViewFile(cloud *pointcloud.Cloud, index int, path string, stderr io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := visual.WriteView3D(f, cloud, index); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return reportWritten(stderr, path)
}

func reportWritten(w io.Writer, path string) error {
	_, err := fmt.Fprintf(w, "wrote %s\n", path)
	return err
}
