package pointcloud

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
)

// Load reads a cloud from disk.
//
//	.npy  float32 or float64, C order, shape (n, points, 6) or (points, 6)
//	.txt  ModelNet "normal_resampled" text: one "x,y,z,nx,ny,nz" line per point, one sample
func Load(path string) (*Cloud, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".npy":
		return loadNPY(path)
	case ".txt", ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		values, points, err := readPointsText(f, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return New(1, points, values)
	default:
		return nil, fmt.Errorf("%s: unsupported point cloud format %q (want .npy or .txt)", path, filepath.Ext(path))
	}
}

// LoadMany stacks single-sample text files into one cloud. maxPoints > 0 keeps
// only the first maxPoints points of each file (the trainer does the same with
// num_point); every file must then provide the same number of points.
func LoadMany(paths []string, maxPoints int) (*Cloud, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files")
	}
	for _, p := range paths {
		if !strings.EqualFold(filepath.Ext(p), ".npy") {
			continue
		}
		if len(paths) > 1 {
			return nil, fmt.Errorf("%s: .npy inputs already hold many samples and cannot be stacked", p)
		}
		c, err := Load(p)
		if err != nil {
			return nil, err
		}
		return c.Truncate(maxPoints)
	}

	var all []float64
	points := -1
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, err
		}
		values, n, err := readPointsText(f, maxPoints)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		if points >= 0 && n != points {
			return nil, fmt.Errorf("%s: has %d points, previous files have %d (use a point limit)", p, n, points)
		}
		points = n
		all = append(all, values...)
	}
	return New(len(paths), points, all)
}

// Truncate keeps the first maxPoints points of every sample. maxPoints <= 0
// or >= Points() returns c unchanged.
func (c *Cloud) Truncate(maxPoints int) (*Cloud, error) {
	if maxPoints <= 0 || maxPoints >= c.points {
		return c, nil
	}
	out := make([]float64, 0, c.n*maxPoints*Channels)
	stride := c.points * Channels
	for i := 0; i < c.n; i++ {
		out = append(out, c.data[i*stride:i*stride+maxPoints*Channels]...)
	}
	return New(c.n, maxPoints, out)
}

func readPointsText(r io.Reader, maxPoints int) ([]float64, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = Channels
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	var values []float64
	points := 0
	for maxPoints <= 0 || points < maxPoints {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, err
		}
		for i, field := range rec {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, 0, fmt.Errorf("line %d column %d: %w", points+1, i+1, err)
			}
			values = append(values, v)
		}
		points++
	}
	if points == 0 {
		return nil, 0, errors.New("no points")
	}
	return values, points, nil
}

func loadNPY(path string) (*Cloud, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := npyio.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if r.Header.Descr.Fortran {
		return nil, fmt.Errorf("%s: fortran-ordered arrays are not supported", path)
	}

	shape := r.Header.Descr.Shape
	var n, points int
	switch {
	case len(shape) == 3 && shape[2] == Channels:
		n, points = shape[0], shape[1]
	case len(shape) == 2 && shape[1] == Channels:
		n, points = 1, shape[0]
	default:
		return nil, fmt.Errorf("%s: shape %v, want (n, points, %d) or (points, %d)", path, shape, Channels, Channels)
	}

	var values []float64
	switch r.Header.Descr.Type {
	case "<f8", "f8", "float64":
		if err := r.Read(&values); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	case "<f4", "f4", "float32":
		var f32 []float32
		if err := r.Read(&f32); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		values = make([]float64, len(f32))
		for i, v := range f32 {
			values[i] = float64(v)
		}
	default:
		return nil, fmt.Errorf("%s: unsupported dtype %q (want float32 or float64)", path, r.Header.Descr.Type)
	}
	return New(n, points, values)
}
