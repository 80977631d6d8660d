// Package pointcloud holds point-cloud sample arrays of shape (n, points, 6),
// where each point is x, y, z followed by the surface normal nx, ny, nz.
package pointcloud

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Channels is the size of the last axis: 3 coordinates then 3 normal components.
const Channels = 6

var ErrIndexOutOfRange = errors.New("sample index out of range")

// Cloud is a read-only (n, points, 6) array stored row-major.
type Cloud struct {
	n, points int
	data      []float64
}

// New wraps data without copying. len(data) must equal n*points*6.
func New(n, points int, data []float64) (*Cloud, error) {
	if n <= 0 || points <= 0 {
		return nil, fmt.Errorf("invalid shape (%d, %d, %d)", n, points, Channels)
	}
	if len(data) != n*points*Channels {
		return nil, fmt.Errorf("shape (%d, %d, %d) needs %d values, got %d", n, points, Channels, n*points*Channels, len(data))
	}
	return &Cloud{n: n, points: points, data: data}, nil
}

// Len is the number of samples.
func (c *Cloud) Len() int { return c.n }

// Points is the number of points per sample.
func (c *Cloud) Points() int { return c.points }

// Shape returns (n, points, 6).
func (c *Cloud) Shape() [3]int { return [3]int{c.n, c.points, Channels} }

// Sample returns sample i as a points×6 matrix sharing the cloud's storage.
// Callers must not modify it.
func (c *Cloud) Sample(i int) (*mat.Dense, error) {
	if i < 0 || i >= c.n {
		return nil, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, c.n)
	}
	stride := c.points * Channels
	return mat.NewDense(c.points, Channels, c.data[i*stride:(i+1)*stride]), nil
}

// Coords is the points×3 coordinate block of a sample.
func Coords(sample *mat.Dense) mat.Matrix {
	r, _ := sample.Dims()
	return sample.Slice(0, r, 0, 3)
}

// Normals is the points×3 normal block of a sample.
func Normals(sample *mat.Dense) mat.Matrix {
	r, _ := sample.Dims()
	return sample.Slice(0, r, 3, 6)
}

// NormalZ returns the z component of every normal, used as the colour value
// when plotting.
func NormalZ(sample *mat.Dense) []float64 {
	return mat.Col(nil, 5, sample)
}
