package visual

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	// DefaultElevation and DefaultAzimuth match the usual 3D axes camera.
	DefaultElevation = 30.0
	DefaultAzimuth   = -60.0
)

// Project maps points×3 coordinates onto the screen plane of an orthographic
// camera at the given elevation and azimuth (degrees). It returns the points×2
// screen coordinates and each point's depth along the viewing axis; larger
// depth is closer to the camera.
func Project(coords mat.Matrix, elev, azim float64) (*mat.Dense, []float64) {
	e := elev * math.Pi / 180
	a := azim * math.Pi / 180
	se, ce := math.Sincos(e)
	sa, ca := math.Sincos(a)

	// Columns: screen x, screen y, depth.
	basis := mat.NewDense(3, 3, []float64{
		-sa, -se * ca, ce * ca,
		ca, -se * sa, ce * sa,
		0, ce, se,
	})

	var view mat.Dense
	view.Mul(coords, basis)

	n, _ := view.Dims()
	screen := mat.NewDense(n, 2, nil)
	screen.Copy(view.Slice(0, n, 0, 2))
	return screen, mat.Col(nil, 2, &view)
}
