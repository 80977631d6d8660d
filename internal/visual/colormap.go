package visual

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot/palette"
)

// ViridisStops are the control colours shared by the static plots and the
// interactive view's visual map.
var ViridisStops = []string{"#440154", "#482777", "#3e4989", "#31688e", "#26828e", "#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725"}

// viridis linearly interpolates ViridisStops over [min, max].
type viridis struct {
	stops    []color.NRGBA
	min, max float64
	alpha    float64
}

var _ palette.ColorMap = (*viridis)(nil)

// Viridis returns a viridis colour map over [min, max]. A degenerate range is
// widened so every value maps to the middle of the scale.
func Viridis(min, max float64) palette.ColorMap {
	if !(max > min) {
		min, max = min-0.5, min+0.5
	}
	stops := make([]color.NRGBA, len(ViridisStops))
	for i, hex := range ViridisStops {
		stops[i] = mustParseHex(hex)
	}
	return &viridis{stops: stops, min: min, max: max, alpha: 1}
}

func (v *viridis) At(x float64) (color.Color, error) {
	switch {
	case math.IsNaN(x):
		return nil, palette.ErrNaN
	case x < v.min-v.slack():
		return nil, palette.ErrUnderflow
	case x > v.max+v.slack():
		return nil, palette.ErrOverflow
	}
	x = math.Max(v.min, math.Min(v.max, x))
	t := (x - v.min) / (v.max - v.min) * float64(len(v.stops)-1)
	i := int(math.Floor(t))
	if i >= len(v.stops)-1 {
		i = len(v.stops) - 2
	}
	frac := t - float64(i)
	a, b := v.stops[i], v.stops[i+1]
	lerp := func(p, q uint8) uint8 {
		return uint8(math.Round(float64(p) + (float64(q)-float64(p))*frac))
	}
	return color.NRGBA{
		R: lerp(a.R, b.R),
		G: lerp(a.G, b.G),
		B: lerp(a.B, b.B),
		A: uint8(math.Round(255 * v.alpha)),
	}, nil
}

// clamped is At with out-of-range values pinned to the ends of the scale.
func clamped(cm palette.ColorMap, x float64) color.Color {
	x = math.Max(cm.Min(), math.Min(cm.Max(), x))
	c, err := cm.At(x)
	if err != nil {
		return color.Black
	}
	return c
}

// slack absorbs rounding when callers step across the whole range.
func (v *viridis) slack() float64 { return 1e-9 * (v.max - v.min) }

func (v *viridis) Max() float64 { return v.max }

func (v *viridis) Min() float64 { return v.min }

func (v *viridis) SetMax(x float64) { v.max = x }

func (v *viridis) SetMin(x float64) { v.min = x }

func (v *viridis) Alpha() float64 { return v.alpha }

func (v *viridis) SetAlpha(a float64) { v.alpha = a }

func (v *viridis) Palette(n int) palette.Palette {
	if n < 2 {
		n = 2
	}
	colors := make([]color.Color, n)
	step := (v.max - v.min) / float64(n-1)
	for i := range colors {
		colors[i] = clamped(v, v.min+float64(i)*step)
	}
	return plainPalette(colors)
}

type plainPalette []color.Color

func (p plainPalette) Colors() []color.Color { return p }

func mustParseHex(s string) color.NRGBA {
	var c color.NRGBA
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
		panic(fmt.Sprintf("visual: bad colour %q: %v", s, err))
	}
	c.A = 0xff
	return c
}
