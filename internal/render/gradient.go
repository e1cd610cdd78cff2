// SPDX-License-Identifier: MIT
package render

import (
	"image/color"
	"math"
)

// Stop anchors a color at a position in [0, 1].
type Stop struct {
	Pos   float64
	Color color.RGBA
}

// Gradient maps a normalized magnitude to a color. The input is first
// shaped by a gamma curve, then values above Pivot are stretched by
// (1 + Strength) so loud peaks saturate sooner, and finally the stops are
// interpolated linearly per channel.
type Gradient struct {
	Stops    []Stop
	Gamma    float64
	Pivot    float64
	Strength float64
}

// Magma is the spectrogram palette: near-black, purple, magenta, red,
// yellow.
var Magma = &Gradient{
	Stops: []Stop{
		{0.00, color.RGBA{0, 0, 3, 255}},
		{0.25, color.RGBA{30, 16, 68, 255}},
		{0.50, color.RGBA{83, 18, 123, 255}},
		{0.75, color.RGBA{187, 55, 84, 255}},
		{1.00, color.RGBA{251, 252, 73, 255}},
	},
	Gamma:    0.4,
	Pivot:    0.85,
	Strength: 0.6,
}

// Shape applies the gamma curve and highlight boost to t and returns the
// position used to look up the stops. NaN maps to 0.
func (g *Gradient) Shape(t float64) float64 {
	t = clamp01(t)
	t = math.Pow(t, g.Gamma)
	if t > g.Pivot {
		t = g.Pivot + (t-g.Pivot)*(1+g.Strength)
	}
	return clamp01(t)
}

// Value returns the unquantized channel values for t.
func (g *Gradient) Value(t float64) (r, gr, b float64) {
	p := g.Shape(t)
	stops := g.Stops
	first, last := stops[0], stops[len(stops)-1]
	if p <= first.Pos {
		return float64(first.Color.R), float64(first.Color.G), float64(first.Color.B)
	}
	if p >= last.Pos {
		return float64(last.Color.R), float64(last.Color.G), float64(last.Color.B)
	}
	i := 1
	for p > stops[i].Pos {
		i++
	}
	lo, hi := stops[i-1], stops[i]
	f := (p - lo.Pos) / (hi.Pos - lo.Pos)
	return lerp(float64(lo.Color.R), float64(hi.Color.R), f),
		lerp(float64(lo.Color.G), float64(hi.Color.G), f),
		lerp(float64(lo.Color.B), float64(hi.Color.B), f)
}

// At returns the color for t. Channels are truncated to bytes.
func (g *Gradient) At(t float64) color.RGBA {
	r, gr, b := g.Value(t)
	return color.RGBA{R: uint8(r), G: uint8(gr), B: uint8(b), A: 255}
}

func clamp01(v float64) float64 {
	if v > 0 {
		if v > 1 {
			return 1
		}
		return v
	}
	return 0
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
