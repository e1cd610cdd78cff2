// SPDX-License-Identifier: MIT
package render

import (
	"image"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Extent is the sample range covered by one output column.
type Extent struct {
	Min, Max float64
	Valid    bool
}

// PeakNormalize returns a copy of samples scaled so the largest absolute
// value is 1. A silent buffer is copied unchanged.
func PeakNormalize(samples []float64) []float64 {
	out := make([]float64, len(samples))
	copy(out, samples)
	if len(out) == 0 {
		return out
	}
	peak := floats.Norm(out, math.Inf(1))
	if peak > 0 {
		for i := range out {
			out[i] /= peak
		}
	}
	return out
}

// Envelope reduces samples to width per-column extents. Columns whose window
// is empty are left invalid.
func Envelope(samples []float64, width int) []Extent {
	env := make([]Extent, width)
	n := len(samples)
	for x := range env {
		start, end := ColumnWindow(x, n, width)
		if end <= start {
			continue
		}
		w := samples[start:end]
		env[x] = Extent{Min: floats.Min(w), Max: floats.Max(w), Valid: true}
	}
	return env
}

// Waveform renders the peak envelope of samples as white vertical strokes
// on a black WaveformWidth x WaveformHeight raster. Each column spans from
// the window maximum (top) to the window minimum (bottom), so a silent
// column is a single pixel at the center row.
func Waveform(samples []float64) *image.RGBA {
	img := NewRaster(WaveformWidth, WaveformHeight)
	if len(samples) == 0 {
		return img
	}
	mid := float64(WaveformHeight) / 2
	for x, e := range Envelope(PeakNormalize(samples), WaveformWidth) {
		if !e.Valid {
			continue
		}
		y1 := int(mid - e.Max*mid)
		y2 := int(mid - e.Min*mid)
		drawVLine(img, x, y1, y2, white)
	}
	return img
}
