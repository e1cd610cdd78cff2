// SPDX-License-Identifier: MIT
/*
Package render turns a mono sample buffer into the two fixed-size images
produced for every audio file:

  - a 4000x50 peak-envelope waveform, white on black
  - a 4000x200 mel spectrogram, low frequencies at the bottom, colored with
    a magma-like gradient

Both renderers are pure functions of their input. They never modify the
caller's samples and keep all working buffers local to the call, so the two
can run concurrently on the same buffer.
*/
package render

import (
	"image"
	"image/color"
)

// Output sizes. These are part of the file contract and are not
// configurable.
const (
	WaveformWidth  = 4000
	WaveformHeight = 50

	SpectrogramWidth  = 4000
	SpectrogramHeight = 200
)

var (
	black = color.RGBA{A: 255}
	white = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// NewRaster returns an opaque black image of the given size.
func NewRaster(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}
	return img
}

// drawVLine paints column x from row y1 to row y2 inclusive, clipped to the
// image bounds.
func drawVLine(img *image.RGBA, x, y1, y2 int, c color.RGBA) {
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	b := img.Bounds()
	if y1 < b.Min.Y {
		y1 = b.Min.Y
	}
	if y2 > b.Max.Y-1 {
		y2 = b.Max.Y - 1
	}
	for y := y1; y <= y2; y++ {
		img.SetRGBA(x, y, c)
	}
}
