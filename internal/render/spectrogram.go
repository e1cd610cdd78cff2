// SPDX-License-Identifier: MIT
package render

import (
	"fmt"
	"image"
	"math"

	"audiograph/internal/analysis"
	"audiograph/internal/fft"
	applog "audiograph/internal/log"
	"audiograph/pkg/bitint"

	"gonum.org/v1/gonum/floats"
)

// Spectrogram analysis constants.
const (
	MinFFTSize = 1024
	MaxFFTSize = 4096

	MinMelBins = 512

	PowerFloor   = 1e-12 // Smallest power before taking the log.
	DynamicRange = 100.0 // dB shown below the loudest cell.
	DecibelFloor = -120.0
	MinDenom     = 1e-6
)

// ChooseFFTSize picks the analysis frame length for a clip of n samples:
// the largest power of two in [MinFFTSize, MaxFFTSize] that fits in the
// clip, but never longer than the clip itself.
func ChooseFFTSize(n int) int {
	if n <= 0 {
		return MinFFTSize
	}
	return min(bitint.ClampPowerOfTwo(n, MinFFTSize, MaxFFTSize), n)
}

// HopLength spreads the frames of an n sample clip over width columns.
func HopLength(n, nFFT, width int) int {
	return max(1, (n-nFFT)/max(1, width-1))
}

// MelBins returns the number of mel bands analysed for an image of the given
// height.
func MelBins(height int) int {
	return max(2*height, MinMelBins)
}

// Decibels converts power values to dB in place, flooring at PowerFloor.
func Decibels(rows [][]float64) {
	for _, row := range rows {
		for i, p := range row {
			row[i] = 10 * math.Log10(math.Max(p, PowerFloor))
		}
	}
}

// DecibelRange returns the lower bound and span used to normalize a dB
// matrix into [0, 1]. The span is never below MinDenom, so a flat matrix
// normalizes to a constant instead of dividing by zero.
func DecibelRange(db [][]float64) (minDB, denom float64) {
	globalMax := math.Inf(-1)
	for _, row := range db {
		if len(row) > 0 {
			globalMax = math.Max(globalMax, floats.Max(row))
		}
	}
	if math.IsInf(globalMax, -1) {
		globalMax = DecibelFloor
	}
	minDB = math.Max(globalMax-DynamicRange, DecibelFloor)
	denom = math.Max(MinDenom, globalMax-minDB)
	return minDB, denom
}

// SpectrogramRenderer renders mel spectrograms with a configurable analysis
// window and FFT backend.
type SpectrogramRenderer struct {
	Window   analysis.WindowFunc
	Backend  fft.Backend
	Gradient *Gradient
}

// DefaultSpectrogram uses a Hann window, the gonum FFT and the Magma
// palette.
var DefaultSpectrogram = &SpectrogramRenderer{
	Window:   analysis.DefaultWindow,
	Backend:  fft.DefaultBackend,
	Gradient: Magma,
}

// NewSpectrogramRenderer validates the backend and returns a renderer using
// the Magma palette.
func NewSpectrogramRenderer(window analysis.WindowFunc, backend fft.Backend) (*SpectrogramRenderer, error) {
	if _, err := fft.ParseBackend(string(backend)); err != nil {
		return nil, err
	}
	return &SpectrogramRenderer{Window: window, Backend: backend, Gradient: Magma}, nil
}

// Spectrogram renders samples with DefaultSpectrogram. A non-positive
// sample rate yields a black raster.
func Spectrogram(samples []float64, sampleRate int) *image.RGBA {
	img, err := DefaultSpectrogram.Render(samples, sampleRate)
	if err != nil {
		applog.Warnf("Spectrogram: %v", err)
		return NewRaster(SpectrogramWidth, SpectrogramHeight)
	}
	return img
}

// Render draws the mel spectrogram of samples onto a SpectrogramWidth x
// SpectrogramHeight raster, lowest frequencies at the bottom. An empty
// buffer renders black.
func (r *SpectrogramRenderer) Render(samples []float64, sampleRate int) (*image.RGBA, error) {
	const width, height = SpectrogramWidth, SpectrogramHeight

	img := NewRaster(width, height)
	n := len(samples)
	if n < 1 {
		return img, nil
	}
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate %d", sampleRate)
	}

	nFFT := ChooseFFTSize(n)
	y := samples
	if n < nFFT {
		y = make([]float64, nFFT)
		copy(y, samples)
	}
	hop := HopLength(len(y), nFFT, width)
	melBins := MelBins(height)

	mel, err := analysis.MelSpectrogram(y, analysis.Options{
		SampleRate: sampleRate,
		NFFT:       nFFT,
		Hop:        hop,
		NMels:      melBins,
		Power:      2,
		Window:     r.Window,
		Backend:    r.Backend,
	})
	if err != nil {
		return nil, fmt.Errorf("mel spectrogram: %w", err)
	}

	Decibels(mel)
	minDB, denom := DecibelRange(mel)

	grid := newTimeGrid(len(mel[0]), width)
	rows := make([][]float64, melBins)
	for i, row := range mel {
		rows[i] = make([]float64, width)
		grid.resample(rows[i], row)
	}

	grad := r.Gradient
	if grad == nil {
		grad = Magma
	}
	line := make([]float64, width)
	for py := range height {
		RemapRow(line, rows, py, height)
		for x, v := range line {
			img.SetRGBA(x, py, grad.At((v-minDB)/denom))
		}
	}
	return img, nil
}
