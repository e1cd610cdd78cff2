// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melLinearStep = 200.0 / 3
	melLogMinHz   = 1000.0
	melLogMin     = melLogMinHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27.0

// HzToMel converts a frequency in Hz to the Slaney mel scale.
func HzToMel(hz float64) float64 {
	if hz >= melLogMinHz {
		return melLogMin + math.Log(hz/melLogMinHz)/melLogStep
	}
	return hz / melLinearStep
}

// MelToHz is the inverse of HzToMel.
func MelToHz(mel float64) float64 {
	if mel >= melLogMin {
		return melLogMinHz * math.Exp(melLogStep*(mel-melLogMin))
	}
	return mel * melLinearStep
}

// melFilter is one triangular filter. Only the non-zero span of weights is
// kept; start is the FFT bin of weights[0].
type melFilter struct {
	start   int
	weights []float64
}

// Filterbank projects a one-sided power spectrum onto mel bands using
// Slaney-normalized triangular filters.
type Filterbank struct {
	numBins int
	centers []float64
	filters []melFilter
}

// NewFilterbank builds nMels filters spanning [fmin, fmax] for an FFT of
// size nFFT at sampleRate. fmax <= 0 selects the Nyquist frequency.
func NewFilterbank(sampleRate, nFFT, nMels int, fmin, fmax float64) (*Filterbank, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}
	if nFFT < 1 {
		return nil, fmt.Errorf("fft size must be positive, got %d", nFFT)
	}
	if nMels < 1 {
		return nil, fmt.Errorf("mel band count must be positive, got %d", nMels)
	}
	nyquist := float64(sampleRate) / 2
	if fmax <= 0 {
		fmax = nyquist
	}
	if fmin < 0 || fmin >= fmax {
		return nil, fmt.Errorf("invalid mel frequency range [%g, %g]", fmin, fmax)
	}

	numBins := nFFT/2 + 1
	binHz := make([]float64, numBins)
	if numBins > 1 {
		floats.Span(binHz, 0, nyquist)
	}

	// nMels+2 band edges evenly spaced in mel, then converted back to Hz.
	edges := make([]float64, nMels+2)
	floats.Span(edges, HzToMel(fmin), HzToMel(fmax))
	for i, m := range edges {
		edges[i] = MelToHz(m)
	}

	fb := &Filterbank{
		numBins: numBins,
		centers: make([]float64, nMels),
		filters: make([]melFilter, nMels),
	}
	row := make([]float64, numBins)
	for i := range nMels {
		lower, center, upper := edges[i], edges[i+1], edges[i+2]
		norm := 2.0 / (upper - lower)
		first, last := -1, -1
		for k, f := range binHz {
			rising := (f - lower) / (center - lower)
			falling := (upper - f) / (upper - center)
			w := math.Max(0, math.Min(rising, falling)) * norm
			row[k] = w
			if w > 0 {
				if first < 0 {
					first = k
				}
				last = k
			}
		}
		fb.centers[i] = center
		if first >= 0 {
			weights := make([]float64, last-first+1)
			copy(weights, row[first:last+1])
			fb.filters[i] = melFilter{start: first, weights: weights}
		}
	}
	return fb, nil
}

// NumMels returns the number of mel bands.
func (fb *Filterbank) NumMels() int { return len(fb.filters) }

// NumBins returns the expected spectrum length.
func (fb *Filterbank) NumBins() int { return fb.numBins }

// CenterFrequency returns the peak frequency in Hz of band m.
func (fb *Filterbank) CenterFrequency(m int) float64 { return fb.centers[m] }

// Weight returns the filter weight of band m at FFT bin k.
func (fb *Filterbank) Weight(m, k int) float64 {
	f := fb.filters[m]
	if k < f.start || k >= f.start+len(f.weights) {
		return 0
	}
	return f.weights[k-f.start]
}

// Apply writes the mel projection of spectrum into dst. len(spectrum) must
// be NumBins() and len(dst) NumMels(). Bands whose triangle falls between
// two FFT bins have no weights and produce zero.
func (fb *Filterbank) Apply(dst, spectrum []float64) {
	for m, f := range fb.filters {
		if len(f.weights) == 0 {
			dst[m] = 0
			continue
		}
		dst[m] = floats.Dot(f.weights, spectrum[f.start:f.start+len(f.weights)])
	}
}
