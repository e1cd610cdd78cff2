// SPDX-License-Identifier: MIT
package fft

import "gonum.org/v1/gonum/dsp/fourier"

// gonumTransformer holds a reusable gonum FFT plan and its output buffer so
// PowerSpectrum does not allocate.
type gonumTransformer struct {
	size   int
	plan   *fourier.FFT
	coeffs []complex128
}

var _ Transformer = (*gonumTransformer)(nil)

func newGonumTransformer(size int) *gonumTransformer {
	return &gonumTransformer{
		size:   size,
		plan:   fourier.NewFFT(size),
		coeffs: make([]complex128, size/2+1),
	}
}

func (g *gonumTransformer) Size() int { return g.size }
func (g *gonumTransformer) Bins() int { return g.size/2 + 1 }

func (g *gonumTransformer) PowerSpectrum(dst, frame []float64, power float64) {
	checkLengths(g, dst, frame)
	if g.size == 1 {
		dst[0] = binPower(complex(frame[0], 0), power)
		return
	}
	g.plan.Coefficients(g.coeffs, frame)
	for i, c := range g.coeffs {
		dst[i] = binPower(c, power)
	}
}
