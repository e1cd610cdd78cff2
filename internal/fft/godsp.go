// SPDX-License-Identifier: MIT
package fft

import dspfft "github.com/mjibson/go-dsp/fft"

// goDSPTransformer uses mjibson/go-dsp, which picks radix-2 or Bluestein
// internally depending on the frame length.
type goDSPTransformer struct {
	size int
}

var _ Transformer = (*goDSPTransformer)(nil)

func newGoDSPTransformer(size int) *goDSPTransformer {
	return &goDSPTransformer{size: size}
}

func (g *goDSPTransformer) Size() int { return g.size }
func (g *goDSPTransformer) Bins() int { return g.size/2 + 1 }

func (g *goDSPTransformer) PowerSpectrum(dst, frame []float64, power float64) {
	checkLengths(g, dst, frame)
	coeffs := dspfft.FFTReal(frame)
	for i := range dst {
		dst[i] = binPower(coeffs[i], power)
	}
}
