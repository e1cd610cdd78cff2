// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"

	"audiograph/internal/fft"
	applog "audiograph/internal/log"
)

// Options configures MelSpectrogram.
type Options struct {
	SampleRate int         // Sample rate of the signal (Hz).
	NFFT       int         // Frame length and FFT size.
	Hop        int         // Samples between frame starts.
	NMels      int         // Number of mel bands.
	Power      float64     // Exponent applied to the magnitude (2 = power).
	FMin       float64     // Lowest filter edge (Hz).
	FMax       float64     // Highest filter edge (Hz), 0 for Nyquist.
	Window     WindowFunc  // Analysis window.
	Backend    fft.Backend // FFT implementation.
}

// FrameCount returns the number of uncentered frames of length nFFT at
// stride hop that fit in n samples.
func FrameCount(n, nFFT, hop int) int {
	if n < nFFT || nFFT < 1 || hop < 1 {
		return 0
	}
	return 1 + (n-nFFT)/hop
}

// MelSpectrogram computes the mel-filtered spectrogram of samples, indexed
// [mel band][frame]. Frames are not centered: frame f covers
// samples[f*Hop : f*Hop+NFFT]. The signal must hold at least NFFT samples;
// callers zero-pad short clips.
func MelSpectrogram(samples []float64, opts Options) ([][]float64, error) {
	if opts.Hop < 1 {
		return nil, fmt.Errorf("hop length must be positive, got %d", opts.Hop)
	}
	if opts.Power <= 0 {
		return nil, fmt.Errorf("power must be positive, got %g", opts.Power)
	}
	fb, err := NewFilterbank(opts.SampleRate, opts.NFFT, opts.NMels, opts.FMin, opts.FMax)
	if err != nil {
		return nil, err
	}
	frames := FrameCount(len(samples), opts.NFFT, opts.Hop)
	if frames == 0 {
		return nil, fmt.Errorf("signal of %d samples is shorter than the %d sample frame", len(samples), opts.NFFT)
	}
	backend := opts.Backend
	if backend == "" {
		backend = fft.DefaultBackend
	}
	tr, err := fft.New(backend, opts.NFFT)
	if err != nil {
		return nil, err
	}

	applog.Debugf("Analysis: mel spectrogram (n_fft: %d, hop: %d, mels: %d, frames: %d, window: %v, backend: %s)",
		opts.NFFT, opts.Hop, opts.NMels, frames, opts.Window, backend)

	win := PeriodicWindow(opts.Window, opts.NFFT)
	frame := make([]float64, opts.NFFT)
	spectrum := make([]float64, tr.Bins())
	column := make([]float64, opts.NMels)

	out := make([][]float64, opts.NMels)
	for m := range out {
		out[m] = make([]float64, frames)
	}

	for f := range frames {
		start := f * opts.Hop
		for i, w := range win {
			frame[i] = samples[start+i] * w
		}
		tr.PowerSpectrum(spectrum, frame, opts.Power)
		fb.Apply(column, spectrum)
		for m, v := range column {
			out[m][f] = v
		}
	}
	return out, nil
}
