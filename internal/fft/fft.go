// SPDX-License-Identifier: MIT
//
// Package fft turns one windowed analysis frame into its one-sided power
// spectrum. Two interchangeable backends are available: gonum's fourier
// package (default) and mjibson/go-dsp.
package fft

import (
	"fmt"
	"math"
	"strings"
)

// Backend names an FFT implementation.
type Backend string

const (
	BackendGonum Backend = "gonum"
	BackendGoDSP Backend = "go-dsp"
)

// DefaultBackend is used when no backend is configured.
const DefaultBackend = BackendGonum

// Transformer computes power spectra for frames of a fixed size.
// Implementations own scratch buffers and are not safe for concurrent use;
// each renderer creates its own.
type Transformer interface {
	// Size returns the frame length in samples.
	Size() int
	// Bins returns the number of one-sided spectrum bins, Size()/2 + 1.
	Bins() int
	// PowerSpectrum writes |X_k|^power for k in [0, Bins()) into dst.
	// len(frame) must equal Size() and len(dst) must equal Bins().
	PowerSpectrum(dst, frame []float64, power float64)
}

// ParseBackend converts a backend name (case-insensitive) to a Backend.
// An empty name selects DefaultBackend.
func ParseBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "gonum":
		return BackendGonum, nil
	case "go-dsp", "godsp":
		return BackendGoDSP, nil
	default:
		return DefaultBackend, fmt.Errorf("unknown FFT backend: '%s'", name)
	}
}

// New returns a Transformer of the given size backed by backend.
func New(backend Backend, size int) (Transformer, error) {
	if size < 1 {
		return nil, fmt.Errorf("fft size must be positive, got %d", size)
	}
	switch backend {
	case BackendGonum, "":
		return newGonumTransformer(size), nil
	case BackendGoDSP:
		return newGoDSPTransformer(size), nil
	default:
		return nil, fmt.Errorf("unknown FFT backend: '%s'", backend)
	}
}

// binPower converts one complex coefficient to power. power == 2 is the hot
// case and avoids the square root.
func binPower(c complex128, power float64) float64 {
	re, im := real(c), imag(c)
	sq := re*re + im*im
	switch power {
	case 2:
		return sq
	case 1:
		return math.Sqrt(sq)
	default:
		return math.Pow(math.Sqrt(sq), power)
	}
}

func checkLengths(t Transformer, dst, frame []float64) {
	if len(frame) != t.Size() {
		panic(fmt.Sprintf("fft: frame length %d does not match size %d", len(frame), t.Size()))
	}
	if len(dst) != t.Bins() {
		panic(fmt.Sprintf("fft: destination length %d does not match bins %d", len(dst), t.Bins()))
	}
}
