// SPDX-License-Identifier: MIT
package utils

import (
	"math"
	"os"
	"sync"
	"testing"
)

const (
	testSize       = 1024
	testSampleRate = 44100
	testFrequency  = 440.0 // A4 note
)

var (
	testMagnitudes  []float64
	testComplexWave []float64
	testSineWave    []float64
)

func TestMain(m *testing.M) {
	testMagnitudes = make([]float64, testSize)

	// A "hill" with its peak at testSize/4.
	for i := range testMagnitudes {
		testMagnitudes[i] = math.Exp(-0.01 * math.Pow(float64(i-testSize/4), 2))
	}

	testComplexWave = GenerateComplexWave(testSize, testSampleRate)
	testSineWave = GenerateSineWave(testSize, testSampleRate, testFrequency)

	os.Exit(m.Run())
}

func TestMockTransport(t *testing.T) {
	tests := []struct {
		name     string
		payloads []any
	}{
		{"Nothing Sent", nil},
		{"Single Value", []any{0.5}},
		{"Mixed Values", []any{"a", 1, map[string]any{"type": "done"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mt := &MockTransport{}
			for _, p := range tt.payloads {
				if err := mt.Send(p); err != nil {
					t.Errorf("MockTransport.Send() error = %v", err)
				}
			}

			if got := len(mt.Sent()); got != len(tt.payloads) {
				t.Errorf("MockTransport.Sent() length = %d, want %d", got, len(tt.payloads))
			}
			if mt.Closed() {
				t.Error("transport reported closed before Close()")
			}
			_ = mt.Close()
			if !mt.Closed() {
				t.Error("transport not closed after Close()")
			}
		})
	}
}

func TestMockTransportConcurrentSend(t *testing.T) {
	mt := &MockTransport{}
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = mt.Send(i)
		}()
	}
	wg.Wait()

	if got := len(mt.Sent()); got != 16 {
		t.Errorf("recorded %d payloads, want 16", got)
	}
}

func TestGenerateSineWave(t *testing.T) {
	if len(testSineWave) != testSize {
		t.Fatalf("length = %d, want %d", len(testSineWave), testSize)
	}
	if testSineWave[0] != 0 {
		t.Errorf("first sample = %f, want 0", testSineWave[0])
	}
	for i, v := range testSineWave {
		if math.Abs(v) > 0.9+1e-12 {
			t.Fatalf("sample %d = %f exceeds amplitude 0.9", i, v)
		}
	}
}

func TestGenerateComplexWaveBounded(t *testing.T) {
	for i, v := range testComplexWave {
		if math.Abs(v) > 0.9+1e-12 {
			t.Fatalf("sample %d = %f exceeds 0.9", i, v)
		}
	}
}

func TestFindPeakBin(t *testing.T) {
	tests := []struct {
		name       string
		magnitudes []float64
		start, end int
		want       int
	}{
		{"Hill", testMagnitudes, 0, testSize - 1, testSize / 4},
		{"Empty", nil, 0, 10, 0},
		{"Negative start", []float64{3, 1, 2}, -5, 2, 0},
		{"End past slice", []float64{1, 2, 5}, 0, 99, 2},
		{"Sub range", []float64{9, 1, 4, 2}, 1, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindPeakBin(tt.magnitudes, tt.start, tt.end); got != tt.want {
				t.Errorf("FindPeakBin() = %d, want %d", got, tt.want)
			}
		})
	}
}
