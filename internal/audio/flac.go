// SPDX-License-Identifier: MIT
package audio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/mewkiz/flac"
)

// maxPrealloc bounds the capacity taken on trust from a stream header.
const maxPrealloc = 1 << 28

func decodeFLAC(f *os.File) (Buffer, error) {
	stream, err := flac.New(f)
	if err != nil {
		return Buffer{}, fmt.Errorf("decoding FLAC: %w", err)
	}
	defer stream.Close()

	info := stream.Info
	channels := int(info.NChannels)
	bps := int(info.BitsPerSample)
	if channels < 1 || bps < 1 || bps > 32 {
		return Buffer{}, fmt.Errorf("invalid FLAC stream: %d channels, %d bits per sample", channels, bps)
	}
	// FLAC allows any depth from 4 to 32 bits.
	div := float64(int64(1)<<(bps-1)) * float64(channels)

	var samples []float64
	if info.NSamples > 0 && info.NSamples < maxPrealloc {
		samples = make([]float64, 0, int(info.NSamples))
	}
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Buffer{}, fmt.Errorf("decoding FLAC frame: %w", err)
		}
		n := int(frame.Subframes[0].NSamples)
		for i := range n {
			var sum float64
			for ch := range channels {
				sum += float64(frame.Subframes[ch].Samples[i])
			}
			samples = append(samples, sum/div)
		}
	}
	return Buffer{Samples: samples, SampleRate: int(info.SampleRate)}, nil
}
