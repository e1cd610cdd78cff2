// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/hajimehoshi/go-mp3"
)

// go-mp3 always produces 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMP3(f *os.File) (Buffer, error) {
	dec, err := mp3.NewDecoder(f)
	if err != nil {
		return Buffer{}, fmt.Errorf("decoding MP3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return Buffer{}, fmt.Errorf("reading MP3 frames: %w", err)
	}

	pcm := make([]int16, len(raw)/2)
	for i := range pcm {
		pcm[i] = int16(binary.LittleEndian.Uint16(raw[i*2:]))
	}
	return Buffer{
		Samples:    mixInterleaved(pcm, mp3Channels, 32768),
		SampleRate: dec.SampleRate(),
	}, nil
}
