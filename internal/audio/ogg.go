// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"

	"github.com/jfreymuth/oggvorbis"
)

func decodeOGG(f *os.File) (Buffer, error) {
	data, format, err := oggvorbis.ReadAll(f)
	if err != nil {
		return Buffer{}, fmt.Errorf("decoding OGG: %w", err)
	}
	return Buffer{
		Samples:    mixInterleaved(data, format.Channels, 1),
		SampleRate: format.SampleRate,
	}, nil
}
