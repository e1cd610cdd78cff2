// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Buffer is a decoded clip mixed down to mono. Samples lie in [-1, 1].
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the clip length in seconds.
func (b Buffer) Duration() float64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// Format identifies a container/codec by its file extension.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatFLAC Format = "flac"
	FormatMP3  Format = "mp3"
	FormatOGG  Format = "ogg"
)

// decoders maps each supported extension to its decode function.
var decoders = map[string]struct {
	format Format
	decode func(f *os.File) (Buffer, error)
}{
	".wav":  {FormatWAV, decodeWAV},
	".flac": {FormatFLAC, decodeFLAC},
	".mp3":  {FormatMP3, decodeMP3},
	".ogg":  {FormatOGG, decodeOGG},
}

// Extensions lists the file extensions Decode understands, with the
// leading dot.
func Extensions() []string {
	return []string{".flac", ".mp3", ".ogg", ".wav"}
}

// FormatOf returns the format implied by the extension of path.
func FormatOf(path string) (Format, bool) {
	d, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return d.format, ok
}

// DecodeError reports a file that could not be decoded.
type DecodeError struct {
	Path   string
	Format Format
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Format == "" {
		return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("decode %s (%s): %v", e.Path, e.Format, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Decode reads the file at path at its native sample rate and averages all
// channels to mono. The decoder is chosen by file extension. Every failure
// is returned as a *DecodeError.
func Decode(path string) (Buffer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	d, ok := decoders[ext]
	if !ok {
		return Buffer{}, &DecodeError{Path: path, Err: fmt.Errorf("unsupported format: %q", ext)}
	}

	f, err := os.Open(path)
	if err != nil {
		return Buffer{}, &DecodeError{Path: path, Format: d.format, Err: err}
	}
	defer f.Close()

	buf, err := d.decode(f)
	if err != nil {
		return Buffer{}, &DecodeError{Path: path, Format: d.format, Err: err}
	}
	if buf.SampleRate <= 0 {
		return Buffer{}, &DecodeError{Path: path, Format: d.format, Err: fmt.Errorf("invalid sample rate %d", buf.SampleRate)}
	}
	return buf, nil
}

// mixInterleaved averages interleaved frames of channels samples into mono,
// dividing each sample by scale.
func mixInterleaved[T int | int16 | int32 | float32 | float64](data []T, channels int, scale float64) []float64 {
	if channels < 1 {
		channels = 1
	}
	frames := len(data) / channels
	out := make([]float64, frames)
	div := scale * float64(channels)
	for i := range out {
		var sum float64
		for _, v := range data[i*channels : (i+1)*channels] {
			sum += float64(v)
		}
		out[i] = sum / div
	}
	return out
}
