// SPDX-License-Identifier: MIT
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/riff"
	"github.com/go-audio/wav"
)

// WAVE format tags.
const (
	wavFormatPCM        = 0x0001
	wavFormatIEEEFloat  = 0x0003
	wavFormatExtensible = 0xFFFE
)

func decodeWAV(f *os.File) (Buffer, error) {
	encoding, err := wavEncoding(f)
	if err != nil {
		return Buffer{}, fmt.Errorf("invalid WAV file: %w", err)
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return Buffer{}, err
	}

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return Buffer{}, errors.New("invalid WAV file")
	}
	switch encoding {
	case wavFormatPCM:
		return decodeWAVPCM(dec)
	case wavFormatIEEEFloat:
		return decodeWAVFloat(dec)
	default:
		return Buffer{}, fmt.Errorf("unsupported WAV encoding %#04x", encoding)
	}
}

// wavEncoding returns the sample encoding of a WAVE stream: the format tag
// of its fmt chunk, or the SubFormat tag for WAVE_FORMAT_EXTENSIBLE.
// go-audio/wav discards the extension, so the chunk is parsed here.
func wavEncoding(r io.Reader) (uint16, error) {
	p := riff.New(r)
	if err := p.ParseHeaders(); err != nil {
		return 0, err
	}
	if p.Format != riff.WavFormatID {
		return 0, fmt.Errorf("RIFF form %q is not WAVE", p.Format[:])
	}
	for {
		ch, err := p.NextChunk()
		if err != nil {
			return 0, fmt.Errorf("fmt chunk not found: %w", err)
		}
		if ch.ID != riff.FmtID {
			ch.Drain()
			continue
		}

		var header struct {
			Tag           uint16
			Channels      uint16
			SampleRate    uint32
			ByteRate      uint32
			BlockAlign    uint16
			BitsPerSample uint16
		}
		if err := ch.ReadLE(&header); err != nil {
			return 0, fmt.Errorf("reading fmt chunk: %w", err)
		}
		if header.Tag != wavFormatExtensible {
			return header.Tag, nil
		}

		var ext struct {
			Size        uint16
			ValidBits   uint16
			ChannelMask uint32
			SubFormat   [16]byte
		}
		if ch.Size < 40 {
			return 0, errors.New("truncated WAVE_FORMAT_EXTENSIBLE header")
		}
		if err := ch.ReadLE(&ext); err != nil {
			return 0, fmt.Errorf("reading fmt extension: %w", err)
		}
		// The first two bytes of the SubFormat GUID carry the format tag.
		return binary.LittleEndian.Uint16(ext.SubFormat[:2]), nil
	}
}

func decodeWAVPCM(dec *wav.Decoder) (Buffer, error) {
	pcm, err := dec.FullPCMBuffer()
	if err != nil {
		return Buffer{}, fmt.Errorf("reading WAV PCM data: %w", err)
	}

	bitDepth := int(dec.BitDepth)
	channels := int(dec.NumChans)
	data := pcm.Data
	if bitDepth == 8 {
		// 8-bit WAV is unsigned.
		for i, v := range data {
			data[i] = v - 128
		}
	}
	scale, err := pcmScale(bitDepth)
	if err != nil {
		return Buffer{}, err
	}
	return Buffer{
		Samples:    mixInterleaved(data, channels, scale),
		SampleRate: int(dec.SampleRate),
	}, nil
}

// decodeWAVFloat reads 32 or 64-bit IEEE float frames straight from the
// data chunk, which go-audio/wav would otherwise treat as integers.
func decodeWAVFloat(dec *wav.Decoder) (Buffer, error) {
	if err := dec.FwdToPCM(); err != nil {
		return Buffer{}, fmt.Errorf("locating WAV data: %w", err)
	}
	raw, err := io.ReadAll(io.LimitReader(dec.PCMChunk, int64(dec.PCMSize)))
	if err != nil {
		return Buffer{}, fmt.Errorf("reading WAV float data: %w", err)
	}

	channels := int(dec.NumChans)
	var samples []float64
	switch dec.BitDepth {
	case 32:
		data := make([]float32, len(raw)/4)
		for i := range data {
			data[i] = math.Float32frombits(binary.LittleEndian.Uint32(raw[i*4:]))
		}
		samples = mixInterleaved(data, channels, 1)
	case 64:
		data := make([]float64, len(raw)/8)
		for i := range data {
			data[i] = math.Float64frombits(binary.LittleEndian.Uint64(raw[i*8:]))
		}
		samples = mixInterleaved(data, channels, 1)
	default:
		return Buffer{}, fmt.Errorf("unsupported float WAV bit depth %d", dec.BitDepth)
	}
	return Buffer{Samples: samples, SampleRate: int(dec.SampleRate)}, nil
}

// pcmScale returns the divisor that maps signed integer PCM of the given
// depth into [-1, 1).
func pcmScale(bitDepth int) (float64, error) {
	switch bitDepth {
	case 8, 16, 24, 32:
		return float64(int64(1) << (bitDepth - 1)), nil
	default:
		return 0, fmt.Errorf("unsupported bit depth %d", bitDepth)
	}
}

// WriteWAV encodes buf as a mono integer PCM WAV file of the given bit
// depth. Samples outside [-1, 1] are clipped.
func WriteWAV(path string, buf Buffer, bitDepth int) error {
	scale, err := pcmScale(bitDepth)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := wav.NewEncoder(file, buf.SampleRate, bitDepth, 1, wavFormatPCM)
	ints := &audio.IntBuffer{
		Format: &audio.Format{
			NumChannels: 1,
			SampleRate:  buf.SampleRate,
		},
		Data:           make([]int, len(buf.Samples)),
		SourceBitDepth: bitDepth,
	}
	hi := scale - 1
	for i, s := range buf.Samples {
		v := math.Max(-scale, math.Min(hi, math.Round(s*scale)))
		ints.Data[i] = int(v)
		if bitDepth == 8 {
			ints.Data[i] += 128
		}
	}

	if err := enc.Write(ints); err != nil {
		file.Close()
		return fmt.Errorf("writing WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
