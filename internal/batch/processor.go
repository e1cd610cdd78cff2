// SPDX-License-Identifier: MIT
package batch

import (
	"context"
	"fmt"
	"time"

	"audiograph/internal/audio"
	applog "audiograph/internal/log"
	"audiograph/internal/output"
	"audiograph/internal/render"
	"audiograph/internal/transport"
)

// Outcome is the result of processing one file.
type Outcome int

const (
	OutcomeRendered Outcome = iota // At least one output was written.
	OutcomeSkipped                 // Both outputs already existed.
)

// DecodeFunc loads a file as a mono sample buffer.
type DecodeFunc func(path string) (audio.Buffer, error)

// Processor renders the outputs of a single file.
type Processor struct {
	Force       bool
	Decode      DecodeFunc
	Spectrogram *render.SpectrogramRenderer
	Transport   transport.Transport
}

// NewProcessor returns a processor using audio.Decode and the default
// spectrogram renderer. tr may be nil.
func NewProcessor(force bool, spec *render.SpectrogramRenderer, tr transport.Transport) *Processor {
	if spec == nil {
		spec = render.DefaultSpectrogram
	}
	return &Processor{
		Force:       force,
		Decode:      audio.Decode,
		Spectrogram: spec,
		Transport:   tr,
	}
}

// ProcessFile renders the missing outputs of path, or all of them when
// forced. When both outputs exist and the run is not forced the file is not
// decoded at all. The audio is decoded once for both images.
func (p *Processor) ProcessFile(ctx context.Context, path string) (Outcome, error) {
	wavePath, specPath := OutputPaths(path)
	needWave := p.Force || !output.Exists(wavePath)
	needSpec := p.Force || !output.Exists(specPath)

	if !needWave && !needSpec {
		applog.Infof("Skip: PNGs exist for %s", path)
		p.emit(EventSkip, path, "", "")
		return OutcomeSkipped, nil
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	applog.Infof("Load: %s", path)
	p.emit(EventLoad, path, "", "")
	buf, err := p.Decode(path)
	if err != nil {
		return 0, p.fail(path, err)
	}
	applog.Debugf("Load: %s (%d samples, %d Hz, %.2fs)", path, len(buf.Samples), buf.SampleRate, buf.Duration())

	if needWave {
		applog.Infof("Waveform: -> %s", wavePath)
		if err := output.WritePNG(wavePath, render.Waveform(buf.Samples)); err != nil {
			return 0, p.fail(path, err)
		}
		p.emit(EventWaveform, path, wavePath, "")
	} else {
		applog.Infof("Skip: waveform exists: %s", wavePath)
	}

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	if needSpec {
		applog.Infof("Spectrogram: -> %s", specPath)
		img, err := p.Spectrogram.Render(buf.Samples, buf.SampleRate)
		if err != nil {
			return 0, p.fail(path, fmt.Errorf("rendering spectrogram: %w", err))
		}
		if err := output.WritePNG(specPath, img); err != nil {
			return 0, p.fail(path, err)
		}
		p.emit(EventSpectrogram, path, specPath, "")
	} else {
		applog.Infof("Skip: spectrogram exists: %s", specPath)
	}

	p.emit(EventDone, path, "", "")
	return OutcomeRendered, nil
}

func (p *Processor) fail(path string, err error) error {
	p.emit(EventError, path, "", err.Error())
	return err
}

func (p *Processor) emit(kind EventKind, path, out, msg string) {
	if p.Transport == nil {
		return
	}
	ev := Event{Kind: kind, Path: path, Output: out, Message: msg, Time: time.Now()}
	if err := p.Transport.Send(ev); err != nil {
		applog.Debugf("Batch: transport send failed: %v", err)
	}
}
