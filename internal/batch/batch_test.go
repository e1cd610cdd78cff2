// SPDX-License-Identifier: MIT
package batch

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"audiograph/internal/audio"
	"audiograph/internal/render"
	"audiograph/pkg/utils"
)

func touch(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

// countingDecoder returns a short synthetic clip and counts calls.
type countingDecoder struct {
	calls atomic.Int32
	fail  map[string]error
}

func (d *countingDecoder) Decode(path string) (audio.Buffer, error) {
	d.calls.Add(1)
	if err := d.fail[filepath.Base(path)]; err != nil {
		return audio.Buffer{}, err
	}
	return audio.Buffer{Samples: utils.GenerateSineWave(2048, 8000, 440), SampleRate: 8000}, nil
}

func newTestProcessor(dec *countingDecoder, force bool) (*Processor, *utils.MockTransport) {
	tr := &utils.MockTransport{}
	p := NewProcessor(force, nil, tr)
	p.Decode = dec.Decode
	return p, tr
}

func eventKinds(tr *utils.MockTransport) []EventKind {
	var kinds []EventKind
	for _, v := range tr.Sent() {
		kinds = append(kinds, v.(Event).Kind)
	}
	return kinds
}

func TestNormalizeExtensions(t *testing.T) {
	got := NormalizeExtensions([]string{"WAV", ".mp3", " flac ", "", ".", "wav"})
	want := []string{".flac", ".mp3", ".wav"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeExtensions = %v, want %v", got, want)
	}
	if got := NormalizeExtensions(DefaultExtensions()); len(got) != len(DefaultExtensions()) {
		t.Errorf("default extensions are not normalized: %v", DefaultExtensions())
	}
}

func TestListAudioFiles(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"b.wav", "a/x.wav", "a-b/x.wav", "sub/deep/C.MP3",
		"notes.txt", "b.waveform.png", "sub/song.flac.bak",
	} {
		touch(t, filepath.Join(root, name), nil)
	}

	got, err := ListAudioFiles(root, NormalizeExtensions([]string{"wav", "mp3"}))
	if err != nil {
		t.Fatalf("ListAudioFiles: %v", err)
	}
	var rel []string
	for _, p := range got {
		r, _ := filepath.Rel(root, p)
		rel = append(rel, filepath.ToSlash(r))
	}
	want := []string{"a/x.wav", "a-b/x.wav", "b.wav", "sub/deep/C.MP3"}
	if !slices.Equal(rel, want) {
		t.Errorf("ListAudioFiles = %v, want %v", rel, want)
	}

	if _, err := ListAudioFiles(filepath.Join(root, "missing"), []string{".wav"}); err == nil {
		t.Error("expected an error for a missing root")
	}
}

func TestScanTreeCountsUnsupported(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{
		"a.wav", "b.m4a", "sub/c.M4A", "sub/d.opus", "e.txt",
	} {
		touch(t, filepath.Join(root, name), nil)
	}

	files, unsupported, err := ScanTree(root, DefaultExtensions())
	if err != nil {
		t.Fatalf("ScanTree: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "a.wav" {
		t.Errorf("files = %v, want only a.wav", files)
	}
	if unsupported[".m4a"] != 2 || unsupported[".opus"] != 1 || len(unsupported) != 2 {
		t.Errorf("unsupported = %v, want 2 .m4a and 1 .opus", unsupported)
	}

	// Asking for an extension lists its files so they fail individually.
	files, unsupported, err = ScanTree(root, NormalizeExtensions([]string{"wav", "m4a"}))
	if err != nil {
		t.Fatalf("ScanTree: %v", err)
	}
	if len(files) != 3 || unsupported[".m4a"] != 0 || unsupported[".opus"] != 1 {
		t.Errorf("files = %v, unsupported = %v", files, unsupported)
	}
}

func TestOutputPaths(t *testing.T) {
	tests := []struct {
		in, wave, spec string
	}{
		{"dir/song.wav", "dir/song.waveform.png", "dir/song.spectrogram.png"},
		{"dir/song.final.mp3", "dir/song.final.waveform.png", "dir/song.final.spectrogram.png"},
		{"noext", "noext.waveform.png", "noext.spectrogram.png"},
	}
	for _, tt := range tests {
		w, s := OutputPaths(tt.in)
		if w != tt.wave || s != tt.spec {
			t.Errorf("OutputPaths(%q) = (%q, %q), want (%q, %q)", tt.in, w, s, tt.wave, tt.spec)
		}
	}
}

func TestPlan(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.wav")
	wave, spec := OutputPaths(path)

	if got := Plan(path, false); got != ActionRender {
		t.Errorf("no outputs: %s, want %s", got, ActionRender)
	}
	touch(t, wave, nil)
	if got := Plan(path, false); got != ActionPartial {
		t.Errorf("one output: %s, want %s", got, ActionPartial)
	}
	touch(t, spec, nil)
	if got := Plan(path, false); got != ActionSkip {
		t.Errorf("both outputs: %s, want %s", got, ActionSkip)
	}
	if got := Plan(path, true); got != ActionRender {
		t.Errorf("forced: %s, want %s", got, ActionRender)
	}
}

func TestProcessFileRendersBoth(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	dec := &countingDecoder{}
	p, tr := newTestProcessor(dec, false)

	outcome, err := p.ProcessFile(context.Background(), path)
	if err != nil || outcome != OutcomeRendered {
		t.Fatalf("ProcessFile = (%v, %v), want (rendered, nil)", outcome, err)
	}
	if dec.calls.Load() != 1 {
		t.Errorf("decoded %d times, want 1", dec.calls.Load())
	}

	wave, spec := OutputPaths(path)
	for _, c := range []struct {
		path string
		w, h int
	}{
		{wave, render.WaveformWidth, render.WaveformHeight},
		{spec, render.SpectrogramWidth, render.SpectrogramHeight},
	} {
		data, err := os.ReadFile(c.path)
		if err != nil {
			t.Fatal(err)
		}
		cfg, err := png.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			t.Fatalf("%s: %v", c.path, err)
		}
		if cfg.Width != c.w || cfg.Height != c.h {
			t.Errorf("%s is %dx%d, want %dx%d", c.path, cfg.Width, cfg.Height, c.w, c.h)
		}
	}

	want := []EventKind{EventLoad, EventWaveform, EventSpectrogram, EventDone}
	if got := eventKinds(tr); !slices.Equal(got, want) {
		t.Errorf("events = %v, want %v", got, want)
	}
}

func TestProcessFileSkipsWithoutDecoding(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	wave, spec := OutputPaths(path)
	touch(t, wave, []byte("old"))
	touch(t, spec, []byte("old"))

	dec := &countingDecoder{}
	p, tr := newTestProcessor(dec, false)
	outcome, err := p.ProcessFile(context.Background(), path)
	if err != nil || outcome != OutcomeSkipped {
		t.Fatalf("ProcessFile = (%v, %v), want (skipped, nil)", outcome, err)
	}
	if dec.calls.Load() != 0 {
		t.Errorf("decoded %d times, want 0", dec.calls.Load())
	}
	if got := eventKinds(tr); !slices.Equal(got, []EventKind{EventSkip}) {
		t.Errorf("events = %v", got)
	}
}

func TestProcessFileWritesOnlyMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	wave, spec := OutputPaths(path)
	touch(t, wave, []byte("old"))

	dec := &countingDecoder{}
	p, _ := newTestProcessor(dec, false)
	if _, err := p.ProcessFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	if data, _ := os.ReadFile(wave); string(data) != "old" {
		t.Error("existing waveform was overwritten")
	}
	if data, _ := os.ReadFile(spec); !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Error("missing spectrogram was not written")
	}
}

func TestProcessFileForce(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clip.wav")
	wave, spec := OutputPaths(path)
	touch(t, wave, []byte("old"))
	touch(t, spec, []byte("old"))

	dec := &countingDecoder{}
	p, _ := newTestProcessor(dec, true)
	if _, err := p.ProcessFile(context.Background(), path); err != nil {
		t.Fatal(err)
	}
	for _, out := range []string{wave, spec} {
		if data, _ := os.ReadFile(out); !bytes.HasPrefix(data, []byte("\x89PNG")) {
			t.Errorf("%s was not regenerated", out)
		}
	}
}

func TestProcessFileDecodeError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.wav")
	boom := errors.New("corrupt stream")
	dec := &countingDecoder{fail: map[string]error{"bad.wav": boom}}
	p, tr := newTestProcessor(dec, false)

	if _, err := p.ProcessFile(context.Background(), path); !errors.Is(err, boom) {
		t.Fatalf("error = %v, want %v", err, boom)
	}
	wave, spec := OutputPaths(path)
	if _, err := os.Stat(wave); err == nil {
		t.Error("waveform written for a failed decode")
	}
	if _, err := os.Stat(spec); err == nil {
		t.Error("spectrogram written for a failed decode")
	}
	sent := tr.Sent()
	last := sent[len(sent)-1].(Event)
	if last.Kind != EventError || !strings.Contains(last.Message, "corrupt") {
		t.Errorf("last event = %+v", last)
	}
}

func TestRunnerContinuesAfterFailure(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		filepath.Join(dir, "a.wav"),
		filepath.Join(dir, "bad.wav"),
		filepath.Join(dir, "c.wav"),
		filepath.Join(dir, "done.wav"),
	}
	wave, spec := OutputPaths(files[3])
	touch(t, wave, nil)
	touch(t, spec, nil)

	dec := &countingDecoder{fail: map[string]error{"bad.wav": errors.New("boom")}}
	p, _ := newTestProcessor(dec, false)
	r := NewRunner(p, 2)

	stats, err := r.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := Stats{Total: 4, Rendered: 2, Skipped: 1, Failed: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
	if stats.Pending() != 0 {
		t.Errorf("pending = %d", stats.Pending())
	}
	if r.Progress() != want {
		t.Errorf("Progress() = %+v, want %+v", r.Progress(), want)
	}
}

func TestRunnerRecoversPanics(t *testing.T) {
	dir := t.TempDir()
	p, _ := newTestProcessor(&countingDecoder{}, false)
	p.Decode = func(string) (audio.Buffer, error) { panic("decoder bug") }

	stats, err := NewRunner(p, 1).Run(context.Background(), []string{filepath.Join(dir, "x.wav")})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Failed != 1 {
		t.Errorf("stats = %+v, want one failure", stats)
	}
}

func TestRunnerCancelled(t *testing.T) {
	dir := t.TempDir()
	dec := &countingDecoder{}
	p, _ := newTestProcessor(dec, false)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	stats, err := NewRunner(p, 0).Run(ctx, []string{filepath.Join(dir, "a.wav"), filepath.Join(dir, "b.wav")})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if stats.Total != 2 || stats.Pending() != 2 {
		t.Errorf("stats = %+v, want nothing processed", stats)
	}
	if dec.calls.Load() != 0 {
		t.Errorf("decoded %d files after cancellation", dec.calls.Load())
	}
}

func TestEndToEndWAV(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "album", "tone.wav")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	buf := audio.Buffer{Samples: utils.GenerateComplexWave(11025, 11025), SampleRate: 11025}
	if err := audio.WriteWAV(path, buf, 16); err != nil {
		t.Fatal(err)
	}

	files, err := ListAudioFiles(root, DefaultExtensions())
	if err != nil || len(files) != 1 {
		t.Fatalf("ListAudioFiles = %v, %v", files, err)
	}
	r := NewRunner(NewProcessor(false, nil, nil), 1)
	stats, err := r.Run(context.Background(), files)
	if err != nil || stats.Rendered != 1 {
		t.Fatalf("Run = %+v, %v", stats, err)
	}

	// A second pass finds everything done.
	stats, err = r.Run(context.Background(), files)
	if err != nil || stats.Skipped != 1 {
		t.Fatalf("second Run = %+v, %v", stats, err)
	}
}
