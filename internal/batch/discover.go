// SPDX-License-Identifier: MIT
/*
Package batch walks a directory tree for audio files and renders a waveform
and a spectrogram PNG next to each one.

Outputs that already exist are left alone unless the run is forced, so a
batch can be interrupted and resumed. Files are processed by a bounded
worker pool; a file that fails is logged and counted and never stops the
rest of the batch.
*/
package batch

import (
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"audiograph/internal/audio"
	"audiograph/internal/output"
)

// Output file suffixes, appended to the source file stem.
const (
	WaveformSuffix    = ".waveform.png"
	SpectrogramSuffix = ".spectrogram.png"
)

// DefaultExtensions returns the extensions scanned when none are given.
func DefaultExtensions() []string {
	return audio.Extensions()
}

// NormalizeExtensions lowercases exts, adds a missing leading dot, drops
// blanks and duplicates and returns them sorted.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		out = append(out, e)
	}
	slices.Sort(out)
	return slices.Compact(out)
}

// unsupportedAudio lists audio extensions that turn up beside the supported
// ones but that no decoder handles.
var unsupportedAudio = []string{".aac", ".aif", ".aiff", ".alac", ".m4a", ".opus", ".wma"}

// ListAudioFiles returns every regular file under root whose extension,
// compared case-insensitively, is in exts. exts must already be
// normalized. Paths are ordered component by component.
func ListAudioFiles(root string, exts []string) ([]string, error) {
	files, _, err := ScanTree(root, exts)
	return files, err
}

// ScanTree walks root like ListAudioFiles and also counts, by extension,
// the audio files left out because they have no decoder and are not in
// exts. Unsupported extensions named in exts are listed and fail later
// like any other undecodable file.
func ScanTree(root string, exts []string) (files []string, unsupported map[string]int, err error) {
	unsupported = make(map[string]int)
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		switch {
		case slices.Contains(exts, ext):
			files = append(files, path)
		case slices.Contains(unsupportedAudio, ext):
			unsupported[ext]++
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	slices.SortFunc(files, comparePaths)
	return files, unsupported, nil
}

// comparePaths orders paths by their components, so "a/x" sorts before
// "a-b/x" even though '-' < '/'.
func comparePaths(a, b string) int {
	return slices.Compare(
		strings.Split(filepath.ToSlash(a), "/"),
		strings.Split(filepath.ToSlash(b), "/"),
	)
}

// OutputPaths returns the waveform and spectrogram paths for an audio file:
// the file's directory and stem with the output suffixes.
func OutputPaths(path string) (waveform, spectrogram string) {
	stem := strings.TrimSuffix(path, filepath.Ext(path))
	return stem + WaveformSuffix, stem + SpectrogramSuffix
}

// Action describes what a run would do with a file.
type Action string

const (
	ActionRender  Action = "render"  // Both outputs will be written.
	ActionPartial Action = "partial" // One output exists; the other will be written.
	ActionSkip    Action = "skip"    // Both outputs exist.
)

// Plan returns the action a run with the given force setting would take for
// path. It only looks at the file system.
func Plan(path string, force bool) Action {
	if force {
		return ActionRender
	}
	wave, spec := OutputPaths(path)
	switch w, s := output.Exists(wave), output.Exists(spec); {
	case w && s:
		return ActionSkip
	case w || s:
		return ActionPartial
	default:
		return ActionRender
	}
}
