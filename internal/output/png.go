// SPDX-License-Identifier: MIT
// Package output writes rendered images to disk.
package output

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

var encoder = png.Encoder{CompressionLevel: png.DefaultCompression}

// WritePNG encodes img to path. Parent directories are created as needed.
// The image is first written to a temporary file in the same directory and
// then renamed over path, so a reader never sees a partial file.
func WritePNG(path string, img image.Image) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		os.Remove(tmpPath)
	}

	if err := encoder.Encode(tmp, img); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	// CreateTemp opens with 0600.
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("moving %s into place: %w", path, err)
	}
	return nil
}

// Exists reports whether path can be stat'ed. Any error, not only
// fs.ErrNotExist, counts as absent.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
