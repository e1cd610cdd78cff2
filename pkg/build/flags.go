// SPDX-License-Identifier: MIT
//
// Package build exposes the name, version, commit and build time that are
// embedded into the binary with linker flags:
//
//	go build -ldflags "-X audiograph/pkg/build.buildName=audiograph \
//	  -X audiograph/pkg/build.buildVersion=0.1.0 ..."
//
// A plain `go build` sets none of them; the binary then reports itself as a
// development build instead of refusing to start.
package build

import (
	"errors"
	"fmt"
)

const (
	defaultName        = "audiograph"
	defaultDescription = "Render waveform and spectrogram PNGs for audio files"
	devValue           = "dev"
)

type ldFlags struct {
	Name        string
	Description string
	Time        string
	Commit      string
	Version     string
}

// Package-level variables for build information. These are populated by
// -ldflags during compilation.
var (
	buildName    string
	buildTime    string
	buildCommit  string
	buildVersion string
	buildFlags   = &ldFlags{
		Name:        defaultName,
		Description: defaultDescription,
		Time:        "unknown",
		Commit:      "unknown",
		Version:     "unknown",
	}
)

// Initialize validates and copies build information from the ldflags
// variables into the buildFlags struct. When no flag was injected at all the
// development defaults are used. A partially injected set is a broken release
// build and returns an error naming the first missing flag.
func Initialize() error {
	if buildName == "" && buildTime == "" && buildCommit == "" && buildVersion == "" {
		buildFlags.Name = defaultName
		buildFlags.Time = devValue
		buildFlags.Commit = devValue
		buildFlags.Version = devValue
		return nil
	}

	if buildName == "" {
		return errors.New("BuildName is required")
	}
	if buildTime == "" {
		return errors.New("BuildTime is required")
	}
	if buildCommit == "" {
		return errors.New("BuildCommit is required")
	}
	if buildVersion == "" {
		return errors.New("BuildVersion is required")
	}

	buildFlags.Name = buildName
	buildFlags.Time = buildTime
	buildFlags.Commit = buildCommit
	buildFlags.Version = buildVersion

	return nil
}

// GetBuildFlags returns the current build information. Initialize() should
// be called first so the development defaults are applied.
func GetBuildFlags() *ldFlags {
	return buildFlags
}

// Summary formats the build information for `--version`.
func (f *ldFlags) Summary() string {
	return fmt.Sprintf("%s (commit %s, built %s)", f.Version, f.Commit, f.Time)
}
