// SPDX-License-Identifier: MIT
package batch

import "time"

// EventKind names a step in processing one file.
type EventKind string

const (
	EventSkip        EventKind = "skip"
	EventLoad        EventKind = "load"
	EventWaveform    EventKind = "waveform"
	EventSpectrogram EventKind = "spectrogram"
	EventError       EventKind = "error"
	EventDone        EventKind = "done"
)

// Event is published to the configured transport as processing advances.
type Event struct {
	Kind    EventKind `json:"kind"`
	Path    string    `json:"path"`
	Output  string    `json:"output,omitempty"`
	Message string    `json:"message,omitempty"`
	Time    time.Time `json:"time"`
}
