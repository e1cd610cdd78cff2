// SPDX-License-Identifier: MIT
package config

import (
	"time"

	"audiograph/internal/audio"
)

// Defaults applied before the config file, environment and flags.
const (
	DefaultLogLevel    = "info"
	DefaultRoot        = "."
	DefaultForce       = false
	DefaultWorkers     = 0 // 0 selects runtime.NumCPU()
	DefaultFFTWindow   = "Hann"
	DefaultFFTBackend  = "gonum"
	DefaultVerbosity   = false
	DefaultConfigFile  = "config.yaml"
	DefaultEventsAddr  = "127.0.0.1:8765"
	DefaultUDPTarget   = "127.0.0.1:9090"
	DefaultUDPInterval = 250 * time.Millisecond
)

// NewConfig returns a Config holding the built-in defaults.
func NewConfig() *Config {
	return &Config{
		Debug:    DefaultVerbosity,
		LogLevel: DefaultLogLevel,
		Render: RenderConfig{
			FFTWindow:  DefaultFFTWindow,
			FFTBackend: DefaultFFTBackend,
		},
		Batch: BatchConfig{
			Root:       DefaultRoot,
			Force:      DefaultForce,
			Extensions: audio.Extensions(),
			Workers:    DefaultWorkers,
		},
		Transport: TransportConfig{
			WebSocketEnabled: false,
			WebSocketAddr:    DefaultEventsAddr,
			UDPEnabled:       false,
			UDPTargetAddress: DefaultUDPTarget,
			UDPSendInterval:  DefaultUDPInterval,
		},
	}
}
