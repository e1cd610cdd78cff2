// SPDX-License-Identifier: MIT
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"audiograph/internal/analysis"
	"audiograph/internal/fft"
	applog "audiograph/internal/log"
)

// Config represents the main application configuration structure, loaded from YAML.
type Config struct {
	Debug     bool            `yaml:"debug"`     // Enable debug logging.
	LogLevel  string          `yaml:"log_level"` // Logging level (e.g., "debug", "info", "warn", "error").
	Render    RenderConfig    `yaml:"render"`    // Spectrogram analysis settings.
	Batch     BatchConfig     `yaml:"batch"`     // Which files to process and how.
	Transport TransportConfig `yaml:"transport"` // Progress event publishing.
}

// RenderConfig holds settings for the spectrogram analysis.
type RenderConfig struct {
	FFTWindow  string `yaml:"fft_window"`  // Window function name (e.g., "Hann", "Hamming").
	FFTBackend string `yaml:"fft_backend"` // FFT implementation ("gonum" or "go-dsp").
}

// BatchConfig holds settings for file discovery and processing.
type BatchConfig struct {
	Root       string   `yaml:"root"`       // Directory scanned recursively.
	Force      bool     `yaml:"force"`      // Regenerate PNGs that already exist.
	Extensions []string `yaml:"extensions"` // Audio extensions to include.
	Workers    int      `yaml:"workers"`    // Files processed in parallel (0 for one per CPU).
}

// TransportConfig holds settings related to publishing progress.
type TransportConfig struct {
	WebSocketEnabled bool          `yaml:"websocket_enabled"`  // Serve JSON events over WebSocket.
	WebSocketAddr    string        `yaml:"websocket_addr"`     // Listen address for the event server.
	UDPEnabled       bool          `yaml:"udp_enabled"`        // Send binary progress packets over UDP.
	UDPTargetAddress string        `yaml:"udp_target_address"` // Target address and port for UDP packets (e.g., "127.0.0.1:9090").
	UDPSendInterval  time.Duration `yaml:"udp_send_interval"`  // Interval between sending UDP packets.
}

// LoadConfig reads the configuration like ReadConfig and validates the result.
func LoadConfig(path string) (*Config, error) {
	cfg, err := ReadConfig(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ReadConfig loads configuration from a YAML file specified by path. If path is empty,
// it searches default locations ("config.yaml"). If no file is found, it uses built-in
// defaults. Environment variable overrides are applied after the file. The result is
// not validated, so callers can layer further overrides before calling Validate.
func ReadConfig(path string) (*Config, error) {
	cfg := NewConfig()

	if path == "" {
		candidates := []string{
			DefaultConfigFile,
		}
		for _, candidate := range candidates {
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
				break
			}
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		applog.Debugf("configuration: Loaded %s", path)
	}

	// Environment overrides apply after the file.
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Validate checks that every name and value in the configuration is
// usable.
func (c *Config) Validate() error {
	var errs []error

	if _, ok := applog.ParseLevel(c.LogLevel); !ok {
		errs = append(errs, fmt.Errorf("log_level '%s' is not a known level", c.LogLevel))
	}
	if _, err := analysis.ParseWindowFunc(c.Render.FFTWindow); err != nil {
		errs = append(errs, fmt.Errorf("render.fft_window: %w", err))
	}
	if _, err := fft.ParseBackend(c.Render.FFTBackend); err != nil {
		errs = append(errs, fmt.Errorf("render.fft_backend: %w", err))
	}

	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers))
	}
	if len(c.Batch.Extensions) == 0 {
		errs = append(errs, errors.New("batch.extensions must list at least one extension"))
	}

	if c.Transport.WebSocketEnabled {
		if _, _, err := net.SplitHostPort(c.Transport.WebSocketAddr); err != nil {
			errs = append(errs, fmt.Errorf("transport.websocket_addr '%s' is invalid: %w", c.Transport.WebSocketAddr, err))
		}
	}
	if c.Transport.UDPEnabled {
		if _, _, err := net.SplitHostPort(c.Transport.UDPTargetAddress); err != nil {
			errs = append(errs, fmt.Errorf("transport.udp_target_address '%s' appears invalid (missing port?): %w", c.Transport.UDPTargetAddress, err))
		}
		if c.Transport.UDPSendInterval <= 0 {
			errs = append(errs, errors.New("transport.udp_send_interval must be positive when UDP is enabled"))
		}
	}

	return errors.Join(errs...)
}

// Level returns the effective log level. Debug forces LevelDebug.
func (c *Config) Level() applog.LogLevel {
	if c.Debug {
		return applog.LevelDebug
	}
	level, _ := applog.ParseLevel(c.LogLevel)
	return level
}

// applyEnvOverrides replaces settings with ENV_* variables when they are
// set and parse. Unparseable values are ignored.
func (cfg *Config) applyEnvOverrides() {
	// ENV_{...}
	// These are general overrides.

	// ENV_DEBUG
	if val, ok := os.LookupEnv("ENV_DEBUG"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Debug = bVal
			applog.Debugf("configuration: Overriding debug from env: %v", bVal)
		}
	}
	// ENV_LOG_LEVEL
	if val, ok := os.LookupEnv("ENV_LOG_LEVEL"); ok {
		cfg.LogLevel = val
		applog.Debugf("configuration: Overriding log_level from env: %s", val)
	}
	// ENV_WORKERS
	if val, ok := os.LookupEnv("ENV_WORKERS"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			cfg.Batch.Workers = n
			applog.Debugf("configuration: Overriding batch.workers from env: %d", n)
		}
	}

	// ENV_UDP_{...}
	// These are specific to the transport layer.

	// ENV_UDP_ENABLED
	if val, ok := os.LookupEnv("ENV_UDP_ENABLED"); ok {
		if bVal, err := strconv.ParseBool(val); err == nil {
			cfg.Transport.UDPEnabled = bVal
			applog.Debugf("configuration: Overriding transport.udp_enabled from env: %v", bVal)
		}
	}
	// ENV_UDP_TARGET_ADDRESS
	if val, ok := os.LookupEnv("ENV_UDP_TARGET_ADDRESS"); ok {
		cfg.Transport.UDPTargetAddress = val
		applog.Debugf("configuration: Overriding transport.udp_target_address from env: %s", val)
	}
	// ENV_UDP_SEND_INTERVAL
	if val, ok := os.LookupEnv("ENV_UDP_SEND_INTERVAL"); ok {
		if dur, err := time.ParseDuration(val); err == nil {
			cfg.Transport.UDPSendInterval = dur
			applog.Debugf("configuration: Overriding transport.udp_send_interval from env: %s", dur)
		}
	}
}
