// SPDX-License-Identifier: MIT
package config

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"audiograph/internal/audio"
	applog "audiograph/internal/log"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write temp config: %v", err)
	}
	return path
}

func TestLoadConfig_EmptyPath(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if cfg.Batch.Root != DefaultRoot || cfg.Render.FFTWindow != DefaultFFTWindow {
		t.Errorf("expected defaults, got %+v", cfg)
	}
	if !slices.Equal(cfg.Batch.Extensions, audio.Extensions()) {
		t.Errorf("extensions = %v, want %v", cfg.Batch.Extensions, audio.Extensions())
	}
}

func TestLoadConfig_SearchesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	if err := os.WriteFile(filepath.Join(dir, DefaultConfigFile), []byte("batch:\n  force: true\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Batch.Force {
		t.Error("config.yaml in the working directory was not loaded")
	}
}

func TestLoadConfig_FileNotFound(t *testing.T) {
	t.Parallel()
	cfg, err := LoadConfig("nonexistent.yaml")
	if err == nil {
		t.Errorf("expected error for missing file, got nil")
	}
	if cfg != nil {
		t.Errorf("expected nil config on error, got %+v", cfg)
	}
}

func TestLoadConfig_UnmarshalError(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, ":\n:bad")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "failed to parse config file") {
		t.Error("expected unmarshal error, got nil or wrong error")
	}
}

func TestReadConfig_DefersValidation(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, "render:\n  fft_window: kaiser\n")

	cfg, err := ReadConfig(path)
	if err != nil {
		t.Fatalf("ReadConfig: %v", err)
	}
	if cfg.Render.FFTWindow != "kaiser" {
		t.Errorf("fft_window = %q, want the file value", cfg.Render.FFTWindow)
	}
	if err := cfg.Validate(); err == nil {
		t.Error("Validate accepted an unknown window")
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "fft_window") {
		t.Errorf("LoadConfig error = %v, want fft_window failure", err)
	}
}

func TestLoadConfig_File(t *testing.T) {
	t.Parallel()
	path := writeTempConfig(t, `
log_level: warn
render:
  fft_window: hamming
  fft_backend: go-dsp
batch:
  root: /music
  extensions: [wav, .flac]
  workers: 3
transport:
  websocket_enabled: true
  websocket_addr: ":9000"
  udp_send_interval: 1s
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Render.FFTWindow != "hamming" || cfg.Render.FFTBackend != "go-dsp" {
		t.Errorf("render = %+v", cfg.Render)
	}
	if cfg.Batch.Root != "/music" || cfg.Batch.Workers != 3 || len(cfg.Batch.Extensions) != 2 {
		t.Errorf("batch = %+v", cfg.Batch)
	}
	if !cfg.Transport.WebSocketEnabled || cfg.Transport.WebSocketAddr != ":9000" {
		t.Errorf("transport = %+v", cfg.Transport)
	}
	if cfg.Transport.UDPSendInterval != time.Second {
		t.Errorf("udp_send_interval = %v, want 1s", cfg.Transport.UDPSendInterval)
	}
	// Unset keys keep their defaults.
	if cfg.Transport.UDPTargetAddress != DefaultUDPTarget {
		t.Errorf("udp_target_address = %q, want default", cfg.Transport.UDPTargetAddress)
	}
	if cfg.Level() != applog.LevelWarn {
		t.Errorf("Level() = %v, want WARN", cfg.Level())
	}
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	path := writeTempConfig(t, "batch:\n  workers: 2\n")
	t.Setenv("ENV_DEBUG", "true")
	t.Setenv("ENV_WORKERS", "7")
	t.Setenv("ENV_LOG_LEVEL", "error")
	t.Setenv("ENV_UDP_ENABLED", "1")
	t.Setenv("ENV_UDP_TARGET_ADDRESS", "10.0.0.1:7000")
	t.Setenv("ENV_UDP_SEND_INTERVAL", "100ms")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if !cfg.Debug || cfg.Level() != applog.LevelDebug {
		t.Error("ENV_DEBUG not applied")
	}
	if cfg.Batch.Workers != 7 {
		t.Errorf("workers = %d, want 7", cfg.Batch.Workers)
	}
	if cfg.LogLevel != "error" {
		t.Errorf("log_level = %q, want error", cfg.LogLevel)
	}
	tr := cfg.Transport
	if !tr.UDPEnabled || tr.UDPTargetAddress != "10.0.0.1:7000" || tr.UDPSendInterval != 100*time.Millisecond {
		t.Errorf("transport = %+v", tr)
	}
}

func TestLoadConfig_EnvIgnoresGarbage(t *testing.T) {
	path := writeTempConfig(t, "batch:\n  workers: 2\n")
	t.Setenv("ENV_WORKERS", "many")
	t.Setenv("ENV_DEBUG", "perhaps")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Batch.Workers != 2 || cfg.Debug {
		t.Errorf("unparseable env values were applied: %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"defaults", func(*Config) {}, ""},
		{"window", func(c *Config) { c.Render.FFTWindow = "triangle" }, "fft_window"},
		{"backend", func(c *Config) { c.Render.FFTBackend = "fftw" }, "fft_backend"},
		{"workers", func(c *Config) { c.Batch.Workers = -1 }, "workers"},
		{"extensions", func(c *Config) { c.Batch.Extensions = nil }, "extensions"},
		{"log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
		{"udp port", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPTargetAddress = "localhost"
		}, "udp_target_address"},
		{"udp interval", func(c *Config) {
			c.Transport.UDPEnabled = true
			c.Transport.UDPSendInterval = 0
		}, "udp_send_interval"},
		{"udp disabled", func(c *Config) { c.Transport.UDPTargetAddress = "localhost" }, ""},
		{"websocket addr", func(c *Config) {
			c.Transport.WebSocketEnabled = true
			c.Transport.WebSocketAddr = "nowhere"
		}, "websocket_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error mentioning %q", err, tt.want)
			}
		})
	}
}
