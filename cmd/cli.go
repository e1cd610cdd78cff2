// SPDX-License-Identifier: MIT
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"audiograph/internal/config"
	"audiograph/pkg/build"
)

// Commands selected on the command line.
const (
	CommandRun  = "run"
	CommandScan = "scan"
)

// Options is the result of parsing the command line: the merged
// configuration and the command to run.
type Options struct {
	Config  *config.Config
	Command string
}

// flagValues receives the raw flag values before they are merged over the
// loaded configuration.
type flagValues struct {
	configPath string
	root       string
	force      bool
	extensions []string
	workers    int
	window     string
	backend    string
	verbose    bool
	eventsAddr string
}

// ParseArgs parses args (without the program name), loads the config file
// and applies explicitly set flags over it. It returns nil options when the
// invocation only printed help or the version.
func ParseArgs(args []string) (*Options, error) {
	buildInfo := build.GetBuildFlags()
	var (
		flags   flagValues
		command string
	)

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Long:          "Generate a waveform and a mel spectrogram PNG next to every audio file under a directory.",
		Version:       buildInfo.Summary(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			command = CommandRun
			return nil
		},
	}

	// Display help message
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	// Scan command
	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "List audio files and whether each would be rendered or skipped",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			command = CommandScan
			return nil
		},
	}
	rootCmd.AddCommand(scanCmd)

	pf := rootCmd.PersistentFlags()

	// Input Configuration
	pf.StringVarP(&flags.root, "root", "r", config.DefaultRoot,
		"Root directory to scan")
	pf.StringSliceVar(&flags.extensions, "ext", nil,
		"Audio extensions to include (default .flac,.mp3,.ogg,.wav)")
	pf.StringVarP(&flags.configPath, "config", "c", "",
		"Path to a YAML config file (default ./"+config.DefaultConfigFile+" if present)")

	// Processing Configuration
	pf.BoolVarP(&flags.force, "force", "f", config.DefaultForce,
		"Regenerate even if PNGs already exist")
	pf.IntVarP(&flags.workers, "workers", "w", config.DefaultWorkers,
		"Files processed in parallel (0 for one per CPU)")
	pf.StringVar(&flags.window, "window", config.DefaultFFTWindow,
		"Spectrogram window function (Hann, Hamming, Blackman, BlackmanNuttall, BartlettHann, Lanczos, Nuttall)")
	pf.StringVar(&flags.backend, "fft-backend", config.DefaultFFTBackend,
		"FFT implementation (gonum, go-dsp)")

	// Output Configuration
	pf.StringVar(&flags.eventsAddr, "events-addr", "",
		"Serve progress events over WebSocket at this address (e.g. "+config.DefaultEventsAddr+")")

	// Debug Configuration
	pf.BoolVarP(&flags.verbose, "verbose", "v", config.DefaultVerbosity,
		"Show verbose output")

	// Execute the CLI
	rootCmd.SetArgs(args)
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}
	if command == "" {
		return nil, nil
	}

	// Flags win over the file and env, so validation waits until they are applied.
	cfg, err := config.ReadConfig(flags.configPath)
	if err != nil {
		return nil, err
	}
	flags.apply(cfg, pf.Changed)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	return &Options{Config: cfg, Command: command}, nil
}

// apply copies every flag the user set explicitly onto cfg.
func (f *flagValues) apply(cfg *config.Config, changed func(string) bool) {
	if changed("root") {
		cfg.Batch.Root = f.root
	}
	if changed("force") {
		cfg.Batch.Force = f.force
	}
	if changed("ext") {
		cfg.Batch.Extensions = f.extensions
	}
	if changed("workers") {
		cfg.Batch.Workers = f.workers
	}
	if changed("window") {
		cfg.Render.FFTWindow = f.window
	}
	if changed("fft-backend") {
		cfg.Render.FFTBackend = f.backend
	}
	if changed("verbose") && f.verbose {
		cfg.Debug = true
	}
	if changed("events-addr") {
		cfg.Transport.WebSocketEnabled = true
		cfg.Transport.WebSocketAddr = f.eventsAddr
	}
}
