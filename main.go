// SPDX-License-Identifier: MIT
package main

import (
	"context"
	"fmt"
	"maps"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"syscall"
	"time"

	"audiograph/cmd"
	"audiograph/internal/analysis"
	"audiograph/internal/batch"
	"audiograph/internal/config"
	"audiograph/internal/fft"
	applog "audiograph/internal/log"
	"audiograph/internal/render"
	"audiograph/internal/transport"
	"audiograph/internal/transport/udp"
	"audiograph/internal/tui"
	"audiograph/pkg/build"
)

// main is the entry point for the batch renderer.
// The program flow is divided into three phases:
//
// 1. Startup Phase:
//   - Initialize build information
//   - Parse command line arguments and load configuration
//   - Discover audio files under the root
//
// 2. Batch Phase:
//   - Start event transports (WebSocket, UDP progress)
//   - Render waveform and spectrogram PNGs on a worker pool
//
// 3. Shutdown Phase:
//   - Handle termination signals
//   - Close transports and print the summary
func main() {
	os.Exit(run())
}

func run() int {
	// ==================== STARTUP PHASE ====================

	if err := build.Initialize(); err != nil {
		applog.Fatalf("%v", err)
	}

	opts, err := cmd.ParseArgs(os.Args[1:])
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if opts == nil {
		// Help or version was printed.
		return 0
	}
	cfg := opts.Config
	applog.SetLevel(cfg.Level())
	applog.Debugf("%s %s", build.GetBuildFlags().Name, build.GetBuildFlags().Summary())

	root, err := filepath.Abs(cfg.Batch.Root)
	if err != nil {
		applog.Errorf("Invalid root %q: %v", cfg.Batch.Root, err)
		return 1
	}
	if _, err := os.Stat(root); err != nil {
		applog.Errorf("Root not found: %s", root)
		return 1
	}

	exts := batch.NormalizeExtensions(cfg.Batch.Extensions)
	files, unsupported, err := batch.ScanTree(root, exts)
	if err != nil {
		applog.Errorf("Scanning %s: %v", root, err)
		return 1
	}
	for _, ext := range slices.Sorted(maps.Keys(unsupported)) {
		applog.Warnf("Skipping %d %s file(s): no decoder for this format", unsupported[ext], ext)
	}
	if len(files) == 0 {
		applog.Infof("No audio files found under %s", root)
		return 0
	}

	if opts.Command == cmd.CommandScan {
		entries := make([]tui.ScanEntry, len(files))
		for i, f := range files {
			entries[i] = tui.ScanEntry{Path: f, Action: batch.Plan(f, cfg.Batch.Force)}
		}
		fmt.Print(tui.ScanReport(root, entries))
		return 0
	}

	spec, err := newSpectrogramRenderer(cfg)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	// ==================== BATCH PHASE ====================

	// Setup signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	events, err := newTransports(cfg)
	if err != nil {
		applog.Fatalf("%v", err)
	}

	runner := batch.NewRunner(batch.NewProcessor(cfg.Batch.Force, spec, events), cfg.Batch.Workers)
	publisher, sender, err := newProgressPublisher(cfg, runner)
	if err != nil {
		applog.Fatalf("%v", err)
	}
	if publisher != nil {
		publisher.Start()
	}

	applog.Infof("Processing %d files under %s (%s window, %s FFT)", len(files), root, cfg.Render.FFTWindow, cfg.Render.FFTBackend)
	start := time.Now()
	stats, runErr := runner.Run(ctx, files)
	elapsed := time.Since(start)

	// ==================== SHUTDOWN PHASE ====================

	if publisher != nil {
		if err := publisher.Stop(); err != nil {
			applog.Warnf("Stopping progress publisher: %v", err)
		}
		if err := sender.Close(); err != nil {
			applog.Warnf("Closing UDP sender: %v", err)
		}
	}
	if err := events.Close(); err != nil {
		applog.Warnf("Closing transports: %v", err)
	}

	fmt.Println(tui.Summary(stats, elapsed))

	if runErr != nil {
		applog.Warnf("Interrupted: %v", runErr)
		return 1
	}
	return 0
}

func newSpectrogramRenderer(cfg *config.Config) (*render.SpectrogramRenderer, error) {
	window, err := analysis.ParseWindowFunc(cfg.Render.FFTWindow)
	if err != nil {
		return nil, err
	}
	backend, err := fft.ParseBackend(cfg.Render.FFTBackend)
	if err != nil {
		return nil, err
	}
	return render.NewSpectrogramRenderer(window, backend)
}

// newTransports builds the event fan-out: the debug log always, plus the
// WebSocket server when enabled.
func newTransports(cfg *config.Config) (transport.Multi, error) {
	ts := []transport.Transport{transport.NewLoggingTransport()}
	if cfg.Transport.WebSocketEnabled {
		ws := transport.NewWebSocketTransport()
		if err := ws.ListenAndServe(cfg.Transport.WebSocketAddr); err != nil {
			ws.Close()
			return nil, fmt.Errorf("starting event server: %w", err)
		}
		ts = append(ts, ws)
	}
	return transport.NewMulti(ts...), nil
}

// newProgressPublisher returns nil values when UDP is disabled.
func newProgressPublisher(cfg *config.Config, runner *batch.Runner) (*udp.ProgressPublisher, *udp.Sender, error) {
	if !cfg.Transport.UDPEnabled {
		return nil, nil, nil
	}
	sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
	if err != nil {
		return nil, nil, err
	}
	publisher, err := udp.NewProgressPublisher(cfg.Transport.UDPSendInterval, sender, func() udp.Counts {
		s := runner.Progress()
		return udp.Counts{
			Total:    uint32(s.Total),
			Rendered: uint32(s.Rendered),
			Skipped:  uint32(s.Skipped),
			Failed:   uint32(s.Failed),
		}
	})
	if err != nil {
		if err := sender.Close(); err != nil {
			applog.Warnf("Closing UDP sender: %v", err)
		}
		return nil, nil, err
	}
	return publisher, sender, nil
}
