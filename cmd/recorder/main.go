package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-audio/wav"

	"github.com/madelinet87/mic/internal/config"
	"github.com/madelinet87/mic/internal/device"
	"github.com/madelinet87/mic/internal/encoder"
	"github.com/madelinet87/mic/internal/metrics"
	"github.com/madelinet87/mic/internal/server"
	"github.com/madelinet87/mic/internal/session"
	"github.com/madelinet87/mic/internal/vad"
)

const (
	defaultConfigPath = "configs/config.yaml"
	serviceName       = "mic-recorder"
	serviceVersion    = "1.0.0"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger based on configuration
	logger := initLogger(cfg.Logging)

	// Log service startup
	logger.Info("Service starting",
		slog.String("service", serviceName),
		slog.String("version", serviceVersion),
		slog.String("config_path", *configPath),
	)

	// Log configuration summary
	logger.Info("Configuration loaded",
		slog.Int("sample_rate", cfg.Capture.SampleRate),
		slog.Int("channels", cfg.Capture.Channels),
		slog.Int("frames_per_buffer", cfg.Capture.FramesPerBuffer),
		slog.String("output_dir", cfg.Recording.OutputDir),
		slog.Bool("detector_enabled", cfg.Detector.Enabled),
		slog.Float64("silence_seconds", cfg.Detector.SilenceSeconds),
		slog.String("log_level", cfg.Logging.Level),
	)

	// Initialize Prometheus metrics
	appMetrics := metrics.NewMetrics()
	logger.Info("Prometheus metrics initialized")

	// Initialize capture device provider
	provider := device.NewProvider(cfg.Capture.SampleRate, cfg.Capture.FramesPerBuffer, logger)

	// done is signalled when the recording finished, one way or the other.
	done := make(chan struct{}, 1)
	finish := func() {
		select {
		case done <- struct{}{}:
		default:
		}
	}

	callbacks := session.Callbacks{
		OnStateChange: func(s session.State) {
			logger.Info("Session state changed", slog.String("state", string(s)))
		},
		OnArtifact: func(art *encoder.Artifact) {
			if err := writeArtifact(cfg.Recording.OutputDir, art, logger); err != nil {
				logger.Error("Failed to write artifact", slog.String("error", err.Error()))
			}
			finish()
		},
		OnError: func(err error) {
			logger.Error("Session failed", slog.String("error", err.Error()))
			finish()
		},
	}

	controller := session.NewController(controllerConfig(cfg), provider, logger, appMetrics, callbacks)
	logger.Info("Session controller initialized")

	// Initialize HTTP API server (if enabled)
	var httpServer *server.HTTPServer
	if cfg.HTTP.Enabled {
		httpServer = server.NewHTTPServer(cfg.HTTP, logger, cfg, controller, appMetrics)
		if err := httpServer.Start(); err != nil {
			logger.Error("Failed to start HTTP server", slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("HTTP API server initialized",
			slog.String("address", fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port)),
		)
	}

	// Start recording
	if err := controller.Start(); err != nil {
		logger.Error("Failed to start recording", slog.String("error", err.Error()))
		shutdownHTTP(httpServer, logger)
		os.Exit(1)
	}

	// Setup signal handling: first signal requests a graceful stop, a second
	// one abandons the recording.
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	logger.Info("Recording, press Ctrl+C to stop...")

	stopping := false
	for {
		select {
		case sig := <-sigChan:
			if !stopping {
				logger.Info("Received stop signal, finalizing recording", slog.String("signal", sig.String()))
				stopping = true
				controller.Stop()
				continue
			}
			logger.Warn("Received second signal, abandoning recording", slog.String("signal", sig.String()))
			controller.Dispose()
			shutdownHTTP(httpServer, logger)
			os.Exit(1)
		case <-done:
			controller.Dispose()
			shutdownHTTP(httpServer, logger)
			logger.Info("Service stopped")
			return
		}
	}
}

// controllerConfig maps the file configuration onto the session controller.
func controllerConfig(cfg *config.Config) session.Config {
	return session.Config{
		FilenamePrefix:            cfg.Recording.FilenamePrefix,
		UseVoiceActivityDetection: cfg.Detector.Enabled,
		SilenceSeconds:            cfg.Detector.SilenceSeconds,
		MIMETypeOverride:          cfg.Recording.MIMETypeOverride,
		SampleRate:                cfg.Capture.SampleRate,
		Channels:                  cfg.Capture.Channels,
		WindowSize:                cfg.Detector.WindowSize,
		Detector: vad.Config{
			Mode:             cfg.Detector.Mode,
			SilenceThreshold: cfg.Detector.SilenceThreshold,
			SpeechThreshold:  cfg.Detector.SpeechThreshold,
			SilenceDuration:  cfg.Detector.GetSilenceDuration(),
			MinRecording:     cfg.Detector.GetMinRecordingDuration(),
			AnalysisRate:     cfg.Detector.AnalysisRate,
		},
	}
}

// writeArtifact persists the finalized recording and, for WAV output,
// verifies that the artifact decodes before reporting success.
func writeArtifact(outputDir string, art *encoder.Artifact, logger *slog.Logger) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
	}

	path := filepath.Join(outputDir, art.Name)
	if err := os.WriteFile(path, art.Blob, 0644); err != nil {
		return fmt.Errorf("failed to write artifact %s: %w", path, err)
	}

	attrs := []any{
		slog.String("path", path),
		slog.String("mime", art.MIME),
		slog.Int("bytes", len(art.Blob)),
	}

	if art.MIME == "audio/wav" {
		decoder := wav.NewDecoder(bytes.NewReader(art.Blob))
		if !decoder.IsValidFile() {
			return fmt.Errorf("artifact %s is not a valid WAV file", path)
		}
		if duration, err := decoder.Duration(); err == nil {
			attrs = append(attrs, slog.Duration("audio_duration", duration))
		}
	}

	logger.Info("Artifact written", attrs...)
	return nil
}

// shutdownHTTP stops the HTTP server with a bounded grace period.
func shutdownHTTP(httpServer *server.HTTPServer, logger *slog.Logger) {
	if httpServer == nil {
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Stop(shutdownCtx); err != nil {
		logger.Error("Error stopping HTTP server", slog.String("error", err.Error()))
	}
}

// initLogger creates and configures the structured logger based on configuration
func initLogger(cfg config.LoggingConfig) *slog.Logger {
	// Parse log level
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo // default fallback
	}

	// Configure handler options
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug, // Add source info for debug level
	}

	// Determine output destination
	var output *os.File
	switch cfg.Output {
	case "stderr":
		output = os.Stderr
	case "stdout", "":
		output = os.Stdout
	default:
		// Assume it's a file path
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Failed to open log file %s: %v, falling back to stdout\n", cfg.Output, err)
			output = os.Stdout
		} else {
			output = file
		}
	}

	// Create handler based on format
	var handler slog.Handler
	switch cfg.Format {
	case "json":
		handler = slog.NewJSONHandler(output, opts)
	case "text", "":
		handler = slog.NewTextHandler(output, opts)
	default:
		// Default to text format
		handler = slog.NewTextHandler(output, opts)
	}

	return slog.New(handler)
}
