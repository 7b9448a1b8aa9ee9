package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete recorder configuration
type Config struct {
	Capture   CaptureConfig   `yaml:"capture"`
	Recording RecordingConfig `yaml:"recording"`
	Detector  DetectorConfig  `yaml:"detector"`
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// CaptureConfig contains microphone capture parameters
type CaptureConfig struct {
	SampleRate      int `yaml:"sample_rate"`
	Channels        int `yaml:"channels"`
	BitDepth        int `yaml:"bit_depth"`
	FramesPerBuffer int `yaml:"frames_per_buffer"`
}

// RecordingConfig contains artifact output parameters
type RecordingConfig struct {
	FilenamePrefix   string `yaml:"filename_prefix"`
	OutputDir        string `yaml:"output_dir"`
	MIMETypeOverride string `yaml:"mime_type_override"` // empty selects the default profile
}

// DetectorConfig contains silence detection configuration
type DetectorConfig struct {
	Enabled          bool    `yaml:"enabled"`
	Mode             string  `yaml:"mode"` // "hysteresis" (default) or legacy "debounce"
	SilenceSeconds   float64 `yaml:"silence_seconds"`
	SilenceThreshold float64 `yaml:"silence_threshold"`
	SpeechThreshold  float64 `yaml:"speech_threshold"`
	AnalysisRate     int     `yaml:"analysis_rate"`    // evaluations per second
	WindowSize       int     `yaml:"window_size"`      // samples per analysis window
	MinRecordingMs   int     `yaml:"min_recording_ms"` // silence never stops a session younger than this
}

// HTTPConfig contains monitoring API server configuration
type HTTPConfig struct {
	Port    int    `yaml:"port"`
	Address string `yaml:"address"`
	Enabled bool   `yaml:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// ApplyDefaults fills in zero-valued fields with the reference defaults
func (c *Config) ApplyDefaults() {
	if c.Capture.SampleRate == 0 {
		c.Capture.SampleRate = 16000
	}
	if c.Capture.Channels == 0 {
		c.Capture.Channels = 1
	}
	if c.Capture.BitDepth == 0 {
		c.Capture.BitDepth = 16
	}
	if c.Capture.FramesPerBuffer == 0 {
		c.Capture.FramesPerBuffer = 1024
	}
	if c.Recording.FilenamePrefix == "" {
		c.Recording.FilenamePrefix = "recording"
	}
	if c.Recording.OutputDir == "" {
		c.Recording.OutputDir = "."
	}
	if c.Detector.Mode == "" {
		c.Detector.Mode = "hysteresis"
	}
	if c.Detector.SilenceSeconds == 0 {
		c.Detector.SilenceSeconds = 3
	}
	if c.Detector.SilenceThreshold == 0 {
		c.Detector.SilenceThreshold = 0.025
	}
	if c.Detector.SpeechThreshold == 0 {
		c.Detector.SpeechThreshold = 0.04
	}
	if c.Detector.AnalysisRate == 0 {
		c.Detector.AnalysisRate = 45
	}
	if c.Detector.WindowSize == 0 {
		c.Detector.WindowSize = 1024
	}
	if c.Detector.MinRecordingMs == 0 {
		c.Detector.MinRecordingMs = 1500
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
}

// Validate performs comprehensive validation of the configuration
func (c *Config) Validate() error {
	if err := c.Capture.Validate(); err != nil {
		return fmt.Errorf("capture config: %w", err)
	}

	if err := c.Recording.Validate(); err != nil {
		return fmt.Errorf("recording config: %w", err)
	}

	if err := c.Detector.Validate(); err != nil {
		return fmt.Errorf("detector config: %w", err)
	}

	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("http config: %w", err)
	}

	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config: %w", err)
	}

	return nil
}

// Validate validates capture configuration
func (cc *CaptureConfig) Validate() error {
	if cc.SampleRate < 8000 || cc.SampleRate > 48000 {
		return fmt.Errorf("sample_rate must be between 8000 and 48000 Hz, got %d", cc.SampleRate)
	}

	if cc.Channels != 1 {
		return fmt.Errorf("channels must be 1 (mono), got %d", cc.Channels)
	}

	if cc.BitDepth != 16 {
		return fmt.Errorf("bit_depth must be 16, got %d", cc.BitDepth)
	}

	if cc.FramesPerBuffer < 64 || cc.FramesPerBuffer > 8192 {
		return fmt.Errorf("frames_per_buffer must be between 64 and 8192, got %d", cc.FramesPerBuffer)
	}

	return nil
}

// Validate validates recording configuration
func (r *RecordingConfig) Validate() error {
	if r.FilenamePrefix == "" {
		return fmt.Errorf("filename_prefix cannot be empty")
	}

	if r.OutputDir == "" {
		return fmt.Errorf("output_dir cannot be empty")
	}

	return nil
}

// Validate validates detector configuration
func (d *DetectorConfig) Validate() error {
	validModes := map[string]bool{"hysteresis": true, "debounce": true}
	if !validModes[d.Mode] {
		return fmt.Errorf("mode must be 'hysteresis' or 'debounce', got '%s'", d.Mode)
	}

	if d.SilenceSeconds <= 0 {
		return fmt.Errorf("silence_seconds must be positive, got %f", d.SilenceSeconds)
	}

	if d.SilenceThreshold <= 0 || d.SilenceThreshold >= 1 {
		return fmt.Errorf("silence_threshold must be between 0 and 1, got %f", d.SilenceThreshold)
	}

	if d.SpeechThreshold <= d.SilenceThreshold {
		return fmt.Errorf("speech_threshold (%f) must be greater than silence_threshold (%f)",
			d.SpeechThreshold, d.SilenceThreshold)
	}

	if d.SpeechThreshold >= 1 {
		return fmt.Errorf("speech_threshold must be below 1, got %f", d.SpeechThreshold)
	}

	if d.AnalysisRate < 1 || d.AnalysisRate > 1000 {
		return fmt.Errorf("analysis_rate must be between 1 and 1000 Hz, got %d", d.AnalysisRate)
	}

	if d.WindowSize < 64 || d.WindowSize > 8192 {
		return fmt.Errorf("window_size must be between 64 and 8192 samples, got %d", d.WindowSize)
	}

	if d.MinRecordingMs < 0 {
		return fmt.Errorf("min_recording_ms cannot be negative, got %d", d.MinRecordingMs)
	}

	return nil
}

// Validate validates HTTP configuration
func (h *HTTPConfig) Validate() error {
	if h.Enabled {
		if h.Port < 1 || h.Port > 65535 {
			return fmt.Errorf("http port must be between 1 and 65535, got %d", h.Port)
		}

		if h.Address == "" {
			return fmt.Errorf("http address cannot be empty when HTTP is enabled")
		}
	}

	return nil
}

// Validate validates logging configuration
func (l *LoggingConfig) Validate() error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[l.Level] {
		return fmt.Errorf("level must be one of [debug, info, warn, error], got '%s'", l.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("format must be 'json' or 'text', got '%s'", l.Format)
	}

	return nil
}

// GetSilenceDuration returns the sustained-silence requirement as a time.Duration
func (d *DetectorConfig) GetSilenceDuration() time.Duration {
	return time.Duration(d.SilenceSeconds * float64(time.Second))
}

// GetMinRecordingDuration returns the minimum recording duration as a time.Duration
func (d *DetectorConfig) GetMinRecordingDuration() time.Duration {
	return time.Duration(d.MinRecordingMs) * time.Millisecond
}
