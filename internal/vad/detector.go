package vad

import (
	"fmt"
	"time"
)

// Reference defaults for the hysteresis detector.
const (
	DefaultSilenceThreshold = 0.025
	DefaultSpeechThreshold  = 0.04
	DefaultAnalysisRate     = 45
	DefaultMinRecording     = 1500 * time.Millisecond
)

// Detector consumes normalized energy samples at a fixed analysis cadence and
// decides when a recording should stop. Observe returns true exactly once per
// session; after firing the detector is inert until re-armed.
type Detector interface {
	// Arm resets detector state and records when recording started.
	Arm(startedAt time.Time)

	// Observe evaluates one energy sample taken at the analysis cadence.
	Observe(energy float64, now time.Time) bool
}

// Config holds detector construction parameters.
type Config struct {
	Mode             string        // "hysteresis" (default) or legacy "debounce"
	SilenceThreshold float64       // energy below this counts as silence
	SpeechThreshold  float64       // energy above this resets the silence run
	SilenceDuration  time.Duration // sustained silence required to fire
	MinRecording     time.Duration // never fire before this much recording
	AnalysisRate     int           // energy samples per second
}

func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = "hysteresis"
	}
	if c.SilenceThreshold == 0 {
		c.SilenceThreshold = DefaultSilenceThreshold
	}
	if c.SpeechThreshold == 0 {
		c.SpeechThreshold = DefaultSpeechThreshold
	}
	if c.AnalysisRate == 0 {
		c.AnalysisRate = DefaultAnalysisRate
	}
	if c.MinRecording == 0 {
		c.MinRecording = DefaultMinRecording
	}
}

// New creates a detector for the configured mode.
func New(cfg Config) (Detector, error) {
	cfg.applyDefaults()

	if cfg.SilenceThreshold <= 0 || cfg.SilenceThreshold >= 1 {
		return nil, fmt.Errorf("silence threshold must be between 0 and 1, got %f", cfg.SilenceThreshold)
	}

	if cfg.SilenceDuration <= 0 {
		return nil, fmt.Errorf("silence duration must be positive, got %v", cfg.SilenceDuration)
	}

	if cfg.AnalysisRate <= 0 {
		return nil, fmt.Errorf("analysis rate must be positive, got %d", cfg.AnalysisRate)
	}

	switch cfg.Mode {
	case "hysteresis":
		if cfg.SpeechThreshold <= cfg.SilenceThreshold {
			return nil, fmt.Errorf("speech threshold (%f) must exceed silence threshold (%f)",
				cfg.SpeechThreshold, cfg.SilenceThreshold)
		}
		return &HysteresisDetector{
			silenceThreshold: cfg.SilenceThreshold,
			speechThreshold:  cfg.SpeechThreshold,
			requiredFrames:   int(cfg.SilenceDuration.Seconds() * float64(cfg.AnalysisRate)),
			minRecording:     cfg.MinRecording,
		}, nil
	case "debounce":
		return &DebounceDetector{
			threshold: cfg.SilenceThreshold,
			hold:      cfg.SilenceDuration,
		}, nil
	default:
		return nil, fmt.Errorf("unknown detector mode %q", cfg.Mode)
	}
}

// HysteresisDetector is the canonical silence detector. It counts consecutive
// low-energy analysis frames and fires once the run exceeds the configured
// silence duration, but never before the minimum recording duration has
// elapsed. Two distinct thresholds prevent the counter from oscillating
// around a single boundary value: energy below the silence threshold extends
// the run, energy above the speech threshold clears it, and energy between
// the two leaves it unchanged.
type HysteresisDetector struct {
	silenceThreshold float64
	speechThreshold  float64
	requiredFrames   int
	minRecording     time.Duration

	startedAt    time.Time
	silentFrames int
	fired        bool

	// Statistics
	framesObserved uint64
}

// Arm resets the detector for a new recording session.
func (d *HysteresisDetector) Arm(startedAt time.Time) {
	d.startedAt = startedAt
	d.silentFrames = 0
	d.fired = false
	d.framesObserved = 0
}

// Observe evaluates one normalized energy sample. It returns true exactly
// once, when sustained silence has been observed past the minimum duration.
func (d *HysteresisDetector) Observe(energy float64, now time.Time) bool {
	if d.fired {
		return false
	}

	d.framesObserved++

	switch {
	case energy < d.silenceThreshold:
		d.silentFrames++
	case energy > d.speechThreshold:
		d.silentFrames = 0
	}

	if d.silentFrames > d.requiredFrames && now.Sub(d.startedAt) > d.minRecording {
		d.fired = true
		return true
	}

	return false
}

// SilentFrames returns the current consecutive low-energy run length.
func (d *HysteresisDetector) SilentFrames() int {
	return d.silentFrames
}

// FramesObserved returns how many energy samples were evaluated since Arm.
func (d *HysteresisDetector) FramesObserved() uint64 {
	return d.framesObserved
}
