package vad

import (
	"testing"
	"time"
)

// feed drives a detector with a constant energy level at the analysis
// cadence, returning the frame index at which it fired, or -1.
func feed(d Detector, start time.Time, rate int, energy float64, frames int) int {
	interval := time.Second / time.Duration(rate)
	now := start
	for i := 0; i < frames; i++ {
		now = now.Add(interval)
		if d.Observe(energy, now) {
			return i
		}
	}
	return -1
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name      string
		cfg       Config
		expectErr bool
	}{
		{
			name:      "defaults with silence duration",
			cfg:       Config{SilenceDuration: 3 * time.Second},
			expectErr: false,
		},
		{
			name:      "missing silence duration",
			cfg:       Config{},
			expectErr: true,
		},
		{
			name: "speech threshold not above silence threshold",
			cfg: Config{
				SilenceDuration:  time.Second,
				SilenceThreshold: 0.04,
				SpeechThreshold:  0.04,
			},
			expectErr: true,
		},
		{
			name: "silence threshold out of range",
			cfg: Config{
				SilenceDuration:  time.Second,
				SilenceThreshold: 1.5,
			},
			expectErr: true,
		},
		{
			name: "unknown mode",
			cfg: Config{
				SilenceDuration: time.Second,
				Mode:            "neural",
			},
			expectErr: true,
		},
		{
			name: "debounce mode",
			cfg: Config{
				SilenceDuration: time.Second,
				Mode:            "debounce",
			},
			expectErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if tt.expectErr && err == nil {
				t.Error("Expected error but got none")
			}
			if !tt.expectErr && err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestHysteresisNeverFiresBeforeMinRecording(t *testing.T) {
	d, err := New(Config{
		SilenceDuration: 200 * time.Millisecond,
		MinRecording:    1500 * time.Millisecond,
		AnalysisRate:    45,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Arm(start)

	// Constant silence from t=0. The silence run is satisfied long before
	// the floor; nothing may fire inside the first 1500ms.
	interval := time.Second / 45
	now := start
	for i := 0; i < 67; i++ { // 67 frames ≈ 1489ms
		now = now.Add(interval)
		if d.Observe(0.01, now) {
			t.Fatalf("Detector fired at frame %d, before minimum recording duration", i)
		}
	}
}

func TestHysteresisFiresAfterSustainedSilence(t *testing.T) {
	d, err := New(Config{
		SilenceDuration: 3 * time.Second,
		MinRecording:    1500 * time.Millisecond,
		AnalysisRate:    45,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Arm(start)

	// silenceSeconds=3 at 45Hz requires a run of more than 135 frames.
	fired := feed(d, start, 45, 0.01, 200)
	if fired == -1 {
		t.Fatal("Detector never fired under constant silence")
	}
	if fired < 135 {
		t.Errorf("Detector fired at frame %d, before the required silence run", fired)
	}
	if fired > 140 {
		t.Errorf("Detector fired at frame %d, well after the required silence run", fired)
	}
}

func TestHysteresisSpeechResetsRun(t *testing.T) {
	d, err := New(Config{
		SilenceDuration: time.Second,
		MinRecording:    time.Millisecond,
		AnalysisRate:    45,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Arm(start)

	interval := time.Second / 45
	now := start
	for i := 0; i < 300; i++ {
		now = now.Add(interval)
		energy := 0.01
		if i%40 == 39 { // one loud sample inside every would-be silence run
			energy = 0.5
		}
		if d.Observe(energy, now) {
			t.Fatalf("Detector fired at frame %d despite periodic speech", i)
		}
	}
}

func TestHysteresisMidBandLeavesRunUnchanged(t *testing.T) {
	hd := &HysteresisDetector{
		silenceThreshold: 0.025,
		speechThreshold:  0.04,
		requiredFrames:   10,
		minRecording:     time.Millisecond,
	}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	hd.Arm(start)

	now := start
	for i := 0; i < 5; i++ {
		now = now.Add(time.Second / 45)
		hd.Observe(0.01, now)
	}
	if hd.SilentFrames() != 5 {
		t.Fatalf("Expected 5 silent frames, got %d", hd.SilentFrames())
	}

	// Energy between the thresholds neither extends nor clears the run.
	now = now.Add(time.Second / 45)
	hd.Observe(0.03, now)
	if hd.SilentFrames() != 5 {
		t.Errorf("Mid-band energy changed the run: got %d frames", hd.SilentFrames())
	}

	// Energy above the speech threshold clears it.
	now = now.Add(time.Second / 45)
	hd.Observe(0.05, now)
	if hd.SilentFrames() != 0 {
		t.Errorf("Speech energy did not clear the run: got %d frames", hd.SilentFrames())
	}
}

func TestHysteresisFiresOnce(t *testing.T) {
	d, err := New(Config{
		SilenceDuration: 100 * time.Millisecond,
		MinRecording:    time.Millisecond,
		AnalysisRate:    45,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Arm(start)

	interval := time.Second / 45
	now := start
	firings := 0
	for i := 0; i < 500; i++ {
		now = now.Add(interval)
		if d.Observe(0.0, now) {
			firings++
		}
	}

	if firings != 1 {
		t.Errorf("Expected exactly one firing, got %d", firings)
	}
}

func TestHysteresisRearm(t *testing.T) {
	d, err := New(Config{
		SilenceDuration: 100 * time.Millisecond,
		MinRecording:    time.Millisecond,
		AnalysisRate:    45,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Arm(start)
	if feed(d, start, 45, 0.0, 100) == -1 {
		t.Fatal("Detector never fired in first session")
	}

	start2 := start.Add(time.Minute)
	d.Arm(start2)
	if feed(d, start2, 45, 0.0, 100) == -1 {
		t.Error("Re-armed detector never fired in second session")
	}
}

func TestDebounceFiresAfterHold(t *testing.T) {
	d, err := New(Config{
		Mode:            "debounce",
		SilenceDuration: time.Second,
		AnalysisRate:    45,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Arm(start)

	fired := feed(d, start, 45, 0.01, 100)
	if fired == -1 {
		t.Fatal("Debounce detector never fired under constant silence")
	}
	// One second at 45Hz is 45 frames; the countdown starts on the first.
	if fired < 44 {
		t.Errorf("Debounce fired at frame %d, before hold elapsed", fired)
	}
}

func TestDebounceCancelledBySpeech(t *testing.T) {
	d, err := New(Config{
		Mode:            "debounce",
		SilenceDuration: time.Second,
		AnalysisRate:    45,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d.Arm(start)

	interval := time.Second / 45
	now := start
	for i := 0; i < 300; i++ {
		now = now.Add(interval)
		energy := 0.01
		if i%30 == 29 { // speech inside every would-be hold period
			energy = 0.5
		}
		if d.Observe(energy, now) {
			t.Fatalf("Debounce fired at frame %d despite periodic speech", i)
		}
	}
}
