package vad

import "time"

// DebounceDetector is the legacy single-threshold variant. The first
// low-energy sample starts a countdown; any sample above the threshold
// cancels it; the detector fires when the countdown elapses. It has no
// hysteresis gap and no minimum-recording floor, so a session can be stopped
// the moment the hold period passes. Kept for callers that explicitly select
// it; the hysteresis detector is the supported design.
type DebounceDetector struct {
	threshold float64
	hold      time.Duration

	deadline time.Time
	fired    bool
}

// Arm resets the detector for a new recording session.
func (d *DebounceDetector) Arm(_ time.Time) {
	d.deadline = time.Time{}
	d.fired = false
}

// Observe evaluates one normalized energy sample.
func (d *DebounceDetector) Observe(energy float64, now time.Time) bool {
	if d.fired {
		return false
	}

	if energy > d.threshold {
		d.deadline = time.Time{}
		return false
	}

	if d.deadline.IsZero() {
		d.deadline = now.Add(d.hold)
		return false
	}

	if now.After(d.deadline) {
		d.fired = true
		return true
	}

	return false
}
