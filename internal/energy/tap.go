package energy

import "sync"

// Tap is a read-only analysis tap on a capture stream. It retains the most
// recent windowSize samples in a ring so the silence detector can sample the
// signal at its own cadence, independent of frame delivery. The tap never
// owns or stops the stream it observes.
type Tap struct {
	mu      sync.Mutex
	ring    []int16
	written uint64
	w       int
}

// NewTap creates a tap retaining windowSize samples.
func NewTap(windowSize int) *Tap {
	return &Tap{ring: make([]int16, windowSize)}
}

// Push appends captured samples, overwriting the oldest retained ones.
func (t *Tap) Push(samples []int16) {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, s := range samples {
		t.ring[t.w] = s
		t.w = (t.w + 1) % len(t.ring)
	}
	t.written += uint64(len(samples))
}

// Window returns a copy of the latest full analysis window in capture order.
// It reports false until enough samples have been retained.
func (t *Tap) Window() ([]int16, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.written < uint64(len(t.ring)) {
		return nil, false
	}

	window := make([]int16, len(t.ring))
	n := copy(window, t.ring[t.w:])
	copy(window[n:], t.ring[:t.w])

	return window, true
}

// Samples returns the total number of samples observed by the tap.
func (t *Tap) Samples() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.written
}
