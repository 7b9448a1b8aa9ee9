package device

import "context"

// Stream is an exclusive handle on an acquired capture device. Frames are
// delivered in capture order until the stream is stopped or fails; the
// channel is closed afterwards. Stop is a safe no-op on a stopped stream.
type Stream interface {
	// Frames delivers PCM-16 mono frames as the device produces them.
	Frames() <-chan []int16

	// Stop stops the underlying device track and releases it. Idempotent.
	Stop() error

	// Live reports whether the underlying track is still running.
	Live() bool

	// Err returns the first delivery error, if any, once Frames is closed.
	Err() error
}

// Provider abstracts device capability checking and acquisition so the
// session controller can run against real hardware or a test double.
type Provider interface {
	// Supported reports whether a capture backend is available at all.
	Supported() bool

	// Acquire opens the default capture device and starts delivery.
	// Cancelling the context abandons the attempt; a stream returned after
	// cancellation must be stopped by the caller.
	Acquire(ctx context.Context) (Stream, error)
}
