package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/madelinet87/mic/internal/device"
	"github.com/madelinet87/mic/internal/encoder"
	"github.com/madelinet87/mic/internal/energy"
	"github.com/madelinet87/mic/internal/metrics"
	"github.com/madelinet87/mic/internal/vad"
)

// Config contains construction-time parameters for the controller.
type Config struct {
	FilenamePrefix            string
	UseVoiceActivityDetection bool
	SilenceSeconds            float64
	MIMETypeOverride          string // empty selects the default profile

	SampleRate int
	Channels   int
	WindowSize int // samples per energy analysis window

	Detector vad.Config // thresholds and cadence; SilenceDuration derived from SilenceSeconds when unset
}

func (c *Config) applyDefaults() {
	if c.FilenamePrefix == "" {
		c.FilenamePrefix = "recording"
	}
	if c.SilenceSeconds == 0 {
		c.SilenceSeconds = 3
	}
	if c.SampleRate == 0 {
		c.SampleRate = 16000
	}
	if c.Channels == 0 {
		c.Channels = 1
	}
	if c.WindowSize == 0 {
		c.WindowSize = 1024
	}
	if c.Detector.AnalysisRate == 0 {
		c.Detector.AnalysisRate = vad.DefaultAnalysisRate
	}
	if c.Detector.SilenceDuration == 0 {
		c.Detector.SilenceDuration = time.Duration(c.SilenceSeconds * float64(time.Second))
	}
}

// Callbacks receive controller notifications. State changes are delivered
// synchronously with the transition that caused them, in transition order;
// the artifact notification always follows the completed state change. Nil
// callbacks are skipped. Callbacks may call back into the controller.
type Callbacks struct {
	OnStateChange func(State)
	OnArtifact    func(*encoder.Artifact)
	OnError       func(error)
}

// capture is the aggregate of resources owned by one recording session.
// Every field is owned exclusively by the controller; nothing outside the
// controller's lifetime may hold a reference to the stream or encoder.
type capture struct {
	id        string
	startedAt time.Time

	stream device.Stream
	enc    *encoder.Session
	det    vad.Detector
	tap    *energy.Tap

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// release stops every resource the capture owns. Safe to call repeatedly;
// releasing an already-released resource is a no-op.
func (cp *capture) release() {
	cp.cancel()
	cp.stream.Stop()
	cp.enc.Discard()
}

// Controller owns the capture session state machine. It acquires the device,
// runs the encoder session and optional silence detector, and guarantees the
// resource-release contract on every exit path, including Dispose from any
// state. All state mutation is serialized under one mutex.
type Controller struct {
	cfg      Config
	provider device.Provider
	logger   *slog.Logger
	metrics  *metrics.Metrics
	cb       Callbacks

	mu        sync.Mutex
	state     State
	cur       *capture
	acquiring bool
	acqCancel context.CancelFunc
	gen       uint64 // bumped by Dispose to discard in-flight acquisitions

	// Notification queue. Events are appended under mu in transition order
	// and drained by a single active publisher, so delivery order always
	// matches transition order even when a callback re-enters the controller.
	pending    []func()
	publishing bool
}

// NewController creates a controller. The metrics argument may be nil.
func NewController(cfg Config, provider device.Provider, logger *slog.Logger, m *metrics.Metrics, cb Callbacks) *Controller {
	cfg.applyDefaults()
	return &Controller{
		cfg:      cfg,
		provider: provider,
		logger:   logger,
		metrics:  m,
		cb:       cb,
		state:    StateIdle,
	}
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// publish queues events for delivery and drains the queue unless another
// publisher is already active. mu is held on entry and released on return;
// callbacks run without mu held and may call back into the controller.
func (c *Controller) publish(events []func()) {
	c.pending = append(c.pending, events...)
	if c.publishing {
		c.mu.Unlock()
		return
	}

	c.publishing = true
	for len(c.pending) > 0 {
		fn := c.pending[0]
		c.pending = c.pending[1:]
		c.mu.Unlock()
		fn()
		c.mu.Lock()
	}
	c.publishing = false
	c.mu.Unlock()
}

func (c *Controller) stateEvent(s State) func() {
	return func() {
		if c.cb.OnStateChange != nil {
			c.cb.OnStateChange(s)
		}
	}
}

func (c *Controller) errorEvent(err error) func() {
	return func() {
		if c.cb.OnError != nil {
			c.cb.OnError(err)
		}
	}
}

func (c *Controller) artifactEvent(art *encoder.Artifact) func() {
	return func() {
		if c.cb.OnArtifact != nil {
			c.cb.OnArtifact(art)
		}
	}
}

// Start begins a new recording session. A start request while a session is
// recording, finalizing, or acquiring is rejected with ErrSessionActive and
// has no other observable effect. Failures transition to the error state,
// release anything already acquired, and are surfaced through the error
// notification as well as the returned error.
func (c *Controller) Start() error {
	c.mu.Lock()
	if c.acquiring || !c.state.Restartable() {
		c.mu.Unlock()
		return ErrSessionActive
	}

	if !c.provider.Supported() {
		err := fmt.Errorf("%w: no capture backend available", ErrUnsupportedEnvironment)
		return c.failStartLocked(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c.acquiring = true
	c.acqCancel = cancel
	c.gen++
	gen := c.gen
	c.mu.Unlock()

	stream, err := c.provider.Acquire(ctx)

	c.mu.Lock()
	if gen != c.gen {
		// Disposed while acquiring: discard the result instead of acting on it.
		c.mu.Unlock()
		cancel()
		if stream != nil {
			stream.Stop()
		}
		return nil
	}
	c.acquiring = false
	c.acqCancel = nil

	if err != nil {
		cancel()
		return c.failStartLocked(fmt.Errorf("%w: %v", ErrDeviceAcquisition, err))
	}

	profile := encoder.Negotiate(c.cfg.MIMETypeOverride)
	enc, err := encoder.NewSession(profile, c.cfg.SampleRate, c.cfg.Channels)
	if err != nil {
		stream.Stop()
		cancel()
		return c.failStartLocked(fmt.Errorf("%w: %v", ErrEncoderConstruction, err))
	}

	var det vad.Detector
	var tap *energy.Tap
	if c.cfg.UseVoiceActivityDetection {
		det, err = vad.New(c.cfg.Detector)
		if err != nil {
			stream.Stop()
			cancel()
			return c.failStartLocked(fmt.Errorf("%w: %v", ErrAnalysisInit, err))
		}
		tap = energy.NewTap(c.cfg.WindowSize)
	}

	now := time.Now()
	cp := &capture{
		id:        uuid.NewString(),
		startedAt: now,
		stream:    stream,
		enc:       enc,
		det:       det,
		tap:       tap,
		cancel:    cancel,
	}
	if det != nil {
		det.Arm(now)
	}

	c.cur = cp
	c.state = StateRecording

	if c.metrics != nil {
		c.metrics.SessionsStarted.Inc()
		c.metrics.ActiveSessions.Inc()
	}

	c.logger.Info("recording started",
		slog.String("session_id", cp.id),
		slog.String("profile", profile.Name()),
		slog.Bool("vad", det != nil),
	)

	cp.wg.Add(1)
	go c.pump(ctx, cp)

	c.publish([]func(){c.stateEvent(StateRecording)})
	return nil
}

// failStartLocked handles a failure on the start path, before a capture
// aggregate exists. Partially acquired resources must already be released by
// the caller. mu is held on entry and released before returning.
func (c *Controller) failStartLocked(err error) error {
	c.acquiring = false
	c.acqCancel = nil
	c.state = StateError

	if c.metrics != nil {
		c.metrics.SessionsFailed.WithLabelValues(failureReason(err)).Inc()
	}
	c.logger.Error("session start failed", slog.String("error", err.Error()))

	c.publish([]func(){c.stateEvent(StateError), c.errorEvent(err)})
	return err
}

// fail transitions a live session to the error state, releasing everything
// it owns. Stale calls against a superseded capture are ignored.
func (c *Controller) fail(cp *capture, err error) {
	c.mu.Lock()
	if c.cur != cp {
		c.mu.Unlock()
		return
	}

	cp.release()
	c.cur = nil
	c.state = StateError

	if c.metrics != nil {
		c.metrics.SessionsFailed.WithLabelValues(failureReason(err)).Inc()
		c.metrics.ActiveSessions.Dec()
	}
	c.logger.Error("session failed",
		slog.String("session_id", cp.id),
		slog.String("error", err.Error()),
	)

	c.publish([]func(){c.stateEvent(StateError), c.errorEvent(err)})
}

// pump is the single delivery loop for a session: it forwards device frames
// to the encoder and the analysis tap, and evaluates silence at the fixed
// analysis cadence, independent of frame arrival.
func (c *Controller) pump(ctx context.Context, cp *capture) {
	defer cp.wg.Done()

	interval := time.Second / time.Duration(c.cfg.Detector.AnalysisRate)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case frame, ok := <-cp.stream.Frames():
			if !ok {
				if err := cp.stream.Err(); err != nil {
					c.fail(cp, fmt.Errorf("%w: %v", ErrProcessing, err))
				} else {
					// Device ended delivery on its own; treat as a stop request.
					c.Stop()
				}
				return
			}

			if err := cp.enc.WritePCM(frame); err != nil {
				c.fail(cp, fmt.Errorf("%w: %v", ErrProcessing, err))
				return
			}
			if cp.tap != nil {
				cp.tap.Push(frame)
			}
			if c.metrics != nil {
				c.metrics.ChunksEncoded.Inc()
				c.metrics.ChunkBytes.Add(float64(len(frame) * 2))
			}

		case now := <-ticker.C:
			if cp.det == nil {
				continue
			}
			window, ready := cp.tap.Window()
			if !ready {
				continue
			}
			if c.metrics != nil {
				c.metrics.EnergyWindowsEvaluated.Inc()
			}
			if cp.det.Observe(energy.RMS(window), now) {
				c.logger.Info("sustained silence detected, stopping",
					slog.String("session_id", cp.id),
					slog.Duration("elapsed", now.Sub(cp.startedAt)),
				)
				if c.metrics != nil {
					c.metrics.SilenceStops.Inc()
				}
				c.Stop()
				return
			}
		}
	}
}

// Stop requests finalization of the current recording. It is idempotent: a
// stop while already finalizing, or with no recording in progress, is a
// no-op. Completion is delivered asynchronously once the encoder confirms
// closure, as the completed state change followed by the artifact.
func (c *Controller) Stop() error {
	c.mu.Lock()
	if c.state != StateRecording || c.cur == nil {
		c.mu.Unlock()
		return nil
	}

	cp := c.cur
	c.state = StateFinalizing
	cp.cancel() // stop the pump; no further chunks are accepted after it drains

	go c.finalize(cp)

	c.publish([]func(){c.stateEvent(StateFinalizing)})
	return nil
}

// finalize waits for the pump to drain, assembles the artifact, releases the
// device, and completes the session. If the session was disposed or failed
// in the meantime the result is discarded.
func (c *Controller) finalize(cp *capture) {
	cp.wg.Wait()

	c.mu.Lock()
	if c.cur != cp {
		c.mu.Unlock()
		return
	}

	cp.stream.Stop()

	name := artifactName(c.cfg.FilenamePrefix, cp.enc.Profile().Ext())
	art, err := cp.enc.Finalize(name)
	if err != nil {
		cp.release()
		c.cur = nil
		c.state = StateError
		wrapped := fmt.Errorf("%w: %v", ErrProcessing, err)
		if c.metrics != nil {
			c.metrics.SessionsFailed.WithLabelValues(failureReason(wrapped)).Inc()
			c.metrics.ActiveSessions.Dec()
		}
		c.logger.Error("finalization failed",
			slog.String("session_id", cp.id),
			slog.String("error", err.Error()),
		)
		c.publish([]func(){c.stateEvent(StateError), c.errorEvent(wrapped)})
		return
	}

	duration := time.Since(cp.startedAt)
	c.cur = nil
	c.state = StateCompleted

	if c.metrics != nil {
		c.metrics.SessionsCompleted.Inc()
		c.metrics.ActiveSessions.Dec()
		c.metrics.SessionDuration.Observe(duration.Seconds())
		c.metrics.ArtifactBytes.Observe(float64(len(art.Blob)))
	}
	c.logger.Info("recording completed",
		slog.String("session_id", cp.id),
		slog.String("artifact", art.Name),
		slog.Int("bytes", len(art.Blob)),
		slog.Duration("duration", duration),
	)

	c.publish([]func(){c.stateEvent(StateCompleted), c.artifactEvent(art)})
}

// Dispose tears the controller down from any state: the full resource
// release contract runs even mid-acquisition, in which case the eventual
// acquisition result is discarded rather than acted upon. No artifact is
// ever emitted for a disposed session. Safe to call repeatedly.
func (c *Controller) Dispose() {
	c.mu.Lock()

	c.gen++ // invalidate any in-flight acquisition
	if c.acqCancel != nil {
		c.acqCancel()
		c.acqCancel = nil
	}
	c.acquiring = false

	cp := c.cur
	c.cur = nil

	if cp == nil {
		c.mu.Unlock()
		return
	}

	cp.release()
	c.state = StateIdle

	if c.metrics != nil {
		c.metrics.ActiveSessions.Dec()
	}
	c.logger.Info("session disposed", slog.String("session_id", cp.id))

	c.publish([]func(){c.stateEvent(StateIdle)})

	cp.wg.Wait()
}

// Info is a point-in-time snapshot of the controller for monitoring.
type Info struct {
	State      State         `json:"state"`
	SessionID  string        `json:"session_id,omitempty"`
	StartedAt  time.Time     `json:"started_at,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Profile    string        `json:"profile,omitempty"`
	Chunks     int           `json:"chunks"`
	Bytes      int           `json:"bytes"`
	VADEnabled bool          `json:"vad_enabled"`
}

// Snapshot returns the current session information.
func (c *Controller) Snapshot() Info {
	c.mu.Lock()
	defer c.mu.Unlock()

	info := Info{
		State:      c.state,
		VADEnabled: c.cfg.UseVoiceActivityDetection,
	}
	if c.cur != nil {
		info.SessionID = c.cur.id
		info.StartedAt = c.cur.startedAt
		info.Duration = time.Since(c.cur.startedAt)
		info.Profile = c.cur.enc.Profile().Name()
		info.Chunks = c.cur.enc.Chunks()
		info.Bytes = c.cur.enc.Bytes()
	}
	return info
}

// artifactName builds the artifact filename: prefix, UTC creation timestamp,
// and the profile extension.
func artifactName(prefix, ext string) string {
	return fmt.Sprintf("%s-%s%s", prefix, time.Now().UTC().Format("20060102-150405"), ext)
}
