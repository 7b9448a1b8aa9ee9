//go:build portaudio
// +build portaudio

package device

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// PortAudioProvider acquires the default system microphone through portaudio.
type PortAudioProvider struct {
	sampleRate      int
	framesPerBuffer int
	logger          *slog.Logger
}

// NewProvider creates a portaudio-backed capture provider.
func NewProvider(sampleRate, framesPerBuffer int, logger *slog.Logger) *PortAudioProvider {
	return &PortAudioProvider{
		sampleRate:      sampleRate,
		framesPerBuffer: framesPerBuffer,
		logger:          logger,
	}
}

// Supported reports whether the capture backend is compiled in.
func (p *PortAudioProvider) Supported() bool {
	return true
}

// Acquire initializes portaudio, opens the default input stream, and starts
// frame delivery on a background goroutine.
func (p *PortAudioProvider) Acquire(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	buffer := make([]int16, p.framesPerBuffer)

	inputChannels := 1
	outputChannels := 0
	stream, err := portaudio.OpenDefaultStream(
		inputChannels,
		outputChannels,
		float64(p.sampleRate),
		p.framesPerBuffer,
		buffer,
	)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return nil, fmt.Errorf("starting stream: %w", err)
	}

	p.logger.Info("microphone acquired",
		slog.Int("sample_rate", p.sampleRate),
		slog.Int("frames_per_buffer", p.framesPerBuffer),
	)

	s := &paStream{
		stream: stream,
		buffer: buffer,
		frames: make(chan []int16, 8),
		done:   make(chan struct{}),
		live:   true,
	}
	go s.loop()

	return s, nil
}

type paStream struct {
	stream *portaudio.Stream
	buffer []int16
	frames chan []int16
	done   chan struct{}

	mu   sync.Mutex
	live bool
	err  error

	stopOnce sync.Once
}

func (s *paStream) Frames() <-chan []int16 {
	return s.frames
}

func (s *paStream) loop() {
	defer close(s.frames)
	for {
		select {
		case <-s.done:
			return
		default:
		}

		if err := s.stream.Read(); err != nil {
			s.mu.Lock()
			if s.live {
				s.err = fmt.Errorf("reading from stream: %w", err)
			}
			s.mu.Unlock()
			return
		}

		frame := make([]int16, len(s.buffer))
		copy(frame, s.buffer)

		select {
		case s.frames <- frame:
		case <-s.done:
			return
		}
	}
}

// Stop stops and closes the portaudio stream and terminates the library.
func (s *paStream) Stop() error {
	s.stopOnce.Do(func() {
		close(s.done)
		s.mu.Lock()
		s.live = false
		s.mu.Unlock()
		s.stream.Stop()
		s.stream.Close()
		portaudio.Terminate()
	})
	return nil
}

func (s *paStream) Live() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.live
}

func (s *paStream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}
