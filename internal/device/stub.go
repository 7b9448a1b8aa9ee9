//go:build !portaudio
// +build !portaudio

package device

import (
	"context"
	"fmt"
	"log/slog"
)

// PortAudioProvider stub when portaudio is not available
type PortAudioProvider struct {
	logger *slog.Logger
}

func NewProvider(sampleRate, framesPerBuffer int, logger *slog.Logger) *PortAudioProvider {
	return &PortAudioProvider{logger: logger}
}

// Supported reports that no capture backend is compiled in.
func (p *PortAudioProvider) Supported() bool {
	return false
}

func (p *PortAudioProvider) Acquire(_ context.Context) (Stream, error) {
	return nil, fmt.Errorf("microphone capture not available: rebuild with -tags portaudio")
}
