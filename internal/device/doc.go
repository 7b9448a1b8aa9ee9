// Package device abstracts microphone acquisition behind a Provider/Stream
// pair. The portaudio backend is selected with the "portaudio" build tag;
// without it the provider reports capture as unsupported so callers can
// surface an unsupported-environment failure instead of failing at link time.
package device
