// Package session implements the capture session controller: the state
// machine that owns the microphone stream, the encoder session, and the
// optional silence detector for one recording at a time. It guarantees the
// resource-release contract on every success and failure path, including an
// external Dispose call at any point in the lifecycle.
package session
