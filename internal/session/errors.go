package session

import "errors"

// Failure taxonomy. Every failure is wrapped around one of these sentinels,
// handled inside the controller (resources released, state transitioned) and
// surfaced to the caller exactly once through the error notification.
var (
	// ErrUnsupportedEnvironment means no capture backend is available; it is
	// raised before any resource is acquired.
	ErrUnsupportedEnvironment = errors.New("audio capture not supported in this environment")

	// ErrDeviceAcquisition means the microphone could not be opened
	// (permission denied or hardware failure).
	ErrDeviceAcquisition = errors.New("microphone acquisition failed")

	// ErrEncoderConstruction means the negotiated encoder profile was
	// rejected at session construction.
	ErrEncoderConstruction = errors.New("encoder construction failed")

	// ErrAnalysisInit means the voice-activity analysis chain could not be
	// built; the already-acquired device is released before it is raised.
	ErrAnalysisInit = errors.New("voice activity analysis initialization failed")

	// ErrProcessing means an unexpected failure during ongoing capture,
	// encoding, or finalization.
	ErrProcessing = errors.New("audio processing failed")

	// ErrSessionActive is returned when Start is called while a session is
	// recording, finalizing, or still acquiring the device. The request is
	// rejected, never queued.
	ErrSessionActive = errors.New("a capture session is already active")
)

// failureReason returns the metrics label for a failure.
func failureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedEnvironment):
		return "unsupported_environment"
	case errors.Is(err, ErrDeviceAcquisition):
		return "device_acquisition"
	case errors.Is(err, ErrEncoderConstruction):
		return "encoder_construction"
	case errors.Is(err, ErrAnalysisInit):
		return "analysis_init"
	default:
		return "processing"
	}
}
