package session

// State identifies where a capture session is in its lifecycle. Idle and
// Completed are both ready-to-start states; Error ends the current session
// but the controller accepts a fresh start afterwards.
type State string

const (
	StateIdle       State = "idle"
	StateRecording  State = "recording"
	StateFinalizing State = "finalizing"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Restartable reports whether a new recording may be started from this state.
func (s State) Restartable() bool {
	return s == StateIdle || s == StateCompleted || s == StateError
}
