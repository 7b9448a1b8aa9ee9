package encoder

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionClosed is returned when writing to a finalized or discarded session.
var ErrSessionClosed = fmt.Errorf("encoder session closed")

// Artifact is the finalized output of an encoder session: the concatenation
// of every chunk in arrival order, a generated filename, and the codec tag.
// Immutable once created.
type Artifact struct {
	Name      string
	MIME      string
	Blob      []byte
	CreatedAt time.Time
}

// Session wraps a recording's encoder output as an append-only ordered
// sequence of chunks. Chunks arrive while recording; Finalize concatenates
// them into the Artifact exactly once. A finalized or discarded session
// rejects further writes, and repeated Finalize calls return the same
// artifact.
type Session struct {
	id         string
	profile    Profile
	sampleRate int
	channels   int

	mu       sync.Mutex
	chunks   [][]byte
	count    int
	bytes    int
	finished bool
	artifact *Artifact
}

// NewSession creates an encoder session for the negotiated profile. The
// profile's header chunk, if any, is the first chunk of the sequence.
func NewSession(profile Profile, sampleRate, channels int) (*Session, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile must not be nil")
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %d", sampleRate)
	}

	if channels <= 0 {
		return nil, fmt.Errorf("channels must be positive, got %d", channels)
	}

	s := &Session{
		id:         uuid.NewString(),
		profile:    profile,
		sampleRate: sampleRate,
		channels:   channels,
	}

	if header := profile.Header(sampleRate, channels); header != nil {
		s.chunks = append(s.chunks, header)
		s.count = 1
		s.bytes = len(header)
	}

	return s, nil
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Profile returns the negotiated encoder profile.
func (s *Session) Profile() Profile {
	return s.profile
}

// WritePCM encodes one frame of captured samples into the next chunk.
func (s *Session) WritePCM(samples []int16) error {
	if len(samples) == 0 {
		return nil
	}
	return s.Append(s.profile.EncodeFrame(samples))
}

// Append adds an already-encoded chunk to the sequence.
func (s *Session) Append(chunk []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return ErrSessionClosed
	}

	s.chunks = append(s.chunks, chunk)
	s.count++
	s.bytes += len(chunk)
	return nil
}

// Finalize closes the session and assembles the artifact: chunks are
// concatenated in arrival order, the profile seals the blob, and the chunk
// buffer is cleared. Only the first call assembles; repeated calls return
// the same artifact. A discarded session cannot be finalized.
func (s *Session) Finalize(name string) (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		if s.artifact == nil {
			return nil, ErrSessionClosed
		}
		return s.artifact, nil
	}
	s.finished = true

	blob := make([]byte, 0, s.bytes)
	for _, chunk := range s.chunks {
		blob = append(blob, chunk...)
	}
	s.chunks = nil
	s.profile.Seal(blob)

	s.artifact = &Artifact{
		Name:      name,
		MIME:      s.profile.MIME(),
		Blob:      blob,
		CreatedAt: time.Now(),
	}

	return s.artifact, nil
}

// Discard closes the session and drops all buffered chunks without
// producing an artifact. Safe to call more than once.
func (s *Session) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.artifact == nil {
		s.finished = true
		s.chunks = nil
		s.bytes = 0
	}
}

// Chunks returns how many chunks the session has received.
func (s *Session) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Bytes returns the total byte length of all chunks received so far.
func (s *Session) Bytes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bytes
}
