package encoder

import (
	"bytes"
	"encoding/binary"
)

// Profile describes an encoding target. Profiles support chunked delivery:
// Header is emitted when the session opens, EncodeFrame turns captured PCM
// into chunk bytes, and Seal patches the assembled artifact in place for
// containers whose header sizes are only known at finalize.
type Profile interface {
	Name() string
	MIME() string
	Ext() string

	// Header returns the leading chunk for a new session, or nil.
	Header(sampleRate, channels int) []byte

	// EncodeFrame encodes one frame of PCM-16 samples into chunk bytes.
	EncodeFrame(samples []int16) []byte

	// Seal finishes the assembled artifact blob in place. It must never
	// change the blob's length.
	Seal(blob []byte)
}

// profiles holds the registered profiles in fallback preference order.
var profiles = []Profile{wavProfile{}, pcmProfile{}}

// Negotiate selects the encoder profile for a session. A requested profile
// (by name or MIME type) is used only if registered; anything else falls
// back to the preference order. Negotiation happens once per session.
func Negotiate(requested string) Profile {
	if requested != "" {
		for _, p := range profiles {
			if p.Name() == requested || p.MIME() == requested {
				return p
			}
		}
	}
	return profiles[0]
}

// wavHeader represents the RIFF header of a WAV file
type wavHeader struct {
	ChunkID       [4]byte // "RIFF"
	ChunkSize     uint32  // File size - 8 bytes
	Format        [4]byte // "WAVE"
	Subchunk1ID   [4]byte // "fmt "
	Subchunk1Size uint32  // 16 for PCM
	AudioFormat   uint16  // 1 for PCM
	NumChannels   uint16  // Number of channels
	SampleRate    uint32  // Sample rate
	ByteRate      uint32  // SampleRate * NumChannels * BitsPerSample / 8
	BlockAlign    uint16  // NumChannels * BitsPerSample / 8
	BitsPerSample uint16  // Bits per sample
	Subchunk2ID   [4]byte // "data"
	Subchunk2Size uint32  // Number of bytes in the data
}

const wavHeaderSize = 44

// wavProfile encodes PCM-16 into a WAV container. The header chunk carries
// zero sizes until Seal patches them, because the data length is unknown
// while chunks are still arriving.
type wavProfile struct{}

func (wavProfile) Name() string { return "wav" }
func (wavProfile) MIME() string { return "audio/wav" }
func (wavProfile) Ext() string  { return ".wav" }

func (wavProfile) Header(sampleRate, channels int) []byte {
	bitsPerSample := uint16(16)
	header := wavHeader{
		ChunkID:       [4]byte{'R', 'I', 'F', 'F'},
		Format:        [4]byte{'W', 'A', 'V', 'E'},
		Subchunk1ID:   [4]byte{'f', 'm', 't', ' '},
		Subchunk1Size: 16,
		AudioFormat:   1, // PCM
		NumChannels:   uint16(channels),
		SampleRate:    uint32(sampleRate),
		ByteRate:      uint32(sampleRate) * uint32(channels) * uint32(bitsPerSample) / 8,
		BlockAlign:    uint16(channels) * bitsPerSample / 8,
		BitsPerSample: bitsPerSample,
		Subchunk2ID:   [4]byte{'d', 'a', 't', 'a'},
	}

	buf := bytes.NewBuffer(make([]byte, 0, wavHeaderSize))
	binary.Write(buf, binary.LittleEndian, header)
	return buf.Bytes()
}

func (wavProfile) EncodeFrame(samples []int16) []byte {
	return encodePCM16LE(samples)
}

func (wavProfile) Seal(blob []byte) {
	if len(blob) < wavHeaderSize {
		return
	}
	binary.LittleEndian.PutUint32(blob[4:8], uint32(len(blob)-8))
	binary.LittleEndian.PutUint32(blob[40:44], uint32(len(blob)-wavHeaderSize))
}

// pcmProfile emits headerless little-endian PCM-16, matching the device
// stream byte for byte.
type pcmProfile struct{}

func (pcmProfile) Name() string { return "pcm" }
func (pcmProfile) MIME() string { return "audio/L16" }
func (pcmProfile) Ext() string  { return ".raw" }

func (pcmProfile) Header(_, _ int) []byte { return nil }

func (pcmProfile) EncodeFrame(samples []int16) []byte {
	return encodePCM16LE(samples)
}

func (pcmProfile) Seal(_ []byte) {}

func encodePCM16LE(samples []int16) []byte {
	data := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(data[i*2:], uint16(s))
	}
	return data
}
