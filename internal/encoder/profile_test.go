package encoder

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/go-audio/wav"
)

func TestNegotiate(t *testing.T) {
	tests := []struct {
		name      string
		requested string
		want      string
	}{
		{name: "empty request selects default", requested: "", want: "wav"},
		{name: "by profile name", requested: "pcm", want: "pcm"},
		{name: "by mime type", requested: "audio/L16", want: "pcm"},
		{name: "wav mime type", requested: "audio/wav", want: "wav"},
		{name: "unsupported falls back to default", requested: "audio/ogg", want: "wav"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Negotiate(tt.requested).Name(); got != tt.want {
				t.Errorf("Negotiate(%q) = %s, want %s", tt.requested, got, tt.want)
			}
		})
	}
}

func TestWAVHeaderSize(t *testing.T) {
	header := Negotiate("wav").Header(16000, 1)
	if len(header) != wavHeaderSize {
		t.Errorf("Expected %d byte header, got %d", wavHeaderSize, len(header))
	}
}

func TestWAVSealPatchesSizes(t *testing.T) {
	p := Negotiate("wav")
	blob := append([]byte{}, p.Header(16000, 1)...)
	blob = append(blob, p.EncodeFrame(make([]int16, 100))...)

	p.Seal(blob)

	if got := binary.LittleEndian.Uint32(blob[4:8]); got != uint32(len(blob)-8) {
		t.Errorf("RIFF chunk size = %d, want %d", got, len(blob)-8)
	}
	if got := binary.LittleEndian.Uint32(blob[40:44]); got != 200 {
		t.Errorf("Data chunk size = %d, want 200", got)
	}
}

func TestWAVSealDoesNotChangeLength(t *testing.T) {
	p := Negotiate("wav")
	blob := append([]byte{}, p.Header(8000, 1)...)
	blob = append(blob, p.EncodeFrame([]int16{1, 2, 3})...)

	before := len(blob)
	p.Seal(blob)
	if len(blob) != before {
		t.Errorf("Seal changed blob length from %d to %d", before, len(blob))
	}
}

func TestSealedWAVDecodes(t *testing.T) {
	p := Negotiate("wav")
	samples := make([]int16, 1600) // 100ms at 16kHz
	for i := range samples {
		samples[i] = int16(i % 256)
	}

	blob := append([]byte{}, p.Header(16000, 1)...)
	blob = append(blob, p.EncodeFrame(samples)...)
	p.Seal(blob)

	d := wav.NewDecoder(bytes.NewReader(blob))
	if !d.IsValidFile() {
		t.Fatal("Sealed blob is not a valid WAV file")
	}

	d = wav.NewDecoder(bytes.NewReader(blob))
	buf, err := d.FullPCMBuffer()
	if err != nil {
		t.Fatalf("Failed to decode PCM: %v", err)
	}
	if buf.NumFrames() != len(samples) {
		t.Errorf("Decoded %d frames, want %d", buf.NumFrames(), len(samples))
	}
	if buf.Data[5] != 5 {
		t.Errorf("Decoded sample 5 = %d, want 5", buf.Data[5])
	}
}

func TestPCMProfileRoundTrip(t *testing.T) {
	p := Negotiate("pcm")

	if p.Header(16000, 1) != nil {
		t.Error("PCM profile should have no header")
	}

	data := p.EncodeFrame([]int16{-1, 256})
	want := []byte{0xFF, 0xFF, 0x00, 0x01}
	if !bytes.Equal(data, want) {
		t.Errorf("EncodeFrame = %v, want %v", data, want)
	}

	blob := append([]byte{}, data...)
	p.Seal(blob)
	if !bytes.Equal(blob, data) {
		t.Error("PCM Seal must be a no-op")
	}
}
