package pcm

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
)

func TestEncodeWAVRoundTrip(t *testing.T) {
	payload := make([]byte, 2*SampleRate/10) // 100ms of silence
	buf, err := Decode(payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := EncodeWAV(f, buf, buf); err != nil {
		t.Fatalf("EncodeWAV: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close() //nolint:errcheck

	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		t.Fatal("encoder produced an invalid WAV file")
	}
	if dec.SampleRate != SampleRate {
		t.Errorf("sample rate = %d, want %d", dec.SampleRate, SampleRate)
	}
	if dec.NumChans != Channels {
		t.Errorf("channels = %d, want %d", dec.NumChans, Channels)
	}

	pcmBuf, err := dec.FullPCMBuffer()
	if err != nil {
		t.Fatalf("FullPCMBuffer: %v", err)
	}
	want := 2 * SampleRate / 10 // both buffers, concatenated
	if got := len(pcmBuf.Data); got != want {
		t.Errorf("decoded %d samples, want %d", got, want)
	}
}
