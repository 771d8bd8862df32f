// Package pcm decodes the raw audio payloads returned by the synthesis
// API into playback-ready sample buffers.
//
// The remote model returns linear PCM: little-endian signed 16-bit
// samples, 24000 Hz, mono. Samples are normalized to the [-1, 1] float
// range on decode and re-encoded to s16le only at the output device
// boundary.
package pcm

import (
	"encoding/binary"
	"errors"
	"math"
	"time"

	"github.com/charmbracelet/log"
)

// Audio format of the synthesis API output.
const (
	SampleRate     = 24000
	Channels       = 1
	BitDepth       = 16
	BytesPerSample = BitDepth / 8
)

// ErrNoData reports an empty payload. Distinct from a malformed one: the
// remote model may legitimately return nothing for degenerate input.
var ErrNoData = errors.New("pcm: empty audio payload")

// Buffer holds decoded audio for one chunk, ready for playback.
type Buffer struct {
	SampleRate int
	Channels   int
	Samples    []float32
}

// Decode interprets payload as little-endian signed 16-bit PCM and
// returns a normalized buffer. A trailing partial sample is truncated;
// this is deterministic and logged, not an error, so one slightly short
// payload cannot forfeit the rest of an utterance.
func Decode(payload []byte) (*Buffer, error) {
	if len(payload) == 0 {
		return nil, ErrNoData
	}
	if len(payload)%BytesPerSample != 0 {
		log.Warn("Truncating partial trailing sample", "payloadBytes", len(payload))
		payload = payload[:len(payload)-len(payload)%BytesPerSample]
		if len(payload) == 0 {
			return nil, ErrNoData
		}
	}

	samples := make([]float32, len(payload)/BytesPerSample)
	for i := range samples {
		s := int16(binary.LittleEndian.Uint16(payload[i*BytesPerSample:]))
		samples[i] = float32(s) / 32768.0
	}

	return &Buffer{
		SampleRate: SampleRate,
		Channels:   Channels,
		Samples:    samples,
	}, nil
}

// Duration returns the playback time of the buffer at its native rate.
func (b *Buffer) Duration() time.Duration {
	if b.SampleRate == 0 || len(b.Samples) == 0 {
		return 0
	}
	frames := len(b.Samples) / b.Channels
	return time.Duration(frames) * time.Second / time.Duration(b.SampleRate)
}

// PCM16 re-encodes the samples as little-endian signed 16-bit bytes for
// the output device.
func (b *Buffer) PCM16() []byte {
	out := make([]byte, len(b.Samples)*BytesPerSample)
	for i, s := range b.Samples {
		v := s * 32767.0
		if v > 32767 {
			v = 32767
		} else if v < -32768 {
			v = -32768
		}
		binary.LittleEndian.PutUint16(out[i*BytesPerSample:], uint16(int16(v)))
	}
	return out
}

// Resample returns a copy of the buffer time-compressed or stretched by
// rate using linear interpolation: rate 2.0 halves the sample count so
// the audio plays twice as fast at the fixed device rate. A rate of 1.0
// (or an invalid one) returns the buffer unchanged.
func (b *Buffer) Resample(rate float64) *Buffer {
	if rate <= 0 || math.Abs(rate-1.0) < 1e-9 || len(b.Samples) < 2 {
		return b
	}

	outLen := int(float64(len(b.Samples)) / rate)
	if outLen < 1 {
		outLen = 1
	}

	out := make([]float32, outLen)
	for i := range out {
		pos := float64(i) * rate
		idx := int(pos)
		if idx >= len(b.Samples)-1 {
			out[i] = b.Samples[len(b.Samples)-1]
			continue
		}
		frac := float32(pos - float64(idx))
		out[i] = b.Samples[idx]*(1-frac) + b.Samples[idx+1]*frac
	}

	return &Buffer{SampleRate: b.SampleRate, Channels: b.Channels, Samples: out}
}
