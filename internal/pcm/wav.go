package pcm

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// EncodeWAV writes the buffers to w as a single 16-bit PCM WAV stream,
// concatenated in order. The writer must support seeking because the WAV
// header is finalized on close.
func EncodeWAV(w io.WriteSeeker, bufs ...*Buffer) error {
	enc := wav.NewEncoder(w, SampleRate, BitDepth, Channels, 1)

	for _, b := range bufs {
		if b == nil || len(b.Samples) == 0 {
			continue
		}
		data := make([]int, len(b.Samples))
		for i, s := range b.Samples {
			v := s * 32767.0
			if v > 32767 {
				v = 32767
			} else if v < -32768 {
				v = -32768
			}
			data[i] = int(v)
		}
		ib := &audio.IntBuffer{
			Format:         &audio.Format{NumChannels: Channels, SampleRate: SampleRate},
			Data:           data,
			SourceBitDepth: BitDepth,
		}
		if err := enc.Write(ib); err != nil {
			return fmt.Errorf("pcm: writing wav data: %w", err)
		}
	}

	if err := enc.Close(); err != nil {
		return fmt.Errorf("pcm: finalizing wav: %w", err)
	}
	return nil
}
