// Package player owns audio output: a process-wide output device context
// and a playback engine that plays decoded buffers back-to-back with
// immediate stop support.
package player

import (
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/log"
)

// Output abstracts the audio output device so the engine can run against
// real hardware or a mock in tests.
type Output interface {
	// NewPlayer creates a device player that consumes s16le PCM from r.
	NewPlayer(r io.Reader) (Handle, error)

	// SampleRate returns the device sample rate.
	SampleRate() int

	// ChannelCount returns the device channel count.
	ChannelCount() int

	// IsReady reports whether the device is usable.
	IsReady() bool

	// Suspend pauses the device context.
	Suspend() error

	// Resume reactivates a suspended device context. Called before every
	// playback session to recover from OS-level audio suspension.
	Resume() error

	// Close releases the device.
	Close() error
}

// Handle is one device player over a single PCM stream.
type Handle interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// The output context is created lazily on first real use and lives for
// the rest of the process.
var (
	defaultOutput     Output
	defaultOutputErr  error
	defaultOutputOnce sync.Once
	defaultOutputMu   sync.Mutex
)

// DefaultOutput returns the process-wide output context, creating it on
// first call. PARLANDO_MOCK_AUDIO=true selects the mock device, which is
// also the fallback when no audio hardware can be opened.
func DefaultOutput() (Output, error) {
	defaultOutputMu.Lock()
	defer defaultOutputMu.Unlock()

	defaultOutputOnce.Do(func() {
		if os.Getenv("PARLANDO_MOCK_AUDIO") == "true" {
			log.Debug("Using mock audio output", "reason", "PARLANDO_MOCK_AUDIO")
			defaultOutput = NewMockOutput()
			return
		}
		out, err := newOtoOutput()
		if err != nil {
			log.Warn("Could not open audio device, falling back to mock output", "error", err)
			defaultOutput = NewMockOutput()
			return
		}
		defaultOutput = out
	})
	return defaultOutput, defaultOutputErr
}

// SetDefaultOutput replaces the process-wide output context. Test use.
func SetDefaultOutput(out Output) {
	defaultOutputMu.Lock()
	defer defaultOutputMu.Unlock()
	defaultOutput = out
	defaultOutputOnce = sync.Once{}
	if out != nil {
		defaultOutputOnce.Do(func() {})
	}
}
