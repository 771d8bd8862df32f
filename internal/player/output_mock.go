package player

import (
	"errors"
	"io"
	"sync"
	"time"

	"github.com/parlando-tts/parlando/internal/pcm"
)

// DefaultMockPlayDuration is the simulated playback time per buffer.
// Kept tiny so tests and audio-less environments run fast.
const DefaultMockPlayDuration = 2 * time.Millisecond

// MockOutput is an Output for tests and machines without audio hardware.
// Each player "plays" for a fixed simulated duration instead of real time.
type MockOutput struct {
	mu      sync.Mutex
	players []*MockHandle
	ready   bool

	// PlayDuration is the simulated playback time per buffer.
	PlayDuration time.Duration
}

// NewMockOutput returns a ready mock output device.
func NewMockOutput() *MockOutput {
	return &MockOutput{ready: true, PlayDuration: DefaultMockPlayDuration}
}

// NewPlayer implements Output. It consumes the reader eagerly so tests
// can inspect exactly what would have reached the device.
func (m *MockOutput) NewPlayer(r io.Reader) (Handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.ready {
		return nil, errors.New("player: mock output closed")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	h := &MockHandle{data: data, duration: m.PlayDuration}
	m.players = append(m.players, h)
	return h, nil
}

func (m *MockOutput) SampleRate() int   { return pcm.SampleRate }
func (m *MockOutput) ChannelCount() int { return pcm.Channels }

func (m *MockOutput) IsReady() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ready
}

func (m *MockOutput) Suspend() error { return nil }
func (m *MockOutput) Resume() error  { return nil }

func (m *MockOutput) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ready = false
	return nil
}

// Players returns every player created so far, in creation order.
func (m *MockOutput) Players() []*MockHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MockHandle, len(m.players))
	copy(out, m.players)
	return out
}

// MockHandle simulates one device player.
type MockHandle struct {
	mu       sync.Mutex
	data     []byte
	duration time.Duration
	started  time.Time
	playing  bool
	paused   bool
	closed   bool
}

// Play implements Handle.
func (h *MockHandle) Play() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	if !h.playing {
		h.started = time.Now()
	}
	h.playing = true
	h.paused = false
}

// Pause implements Handle.
func (h *MockHandle) Pause() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.paused = true
}

// IsPlaying implements Handle. Simulated playback completes once the
// configured duration has elapsed.
func (h *MockHandle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if !h.playing || h.paused || h.closed {
		return false
	}
	return time.Since(h.started) < h.duration
}

// Close implements Handle.
func (h *MockHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.playing = false
	return nil
}

// Data returns the PCM bytes this player was given.
func (h *MockHandle) Data() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.data
}

// Started reports whether Play was ever called.
func (h *MockHandle) Started() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.playing || h.paused || !h.started.IsZero()
}

// Completed reports whether simulated playback ran to its natural end
// without being paused.
func (h *MockHandle) Completed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.started.IsZero() && !h.paused && time.Since(h.started) >= h.duration
}
