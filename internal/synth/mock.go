package synth

import (
	"context"
	"sync"
)

// Mock is a Synthesizer for tests. By default every call returns a small
// deterministic PCM payload derived from the text length.
type Mock struct {
	mu    sync.Mutex
	calls []string

	// SynthesizeFunc overrides the canned behavior when set.
	SynthesizeFunc func(ctx context.Context, text string) (Payload, error)
}

// NewMock returns a mock backend.
func NewMock() *Mock { return &Mock{} }

// Name implements Synthesizer.
func (m *Mock) Name() string { return "mock" }

// Synthesize implements Synthesizer.
func (m *Mock) Synthesize(ctx context.Context, text string) (Payload, error) {
	m.mu.Lock()
	m.calls = append(m.calls, text)
	fn := m.SynthesizeFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, text)
	}

	// Two bytes of PCM per input rune keeps payloads sample-aligned.
	data := make([]byte, 2*len([]rune(text)))
	for i := range data {
		data[i] = byte(i % 7)
	}
	return Audio(data), nil
}

// Calls returns the texts synthesized so far, in order.
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}
