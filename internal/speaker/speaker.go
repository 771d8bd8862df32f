// Package speaker ties the pipeline together: it sanitizes and chunks
// text, synthesizes each chunk, decodes the audio, and hands the decoded
// buffers to the playback engine. One utterance is in flight at a time;
// speaking again replaces whatever is loading or playing.
package speaker

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/parlando-tts/parlando/internal/pcm"
	"github.com/parlando-tts/parlando/internal/player"
	"github.com/parlando-tts/parlando/internal/synth"
	"github.com/parlando-tts/parlando/internal/textproc"
)

// ErrNotSpeaking is returned by Stop when nothing is loading or playing.
var ErrNotSpeaking = errors.New("speaker: not speaking")

// DefaultPlaybackRate plays audio at the synthesized speed.
const DefaultPlaybackRate = 1.0

type state int

const (
	stateIdle state = iota
	stateLoading
	statePlaying
	stateError
)

// Options control a single Speak call.
type Options struct {
	// OnEnd is invoked exactly once when the utterance finishes: after
	// the last buffer plays, on stop, on failure, or immediately when
	// the text is empty. May be nil.
	OnEnd func()

	// PlaybackRate scales playback speed. Values <= 0 mean 1.0. The
	// rate is fixed for the whole utterance.
	PlaybackRate float64
}

// Speaker orchestrates synthesis and playback of one utterance at a time.
type Speaker struct {
	client *synth.Client
	engine *player.Engine

	mu     sync.Mutex
	state  state
	err    error
	cancel context.CancelFunc
	gen    uint64
}

// New returns a speaker that synthesizes with client and plays through
// engine.
func New(client *synth.Client, engine *player.Engine) *Speaker {
	return &Speaker{client: client, engine: engine}
}

// Speak synthesizes and plays text asynchronously, replacing any
// utterance currently loading or playing. Whitespace-only input fires
// OnEnd immediately without touching the audio device.
func (s *Speaker) Speak(text string, opts Options) {
	s.interrupt()

	onEnd := onceFunc(opts.OnEnd)
	rate := opts.PlaybackRate
	if rate <= 0 {
		rate = DefaultPlaybackRate
	}

	sanitized := textproc.Sanitize(text)
	if strings.TrimSpace(sanitized) == "" {
		log.Debug("Nothing to speak")
		onEnd()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = stateLoading
	s.err = nil
	s.cancel = cancel
	s.mu.Unlock()

	go s.load(ctx, gen, sanitized, rate, onEnd)
}

// Stop halts the current utterance: an in-flight synthesis is canceled,
// a playing session is cut off immediately, and the utterance's OnEnd
// fires. Returns ErrNotSpeaking when nothing is loading or playing.
func (s *Speaker) Stop() error {
	busy := s.interrupt()
	if !busy {
		return ErrNotSpeaking
	}
	return nil
}

// interrupt cancels the current utterance and reports whether one was
// loading or playing.
func (s *Speaker) interrupt() bool {
	s.mu.Lock()
	s.gen++
	busy := s.state == stateLoading || s.state == statePlaying
	s.state = stateIdle
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if err := s.engine.Stop(); err != nil && !errors.Is(err, player.ErrNotPlaying) {
		log.Error("Could not stop playback", "error", err)
	}
	return busy
}

// IsLoading reports whether synthesis is in progress.
func (s *Speaker) IsLoading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == stateLoading
}

// IsPlaying reports whether audio is playing.
func (s *Speaker) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == statePlaying
}

// Err returns the failure of the most recent utterance, or nil. Cleared
// by the next Speak call.
func (s *Speaker) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Wait blocks until the current utterance finishes playing. Loading is
// not waited on; callers watching for the end of an utterance should use
// Options.OnEnd instead.
func (s *Speaker) Wait() {
	s.engine.Wait()
}

func (s *Speaker) load(ctx context.Context, gen uint64, text string, rate float64, onEnd func()) {
	chunks := textproc.Split(text, textproc.DefaultMaxChunkLen)
	payloads, err := s.client.SynthesizeAll(ctx, chunks)
	if err != nil {
		if ctx.Err() != nil {
			// Stopped while loading. Not a failure.
			log.Debug("Synthesis canceled")
			onEnd()
			return
		}
		log.Error("Synthesis failed", "error", err)
		s.fail(gen, err)
		onEnd()
		return
	}

	bufs := decodeAll(payloads)
	if len(bufs) == 0 {
		log.Warn("Synthesis produced no playable audio")
		s.settle(gen, stateIdle)
		onEnd()
		return
	}

	s.mu.Lock()
	if gen != s.gen {
		// A newer Speak or Stop superseded this utterance.
		s.mu.Unlock()
		onEnd()
		return
	}
	s.state = statePlaying
	err = s.engine.EnqueueAndPlay(bufs, rate, func() {
		s.settle(gen, stateIdle)
		onEnd()
	})
	s.mu.Unlock()

	if err != nil {
		log.Error("Could not start playback", "error", err)
		s.fail(gen, err)
		onEnd()
	}
}

// decodeAll decodes every payload concurrently, preserving chunk order.
// Payloads that fail to decode are skipped so one bad chunk does not
// silence the rest of the utterance.
func decodeAll(payloads [][]byte) []*pcm.Buffer {
	decoded := make([]*pcm.Buffer, len(payloads))

	var wg sync.WaitGroup
	for i, payload := range payloads {
		wg.Add(1)
		go func(i int, payload []byte) {
			defer wg.Done()
			buf, err := pcm.Decode(payload)
			if err != nil {
				log.Warn("Skipping undecodable chunk", "chunk", i, "error", err)
				return
			}
			decoded[i] = buf
		}(i, payload)
	}
	wg.Wait()

	bufs := make([]*pcm.Buffer, 0, len(decoded))
	for _, buf := range decoded {
		if buf != nil {
			bufs = append(bufs, buf)
		}
	}
	return bufs
}

// settle moves to next if this utterance is still the current one.
func (s *Speaker) settle(gen uint64, next state) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.state = next
	s.cancel = nil
}

func (s *Speaker) fail(gen uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return
	}
	s.state = stateError
	s.err = err
	s.cancel = nil
}

// onceFunc wraps fn so it runs at most once, tolerating nil.
func onceFunc(fn func()) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if fn != nil {
				fn()
			}
		})
	}
}
