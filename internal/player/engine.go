package player

import (
	"bytes"
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/parlando-tts/parlando/internal/pcm"
)

// ErrNotPlaying is returned by Stop when no session is active.
var ErrNotPlaying = errors.New("player: nothing is playing")

// ErrNoBuffers is returned when a session is started with no audio.
var ErrNoBuffers = errors.New("player: no buffers to play")

// defaultPollInterval is how often a session checks the device for
// natural buffer completion. Stop does not wait for a poll: it halts the
// device player directly.
const defaultPollInterval = 10 * time.Millisecond

// Engine owns the playback queue. At most one session is active at a
// time; starting a new one replaces the queue wholesale. Buffers play
// strictly in order, each exactly once, until the queue is exhausted or
// the session is stopped.
type Engine struct {
	output Output
	poll   time.Duration

	mu      sync.Mutex
	current *session
}

// NewEngine returns an engine playing through the given output device.
func NewEngine(output Output) *Engine {
	return &Engine{output: output, poll: defaultPollInterval}
}

// SetPollInterval tunes the completion poll. Test use.
func (e *Engine) SetPollInterval(d time.Duration) {
	if d > 0 {
		e.poll = d
	}
}

// EnqueueAndPlay replaces the queue with bufs and starts playing them in
// order at the given rate. The rate is fixed for the whole session.
// onFinished is invoked exactly once: after the last buffer completes
// naturally, or when the session is stopped or fails.
func (e *Engine) EnqueueAndPlay(bufs []*pcm.Buffer, rate float64, onFinished func()) error {
	if len(bufs) == 0 {
		return ErrNoBuffers
	}
	if rate <= 0 {
		rate = 1.0
	}

	// Replacing the queue stops whatever was playing before.
	_ = e.Stop()

	if err := e.output.Resume(); err != nil {
		log.Debug("Audio output resume failed", "error", err)
	}

	s := &session{
		id:         uuid.NewString(),
		engine:     e,
		queue:      bufs,
		rate:       rate,
		onFinished: onFinished,
		done:       make(chan struct{}),
	}

	e.mu.Lock()
	e.current = s
	e.mu.Unlock()

	log.Debug("Playback session started", "session", s.id, "buffers", len(bufs), "rate", rate)
	go s.run()
	return nil
}

// Stop halts the active session immediately: the playing device player is
// paused at once, the queue is cleared, and the session's finish callback
// fires. Returns ErrNotPlaying when no session is active.
func (e *Engine) Stop() error {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()

	if s == nil {
		return ErrNotPlaying
	}
	s.stop()
	<-s.done
	return nil
}

// IsPlaying reports whether a session is active.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current != nil
}

// Wait blocks until the active session ends. Returns immediately when
// nothing is playing.
func (e *Engine) Wait() {
	e.mu.Lock()
	s := e.current
	e.mu.Unlock()
	if s != nil {
		<-s.done
	}
}

func (e *Engine) clearSession(s *session) {
	e.mu.Lock()
	if e.current == s {
		e.current = nil
	}
	e.mu.Unlock()
}

// session is one EnqueueAndPlay invocation. Its goroutine owns the queue
// and the active device player; the only outside influence is the
// stopping flag, checked at every auto-advance boundary.
type session struct {
	id         string
	engine     *Engine
	queue      []*pcm.Buffer
	rate       float64
	onFinished func()

	mu       sync.Mutex
	stopping bool
	active   Handle

	finishOnce sync.Once
	done       chan struct{}
}

func (s *session) run() {
	defer s.finish()

	for i, buf := range s.queue {
		if s.stopped() {
			return
		}

		data := buf.Resample(s.rate).PCM16()
		handle, err := s.engine.output.NewPlayer(bytes.NewReader(data))
		if err != nil {
			log.Error("Could not create device player", "session", s.id, "buffer", i, "error", err)
			return
		}

		if !s.setActive(handle) {
			// Stopped between the check above and player creation.
			_ = handle.Close()
			return
		}

		handle.Play()
		s.waitForCompletion(handle)
		s.clearActive()
		_ = handle.Close()

		if s.stopped() {
			log.Debug("Playback session stopped", "session", s.id, "afterBuffer", i)
			return
		}
	}

	log.Debug("Playback session completed", "session", s.id, "buffers", len(s.queue))
}

// waitForCompletion polls the device until the buffer has drained or the
// session is stopped.
func (s *session) waitForCompletion(handle Handle) {
	ticker := time.NewTicker(s.engine.poll)
	defer ticker.Stop()

	for range ticker.C {
		if s.stopped() || !handle.IsPlaying() {
			return
		}
	}
}

// stop sets the stopping flag and halts the active device player. Safe to
// call more than once.
func (s *session) stop() {
	s.mu.Lock()
	s.stopping = true
	active := s.active
	s.mu.Unlock()

	if active != nil {
		active.Pause()
	}
}

func (s *session) stopped() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopping
}

// setActive registers the device player for the stop path. Returns false
// when the session is already stopping.
func (s *session) setActive(handle Handle) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopping {
		return false
	}
	s.active = handle
	return true
}

func (s *session) clearActive() {
	s.mu.Lock()
	s.active = nil
	s.mu.Unlock()
}

// finish clears the queue, detaches from the engine, and fires the
// completion callback. Runs exactly once per session.
func (s *session) finish() {
	s.finishOnce.Do(func() {
		s.queue = nil
		s.engine.clearSession(s)
		close(s.done)
		if s.onFinished != nil {
			s.onFinished()
		}
	})
}
