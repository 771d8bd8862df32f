package player

import (
	"bytes"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/parlando-tts/parlando/internal/pcm"
)

func fastEngine(t *testing.T, out *MockOutput) *Engine {
	t.Helper()
	e := NewEngine(out)
	e.SetPollInterval(time.Millisecond)
	return e
}

func testBuffer(t *testing.T, sample int16) *pcm.Buffer {
	t.Helper()
	payload := make([]byte, 0, 2*pcm.SampleRate/100)
	for i := 0; i < pcm.SampleRate/100; i++ {
		payload = append(payload, byte(sample), byte(sample>>8))
	}
	buf, err := pcm.Decode(payload)
	if err != nil {
		t.Fatalf("decode test payload: %v", err)
	}
	return buf
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestEngineNoBuffers(t *testing.T) {
	e := fastEngine(t, NewMockOutput())
	if err := e.EnqueueAndPlay(nil, 1.0, nil); !errors.Is(err, ErrNoBuffers) {
		t.Fatalf("EnqueueAndPlay(nil) err = %v, want ErrNoBuffers", err)
	}
}

func TestEnginePlaysBuffersInOrder(t *testing.T) {
	out := NewMockOutput()
	e := fastEngine(t, out)

	bufs := []*pcm.Buffer{testBuffer(t, 100), testBuffer(t, 200), testBuffer(t, 300)}
	done := make(chan struct{})
	if err := e.EnqueueAndPlay(bufs, 1.0, func() { close(done) }); err != nil {
		t.Fatalf("EnqueueAndPlay: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("onFinished never fired")
	}

	players := out.Players()
	if len(players) != len(bufs) {
		t.Fatalf("created %d device players, want %d", len(players), len(bufs))
	}
	for i, p := range players {
		if !bytes.Equal(p.Data(), bufs[i].PCM16()) {
			t.Errorf("player %d received wrong samples", i)
		}
		if !p.Completed() {
			t.Errorf("player %d did not finish its buffer", i)
		}
	}
	if e.IsPlaying() {
		t.Error("IsPlaying() = true after session completed")
	}
}

func TestEngineStopWhenIdle(t *testing.T) {
	e := fastEngine(t, NewMockOutput())
	if err := e.Stop(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("Stop() on idle engine err = %v, want ErrNotPlaying", err)
	}
}

func TestEngineStopMidSession(t *testing.T) {
	out := NewMockOutput()
	out.PlayDuration = time.Hour // nothing completes naturally
	e := fastEngine(t, out)

	var finished atomic.Int32
	bufs := []*pcm.Buffer{testBuffer(t, 100), testBuffer(t, 200), testBuffer(t, 300)}
	if err := e.EnqueueAndPlay(bufs, 1.0, func() { finished.Add(1) }); err != nil {
		t.Fatalf("EnqueueAndPlay: %v", err)
	}

	waitFor(t, func() bool {
		players := out.Players()
		return len(players) > 0 && players[0].Started()
	})

	if err := e.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}

	players := out.Players()
	if len(players) != 1 {
		t.Fatalf("created %d device players, want 1 (later buffers must not play)", len(players))
	}
	if players[0].Completed() {
		t.Error("stopped buffer reported as completed")
	}
	if got := finished.Load(); got != 1 {
		t.Errorf("onFinished fired %d times, want 1", got)
	}
	if e.IsPlaying() {
		t.Error("IsPlaying() = true after Stop")
	}

	// A second Stop finds nothing active and must not refire the callback.
	if err := e.Stop(); !errors.Is(err, ErrNotPlaying) {
		t.Fatalf("second Stop() err = %v, want ErrNotPlaying", err)
	}
	if got := finished.Load(); got != 1 {
		t.Errorf("onFinished fired %d times after second Stop, want 1", got)
	}
}

func TestEngineEnqueueReplacesActiveSession(t *testing.T) {
	out := NewMockOutput()
	out.PlayDuration = time.Hour
	e := fastEngine(t, out)

	var firstFinished atomic.Int32
	first := []*pcm.Buffer{testBuffer(t, 100), testBuffer(t, 200)}
	if err := e.EnqueueAndPlay(first, 1.0, func() { firstFinished.Add(1) }); err != nil {
		t.Fatalf("EnqueueAndPlay(first): %v", err)
	}
	waitFor(t, func() bool {
		players := out.Players()
		return len(players) > 0 && players[0].Started()
	})

	out.PlayDuration = DefaultMockPlayDuration
	done := make(chan struct{})
	second := []*pcm.Buffer{testBuffer(t, 300)}
	if err := e.EnqueueAndPlay(second, 1.0, func() { close(done) }); err != nil {
		t.Fatalf("EnqueueAndPlay(second): %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("second session never finished")
	}

	waitFor(t, func() bool { return firstFinished.Load() == 1 })

	players := out.Players()
	if len(players) != 2 {
		t.Fatalf("created %d device players, want 2", len(players))
	}
	if !bytes.Equal(players[1].Data(), second[0].PCM16()) {
		t.Error("second session played wrong samples")
	}
}

func TestEngineRateResamplesAudio(t *testing.T) {
	out := NewMockOutput()
	e := fastEngine(t, out)

	buf := testBuffer(t, 100)
	done := make(chan struct{})
	if err := e.EnqueueAndPlay([]*pcm.Buffer{buf}, 2.0, func() { close(done) }); err != nil {
		t.Fatalf("EnqueueAndPlay: %v", err)
	}
	<-done

	players := out.Players()
	if len(players) != 1 {
		t.Fatalf("created %d device players, want 1", len(players))
	}
	want := len(buf.Resample(2.0).PCM16())
	if got := len(players[0].Data()); got != want {
		t.Errorf("device received %d bytes at rate 2.0, want %d", got, want)
	}
}
