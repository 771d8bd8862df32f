package player

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/parlando-tts/parlando/internal/pcm"
)

// otoOutput drives real audio hardware through an oto context fixed to
// the pipeline's wire format: 24kHz mono s16le.
type otoOutput struct {
	mu    sync.Mutex
	ctx   *oto.Context
	ready bool
}

func newOtoOutput() (*otoOutput, error) {
	options := &oto.NewContextOptions{
		SampleRate:   pcm.SampleRate,
		ChannelCount: pcm.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	// Platform-specific buffer sizing; macOS needs more headroom.
	switch runtime.GOOS {
	case "darwin":
		options.BufferSize = 100 * time.Millisecond
	default:
		options.BufferSize = 50 * time.Millisecond
	}

	ctx, readyChan, err := oto.NewContext(options)
	if err != nil {
		return nil, fmt.Errorf("player: creating audio context: %w", err)
	}
	<-readyChan

	return &otoOutput{ctx: ctx, ready: true}, nil
}

func (o *otoOutput) NewPlayer(r io.Reader) (Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return nil, errors.New("player: audio context not ready")
	}
	return &otoHandle{player: o.ctx.NewPlayer(r)}, nil
}

func (o *otoOutput) SampleRate() int   { return pcm.SampleRate }
func (o *otoOutput) ChannelCount() int { return pcm.Channels }

func (o *otoOutput) IsReady() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.ready
}

func (o *otoOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return errors.New("player: audio context not ready")
	}
	return o.ctx.Suspend()
}

func (o *otoOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.ready {
		return errors.New("player: audio context not ready")
	}
	return o.ctx.Resume()
}

func (o *otoOutput) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	// oto contexts cannot be torn down; mark unusable and let the
	// process exit reclaim the device.
	o.ready = false
	return nil
}

type otoHandle struct {
	player *oto.Player
}

func (h *otoHandle) Play()           { h.player.Play() }
func (h *otoHandle) Pause()          { h.player.Pause() }
func (h *otoHandle) IsPlaying() bool { return h.player.IsPlaying() }
func (h *otoHandle) Close() error    { return h.player.Close() }
