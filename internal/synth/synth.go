// Package synth turns text chunks into encoded audio payloads by calling
// a remote text-to-speech model.
//
// Chunks are synthesized strictly in order, one request in flight at a
// time, so the remote service sees natural backpressure and payloads come
// back in text order. A chunk for which the model returns no audio is
// skipped, not an error; transport and API failures abort the whole
// exchange and are classified into a small user-facing taxonomy.
package synth

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/time/rate"

	"github.com/parlando-tts/parlando/internal/textproc"
)

// Payload is the outcome of synthesizing one chunk: either encoded audio
// bytes or nothing. "No audio" is a first-class value, not a nil
// convention, because the remote model may legitimately produce no output
// for degenerate input.
type Payload struct {
	data []byte
}

// NoAudio is the payload of a chunk that produced no sound.
func NoAudio() Payload { return Payload{} }

// Audio wraps encoded audio bytes in a payload.
func Audio(data []byte) Payload { return Payload{data: data} }

// Bytes returns the audio data and whether any is present.
func (p Payload) Bytes() ([]byte, bool) { return p.data, len(p.data) > 0 }

// Empty reports whether the payload carries no audio.
func (p Payload) Empty() bool { return len(p.data) == 0 }

// Synthesizer is a single-chunk text-to-speech backend.
type Synthesizer interface {
	// Name identifies the backend in logs and errors.
	Name() string

	// Synthesize converts text to an encoded audio payload. Returning
	// NoAudio with a nil error means the model produced nothing for
	// this text, which callers treat as a skip.
	Synthesize(ctx context.Context, text string) (Payload, error)
}

// DefaultRequestsPerSecond paces sequential synthesis requests. The
// remote service rate-limits aggressively; two requests a second keeps a
// long document comfortably under the ceiling.
const DefaultRequestsPerSecond = 2

// Client drives a Synthesizer over an ordered chunk sequence. Audio for
// repeated chunk text is served from an in-memory LRU instead of a
// second remote call.
type Client struct {
	engine  Synthesizer
	limiter *rate.Limiter
	cache   *payloadCache
}

// NewClient returns a client for the given backend. requestsPerSecond
// limits the pace of remote calls; zero or less selects the default.
func NewClient(engine Synthesizer, requestsPerSecond float64) *Client {
	if requestsPerSecond <= 0 {
		requestsPerSecond = DefaultRequestsPerSecond
	}
	return &Client{
		engine:  engine,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), 1),
		cache:   newPayloadCache(DefaultCacheCapacity),
	}
}

// SynthesizeAll synthesizes every chunk in order and returns the audio
// payloads that were produced, preserving chunk order. Chunks that are
// empty after re-sanitization or for which the model returns no audio
// contribute nothing. Any transport or API error aborts the exchange and
// is returned classified via Classify.
func (c *Client) SynthesizeAll(ctx context.Context, chunks []textproc.Chunk) ([][]byte, error) {
	payloads := make([][]byte, 0, len(chunks))

	for _, chunk := range chunks {
		// The chunker normally receives sanitized text already, but
		// chunks can also arrive from other producers.
		text := textproc.Sanitize(chunk.Text)
		if strings.TrimSpace(text) == "" {
			log.Debug("Skipping empty chunk", "chunk", chunk.Index)
			continue
		}

		key := cacheKey(c.engine.Name(), text)
		if data, ok := c.cache.get(key); ok {
			log.Debug("Chunk served from cache", "chunk", chunk.Index, "audio", humanize.Bytes(uint64(len(data))))
			payloads = append(payloads, data)
			continue
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, Classify(err)
		}

		start := time.Now()
		payload, err := c.engine.Synthesize(ctx, text)
		if err != nil {
			log.Error("Synthesis failed", "engine", c.engine.Name(), "chunk", chunk.Index, "error", err)
			return nil, Classify(err)
		}

		data, ok := payload.Bytes()
		if !ok {
			log.Warn("No audio returned for chunk", "engine", c.engine.Name(), "chunk", chunk.Index)
			continue
		}

		log.Debug("Chunk synthesized",
			"engine", c.engine.Name(),
			"chunk", chunk.Index,
			"textLen", len(text),
			"audio", humanize.Bytes(uint64(len(data))),
			"took", time.Since(start))

		c.cache.put(key, data)
		payloads = append(payloads, data)
	}

	return payloads, nil
}
