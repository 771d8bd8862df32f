package synth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Defaults for the Gemini speech backend.
const (
	DefaultGeminiModel = "gemini-2.5-flash-preview-tts"
	DefaultGeminiVoice = "Kore"

	geminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	geminiTimeout = 90 * time.Second
)

// GeminiConfig configures the Gemini backend.
type GeminiConfig struct {
	APIKey string
	Model  string
	Voice  string

	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Gemini synthesizes speech through the generateContent REST endpoint
// with an audio response modality.
type Gemini struct {
	cfg    GeminiConfig
	client *http.Client
}

// NewGemini returns a Gemini backend. A missing API key is a hard
// precondition failure: no request will ever succeed without one.
func NewGemini(cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingCredential
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	if cfg.Voice == "" {
		cfg.Voice = DefaultGeminiVoice
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = geminiBaseURL
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: geminiTimeout}
	}
	return &Gemini{cfg: cfg, client: client}, nil
}

// Name implements Synthesizer.
func (g *Gemini) Name() string { return "gemini" }

// Request and response shapes for generateContent. Only the fields this
// client touches are modeled; the inline audio payload is a typed field,
// not a dynamic lookup, so "no audio" surfaces as an absent part rather
// than a nil-chain fallthrough.
type geminiRequest struct {
	Contents         []geminiContent        `json:"contents"`
	GenerationConfig geminiGenerationConfig `json:"generationConfig"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inlineData,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"` // base64 on the wire
}

type geminiGenerationConfig struct {
	ResponseModalities []string           `json:"responseModalities"`
	SpeechConfig       *geminiSpeechConfig `json:"speechConfig,omitempty"`
}

type geminiSpeechConfig struct {
	VoiceConfig geminiVoiceConfig `json:"voiceConfig"`
}

type geminiVoiceConfig struct {
	PrebuiltVoiceConfig geminiPrebuiltVoice `json:"prebuiltVoiceConfig"`
}

type geminiPrebuiltVoice struct {
	VoiceName string `json:"voiceName"`
}

type geminiResponse struct {
	Candidates []geminiCandidate `json:"candidates"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

// firstAudioPayload returns the first inline audio payload among the
// response candidates, or NoAudio when none is present.
func (r *geminiResponse) firstAudioPayload() Payload {
	for _, cand := range r.Candidates {
		for _, part := range cand.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return Audio(part.InlineData.Data)
			}
		}
	}
	return NoAudio()
}

// Synthesize implements Synthesizer.
func (g *Gemini) Synthesize(ctx context.Context, text string) (Payload, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: text}}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &geminiSpeechConfig{
				VoiceConfig: geminiVoiceConfig{
					PrebuiltVoiceConfig: geminiPrebuiltVoice{VoiceName: g.cfg.Voice},
				},
			},
		},
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return NoAudio(), fmt.Errorf("gemini: encoding request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.cfg.BaseURL, g.cfg.Model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return NoAudio(), fmt.Errorf("gemini: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.cfg.APIKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return NoAudio(), fmt.Errorf("gemini: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return NoAudio(), fmt.Errorf("gemini: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return NoAudio(), fmt.Errorf("gemini: decoding response: %w", err)
	}

	payload := parsed.firstAudioPayload()
	if payload.Empty() {
		log.Debug("Gemini response carried no audio part", "model", g.cfg.Model)
	}
	return payload, nil
}
