package synth

import (
	"context"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Defaults for the OpenAI speech backend.
const (
	DefaultOpenAIModel = "tts-1"
	DefaultOpenAIVoice = "nova"
)

// OpenAI synthesizes speech through the OpenAI speech endpoint. The PCM
// response format matches the pipeline's native wire format: 24kHz mono
// signed 16-bit little-endian.
type OpenAI struct {
	client *openai.Client
	model  string
	voice  string
}

// NewOpenAI returns an OpenAI backend, or ErrMissingCredential when no
// key is configured.
func NewOpenAI(apiKey, model, voice string) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingCredential
	}
	if model == "" {
		model = DefaultOpenAIModel
	}
	if voice == "" {
		voice = DefaultOpenAIVoice
	}
	return &OpenAI{
		client: openai.NewClient(apiKey),
		model:  model,
		voice:  voice,
	}, nil
}

// Name implements Synthesizer.
func (o *OpenAI) Name() string { return "openai" }

// Synthesize implements Synthesizer.
func (o *OpenAI) Synthesize(ctx context.Context, text string) (Payload, error) {
	resp, err := o.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(o.model),
		Input:          text,
		Voice:          openai.SpeechVoice(o.voice),
		ResponseFormat: openai.SpeechResponseFormatPcm,
	})
	if err != nil {
		return NoAudio(), fmt.Errorf("openai: speech request failed: %w", err)
	}
	defer resp.Close()

	data, err := io.ReadAll(resp)
	if err != nil {
		return NoAudio(), fmt.Errorf("openai: reading audio data: %w", err)
	}
	if len(data) == 0 {
		return NoAudio(), nil
	}
	return Audio(data), nil
}
