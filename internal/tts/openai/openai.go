// Package openai implements the TTS Synthesizer using the OpenAI speech API.
package openai

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/krishisahay/internal/config"
	"github.com/nadzzz/krishisahay/internal/tts"
)

// languages the multilingual OpenAI voices handle well enough for answers.
var languages = map[string]bool{"en": true, "hi": true, "te": true}

// Synthesizer implements tts.Synthesizer with CreateSpeech.
type Synthesizer struct {
	client *goopenai.Client
	model  goopenai.SpeechModel
	voice  goopenai.SpeechVoice
}

// New creates a new OpenAI speech synthesizer from config.
func New(cfg config.OpenAISpeechConfig) *Synthesizer {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Synthesizer{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  goopenai.SpeechModel(cfg.Model),
		voice:  goopenai.SpeechVoice(cfg.Voice),
	}
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "openai" }

// Synthesize requests MP3 speech for text. The voice is multilingual; the
// language code only gates which languages are accepted.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if !languages[opts.Language] {
		return nil, fmt.Errorf("%w: %q", tts.ErrUnsupportedLanguage, opts.Language)
	}
	resp, err := s.client.CreateSpeech(ctx, goopenai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          s.voice,
		ResponseFormat: goopenai.SpeechResponseFormatMp3,
	})
	if err != nil {
		return nil, fmt.Errorf("speech request: %w", err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		return nil, fmt.Errorf("reading speech: %w", err)
	}

	slog.Debug("openai speech complete", "audio_bytes", len(audio), "language", opts.Language)
	return &tts.SynthesizeResult{Audio: audio, ContentType: "audio/mpeg"}, nil
}

// Close is a no-op for the OpenAI synthesizer.
func (s *Synthesizer) Close() error { return nil }
