// Package openai implements the Interpreter interface on top of any
// OpenAI-compatible API (Groq by default).
//
// It uses the Audio Transcription API (Whisper) with verbose JSON output to
// get timed segments, and the Chat Completions API for answer generation.
package openai

import (
	"context"
	"fmt"
	"log/slog"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/krishisahay/internal/config"
	"github.com/nadzzz/krishisahay/internal/interpreter"
)

// Interpreter uses an OpenAI-compatible API for transcription and answers.
type Interpreter struct {
	client             *goopenai.Client
	transcriptionModel string
	completionModel    string
	temperature        float32
}

// New creates a new OpenAI-compatible interpreter from config.
func New(cfg config.OpenAIConfig) *Interpreter {
	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &Interpreter{
		client:             goopenai.NewClientWithConfig(clientCfg),
		transcriptionModel: cfg.TranscriptionModel,
		completionModel:    cfg.CompletionModel,
		temperature:        cfg.Temperature,
	}
}

// Name returns the backend identifier.
func (i *Interpreter) Name() string { return "openai" }

// Transcribe uploads the audio file and returns the recognized segments.
func (i *Interpreter) Transcribe(ctx context.Context, audioPath string) (*interpreter.TranscribeResult, error) {
	resp, err := i.client.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    i.transcriptionModel,
		FilePath: audioPath,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("transcription request: %w", err)
	}

	segments := make([]interpreter.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, interpreter.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	// Some servers omit segments for very short clips and only return text.
	if len(segments) == 0 && resp.Text != "" {
		segments = append(segments, interpreter.Segment{End: resp.Duration, Text: resp.Text})
	}

	slog.Debug("transcription complete", "segments", len(segments), "language", resp.Language)
	return &interpreter.TranscribeResult{
		Segments: segments,
		Language: resp.Language,
	}, nil
}

// Complete sends the prompt as a single user message to the Chat Completions API.
func (i *Interpreter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := i.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: i.completionModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: i.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", interpreter.ErrNoChoices
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("completion complete", "model", i.completionModel, "content_length", len(content),
		"total_tokens", resp.Usage.TotalTokens)
	return content, nil
}

// Close is a no-op for the OpenAI interpreter.
func (i *Interpreter) Close() error { return nil }
