// Package local implements the Interpreter interface using self-hosted models.
//
// It supports any Whisper-compatible transcription endpoint (whisper.cpp
// server, faster-whisper-server, whisper-asr-webservice) and any
// OpenAI-compatible or Ollama chat endpoint. OpenAI-shaped servers are
// reached through go-openai with the base URL pointed at the local host.
package local

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/krishisahay/internal/config"
	"github.com/nadzzz/krishisahay/internal/interpreter"
)

// Interpreter uses self-hosted models for transcription and answers.
type Interpreter struct {
	whisperEndpoint string
	whisperType     string // "openai" or "asr"
	llmEndpoint     string
	llmModel        string
	temperature     float32
	vadFilter       bool
	client          *http.Client
	whisper         *goopenai.Client
	chat            *goopenai.Client
}

// whisperModel is sent to OpenAI-compatible Whisper servers, which mostly
// ignore it or map it to whatever model they loaded.
const whisperModel = "whisper-1"

// openAIClient returns a go-openai client rooted at endpoint with the API
// path suffix stripped, so "http://host:8000/v1/audio/transcriptions" and
// "http://host:8000/v1" address the same server.
func openAIClient(endpoint, suffix string, hc *http.Client) *goopenai.Client {
	cfg := goopenai.DefaultConfig("")
	cfg.BaseURL = strings.TrimSuffix(strings.TrimRight(endpoint, "/"), suffix)
	cfg.HTTPClient = hc
	return goopenai.NewClientWithConfig(cfg)
}

// New creates a new local interpreter from config.
func New(cfg config.LocalConfig) *Interpreter {
	wt := cfg.WhisperType
	if wt == "" {
		wt = "openai"
	}
	model := cfg.LLMModel
	if model == "" {
		model = "llama3.1:8b"
	}
	client := &http.Client{}
	return &Interpreter{
		whisperEndpoint: cfg.WhisperEndpoint,
		whisperType:     wt,
		llmEndpoint:     cfg.LLMEndpoint,
		llmModel:        model,
		temperature:     cfg.Temperature,
		vadFilter:       cfg.VADFilter,
		client:          client,
		whisper:         openAIClient(cfg.WhisperEndpoint, "/audio/transcriptions", client),
		chat:            openAIClient(cfg.LLMEndpoint, "/chat/completions", client),
	}
}

// Name returns the backend identifier.
func (i *Interpreter) Name() string { return "local" }

// Transcribe sends the audio file to the local Whisper endpoint.
// Supports two flavors:
//   - "openai": OpenAI-compatible API (whisper.cpp server, faster-whisper-server)
//   - "asr":    ahmetoner/whisper-asr-webservice (POST /asr with query params)
func (i *Interpreter) Transcribe(ctx context.Context, audioPath string) (*interpreter.TranscribeResult, error) {
	if i.whisperType == "asr" {
		return i.transcribeASR(ctx, audioPath)
	}

	resp, err := i.whisper.CreateTranscription(ctx, goopenai.AudioRequest{
		Model:    whisperModel,
		FilePath: audioPath,
		Format:   goopenai.AudioResponseFormatVerboseJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("local transcription request: %w", err)
	}

	segments := make([]interpreter.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		segments = append(segments, interpreter.Segment{Start: s.Start, End: s.End, Text: s.Text})
	}
	if len(segments) == 0 && resp.Text != "" {
		segments = append(segments, interpreter.Segment{End: resp.Duration, Text: resp.Text})
	}

	slog.Debug("local transcription complete", "segments", len(segments), "language", resp.Language)
	return &interpreter.TranscribeResult{
		Segments: segments,
		Language: resp.Language,
	}, nil
}

// transcribeASR posts to ahmetoner/whisper-asr-webservice, whose /asr route
// takes its options as query parameters and the audio as "audio_file".
func (i *Interpreter) transcribeASR(ctx context.Context, audioPath string) (*interpreter.TranscribeResult, error) {
	audio, err := os.ReadFile(audioPath)
	if err != nil {
		return nil, fmt.Errorf("reading audio: %w", err)
	}

	q := make(url.Values)
	q.Set("task", "transcribe")
	q.Set("output", "json")
	q.Set("encode", "true")
	if i.vadFilter {
		q.Set("vad_filter", "true")
	}
	reqURL := i.whisperEndpoint + "?" + q.Encode()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio_file", filepath.Base(audioPath))
	if err != nil {
		return nil, fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, fmt.Errorf("writing audio: %w", err)
	}
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("local whisper request", "url", reqURL, "bytes", len(audio))

	resp, err := i.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("local transcription request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("local transcription failed (status %d): %s", resp.StatusCode, respBody)
	}

	var result struct {
		Text     string                `json:"text"`
		Language string                `json:"language"`
		Segments []interpreter.Segment `json:"segments"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding transcription: %w", err)
	}

	segments := result.Segments
	if len(segments) == 0 && result.Text != "" {
		segments = []interpreter.Segment{{Text: result.Text}}
	}

	slog.Debug("local transcription complete", "segments", len(segments), "language", result.Language)
	return &interpreter.TranscribeResult{
		Segments: segments,
		Language: result.Language,
	}, nil
}

// Complete sends the prompt to the local LLM endpoint.
// Supports Ollama's /api/generate and OpenAI-compatible /v1/chat/completions.
func (i *Interpreter) Complete(ctx context.Context, prompt string) (string, error) {
	if strings.HasSuffix(i.llmEndpoint, "/api/generate") {
		return i.generate(ctx, prompt)
	}

	resp, err := i.chat.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: i.llmModel,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: i.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", interpreter.ErrNoChoices
	}

	content := resp.Choices[0].Message.Content
	slog.Debug("local completion complete", "model", i.llmModel, "content_length", len(content))
	return content, nil
}

// generate calls Ollama's native /api/generate with streaming disabled.
func (i *Interpreter) generate(ctx context.Context, prompt string) (string, error) {
	bodyBytes, err := json.Marshal(map[string]any{
		"model":   i.llmModel,
		"prompt":  prompt,
		"stream":  false,
		"options": map[string]any{"temperature": i.temperature},
	})
	if err != nil {
		return "", fmt.Errorf("marshalling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.llmEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("local LLM request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("local LLM failed (status %d): %s", resp.StatusCode, respBody)
	}

	var out struct {
		Response *string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decoding LLM response: %w", err)
	}
	if out.Response == nil {
		return "", interpreter.ErrNoChoices
	}

	slog.Debug("local completion complete", "model", i.llmModel, "content_length", len(*out.Response))
	return *out.Response, nil
}

// Close is a no-op for the local interpreter.
func (i *Interpreter) Close() error { return nil }
