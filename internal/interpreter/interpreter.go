// Package interpreter defines the interface for speech recognition and
// answer generation backends.
//
// An interpreter turns an audio file into timed text segments and sends a
// prompt to a chat-completion model. KrishiSahay ships with two backends:
// OpenAI-compatible (Groq by default) and Local (self-hosted Whisper plus
// Ollama or any OpenAI-compatible server).
package interpreter

import (
	"context"
	"errors"
	"strings"
)

// ErrNoChoices is returned when the chat endpoint answers without any completion.
var ErrNoChoices = errors.New("no choices returned from chat API")

// Segment is one timed piece of recognized speech.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// TranscribeResult holds the recognized segments of one audio file, in order.
type TranscribeResult struct {
	Segments []Segment

	// Language is the ISO-639-1 code reported by the recognizer, if any.
	Language string
}

// Text joins the segment texts with single spaces and trims the result.
func (r *TranscribeResult) Text() string {
	return JoinSegments(r.Segments)
}

// JoinSegments concatenates segment texts in order, separated by one space,
// and trims surrounding whitespace. Whitespace inside a segment is kept.
func JoinSegments(segments []Segment) string {
	texts := make([]string, len(segments))
	for i, s := range segments {
		texts[i] = s.Text
	}
	return strings.TrimSpace(strings.Join(texts, " "))
}

// Interpreter is the interface for transcription and chat completion.
type Interpreter interface {
	// Name returns the backend identifier (e.g., "openai", "local").
	Name() string

	// Transcribe reads the audio file at audioPath and returns its segments.
	// A missing or unreadable file is an error.
	Transcribe(ctx context.Context, audioPath string) (*TranscribeResult, error)

	// Complete sends prompt as a single user message and returns the content
	// of the first choice, untrimmed.
	Complete(ctx context.Context, prompt string) (string, error)

	// Close releases any resources held by the interpreter.
	Close() error
}
