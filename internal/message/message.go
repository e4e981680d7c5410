// Package message defines the core data types flowing through the krishisahay pipeline.
package message

import (
	"encoding/base64"
	"strings"
)

// Language pairs a human-readable label with the two-letter code sent to
// the language model and the speech synthesizer.
type Language struct {
	Label string `json:"label"`
	Code  string `json:"code"`
}

// Languages is the closed set of supported answer languages, in display order.
var Languages = []Language{
	{Label: "English", Code: "en"},
	{Label: "Hindi", Code: "hi"},
	{Label: "Telugu", Code: "te"},
}

// Default is used whenever a selection is missing or invalid.
var Default = Languages[0]

// ParseCode looks up a language by its two-letter code. Surrounding
// whitespace and case are ignored.
func ParseCode(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// ByLabel looks up a language by its display label ("English", "Hindi", "Telugu").
func ByLabel(label string) (Language, bool) {
	for _, l := range Languages {
		if strings.EqualFold(l.Label, strings.TrimSpace(label)) {
			return l, true
		}
	}
	return Language{}, false
}

// Resolve accepts either a code or a label and falls back to Default.
func Resolve(s string) Language {
	if l, ok := ParseCode(s); ok {
		return l
	}
	if l, ok := ByLabel(s); ok {
		return l
	}
	return Default
}

// Source records how the query text was obtained.
type Source string

const (
	SourceTyped       Source = "typed"
	SourceTranscribed Source = "transcribed"
)

// Query is a farmer's question as text, regardless of input modality.
type Query struct {
	Text     string
	Source   Source
	Language Language
}

// Exchange is one completed question/answer record as stored in history.
// Language holds the display label, not the code.
type Exchange struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Language string `json:"language"`
}

// AskRequest is the wire form of a query on the machine-facing transports.
type AskRequest struct {
	// Text is the question. Required.
	Text string `json:"text"`

	// Language is a code ("en") or label ("English"). Defaults to English.
	Language string `json:"language,omitempty"`
}

// Query converts the request into a typed Query.
func (r AskRequest) Query() Query {
	return Query{
		Text:     r.Text,
		Source:   SourceTyped,
		Language: Resolve(r.Language),
	}
}

// AskResult is the outcome of one exchange through the pipeline.
type AskResult struct {
	// Question is the query text as submitted.
	Question string `json:"question"`

	// Answer is the model's reply, verbatim.
	Answer string `json:"answer"`

	// Language is the display label of the answer language.
	Language string `json:"language"`

	// LanguageCode is the two-letter code used for generation and synthesis.
	LanguageCode string `json:"language_code"`

	// AudioPath is the local file holding the synthesized answer.
	AudioPath string `json:"audio_path,omitempty"`

	// Audio is the synthesized answer as a base64-encoded string.
	// Only populated by transports that return audio inline.
	Audio string `json:"audio,omitempty"`

	// AudioContentType is the MIME type of the synthesized audio (e.g., "audio/mpeg").
	AudioContentType string `json:"audio_content_type,omitempty"`

	// Error is set if synthesis failed after the answer was generated.
	Error string `json:"error,omitempty"`
}

// Exchange returns the history record for this result.
func (r *AskResult) Exchange() Exchange {
	return Exchange{Question: r.Question, Answer: r.Answer, Language: r.Language}
}

// SetAudioBytes base64-encodes raw audio bytes into Audio.
func (r *AskResult) SetAudioBytes(audio []byte) {
	if len(audio) > 0 {
		r.Audio = base64.StdEncoding.EncodeToString(audio)
	}
}
