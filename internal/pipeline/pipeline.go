// Package pipeline implements the question-answering pipeline shared by
// every entry point.
//
// A Pipeline is built once at process start and passed to the batch runner
// and to each transport. It runs transcribe → prompt → generate → persist →
// synthesize synchronously in the caller's goroutine; there is no retry,
// timeout or cancellation beyond the caller's context.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/nadzzz/krishisahay/internal/history"
	"github.com/nadzzz/krishisahay/internal/interpreter"
	"github.com/nadzzz/krishisahay/internal/message"
	"github.com/nadzzz/krishisahay/internal/prompt"
	"github.com/nadzzz/krishisahay/internal/tts"
)

// ErrEmptyQuery is returned by Ask when the query text is empty or whitespace.
var ErrEmptyQuery = errors.New("please enter or upload a question")

// ErrInvalidText is returned by Ask when the query text is not valid UTF-8.
// Such text could not be stored in history without being altered.
var ErrInvalidText = errors.New("question is not valid UTF-8 text")

// IsBadQuery reports whether err means the caller's query was rejected
// before any work was done.
func IsBadQuery(err error) bool {
	return errors.Is(err, ErrEmptyQuery) || errors.Is(err, ErrInvalidText)
}

// Options configures a Pipeline.
type Options struct {
	// AudioDir is where synthesized answers are written. Empty means os.TempDir().
	AudioDir string

	// Interactive is the prompt template used by Ask.
	Interactive prompt.Template

	// Batch is the prompt template used by the batch runner.
	Batch prompt.Template
}

// Pipeline holds the long-lived collaborators of every exchange.
type Pipeline struct {
	interpreter interpreter.Interpreter
	synthesizer tts.Synthesizer
	history     history.Store
	opts        Options
}

// New creates a Pipeline. Empty templates default to Restricted for
// interactive use and Open for batch use.
func New(interp interpreter.Interpreter, synth tts.Synthesizer, store history.Store, opts Options) *Pipeline {
	if opts.Interactive == "" {
		opts.Interactive = prompt.Restricted
	}
	if opts.Batch == "" {
		opts.Batch = prompt.Open
	}
	return &Pipeline{
		interpreter: interp,
		synthesizer: synth,
		history:     store,
		opts:        opts,
	}
}

// BatchTemplate returns the template the batch runner should use.
func (p *Pipeline) BatchTemplate() prompt.Template { return p.opts.Batch }

// Audio is a synthesized answer on disk.
type Audio struct {
	Path        string
	ContentType string
	Data        []byte
}

// Transcribe converts the audio file at path into query text.
func (p *Pipeline) Transcribe(ctx context.Context, path string) (string, error) {
	start := time.Now()
	res, err := p.interpreter.Transcribe(ctx, path)
	if err != nil {
		return "", fmt.Errorf("transcribing %s: %w", path, err)
	}
	text := res.Text()
	slog.Info("transcription complete", "backend", p.interpreter.Name(),
		"segments", len(res.Segments), "text_length", len(text), "duration", time.Since(start))
	return text, nil
}

// Answer builds the prompt for q with template t and returns the trimmed
// model answer. The answer is returned as-is; topicality is the model's job.
func (p *Pipeline) Answer(ctx context.Context, q message.Query, t prompt.Template) (string, error) {
	start := time.Now()
	content, err := p.interpreter.Complete(ctx, prompt.Build(t, q.Text, q.Language.Code))
	if err != nil {
		return "", fmt.Errorf("generating answer: %w", err)
	}
	answer := strings.TrimSpace(content)
	slog.Info("answer generated", "backend", p.interpreter.Name(), "template", t,
		"language", q.Language.Code, "answer_length", len(answer), "duration", time.Since(start))
	return answer, nil
}

// Synthesize speaks text in the language with the given code and writes the
// audio to a new file.
func (p *Pipeline) Synthesize(ctx context.Context, text, langCode string) (*Audio, error) {
	start := time.Now()
	res, err := p.synthesizer.Synthesize(ctx, text, tts.SynthesizeOpts{Language: langCode})
	if err != nil {
		return nil, fmt.Errorf("synthesizing answer: %w", err)
	}
	path, err := tts.SaveTemp(p.opts.AudioDir, res)
	if err != nil {
		return nil, err
	}
	slog.Info("answer synthesized", "backend", p.synthesizer.Name(), "language", langCode,
		"audio_bytes", len(res.Audio), "path", path, "duration", time.Since(start))
	return &Audio{Path: path, ContentType: res.ContentType, Data: res.Audio}, nil
}

// Ask runs one interactive exchange: generate with the interactive template,
// prepend the exchange to history, then synthesize.
//
// An empty query returns ErrEmptyQuery and text that is not valid UTF-8
// returns ErrInvalidText, both with no side effects. If persisting
// or synthesis fails after the answer exists, the partial result is
// returned together with the error.
func (p *Pipeline) Ask(ctx context.Context, q message.Query) (*message.AskResult, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, ErrEmptyQuery
	}
	if !utf8.ValidString(q.Text) {
		return nil, ErrInvalidText
	}
	logger := slog.With("source", q.Source, "language", q.Language.Code)
	logger.Info("exchange started", "query_length", len(q.Text))

	answer, err := p.Answer(ctx, q, p.opts.Interactive)
	if err != nil {
		return nil, err
	}

	result := &message.AskResult{
		Question:     q.Text,
		Answer:       answer,
		Language:     q.Language.Label,
		LanguageCode: q.Language.Code,
	}

	if err := p.history.Prepend(ctx, result.Exchange()); err != nil {
		result.Error = err.Error()
		return result, fmt.Errorf("saving history: %w", err)
	}

	audio, err := p.Synthesize(ctx, answer, q.Language.Code)
	if err != nil {
		logger.Warn("synthesis failed, answer kept", "error", err)
		result.Error = err.Error()
		return result, err
	}
	result.AudioPath = audio.Path
	result.AudioContentType = audio.ContentType
	result.SetAudioBytes(audio.Data)

	logger.Info("exchange complete")
	return result, nil
}

// History returns all stored exchanges, most recent first.
func (p *Pipeline) History(ctx context.Context) ([]message.Exchange, error) {
	return p.history.List(ctx)
}

// Close releases the interpreter, synthesizer and history store.
func (p *Pipeline) Close() error {
	return errors.Join(p.interpreter.Close(), p.synthesizer.Close(), p.history.Close())
}
