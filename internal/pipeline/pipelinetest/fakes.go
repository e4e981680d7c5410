// Package pipelinetest provides in-memory interpreter and synthesizer
// fakes for tests of the pipeline and its adapters.
package pipelinetest

import (
	"context"
	"sync"
	"testing"

	"github.com/nadzzz/krishisahay/internal/history"
	"github.com/nadzzz/krishisahay/internal/interpreter"
	"github.com/nadzzz/krishisahay/internal/pipeline"
	"github.com/nadzzz/krishisahay/internal/tts"
)

// Interpreter records prompts and audio paths and replies with canned values.
type Interpreter struct {
	mu sync.Mutex

	Segments      []interpreter.Segment
	Answer        string
	TranscribeErr error
	CompleteErr   error

	Prompts    []string
	AudioPaths []string
}

func (f *Interpreter) Name() string { return "fake" }

func (f *Interpreter) Transcribe(_ context.Context, audioPath string) (*interpreter.TranscribeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.AudioPaths = append(f.AudioPaths, audioPath)
	if f.TranscribeErr != nil {
		return nil, f.TranscribeErr
	}
	return &interpreter.TranscribeResult{Segments: f.Segments}, nil
}

func (f *Interpreter) Complete(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Prompts = append(f.Prompts, prompt)
	if f.CompleteErr != nil {
		return "", f.CompleteErr
	}
	return f.Answer, nil
}

func (f *Interpreter) Close() error { return nil }

// Calls returns the number of remote calls made so far.
func (f *Interpreter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Prompts) + len(f.AudioPaths)
}

// SynthCall is one recorded Synthesize invocation.
type SynthCall struct {
	Text     string
	Language string
}

// Synthesizer records calls and returns fixed MP3 bytes.
type Synthesizer struct {
	mu sync.Mutex

	Err   error
	Calls []SynthCall
}

func (f *Synthesizer) Name() string { return "fake" }

func (f *Synthesizer) Synthesize(_ context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, SynthCall{Text: text, Language: opts.Language})
	if f.Err != nil {
		return nil, f.Err
	}
	return &tts.SynthesizeResult{Audio: []byte("ID3fake"), ContentType: "audio/mpeg"}, nil
}

func (f *Synthesizer) Close() error { return nil }

// Env bundles a pipeline wired to fakes and a JSON history in a temp dir.
type Env struct {
	Pipeline    *pipeline.Pipeline
	Interpreter *Interpreter
	Synthesizer *Synthesizer
	History     *history.FileStore
	HistoryPath string
	AudioDir    string
}

// New builds an Env whose interpreter answers with answer.
func New(t testing.TB, answer string) *Env {
	t.Helper()
	dir := t.TempDir()
	historyPath := dir + "/history.json"

	store, err := history.OpenFile(historyPath)
	if err != nil {
		t.Fatalf("opening history: %v", err)
	}

	interp := &Interpreter{Answer: answer}
	synth := &Synthesizer{}
	audioDir := t.TempDir()
	p := pipeline.New(interp, synth, store, pipeline.Options{AudioDir: audioDir})

	return &Env{
		Pipeline:    p,
		Interpreter: interp,
		Synthesizer: synth,
		History:     store,
		HistoryPath: historyPath,
		AudioDir:    audioDir,
	}
}
