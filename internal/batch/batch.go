// Package batch runs the one-shot command-line flow: pick a language, answer
// the recorded question in a fixed audio file, and play the spoken answer.
// Batch runs never touch the shared history.
package batch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/nadzzz/krishisahay/internal/message"
	"github.com/nadzzz/krishisahay/internal/pipeline"
	"github.com/nadzzz/krishisahay/internal/player"
)

// Options configures a Runner.
type Options struct {
	// AudioPath is the recorded question to answer.
	AudioPath string

	// Language, when set, is used instead of prompting on In.
	Language string

	In  io.Reader
	Out io.Writer
}

// Runner drives a single batch exchange.
type Runner struct {
	pipeline *pipeline.Pipeline
	player   player.Player
	opts     Options
}

// New creates a Runner.
func New(p *pipeline.Pipeline, pl player.Player, opts Options) *Runner {
	return &Runner{pipeline: p, player: pl, opts: opts}
}

// ChooseLanguage prints the language menu to out and reads one code from in
// unless preset is non-empty. Anything outside the supported set falls back
// to English with a notice.
func ChooseLanguage(in io.Reader, out io.Writer, preset string) message.Language {
	code := preset
	if code == "" {
		fmt.Fprintln(out, "\nSelect language for answer:")
		for _, l := range message.Languages {
			fmt.Fprintf(out, "%s - %s\n", l.Code, l.Label)
		}
		fmt.Fprint(out, "Enter language code: ")

		line, err := bufio.NewReader(in).ReadString('\n')
		if err != nil && err != io.EOF {
			slog.Warn("reading language code", "error", err)
		}
		code = line
	}

	lang, ok := message.ParseCode(code)
	if !ok {
		fmt.Fprintln(out, "Invalid language, defaulting to English.")
		return message.Default
	}
	return lang
}

// Run executes the batch flow. Every failure is returned to the caller.
func (r *Runner) Run(ctx context.Context) error {
	out := r.opts.Out
	lang := ChooseLanguage(r.opts.In, out, r.opts.Language)

	fmt.Fprintln(out, "\nListening to audio:", r.opts.AudioPath)
	text, err := r.pipeline.Transcribe(ctx, r.opts.AudioPath)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "Recognized speech:", text)

	q := message.Query{Text: text, Source: message.SourceTranscribed, Language: lang}
	answer, err := r.pipeline.Answer(ctx, q, r.pipeline.BatchTemplate())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nFinal Answer:")
	fmt.Fprintln(out, answer)

	audio, err := r.pipeline.Synthesize(ctx, answer, lang.Code)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "\nPlaying audio answer...")
	return r.player.Play(ctx, audio.Path)
}
