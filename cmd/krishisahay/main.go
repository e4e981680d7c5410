// KrishiSahay answers farmers' agricultural questions, typed or spoken, in
// English, Hindi or Telugu, and speaks the answer back.
//
// Usage:
//
//	krishisahay [flags]                       serve the web form and APIs
//	krishisahay --config /path/to/krishisahay.yaml
//	krishisahay -batch [-audio file] [-lang code]
//
// @title       KrishiSahay API
// @version     1.0
// @description Multilingual agricultural question answering: text or speech in, text and speech out.
// @BasePath    /
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"

	_ "github.com/nadzzz/krishisahay/docs"
	"github.com/nadzzz/krishisahay/internal/batch"
	"github.com/nadzzz/krishisahay/internal/config"
	"github.com/nadzzz/krishisahay/internal/health"
	"github.com/nadzzz/krishisahay/internal/history"
	"github.com/nadzzz/krishisahay/internal/interpreter"
	localinterp "github.com/nadzzz/krishisahay/internal/interpreter/local"
	openaiinterp "github.com/nadzzz/krishisahay/internal/interpreter/openai"
	"github.com/nadzzz/krishisahay/internal/pipeline"
	"github.com/nadzzz/krishisahay/internal/player"
	"github.com/nadzzz/krishisahay/internal/prompt"
	"github.com/nadzzz/krishisahay/internal/transport"
	grpctransport "github.com/nadzzz/krishisahay/internal/transport/grpc"
	httptransport "github.com/nadzzz/krishisahay/internal/transport/http"
	natstransport "github.com/nadzzz/krishisahay/internal/transport/nats"
	"github.com/nadzzz/krishisahay/internal/tts"
	"github.com/nadzzz/krishisahay/internal/tts/gtts"
	openaitts "github.com/nadzzz/krishisahay/internal/tts/openai"
	"github.com/nadzzz/krishisahay/internal/tts/piper"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/krishisahay.yaml)")
	batchMode := flag.Bool("batch", false, "answer the recorded question once and exit")
	audioPath := flag.String("audio", "", "audio file to answer in batch mode (overrides batch.audio_path)")
	lang := flag.String("lang", "", "answer language code in batch mode (en, hi, te); prompts when empty")
	flag.Parse()

	if *showVersion {
		fmt.Printf("krishisahay %s\n", version)
		os.Exit(0)
	}

	// .env first so both viper and the credential parser see its values.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not load .env", "error", err)
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	config.SetupLogging(cfg.Logging)
	slog.Info("krishisahay starting", "version", version)

	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	p, err := buildPipeline(cfg, *batchMode)
	if err != nil {
		slog.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer p.Close()

	if *batchMode {
		if err := runBatch(ctx, cfg, p, *audioPath, *lang); err != nil {
			slog.Error("batch run failed", "error", err)
			p.Close()
			os.Exit(1)
		}
		return
	}

	serve(ctx, cfg, p)
}

// buildPipeline wires the configured backends. Batch runs record no
// history, so they get history.Discard and never touch the store on disk.
func buildPipeline(cfg *config.Config, batch bool) (*pipeline.Pipeline, error) {
	var interp interpreter.Interpreter
	switch cfg.Interpreter.Backend {
	case "openai":
		interp = openaiinterp.New(cfg.Interpreter.OpenAI)
		slog.Info("using OpenAI-compatible interpreter",
			"base_url", cfg.Interpreter.OpenAI.BaseURL,
			"transcription_model", cfg.Interpreter.OpenAI.TranscriptionModel,
			"completion_model", cfg.Interpreter.OpenAI.CompletionModel)
	case "local":
		interp = localinterp.New(cfg.Interpreter.Local)
		slog.Info("using local interpreter",
			"whisper", cfg.Interpreter.Local.WhisperEndpoint,
			"llm", cfg.Interpreter.Local.LLMEndpoint)
	default:
		return nil, fmt.Errorf("unknown interpreter backend %q", cfg.Interpreter.Backend)
	}

	var synth tts.Synthesizer
	switch cfg.TTS.Backend {
	case "gtts":
		synth = gtts.New(cfg.TTS.GTTS)
	case "piper":
		synth = piper.New(cfg.TTS.Piper)
	case "openai":
		synth = openaitts.New(cfg.TTS.OpenAI)
	default:
		return nil, errors.Join(fmt.Errorf("unknown tts backend %q", cfg.TTS.Backend), interp.Close())
	}
	slog.Info("using synthesizer", "backend", synth.Name())

	interactive, err := prompt.ParseTemplate(cfg.Prompt.Interactive)
	if err != nil {
		return nil, errors.Join(err, interp.Close(), synth.Close())
	}
	batchTmpl, err := prompt.ParseTemplate(cfg.Prompt.Batch)
	if err != nil {
		return nil, errors.Join(err, interp.Close(), synth.Close())
	}

	store := history.Discard
	if !batch {
		if store, err = history.Open(cfg.History); err != nil {
			return nil, errors.Join(fmt.Errorf("opening history: %w", err), interp.Close(), synth.Close())
		}
	}

	return pipeline.New(interp, synth, store, pipeline.Options{
		AudioDir:    cfg.TTS.OutputDir,
		Interactive: interactive,
		Batch:       batchTmpl,
	}), nil
}

func runBatch(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline, audio, lang string) error {
	pl, err := player.New(cfg.Batch.Player)
	if err != nil {
		return err
	}
	if audio == "" {
		audio = cfg.Batch.AudioPath
	}
	return batch.New(p, pl, batch.Options{
		AudioPath: audio,
		Language:  lang,
		In:        os.Stdin,
		Out:       os.Stdout,
	}).Run(ctx)
}

func serve(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) {
	var transports []transport.Transport

	if cfg.Transports.HTTP.Enabled {
		transports = append(transports, httptransport.New(cfg.Transports.HTTP.Port, cfg.TTS.OutputDir, cfg.Transports.HTTP.SessionTTL))
	}
	if cfg.Transports.GRPC.Enabled {
		transports = append(transports, grpctransport.New(cfg.Transports.GRPC.Port))
	}
	if cfg.Transports.NATS.Enabled {
		n := cfg.Transports.NATS
		transports = append(transports, natstransport.New(n.URL, n.Subject, n.Queue))
	}

	if len(transports) == 0 {
		slog.Error("no transports enabled, enable at least one in config")
		os.Exit(1)
	}

	healthServer := health.New(cfg.Server.HealthPort)
	healthServer.AddCheck("history", func(ctx context.Context) error {
		_, err := p.History(ctx)
		return err
	})
	go func() {
		if err := healthServer.ListenAndServe(ctx); err != nil {
			slog.Error("health server failed", "error", err)
		}
	}()

	var wg sync.WaitGroup
	for _, t := range transports {
		wg.Add(1)
		go func(t transport.Transport) {
			defer wg.Done()
			slog.Info("starting transport", "name", t.Name())
			if err := t.Listen(ctx, p); err != nil {
				slog.Error("transport failed", "name", t.Name(), "error", err)
			}
		}(t)
	}

	healthServer.SetReady(true)
	slog.Info("krishisahay ready",
		"transports", len(transports),
		"health_port", cfg.Server.HealthPort)

	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")

	for _, t := range transports {
		if err := t.Close(); err != nil {
			slog.Error("transport close error", "name", t.Name(), "error", err)
		}
	}

	wg.Wait()
	slog.Info("krishisahay stopped")
}
