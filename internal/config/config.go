// Package config handles loading and validating the krishisahay configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/spf13/viper"
)

// Config is the root configuration for the krishisahay assistant.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Transports  TransportsConfig  `mapstructure:"transports"`
	Interpreter InterpreterConfig `mapstructure:"interpreter"`
	TTS         TTSConfig         `mapstructure:"tts"`
	History     HistoryConfig     `mapstructure:"history"`
	Prompt      PromptConfig      `mapstructure:"prompt"`
	Batch       BatchConfig       `mapstructure:"batch"`
	Logging     LoggingConfig     `mapstructure:"logging"`

	// Credentials come from the process environment (after .env is loaded),
	// never from the config file.
	Credentials Credentials `mapstructure:"-"`
}

// Credentials holds API keys read from the environment.
type Credentials struct {
	GroqAPIKey   string `env:"GROQ_API_KEY"`
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each interactive surface.
type TransportsConfig struct {
	HTTP HTTPConfig `mapstructure:"http"`
	GRPC GRPCConfig `mapstructure:"grpc"`
	NATS NATSConfig `mapstructure:"nats"`
}

// HTTPConfig configures the HTML form and JSON API.
type HTTPConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Port       int           `mapstructure:"port"`
	SessionTTL time.Duration `mapstructure:"session_ttl"` // idle form sessions are dropped after this
}

// GRPCConfig configures the gRPC transport.
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// NATSConfig configures the NATS request/reply transport.
type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
	Subject string `mapstructure:"subject"`
	Queue   string `mapstructure:"queue"`
}

// InterpreterConfig selects and configures the transcription + completion backend.
type InterpreterConfig struct {
	Backend string       `mapstructure:"backend"` // "openai" or "local"
	OpenAI  OpenAIConfig `mapstructure:"openai"`
	Local   LocalConfig  `mapstructure:"local"`
}

// OpenAIConfig holds settings for any OpenAI-compatible API (Groq by default).
type OpenAIConfig struct {
	APIKey             string  `mapstructure:"api_key"`
	BaseURL            string  `mapstructure:"base_url"`
	TranscriptionModel string  `mapstructure:"transcription_model"`
	CompletionModel    string  `mapstructure:"completion_model"`
	Temperature        float32 `mapstructure:"temperature"`
}

// LocalConfig holds self-hosted Whisper and LLM settings.
type LocalConfig struct {
	WhisperEndpoint string  `mapstructure:"whisper_endpoint"`
	WhisperType     string  `mapstructure:"whisper_type"` // "openai" (default) or "asr" (ahmetoner/whisper-asr-webservice)
	LLMEndpoint     string  `mapstructure:"llm_endpoint"`
	LLMModel        string  `mapstructure:"llm_model"` // Ollama model name (e.g., "llama3.1:8b")
	Temperature     float32 `mapstructure:"temperature"`
	VADFilter       bool    `mapstructure:"vad_filter"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Backend   string             `mapstructure:"backend"`    // "gtts", "piper" or "openai"
	OutputDir string             `mapstructure:"output_dir"` // where answer audio is written; empty means os.TempDir()
	GTTS      GTTSConfig         `mapstructure:"gtts"`
	Piper     PiperConfig        `mapstructure:"piper"`
	OpenAI    OpenAISpeechConfig `mapstructure:"openai"`
}

// GTTSConfig holds Google Translate TTS settings.
type GTTSConfig struct {
	BaseURL string `mapstructure:"base_url"`
	Slow    bool   `mapstructure:"slow"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
//
// For a single Piper instance that serves all languages, set Endpoint.
// For per-language instances, set Endpoints which maps ISO-639-1 codes to
// individual Wyoming TCP endpoints. Endpoints takes precedence.
type PiperConfig struct {
	Endpoint  string            `mapstructure:"endpoint"`  // Default Wyoming TCP endpoint (host:port)
	Endpoints map[string]string `mapstructure:"endpoints"` // ISO-639-1 language code -> Wyoming TCP endpoint
	Voices    map[string]string `mapstructure:"voices"`    // ISO-639-1 language code -> Piper voice model name
}

// OpenAISpeechConfig holds OpenAI speech synthesis settings.
type OpenAISpeechConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Voice   string `mapstructure:"voice"`
}

// HistoryConfig selects where completed exchanges are kept.
type HistoryConfig struct {
	Backend string `mapstructure:"backend"` // "json" or "sqlite"
	Path    string `mapstructure:"path"`
}

// PromptConfig picks the prompt template for each operating mode.
type PromptConfig struct {
	Interactive string `mapstructure:"interactive"` // "restricted" or "open"
	Batch       string `mapstructure:"batch"`
}

// BatchConfig holds settings for the non-interactive run.
type BatchConfig struct {
	AudioPath string `mapstructure:"audio_path"`
	Player    string `mapstructure:"player"` // "auto", "system" or "log"
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./krishisahay.yaml, ./configs/krishisahay.yaml,
// /etc/krishisahay/krishisahay.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("krishisahay")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/krishisahay")
	}

	// Environment variables: KRISHISAHAY_TTS_BACKEND, KRISHISAHAY_HISTORY_PATH, etc.
	v.SetEnvPrefix("KRISHISAHAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := env.Parse(&cfg.Credentials); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	cfg.Interpreter.OpenAI.APIKey = resolveEnvRef(cfg.Interpreter.OpenAI.APIKey)
	if cfg.Interpreter.OpenAI.APIKey == "" {
		cfg.Interpreter.OpenAI.APIKey = cfg.Credentials.GroqAPIKey
	}
	cfg.TTS.OpenAI.APIKey = resolveEnvRef(cfg.TTS.OpenAI.APIKey)
	if cfg.TTS.OpenAI.APIKey == "" {
		cfg.TTS.OpenAI.APIKey = cfg.Credentials.OpenAIAPIKey
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.session_ttl", "30m")
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.nats.enabled", false)
	v.SetDefault("transports.nats.url", "nats://localhost:4222")
	v.SetDefault("transports.nats.subject", "krishisahay.ask")
	v.SetDefault("transports.nats.queue", "krishisahay")
	v.SetDefault("interpreter.backend", "openai")
	v.SetDefault("interpreter.openai.api_key", "")
	v.SetDefault("interpreter.openai.base_url", "https://api.groq.com/openai/v1")
	v.SetDefault("interpreter.openai.transcription_model", "whisper-large-v3")
	v.SetDefault("interpreter.openai.completion_model", "llama-3.1-8b-instant")
	v.SetDefault("interpreter.openai.temperature", 0.3)
	v.SetDefault("interpreter.local.whisper_endpoint", "http://localhost:8000/v1/audio/transcriptions")
	v.SetDefault("interpreter.local.whisper_type", "openai")
	v.SetDefault("interpreter.local.llm_endpoint", "http://localhost:11434/v1/chat/completions")
	v.SetDefault("interpreter.local.llm_model", "llama3.1:8b")
	v.SetDefault("interpreter.local.temperature", 0.3)
	v.SetDefault("interpreter.local.vad_filter", false)
	v.SetDefault("tts.backend", "gtts")
	v.SetDefault("tts.output_dir", "")
	v.SetDefault("tts.gtts.base_url", "https://translate.google.com/translate_tts")
	v.SetDefault("tts.gtts.slow", false)
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("tts.openai.api_key", "")
	v.SetDefault("tts.openai.base_url", "")
	v.SetDefault("tts.openai.model", "tts-1")
	v.SetDefault("tts.openai.voice", "alloy")
	v.SetDefault("history.backend", "json")
	v.SetDefault("history.path", "history.json")
	v.SetDefault("prompt.interactive", "restricted")
	v.SetDefault("prompt.batch", "open")
	v.SetDefault("batch.audio_path", "audio/question.wav")
	v.SetDefault("batch.player", "auto")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	switch c.Interpreter.Backend {
	case "openai", "local":
	default:
		return fmt.Errorf("unknown interpreter backend %q", c.Interpreter.Backend)
	}
	switch c.TTS.Backend {
	case "gtts", "piper", "openai":
	default:
		return fmt.Errorf("unknown tts backend %q", c.TTS.Backend)
	}
	switch c.History.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("unknown history backend %q", c.History.Backend)
	}
	for name, tmpl := range map[string]string{"interactive": c.Prompt.Interactive, "batch": c.Prompt.Batch} {
		if tmpl != "restricted" && tmpl != "open" {
			return fmt.Errorf("prompt.%s: unknown template %q", name, tmpl)
		}
	}
	if c.History.Path == "" {
		return fmt.Errorf("history.path must not be empty")
	}
	return nil
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		envKey := val[2 : len(val)-1]
		return os.Getenv(envKey)
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	slog.SetDefault(slog.New(handler))
}
