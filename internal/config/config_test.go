package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "krishisahay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")
	path := writeConfig(t, "logging:\n  level: debug\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.Interpreter.Backend)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Interpreter.OpenAI.CompletionModel)
	assert.InDelta(t, 0.3, cfg.Interpreter.OpenAI.Temperature, 1e-6)
	assert.Equal(t, "gtts", cfg.TTS.Backend)
	assert.Equal(t, "json", cfg.History.Backend)
	assert.Equal(t, "history.json", cfg.History.Path)
	assert.Equal(t, "restricted", cfg.Prompt.Interactive)
	assert.Equal(t, "open", cfg.Prompt.Batch)
	assert.Equal(t, "audio/question.wav", cfg.Batch.AudioPath)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "gsk-test", cfg.Interpreter.OpenAI.APIKey, "api key falls back to GROQ_API_KEY")
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("KRISHISAHAY_TTS_BACKEND", "piper")
	t.Setenv("KRISHISAHAY_HISTORY_PATH", "/tmp/other.json")
	path := writeConfig(t, "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "piper", cfg.TTS.Backend)
	assert.Equal(t, "/tmp/other.json", cfg.History.Path)
}

func TestLoadResolvesEnvRef(t *testing.T) {
	t.Setenv("MY_KEY", "from-ref")
	t.Setenv("GROQ_API_KEY", "unused")
	path := writeConfig(t, "interpreter:\n  openai:\n    api_key: ${MY_KEY}\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-ref", cfg.Interpreter.OpenAI.APIKey)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	path := writeConfig(t, "tts:\n  backend: espeak\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "espeak")
}

func TestLoadRejectsUnknownPromptTemplate(t *testing.T) {
	path := writeConfig(t, "prompt:\n  batch: chatty\n")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt.batch")
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("SOME_VAR", "value")
	assert.Equal(t, "value", resolveEnvRef("${SOME_VAR}"))
	assert.Equal(t, "", resolveEnvRef("${UNSET_VAR_FOR_TEST}"))
	assert.Equal(t, "literal", resolveEnvRef("literal"))
}
