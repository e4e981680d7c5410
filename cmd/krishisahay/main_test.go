package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/krishisahay/internal/config"
)

func pipelineConfig(t *testing.T, backend, path string) *config.Config {
	t.Helper()
	return &config.Config{
		Interpreter: config.InterpreterConfig{Backend: "local"},
		TTS:         config.TTSConfig{Backend: "gtts", OutputDir: t.TempDir()},
		History:     config.HistoryConfig{Backend: backend, Path: path},
		Prompt:      config.PromptConfig{Interactive: "restricted", Batch: "open"},
	}
}

func TestBatchPipelineLeavesHistoryAlone(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	p, err := buildPipeline(pipelineConfig(t, "sqlite", dbPath), true)
	require.NoError(t, err)
	defer p.Close()

	_, err = os.Stat(dbPath)
	assert.ErrorIs(t, err, os.ErrNotExist)

	list, err := p.History(testContext(t))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestBatchPipelineIgnoresCorruptHistory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	p, err := buildPipeline(pipelineConfig(t, "json", path), true)
	require.NoError(t, err)
	p.Close()

	_, err = buildPipeline(pipelineConfig(t, "json", path), false)
	assert.Error(t, err)
}

func TestServePipelineOpensHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	p, err := buildPipeline(pipelineConfig(t, "sqlite", dbPath), false)
	require.NoError(t, err)
	defer p.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}
