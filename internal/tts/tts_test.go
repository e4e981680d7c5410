package tts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveTempCreatesFreshFiles(t *testing.T) {
	dir := t.TempDir()
	res := &SynthesizeResult{Audio: []byte("mp3"), ContentType: "audio/mpeg"}

	first, err := SaveTemp(dir, res)
	require.NoError(t, err)
	second, err := SaveTemp(dir, res)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, dir, filepath.Dir(first))
	assert.Equal(t, ".mp3", filepath.Ext(first))

	data, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, []byte("mp3"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "earlier files are kept")
}

func TestSaveTempMissingDir(t *testing.T) {
	_, err := SaveTemp(filepath.Join(t.TempDir(), "missing"), &SynthesizeResult{ContentType: "audio/wav"})
	assert.Error(t, err)
}

func TestContentTypes(t *testing.T) {
	assert.Equal(t, ".wav", ExtFromContentType("audio/wav"))
	assert.Equal(t, ".wav", ExtFromContentType("audio/x-wav"))
	assert.Equal(t, ".mp3", ExtFromContentType("audio/mpeg"))
	assert.Equal(t, ".mp3", ExtFromContentType(""))
	assert.Equal(t, "audio/wav", ContentTypeFromExt(".WAV"))
	assert.Equal(t, "audio/mpeg", ContentTypeFromExt("mp3"))
}
