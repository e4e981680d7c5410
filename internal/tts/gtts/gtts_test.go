package gtts

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/krishisahay/internal/config"
	"github.com/nadzzz/krishisahay/internal/tts"
)

func TestChunk(t *testing.T) {
	assert.Empty(t, Chunk("   ", 100))
	assert.Equal(t, []string{"short answer"}, Chunk("  short   answer ", 100))
	assert.Equal(t, []string{"aaa bbb", "ccc"}, Chunk("aaa bbb ccc", 7))
	assert.Equal(t, []string{"abcde", "fgh", "ij"}, Chunk("abcdefgh ij", 5))
}

func TestChunkRespectsLimitForLongText(t *testing.T) {
	text := strings.Repeat("यूरिया को दो भागों में डालें। ", 20)
	chunks := Chunk(text, maxChunkRunes)
	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(c), maxChunkRunes)
	}
	assert.Equal(t, strings.Join(strings.Fields(text), " "), strings.Join(chunks, " "))
}

func TestSynthesizeConcatenatesChunks(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		assert.Equal(t, "te", r.URL.Query().Get("tl"))
		assert.Equal(t, "tw-ob", r.URL.Query().Get("client"))
		assert.NotEmpty(t, r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "audio/mpeg")
		_, _ = w.Write([]byte{'F', byte('0' + n)})
	}))
	defer srv.Close()

	s := New(config.GTTSConfig{BaseURL: srv.URL})
	res, err := s.Synthesize(testContext(t), strings.Repeat("word ", 30), tts.SynthesizeOpts{Language: "te"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
	assert.Equal(t, []byte("F1F2"), res.Audio)
	assert.Equal(t, "audio/mpeg", res.ContentType)
}

func TestSynthesizeUnsupportedLanguage(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	defer srv.Close()

	s := New(config.GTTSConfig{BaseURL: srv.URL})
	_, err := s.Synthesize(testContext(t), "hello", tts.SynthesizeOpts{Language: "xx"})
	assert.ErrorIs(t, err, tts.ErrUnsupportedLanguage)
	assert.False(t, called)
}

func TestSynthesizeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "too many requests", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := New(config.GTTSConfig{BaseURL: srv.URL})
	_, err := s.Synthesize(testContext(t), "hello", tts.SynthesizeOpts{Language: "en"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
}
