// Package gtts implements the TTS Synthesizer using the Google Translate
// text-to-speech endpoint.
//
// The endpoint accepts at most about 100 characters per request, so longer
// answers are split on word boundaries and the returned MP3 segments are
// concatenated in order. MP3 frames are self-delimiting, so the joined
// stream plays as one file.
package gtts

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/nadzzz/krishisahay/internal/config"
	"github.com/nadzzz/krishisahay/internal/tts"
)

// maxChunkRunes is the longest text sent in a single request.
const maxChunkRunes = 100

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// languages lists the codes the endpoint can voice.
var languages = map[string]bool{
	"af": true, "ar": true, "bg": true, "bn": true, "bs": true, "ca": true,
	"cs": true, "cy": true, "da": true, "de": true, "el": true, "en": true,
	"es": true, "et": true, "fi": true, "fr": true, "gu": true, "hi": true,
	"hr": true, "hu": true, "id": true, "is": true, "it": true, "ja": true,
	"jw": true, "km": true, "kn": true, "ko": true, "la": true, "lv": true,
	"ml": true, "mr": true, "ms": true, "my": true, "ne": true, "nl": true,
	"no": true, "pa": true, "pl": true, "pt": true, "ro": true, "ru": true,
	"si": true, "sk": true, "sq": true, "sr": true, "su": true, "sv": true,
	"sw": true, "ta": true, "te": true, "th": true, "tl": true, "tr": true,
	"uk": true, "ur": true, "vi": true, "zh-CN": true, "zh-TW": true,
}

// Supported reports whether the endpoint has a voice for code.
func Supported(code string) bool { return languages[code] }

// Synthesizer implements tts.Synthesizer against the Translate TTS endpoint.
type Synthesizer struct {
	baseURL string
	slow    bool
	client  *http.Client
}

// New creates a new Google Translate TTS synthesizer from config.
func New(cfg config.GTTSConfig) *Synthesizer {
	return &Synthesizer{
		baseURL: cfg.BaseURL,
		slow:    cfg.Slow,
		client:  &http.Client{},
	}
}

// Name returns the backend identifier.
func (s *Synthesizer) Name() string { return "gtts" }

// Synthesize fetches MP3 audio for text, one request per chunk.
func (s *Synthesizer) Synthesize(ctx context.Context, text string, opts tts.SynthesizeOpts) (*tts.SynthesizeResult, error) {
	if !Supported(opts.Language) {
		return nil, fmt.Errorf("%w: %q", tts.ErrUnsupportedLanguage, opts.Language)
	}
	chunks := Chunk(text, maxChunkRunes)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("empty text for synthesis")
	}

	slog.Debug("gtts synthesize", "text_length", len(text), "chunks", len(chunks), "language", opts.Language)

	var audio bytes.Buffer
	for idx, chunk := range chunks {
		if err := s.fetch(ctx, &audio, chunk, opts.Language, idx, len(chunks)); err != nil {
			return nil, fmt.Errorf("chunk %d/%d: %w", idx+1, len(chunks), err)
		}
	}

	return &tts.SynthesizeResult{
		Audio:       audio.Bytes(),
		ContentType: "audio/mpeg",
	}, nil
}

func (s *Synthesizer) fetch(ctx context.Context, w io.Writer, chunk, lang string, idx, total int) error {
	speed := "1"
	if s.slow {
		speed = "0.3"
	}
	q := make(url.Values)
	q.Set("ie", "UTF-8")
	q.Set("client", "tw-ob")
	q.Set("tl", lang)
	q.Set("q", chunk)
	q.Set("ttsspeed", speed)
	q.Set("total", strconv.Itoa(total))
	q.Set("idx", strconv.Itoa(idx))
	q.Set("textlen", strconv.Itoa(utf8.RuneCountInString(chunk)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Referer", "https://translate.google.com/")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("tts failed (status %d): %s", resp.StatusCode, body)
	}
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("reading audio: %w", err)
	}
	return nil
}

// Close is a no-op; requests are independent.
func (s *Synthesizer) Close() error { return nil }

// Chunk splits text into pieces of at most limit runes, breaking on
// whitespace. Words longer than limit are split mid-word.
func Chunk(text string, limit int) []string {
	var (
		chunks []string
		cur    strings.Builder
		curLen int
	)
	flush := func() {
		if curLen > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
			curLen = 0
		}
	}

	for _, word := range strings.Fields(text) {
		runes := []rune(word)
		for len(runes) > limit {
			flush()
			chunks = append(chunks, string(runes[:limit]))
			runes = runes[limit:]
		}
		n := len(runes)
		if n == 0 {
			continue
		}
		if curLen > 0 && curLen+1+n > limit {
			flush()
		}
		if curLen > 0 {
			cur.WriteByte(' ')
			curLen++
		}
		cur.WriteString(string(runes))
		curLen += n
	}
	flush()
	return chunks
}
