// Package tts defines the interface for text-to-speech synthesis.
//
// Answers are spoken back in the language the farmer selected. Each call
// writes a fresh audio file; files are never reused or cleaned up by the
// process.
package tts

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
)

// ErrUnsupportedLanguage is returned when a backend has no voice for the requested code.
var ErrUnsupportedLanguage = errors.New("unsupported language")

// SynthesizeOpts controls synthesis behavior.
type SynthesizeOpts struct {
	// Language is the ISO-639-1 code (e.g., "en", "hi", "te") to select the voice.
	Language string
}

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Name returns the backend identifier (e.g., "gtts", "piper").
	Name() string

	// Synthesize generates audio for text in the requested language.
	Synthesize(ctx context.Context, text string, opts SynthesizeOpts) (*SynthesizeResult, error)

	// Close releases any resources held by the synthesizer.
	Close() error
}

// SynthesizeResult holds the output of TTS synthesis.
type SynthesizeResult struct {
	// Audio is the encoded audio file (MP3 or WAV).
	Audio []byte

	// ContentType is the MIME type of the audio (e.g., "audio/mpeg", "audio/wav").
	ContentType string
}

// Extension returns the file extension matching the content type.
func (r *SynthesizeResult) Extension() string {
	return ExtFromContentType(r.ContentType)
}

// SaveTemp writes the audio to a new temporary file in dir (os.TempDir()
// when empty) and returns its path. Every call creates a distinct file.
func SaveTemp(dir string, res *SynthesizeResult) (string, error) {
	f, err := os.CreateTemp(dir, "krishisahay-answer-*"+res.Extension())
	if err != nil {
		return "", fmt.Errorf("creating audio file: %w", err)
	}
	if _, err := f.Write(res.Audio); err != nil {
		f.Close()
		return "", fmt.Errorf("writing audio file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("closing audio file: %w", err)
	}
	return f.Name(), nil
}

// ContentTypeFromExt maps an audio file extension to its MIME type.
func ContentTypeFromExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "wav":
		return "audio/wav"
	case "ogg":
		return "audio/ogg"
	case "flac":
		return "audio/flac"
	case "webm":
		return "audio/webm"
	case "m4a":
		return "audio/mp4"
	default:
		return "audio/mpeg"
	}
}

// ExtFromContentType maps an audio MIME type to a file extension, defaulting to ".mp3".
func ExtFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "flac"):
		return ".flac"
	case strings.Contains(ct, "webm"):
		return ".webm"
	case strings.Contains(ct, "mp4"), strings.Contains(ct, "m4a"):
		return ".m4a"
	default:
		return ".mp3"
	}
}
