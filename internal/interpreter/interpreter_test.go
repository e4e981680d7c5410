package interpreter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinSegments(t *testing.T) {
	tests := []struct {
		name     string
		segments []string
		want     string
	}{
		{"empty", nil, ""},
		{"single", []string{" Which fertilizer"}, "Which fertilizer"},
		{"whisper style leading spaces", []string{" Which fertilizer", " is best", " for cotton?"}, "Which fertilizer  is best  for cotton?"},
		{"plain", []string{"a", "b", "c"}, "a b c"},
		{"blank segments", []string{"", "a", ""}, "a"},
		{"non ascii", []string{"पत्ती", "पीली"}, "पत्ती पीली"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			segs := make([]Segment, len(tt.segments))
			for i, s := range tt.segments {
				segs[i] = Segment{Start: float64(i), End: float64(i + 1), Text: s}
			}
			assert.Equal(t, tt.want, JoinSegments(segs))

			res := &TranscribeResult{Segments: segs}
			assert.Equal(t, tt.want, res.Text())
		})
	}
}

func TestJoinSegmentsKeepsOrder(t *testing.T) {
	words := strings.Fields("the quick brown fox jumps over the lazy dog")
	segs := make([]Segment, len(words))
	for i, w := range words {
		segs[i] = Segment{Text: w}
	}
	assert.Equal(t, strings.Join(words, " "), JoinSegments(segs))
}
