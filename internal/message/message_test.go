package message

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCode(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		found bool
	}{
		{"en", "English", true},
		{" HI ", "Hindi", true},
		{"te", "Telugu", true},
		{"xx", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		l, ok := ParseCode(tt.in)
		assert.Equal(t, tt.found, ok, tt.in)
		assert.Equal(t, tt.want, l.Label, tt.in)
	}
}

func TestByLabel(t *testing.T) {
	l, ok := ByLabel("telugu")
	assert.True(t, ok)
	assert.Equal(t, "te", l.Code)

	_, ok = ByLabel("French")
	assert.False(t, ok)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "hi", Resolve("hi").Code)
	assert.Equal(t, "hi", Resolve("Hindi").Code)
	assert.Equal(t, Default, Resolve("klingon"))
	assert.Equal(t, Default, Resolve(""))
}

func TestAskResultExchange(t *testing.T) {
	r := &AskResult{Question: "q", Answer: "a", Language: "Telugu", LanguageCode: "te"}
	assert.Equal(t, Exchange{Question: "q", Answer: "a", Language: "Telugu"}, r.Exchange())

	r.SetAudioBytes(nil)
	assert.Empty(t, r.Audio)
	r.SetAudioBytes([]byte("ID3"))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("ID3")), r.Audio)
}
