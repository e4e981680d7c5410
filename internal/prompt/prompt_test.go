package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRestrictedContainsQueryCodeAndTopics(t *testing.T) {
	queries := []string{
		"Which fertilizer is best for cotton crop?",
		"What is the capital of France?",
		"पत्ती पर पीले धब्बे क्यों हैं?",
		"line one\nline two",
	}
	for _, q := range queries {
		for _, code := range []string{"en", "hi", "te"} {
			p := Build(Restricted, q, code)
			assert.Contains(t, p, q)
			assert.Contains(t, p, "language code: "+code)
			assert.Contains(t, p, TopicClause)
			assert.Contains(t, p, "Politely refuse")
		}
	}
}

func TestTopicClauseListsEveryTopic(t *testing.T) {
	for _, topic := range []string{"crops", "pests", "diseases", "fertilizers", "manure", "soil"} {
		assert.Contains(t, TopicClause, topic)
	}
}

func TestBuildOpenHasNoRules(t *testing.T) {
	p := Build(Open, "How do I grow paddy?", "te")
	assert.Contains(t, p, "How do I grow paddy?")
	assert.Contains(t, p, "language code: te")
	assert.NotContains(t, p, "Rules:")
	assert.NotContains(t, p, TopicClause)
}

func TestBuildUnknownTemplateFallsBackToRestricted(t *testing.T) {
	p := Build(Template("whatever"), "q", "en")
	assert.True(t, strings.HasPrefix(p, "You are Krishi Sahay"))
}

func TestParseTemplate(t *testing.T) {
	tmpl, err := ParseTemplate(" Open ")
	require.NoError(t, err)
	assert.Equal(t, Open, tmpl)

	_, err = ParseTemplate("free-form")
	assert.Error(t, err)
}
