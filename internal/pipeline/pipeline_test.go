package pipeline_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/krishisahay/internal/history"
	"github.com/nadzzz/krishisahay/internal/interpreter"
	"github.com/nadzzz/krishisahay/internal/message"
	"github.com/nadzzz/krishisahay/internal/pipeline"
	"github.com/nadzzz/krishisahay/internal/pipeline/pipelinetest"
	"github.com/nadzzz/krishisahay/internal/prompt"
)

func TestAskCottonScenario(t *testing.T) {
	env := pipelinetest.New(t, "  For cotton, apply NPK 60:30:30 kg per acre in split doses.\n")
	q := message.Query{Text: "Which fertilizer is best for cotton crop?", Source: message.SourceTyped, Language: message.Default}

	res, err := env.Pipeline.Ask(testContext(t), q)
	require.NoError(t, err)

	want := "For cotton, apply NPK 60:30:30 kg per acre in split doses."
	assert.Equal(t, want, res.Answer)
	assert.Equal(t, "English", res.Language)
	assert.Equal(t, "en", res.LanguageCode)

	list, err := env.Pipeline.History(testContext(t))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, message.Exchange{Question: q.Text, Answer: want, Language: "English"}, list[0])

	require.Len(t, env.Synthesizer.Calls, 1)
	assert.Equal(t, pipelinetest.SynthCall{Text: want, Language: "en"}, env.Synthesizer.Calls[0])

	require.NotEmpty(t, res.AudioPath)
	assert.Equal(t, env.AudioDir, filepath.Dir(res.AudioPath))
	data, err := os.ReadFile(res.AudioPath)
	require.NoError(t, err)
	assert.Equal(t, []byte("ID3fake"), data)

	require.Len(t, env.Interpreter.Prompts, 1)
	assert.Contains(t, env.Interpreter.Prompts[0], q.Text)
	assert.Contains(t, env.Interpreter.Prompts[0], prompt.TopicClause)
}

func TestAskEmptyQueryHasNoSideEffects(t *testing.T) {
	env := pipelinetest.New(t, "unused")

	for _, text := range []string{"", "   ", "\n\t"} {
		res, err := env.Pipeline.Ask(testContext(t), message.Query{Text: text, Language: message.Default})
		assert.ErrorIs(t, err, pipeline.ErrEmptyQuery)
		assert.Nil(t, res)
	}

	assert.Zero(t, env.Interpreter.Calls())
	assert.Empty(t, env.Synthesizer.Calls)
	list, err := env.Pipeline.History(testContext(t))
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = os.Stat(env.HistoryPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAskInvalidUTF8IsRejected(t *testing.T) {
	env := pipelinetest.New(t, "unused")

	res, err := env.Pipeline.Ask(testContext(t), message.Query{Text: "cotton \xff\xfe?", Language: message.Default})
	assert.ErrorIs(t, err, pipeline.ErrInvalidText)
	assert.True(t, pipeline.IsBadQuery(err))
	assert.Nil(t, res)

	assert.Zero(t, env.Interpreter.Calls())
	assert.Empty(t, env.Synthesizer.Calls)
	_, err = os.Stat(env.HistoryPath)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAskOutOfDomainCompletesPipeline(t *testing.T) {
	refusal := "I can only help with agriculture questions."
	env := pipelinetest.New(t, refusal)

	res, err := env.Pipeline.Ask(testContext(t), message.Query{Text: "What is the capital of France?", Language: message.Default})
	require.NoError(t, err)
	assert.Equal(t, refusal, res.Answer)
	assert.Len(t, env.Synthesizer.Calls, 1)

	list, _ := env.Pipeline.History(testContext(t))
	require.Len(t, list, 1)
	assert.Equal(t, "What is the capital of France?", list[0].Question)
}

func TestAskNewestFirst(t *testing.T) {
	env := pipelinetest.New(t, "answer")
	hindi, _ := message.ParseCode("hi")

	_, err := env.Pipeline.Ask(testContext(t), message.Query{Text: "first", Language: message.Default})
	require.NoError(t, err)
	_, err = env.Pipeline.Ask(testContext(t), message.Query{Text: "second", Language: hindi})
	require.NoError(t, err)

	reloaded, err := history.OpenFile(env.HistoryPath)
	require.NoError(t, err)
	list, _ := reloaded.List(testContext(t))
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].Question)
	assert.Equal(t, "Hindi", list[0].Language)
	assert.Equal(t, "first", list[1].Question)
}

func TestAskGenerationFailure(t *testing.T) {
	env := pipelinetest.New(t, "")
	env.Interpreter.CompleteErr = errors.New("connection reset")

	res, err := env.Pipeline.Ask(testContext(t), message.Query{Text: "q", Language: message.Default})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Empty(t, env.Synthesizer.Calls)
	list, _ := env.Pipeline.History(testContext(t))
	assert.Empty(t, list)
}

func TestAskSynthesisFailureKeepsAnswer(t *testing.T) {
	env := pipelinetest.New(t, "Use compost.")
	env.Synthesizer.Err = errors.New("tts down")

	res, err := env.Pipeline.Ask(testContext(t), message.Query{Text: "soil?", Language: message.Default})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "Use compost.", res.Answer)
	assert.Contains(t, res.Error, "tts down")
	assert.Empty(t, res.AudioPath)

	list, _ := env.Pipeline.History(testContext(t))
	require.Len(t, list, 1)
	assert.Equal(t, "Use compost.", list[0].Answer)
}

func TestTranscribeJoinsSegments(t *testing.T) {
	env := pipelinetest.New(t, "")
	env.Interpreter.Segments = []interpreter.Segment{{Text: " Which fertilizer"}, {Text: "is best "}}

	text, err := env.Pipeline.Transcribe(testContext(t), "/tmp/q.wav")
	require.NoError(t, err)
	assert.Equal(t, "Which fertilizer is best", text)
	assert.Equal(t, []string{"/tmp/q.wav"}, env.Interpreter.AudioPaths)
}

func TestTranscribeError(t *testing.T) {
	env := pipelinetest.New(t, "")
	env.Interpreter.TranscribeErr = os.ErrNotExist

	_, err := env.Pipeline.Transcribe(testContext(t), "missing.wav")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAnswerUsesRequestedTemplate(t *testing.T) {
	env := pipelinetest.New(t, "ok")
	telugu, _ := message.ParseCode("te")

	_, err := env.Pipeline.Answer(testContext(t), message.Query{Text: "paddy", Language: telugu}, prompt.Open)
	require.NoError(t, err)
	require.Len(t, env.Interpreter.Prompts, 1)
	assert.NotContains(t, env.Interpreter.Prompts[0], prompt.TopicClause)
	assert.Contains(t, env.Interpreter.Prompts[0], "te")
	assert.Equal(t, prompt.Open, env.Pipeline.BatchTemplate())
}
