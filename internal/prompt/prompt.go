// Package prompt builds the single-turn prompts sent to the language model.
//
// The restricted template keeps the assistant on agricultural topics and
// asks it to refuse anything else. Refusal is left entirely to the model;
// nothing downstream inspects the answer.
package prompt

import (
	"fmt"
	"strings"
)

// Template names a prompt variant.
type Template string

const (
	// Restricted limits answers to the agriculture topic set.
	Restricted Template = "restricted"

	// Open frames the model as an agricultural assistant with no topic rules.
	Open Template = "open"
)

// Topics lists the subjects the restricted template allows.
var Topics = []string{"crops", "pests", "diseases", "fertilizers", "manure", "soil"}

// TopicClause is the fixed topic-restriction line of the restricted template.
var TopicClause = "- Topics: " + strings.Join(Topics, ", ") + "."

// ParseTemplate validates a template name.
func ParseTemplate(name string) (Template, error) {
	switch t := Template(strings.ToLower(strings.TrimSpace(name))); t {
	case Restricted, Open:
		return t, nil
	default:
		return "", fmt.Errorf("unknown prompt template %q", name)
	}
}

// Build renders the prompt for a query in the given language code.
// Unknown templates render as Restricted.
func Build(t Template, query, langCode string) string {
	if t == Open {
		return buildOpen(query, langCode)
	}
	return buildRestricted(query, langCode)
}

func buildRestricted(query, langCode string) string {
	var sb strings.Builder
	sb.WriteString("You are Krishi Sahay, an expert agricultural assistant for Indian farmers.\n\n")
	sb.WriteString("Rules:\n")
	sb.WriteString("- Answer ONLY agriculture-related questions.\n")
	sb.WriteString(TopicClause + "\n")
	sb.WriteString("- Politely refuse non-agriculture questions.\n\n")
	sb.WriteString("Question:\n")
	sb.WriteString(query + "\n\n")
	sb.WriteString("Respond strictly in language code: " + langCode + ".\n")
	return sb.String()
}

func buildOpen(query, langCode string) string {
	var sb strings.Builder
	sb.WriteString("You are an expert agricultural assistant for Indian farmers.\n\n")
	sb.WriteString("The farmer asked:\n")
	sb.WriteString(query + "\n\n")
	sb.WriteString("Respond in this language code: " + langCode + ".\n")
	sb.WriteString("Give a clear, helpful agricultural answer.\n")
	return sb.String()
}
