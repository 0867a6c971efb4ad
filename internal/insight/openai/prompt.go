package openai

import (
	_ "embed"
	"fmt"
	"strings"
)

//go:embed prompts/analyze_v1.txt
var analyzePromptV1 string

// Message is one chat message sent to the provider.
type Message struct {
	Role    string
	Content string
}

// BuildPrompt assembles the chat messages for one analysis call.
func BuildPrompt(text string, hints map[string]string) []Message {
	var user strings.Builder
	user.WriteString("Metadata hints (may be wrong or incomplete):\n")
	for _, key := range []string{"title", "authors", "publishedAt"} {
		val := strings.TrimSpace(hints[key])
		if val == "" {
			val = "(none)"
		}
		fmt.Fprintf(&user, "- %s: %s\n", key, val)
	}
	user.WriteString("\nDocument text:\n")
	user.WriteString(text)

	return []Message{
		{Role: "system", Content: strings.TrimSpace(analyzePromptV1)},
		{Role: "user", Content: user.String()},
	}
}

// buildFixPrompt asks the model to repair a previous non-JSON reply.
func buildFixPrompt(raw []byte) []Message {
	return []Message{
		{Role: "system", Content: strings.TrimSpace(analyzePromptV1)},
		{Role: "user", Content: "The previous reply was not valid JSON. Reply again with only the corrected JSON object, no commentary:\n\n" + string(raw)},
	}
}
