package chat

import (
	"context"
	"encoding/json"
	"strings"
)

// defaultSuggestions is shown when the model cannot produce suggestions,
// e.g. the server is unreachable on first launch.
var defaultSuggestions = []string{
	"What's the weather like in Tokyo?",
	"Explain how HTTP caching works",
	"Help me draft a short email",
	"Summarize the plot of Hamlet",
	"Give me a simple pasta recipe",
	"What can you help me with?",
}

// WelcomeSuggestions asks the model for six short conversation starters for
// the empty-state screen. Failures fall back to a fixed set; the welcome
// screen never errors.
func WelcomeSuggestions(ctx context.Context, responder Responder) []string {
	const prompt = `Generate six short, varied conversation starter suggestions for a chat assistant.
Reply with a JSON array of six strings and nothing else.`

	raw, err := responder.Respond(ctx, prompt)
	if err != nil {
		return defaultSuggestions
	}

	// Tolerate code fences around the array.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var suggestions []string
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &suggestions); err != nil {
		return defaultSuggestions
	}

	cleaned := make([]string, 0, 6)
	for _, s := range suggestions {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		cleaned = append(cleaned, s)
		if len(cleaned) == 6 {
			break
		}
	}
	if len(cleaned) == 0 {
		return defaultSuggestions
	}
	return cleaned
}

// Responder produces a single non-streaming completion. *Session satisfies
// it.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}
