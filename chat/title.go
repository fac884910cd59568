package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kodiak/model"
)

// maxTitleLength bounds generated titles so the conversation list stays
// readable.
const maxTitleLength = 50

// TitleGenerator produces a short conversation title from the first
// exchange. It talks to the provider directly with a constrained prompt and
// never touches the conversation transcript.
type TitleGenerator struct {
	provider model.Provider
	logger   *zap.Logger
}

// NewTitleGenerator creates a title generator.
func NewTitleGenerator(provider model.Provider, logger *zap.Logger) *TitleGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TitleGenerator{provider: provider, logger: logger}
}

// Generate returns a cleaned-up title for the first user/assistant exchange.
func (g *TitleGenerator) Generate(ctx context.Context, userContent, assistantContent string) (string, error) {
	prompt := fmt.Sprintf(
		"Generate a short title of at most four words for this conversation. "+
			"Reply with the title only, no quotes and no punctuation at the end.\n\n"+
			"User: %s\nAssistant: %s",
		truncate(userContent, 500), truncate(assistantContent, 500))

	transcript := []model.TranscriptMessage{
		{Role: model.RoleUser, Content: prompt},
	}

	var b strings.Builder
	err := g.provider.Chat(ctx, transcript, func(chunk string, _ []model.ToolCall) error {
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate title: %w", err)
	}

	title := cleanTitle(b.String())
	if title == "" {
		return "", fmt.Errorf("title generation produced no usable text")
	}
	return title, nil
}

// cleanTitle normalizes model output into a single short line.
func cleanTitle(raw string) string {
	title := strings.TrimSpace(raw)

	// Models often wrap titles in quotes or prefix a label despite the
	// prompt; keep only the first line and strip the decoration.
	if i := strings.IndexAny(title, "\r\n"); i >= 0 {
		title = title[:i]
	}
	title = strings.Trim(title, `"'`)
	title = strings.TrimPrefix(title, "Title:")
	title = strings.TrimSpace(title)
	title = strings.TrimSuffix(title, ".")

	if len(title) > maxTitleLength {
		title = strings.TrimSpace(title[:maxTitleLength])
	}
	return title
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
