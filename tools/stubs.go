package tools

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// WebSearchTool is registered when enabled in settings but is not implemented
// yet. It responds with a fixed notice so the model can relay it.
type WebSearchTool struct{}

// Definition implements Tool.
func (WebSearchTool) Definition() mcptypes.Tool {
	return mcptypes.NewTool("searchWeb",
		mcptypes.WithDescription("Search the web for up-to-date information"),
		mcptypes.WithString("query",
			mcptypes.Required(),
			mcptypes.Description("The search query"),
		),
	)
}

// Call implements Tool.
func (WebSearchTool) Call(ctx context.Context, args map[string]any) (string, error) {
	return "Web search is coming soon and is not available yet.", nil
}

// WikipediaTool is registered when enabled in settings but is not implemented
// yet. It responds with a fixed notice so the model can relay it.
type WikipediaTool struct{}

// Definition implements Tool.
func (WikipediaTool) Definition() mcptypes.Tool {
	return mcptypes.NewTool("searchWikipedia",
		mcptypes.WithDescription("Look up a topic on Wikipedia"),
		mcptypes.WithString("topic",
			mcptypes.Required(),
			mcptypes.Description("The topic to look up"),
		),
	)
}

// Call implements Tool.
func (WikipediaTool) Call(ctx context.Context, args map[string]any) (string, error) {
	return "Wikipedia lookup is coming soon and is not available yet.", nil
}
