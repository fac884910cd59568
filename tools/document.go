package tools

import (
	"context"
	"fmt"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// maxDocumentChars bounds how much extracted text is forwarded to the model
// in a single analysis prompt.
const maxDocumentChars = 8000

// Responder produces a single non-streaming completion for a prompt. The chat
// session satisfies this; tests use a fake.
type Responder interface {
	Respond(ctx context.Context, prompt string) (string, error)
}

// DocumentAnalysisTool summarizes extracted document text by delegating to a
// model responder with a summarization prompt.
type DocumentAnalysisTool struct {
	responder Responder
}

// NewDocumentAnalysisTool creates the document analysis tool.
func NewDocumentAnalysisTool(responder Responder) *DocumentAnalysisTool {
	return &DocumentAnalysisTool{responder: responder}
}

// Definition implements Tool.
func (t *DocumentAnalysisTool) Definition() mcptypes.Tool {
	return mcptypes.NewTool("analyzeDocument",
		mcptypes.WithDescription("Summarize and answer questions about extracted document text"),
		mcptypes.WithString("text",
			mcptypes.Required(),
			mcptypes.Description("The extracted document text to analyze"),
		),
		mcptypes.WithString("metadata",
			mcptypes.Description("Optional document metadata such as filename or page count"),
		),
	)
}

// Call implements Tool.
func (t *DocumentAnalysisTool) Call(ctx context.Context, args map[string]any) (string, error) {
	text := strings.TrimSpace(stringArg(args, "text"))
	if text == "" {
		return "No document text provided.", nil
	}

	truncated := false
	if len(text) > maxDocumentChars {
		text = text[:maxDocumentChars]
		truncated = true
	}

	var b strings.Builder
	b.WriteString("Summarize the following document concisely, highlighting key points")
	if metadata := strings.TrimSpace(stringArg(args, "metadata")); metadata != "" {
		fmt.Fprintf(&b, " (%s)", metadata)
	}
	b.WriteString(".\n\n")
	b.WriteString(text)
	if truncated {
		b.WriteString("\n\n[document truncated]")
	}

	summary, err := t.responder.Respond(ctx, b.String())
	if err != nil {
		return "I couldn't analyze the document right now.", nil
	}
	return summary, nil
}
