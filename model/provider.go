package model

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Provider abstracts LLM provider implementations (Ollama, OpenAI, Anthropic)
// using provider-agnostic types from the model layer.
//
// The interface lives here (not in the provider package) to avoid import
// cycles: provider implementations import model, and the chat layer uses the
// interface without importing any concrete provider.
type Provider interface {
	// Chat sends transcript messages and streams response deltas via callback.
	Chat(ctx context.Context, messages []TranscriptMessage, callback StreamCallback) error

	// ChatWithTools sends transcript messages with available tools and streams
	// responses. Tool calls requested by the model are delivered through the
	// callback alongside (or instead of) text deltas.
	ChatWithTools(ctx context.Context, messages []TranscriptMessage, tools []mcptypes.Tool, callback StreamCallback) error

	// ListModels returns the models available on this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the currently selected model name.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks if the provider is reachable.
	Ping(ctx context.Context) error
}

// StreamCallback is invoked for each streamed chunk. Chunks are deltas at
// this layer; the chat.Session converts them into cumulative snapshots.
type StreamCallback func(chunk string, toolCalls []ToolCall) error

// TranscriptMessage is a wire-level message sent to a provider. It carries
// only what the provider APIs understand; persisted Message records are
// converted down to this shape before a request.
type TranscriptMessage struct {
	Role    string
	Content string
}

// ToolCall is a provider-agnostic tool invocation requested by the model.
type ToolCall struct {
	Name      string
	Arguments map[string]any
}

// ModelInfo describes a model offered by a provider.
type ModelInfo struct {
	Name     string
	Size     int64
	Provider string
}
