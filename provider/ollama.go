package provider

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/ollama/ollama/api"

	"kodiak/model"
	"kodiak/ollama"
)

// OllamaProvider implements model.Provider against a local Ollama server.
// It converts transcript messages to api.Message, tool descriptors to
// api.Tool, and api.ToolCall back to model.ToolCall.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates an Ollama provider. Empty baseURL and model fall
// back to the client defaults.
func NewOllamaProvider(baseURL, modelName string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{client: client}, nil
}

// Chat implements model.Provider.
func (p *OllamaProvider) Chat(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools implements model.Provider. Tools are silently dropped for
// models the capability table marks as not supporting tool calling; those
// models error on requests carrying a tools field.
func (p *OllamaProvider) ChatWithTools(ctx context.Context, messages []model.TranscriptMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
	ollamaMessages := toOllamaMessages(messages)

	var ollamaTools []api.Tool
	if len(tools) > 0 && p.client.SupportsToolCalling() {
		ollamaTools = ConvertToolsToOllama(tools)
	}

	ollamaCallback := func(chunk string, ollamaCalls []api.ToolCall) error {
		if callback == nil {
			return nil
		}
		return callback(chunk, fromOllamaToolCalls(ollamaCalls))
	}

	return p.client.ChatWithTools(ctx, ollamaMessages, ollamaTools, ollamaCallback)
}

// ListModels implements model.Provider.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return p.client.ListModels(ctx)
}

// GetModel implements model.Provider.
func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

// SetModel implements model.Provider.
func (p *OllamaProvider) SetModel(modelName string) {
	p.client.SetModel(modelName)
}

// Ping implements model.Provider.
func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
