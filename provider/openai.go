package provider

import (
	"context"
	"fmt"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"kodiak/model"
)

// OpenAIProvider implements model.Provider against the OpenAI API via the
// official SDK. It also serves OpenRouter, whose API is OpenAI-compatible;
// only the base URL differs.
type OpenAIProvider struct {
	client  openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider creates an OpenAI provider. The API key is required.
func NewOpenAIProvider(baseURL, apiKey, modelName string) (*OpenAIProvider, error) {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if modelName == "" {
		modelName = "gpt-4o-mini"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenAIProvider{
		client:  client,
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// Chat implements model.Provider.
func (p *OpenAIProvider) Chat(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
	return p.ChatWithTools(ctx, messages, nil, callback)
}

// ChatWithTools implements model.Provider with streaming support.
func (p *OpenAIProvider) ChatWithTools(ctx context.Context, messages []model.TranscriptMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
	withInstructions := messages
	if len(tools) > 0 {
		instruction := model.TranscriptMessage{
			Role:    model.RoleSystem,
			Content: buildToolInstructions(tools),
		}
		withInstructions = append([]model.TranscriptMessage{instruction}, messages...)
	}

	params := openai.ChatCompletionNewParams{
		Messages: toOpenAIMessages(withInstructions),
		Model:    openai.ChatModel(p.model),
	}
	if len(tools) > 0 {
		params.Tools = ConvertToolsToOpenAI(tools)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	acc := openai.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)

		if tool, ok := acc.JustFinishedToolCall(); ok && callback != nil {
			call := model.ToolCall{
				Name:      tool.Name,
				Arguments: ParseToolArguments(tool.Arguments),
			}
			if err := callback("", []model.ToolCall{call}); err != nil {
				return err
			}
		}

		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if callback != nil {
				if err := callback(chunk.Choices[0].Delta.Content, nil); err != nil {
					return err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("OpenAI streaming error: %w", err)
	}

	return nil
}

// ListModels implements model.Provider.
func (p *OpenAIProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenAI models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(page.Data))
	for _, m := range page.Data {
		result = append(result, model.ModelInfo{
			Name:     m.ID,
			Size:     0,
			Provider: "openai",
		})
	}

	return result, nil
}

// GetModel implements model.Provider.
func (p *OpenAIProvider) GetModel() string {
	return p.model
}

// SetModel implements model.Provider.
func (p *OpenAIProvider) SetModel(modelName string) {
	p.model = modelName
}

// Ping implements model.Provider by listing models.
func (p *OpenAIProvider) Ping(ctx context.Context) error {
	if _, err := p.client.Models.List(ctx); err != nil {
		return fmt.Errorf("OpenAI ping failed: %w", err)
	}
	return nil
}
