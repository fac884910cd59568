// Package testutil provides a configurable mock provider for tests.
package testutil

import (
	"context"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"kodiak/model"
)

// MockProvider implements model.Provider for testing. Each method delegates
// to a swappable func field, so tests can script streaming behavior per case.
type MockProvider struct {
	ChatFunc          func(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error
	ChatWithToolsFunc func(ctx context.Context, messages []model.TranscriptMessage, tools []mcptypes.Tool, callback model.StreamCallback) error
	ListModelsFunc    func(ctx context.Context) ([]model.ModelInfo, error)
	PingFunc          func(ctx context.Context) error

	currentModel string
}

// NewMockProvider creates a mock provider with echo-style defaults.
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{currentModel: modelName}
	mock.ChatFunc = mock.defaultChat
	mock.ChatWithToolsFunc = mock.defaultChatWithTools
	mock.ListModelsFunc = mock.defaultListModels
	mock.PingFunc = mock.defaultPing
	return mock
}

func (m *MockProvider) defaultChat(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
	if len(messages) > 0 {
		return callback("Mock response", nil)
	}
	return nil
}

func (m *MockProvider) defaultChatWithTools(ctx context.Context, messages []model.TranscriptMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
	return callback("Mock response with tools", nil)
}

func (m *MockProvider) defaultListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return []model.ModelInfo{
		{Name: "mock-model-1", Size: 1000, Provider: "mock"},
		{Name: "mock-model-2", Size: 2000, Provider: "mock"},
	}, nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) Chat(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
	return m.ChatFunc(ctx, messages, callback)
}

func (m *MockProvider) ChatWithTools(ctx context.Context, messages []model.TranscriptMessage, tools []mcptypes.Tool, callback model.StreamCallback) error {
	return m.ChatWithToolsFunc(ctx, messages, tools, callback)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) SetModel(modelName string) {
	m.currentModel = modelName
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}
