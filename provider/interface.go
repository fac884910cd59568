// Package provider implements the model.Provider contract for the supported
// LLM backends: a local Ollama server and the OpenAI and Anthropic cloud
// APIs. It owns every conversion between the app's provider-agnostic types
// and each backend's wire types, so nothing above this package imports an
// SDK type.
//
// OpenRouter is served by the OpenAI implementation: its API is
// OpenAI-compatible, so MapProviderIDToType routes "openrouter" to
// ProviderTypeOpenAI and only the base URL differs.
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama    ProviderType = "ollama"
	ProviderTypeOpenAI    ProviderType = "openai"
	ProviderTypeAnthropic ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // unused for Ollama
}
