package provider

import (
	"fmt"

	"kodiak/model"
)

// NewProvider creates a provider from configuration. It dispatches on
// Config.Type and returns the constructor's error unchanged, so an invalid
// URL or missing API key surfaces at startup rather than mid-chat.
func NewProvider(cfg Config) (model.Provider, error) {
	switch cfg.Type {
	case ProviderTypeOllama:
		p, err := NewOllamaProvider(cfg.BaseURL, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeOpenAI:
		p, err := NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	case ProviderTypeAnthropic:
		p, err := NewAnthropicProvider(cfg.BaseURL, cfg.APIKey, cfg.Model)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown provider type: %s", cfg.Type)
	}
}

// MapProviderIDToType converts a settings provider ID to a ProviderType.
// "openrouter" maps to the OpenAI implementation since the API is
// OpenAI-compatible. Unknown IDs pass through so the factory can error.
func MapProviderIDToType(id string) ProviderType {
	switch id {
	case "ollama":
		return ProviderTypeOllama
	case "openrouter", "openai":
		return ProviderTypeOpenAI
	case "anthropic":
		return ProviderTypeAnthropic
	default:
		return ProviderType(id)
	}
}
