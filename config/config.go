package config

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// OllamaConfig holds connection settings for a local Ollama server.
type OllamaConfig struct {
	Host         string `toml:"host"`
	DefaultModel string `toml:"default_model"`
}

// CloudProviderConfig holds settings for an API-key provider. Keys themselves
// live in the encrypted credential store, never in the config file.
type CloudProviderConfig struct {
	Enabled bool   `toml:"enabled"`
	BaseURL string `toml:"base_url,omitempty"`
	Model   string `toml:"model,omitempty"`
}

// ToolsConfig is the enabled tool set. The set is read once when a session is
// built and stays frozen for the lifetime of that session.
type ToolsConfig struct {
	Weather          bool `toml:"weather"`
	ImageAnalysis    bool `toml:"image_analysis"`
	DocumentAnalysis bool `toml:"document_analysis"`
	WebSearch        bool `toml:"web_search"`
	Wikipedia        bool `toml:"wikipedia"`
}

// Config is the full application configuration.
type Config struct {
	DataDirectory   string              `toml:"data_directory"`
	DefaultProvider string              `toml:"default_provider"`
	Ollama          OllamaConfig        `toml:"ollama"`
	OpenAI          CloudProviderConfig `toml:"openai"`
	Anthropic       CloudProviderConfig `toml:"anthropic"`
	SystemPrompt    string              `toml:"system_prompt,omitempty"`
	MaxToolRounds   int                 `toml:"max_tool_rounds"`
	Tools           ToolsConfig         `toml:"tools"`
	Debug           bool                `toml:"debug"`
}

// DataDir returns the expanded data directory path.
func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

// applyEnvOverrides lets the environment win over the config file.
func (c *Config) applyEnvOverrides() {
	if dataDir := os.Getenv("KODIAK_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if host := os.Getenv("KODIAK_OLLAMA_HOST"); host != "" {
		c.Ollama.Host = host
	}
	if model := os.Getenv("KODIAK_OLLAMA_MODEL"); model != "" {
		c.Ollama.DefaultModel = model
	}
	if p := os.Getenv("KODIAK_PROVIDER"); p != "" {
		c.DefaultProvider = p
	}
	if debug := os.Getenv("KODIAK_DEBUG"); debug == "true" || debug == "1" {
		c.Debug = true
	}
}

// NewLogger builds the application logger. With Debug set it logs at debug
// level and additionally sinks to debug.log in the data directory.
func NewLogger(cfg *Config) (*zap.Logger, error) {
	if !cfg.Debug {
		zc := zap.NewProductionConfig()
		zc.OutputPaths = []string{"stderr"}
		return zc.Build()
	}

	zc := zap.NewDevelopmentConfig()
	zc.OutputPaths = []string{"stderr"}
	if dataDir := cfg.DataDir(); dataDir != "" {
		if err := EnsureDir(dataDir); err == nil {
			zc.OutputPaths = append(zc.OutputPaths, filepath.Join(dataDir, "debug.log"))
		}
	}
	return zc.Build()
}
