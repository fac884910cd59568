package config

// DefaultSystemPrompt is used when the config file carries none.
const DefaultSystemPrompt = "You are a helpful and concise assistant. Provide clear, accurate answers in a professional manner."

// DefaultConfig returns the configuration used on first launch. Weather,
// image analysis and document analysis are on by default; the web search and
// wikipedia tools ship as stubs and stay off.
func DefaultConfig() *Config {
	return &Config{
		DataDirectory:   GetDefaultDataDir(),
		DefaultProvider: "ollama",
		Ollama: OllamaConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
		SystemPrompt:  DefaultSystemPrompt,
		MaxToolRounds: 5,
		Tools: ToolsConfig{
			Weather:          true,
			ImageAnalysis:    true,
			DocumentAnalysis: true,
			WebSearch:        false,
			Wikipedia:        false,
		},
	}
}
