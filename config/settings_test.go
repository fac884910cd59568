package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromPathCreatesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !FileExists(path) {
		t.Error("expected defaults written to disk on first load")
	}
	if cfg.DefaultProvider != "ollama" {
		t.Errorf("expected default provider ollama, got %q", cfg.DefaultProvider)
	}
	if cfg.Ollama.Host != "http://localhost:11434" {
		t.Errorf("unexpected default host: %q", cfg.Ollama.Host)
	}
	if cfg.MaxToolRounds != 5 {
		t.Errorf("expected default max tool rounds 5, got %d", cfg.MaxToolRounds)
	}
	if cfg.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("unexpected default system prompt: %q", cfg.SystemPrompt)
	}
	if !cfg.Tools.Weather || !cfg.Tools.ImageAnalysis || !cfg.Tools.DocumentAnalysis {
		t.Errorf("expected weather/image/document tools on by default: %+v", cfg.Tools)
	}
	if cfg.Tools.WebSearch || cfg.Tools.Wikipedia {
		t.Errorf("expected stub tools off by default: %+v", cfg.Tools)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("expected settings file mode 0600, got %o", perm)
	}
}

func TestLoadFromPathReadsExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.toml")
	content := `data_directory = "/tmp/kodiak-test"
default_provider = "anthropic"
max_tool_rounds = 2

[ollama]
host = "http://box:11434"
default_model = "mistral:latest"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.DefaultProvider != "anthropic" {
		t.Errorf("expected anthropic, got %q", cfg.DefaultProvider)
	}
	if cfg.Ollama.Host != "http://box:11434" || cfg.Ollama.DefaultModel != "mistral:latest" {
		t.Errorf("unexpected ollama config: %+v", cfg.Ollama)
	}
	if cfg.MaxToolRounds != 2 {
		t.Errorf("expected 2 tool rounds, got %d", cfg.MaxToolRounds)
	}
	// Missing system prompt is backfilled.
	if cfg.SystemPrompt != DefaultSystemPrompt {
		t.Errorf("expected backfilled system prompt, got %q", cfg.SystemPrompt)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KODIAK_DATA_DIR", "/tmp/kodiak-env")
	t.Setenv("KODIAK_OLLAMA_HOST", "http://env:11434")
	t.Setenv("KODIAK_OLLAMA_MODEL", "qwen2.5:latest")
	t.Setenv("KODIAK_PROVIDER", "openai")
	t.Setenv("KODIAK_DEBUG", "1")

	path := filepath.Join(t.TempDir(), "settings.toml")
	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DataDirectory != "/tmp/kodiak-env" {
		t.Errorf("data dir override missing: %q", cfg.DataDirectory)
	}
	if cfg.Ollama.Host != "http://env:11434" {
		t.Errorf("host override missing: %q", cfg.Ollama.Host)
	}
	if cfg.Ollama.DefaultModel != "qwen2.5:latest" {
		t.Errorf("model override missing: %q", cfg.Ollama.DefaultModel)
	}
	if cfg.DefaultProvider != "openai" {
		t.Errorf("provider override missing: %q", cfg.DefaultProvider)
	}
	if !cfg.Debug {
		t.Error("debug override missing")
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir: %v", err)
	}

	if got := ExpandPath("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("unexpected expansion: %q", got)
	}
	if got := ExpandPath("/absolute/path"); got != "/absolute/path" {
		t.Errorf("absolute path must pass through: %q", got)
	}
}
