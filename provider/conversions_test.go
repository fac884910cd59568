package provider

import (
	"testing"

	"github.com/ollama/ollama/api"

	"kodiak/model"
)

func TestToOllamaMessages(t *testing.T) {
	messages := []model.TranscriptMessage{
		{Role: model.RoleSystem, Content: "be helpful"},
		{Role: model.RoleUser, Content: "hi"},
		{Role: model.RoleAssistant, Content: "hello"},
		{Role: model.RoleTool, Content: "Current weather in Oslo: 5°C • Snow"},
	}

	got := toOllamaMessages(messages)
	if len(got) != len(messages) {
		t.Fatalf("expected %d messages, got %d", len(messages), len(got))
	}
	for i, msg := range messages {
		if got[i].Role != msg.Role || got[i].Content != msg.Content {
			t.Errorf("message %d mismatch: %+v vs %+v", i, got[i], msg)
		}
	}
}

func TestFromOllamaToolCalls(t *testing.T) {
	if got := fromOllamaToolCalls(nil); got != nil {
		t.Errorf("expected nil for nil input, got %v", got)
	}

	calls := []api.ToolCall{
		{Function: api.ToolCallFunction{
			Name:      "getWeather",
			Arguments: map[string]any{"city": "Paris"},
		}},
	}

	got := fromOllamaToolCalls(calls)
	if len(got) != 1 {
		t.Fatalf("expected 1 call, got %d", len(got))
	}
	if got[0].Name != "getWeather" {
		t.Errorf("unexpected name: %q", got[0].Name)
	}
	if got[0].Arguments["city"] != "Paris" {
		t.Errorf("unexpected arguments: %v", got[0].Arguments)
	}
}

func TestParseToolArguments(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  map[string]any
	}{
		{
			name:  "valid json",
			input: `{"city": "Oslo", "days": 3}`,
			want:  map[string]any{"city": "Oslo", "days": float64(3)},
		},
		{
			name:  "invalid json yields empty map",
			input: `{"city": `,
			want:  map[string]any{},
		},
		{
			name:  "empty string yields empty map",
			input: "",
			want:  map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseToolArguments(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("key %q: expected %v, got %v", k, v, got[k])
				}
			}
		})
	}
}
