package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"kodiak/model"
	"kodiak/provider/testutil"
	"kodiak/tools"
)

// fakeTool records calls and returns a scripted result.
type fakeTool struct {
	name   string
	result string
	err    error
	calls  []map[string]any
}

func (f *fakeTool) Definition() mcptypes.Tool {
	return mcptypes.NewTool(f.name,
		mcptypes.WithDescription("test tool"),
		mcptypes.WithString("city", mcptypes.Description("city")),
	)
}

func (f *fakeTool) Call(ctx context.Context, args map[string]any) (string, error) {
	f.calls = append(f.calls, args)
	return f.result, f.err
}

func TestStreamResponseCumulativeSnapshots(t *testing.T) {
	mock := testutil.NewMockProvider("test-model")
	mock.ChatFunc = func(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
		for _, delta := range []string{"H", "e", "llo there"} {
			if err := callback(delta, nil); err != nil {
				return err
			}
		}
		return nil
	}

	session := NewSession(mock, nil, "", 3, nil)

	var snapshots []string
	final, err := session.StreamResponse(context.Background(), "hi", func(cumulative string) error {
		snapshots = append(snapshots, cumulative)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"H", "He", "Hello there"}
	if len(snapshots) != len(want) {
		t.Fatalf("expected %d snapshots, got %d: %v", len(want), len(snapshots), snapshots)
	}
	for i := range want {
		if snapshots[i] != want[i] {
			t.Errorf("snapshot %d: expected %q, got %q", i, want[i], snapshots[i])
		}
	}
	if final != "Hello there" {
		t.Errorf("expected final %q, got %q", "Hello there", final)
	}
}

func TestStreamResponseAppendsHistory(t *testing.T) {
	mock := testutil.NewMockProvider("test-model")
	mock.ChatFunc = func(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
		return callback("response", nil)
	}

	session := NewSession(mock, nil, "system prompt", 3, nil)

	if _, err := session.StreamResponse(context.Background(), "question", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	history := session.History()
	roles := make([]string, len(history))
	for i, msg := range history {
		roles[i] = msg.Role
	}
	want := []string{model.RoleSystem, model.RoleUser, model.RoleAssistant}
	if len(roles) != len(want) {
		t.Fatalf("expected roles %v, got %v", want, roles)
	}
	for i := range want {
		if roles[i] != want[i] {
			t.Errorf("history[%d]: expected role %q, got %q", i, want[i], roles[i])
		}
	}
}

func TestToolDispatchLoop(t *testing.T) {
	tool := &fakeTool{name: "getWeather", result: "Current weather in Paris: 18°C • Clear"}
	registry, err := tools.NewRegistry(tool)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	round := 0
	mock := testutil.NewMockProvider("test-model")
	mock.ChatWithToolsFunc = func(ctx context.Context, messages []model.TranscriptMessage, defs []mcptypes.Tool, callback model.StreamCallback) error {
		round++
		if round == 1 {
			return callback("", []model.ToolCall{{
				Name:      "getWeather",
				Arguments: map[string]any{"city": "Paris"},
			}})
		}
		// The continuation request must carry the tool result.
		last := messages[len(messages)-1]
		if last.Role != model.RoleTool {
			t.Errorf("expected tool message in continuation, got role %q", last.Role)
		}
		if !strings.Contains(last.Content, "18°C") {
			t.Errorf("tool result missing from continuation: %q", last.Content)
		}
		return callback("It is 18 degrees in Paris.", nil)
	}

	session := NewSession(mock, registry, "", 5, nil)

	final, err := session.StreamResponse(context.Background(), "weather in paris?", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if final != "It is 18 degrees in Paris." {
		t.Errorf("unexpected final text: %q", final)
	}
	if len(tool.calls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(tool.calls))
	}
	if city := tool.calls[0]["city"]; city != "Paris" {
		t.Errorf("expected city argument Paris, got %v", city)
	}
	if round != 2 {
		t.Errorf("expected 2 provider rounds, got %d", round)
	}
}

func TestToolCallAlongsideTextChunk(t *testing.T) {
	tool := &fakeTool{name: "getWeather", result: "Current weather in Oslo: 4°C • Overcast"}
	registry, err := tools.NewRegistry(tool)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	round := 0
	mock := testutil.NewMockProvider("test-model")
	mock.ChatWithToolsFunc = func(ctx context.Context, messages []model.TranscriptMessage, defs []mcptypes.Tool, callback model.StreamCallback) error {
		round++
		if round == 1 {
			// A single invocation may carry text and tool calls together.
			return callback("Let me check. ", []model.ToolCall{{
				Name:      "getWeather",
				Arguments: map[string]any{"city": "Oslo"},
			}})
		}
		return callback("It is 4 degrees in Oslo.", nil)
	}

	session := NewSession(mock, registry, "", 5, nil)

	var snapshots []string
	final, err := session.StreamResponse(context.Background(), "weather in oslo?", func(cumulative string) error {
		snapshots = append(snapshots, cumulative)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(tool.calls) != 1 {
		t.Fatalf("expected 1 tool call despite accompanying text, got %d", len(tool.calls))
	}
	if round != 2 {
		t.Errorf("expected a continuation round, got %d rounds", round)
	}
	if final != "Let me check. It is 4 degrees in Oslo." {
		t.Errorf("unexpected final text: %q", final)
	}
	if len(snapshots) == 0 || snapshots[0] != "Let me check. " {
		t.Errorf("expected pre-call text in first snapshot, got %v", snapshots)
	}
}

func TestToolErrorBecomesText(t *testing.T) {
	tool := &fakeTool{name: "getWeather", err: errors.New("network down")}
	registry, err := tools.NewRegistry(tool)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	round := 0
	mock := testutil.NewMockProvider("test-model")
	mock.ChatWithToolsFunc = func(ctx context.Context, messages []model.TranscriptMessage, defs []mcptypes.Tool, callback model.StreamCallback) error {
		round++
		if round == 1 {
			return callback("", []model.ToolCall{{Name: "getWeather", Arguments: map[string]any{}}})
		}
		last := messages[len(messages)-1]
		if last.Role != model.RoleTool || !strings.Contains(last.Content, "failed") {
			t.Errorf("expected failure text in tool message, got %q/%q", last.Role, last.Content)
		}
		return callback("I couldn't check the weather.", nil)
	}

	session := NewSession(mock, registry, "", 5, nil)

	final, err := session.StreamResponse(context.Background(), "weather?", nil)
	if err != nil {
		t.Fatalf("tool failure must not fail the turn: %v", err)
	}
	if final != "I couldn't check the weather." {
		t.Errorf("unexpected final text: %q", final)
	}
}

func TestToolRoundLimit(t *testing.T) {
	tool := &fakeTool{name: "getWeather", result: "ok"}
	registry, err := tools.NewRegistry(tool)
	if err != nil {
		t.Fatalf("failed to build registry: %v", err)
	}

	rounds := 0
	mock := testutil.NewMockProvider("test-model")
	mock.ChatWithToolsFunc = func(ctx context.Context, messages []model.TranscriptMessage, defs []mcptypes.Tool, callback model.StreamCallback) error {
		rounds++
		return callback("", []model.ToolCall{{Name: "getWeather", Arguments: map[string]any{}}})
	}

	session := NewSession(mock, registry, "", 3, nil)

	if _, err := session.StreamResponse(context.Background(), "loop forever", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rounds != 3 {
		t.Errorf("expected exactly 3 rounds, got %d", rounds)
	}
}

func TestStreamResponseReturnsPartialOnError(t *testing.T) {
	mock := testutil.NewMockProvider("test-model")
	mock.ChatFunc = func(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
		if err := callback("Hel", nil); err != nil {
			return err
		}
		return errors.New("connection reset")
	}

	session := NewSession(mock, nil, "", 3, nil)

	final, err := session.StreamResponse(context.Background(), "hi", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if final != "Hel" {
		t.Errorf("expected partial text %q, got %q", "Hel", final)
	}
}

func TestRespond(t *testing.T) {
	mock := testutil.NewMockProvider("test-model")
	mock.ChatFunc = func(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
		if messages[len(messages)-1].Content != "summarize this" {
			t.Errorf("unexpected prompt: %q", messages[len(messages)-1].Content)
		}
		return callback("  a summary  ", nil)
	}

	session := NewSession(mock, nil, "", 3, nil)

	got, err := session.Respond(context.Background(), "summarize this")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a summary" {
		t.Errorf("expected trimmed summary, got %q", got)
	}

	// Respond must not touch the conversation history.
	if n := len(session.History()); n != 0 {
		t.Errorf("expected empty history, got %d messages", n)
	}
}

func TestFinalizeTextStripsLeakedToolCalls(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "plain text untouched",
			input: "Hello there",
			want:  "Hello there",
		},
		{
			name:  "json object call removed",
			input: `Sure. {"name": "getWeather", "arguments": {"city": "Paris"}} Done.`,
			want:  "Sure.  Done.",
		},
		{
			name:  "json array call removed",
			input: `[{"name": "getWeather", "arguments": {"city": "Oslo"}}]`,
			want:  "",
		},
		{
			name:  "xml call removed",
			input: "<tool_call><name>getWeather</name><arguments>{}</arguments></tool_call>trailing",
			want:  "trailing",
		},
		{
			name:  "qwen style call removed",
			input: "<function=getWeather><parameter=city>Paris</parameter></function>",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := finalizeText(tt.input); got != tt.want {
				t.Errorf("finalizeText(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
