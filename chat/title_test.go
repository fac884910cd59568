package chat

import (
	"context"
	"errors"
	"strings"
	"testing"

	"kodiak/model"
	"kodiak/provider/testutil"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Trip Planning", "Trip Planning"},
		{"quoted", `"Trip Planning"`, "Trip Planning"},
		{"single quoted", "'Trip Planning'", "Trip Planning"},
		{"label prefix", "Title: Trip Planning", "Trip Planning"},
		{"trailing period", "Trip Planning.", "Trip Planning"},
		{"multiline keeps first", "Trip Planning\nHere is why", "Trip Planning"},
		{"long title truncated", strings.Repeat("a", 80), strings.Repeat("a", 50)},
		{"whitespace only", "   \n  ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cleanTitle(tt.input); got != tt.want {
				t.Errorf("cleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTitleGeneratorGenerate(t *testing.T) {
	mock := testutil.NewMockProvider("test-model")
	mock.ChatFunc = func(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
		prompt := messages[len(messages)-1].Content
		if !strings.Contains(prompt, "how do goroutines work") {
			t.Errorf("prompt missing user content: %q", prompt)
		}
		return callback(`"Goroutine Basics"`, nil)
	}

	titler := NewTitleGenerator(mock, nil)
	title, err := titler.Generate(context.Background(), "how do goroutines work", "They are lightweight threads.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if title != "Goroutine Basics" {
		t.Errorf("expected cleaned title, got %q", title)
	}
}

func TestTitleGeneratorError(t *testing.T) {
	mock := testutil.NewMockProvider("test-model")
	mock.ChatFunc = func(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
		return errors.New("provider down")
	}

	titler := NewTitleGenerator(mock, nil)
	if _, err := titler.Generate(context.Background(), "hi", "hello"); err == nil {
		t.Fatal("expected error")
	}
}

func TestTitleGeneratorEmptyOutput(t *testing.T) {
	mock := testutil.NewMockProvider("test-model")
	mock.ChatFunc = func(ctx context.Context, messages []model.TranscriptMessage, callback model.StreamCallback) error {
		return callback("   ", nil)
	}

	titler := NewTitleGenerator(mock, nil)
	if _, err := titler.Generate(context.Background(), "hi", "hello"); err == nil {
		t.Fatal("expected error for unusable output")
	}
}
