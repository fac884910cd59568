package model

import (
	"testing"
	"time"
)

func TestMessageIsUser(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleUser, true},
		{RoleAssistant, false},
		{RoleSystem, false},
		{RoleTool, false},
	}

	for _, tt := range tests {
		msg := Message{Role: tt.role}
		if got := msg.IsUser(); got != tt.want {
			t.Errorf("IsUser() with role %q = %v, want %v", tt.role, got, tt.want)
		}
	}
}

func TestConversationUntitled(t *testing.T) {
	conv := Conversation{Title: UntitledTitle}
	if !conv.Untitled() {
		t.Error("expected Untitled() true for placeholder title")
	}

	conv.Title = "Trip Planning"
	if conv.Untitled() {
		t.Error("expected Untitled() false after rename")
	}
}

func TestSortMessagesStable(t *testing.T) {
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	msgs := []Message{
		{ID: "c", CreatedAt: base.Add(2 * time.Second)},
		{ID: "a", CreatedAt: base},
		{ID: "b1", CreatedAt: base.Add(time.Second)},
		{ID: "b2", CreatedAt: base.Add(time.Second)},
	}

	SortMessages(msgs)

	want := []string{"a", "b1", "b2", "c"}
	for i, id := range want {
		if msgs[i].ID != id {
			t.Errorf("position %d: expected %q, got %q", i, id, msgs[i].ID)
		}
	}
}
