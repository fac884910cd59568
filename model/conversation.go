package model

import (
	"sort"
	"time"
)

// UntitledTitle is the sentinel title a conversation carries until the title
// workflow has produced a real one.
const UntitledTitle = "Untitled Chat"

// Message roles. Tool results use RoleTool and only exist inside a session's
// transcript; they are never persisted as conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Conversation is a persisted chat. Messages are not embedded; they are
// resolved through the store via ConversationID so that a held Conversation
// value can never dangle into a deleted message graph.
type Conversation struct {
	ID        string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Pinned    bool
}

// Untitled reports whether the conversation still carries the sentinel title.
func (c *Conversation) Untitled() bool {
	return c.Title == UntitledTitle
}

// Message is a single conversation entry. Content is mutable (assistant
// content is overwritten repeatedly while streaming); CreatedAt is fixed at
// creation and never changes, so ordering stays stable under mutation.
type Message struct {
	ID             string
	ConversationID string
	Role           string
	Content        string
	CreatedAt      time.Time
	Attachments    []Attachment
}

// IsUser reports whether the message was authored by the user.
func (m *Message) IsUser() bool {
	return m.Role == RoleUser
}

// Attachment kinds.
const (
	AttachmentImage    = "image"
	AttachmentDocument = "document"
)

// Attachment is a persisted binary bound to a message. DerivedText holds
// best-effort OCR output written back after extraction.
type Attachment struct {
	ID          string
	MessageID   string
	Kind        string
	Filename    string
	SizeBytes   int
	Data        []byte
	DerivedText string
}

// AttachmentInput describes an attachment to bind atomically at message
// creation time.
type AttachmentInput struct {
	Kind     string
	Filename string
	Data     []byte
}

// SortMessages orders messages by creation time, oldest first. The store may
// hand them back unsorted; timestamp order is the only order that counts.
func SortMessages(messages []Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
}
