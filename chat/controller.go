package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"kodiak/attachments"
	"kodiak/model"
)

var (
	// ErrTurnInFlight is returned when a send or regenerate arrives while a
	// turn is already streaming. One turn per controller at a time.
	ErrTurnInFlight = errors.New("a turn is already in flight")

	// ErrEmptyMessage is returned for a whitespace-only message with no
	// attachments.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrMessageNotFound is returned when a regenerate target does not exist
	// in the current conversation.
	ErrMessageNotFound = errors.New("message not found")

	// ErrNoUserMessage is returned when regeneration cannot find a user
	// message to replay.
	ErrNoUserMessage = errors.New("no user message to regenerate from")
)

// Store is the persistence surface the controller needs. It is satisfied by
// *storage.ConversationStore.
type Store interface {
	CreateConversation() (*model.Conversation, error)
	Conversation(id string) (*model.Conversation, error)
	ListConversations() ([]model.Conversation, error)
	SetTitle(id, title string) error
	TogglePin(id string) error
	DeleteConversation(id string) error
	DeleteAllConversations() error
	CreateMessage(conversationID, role, content string, attachments []model.AttachmentInput) (*model.Message, error)
	UpdateMessageContent(id, content string) error
	Messages(conversationID string) ([]model.Message, error)
	MessageCount(conversationID string) (int, error)
}

// Controller orchestrates a turn: persist the user message, create the
// assistant placeholder, stream cumulative snapshots into it, finalize, and
// fire the automatic title when a conversation earns one. It holds the
// one-turn-in-flight guard; the UI above it never sees a half-ordered
// transcript because both messages exist with fixed timestamps before the
// first snapshot arrives.
type Controller struct {
	store    Store
	session  *Session
	titler   *TitleGenerator
	registry *attachments.Registry
	logger   *zap.Logger

	mu           sync.Mutex
	inFlight     bool
	currentID    string
	titleStarted map[string]bool

	listenersMu sync.Mutex
	listeners   []func(Event)
}

// NewController creates a controller. titler may be nil to disable automatic
// titles; registry may be nil when attachment tools are disabled.
func NewController(store Store, session *Session, titler *TitleGenerator, registry *attachments.Registry, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		store:        store,
		session:      session,
		titler:       titler,
		registry:     registry,
		logger:       logger,
		titleStarted: make(map[string]bool),
	}
}

func (c *Controller) beginTurn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight {
		return ErrTurnInFlight
	}
	c.inFlight = true
	return nil
}

func (c *Controller) endTurn() {
	c.mu.Lock()
	c.inFlight = false
	c.mu.Unlock()
}

// CurrentConversationID returns the selected conversation ID, or "".
func (c *Controller) CurrentConversationID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentID
}

// NewConversation creates and selects a fresh conversation with the
// placeholder title.
func (c *Controller) NewConversation() (*model.Conversation, error) {
	conv, err := c.store.CreateConversation()
	if err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	c.mu.Lock()
	c.currentID = conv.ID
	c.mu.Unlock()

	c.session.Reset(nil)
	return conv, nil
}

// SelectConversation switches the controller to an existing conversation and
// rebuilds the session transcript from its stored messages.
func (c *Controller) SelectConversation(id string) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.mu.Unlock()

	msgs, err := c.store.Messages(id)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	c.mu.Lock()
	c.currentID = id
	c.mu.Unlock()

	c.session.Reset(toTranscript(msgs))
	return nil
}

// DeleteConversation removes a conversation and its messages. Deleting the
// selected conversation deselects it.
func (c *Controller) DeleteConversation(id string) error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.mu.Unlock()

	if err := c.store.DeleteConversation(id); err != nil {
		return err
	}

	c.mu.Lock()
	if c.currentID == id {
		c.currentID = ""
	}
	delete(c.titleStarted, id)
	c.mu.Unlock()

	c.session.Reset(nil)
	return nil
}

// DeleteAllConversations removes every conversation and deselects.
func (c *Controller) DeleteAllConversations() error {
	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrTurnInFlight
	}
	c.mu.Unlock()

	if err := c.store.DeleteAllConversations(); err != nil {
		return err
	}

	c.mu.Lock()
	c.currentID = ""
	c.titleStarted = make(map[string]bool)
	c.mu.Unlock()

	c.session.Reset(nil)
	return nil
}

// TogglePin flips a conversation's pinned flag.
func (c *Controller) TogglePin(id string) error {
	return c.store.TogglePin(id)
}

// ListConversations returns all conversations, most recently updated first.
func (c *Controller) ListConversations() ([]model.Conversation, error) {
	return c.store.ListConversations()
}

// Messages returns the stored messages of a conversation in display order.
func (c *Controller) Messages(conversationID string) ([]model.Message, error) {
	return c.store.Messages(conversationID)
}

// SendMessage runs one full turn: persist the user message and an empty
// assistant placeholder, stream the response into the placeholder, and
// finalize it. A conversation is created on demand when none is selected.
// Returns the assistant message; on a streaming error the message holds
// whatever partial text was produced.
func (c *Controller) SendMessage(ctx context.Context, content string, atts []model.AttachmentInput) (*model.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" && len(atts) == 0 {
		return nil, ErrEmptyMessage
	}

	if err := c.beginTurn(); err != nil {
		return nil, err
	}
	defer c.endTurn()

	convID, err := c.ensureConversation()
	if err != nil {
		return nil, err
	}

	userMsg, err := c.store.CreateMessage(convID, model.RoleUser, content, atts)
	if err != nil {
		return nil, fmt.Errorf("failed to persist user message: %w", err)
	}
	c.registerAttachments(userMsg, atts)

	assistant, err := c.store.CreateMessage(convID, model.RoleAssistant, "", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create assistant placeholder: %w", err)
	}

	c.emit(Event{Type: EventTurnStarted, ConversationID: convID, Message: assistant})
	c.emit(Event{Type: EventMessageUpdated, ConversationID: convID, Message: userMsg})

	prompt := buildPrompt(content, atts)
	final, err := c.streamInto(ctx, convID, assistant, prompt)
	if err != nil {
		return assistant, err
	}

	c.maybeGenerateTitle(ctx, convID, content, final)
	return assistant, nil
}

// Regenerate replays the user prompt behind a message and overwrites the
// assistant response. Given an assistant message, the nearest preceding user
// message is replayed and the assistant message overwritten in place. Given
// a user message, the immediately following assistant message is overwritten
// if one exists; otherwise a new assistant message is created. The user
// message is never duplicated.
func (c *Controller) Regenerate(ctx context.Context, messageID string) (*model.Message, error) {
	if err := c.beginTurn(); err != nil {
		return nil, err
	}
	defer c.endTurn()

	c.mu.Lock()
	convID := c.currentID
	c.mu.Unlock()
	if convID == "" {
		return nil, ErrMessageNotFound
	}

	msgs, err := c.store.Messages(convID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	model.SortMessages(msgs)

	idx := -1
	for i := range msgs {
		if msgs[i].ID == messageID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, ErrMessageNotFound
	}

	var userIdx int
	var target *model.Message

	if msgs[idx].IsUser() {
		userIdx = idx
		if idx+1 < len(msgs) && !msgs[idx+1].IsUser() {
			target = &msgs[idx+1]
		}
	} else {
		target = &msgs[idx]
		userIdx = -1
		for i := idx - 1; i >= 0; i-- {
			if msgs[i].IsUser() {
				userIdx = i
				break
			}
		}
		if userIdx == -1 {
			return nil, ErrNoUserMessage
		}
	}

	userMsg := msgs[userIdx]

	// Replay against the history as it stood before the user message.
	c.session.Reset(toTranscript(msgs[:userIdx]))

	if target == nil {
		created, err := c.store.CreateMessage(convID, model.RoleAssistant, "", nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create assistant placeholder: %w", err)
		}
		target = created
	}

	c.emit(Event{Type: EventTurnStarted, ConversationID: convID, Message: target})

	final, err := c.streamInto(ctx, convID, target, userMsg.Content)
	if err != nil {
		return target, err
	}

	c.maybeGenerateTitle(ctx, convID, userMsg.Content, final)
	return target, nil
}

// streamInto runs the session stream and keeps the assistant message row in
// step with it. On error the partial text is persisted before returning, so
// a canceled turn finalizes with what it had.
func (c *Controller) streamInto(ctx context.Context, convID string, assistant *model.Message, prompt string) (string, error) {
	final, streamErr := c.session.StreamResponse(ctx, prompt, func(cumulative string) error {
		snapshot := *assistant
		snapshot.Content = cumulative
		c.emit(Event{Type: EventMessageUpdated, ConversationID: convID, Message: &snapshot})
		return nil
	})

	assistant.Content = final
	if err := c.store.UpdateMessageContent(assistant.ID, final); err != nil {
		c.logger.Error("failed to persist assistant message", zap.String("message_id", assistant.ID), zap.Error(err))
		if streamErr == nil {
			streamErr = err
		}
	}

	if streamErr != nil {
		c.logger.Warn("turn failed", zap.String("conversation_id", convID), zap.Error(streamErr))
		c.emit(Event{Type: EventTurnFailed, ConversationID: convID, Message: assistant, Err: streamErr})
		return final, streamErr
	}

	c.emit(Event{Type: EventMessageUpdated, ConversationID: convID, Message: assistant})
	c.emit(Event{Type: EventTurnCompleted, ConversationID: convID, Message: assistant})
	return final, nil
}

// maybeGenerateTitle replaces the placeholder title after the first
// completed exchange. It fires only when the conversation holds exactly the
// first user/assistant pair, still carries the placeholder title, and has
// not been titled before; a failed attempt keeps the placeholder.
func (c *Controller) maybeGenerateTitle(ctx context.Context, convID, userContent, assistantContent string) {
	if c.titler == nil {
		return
	}

	count, err := c.store.MessageCount(convID)
	if err != nil || count != 2 {
		return
	}

	conv, err := c.store.Conversation(convID)
	if err != nil || !conv.Untitled() {
		return
	}

	c.mu.Lock()
	if c.titleStarted[convID] {
		c.mu.Unlock()
		return
	}
	c.titleStarted[convID] = true
	c.mu.Unlock()

	title, err := c.titler.Generate(ctx, userContent, assistantContent)
	if err != nil {
		c.logger.Debug("title generation failed", zap.String("conversation_id", convID), zap.Error(err))
		return
	}

	if err := c.store.SetTitle(convID, title); err != nil {
		c.logger.Error("failed to persist title", zap.String("conversation_id", convID), zap.Error(err))
		return
	}

	c.emit(Event{Type: EventTitleUpdated, ConversationID: convID, Title: title})
}

func (c *Controller) ensureConversation() (string, error) {
	c.mu.Lock()
	convID := c.currentID
	c.mu.Unlock()
	if convID != "" {
		return convID, nil
	}

	conv, err := c.store.CreateConversation()
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}

	c.mu.Lock()
	c.currentID = conv.ID
	c.mu.Unlock()

	c.session.Reset(nil)
	return conv.ID, nil
}

// registerAttachments publishes persisted attachments to the process-wide
// registry so tools can resolve "the most recent image" without a store
// round trip. Inputs and persisted attachments are index-aligned.
func (c *Controller) registerAttachments(msg *model.Message, atts []model.AttachmentInput) {
	if c.registry == nil || len(msg.Attachments) != len(atts) {
		return
	}

	for i, att := range msg.Attachments {
		switch att.Kind {
		case model.AttachmentImage:
			c.registry.RegisterImage(att.ID, atts[i].Data)
		case model.AttachmentDocument:
			c.registry.RegisterDocument(att.ID, att.Filename)
		}
	}
}

// buildPrompt augments the user's text with attachment hints so the model
// knows something was shared even before calling an analysis tool. The
// persisted message keeps the raw text.
func buildPrompt(content string, atts []model.AttachmentInput) string {
	if len(atts) == 0 {
		return content
	}

	var hints []string
	for _, att := range atts {
		switch att.Kind {
		case model.AttachmentImage:
			hints = append(hints, fmt.Sprintf("[The user attached an image: %s]", att.Filename))
		case model.AttachmentDocument:
			hints = append(hints, fmt.Sprintf("[The user attached a document: %s]", att.Filename))
		}
	}

	if content == "" {
		return strings.Join(hints, "\n")
	}
	return content + "\n" + strings.Join(hints, "\n")
}

// toTranscript converts stored messages to wire messages, dropping empty
// placeholders.
func toTranscript(msgs []model.Message) []model.TranscriptMessage {
	out := make([]model.TranscriptMessage, 0, len(msgs))
	for _, msg := range msgs {
		if strings.TrimSpace(msg.Content) == "" {
			continue
		}
		out = append(out, model.TranscriptMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return out
}
