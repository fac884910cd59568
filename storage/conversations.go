package storage

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"kodiak/model"
)

// timeFormat is the stored timestamp layout. RFC3339Nano in UTC sorts
// lexicographically, so ORDER BY on the column is timestamp order.
const timeFormat = time.RFC3339Nano

// ConversationStore is the durable chat/message/attachment store backed by
// SQLite. It is the source of truth; in-memory caches (attachment registry,
// weather cache) are rebuildable from it or disposable.
type ConversationStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewConversationStore opens (or creates) chats.db under dataDir.
func NewConversationStore(dataDir string, logger *zap.Logger) (*ConversationStore, error) {
	dbPath := filepath.Join(dataDir, "chats.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	store := &ConversationStore{db: db, logger: logger}

	if err := store.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *ConversationStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		pinned INTEGER NOT NULL DEFAULT 0
	);
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS attachments (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
		kind TEXT NOT NULL,
		filename TEXT NOT NULL DEFAULT '',
		size_bytes INTEGER NOT NULL DEFAULT 0,
		data BLOB,
		derived_text TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// CreateConversation inserts a new conversation carrying the untitled
// sentinel.
func (s *ConversationStore) CreateConversation() (*model.Conversation, error) {
	now := time.Now().UTC()
	conv := &model.Conversation{
		ID:        uuid.New().String(),
		Title:     model.UntitledTitle,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO conversations (id, title, created_at, updated_at, pinned) VALUES (?, ?, ?, ?, 0)`,
		conv.ID, conv.Title, now.Format(timeFormat), now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}

	return conv, nil
}

// Conversation fetches a single conversation by ID.
func (s *ConversationStore) Conversation(id string) (*model.Conversation, error) {
	row := s.db.QueryRow(
		`SELECT id, title, created_at, updated_at, pinned FROM conversations WHERE id = ?`, id)
	return scanConversation(row)
}

// ListConversations returns all conversations, most recently updated first.
func (s *ConversationStore) ListConversations() ([]model.Conversation, error) {
	rows, err := s.db.Query(
		`SELECT id, title, created_at, updated_at, pinned FROM conversations ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversations: %w", err)
	}
	defer rows.Close()

	var conversations []model.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conv)
	}

	return conversations, rows.Err()
}

// SetTitle replaces a conversation's title.
func (s *ConversationStore) SetTitle(id, title string) error {
	_, err := s.db.Exec(`UPDATE conversations SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("failed to set title: %w", err)
	}
	return nil
}

// TogglePin flips the pin flag and touches the conversation.
func (s *ConversationStore) TogglePin(id string) error {
	_, err := s.db.Exec(
		`UPDATE conversations SET pinned = 1 - pinned, updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat), id)
	if err != nil {
		return fmt.Errorf("failed to toggle pin: %w", err)
	}
	return nil
}

// DeleteConversation removes a conversation; messages and attachments go with
// it via cascade.
func (s *ConversationStore) DeleteConversation(id string) error {
	_, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// DeleteAllConversations wipes every conversation.
func (s *ConversationStore) DeleteAllConversations() error {
	_, err := s.db.Exec(`DELETE FROM conversations`)
	if err != nil {
		return fmt.Errorf("failed to delete conversations: %w", err)
	}
	return nil
}

// CreateMessage inserts a message and binds its attachments in the same
// transaction, so the message is never visible without them. The owning
// conversation's updated_at is bumped as part of the transaction.
func (s *ConversationStore) CreateMessage(conversationID, role, content string, attachments []model.AttachmentInput) (*model.Message, error) {
	now := time.Now().UTC()
	msg := &model.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO messages (id, conversation_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, conversationID, role, content, now.Format(timeFormat),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	for _, input := range attachments {
		att := model.Attachment{
			ID:        uuid.New().String(),
			MessageID: msg.ID,
			Kind:      input.Kind,
			Filename:  input.Filename,
			SizeBytes: len(input.Data),
			Data:      input.Data,
		}
		_, err = tx.Exec(
			`INSERT INTO attachments (id, message_id, kind, filename, size_bytes, data) VALUES (?, ?, ?, ?, ?, ?)`,
			att.ID, att.MessageID, att.Kind, att.Filename, att.SizeBytes, att.Data,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert attachment: %w", err)
		}
		msg.Attachments = append(msg.Attachments, att)
	}

	_, err = tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		now.Format(timeFormat), conversationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to touch conversation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit message: %w", err)
	}

	return msg, nil
}

// UpdateMessageContent overwrites a message's content. The message timestamp
// is deliberately left alone so ordering stays stable while content streams
// in; the owning conversation is touched instead.
func (s *ConversationStore) UpdateMessageContent(id, content string) error {
	now := time.Now().UTC().Format(timeFormat)

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE messages SET content = ? WHERE id = ?`, content, id); err != nil {
		return fmt.Errorf("failed to update message: %w", err)
	}

	_, err = tx.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = (SELECT conversation_id FROM messages WHERE id = ?)`,
		now, id)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}

	return tx.Commit()
}

// DeleteMessage removes a message and its attachments.
func (s *ConversationStore) DeleteMessage(id string) error {
	_, err := s.db.Exec(`DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// Messages returns a conversation's messages in timestamp order, oldest
// first, with attachment metadata (no payloads) populated.
func (s *ConversationStore) Messages(conversationID string) ([]model.Message, error) {
	rows, err := s.db.Query(
		`SELECT id, conversation_id, role, content, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY created_at, rowid`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var msg model.Message
		var createdAt string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.CreatedAt, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse message timestamp: %w", err)
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range messages {
		atts, err := s.messageAttachments(messages[i].ID)
		if err != nil {
			return nil, err
		}
		messages[i].Attachments = atts
	}

	return messages, nil
}

// MessageCount returns the number of messages in a conversation.
func (s *ConversationStore) MessageCount(conversationID string) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM messages WHERE conversation_id = ?`, conversationID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return count, nil
}

// AddAttachment late-binds an attachment to an existing message. Prefer
// binding at creation time via CreateMessage; this exists for payloads that
// only become available after the message does (e.g. a document picked while
// composing the next turn).
func (s *ConversationStore) AddAttachment(messageID string, input model.AttachmentInput) (*model.Attachment, error) {
	att := &model.Attachment{
		ID:        uuid.New().String(),
		MessageID: messageID,
		Kind:      input.Kind,
		Filename:  input.Filename,
		SizeBytes: len(input.Data),
		Data:      input.Data,
	}

	_, err := s.db.Exec(
		`INSERT INTO attachments (id, message_id, kind, filename, size_bytes, data) VALUES (?, ?, ?, ?, ?, ?)`,
		att.ID, att.MessageID, att.Kind, att.Filename, att.SizeBytes, att.Data,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert attachment: %w", err)
	}

	return att, nil
}

// SetDerivedText writes OCR output back onto an attachment record.
func (s *ConversationStore) SetDerivedText(attachmentID, text string) error {
	_, err := s.db.Exec(`UPDATE attachments SET derived_text = ? WHERE id = ?`, text, attachmentID)
	if err != nil {
		return fmt.Errorf("failed to set derived text: %w", err)
	}
	return nil
}

// AttachmentData loads an attachment's binary payload.
func (s *ConversationStore) AttachmentData(attachmentID string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT data FROM attachments WHERE id = ?`, attachmentID).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachment data: %w", err)
	}
	return data, nil
}

// Save is the durability checkpoint from the store contract. SQLite commits
// each statement already, so this just forces a WAL checkpoint; failures are
// logged and swallowed per the best-effort persistence policy.
func (s *ConversationStore) Save() error {
	if _, err := s.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		s.logger.Warn("wal checkpoint failed", zap.Error(err))
	}
	return nil
}

// Close closes the underlying database.
func (s *ConversationStore) Close() error {
	return s.db.Close()
}

func (s *ConversationStore) messageAttachments(messageID string) ([]model.Attachment, error) {
	rows, err := s.db.Query(
		`SELECT id, message_id, kind, filename, size_bytes, derived_text FROM attachments WHERE message_id = ? ORDER BY rowid`,
		messageID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attachments: %w", err)
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var att model.Attachment
		if err := rows.Scan(&att.ID, &att.MessageID, &att.Kind, &att.Filename, &att.SizeBytes, &att.DerivedText); err != nil {
			return nil, fmt.Errorf("failed to scan attachment: %w", err)
		}
		attachments = append(attachments, att)
	}

	return attachments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (*model.Conversation, error) {
	var conv model.Conversation
	var createdAt, updatedAt string
	var pinned int
	if err := row.Scan(&conv.ID, &conv.Title, &createdAt, &updatedAt, &pinned); err != nil {
		return nil, fmt.Errorf("failed to scan conversation: %w", err)
	}

	var err error
	conv.CreatedAt, err = time.Parse(timeFormat, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	conv.UpdatedAt, err = time.Parse(timeFormat, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	conv.Pinned = pinned != 0

	return &conv, nil
}
