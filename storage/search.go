package storage

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

// MessageMatch is a search hit inside a conversation.
type MessageMatch struct {
	ConversationID    string
	ConversationTitle string
	MessageID         string
	Role              string
	Preview           string
	Timestamp         time.Time
}

// TitleMatch is a fuzzy-ranked conversation title hit.
type TitleMatch struct {
	ConversationID string
	Title          string
	Score          int
}

// SearchMessages scans every conversation for messages containing the query
// (case-insensitive substring). System messages never reach the store, so no
// role filtering is needed here.
func (s *ConversationStore) SearchMessages(query string) ([]MessageMatch, error) {
	if query == "" {
		return []MessageMatch{}, nil
	}

	pattern := "%" + strings.ReplaceAll(strings.ReplaceAll(query, "%", `\%`), "_", `\_`) + "%"
	rows, err := s.db.Query(
		`SELECT m.id, m.conversation_id, c.title, m.role, m.content, m.created_at
		 FROM messages m JOIN conversations c ON c.id = m.conversation_id
		 WHERE m.content LIKE ? ESCAPE '\' COLLATE NOCASE
		 ORDER BY m.created_at DESC`, pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", err)
	}
	defer rows.Close()

	var matches []MessageMatch
	for rows.Next() {
		var m MessageMatch
		var content, createdAt string
		if err := rows.Scan(&m.MessageID, &m.ConversationID, &m.ConversationTitle, &m.Role, &content, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan search hit: %w", err)
		}
		m.Timestamp, err = time.Parse(timeFormat, createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse search hit timestamp: %w", err)
		}

		preview := content
		if len(preview) > 100 {
			preview = preview[:100] + "..."
		}
		m.Preview = preview

		matches = append(matches, m)
	}

	return matches, rows.Err()
}

// SearchTitles fuzzy-matches conversation titles and returns them best first.
func (s *ConversationStore) SearchTitles(query string) ([]TitleMatch, error) {
	if query == "" {
		return []TitleMatch{}, nil
	}

	conversations, err := s.ListConversations()
	if err != nil {
		return nil, err
	}

	titles := make([]string, len(conversations))
	for i, conv := range conversations {
		titles[i] = conv.Title
	}

	results := fuzzy.Find(query, titles)

	matches := make([]TitleMatch, 0, len(results))
	for _, r := range results {
		matches = append(matches, TitleMatch{
			ConversationID: conversations[r.Index].ID,
			Title:          conversations[r.Index].Title,
			Score:          r.Score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})

	return matches, nil
}
