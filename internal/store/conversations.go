package store

import (
	"database/sql"
	"fmt"
	"time"
)

// Message roles. Tool-role messages are kept for audit but excluded
// from model-facing history (see RecentHistory).
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// DefaultHistoryLimit bounds the conversation window presented to the
// model on each turn.
const DefaultHistoryLimit = 20

// Conversation groups one user's chat messages. The schema enforces at
// most one conversation per user.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is an immutable, time-ordered conversation entry. The tool_*
// fields are populated only for role "tool".
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	ToolCallID     string    `json:"tool_call_id,omitempty"`
	ToolName       string    `json:"tool_name,omitempty"`
	ToolArgs       string    `json:"tool_args,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetOrCreateConversation returns userID's conversation, creating it on
// first use. INSERT OR IGNORE plus the UNIQUE(user_id) constraint makes
// concurrent first messages converge on a single row.
func (s *Store) GetOrCreateConversation(userID string) (*Conversation, error) {
	now := time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO conversations (id, user_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, newID(), userID, now, now)
	if err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	row := s.db.QueryRow(`
		SELECT id, user_id, created_at, updated_at
		FROM conversations WHERE user_id = ?
	`, userID)

	var c Conversation
	if err := row.Scan(&c.ID, &c.UserID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	return &c, nil
}

// TouchConversation refreshes the conversation's updated_at timestamp.
func (s *Store) TouchConversation(conversationID string) error {
	_, err := s.db.Exec(`
		UPDATE conversations SET updated_at = ? WHERE id = ?
	`, time.Now().UTC(), conversationID)
	if err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// AddMessage appends a message to a conversation and returns it.
// Messages are never updated or deleted afterward.
func (s *Store) AddMessage(conversationID, role, content string, toolCallID, toolName, toolArgs string) (*Message, error) {
	m := &Message{
		ID:             newID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		ToolCallID:     toolCallID,
		ToolName:       toolName,
		ToolArgs:       toolArgs,
		CreatedAt:      time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO messages (id, conversation_id, role, content, tool_call_id, tool_name, tool_args, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, m.ID, m.ConversationID, m.Role, m.Content,
		nullable(m.ToolCallID), nullable(m.ToolName), nullable(m.ToolArgs), m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return m, nil
}

// RecentHistory returns the most recent limit user/assistant messages in
// chronological order. Tool-role messages are excluded: replayed without
// their originating assistant tool-call context, providers reject them
// as malformed. The query fetches newest-first and reverses, so the
// window always covers the latest turns.
func (s *Store) RecentHistory(conversationID string, limit int) ([]*Message, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	rows, err := s.db.Query(`
		SELECT id, conversation_id, role, content, tool_call_id, tool_name, tool_args, created_at
		FROM messages
		WHERE conversation_id = ? AND role IN (?, ?)
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, conversationID, RoleUser, RoleAssistant, limit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	// Reverse to chronological order.
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

// Messages returns the full transcript of a conversation, tool rows
// included, oldest first. Audit/debug surface; not model-facing.
func (s *Store) Messages(conversationID string) ([]*Message, error) {
	rows, err := s.db.Query(`
		SELECT id, conversation_id, role, content, tool_call_id, tool_name, tool_args, created_at
		FROM messages
		WHERE conversation_id = ?
		ORDER BY created_at ASC, id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func scanMessages(rows *sql.Rows) ([]*Message, error) {
	var msgs []*Message
	for rows.Next() {
		var m Message
		var callID, name, args sql.NullString
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.Role, &m.Content, &callID, &name, &args, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.ToolCallID = callID.String
		m.ToolName = name.String
		m.ToolArgs = args.String
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}
