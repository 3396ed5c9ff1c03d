package state

import (
	"fmt"
	"time"

	"github.com/finstack-labs/finsight/pkg/core"
)

// AppendChatMessage stores one conversation turn.
func (s *SQLiteStore) AppendChatMessage(msg *core.ChatMessage) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.Exec(
		`INSERT INTO chat_messages (session_id, role, content, created_at)
		 VALUES (?, ?, ?, ?)`,
		msg.SessionID, msg.Role, msg.Content, msg.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		msg.ID = id
	}
	return nil
}

// GetChatMessages returns a session's messages in insertion order.
func (s *SQLiteStore) GetChatMessages(sessionID string) ([]*core.ChatMessage, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, session_id, role, content, created_at
		 FROM chat_messages WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var msgs []*core.ChatMessage
	for rows.Next() {
		msg := &core.ChatMessage{}
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.Role,
			&msg.Content, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan chat message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// ClearChatSession deletes every message in a session.
func (s *SQLiteStore) ClearChatSession(sessionID string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if _, err := s.db.Exec(
		`DELETE FROM chat_messages WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("failed to clear chat session: %w", err)
	}
	return nil
}
