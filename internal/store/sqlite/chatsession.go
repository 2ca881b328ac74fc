package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ChatSessionRepository stores the floating direct-chat session id so the
// conversation with the admins survives restarts
type ChatSessionRepository struct {
	db *DB
}

// NewChatSessionRepository creates a new ChatSessionRepository
func NewChatSessionRepository(db *DB) *ChatSessionRepository {
	return &ChatSessionRepository{db: db}
}

// Load returns the stored chat session id, or "" when none exists
func (r *ChatSessionRepository) Load(ctx context.Context) (string, error) {
	var chatID string
	err := r.db.QueryRowContext(ctx,
		"SELECT chat_id FROM chat_session WHERE id = 1",
	).Scan(&chatID)

	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query chat session: %w", err)
	}
	return chatID, nil
}

// Save upserts the chat session id
func (r *ChatSessionRepository) Save(ctx context.Context, chatID string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO chat_session (id, chat_id, updated_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET chat_id = excluded.chat_id, updated_at = excluded.updated_at
	`, chatID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	return nil
}
