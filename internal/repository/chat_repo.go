package repository

import (
	"context"

	"bizkit/internal/model"
)

const DefaultHistoryLimit = 50

type ChatStore interface {
	Append(ctx context.Context, msg *model.ChatMessage) error
	List(ctx context.Context, limit int) ([]model.ChatMessage, error)
}

// ChatMessageRepository is the append-only chat log.
type ChatMessageRepository struct {
	db DBTX
}

func NewChatMessageRepository(db DBTX) *ChatMessageRepository {
	return &ChatMessageRepository{db: db}
}

func (r *ChatMessageRepository) Append(ctx context.Context, msg *model.ChatMessage) error {
	if r.db == nil {
		return ErrNoDatabase
	}
	query := `
        INSERT INTO chat_messages (sender, text, created_at)
        VALUES ($1, $2, $3)
        RETURNING id
    `
	return r.db.QueryRow(ctx, query, string(msg.Sender), msg.Text, msg.Timestamp).Scan(&msg.ID)
}

// List returns the newest limit messages in chronological order.
func (r *ChatMessageRepository) List(ctx context.Context, limit int) ([]model.ChatMessage, error) {
	if r.db == nil {
		return nil, ErrNoDatabase
	}
	limit = ClampLimit(limit)
	query := `
        SELECT id, sender, text, created_at FROM (
            SELECT id, sender, text, created_at
            FROM chat_messages
            ORDER BY created_at DESC, id DESC
            LIMIT $1
        ) recent
        ORDER BY created_at ASC, id ASC
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.ChatMessage
	for rows.Next() {
		var (
			m      model.ChatMessage
			sender string
		)
		if err := rows.Scan(&m.ID, &sender, &m.Text, &m.Timestamp); err != nil {
			return nil, err
		}
		m.Sender = model.Sender(sender)
		out = append(out, m)
	}
	return out, rows.Err()
}
