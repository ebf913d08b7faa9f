package repository

import (
	"context"

	"bizkit/internal/model"
)

type EmailLogStore interface {
	Insert(ctx context.Context, log *model.EmailLog) error
	List(ctx context.Context, limit int) ([]model.EmailLog, error)
}

type EmailLogRepository struct {
	db DBTX
}

func NewEmailLogRepository(db DBTX) *EmailLogRepository {
	return &EmailLogRepository{db: db}
}

// Insert is idempotent on message_id: a redelivered event is a no-op.
func (r *EmailLogRepository) Insert(ctx context.Context, log *model.EmailLog) error {
	if r.db == nil {
		return ErrNoDatabase
	}
	query := `
        INSERT INTO email_logs (message_id, recipients, subject, status, error_kind, error, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT DO NOTHING
    `
	_, err := r.db.Exec(ctx, query,
		log.MessageID, log.Recipients, log.Subject, log.Status, log.ErrorKind, log.Error, log.CreatedAt)
	return err
}

func (r *EmailLogRepository) List(ctx context.Context, limit int) ([]model.EmailLog, error) {
	if r.db == nil {
		return nil, ErrNoDatabase
	}
	limit = ClampLimit(limit)
	query := `
        SELECT id, COALESCE(message_id, ''), recipients, subject, status,
               COALESCE(error_kind, ''), COALESCE(error, ''), created_at
        FROM email_logs
        ORDER BY created_at DESC, id DESC
        LIMIT $1
    `
	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EmailLog
	for rows.Next() {
		var l model.EmailLog
		if err := rows.Scan(&l.ID, &l.MessageID, &l.Recipients, &l.Subject, &l.Status,
			&l.ErrorKind, &l.Error, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
