package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bizkit/internal/model"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		mock.Close()
	})
	return mock
}

func TestUserRepository_CreateUser(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ada Lovelace", "ada@example.com", "hash").
		WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(7, now))

	u := &model.User{FullName: "Ada Lovelace", Email: "  Ada@Example.com ", PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(mock).CreateUser(context.Background(), u))
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, now, u.CreatedAt)
}

func TestUserRepository_CreateUser_Duplicate(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("Ada", "ada@example.com", "hash").
		WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := NewUserRepository(mock).CreateUser(context.Background(),
		&model.User{FullName: "Ada", Email: "ada@example.com", PasswordHash: "hash"})
	require.Error(t, err)
	assert.True(t, IsUniqueViolation(err))
	assert.False(t, IsUnavailable(err))
}

func TestUserRepository_FindByEmail(t *testing.T) {
	mock := newMock(t)
	now := time.Now()
	cols := []string{"id", "full_name", "email", "password_hash", "created_at"}
	mock.ExpectQuery("SELECT id, full_name, email, password_hash, created_at").
		WithArgs("ada@example.com").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(1, "Ada", "ada@example.com", "hash", now))
	mock.ExpectQuery("SELECT id, full_name, email, password_hash, created_at").
		WithArgs("nobody@example.com").
		WillReturnError(pgx.ErrNoRows)

	repo := NewUserRepository(mock)
	u, err := repo.FindByEmail(context.Background(), "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.FullName)

	_, err = repo.FindByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_FindByID(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("WHERE id = \\$1").
		WithArgs(3).
		WillReturnRows(pgxmock.NewRows([]string{"id", "full_name", "email", "password_hash", "created_at"}).
			AddRow(3, "Bo", "bo@example.com", "h", time.Now()))

	u, err := NewUserRepository(mock).FindByID(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, "bo@example.com", u.Email)
}

func TestRepositories_WithoutDatabase(t *testing.T) {
	ctx := context.Background()
	_, err := NewUserRepository(nil).FindByEmail(ctx, "a@b.co")
	assert.True(t, IsUnavailable(err))
	assert.True(t, IsUnavailable(NewChatMessageRepository(nil).Append(ctx, &model.ChatMessage{})))
	_, err = NewEmailLogRepository(nil).List(ctx, 10)
	assert.True(t, IsUnavailable(err))
}

func TestChatMessageRepository(t *testing.T) {
	mock := newMock(t)
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery("INSERT INTO chat_messages").
		WithArgs("user", "hello", ts).
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(11))
	mock.ExpectQuery("FROM chat_messages").
		WithArgs(DefaultHistoryLimit).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sender", "text", "created_at"}).
			AddRow(11, "user", "hello", ts).
			AddRow(12, "bot", "hi there", ts.Add(time.Second)))

	repo := NewChatMessageRepository(mock)
	msg := &model.ChatMessage{Sender: model.SenderUser, Text: "hello", Timestamp: ts}
	require.NoError(t, repo.Append(context.Background(), msg))
	assert.Equal(t, 11, msg.ID)

	history, err := repo.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, model.SenderBot, history[1].Sender)
}

func TestEmailLogRepository(t *testing.T) {
	mock := newMock(t)
	ts := time.Now()
	mock.ExpectExec("INSERT INTO email_logs").
		WithArgs("<id@x>", []string{"a@example.com"}, "Hi", model.EmailStatusSent, "", "", ts).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery("FROM email_logs").
		WithArgs(5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "message_id", "recipients", "subject", "status", "error_kind", "error", "created_at"}).
			AddRow(1, "<id@x>", []string{"a@example.com"}, "Hi", "sent", "", "", ts))

	repo := NewEmailLogRepository(mock)
	require.NoError(t, repo.Insert(context.Background(), &model.EmailLog{
		MessageID:  "<id@x>",
		Recipients: []string{"a@example.com"},
		Subject:    "Hi",
		Status:     model.EmailStatusSent,
		CreatedAt:  ts,
	}))

	logs, err := repo.List(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, []string{"a@example.com"}, logs[0].Recipients)
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-1, DefaultHistoryLimit},
		{0, DefaultHistoryLimit},
		{1, 1},
		{MaxListLimit, MaxListLimit},
		{MaxListLimit + 1, MaxListLimit},
		{1 << 31, MaxListLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in), "limit %d", tt.in)
	}
}

func TestList_HugeLimitIsCapped(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery("FROM chat_messages").
		WithArgs(MaxListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"id", "sender", "text", "created_at"}))
	mock.ExpectQuery("FROM email_logs").
		WithArgs(MaxListLimit).
		WillReturnRows(pgxmock.NewRows([]string{"id", "message_id", "recipients", "subject", "status", "error_kind", "error", "created_at"}))

	history, err := NewChatMessageRepository(mock).List(context.Background(), 1<<31)
	require.NoError(t, err)
	assert.Empty(t, history)

	logs, err := NewEmailLogRepository(mock).List(context.Background(), 1<<31)
	require.NoError(t, err)
	assert.Empty(t, logs)
}

func TestIsUnavailable(t *testing.T) {
	assert.False(t, IsUnavailable(nil))
	assert.True(t, IsUnavailable(&pgconn.PgError{Code: "08006"}))
	assert.True(t, IsUnavailable(context.DeadlineExceeded))
	assert.False(t, IsUnavailable(errors.New("syntax error at or near")))
	assert.False(t, IsUnavailable(pgx.ErrNoRows))
}
