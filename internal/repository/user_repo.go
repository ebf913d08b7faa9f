package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"bizkit/internal/model"
)

var ErrUserNotFound = errors.New("user not found")

type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByID(ctx context.Context, id int) (*model.User, error)
}

type UserRepository struct {
	db DBTX
}

func NewUserRepository(db DBTX) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new user and fills in ID and CreatedAt.
// Emails are stored lower-cased.
func (r *UserRepository) CreateUser(ctx context.Context, u *model.User) error {
	if r.db == nil {
		return ErrNoDatabase
	}
	query := `
        INSERT INTO users (full_name, email, password_hash, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING id, created_at
    `
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	return r.db.QueryRow(ctx, query, u.FullName, u.Email, u.PasswordHash).Scan(&u.ID, &u.CreatedAt)
}

// FindByEmail returns user by email, or ErrUserNotFound.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrNoDatabase
	}
	query := `
        SELECT id, full_name, email, password_hash, created_at
        FROM users
        WHERE email = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, strings.ToLower(strings.TrimSpace(email))))
}

func (r *UserRepository) FindByID(ctx context.Context, id int) (*model.User, error) {
	if r.db == nil {
		return nil, ErrNoDatabase
	}
	query := `
        SELECT id, full_name, email, password_hash, created_at
        FROM users
        WHERE id = $1
    `
	return r.scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *UserRepository) scanOne(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}
