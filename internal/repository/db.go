package repository

import (
	"context"
	"errors"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bizkit/pkg/util"
)

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock pools.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// MaxListLimit caps every list query regardless of what the caller asks for.
const MaxListLimit = 200

// ClampLimit maps a requested page size into [1, MaxListLimit]; zero or
// negative means DefaultHistoryLimit.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultHistoryLimit
	case limit > MaxListLimit:
		return MaxListLimit
	}
	return limit
}

// ErrNoDatabase is returned by every repository built without a pool.
var ErrNoDatabase = errors.New("database not configured")

// IsUnavailable reports whether err means the database could not be reached,
// as opposed to a query or constraint failure.
func IsUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoDatabase) {
		return true
	}
	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	retryable, kind := util.IsRetryableError(err)
	return retryable && (kind == "db_connection_error" || kind == "timeout")
}

// IsUniqueViolation reports a unique constraint failure (SQLSTATE 23505).
func IsUniqueViolation(err error) bool {
	_, kind := util.IsRetryableError(err)
	return kind == "duplicate_key"
}
