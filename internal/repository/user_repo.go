package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNoSystemUser signals that crawled writes cannot be attributed to any
// account. This aborts the whole cycle.
var ErrNoSystemUser = errors.New("no system user found to attribute crawled records to")

// UserRepository resolves the account that owns crawler-written rows.
type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// SystemUserID returns the oldest user account id.
func (r *UserRepository) SystemUserID(ctx context.Context) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `SELECT id FROM users ORDER BY created_at LIMIT 1`).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNoSystemUser
	}
	if err != nil {
		return "", fmt.Errorf("resolve system user: %w", err)
	}
	return id, nil
}
