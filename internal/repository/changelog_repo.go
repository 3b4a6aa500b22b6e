package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahles/directory-crawler/pkg/model"
)

// ChangeLogRepository appends immutable audit rows for classified diffs.
// Rows are never updated or deleted.
type ChangeLogRepository struct {
	pool *pgxpool.Pool
}

func NewChangeLogRepository(pool *pgxpool.Pool) *ChangeLogRepository {
	return &ChangeLogRepository{pool: pool}
}

// Append inserts one change-log entry.
func (r *ChangeLogRepository) Append(ctx context.Context, e model.ChangeLogEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO profile_changes (id, ad_id, change_type, changed_fields, before_json, after_json, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.AdID, string(e.ChangeType), e.ChangedFields, e.Before, e.After, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("append change log for ad %s: %w", e.AdID, err)
	}
	return nil
}

// Recent returns the latest change-log entries, newest first.
func (r *ChangeLogRepository) Recent(ctx context.Context, limit int) ([]model.ChangeLogEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, ad_id, change_type, changed_fields, before_json, after_json, created_at
		FROM profile_changes ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list change log: %w", err)
	}
	defer rows.Close()

	var entries []model.ChangeLogEntry
	for rows.Next() {
		var e model.ChangeLogEntry
		var changeType string
		if err := rows.Scan(&e.ID, &e.AdID, &changeType, &e.ChangedFields, &e.Before, &e.After, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan change log entry: %w", err)
		}
		e.ChangeType = model.ChangeType(changeType)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
