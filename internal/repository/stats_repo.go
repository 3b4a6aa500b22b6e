package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahles/directory-crawler/pkg/model"
)

// StatsRepository stores the singleton pre-aggregated dashboard stats row.
type StatsRepository struct {
	pool *pgxpool.Pool
}

func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

func (r *StatsRepository) SaveSystemStats(ctx context.Context, stats model.SystemStats) error {
	stats.LastUpdated = time.Now().UTC()
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("marshal system stats: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO system_stats (id, payload, last_updated)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload, last_updated = EXCLUDED.last_updated`,
		payload, stats.LastUpdated)
	if err != nil {
		return fmt.Errorf("save system stats: %w", err)
	}
	return nil
}

func (r *StatsRepository) GetSystemStats(ctx context.Context) (model.SystemStats, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM system_stats WHERE id = 1`).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.SystemStats{}, nil
	}
	if err != nil {
		return model.SystemStats{}, fmt.Errorf("get system stats: %w", err)
	}
	var stats model.SystemStats
	if err := json.Unmarshal(payload, &stats); err != nil {
		return model.SystemStats{}, fmt.Errorf("decode system stats: %w", err)
	}
	return stats, nil
}
