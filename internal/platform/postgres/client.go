package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahles/directory-crawler/internal/platform/config"
)

// New creates a pgx connection pool from the configured DATABASE_URL.
func New(ctx context.Context, cfg config.Config) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	poolCfg.MaxConns = 10

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("init postgres pool: %w", err)
	}
	return pool, nil
}

// Ping performs a lightweight connectivity check.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return pool.Ping(ctx)
}

// EnsureSchema creates the tables the crawler writes to if they do not exist.
// Upsert targets rely on the unique constraints declared here.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS users (
		id          UUID PRIMARY KEY,
		role        TEXT NOT NULL DEFAULT 'admin',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS advertisements (
		id            UUID PRIMARY KEY,
		user_id       UUID NOT NULL REFERENCES users (id),
		source        TEXT NOT NULL,
		source_id     TEXT NOT NULL,
		nickname      TEXT NOT NULL,
		description   TEXT,
		age           INT,
		city          TEXT,
		price_min     INT,
		price_max     INT,
		photos        TEXT[] NOT NULL DEFAULT '{}',
		verified      BOOLEAN NOT NULL DEFAULT FALSE,
		vip_status    BOOLEAN NOT NULL DEFAULT FALSE,
		online_status BOOLEAN NOT NULL DEFAULT FALSE,
		service_type  TEXT,
		language      TEXT[],
		rating_avg    DOUBLE PRECISION,
		rating_count  INT,
		raw_data      JSONB,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (source, source_id)
	);

	CREATE INDEX IF NOT EXISTS idx_advertisements_city   ON advertisements (city);
	CREATE INDEX IF NOT EXISTS idx_advertisements_source ON advertisements (source);

	CREATE TABLE IF NOT EXISTS contacts (
		ad_id             UUID PRIMARY KEY REFERENCES advertisements (id) ON DELETE CASCADE,
		phone             TEXT,
		whatsapp          TEXT,
		telegram_username TEXT
	);

	CREATE TABLE IF NOT EXISTS ad_comments (
		id          UUID PRIMARY KEY,
		ad_id       UUID NOT NULL REFERENCES advertisements (id) ON DELETE CASCADE,
		comment_key TEXT NOT NULL,
		author_name TEXT,
		text        TEXT,
		rating      INT,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (ad_id, comment_key)
	);

	CREATE TABLE IF NOT EXISTS categories (
		id   UUID PRIMARY KEY,
		name TEXT NOT NULL,
		slug TEXT NOT NULL UNIQUE
	);

	CREATE TABLE IF NOT EXISTS ad_categories (
		ad_id       UUID NOT NULL REFERENCES advertisements (id) ON DELETE CASCADE,
		category_id UUID NOT NULL REFERENCES categories (id) ON DELETE CASCADE,
		PRIMARY KEY (ad_id, category_id)
	);

	CREATE TABLE IF NOT EXISTS profile_changes (
		id             UUID PRIMARY KEY,
		ad_id          UUID NOT NULL REFERENCES advertisements (id) ON DELETE CASCADE,
		change_type    TEXT NOT NULL,
		changed_fields TEXT[],
		before_json    JSONB,
		after_json     JSONB,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_profile_changes_ad ON profile_changes (ad_id, created_at DESC);

	CREATE TABLE IF NOT EXISTS crawl_runs (
		run_id        TEXT PRIMARY KEY,
		source        TEXT,
		status        TEXT NOT NULL,
		found         INT NOT NULL DEFAULT 0,
		new_count     INT NOT NULL DEFAULT 0,
		updated       INT NOT NULL DEFAULT 0,
		unchanged     INT NOT NULL DEFAULT 0,
		failed        INT NOT NULL DEFAULT 0,
		errors_sample JSONB,
		started_at    TIMESTAMPTZ NOT NULL,
		finished_at   TIMESTAMPTZ
	);

	CREATE TABLE IF NOT EXISTS system_stats (
		id           INT PRIMARY KEY DEFAULT 1,
		payload      JSONB NOT NULL,
		last_updated TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (id = 1)
	);
	`
	if _, err := pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
