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

// RunRepository manages crawl run lifecycle records.
type RunRepository struct {
	pool *pgxpool.Pool
}

func NewRunRepository(pool *pgxpool.Pool) *RunRepository {
	return &RunRepository{pool: pool}
}

func (r *RunRepository) CreateRun(ctx context.Context, run model.CrawlRun) error {
	if run.RunID == "" {
		return errors.New("runId is required")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO crawl_runs (run_id, source, status, found, new_count, updated, unchanged, failed, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		run.RunID, run.Source, run.Status, run.Stats.Found, run.Stats.New,
		run.Stats.Updated, run.Stats.Unchanged, run.Stats.Failed, run.StartedAt)
	if err != nil {
		return fmt.Errorf("create run %s: %w", run.RunID, err)
	}
	return nil
}

func (r *RunRepository) UpdateRun(ctx context.Context, run model.CrawlRun) error {
	if run.RunID == "" {
		return errors.New("runId is required")
	}
	var errSample []byte
	if len(run.ErrorSample) > 0 {
		var err error
		errSample, err = json.Marshal(run.ErrorSample)
		if err != nil {
			return fmt.Errorf("marshal error sample: %w", err)
		}
	}
	var finished *time.Time
	if !run.FinishedAt.IsZero() {
		finished = &run.FinishedAt
	}
	_, err := r.pool.Exec(ctx, `
		UPDATE crawl_runs SET
			status = $2, found = $3, new_count = $4, updated = $5, unchanged = $6,
			failed = $7, errors_sample = COALESCE($8, errors_sample),
			finished_at = COALESCE($9, finished_at)
		WHERE run_id = $1`,
		run.RunID, run.Status, run.Stats.Found, run.Stats.New, run.Stats.Updated,
		run.Stats.Unchanged, run.Stats.Failed, errSample, finished)
	if err != nil {
		return fmt.Errorf("update run %s: %w", run.RunID, err)
	}
	return nil
}

func scanRun(row pgx.Row) (model.CrawlRun, error) {
	var run model.CrawlRun
	var errSample []byte
	var finished *time.Time
	var source *string
	err := row.Scan(&run.RunID, &source, &run.Status, &run.Stats.Found,
		&run.Stats.New, &run.Stats.Updated, &run.Stats.Unchanged,
		&run.Stats.Failed, &errSample, &run.StartedAt, &finished)
	if err != nil {
		return model.CrawlRun{}, err
	}
	if source != nil {
		run.Source = *source
	}
	if finished != nil {
		run.FinishedAt = *finished
	}
	if len(errSample) > 0 {
		if err := json.Unmarshal(errSample, &run.ErrorSample); err != nil {
			return model.CrawlRun{}, fmt.Errorf("decode error sample: %w", err)
		}
	}
	return run, nil
}

const runColumns = `run_id, source, status, found, new_count, updated, unchanged, failed, errors_sample, started_at, finished_at`

func (r *RunRepository) GetRun(ctx context.Context, runID string) (model.CrawlRun, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+runColumns+` FROM crawl_runs WHERE run_id = $1`, runID)
	run, err := scanRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.CrawlRun{}, fmt.Errorf("run %s not found", runID)
	}
	if err != nil {
		return model.CrawlRun{}, fmt.Errorf("get run %s: %w", runID, err)
	}
	return run, nil
}

func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]model.CrawlRun, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	rows, err := r.pool.Query(ctx, `SELECT `+runColumns+` FROM crawl_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []model.CrawlRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
