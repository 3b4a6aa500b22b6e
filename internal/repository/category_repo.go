package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahles/directory-crawler/pkg/model"
)

// CategoryRepository manages the category catalog and ad-to-category links.
type CategoryRepository struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

// EnsureCatalog upserts the canonical catalog by slug so section target
// categories resolve on a fresh database.
func (r *CategoryRepository) EnsureCatalog(ctx context.Context, catalog []model.Category) error {
	for _, c := range catalog {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO categories (id, name, slug)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name`,
			uuid.NewString(), c.Name, c.Slug)
		if err != nil {
			return fmt.Errorf("ensure category %s: %w", c.Slug, err)
		}
	}
	return nil
}

// ListCategories returns the whole catalog. Loaded once per crawl cycle into
// the slug->id cache.
func (r *CategoryRepository) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, slug FROM categories ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// UpsertLink associates an ad with a category, idempotent on the composite key.
func (r *CategoryRepository) UpsertLink(ctx context.Context, adID, categoryID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO ad_categories (ad_id, category_id)
		VALUES ($1, $2)
		ON CONFLICT (ad_id, category_id) DO NOTHING`,
		adID, categoryID)
	if err != nil {
		return fmt.Errorf("link ad %s to category %s: %w", adID, categoryID, err)
	}
	return nil
}
