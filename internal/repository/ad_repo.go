package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tahles/directory-crawler/pkg/model"
)

// AdRepository handles read/write for advertisements and their dependent
// contact and comment rows. All writes are idempotent upserts on the stated
// natural keys.
type AdRepository struct {
	pool *pgxpool.Pool
}

func NewAdRepository(pool *pgxpool.Pool) *AdRepository {
	return &AdRepository{pool: pool}
}

const adColumns = `id, user_id, source, source_id, nickname, description, age, city,
	price_min, price_max, photos, verified, vip_status, online_status,
	service_type, language, rating_avg, rating_count, raw_data, created_at, updated_at`

func scanAd(row pgx.Row) (model.AdRecord, error) {
	var ad model.AdRecord
	var serviceType string
	err := row.Scan(
		&ad.ID, &ad.UserID, &ad.Source, &ad.SourceID, &ad.Nickname, &ad.Description,
		&ad.Age, &ad.City, &ad.PriceMin, &ad.PriceMax, &ad.Photos, &ad.Verified,
		&ad.VIP, &ad.Online, &serviceType, &ad.Languages, &ad.RatingAvg,
		&ad.RatingCount, &ad.RawData, &ad.CreatedAt, &ad.UpdatedAt,
	)
	if err != nil {
		return model.AdRecord{}, err
	}
	ad.ServiceMode = model.ServiceMode(serviceType)
	return ad, nil
}

// GetBySourceKey reads an advertisement by its (source, source_id) natural
// key. Returns (nil, nil) when no row exists.
func (r *AdRepository) GetBySourceKey(ctx context.Context, source, sourceID string) (*model.AdRecord, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+adColumns+` FROM advertisements WHERE source = $1 AND source_id = $2`,
		source, sourceID)
	ad, err := scanAd(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ad %s:%s: %w", source, sourceID, err)
	}
	return &ad, nil
}

// Upsert writes an advertisement keyed by (source, source_id). The caller
// passes the stored id to preserve; an empty id lets the repository assign
// one. Returns the row as persisted.
func (r *AdRepository) Upsert(ctx context.Context, id, userID string, ad model.AdFields) (model.AdRecord, error) {
	if id == "" {
		id = uuid.NewString()
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO advertisements (`+adColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), $20)
		ON CONFLICT (source, source_id) DO UPDATE SET
			nickname = EXCLUDED.nickname,
			description = EXCLUDED.description,
			age = EXCLUDED.age,
			city = EXCLUDED.city,
			price_min = EXCLUDED.price_min,
			price_max = EXCLUDED.price_max,
			photos = EXCLUDED.photos,
			verified = EXCLUDED.verified,
			vip_status = EXCLUDED.vip_status,
			online_status = EXCLUDED.online_status,
			service_type = EXCLUDED.service_type,
			language = EXCLUDED.language,
			rating_avg = EXCLUDED.rating_avg,
			rating_count = EXCLUDED.rating_count,
			raw_data = EXCLUDED.raw_data,
			updated_at = EXCLUDED.updated_at
		RETURNING `+adColumns,
		id, userID, ad.Source, ad.SourceID, ad.Nickname, ad.Description, ad.Age,
		ad.City, ad.PriceMin, ad.PriceMax, ad.Photos, ad.Verified, ad.VIP,
		ad.Online, string(ad.ServiceMode), ad.Languages, ad.RatingAvg,
		ad.RatingCount, ad.RawData, ad.UpdatedAt)
	saved, err := scanAd(row)
	if err != nil {
		return model.AdRecord{}, fmt.Errorf("upsert ad %s:%s: %w", ad.Source, ad.SourceID, err)
	}
	return saved, nil
}

// UpsertContacts writes the contact bundle keyed by advertisement id.
func (r *AdRepository) UpsertContacts(ctx context.Context, adID string, c model.ContactFields) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO contacts (ad_id, phone, whatsapp, telegram_username)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ad_id) DO UPDATE SET
			phone = EXCLUDED.phone,
			whatsapp = EXCLUDED.whatsapp,
			telegram_username = EXCLUDED.telegram_username`,
		adID, c.Phone, c.Whatsapp, c.Telegram)
	if err != nil {
		return fmt.Errorf("upsert contacts for ad %s: %w", adID, err)
	}
	return nil
}

// UpsertComments writes comments keyed by (ad_id, comment_key).
func (r *AdRepository) UpsertComments(ctx context.Context, adID string, comments []model.CommentFields) error {
	for _, c := range comments {
		if c.CommentKey == "" {
			continue
		}
		_, err := r.pool.Exec(ctx, `
			INSERT INTO ad_comments (id, ad_id, comment_key, author_name, text, rating, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ad_id, comment_key) DO UPDATE SET
				author_name = EXCLUDED.author_name,
				text = EXCLUDED.text,
				rating = EXCLUDED.rating`,
			uuid.NewString(), adID, c.CommentKey, c.Author, c.Text, c.Rating, c.CreatedAt)
		if err != nil {
			return fmt.Errorf("upsert comment %s for ad %s: %w", c.CommentKey, adID, err)
		}
	}
	return nil
}

// AdQuery filters the API listing surface.
type AdQuery struct {
	City     string
	Source   string
	Page     int
	PageSize int
}

// List returns a page of advertisements plus the total match count.
func (r *AdRepository) List(ctx context.Context, q AdQuery) ([]model.AdRecord, int, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 200 {
		q.PageSize = 50
	}

	where := " WHERE TRUE"
	args := []any{}
	if q.City != "" {
		args = append(args, q.City)
		where += fmt.Sprintf(" AND city = $%d", len(args))
	}
	if q.Source != "" {
		args = append(args, q.Source)
		where += fmt.Sprintf(" AND source = $%d", len(args))
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM advertisements"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count ads: %w", err)
	}

	args = append(args, q.PageSize, (q.Page-1)*q.PageSize)
	rows, err := r.pool.Query(ctx,
		"SELECT "+adColumns+" FROM advertisements"+where+
			fmt.Sprintf(" ORDER BY updated_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args)),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list ads: %w", err)
	}
	defer rows.Close()

	var ads []model.AdRecord
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan ad: %w", err)
		}
		ads = append(ads, ad)
	}
	return ads, total, rows.Err()
}

// FetchAll streams every advertisement row into memory. Used by stats
// aggregation and reprocessing, where the full catalog is needed anyway.
func (r *AdRepository) FetchAll(ctx context.Context) ([]model.AdRecord, error) {
	rows, err := r.pool.Query(ctx, "SELECT "+adColumns+" FROM advertisements ORDER BY source, source_id")
	if err != nil {
		return nil, fmt.Errorf("fetch ads: %w", err)
	}
	defer rows.Close()

	var ads []model.AdRecord
	for rows.Next() {
		ad, err := scanAd(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ad: %w", err)
		}
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}
