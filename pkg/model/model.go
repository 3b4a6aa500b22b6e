package model

import (
	"encoding/json"
	"time"
)

// ServiceMode describes how a listing offers its service.
type ServiceMode string

const (
	ServiceIncall  ServiceMode = "incall"
	ServiceOutcall ServiceMode = "outcall"
	ServiceBoth    ServiceMode = "both"
)

// RawListing is the stub record extracted from one node of a listing page.
// It lives only long enough to fetch and parse the full profile page.
type RawListing struct {
	SourceID     string `json:"source_id"`
	URL          string `json:"url"`
	Name         string `json:"name"`
	City         string `json:"city,omitempty"`
	Age          *int   `json:"age,omitempty"`
	PriceMin     *int   `json:"price_min,omitempty"`
	PriceMax     *int   `json:"price_max,omitempty"`
	PreviewImage string `json:"preview_image,omitempty"`
	Verified     bool   `json:"is_verified,omitempty"`
	VIP          bool   `json:"is_vip,omitempty"`
	Online       bool   `json:"online_status,omitempty"`
}

// RawContacts carries contact handles as displayed by the source.
// Phone numbers may still contain formatting at this stage.
type RawContacts struct {
	Phone    string `json:"phone,omitempty"`
	Whatsapp string `json:"whatsapp,omitempty"`
	Telegram string `json:"telegram,omitempty"`
}

// RawComment is a single visitor comment scraped from a profile page.
type RawComment struct {
	CommentKey string `json:"comment_key"`
	Author     string `json:"author,omitempty"`
	Text       string `json:"text,omitempty"`
	Rating     *int   `json:"rating,omitempty"`
	DateRaw    string `json:"date_raw,omitempty"`
}

// RawProfile is the full record extracted from one profile page, still in
// source vocabulary. Constructed once per profile fetch and handed to the
// normalizer.
type RawProfile struct {
	RawListing
	Description string       `json:"description,omitempty"`
	Photos      []string     `json:"photos"`
	Categories  []string     `json:"categories,omitempty"`
	Languages   []string     `json:"languages,omitempty"`
	ServiceMode ServiceMode  `json:"service_type"`
	Contacts    RawContacts  `json:"contacts"`
	Comments    []RawComment `json:"comments,omitempty"`
	RatingAvg   *float64     `json:"rating_avg,omitempty"`
	RatingCount *int         `json:"rating_count,omitempty"`
}

// AdFields is the canonical advertisement shape produced by normalization.
// (Source, SourceID) is the natural key for idempotent persistence.
type AdFields struct {
	Source      string          `json:"source"`
	SourceID    string          `json:"source_id"`
	Nickname    string          `json:"nickname"`
	Description string          `json:"description,omitempty"`
	Age         *int            `json:"age,omitempty"`
	City        string          `json:"city"`
	PriceMin    *int            `json:"price_min,omitempty"`
	PriceMax    *int            `json:"price_max,omitempty"`
	Photos      []string        `json:"photos"`
	Verified    bool            `json:"verified"`
	VIP         bool            `json:"vip_status"`
	Online      bool            `json:"online_status"`
	ServiceMode ServiceMode     `json:"service_type,omitempty"`
	Languages   []string        `json:"language,omitempty"`
	RatingAvg   *float64        `json:"rating_avg,omitempty"`
	RatingCount *int            `json:"rating_count,omitempty"`
	RawData     json.RawMessage `json:"raw_data,omitempty"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ContactFields is the canonical contact bundle keyed by advertisement id.
// Numbers are stored digits-only; the display form is never persisted.
type ContactFields struct {
	Phone    string `json:"phone,omitempty"`
	Whatsapp string `json:"whatsapp,omitempty"`
	Telegram string `json:"telegram_username,omitempty"`
}

// CommentFields is a canonical comment upserted on (ad_id, comment_key).
type CommentFields struct {
	CommentKey string    `json:"comment_key"`
	Author     string    `json:"author_name,omitempty"`
	Text       string    `json:"text,omitempty"`
	Rating     *int      `json:"rating,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NormalizedRecord is the normalizer output consumed by the diff engine and
// the persistence step.
type NormalizedRecord struct {
	Ad       AdFields        `json:"ad"`
	Contacts ContactFields   `json:"contacts"`
	Comments []CommentFields `json:"comments,omitempty"`
	// CategorySlugs are catalog slugs matched from the source's own category
	// labels, in addition to any section-level target category.
	CategorySlugs []string `json:"category_slugs,omitempty"`
}

// AdRecord is an advertisement row as stored. The repository owns ID.
type AdRecord struct {
	ID     string `json:"id"`
	UserID string `json:"user_id,omitempty"`
	AdFields
	CreatedAt time.Time `json:"created_at"`
}

// NaturalKey renders the stable cross-cycle identity for logs.
func (a AdRecord) NaturalKey() string {
	return a.Source + ":" + a.SourceID
}

// ChangeType classifies one observation of a profile against stored state.
type ChangeType string

const (
	ChangeNew       ChangeType = "new"
	ChangeUpdated   ChangeType = "updated"
	ChangeUnchanged ChangeType = "unchanged"
	// ChangeRemoved is reserved for a full-catalog disappearance sweep; the
	// per-listing diff never produces it.
	ChangeRemoved ChangeType = "removed"
)

// DiffResult is the immutable outcome of comparing an incoming ad against the
// stored record. ChangedFields is populated only for ChangeUpdated.
type DiffResult struct {
	Type          ChangeType `json:"type"`
	ChangedFields []string   `json:"changedFields,omitempty"`
	Before        *AdRecord  `json:"before,omitempty"`
	After         AdFields   `json:"after"`
}

// ChangeLogEntry is one append-only audit row derived from a DiffResult.
type ChangeLogEntry struct {
	ID            string          `json:"id,omitempty"`
	AdID          string          `json:"ad_id"`
	ChangeType    ChangeType      `json:"change_type"`
	ChangedFields []string        `json:"changed_fields,omitempty"`
	Before        json.RawMessage `json:"before_json,omitempty"`
	After         json.RawMessage `json:"after_json,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Category is a canonical category row.
type Category struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// CrawlRunStats stores aggregated counters for a crawl run.
type CrawlRunStats struct {
	Found     int `json:"found"`
	New       int `json:"new"`
	Updated   int `json:"updated"`
	Unchanged int `json:"unchanged"`
	Failed    int `json:"failed"`
}

// ErrorSample captures a subset of per-item failures for observability
// without heavy logging.
type ErrorSample struct {
	Link   string `json:"link,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// CrawlRun tracks the lifecycle of one crawl cycle.
type CrawlRun struct {
	RunID       string        `json:"runId"`
	Source      string        `json:"source,omitempty"`
	Status      string        `json:"status"`
	Stats       CrawlRunStats `json:"stats"`
	StartedAt   time.Time     `json:"startedAt"`
	FinishedAt  time.Time     `json:"finishedAt,omitempty"`
	ErrorSample []ErrorSample `json:"errorsSample,omitempty"`
}

// SystemStats pre-aggregates dashboard metrics over the live ads table.
type SystemStats struct {
	LastUpdated   time.Time      `json:"lastUpdated"`
	TotalAds      int            `json:"totalAds"`
	TotalVerified int            `json:"totalVerified"`
	TotalOnline   int            `json:"totalOnline"`
	AvgPriceMin   float64        `json:"avgPriceMin"`
	ByCity        map[string]int `json:"byCity,omitempty"`
	BySource      map[string]int `json:"bySource,omitempty"`
}
