package crawler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/tahles/directory-crawler/pkg/model"
)

// Store abstracts the persistence gateway so the crawl loop can be exercised
// without a database. Every upsert is idempotent on its stated natural key;
// the gateway is the sole arbiter of record identity.
type Store interface {
	GetAdBySourceKey(ctx context.Context, source, sourceID string) (*model.AdRecord, error)
	UpsertAd(ctx context.Context, id, userID string, ad model.AdFields) (model.AdRecord, error)
	UpsertContacts(ctx context.Context, adID string, contacts model.ContactFields) error
	UpsertComments(ctx context.Context, adID string, comments []model.CommentFields) error
	UpsertCategoryLink(ctx context.Context, adID, categoryID string) error
	AppendChangeLog(ctx context.Context, entry model.ChangeLogEntry) error
}

// Orchestrator walks one source at a time: sections, paginated listing pages,
// then individual profiles, strictly sequentially. Error containment follows
// listing > page > section > adapter; only the caller's cancellation or a
// cycle-fatal condition stops it.
type Orchestrator struct {
	store      Store
	normalizer *Normalizer
	pacer      *Pacer
	maxPages   int
}

func NewOrchestrator(store Store, normalizer *Normalizer, pacer *Pacer, maxPages int) *Orchestrator {
	if maxPages <= 0 {
		maxPages = 10
	}
	return &Orchestrator{
		store:      store,
		normalizer: normalizer,
		pacer:      pacer,
		maxPages:   maxPages,
	}
}

// CrawlSource runs the full section walk for one adapter. categories maps
// catalog slugs to stored category ids; it is built once per cycle and
// read-only here. Returned stats cover every listing observed; samples hold
// a bounded subset of per-item failures.
func (o *Orchestrator) CrawlSource(
	ctx context.Context,
	adapter SourceAdapter,
	fetcher PageFetcher,
	userID string,
	categories map[string]string,
	onProgress func(model.CrawlRunStats),
) (model.CrawlRunStats, []model.ErrorSample) {
	var stats model.CrawlRunStats
	var samples []model.ErrorSample

	for _, section := range adapter.Sections() {
		if ctx.Err() != nil {
			return stats, samples
		}
		log.Printf("crawl %s: section %q", adapter.Source(), section.Label)

	pages:
		for page := 1; page <= o.maxPages; page++ {
			if ctx.Err() != nil {
				return stats, samples
			}
			pageURL := ListingPageURL(section, page)
			html, err := fetcher.Fetch(ctx, pageURL)
			if err != nil {
				if IsBlockSignal(err) {
					log.Printf("crawl %s: block signal on %s, ending section %q: %v",
						adapter.Source(), pageURL, section.Label, err)
					break pages
				}
				log.Printf("crawl %s: fetch page %d failed: %v", adapter.Source(), page, err)
				continue
			}

			listings, err := adapter.ParseListing(html)
			if err != nil {
				log.Printf("crawl %s: parse listing page %d failed: %v", adapter.Source(), page, err)
				continue
			}
			if len(listings) == 0 {
				// Pagination terminator: the section has run out of results.
				break
			}
			stats.Found += len(listings)

			for _, listing := range listings {
				if ctx.Err() != nil {
					return stats, samples
				}
				change, err := o.processListing(ctx, adapter, fetcher, listing, userID, section, categories)
				if err != nil {
					stats.Failed++
					if len(samples) < 10 {
						samples = append(samples, model.ErrorSample{Link: listing.URL, Reason: err.Error()})
					}
					log.Printf("crawl %s: listing %s failed: %v", adapter.Source(), listing.SourceID, err)
					if IsBlockSignal(err) {
						log.Printf("crawl %s: block signal on profile, ending section %q", adapter.Source(), section.Label)
						break pages
					}
				} else {
					switch change {
					case model.ChangeNew:
						stats.New++
					case model.ChangeUpdated:
						stats.Updated++
					case model.ChangeUnchanged:
						stats.Unchanged++
					}
				}
				if onProgress != nil {
					onProgress(stats)
				}
				if err := o.pacer.Wait(ctx); err != nil {
					return stats, samples
				}
			}
		}
	}
	return stats, samples
}

// processListing runs fetch -> parse -> normalize -> diff -> persist for one
// listing. Every error is contained here by the caller; nothing aborts the
// section except a block signal.
func (o *Orchestrator) processListing(
	ctx context.Context,
	adapter SourceAdapter,
	fetcher PageFetcher,
	listing model.RawListing,
	userID string,
	section CrawlSection,
	categories map[string]string,
) (model.ChangeType, error) {
	html, err := fetcher.Fetch(ctx, listing.URL)
	if err != nil {
		return "", fmt.Errorf("fetch profile: %w", err)
	}

	raw, err := adapter.ParseProfile(html, listing)
	if err != nil {
		return "", fmt.Errorf("parse profile: %w", err)
	}

	rec, err := o.normalizer.Normalize(&raw)
	if err != nil {
		return "", fmt.Errorf("normalize: %w", err)
	}
	rec.Ad.Source = adapter.Source()

	existing, err := o.store.GetAdBySourceKey(ctx, rec.Ad.Source, rec.Ad.SourceID)
	if err != nil {
		return "", fmt.Errorf("read existing: %w", err)
	}

	diff := Diff(existing, rec.Ad)
	if diff.Type == model.ChangeUnchanged {
		return diff.Type, nil
	}

	slugs := rec.CategorySlugs
	if section.CategorySlug != "" {
		slugs = append([]string{section.CategorySlug}, slugs...)
	}
	if err := o.Persist(ctx, userID, rec, diff, slugs, categories); err != nil {
		return "", err
	}
	return diff.Type, nil
}

// Persist runs the write sequence for a classified change: upsert ad
// (preserving the stored id), contacts, comments, category links, then the
// change-log entry. The steps are deliberately not one transaction; each is
// an independent idempotent upsert that self-corrects on the next cycle.
func (o *Orchestrator) Persist(
	ctx context.Context,
	userID string,
	rec model.NormalizedRecord,
	diff model.DiffResult,
	categorySlugs []string,
	categories map[string]string,
) error {
	id := ""
	if diff.Before != nil {
		id = diff.Before.ID
	}
	saved, err := o.store.UpsertAd(ctx, id, userID, rec.Ad)
	if err != nil {
		return fmt.Errorf("upsert ad: %w", err)
	}

	if err := o.store.UpsertContacts(ctx, saved.ID, rec.Contacts); err != nil {
		return fmt.Errorf("upsert contacts: %w", err)
	}
	if err := o.store.UpsertComments(ctx, saved.ID, rec.Comments); err != nil {
		return fmt.Errorf("upsert comments: %w", err)
	}

	for _, slug := range categorySlugs {
		categoryID, ok := categories[slug]
		if !ok {
			continue
		}
		if err := o.store.UpsertCategoryLink(ctx, saved.ID, categoryID); err != nil {
			return fmt.Errorf("upsert category link %s: %w", slug, err)
		}
	}

	entry := model.ChangeLogEntry{
		AdID:          saved.ID,
		ChangeType:    diff.Type,
		ChangedFields: diff.ChangedFields,
		After:         mustJSON(diff.After),
		CreatedAt:     time.Now().UTC(),
	}
	if diff.Before != nil {
		entry.Before = mustJSON(diff.Before)
	}
	if err := o.store.AppendChangeLog(ctx, entry); err != nil {
		return fmt.Errorf("append change log: %w", err)
	}
	return nil
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return data
}
