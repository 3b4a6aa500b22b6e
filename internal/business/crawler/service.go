package crawler

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tahles/directory-crawler/internal/repository"
	"github.com/tahles/directory-crawler/pkg/model"
)

// Options tunes a crawl service.
type Options struct {
	MaxPages     int
	PaceMin      time.Duration
	PaceMax      time.Duration
	IdleInterval time.Duration
	CoolDown     time.Duration
}

// Service wires adapters, the persistence gateway, and run lifecycle records
// into the trigger interface exposed to schedulers and the API.
type Service struct {
	adapters  []SourceAdapter
	store     Store
	ads       *repository.AdRepository
	cats      *repository.CategoryRepository
	runs      *repository.RunRepository
	statsRepo *repository.StatsRepository
	users     *repository.UserRepository
	jobs      *JobManager
	opts      Options

	// newFetcher is swapped in tests to avoid network calls.
	newFetcher func(headers map[string]string) PageFetcher
}

func NewService(
	adapters []SourceAdapter,
	ads *repository.AdRepository,
	cats *repository.CategoryRepository,
	changes *repository.ChangeLogRepository,
	runs *repository.RunRepository,
	statsRepo *repository.StatsRepository,
	users *repository.UserRepository,
	opts Options,
) *Service {
	return &Service{
		adapters:  adapters,
		store:     &gatewayStore{ads: ads, cats: cats, changes: changes},
		ads:       ads,
		cats:      cats,
		runs:      runs,
		statsRepo: statsRepo,
		users:     users,
		jobs:      NewJobManager(),
		opts:      opts,
		newFetcher: func(headers map[string]string) PageFetcher {
			return NewHTTPFetcher(headers)
		},
	}
}

// RunFullCrawl performs one complete cycle across all configured adapters and
// returns only on completion or an unrecoverable (cycle-fatal) error. Callers
// own scheduling and repetition.
func (s *Service) RunFullCrawl(ctx context.Context) error {
	runID := newRunID("RUN")
	if err := s.runs.CreateRun(ctx, model.CrawlRun{
		RunID:     runID,
		Status:    "running",
		StartedAt: time.Now().UTC(),
	}); err != nil {
		return err
	}
	_, err := s.executeCycle(ctx, runID)
	return err
}

// Start kicks off a crawl run asynchronously and returns its run id. Only one
// run may be in flight at a time; parallel cycles would defeat the pacing.
func (s *Service) Start(ctx context.Context) (string, error) {
	if s.jobs.Busy() {
		return "", errors.New("a crawl run is already in progress")
	}
	runID := newRunID("RUN")
	if err := s.runs.CreateRun(ctx, model.CrawlRun{
		RunID:     runID,
		Status:    "running",
		StartedAt: time.Now().UTC(),
	}); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.jobs.Register(runID, cancel)
	go func() {
		defer s.jobs.Unregister(runID)
		defer cancel()
		if _, err := s.executeCycle(runCtx, runID); err != nil {
			log.Printf("crawl run %s: %v", runID, err)
		}
	}()
	return runID, nil
}

// Cancel stops an in-flight run between listings.
func (s *Service) Cancel(runID string) bool {
	return s.jobs.Cancel(runID)
}

// RunForever is the supervised outer loop: run a cycle, idle, repeat. A
// failed cycle restarts after the cool-down instead of crashing the process.
// Returns when the context is canceled.
func (s *Service) RunForever(ctx context.Context) {
	for {
		if err := s.RunFullCrawl(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Printf("crawl cycle failed, restarting in %s: %v", s.opts.CoolDown, err)
			if !sleepCtx(ctx, s.opts.CoolDown) {
				return
			}
			continue
		}
		if ctx.Err() != nil {
			return
		}
		log.Printf("crawl cycle finished, next cycle in %s", s.opts.IdleInterval)
		if !sleepCtx(ctx, s.opts.IdleInterval) {
			return
		}
	}
}

// executeCycle walks every adapter sequentially and finalizes the run record.
// Cycle-fatal conditions (no attributable user, category preload failure)
// abort immediately; everything else is contained per source.
func (s *Service) executeCycle(ctx context.Context, runID string) (model.CrawlRunStats, error) {
	var total model.CrawlRunStats
	var samples []model.ErrorSample

	finalize := func(status string, fatal error) (model.CrawlRunStats, error) {
		if err := s.runs.UpdateRun(context.Background(), model.CrawlRun{
			RunID:       runID,
			Status:      status,
			Stats:       total,
			FinishedAt:  time.Now().UTC(),
			ErrorSample: samples,
		}); err != nil {
			log.Printf("crawl run %s: finalize failed: %v", runID, err)
		}
		return total, fatal
	}

	userID, err := s.users.SystemUserID(ctx)
	if err != nil {
		return finalize("failed", fmt.Errorf("crawl cycle: %w", err))
	}

	categories, err := s.loadCategoryCache(ctx)
	if err != nil {
		return finalize("failed", fmt.Errorf("crawl cycle: %w", err))
	}

	orch := NewOrchestrator(s.store, NewNormalizer(), NewPacer(s.opts.PaceMin, s.opts.PaceMax), s.opts.MaxPages)

	for _, adapter := range s.adapters {
		if ctx.Err() != nil {
			break
		}
		log.Printf("crawl run %s: source %s", runID, adapter.Source())
		fetcher := s.newFetcher(adapter.Headers())

		base := total
		progress := func(curr model.CrawlRunStats) {
			merged := addStats(base, curr)
			if (merged.Found)%25 == 0 {
				_ = s.runs.UpdateRun(ctx, model.CrawlRun{RunID: runID, Status: "running", Stats: merged})
			}
		}

		stats, srcSamples := orch.CrawlSource(ctx, adapter, fetcher, userID, categories, progress)
		total = addStats(total, stats)
		for _, sample := range srcSamples {
			if len(samples) < 20 {
				samples = append(samples, sample)
			}
		}
	}

	s.refreshSystemStats(context.Background())

	if ctx.Err() != nil {
		return finalize("canceled", nil)
	}
	return finalize("success", nil)
}

// loadCategoryCache seeds the catalog and builds the slug->id map used for
// category linkage. Built once per cycle, read-only afterwards.
func (s *Service) loadCategoryCache(ctx context.Context) (map[string]string, error) {
	if err := s.cats.EnsureCatalog(ctx, CategoryCatalog); err != nil {
		return nil, err
	}
	cats, err := s.cats.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	cache := make(map[string]string, len(cats))
	for _, c := range cats {
		cache[c.Slug] = c.ID
	}
	return cache, nil
}

// RefreshSystemStats recomputes and saves the aggregate dashboard stats.
func (s *Service) RefreshSystemStats(ctx context.Context) (model.SystemStats, error) {
	ads, err := s.ads.FetchAll(ctx)
	if err != nil {
		return model.SystemStats{}, fmt.Errorf("refresh stats: %w", err)
	}
	stats := AggregateSystemStats(ads)
	if err := s.statsRepo.SaveSystemStats(ctx, stats); err != nil {
		return model.SystemStats{}, fmt.Errorf("refresh stats: %w", err)
	}
	return stats, nil
}

func (s *Service) refreshSystemStats(ctx context.Context) {
	if _, err := s.RefreshSystemStats(ctx); err != nil {
		log.Printf("crawl: %v", err)
	}
}

func newRunID(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixMilli())
}

func addStats(a, b model.CrawlRunStats) model.CrawlRunStats {
	return model.CrawlRunStats{
		Found:     a.Found + b.Found,
		New:       a.New + b.New,
		Updated:   a.Updated + b.Updated,
		Unchanged: a.Unchanged + b.Unchanged,
		Failed:    a.Failed + b.Failed,
	}
}

// sleepCtx sleeps for d unless the context ends first; reports whether the
// full sleep completed.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// gatewayStore binds the pgx repositories to the Store interface the
// orchestrator consumes.
type gatewayStore struct {
	ads     *repository.AdRepository
	cats    *repository.CategoryRepository
	changes *repository.ChangeLogRepository
}

func (g *gatewayStore) GetAdBySourceKey(ctx context.Context, source, sourceID string) (*model.AdRecord, error) {
	return g.ads.GetBySourceKey(ctx, source, sourceID)
}

func (g *gatewayStore) UpsertAd(ctx context.Context, id, userID string, ad model.AdFields) (model.AdRecord, error) {
	return g.ads.Upsert(ctx, id, userID, ad)
}

func (g *gatewayStore) UpsertContacts(ctx context.Context, adID string, contacts model.ContactFields) error {
	return g.ads.UpsertContacts(ctx, adID, contacts)
}

func (g *gatewayStore) UpsertComments(ctx context.Context, adID string, comments []model.CommentFields) error {
	return g.ads.UpsertComments(ctx, adID, comments)
}

func (g *gatewayStore) UpsertCategoryLink(ctx context.Context, adID, categoryID string) error {
	return g.cats.UpsertLink(ctx, adID, categoryID)
}

func (g *gatewayStore) AppendChangeLog(ctx context.Context, entry model.ChangeLogEntry) error {
	return g.changes.Append(ctx, entry)
}
