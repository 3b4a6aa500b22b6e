package crawler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/tahles/directory-crawler/pkg/model"
)

// StartReprocess re-runs normalization and diffing over the raw profiles
// embedded in stored ads, without refetching anything. Useful after a
// normalizer change: the audit trail records exactly what the new rules
// altered. Runs asynchronously like a crawl.
func (s *Service) StartReprocess(ctx context.Context) (string, error) {
	if s.jobs.Busy() {
		return "", errors.New("a crawl run is already in progress")
	}
	runID := newRunID("REPROC")
	if err := s.runs.CreateRun(ctx, model.CrawlRun{
		RunID:     runID,
		Source:    "reprocess",
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
		if err := s.reprocessCycle(runCtx, runID); err != nil {
			log.Printf("reprocess run %s: %v", runID, err)
		}
	}()
	return runID, nil
}

func (s *Service) reprocessCycle(ctx context.Context, runID string) error {
	var stats model.CrawlRunStats
	var samples []model.ErrorSample

	finalize := func(status string, fatal error) error {
		if err := s.runs.UpdateRun(context.Background(), model.CrawlRun{
			RunID:       runID,
			Source:      "reprocess",
			Status:      status,
			Stats:       stats,
			FinishedAt:  time.Now().UTC(),
			ErrorSample: samples,
		}); err != nil {
			log.Printf("reprocess run %s: finalize failed: %v", runID, err)
		}
		return fatal
	}

	categories, err := s.loadCategoryCache(ctx)
	if err != nil {
		return finalize("failed", fmt.Errorf("reprocess: %w", err))
	}

	ads, err := s.ads.FetchAll(ctx)
	if err != nil {
		return finalize("failed", fmt.Errorf("reprocess: %w", err))
	}

	norm := NewNormalizer()
	orch := NewOrchestrator(s.store, norm, NewPacer(0, 0), s.opts.MaxPages)

	for _, ad := range ads {
		if ctx.Err() != nil {
			return finalize("canceled", nil)
		}
		if len(ad.RawData) == 0 {
			continue
		}
		stats.Found++

		var raw model.RawProfile
		if err := json.Unmarshal(ad.RawData, &raw); err != nil {
			stats.Failed++
			if len(samples) < 20 {
				samples = append(samples, model.ErrorSample{Link: ad.NaturalKey(), Reason: err.Error()})
			}
			continue
		}

		rec, err := norm.Normalize(&raw)
		if err != nil {
			stats.Failed++
			continue
		}
		rec.Ad.Source = ad.Source

		existing := ad
		diff := Diff(&existing, rec.Ad)
		if diff.Type == model.ChangeUnchanged {
			stats.Unchanged++
			continue
		}
		if err := orch.Persist(ctx, ad.UserID, rec, diff, rec.CategorySlugs, categories); err != nil {
			stats.Failed++
			if len(samples) < 20 {
				samples = append(samples, model.ErrorSample{Link: ad.NaturalKey(), Reason: err.Error()})
			}
			log.Printf("reprocess %s: %v", ad.NaturalKey(), err)
			continue
		}
		stats.Updated++
	}

	s.refreshSystemStats(context.Background())
	return finalize("success", nil)
}
