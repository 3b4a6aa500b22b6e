package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/tahles/directory-crawler/pkg/model"
)

// mockFetcher echoes the requested URL as the page body, so the stub adapter
// can key its canned responses by URL. Per-URL errors simulate blocks.
type mockFetcher struct {
	errs    map[string]error
	fetched []string
}

func (m *mockFetcher) Fetch(ctx context.Context, url string) (string, error) {
	m.fetched = append(m.fetched, url)
	if err, ok := m.errs[url]; ok {
		return "", err
	}
	return url, nil
}

type stubAdapter struct {
	sections []CrawlSection
	listings map[string][]model.RawListing
	profiles map[string]model.RawProfile
}

func (a *stubAdapter) Source() string             { return "stub" }
func (a *stubAdapter) BaseURL() string            { return "https://stub.test" }
func (a *stubAdapter) Headers() map[string]string { return nil }
func (a *stubAdapter) Sections() []CrawlSection   { return a.sections }

func (a *stubAdapter) ParseListing(html string) ([]model.RawListing, error) {
	return a.listings[html], nil
}

func (a *stubAdapter) ParseProfile(html string, listing model.RawListing) (model.RawProfile, error) {
	profile, ok := a.profiles[listing.SourceID]
	if !ok {
		return model.RawProfile{}, errors.New("unknown profile")
	}
	profile.RawListing = listing
	return profile, nil
}

type memStore struct {
	ads      map[string]model.AdRecord
	contacts map[string]model.ContactFields
	comments map[string][]model.CommentFields
	links    map[string][]string
	log      []model.ChangeLogEntry
	nextID   int
}

func newMemStore() *memStore {
	return &memStore{
		ads:      make(map[string]model.AdRecord),
		contacts: make(map[string]model.ContactFields),
		comments: make(map[string][]model.CommentFields),
		links:    make(map[string][]string),
	}
}

func (s *memStore) GetAdBySourceKey(_ context.Context, source, sourceID string) (*model.AdRecord, error) {
	rec, ok := s.ads[source+":"+sourceID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (s *memStore) UpsertAd(_ context.Context, id, userID string, ad model.AdFields) (model.AdRecord, error) {
	if id == "" {
		s.nextID++
		id = fmt.Sprintf("ad-%d", s.nextID)
	}
	rec := model.AdRecord{ID: id, UserID: userID, AdFields: ad}
	s.ads[ad.Source+":"+ad.SourceID] = rec
	return rec, nil
}

func (s *memStore) UpsertContacts(_ context.Context, adID string, contacts model.ContactFields) error {
	s.contacts[adID] = contacts
	return nil
}

func (s *memStore) UpsertComments(_ context.Context, adID string, comments []model.CommentFields) error {
	s.comments[adID] = comments
	return nil
}

func (s *memStore) UpsertCategoryLink(_ context.Context, adID, categoryID string) error {
	s.links[adID] = append(s.links[adID], categoryID)
	return nil
}

func (s *memStore) AppendChangeLog(_ context.Context, entry model.ChangeLogEntry) error {
	s.log = append(s.log, entry)
	return nil
}

func testOrchestrator(store Store) *Orchestrator {
	return NewOrchestrator(store, NewNormalizer(), NewPacer(time.Millisecond, time.Millisecond), 10)
}

func TestCrawlSourceNewThenUnchanged(t *testing.T) {
	adapter := &stubAdapter{
		sections: []CrawlSection{{URL: "https://stub.test/girls", CategorySlug: "massage", Label: "girls"}},
		listings: map[string][]model.RawListing{
			"https://stub.test/girls": {
				{SourceID: "77", URL: "https://stub.test/p/77", Name: "Dana", City: "תל אביב"},
			},
		},
		profiles: map[string]model.RawProfile{
			"77": {Description: "hi", Photos: []string{"a.jpg"}},
		},
	}
	store := newMemStore()
	orch := testOrchestrator(store)
	categories := map[string]string{"massage": "cat-1"}

	stats, samples := orch.CrawlSource(context.Background(), adapter, &mockFetcher{}, "user-1", categories, nil)
	if stats.Found != 1 || stats.New != 1 || stats.Failed != 0 {
		t.Fatalf("first crawl stats: %+v", stats)
	}
	if len(samples) != 0 {
		t.Fatalf("unexpected samples: %+v", samples)
	}

	saved, ok := store.ads["stub:77"]
	if !ok {
		t.Fatal("ad not persisted")
	}
	if saved.City != "Tel Aviv" {
		t.Errorf("city = %q, want canonical Tel Aviv", saved.City)
	}
	if len(store.links[saved.ID]) != 1 || store.links[saved.ID][0] != "cat-1" {
		t.Errorf("category links = %v, want section target cat-1", store.links[saved.ID])
	}
	if len(store.log) != 1 || store.log[0].ChangeType != model.ChangeNew {
		t.Fatalf("change log = %+v, want one new entry", store.log)
	}
	if store.log[0].Before != nil {
		t.Error("new entry should carry no before snapshot")
	}

	// Second cycle over identical content: unchanged, no writes, no new audit.
	stats, _ = orch.CrawlSource(context.Background(), adapter, &mockFetcher{}, "user-1", categories, nil)
	if stats.Unchanged != 1 || stats.New != 0 || stats.Updated != 0 {
		t.Fatalf("second crawl stats: %+v", stats)
	}
	if len(store.log) != 1 {
		t.Fatalf("change log grew to %d entries on an unchanged cycle", len(store.log))
	}
}

func TestCrawlSourceUpdatePreservesID(t *testing.T) {
	price1 := 500
	adapter := &stubAdapter{
		sections: []CrawlSection{{URL: "https://stub.test/girls", Label: "girls"}},
		listings: map[string][]model.RawListing{
			"https://stub.test/girls": {
				{SourceID: "9", URL: "https://stub.test/p/9", Name: "Mia"},
			},
		},
		profiles: map[string]model.RawProfile{
			"9": {RawListing: model.RawListing{PriceMin: &price1}},
		},
	}
	store := newMemStore()
	orch := testOrchestrator(store)

	if stats, _ := orch.CrawlSource(context.Background(), adapter, &mockFetcher{}, "u", nil, nil); stats.New != 1 {
		t.Fatalf("first crawl stats: %+v", stats)
	}
	firstID := store.ads["stub:9"].ID

	price2 := 600
	adapter.profiles["9"] = model.RawProfile{RawListing: model.RawListing{PriceMin: &price2}}

	stats, _ := orch.CrawlSource(context.Background(), adapter, &mockFetcher{}, "u", nil, nil)
	if stats.Updated != 1 {
		t.Fatalf("second crawl stats: %+v", stats)
	}
	if got := store.ads["stub:9"].ID; got != firstID {
		t.Errorf("row id changed across update: %q -> %q", firstID, got)
	}
	if len(store.log) != 2 {
		t.Fatalf("change log entries = %d, want 2", len(store.log))
	}
	last := store.log[1]
	if last.ChangeType != model.ChangeUpdated {
		t.Errorf("change type = %q", last.ChangeType)
	}
	if len(last.ChangedFields) != 1 || last.ChangedFields[0] != "price_min" {
		t.Errorf("changed fields = %v, want [price_min]", last.ChangedFields)
	}
	if last.Before == nil {
		t.Error("updated entry should carry the before snapshot")
	}
}

func TestCrawlSourceBlockSignalEndsSectionOnly(t *testing.T) {
	adapter := &stubAdapter{
		sections: []CrawlSection{
			{URL: "https://stub.test/a", Label: "a"},
			{URL: "https://stub.test/b", Label: "b"},
		},
		listings: map[string][]model.RawListing{
			"https://stub.test/a": {
				{SourceID: "1", URL: "https://stub.test/p/1", Name: "One"},
				{SourceID: "2", URL: "https://stub.test/p/2", Name: "Two"},
			},
			"https://stub.test/a/page/2/": {
				{SourceID: "3", URL: "https://stub.test/p/3", Name: "Three"},
			},
			"https://stub.test/b": {
				{SourceID: "4", URL: "https://stub.test/p/4", Name: "Four"},
			},
		},
		profiles: map[string]model.RawProfile{
			"1": {}, "2": {}, "3": {}, "4": {},
		},
	}
	fetcher := &mockFetcher{errs: map[string]error{
		"https://stub.test/a/page/2/": &StatusError{URL: "https://stub.test/a/page/2/", StatusCode: 403},
	}}
	store := newMemStore()
	orch := testOrchestrator(store)

	stats, _ := orch.CrawlSource(context.Background(), adapter, fetcher, "u", nil, nil)
	if stats.Found != 3 || stats.New != 3 {
		t.Fatalf("stats: %+v, want 3 found across sections a page 1 and b", stats)
	}
	if _, ok := store.ads["stub:4"]; !ok {
		t.Error("section b should still be crawled after section a was blocked")
	}
	if _, ok := store.ads["stub:3"]; ok {
		t.Error("page behind the block signal must not be processed")
	}
}

func TestCrawlSourceEmptyPageEndsPagination(t *testing.T) {
	adapter := &stubAdapter{
		sections: []CrawlSection{{URL: "https://stub.test/a", Label: "a"}},
		listings: map[string][]model.RawListing{
			"https://stub.test/a": {
				{SourceID: "1", URL: "https://stub.test/p/1", Name: "One"},
			},
		},
		profiles: map[string]model.RawProfile{"1": {}},
	}
	fetcher := &mockFetcher{}
	orch := testOrchestrator(newMemStore())

	orch.CrawlSource(context.Background(), adapter, fetcher, "u", nil, nil)

	for _, url := range fetcher.fetched {
		if strings.Contains(url, "/page/3/") {
			t.Fatalf("pagination continued past the empty page: %v", fetcher.fetched)
		}
	}
}

func TestCrawlSourceListingFailureIsContained(t *testing.T) {
	adapter := &stubAdapter{
		sections: []CrawlSection{{URL: "https://stub.test/a", Label: "a"}},
		listings: map[string][]model.RawListing{
			"https://stub.test/a": {
				{SourceID: "1", URL: "https://stub.test/p/1", Name: "One"},
				{SourceID: "2", URL: "https://stub.test/p/2", Name: "Two"},
			},
		},
		profiles: map[string]model.RawProfile{"1": {}, "2": {}},
	}
	fetcher := &mockFetcher{errs: map[string]error{
		"https://stub.test/p/1": errors.New("connection reset"),
	}}
	store := newMemStore()
	orch := testOrchestrator(store)

	stats, samples := orch.CrawlSource(context.Background(), adapter, fetcher, "u", nil, nil)
	if stats.Failed != 1 || stats.New != 1 {
		t.Fatalf("stats: %+v, want one failure and one success", stats)
	}
	if len(samples) != 1 || samples[0].Link != "https://stub.test/p/1" {
		t.Fatalf("samples: %+v", samples)
	}
	if _, ok := store.ads["stub:2"]; !ok {
		t.Error("listing after the failed one should still be processed")
	}
}

func TestCrawlSourceCanceled(t *testing.T) {
	adapter := &stubAdapter{
		sections: []CrawlSection{{URL: "https://stub.test/a", Label: "a"}},
		listings: map[string][]model.RawListing{
			"https://stub.test/a": {
				{SourceID: "1", URL: "https://stub.test/p/1", Name: "One"},
			},
		},
		profiles: map[string]model.RawProfile{"1": {}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := newMemStore()
	orch := testOrchestrator(store)
	stats, _ := orch.CrawlSource(ctx, adapter, &mockFetcher{}, "u", nil, nil)
	if stats.Found != 0 || len(store.ads) != 0 {
		t.Fatalf("canceled crawl did work: %+v", stats)
	}
}
