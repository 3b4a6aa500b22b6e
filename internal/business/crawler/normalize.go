package crawler

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tahles/directory-crawler/pkg/model"
	"github.com/tahles/directory-crawler/pkg/util"
)

// cityMap resolves source-local city text onto canonical city names.
// Unknown text falls through to the raw value; empty text falls back to the
// country-wide placeholder.
var cityMap = map[string]string{
	"תל אביב":     "Tel Aviv",
	"מרכז":        "Central District",
	"חיפה":        "Haifa",
	"ירושלים":     "Jerusalem",
	"נתניה":       "Netanya",
	"אשדוד":       "Ashdod",
	"פתח תקווה":   "Petah Tikva",
	"באר שבע":     "Beersheba",
	"ראשון לציון": "Rishon LeZion",
	"אילת":        "Eilat",
}

const defaultCity = "Israel"

// CategoryCatalog is the fixed canonical catalog that raw category labels are
// matched against. Seeded into the categories table at startup.
var CategoryCatalog = []model.Category{
	{Slug: "massage", Name: "Massage"},
	{Slug: "dating", Name: "Dating Only"},
	{Slug: "sugar-baby", Name: "Sugar Baby"},
	{Slug: "domina", Name: "Domina"},
	{Slug: "individual", Name: "Individual"},
	{Slug: "trans", Name: "Trans"},
}

// Normalizer maps raw profiles onto the canonical record shape.
type Normalizer struct {
	now func() time.Time
}

func NewNormalizer() *Normalizer {
	return &Normalizer{now: time.Now}
}

// Normalize converts a raw profile into the canonical record. It never fails
// on missing optional fields; only a structurally absent profile is an error.
func (n *Normalizer) Normalize(raw *model.RawProfile) (model.NormalizedRecord, error) {
	if raw == nil {
		return model.NormalizedRecord{}, errors.New("raw profile is nil")
	}

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return model.NormalizedRecord{}, fmt.Errorf("embed raw profile: %w", err)
	}

	photos := raw.Photos
	if photos == nil {
		photos = []string{}
	}

	// Source is stamped by the orchestrator; the raw profile does not carry it.
	ad := model.AdFields{
		SourceID:    raw.SourceID,
		Nickname:    raw.Name,
		Description: raw.Description,
		Age:         raw.Age,
		City:        ResolveCity(raw.City),
		PriceMin:    raw.PriceMin,
		PriceMax:    raw.PriceMax,
		Photos:      photos,
		Verified:    raw.Verified,
		VIP:         raw.VIP,
		Online:      raw.Online,
		ServiceMode: raw.ServiceMode,
		Languages:   raw.Languages,
		RatingAvg:   raw.RatingAvg,
		RatingCount: raw.RatingCount,
		RawData:     rawJSON,
		UpdatedAt:   n.now().UTC(),
	}

	contacts := model.ContactFields{
		Phone:    util.DigitsOnly(raw.Contacts.Phone),
		Whatsapp: util.DigitsOnly(raw.Contacts.Whatsapp),
		Telegram: strings.TrimPrefix(strings.TrimSpace(raw.Contacts.Telegram), "@"),
	}

	comments := make([]model.CommentFields, 0, len(raw.Comments))
	for _, c := range raw.Comments {
		key := c.CommentKey
		if key == "" {
			key = util.HashString(c.Author + "|" + c.Text)
		}
		createdAt := n.now().UTC()
		if c.DateRaw != "" {
			if parsed, err := time.Parse("2006-01-02", strings.TrimSpace(c.DateRaw)); err == nil {
				createdAt = parsed
			}
		}
		comments = append(comments, model.CommentFields{
			CommentKey: key,
			Author:     c.Author,
			Text:       c.Text,
			Rating:     c.Rating,
			CreatedAt:  createdAt,
		})
	}

	return model.NormalizedRecord{
		Ad:            ad,
		Contacts:      contacts,
		Comments:      comments,
		CategorySlugs: MatchCategories(raw.Categories),
	}, nil
}

// ResolveCity maps raw city text to its canonical name, falling back to the
// raw text, then to the default placeholder.
func ResolveCity(raw string) string {
	raw = strings.TrimSpace(raw)
	if canonical, ok := cityMap[raw]; ok {
		return canonical
	}
	if raw != "" {
		return raw
	}
	return defaultCity
}

// MatchCategories maps raw category labels onto catalog slugs by
// case-insensitive exact name match or label-contains-slug. Unmatched labels
// are dropped silently.
func MatchCategories(labels []string) []string {
	var slugs []string
	seen := make(map[string]struct{})
	for _, label := range labels {
		lower := strings.ToLower(strings.TrimSpace(label))
		if lower == "" {
			continue
		}
		for _, cat := range CategoryCatalog {
			if lower != strings.ToLower(cat.Name) && !strings.Contains(lower, cat.Slug) {
				continue
			}
			if _, dup := seen[cat.Slug]; !dup {
				seen[cat.Slug] = struct{}{}
				slugs = append(slugs, cat.Slug)
			}
			break
		}
	}
	return slugs
}
