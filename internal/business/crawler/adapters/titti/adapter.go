// Package titti parses listing and profile pages of titti.co.il.
package titti

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tahles/directory-crawler/internal/business/crawler"
	"github.com/tahles/directory-crawler/pkg/model"
	"github.com/tahles/directory-crawler/pkg/util"
)

const baseURL = "https://www.titti.co.il"

// photoLiteralRe matches photo URLs embedded in inline script arrays, e.g.
// "/files/gallery/123/a.jpg". The script gallery carries the full-size set;
// thumbnails are only a fallback.
var photoLiteralRe = regexp.MustCompile(`"(/files/[^"]+\.(?:jpe?g|png|webp))"`)

// Adapter implements the crawler.SourceAdapter contract for titti.
type Adapter struct{}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Source() string  { return "titti" }
func (a *Adapter) BaseURL() string { return baseURL }

func (a *Adapter) Headers() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Accept-Language": "he-IL,he;q=0.9,ru-RU;q=0.8,ru;q=0.7,en-US;q=0.6,en;q=0.5",
	}
}

func (a *Adapter) Sections() []crawler.CrawlSection {
	return []crawler.CrawlSection{
		{URL: baseURL, Label: "front"},
		{URL: baseURL + "/massage", CategorySlug: "massage", Label: "massage"},
		{URL: baseURL + "/dominatrix", CategorySlug: "domina", Label: "domina"},
	}
}

// ParseListing extracts stub records from one listing page. A page with no
// listing nodes returns an empty slice; that ends the section's pagination.
func (a *Adapter) ParseListing(html string) ([]model.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	listings := []model.RawListing{}
	doc.Find(`.listing_box li[id^="fli_"]`).Each(func(_ int, s *goquery.Selection) {
		link := s.Find(".picture a").First()
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		// Profile URLs end in "...-<id>.html"; the trailing segment is the
		// source-local identifier.
		sourceID := strings.TrimSuffix(lastDashSegment(href), ".html")
		if sourceID == "" {
			return
		}

		// The anchor title reads "Name, Age".
		title := link.AttrOr("title", "")
		name, agePart, _ := strings.Cut(title, ",")

		listings = append(listings, model.RawListing{
			SourceID:     sourceID,
			URL:          absoluteURL(href),
			Name:         strings.TrimSpace(name),
			City:         strings.TrimSpace(s.Find(`li[id$="_country_level1"] div`).First().Text()),
			Age:          util.LeadingInt(agePart),
			PreviewImage: s.Find(".picture img").First().AttrOr("src", ""),
			Verified:     s.Find(".verifiedIcon").Length() > 0,
			VIP:          s.Find(".hot_exclusive").Length() > 0,
			Online:       s.Find(".online").Length() > 0,
		})
	})
	return listings, nil
}

// ParseProfile extracts the full profile from a detail page. Missing markup
// degrades the affected fields instead of failing; profile templates vary
// between site revisions.
func (a *Adapter) ParseProfile(html string, listing model.RawListing) (model.RawProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.RawProfile{}, fmt.Errorf("parse profile html: %w", err)
	}

	profile := model.RawProfile{
		RawListing:  listing,
		Description: strings.TrimSpace(doc.Find(".description-content").First().Text()),
		Photos:      extractPhotos(doc, html),
		ServiceMode: serviceMode(html),
	}

	if age := util.LeadingInt(tableValue(doc, "Age")); age != nil {
		profile.Age = age
	}

	// Price: dedicated element first, description text as fallback.
	profile.PriceMin = util.FirstCurrencyAmount(tableValue(doc, "Price"))
	if profile.PriceMin == nil {
		profile.PriceMin = util.FirstCurrencyAmount(profile.Description)
	}

	if langs := tableValue(doc, "Languages"); langs != "" {
		for _, l := range strings.Split(langs, ",") {
			if t := strings.TrimSpace(l); t != "" {
				profile.Languages = append(profile.Languages, t)
			}
		}
	}

	doc.Find(".tags a").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			profile.Categories = append(profile.Categories, t)
		}
	})

	// Contact numbers keep their display formatting here; the normalizer
	// strips it before anything is persisted.
	profile.Contacts.Phone = strings.TrimSpace(doc.Find(".show_phone").Parent().Find("a").First().Text())
	if href, ok := doc.Find(`a[href*="wa.me"]`).First().Attr("href"); ok {
		profile.Contacts.Whatsapp = lastPathSegment(href)
	}
	if href, ok := doc.Find(`a[href*="t.me"]`).First().Attr("href"); ok {
		profile.Contacts.Telegram = lastPathSegment(href)
	}

	doc.Find(".comments .comment").Each(func(_ int, s *goquery.Selection) {
		comment := model.RawComment{
			CommentKey: s.AttrOr("data-id", ""),
			Author:     strings.TrimSpace(s.Find(".author").First().Text()),
			Text:       strings.TrimSpace(s.Find(".text").First().Text()),
			Rating:     util.LeadingInt(s.Find(".stars").First().AttrOr("data-score", "")),
			DateRaw:    strings.TrimSpace(s.Find(".date").First().Text()),
		}
		if comment.Author == "" && comment.Text == "" {
			return
		}
		profile.Comments = append(profile.Comments, comment)
	})

	if avg := strings.TrimSpace(doc.Find(".rating-score").First().Text()); avg != "" {
		if v := parseFloat(avg); v != nil {
			profile.RatingAvg = v
		}
	}
	profile.RatingCount = util.LeadingInt(doc.Find(".rating-count").First().Text())

	return profile, nil
}

// extractPhotos prefers the script-literal gallery array and falls back to
// gallery thumbnails. Both paths dedupe by exact URL and skip site chrome.
func extractPhotos(doc *goquery.Document, html string) []string {
	photos := []string{}
	seen := make(map[string]struct{})
	add := func(src string) {
		src = strings.TrimSpace(src)
		if src == "" || strings.Contains(src, "logo") {
			return
		}
		abs := absoluteURL(src)
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		photos = append(photos, abs)
	}

	for _, m := range photoLiteralRe.FindAllStringSubmatch(html, -1) {
		add(m[1])
	}
	if len(photos) > 0 {
		return photos
	}

	doc.Find(`img[src*="/files/"]`).Each(func(_ int, s *goquery.Selection) {
		add(s.AttrOr("src", ""))
	})
	return photos
}

// tableValue reads the value cell next to a labeled attribute cell.
func tableValue(doc *goquery.Document, label string) string {
	var value string
	doc.Find(".table-cell").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !strings.Contains(s.Text(), label) {
			return true
		}
		value = strings.TrimSpace(s.Find(".value").First().Text())
		return false
	})
	return value
}

func serviceMode(html string) model.ServiceMode {
	in := strings.Contains(html, "Incall")
	out := strings.Contains(html, "Outcall")
	switch {
	case in && out:
		return model.ServiceBoth
	case out:
		return model.ServiceOutcall
	default:
		return model.ServiceIncall
	}
}

func absoluteURL(href string) string {
	if strings.HasPrefix(href, "http") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return baseURL + href
}

func lastDashSegment(s string) string {
	if i := strings.LastIndex(s, "-"); i >= 0 {
		return s[i+1:]
	}
	return ""
}

func lastPathSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}

func parseFloat(s string) *float64 {
	var v float64
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &v); err != nil {
		return nil
	}
	return &v
}
