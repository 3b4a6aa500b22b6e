// Package sexfire parses listing and profile pages of sexfire2.com. The site
// uses a stock directory template, so the selectors are deliberately broad.
package sexfire

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tahles/directory-crawler/internal/business/crawler"
	"github.com/tahles/directory-crawler/pkg/model"
	"github.com/tahles/directory-crawler/pkg/util"
)

const baseURL = "https://www.sexfire2.com"

// Adapter implements the crawler.SourceAdapter contract for sexfire.
type Adapter struct{}

func New() *Adapter {
	return &Adapter{}
}

func (a *Adapter) Source() string  { return "sexfire" }
func (a *Adapter) BaseURL() string { return baseURL }

func (a *Adapter) Headers() map[string]string {
	return map[string]string{
		"User-Agent":      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		"Accept-Language": "he-IL,he;q=0.9,en-US;q=0.6,en;q=0.5",
	}
}

func (a *Adapter) Sections() []crawler.CrawlSection {
	return []crawler.CrawlSection{
		{URL: baseURL, Label: "front"},
	}
}

func (a *Adapter) ParseListing(html string) ([]model.RawListing, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing html: %w", err)
	}

	listings := []model.RawListing{}
	doc.Find(".item, .box, .listing-item").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Find("a").First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}
		sourceID := strings.TrimSuffix(lastPathSegment(href), ".html")
		if sourceID == "" {
			return
		}
		listings = append(listings, model.RawListing{
			SourceID:     sourceID,
			URL:          absoluteURL(href),
			Name:         strings.TrimSpace(s.Find(".name, h3").First().Text()),
			City:         strings.TrimSpace(s.Find(".city").First().Text()),
			PreviewImage: s.Find("img").First().AttrOr("src", ""),
		})
	})
	return listings, nil
}

func (a *Adapter) ParseProfile(html string, listing model.RawListing) (model.RawProfile, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return model.RawProfile{}, fmt.Errorf("parse profile html: %w", err)
	}

	profile := model.RawProfile{
		RawListing:  listing,
		Description: strings.TrimSpace(doc.Find(".description").First().Text()),
		Photos:      []string{},
		ServiceMode: model.ServiceIncall,
	}

	seen := make(map[string]struct{})
	doc.Find(".gallery img").Each(func(_ int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return
		}
		abs := absoluteURL(src)
		if _, dup := seen[abs]; dup {
			return
		}
		seen[abs] = struct{}{}
		profile.Photos = append(profile.Photos, abs)
	})

	profile.PriceMin = util.FirstCurrencyAmount(doc.Find(".price").First().Text())
	if profile.PriceMin == nil {
		profile.PriceMin = util.FirstCurrencyAmount(profile.Description)
	}

	profile.Contacts.Phone = strings.TrimSpace(doc.Find(".phone a").First().Text())
	return profile, nil
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

func lastPathSegment(s string) string {
	s = strings.TrimRight(s, "/")
	if i := strings.LastIndex(s, "/"); i >= 0 {
		return s[i+1:]
	}
	return s
}
