package crawler

import (
	"fmt"
	"strings"

	"github.com/tahles/directory-crawler/pkg/model"
)

// CrawlSection is one crawlable slice of a source site: a listing page URL,
// an optional catalog category the section maps onto, and a label for logs.
// Sections are static per adapter and read-only during a crawl.
type CrawlSection struct {
	URL          string
	CategorySlug string
	Label        string
}

// SourceAdapter abstracts everything site-specific: identity, section
// configuration, request headers, and the two pure parse functions. The
// orchestrator only ever talks to this interface; new sources are added by
// implementing it, never by touching the crawl loop.
type SourceAdapter interface {
	Source() string
	BaseURL() string
	Sections() []CrawlSection

	// Headers returns the fixed identification headers (user agent,
	// accept-language) this source expects from a browser session.
	Headers() map[string]string

	// ParseListing extracts stub records from a listing page. A page with no
	// matching listing nodes yields an empty slice, not an error; that is the
	// pagination-termination signal.
	ParseListing(html string) ([]model.RawListing, error)

	// ParseProfile extracts the full profile from a detail page. Missing
	// markup degrades to zero values rather than failing.
	ParseProfile(html string, listing model.RawListing) (model.RawProfile, error)
}

// ListingPageURL builds the URL for the nth page of a section. Page 1 is the
// section URL itself; deeper pages follow the /page/N/ convention the sources
// share.
func ListingPageURL(section CrawlSection, page int) string {
	if page <= 1 {
		return section.URL
	}
	return fmt.Sprintf("%s/page/%d/", strings.TrimRight(section.URL, "/"), page)
}
