// Package sources turns the published facility data into model.Facility
// observations: the ICE detention statistics workbook, the ICE facility
// locator pages, the ICE field office pages, the Vera Institute facility
// CSV, and a small curated list of facilities missing from all of them.
package sources

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/fetcher"
)

// Default source locations.
const (
	ICEBaseURL        = "https://www.ice.gov"
	SheetPageURL      = "https://www.ice.gov/detain/detention-management"
	FacilitiesURL     = "https://www.ice.gov/detention-facilities"
	FieldOfficesURL   = "https://www.ice.gov/contact/field-offices"
	VeraFacilitiesURL = "https://raw.githubusercontent.com/vera-institute/ice-detention-trends/refs/heads/main/metadata/facilities.csv"
)

// epochTimestamp stands in for a page update time that could not be read.
const epochTimestamp = "1970-01-01T00:00:00Z"

// Config locates the sources and paces requests to them.
type Config struct {
	ICEBaseURL      string
	SheetPageURL    string
	FacilitiesURL   string
	FieldOfficesURL string
	VeraURL         string
	// PageDelay is slept after every listing page.
	PageDelay time.Duration
	// DownloadDir receives the downloaded workbook.
	DownloadDir string
	// FiscalYear pins the workbook edition (two digits). Zero selects the
	// newest edition linked.
	FiscalYear int
	// Now is used to pick the fiscal year; defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns the public ice.gov and GitHub locations.
func DefaultConfig() Config {
	return Config{
		ICEBaseURL:      ICEBaseURL,
		SheetPageURL:    SheetPageURL,
		FacilitiesURL:   FacilitiesURL,
		FieldOfficesURL: FieldOfficesURL,
		VeraURL:         VeraFacilitiesURL,
		PageDelay:       time.Second,
		DownloadDir:     ".",
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.ICEBaseURL == "" {
		c.ICEBaseURL = def.ICEBaseURL
	}
	if c.SheetPageURL == "" {
		c.SheetPageURL = def.SheetPageURL
	}
	if c.FacilitiesURL == "" {
		c.FacilitiesURL = def.FacilitiesURL
	}
	if c.FieldOfficesURL == "" {
		c.FieldOfficesURL = def.FieldOfficesURL
	}
	if c.VeraURL == "" {
		c.VeraURL = def.VeraURL
	}
	if c.DownloadDir == "" {
		c.DownloadDir = def.DownloadDir
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Containers and item blocks of the ice.gov Drupal listings, most specific
// first.
var (
	contentSelectors = []string{
		"div.view-content",
		"div.views-rows",
		"ul.views-rows",
		"div.region-content",
		"main",
		"div.content",
	}
	itemSelectors = []string{
		"li.grid",
		"div.views-row",
		"li.views-row",
		"div.facility-item",
		"article",
		"div.node",
	}
)

// listingContent returns the first matching content container, or the whole
// document.
func listingContent(doc *goquery.Document) *goquery.Selection {
	for _, sel := range contentSelectors {
		if found := doc.Find(sel).First(); found.Length() > 0 {
			return found
		}
	}
	zap.L().Warn("sources: no content container, searching entire page")
	return doc.Selection
}

// listingItems returns the item blocks within content, or an empty
// selection.
func listingItems(content *goquery.Selection) *goquery.Selection {
	for _, sel := range itemSelectors {
		if found := content.Find(sel); found.Length() > 0 {
			return found
		}
	}
	return content.Find("nonexistent-listing-item")
}

// listingPages discovers the paginated listing URLs linked from base. Pager
// links carry ?page= and the Next/Last shortcuts are skipped.
func listingPages(ctx context.Context, f fetcher.Fetcher, base string) ([]string, error) {
	doc, err := f.Document(ctx, base)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: fetch listing %s", base)
	}
	var pages []string
	seen := make(map[string]bool)
	doc.Find(`a[href*="?page="]`).Each(func(_ int, a *goquery.Selection) {
		label := a.AttrOr("aria-label", "")
		if strings.Contains(label, "Next") || strings.Contains(label, "Last") {
			return
		}
		page := base + a.AttrOr("href", "") + "&exposed_form_display=1"
		if !seen[page] {
			seen[page] = true
			pages = append(pages, page)
		}
	})
	if len(pages) == 0 {
		return nil, eris.Errorf("sources: %s contains no pager links", base)
	}
	return pages, nil
}

// text returns the trimmed text of the first element matching sel within s.
func text(s *goquery.Selection, sel string) string {
	return strings.TrimSpace(s.Find(sel).First().Text())
}
