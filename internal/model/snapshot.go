package model

import (
	"sort"
	"strings"
	"time"
)

// Snapshot is the output of one pipeline run: every canonical facility keyed
// by identity key, plus timing.
type Snapshot struct {
	ScrapedDate   time.Time            `json:"scraped_date"`
	ScrapeRuntime float64              `json:"scrape_runtime"`
	EnrichRuntime float64              `json:"enrich_runtime"`
	Facilities    map[string]*Facility `json:"facilities"`
}

// NewSnapshot returns an empty snapshot stamped with the current UTC time.
func NewSnapshot() *Snapshot {
	return &Snapshot{
		ScrapedDate: time.Now().UTC(),
		Facilities:  make(map[string]*Facility),
	}
}

// Keys returns the facility keys in sorted order.
func (s *Snapshot) Keys() []string {
	keys := make([]string, 0, len(s.Facilities))
	for k := range s.Facilities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
