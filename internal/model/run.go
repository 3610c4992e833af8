package model

import "time"

// RunMode describes how a run produced its snapshot.
type RunMode string

const (
	RunModeScrape       RunMode = "scrape"
	RunModeLoadExisting RunMode = "load_existing"
)

// Run is one stored pipeline execution.
type Run struct {
	ID            string    `json:"id"`
	Mode          RunMode   `json:"mode"`
	Enriched      bool      `json:"enriched"`
	FacilityCount int       `json:"facility_count"`
	ScrapedDate   time.Time `json:"scraped_date"`
	ScrapeRuntime float64   `json:"scrape_runtime"`
	EnrichRuntime float64   `json:"enrich_runtime"`
	CreatedAt     time.Time `json:"created_at"`
}
