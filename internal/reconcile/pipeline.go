// Package reconcile builds the canonical facility catalog from every source
// in a fixed stage order: workbook, facility pages, Vera CSV, curated
// overrides, then field offices. Later stages rely on the repairs and keys
// established by earlier ones, so the order is not configurable.
package reconcile

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/catalog"
	"github.com/facility-watch/detention-cli/internal/model"
	"github.com/facility-watch/detention-cli/internal/sources"
)

// ErrSheetNotFound is returned when the detention statistics workbook cannot
// be found or read. It is the only fatal source error.
var ErrSheetNotFound = sources.ErrSheetNotFound

// SheetSource yields the workbook observations and the workbook URL.
type SheetSource interface {
	Load(ctx context.Context) ([]*model.Facility, string, error)
}

// PageSource yields observations scraped from the facility locator.
type PageSource interface {
	Scrape(ctx context.Context) ([]*model.Facility, error)
}

// VeraSource yields the Vera Institute facility rows.
type VeraSource interface {
	Load(ctx context.Context) ([]sources.VeraRow, error)
	URL() string
}

// OfficeSource yields field offices keyed by sources.OfficeKey.
type OfficeSource interface {
	Scrape(ctx context.Context) (map[string]model.FieldOffice, error)
}

// Pipeline runs the five reconciliation stages.
type Pipeline struct {
	Sheet      SheetSource
	Facilities PageSource
	Vera       VeraSource
	Offices    OfficeSource
	// Custom returns the curated overrides; defaults to
	// sources.CustomFacilities.
	Custom func() ([]sources.CustomFacility, error)
	// FuzzyThreshold is the minimum partial ratio for a Vera name match.
	FuzzyThreshold int

	now func() time.Time
}

// New creates a Pipeline over the given sources.
func New(sheet SheetSource, pages PageSource, vera VeraSource, offices OfficeSource) *Pipeline {
	return &Pipeline{
		Sheet:          sheet,
		Facilities:     pages,
		Vera:           vera,
		Offices:        offices,
		Custom:         sources.CustomFacilities,
		FuzzyThreshold: catalog.DefaultFuzzyThreshold,
		now:            time.Now,
	}
}

// Stats counts what each stage did.
type Stats struct {
	SheetRecords   int
	SheetMerged    int
	Scraped        int
	ScrapeMerged   int
	ScrapeInserted int
	VeraExact      int
	VeraFuzzy      int
	VeraInserted   int
	Custom         int
	OfficesJoined  int
	OfficesByAOR   int
	OfficesMissed  int
}

// Run executes every stage and returns the final snapshot. Only a missing
// workbook aborts the run; every other source failure is logged and that
// source contributes nothing.
func (p *Pipeline) Run(ctx context.Context) (*model.Snapshot, Stats, error) {
	start := p.clock()
	var stats Stats
	c := catalog.New()

	if err := p.loadSheet(ctx, c, &stats); err != nil {
		return nil, stats, err
	}
	p.mergeScraped(ctx, c, &stats)
	p.matchVera(ctx, c, &stats)
	p.insertCustom(c, &stats)
	p.joinOffices(ctx, c, &stats)

	snap := c.Snapshot()
	snap.ScrapedDate = start.UTC()
	snap.ScrapeRuntime = p.clock().Sub(start).Seconds()
	zap.L().Info("reconcile: pipeline complete",
		zap.Int("facilities", c.Len()),
		zap.Float64("runtime_seconds", snap.ScrapeRuntime),
	)
	return snap, stats, nil
}

func (p *Pipeline) clock() time.Time {
	if p.now == nil {
		return time.Now()
	}
	return p.now()
}

func (p *Pipeline) threshold() int {
	if p.FuzzyThreshold <= 0 {
		return catalog.DefaultFuzzyThreshold
	}
	return p.FuzzyThreshold
}
