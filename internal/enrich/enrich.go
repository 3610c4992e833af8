// Package enrich annotates canonical facilities with Wikipedia, Wikidata and
// OpenStreetMap links. Each lookup records every query it tried so a miss
// can be audited from the output alone.
package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
	"github.com/facility-watch/detention-cli/internal/resilience"
)

// Default lookup endpoints and pacing.
const (
	DefaultWikipediaURL  = "https://en.wikipedia.org"
	DefaultWikidataURL   = "https://www.wikidata.org"
	DefaultNominatimURL  = "https://nominatim.openstreetmap.org"
	DefaultOSMURL        = "https://www.openstreetmap.org"
	DefaultWorkers       = 3
	DefaultTimeout       = 15 * time.Second
	DefaultWikipediaWait = 500 * time.Millisecond
	DefaultWikidataWait  = 500 * time.Millisecond
	DefaultNominatimWait = time.Second
)

// veraOnlySource marks records known only from the Vera CSV; they are not
// looked up.
const veraOnlySource = "vera-institute/ice-detention-trends"

// Config controls the annotator.
type Config struct {
	Workers int
	// Timeout bounds each external call.
	Timeout time.Duration

	WikipediaURL string
	WikidataURL  string
	NominatimURL string
	OSMURL       string

	// Delays are slept after every call to the source, on each worker.
	WikipediaDelay time.Duration
	WikidataDelay  time.Duration
	NominatimDelay time.Duration
}

// DefaultConfig returns the public endpoints with their customary delays.
func DefaultConfig() Config {
	return Config{
		Workers:        DefaultWorkers,
		Timeout:        DefaultTimeout,
		WikipediaURL:   DefaultWikipediaURL,
		WikidataURL:    DefaultWikidataURL,
		NominatimURL:   DefaultNominatimURL,
		OSMURL:         DefaultOSMURL,
		WikipediaDelay: DefaultWikipediaWait,
		WikidataDelay:  DefaultWikidataWait,
		NominatimDelay: DefaultNominatimWait,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers <= 0 {
		c.Workers = def.Workers
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	if c.WikipediaURL == "" {
		c.WikipediaURL = def.WikipediaURL
	}
	if c.WikidataURL == "" {
		c.WikidataURL = def.WikidataURL
	}
	if c.NominatimURL == "" {
		c.NominatimURL = def.NominatimURL
	}
	if c.OSMURL == "" {
		c.OSMURL = def.OSMURL
	}
	return c
}

// Stats counts annotation outcomes.
type Stats struct {
	Enriched      int
	Skipped       int
	Failed        int
	WikipediaHits int
	WikidataHits  int
	OSMHits       int
}

// Annotator runs the three lookups for every facility on a worker pool.
type Annotator struct {
	cfg       Config
	wikipedia *Wikipedia
	wikidata  *Wikidata
	osm       *OpenStreetMap
}

// NewAnnotator creates an Annotator using f for every request.
func NewAnnotator(f fetcher.Fetcher, cfg Config) *Annotator {
	cfg = cfg.withDefaults()
	return &Annotator{
		cfg:       cfg,
		wikipedia: &Wikipedia{fetch: f, baseURL: cfg.WikipediaURL, call: newCaller(cfg.Timeout, cfg.WikipediaDelay)},
		wikidata:  &Wikidata{fetch: f, baseURL: cfg.WikidataURL, call: newCaller(cfg.Timeout, cfg.WikidataDelay)},
		osm: &OpenStreetMap{
			fetch:        f,
			nominatimURL: cfg.NominatimURL,
			osmURL:       cfg.OSMURL,
			call:         newCaller(cfg.Timeout, cfg.NominatimDelay),
		},
	}
}

// Enrich annotates a copy of every facility in snap. One facility failing,
// even by panicking, never stops the others.
func (a *Annotator) Enrich(ctx context.Context, snap *model.Snapshot) (*model.Snapshot, Stats) {
	start := time.Now()
	out := &model.Snapshot{
		ScrapedDate:   snap.ScrapedDate,
		ScrapeRuntime: snap.ScrapeRuntime,
		Facilities:    make(map[string]*model.Facility, len(snap.Facilities)),
	}
	keys := snap.Keys()
	zap.L().Info("enrich: starting", zap.Int("facilities", len(keys)), zap.Int("workers", a.cfg.Workers))

	var (
		mu    sync.Mutex
		stats Stats
		done  int
	)
	g := new(errgroup.Group)
	g.SetLimit(a.cfg.Workers)

	for _, key := range keys {
		orig := snap.Facilities[key]
		g.Go(func() error {
			enriched, outcome := a.annotateSafely(ctx, orig)

			mu.Lock()
			defer mu.Unlock()
			out.Facilities[key] = enriched
			done++
			stats.add(outcome)
			zap.L().Info("enrich: finished facility",
				zap.String("name", enriched.Name),
				zap.Int("completed", done),
				zap.Int("total", len(keys)),
			)
			return nil
		})
	}
	_ = g.Wait()

	out.EnrichRuntime = time.Since(start).Seconds()
	zap.L().Info("enrich: complete",
		zap.Float64("runtime_seconds", out.EnrichRuntime),
		zap.Int("skipped", stats.Skipped),
		zap.Int("failed", stats.Failed),
		zap.Int("wikipedia", stats.WikipediaHits),
		zap.Int("wikidata", stats.WikidataHits),
		zap.Int("osm", stats.OSMHits),
	)
	return out, stats
}

type outcome struct {
	skipped   bool
	failed    bool
	wikipedia bool
	wikidata  bool
	osm       bool
}

func (s *Stats) add(o outcome) {
	switch {
	case o.skipped:
		s.Skipped++
		return
	case o.failed:
		s.Failed++
		return
	}
	s.Enriched++
	if o.wikipedia {
		s.WikipediaHits++
	}
	if o.wikidata {
		s.WikidataHits++
	}
	if o.osm {
		s.OSMHits++
	}
}

// annotateSafely turns a panic in any lookup into a recorded failure on the
// facility's traces.
func (a *Annotator) annotateSafely(ctx context.Context, f *model.Facility) (enriched *model.Facility, o outcome) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("enrich: lookup panicked", zap.String("name", f.Name), zap.Any("panic", r))
			cp := *f
			marker := fmt.Sprintf("(Failed -> panic: %v)", r)
			cp.Wikipedia.SearchQuery = append(append([]string(nil), f.Wikipedia.SearchQuery...), marker)
			enriched, o = &cp, outcome{failed: true}
		}
	}()
	return a.annotate(ctx, f)
}

func (a *Annotator) annotate(ctx context.Context, f *model.Facility) (*model.Facility, outcome) {
	if f.OnlySourcedFrom(veraOnlySource) {
		zap.L().Debug("enrich: skipping facility known only from vera", zap.String("name", f.Name))
		return f, outcome{skipped: true}
	}
	cp := *f

	cp.Wikipedia = a.wikipedia.Search(ctx, f.Name)
	cp.Wikidata = a.wikidata.Search(ctx, f.Name)
	loc := a.osm.Search(ctx, f.Name, f.Address)

	cp.OSM.SearchQuery = loc.Trace
	if loc.Found {
		cp.OSM.Latitude = loc.Latitude
		cp.OSM.Longitude = loc.Longitude
		cp.OSM.URL = loc.URL
	}

	zap.L().Debug("enrich: query traces",
		zap.String("name", f.Name),
		zap.Strings("wikipedia", cp.Wikipedia.SearchQuery),
		zap.Strings("wikidata", cp.Wikidata.SearchQuery),
		zap.Strings("osm", cp.OSM.SearchQuery),
	)
	return &cp, outcome{
		wikipedia: cp.Wikipedia.PageURL != "",
		wikidata:  cp.Wikidata.PageURL != "",
		osm:       loc.Found,
	}
}

// caller bounds one external call by a timeout and then sleeps the source's
// delay, successful or not.
type caller func(ctx context.Context, fn func(ctx context.Context) error) error

func newCaller(timeout, delay time.Duration) caller {
	pacer := resilience.Pacer{Delay: delay}
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return pacer.After(ctx, func() error {
			callCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			return fn(callCtx)
		})
	}
}

func failed(err error) string {
	return fmt.Sprintf("(Failed -> %v)", err)
}
