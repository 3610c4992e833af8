package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/facility-watch/detention-cli/internal/config"
	"github.com/facility-watch/detention-cli/internal/enrich"
	"github.com/facility-watch/detention-cli/internal/export"
	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
	"github.com/facility-watch/detention-cli/internal/reconcile"
	"github.com/facility-watch/detention-cli/internal/sources"
	"github.com/facility-watch/detention-cli/internal/store"
)

// Usage errors. These abort before any source is contacted.
var (
	errModeConflict = eris.New("--scrape and --load-existing cannot be used together")
	errNoMode       = eris.New("one of --scrape or --load-existing is required")
	errNoRecords    = eris.New("--enrich needs facility records, but none were loaded")
	errNoExisting   = eris.New("--load-existing needs --existing-file or a store with a previous run")
)

var (
	runScrape       bool
	runLoadExisting bool
	runExistingFile string
	runEnrich       bool
	runFileType     string
	runWorkers      int
	runOutput       string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, reconcile, optionally enrich, and export facility records",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		format, err := validateRunFlags(runScrape, runLoadExisting, runFileType)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("workers") {
			cfg.Enrich.Workers = runWorkers
		}
		if err := cfg.Validate(config.ModeRun); err != nil {
			return err
		}

		st, err := initStore(ctx)
		switch {
		case errors.Is(err, store.ErrDisabled):
			st = nil
		case err != nil:
			return err
		default:
			defer st.Close() //nolint:errcheck
		}

		f := newFetcher(cfg.Fetch)

		var snap *model.Snapshot
		mode := model.RunModeScrape
		if runScrape {
			snap, err = scrape(ctx, f)
		} else {
			mode = model.RunModeLoadExisting
			snap, err = loadExisting(ctx, st, runExistingFile)
		}
		if err != nil {
			return err
		}

		if runEnrich {
			if len(snap.Facilities) == 0 {
				return errNoRecords
			}
			var stats enrich.Stats
			snap, stats = enrich.NewAnnotator(f, enrichConfig(cfg.Enrich)).Enrich(ctx, snap)
			zap.L().Info("enrichment complete",
				zap.Int("enriched", stats.Enriched),
				zap.Int("skipped", stats.Skipped),
				zap.Int("failed", stats.Failed),
			)
		}

		path, err := export.Write(snap, format, outputBase(runOutput, runEnrich), export.Options{Debug: debug})
		if err != nil {
			return eris.Wrap(err, "export")
		}
		if err := export.Summarize(snap).Print(os.Stdout); err != nil {
			return eris.Wrap(err, "print summary")
		}

		if st != nil {
			run, err := st.SaveSnapshot(ctx, snap, store.SaveOptions{Mode: mode, Enriched: runEnrich})
			if err != nil {
				zap.L().Warn("failed to record run", zap.Error(err))
			} else {
				zap.L().Info("run recorded", zap.String("run_id", run.ID), zap.String("output", path))
			}
		}
		return nil
	},
}

func init() {
	runCmd.Flags().BoolVar(&runScrape, "scrape", false, "collect and reconcile records from every source")
	runCmd.Flags().BoolVar(&runLoadExisting, "load-existing", false, "reuse records from a previous run instead of scraping")
	runCmd.Flags().StringVar(&runExistingFile, "existing-file", "", "JSON export to load with --load-existing (default: latest stored run)")
	runCmd.Flags().BoolVar(&runEnrich, "enrich", false, "look up Wikipedia, Wikidata and OpenStreetMap links")
	runCmd.Flags().StringVar(&runFileType, "file-type", "", "export format: csv, json, xlsx, parquet, geojson, shp (default from config)")
	runCmd.Flags().IntVar(&runWorkers, "workers", enrich.DefaultWorkers, "enrichment workers")
	runCmd.Flags().StringVar(&runOutput, "output", "", "output path without extension (default <output.dir>/<output.filename>)")
	rootCmd.AddCommand(runCmd)
}

// validateRunFlags rejects incompatible stage flags and resolves the export
// format, falling back to the configured one.
func validateRunFlags(scrape, loadExisting bool, fileType string) (export.Format, error) {
	if scrape && loadExisting {
		return "", errModeConflict
	}
	if !scrape && !loadExisting {
		return "", errNoMode
	}
	if fileType == "" && cfg != nil {
		fileType = cfg.Output.FileType
	}
	if fileType == "" {
		return export.FormatCSV, nil
	}
	return export.ParseFormat(fileType)
}

// outputBase returns the export path without its extension.
func outputBase(override string, enriched bool) string {
	base := override
	if base == "" {
		base = filepath.Join(cfg.Output.Dir, cfg.Output.Filename)
	}
	if enriched {
		base += "_enriched"
	}
	return base
}

func newFetcher(fc config.FetchConfig) *fetcher.HTTPFetcher {
	rates := make(map[string]rate.Limit, len(fc.HostRates))
	for _, hr := range fc.HostRates {
		rates[hr.Host] = rate.Limit(hr.RPS)
	}
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:    fc.UserAgent,
		Timeout:      time.Duration(fc.TimeoutSecs) * time.Second,
		MaxRetries:   fc.MaxRetries,
		RetryBackoff: time.Duration(fc.RetryBackoffMS) * time.Millisecond,
		HostRates:    rates,
	})
}

func sourcesConfig(c *config.Config) sources.Config {
	return sources.Config{
		ICEBaseURL:      c.Sources.ICEBaseURL,
		SheetPageURL:    c.Sources.SheetPageURL,
		FacilitiesURL:   c.Sources.FacilitiesURL,
		FieldOfficesURL: c.Sources.FieldOfficesURL,
		VeraURL:         c.Sources.VeraURL,
		PageDelay:       c.Sources.PageDelay(),
		DownloadDir:     c.Output.Dir,
		FiscalYear:      c.Sources.SheetFiscalYear,
	}
}

func enrichConfig(ec config.EnrichConfig) enrich.Config {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return enrich.Config{
		Workers:        ec.Workers,
		Timeout:        time.Duration(ec.TimeoutSecs) * time.Second,
		WikipediaURL:   ec.WikipediaURL,
		WikidataURL:    ec.WikidataURL,
		NominatimURL:   ec.NominatimURL,
		OSMURL:         ec.OSMURL,
		WikipediaDelay: ms(ec.WikipediaDelayMS),
		WikidataDelay:  ms(ec.WikidataDelayMS),
		NominatimDelay: ms(ec.NominatimDelayMS),
	}
}

func scrape(ctx context.Context, f fetcher.Fetcher) (*model.Snapshot, error) {
	sc := sourcesConfig(cfg)
	if sc.DownloadDir != "" {
		if err := os.MkdirAll(sc.DownloadDir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "create %s", sc.DownloadDir)
		}
	}

	p := reconcile.New(
		sources.NewSheet(f, sc),
		sources.NewFacilityScraper(f, sc),
		sources.NewVeraLoader(f, sc),
		sources.NewOfficeScraper(f, sc),
	)
	p.FuzzyThreshold = cfg.Reconcile.FuzzyThreshold

	snap, stats, err := p.Run(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile")
	}
	zap.L().Info("reconciliation complete",
		zap.Int("sheet_records", stats.SheetRecords),
		zap.Int("scraped", stats.Scraped),
		zap.Int("vera_exact", stats.VeraExact),
		zap.Int("vera_fuzzy", stats.VeraFuzzy),
		zap.Int("vera_inserted", stats.VeraInserted),
		zap.Int("offices_joined", stats.OfficesJoined),
		zap.Int("offices_missed", stats.OfficesMissed),
	)
	return snap, nil
}

// loadExisting reads a JSON export when path is set, otherwise the latest
// stored run.
func loadExisting(ctx context.Context, st store.Store, path string) (*model.Snapshot, error) {
	if path != "" {
		return reconcile.LoadFile(path)
	}
	if st == nil {
		return nil, errNoExisting
	}
	run, snap, err := st.LatestSnapshot(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return nil, errNoExisting
	}
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded stored run", zap.String("run_id", run.ID), zap.Int("facilities", run.FacilityCount))
	return snap, nil
}
