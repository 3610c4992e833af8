package reconcile

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/catalog"
	"github.com/facility-watch/detention-cli/internal/model"
	"github.com/facility-watch/detention-cli/internal/sources"
)

// loadSheet is stage 1: the workbook seeds the catalog. A row repeating an
// earlier key is merged into it.
func (p *Pipeline) loadSheet(ctx context.Context, c *catalog.Catalog, stats *Stats) error {
	if p.Sheet == nil {
		return eris.Wrap(ErrSheetNotFound, "reconcile: no sheet source configured")
	}
	facilities, _, err := p.Sheet.Load(ctx)
	if err != nil {
		if errors.Is(err, ErrSheetNotFound) {
			return err
		}
		return eris.Wrapf(ErrSheetNotFound, "reconcile: load sheet: %v", err)
	}
	for _, f := range facilities {
		key := identityKey(f)
		if existing, ok := c.Lookup(key); ok {
			zap.L().Debug("reconcile: repeated sheet row", zap.String("key", key))
			catalog.Merge(existing, f)
			stats.SheetMerged++
			continue
		}
		if insert(c, key, f) {
			stats.SheetRecords++
		}
	}
	zap.L().Info("reconcile: sheet loaded",
		zap.Int("facilities", c.Len()), zap.Int("merged_rows", stats.SheetMerged))
	return nil
}

// insert adds f under key and reports whether it is a new record. A key that
// is already taken is merged into instead of dropped.
func insert(c *catalog.Catalog, key string, f *model.Facility) bool {
	err := c.Insert(key, f)
	if err == nil {
		return true
	}
	zap.L().Warn("reconcile: key already taken, merging", zap.String("key", key), zap.Error(err))
	if existing, ok := c.Lookup(key); ok {
		catalog.Merge(existing, f)
	}
	return false
}

// mergeScraped is stage 2. A scraped observation whose key is known is merged
// into the existing record, and its address wins because the locator pages
// are kept more current than the workbook.
func (p *Pipeline) mergeScraped(ctx context.Context, c *catalog.Catalog, stats *Stats) {
	if p.Facilities == nil {
		return
	}
	scraped, err := p.Facilities.Scrape(ctx)
	if err != nil {
		zap.L().Warn("reconcile: facility scrape failed, continuing without it", zap.Error(err))
	}
	for _, f := range scraped {
		stats.Scraped++
		key := identityKey(f)
		existing, ok := c.Lookup(key)
		if !ok {
			if insert(c, key, f) {
				stats.ScrapeInserted++
			}
			continue
		}
		catalog.Merge(existing, f)
		catalog.PreferAddress(existing, f.Address)
		stats.ScrapeMerged++
	}
	zap.L().Info("reconcile: facility pages merged",
		zap.Int("scraped", stats.Scraped),
		zap.Int("merged", stats.ScrapeMerged),
		zap.Int("inserted", stats.ScrapeInserted),
	)
}

// matchVera is stage 3: exact name, state and city first, then the fuzzy
// name scan, then a new record.
func (p *Pipeline) matchVera(ctx context.Context, c *catalog.Catalog, stats *Stats) {
	if p.Vera == nil {
		return
	}
	rows, err := p.Vera.Load(ctx)
	if err != nil {
		zap.L().Warn("reconcile: vera facilities unavailable, continuing without them", zap.Error(err))
		return
	}
	url := p.Vera.URL()
	for _, row := range rows {
		key, ok := c.FindExact(row.Name, row.State, row.City)
		if ok {
			stats.VeraExact++
		} else if k, score, found := c.FindFuzzy(row.Name, row.State, row.City, p.threshold()); found {
			zap.L().Debug("reconcile: fuzzy vera match",
				zap.String("name", row.Name), zap.String("key", k), zap.Int("score", score))
			key, ok = k, true
			stats.VeraFuzzy++
		}

		if ok {
			existing, _ := c.Lookup(key)
			catalog.Merge(existing, veraMatch(row, url))
			continue
		}

		f := veraFacility(row, url)
		key = f.AddressStr
		if existing, dup := c.Lookup(key); dup {
			catalog.Merge(existing, f)
			continue
		}
		if insert(c, key, f) {
			stats.VeraInserted++
		}
	}
	zap.L().Info("reconcile: vera facilities matched",
		zap.Int("rows", len(rows)),
		zap.Int("exact", stats.VeraExact),
		zap.Int("fuzzy", stats.VeraFuzzy),
		zap.Int("inserted", stats.VeraInserted),
	)
}

// veraMatch carries the fields a Vera row adds to an existing record.
func veraMatch(row sources.VeraRow, url string) *model.Facility {
	return &model.Facility{
		VeraID:       row.Code,
		FacilityType: model.FacilityType{Group: row.TypeGrouped},
		OSM:          model.OSM{Latitude: row.Latitude, Longitude: row.Longitude},
		SourceURLs:   []string{url},
	}
}

func veraFacility(row sources.VeraRow, url string) *model.Facility {
	f := &model.Facility{
		Name: row.Name,
		Address: model.Address{
			Locality:           row.City,
			AdministrativeArea: row.State,
			Country:            "United States",
		},
		FacilityType: model.NewFacilityType(row.TypeDetailed),
		VeraID:       row.Code,
		OSM:          model.OSM{Latitude: row.Latitude, Longitude: row.Longitude},
		SourceURLs:   []string{url},
	}
	f.FacilityType.Group = row.TypeGrouped
	f.AddressStr = VeraKey(row)
	return f
}

// VeraKey is the key of a facility known only from the Vera CSV.
func VeraKey(row sources.VeraRow) string {
	return row.Name + catalog.KeySeparator + row.City + catalog.KeySeparator +
		row.State + catalog.KeySeparator + "United States"
}

// insertCustom is stage 4: curated records overwrite whatever is stored under
// their key.
func (p *Pipeline) insertCustom(c *catalog.Catalog, stats *Stats) {
	load := p.Custom
	if load == nil {
		load = sources.CustomFacilities
	}
	custom, err := load()
	if err != nil {
		zap.L().Warn("reconcile: custom facilities unavailable", zap.Error(err))
		return
	}
	for _, cf := range custom {
		c.Put(cf.Key, cf.Facility)
		stats.Custom++
	}
	zap.L().Info("reconcile: custom facilities inserted", zap.Int("facilities", stats.Custom))
}

// joinOffices is stage 5: attach the scraped field office by the office name
// seen on the facility page, else by the workbook's AOR code.
func (p *Pipeline) joinOffices(ctx context.Context, c *catalog.Catalog, stats *Stats) {
	if p.Offices == nil {
		return
	}
	offices, err := p.Offices.Scrape(ctx)
	if err != nil {
		zap.L().Warn("reconcile: field office scrape failed", zap.Error(err))
	}
	if len(offices) == 0 {
		zap.L().Warn("reconcile: no field offices to join")
		return
	}

	c.Each(func(key string, f *model.Facility) {
		if office, ok := offices[sources.OfficeKey(f.FieldOffice.FieldOffice)]; ok && f.FieldOffice.FieldOffice != "" {
			f.FieldOffice = cloneOffice(office)
			stats.OfficesJoined++
			return
		}
		if name, ok := sources.AOROffice(f.FieldOffice.ID); ok {
			if office, ok := offices[sources.OfficeKey(name)]; ok {
				f.FieldOffice = cloneOffice(office)
				stats.OfficesByAOR++
				return
			}
		}
		zap.L().Debug("reconcile: no field office for facility",
			zap.String("key", key),
			zap.String("field_office", f.FieldOffice.FieldOffice),
			zap.String("aor", f.FieldOffice.ID),
		)
		stats.OfficesMissed++
	})
	zap.L().Info("reconcile: field offices joined",
		zap.Int("offices", len(offices)),
		zap.Int("by_name", stats.OfficesJoined),
		zap.Int("by_aor", stats.OfficesByAOR),
		zap.Int("missed", stats.OfficesMissed),
	)
}

// cloneOffice copies the slices so facilities never share backing arrays.
func cloneOffice(o model.FieldOffice) model.FieldOffice {
	o.SourceURLs = append([]string(nil), o.SourceURLs...)
	o.Address.OtherStreets = append([]string(nil), o.Address.OtherStreets...)
	o.Address.OtherLocalities = append([]string(nil), o.Address.OtherLocalities...)
	o.Address.OtherPostalCodes = append([]string(nil), o.Address.OtherPostalCodes...)
	return o
}

func identityKey(f *model.Facility) string {
	if f.AddressStr != "" {
		return f.AddressStr
	}
	return catalog.BuildKey(f)
}
