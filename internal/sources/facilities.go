package sources

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/catalog"
	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
	"github.com/facility-watch/detention-cli/internal/normalize"
	"github.com/facility-watch/detention-cli/internal/resilience"
)

// FacilityScraper reads the ice.gov detention facility locator.
type FacilityScraper struct {
	fetch fetcher.Fetcher
	cfg   Config
}

// NewFacilityScraper creates a FacilityScraper.
func NewFacilityScraper(f fetcher.Fetcher, cfg Config) *FacilityScraper {
	return &FacilityScraper{fetch: f, cfg: cfg.withDefaults()}
}

// Scrape walks every listing page and returns one normalized observation per
// facility block. A page that fails is logged and contributes nothing; only
// a failure to discover the pages at all is returned.
func (s *FacilityScraper) Scrape(ctx context.Context) ([]*model.Facility, error) {
	pages, err := listingPages(ctx, s.fetch, s.cfg.FacilitiesURL)
	if err != nil {
		return nil, err
	}
	zap.L().Info("sources: scraping facility pages", zap.Int("pages", len(pages)))

	var out []*model.Facility
	for i, page := range pages {
		found, err := s.scrapePage(ctx, page)
		if err != nil {
			zap.L().Warn("sources: facility page failed",
				zap.String("url", page), zap.Int("page", i+1), zap.Error(err))
		} else {
			zap.L().Debug("sources: facility page scraped",
				zap.String("url", page), zap.Int("facilities", len(found)))
			out = append(out, found...)
		}
		if err := resilience.Sleep(ctx, s.cfg.PageDelay); err != nil {
			return out, eris.Wrap(err, "sources: facility scrape cancelled")
		}
	}
	zap.L().Info("sources: facility pages scraped", zap.Int("facilities", len(out)))
	return out, nil
}

func (s *FacilityScraper) scrapePage(ctx context.Context, page string) ([]*model.Facility, error) {
	doc, err := s.fetch.Document(ctx, page)
	if err != nil {
		return nil, eris.Wrapf(err, "sources: fetch %s", page)
	}

	content := listingContent(doc)
	items := listingItems(content)

	var out []*model.Facility
	if items.Length() == 0 {
		zap.L().Warn("sources: no facility blocks, falling back to text patterns", zap.String("url", page))
		for _, f := range facilitiesFromText(content.Text()) {
			f.AddSourceURL(page)
			out = append(out, finishObservation(f))
		}
		return out, nil
	}

	items.Each(func(_ int, item *goquery.Selection) {
		f := s.extract(ctx, item, page)
		if f.Name == "" {
			return
		}
		out = append(out, finishObservation(f))
	})
	return out, nil
}

func (s *FacilityScraper) extract(ctx context.Context, item *goquery.Selection, page string) *model.Facility {
	f := &model.Facility{
		Name: text(item, ".views-field-title"),
		Address: model.Address{
			Street:             text(item, ".address-line1"),
			Locality:           text(item, ".locality"),
			AdministrativeArea: text(item, ".administrative-area"),
			PostalCode:         text(item, ".postal-code"),
			Country:            text(item, ".country"),
		},
		Phone: text(item, ".ct-addr"),
	}
	// "St. Paul Field Office" is listed elsewhere as "St Paul Field Office"
	f.FieldOffice.FieldOffice = strings.Trim(text(item, ".views-field-field-field-office-name"), ".")
	f.AddSourceURL(page)

	if f.Name == "" || f.FieldOffice.FieldOffice == "" {
		if found := facilitiesFromText(item.Text()); len(found) > 0 {
			if f.Name == "" {
				f.Name = found[0].Name
			}
			if f.FieldOffice.FieldOffice == "" {
				f.FieldOffice.FieldOffice = found[0].FieldOffice.FieldOffice
			}
		}
	}

	if src, ok := item.Find("img").First().Attr("src"); ok {
		f.ImageURL = s.absolute(src)
	}
	if href, ok := item.Find("a").First().Attr("href"); ok {
		detail := s.absolute(href)
		f.AddSourceURL(detail)
		f.PageUpdatedDate = s.pageUpdated(ctx, detail)
	}
	return f
}

func (s *FacilityScraper) absolute(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	return s.cfg.ICEBaseURL + ref
}

// pageUpdated reads the first <time datetime> of a facility detail page.
// Anything unreadable yields the epoch timestamp.
func (s *FacilityScraper) pageUpdated(ctx context.Context, url string) string {
	doc, err := s.fetch.Document(ctx, url)
	if err != nil {
		zap.L().Warn("sources: facility detail page failed", zap.String("url", url), zap.Error(err))
		return epochTimestamp
	}
	raw, ok := doc.Find("time[datetime]").First().Attr("datetime")
	if !ok {
		zap.L().Warn("sources: no update time on facility page", zap.String("url", url))
		return epochTimestamp
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(raw))
	if err != nil {
		zap.L().Warn("sources: unreadable update time",
			zap.String("url", url), zap.String("datetime", raw), zap.Error(err))
		return epochTimestamp
	}
	return t.Format(time.RFC3339)
}

// finishObservation applies the field repairs and sets the identity key.
func finishObservation(f *model.Facility) *model.Facility {
	normalize.Facility(f)
	f.AddressStr = catalog.BuildKey(f)
	return f
}

var facilityTextRe = regexp.MustCompile(`(?m)^[\s-]*([^\n|]+?(?:\|[^\n|]+?)?)\s+[-|]\s+((?:St\. |San )?[A-Z][A-Za-z.]*(?: [A-Z][A-Za-z.]*)* Field Office)\s*$`)

// facilitiesFromText recovers name and field office pairs from listing text
// when no structural selector matched, e.g. "Adelanto ICE Processing Center -
// Los Angeles Field Office".
func facilitiesFromText(body string) []*model.Facility {
	var out []*model.Facility
	for _, m := range facilityTextRe.FindAllStringSubmatch(body, -1) {
		name := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(m[1]), "-|"))
		if name == "" {
			continue
		}
		f := &model.Facility{Name: name}
		f.FieldOffice.FieldOffice = strings.Trim(m[2], ".")
		out = append(out, f)
	}
	return out
}
