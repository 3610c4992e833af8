package sources

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
	"github.com/facility-watch/detention-cli/internal/resilience"
)

// aorOffices maps area-of-responsibility codes, as used in the detention
// statistics workbook, to field office names.
var aorOffices = map[string]string{
	"ATL": "Atlanta Field Office",
	"BAL": "Baltimore Field Office",
	"BOS": "Boston Field Office",
	"BUF": "Buffalo Field Office",
	"CHI": "Chicago Field Office",
	"DAL": "Dallas Field Office",
	"DEN": "Denver Field Office",
	"DET": "Detroit Field Office",
	"ELP": "El Paso Field Office",
	"HLG": "Harlingen Field Office",
	"HOU": "Houston Field Office",
	"LOS": "Los Angeles Field Office",
	"MIA": "Miami Field Office",
	"NEW": "Newark Field Office",
	"NOL": "New Orleans Field Office",
	"NYC": "New York City Field Office",
	"PHI": "Philadelphia Field Office",
	"PHO": "Phoenix Field Office",
	"SEA": "Seattle Field Office",
	"SFR": "San Francisco Field Office",
	"SLC": "Salt Lake City Field Office",
	"SNA": "San Antonio Field Office",
	"SND": "San Diego Field Office",
	"SPM": "St Paul Field Office",
	"WAS": "Washington Field Office",
}

var officeAORs = func() map[string]string {
	m := make(map[string]string, len(aorOffices))
	for code, name := range aorOffices {
		m[OfficeKey(name)] = code
	}
	return m
}()

// AOROffice returns the field office name for an area-of-responsibility code.
func AOROffice(code string) (string, bool) {
	name, ok := aorOffices[strings.ToUpper(strings.TrimSpace(code))]
	return name, ok
}

// AORCode returns the area-of-responsibility code for a field office name.
func AORCode(office string) (string, bool) {
	code, ok := officeAORs[OfficeKey(office)]
	return code, ok
}

// OfficeKey is the join form of a field office name. The facility locator
// writes "St. Paul Field Office" where the office list writes "St Paul".
func OfficeKey(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(strings.ReplaceAll(name, ".", "")), " "))
}

var aorTextRe = regexp.MustCompile(`Area of Responsibility:(.+)\n?Email`)

// OfficeScraper reads the ice.gov field office list.
type OfficeScraper struct {
	fetch fetcher.Fetcher
	cfg   Config
}

// NewOfficeScraper creates an OfficeScraper.
func NewOfficeScraper(f fetcher.Fetcher, cfg Config) *OfficeScraper {
	return &OfficeScraper{fetch: f, cfg: cfg.withDefaults()}
}

// Scrape returns every ERO field office keyed by OfficeKey of its name.
func (s *OfficeScraper) Scrape(ctx context.Context) (map[string]model.FieldOffice, error) {
	pages, err := listingPages(ctx, s.fetch, s.cfg.FieldOfficesURL)
	if err != nil {
		zap.L().Debug("sources: field office list is not paginated", zap.Error(err))
		pages = []string{s.cfg.FieldOfficesURL}
	}

	offices := make(map[string]model.FieldOffice)
	for i, page := range pages {
		doc, err := s.fetch.Document(ctx, page)
		if err != nil {
			zap.L().Warn("sources: field office page failed",
				zap.String("url", page), zap.Int("page", i+1), zap.Error(err))
		} else {
			listingItems(listingContent(doc)).Each(func(_ int, item *goquery.Selection) {
				if office, ok := extractOffice(item, page); ok {
					offices[OfficeKey(office.FieldOffice)] = office
				}
			})
		}
		if err := resilience.Sleep(ctx, s.cfg.PageDelay); err != nil {
			return offices, eris.Wrap(err, "sources: field office scrape cancelled")
		}
	}
	zap.L().Info("sources: field offices scraped", zap.Int("offices", len(offices)))
	return offices, nil
}

// extractOffice reads one listing block. Only ERO locations are field
// offices.
func extractOffice(item *goquery.Selection, page string) (model.FieldOffice, bool) {
	location := text(item, ".views-field-field-field-office-location")
	if !strings.HasSuffix(location, "ERO") {
		return model.FieldOffice{}, false
	}

	o := model.FieldOffice{
		Name:        location,
		FieldOffice: text(item, ".views-field-title"),
		Phone:       text(item, ".ct-addr"),
		SourceURLs:  []string{page},
	}
	o.ID, _ = AORCode(o.FieldOffice)

	o.Address = model.Address{
		Street:             text(item, ".address-line1"),
		Locality:           text(item, ".locality"),
		AdministrativeArea: text(item, ".administrative-area"),
		PostalCode:         text(item, ".postal-code"),
		Country:            text(item, ".country"),
	}
	if line2 := text(item, ".address-line2"); line2 != "" {
		o.Address.Street += " " + line2
	}
	o.AddressStr = o.Address.Street + " " + o.Address.Locality + ", " +
		o.Address.AdministrativeArea + " " + o.Address.PostalCode

	details := item.Find(".views-field-body").First()
	if href, ok := details.Find("a").First().Attr("href"); ok {
		if _, addr, found := strings.Cut(href, ":"); found {
			o.Email = addr
		}
	}
	if m := aorTextRe.FindStringSubmatch(details.Text()); m != nil {
		o.AOR = strings.ReplaceAll(strings.TrimSpace(m[1]), "\u00a0", " ")
	}
	return o, true
}
