package sources

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/catalog"
	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
	"github.com/facility-watch/detention-cli/internal/normalize"
)

// ErrSheetNotFound means the detention statistics workbook could not be
// located, downloaded or read. Nothing useful can be built without it.
var ErrSheetNotFound = eris.New("detention statistics sheet not found")

// SheetColumns is the positional header of the "Facilities FY<yy>" sheet.
// YEAR is replaced by the fiscal year label, e.g. "FY26 ALOS".
var SheetColumns = []string{
	"Name",
	"Address",
	"City",
	"State",
	"Zip",
	"AOR",
	"Type Detailed",
	"Male/Female",
	"YEAR ALOS",
	"Level A",
	"Level B",
	"Level C",
	"Level D",
	"Male Crim",
	"Male Non-Crim",
	"Female Crim",
	"Female Non-Crim",
	"ICE Threat Level 1",
	"ICE Threat Level 2",
	"ICE Threat Level 3",
	"No ICE Threat Level",
	"Mandatory",
	"Guaranteed Minimum",
	"Last Inspection Type",
	"Last Inspection End Date",
	"Last Inspection Standard",
	"Last Final Rating",
}

var requiredSheetColumns = []string{"Name", "Address", "City", "State", "Zip", "AOR", "Type Detailed"}

var (
	sheetLinkRe  = regexp.MustCompile(`^https://www\.ice\.gov/doclib.*xlsx`)
	fiscalYearRe = regexp.MustCompile(`FY(\d{2})`)
	// a phone number tacked onto the end of an address cell
	addressPhoneRe = regexp.MustCompile(`.+(\d{3}\s\d{3}\s\d{4})$`)
)

// Sheet loads the ICE detention statistics workbook.
type Sheet struct {
	fetch fetcher.Fetcher
	cfg   Config
}

// NewSheet creates a Sheet loader.
func NewSheet(f fetcher.Fetcher, cfg Config) *Sheet {
	return &Sheet{fetch: f, cfg: cfg.withDefaults()}
}

// Discover finds the workbook link on the detention management page and the
// fiscal year it covers. The newest edition at or after the current year
// wins; otherwise the first link is used.
func (s *Sheet) Discover(ctx context.Context) (string, int, error) {
	doc, err := s.fetch.Document(ctx, s.cfg.SheetPageURL)
	if err != nil {
		return "", 0, eris.Wrapf(ErrSheetNotFound, "fetch %s: %v", s.cfg.SheetPageURL, err)
	}

	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		if href := a.AttrOr("href", ""); sheetLinkRe.MatchString(href) {
			links = append(links, href)
		}
	})
	if len(links) == 0 {
		return "", 0, eris.Wrapf(ErrSheetNotFound, "no xlsx links on %s", s.cfg.SheetPageURL)
	}

	link := links[0]
	year := s.cfg.Now().Year() % 100
	if s.cfg.FiscalYear > 0 {
		year = s.cfg.FiscalYear
	}
	for _, l := range links {
		m := fiscalYearRe.FindStringSubmatch(l)
		if m == nil {
			continue
		}
		fy, _ := strconv.Atoi(m[1])
		if fy >= year {
			link = l
			year = fy
		}
	}
	return link, year, nil
}

// Load downloads the workbook and returns one observation per usable row,
// along with the workbook URL.
func (s *Sheet) Load(ctx context.Context) ([]*model.Facility, string, error) {
	link, fy, err := s.Discover(ctx)
	if err != nil {
		return nil, "", err
	}
	zap.L().Info("sources: downloading detention statistics", zap.String("url", link), zap.Int("fiscal_year", fy))

	path := filepath.Join(s.cfg.DownloadDir, "detentionstats.xlsx")
	if _, err := s.fetch.DownloadToFile(ctx, link, path); err != nil {
		return nil, link, eris.Wrapf(ErrSheetNotFound, "download %s: %v", link, err)
	}
	facilities, err := ParseSheet(path, fy, link)
	if err != nil {
		return nil, link, eris.Wrapf(ErrSheetNotFound, "parse %s: %v", path, err)
	}
	zap.L().Info("sources: loaded detention statistics", zap.Int("facilities", len(facilities)))
	return facilities, link, nil
}

// SheetColumnsFor returns SheetColumns labelled for a fiscal year.
func SheetColumnsFor(fy int) []string {
	label := fmt.Sprintf("FY%02d", fy)
	cols := make([]string, len(SheetColumns))
	for i, c := range SheetColumns {
		cols[i] = strings.Replace(c, "YEAR", label, 1)
	}
	return cols
}

// ParseSheet reads the "Facilities FY<yy>" sheet of a downloaded workbook.
// Rows missing a required column, and repeated header rows, are skipped.
func ParseSheet(path string, fy int, sheetURL string) ([]*model.Facility, error) {
	sheet, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{
		SheetName: fmt.Sprintf("Facilities FY%02d", fy),
		Columns:   SheetColumnsFor(fy),
	})
	if err != nil {
		return nil, err
	}

	alos := fmt.Sprintf("FY%02d ALOS", fy)
	var out []*model.Facility
	for i, row := range sheet.Rows {
		if !hasRequired(row) {
			zap.L().Debug("sources: skipping incomplete sheet row", zap.Int("row", i))
			continue
		}
		if row["Name"] == "Name" {
			continue
		}
		out = append(out, sheetFacility(row, alos, sheetURL, sheet))
	}
	return out, nil
}

func hasRequired(row fetcher.Record) bool {
	for _, c := range requiredSheetColumns {
		if row[c] == "" {
			return false
		}
	}
	return true
}

func sheetFacility(row fetcher.Record, alosColumn, sheetURL string, sheet *fetcher.Sheet) *model.Facility {
	f := &model.Facility{
		Name: row["Name"],
		Address: model.Address{
			Street:             row["Address"],
			Locality:           row["City"],
			AdministrativeArea: row["State"],
			PostalCode:         integerText(row["Zip"]),
		},
		FacilityType: model.NewFacilityType(row["Type Detailed"]),
		FieldOffice:  model.FieldOffice{ID: row["AOR"]},
	}
	normalize.Facility(f)

	if m := addressPhoneRe.FindStringSubmatch(row["Address"]); m != nil {
		f.Phone = m[1]
		f.RepairedRecord = true
	}

	p := &f.Population
	p.Male.Criminal = number(row["Male Crim"])
	p.Male.NonCriminal = number(row["Male Non-Crim"])
	p.Female.Criminal = number(row["Female Crim"])
	p.Female.NonCriminal = number(row["Female Non-Crim"])
	p.Total = p.Male.Criminal + p.Male.NonCriminal + p.Female.Criminal + p.Female.NonCriminal
	switch sex := row["Male/Female"]; {
	case sex == "":
	case strings.Contains(sex, "/"):
		p.Male.Allowed = true
		p.Female.Allowed = true
	case sex == "Female":
		p.Female.Allowed = true
	default:
		p.Male.Allowed = true
	}
	p.AvgStayLength = decimal(row[alosColumn])
	p.SecurityThreat = model.SecurityThreat{
		Low:        number(row["Level A"]),
		MediumLow:  number(row["Level B"]),
		MediumHigh: number(row["Level C"]),
		High:       number(row["Level D"]),
	}
	p.ICEThreatLevel = model.ThreatLevel{
		Level1: number(row["ICE Threat Level 1"]),
		Level2: number(row["ICE Threat Level 2"]),
		Level3: number(row["ICE Threat Level 3"]),
		None:   number(row["No ICE Threat Level"]),
	}
	p.Housing = model.Housing{
		Mandatory:     number(row["Mandatory"]),
		GuaranteedMin: number(row["Guaranteed Minimum"]),
	}

	f.Inspection = model.Inspection{
		LastType:         row["Last Inspection Type"],
		LastTypeExpanded: model.ExpandInspectionType(row["Last Inspection Type"]),
		LastDate:         inspectionDate(row["Last Inspection End Date"], sheet),
		LastStandard:     row["Last Inspection Standard"],
		LastRating:       row["Last Final Rating"],
	}

	f.AddSourceURL(sheetURL)
	f.AddressStr = catalog.BuildKey(f)
	return f
}

// integerText drops a trailing ".0" from numeric cells, so 501.0 reads as
// 501.
func integerText(v string) string {
	if n, err := strconv.ParseFloat(v, 64); err == nil && n == float64(int64(n)) && strings.Contains(v, ".") {
		return strconv.FormatInt(int64(n), 10)
	}
	return v
}

func number(v string) int {
	if v == "" {
		return 0
	}
	n, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", ""), 64)
	if err != nil {
		return 0
	}
	return int(n + 0.5)
}

func decimal(v string) float64 {
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return n
}

var inspectionDateLayouts = []string{"2006-01-02", "1/2/2006", "01/02/2006", "1/2/06", "2006-01-02 15:04:05"}

// inspectionDate accepts an Excel serial or a text date and returns
// YYYY-MM-DD, or "" when the value cannot be read.
func inspectionDate(v string, sheet *fetcher.Sheet) string {
	if v == "" {
		return ""
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil {
		if serial <= 0 {
			return ""
		}
		return sheet.ExcelTime(serial).Format("2006-01-02")
	}
	for _, layout := range inspectionDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.Format("2006-01-02")
		}
	}
	zap.L().Debug("sources: unreadable inspection date", zap.String("value", v))
	return ""
}
