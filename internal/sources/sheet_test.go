package sources

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx/v2"
)

// sheetRow builds a full 27-column row from the named values.
func sheetRow(values map[string]string) []string {
	row := make([]string, len(SheetColumns))
	for i, col := range SheetColumnsFor(26) {
		row[i] = values[col]
	}
	return row
}

func writeSheet(t *testing.T, name string, rows [][]string) string {
	t.Helper()
	f := xlsx.NewFile()
	sheet, err := f.AddSheet(name)
	require.NoError(t, err)
	for _, values := range rows {
		row := sheet.AddRow()
		for _, v := range values {
			row.AddCell().SetString(v)
		}
	}
	path := filepath.Join(t.TempDir(), "detentionstats.xlsx")
	require.NoError(t, f.Save(path))
	return path
}

func TestSheetColumnsFor(t *testing.T) {
	cols := SheetColumnsFor(5)
	assert.Equal(t, "FY05 ALOS", cols[8])
	assert.Equal(t, "YEAR ALOS", SheetColumns[8])
	assert.Len(t, cols, 27)
}

func TestParseSheet(t *testing.T) {
	header := append([]string(nil), SheetColumnsFor(26)...)
	path := writeSheet(t, "Facilities FY26", [][]string{
		{"ICE Detention Statistics"},
		header,
		sheetRow(map[string]string{
			"Name": "Springfield County Jail", "Address": "100 Main St", "City": "Springfield",
			"State": "IL", "Zip": "62701", "AOR": "CHI", "Type Detailed": "IGSA",
			"Male/Female": "Female/Male", "FY26 ALOS": "31.5",
			"Level A": "10", "Level B": "5", "Level C": "2", "Level D": "1",
			"Male Crim": "4", "Male Non-Crim": "6", "Female Crim": "1", "Female Non-Crim": "2",
			"ICE Threat Level 1": "3", "No ICE Threat Level": "9",
			"Mandatory": "0", "Guaranteed Minimum": "25",
			"Last Inspection Type": "ODO", "Last Inspection End Date": "45000",
			"Last Inspection Standard": "NDS 2019", "Last Final Rating": "Acceptable",
		}),
		sheetRow(map[string]string{
			"Name": "Holtsville Hold Room", "Address": "1 Jail Rd 631 555 0100", "City": "Holtsville",
			"State": "NY", "Zip": "501", "AOR": "NYC", "Type Detailed": "STAGING",
			"Male/Female": "Female", "Last Inspection End Date": "not a date",
		}),
		// missing AOR
		sheetRow(map[string]string{
			"Name": "Incomplete", "Address": "2 Road", "City": "Nowhere", "State": "TX",
			"Zip": "75001", "Type Detailed": "IGSA",
		}),
	})

	got, err := ParseSheet(path, 26, "https://www.ice.gov/doclib/detention/FY26_detentionStats.xlsx")
	require.NoError(t, err)
	require.Len(t, got, 2)

	f := got[0]
	assert.Equal(t, "Springfield County Jail", f.Name)
	assert.Equal(t, "100 MAIN ST,SPRINGFIELD,IL,62701", f.AddressStr)
	assert.Equal(t, "CHI", f.FieldOffice.ID)
	assert.Equal(t, "Intergovernmental Service Agreement", f.FacilityType.ExpandedName)
	assert.Equal(t, 13, f.Population.Total)
	assert.True(t, f.Population.Male.Allowed)
	assert.True(t, f.Population.Female.Allowed)
	assert.Equal(t, 31.5, f.Population.AvgStayLength)
	assert.Equal(t, 10, f.Population.SecurityThreat.Low)
	assert.Equal(t, 1, f.Population.SecurityThreat.High)
	assert.Equal(t, 3, f.Population.ICEThreatLevel.Level1)
	assert.Equal(t, 9, f.Population.ICEThreatLevel.None)
	assert.Equal(t, 25, f.Population.Housing.GuaranteedMin)
	assert.Equal(t, "Office of Detention Oversight", f.Inspection.LastTypeExpanded)
	assert.Equal(t, "2023-03-15", f.Inspection.LastDate)
	assert.Equal(t, "Acceptable", f.Inspection.LastRating)
	assert.Equal(t, []string{"https://www.ice.gov/doclib/detention/FY26_detentionStats.xlsx"}, f.SourceURLs)
	assert.False(t, f.RepairedRecord)

	h := got[1]
	assert.Equal(t, "00501", h.Address.PostalCode)
	assert.Equal(t, "631 555 0100", h.Phone)
	assert.True(t, h.RepairedRecord)
	assert.True(t, h.Population.Female.Allowed)
	assert.False(t, h.Population.Male.Allowed)
	assert.Empty(t, h.Inspection.LastDate)
	assert.Equal(t, "Staging Facility", h.FacilityType.ExpandedName)
}

func TestParseSheet_MissingSheet(t *testing.T) {
	path := writeSheet(t, "Facilities FY25", [][]string{{"x"}})
	_, err := ParseSheet(path, 26, "")
	require.Error(t, err)
}

const sheetPage = `<html><body>
<a href="https://www.ice.gov/doclib/detention/FY25_detentionStats.xlsx">FY25</a>
<a href="https://www.ice.gov/doclib/detention/FY26_detentionStats.xlsx">FY26</a>
<a href="https://example.com/other.xlsx">other</a>
<a href="/doclib/relative.xlsx">relative</a>
</body></html>`

func TestSheetDiscover(t *testing.T) {
	cfg := testConfig(t)
	stub := &stubFetcher{pages: map[string]string{cfg.SheetPageURL: sheetPage}}

	link, fy, err := NewSheet(stub, cfg).Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://www.ice.gov/doclib/detention/FY26_detentionStats.xlsx", link)
	assert.Equal(t, 26, fy)
}

func TestSheetDiscover_FirstLinkWhenNoneCurrent(t *testing.T) {
	cfg := testConfig(t)
	cfg.FiscalYear = 30
	stub := &stubFetcher{pages: map[string]string{cfg.SheetPageURL: sheetPage}}

	link, fy, err := NewSheet(stub, cfg).Discover(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://www.ice.gov/doclib/detention/FY25_detentionStats.xlsx", link)
	assert.Equal(t, 30, fy)
}

func TestSheetDiscover_NoLinks(t *testing.T) {
	cfg := testConfig(t)
	stub := &stubFetcher{pages: map[string]string{cfg.SheetPageURL: "<html><body>nothing</body></html>"}}

	_, _, err := NewSheet(stub, cfg).Discover(context.Background())
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}

func TestSheetLoad(t *testing.T) {
	cfg := testConfig(t)
	link := "https://www.ice.gov/doclib/detention/FY26_detentionStats.xlsx"
	path := writeSheet(t, "Facilities FY26", [][]string{
		sheetRow(map[string]string{
			"Name": "Springfield County Jail", "Address": "100 Main St", "City": "Springfield",
			"State": "IL", "Zip": "62701", "AOR": "CHI", "Type Detailed": "IGSA",
		}),
	})
	stub := &stubFetcher{
		pages: map[string]string{cfg.SheetPageURL: sheetPage},
		files: map[string]string{link: path},
	}

	got, url, err := NewSheet(stub, cfg).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, link, url)
	require.Len(t, got, 1)
	assert.FileExists(t, filepath.Join(cfg.DownloadDir, "detentionstats.xlsx"))
}

func TestSheetLoad_DownloadFailure(t *testing.T) {
	cfg := testConfig(t)
	stub := &stubFetcher{pages: map[string]string{cfg.SheetPageURL: sheetPage}}

	_, _, err := NewSheet(stub, cfg).Load(context.Background())
	assert.True(t, errors.Is(err, ErrSheetNotFound))
}
