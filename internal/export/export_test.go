package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
)

func testSnapshot() *model.Snapshot {
	snap := model.NewSnapshot()
	snap.ScrapeRuntime = 12.5
	snap.Facilities["411 S BROADWAY AVENUE,ALBANY,GA,31701"] = &model.Facility{
		Name:         "Stewart Detention Center",
		Address:      model.Address{Street: "146 CCA ROAD", Locality: "LUMPKIN", AdministrativeArea: "GA", PostalCode: "31815", Country: "United States"},
		AddressStr:   "146 CCA ROAD,LUMPKIN,GA,31815",
		FacilityType: model.FacilityType{ID: "IGSA"},
		FieldOffice:  model.FieldOffice{ID: "ATL", FieldOffice: "Atlanta Field Office"},
		Population:   model.Population{Total: 1500},
		SourceURLs:   []string{"https://www.ice.gov/detain/detention-facilities", "https://www.ice.gov/doclib/x.xlsx"},
		OSM: model.OSM{
			Latitude:    32.0496,
			Longitude:   -84.7952,
			URL:         "https://www.openstreetmap.org/way/1",
			SearchQuery: []string{"Stewart Detention Center"},
		},
		Wikipedia:      model.PageLink{PageURL: "https://en.wikipedia.org/wiki/Stewart_Detention_Center", SearchQuery: []string{"Stewart Detention Center -> direct"}},
		RepairedRecord: true,
	}
	snap.Facilities["1 MAIN ST,ANYTOWN,TX,75001"] = &model.Facility{
		Name:        "Anytown County Jail",
		Address:     model.Address{Street: "1 MAIN ST", Locality: "ANYTOWN", AdministrativeArea: "TX", PostalCode: "75001"},
		AddressStr:  "1 MAIN ST,ANYTOWN,TX,75001",
		FieldOffice: model.FieldOffice{ID: "DAL", FieldOffice: "Dallas Field Office"},
	}
	return snap
}

func TestParseFormat(t *testing.T) {
	for _, in := range []string{"csv", "JSON", " xlsx ", "parquet", "geojson", "shp"} {
		_, err := ParseFormat(in)
		assert.NoError(t, err, in)
	}
	_, err := ParseFormat("pdf")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestColumns_DebugOnly(t *testing.T) {
	plain := Header(Columns(false))
	debug := Header(Columns(true))

	assert.NotContains(t, plain, "_repaired_record")
	assert.NotContains(t, plain, "osm.search_query")
	assert.Contains(t, debug, "_repaired_record")
	assert.Contains(t, debug, "wikipedia.search_query")
	assert.Greater(t, len(debug), len(plain))
}

func TestRow_Values(t *testing.T) {
	cols := Columns(true)
	f := testSnapshot().Facilities["411 S BROADWAY AVENUE,ALBANY,GA,31701"]
	row := Row(f, cols)
	byName := make(map[string]string, len(cols))
	for i, c := range cols {
		byName[c.Name] = row[i]
	}
	assert.Equal(t, "Stewart Detention Center", byName["name"])
	assert.Equal(t, "1500", byName["population.total"])
	assert.Equal(t, "32.0496", byName["osm.latitude"])
	assert.Equal(t, "", byName["population.avg_stay_length"])
	assert.Equal(t, "true", byName["_repaired_record"])
	assert.Equal(t, "https://www.ice.gov/detain/detention-facilities; https://www.ice.gov/doclib/x.xlsx", byName["source_urls"])
}

func TestWrite_CSV(t *testing.T) {
	base := filepath.Join(t.TempDir(), "out", "ice_detention_facilities")
	path, err := Write(testSnapshot(), FormatCSV, base, Options{})
	require.NoError(t, err)
	assert.Equal(t, base+".csv", path)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, Header(Columns(false)), records[0])
	// key order: "1 MAIN ST..." sorts before "411 S..."
	assert.Equal(t, "Anytown County Jail", records[1][0])
	assert.Equal(t, "Stewart Detention Center", records[2][0])
}

func TestWrite_JSONKeepsDiagnostics(t *testing.T) {
	base := filepath.Join(t.TempDir(), "facilities")
	path, err := Write(testSnapshot(), FormatJSON, base, Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got model.Snapshot
	require.NoError(t, json.Unmarshal(data, &got))
	require.Len(t, got.Facilities, 2)
	f := got.Facilities["411 S BROADWAY AVENUE,ALBANY,GA,31701"]
	require.NotNil(t, f)
	assert.True(t, f.RepairedRecord)
	assert.Equal(t, []string{"Stewart Detention Center"}, f.OSM.SearchQuery)
	assert.Equal(t, 12.5, got.ScrapeRuntime)
}

func TestWrite_XLSX(t *testing.T) {
	base := filepath.Join(t.TempDir(), "facilities")
	path, err := Write(testSnapshot(), FormatXLSX, base, Options{Debug: true})
	require.NoError(t, err)

	sheet, err := fetcher.ReadXLSX(path, fetcher.XLSXOptions{SheetName: "Facilities"})
	require.NoError(t, err)
	assert.Equal(t, Header(Columns(true)), sheet.Columns)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, "Stewart Detention Center", sheet.Rows[1]["name"])
	assert.Equal(t, "true", sheet.Rows[1]["_repaired_record"])
}

func TestWrite_Parquet(t *testing.T) {
	base := filepath.Join(t.TempDir(), "facilities")
	path, err := Write(testSnapshot(), FormatParquet, base, Options{})
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close() //nolint:errcheck
	info, err := f.Stat()
	require.NoError(t, err)

	pf, err := parquet.OpenFile(f, info.Size())
	require.NoError(t, err)
	assert.Equal(t, int64(2), pf.NumRows())

	var names []string
	for _, p := range pf.Schema().Columns() {
		names = append(names, strings.Join(p, "."))
	}
	assert.Contains(t, names, "name")
	assert.Contains(t, names, "address_street")
	assert.NotContains(t, names, "_repaired_record")
}

func TestWrite_GeoJSONLocatedOnly(t *testing.T) {
	base := filepath.Join(t.TempDir(), "facilities")
	path, err := Write(testSnapshot(), FormatGeoJSON, base, Options{})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var fc struct {
		Type     string `json:"type"`
		Features []struct {
			ID       string `json:"id"`
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	require.NoError(t, json.Unmarshal(data, &fc))
	assert.Equal(t, "FeatureCollection", fc.Type)
	require.Len(t, fc.Features, 1)
	feat := fc.Features[0]
	assert.Equal(t, "Point", feat.Geometry.Type)
	assert.Equal(t, []float64{-84.7952, 32.0496}, feat.Geometry.Coordinates)
	assert.Equal(t, "Stewart Detention Center", feat.Properties["name"])
}

func TestWrite_Shapefile(t *testing.T) {
	base := filepath.Join(t.TempDir(), "facilities")
	path, err := Write(testSnapshot(), FormatShape, base, Options{})
	require.NoError(t, err)

	for _, ext := range []string{".shp", ".shx", ".dbf"} {
		_, err := os.Stat(base + ext)
		assert.NoError(t, err, ext)
	}
	_, err = os.Stat(base + "dbf")
	assert.True(t, os.IsNotExist(err), "attribute table left without its dot")

	r, err := shp.Open(path)
	require.NoError(t, err)
	defer func() { _ = r.Close() }()

	fieldIdx := make(map[string]int)
	for i, f := range r.Fields() {
		fieldIdx[strings.TrimRight(f.String(), "\x00")] = i
	}

	var count int
	for r.Next() {
		_, shape := r.Shape()
		pt, ok := shape.(*shp.Point)
		require.True(t, ok)
		assert.InDelta(t, -84.7952, pt.X, 1e-9)
		assert.Equal(t, "Stewart Detention Center", strings.TrimSpace(r.Attribute(fieldIdx["NAME"])))
		assert.Equal(t, "ATL", strings.TrimSpace(r.Attribute(fieldIdx["AOR"])))
		count++
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, 1, r.AttributeCount())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 5))
	assert.Equal(t, "ab", truncate("abcdef", 2))
	// "é" is two bytes; never split it
	assert.Equal(t, "a", truncate("aé", 2))
}

func TestSummary(t *testing.T) {
	s := Summarize(testSnapshot())
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Repaired)
	assert.Equal(t, 1, s.Located)
	assert.Equal(t, 1, s.WikipediaHits)
	assert.Equal(t, 0, s.WikidataHits)
	assert.Equal(t, 1, s.OSMHits)
	assert.Equal(t, map[string]int{"Atlanta Field Office": 1, "Dallas Field Office": 1}, s.ByFieldOffice)

	var buf bytes.Buffer
	require.NoError(t, s.Print(&buf))
	out := buf.String()
	assert.Contains(t, out, "Facilities")
	assert.Contains(t, out, "Atlanta Field Office")
	assert.Contains(t, out, "Scrape runtime")
	assert.NotContains(t, out, "Enrich runtime")
}

func TestSummary_UnassignedOffice(t *testing.T) {
	snap := model.NewSnapshot()
	snap.Facilities["x"] = &model.Facility{Name: "x"}
	assert.Equal(t, 1, Summarize(snap).ByFieldOffice[unassignedOffice])
}
