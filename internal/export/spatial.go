package export

import (
	"encoding/json"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/facility-watch/detention-cli/internal/geo"
	"github.com/facility-watch/detention-cli/internal/model"
)

// WriteGeoJSON writes a FeatureCollection with one point feature per located
// facility. Facilities without coordinates are left out.
func WriteGeoJSON(snap *model.Snapshot, path string) error {
	fc := geojson.FeatureCollection{}
	for _, key := range snap.Keys() {
		f := snap.Facilities[key]
		p, ok := geo.Point(f)
		if !ok {
			continue
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       key,
			Geometry: p,
			Properties: map[string]interface{}{
				"name":            f.Name,
				"address":         f.Address.Display(),
				"facility_type":   f.FacilityType.ID,
				"field_office":    f.FieldOffice.FieldOffice,
				"aor":             f.FieldOffice.ID,
				"population":      f.Population.Total,
				"osm_url":         f.OSM.URL,
				"wikipedia_url":   f.Wikipedia.PageURL,
				"wikidata_url":    f.Wikidata.PageURL,
				"vera_id":         f.VeraID,
				"source_urls":     f.SourceURLs,
				"inspection_date": f.Inspection.LastDate,
			},
		})
	}
	zap.L().Debug("export: geojson features",
		zap.Int("located", len(fc.Features)),
		zap.Int("facilities", len(snap.Facilities)),
	)

	data, err := json.Marshal(&fc)
	if err != nil {
		return eris.Wrap(err, "export: encode geojson")
	}
	f, err := create(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck
	if _, err := f.Write(data); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return f.Close()
}

// dbfMaxLen is the widest character field a dBase table allows.
const dbfMaxLen = 254

// shapeField maps a dBase attribute (ten characters at most) to a value.
type shapeField struct {
	name  string
	size  uint8
	value func(f *model.Facility) string
}

var shapeFields = []shapeField{
	{"KEY", dbfMaxLen, func(f *model.Facility) string { return f.AddressStr }},
	{"NAME", dbfMaxLen, func(f *model.Facility) string { return f.Name }},
	{"STREET", dbfMaxLen, func(f *model.Facility) string { return f.Address.Street }},
	{"CITY", 80, func(f *model.Facility) string { return f.Address.Locality }},
	{"STATE", 8, func(f *model.Facility) string { return f.Address.AdministrativeArea }},
	{"ZIP", 16, func(f *model.Facility) string { return f.Address.PostalCode }},
	{"TYPE", 16, func(f *model.Facility) string { return f.FacilityType.ID }},
	{"AOR", 8, func(f *model.Facility) string { return f.FieldOffice.ID }},
	{"OFFICE", 80, func(f *model.Facility) string { return f.FieldOffice.FieldOffice }},
	{"PHONE", 32, func(f *model.Facility) string { return f.Phone }},
	{"POP_TOTAL", 12, func(f *model.Facility) string { return itoa(f.Population.Total) }},
	{"INSP_DATE", 32, func(f *model.Facility) string { return f.Inspection.LastDate }},
	{"VERA_ID", 32, func(f *model.Facility) string { return f.VeraID }},
	{"OSM_URL", dbfMaxLen, func(f *model.Facility) string { return f.OSM.URL }},
	{"WIKI_URL", dbfMaxLen, func(f *model.Facility) string { return f.Wikipedia.PageURL }},
	{"WD_URL", dbfMaxLen, func(f *model.Facility) string { return f.Wikidata.PageURL }},
}

// WriteShapefile writes located facilities as a point shapefile. go-shp
// derives the .shx and .dbf paths from path.
func WriteShapefile(snap *model.Snapshot, path string) error {
	w, err := shp.Create(path, shp.POINT)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}
	err = writeShapeRecords(w, snap)
	w.Close()
	if err != nil {
		return err
	}

	// go-shp v0.1.1 names the attribute table base+"dbf", dropping the dot.
	base := path
	if strings.HasSuffix(strings.ToLower(base), ".shp") {
		base = base[:len(base)-len(".shp")]
	}
	if err := os.Rename(base+"dbf", base+".dbf"); err != nil {
		return eris.Wrapf(err, "export: rename attribute table for %s", path)
	}
	return nil
}

func writeShapeRecords(w *shp.Writer, snap *model.Snapshot) error {
	fields := make([]shp.Field, len(shapeFields))
	for i, sf := range shapeFields {
		fields[i] = shp.StringField(sf.name, sf.size)
	}
	if err := w.SetFields(fields); err != nil {
		return eris.Wrap(err, "export: set shapefile fields")
	}

	var skipped int
	for _, f := range sorted(snap) {
		pt, ok := geo.ShapePoint(f)
		if !ok {
			skipped++
			continue
		}
		row := int(w.Write(pt))
		for i, sf := range shapeFields {
			v := truncate(sf.value(f), int(sf.size))
			if err := w.WriteAttribute(row, i, v); err != nil {
				return eris.Wrapf(err, "export: write attribute %s for %q", sf.name, f.Name)
			}
		}
	}
	if skipped > 0 {
		zap.L().Debug("export: shapefile skipped unlocated facilities", zap.Int("skipped", skipped))
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
