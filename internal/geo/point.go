// Package geo turns facility coordinates into the geometry encodings used by
// the spatial exports and the Postgres store.
package geo

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/facility-watch/detention-cli/internal/model"
)

// SRID is WGS 84, the datum of both Nominatim and the third-party CSV.
const SRID = 4326

// Point returns the facility location as an XY point (longitude first), or
// false when the facility has no coordinates.
func Point(f *model.Facility) (*geom.Point, bool) {
	if f == nil || !f.OSM.Located() {
		return nil, false
	}
	return geom.NewPointFlat(geom.XY, []float64{f.OSM.Longitude, f.OSM.Latitude}).SetSRID(SRID), true
}

// ShapePoint returns the facility location as a shapefile point.
func ShapePoint(f *model.Facility) (*shp.Point, bool) {
	p, ok := Point(f)
	if !ok {
		return nil, false
	}
	return &shp.Point{X: p.X(), Y: p.Y()}, true
}

// EncodeWKB returns the facility location as EWKB bytes with SRID 4326.
// Returns nil, nil when the facility is not located.
func EncodeWKB(f *model.Facility) ([]byte, error) {
	p, ok := Point(f)
	if !ok {
		return nil, nil
	}
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "geo: encode WKB")
	}
	return data, nil
}

// DecodeWKB reads an EWKB point back into latitude and longitude.
func DecodeWKB(data []byte) (lat, lon float64, err error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return 0, 0, eris.Wrap(err, "geo: decode WKB")
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return 0, 0, eris.Errorf("geo: expected point, got %T", g)
	}
	return p.Y(), p.X(), nil
}
