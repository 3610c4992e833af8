package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
)

// OpenStreetMap geocodes a facility with Nominatim.
type OpenStreetMap struct {
	fetch        fetcher.Fetcher
	nominatimURL string
	osmURL       string
	call         caller
}

// Location is a geocoding result. Trace lists every query tried.
type Location struct {
	Found     bool
	Latitude  float64
	Longitude float64
	URL       string
	Title     string
	Trace     []string
}

type nominatimPlace struct {
	Lat         string      `json:"lat"`
	Lon         string      `json:"lon"`
	OSMType     string      `json:"osm_type"`
	OSMID       json.Number `json:"osm_id"`
	DisplayName string      `json:"display_name"`
	Class       string      `json:"class"`
}

// Search tries the cleaned name with the full address, the address alone,
// then the locality, stopping at the first query with any result. Without
// an address only the cleaned name is searched.
func (o *OpenStreetMap) Search(ctx context.Context, name string, addr model.Address) Location {
	loc := Location{Trace: []string{}}
	cleaned := CleanName(name)

	var queries []string
	if addr.Empty() {
		queries = []string{cleaned}
	} else {
		full := fmt.Sprintf("%s %s, %s %s", addr.Street, addr.Locality, addr.AdministrativeArea, addr.PostalCode)
		locality := fmt.Sprintf("%s, %s %s", addr.Locality, addr.AdministrativeArea, addr.PostalCode)
		queries = []string{cleaned + " " + full, full, locality}
	}

	var places []nominatimPlace
	for _, q := range queries {
		loc.Trace = append(loc.Trace, q)
		var found []nominatimPlace
		err := o.call(ctx, func(ctx context.Context) error {
			return o.fetch.JSON(ctx, o.searchURL(q), &found)
		})
		if err != nil {
			loc.Trace = append(loc.Trace, failed(err))
			continue
		}
		if len(found) > 0 {
			places = found
			break
		}
	}
	if len(places) == 0 {
		loc.Trace = append(loc.Trace, "[no_results_found]")
		return loc
	}

	// Nominatim ranks the most specific match first.
	first := places[0]
	lat, latErr := strconv.ParseFloat(first.Lat, 64)
	lon, lonErr := strconv.ParseFloat(first.Lon, 64)
	if latErr != nil || lonErr != nil {
		loc.Trace = append(loc.Trace, fmt.Sprintf("[unreadable coordinates %q,%q]", first.Lat, first.Lon))
		return loc
	}
	loc.Found = true
	loc.Latitude, loc.Longitude = lat, lon
	loc.Title = first.DisplayName
	if first.OSMType == "way" {
		loc.URL = fmt.Sprintf("%s/way/%s", o.osmURL, first.OSMID)
	} else {
		loc.Trace = append(loc.Trace, first.Lat+"&"+first.Lon)
		loc.URL = fmt.Sprintf("%s/?mlat=%s&mlon=%s", o.osmURL, first.Lat, first.Lon)
	}
	return loc
}

func (o *OpenStreetMap) searchURL(q string) string {
	v := url.Values{}
	v.Set("q", q)
	v.Set("format", "json")
	v.Set("limit", "5")
	v.Set("dedupe", "1")
	return o.nominatimURL + "/search?" + v.Encode()
}
