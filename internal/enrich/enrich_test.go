package enrich

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
)

// lookupServer stands in for Wikipedia, Wikidata and Nominatim. Any request
// mentioning "Slow" hangs until the client gives up.
func lookupServer(t *testing.T) *httptest.Server {
	t.Helper()
	block := func(w http.ResponseWriter, r *http.Request) bool {
		if !strings.Contains(r.URL.String(), "Slow") {
			return false
		}
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
		return true
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		if block(w, r) {
			return
		}
		switch strings.TrimPrefix(r.URL.Path, "/wiki/") {
		case "Krome_North_SPC":
			w.Write([]byte(`<html><body>Krome North SPC is an immigration detention facility.</body></html>`))
		case "Stewart_Detention_Center":
			w.Write([]byte(`<html><body>Stewart is a detention center in Lumpkin.</body></html>`))
		case "Springfield":
			w.Write([]byte(`<html><body>Springfield may refer to: many places</body></html>`))
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		if block(w, r) {
			return
		}
		q := r.URL.Query()
		switch q.Get("action") {
		case "query":
			var results []map[string]string
			if strings.Contains(q.Get("srsearch"), "Stewart") {
				results = []map[string]string{
					{"title": "Stewart County, Georgia", "snippet": "a county"},
					{"title": "Stewart Detention Center", "snippet": "an immigration detention center holding inmates"},
				}
			}
			writeJSON(w, map[string]any{"query": map[string]any{"search": results}})
		case "wbsearchentities":
			var results []map[string]string
			switch {
			case strings.Contains(q.Get("search"), "Krome"):
				results = []map[string]string{
					{"id": "Q100", "label": "Krome", "description": "neighborhood"},
					{"id": "Q200", "label": "Krome North SPC", "description": "immigration detention facility in Florida"},
				}
			case q.Get("search") == "Stewart":
				results = []map[string]string{{"id": "Q300", "label": "Stewart", "description": "surname"}}
			}
			writeJSON(w, map[string]any{"search": results})
		}
	})
	mux.HandleFunc("/search", func(w http.ResponseWriter, r *http.Request) {
		if block(w, r) {
			return
		}
		if strings.Contains(r.URL.Query().Get("q"), "Nowhere") {
			writeJSON(w, []any{})
			return
		}
		writeJSON(w, []map[string]any{
			{"lat": "25.7", "lon": "-80.5", "osm_type": "way", "osm_id": 123, "display_name": "Krome"},
		})
	})
	return httptest.NewServer(mux)
}

func testAnnotator(srv *httptest.Server, timeout time.Duration) *Annotator {
	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		Timeout:      5 * time.Second,
		MaxRetries:   1,
		RetryBackoff: time.Millisecond,
	})
	return NewAnnotator(f, Config{
		Workers:      3,
		Timeout:      timeout,
		WikipediaURL: srv.URL,
		WikidataURL:  srv.URL,
		NominatimURL: srv.URL,
		OSMURL:       "https://www.openstreetmap.org",
	})
}

func TestWikipedia_DirectHit(t *testing.T) {
	srv := lookupServer(t)
	defer srv.Close()
	a := testAnnotator(srv, 5*time.Second)

	link := a.wikipedia.Search(context.Background(), "Krome North SPC")
	assert.Equal(t, srv.URL+"/wiki/Krome_North_SPC", link.PageURL)
	assert.Equal(t, []string{srv.URL + "/wiki/Krome_North_SPC"}, link.SearchQuery)
}

func TestWikipedia_SearchFallback(t *testing.T) {
	srv := lookupServer(t)
	defer srv.Close()
	a := testAnnotator(srv, 5*time.Second)

	link := a.wikipedia.Search(context.Background(), "Stewart Detention Center Lumpkin")
	assert.Equal(t, srv.URL+"/wiki/Stewart_Detention_Center", link.PageURL)
	assert.Contains(t, link.SearchQuery, "Stewart Detention Center Lumpkin")
	last := link.SearchQuery[len(link.SearchQuery)-1]
	assert.True(t, strings.HasPrefix(last, "-> Stewart Detention Center (score: "), last)
}

func TestWikipedia_DisambiguationRejected(t *testing.T) {
	srv := lookupServer(t)
	defer srv.Close()
	a := testAnnotator(srv, 5*time.Second)

	link := a.wikipedia.Search(context.Background(), "Springfield")
	assert.Empty(t, link.PageURL)
	assert.Contains(t, link.SearchQuery, "[REJECTED: false_positive or no_facility_context]")
	assert.Equal(t, "[no_results_found]", link.SearchQuery[len(link.SearchQuery)-1])
}

func TestWikidata_Search(t *testing.T) {
	srv := lookupServer(t)
	defer srv.Close()
	a := testAnnotator(srv, 5*time.Second)

	link := a.wikidata.Search(context.Background(), "Krome North SPC")
	assert.Equal(t, srv.URL+"/wiki/Q200", link.PageURL)

	link = a.wikidata.Search(context.Background(), "Stewart Detention Center")
	assert.Equal(t, srv.URL+"/wiki/Q300", link.PageURL)
	assert.Equal(t, []string{"Stewart Detention Center", "Stewart", "-> Q300 (Stewart) [first_result]"}, link.SearchQuery)

	link = a.wikidata.Search(context.Background(), "Unknown Place")
	assert.Empty(t, link.PageURL)
	assert.Equal(t, "[no_results_found]", link.SearchQuery[len(link.SearchQuery)-1])
}

func TestOpenStreetMap_Search(t *testing.T) {
	srv := lookupServer(t)
	defer srv.Close()
	a := testAnnotator(srv, 5*time.Second)

	addr := model.Address{Street: "18201 SW 12th St", Locality: "Miami", AdministrativeArea: "FL", PostalCode: "33194"}
	loc := a.osm.Search(context.Background(), "Krome North Service Processing Center", addr)
	require.True(t, loc.Found)
	assert.Equal(t, 25.7, loc.Latitude)
	assert.Equal(t, -80.5, loc.Longitude)
	assert.Equal(t, "https://www.openstreetmap.org/way/123", loc.URL)
	assert.Equal(t, []string{"Krome North Service 18201 SW 12th St Miami, FL 33194"}, loc.Trace)

	loc = a.osm.Search(context.Background(), "Nowhere Jail", model.Address{})
	assert.False(t, loc.Found)
	assert.Equal(t, []string{"Nowhere Jail", "[no_results_found]"}, loc.Trace)
}

func TestEnrich_FailureIsolation(t *testing.T) {
	srv := lookupServer(t)
	defer srv.Close()
	a := testAnnotator(srv, 100*time.Millisecond)

	snap := model.NewSnapshot()
	snap.Facilities["krome"] = &model.Facility{Name: "Krome North SPC", SourceURLs: []string{"https://www.ice.gov/x"}}
	snap.Facilities["slow"] = &model.Facility{Name: "Slow Jail", SourceURLs: []string{"https://www.ice.gov/y"}}
	snap.Facilities["vera"] = &model.Facility{
		Name:       "Remote Camp",
		SourceURLs: []string{"https://raw.githubusercontent.com/vera-institute/ice-detention-trends/refs/heads/main/metadata/facilities.csv"},
	}
	snap.ScrapeRuntime = 12

	out, stats := a.Enrich(context.Background(), snap)
	require.Len(t, out.Facilities, 3)
	assert.Equal(t, 12.0, out.ScrapeRuntime)
	assert.Greater(t, out.EnrichRuntime, 0.0)

	krome := out.Facilities["krome"]
	assert.Equal(t, srv.URL+"/wiki/Krome_North_SPC", krome.Wikipedia.PageURL)
	assert.Equal(t, srv.URL+"/wiki/Q200", krome.Wikidata.PageURL)
	assert.Equal(t, 25.7, krome.OSM.Latitude)

	slow := out.Facilities["slow"]
	assert.Empty(t, slow.Wikipedia.PageURL)
	assert.Empty(t, slow.Wikidata.PageURL)
	assert.False(t, slow.OSM.Located())
	assert.True(t, hasFailure(slow.Wikipedia.SearchQuery))
	assert.True(t, hasFailure(slow.OSM.SearchQuery))

	assert.Nil(t, out.Facilities["vera"].Wikipedia.SearchQuery)
	assert.Empty(t, snap.Facilities["krome"].Wikipedia.PageURL, "input snapshot is not modified")

	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 2, stats.Enriched)
	assert.Equal(t, 1, stats.WikipediaHits)
	assert.Equal(t, 1, stats.OSMHits)
}

func TestAnnotateSafely_RecoversPanic(t *testing.T) {
	a := &Annotator{}
	f := &model.Facility{Name: "Krome North SPC"}

	got, o := a.annotateSafely(context.Background(), f)
	assert.True(t, o.failed)
	require.NotEmpty(t, got.Wikipedia.SearchQuery)
	assert.True(t, hasFailure(got.Wikipedia.SearchQuery))
}

func hasFailure(trace []string) bool {
	for _, s := range trace {
		if strings.HasPrefix(s, "(Failed") {
			return true
		}
	}
	return false
}
