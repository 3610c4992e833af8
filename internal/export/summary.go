package export

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/facility-watch/detention-cli/internal/model"
)

// unassignedOffice labels facilities with no field office.
const unassignedOffice = "(none)"

// Summary holds the console report for a snapshot.
type Summary struct {
	Total         int
	Repaired      int
	Located       int
	WikipediaHits int
	WikidataHits  int
	OSMHits       int
	ByFieldOffice map[string]int
	ScrapeRuntime float64
	EnrichRuntime float64
}

// Summarize counts snap.
func Summarize(snap *model.Snapshot) Summary {
	s := Summary{
		Total:         len(snap.Facilities),
		ByFieldOffice: make(map[string]int),
		ScrapeRuntime: snap.ScrapeRuntime,
		EnrichRuntime: snap.EnrichRuntime,
	}
	for _, f := range snap.Facilities {
		office := f.FieldOffice.FieldOffice
		if office == "" {
			office = unassignedOffice
		}
		s.ByFieldOffice[office]++
		if f.RepairedRecord {
			s.Repaired++
		}
		if f.OSM.Located() {
			s.Located++
		}
		if f.Wikipedia.PageURL != "" {
			s.WikipediaHits++
		}
		if f.Wikidata.PageURL != "" {
			s.WikidataHits++
		}
		if f.OSM.URL != "" {
			s.OSMHits++
		}
	}
	return s
}

// Print writes the summary as aligned text. Offices are listed by count,
// largest first.
func (s Summary) Print(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Facilities\t%d\n", s.Total)
	fmt.Fprintf(tw, "Repaired records\t%d\n", s.Repaired)
	fmt.Fprintf(tw, "With coordinates\t%d\n", s.Located)
	fmt.Fprintf(tw, "Wikipedia pages\t%d\n", s.WikipediaHits)
	fmt.Fprintf(tw, "Wikidata pages\t%d\n", s.WikidataHits)
	fmt.Fprintf(tw, "OpenStreetMap links\t%d\n", s.OSMHits)
	if s.ScrapeRuntime > 0 {
		fmt.Fprintf(tw, "Scrape runtime\t%.1fs\n", s.ScrapeRuntime)
	}
	if s.EnrichRuntime > 0 {
		fmt.Fprintf(tw, "Enrich runtime\t%.1fs\n", s.EnrichRuntime)
	}
	fmt.Fprintln(tw, "\t")
	fmt.Fprintln(tw, "Field office\tFacilities")
	for _, office := range s.offices() {
		fmt.Fprintf(tw, "%s\t%d\n", office, s.ByFieldOffice[office])
	}
	return tw.Flush()
}

func (s Summary) offices() []string {
	out := make([]string, 0, len(s.ByFieldOffice))
	for o := range s.ByFieldOffice {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := s.ByFieldOffice[out[i]], s.ByFieldOffice[out[j]]
		if a != b {
			return a > b
		}
		return out[i] < out[j]
	})
	return out
}
