package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
)

var wikidataTerms = []string{"prison", "detention", "correctional", "jail", "facility", "processing"}

// Wikidata finds the Wikidata item for a facility.
type Wikidata struct {
	fetch   fetcher.Fetcher
	baseURL string
	call    caller
}

type wikidataEntity struct {
	ID          string `json:"id"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

type wikidataResponse struct {
	Search []wikidataEntity `json:"search"`
}

// Search queries wbsearchentities with the name, then the cleaned name. The
// first entity described as a detention facility wins; failing that, the
// first entity returned.
func (w *Wikidata) Search(ctx context.Context, name string) model.PageLink {
	link := model.PageLink{SearchQuery: []string{name}}

	entities, err := w.search(ctx, name)
	if err != nil {
		link.SearchQuery = append(link.SearchQuery, failed(err))
	}
	if len(entities) == 0 {
		cleaned := CleanName(name)
		link.SearchQuery = append(link.SearchQuery, cleaned)
		if entities, err = w.search(ctx, cleaned); err != nil {
			link.SearchQuery = append(link.SearchQuery, failed(err))
		}
	}
	if len(entities) == 0 {
		link.SearchQuery = append(link.SearchQuery, "[no_results_found]")
		return link
	}

	for _, e := range entities {
		if containsAny(strings.ToLower(e.Description), wikidataTerms) {
			link.PageURL = w.baseURL + "/wiki/" + e.ID
			link.SearchQuery = append(link.SearchQuery, fmt.Sprintf("-> %s (%s)", e.ID, e.Label))
			return link
		}
	}
	first := entities[0]
	link.PageURL = w.baseURL + "/wiki/" + first.ID
	link.SearchQuery = append(link.SearchQuery, fmt.Sprintf("-> %s (%s) [first_result]", first.ID, first.Label))
	return link
}

func (w *Wikidata) search(ctx context.Context, query string) ([]wikidataEntity, error) {
	v := url.Values{}
	v.Set("action", "wbsearchentities")
	v.Set("search", query)
	v.Set("language", "en")
	v.Set("format", "json")
	v.Set("limit", "3")

	var resp wikidataResponse
	err := w.call(ctx, func(ctx context.Context) error {
		return w.fetch.JSON(ctx, w.baseURL+"/w/api.php?"+v.Encode(), &resp)
	})
	return resp.Search, err
}
