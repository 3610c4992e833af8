package enrich

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/facility-watch/detention-cli/internal/fetcher"
	"github.com/facility-watch/detention-cli/internal/model"
)

var (
	facilityTerms = []string{
		"detention", "prison", "jail", "correctional", "penitentiary",
		"facility", "center", "complex", "institution", "processing",
	}
	detentionContext = []string{
		"detention", "prison", "jail", "correctional", "inmates",
		"custody", "incarceration", "processing",
	}
	genericPlaceTerms = []string{"county", "city", "town", "village", "township"}
	// Text found on disambiguation and search pages rather than articles.
	falsePositiveMarkers = []string{
		"may refer to:",
		"did you mean",
		"disambiguation)",
		"is a disambiguation",
		"this article is about",
		"for other uses",
	}
)

// Wikipedia finds the English Wikipedia article for a facility.
type Wikipedia struct {
	fetch   fetcher.Fetcher
	baseURL string
	call    caller
}

type wikiSearchResponse struct {
	Query struct {
		Search []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"search"`
	} `json:"query"`
}

// Search tries the article named after the facility, then the search API
// with the original, cleaned and (for county facilities) minimally cleaned
// names.
func (w *Wikipedia) Search(ctx context.Context, name string) model.PageLink {
	link := model.PageLink{SearchQuery: []string{}}
	cleaned := CleanName(name)

	direct := w.articleURL(strings.ReplaceAll(name, "|", "_"))
	link.SearchQuery = append(link.SearchQuery, direct)
	doc, err := w.document(ctx, direct)
	if err != nil {
		link.SearchQuery = append(link.SearchQuery, failed(err))
	} else {
		page := strings.ToLower(doc.Text())
		falsePositive := containsAny(page, falsePositiveMarkers)
		relevant := containsAny(page, facilityTerms) || containsAny(strings.ToLower(cleaned), facilityTerms)
		if !falsePositive && relevant {
			link.PageURL = finalURL(doc, direct)
			return link
		}
		link.SearchQuery = append(link.SearchQuery, "[REJECTED: false_positive or no_facility_context]")
	}

	queries := []string{name, cleaned}
	if isCountyName(name) {
		if minimal := MinimalCleanName(name); minimal != cleaned {
			queries = append(queries, minimal)
		}
	}

	for i, query := range queries {
		link.SearchQuery = append(link.SearchQuery, query)

		var resp wikiSearchResponse
		err := w.call(ctx, func(ctx context.Context) error {
			return w.fetch.JSON(ctx, w.searchURL(query), &resp)
		})
		if err != nil {
			link.SearchQuery = append(link.SearchQuery, fmt.Sprintf("(Failed: %s -> %v)", query, err))
			continue
		}

		for _, result := range resp.Query.Search {
			score := ScoreResult(name, result.Title, result.Snippet)
			if score <= 0 {
				continue
			}
			candidate := w.articleURL(result.Title)
			doc, err := w.document(ctx, candidate)
			if err != nil {
				link.SearchQuery = append(link.SearchQuery, candidate)
				continue
			}
			link.PageURL = finalURL(doc, candidate)
			link.SearchQuery = append(link.SearchQuery, fmt.Sprintf("-> %s (score: %d)", result.Title, score))
			return link
		}

		if i < len(queries)-1 {
			link.SearchQuery = append(link.SearchQuery, "[no_relevant_results] ->")
		}
	}

	link.SearchQuery = append(link.SearchQuery, "[no_results_found]")
	return link
}

// ScoreResult rates a search hit for a facility name: facility words in the
// title and detention words in the snippet add to the score, a bare place
// name is penalized, and two or more words shared with the facility name
// add one each.
func ScoreResult(name, title, snippet string) int {
	titleLower := strings.ToLower(title)
	snippet = strings.ToLower(snippet)

	score := 0
	for _, term := range facilityTerms {
		if strings.Contains(titleLower, term) {
			score += 2
		}
	}
	for _, term := range detentionContext {
		if strings.Contains(snippet, term) {
			score++
		}
	}
	if containsAny(titleLower, genericPlaceTerms) && !containsAny(titleLower, facilityTerms) {
		score -= 3
	}

	nameTokens := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(name)) {
		nameTokens[tok] = true
	}
	common := make(map[string]bool)
	for _, tok := range strings.Fields(titleLower) {
		if nameTokens[tok] {
			common[tok] = true
		}
	}
	if len(common) >= 2 {
		score += len(common)
	}
	return score
}

func (w *Wikipedia) document(ctx context.Context, u string) (*goquery.Document, error) {
	var doc *goquery.Document
	err := w.call(ctx, func(ctx context.Context) error {
		var err error
		doc, err = w.fetch.Document(ctx, u)
		return err
	})
	return doc, err
}

func (w *Wikipedia) articleURL(title string) string {
	return w.baseURL + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

func (w *Wikipedia) searchURL(query string) string {
	v := url.Values{}
	v.Set("action", "query")
	v.Set("list", "search")
	v.Set("srsearch", query)
	v.Set("format", "json")
	v.Set("srlimit", "5")
	return w.baseURL + "/w/api.php?" + v.Encode()
}

func finalURL(doc *goquery.Document, requested string) string {
	if doc.Url != nil {
		return doc.Url.String()
	}
	return requested
}
