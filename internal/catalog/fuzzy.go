package catalog

import (
	"strings"
	"unicode/utf8"

	"github.com/adrg/strutil/metrics"

	"github.com/facility-watch/detention-cli/internal/normalize"
)

// DefaultFuzzyThreshold is the minimum partial ratio accepted as a match.
const DefaultFuzzyThreshold = 80

// indel is Levenshtein with substitution priced as a delete plus an insert,
// which makes the distance len(a)+len(b)-2*LCS(a, b).
var indel = &metrics.Levenshtein{
	CaseSensitive: true,
	InsertCost:    1,
	DeleteCost:    1,
	ReplaceCost:   2,
}

// Ratio scores the similarity of a and b from 0 to 100 as twice the longest
// common subsequence over the combined length.
func Ratio(a, b string) int {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 100
	}
	common := total - indel.Distance(a, b)
	return (100*common + total/2) / total
}

// PartialRatio is the best Ratio between the shorter string and every
// equal-length window of the longer one, so "Stewart Jail" scores 100 against
// "Stewart Jail Annex".
func PartialRatio(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}
	short := string(ra)
	best := 0
	for i := 0; i+len(ra) <= len(rb); i++ {
		score := Ratio(short, string(rb[i:i+len(ra)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

// localityThreshold is the Ratio two comparable localities need to count as
// the same place.
const localityThreshold = 90

// FindFuzzy scans records in insertion order and returns the first whose
// name (or any alternate name) scores at least threshold against name on the
// comparable form. Candidates must share the region, compared without case,
// and a locality that passes sameLocality. The scan is linear in the catalog
// size.
func (c *Catalog) FindFuzzy(name, region, locality string, threshold int) (string, int, bool) {
	want := normalize.Comparable(name)
	if want == "" {
		return "", 0, false
	}
	for _, k := range c.keys {
		f := c.items[k]
		if !strings.EqualFold(f.Address.AdministrativeArea, region) ||
			!sameLocality(f.Address.Locality, locality) {
			continue
		}
		for _, candidate := range append([]string{f.Name}, f.OtherNames...) {
			if score := PartialRatio(want, normalize.Comparable(candidate)); score >= threshold {
				return k, score, true
			}
		}
	}
	return "", 0, false
}

// sameLocality compares localities on their comparable form, so spelling
// variants such as "LaGrange" and "La Grange" agree.
func sameLocality(a, b string) bool {
	ca, cb := normalize.Comparable(a), normalize.Comparable(b)
	if ca == cb {
		return true
	}
	if ca == "" || cb == "" {
		return false
	}
	return Ratio(ca, cb) >= localityThreshold
}
