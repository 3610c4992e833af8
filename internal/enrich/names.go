package enrich

import "strings"

// Suffixes removed by CleanName. Only the first one that matches is
// removed.
var facilitySuffixes = []string{
	"Detention Center",
	"Processing Center",
	"Correctional Center",
	"Correctional Facility",
	"Detention Facility",
	"Service Processing Center",
	"ICE Processing Center",
	"Immigration Processing Center",
	"Adult Detention Facility",
	"Contract Detention Facility",
	"Regional Detention Center",
	"County Jail",
	"County Detention Center",
	"Sheriff's Office",
	"Justice Center",
	"Safety Center",
	"Jail Services",
	"Correctional Complex",
	"Public Safety Complex",
}

// Suffixes removed by MinimalCleanName, which keeps "County Jail" and the
// like intact.
var genericSuffixes = []string{
	"Service Processing Center",
	"ICE Processing Center",
	"Immigration Processing Center",
	"Contract Detention Facility",
	"Adult Detention Facility",
}

// CleanName broadens a facility name for search: the longest "|" separated
// part is kept and a facility-type suffix is dropped.
func CleanName(name string) string {
	return trimSuffix(longestPart(name), facilitySuffixes)
}

// MinimalCleanName drops only generic processing-center suffixes.
func MinimalCleanName(name string) string {
	return trimSuffix(longestPart(name), genericSuffixes)
}

func longestPart(name string) string {
	if !strings.Contains(name, "|") {
		return name
	}
	best := ""
	for _, part := range strings.Split(name, "|") {
		if len(part) > len(best) {
			best = part
		}
	}
	return strings.TrimSpace(best)
}

func trimSuffix(name string, suffixes []string) string {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return strings.TrimSpace(strings.TrimSuffix(name, s))
		}
	}
	return name
}

// isCountyName reports whether a name refers to a county or parish, for
// which the minimally cleaned name is also searched.
func isCountyName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "county") || strings.Contains(lower, "parish")
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}
