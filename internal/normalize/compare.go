package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// abbreviations expand the shorthand that differs between the ICE sheet and
// third-party facility lists.
var abbreviations = map[string]string{
	"CO":     "COUNTY",
	"CNTY":   "COUNTY",
	"CTY":    "COUNTY",
	"CORR":   "CORRECTIONAL",
	"CORREC": "CORRECTIONAL",
	"DET":    "DETENTION",
	"CTR":    "CENTER",
	"CNTR":   "CENTER",
	"FAC":    "FACILITY",
	"FACIL":  "FACILITY",
	"INST":   "INSTITUTION",
	"PROC":   "PROCESSING",
	"REG":    "REGIONAL",
	"DEPT":   "DEPARTMENT",
	"JUV":    "JUVENILE",
	"FED":    "FEDERAL",
	"HOSP":   "HOSPITAL",
	"FT":     "FORT",
	"MT":     "MOUNT",
}

// FoldAccents strips combining marks: "Peñasco" becomes "Penasco".
func FoldAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Comparable reduces a facility name to the form used for fuzzy matching:
// upper case, accents folded, punctuation dropped, abbreviations expanded.
func Comparable(name string) string {
	name = strings.ToUpper(FoldAccents(name))
	fields := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for i, f := range fields {
		if full, ok := abbreviations[f]; ok {
			fields[i] = full
		}
	}
	return strings.Join(fields, " ")
}
