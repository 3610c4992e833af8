// Package normalize repairs known-bad facility addresses and names before they
// are keyed into the catalog. Each repair reports whether it altered its input
// so callers can keep the original value as an alternate.
package normalize

import (
	"strings"
	"unicode"

	"github.com/facility-watch/detention-cli/internal/model"
)

// Street applies the first matching street correction for the locality, then
// strips possessives, periods and commas. A row is skipped when the street
// already carries its replacement, so repaired values stay fixed.
func Street(street, locality string) (string, bool) {
	changed := false
	for _, c := range streetCorrections {
		if c.Context != locality || strings.Contains(street, c.Replace) {
			continue
		}
		if strings.Contains(street, c.Match) {
			street = strings.Replace(street, c.Match, c.Replace, 1)
			changed = true
			break
		}
	}
	for _, c := range streetCleanup {
		if strings.Contains(street, c.Match) {
			street = strings.ReplaceAll(street, c.Match, c.Replace)
			changed = true
		}
	}
	return street, changed
}

// Zip left-pads short all-digit codes to five digits (spreadsheet cells lose
// leading zeros) and then applies the first matching zip correction.
func Zip(zip, locality string) (string, bool) {
	zip = strings.TrimSpace(zip)
	changed := false
	if n := len(zip); n > 0 && n < 5 && allDigits(zip) {
		zip = strings.Repeat("0", 5-n) + zip
		changed = true
	}
	for _, c := range zipCorrections {
		if c.Match == zip && c.Context == locality {
			return c.Replace, true
		}
	}
	return zip, changed
}

// Locality applies the first locality correction for the region.
func Locality(locality, region string) (string, bool) {
	for _, c := range localityCorrections {
		if c.Match == locality && c.Context == region {
			return c.Replace, true
		}
	}
	return locality, false
}

// Name applies the first name correction for the locality.
func Name(name, locality string) (string, bool) {
	for _, c := range nameCorrections {
		if c.Match == name && c.Context == locality {
			return c.Replace, true
		}
	}
	return name, false
}

func allDigits(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// Facility runs every repair over f in place: street, zip, locality and name,
// then the special-case patch. Replaced values are kept in the matching
// alternate list and f.RepairedRecord is set when anything changed.
func Facility(f *model.Facility) bool {
	if f == nil {
		return false
	}
	repaired := false
	rawLocality := f.Address.Locality

	if v, ok := Street(f.Address.Street, f.Address.Locality); ok {
		f.Address.OtherStreets = model.AppendUnique(f.Address.OtherStreets, f.Address.Street)
		f.Address.Street = v
		repaired = true
	}
	if v, ok := Zip(f.Address.PostalCode, f.Address.Locality); ok {
		f.Address.OtherPostalCodes = model.AppendUnique(f.Address.OtherPostalCodes, f.Address.PostalCode)
		f.Address.PostalCode = v
		repaired = true
	}
	if v, ok := Locality(f.Address.Locality, f.Address.AdministrativeArea); ok {
		f.Address.OtherLocalities = model.AppendUnique(f.Address.OtherLocalities, f.Address.Locality)
		f.Address.Locality = v
		repaired = true
	}
	// Name rows are keyed by the locality as published, before repair.
	if v, ok := Name(f.Name, rawLocality); ok {
		f.OtherNames = model.AppendUnique(f.OtherNames, f.Name)
		f.Name = v
		repaired = true
	}
	if Special(f) {
		repaired = true
	}
	if repaired {
		f.RepairedRecord = true
	}
	return repaired
}
