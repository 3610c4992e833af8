// Package export writes a facility snapshot in the supported file formats
// and prints a console summary of it.
package export

import (
	"strconv"
	"strings"

	"github.com/facility-watch/detention-cli/internal/model"
)

// Column is one field of the flat formats.
type Column struct {
	Name  string
	Value func(f *model.Facility) string
	// Debug columns carry diagnostics and are written only on request.
	Debug bool
}

func itoa(n int) string { return strconv.Itoa(n) }

func ftoa(v float64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func join(values []string) string { return strings.Join(values, "; ") }

var allColumns = []Column{
	{Name: "name", Value: func(f *model.Facility) string { return f.Name }},
	{Name: "other_names", Value: func(f *model.Facility) string { return join(f.OtherNames) }},
	{Name: "address.street", Value: func(f *model.Facility) string { return f.Address.Street }},
	{Name: "address.locality", Value: func(f *model.Facility) string { return f.Address.Locality }},
	{Name: "address.administrative_area", Value: func(f *model.Facility) string { return f.Address.AdministrativeArea }},
	{Name: "address.postal_code", Value: func(f *model.Facility) string { return f.Address.PostalCode }},
	{Name: "address.country", Value: func(f *model.Facility) string { return f.Address.Country }},
	{Name: "address.other_streets", Value: func(f *model.Facility) string { return join(f.Address.OtherStreets) }},
	{Name: "address.other_localities", Value: func(f *model.Facility) string { return join(f.Address.OtherLocalities) }},
	{Name: "address.other_postal_codes", Value: func(f *model.Facility) string { return join(f.Address.OtherPostalCodes) }},
	{Name: "address_str", Value: func(f *model.Facility) string { return f.AddressStr }},
	{Name: "facility_type.id", Value: func(f *model.Facility) string { return f.FacilityType.ID }},
	{Name: "facility_type.expanded_name", Value: func(f *model.Facility) string { return f.FacilityType.ExpandedName }},
	{Name: "facility_type.group", Value: func(f *model.Facility) string { return f.FacilityType.Group }},
	{Name: "field_office.id", Value: func(f *model.Facility) string { return f.FieldOffice.ID }},
	{Name: "field_office.name", Value: func(f *model.Facility) string { return f.FieldOffice.Name }},
	{Name: "field_office.field_office", Value: func(f *model.Facility) string { return f.FieldOffice.FieldOffice }},
	{Name: "field_office.aor", Value: func(f *model.Facility) string { return f.FieldOffice.AOR }},
	{Name: "field_office.address_str", Value: func(f *model.Facility) string { return f.FieldOffice.AddressStr }},
	{Name: "field_office.phone", Value: func(f *model.Facility) string { return f.FieldOffice.Phone }},
	{Name: "field_office.email", Value: func(f *model.Facility) string { return f.FieldOffice.Email }},
	{Name: "phone", Value: func(f *model.Facility) string { return f.Phone }},
	{Name: "other_phones", Value: func(f *model.Facility) string { return join(f.OtherPhones) }},
	{Name: "population.total", Value: func(f *model.Facility) string { return itoa(f.Population.Total) }},
	{Name: "population.avg_stay_length", Value: func(f *model.Facility) string { return ftoa(f.Population.AvgStayLength) }},
	{Name: "population.male.allowed", Value: func(f *model.Facility) string { return strconv.FormatBool(f.Population.Male.Allowed) }},
	{Name: "population.male.criminal", Value: func(f *model.Facility) string { return itoa(f.Population.Male.Criminal) }},
	{Name: "population.male.non_criminal", Value: func(f *model.Facility) string { return itoa(f.Population.Male.NonCriminal) }},
	{Name: "population.female.allowed", Value: func(f *model.Facility) string { return strconv.FormatBool(f.Population.Female.Allowed) }},
	{Name: "population.female.criminal", Value: func(f *model.Facility) string { return itoa(f.Population.Female.Criminal) }},
	{Name: "population.female.non_criminal", Value: func(f *model.Facility) string { return itoa(f.Population.Female.NonCriminal) }},
	{Name: "population.security_threat.low", Value: func(f *model.Facility) string { return itoa(f.Population.SecurityThreat.Low) }},
	{Name: "population.security_threat.medium_low", Value: func(f *model.Facility) string { return itoa(f.Population.SecurityThreat.MediumLow) }},
	{Name: "population.security_threat.medium_high", Value: func(f *model.Facility) string { return itoa(f.Population.SecurityThreat.MediumHigh) }},
	{Name: "population.security_threat.high", Value: func(f *model.Facility) string { return itoa(f.Population.SecurityThreat.High) }},
	{Name: "population.ice_threat_level.level_1", Value: func(f *model.Facility) string { return itoa(f.Population.ICEThreatLevel.Level1) }},
	{Name: "population.ice_threat_level.level_2", Value: func(f *model.Facility) string { return itoa(f.Population.ICEThreatLevel.Level2) }},
	{Name: "population.ice_threat_level.level_3", Value: func(f *model.Facility) string { return itoa(f.Population.ICEThreatLevel.Level3) }},
	{Name: "population.ice_threat_level.none", Value: func(f *model.Facility) string { return itoa(f.Population.ICEThreatLevel.None) }},
	{Name: "population.housing.mandatory", Value: func(f *model.Facility) string { return itoa(f.Population.Housing.Mandatory) }},
	{Name: "population.housing.guaranteed_min", Value: func(f *model.Facility) string { return itoa(f.Population.Housing.GuaranteedMin) }},
	{Name: "inspection.last_type", Value: func(f *model.Facility) string { return f.Inspection.LastType }},
	{Name: "inspection.last_type_expanded", Value: func(f *model.Facility) string { return f.Inspection.LastTypeExpanded }},
	{Name: "inspection.last_date", Value: func(f *model.Facility) string { return f.Inspection.LastDate }},
	{Name: "inspection.last_standard", Value: func(f *model.Facility) string { return f.Inspection.LastStandard }},
	{Name: "inspection.last_rating", Value: func(f *model.Facility) string { return f.Inspection.LastRating }},
	{Name: "image_url", Value: func(f *model.Facility) string { return f.ImageURL }},
	{Name: "page_updated_date", Value: func(f *model.Facility) string { return f.PageUpdatedDate }},
	{Name: "source_urls", Value: func(f *model.Facility) string { return join(f.SourceURLs) }},
	{Name: "vera_id", Value: func(f *model.Facility) string { return f.VeraID }},
	{Name: "osm.latitude", Value: func(f *model.Facility) string { return ftoa(f.OSM.Latitude) }},
	{Name: "osm.longitude", Value: func(f *model.Facility) string { return ftoa(f.OSM.Longitude) }},
	{Name: "osm.url", Value: func(f *model.Facility) string { return f.OSM.URL }},
	{Name: "wikipedia.page_url", Value: func(f *model.Facility) string { return f.Wikipedia.PageURL }},
	{Name: "wikidata.page_url", Value: func(f *model.Facility) string { return f.Wikidata.PageURL }},
	{Name: "_repaired_record", Debug: true, Value: func(f *model.Facility) string { return strconv.FormatBool(f.RepairedRecord) }},
	{Name: "osm.search_query", Debug: true, Value: func(f *model.Facility) string { return join(f.OSM.SearchQuery) }},
	{Name: "wikipedia.search_query", Debug: true, Value: func(f *model.Facility) string { return join(f.Wikipedia.SearchQuery) }},
	{Name: "wikidata.search_query", Debug: true, Value: func(f *model.Facility) string { return join(f.Wikidata.SearchQuery) }},
}

// Columns returns the flat column set; diagnostics are included only when
// debug is set.
func Columns(debug bool) []Column {
	out := make([]Column, 0, len(allColumns))
	for _, c := range allColumns {
		if c.Debug && !debug {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Header returns the column names.
func Header(cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Name
	}
	return out
}

// Row renders f under cols.
func Row(f *model.Facility, cols []Column) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = c.Value(f)
	}
	return out
}
