// Package model defines the facility records produced by the reconciliation
// pipeline and the snapshot and run types persisted around them.
package model

// Address is a normalized postal address. The other_* lists keep every raw
// value that a repair replaced.
type Address struct {
	Street             string   `json:"street" yaml:"street"`
	Locality           string   `json:"locality" yaml:"locality"`
	AdministrativeArea string   `json:"administrative_area" yaml:"administrative_area"`
	PostalCode         string   `json:"postal_code" yaml:"postal_code"`
	Country            string   `json:"country" yaml:"country"`
	OtherStreets       []string `json:"other_streets" yaml:"other_streets" merge:"union"`
	OtherLocalities    []string `json:"other_localities" yaml:"other_localities" merge:"union"`
	OtherPostalCodes   []string `json:"other_postal_codes" yaml:"other_postal_codes" merge:"union"`
}

// Empty reports whether none of the address parts are set.
func (a Address) Empty() bool {
	return a.Street == "" && a.Locality == "" && a.AdministrativeArea == "" && a.PostalCode == ""
}

// Display renders the address the way it reads on an envelope.
func (a Address) Display() string {
	s := a.Street
	if a.Locality != "" {
		if s != "" {
			s += " "
		}
		s += a.Locality + ","
	}
	if a.AdministrativeArea != "" {
		s += " " + a.AdministrativeArea
	}
	if a.PostalCode != "" {
		s += " " + a.PostalCode
	}
	return s
}

// FacilityType classifies a facility by its contract arrangement.
type FacilityType struct {
	ID           string `json:"id" yaml:"id"`
	ExpandedName string `json:"expanded_name" yaml:"expanded_name"`
	Description  string `json:"description" yaml:"description"`
	Group        string `json:"group" yaml:"group"`
}

// FieldOffice is the ERO field office managing a facility.
type FieldOffice struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	FieldOffice string   `json:"field_office" yaml:"field_office"`
	AOR         string   `json:"aor" yaml:"aor"`
	Address     Address  `json:"address" yaml:"address"`
	AddressStr  string   `json:"address_str" yaml:"address_str"`
	Phone       string   `json:"phone" yaml:"phone"`
	Email       string   `json:"email" yaml:"email"`
	SourceURLs  []string `json:"source_urls" yaml:"source_urls" merge:"union"`
}

// SexPopulation holds counts for one sex.
type SexPopulation struct {
	Allowed     bool `json:"allowed" yaml:"allowed"`
	Criminal    int  `json:"criminal" yaml:"criminal"`
	NonCriminal int  `json:"non_criminal" yaml:"non_criminal"`
}

// SecurityThreat holds counts by classification level A through D.
type SecurityThreat struct {
	Low        int `json:"low" yaml:"low"`
	MediumLow  int `json:"medium_low" yaml:"medium_low"`
	MediumHigh int `json:"medium_high" yaml:"medium_high"`
	High       int `json:"high" yaml:"high"`
}

// ThreatLevel holds counts by ICE threat level.
type ThreatLevel struct {
	Level1 int `json:"level_1" yaml:"level_1"`
	Level2 int `json:"level_2" yaml:"level_2"`
	Level3 int `json:"level_3" yaml:"level_3"`
	None   int `json:"none" yaml:"none"`
}

// Housing holds guaranteed bed counts.
type Housing struct {
	Mandatory     int `json:"mandatory" yaml:"mandatory"`
	GuaranteedMin int `json:"guaranteed_min" yaml:"guaranteed_min"`
}

// Population holds the detention statistics reported for a facility.
type Population struct {
	Total          int            `json:"total" yaml:"total"`
	AvgStayLength  float64        `json:"avg_stay_length" yaml:"avg_stay_length"`
	Male           SexPopulation  `json:"male" yaml:"male"`
	Female         SexPopulation  `json:"female" yaml:"female"`
	SecurityThreat SecurityThreat `json:"security_threat" yaml:"security_threat"`
	ICEThreatLevel ThreatLevel    `json:"ice_threat_level" yaml:"ice_threat_level"`
	Housing        Housing        `json:"housing" yaml:"housing"`
}

// Inspection is the most recent inspection on record.
type Inspection struct {
	LastType         string `json:"last_type" yaml:"last_type"`
	LastTypeExpanded string `json:"last_type_expanded" yaml:"last_type_expanded"`
	LastDate         string `json:"last_date" yaml:"last_date"`
	LastStandard     string `json:"last_standard" yaml:"last_standard"`
	LastRating       string `json:"last_rating" yaml:"last_rating"`
}

// PageLink is an enrichment result: the page found, if any, and every query
// tried along the way. SearchQuery is diagnostic text only.
type PageLink struct {
	PageURL     string   `json:"page_url" yaml:"page_url"`
	SearchQuery []string `json:"search_query" yaml:"search_query"`
}

// OSM holds coordinates and the OpenStreetMap link for a facility.
type OSM struct {
	Latitude    float64  `json:"latitude" yaml:"latitude"`
	Longitude   float64  `json:"longitude" yaml:"longitude"`
	URL         string   `json:"url" yaml:"url"`
	SearchQuery []string `json:"search_query" yaml:"search_query"`
}

// Located reports whether the facility has coordinates.
func (o OSM) Located() bool {
	return o.Latitude != 0 || o.Longitude != 0
}

// Facility is the canonical record for one detention facility.
type Facility struct {
	Name            string       `json:"name" yaml:"name"`
	OtherNames      []string     `json:"other_names" yaml:"other_names" merge:"union"`
	Address         Address      `json:"address" yaml:"address"`
	AddressStr      string       `json:"address_str" yaml:"address_str"`
	FacilityType    FacilityType `json:"facility_type" yaml:"facility_type"`
	FieldOffice     FieldOffice  `json:"field_office" yaml:"field_office"`
	Phone           string       `json:"phone" yaml:"phone"`
	OtherPhones     []string     `json:"other_phones" yaml:"other_phones" merge:"union"`
	Population      Population   `json:"population" yaml:"population"`
	Inspection      Inspection   `json:"inspection" yaml:"inspection"`
	ImageURL        string       `json:"image_url" yaml:"image_url"`
	PageUpdatedDate string       `json:"page_updated_date" yaml:"page_updated_date"`
	SourceURLs      []string     `json:"source_urls" yaml:"source_urls" merge:"union"`
	RepairedRecord  bool         `json:"_repaired_record" yaml:"_repaired_record"`
	VeraID          string       `json:"vera_id" yaml:"vera_id"`
	OSM             OSM          `json:"osm" yaml:"osm"`
	Wikipedia       PageLink     `json:"wikipedia" yaml:"wikipedia"`
	Wikidata        PageLink     `json:"wikidata" yaml:"wikidata"`
}

// OnlySourcedFrom reports whether every source URL contains fragment.
func (f *Facility) OnlySourcedFrom(fragment string) bool {
	if len(f.SourceURLs) == 0 {
		return false
	}
	for _, u := range f.SourceURLs {
		if !containsFold(u, fragment) {
			return false
		}
	}
	return true
}

// AddSourceURL appends u unless it is already present.
func (f *Facility) AddSourceURL(u string) {
	f.SourceURLs = AppendUnique(f.SourceURLs, u)
}

// AppendUnique appends each value not already in list, preserving order.
// Empty strings are ignored.
func AppendUnique(list []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		found := false
		for _, existing := range list {
			if existing == v {
				found = true
				break
			}
		}
		if !found {
			list = append(list, v)
		}
	}
	return list
}
