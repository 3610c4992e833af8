package sources

import (
	_ "embed"
	"sort"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/facility-watch/detention-cli/internal/model"
)

//go:embed custom_facilities.yaml
var customFacilitiesYAML []byte

// CustomFacility is a curated record and the key it is stored under.
type CustomFacility struct {
	Key      string
	Facility *model.Facility
}

// CustomFacilities returns the curated facilities in key order. Each call
// decodes a fresh copy.
func CustomFacilities() ([]CustomFacility, error) {
	return parseCustomFacilities(customFacilitiesYAML)
}

func parseCustomFacilities(data []byte) ([]CustomFacility, error) {
	var byKey map[string]*model.Facility
	if err := yaml.Unmarshal(data, &byKey); err != nil {
		return nil, eris.Wrap(err, "sources: decode custom facilities")
	}
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]CustomFacility, 0, len(keys))
	for _, k := range keys {
		f := byKey[k]
		if f == nil || f.Name == "" {
			return nil, eris.Errorf("sources: custom facility %q has no name", k)
		}
		if f.FacilityType.ExpandedName == "" {
			f.FacilityType = model.NewFacilityType(f.FacilityType.ID)
		}
		out = append(out, CustomFacility{Key: k, Facility: f})
	}
	return out, nil
}
