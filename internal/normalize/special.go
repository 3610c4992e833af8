package normalize

import "github.com/facility-watch/detention-cli/internal/model"

// GuantanamoName is the canonical name for the naval station facility, which
// is published under two names with disagreeing addresses.
const GuantanamoName = "Naval Station Guantanamo Bay (JTF Camp Six and Migrant Ops Center Main A)"

// Special patches facilities whose fixes do not fit a repair table. Keep this
// list short.
func Special(f *model.Facility) bool {
	switch f.Name {
	case GuantanamoName:
		before := f.Address
		f.Address.Country = "Cuba"
		f.Address.AdministrativeArea = "FPO"
		f.Address.Locality = "FPO"
		f.Address.PostalCode = "34009"
		f.Address.Street = "AVENUE C PSC 1005 BOX 55"
		return keepReplaced(f, before)
	case "JTF CAMP SIX":
		before := f.Address
		f.Address.Country = "Cuba"
		f.Address.AdministrativeArea = "FPO"
		f.OtherNames = model.AppendUnique(f.OtherNames, f.Name)
		f.Name = GuantanamoName
		keepReplaced(f, before)
		return true
	}
	return false
}

func keepReplaced(f *model.Facility, before model.Address) bool {
	changed := false
	if before.Street != f.Address.Street {
		f.Address.OtherStreets = model.AppendUnique(f.Address.OtherStreets, before.Street)
		changed = true
	}
	if before.Locality != f.Address.Locality {
		f.Address.OtherLocalities = model.AppendUnique(f.Address.OtherLocalities, before.Locality)
		changed = true
	}
	if before.PostalCode != f.Address.PostalCode {
		f.Address.OtherPostalCodes = model.AppendUnique(f.Address.OtherPostalCodes, before.PostalCode)
		changed = true
	}
	if before.AdministrativeArea != f.Address.AdministrativeArea || before.Country != f.Address.Country {
		changed = true
	}
	return changed
}
