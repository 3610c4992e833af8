package catalog

import (
	"strings"

	"github.com/facility-watch/detention-cli/internal/model"
)

// KeySeparator joins the parts of an identity key.
const KeySeparator = ","

// AddressKey joins normalized address parts into an identity key. It returns
// "" when any part is missing.
func AddressKey(street, locality, region, postalCode string) string {
	parts := []string{street, locality, region, postalCode}
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return ""
		}
	}
	return strings.ToUpper(strings.Join(parts, KeySeparator))
}

// BuildKey returns the identity key for an already-normalized facility,
// falling back to its raw name when the address is incomplete.
func BuildKey(f *model.Facility) string {
	a := f.Address
	if k := AddressKey(a.Street, a.Locality, a.AdministrativeArea, a.PostalCode); k != "" {
		return k
	}
	return f.Name
}
