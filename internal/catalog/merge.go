package catalog

import (
	"reflect"

	"github.com/facility-watch/detention-cli/internal/model"
)

// unionTag marks []string fields that are unioned rather than filled.
const unionTag = "union"

// Merge folds src into dst and returns dst. Nested structs are walked field
// by field. A dst field is filled from src only while it holds its zero value
// (empty string, 0, false, empty slice); fields tagged merge:"union" are
// unioned in order without duplicates.
//
// A legitimate zero (a population count of 0) is indistinguishable from a
// missing value and will be filled by a later source.
func Merge(dst, src *model.Facility) *model.Facility {
	if dst == nil {
		return src
	}
	if src == nil {
		return dst
	}
	mergeStruct(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src).Elem())
	return dst
}

// MergeOffice folds src into dst with the same rules as Merge.
func MergeOffice(dst *model.FieldOffice, src model.FieldOffice) {
	mergeStruct(reflect.ValueOf(dst).Elem(), reflect.ValueOf(src))
}

func mergeStruct(dst, src reflect.Value) {
	t := dst.Type()
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		d, s := dst.Field(i), src.Field(i)

		switch {
		case field.Tag.Get("merge") == unionTag && d.Kind() == reflect.Slice:
			existing, _ := d.Interface().([]string)
			incoming, _ := s.Interface().([]string)
			if merged := model.AppendUnique(existing, incoming...); merged != nil {
				d.Set(reflect.ValueOf(merged))
			}
		case d.Kind() == reflect.Struct:
			mergeStruct(d, s)
		case d.Kind() == reflect.Slice:
			if d.Len() == 0 && s.Len() > 0 {
				cp := reflect.MakeSlice(s.Type(), s.Len(), s.Len())
				reflect.Copy(cp, s)
				d.Set(cp)
			}
		case d.Kind() == reflect.Map:
			if d.Len() == 0 && s.Len() > 0 {
				d.Set(s)
			}
		default:
			if d.IsZero() && !s.IsZero() {
				d.Set(s)
			}
		}
	}
}

// PreferAddress replaces the address of f with addr. The replaced street,
// locality and postal code, and any alternates already recorded, are carried
// into the new address's alternate lists.
func PreferAddress(f *model.Facility, addr model.Address) {
	old := f.Address
	if addr.Empty() {
		return
	}
	if old.Country != "" && addr.Country == "" {
		addr.Country = old.Country
	}
	addr.OtherStreets = model.AppendUnique(addr.OtherStreets, old.OtherStreets...)
	addr.OtherLocalities = model.AppendUnique(addr.OtherLocalities, old.OtherLocalities...)
	addr.OtherPostalCodes = model.AppendUnique(addr.OtherPostalCodes, old.OtherPostalCodes...)
	if old.Street != addr.Street {
		addr.OtherStreets = model.AppendUnique(addr.OtherStreets, old.Street)
	}
	if old.Locality != addr.Locality {
		addr.OtherLocalities = model.AppendUnique(addr.OtherLocalities, old.Locality)
	}
	if old.PostalCode != addr.PostalCode {
		addr.OtherPostalCodes = model.AppendUnique(addr.OtherPostalCodes, old.PostalCode)
	}
	f.Address = addr
}
