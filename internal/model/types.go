package model

type typeInfo struct {
	ExpandedName string
	Description  string
}

// facilityTypes is extracted from the FY25 detention statistics workbook.
// USMSIGA and "USMS IGA" both appear in the source data.
var facilityTypes = map[string]typeInfo{
	"BOP": {
		ExpandedName: "Federal Bureau of Prisons",
		Description:  "A facility operated by the Federal Bureau of Prisons",
	},
	"DIGSA": {
		ExpandedName: "Dedicated Intergovernmental Service Agreement",
		Description:  "A publicly-owned facility operated by state/local government(s), or private contractors, in which ICE contracts to use all bed space via a Dedicated Intergovernmental Service Agreement; or facilities used by ICE pursuant to Inter-governmental Service Agreements, which house only ICE detainees. Typically these are operated by private contractors pursuant to their agreements with local governments.",
	},
	"IGSA": {
		ExpandedName: "Intergovernmental Service Agreement",
		Description:  "A publicly-owned facility operated by state/local government(s), or private contractors, in which ICE contracts for bed space via an Intergovernmental Service Agreement; or local jails used by ICE pursuant to Inter-governmental Service Agreements, which house both ICE and non-ICE detainees, typically county prisoners awaiting trial or serving short sentences, but sometimes also USMS prisoners.",
	},
	"SPC": {
		ExpandedName: "Service Processing Center",
		Description:  "A facility owned by the government and staffed by a combination of federal and contract employees.",
	},
	"USMS": {
		ExpandedName: "United States Marshals Service",
		Description:  "A facility primarily contracted with the USMS for housing of USMS detainees, in which ICE contracts with the USMS for bed space.",
	},
	"USMSIGA": {
		ExpandedName: "United States Marshal Service Intergovernmental Agreement",
		Description:  "A USMS Intergovernmental Agreement in which ICE agrees to utilize an already established US Marshal Service contract.",
	},
	"USMS IGA": {
		ExpandedName: "United States Marshal Service Intergovernmental Agreement",
		Description:  "A USMS Intergovernmental Agreement in which ICE agrees to utilize an already established US Marshal Service contract.",
	},
	"USMS CDF": {
		ExpandedName: "United States Marshal Service Contract Detention Facility",
		Description:  "Name derived from listing at https://www.vera.org/ice-detention-trends",
	},
	"CDF": {
		ExpandedName: "Contract Detention Facility",
		Description:  "Name derived from listing at https://www.vera.org/ice-detention-trends",
	},
	"STAGING": {
		ExpandedName: "Staging Facility",
		Description:  "A short-term hold facility used while detainees await transfer or removal.",
	},
}

// NewFacilityType builds a FacilityType for id, filling the expanded name and
// description when id is known.
func NewFacilityType(id string) FacilityType {
	ft := FacilityType{ID: id}
	if info, ok := facilityTypes[id]; ok {
		ft.ExpandedName = info.ExpandedName
		ft.Description = info.Description
	}
	return ft
}

var inspectionTypes = map[string]string{
	"ODO":      "Office of Detention Oversight",
	"Nakamoto": "Nakamoto Group",
	"Creative": "Creative Corrections",
}

// ExpandInspectionType returns the long form of an inspection type code, or
// the code itself when unknown.
func ExpandInspectionType(code string) string {
	if v, ok := inspectionTypes[code]; ok {
		return v
	}
	return code
}
