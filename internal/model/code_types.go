package model

// CodeType represents one of the allowed canonical billing code types.
type CodeType struct {
	Name string // e.g. "CPT"
}

// AllCodeTypes lists the allowed canonical code types in fixed order.
// Line items whose raw type does not normalize into this set are
// dropped, never emitted with an unknown type.
var AllCodeTypes = []CodeType{
	{Name: "CPT"},
	{Name: "HCPCS"},
	{Name: "ICD"},
	{Name: "DRG"},
	{Name: "CDT"},
	{Name: "NDC"},
	{Name: "APC"},
}

// CodeTypeByName returns the CodeType for the given name, or ok=false.
func CodeTypeByName(name string) (CodeType, bool) {
	for _, ct := range AllCodeTypes {
		if ct.Name == name {
			return ct, true
		}
	}
	return CodeType{}, false
}

// CodeTypeNames returns the canonical names in fixed order.
func CodeTypeNames() []string {
	names := make([]string, len(AllCodeTypes))
	for i, ct := range AllCodeTypes {
		names[i] = ct.Name
	}
	return names
}
