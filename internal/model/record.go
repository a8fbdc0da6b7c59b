package model

// Modifier pairs a billing modifier token with its human-readable
// meaning. Description is nil when the token is not in the dictionary;
// the record is kept either way.
type Modifier struct {
	Token       string
	Description *string
}

// CodeRecord is the normalized, storage-ready output unit for one
// billing line. CodeType is always a member of AllCodeTypes. Never
// mutated after creation.
type CodeRecord struct {
	HospitalName string
	HospitalZip  string
	State        string

	Code        string
	CodeType    string
	Description string
	Modifiers   []Modifier

	Setting      string
	BillingClass string

	// Charge fields carried through verbatim from the source.
	GrossCharge    *float64
	DiscountedCash *float64
	MinCharge      *float64
	MaxCharge      *float64

	PayerName            *string
	PayerID              *string
	PlanName             *string
	NegotiatedDollar     *float64
	NegotiatedPercentage *float64
	NegotiatedAlgorithm  *string
	Methodology          *string
	EstimatedAmount      *float64

	DrugUnit     *float64
	DrugUnitType *string

	AdditionalNotes *string

	SourceURL string
}
