package model

// RawLineItem is one billing line pulled out of an MRF document during
// streaming extraction, before code-type classification. One item is
// produced per code × charge × payer combination; the extractor hands
// each to its caller immediately and keeps no copy.
//
// Money fields stay as the source's float64 values; sinks decide how
// to store them.
type RawLineItem struct {
	Code        string
	CodeType    string // raw spelling as found in the file
	Description string
	Modifiers   []string

	Setting      string
	BillingClass string

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
}
