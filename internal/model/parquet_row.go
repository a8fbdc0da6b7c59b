package model

import "strings"

// ParquetRow mirrors the Parquet schema for one normalized charge line.
// Money fields stay float64 to match the Parquet representation.
type ParquetRow struct {
	HospitalName string `parquet:"hospital_name"`
	HospitalZip  string `parquet:"hospital_zip"`
	State        string `parquet:"state"`
	SourceURL    string `parquet:"source_url"`

	Code        string `parquet:"code"`
	CodeType    string `parquet:"code_type"`
	Description string `parquet:"description"`

	Modifiers            []string `parquet:"modifiers,list"`
	ModifierDescriptions []string `parquet:"modifier_descriptions,list"`

	Setting      string `parquet:"setting"`
	BillingClass string `parquet:"billing_class"`

	PayerName *string `parquet:"payer_name,optional"`
	PayerID   *string `parquet:"payer_id,optional"`
	PlanName  *string `parquet:"plan_name,optional"`

	GrossCharge          *float64 `parquet:"gross_charge,optional"`
	DiscountedCash       *float64 `parquet:"discounted_cash,optional"`
	MinCharge            *float64 `parquet:"min_charge,optional"`
	MaxCharge            *float64 `parquet:"max_charge,optional"`
	NegotiatedDollar     *float64 `parquet:"negotiated_dollar,optional"`
	NegotiatedPercentage *float64 `parquet:"negotiated_percentage,optional"`
	NegotiatedAlgorithm  *string  `parquet:"negotiated_algorithm,optional"`
	Methodology          *string  `parquet:"methodology,optional"`
	EstimatedAmount      *float64 `parquet:"estimated_amount,optional"`

	DrugUnit     *float64 `parquet:"drug_unit,optional"`
	DrugUnitType *string  `parquet:"drug_unit_type,optional"`

	AdditionalNotes *string `parquet:"additional_notes,optional"`
}

// ToParquetRow converts a CodeRecord into its Parquet representation.
// Unknown modifier tokens get an empty description slot so the two
// lists stay index-aligned.
func ToParquetRow(rec *CodeRecord) ParquetRow {
	row := ParquetRow{
		HospitalName: rec.HospitalName,
		HospitalZip:  rec.HospitalZip,
		State:        rec.State,
		SourceURL:    rec.SourceURL,

		Code:        rec.Code,
		CodeType:    rec.CodeType,
		Description: strings.ToValidUTF8(rec.Description, "�"),

		Setting:      rec.Setting,
		BillingClass: rec.BillingClass,

		PayerName: rec.PayerName,
		PayerID:   rec.PayerID,
		PlanName:  rec.PlanName,

		GrossCharge:          rec.GrossCharge,
		DiscountedCash:       rec.DiscountedCash,
		MinCharge:            rec.MinCharge,
		MaxCharge:            rec.MaxCharge,
		NegotiatedDollar:     rec.NegotiatedDollar,
		NegotiatedPercentage: rec.NegotiatedPercentage,
		NegotiatedAlgorithm:  rec.NegotiatedAlgorithm,
		Methodology:          rec.Methodology,
		EstimatedAmount:      rec.EstimatedAmount,

		DrugUnit:     rec.DrugUnit,
		DrugUnitType: rec.DrugUnitType,

		AdditionalNotes: rec.AdditionalNotes,
	}
	for _, m := range rec.Modifiers {
		row.Modifiers = append(row.Modifiers, m.Token)
		if m.Description != nil {
			row.ModifierDescriptions = append(row.ModifierDescriptions, *m.Description)
		} else {
			row.ModifierDescriptions = append(row.ModifierDescriptions, "")
		}
	}
	return row
}
