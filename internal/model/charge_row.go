package model

import "github.com/google/uuid"

// ChargeRow is the DB-ready representation of one CodeRecord. Money is
// stored as int64 cents and percentages as int32 basis points so that
// aggregation never touches floating point.
type ChargeRow struct {
	RunID         uuid.UUID
	SourceRowNum  int64
	SourceRowHash []byte

	HospitalName string
	HospitalZip  *string
	State        *string
	SourceURL    string

	Code         string
	CodeType     string
	Description  *string
	Modifiers    *string // pipe-joined tokens
	Setting      *string
	BillingClass *string

	PayerName     *string
	PayerNameNorm *string
	PayerID       *string
	PlanName      *string
	PlanNameNorm  *string

	GrossChargeCents        *int64
	DiscountedCashCents     *int64
	MinChargeCents          *int64
	MaxChargeCents          *int64
	NegotiatedDollarCents   *int64
	NegotiatedPercentageBPS *int32
	EstimatedAmountCents    *int64

	NegotiatedAlgorithm *string
	Methodology         *string

	DrugUnit     *float64
	DrugUnitType *string

	AdditionalNotes *string
}

// ChargeColumns returns the ordered column names for COPY into
// mrf.charge_records.
func ChargeColumns() []string {
	return []string{
		"run_id",
		"source_row_number",
		"source_row_hash",
		"hospital_name",
		"hospital_zip",
		"state",
		"source_url",
		"code",
		"code_type",
		"description",
		"modifiers",
		"setting",
		"billing_class",
		"payer_name",
		"payer_name_norm",
		"payer_id",
		"plan_name",
		"plan_name_norm",
		"gross_charge_cents",
		"discounted_cash_cents",
		"min_charge_cents",
		"max_charge_cents",
		"negotiated_dollar_cents",
		"negotiated_percentage_bps",
		"estimated_amount_cents",
		"negotiated_algorithm",
		"methodology",
		"drug_unit",
		"drug_unit_type",
		"additional_notes",
	}
}

// CopyValues returns the row's values in ChargeColumns order.
func (r *ChargeRow) CopyValues() []any {
	return []any{
		r.RunID,
		r.SourceRowNum,
		r.SourceRowHash,
		r.HospitalName,
		r.HospitalZip,
		r.State,
		r.SourceURL,
		r.Code,
		r.CodeType,
		r.Description,
		r.Modifiers,
		r.Setting,
		r.BillingClass,
		r.PayerName,
		r.PayerNameNorm,
		r.PayerID,
		r.PlanName,
		r.PlanNameNorm,
		r.GrossChargeCents,
		r.DiscountedCashCents,
		r.MinChargeCents,
		r.MaxChargeCents,
		r.NegotiatedDollarCents,
		r.NegotiatedPercentageBPS,
		r.EstimatedAmountCents,
		r.NegotiatedAlgorithm,
		r.Methodology,
		r.DrugUnit,
		r.DrugUnitType,
		r.AdditionalNotes,
	}
}
