package normalize

import (
	"strings"

	"github.com/google/uuid"

	"github.com/gyeh/mrfscan/internal/model"
)

// ToChargeRow converts a CodeRecord into its DB-ready representation:
// money as integer cents, percentages as basis points, normalized
// payer/plan names, and a stable row hash.
func ToChargeRow(rec *model.CodeRecord, runID uuid.UUID, rowNum int64) *model.ChargeRow {
	row := &model.ChargeRow{
		RunID:        runID,
		SourceRowNum: rowNum,

		HospitalName: rec.HospitalName,
		HospitalZip:  optStr(rec.HospitalZip),
		State:        optStr(rec.State),
		SourceURL:    rec.SourceURL,

		Code:         rec.Code,
		CodeType:     rec.CodeType,
		Description:  optStr(rec.Description),
		Setting:      optStr(rec.Setting),
		BillingClass: optStr(rec.BillingClass),

		PayerName:     rec.PayerName,
		PayerNameNorm: NormalizeName(rec.PayerName),
		PayerID:       rec.PayerID,
		PlanName:      rec.PlanName,
		PlanNameNorm:  NormalizeName(rec.PlanName),

		GrossChargeCents:        DollarsToCents(rec.GrossCharge),
		DiscountedCashCents:     DollarsToCents(rec.DiscountedCash),
		MinChargeCents:          DollarsToCents(rec.MinCharge),
		MaxChargeCents:          DollarsToCents(rec.MaxCharge),
		NegotiatedDollarCents:   DollarsToCents(rec.NegotiatedDollar),
		NegotiatedPercentageBPS: PercentToBasisPoints(rec.NegotiatedPercentage),
		EstimatedAmountCents:    DollarsToCents(rec.EstimatedAmount),

		NegotiatedAlgorithm: rec.NegotiatedAlgorithm,
		Methodology:         rec.Methodology,

		DrugUnit:     rec.DrugUnit,
		DrugUnitType: rec.DrugUnitType,

		AdditionalNotes: rec.AdditionalNotes,
	}

	if len(rec.Modifiers) > 0 {
		tokens := make([]string, len(rec.Modifiers))
		for i, m := range rec.Modifiers {
			tokens[i] = m.Token
		}
		joined := strings.Join(tokens, "|")
		row.Modifiers = &joined
	}

	row.SourceRowHash = RowHashFromValues(rowNum,
		rec.HospitalName,
		rec.SourceURL,
		rec.Code,
		rec.CodeType,
		rec.Setting,
		derefStr(rec.PayerName),
		derefStr(rec.PlanName),
	)

	return row
}

func optStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefStr(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
