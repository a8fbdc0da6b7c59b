// Package normalize classifies raw MRF line items against the
// controlled code-type vocabulary and assembles storage-ready records.
package normalize

import (
	"fmt"

	"github.com/gyeh/mrfscan/internal/codes"
	"github.com/gyeh/mrfscan/internal/model"
	"github.com/gyeh/mrfscan/internal/modifiers"
)

// Normalizer turns RawLineItems into CodeRecords using the two static
// tables. Pure per-item: the same item and tables always produce the
// same record, in input order.
type Normalizer struct {
	table   *codes.Table
	dict    *modifiers.Dictionary
	enabled map[string]bool // canonical types selected for this run
}

// New builds a Normalizer. enabledTypes restricts output to a subset
// of the allowed set; empty means all of it.
func New(table *codes.Table, dict *modifiers.Dictionary, enabledTypes []string) (*Normalizer, error) {
	enabled := make(map[string]bool, len(model.AllCodeTypes))
	if len(enabledTypes) == 0 {
		for _, ct := range model.AllCodeTypes {
			enabled[ct.Name] = true
		}
	} else {
		for _, name := range enabledTypes {
			if _, ok := model.CodeTypeByName(name); !ok {
				return nil, fmt.Errorf("unknown code type %q", name)
			}
			enabled[name] = true
		}
	}
	return &Normalizer{table: table, dict: dict, enabled: enabled}, nil
}

// Record classifies one line item. ok=false means the item was dropped
// (unrecognized or disabled code type) and counted on the report; a
// record is never emitted with a type outside the allowed set.
func (n *Normalizer) Record(item *model.RawLineItem, hospital *model.Hospital, sourceURL string, report *model.ExtractReport) (model.CodeRecord, bool) {
	canonical, ok := n.table.Lookup(item.CodeType)
	if !ok {
		report.CountDropped(item.CodeType)
		return model.CodeRecord{}, false
	}
	// The table construction guarantees membership; check anyway so a
	// future table source can never smuggle in an unknown type.
	if _, allowed := model.CodeTypeByName(canonical); !allowed {
		report.CountDropped(item.CodeType)
		return model.CodeRecord{}, false
	}
	if !n.enabled[canonical] {
		report.CountDropped(item.CodeType)
		return model.CodeRecord{}, false
	}

	var mods []model.Modifier
	for _, token := range item.Modifiers {
		mods = append(mods, model.Modifier{
			Token:       token,
			Description: n.dict.Resolve(token),
		})
	}

	rec := model.CodeRecord{
		HospitalName: hospital.Name,
		HospitalZip:  hospital.Zip,
		State:        hospital.State,

		Code:        item.Code,
		CodeType:    canonical,
		Description: item.Description,
		Modifiers:   mods,

		Setting:      item.Setting,
		BillingClass: item.BillingClass,

		GrossCharge:    item.GrossCharge,
		DiscountedCash: item.DiscountedCash,
		MinCharge:      item.MinCharge,
		MaxCharge:      item.MaxCharge,

		PayerName:            item.PayerName,
		PayerID:              item.PayerID,
		PlanName:             item.PlanName,
		NegotiatedDollar:     item.NegotiatedDollar,
		NegotiatedPercentage: item.NegotiatedPercentage,
		NegotiatedAlgorithm:  item.NegotiatedAlgorithm,
		Methodology:          item.Methodology,
		EstimatedAmount:      item.EstimatedAmount,

		DrugUnit:     item.DrugUnit,
		DrugUnitType: item.DrugUnitType,

		AdditionalNotes: item.AdditionalNotes,

		SourceURL: sourceURL,
	}
	report.CountEmitted(canonical, mods)
	return rec, true
}
