package extract

import (
	"context"

	"github.com/gyeh/mrfscan/internal/model"
)

// Metadata is the top-level MRF header captured during extraction.
type Metadata struct {
	HospitalName     string
	Version          string
	LastUpdatedOn    string
	HospitalLocation string
	HospitalAddress  string
	LicenseNumber    string
	LicenseState     string
}

// EmitFunc receives each RawLineItem as soon as it is complete. A
// non-nil return stops extraction and propagates to the caller; the
// extractor keeps no reference to the item afterward.
type EmitFunc func(ctx context.Context, item model.RawLineItem) error

// JSON wire shapes for the nested CMS container. One chargeItem is in
// memory at a time; it is decoded, flattened, and discarded.

type chargeItem struct {
	Description     string           `json:"description"`
	BillingClass    string           `json:"billing_class"`
	CodeInformation []codeEntry      `json:"code_information"`
	StandardCharges []standardCharge `json:"standard_charges"`
	DrugInformation *drugInfo        `json:"drug_information"`
}

type codeEntry struct {
	Code string `json:"code"`
	Type string `json:"type"`
}

type standardCharge struct {
	GrossCharge            *float64    `json:"gross_charge"`
	DiscountedCash         *float64    `json:"discounted_cash"`
	Minimum                *float64    `json:"minimum"`
	Maximum                *float64    `json:"maximum"`
	Setting                string      `json:"setting"`
	Modifiers              []string    `json:"modifiers"`
	AdditionalGenericNotes *string     `json:"additional_generic_notes"`
	PayersInformation      []payerInfo `json:"payers_information"`
}

type payerInfo struct {
	PayerName                *string  `json:"payer_name"`
	PayerID                  *string  `json:"payer_id"`
	PlanName                 *string  `json:"plan_name"`
	StandardChargeDollar     *float64 `json:"standard_charge_dollar"`
	StandardChargePercentage *float64 `json:"standard_charge_percentage"`
	StandardChargeAlgorithm  *string  `json:"standard_charge_algorithm"`
	Methodology              *string  `json:"methodology"`
	NegotiatedMethodology    *string  `json:"negotiated_methodology"`
	EstimatedAmount          *float64 `json:"estimated_amount"`
	AdditionalPayerNotes     *string  `json:"additional_payer_notes"`
}

type drugInfo struct {
	Unit *float64 `json:"unit"`
	Type string   `json:"type"`
}

// flatItem is the simpler line-item shape some hospitals publish:
// code and code_type directly on the array element.
type flatItem struct {
	Code        string   `json:"code"`
	CodeType    string   `json:"code_type"`
	Description string   `json:"description"`
	Setting     string   `json:"setting"`
	Modifiers   []string `json:"modifiers"`

	GrossCharge    *float64 `json:"gross_charge"`
	DiscountedCash *float64 `json:"discounted_cash"`
	Minimum        *float64 `json:"minimum"`
	Maximum        *float64 `json:"maximum"`

	PayerName        *string  `json:"payer_name"`
	PlanName         *string  `json:"plan_name"`
	NegotiatedDollar *float64 `json:"negotiated_dollar"`
	EstimatedAmount  *float64 `json:"estimated_amount"`
}

// modifierEntry is a standalone modifier_information record. These
// carry no billing code; they only feed the report's modifier counts.
type modifierEntry struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type licenseInfo struct {
	LicenseNumber string `json:"license_number"`
	State         string `json:"state"`
}
