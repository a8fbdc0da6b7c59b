package extract

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/gyeh/mrfscan/internal/model"
)

// JSONExtractor streams one MRF JSON document and emits RawLineItems
// in document order. Peak memory stays at one decoded charge item
// regardless of file size: the container array is walked token by
// token and every emitted item is handed off before the next decode.
type JSONExtractor struct {
	dec    *json.Decoder
	meta   Metadata
	shapes []shape
}

// NewJSONExtractor wraps r in a large buffered reader, tolerating a
// UTF-8 BOM, and installs the default shape handlers.
func NewJSONExtractor(r io.Reader) *JSONExtractor {
	br := bufio.NewReaderSize(r, 256*1024)
	if bom, err := br.Peek(3); err == nil && len(bom) >= 3 && bom[0] == 0xEF && bom[1] == 0xBB && bom[2] == 0xBF {
		br.Discard(3)
	}
	return &JSONExtractor{
		dec:    json.NewDecoder(br),
		shapes: defaultShapes(),
	}
}

// Metadata returns the top-level header fields captured so far. Fully
// populated once Run returns.
func (x *JSONExtractor) Metadata() Metadata {
	return x.meta
}

// Run walks the document once. Recognized line-item containers stream
// through emit; an absent container yields zero items and marks the
// report's shape mismatch. Malformed JSON returns a *ParseError.
func (x *JSONExtractor) Run(ctx context.Context, report *model.ExtractReport, emit EmitFunc) error {
	tok, err := x.dec.Token()
	if err != nil {
		return &ParseError{Err: fmt.Errorf("read opening token: %w", err)}
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		report.ShapeMismatch = true
		return nil
	}

	matched := false
	for x.dec.More() {
		tok, err := x.dec.Token()
		if err != nil {
			return &ParseError{Err: fmt.Errorf("read field name: %w", err)}
		}
		key, ok := tok.(string)
		if !ok {
			return &ParseError{Err: fmt.Errorf("expected field name, got %T", tok)}
		}

		if h := x.shapeFor(key); h != nil {
			if err := h.stream(ctx, x, report, emit); err != nil {
				return err
			}
			matched = true
			continue
		}

		switch key {
		case "hospital_name":
			if err := x.decodeString(key, &x.meta.HospitalName); err != nil {
				return err
			}
		case "version":
			if err := x.decodeString(key, &x.meta.Version); err != nil {
				return err
			}
		case "last_updated_on":
			if err := x.decodeString(key, &x.meta.LastUpdatedOn); err != nil {
				return err
			}
		case "hospital_location", "location_name":
			if err := x.decodeStringish(key, &x.meta.HospitalLocation); err != nil {
				return err
			}
		case "hospital_address":
			if err := x.decodeStringish(key, &x.meta.HospitalAddress); err != nil {
				return err
			}
		case "license_information":
			var li licenseInfo
			if err := x.dec.Decode(&li); err != nil {
				return &ParseError{Err: fmt.Errorf("decode license_information: %w", err)}
			}
			x.meta.LicenseNumber = li.LicenseNumber
			x.meta.LicenseState = li.State
		case "modifier_information":
			if err := x.streamModifierInfo(report); err != nil {
				return err
			}
		default:
			if err := skipValue(x.dec); err != nil {
				return &ParseError{Err: fmt.Errorf("skip field %q: %w", key, err)}
			}
		}
	}

	// Consume the closing brace so truncation surfaces as ParseError.
	if _, err := x.dec.Token(); err != nil {
		return &ParseError{Err: fmt.Errorf("read closing token: %w", err)}
	}

	if !matched {
		report.ShapeMismatch = true
	}
	return nil
}

func (x *JSONExtractor) shapeFor(key string) shape {
	for _, s := range x.shapes {
		if s.match(key) {
			return s
		}
	}
	return nil
}

func (x *JSONExtractor) decodeString(key string, dst *string) error {
	if err := x.dec.Decode(dst); err != nil {
		return &ParseError{Err: fmt.Errorf("decode %s: %w", key, err)}
	}
	return nil
}

// decodeStringish accepts either a string or an array of strings;
// both forms occur for hospital_location and hospital_address.
func (x *JSONExtractor) decodeStringish(key string, dst *string) error {
	var raw json.RawMessage
	if err := x.dec.Decode(&raw); err != nil {
		return &ParseError{Err: fmt.Errorf("decode %s: %w", key, err)}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		*dst = s
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		*dst = strings.Join(list, "; ")
		return nil
	}
	// Unexpected scalar form: leave the field empty rather than fail.
	return nil
}

// streamModifierInfo walks the standalone modifier records, counting
// tokens on the report. These carry no billing code and produce no
// output records.
func (x *JSONExtractor) streamModifierInfo(report *model.ExtractReport) error {
	tok, err := x.dec.Token()
	if err != nil {
		return &ParseError{Err: fmt.Errorf("read modifier_information: %w", err)}
	}
	d, ok := tok.(json.Delim)
	if !ok || d != '[' {
		return skipRest(x.dec, tok)
	}
	for x.dec.More() {
		var m modifierEntry
		if err := x.dec.Decode(&m); err != nil {
			return &ParseError{Err: fmt.Errorf("decode modifier_information entry: %w", err)}
		}
		if m.Code != "" {
			report.ModifierCounts[m.Code]++
		}
	}
	if _, err := x.dec.Token(); err != nil {
		return &ParseError{Err: fmt.Errorf("read modifier_information end: %w", err)}
	}
	return nil
}

// flattenChargeItem expands one nested CMS item into RawLineItems:
// code entry × standard charge × payer. Charges without payer data
// still produce one item carrying the hospital-level amounts.
func flattenChargeItem(ctx context.Context, item *chargeItem, report *model.ExtractReport, emit EmitFunc) error {
	base := model.RawLineItem{
		Description:  strings.ToValidUTF8(item.Description, "�"),
		BillingClass: item.BillingClass,
	}
	if item.DrugInformation != nil {
		base.DrugUnit = item.DrugInformation.Unit
		if item.DrugInformation.Type != "" {
			t := item.DrugInformation.Type
			base.DrugUnitType = &t
		}
	}

	for _, code := range item.CodeInformation {
		if code.Code == "" {
			continue
		}
		coded := base
		coded.Code = code.Code
		coded.CodeType = strings.ToUpper(strings.TrimSpace(code.Type))

		if len(item.StandardCharges) == 0 {
			report.ItemsRead++
			if err := emit(ctx, coded); err != nil {
				return err
			}
			continue
		}

		for i := range item.StandardCharges {
			sc := &item.StandardCharges[i]
			charged := coded
			charged.Setting = sc.Setting
			charged.GrossCharge = sc.GrossCharge
			charged.DiscountedCash = sc.DiscountedCash
			charged.MinCharge = sc.Minimum
			charged.MaxCharge = sc.Maximum
			charged.Modifiers = sc.Modifiers
			charged.AdditionalNotes = sc.AdditionalGenericNotes

			if len(sc.PayersInformation) == 0 {
				report.ItemsRead++
				if err := emit(ctx, charged); err != nil {
					return err
				}
				continue
			}

			for j := range sc.PayersInformation {
				p := &sc.PayersInformation[j]
				payerItem := charged
				payerItem.PayerName = p.PayerName
				payerItem.PayerID = p.PayerID
				payerItem.PlanName = p.PlanName
				payerItem.NegotiatedDollar = p.StandardChargeDollar
				payerItem.NegotiatedPercentage = p.StandardChargePercentage
				payerItem.NegotiatedAlgorithm = p.StandardChargeAlgorithm
				payerItem.Methodology = firstNonNil(p.Methodology, p.NegotiatedMethodology)
				payerItem.EstimatedAmount = p.EstimatedAmount
				if p.AdditionalPayerNotes != nil {
					payerItem.AdditionalNotes = p.AdditionalPayerNotes
				}
				report.ItemsRead++
				if err := emit(ctx, payerItem); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func firstNonNil(a, b *string) *string {
	if a != nil {
		return a
	}
	return b
}

// skipValue consumes one JSON value token by token, so skipping a huge
// unknown field never buffers it.
func skipValue(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	return skipRest(dec, tok)
}

// skipRest finishes skipping a value whose first token was already read.
func skipRest(dec *json.Decoder, tok json.Token) error {
	d, ok := tok.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}
