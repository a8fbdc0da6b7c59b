package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gyeh/mrfscan/internal/model"
)

// shape recognizes one known line-item container layout. MRF schemas
// vary across hospitals; an unmatched document defaults to a shape
// mismatch instead of an error so one odd format never affects the
// other hospitals in a run.
type shape interface {
	match(key string) bool
	stream(ctx context.Context, x *JSONExtractor, report *model.ExtractReport, emit EmitFunc) error
}

func defaultShapes() []shape {
	return []shape{nestedShape{}, flatShape{}}
}

// nestedShape handles the CMS transparency layout: a
// standard_charge_information container (bare array, or an object
// whose "item" key holds the array) of items carrying code_information
// and standard_charges sub-arrays.
type nestedShape struct{}

func (nestedShape) match(key string) bool {
	return key == "standard_charge_information"
}

func (nestedShape) stream(ctx context.Context, x *JSONExtractor, report *model.ExtractReport, emit EmitFunc) error {
	tok, err := x.dec.Token()
	if err != nil {
		return &ParseError{Err: fmt.Errorf("read standard_charge_information: %w", err)}
	}
	d, ok := tok.(json.Delim)
	switch {
	case ok && d == '[':
		return streamItemArray(ctx, x, report, emit)
	case ok && d == '{':
		// Wrapper object form: {"item": [...]}; other keys skipped.
		for x.dec.More() {
			tok, err := x.dec.Token()
			if err != nil {
				return &ParseError{Err: fmt.Errorf("read container field: %w", err)}
			}
			key, _ := tok.(string)
			if key == "item" {
				open, err := x.dec.Token()
				if err != nil {
					return &ParseError{Err: fmt.Errorf("read item array: %w", err)}
				}
				if d, ok := open.(json.Delim); !ok || d != '[' {
					return skipRest(x.dec, open)
				}
				if err := streamItemArray(ctx, x, report, emit); err != nil {
					return err
				}
				continue
			}
			if err := skipValue(x.dec); err != nil {
				return &ParseError{Err: fmt.Errorf("skip container field %q: %w", key, err)}
			}
		}
		if _, err := x.dec.Token(); err != nil {
			return &ParseError{Err: fmt.Errorf("read container end: %w", err)}
		}
		return nil
	default:
		// Scalar where a container belongs: unrecognized layout.
		report.ShapeMismatch = true
		return nil
	}
}

func streamItemArray(ctx context.Context, x *JSONExtractor, report *model.ExtractReport, emit EmitFunc) error {
	for x.dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var item chargeItem
		if err := x.dec.Decode(&item); err != nil {
			return &ParseError{Err: fmt.Errorf("decode charge item: %w", err)}
		}
		if err := flattenChargeItem(ctx, &item, report, emit); err != nil {
			return err
		}
	}
	if _, err := x.dec.Token(); err != nil {
		return &ParseError{Err: fmt.Errorf("read item array end: %w", err)}
	}
	return nil
}

// flatShape handles the simpler layout some hospitals publish: a
// standard_charges array whose elements carry code and code_type
// directly.
type flatShape struct{}

func (flatShape) match(key string) bool {
	return key == "standard_charges"
}

func (flatShape) stream(ctx context.Context, x *JSONExtractor, report *model.ExtractReport, emit EmitFunc) error {
	tok, err := x.dec.Token()
	if err != nil {
		return &ParseError{Err: fmt.Errorf("read standard_charges: %w", err)}
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		report.ShapeMismatch = true
		return skipRest(x.dec, tok)
	}

	for x.dec.More() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var f flatItem
		if err := x.dec.Decode(&f); err != nil {
			return &ParseError{Err: fmt.Errorf("decode charge entry: %w", err)}
		}
		if f.Code == "" {
			continue
		}
		item := model.RawLineItem{
			Code:             f.Code,
			CodeType:         strings.ToUpper(strings.TrimSpace(f.CodeType)),
			Description:      strings.ToValidUTF8(f.Description, "�"),
			Setting:          f.Setting,
			Modifiers:        f.Modifiers,
			GrossCharge:      f.GrossCharge,
			DiscountedCash:   f.DiscountedCash,
			MinCharge:        f.Minimum,
			MaxCharge:        f.Maximum,
			PayerName:        f.PayerName,
			PlanName:         f.PlanName,
			NegotiatedDollar: f.NegotiatedDollar,
			EstimatedAmount:  f.EstimatedAmount,
		}
		report.ItemsRead++
		if err := emit(ctx, item); err != nil {
			return err
		}
	}
	if _, err := x.dec.Token(); err != nil {
		return &ParseError{Err: fmt.Errorf("read standard_charges end: %w", err)}
	}
	return nil
}
