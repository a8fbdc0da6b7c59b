package extract

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"testing"

	"github.com/gyeh/mrfscan/internal/model"
)

func collect(t *testing.T, doc string) ([]model.RawLineItem, *model.ExtractReport) {
	t.Helper()
	var items []model.RawLineItem
	report := model.NewExtractReport("test.json")
	x := NewJSONExtractor(strings.NewReader(doc))
	err := x.Run(context.Background(), report, func(_ context.Context, item model.RawLineItem) error {
		items = append(items, item)
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return items, report
}

func TestFlatShape_OrderAndCount(t *testing.T) {
	var b strings.Builder
	b.WriteString(`{"hospital_name":"Mercy General","standard_charges":[`)
	const n = 25
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"code":"%05d","code_type":"CPT","description":"proc %d","gross_charge":%d.5}`, i, i, 100+i)
	}
	b.WriteString(`]}`)

	items, report := collect(t, b.String())
	if len(items) != n {
		t.Fatalf("got %d items, want %d", len(items), n)
	}
	for i, item := range items {
		if item.Code != fmt.Sprintf("%05d", i) {
			t.Fatalf("item %d out of order: code %q", i, item.Code)
		}
		if item.CodeType != "CPT" {
			t.Errorf("item %d code type = %q", i, item.CodeType)
		}
	}
	if report.ItemsRead != n {
		t.Errorf("ItemsRead = %d, want %d", report.ItemsRead, n)
	}
	if report.ShapeMismatch {
		t.Error("unexpected shape mismatch")
	}
}

func TestFlatShape_CodeTypeUppercased(t *testing.T) {
	items, _ := collect(t, `{"standard_charges":[{"code":"99213","code_type":" cpt "}]}`)
	if len(items) != 1 {
		t.Fatalf("got %d items", len(items))
	}
	if items[0].CodeType != "CPT" {
		t.Errorf("CodeType = %q, want CPT", items[0].CodeType)
	}
}

func TestNestedShape_Flattening(t *testing.T) {
	doc := `{
		"hospital_name": "Mercy General",
		"last_updated_on": "2026-01-15",
		"version": "2.0.0",
		"hospital_location": ["Main Campus", "North Annex"],
		"standard_charge_information": [
			{
				"description": "Office visit",
				"code_information": [
					{"code": "99213", "type": "CPT"},
					{"code": "J1100", "type": "HCPCS"}
				],
				"standard_charges": [
					{
						"setting": "outpatient",
						"gross_charge": 250.00,
						"discounted_cash": 175.00,
						"modifiers": ["26"],
						"payers_information": [
							{"payer_name": "Aetna", "plan_name": "PPO", "standard_charge_dollar": 120.50, "methodology": "fee schedule"},
							{"payer_name": "Cigna", "plan_name": "HMO", "standard_charge_percentage": 80.0}
						]
					}
				]
			}
		]
	}`

	items, report := collect(t, doc)
	// 2 codes x 1 charge x 2 payers.
	if len(items) != 4 {
		t.Fatalf("got %d items, want 4", len(items))
	}

	first := items[0]
	if first.Code != "99213" || first.CodeType != "CPT" {
		t.Errorf("first item code = %q/%q", first.Code, first.CodeType)
	}
	if first.PayerName == nil || *first.PayerName != "Aetna" {
		t.Errorf("first item payer = %v", first.PayerName)
	}
	if first.NegotiatedDollar == nil || *first.NegotiatedDollar != 120.50 {
		t.Errorf("first item negotiated dollar = %v", first.NegotiatedDollar)
	}
	if first.GrossCharge == nil || *first.GrossCharge != 250.00 {
		t.Errorf("first item gross = %v", first.GrossCharge)
	}
	if len(first.Modifiers) != 1 || first.Modifiers[0] != "26" {
		t.Errorf("first item modifiers = %v", first.Modifiers)
	}

	second := items[1]
	if second.PayerName == nil || *second.PayerName != "Cigna" {
		t.Errorf("second item payer = %v", second.PayerName)
	}
	if second.NegotiatedPercentage == nil || *second.NegotiatedPercentage != 80.0 {
		t.Errorf("second item percentage = %v", second.NegotiatedPercentage)
	}

	third := items[2]
	if third.Code != "J1100" || third.CodeType != "HCPCS" {
		t.Errorf("third item code = %q/%q", third.Code, third.CodeType)
	}

	if report.ItemsRead != 4 {
		t.Errorf("ItemsRead = %d, want 4", report.ItemsRead)
	}

	meta := func() Metadata {
		x := NewJSONExtractor(strings.NewReader(doc))
		r := model.NewExtractReport("test.json")
		x.Run(context.Background(), r, func(context.Context, model.RawLineItem) error { return nil })
		return x.Metadata()
	}()
	if meta.HospitalName != "Mercy General" {
		t.Errorf("HospitalName = %q", meta.HospitalName)
	}
	if meta.LastUpdatedOn != "2026-01-15" {
		t.Errorf("LastUpdatedOn = %q", meta.LastUpdatedOn)
	}
	if meta.HospitalLocation != "Main Campus; North Annex" {
		t.Errorf("HospitalLocation = %q", meta.HospitalLocation)
	}
}

func TestNestedShape_NoPayersStillEmits(t *testing.T) {
	doc := `{"standard_charge_information":[{
		"description": "MRI",
		"code_information": [{"code": "70551", "type": "CPT"}],
		"standard_charges": [{"setting": "outpatient", "gross_charge": 1200.00}]
	}]}`

	items, _ := collect(t, doc)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].PayerName != nil {
		t.Errorf("payer = %v, want nil", items[0].PayerName)
	}
	if items[0].GrossCharge == nil || *items[0].GrossCharge != 1200.00 {
		t.Errorf("gross = %v", items[0].GrossCharge)
	}
}

func TestNestedShape_ItemWrapper(t *testing.T) {
	doc := `{"standard_charge_information":{"item":[{
		"code_information": [{"code": "470", "type": "MS-DRG"}],
		"standard_charges": [{"setting": "inpatient"}]
	}]}}`

	items, _ := collect(t, doc)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if items[0].Code != "470" || items[0].CodeType != "MS-DRG" {
		t.Errorf("item = %q/%q", items[0].Code, items[0].CodeType)
	}
}

func TestShapeMismatch_NoContainer(t *testing.T) {
	items, report := collect(t, `{"hospital_name":"Mercy General","charges":[{"code":"1"}]}`)
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
	if !report.ShapeMismatch {
		t.Error("ShapeMismatch not set")
	}
}

func TestShapeMismatch_TopLevelArray(t *testing.T) {
	items, report := collect(t, `[{"code":"1"}]`)
	if len(items) != 0 {
		t.Fatalf("got %d items, want 0", len(items))
	}
	if !report.ShapeMismatch {
		t.Error("ShapeMismatch not set")
	}
}

func TestMalformedJSON_ParseError(t *testing.T) {
	x := NewJSONExtractor(strings.NewReader(`{"standard_charges":[{"code":"1",`))
	report := model.NewExtractReport("test.json")
	err := x.Run(context.Background(), report, func(context.Context, model.RawLineItem) error { return nil })
	if err == nil {
		t.Fatal("expected error for truncated document")
	}
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Errorf("error type %T, want *ParseError", err)
	}
}

func TestModifierInformation_CountsOnly(t *testing.T) {
	doc := `{
		"modifier_information": [
			{"code": "26", "description": "Professional component"},
			{"code": "26", "description": "Professional component"},
			{"code": "TC", "description": "Technical component"}
		],
		"standard_charges": [{"code": "99213", "code_type": "CPT"}]
	}`

	items, report := collect(t, doc)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if report.ModifierCounts["26"] != 2 {
		t.Errorf("ModifierCounts[26] = %d, want 2", report.ModifierCounts["26"])
	}
	if report.ModifierCounts["TC"] != 1 {
		t.Errorf("ModifierCounts[TC] = %d, want 1", report.ModifierCounts["TC"])
	}
}

func TestBOM_Tolerated(t *testing.T) {
	doc := "\xEF\xBB\xBF" + `{"standard_charges":[{"code":"99213","code_type":"CPT"}]}`
	items, _ := collect(t, doc)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
}

func TestEmitError_StopsExtraction(t *testing.T) {
	doc := `{"standard_charges":[
		{"code": "1", "code_type": "CPT"},
		{"code": "2", "code_type": "CPT"},
		{"code": "3", "code_type": "CPT"}
	]}`

	sentinel := errors.New("sink full")
	seen := 0
	x := NewJSONExtractor(strings.NewReader(doc))
	report := model.NewExtractReport("test.json")
	err := x.Run(context.Background(), report, func(context.Context, model.RawLineItem) error {
		seen++
		if seen == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v, want sentinel", err)
	}
	if seen != 2 {
		t.Errorf("emit called %d times, want 2", seen)
	}
}

func TestUnknownFields_Skipped(t *testing.T) {
	doc := `{
		"affirmation": {"affirmation": "true", "nested": {"deep": [1, 2, 3]}},
		"future_field": [[[1], [2]], "x"],
		"standard_charges": [{"code": "99213", "code_type": "CPT"}]
	}`
	items, report := collect(t, doc)
	if len(items) != 1 {
		t.Fatalf("got %d items, want 1", len(items))
	}
	if report.ShapeMismatch {
		t.Error("unexpected shape mismatch")
	}
}

func nestedDoc(n int) string {
	var b strings.Builder
	b.WriteString(`{"standard_charge_information":[`)
	for i := 0; i < n; i++ {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, `{"code_information":[{"code":"%d","type":"CPT"}],"standard_charges":[{"setting":"outpatient","gross_charge":%d}]}`, i, i)
	}
	b.WriteString(`]}`)
	return b.String()
}

func TestLargeDocument_Streams(t *testing.T) {
	const n = 5000
	count := 0
	x := NewJSONExtractor(strings.NewReader(nestedDoc(n)))
	report := model.NewExtractReport("test.json")
	err := x.Run(context.Background(), report, func(_ context.Context, item model.RawLineItem) error {
		if item.Code != fmt.Sprintf("%d", count) {
			return fmt.Errorf("out of order at %d: %q", count, item.Code)
		}
		count++
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != n {
		t.Errorf("emitted %d items, want %d", count, n)
	}
}

// peakHeapGrowth extracts a document of n items and returns the
// largest heap growth over the pre-run baseline, sampled while the
// stream is in flight. The document itself is allocated before the
// baseline so only the extractor's working set is measured.
func peakHeapGrowth(t *testing.T, n int) uint64 {
	t.Helper()
	doc := nestedDoc(n)

	runtime.GC()
	var base runtime.MemStats
	runtime.ReadMemStats(&base)

	var peak uint64
	count := 0
	x := NewJSONExtractor(strings.NewReader(doc))
	report := model.NewExtractReport("test.json")
	err := x.Run(context.Background(), report, func(_ context.Context, _ model.RawLineItem) error {
		count++
		if count%1000 == 0 || count == n {
			var ms runtime.MemStats
			runtime.ReadMemStats(&ms)
			if ms.HeapAlloc > base.HeapAlloc && ms.HeapAlloc-base.HeapAlloc > peak {
				peak = ms.HeapAlloc - base.HeapAlloc
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if count != n {
		t.Fatalf("emitted %d items, want %d", count, n)
	}
	return peak
}

func TestLargeDocument_BoundedMemory(t *testing.T) {
	// Keep the collector aggressive so sampled heap growth tracks the
	// extractor's live buffers rather than accumulated garbage.
	old := debug.SetGCPercent(10)
	defer debug.SetGCPercent(old)

	const bound = 8 << 20
	small := peakHeapGrowth(t, 10)
	large := peakHeapGrowth(t, 100_000)
	if small > bound || large > bound {
		t.Errorf("peak heap growth: n=10 %d bytes, n=100000 %d bytes, both must stay under %d", small, large, bound)
	}
}
