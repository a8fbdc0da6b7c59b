package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	goparquet "github.com/parquet-go/parquet-go"

	"github.com/gyeh/mrfscan/internal/model"
)

func sampleRecords() []model.CodeRecord {
	gross := 250.0
	payer := "Aetna"
	desc := "Professional component only"
	return []model.CodeRecord{
		{
			HospitalName: "Mercy General",
			State:        "TX",
			Code:         "99213",
			CodeType:     "CPT",
			Description:  "Office visit",
			Modifiers: []model.Modifier{
				{Token: "26", Description: &desc},
				{Token: "ZZ"},
			},
			GrossCharge: &gross,
			PayerName:   &payer,
			SourceURL:   "https://host/mrf.json",
		},
		{
			HospitalName: "Mercy General",
			State:        "TX",
			Code:         "470",
			CodeType:     "DRG",
			Description:  "Knee replacement",
			SourceURL:    "https://host/mrf.json",
		},
	}
}

func TestParquet_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.parquet")
	p, err := NewParquet(path)
	if err != nil {
		t.Fatalf("NewParquet: %v", err)
	}
	if err := p.Append(context.Background(), sampleRecords()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	stat, _ := f.Stat()
	pf, err := goparquet.OpenFile(f, stat.Size())
	if err != nil {
		t.Fatalf("open parquet: %v", err)
	}
	reader := goparquet.NewGenericReader[model.ParquetRow](pf)
	defer reader.Close()

	rows := make([]model.ParquetRow, 4)
	n, _ := reader.Read(rows)
	if n != 2 {
		t.Fatalf("read %d rows, want 2", n)
	}
	if rows[0].Code != "99213" || rows[0].CodeType != "CPT" {
		t.Errorf("row 0 = %q/%q", rows[0].Code, rows[0].CodeType)
	}
	if rows[0].PayerName == nil || *rows[0].PayerName != "Aetna" {
		t.Errorf("row 0 payer = %v", rows[0].PayerName)
	}
	if len(rows[0].Modifiers) != 2 || len(rows[0].ModifierDescriptions) != 2 {
		t.Fatalf("row 0 modifier lists = %v / %v", rows[0].Modifiers, rows[0].ModifierDescriptions)
	}
	if rows[0].ModifierDescriptions[1] != "" {
		t.Errorf("unknown modifier should have an empty description slot, got %q", rows[0].ModifierDescriptions[1])
	}
	if rows[1].Code != "470" || rows[1].GrossCharge != nil {
		t.Errorf("row 1 = %q, gross %v", rows[1].Code, rows[1].GrossCharge)
	}
}

func TestMemory_Append(t *testing.T) {
	m := NewMemory()
	if err := m.Append(context.Background(), sampleRecords()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := m.Append(context.Background(), sampleRecords()); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if m.Len() != 4 {
		t.Errorf("Len = %d, want 4", m.Len())
	}
	recs := m.Records()
	recs[0].Code = "mutated"
	if m.Records()[0].Code == "mutated" {
		t.Error("Records must return a copy")
	}
}
