package codes

import "testing"

func TestNewTable_Defaults(t *testing.T) {
	table, err := NewTable(nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if table.Len() == 0 {
		t.Fatal("default table is empty")
	}

	cases := map[string]string{
		"CPT":     "CPT",
		"CPT®":    "CPT",
		"HCPC":    "HCPCS",
		"MS-DRG":  "DRG",
		"APR-DRG": "DRG",
		"ICD-10":  "ICD",
		"ICD10CM": "ICD",
		"NDC":     "NDC",
		"APC":     "APC",
		"CDT":     "CDT",
	}
	for raw, want := range cases {
		got, ok := table.Lookup(raw)
		if !ok {
			t.Errorf("Lookup(%q): not found", raw)
			continue
		}
		if got != want {
			t.Errorf("Lookup(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestLookup_Unknown(t *testing.T) {
	table, err := NewTable(nil)
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	for _, raw := range []string{"RC", "LOCAL", "EAPG", ""} {
		if _, ok := table.Lookup(raw); ok {
			t.Errorf("Lookup(%q): expected miss", raw)
		}
	}
}

func TestNewTable_Configured(t *testing.T) {
	table, err := NewTable(map[string]string{"EAPG": "APC"})
	if err != nil {
		t.Fatalf("NewTable: %v", err)
	}
	if got, ok := table.Lookup("EAPG"); !ok || got != "APC" {
		t.Errorf("Lookup(EAPG) = %q, %v", got, ok)
	}
	// A configured table replaces the default mapping entirely.
	if _, ok := table.Lookup("CPT"); ok {
		t.Error("configured table should not contain default entries")
	}
}

func TestNewTable_BadTarget(t *testing.T) {
	_, err := NewTable(map[string]string{"CPT": "BOGUS"})
	if err == nil {
		t.Fatal("expected error for target outside the allowed set")
	}
}
