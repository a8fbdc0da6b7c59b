// Package codes holds the code-type normalization table: a static
// mapping from raw code-type spellings as they appear in MRF files to
// the canonical allowed set. Loaded once at startup, read-only after.
package codes

import (
	"fmt"

	"github.com/gyeh/mrfscan/internal/model"
)

// Table maps raw code-type spellings (exact, case-sensitive keys) to
// canonical code types. Safe for unsynchronized concurrent reads.
type Table struct {
	mapping map[string]string
}

// defaultMapping covers the spellings seen across real hospital MRFs.
// Keys are matched exactly; files commonly uppercase the label already.
var defaultMapping = map[string]string{
	"CPT":        "CPT",
	"CPT®":       "CPT",
	"HCPCS":      "HCPCS",
	"HCPC":       "HCPCS",
	"ICD":        "ICD",
	"ICD-9":      "ICD",
	"ICD-10":     "ICD",
	"ICD10":      "ICD",
	"ICD-10-CM":  "ICD",
	"ICD10CM":    "ICD",
	"ICD-10-PCS": "ICD",
	"DRG":        "DRG",
	"MS-DRG":     "DRG",
	"MSDRG":      "DRG",
	"APR-DRG":    "DRG",
	"APRDRG":     "DRG",
	"CDT":        "CDT",
	"NDC":        "NDC",
	"APC":        "APC",
}

// NewTable builds a Table from a configured mapping, falling back to
// the default mapping when cfg is empty. Every target must be a member
// of the allowed set; anything else is a configuration error, which is
// fatal to the run.
func NewTable(cfg map[string]string) (*Table, error) {
	src := cfg
	if len(src) == 0 {
		src = defaultMapping
	}
	m := make(map[string]string, len(src))
	for raw, canonical := range src {
		if _, ok := model.CodeTypeByName(canonical); !ok {
			return nil, fmt.Errorf("code type table: %q maps to unknown canonical type %q", raw, canonical)
		}
		m[raw] = canonical
	}
	return &Table{mapping: m}, nil
}

// Lookup resolves a raw code-type spelling. ok=false means the line
// item carrying it must be dropped.
func (t *Table) Lookup(raw string) (string, bool) {
	canonical, ok := t.mapping[raw]
	return canonical, ok
}

// Len returns the number of raw spellings in the table.
func (t *Table) Len() int {
	return len(t.mapping)
}
