package model

import "time"

// ExtractReport accumulates per-hospital extraction diagnostics. It is
// surfaced in the run summary instead of being raised as failures.
type ExtractReport struct {
	SourceURL string

	ItemsRead      int64
	RecordsEmitted int64
	ItemsDropped   int64

	// UnrecognizedCodeTypes counts raw code-type spellings that did not
	// normalize into the allowed set.
	UnrecognizedCodeTypes map[string]int64

	// CodeTypePresence counts emitted records per canonical type.
	CodeTypePresence map[string]int64

	// ModifierCounts counts modifier tokens seen, including standalone
	// modifier_information entries.
	ModifierCounts map[string]int64

	ShapeMismatch bool
}

// NewExtractReport returns an empty report for one MRF source.
func NewExtractReport(sourceURL string) *ExtractReport {
	return &ExtractReport{
		SourceURL:             sourceURL,
		UnrecognizedCodeTypes: make(map[string]int64),
		CodeTypePresence:      make(map[string]int64),
		ModifierCounts:        make(map[string]int64),
	}
}

// CountDropped records one dropped line item with the given raw type.
func (r *ExtractReport) CountDropped(rawType string) {
	r.ItemsDropped++
	r.UnrecognizedCodeTypes[rawType]++
}

// CountEmitted records one emitted record of the given canonical type.
func (r *ExtractReport) CountEmitted(codeType string, modifiers []Modifier) {
	r.RecordsEmitted++
	r.CodeTypePresence[codeType]++
	for _, m := range modifiers {
		r.ModifierCounts[m.Token]++
	}
}

// HospitalResult is the outcome of one hospital's pipeline.
type HospitalResult struct {
	Hospital Hospital
	Reports  []*ExtractReport // one per MRF URL processed
	Err      error            // fetch or parse failure; nil on success or skip
	Skipped  bool             // no MRF URL available
}

// RunSummary aggregates metrics for a whole pipeline run.
type RunSummary struct {
	RunID string

	HospitalsDiscovered int
	HospitalsExtracted  int
	HospitalsSkipped    int
	HospitalsFailed     int

	RecordsEmitted int64
	ItemsDropped   int64

	Results []HospitalResult

	DurationDiscovery time.Duration
	DurationTotal     time.Duration
}
