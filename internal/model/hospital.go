package model

import "time"

// Hospital is a discovered hospital with its posted MRF locations.
// Immutable once discovery has enriched it.
type Hospital struct {
	Name       string
	City       string
	State      string
	Zip        string
	Address    string
	ProviderID string

	// MRFURLs lists the hospital's machine-readable price files.
	// Empty means the hospital is skipped downstream, not an error.
	MRFURLs []string

	// MRFLastUpdated is the posting date reported by the provider-info
	// API, when it supplied one in a recognizable format.
	MRFLastUpdated *time.Time
}

// HasMRF reports whether at least one MRF location is known.
func (h *Hospital) HasMRF() bool {
	return len(h.MRFURLs) > 0
}
