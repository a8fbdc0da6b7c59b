// Package extract turns large machine-readable price files into a
// lazy, single-pass stream of raw billing line items without ever
// holding the whole document in memory.
package extract

import (
	"context"
	"io"
	"strings"

	"github.com/gyeh/mrfscan/internal/model"
)

// Extractor is a single-use, single-pass stream of RawLineItems over
// one MRF source. Restart by constructing a new one.
type Extractor interface {
	Run(ctx context.Context, report *model.ExtractReport, emit EmitFunc) error
	Metadata() Metadata
}

// New picks an extractor for the source. CSV-published MRFs are
// recognized by filename; everything else is treated as JSON, the
// dominant publication format.
func New(r io.Reader, sourceURL string) Extractor {
	if isCSVSource(sourceURL) {
		return NewCSVExtractor(r)
	}
	return NewJSONExtractor(r)
}

func isCSVSource(sourceURL string) bool {
	path := strings.ToLower(strippedQuery(sourceURL))
	return strings.HasSuffix(path, ".csv") || strings.HasSuffix(path, ".csv.gz")
}

func strippedQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
