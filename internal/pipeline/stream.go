package pipeline

import (
	"context"
	"io"

	"github.com/rs/zerolog"

	"github.com/gyeh/mrfscan/internal/extract"
	"github.com/gyeh/mrfscan/internal/model"
	"github.com/gyeh/mrfscan/internal/normalize"
	"github.com/gyeh/mrfscan/internal/sink"
)

// recordBatchSize bounds how many normalized records accumulate before
// a sink append. Batches handed to the sink are always complete; on
// cancellation the in-progress batch is discarded, never flushed.
const recordBatchSize = 2048

// ProcessStream runs one MRF stream end to end: extract, normalize,
// deliver to the sink in bounded batches. Used for both discovered
// URLs and local files. Returns the per-source report alongside any
// fetch/parse error; the report is valid even on failure.
func ProcessStream(ctx context.Context, r io.Reader, sourceURL string, h *model.Hospital, norm *normalize.Normalizer, out sink.Sink, log zerolog.Logger) (*model.ExtractReport, error) {
	report := model.NewExtractReport(sourceURL)
	ext := extract.New(r, sourceURL)

	batch := make([]model.CodeRecord, 0, recordBatchSize)
	emit := func(ctx context.Context, item model.RawLineItem) error {
		rec, ok := norm.Record(&item, h, sourceURL, report)
		if !ok {
			return nil
		}
		batch = append(batch, rec)
		if len(batch) >= recordBatchSize {
			if err := out.Append(ctx, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
		return nil
	}

	if err := ext.Run(ctx, report, emit); err != nil {
		return report, err
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	if len(batch) > 0 {
		if err := out.Append(ctx, batch); err != nil {
			return report, err
		}
	}

	if meta := ext.Metadata(); meta.HospitalName != "" && meta.HospitalName != h.Name {
		log.Debug().Str("mrf_hospital_name", meta.HospitalName).Msg("MRF header names a different hospital")
	}
	return report, nil
}
