// Package pipeline sequences discovery, extraction, normalization,
// and sink delivery for a full run.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gyeh/mrfscan/internal/config"
	"github.com/gyeh/mrfscan/internal/discovery"
	"github.com/gyeh/mrfscan/internal/fetch"
	"github.com/gyeh/mrfscan/internal/logging"
	"github.com/gyeh/mrfscan/internal/model"
	"github.com/gyeh/mrfscan/internal/normalize"
	"github.com/gyeh/mrfscan/internal/sink"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// Pipeline holds the collaborators for one run. Hospitals are
// processed by a bounded worker pool; the only shared mutable state is
// the fetch client's rate gate.
type Pipeline struct {
	Discovery  *discovery.Service
	Client     *fetch.Client
	Normalizer *normalize.Normalizer
	Sink       sink.Sink
	Log        zerolog.Logger
	Workers    int

	// RunID identifies this run in sink rows and the summary. Left
	// zero, Run assigns one.
	RunID uuid.UUID
}

// Run executes discovery and then one extraction pipeline per
// hospital. Per-hospital failures are recorded on the summary and the
// run continues; only discovery failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, cities []config.CityState) (*model.RunSummary, error) {
	totalStart := time.Now()
	if p.RunID == uuid.Nil {
		p.RunID = uuid.New()
	}
	summary := &model.RunSummary{RunID: p.RunID.String()}

	p.Log.Info().Int("cities", len(cities)).Msg("starting discovery")
	discStart := time.Now()
	hospitals, err := p.Discovery.Discover(ctx, cities)
	if err != nil {
		return nil, &PipelineError{Phase: "discovery", Err: err}
	}
	summary.DurationDiscovery = time.Since(discStart)
	summary.HospitalsDiscovered = len(hospitals)
	p.Log.Info().Int("hospitals", len(hospitals)).Str("duration", summary.DurationDiscovery.String()).Msg("discovery complete")

	results := p.processAll(ctx, hospitals)

	for _, res := range results {
		summary.Results = append(summary.Results, res)
		switch {
		case res.Skipped:
			summary.HospitalsSkipped++
		case res.Err != nil:
			summary.HospitalsFailed++
		default:
			summary.HospitalsExtracted++
		}
		for _, rep := range res.Reports {
			summary.RecordsEmitted += rep.RecordsEmitted
			summary.ItemsDropped += rep.ItemsDropped
		}
	}
	summary.DurationTotal = time.Since(totalStart)

	p.Log.Info().
		Int("extracted", summary.HospitalsExtracted).
		Int("skipped", summary.HospitalsSkipped).
		Int("failed", summary.HospitalsFailed).
		Int64("records", summary.RecordsEmitted).
		Int64("dropped", summary.ItemsDropped).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("run complete")

	return summary, ctx.Err()
}

// processAll fans hospitals out to a bounded worker pool. Results come
// back in the input order.
func (p *Pipeline) processAll(ctx context.Context, hospitals []model.Hospital) []model.HospitalResult {
	workers := p.Workers
	if workers <= 0 {
		workers = 1
	}
	if workers > len(hospitals) {
		workers = len(hospitals)
	}

	jobs := make(chan int)
	results := make([]model.HospitalResult, len(hospitals))

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.processHospital(ctx, hospitals[i])
			}
		}()
	}

dispatch:
	for i := range hospitals {
		select {
		case jobs <- i:
		case <-ctx.Done():
			// Stop handing out work; in-flight hospitals wind down on
			// their own context checks.
			break dispatch
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

// processHospital runs extraction over every MRF the hospital posted.
// A fetch or parse failure stops that hospital only.
func (p *Pipeline) processHospital(ctx context.Context, h model.Hospital) model.HospitalResult {
	log := logging.ForHospital(p.Log, h.Name, h.State)
	res := model.HospitalResult{Hospital: h}

	if !h.HasMRF() {
		log.Warn().Msg("no MRF URL, skipping extraction")
		res.Skipped = true
		return res
	}

	for _, mrfURL := range h.MRFURLs {
		report, err := p.processMRF(ctx, &h, mrfURL, log)
		if report != nil {
			res.Reports = append(res.Reports, report)
		}
		if err != nil {
			log.Error().Err(err).Str("url", mrfURL).Msg("extraction failed")
			res.Err = err
			break
		}
		if report.ShapeMismatch {
			log.Warn().Str("url", mrfURL).Msg("unrecognized MRF shape, no records extracted")
		} else {
			log.Info().
				Str("url", mrfURL).
				Int64("items", report.ItemsRead).
				Int64("records", report.RecordsEmitted).
				Int64("dropped", report.ItemsDropped).
				Msg("extraction complete")
		}
	}
	return res
}

func (p *Pipeline) processMRF(ctx context.Context, h *model.Hospital, mrfURL string, log zerolog.Logger) (*model.ExtractReport, error) {
	stream, err := p.Client.Open(ctx, mrfURL)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	return ProcessStream(ctx, stream, mrfURL, h, p.Normalizer, p.Sink, log)
}
