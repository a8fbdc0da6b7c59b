// Package discovery finds hospitals in target cities and resolves the
// locations of their posted machine-readable price files.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/gyeh/mrfscan/internal/config"
	"github.com/gyeh/mrfscan/internal/fetch"
	"github.com/gyeh/mrfscan/internal/model"
	"github.com/gyeh/mrfscan/internal/normalize"
)

// Service queries the location-search and provider-info APIs through
// the shared rate-limited client.
type Service struct {
	client   *fetch.Client
	log      zerolog.Logger
	locURL   string
	provURL  string
	pageSize int
}

// New builds a Service from the run configuration.
func New(client *fetch.Client, cfg *config.Config, log zerolog.Logger) *Service {
	return &Service{
		client:   client,
		log:      log,
		locURL:   cfg.LocationAPIURL,
		provURL:  cfg.ProviderAPIURL,
		pageSize: cfg.PageSize,
	}
}

// Discover returns enriched hospital records for every configured
// city/state pair, de-duplicated by provider identifier. A failed
// enrichment keeps the partially filled record; a failed city search
// aborts discovery, since it means the whole batch would be missing.
func (s *Service) Discover(ctx context.Context, cities []config.CityState) ([]model.Hospital, error) {
	var hospitals []model.Hospital
	seen := make(map[string]bool)

	for _, cs := range cities {
		stubs, err := s.searchCity(ctx, cs.City, cs.State)
		if err != nil {
			return nil, fmt.Errorf("search %s, %s: %w", cs.City, cs.State, err)
		}
		s.log.Info().Str("city", cs.City).Str("state", cs.State).Int("hospitals", len(stubs)).Msg("location search complete")

		for _, stub := range stubs {
			if stub.ID != "" && seen[stub.ID] {
				continue
			}
			if stub.ID != "" {
				seen[stub.ID] = true
			}
			hospitals = append(hospitals, s.enrich(ctx, stub))
		}
	}
	return hospitals, nil
}

// maxSearchPages bounds pagination for one city. No metro area has
// anywhere near this many hospitals; hitting it means the API is not
// honoring offsets.
const maxSearchPages = 200

// searchCity pages through the location-search API until a short page
// or the reported total is reached. Some upstreams omit total and
// ignore offset, echoing the same full page forever; a repeated page
// or the maxSearchPages cap stops pagination instead of the rate gate
// hammering them until the run is cancelled.
func (s *Service) searchCity(ctx context.Context, city, state string) ([]hospitalStub, error) {
	var stubs []hospitalStub
	var prev []hospitalStub
	offset := 0

	for pages := 0; ; pages++ {
		params := url.Values{}
		params.Set("city", city)
		params.Set("state", state)
		params.Set("limit", strconv.Itoa(s.pageSize))
		params.Set("offset", strconv.Itoa(offset))

		body, err := s.client.Get(ctx, s.locURL, params)
		if err != nil {
			return nil, err
		}

		var page locationSearchResponse
		if err := json.Unmarshal(body, &page); err != nil {
			return nil, fmt.Errorf("decode location search page at offset %d: %w", offset, err)
		}

		if samePage(page.Results, prev) {
			s.log.Warn().Str("city", city).Int("offset", offset).Msg("location search ignoring offset, stopping pagination")
			break
		}
		prev = page.Results

		stubs = append(stubs, page.Results...)
		offset += len(page.Results)

		if len(page.Results) < s.pageSize {
			break
		}
		if page.Total > 0 && offset >= page.Total {
			break
		}
		if pages+1 >= maxSearchPages {
			s.log.Warn().Str("city", city).Int("pages", pages+1).Msg("location search page cap reached, stopping pagination")
			break
		}
	}
	return stubs, nil
}

// samePage reports whether the API returned the previous page again.
func samePage(a, b []hospitalStub) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}

// enrich fills in organizational detail and MRF locations for one
// stub. Enrichment failure is per-hospital: log, keep the partial
// record, and let downstream skip it when no MRF URL is known.
func (s *Service) enrich(ctx context.Context, stub hospitalStub) model.Hospital {
	h := model.Hospital{
		Name:       stub.Name,
		City:       stub.City,
		State:      stub.State,
		Zip:        stub.Zip,
		Address:    stub.Address,
		ProviderID: stub.ID,
	}

	if stub.ID == "" {
		s.log.Warn().Str("hospital", stub.Name).Msg("stub has no provider id, skipping enrichment")
		return h
	}

	params := url.Values{}
	params.Set("id", stub.ID)
	body, err := s.client.Get(ctx, s.provURL, params)
	if err != nil {
		s.log.Warn().Err(err).Str("hospital", stub.Name).Msg("provider info fetch failed, keeping partial record")
		return h
	}

	var info providerInfoResponse
	if err := json.Unmarshal(body, &info); err != nil {
		s.log.Warn().Err(err).Str("hospital", stub.Name).Msg("provider info malformed, keeping partial record")
		return h
	}

	if info.Organization.Name != "" {
		h.Name = info.Organization.Name
	}
	if info.Organization.Address != "" {
		h.Address = info.Organization.Address
	}
	if info.Organization.Zip != "" {
		h.Zip = info.Organization.Zip
	}
	for _, f := range info.MRFFiles {
		if f.URL == "" {
			continue
		}
		h.MRFURLs = append(h.MRFURLs, f.URL)
		if h.MRFLastUpdated == nil {
			h.MRFLastUpdated = normalize.ParseDate(f.LastUpdated)
		}
	}
	if !h.HasMRF() {
		s.log.Warn().Str("hospital", h.Name).Msg("no MRF location posted")
	}
	return h
}
