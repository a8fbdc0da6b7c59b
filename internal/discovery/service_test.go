package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/gyeh/mrfscan/internal/config"
	"github.com/gyeh/mrfscan/internal/fetch"
)

func testService(t *testing.T, mux *http.ServeMux, pageSize int) (*Service, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	retry := fetch.RetryConfig{MaxAttempts: 2, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
	client := fetch.NewClient(fetch.NewGate(0), retry, 5*time.Second, time.Second, zerolog.Nop())
	cfg := &config.Config{
		LocationAPIURL: srv.URL + "/locations",
		ProviderAPIURL: srv.URL + "/providers",
		PageSize:       pageSize,
	}
	return New(client, cfg, zerolog.Nop()), srv
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestDiscover_Pagination(t *testing.T) {
	const total = 5
	const pageSize = 2

	mux := http.NewServeMux()
	var offsets []int
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
		offsets = append(offsets, offset)

		var results []hospitalStub
		for i := offset; i < total && i < offset+pageSize; i++ {
			results = append(results, hospitalStub{
				ID:   fmt.Sprintf("prov-%d", i),
				Name: fmt.Sprintf("Hospital %d", i),
				City: "Houston", State: "TX",
			})
		}
		writeJSON(w, locationSearchResponse{Results: results, Total: total})
	})
	mux.HandleFunc("/providers", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Query().Get("id")
		writeJSON(w, map[string]any{
			"id": id,
			"organization": map[string]string{"name": "Org " + id, "zip": "77030"},
			"mrf_files": []map[string]string{
				{"url": "https://files.example.com/" + id + ".json", "last_updated": "2026-01-15"},
			},
		})
	})

	svc, _ := testService(t, mux, pageSize)
	hospitals, err := svc.Discover(context.Background(), []config.CityState{{City: "Houston", State: "TX"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(hospitals) != total {
		t.Fatalf("got %d hospitals, want %d", len(hospitals), total)
	}
	if len(offsets) != 3 || offsets[0] != 0 || offsets[1] != 2 || offsets[2] != 4 {
		t.Errorf("offsets = %v, want [0 2 4]", offsets)
	}

	h := hospitals[0]
	if h.Name != "Org prov-0" {
		t.Errorf("enriched name = %q", h.Name)
	}
	if h.Zip != "77030" {
		t.Errorf("enriched zip = %q", h.Zip)
	}
	if !h.HasMRF() || h.MRFURLs[0] != "https://files.example.com/prov-0.json" {
		t.Errorf("MRF URLs = %v", h.MRFURLs)
	}
	if h.MRFLastUpdated == nil || h.MRFLastUpdated.Year() != 2026 {
		t.Errorf("MRFLastUpdated = %v", h.MRFLastUpdated)
	}
}

func TestDiscover_OffsetIgnoredStopsPagination(t *testing.T) {
	mux := http.NewServeMux()
	var calls int
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		calls++
		// Full page every time, no total, offset ignored.
		writeJSON(w, locationSearchResponse{Results: []hospitalStub{
			{ID: "a", Name: "Alpha Hospital", City: "Houston", State: "TX"},
			{ID: "b", Name: "Beta Hospital", City: "Houston", State: "TX"},
		}})
	})
	mux.HandleFunc("/providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{
			"organization": map[string]string{"name": "Org " + r.URL.Query().Get("id")},
		})
	})

	svc, _ := testService(t, mux, 2)
	hospitals, err := svc.Discover(context.Background(), []config.CityState{{City: "Houston", State: "TX"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if calls != 2 {
		t.Errorf("location search saw %d calls, want 2 (repeated page must stop pagination)", calls)
	}
	if len(hospitals) != 2 {
		t.Fatalf("got %d hospitals, want 2", len(hospitals))
	}
	if hospitals[0].ProviderID != "a" || hospitals[1].ProviderID != "b" {
		t.Errorf("provider ids = %q, %q", hospitals[0].ProviderID, hospitals[1].ProviderID)
	}
}

func TestDiscover_EnrichmentFailureTolerated(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, locationSearchResponse{Results: []hospitalStub{
			{ID: "good", Name: "Good Hospital", City: "Houston", State: "TX"},
			{ID: "bad", Name: "Bad Hospital", City: "Houston", State: "TX"},
		}, Total: 2})
	})
	mux.HandleFunc("/providers", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("id") == "bad" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, map[string]any{
			"organization": map[string]string{"name": "Good Org"},
			"mrf_files":    []map[string]string{{"url": "https://files.example.com/good.json"}},
		})
	})

	svc, _ := testService(t, mux, 100)
	hospitals, err := svc.Discover(context.Background(), []config.CityState{{City: "Houston", State: "TX"}})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(hospitals) != 2 {
		t.Fatalf("got %d hospitals, want 2 (failed enrichment keeps partial record)", len(hospitals))
	}
	if !hospitals[0].HasMRF() {
		t.Error("good hospital lost its MRF URL")
	}
	if hospitals[1].HasMRF() {
		t.Error("bad hospital should have no MRF URL")
	}
	if hospitals[1].Name != "Bad Hospital" {
		t.Errorf("bad hospital name = %q, want the stub name", hospitals[1].Name)
	}
}

func TestDiscover_DeduplicatesAcrossCities(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		// The same provider turns up for both city queries.
		writeJSON(w, locationSearchResponse{Results: []hospitalStub{
			{ID: "shared", Name: "Regional Medical", City: r.URL.Query().Get("city"), State: "TX"},
		}, Total: 1})
	})
	mux.HandleFunc("/providers", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"organization": map[string]string{"name": "Regional Medical"}})
	})

	svc, _ := testService(t, mux, 100)
	hospitals, err := svc.Discover(context.Background(), []config.CityState{
		{City: "Houston", State: "TX"},
		{City: "Katy", State: "TX"},
	})
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(hospitals) != 1 {
		t.Errorf("got %d hospitals, want 1 after dedup", len(hospitals))
	}
}

func TestDiscover_SearchFailureAborts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/locations", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})

	svc, _ := testService(t, mux, 100)
	_, err := svc.Discover(context.Background(), []config.CityState{{City: "Houston", State: "TX"}})
	if err == nil {
		t.Fatal("expected error when the city search fails")
	}
}
