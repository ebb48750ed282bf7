package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wxoracle/wxoracle/internal/apierr"
)

func TestHTTPSourceFetchObservationsNormalizesFahrenheit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"station_id": "KDEN",
			"generated_at": "2026-03-01T14:30:05Z",
			"temperature_value": 32,
			"temperature_unit_code": "F"
		}]`))
	}))
	defer srv.Close()

	src := NewHTTPSource("test", srv.URL, srv.URL)
	rows, err := src.FetchObservations(context.Background())
	if err != nil {
		t.Fatalf("FetchObservations: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].TemperatureValue != 0 {
		t.Fatalf("expected 32F normalized to 0C, got %v", rows[0].TemperatureValue)
	}
	if rows[0].TemperatureUnitCode != "C" {
		t.Fatalf("expected normalized unit code C, got %q", rows[0].TemperatureUnitCode)
	}
}

func TestHTTPSourceFetchForecastsNormalizesBothTemps(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{
			"station_id": "KDEN",
			"generated_at": "2026-03-01T00:00:00Z",
			"begin_time": "2026-03-02T00:00:00Z",
			"end_time": "2026-03-03T00:00:00Z",
			"min_temp": 32,
			"max_temp": 212,
			"temperature_unit_code": "F"
		}]`))
	}))
	defer srv.Close()

	src := NewHTTPSource("test", srv.URL, srv.URL)
	rows, err := src.FetchForecasts(context.Background())
	if err != nil {
		t.Fatalf("FetchForecasts: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].MinTemp != 0 || rows[0].MaxTemp != 100 {
		t.Fatalf("expected min/max normalized to 0/100C, got %v/%v", rows[0].MinTemp, rows[0].MaxTemp)
	}
}

func TestHTTPSourceFetchObservationsRejectsUnknownUnit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"station_id": "KDEN", "generated_at": "2026-03-01T14:30:05Z", "temperature_value": 10, "temperature_unit_code": "K"}]`))
	}))
	defer srv.Close()

	src := NewHTTPSource("test", srv.URL, srv.URL)
	_, err := src.FetchObservations(context.Background())
	if apierr.KindOf(err) != apierr.DataUnavailable {
		t.Fatalf("expected DataUnavailable for an unrecognized unit code, got %v", err)
	}
}

func TestHTTPSourceFetchObservationsNon200IsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := NewHTTPSource("test", srv.URL, srv.URL)
	_, err := src.FetchObservations(context.Background())
	if apierr.KindOf(err) != apierr.Transient {
		t.Fatalf("expected Transient for a non-200 response, got %v", err)
	}
}

func TestHTTPSourceFetchObservationsMalformedJSONIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	src := NewHTTPSource("test", srv.URL, srv.URL)
	_, err := src.FetchObservations(context.Background())
	if apierr.KindOf(err) != apierr.Transient {
		t.Fatalf("expected Transient for malformed JSON, got %v", err)
	}
}
