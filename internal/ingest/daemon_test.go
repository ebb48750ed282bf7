package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wxoracle/wxoracle/internal/snapshot"
)

type fakeSource struct {
	name string
	obs  []snapshot.ObservationRow
	fc   []snapshot.ForecastRow
}

func (f *fakeSource) Name() string { return f.name }
func (f *fakeSource) FetchObservations(ctx context.Context) ([]snapshot.ObservationRow, error) {
	return f.obs, nil
}
func (f *fakeSource) FetchForecasts(ctx context.Context) ([]snapshot.ForecastRow, error) {
	return f.fc, nil
}

func TestDaemonRunStagesAndUploadsThenStopsOnCancel(t *testing.T) {
	var uploaded []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploaded = append(uploaded, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	dataDir := t.TempDir()
	src := &fakeSource{
		name: "test",
		obs: []snapshot.ObservationRow{
			{StationID: "KDEN", GeneratedAt: time.Now().UTC(), TemperatureValue: 5, TemperatureUnitCode: "C"},
		},
	}
	daemon := NewDaemon([]Source{src}, NewUploader(srv.URL), dataDir, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- daemon.Run(ctx) }()

	// Allow one cycle to complete before the sleep boundary, then cancel.
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after context cancellation")
	}

	if len(uploaded) != 1 {
		t.Fatalf("expected 1 upload, got %d: %v", len(uploaded), uploaded)
	}

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 staged file, got %d", len(entries))
	}
	if filepath.Ext(entries[0].Name()) != ".parquet" {
		t.Fatalf("expected a .parquet file, got %s", entries[0].Name())
	}
}

func TestDaemonRunSkipsSourcesWithNoRows(t *testing.T) {
	var uploadCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uploadCount++
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	daemon := NewDaemon([]Source{&fakeSource{name: "empty"}}, NewUploader(srv.URL), t.TempDir(), 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	daemon.Run(ctx)

	if uploadCount != 0 {
		t.Fatalf("expected no uploads for a source with no rows, got %d", uploadCount)
	}
}
