package snapshot

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/wxoracle/wxoracle/internal/apierr"
)

func floatPtr(v float64) *float64 { return &v }

func TestFormatAndParseNameRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 14, 30, 5, 0, time.UTC)
	name := Format(KindObservations, ts)
	if name != "observations_2026-03-01T14-30-05Z.parquet" {
		t.Fatalf("unexpected formatted name: %s", name)
	}

	f, err := ParseName(name)
	if err != nil {
		t.Fatalf("ParseName returned error: %v", err)
	}
	if f.Kind != KindObservations {
		t.Fatalf("expected KindObservations, got %s", f.Kind)
	}
	if !f.GeneratedAt.Equal(ts) {
		t.Fatalf("expected %v, got %v", ts, f.GeneratedAt)
	}
}

func TestParseNameRejectsGarbage(t *testing.T) {
	if _, err := ParseName("not-a-snapshot.txt"); err == nil {
		t.Fatal("expected error for unrecognized filename")
	}
}

func TestInsertListAndReadObservations(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	gen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []ObservationRow{
		{StationID: "KDEN", GeneratedAt: gen, TemperatureValue: 5.0, TemperatureUnitCode: "C", PrecipIn: floatPtr(0.0)},
		{StationID: "KBOS", GeneratedAt: gen, TemperatureValue: -2.0, TemperatureUnitCode: "C"},
	}

	f, err := store.InsertObservations(KindObservations, gen, rows)
	if err != nil {
		t.Fatalf("InsertObservations: %v", err)
	}

	files, err := store.List(KindObservations, gen.Add(-time.Hour), gen.Add(time.Hour))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 || files[0].Name != f.Name {
		t.Fatalf("expected to list the inserted file, got %+v", files)
	}

	got, err := store.ReadObservations(files)
	if err != nil {
		t.Fatalf("ReadObservations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got))
	}
}

func TestInsertObservationsRejectsDuplicate(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	gen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []ObservationRow{{StationID: "KDEN", GeneratedAt: gen, TemperatureValue: 1.0, TemperatureUnitCode: "C"}}

	if _, err := store.InsertObservations(KindObservations, gen, rows); err != nil {
		t.Fatalf("first insert: %v", err)
	}
	_, err = store.InsertObservations(KindObservations, gen, rows)
	if !apierr.Is(err, apierr.Conflict) {
		t.Fatalf("expected apierr.Conflict on duplicate insert, got %v", err)
	}
}

func TestInsertForecastsWrongKindRejected(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	_, err = store.InsertForecasts(KindObservations, time.Now().UTC(), nil)
	if !apierr.Is(err, apierr.InvalidInput) {
		t.Fatalf("expected apierr.InvalidInput, got %v", err)
	}
}

func TestPlaceUploadRejectsDuplicate(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	gen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	name := Format(KindObservations, gen)
	if _, err := store.InsertObservations(KindObservations, gen, []ObservationRow{
		{StationID: "KDEN", GeneratedAt: gen, TemperatureValue: 1.0, TemperatureUnitCode: "C"},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	tmp := filepath.Join(dir, ".tmp-upload")
	if err := store.PlaceUpload(name, tmp); !apierr.Is(err, apierr.Conflict) {
		t.Fatalf("expected apierr.Conflict, got %v", err)
	}
}

func TestSweeperSkipsInUseFiles(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	f, err := store.InsertObservations(KindObservations, old, []ObservationRow{
		{StationID: "KDEN", GeneratedAt: old, TemperatureValue: 1.0, TemperatureUnitCode: "C"},
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	sweeper := NewSweeper(store, 30, time.Hour, func(name string) bool {
		return name == f.Name
	})
	sweeper.sweepOnce()

	files, err := store.List(KindObservations, time.Time{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 1 {
		t.Fatalf("expected in-use file to survive sweep, got %d files", len(files))
	}
}

func TestSweeperRemovesExpiredFiles(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	old := time.Now().UTC().Add(-60 * 24 * time.Hour)
	if _, err := store.InsertObservations(KindObservations, old, []ObservationRow{
		{StationID: "KDEN", GeneratedAt: old, TemperatureValue: 1.0, TemperatureUnitCode: "C"},
	}); err != nil {
		t.Fatalf("insert: %v", err)
	}

	sweeper := NewSweeper(store, 30, time.Hour, nil)
	sweeper.sweepOnce()

	files, err := store.List(KindObservations, time.Time{}, time.Now().UTC())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected expired file to be removed, got %d files", len(files))
	}
}

func TestSweeperRunStopsOnContextCancel(t *testing.T) {
	store, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sweeper := NewSweeper(store, 30, time.Millisecond, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sweeper.Run(ctx)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after context cancellation")
	}
}
