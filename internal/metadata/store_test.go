package metadata

import (
	"path/filepath"
	"testing"

	"gorm.io/gorm"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "oracle.db")
	store, err := Open(BackendSQLite, dsn)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenRunsMigrationsAndIsIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "oracle.db")
	first, err := Open(BackendSQLite, dsn)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	first.Close()

	// Reopening the same database re-runs the migrator against an
	// already-migrated schema.
	store, err := Open(BackendSQLite, dsn)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	if !store.DB.Migrator().HasTable(&Event{}) {
		t.Fatal("expected events table to exist after Open")
	}
	if !store.DB.Migrator().HasTable(&OracleIdentity{}) {
		t.Fatal("expected oracle_identities table to exist after Open")
	}
}

func TestEnsureOracleIdentityBootstrapsOnce(t *testing.T) {
	store := newTestStore(t)

	first, err := store.EnsureOracleIdentity("wxoracle", "02abc")
	if err != nil {
		t.Fatalf("EnsureOracleIdentity: %v", err)
	}
	second, err := store.EnsureOracleIdentity("wxoracle", "02def")
	if err != nil {
		t.Fatalf("EnsureOracleIdentity (second call): %v", err)
	}
	if first.ID != second.ID || second.Pubkey != "02abc" {
		t.Fatalf("expected identity bootstrap to be idempotent, got %+v then %+v", first, second)
	}
}

func TestWriteQueueSerializesWrites(t *testing.T) {
	store := newTestStore(t)

	ev := Event{
		EventID:                "test-event-1",
		TotalAllowedEntries:    4,
		NumberOfPlacesWin:      1,
		NumberOfValuesPerEntry: 1,
		Locations:              StringList{"KORD"},
		ScoringFields:          StringList{"temp_high"},
		OutcomeLabels:          StringList{"1", "2", "3", "4"},
		EventAnnouncement:      []byte("announcement"),
	}

	_, err := store.Queue.Submit(func(tx *gorm.DB) (interface{}, error) {
		return nil, tx.Create(&ev).Error
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	var got Event
	if err := store.DB.First(&got, "event_id = ?", "test-event-1").Error; err != nil {
		t.Fatalf("expected event to be persisted by the write queue: %v", err)
	}
	if len(got.Locations) != 1 || got.Locations[0] != "KORD" {
		t.Fatalf("expected Locations to round-trip through StringList, got %+v", got.Locations)
	}
}
