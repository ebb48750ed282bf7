// Package metadata implements the transactional Metadata Store
// (spec.md §4.C): oracle identity, events, entries, predictions, and
// frozen weather readings, behind a single-writer queue compatible
// with continuous log-shipping backup.
package metadata

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlitedriver "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/log"
	"github.com/wxoracle/wxoracle/pkg/migrate"
)

// Backend selects which SQL engine a Store is opened against.
// Sqlite is the default (spec.md §6 event_db path); cmd/oracled
// selects Postgres when event_db is a postgres:// or postgresql:// DSN.
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Store wraps a *gorm.DB opened against the configured backend,
// applying the pragmas and migrations spec.md §4.C requires. All
// writes must go through WriteQueue; reads may use DB directly
// against the connection pool.
type Store struct {
	DB      *gorm.DB
	Queue   *WriteQueue
	backend Backend
}

// Open opens (creating if absent) the metadata database at dsn using
// backend, runs pending migrations, and starts the single-writer
// queue. dsn is a sqlite file path for BackendSQLite or a full
// connection string for BackendPostgres.
func Open(backend Backend, dsn string) (*Store, error) {
	if backend == BackendSQLite {
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, apierr.Wrap(apierr.Fatal, "create metadata store directory", err)
			}
		}
	}

	gormLogger := gormlogger.New(
		gormStdLogger{},
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)

	var db *gorm.DB
	var err error
	switch backend {
	case BackendSQLite:
		db, err = gorm.Open(sqlitedriver.Open(dsn), &gorm.Config{
			Logger:         gormLogger,
			NamingStrategy: schema.NamingStrategy{SingularTable: true},
		})
	case BackendPostgres:
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger:         gormLogger,
			NamingStrategy: schema.NamingStrategy{SingularTable: true},
		})
	default:
		return nil, apierr.New(apierr.InvalidInput, fmt.Sprintf("unknown metadata store backend %q", backend))
	}
	if err != nil {
		return nil, apierr.Wrap(apierr.Transient, "open metadata store", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "obtain underlying *sql.DB", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if backend == BackendSQLite {
		if err := applySQLitePragmas(sqlDB); err != nil {
			return nil, err
		}
	}

	if err := runMigrations(sqlDB, string(backend)); err != nil {
		return nil, err
	}

	store := &Store{DB: db, backend: backend}
	store.Queue = NewWriteQueue(db)
	go store.Queue.Run()

	return store, nil
}

// applySQLitePragmas sets the WAL/NORMAL/foreign-keys/busy-timeout/
// cache-size pragmas spec.md §4.C requires for the sqlite path.
func applySQLitePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA cache_size = -65536", // 64 MB, negative means KB
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return apierr.Wrap(apierr.Fatal, fmt.Sprintf("apply pragma %q", p), err)
		}
	}
	return nil
}

func runMigrations(db *sql.DB, driverName string) error {
	provider := newEmbedProvider(migrationFS, "migrations", driverName)
	migrator := migrate.NewMigrator(db, provider)
	if err := migrator.MigrateUp(); err != nil {
		return apierr.Wrap(apierr.Fatal, "run metadata store migrations", err)
	}
	return nil
}

// EnsureOracleIdentity verifies the singleton oracle identity row
// exists, creating it with pubkeyHex if absent (spec.md §4.C). It
// returns the persisted identity either way, so a restart reuses the
// same keypair's pubkey rather than silently minting a second
// identity.
func (s *Store) EnsureOracleIdentity(name, pubkeyHex string) (OracleIdentity, error) {
	var existing OracleIdentity
	err := s.DB.First(&existing).Error
	if err == nil {
		return existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return OracleIdentity{}, apierr.Wrap(apierr.Transient, "query oracle identity", err)
	}

	identity := OracleIdentity{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Pubkey:    pubkeyHex,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	result, err := s.Queue.Submit(func(tx *gorm.DB) (interface{}, error) {
		if err := tx.Create(&identity).Error; err != nil {
			return nil, err
		}
		return identity, nil
	})
	if err != nil {
		return OracleIdentity{}, apierr.Wrap(apierr.Transient, "create oracle identity", err)
	}
	log.Infof("metadata: bootstrapped oracle identity %s", identity.ID)
	return result.(OracleIdentity), nil
}

// Close drains the write queue and closes the underlying connection.
func (s *Store) Close() error {
	s.Queue.Close()
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// gormStdLogger adapts the zap-based package logger to gorm's writer
// interface, matching the teacher's pattern of routing gorm's own log
// lines through the application's structured logger.
type gormStdLogger struct{}

func (gormStdLogger) Printf(format string, args ...interface{}) {
	log.Infof(format, args...)
}
