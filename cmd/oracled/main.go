// Command oracled runs the weather oracle: the Metadata Store, the
// Snapshot Store and its retention sweeper, the Event Lifecycle
// Engine, and the inbound HTTP surface (spec.md §6), following the
// teacher's cmd/remoteweather wiring style — flags parsed, logging
// initialized first, then the long-lived components constructed and
// handed a cancellable context.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/wxoracle/wxoracle/internal/constants"
	"github.com/wxoracle/wxoracle/internal/events"
	"github.com/wxoracle/wxoracle/internal/httpapi"
	"github.com/wxoracle/wxoracle/internal/log"
	"github.com/wxoracle/wxoracle/internal/metadata"
	"github.com/wxoracle/wxoracle/internal/nonce"
	"github.com/wxoracle/wxoracle/internal/snapshot"
	"github.com/wxoracle/wxoracle/pkg/config"
)

func main() {
	for _, a := range os.Args[1:] {
		if a == "-version" || a == "--version" {
			fmt.Printf("oracled %s (%s/%s)\n", constants.Version, runtime.GOOS, runtime.GOARCH)
			os.Exit(0)
		}
	}

	if err := log.Init(false); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadOracleConfig(os.Args[1:])
	if err != nil {
		log.Fatal("load oracle config: ", err)
	}
	if err := config.ValidateOracle(cfg); err != nil {
		log.Fatal("invalid oracle config: ", err)
	}
	log.InitWithFile(cfg.LogLevel == "debug", cfg.LogFile)

	if err := run(cfg); err != nil {
		log.Fatal("oracled: ", err)
	}
}

func run(cfg *config.OracleConfig) error {
	priv, err := nonce.LoadOrGenerateKey(cfg.PrivateKeyPath)
	if err != nil {
		return fmt.Errorf("load oracle signing key: %w", err)
	}

	store, err := metadata.Open(backendFor(cfg.EventDB), cfg.EventDB)
	if err != nil {
		return fmt.Errorf("open metadata store: %w", err)
	}
	defer store.Close()

	pubkeyHex := hex.EncodeToString(priv.PubKey().SerializeCompressed())
	if _, err := store.EnsureOracleIdentity("wxoracle", pubkeyHex); err != nil {
		return fmt.Errorf("bootstrap oracle identity: %w", err)
	}

	snapshots, err := snapshot.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open snapshot store: %w", err)
	}

	engine := events.NewEngine(store, snapshots, priv, cfg.FreezeWorkers)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sweeper := snapshot.NewSweeper(snapshots, cfg.SnapshotRetentionDays, time.Hour, inUseChecker(engine))
	go sweeper.Run(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	server := httpapi.NewServer(addr, engine, store, snapshots, priv.PubKey().SerializeCompressed())

	serverErrs := make(chan error, 1)
	go func() {
		log.Infof("oracled: listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrs <- err
		}
	}()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigs:
		log.Info("oracled: shutdown signal received, draining...")
	case err := <-serverErrs:
		log.Errorf("oracled: http server error: %v", err)
	case <-ctx.Done():
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("oracled: http server shutdown: %v", err)
	}

	log.Info("oracled: shutdown complete")
	return nil
}

// backendFor infers the metadata store backend from the event_db
// option: a postgres:// / postgresql:// DSN selects Postgres,
// everything else is treated as a sqlite file path (spec.md §6's
// event_db is documented only as "required", with no explicit scheme
// field, so the DSN prefix is the only signal available to pick a
// backend).
func backendFor(dsn string) metadata.Backend {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return metadata.BackendPostgres
	}
	return metadata.BackendSQLite
}

// inUseChecker adapts the Event Lifecycle Engine's active observation
// windows into the Snapshot Store sweeper's InUseChecker (spec.md
// §4.A): a file is in use if its generation time falls inside any
// unsigned event's observation window.
func inUseChecker(engine *events.Engine) snapshot.InUseChecker {
	return func(name string) bool {
		f, err := snapshot.ParseName(name)
		if err != nil {
			return false
		}
		windows, err := engine.ActiveObservationWindows()
		if err != nil {
			log.Warnf("oracled: sweeper in-use check: %v", err)
			return true
		}
		for _, w := range windows {
			if !f.GeneratedAt.Before(w.Start) && f.GeneratedAt.Before(w.End) {
				return true
			}
		}
		return false
	}
}
