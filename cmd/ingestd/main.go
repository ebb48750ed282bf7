// Command ingestd runs the Ingestion Daemon (spec.md §4.F): a single
// long-lived loop that polls configured weather feeds, stages
// normalized snapshot files, and uploads them to the oracle's Upload
// Endpoint, following the teacher's cmd/remoteweather wiring style.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/wxoracle/wxoracle/internal/constants"
	"github.com/wxoracle/wxoracle/internal/ingest"
	"github.com/wxoracle/wxoracle/internal/log"
	"github.com/wxoracle/wxoracle/pkg/config"
)

func main() {
	for _, a := range os.Args[1:] {
		if a == "-version" || a == "--version" {
			fmt.Printf("ingestd %s (%s/%s)\n", constants.Version, runtime.GOOS, runtime.GOARCH)
			os.Exit(0)
		}
	}

	if err := log.Init(false); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.LoadDaemonConfig(os.Args[1:])
	if err != nil {
		log.Fatal("load daemon config: ", err)
	}
	if err := config.ValidateDaemon(cfg); err != nil {
		log.Fatal("invalid daemon config: ", err)
	}
	log.InitWithFile(cfg.LogLevel == "debug", cfg.LogFile)

	if err := run(cfg); err != nil {
		log.Fatal("ingestd: ", err)
	}
}

func run(cfg *config.DaemonConfig) error {
	if len(cfg.Sources) == 0 {
		return fmt.Errorf("no sources configured in daemon.toml")
	}

	sources := make([]ingest.Source, 0, len(cfg.Sources))
	for _, s := range cfg.Sources {
		sources = append(sources, ingest.NewHTTPSource(s.Name, s.ObservationsURL, s.ForecastsURL))
	}

	uploader := ingest.NewUploader(cfg.BaseURL)
	daemon := ingest.NewDaemon(sources, uploader, cfg.DataDir, time.Duration(cfg.SleepInterval)*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("ingestd: shutdown signal received, stopping...")
		cancel()
	}()

	log.Infof("ingestd: polling %d source(s) against %s every %ds", len(sources), cfg.BaseURL, cfg.SleepInterval)
	if err := daemon.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	log.Info("ingestd: shutdown complete")
	return nil
}
