// Package ingest implements the Ingestion Daemon (spec.md §4.F): a
// single-threaded periodic loop that polls configured weather feeds,
// normalizes their rows, stages them as local parquet files, and
// uploads them to the oracle's Upload Endpoint with retry.
package ingest

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/log"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

// Daemon runs the periodic poll-normalize-stage-upload cycle across
// every configured Source.
type Daemon struct {
	sources       []Source
	uploader      *Uploader
	dataDir       string
	sleepInterval time.Duration
	retryPolicy   apierr.RetryPolicy
}

// NewDaemon constructs a Daemon. sleepInterval is the pause between
// cycles (spec.md §4.F, §6 "sleep_interval").
func NewDaemon(sources []Source, uploader *Uploader, dataDir string, sleepInterval time.Duration) *Daemon {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Errorf("ingest: create data_dir %s: %v", dataDir, err)
	}
	return &Daemon{
		sources:       sources,
		uploader:      uploader,
		dataDir:       dataDir,
		sleepInterval: sleepInterval,
		retryPolicy:   apierr.DefaultRetryPolicy,
	}
}

// Run executes the poll loop until ctx is canceled. Each cycle is
// interruptible at its sleep boundary and between sources (spec.md
// §5 "daemon cycles are interruptible at sleep boundaries and between
// sources").
func (d *Daemon) Run(ctx context.Context) error {
	for {
		for _, src := range d.sources {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			d.pollSource(ctx, src)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.sleepInterval):
		}
	}
}

func (d *Daemon) pollSource(ctx context.Context, src Source) {
	generatedAt := time.Now().UTC().Truncate(time.Second)

	if obs, err := src.FetchObservations(ctx); err != nil {
		log.Errorf("ingest: %s: fetch observations: %v", src.Name(), err)
	} else if len(obs) > 0 {
		d.stageAndUpload(ctx, snapshot.KindObservations, generatedAt, obs)
	}

	if ctx.Err() != nil {
		return
	}

	if fc, err := src.FetchForecasts(ctx); err != nil {
		log.Errorf("ingest: %s: fetch forecasts: %v", src.Name(), err)
	} else if len(fc) > 0 {
		d.stageAndUpload(ctx, snapshot.KindForecasts, generatedAt, fc)
	}
}

// stageAndUpload writes rows to a local parquet file named for
// (kind, generatedAt) — overwriting any stale partial file from a
// previous crashed run at the same second, restart-safe per spec.md
// §4.F — then uploads it with exponential-backoff retry.
func stageAndUpload[T any](d *Daemon, ctx context.Context, kind snapshot.Kind, generatedAt time.Time, rows []T) {
	name := snapshot.Format(kind, generatedAt)

	var buf bytes.Buffer
	w := parquet.NewGenericWriter[T](&buf)
	if _, err := w.Write(rows); err != nil {
		log.Errorf("ingest: encode %s: %v", name, err)
		return
	}
	if err := w.Close(); err != nil {
		log.Errorf("ingest: close parquet writer for %s: %v", name, err)
		return
	}

	stagePath := filepath.Join(d.dataDir, name)
	if err := os.WriteFile(stagePath, buf.Bytes(), 0o644); err != nil {
		log.Errorf("ingest: stage %s: %v", name, err)
		return
	}

	err := apierr.Retry(ctx, d.retryPolicy, func() error {
		return d.uploader.Upload(ctx, name, buf.Bytes())
	})
	if err != nil {
		log.Errorf("ingest: upload %s: %v", name, err)
		return
	}
	log.Infof("ingest: uploaded %s (%d rows)", name, len(rows))
}

func (d *Daemon) stageAndUpload(ctx context.Context, kind snapshot.Kind, generatedAt time.Time, rows interface{}) {
	switch r := rows.(type) {
	case []snapshot.ObservationRow:
		stageAndUpload(d, ctx, kind, generatedAt, r)
	case []snapshot.ForecastRow:
		stageAndUpload(d, ctx, kind, generatedAt, r)
	}
}
