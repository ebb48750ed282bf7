package snapshot

import (
	"context"
	"os"
	"time"

	"github.com/wxoracle/wxoracle/internal/log"
)

// InUseChecker reports whether a snapshot file name is referenced by
// any in-progress event, so the sweeper never deletes a file an
// AWAITING_SIGN event still needs (spec.md §4.A).
type InUseChecker func(name string) bool

// Sweeper periodically removes snapshot files older than a retention
// horizon. It is the only component allowed to delete snapshot files;
// the Store itself is append-only.
type Sweeper struct {
	store      *Store
	retention  time.Duration
	interval   time.Duration
	inUse      InUseChecker
}

// NewSweeper constructs a background retention sweeper. retentionDays
// defaults to spec.md §4.A's 30-day horizon when zero.
func NewSweeper(store *Store, retentionDays int, interval time.Duration, inUse InUseChecker) *Sweeper {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	if interval <= 0 {
		interval = time.Hour
	}
	return &Sweeper{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		interval:  interval,
		inUse:     inUse,
	}
}

// Run blocks, sweeping on each interval tick until ctx is cancelled.
func (sw *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(sw.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sw.sweepOnce()
		}
	}
}

func (sw *Sweeper) sweepOnce() {
	cutoff := time.Now().UTC().Add(-sw.retention)
	for _, kind := range []Kind{KindObservations, KindForecasts} {
		files, err := sw.store.List(kind, time.Time{}, cutoff)
		if err != nil {
			log.Errorf("snapshot sweeper: list %s: %v", kind, err)
			continue
		}
		for _, f := range files {
			if sw.inUse != nil && sw.inUse(f.Name) {
				continue
			}
			if err := os.Remove(sw.store.Path(f.Name)); err != nil && !os.IsNotExist(err) {
				log.Warnf("snapshot sweeper: remove %s: %v", f.Name, err)
				continue
			}
			log.Debugf("snapshot sweeper: removed expired file %s", f.Name)
		}
	}
}
