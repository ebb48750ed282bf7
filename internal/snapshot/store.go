package snapshot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/log"
)

// Store is a directory-backed, append-only log of immutable snapshot
// files (spec.md §4.A). Files never mutate in place; inserts land via a
// temp-file-then-rename so concurrent readers only ever see a complete
// file.
type Store struct {
	dir string
}

// New returns a Store rooted at dir, creating the directory if absent.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "create snapshot store directory", err)
	}
	return &Store{dir: dir}, nil
}

// Dir returns the root directory the store is backed by.
func (s *Store) Dir() string { return s.dir }

// List returns every file of the given kind whose generated_at falls
// within [start, end], sorted by generated_at ascending.
func (s *Store) List(kind Kind, start, end time.Time) ([]File, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "read snapshot store directory", err)
	}

	var files []File
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		f, err := ParseName(e.Name())
		if err != nil {
			continue // not a snapshot file; ignore
		}
		if f.Kind != kind {
			continue
		}
		if f.GeneratedAt.Before(start) || f.GeneratedAt.After(end) {
			continue
		}
		files = append(files, f)
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].GeneratedAt.Before(files[j].GeneratedAt)
	})
	return files, nil
}

// Path returns the absolute filesystem path for a snapshot file name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// InsertObservations atomically writes an observation snapshot file.
func (s *Store) InsertObservations(kind Kind, generatedAt time.Time, rows []ObservationRow) (File, error) {
	if kind != KindObservations {
		return File{}, apierr.New(apierr.InvalidInput, "InsertObservations requires KindObservations")
	}
	name := Format(kind, generatedAt)
	if err := writeParquet(s.dir, name, rows); err != nil {
		return File{}, err
	}
	return File{Kind: kind, GeneratedAt: generatedAt.UTC(), Name: name}, nil
}

// InsertForecasts atomically writes a forecast snapshot file.
func (s *Store) InsertForecasts(kind Kind, generatedAt time.Time, rows []ForecastRow) (File, error) {
	if kind != KindForecasts {
		return File{}, apierr.New(apierr.InvalidInput, "InsertForecasts requires KindForecasts")
	}
	name := Format(kind, generatedAt)
	if err := writeParquet(s.dir, name, rows); err != nil {
		return File{}, err
	}
	return File{Kind: kind, GeneratedAt: generatedAt.UTC(), Name: name}, nil
}

// writeParquet is generic over the two row shapes; it writes to a temp
// file in the same directory and renames into place so readers never
// observe a partial file (spec.md §4.A, §5).
func writeParquet[T any](dir, name string, rows []T) error {
	finalPath := filepath.Join(dir, name)
	if _, err := os.Stat(finalPath); err == nil {
		return apierr.New(apierr.Conflict, fmt.Sprintf("snapshot %q already exists", name))
	}

	tmp, err := os.CreateTemp(dir, ".tmp-"+name+"-*")
	if err != nil {
		return apierr.Wrap(apierr.Fatal, "create temp snapshot file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	w := parquet.NewGenericWriter[T](tmp)
	if _, err := w.Write(rows); err != nil {
		tmp.Close()
		return apierr.Wrap(apierr.Fatal, "write snapshot rows", err)
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return apierr.Wrap(apierr.Fatal, "close snapshot writer", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return apierr.Wrap(apierr.Fatal, "fsync snapshot file", err)
	}
	if err := tmp.Close(); err != nil {
		return apierr.Wrap(apierr.Fatal, "close temp snapshot file", err)
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return apierr.Wrap(apierr.Fatal, "rename snapshot into place", err)
	}
	log.Debugf("snapshot store: wrote %s (%d rows)", name, len(rows))
	return nil
}

// PlaceUpload atomically places an already-written file (e.g. one
// streamed in by the Upload Endpoint) into the store under name,
// rejecting a duplicate. It is the file-already-on-disk counterpart to
// writeParquet, used by internal/httpapi's upload handler.
func (s *Store) PlaceUpload(name string, tmpPath string) error {
	finalPath := filepath.Join(s.dir, name)
	if _, err := os.Stat(finalPath); err == nil {
		return apierr.New(apierr.Conflict, fmt.Sprintf("snapshot %q already exists", name))
	}
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return apierr.Wrap(apierr.Fatal, "rename uploaded snapshot into place", err)
	}
	return nil
}
