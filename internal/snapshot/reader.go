package snapshot

import (
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"github.com/wxoracle/wxoracle/internal/apierr"
)

// ReadObservations opens and unions every file in files (which must all
// be KindObservations) into a single slice of rows. Each file is read
// fresh, in-memory, with no locking, since snapshot files never mutate
// in place (spec.md §4.A).
func (s *Store) ReadObservations(files []File) ([]ObservationRow, error) {
	var out []ObservationRow
	for _, f := range files {
		if f.Kind != KindObservations {
			return nil, apierr.New(apierr.InvalidInput, "ReadObservations given a non-observations file")
		}
		rows, err := readParquet[ObservationRow](s.Path(f.Name))
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// ReadForecasts opens and unions every file in files (which must all be
// KindForecasts) into a single slice of rows.
func (s *Store) ReadForecasts(files []File) ([]ForecastRow, error) {
	var out []ForecastRow
	for _, f := range files {
		if f.Kind != KindForecasts {
			return nil, apierr.New(apierr.InvalidInput, "ReadForecasts given a non-forecasts file")
		}
		rows, err := readParquet[ForecastRow](s.Path(f.Name))
		if err != nil {
			return nil, err
		}
		out = append(out, rows...)
	}
	return out, nil
}

// readParquet loads every row of a single file. Columns present in the
// file but absent from T are ignored; columns in T but absent from an
// older file read as their zero value — the union-compatible schema
// reconciliation spec.md §3 requires.
func readParquet[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apierr.Wrap(apierr.NotFound, "open snapshot file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "stat snapshot file", err)
	}

	pf, err := parquet.OpenFile(f, info.Size())
	if err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "open parquet file (corrupt snapshot?)", err)
	}

	r := parquet.NewGenericReader[T](pf)
	defer r.Close()

	rows := make([]T, 0, r.NumRows())
	buf := make([]T, 512)
	for {
		n, err := r.Read(buf)
		rows = append(rows, buf[:n]...)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apierr.Wrap(apierr.Fatal, "read snapshot rows (corrupt file?)", err)
		}
		if n == 0 {
			break
		}
	}
	return rows, nil
}
