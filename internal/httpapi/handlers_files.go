package httpapi

import (
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/log"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

// handleListFiles implements `GET /files?start=&end=&observations=&forecasts=`.
// start/end bound generated_at (defaulting to the beginning of time and
// now); observations/forecasts are boolean-ish flags selecting which
// kinds to include, defaulting to both.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	start, err := parseTimeParam(r, "start", time.Unix(0, 0).UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	end, err := parseTimeParam(r, "end", time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}

	includeObs := r.URL.Query().Get("observations") != "false"
	includeFc := r.URL.Query().Get("forecasts") != "false"

	var names []string
	if includeObs {
		files, err := s.snapshots.List(snapshot.KindObservations, start, end)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, f := range files {
			names = append(names, f.Name)
		}
	}
	if includeFc {
		files, err := s.snapshots.List(snapshot.KindForecasts, start, end)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, f := range files {
			names = append(names, f.Name)
		}
	}

	writeJSON(w, http.StatusOK, map[string][]string{"file_names": names})
}

// handleGetFile implements `GET /file/{name}`, streaming the raw
// parquet bytes with a 404 if the name doesn't resolve to a file on
// disk.
func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if _, err := snapshot.ParseName(name); err != nil {
		writeError(w, err)
		return
	}

	f, err := os.Open(s.snapshots.Path(name))
	if err != nil {
		writeError(w, apierr.Wrap(apierr.NotFound, "snapshot file not found", err))
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, f); err != nil {
		log.Errorf("http: stream snapshot %s: %v", name, err)
	}
}
