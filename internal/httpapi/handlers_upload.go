package httpapi

import (
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/mux"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

// maxUploadBytes is the soft ceiling spec.md §5 describes as "bounded
// by payload size; no artificial cap below 100 MB" — 100 MB is exactly
// that floor, not an arbitrary smaller limit.
const maxUploadBytes = 100 << 20

// handleUploadFile implements `POST /file/{name}`, the Upload Endpoint
// of spec.md §4.G: validate the filename, stream the multipart file
// part to a temp file in the store directory, fsync, then hand off to
// Store.PlaceUpload for the atomic rename. A name that already exists
// on disk is a conflict, not an overwrite (daemon uploads are
// idempotent by name, not by content).
func (s *Server) handleUploadFile(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	f, err := snapshot.ParseName(name)
	if err != nil {
		writeError(w, err)
		return
	}

	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		writeError(w, apierr.New(apierr.InvalidInput, "expected multipart/form-data"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "parse multipart upload", err))
		return
	}

	part, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "missing \"file\" form part", err))
		return
	}
	defer part.Close()

	tmp, err := os.CreateTemp(s.snapshots.Dir(), ".upload-"+name+"-*")
	if err != nil {
		writeError(w, apierr.Wrap(apierr.Fatal, "create upload temp file", err))
		return
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once PlaceUpload renames it away

	if _, err := io.Copy(tmp, part); err != nil {
		tmp.Close()
		writeError(w, apierr.Wrap(apierr.Fatal, "write upload temp file", err))
		return
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		writeError(w, apierr.Wrap(apierr.Fatal, "fsync upload temp file", err))
		return
	}
	if err := tmp.Close(); err != nil {
		writeError(w, apierr.Wrap(apierr.Fatal, "close upload temp file", err))
		return
	}

	if err := s.snapshots.PlaceUpload(f.Name, tmpPath); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"file_name": f.Name})
}
