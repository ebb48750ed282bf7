// Package httpapi exposes the oracle's inbound HTTP surface (spec.md
// §6): the Upload Endpoint, file listing/streaming, station and
// aggregation queries, and the event lifecycle. It is the thin glue
// layer spec.md §1 calls out as external to the core — no HTML
// templates, no TLS termination, no embedded dashboard — but it is
// still built the teacher's way, on `gorilla/mux` with a small
// logging middleware, the way `internal/controllers/restserver` wires
// its router.
package httpapi

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/events"
	"github.com/wxoracle/wxoracle/internal/log"
	"github.com/wxoracle/wxoracle/internal/metadata"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

// Server wires the oracle's engines to the inbound HTTP surface.
type Server struct {
	engine       *events.Engine
	store        *metadata.Store
	snapshots    *snapshot.Store
	oraclePubkey []byte // compressed secp256k1 public key
	http.Server
}

// NewServer constructs a Server bound to addr, ready for ListenAndServe.
func NewServer(addr string, engine *events.Engine, store *metadata.Store, snaps *snapshot.Store, oraclePubkey []byte) *Server {
	s := &Server{engine: engine, store: store, snapshots: snaps, oraclePubkey: oraclePubkey}
	s.Server.Addr = addr
	s.Server.Handler = s.router()
	return s
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/oracle/pubkey", s.handlePubkey).Methods(http.MethodGet)

	r.HandleFunc("/files", s.handleListFiles).Methods(http.MethodGet)
	r.HandleFunc("/file/{name}", s.handleGetFile).Methods(http.MethodGet)
	r.HandleFunc("/file/{name}", s.handleUploadFile).Methods(http.MethodPost)

	r.HandleFunc("/stations", s.handleListStations).Methods(http.MethodGet)
	r.HandleFunc("/stations/daily-observations", s.handleDailyObservations).Methods(http.MethodGet)
	r.HandleFunc("/stations/forecasts", s.handleDailyForecasts).Methods(http.MethodGet)

	r.HandleFunc("/events", s.handleCreateEvent).Methods(http.MethodPost)
	r.HandleFunc("/events/{id}", s.handleGetEvent).Methods(http.MethodGet)
	r.HandleFunc("/events/{id}/entries", s.handleSubmitEntry).Methods(http.MethodPost)
	r.HandleFunc("/events/{id}/sign", s.handleSignEvent).Methods(http.MethodPost)

	return r
}

func (s *Server) handlePubkey(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"key": base64.StdEncoding.EncodeToString(s.oraclePubkey)})
}

// loggingMiddleware logs method, path, status, and duration for every
// request, the way the teacher's httpLoggingMiddleware does, minus the
// multi-website bookkeeping that has no equivalent here.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		clientIP := r.RemoteAddr
		if host, _, err := net.SplitHostPort(clientIP); err == nil {
			clientIP = host
		}
		log.Infof("http: %s %s %d %s %s", r.Method, r.URL.Path, wrapped.statusCode, time.Since(start), clientIP)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (rw *statusRecorder) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("http: encode response: %v", err)
	}
}

// writeError maps an apierr.Kind onto the HTTP status spec.md §7
// implies for each kind and writes a JSON error body.
func writeError(w http.ResponseWriter, err error) {
	status := httpStatus(apierr.KindOf(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func httpStatus(kind apierr.Kind) int {
	switch kind {
	case apierr.InvalidInput:
		return http.StatusBadRequest
	case apierr.NotFound:
		return http.StatusNotFound
	case apierr.Conflict:
		return http.StatusConflict
	case apierr.DataUnavailable:
		return http.StatusServiceUnavailable
	case apierr.Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// parseTimeParam parses an ISO-8601/RFC3339 query parameter, falling
// back to def when the parameter is absent.
func parseTimeParam(r *http.Request, name string, def time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, apierr.New(apierr.InvalidInput, fmt.Sprintf("invalid %s: %v", name, err))
	}
	return t.UTC(), nil
}

func splitCSV(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Shutdown gracefully stops the server, honoring ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.Server.Shutdown(ctx)
}
