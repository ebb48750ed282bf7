package httpapi

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"

	"github.com/wxoracle/wxoracle/internal/events"
	"github.com/wxoracle/wxoracle/internal/metadata"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := metadata.Open(metadata.BackendSQLite, filepath.Join(t.TempDir(), "oracle.db"))
	if err != nil {
		t.Fatalf("metadata.Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	snaps, err := snapshot.New(t.TempDir())
	if err != nil {
		t.Fatalf("snapshot.New: %v", err)
	}

	priv, err := btcec.NewPrivateKey()
	if err != nil {
		t.Fatalf("NewPrivateKey: %v", err)
	}

	engine := events.NewEngine(store, snaps, priv, 4)
	return NewServer("127.0.0.1:0", engine, store, snaps, priv.PubKey().SerializeCompressed())
}

func TestHandlePubkey(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/oracle/pubkey", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["key"] == "" {
		t.Fatal("expected a non-empty base64 pubkey")
	}
}

func TestCreateAndGetEvent(t *testing.T) {
	s := newTestServer(t)

	createBody := createEventRequest{
		TotalAllowedEntries:  4,
		NumberOfPlacesWin:    1,
		Locations:            []string{"KORD"},
		ScoringFields:        []string{"temp_high"},
		SigningDate:          time.Now().UTC().Add(48 * time.Hour),
		StartObservationDate: time.Now().UTC().Add(-time.Hour),
		EndObservationDate:   time.Now().UTC().Add(24 * time.Hour),
	}
	b, _ := json.Marshal(createBody)

	req := httptest.NewRequest(http.MethodPost, "/events", bytes.NewReader(b))
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("create event: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var created eventResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created event: %v", err)
	}
	if created.NoncePoint == "" {
		t.Fatal("expected a nonce point on creation")
	}
	if len(created.OutcomeLabels) != 4 {
		t.Fatalf("expected 4 outcome labels, got %d", len(created.OutcomeLabels))
	}

	getReq := httptest.NewRequest(http.MethodGet, "/events/"+created.EventID, nil)
	getRec := httptest.NewRecorder()
	s.Handler.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("get event: expected 200, got %d: %s", getRec.Code, getRec.Body.String())
	}

	var fetched eventResponse
	if err := json.Unmarshal(getRec.Body.Bytes(), &fetched); err != nil {
		t.Fatalf("decode fetched event: %v", err)
	}
	if fetched.NoncePoint != "" {
		t.Fatal("GET /events/{id} must not leak the nonce point")
	}

	entryBody := submitEntryRequest{Predictions: []events.PredictionInput{
		{StationID: "KORD", Field: "temp_high", Direction: "over"},
	}}
	eb, _ := json.Marshal(entryBody)
	entryReq := httptest.NewRequest(http.MethodPost, "/events/"+created.EventID+"/entries", bytes.NewReader(eb))
	entryRec := httptest.NewRecorder()
	s.Handler.ServeHTTP(entryRec, entryReq)
	if entryRec.Code != http.StatusOK {
		t.Fatalf("submit entry: expected 200, got %d: %s", entryRec.Code, entryRec.Body.String())
	}
}

func TestGetEventNotFound(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/events/does-not-exist", nil)
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestUploadAndListFiles(t *testing.T) {
	s := newTestServer(t)

	name := snapshot.Format(snapshot.KindObservations, time.Now().UTC())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write([]byte("not-actually-parquet-but-fine-for-byte-transport"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/file/"+name, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("upload: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	// Re-uploading the same name is a conflict.
	var buf2 bytes.Buffer
	mw2 := multipart.NewWriter(&buf2)
	part2, _ := mw2.CreateFormFile("file", name)
	part2.Write([]byte("duplicate"))
	mw2.Close()
	req2 := httptest.NewRequest(http.MethodPost, "/file/"+name, &buf2)
	req2.Header.Set("Content-Type", mw2.FormDataContentType())
	rec2 := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusConflict {
		t.Fatalf("duplicate upload: expected 409, got %d", rec2.Code)
	}

	listReq := httptest.NewRequest(http.MethodGet, "/files", nil)
	listRec := httptest.NewRecorder()
	s.Handler.ServeHTTP(listRec, listReq)
	if listRec.Code != http.StatusOK {
		t.Fatalf("list files: expected 200, got %d", listRec.Code)
	}
	var listed map[string][]string
	if err := json.Unmarshal(listRec.Body.Bytes(), &listed); err != nil {
		t.Fatalf("decode file list: %v", err)
	}
	if len(listed["file_names"]) != 1 || listed["file_names"][0] != name {
		t.Fatalf("expected the uploaded file in the listing, got %v", listed["file_names"])
	}
}

func TestUploadRejectsBadFilename(t *testing.T) {
	s := newTestServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, _ := mw.CreateFormFile("file", "whatever")
	part.Write([]byte("data"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/file/not-a-valid-name.txt", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an invalid filename, got %d", rec.Code)
	}
}
