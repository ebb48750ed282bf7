package httpapi

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/events"
	"github.com/wxoracle/wxoracle/internal/metadata"
)

// createEventRequest is the wire shape of `POST /events`' body
// (spec.md §6 "body is event spec").
type createEventRequest struct {
	TotalAllowedEntries  int      `json:"total_allowed_entries"`
	NumberOfPlacesWin    int      `json:"number_of_places_win"`
	Locations            []string `json:"locations"`
	ScoringFields        []string `json:"scoring_fields"`
	SigningDate          time.Time `json:"signing_date"`
	StartObservationDate time.Time `json:"start_observation_date"`
	EndObservationDate   time.Time `json:"end_observation_date"`
	CoordinatorPubkey    *string  `json:"coordinator_pubkey,omitempty"`
}

// eventResponse is the JSON projection of an event returned by
// POST /events and GET /events/{id}.
type eventResponse struct {
	EventID                string    `json:"event_id"`
	State                  string    `json:"state"`
	TotalAllowedEntries    int       `json:"total_allowed_entries"`
	NumberOfPlacesWin      int       `json:"number_of_places_win"`
	NumberOfValuesPerEntry int       `json:"number_of_values_per_entry"`
	Locations              []string  `json:"locations"`
	ScoringFields          []string  `json:"scoring_fields"`
	OutcomeLabels          []string  `json:"outcome_labels"`
	SigningDate            time.Time `json:"signing_date"`
	StartObservationDate   time.Time `json:"start_observation_date"`
	EndObservationDate     time.Time `json:"end_observation_date"`
	EventAnnouncement      string    `json:"event_announcement"` // base64
	NoncePoint             string    `json:"nonce_point,omitempty"` // base64, only present on create
	AttestationSignature   string    `json:"attestation_signature,omitempty"` // base64, only once signed
	Entries                []entryResponse `json:"entries,omitempty"`
}

type entryResponse struct {
	EntryID   string `json:"entry_id"`
	SlotIndex int    `json:"slot_index"`
	Score     *int   `json:"score,omitempty"`
	BaseScore *int   `json:"base_score,omitempty"`
}

func toEventResponse(ev metadata.Event, noncePoint []byte) eventResponse {
	resp := eventResponse{
		EventID:                ev.EventID,
		State:                  string(events.DisplayState(ev)),
		TotalAllowedEntries:    ev.TotalAllowedEntries,
		NumberOfPlacesWin:      ev.NumberOfPlacesWin,
		NumberOfValuesPerEntry: ev.NumberOfValuesPerEntry,
		Locations:              []string(ev.Locations),
		ScoringFields:          []string(ev.ScoringFields),
		OutcomeLabels:          []string(ev.OutcomeLabels),
		SigningDate:            ev.SigningDate,
		StartObservationDate:   ev.StartObservationDate,
		EndObservationDate:     ev.EndObservationDate,
		EventAnnouncement:      base64.StdEncoding.EncodeToString(ev.EventAnnouncement),
	}
	if len(noncePoint) > 0 {
		resp.NoncePoint = base64.StdEncoding.EncodeToString(noncePoint)
	}
	if len(ev.AttestationSignature) > 0 {
		resp.AttestationSignature = base64.StdEncoding.EncodeToString(ev.AttestationSignature)
	}
	return resp
}

// handleCreateEvent implements `POST /events`.
func (s *Server) handleCreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "decode event spec", err))
		return
	}

	spec := events.EventSpec{
		TotalAllowedEntries:  req.TotalAllowedEntries,
		NumberOfPlacesWin:    req.NumberOfPlacesWin,
		Locations:            req.Locations,
		ScoringFields:        req.ScoringFields,
		SigningDate:          req.SigningDate,
		StartObservationDate: req.StartObservationDate,
		EndObservationDate:   req.EndObservationDate,
		CoordinatorPubkey:    req.CoordinatorPubkey,
	}

	view, err := s.engine.CreateEvent(spec)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(view.Event, view.NoncePointCompressed))
}

// handleGetEvent implements `GET /events/{id}`.
func (s *Server) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ev, err := s.engine.GetEvent(id)
	if err != nil {
		writeError(w, err)
		return
	}
	entries, err := s.engine.ListEntries(id)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := toEventResponse(ev, nil)
	resp.Entries = make([]entryResponse, len(entries))
	for i, e := range entries {
		resp.Entries[i] = entryResponse{EntryID: e.EntryID, SlotIndex: e.SlotIndex, Score: e.Score, BaseScore: e.BaseScore}
	}
	writeJSON(w, http.StatusOK, resp)
}

// submitEntryRequest is the wire shape of `POST /events/{id}/entries`'
// body: a flat list of (station, field, direction) predictions.
type submitEntryRequest struct {
	Predictions []events.PredictionInput `json:"predictions"`
}

// handleSubmitEntry implements `POST /events/{id}/entries`.
func (s *Server) handleSubmitEntry(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	var req submitEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apierr.Wrap(apierr.InvalidInput, "decode entry", err))
		return
	}

	entry, err := s.engine.SubmitEntry(id, req.Predictions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entryResponse{EntryID: entry.EntryID, SlotIndex: entry.SlotIndex, Score: entry.Score, BaseScore: entry.BaseScore})
}

// handleSignEvent implements `POST /events/{id}/sign`, idempotent per
// spec.md §4.D/§6.
func (s *Server) handleSignEvent(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	ev, err := s.engine.Sign(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toEventResponse(ev, nil))
}
