// Package events implements the Event Lifecycle Engine (spec.md §4.D):
// event creation, entry collection, weather freezing, scoring, ranking,
// and attestation signing. It is the sole mutator of event and entry
// state once an event exists.
package events

import (
	"time"

	"github.com/wxoracle/wxoracle/internal/metadata"
)

// AllowedScoringFields are the per-station fields spec.md §3 permits
// in an event's scoring_fields set.
var AllowedScoringFields = map[string]bool{
	"temp_low":       true,
	"temp_high":      true,
	"wind_speed":     true,
	"wind_direction": true,
	"rain_amt":       true,
	"snow_amt":       true,
	"humidity":       true,
}

// EventSpec is the caller-supplied input to CreateEvent (spec.md §4.D
// create_event(spec), §3 invariants).
type EventSpec struct {
	TotalAllowedEntries  int
	NumberOfPlacesWin    int
	Locations            []string
	ScoringFields        []string
	SigningDate          time.Time
	StartObservationDate time.Time
	EndObservationDate   time.Time
	CoordinatorPubkey    *string
}

// PredictionInput is one station × field categorical guess submitted
// as part of an entry (spec.md §3 "expected observation").
type PredictionInput struct {
	StationID string `json:"station_id"`
	Field     string `json:"field"`
	Direction string `json:"direction"` // "over" | "par" | "under"
}

// EventView is the read-oriented projection of an event returned by
// CreateEvent/GetEvent, including derived fields the HTTP surface
// needs (spec.md §6 GET /events/{id}).
type EventView struct {
	Event                metadata.Event
	NoncePointCompressed []byte // the public nonce point, safe to expose alongside the announcement
}

// EntryView is the read-oriented projection of a submitted entry.
type EntryView struct {
	Entry        metadata.Entry
	Predictions  []PredictionInput
}
