package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/log"
	"github.com/wxoracle/wxoracle/internal/metadata"
	"github.com/wxoracle/wxoracle/internal/nonce"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

// Engine coordinates the event lifecycle state machine across the
// Metadata Store, Snapshot Store, Aggregation Engine, Scoring Kernel,
// and the nonce/attestation package (spec.md §4.D). It plays the same
// coordinating role the teacher's managers play in internal/app, wired
// once at process construction time.
type Engine struct {
	store        *metadata.Store
	snapshots    *snapshot.Store
	oraclePriv   *btcec.PrivateKey
	freezeWorkers int
}

// NewEngine constructs an Engine bound to the given stores and the
// oracle's long-term signing key. freezeWorkers bounds the per-station
// concurrency of freezeWeather's fan-out; zero or negative falls back
// to 4.
func NewEngine(store *metadata.Store, snapshots *snapshot.Store, oraclePriv *btcec.PrivateKey, freezeWorkers int) *Engine {
	if freezeWorkers <= 0 {
		freezeWorkers = 4
	}
	return &Engine{store: store, snapshots: snapshots, oraclePriv: oraclePriv, freezeWorkers: freezeWorkers}
}

// CreateEvent validates spec, generates a fresh nonce, computes the
// deterministic announcement, and persists the event in CREATED/OPEN
// state (spec.md §4.D create_event). total_allowed_entries and
// number_of_places_win gate the size of the outcome label set that is
// fixed here and never recomputed.
func (e *Engine) CreateEvent(spec EventSpec) (EventView, error) {
	if err := validateSpec(spec); err != nil {
		return EventView{}, err
	}

	n, err := nonce.GenerateNonce()
	if err != nil {
		return EventView{}, err
	}
	defer n.Zero()

	labels := enumerateOutcomeLabels(spec.TotalAllowedEntries, spec.NumberOfPlacesWin)

	announcement := nonce.BuildAnnouncement(
		e.oraclePriv.PubKey(),
		n.Point,
		labels,
		spec.SigningDate,
		spec.Locations,
		spec.ScoringFields,
		spec.NumberOfPlacesWin,
		spec.TotalAllowedEntries,
	)

	ev := metadata.Event{
		EventID:                uuid.Must(uuid.NewV7()).String(),
		TotalAllowedEntries:    spec.TotalAllowedEntries,
		NumberOfPlacesWin:      spec.NumberOfPlacesWin,
		NumberOfValuesPerEntry: len(spec.Locations) * len(spec.ScoringFields),
		SigningDate:            spec.SigningDate.UTC(),
		StartObservationDate:   spec.StartObservationDate.UTC(),
		EndObservationDate:     spec.EndObservationDate.UTC(),
		Locations:              metadata.StringList(spec.Locations),
		ScoringFields:          metadata.StringList(spec.ScoringFields),
		OutcomeLabels:          metadata.StringList(labels),
		Nonce:                  n.SecretBytes(),
		EventAnnouncement:      announcement,
		CoordinatorPubkey:      spec.CoordinatorPubkey,
		State:                  metadata.EventStateOpen,
	}

	_, err = e.store.Queue.Submit(func(tx *gorm.DB) (interface{}, error) {
		return nil, tx.Create(&ev).Error
	})
	if err != nil {
		return EventView{}, apierr.Wrap(apierr.Transient, "persist event", err)
	}

	log.Infof("events: created event %s (%d entries, %d places win, %d stations)", ev.EventID, ev.TotalAllowedEntries, ev.NumberOfPlacesWin, len(ev.Locations))
	return EventView{Event: ev, NoncePointCompressed: n.Point.SerializeCompressed()}, nil
}

// GetEvent loads a persisted event by ID.
func (e *Engine) GetEvent(eventID string) (metadata.Event, error) {
	var ev metadata.Event
	err := e.store.DB.First(&ev, "event_id = ?", eventID).Error
	if err == gorm.ErrRecordNotFound {
		return metadata.Event{}, apierr.New(apierr.NotFound, fmt.Sprintf("event %q not found", eventID))
	}
	if err != nil {
		return metadata.Event{}, apierr.Wrap(apierr.Transient, "query event", err)
	}
	return ev, nil
}

// ObservationWindow is a half-open UTC time range an unsigned event
// still depends on for scoring.
type ObservationWindow struct {
	Start time.Time
	End   time.Time
}

// ActiveObservationWindows returns the observation window of every
// event not yet SIGNED, so the Snapshot Store's retention sweeper
// (spec.md §4.A) can avoid deleting a file that an AWAITING_SIGN event
// still needs before it freezes weather readings.
func (e *Engine) ActiveObservationWindows() ([]ObservationWindow, error) {
	var evs []metadata.Event
	if err := e.store.DB.Where("state <> ?", string(metadata.EventStateSigned)).Find(&evs).Error; err != nil {
		return nil, apierr.Wrap(apierr.Transient, "query active events", err)
	}
	windows := make([]ObservationWindow, len(evs))
	for i, ev := range evs {
		windows[i] = ObservationWindow{Start: ev.StartObservationDate, End: ev.EndObservationDate}
	}
	return windows, nil
}

// ListEntries loads every entry submitted to an event, ordered by
// slot index (submission order).
func (e *Engine) ListEntries(eventID string) ([]metadata.Entry, error) {
	var entries []metadata.Entry
	if err := e.store.DB.Where("event_id = ?", eventID).Order("slot_index asc").Find(&entries).Error; err != nil {
		return nil, apierr.Wrap(apierr.Transient, "query entries", err)
	}
	return entries, nil
}

func validateSpec(spec EventSpec) error {
	now := time.Now().UTC()
	if spec.TotalAllowedEntries < 2 {
		return apierr.New(apierr.InvalidInput, "total_allowed_entries must be >= 2")
	}
	if spec.NumberOfPlacesWin < 1 || spec.NumberOfPlacesWin >= spec.TotalAllowedEntries {
		return apierr.New(apierr.InvalidInput, "number_of_places_win must satisfy 1 <= k < total_allowed_entries")
	}
	if len(spec.Locations) < 1 {
		return apierr.New(apierr.InvalidInput, "locations must contain at least one station")
	}
	if len(spec.ScoringFields) < 1 {
		return apierr.New(apierr.InvalidInput, "scoring_fields must contain at least one field")
	}
	seenFields := make(map[string]bool, len(spec.ScoringFields))
	for _, f := range spec.ScoringFields {
		if !AllowedScoringFields[f] {
			return apierr.New(apierr.InvalidInput, fmt.Sprintf("unknown scoring field %q", f))
		}
		if seenFields[f] {
			return apierr.New(apierr.InvalidInput, fmt.Sprintf("duplicate scoring field %q", f))
		}
		seenFields[f] = true
	}
	seenStations := make(map[string]bool, len(spec.Locations))
	for _, s := range spec.Locations {
		if seenStations[s] {
			return apierr.New(apierr.InvalidInput, fmt.Sprintf("duplicate station %q in locations", s))
		}
		seenStations[s] = true
	}
	if !spec.SigningDate.After(now) {
		return apierr.New(apierr.InvalidInput, "signing_date must be in the future")
	}
	if !spec.StartObservationDate.Before(spec.EndObservationDate) {
		return apierr.New(apierr.InvalidInput, "start_observation_date must be before end_observation_date")
	}
	if spec.EndObservationDate.After(spec.SigningDate) {
		return apierr.New(apierr.InvalidInput, "end_observation_date must be on or before signing_date")
	}
	return nil
}

// DisplayState derives the state machine position spec.md §4.D's
// diagram names for an event: the persisted column only distinguishes
// OPEN from SIGNED, so AWAITING_SIGN is computed from the clock rather
// than stored, avoiding a background job whose only job would be to
// flip a column when the window closes.
func DisplayState(ev metadata.Event) metadata.EventState {
	if ev.State == metadata.EventStateSigned {
		return metadata.EventStateSigned
	}
	if !time.Now().UTC().Before(ev.EndObservationDate) {
		return metadata.EventStateAwaitingSign
	}
	return metadata.EventStateOpen
}

// uuidV7 mints a fresh UUID v7 identifier, the format spec.md §3
// requires for every generated entity ID in this package.
func uuidV7() string {
	return uuid.Must(uuid.NewV7()).String()
}

func marshalPredictions(preds []PredictionInput) (string, error) {
	b, err := json.Marshal(preds)
	if err != nil {
		return "", apierr.Wrap(apierr.Fatal, "marshal entry predictions", err)
	}
	return string(b), nil
}
