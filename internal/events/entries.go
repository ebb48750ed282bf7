package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/metadata"
)

// SubmitEntry validates and persists one entry's predictions
// (spec.md §4.D submit_entry). Rejections are Conflict per spec.md §7:
// a cutoff miss, an already-SIGNED event, or a full entry count.
func (e *Engine) SubmitEntry(eventID string, predictions []PredictionInput) (metadata.Entry, error) {
	ev, err := e.GetEvent(eventID)
	if err != nil {
		return metadata.Entry{}, err
	}

	now := time.Now().UTC()
	if ev.State == metadata.EventStateSigned {
		return metadata.Entry{}, apierr.New(apierr.Conflict, "event is already signed; no further entries accepted")
	}
	if !now.Before(ev.EndObservationDate) {
		return metadata.Entry{}, apierr.New(apierr.Conflict, "entry submitted after end_observation_date")
	}
	if err := validatePredictionShape(ev, predictions); err != nil {
		return metadata.Entry{}, err
	}

	predictionsJSON, err := marshalPredictions(predictions)
	if err != nil {
		return metadata.Entry{}, err
	}

	var entry metadata.Entry
	_, err = e.store.Queue.Submit(func(tx *gorm.DB) (interface{}, error) {
		var count int64
		if err := tx.Model(&metadata.Entry{}).Where("event_id = ?", eventID).Count(&count).Error; err != nil {
			return nil, err
		}
		if int(count) >= ev.TotalAllowedEntries {
			return nil, apierr.New(apierr.Conflict, fmt.Sprintf("event %q already has %d entries", eventID, ev.TotalAllowedEntries))
		}

		entry = metadata.Entry{
			EntryID:     uuid.Must(uuid.NewV7()).String(),
			EventID:     eventID,
			SlotIndex:   int(count) + 1,
			Predictions: predictionsJSON,
		}
		if err := tx.Create(&entry).Error; err != nil {
			return nil, err
		}

		rows := make([]metadata.ExpectedObservation, 0, len(predictions))
		for _, p := range predictions {
			rows = append(rows, metadata.ExpectedObservation{
				ID:        uuid.Must(uuid.NewV7()).String(),
				EntryID:   entry.EntryID,
				StationID: p.StationID,
				Field:     p.Field,
				Direction: metadata.Direction(p.Direction),
			})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		if apierr.Is(err, apierr.Conflict) || apierr.Is(err, apierr.InvalidInput) {
			return metadata.Entry{}, err
		}
		return metadata.Entry{}, apierr.Wrap(apierr.Transient, "persist entry", err)
	}

	return entry, nil
}

// validatePredictionShape checks that predictions cover exactly the
// event's locations × scoring_fields cross product, once each
// (spec.md §4.D: "reject if predictions are not shaped as
// |locations| × |scoring_fields| categorical values").
func validatePredictionShape(ev metadata.Event, predictions []PredictionInput) error {
	if len(predictions) != ev.NumberOfValuesPerEntry {
		return apierr.New(apierr.InvalidInput, fmt.Sprintf("expected %d predictions, got %d", ev.NumberOfValuesPerEntry, len(predictions)))
	}

	stations := toSet(ev.Locations)
	fields := toSet(ev.ScoringFields)
	seen := make(map[string]bool, len(predictions))
	for _, p := range predictions {
		if !stations[p.StationID] {
			return apierr.New(apierr.InvalidInput, fmt.Sprintf("unknown station %q", p.StationID))
		}
		if !fields[p.Field] {
			return apierr.New(apierr.InvalidInput, fmt.Sprintf("unknown scoring field %q", p.Field))
		}
		switch metadata.Direction(p.Direction) {
		case metadata.DirectionOver, metadata.DirectionPar, metadata.DirectionUnder:
		default:
			return apierr.New(apierr.InvalidInput, fmt.Sprintf("unknown prediction direction %q", p.Direction))
		}
		key := p.StationID + "|" + p.Field
		if seen[key] {
			return apierr.New(apierr.InvalidInput, fmt.Sprintf("duplicate prediction for station %q field %q", p.StationID, p.Field))
		}
		seen[key] = true
	}
	return nil
}

func toSet(items []string) map[string]bool {
	out := make(map[string]bool, len(items))
	for _, s := range items {
		out[s] = true
	}
	return out
}
