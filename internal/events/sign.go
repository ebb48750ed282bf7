package events

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/log"
	"github.com/wxoracle/wxoracle/internal/metadata"
	"github.com/wxoracle/wxoracle/internal/nonce"
	"github.com/wxoracle/wxoracle/internal/scoring"
)

// Sign executes spec.md §4.D's sign() steps. It is only executable
// once now >= signing_date, and is idempotent: a second call after
// SIGNED returns the stored attestation without recomputation
// (spec.md §8 invariant 8, scenario S6).
func (e *Engine) Sign(eventID string) (metadata.Event, error) {
	ev, err := e.GetEvent(eventID)
	if err != nil {
		return metadata.Event{}, err
	}

	if ev.State == metadata.EventStateSigned {
		return ev, nil
	}
	if time.Now().UTC().Before(ev.SigningDate) {
		return metadata.Event{}, apierr.New(apierr.InvalidInput, "sign() called before signing_date")
	}

	// Step 1: freeze weather readings. Idempotent; a retry after a
	// prior partial failure reuses what is already persisted.
	if err := e.freezeWeather(ev); err != nil {
		return metadata.Event{}, err
	}

	readings, err := e.loadReadings(eventID)
	if err != nil {
		return metadata.Event{}, err
	}
	observations := buildObservationMap(ev, readings)

	entries, err := e.ListEntries(eventID)
	if err != nil {
		return metadata.Event{}, err
	}
	if len(entries) < ev.NumberOfPlacesWin {
		return metadata.Event{}, apierr.New(apierr.DataUnavailable, "fewer entries submitted than number_of_places_win")
	}

	// Step 2: score every entry.
	rankable := make([]scoring.RankableEntry, 0, len(entries))
	entryScores := make(map[string]int, len(entries))
	entryBaseScores := make(map[string]int, len(entries))
	entrySlots := make(map[string]int, len(entries))
	for _, entry := range entries {
		preds, err := decodePredictions(entry.Predictions)
		if err != nil {
			return metadata.Event{}, err
		}
		total, _ := scoring.Score(preds, observations)
		rankable = append(rankable, scoring.RankableEntry{EntryID: entry.EntryID, Score: total})
		entryScores[entry.EntryID] = total
		entryBaseScores[entry.EntryID] = total
		entrySlots[entry.EntryID] = entry.SlotIndex
	}

	// Step 3: rank descending by score, tie-break by lower entry_id.
	ranked := scoring.Rank(rankable)

	// Step 4: top-k ordered tuple is the outcome; resolve its label.
	topK := ranked[:ev.NumberOfPlacesWin]
	slots := make([]int, len(topK))
	for i, r := range topK {
		slots[i] = entrySlots[r.EntryID]
	}
	winningLabel := labelForSlots(slots)
	if !containsLabel(ev.OutcomeLabels, winningLabel) {
		return metadata.Event{}, apierr.New(apierr.Fatal, fmt.Sprintf("computed outcome label %q is not a member of the announced label set", winningLabel))
	}

	// Step 5: compute the attestation over the winning outcome, signed
	// under the secret nonce committed at create_event time so the
	// revealed signature's R matches the announcement's nonce point.
	if len(ev.Nonce) == 0 {
		return metadata.Event{}, apierr.New(apierr.Fatal, "event has no committed nonce to sign under")
	}
	sig, err := nonce.Attest(e.oraclePriv, ev.EventAnnouncement, winningLabel, ev.Nonce)
	if err != nil {
		return metadata.Event{}, err
	}

	// Step 6: persist attestation, scores, and transition to SIGNED.
	// The secret nonce scalar is zeroed in the same write, never
	// retained past this point (spec.md §9 nonce handling).
	_, err = e.store.Queue.Submit(func(tx *gorm.DB) (interface{}, error) {
		for _, entry := range entries {
			score := entryScores[entry.EntryID]
			base := entryBaseScores[entry.EntryID]
			if err := tx.Model(&metadata.Entry{}).Where("entry_id = ?", entry.EntryID).
				Updates(map[string]interface{}{"score": score, "base_score": base}).Error; err != nil {
				return nil, err
			}
		}
		result := tx.Model(&metadata.Event{}).
			Where("event_id = ? AND attestation_signature IS NULL", eventID).
			Updates(map[string]interface{}{
				"attestation_signature": sig,
				"state":                 metadata.EventStateSigned,
				"nonce":                 nil,
			})
		return nil, result.Error
	})
	if err != nil {
		return metadata.Event{}, apierr.Wrap(apierr.Transient, "persist attestation", err)
	}

	log.Infof("events: signed event %s outcome=%s", eventID, winningLabel)
	return e.GetEvent(eventID)
}

func (e *Engine) loadReadings(eventID string) ([]metadata.WeatherReading, error) {
	var readings []metadata.WeatherReading
	if err := e.store.DB.Where("event_id = ?", eventID).Find(&readings).Error; err != nil {
		return nil, apierr.Wrap(apierr.Transient, "query weather readings", err)
	}
	return readings, nil
}

// buildObservationMap projects the frozen weather readings into the
// Scoring Kernel's lookup shape, one entry per (station, field) that
// the event actually scores on (spec.md §4.E).
func buildObservationMap(ev metadata.Event, readings []metadata.WeatherReading) map[scoring.StationField]scoring.Observation {
	byStation := make(map[string]metadata.WeatherReading, len(readings))
	for _, r := range readings {
		byStation[r.StationID] = r
	}

	out := make(map[scoring.StationField]scoring.Observation)
	for _, stationID := range ev.Locations {
		reading, ok := byStation[stationID]
		if !ok {
			continue
		}
		for _, field := range ev.ScoringFields {
			observed, par, ok := fieldValues(reading, field)
			out[scoring.StationField{StationID: stationID, Field: field}] = scoring.Observation{
				Observed:  observed,
				Par:       par,
				Available: ok,
			}
		}
	}
	return out
}

func fieldValues(r metadata.WeatherReading, field string) (observed, par float64, ok bool) {
	switch field {
	case "temp_low":
		return r.ObservedTempLow, r.ForecastedTempLow, true
	case "temp_high":
		return r.ObservedTempHigh, r.ForecastedTempHigh, true
	case "wind_speed":
		return r.ObservedWindSpeed, r.ForecastedWindSpeed, true
	case "wind_direction":
		return r.ObservedWindDirection, r.ForecastedWindDirection, true
	case "rain_amt":
		return r.ObservedRainAmt, r.ForecastedRainAmt, true
	case "snow_amt":
		return r.ObservedSnowAmt, r.ForecastedSnowAmt, true
	case "humidity":
		forecastHumidity := (r.ForecastedHumidityMin + r.ForecastedHumidityMax) / 2
		return float64(r.ObservedHumidity), forecastHumidity, true
	default:
		return 0, 0, false
	}
}

func containsLabel(labels []string, label string) bool {
	for _, l := range labels {
		if l == label {
			return true
		}
	}
	return false
}
