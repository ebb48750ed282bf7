// Package scoring implements the pure scoring function spec.md §4.E
// describes: entry predictions plus observed weather compared against
// a per-field par value, producing an integer score. Nothing in this
// package touches wall-clock time, randomness, or I/O.
package scoring

import "sort"

// Direction is the closed tagged variant an entry's categorical
// prediction, and a scored outcome, take (spec.md §3, §9).
type Direction string

const (
	DirectionOver  Direction = "over"
	DirectionPar   Direction = "par"
	DirectionUnder Direction = "under"
)

// Prediction is one station × field categorical guess within an
// entry.
type Prediction struct {
	StationID string
	Field     string
	Direction Direction
}

// StationField keys the observation lookup Score consults.
type StationField struct {
	StationID string
	Field     string
}

// Observation is the frozen observed value and its par (forecasted)
// value for one station × field, captured into the weather reading at
// event-freeze time (spec.md §4.E: "the value forecasted for that
// station/date at event-creation time").
type Observation struct {
	Observed  float64
	Par       float64
	Available bool
}

// ComponentResult is the per-(station,field) scoring detail behind an
// entry's total, exposed so callers can explain a score rather than
// just report it.
type ComponentResult struct {
	StationID string
	Field     string
	Predicted Direction
	Outcome   Direction
	Available bool
	Points    int
}

// outcomeDirection classifies an observed value against its par value.
func outcomeDirection(observed, par float64) Direction {
	switch {
	case observed > par:
		return DirectionOver
	case observed < par:
		return DirectionUnder
	default:
		return DirectionPar
	}
}

// Score computes an entry's total and per-component points. Each
// prediction not found in observations (observation unavailable)
// contributes zero and is reported with Available=false, matching
// spec.md §4.E: "Non-available observation → 0 for that component."
func Score(predictions []Prediction, observations map[StationField]Observation) (total int, components []ComponentResult) {
	components = make([]ComponentResult, 0, len(predictions))
	for _, p := range predictions {
		obs, ok := observations[StationField{StationID: p.StationID, Field: p.Field}]
		if !ok || !obs.Available {
			components = append(components, ComponentResult{
				StationID: p.StationID,
				Field:     p.Field,
				Predicted: p.Direction,
				Available: false,
			})
			continue
		}

		outcome := outcomeDirection(obs.Observed, obs.Par)
		points := 0
		if outcome == p.Direction {
			points = 1
		}
		total += points
		components = append(components, ComponentResult{
			StationID: p.StationID,
			Field:     p.Field,
			Predicted: p.Direction,
			Outcome:   outcome,
			Available: true,
			Points:    points,
		})
	}
	return total, components
}

// RankableEntry is the minimal shape Rank needs: an entry identity and
// its already-computed score.
type RankableEntry struct {
	EntryID string
	Score   int
}

// Rank orders entries by score descending, tie-breaking by lower
// entry_id (spec.md §4.D sign() step 3: "deterministic"). The input
// slice is not mutated; Rank returns a new, sorted slice.
func Rank(entries []RankableEntry) []RankableEntry {
	out := make([]RankableEntry, len(entries))
	copy(out, entries)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].EntryID < out[j].EntryID
	})
	return out
}
