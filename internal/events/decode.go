package events

import (
	"encoding/json"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/scoring"
)

// decodePredictions parses an entry's persisted predictions JSON back
// into the Scoring Kernel's input shape.
func decodePredictions(raw string) ([]scoring.Prediction, error) {
	var inputs []PredictionInput
	if err := json.Unmarshal([]byte(raw), &inputs); err != nil {
		return nil, apierr.Wrap(apierr.Fatal, "decode entry predictions", err)
	}
	out := make([]scoring.Prediction, len(inputs))
	for i, p := range inputs {
		out[i] = scoring.Prediction{StationID: p.StationID, Field: p.Field, Direction: scoring.Direction(p.Direction)}
	}
	return out, nil
}
