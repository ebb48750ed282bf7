package ingest

import "fmt"

// UnitCode is the closed set of temperature units a feed may report in
// (spec.md §3's `temperature_unit_code` column). Normalization always
// lands on Celsius, the unit every downstream aggregation and scoring
// computation assumes.
type UnitCode string

const (
	UnitFahrenheit UnitCode = "F"
	UnitCelsius    UnitCode = "C"
)

// NormalizeTemperature converts value from code to Celsius. It is a
// total function over the two codes a feed is allowed to declare;
// anything else is a feed misconfiguration, not a data problem to
// silently coerce.
func NormalizeTemperature(value float64, code UnitCode) (float64, error) {
	switch code {
	case UnitCelsius:
		return value, nil
	case UnitFahrenheit:
		return (value - 32) * 5 / 9, nil
	default:
		return 0, fmt.Errorf("unrecognized temperature unit code %q", code)
	}
}
