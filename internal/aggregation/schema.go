// Package aggregation derives per-station daily observation and
// forecast summaries from snapshot rows (spec.md §4.B). Every function
// here is a pure transformation: same input rows always yield the same
// summary rows, with no I/O and no dependency on wall-clock time other
// than what is carried in the rows themselves.
package aggregation

import "time"

// DailyObservationSummary is one station's derived daily extrema and
// precipitation split, keyed by the UTC calendar day its source rows'
// generated_at fell on.
type DailyObservationSummary struct {
	StationID           string    `json:"station_id"`
	Date                time.Time `json:"date"`
	TempLow             float64   `json:"temp_low"`
	TempHigh            float64   `json:"temp_high"`
	WindSpeed           float64   `json:"wind_speed"`
	WindDirection       float64   `json:"wind_direction"`
	Humidity            int       `json:"humidity"`
	HumidityKnown       bool      `json:"humidity_known"`
	RainAmt             float64   `json:"rain_amt"`
	SnowAmt             float64   `json:"snow_amt"`
	IceAmt              float64   `json:"ice_amt"`
	TemperatureUnitCode string    `json:"temperature_unit_code"`
}

// DailyForecastSummary is one station's derived daily forecast extrema,
// after overlapping forecast issuances have been de-duplicated to the
// latest generated_at per covered window.
type DailyForecastSummary struct {
	StationID           string    `json:"station_id"`
	Date                time.Time `json:"date"`
	TempLow             float64   `json:"temp_low"`
	TempHigh            float64   `json:"temp_high"`
	WindSpeed           float64   `json:"wind_speed"`
	WindDirection       float64   `json:"wind_direction"`
	HumidityMin         float64   `json:"humidity_min"`
	HumidityMax         float64   `json:"humidity_max"`
	HumidityKnown       bool      `json:"humidity_known"`
	PrecipChance        float64   `json:"precip_chance"`
	RainAmt             float64   `json:"rain_amt"`
	SnowAmt             float64   `json:"snow_amt"`
	IceAmt              float64   `json:"ice_amt"`
	TemperatureUnitCode string    `json:"temperature_unit_code"`
}

// dayTrunc returns the UTC calendar day t falls on, per spec.md §4.B's
// date_trunc_utc(..., day).
func dayTrunc(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
