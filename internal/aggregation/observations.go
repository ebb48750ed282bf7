package aggregation

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wxoracle/wxoracle/internal/snapshot"
)

const (
	minValidWindSpeed     = 0.0
	maxValidWindSpeed     = 500.0
	minValidWindDirection = 0.0
	maxValidWindDirection = 360.0
)

type obsGroupKey struct {
	stationID string
	date      int64 // unix seconds of the truncated day, for map comparability
}

func unixToTime(sec int64) time.Time {
	return time.Unix(sec, 0).UTC()
}

// SummarizeObservations groups rows by (station_id, UTC day) and
// derives the daily extrema and precipitation split spec.md §4.B
// defines. The result is sorted by station then date for deterministic
// output (spec.md §8 invariant 5: aggregation is idempotent).
func SummarizeObservations(rows []snapshot.ObservationRow) []DailyObservationSummary {
	type bucket struct {
		stationID           string
		date                int64
		temps               []float64
		windSpeeds          []float64
		windDirections      []float64
		humidities          []float64
		rain, snow, ice     float64
		temperatureUnitCode string
	}

	buckets := make(map[obsGroupKey]*bucket)
	var order []obsGroupKey

	for _, r := range rows {
		day := dayTrunc(r.GeneratedAt)
		key := obsGroupKey{stationID: r.StationID, date: day.Unix()}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{stationID: r.StationID, date: day.Unix(), temperatureUnitCode: r.TemperatureUnitCode}
			buckets[key] = b
			order = append(order, key)
		}

		b.temps = append(b.temps, r.TemperatureValue)

		if r.WindSpeed != nil && *r.WindSpeed >= minValidWindSpeed && *r.WindSpeed <= maxValidWindSpeed {
			b.windSpeeds = append(b.windSpeeds, *r.WindSpeed)
		}
		if r.WindDirection != nil && *r.WindDirection >= minValidWindDirection && *r.WindDirection <= maxValidWindDirection {
			b.windDirections = append(b.windDirections, *r.WindDirection)
		}
		if r.DewpointValue != nil {
			b.humidities = append(b.humidities, magnusRH(r.TemperatureValue, *r.DewpointValue))
		}

		if r.PrecipIn != nil && *r.PrecipIn >= 0 {
			wx := ""
			if r.WxString != nil {
				wx = *r.WxString
			}
			switch Classify(wx, r.TemperatureValue) {
			case PrecipSnow:
				b.snow += *r.PrecipIn * 10
			case PrecipIce:
				b.ice += *r.PrecipIn
			default:
				b.rain += *r.PrecipIn
			}
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].stationID != order[j].stationID {
			return order[i].stationID < order[j].stationID
		}
		return order[i].date < order[j].date
	})

	out := make([]DailyObservationSummary, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		s := DailyObservationSummary{
			StationID:           b.stationID,
			Date:                dayTrunc(unixToTime(b.date)),
			TemperatureUnitCode: b.temperatureUnitCode,
			RainAmt:             b.rain,
			SnowAmt:             b.snow,
			IceAmt:              b.ice,
		}
		if len(b.temps) > 0 {
			s.TempLow = floats.Min(b.temps)
			s.TempHigh = floats.Max(b.temps)
		}
		if len(b.windSpeeds) > 0 {
			s.WindSpeed = floats.Max(b.windSpeeds)
		}
		if len(b.windDirections) > 0 {
			s.WindDirection = floats.Max(b.windDirections)
		}
		if len(b.humidities) > 0 {
			mean := stat.Mean(b.humidities, nil)
			s.Humidity = int(math.Round(mean))
			s.HumidityKnown = true
		}
		out = append(out, s)
	}
	return out
}
