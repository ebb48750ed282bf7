package aggregation

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/wxoracle/wxoracle/internal/snapshot"
)

const (
	minValidTemp   = -200.0
	maxValidTemp   = 200.0
	minValidRH     = 0.0
	maxValidRH     = 100.0
)

type forecastWindowKey struct {
	stationID string
	begin     int64
	end       int64
}

// dedupeForecasts keeps, for every (station_id, begin_time, end_time)
// window, only the row with the largest generated_at (spec.md §4.B:
// "latest forecast wins").
func dedupeForecasts(rows []snapshot.ForecastRow) []snapshot.ForecastRow {
	latest := make(map[forecastWindowKey]snapshot.ForecastRow)
	for _, r := range rows {
		key := forecastWindowKey{stationID: r.StationID, begin: r.BeginTime.UTC().Unix(), end: r.EndTime.UTC().Unix()}
		cur, ok := latest[key]
		if !ok || r.GeneratedAt.After(cur.GeneratedAt) {
			latest[key] = r
		}
	}
	out := make([]snapshot.ForecastRow, 0, len(latest))
	for _, r := range latest {
		out = append(out, r)
	}
	return out
}

// SummarizeForecasts de-duplicates overlapping forecast issuances and
// groups the survivors by (station_id, UTC day of begin_time),
// applying the reductions spec.md §4.B defines.
func SummarizeForecasts(rows []snapshot.ForecastRow) []DailyForecastSummary {
	deduped := dedupeForecasts(rows)

	type bucket struct {
		stationID           string
		date                int64
		minTemps            []float64
		maxTemps            []float64
		windSpeeds          []float64
		windDirections      []float64
		humidityMins        []float64
		humidityMaxes       []float64
		precipChances       []float64
		totalQPF            float64
		snowAmt             float64
		iceAmt              float64
		snowRatios          []float64
		temperatureUnitCode string
	}

	buckets := make(map[obsGroupKey]*bucket)
	var order []obsGroupKey

	for _, r := range deduped {
		day := dayTrunc(r.BeginTime)
		key := obsGroupKey{stationID: r.StationID, date: day.Unix()}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{stationID: r.StationID, date: day.Unix(), temperatureUnitCode: r.TemperatureUnitCode}
			buckets[key] = b
			order = append(order, key)
		}

		if r.MinTemp >= minValidTemp && r.MinTemp <= maxValidTemp {
			b.minTemps = append(b.minTemps, r.MinTemp)
		}
		if r.MaxTemp >= minValidTemp && r.MaxTemp <= maxValidTemp {
			b.maxTemps = append(b.maxTemps, r.MaxTemp)
		}
		if r.WindSpeed != nil && *r.WindSpeed >= minValidWindSpeed && *r.WindSpeed <= maxValidWindSpeed {
			b.windSpeeds = append(b.windSpeeds, *r.WindSpeed)
		}
		if r.WindDirection != nil && *r.WindDirection >= minValidWindDirection && *r.WindDirection <= maxValidWindDirection {
			b.windDirections = append(b.windDirections, *r.WindDirection)
		}
		if r.RelativeHumidityMin != nil && *r.RelativeHumidityMin >= minValidRH && *r.RelativeHumidityMin <= maxValidRH {
			b.humidityMins = append(b.humidityMins, *r.RelativeHumidityMin)
		}
		if r.RelativeHumidityMax != nil && *r.RelativeHumidityMax >= minValidRH && *r.RelativeHumidityMax <= maxValidRH {
			b.humidityMaxes = append(b.humidityMaxes, *r.RelativeHumidityMax)
		}
		if r.TwelveHourProbabilityOfPrecip != nil {
			b.precipChances = append(b.precipChances, *r.TwelveHourProbabilityOfPrecip)
		}
		if r.LiquidPrecipitationAmt != nil {
			b.totalQPF += *r.LiquidPrecipitationAmt
		}
		if r.SnowAmt != nil {
			b.snowAmt += *r.SnowAmt
		}
		if r.IceAmt != nil {
			b.iceAmt += *r.IceAmt
		}
		if r.SnowRatio != nil && *r.SnowRatio > 0 {
			b.snowRatios = append(b.snowRatios, *r.SnowRatio)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		if order[i].stationID != order[j].stationID {
			return order[i].stationID < order[j].stationID
		}
		return order[i].date < order[j].date
	})

	out := make([]DailyForecastSummary, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		s := DailyForecastSummary{
			StationID:           b.stationID,
			Date:                dayTrunc(unixToTime(b.date)),
			TemperatureUnitCode: b.temperatureUnitCode,
			SnowAmt:             b.snowAmt,
			IceAmt:              b.iceAmt,
		}
		if len(b.minTemps) > 0 {
			s.TempLow = floats.Min(b.minTemps)
		}
		if len(b.maxTemps) > 0 {
			s.TempHigh = floats.Max(b.maxTemps)
		}
		if len(b.windSpeeds) > 0 {
			s.WindSpeed = floats.Max(b.windSpeeds)
		}
		if len(b.windDirections) > 0 {
			s.WindDirection = floats.Max(b.windDirections)
		}
		if len(b.humidityMins) > 0 {
			s.HumidityMin = floats.Min(b.humidityMins)
			s.HumidityKnown = true
		}
		if len(b.humidityMaxes) > 0 {
			s.HumidityMax = floats.Max(b.humidityMaxes)
			s.HumidityKnown = true
		}
		if len(b.precipChances) > 0 {
			s.PrecipChance = floats.Max(b.precipChances)
		}

		rain := b.totalQPF - b.iceAmt
		if len(b.snowRatios) > 0 {
			avgRatio := stat.Mean(b.snowRatios, nil)
			if avgRatio > 0 {
				rain = b.totalQPF - b.snowAmt/avgRatio - b.iceAmt
			}
		}
		s.RainAmt = math.Max(0, rain)

		out = append(out, s)
	}
	return out
}
