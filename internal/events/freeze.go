package events

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/wxoracle/wxoracle/internal/aggregation"
	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/metadata"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

// freezeWeather materializes the frozen observation and forecast
// summaries for every station in the event's locations and persists
// them as weather_readings (spec.md §4.D sign() step 1). It is
// idempotent: if readings already exist for this event they are left
// untouched and reused, matching spec.md's retry semantics ("Signing
// failure after step 1 leaves weather readings persisted... the next
// invocation retries from step 2").
//
// A station with no observation rows in the window is Fatal to the
// sign attempt as DataUnavailable (spec.md §4.D: "Fatal: missing any
// observation for a station in locations during the window... the
// event stays AWAITING_SIGN until data arrives"), not retried within
// this call.
func (e *Engine) freezeWeather(ev metadata.Event) error {
	var existing int64
	if err := e.store.DB.Model(&metadata.WeatherReading{}).Where("event_id = ?", ev.EventID).Count(&existing).Error; err != nil {
		return apierr.Wrap(apierr.Transient, "check existing weather readings", err)
	}
	if int(existing) == len(ev.Locations) {
		return nil
	}

	obsFiles, err := e.snapshots.List(snapshot.KindObservations, ev.StartObservationDate, ev.EndObservationDate)
	if err != nil {
		return apierr.Wrap(apierr.Transient, "list observation snapshots", err)
	}
	obsRows, err := e.snapshots.ReadObservations(obsFiles)
	if err != nil {
		return err
	}

	fcFiles, err := e.snapshots.List(snapshot.KindForecasts, time.Time{}, ev.SigningDate)
	if err != nil {
		return apierr.Wrap(apierr.Transient, "list forecast snapshots", err)
	}
	fcRows, err := e.snapshots.ReadForecasts(fcFiles)
	if err != nil {
		return err
	}

	g := new(errgroup.Group)
	g.SetLimit(e.freezeWorkers)

	var mu sync.Mutex
	var errs error
	readings := make([]metadata.WeatherReading, 0, len(ev.Locations))

	for _, stationID := range ev.Locations {
		stationID := stationID
		g.Go(func() error {
			reading, err := buildStationReading(ev, stationID, obsRows, fcRows)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierr.Append(errs, err)
				return nil
			}
			readings = append(readings, reading)
			return nil
		})
	}
	_ = g.Wait()
	if errs != nil {
		return apierr.Wrap(apierr.DataUnavailable, "freeze weather readings", errs)
	}

	_, err = e.store.Queue.Submit(func(tx *gorm.DB) (interface{}, error) {
		for i := range readings {
			if err := tx.Where("event_id = ? AND station_id = ?", ev.EventID, readings[i].StationID).
				FirstOrCreate(&readings[i]).Error; err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return apierr.Wrap(apierr.Transient, "persist weather readings", err)
	}
	return nil
}

func buildStationReading(ev metadata.Event, stationID string, obsRows []snapshot.ObservationRow, fcRows []snapshot.ForecastRow) (metadata.WeatherReading, error) {
	stationObs := make([]snapshot.ObservationRow, 0)
	for _, r := range obsRows {
		if r.StationID == stationID {
			stationObs = append(stationObs, r)
		}
	}
	if len(stationObs) == 0 {
		return metadata.WeatherReading{}, apierr.New(apierr.DataUnavailable, fmt.Sprintf("no observations available for station %q in window", stationID))
	}

	stationFc := make([]snapshot.ForecastRow, 0)
	for _, r := range fcRows {
		if r.StationID == stationID && !r.BeginTime.Before(ev.StartObservationDate) && r.BeginTime.Before(ev.EndObservationDate) {
			stationFc = append(stationFc, r)
		}
	}

	obsDays := aggregation.SummarizeObservations(stationObs)
	fcDays := aggregation.SummarizeForecasts(stationFc)

	reading := metadata.WeatherReading{
		ID:           uuidV7(),
		EventID:      ev.EventID,
		StationID:    stationID,
		ObservedDate: ev.StartObservationDate,
	}
	mergeObservationDays(&reading, obsDays)
	mergeForecastDays(&reading, fcDays)
	return reading, nil
}

// mergeObservationDays collapses one or more daily observation
// summaries spanning an event's window into the single frozen row the
// weather_readings schema holds per (event, station) (spec.md §3
// design note (b) and §9 "par value semantics"): lows/highs extend
// across the whole window, wind/humidity take the window's extrema,
// and precipitation sums.
func mergeObservationDays(reading *metadata.WeatherReading, days []aggregation.DailyObservationSummary) {
	first := true
	var humiditySum, humidityCount float64
	for _, d := range days {
		if first {
			reading.ObservedTempLow = d.TempLow
			reading.ObservedTempHigh = d.TempHigh
			first = false
		} else {
			reading.ObservedTempLow = minFloat(reading.ObservedTempLow, d.TempLow)
			reading.ObservedTempHigh = maxFloat(reading.ObservedTempHigh, d.TempHigh)
		}
		reading.ObservedWindSpeed = maxFloat(reading.ObservedWindSpeed, d.WindSpeed)
		reading.ObservedWindDirection = maxFloat(reading.ObservedWindDirection, d.WindDirection)
		reading.ObservedRainAmt += d.RainAmt
		reading.ObservedSnowAmt += d.SnowAmt
		reading.ObservedIceAmt += d.IceAmt
		if d.HumidityKnown {
			humiditySum += float64(d.Humidity)
			humidityCount++
		}
	}
	if humidityCount > 0 {
		reading.ObservedHumidity = int(humiditySum/humidityCount + 0.5)
	}
}

// mergeForecastDays collapses the de-duplicated forecast summaries
// covering an event's window into the single frozen par-value row
// (spec.md §9 open question (b)).
func mergeForecastDays(reading *metadata.WeatherReading, days []aggregation.DailyForecastSummary) {
	first := true
	var humidityMinSum, humidityMaxSum, humidityCount float64
	for _, d := range days {
		if first {
			reading.ForecastedTempLow = d.TempLow
			reading.ForecastedTempHigh = d.TempHigh
			first = false
		} else {
			reading.ForecastedTempLow = minFloat(reading.ForecastedTempLow, d.TempLow)
			reading.ForecastedTempHigh = maxFloat(reading.ForecastedTempHigh, d.TempHigh)
		}
		reading.ForecastedWindSpeed = maxFloat(reading.ForecastedWindSpeed, d.WindSpeed)
		reading.ForecastedWindDirection = maxFloat(reading.ForecastedWindDirection, d.WindDirection)
		reading.ForecastedRainAmt += d.RainAmt
		reading.ForecastedSnowAmt += d.SnowAmt
		reading.ForecastedIceAmt += d.IceAmt
		if d.HumidityKnown {
			humidityMinSum += d.HumidityMin
			humidityMaxSum += d.HumidityMax
			humidityCount++
		}
	}
	if humidityCount > 0 {
		reading.ForecastedHumidityMin = humidityMinSum / humidityCount
		reading.ForecastedHumidityMax = humidityMaxSum / humidityCount
	}
}

func minFloat(a, b float64) float64 {
	if b < a {
		return b
	}
	return a
}

func maxFloat(a, b float64) float64 {
	if b > a {
		return b
	}
	return a
}
