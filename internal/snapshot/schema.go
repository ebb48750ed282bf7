// Package snapshot implements the append-only directory of immutable
// columnar snapshot files that back the Snapshot Store (spec.md §4.A).
package snapshot

import "time"

// Kind is the closed tagged variant distinguishing the two snapshot
// families (spec.md §3/§9).
type Kind string

const (
	KindObservations Kind = "observations"
	KindForecasts    Kind = "forecasts"
)

// Valid reports whether k is a recognized snapshot kind.
func (k Kind) Valid() bool {
	return k == KindObservations || k == KindForecasts
}

// ObservationRow is one station's hourly reading, as written by the
// ingestion daemon and read back by the Aggregation Engine. Readers
// tolerate files with additional columns not listed here (spec.md §3).
type ObservationRow struct {
	StationID           string     `parquet:"station_id"`
	GeneratedAt         time.Time  `parquet:"generated_at,timestamp"`
	TemperatureValue    float64    `parquet:"temperature_value"`
	TemperatureUnitCode string     `parquet:"temperature_unit_code"`
	DewpointValue       *float64   `parquet:"dewpoint_value,optional"`
	WindSpeed           *float64   `parquet:"wind_speed,optional"`
	WindDirection       *float64   `parquet:"wind_direction,optional"`
	PrecipIn            *float64   `parquet:"precip_in,optional"`
	WxString            *string    `parquet:"wx_string,optional"`
	StationName         *string    `parquet:"station_name,optional"`
	State               *string    `parquet:"state,optional"`
	IATAID              *string    `parquet:"iata_id,optional"`
	ElevationM          *float64   `parquet:"elevation_m,optional"`
	Latitude            *float64   `parquet:"latitude,optional"`
	Longitude           *float64   `parquet:"longitude,optional"`
}

// ForecastRow is one station's forecast period, keyed by the window it
// covers ([BeginTime, EndTime)) and the moment it was generated.
type ForecastRow struct {
	StationID                        string    `parquet:"station_id"`
	GeneratedAt                      time.Time `parquet:"generated_at,timestamp"`
	BeginTime                        time.Time `parquet:"begin_time,timestamp"`
	EndTime                          time.Time `parquet:"end_time,timestamp"`
	MinTemp                          float64   `parquet:"min_temp"`
	MaxTemp                          float64   `parquet:"max_temp"`
	WindSpeed                        *float64  `parquet:"wind_speed,optional"`
	WindDirection                    *float64  `parquet:"wind_direction,optional"`
	RelativeHumidityMin              *float64  `parquet:"relative_humidity_min,optional"`
	RelativeHumidityMax              *float64  `parquet:"relative_humidity_max,optional"`
	TwelveHourProbabilityOfPrecip    *float64  `parquet:"twelve_hour_probability_of_precipitation,optional"`
	LiquidPrecipitationAmt           *float64  `parquet:"liquid_precipitation_amt,optional"`
	SnowAmt                          *float64  `parquet:"snow_amt,optional"`
	SnowRatio                        *float64  `parquet:"snow_ratio,optional"`
	IceAmt                           *float64  `parquet:"ice_amt,optional"`
	TemperatureUnitCode              string    `parquet:"temperature_unit_code"`
}
