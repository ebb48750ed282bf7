package ingest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

// Source fetches one feed's observations and forecasts. Each named
// source in daemon.toml gets one Source implementation; HTTPSource is
// the only one this repo ships, since spec.md names no specific
// upstream protocol, only the shape a feed's rows must end up in.
type Source interface {
	Name() string
	FetchObservations(ctx context.Context) ([]snapshot.ObservationRow, error)
	FetchForecasts(ctx context.Context) ([]snapshot.ForecastRow, error)
}

// HTTPSource polls a pair of HTTPS JSON endpoints that already emit
// rows shaped like snapshot.ObservationRow/ForecastRow (field-for-field
// JSON), applying unit normalization on the way in. Feeds emitting a
// foreign wire format need their own Source implementation; none is
// required by anything this repo currently talks to.
type HTTPSource struct {
	SourceName      string
	ObservationsURL string
	ForecastsURL    string
	Client          *http.Client
}

// NewHTTPSource constructs an HTTPSource with the 30s outbound timeout
// spec.md §5 requires.
func NewHTTPSource(name, observationsURL, forecastsURL string) *HTTPSource {
	return &HTTPSource{
		SourceName:      name,
		ObservationsURL: observationsURL,
		ForecastsURL:    forecastsURL,
		Client:          &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *HTTPSource) Name() string { return s.SourceName }

type wireObservationRow struct {
	StationID        string   `json:"station_id"`
	GeneratedAt      time.Time `json:"generated_at"`
	TemperatureValue float64  `json:"temperature_value"`
	TemperatureUnit  UnitCode `json:"temperature_unit_code"`
	DewpointValue    *float64 `json:"dewpoint_value,omitempty"`
	WindSpeed        *float64 `json:"wind_speed,omitempty"`
	WindDirection    *float64 `json:"wind_direction,omitempty"`
	PrecipIn         *float64 `json:"precip_in,omitempty"`
	WxString         *string  `json:"wx_string,omitempty"`
	StationName      *string  `json:"station_name,omitempty"`
	State            *string  `json:"state,omitempty"`
	IATAID           *string  `json:"iata_id,omitempty"`
	ElevationM       *float64 `json:"elevation_m,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
}

func (s *HTTPSource) FetchObservations(ctx context.Context) ([]snapshot.ObservationRow, error) {
	var wire []wireObservationRow
	if err := s.getJSON(ctx, s.ObservationsURL, &wire); err != nil {
		return nil, err
	}

	rows := make([]snapshot.ObservationRow, len(wire))
	for i, w := range wire {
		tempC, err := NormalizeTemperature(w.TemperatureValue, w.TemperatureUnit)
		if err != nil {
			return nil, apierr.Wrap(apierr.DataUnavailable, "normalize observation temperature", err)
		}
		rows[i] = snapshot.ObservationRow{
			StationID:           w.StationID,
			GeneratedAt:         w.GeneratedAt.UTC(),
			TemperatureValue:    tempC,
			TemperatureUnitCode: string(UnitCelsius),
			DewpointValue:       w.DewpointValue,
			WindSpeed:           w.WindSpeed,
			WindDirection:       w.WindDirection,
			PrecipIn:            w.PrecipIn,
			WxString:            w.WxString,
			StationName:         w.StationName,
			State:               w.State,
			IATAID:              w.IATAID,
			ElevationM:          w.ElevationM,
			Latitude:            w.Latitude,
			Longitude:           w.Longitude,
		}
	}
	return rows, nil
}

type wireForecastRow struct {
	StationID                     string    `json:"station_id"`
	GeneratedAt                   time.Time `json:"generated_at"`
	BeginTime                     time.Time `json:"begin_time"`
	EndTime                       time.Time `json:"end_time"`
	MinTemp                       float64   `json:"min_temp"`
	MaxTemp                       float64   `json:"max_temp"`
	TemperatureUnit               UnitCode  `json:"temperature_unit_code"`
	WindSpeed                     *float64  `json:"wind_speed,omitempty"`
	WindDirection                 *float64  `json:"wind_direction,omitempty"`
	RelativeHumidityMin           *float64  `json:"relative_humidity_min,omitempty"`
	RelativeHumidityMax           *float64  `json:"relative_humidity_max,omitempty"`
	TwelveHourProbabilityOfPrecip *float64  `json:"twelve_hour_probability_of_precipitation,omitempty"`
	LiquidPrecipitationAmt        *float64  `json:"liquid_precipitation_amt,omitempty"`
	SnowAmt                       *float64  `json:"snow_amt,omitempty"`
	SnowRatio                     *float64  `json:"snow_ratio,omitempty"`
	IceAmt                        *float64  `json:"ice_amt,omitempty"`
}

func (s *HTTPSource) FetchForecasts(ctx context.Context) ([]snapshot.ForecastRow, error) {
	var wire []wireForecastRow
	if err := s.getJSON(ctx, s.ForecastsURL, &wire); err != nil {
		return nil, err
	}

	rows := make([]snapshot.ForecastRow, len(wire))
	for i, w := range wire {
		minC, err := NormalizeTemperature(w.MinTemp, w.TemperatureUnit)
		if err != nil {
			return nil, apierr.Wrap(apierr.DataUnavailable, "normalize forecast min temperature", err)
		}
		maxC, err := NormalizeTemperature(w.MaxTemp, w.TemperatureUnit)
		if err != nil {
			return nil, apierr.Wrap(apierr.DataUnavailable, "normalize forecast max temperature", err)
		}
		rows[i] = snapshot.ForecastRow{
			StationID:                     w.StationID,
			GeneratedAt:                   w.GeneratedAt.UTC(),
			BeginTime:                     w.BeginTime.UTC(),
			EndTime:                       w.EndTime.UTC(),
			MinTemp:                       minC,
			MaxTemp:                       maxC,
			TemperatureUnitCode:           string(UnitCelsius),
			WindSpeed:                     w.WindSpeed,
			WindDirection:                 w.WindDirection,
			RelativeHumidityMin:           w.RelativeHumidityMin,
			RelativeHumidityMax:           w.RelativeHumidityMax,
			TwelveHourProbabilityOfPrecip: w.TwelveHourProbabilityOfPrecip,
			LiquidPrecipitationAmt:        w.LiquidPrecipitationAmt,
			SnowAmt:                       w.SnowAmt,
			SnowRatio:                     w.SnowRatio,
			IceAmt:                        w.IceAmt,
		}
	}
	return rows, nil
}

func (s *HTTPSource) getJSON(ctx context.Context, url string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apierr.Wrap(apierr.Fatal, "build feed request", err)
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return apierr.Wrap(apierr.Transient, "fetch feed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return apierr.New(apierr.Transient, "feed returned non-200 status "+resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return apierr.Wrap(apierr.Transient, "decode feed response", err)
	}
	return nil
}
