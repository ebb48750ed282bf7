package metadata

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// StringList is a Go string slice persisted as a JSON array column. It
// backs Event.Locations and Event.ScoringFields and Event.OutcomeLabels,
// the ordered sets spec.md §3 requires.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	return json.Marshal([]string(l))
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported Scan type for StringList: %T", value)
	}
	return json.Unmarshal(raw, (*[]string)(l))
}

// EventState is the closed tagged variant an event's lifecycle state
// takes (spec.md §4.D, §9).
type EventState string

const (
	EventStateCreated      EventState = "CREATED"
	EventStateOpen         EventState = "OPEN"
	EventStateAwaitingSign EventState = "AWAITING_SIGN"
	EventStateSigned       EventState = "SIGNED"
)

// Direction is the closed tagged variant an expected observation's
// prediction takes (spec.md §3, §9).
type Direction string

const (
	DirectionOver  Direction = "over"
	DirectionPar   Direction = "par"
	DirectionUnder Direction = "under"
)

// OracleIdentity is the singleton row identifying this oracle's
// keypair (spec.md §3).
type OracleIdentity struct {
	ID        string    `gorm:"column:id;primaryKey"`
	Pubkey    string    `gorm:"column:pubkey;not null"`
	Name      string    `gorm:"column:name;not null"`
	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (OracleIdentity) TableName() string { return "oracle_identities" }

// Event is the persisted DLC event row (spec.md §3).
type Event struct {
	EventID                 string     `gorm:"column:event_id;primaryKey"`
	TotalAllowedEntries     int        `gorm:"column:total_allowed_entries;not null"`
	NumberOfPlacesWin       int        `gorm:"column:number_of_places_win;not null"`
	NumberOfValuesPerEntry  int        `gorm:"column:number_of_values_per_entry;not null"`
	SigningDate             time.Time  `gorm:"column:signing_date;not null"`
	StartObservationDate    time.Time  `gorm:"column:start_observation_date;not null"`
	EndObservationDate      time.Time  `gorm:"column:end_observation_date;not null"`
	Locations               StringList `gorm:"column:locations;not null"`
	ScoringFields           StringList `gorm:"column:scoring_fields;not null"`
	OutcomeLabels           StringList `gorm:"column:outcome_labels;not null"`
	Nonce                   []byte     `gorm:"column:nonce"`
	EventAnnouncement       []byte     `gorm:"column:event_announcement;not null"`
	CoordinatorPubkey       *string    `gorm:"column:coordinator_pubkey"`
	AttestationSignature    []byte     `gorm:"column:attestation_signature"`
	State                   EventState `gorm:"column:state;not null;default:CREATED"`
	CreatedAt               time.Time  `gorm:"column:created_at;not null;autoCreateTime"`
}

func (Event) TableName() string { return "events" }

// Entry is one submitted prediction set (spec.md §3).
type Entry struct {
	EntryID     string    `gorm:"column:entry_id;primaryKey"`
	EventID     string    `gorm:"column:event_id;not null;index"`
	SlotIndex   int       `gorm:"column:slot_index;not null"` // 1-based submission order, used to resolve outcome labels
	Predictions string    `gorm:"column:predictions;not null"` // JSON-encoded []ExpectedObservationInput, kept for audit
	Score       *int      `gorm:"column:score"`
	BaseScore   *int      `gorm:"column:base_score"`
	CreatedAt   time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (Entry) TableName() string { return "entries" }

// ExpectedObservation is one (station, field) categorical prediction
// within an entry (spec.md §3).
type ExpectedObservation struct {
	ID        string    `gorm:"column:id;primaryKey"`
	EntryID   string    `gorm:"column:entry_id;not null;index"`
	StationID string    `gorm:"column:station_id;not null"`
	Field     string    `gorm:"column:field;not null"`
	Direction Direction `gorm:"column:direction;not null"`
}

func (ExpectedObservation) TableName() string { return "expected_observations" }

// WeatherReading is the immutable, per-event, per-station frozen
// snapshot used for scoring (spec.md §3). Observed fields come from
// the Aggregation Engine's daily observation summary; forecasted
// fields come from the daily forecast summary in effect at freeze
// time (spec.md §9 open question (b): par is the forecast value
// captured here).
type WeatherReading struct {
	ID              string    `gorm:"column:id;primaryKey"`
	EventID         string    `gorm:"column:event_id;not null;index"`
	StationID       string    `gorm:"column:station_id;not null"`
	ObservedDate    time.Time `gorm:"column:observed_date;not null"`

	ObservedTempLow       float64 `gorm:"column:observed_temp_low"`
	ObservedTempHigh      float64 `gorm:"column:observed_temp_high"`
	ObservedWindSpeed     float64 `gorm:"column:observed_wind_speed"`
	ObservedWindDirection float64 `gorm:"column:observed_wind_direction"`
	ObservedHumidity      int     `gorm:"column:observed_humidity"`
	ObservedRainAmt       float64 `gorm:"column:observed_rain_amt"`
	ObservedSnowAmt       float64 `gorm:"column:observed_snow_amt"`
	ObservedIceAmt        float64 `gorm:"column:observed_ice_amt"`

	ForecastedTempLow       float64 `gorm:"column:forecasted_temp_low"`
	ForecastedTempHigh      float64 `gorm:"column:forecasted_temp_high"`
	ForecastedWindSpeed     float64 `gorm:"column:forecasted_wind_speed"`
	ForecastedWindDirection float64 `gorm:"column:forecasted_wind_direction"`
	ForecastedHumidityMin   float64 `gorm:"column:forecasted_humidity_min"`
	ForecastedHumidityMax   float64 `gorm:"column:forecasted_humidity_max"`
	ForecastedRainAmt       float64 `gorm:"column:forecasted_rain_amt"`
	ForecastedSnowAmt       float64 `gorm:"column:forecasted_snow_amt"`
	ForecastedIceAmt        float64 `gorm:"column:forecasted_ice_amt"`

	CreatedAt time.Time `gorm:"column:created_at;not null;autoCreateTime"`
}

func (WeatherReading) TableName() string { return "weather_readings" }
