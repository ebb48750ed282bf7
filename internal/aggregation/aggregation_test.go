package aggregation

import (
	"math"
	"testing"
	"time"

	"github.com/wxoracle/wxoracle/internal/snapshot"
)

func fp(v float64) *float64 { return &v }
func sp(v string) *string   { return &v }

func TestClassifySnowToken(t *testing.T) {
	if got := Classify(" SN ", 5.0); got != PrecipSnow {
		t.Fatalf("expected snow, got %s", got)
	}
}

func TestClassifyIceToken(t *testing.T) {
	if got := Classify("FZRA", 0.2); got != PrecipIce {
		t.Fatalf("expected ice, got %s", got)
	}
}

func TestClassifyColdNoWxString(t *testing.T) {
	if got := Classify("", -1.0); got != PrecipSnow {
		t.Fatalf("expected snow for cold temp with no wx_string, got %s", got)
	}
}

func TestClassifyWarmNoWxString(t *testing.T) {
	if got := Classify("", 5.0); got != PrecipRain {
		t.Fatalf("expected rain for warm temp with no wx_string, got %s", got)
	}
}

func TestClassifyIsTotal(t *testing.T) {
	inputs := []struct {
		wx   string
		temp float64
	}{
		{"SN", 5}, {"BLSN", 5}, {"DRSN", 5},
		{"FZRA", 5}, {"FZDZ", 5}, {"PL", 5}, {"GR", 5}, {"GS", 5}, {"IC", 5},
		{"RA", 5}, {"", 5}, {"", -5},
	}
	for _, in := range inputs {
		c := Classify(in.wx, in.temp)
		if c != PrecipRain && c != PrecipSnow && c != PrecipIce {
			t.Fatalf("Classify(%q, %v) produced an unrecognized class: %v", in.wx, in.temp, c)
		}
	}
}

func TestSummarizeObservationsExtremaAndPrecip(t *testing.T) {
	gen := time.Date(2026, 3, 1, 6, 0, 0, 0, time.UTC)
	rows := []snapshot.ObservationRow{
		{StationID: "KORD", GeneratedAt: gen, TemperatureValue: -5, TemperatureUnitCode: "C", WxString: sp(" SN "), PrecipIn: fp(0.1)},
		{StationID: "KORD", GeneratedAt: gen.Add(6 * time.Hour), TemperatureValue: 5, TemperatureUnitCode: "C", WxString: sp("FZRA"), PrecipIn: fp(0.2)},
		{StationID: "KORD", GeneratedAt: gen.Add(12 * time.Hour), TemperatureValue: 10, TemperatureUnitCode: "C", PrecipIn: fp(0.3)},
	}

	summaries := SummarizeObservations(rows)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 daily summary, got %d", len(summaries))
	}
	s := summaries[0]
	if s.TempLow != -5 || s.TempHigh != 10 {
		t.Fatalf("expected temp range [-5,10], got [%v,%v]", s.TempLow, s.TempHigh)
	}
	if math.Abs(s.SnowAmt-1.0) > 1e-9 {
		t.Fatalf("expected snow_amt=1.0 (0.1*10), got %v", s.SnowAmt)
	}
	if math.Abs(s.IceAmt-0.2) > 1e-9 {
		t.Fatalf("expected ice_amt=0.2, got %v", s.IceAmt)
	}
	if math.Abs(s.RainAmt-0.3) > 1e-9 {
		t.Fatalf("expected rain_amt=0.3, got %v", s.RainAmt)
	}
}

func TestSummarizeObservationsHumidityPerRowThenAveraged(t *testing.T) {
	gen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []snapshot.ObservationRow{
		{StationID: "KORD", GeneratedAt: gen, TemperatureValue: 20, TemperatureUnitCode: "C", DewpointValue: fp(10)},
		{StationID: "KORD", GeneratedAt: gen.Add(time.Hour), TemperatureValue: 25, TemperatureUnitCode: "C", DewpointValue: fp(20)},
	}
	summaries := SummarizeObservations(rows)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	want := math.Round((magnusRH(20, 10) + magnusRH(25, 20)) / 2)
	if float64(summaries[0].Humidity) != want {
		t.Fatalf("expected per-row-then-averaged humidity %v, got %v", want, summaries[0].Humidity)
	}
}

func TestSummarizeObservationsIdempotent(t *testing.T) {
	gen := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := []snapshot.ObservationRow{
		{StationID: "KORD", GeneratedAt: gen, TemperatureValue: 1, TemperatureUnitCode: "C", PrecipIn: fp(0.1)},
		{StationID: "KBOS", GeneratedAt: gen, TemperatureValue: 2, TemperatureUnitCode: "C"},
	}
	first := SummarizeObservations(rows)
	second := SummarizeObservations(rows)
	if len(first) != len(second) {
		t.Fatalf("non-idempotent: %d vs %d summaries", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("non-idempotent at index %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestSummarizeForecastsDeduplicatesByLatestGeneratedAt(t *testing.T) {
	begin := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := []snapshot.ForecastRow{
		{StationID: "KORD", GeneratedAt: begin.Add(-6 * time.Hour), BeginTime: begin, EndTime: end, MinTemp: -5, MaxTemp: 1, TemperatureUnitCode: "C"},
		{StationID: "KORD", GeneratedAt: begin.Add(-3 * time.Hour), BeginTime: begin, EndTime: end, MinTemp: -3, MaxTemp: 5, TemperatureUnitCode: "C"},
	}
	summaries := SummarizeForecasts(rows)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].TempHigh != 5 {
		t.Fatalf("expected de-duplication to keep the latest generated_at row (max_temp=5), got %v", summaries[0].TempHigh)
	}
}

func TestSummarizeForecastsRainAmtAdjustsForSnowRatio(t *testing.T) {
	begin := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := []snapshot.ForecastRow{
		{
			StationID: "KORD", GeneratedAt: begin, BeginTime: begin, EndTime: end,
			MinTemp: -5, MaxTemp: 1, TemperatureUnitCode: "C",
			LiquidPrecipitationAmt: fp(1.0), SnowAmt: fp(5.0), SnowRatio: fp(10.0),
		},
	}
	summaries := SummarizeForecasts(rows)
	if len(summaries) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(summaries))
	}
	// total_qpf=1.0, snow_amt/avg_ratio = 5.0/10.0 = 0.5, ice=0 -> rain = 0.5
	if math.Abs(summaries[0].RainAmt-0.5) > 1e-9 {
		t.Fatalf("expected rain_amt=0.5, got %v", summaries[0].RainAmt)
	}
}

func TestSummarizeForecastsRainAmtWithoutSnowRatio(t *testing.T) {
	begin := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := []snapshot.ForecastRow{
		{
			StationID: "KORD", GeneratedAt: begin, BeginTime: begin, EndTime: end,
			MinTemp: -5, MaxTemp: 1, TemperatureUnitCode: "C",
			LiquidPrecipitationAmt: fp(2.0), IceAmt: fp(0.5),
		},
	}
	summaries := SummarizeForecasts(rows)
	if math.Abs(summaries[0].RainAmt-1.5) > 1e-9 {
		t.Fatalf("expected rain_amt=1.5 when snow_ratio is absent, got %v", summaries[0].RainAmt)
	}
}

func TestSummarizeForecastsRainAmtNeverNegative(t *testing.T) {
	begin := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	rows := []snapshot.ForecastRow{
		{
			StationID: "KORD", GeneratedAt: begin, BeginTime: begin, EndTime: end,
			MinTemp: -5, MaxTemp: 1, TemperatureUnitCode: "C",
			LiquidPrecipitationAmt: fp(1.0), IceAmt: fp(5.0),
		},
	}
	summaries := SummarizeForecasts(rows)
	if summaries[0].RainAmt != 0 {
		t.Fatalf("expected rain_amt floored at 0, got %v", summaries[0].RainAmt)
	}
}
