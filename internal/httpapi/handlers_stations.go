package httpapi

import (
	"net/http"
	"time"

	"github.com/wxoracle/wxoracle/internal/aggregation"
	"github.com/wxoracle/wxoracle/internal/apierr"
	"github.com/wxoracle/wxoracle/internal/snapshot"
)

// handleListStations implements `GET /stations`: the set of station
// IDs present in the most recently generated observation snapshot
// file, per spec.md §6 ("from latest obs file").
func (s *Server) handleListStations(w http.ResponseWriter, r *http.Request) {
	files, err := s.snapshots.List(snapshot.KindObservations, time.Unix(0, 0).UTC(), time.Now().UTC())
	if err != nil {
		writeError(w, err)
		return
	}
	if len(files) == 0 {
		writeJSON(w, http.StatusOK, map[string][]string{"stations": {}})
		return
	}

	latest := files[len(files)-1]
	rows, err := s.snapshots.ReadObservations([]snapshot.File{latest})
	if err != nil {
		writeError(w, err)
		return
	}

	seen := make(map[string]bool)
	var stations []string
	for _, row := range rows {
		if !seen[row.StationID] {
			seen[row.StationID] = true
			stations = append(stations, row.StationID)
		}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"stations": stations})
}

// handleDailyObservations implements
// `GET /stations/daily-observations?station_ids=&start=&end=`.
func (s *Server) handleDailyObservations(w http.ResponseWriter, r *http.Request) {
	start, end, stationIDs, err := parseAggregationParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := s.snapshots.List(snapshot.KindObservations, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := s.snapshots.ReadObservations(files)
	if err != nil {
		writeError(w, err)
		return
	}
	rows = filterObservationsByStation(rows, stationIDs)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summaries": aggregation.SummarizeObservations(rows),
	})
}

// handleDailyForecasts implements
// `GET /stations/forecasts?station_ids=&start=&end=`.
func (s *Server) handleDailyForecasts(w http.ResponseWriter, r *http.Request) {
	start, end, stationIDs, err := parseAggregationParams(r)
	if err != nil {
		writeError(w, err)
		return
	}

	files, err := s.snapshots.List(snapshot.KindForecasts, start, end)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := s.snapshots.ReadForecasts(files)
	if err != nil {
		writeError(w, err)
		return
	}
	rows = filterForecastsByStation(rows, stationIDs)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"summaries": aggregation.SummarizeForecasts(rows),
	})
}

func parseAggregationParams(r *http.Request) (start, end time.Time, stationIDs []string, err error) {
	start, err = parseTimeParam(r, "start", time.Unix(0, 0).UTC())
	if err != nil {
		return
	}
	end, err = parseTimeParam(r, "end", time.Now().UTC())
	if err != nil {
		return
	}
	if !start.Before(end) {
		err = apierr.New(apierr.InvalidInput, "start must be before end")
		return
	}
	stationIDs = splitCSV(r.URL.Query().Get("station_ids"))
	return
}

func filterObservationsByStation(rows []snapshot.ObservationRow, stationIDs []string) []snapshot.ObservationRow {
	if len(stationIDs) == 0 {
		return rows
	}
	wanted := toSet(stationIDs)
	out := rows[:0:0]
	for _, r := range rows {
		if wanted[r.StationID] {
			out = append(out, r)
		}
	}
	return out
}

func filterForecastsByStation(rows []snapshot.ForecastRow, stationIDs []string) []snapshot.ForecastRow {
	if len(stationIDs) == 0 {
		return rows
	}
	wanted := toSet(stationIDs)
	out := rows[:0:0]
	for _, r := range rows {
		if wanted[r.StationID] {
			out = append(out, r)
		}
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
