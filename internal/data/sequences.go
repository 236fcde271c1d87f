// Package data loads the hourly input series of a scenario from JSON or CSV.
package data

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"offgrid-planner/internal/model"
)

// Sequences is the JSON shape of the input series: a timestamp index and one
// value per hour for demand (kW) and solar potential (W/m² or any unit; it is
// normalized to its peak).
type Sequences struct {
	Index          []string  `json:"index"`
	Demand         []float64 `json:"demand"`
	SolarPotential []float64 `json:"solar_potential"`
}

var timeLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02 15:04"}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// TimeSeries converts the sequences. An empty index leaves Start unset; a
// present index must be hourly and match the values in length. A missing
// solar series means no sun at all.
func (s Sequences) TimeSeries() (model.TimeSeries, error) {
	ts := model.TimeSeries{Demand: s.Demand, SolarPotential: s.SolarPotential}
	if len(ts.SolarPotential) == 0 {
		ts.SolarPotential = make([]float64, len(ts.Demand))
	}
	if len(s.Index) == 0 {
		return ts, nil
	}
	if len(s.Index) != len(s.Demand) {
		return ts, fmt.Errorf("index has %d entries for %d demand values", len(s.Index), len(s.Demand))
	}
	start, err := hourlyStart(s.Index)
	if err != nil {
		return ts, err
	}
	ts.Start = start
	return ts, nil
}

func hourlyStart(index []string) (time.Time, error) {
	var start, prev time.Time
	for i, raw := range index {
		t, err := parseTime(raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("index %d: %w", i, err)
		}
		if i == 0 {
			start = t
		} else if t.Sub(prev) != time.Hour {
			return time.Time{}, fmt.Errorf("index %d: expected hourly steps, got %s after %s", i, raw, prev.Format(time.RFC3339))
		}
		prev = t
	}
	return start, nil
}

func LoadSequencesJSON(path string) (model.TimeSeries, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.TimeSeries{}, err
	}
	var s Sequences
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.TimeSeries{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return s.TimeSeries()
}

// Load picks the loader from the file extension.
func Load(path string) (model.TimeSeries, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadSequencesJSON(path)
	case ".csv":
		return LoadCSV(path)
	default:
		return model.TimeSeries{}, fmt.Errorf("unsupported sequences file %q (want .json or .csv)", path)
	}
}
