package data

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"offgrid-planner/internal/model"
)

var timeColumns = []string{"dt", "index", "timestamp", "time"}

// LoadCSV reads a header row followed by one row per hour. Required columns
// are demand and solar_potential; a dt/index/timestamp column is optional.
func LoadCSV(path string) (model.TimeSeries, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.TimeSeries{}, err
	}
	defer f.Close()
	ts, err := ReadCSV(f)
	if err != nil {
		return ts, fmt.Errorf("%s: %w", path, err)
	}
	return ts, nil
}

func ReadCSV(r io.Reader) (model.TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return model.TimeSeries{}, fmt.Errorf("read header: %w", err)
	}
	cols := map[string]int{}
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	demandCol, ok := cols["demand"]
	if !ok {
		return model.TimeSeries{}, fmt.Errorf("missing demand column")
	}
	solarCol, ok := cols["solar_potential"]
	if !ok {
		return model.TimeSeries{}, fmt.Errorf("missing solar_potential column")
	}
	timeCol := -1
	for _, name := range timeColumns {
		if i, ok := cols[name]; ok {
			timeCol = i
			break
		}
	}

	var s Sequences
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return model.TimeSeries{}, err
		}
		d, err := strconv.ParseFloat(strings.TrimSpace(rec[demandCol]), 64)
		if err != nil {
			return model.TimeSeries{}, fmt.Errorf("line %d: demand: %w", line, err)
		}
		sp, err := strconv.ParseFloat(strings.TrimSpace(rec[solarCol]), 64)
		if err != nil {
			return model.TimeSeries{}, fmt.Errorf("line %d: solar_potential: %w", line, err)
		}
		s.Demand = append(s.Demand, d)
		s.SolarPotential = append(s.SolarPotential, sp)
		if timeCol >= 0 {
			s.Index = append(s.Index, rec[timeCol])
		}
	}
	return s.TimeSeries()
}
