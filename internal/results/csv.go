package results

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

var flowsHeader = []string{
	"index",
	"dt",
	"diesel_genset_production",
	"pv_production",
	"rectifier",
	"inverter",
	"battery_charge",
	"battery_discharge",
	"battery_content",
	"demand",
	"surplus",
	"shortage",
	"fuel",
	"battery_action",
}

// WriteFlowsCSV writes the hourly energy flow table to path.
func WriteFlowsCSV(path string, rows []HourlyRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteFlows(f, rows)
}

// WriteFlows writes the hourly energy flow table as CSV.
func WriteFlows(out io.Writer, rows []HourlyRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	if err := w.Write(flowsHeader); err != nil {
		return err
	}
	for _, r := range rows {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Time),
			fmtFloat(r.DieselGenset),
			fmtFloat(r.PV),
			fmtFloat(r.Rectifier),
			fmtFloat(r.Inverter),
			fmtFloat(r.BatteryCharge),
			fmtFloat(r.BatteryDischarge),
			fmtFloat(r.BatteryContent),
			fmtFloat(r.Demand),
			fmtFloat(r.Surplus),
			fmtFloat(r.Shortage),
			fmtFloat(r.Fuel),
			string(r.BatteryAction),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 3, 64)
}
