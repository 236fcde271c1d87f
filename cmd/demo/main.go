package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/logging"
	"offgrid-planner/internal/model"
	"offgrid-planner/internal/optimize"
	"offgrid-planner/internal/results"
	"offgrid-planner/internal/solver/simplex"
)

// Demo:
// - Build a synthetic village load and solar profile
// - Size a PV/battery/diesel hybrid with the in-process solver
// - Print the summary and the first hours of dispatch
func main() {
	days := flag.Int("days", 1, "Number of days to simulate")
	peak := flag.Float64("peak", 20, "Evening peak demand in kW")
	offset := flag.Bool("offset", false, "Use the on/off genset with a 30% minimum load")
	n := flag.Int("n", 12, "Number of hourly rows to print")
	outCSV := flag.String("out", "", "Optional path to write the energy flows CSV (e.g. results/flows.csv)")
	logLevel := flag.String("log-level", "info", "Log level")
	flag.Parse()

	logger, err := logging.New(*logLevel, false)
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ts := villageSeries(*days, *peak)
	sys := hybridSystem(*offset)
	fin := annuity.Financials{WACC: 0.1, ProjectLifetime: 20}

	engine := optimize.New(simplex.New(simplex.Config{}), logger)
	res, err := engine.Run(context.Background(), optimize.Input{Name: "demo-village", System: sys, Series: ts, Financials: fin})
	if err != nil {
		panic(err)
	}

	r := res.Results.Rounded()
	fmt.Print(r.Summary())
	if r.Infeasible {
		os.Exit(1)
	}
	fmt.Printf("costs/year: total=%.2f fuel=%.2f  fuel=%.0f l/year  co2=%.1f t/year\n",
		r.Costs.Total, r.Costs.Fuel, r.FuelConsumption, r.CO2Emissions)

	fmt.Printf("\n%-17s %8s %8s %8s %8s %8s %8s  %s\n", "hour", "demand", "genset", "pv", "bat_in", "bat_out", "soc_kwh", "battery")
	rows := res.Results.EnergyFlows
	for i := 0; i < *n && i < len(rows); i++ {
		row := rows[i]
		fmt.Printf("%-17s %8.2f %8.2f %8.2f %8.2f %8.2f %8.2f  %s\n", row.Time.Format("2006-01-02 15:04"),
			row.Demand, row.DieselGenset, row.PV, row.BatteryCharge, row.BatteryDischarge, row.BatteryContent, row.BatteryAction)
	}

	if *outCSV != "" {
		if err := results.WriteFlowsCSV(*outCSV, rows); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(rows), *outCSV)
	}
}

// villageSeries is a household-dominated load with a small daytime business
// base and an evening peak, and a clear-sky solar bell between 06:00 and 18:00.
func villageSeries(days int, peak float64) model.TimeSeries {
	if days < 1 {
		days = 1
	}
	ts := model.TimeSeries{Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)}
	for d := 0; d < days; d++ {
		for h := 0; h < model.HoursPerDay; h++ {
			load := 0.2 * peak
			switch {
			case h >= 8 && h < 17:
				load = 0.45 * peak
			case h >= 18 && h < 23:
				load = peak
			}
			sun := 0.0
			if h >= 6 && h <= 18 {
				sun = 1000 * math.Sin(math.Pi*float64(h-6)/12)
			}
			ts.Demand = append(ts.Demand, load)
			ts.SolarPotential = append(ts.SolarPotential, math.Max(sun, 0))
		}
	}
	return ts
}

func hybridSystem(offset bool) model.EnergySystem {
	design := model.Settings{IsSelected: true, Design: true}
	return model.EnergySystem{
		PV: model.PVSpec{Settings: design, Cost: model.Cost{Capex: 800, Opex: 10, Lifetime: 25}},
		DieselGenset: model.GensetSpec{
			Settings:      design,
			Cost:          model.Cost{Capex: 300, Opex: 25, Lifetime: 8},
			VariableCost:  0.023,
			FuelCost:      1.2,
			FuelLHV:       11.83,
			MinLoad:       0.3,
			MaxEfficiency: 0.33,
			Offset:        offset,
		},
		Battery: model.BatterySpec{
			Settings:   design,
			Cost:       model.Cost{Capex: 350, Opex: 7, Lifetime: 6},
			SOCMin:     0.3,
			SOCMax:     1,
			CRateIn:    1,
			CRateOut:   0.5,
			Efficiency: 0.95,
		},
		Inverter:  model.ConverterSpec{Settings: design, Cost: model.Cost{Capex: 415, Opex: 8, Lifetime: 10}, Efficiency: 0.98},
		Rectifier: model.ConverterSpec{Settings: design, Cost: model.Cost{Capex: 415, Opex: 8, Lifetime: 10}, Efficiency: 0.98},
		Shortage:  model.ShortageSpec{},
	}
}
