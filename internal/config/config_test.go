package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"offgrid-planner/internal/annuity"
	"offgrid-planner/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func annuityFinancials() annuity.Financials {
	return annuity.Financials{WACC: 0.1, ProjectLifetime: 20}
}

func TestLoadScenario(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "scenario.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "test-village", s.Name)
	assert.Equal(t, filepath.Join("testdata", "sequences.csv"), s.Sequences.File)

	in, err := s.Input()
	require.NoError(t, err)
	assert.Equal(t, "test-village", in.Name)
	assert.InDelta(t, 0.1, in.Financials.WACC, 1e-12)
	assert.Equal(t, 20, in.Financials.ProjectLifetime)

	g := in.System.DieselGenset
	assert.Equal(t, model.ModeCapacityOptimized, g.Mode())
	assert.True(t, g.Offset)
	assert.Equal(t, model.Cost{Capex: 300, Opex: 20, Lifetime: 8}, g.Cost)
	assert.InDelta(t, 0.33, g.MaxEfficiency, 1e-12)
	assert.InDelta(t, 0.3, g.MinLoad, 1e-12)
	assert.Equal(t, 11.83, g.FuelLHV)

	b := in.System.Battery
	assert.Equal(t, model.ModeCapacityFixed, b.Mode())
	assert.Equal(t, 20.0, b.NominalCapacity)
	assert.InDelta(t, 0.3, b.SOCMin, 1e-12)
	assert.InDelta(t, 1, b.SOCMax, 1e-12)
	assert.InDelta(t, 0.95, b.Efficiency, 1e-12)
	assert.Equal(t, 0.5, b.CRateOut, "c-rates are not percentages")

	assert.Equal(t, model.ModeCapacityOptimized, in.System.PV.Mode())
	assert.InDelta(t, 0.98, in.System.Inverter.Efficiency, 1e-12)
	assert.Equal(t, model.ModeDisabled, in.System.Rectifier.Mode())
	assert.True(t, in.System.Shortage.IsSelected)
	assert.InDelta(t, 0.1, in.System.Shortage.MaxShortageTotal, 1e-12)
	assert.InDelta(t, 0.5, in.System.Shortage.MaxShortageTimestep, 1e-12)

	require.NotNil(t, in.Grid)
	assert.Equal(t, 140.0, in.Grid.Design.MGConnectionCost)
	assert.Equal(t, 10, in.Grid.Design.Pole.Lifetime)
	require.NotNil(t, in.Grid.Layout)
	assert.Equal(t, 4, in.Grid.Layout.NPoles)
	assert.Equal(t, 400.0, in.Grid.Layout.DistributionLength)

	require.NoError(t, in.Series.Validate())
	assert.Equal(t, 24, in.Series.Len())
	assert.Equal(t, 9.0, in.Series.PeakDemand())
	assert.Equal(t, time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), in.Series.Start)

	opts := s.SolverOptions()
	assert.Equal(t, 0.05, opts.MIPGap)
	assert.Equal(t, 30*time.Second, opts.TimeLimit)
}

func TestScenarioVariations(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "scenario.yaml"))
	require.NoError(t, err)

	inputs, err := s.Inputs()
	require.NoError(t, err)
	require.Len(t, inputs, 2)
	assert.Equal(t, "test-village", inputs[0].Name)
	assert.Equal(t, "no-battery", inputs[1].Name)
	assert.True(t, inputs[0].System.Battery.IsSelected)
	assert.False(t, inputs[1].System.Battery.IsSelected)
	assert.Equal(t, inputs[0].System.DieselGenset, inputs[1].System.DieselGenset)
	assert.Equal(t, inputs[0].Series, inputs[1].Series)

	// The base scenario is untouched by its variations.
	assert.Nil(t, s.EnergySystem["battery"].Settings.IsSelected)
}

func TestLoadJSONScenario(t *testing.T) {
	s, err := Load(filepath.Join("testdata", "scenario.json"))
	require.NoError(t, err)
	in, err := s.Input()
	require.NoError(t, err)
	assert.Equal(t, 0.08, in.Financials.WACC)
	assert.Equal(t, 24, in.Series.Len())
	assert.True(t, in.Series.Start.IsZero())
	assert.Nil(t, in.Grid)
	assert.False(t, in.System.DieselGenset.Offset)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(filepath.Join("testdata", "unknown.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrUnknownComponent)
	assert.ErrorContains(t, err, `unknown parameter "fuel_costs"`)
	assert.ErrorContains(t, err, `"pole" belongs to the other model`)
}

func TestValidate(t *testing.T) {
	base := func() *Scenario {
		return &Scenario{
			Financials: annuityFinancials(),
			EnergySystem: Components{
				"diesel_genset": {Parameters: map[string]float64{"capex": 300, "lifetime": 8, "fuel_lhv": 11.83, "max_efficiency": 0.33}},
			},
			Sequences: Sequences{Demand: []float64{1}},
		}
	}
	require.NoError(t, base().Validate())

	tests := []struct {
		name   string
		mutate func(*Scenario)
		want   string
	}{
		{"units", func(s *Scenario) { s.Units = "kwh" }, "units must be"},
		{"financials", func(s *Scenario) { s.Financials.ProjectLifetime = 0 }, "financials: project_lifetime"},
		{"empty system", func(s *Scenario) { s.EnergySystem = nil }, "energy_system_design is required"},
		{"sequences", func(s *Scenario) { s.Sequences = Sequences{} }, "file or inline demand"},
		{"solver", func(s *Scenario) { s.Solver.MIPGap = -1 }, "solver: mip_gap"},
		{"component", func(s *Scenario) {
			s.EnergySystem["battery"] = Component{Parameters: map[string]float64{"lifetime": 5, "efficiency": 1.2, "soc_max": 1}}
		}, "battery: efficiency"},
		{"fractional lifetime", func(s *Scenario) {
			s.EnergySystem["diesel_genset"].Parameters["lifetime"] = 7.5
		}, "energy_system_design.diesel_genset: lifetime must be a whole number of years (got 7.5)"},
		{"fractional grid lifetime", func(s *Scenario) {
			s.GridDesign = Components{"pole": {Parameters: map[string]float64{"capex": 800, "lifetime": 9.9}}}
		}, "grid_design.pole: lifetime must be a whole number"},
		{"variation name", func(s *Scenario) { s.Variations = []Variation{{}} }, "variations[0]: name is required"},
		{"duplicate variation", func(s *Scenario) { s.Variations = []Variation{{Name: "a"}, {Name: "a"}} }, `duplicate name "a"`},
		{"variation named like base", func(s *Scenario) {
			s.Name = "base"
			s.Variations = []Variation{{Name: "base"}}
		}, `duplicate name "base"`},
		{"grid", func(s *Scenario) {
			s.GridDesign = Components{"pole": {Parameters: map[string]float64{"capex": 1}}}
		}, "grid_design"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := base()
			tt.mutate(s)
			assert.ErrorContains(t, s.Validate(), tt.want)
		})
	}
}

func TestMergeComponents(t *testing.T) {
	base := Components{
		"pv":      {Settings: Settings{IsSelected: ptr(true)}, Parameters: map[string]float64{"capex": 800, "lifetime": 25}},
		"battery": {Parameters: map[string]float64{"capex": 350}},
	}
	override := Components{
		"pv":       {Settings: Settings{Design: ptr(false)}, Parameters: map[string]float64{"nominal_capacity": 12}},
		"inverter": {Parameters: map[string]float64{"efficiency": 0.98}},
	}
	out := MergeComponents(base, override)

	assert.Equal(t, true, *out["pv"].Settings.IsSelected)
	assert.Equal(t, false, *out["pv"].Settings.Design)
	assert.Equal(t, map[string]float64{"capex": 800, "lifetime": 25, "nominal_capacity": 12}, out["pv"].Parameters)
	assert.Equal(t, 350.0, out["battery"].Parameters["capex"])
	assert.Equal(t, 0.98, out["inverter"].Parameters["efficiency"])

	assert.NotContains(t, base["pv"].Parameters, "nominal_capacity")
	assert.Nil(t, base["pv"].Settings.Design)
}

func TestLoadUncheckedMissingComponentsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "s.yaml")
	require.NoError(t, os.WriteFile(path, []byte("components_file: nope.yaml\n"), 0o644))
	_, err := LoadUnchecked(path)
	assert.Error(t, err)
}

func TestScanPresets(t *testing.T) {
	dir := t.TempDir()
	raw, err := os.ReadFile(filepath.Join("testdata", "components.yaml"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hybrid.yaml"), raw, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "basic.yml"), []byte("energy_system_design:\n  pv: {}\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	cat, err := ScanPresets(dir)
	require.NoError(t, err)
	require.Len(t, cat.Presets, 2)
	assert.Equal(t, "basic", cat.Presets[0].Name)
	assert.Equal(t, "hybrid", cat.Presets[1].Name)
	assert.Equal(t, "test preset", cat.Presets[1].Description)
	assert.Contains(t, cat.Presets[1].Components, "battery")

	_, ok := cat.Find("hybrid")
	assert.True(t, ok)
	_, ok = cat.Find("missing")
	assert.False(t, ok)

	out := filepath.Join(t.TempDir(), "sub", "catalogue.json")
	require.NoError(t, SaveCatalogue(cat, out))
	loaded, err := LoadCatalogue(out)
	require.NoError(t, err)
	assert.Equal(t, cat.Presets[1].Components["battery"].Parameters, loaded.Presets[1].Components["battery"].Parameters)
}

func TestScanPresetsRejectsBadFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("energy_system_design:\n  wind: {}\n"), 0o644))
	_, err := ScanPresets(dir)
	assert.ErrorIs(t, err, model.ErrUnknownComponent)

	_, err = ScanPresets(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestLoadServer(t *testing.T) {
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SOLVER_TIME_LIMIT", "45s")
	t.Setenv("STORE", "redis")
	t.Setenv("CORS_ORIGINS", "http://a.test,http://b.test")

	s, err := LoadServer()
	require.NoError(t, err)
	assert.Equal(t, 9090, s.Port)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 45*time.Second, s.TimeLimit)
	assert.Equal(t, StoreRedis, s.Store)
	assert.Equal(t, "simplex", s.Solver)
	assert.Equal(t, 0.03, s.SolverGap)
	assert.Equal(t, time.Hour, s.ResultTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, s.CORSOrigins)
	assert.False(t, s.Production())
}

func TestLoadServerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_env: production\nsolver: cbc\nresult_ttl: 10m\n"), 0o644))
	t.Setenv("CONFIG_FILE", path)

	s, err := LoadServer()
	require.NoError(t, err)
	assert.True(t, s.Production())
	assert.Equal(t, "cbc", s.Solver)
	assert.Equal(t, 10*time.Minute, s.ResultTTL)
	assert.Equal(t, 8080, s.Port)
}

func TestLoadServerInvalid(t *testing.T) {
	t.Setenv("STORE", "disk")
	_, err := LoadServer()
	assert.ErrorContains(t, err, "store must be")
}
