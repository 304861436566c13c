package controller

import (
	"math"
	"testing"
	"time"

	"github.com/cepro/gridsim/scenario"
)

// almostEqual compares two floats, allowing for the given tolerance
func almostEqual(a, b, tolerance float64) bool {
	if a == b {
		// This is to support infinite float values
		return true
	}

	diff := math.Abs(a - b)
	return diff < tolerance
}

// mustParseTime returns the time.Time associated with the given string or panics.
func mustParseTime(str string) time.Time {
	time, err := time.Parse(time.RFC3339, str)
	if err != nil {
		panic(err)
	}
	return time
}

// flatScenario returns three identical 500MW zones, each with a single 600MW unit that can ramp to full
// output in one tick, no renewables, no outages and unconstrained links, over 24 hourly ticks.
func flatScenario() *scenario.Scenario {
	seed := int64(42)
	unit := func(id, zone string) scenario.ThermalUnit {
		return scenario.ThermalUnit{
			ID: id, Name: "Unit " + zone, Zone: zone,
			Pmax: 600, Pmin: 100, Ramp: 600,
			HeatRate: 8, FuelPrice: 30, VOM: 2, Emissions: 0.4, ReserveCap: 50,
			RepairHours: [2]float64{1, 2},
		}
	}
	return &scenario.Scenario{
		Meta: &scenario.Meta{
			Region:               "Flatland",
			Seed:                 &seed,
			ReservePercent:       5,
			PriceCap:             500,
			DayAheadDefaultPrice: 40,
			ScoreWeights:         scenario.ScoreWeights{Reliability: 0.6, Cost: 0.2, Emissions: 0.2},
		},
		Clock: &scenario.Clock{
			Start:         mustParseTime("2024-01-15T00:00:00Z"),
			DurationHours: 24,
			TickMinutes:   60,
		},
		Zones: []scenario.Zone{
			{ID: "a", Name: "Alpha", BaseLoad: 500},
			{ID: "b", Name: "Bravo", BaseLoad: 500},
			{ID: "c", Name: "Charlie", BaseLoad: 500},
		},
		Transmission: []scenario.TransmissionLink{
			{ID: "ab", From: "a", To: "b", Limit: 10000},
			{ID: "bc", From: "b", To: "c", Limit: 10000},
		},
		ThermalUnits: []scenario.ThermalUnit{unit("ua", "a"), unit("ub", "b"), unit("uc", "c")},
		Renewables:   &scenario.Renewables{},
		Battery:      &scenario.Battery{Zone: "b", Power: 50, DurationHours: 2, RoundTripEff: 0.9, InitialSoc: 0.5},
		Weather: &scenario.Weather{
			Temperature: scenario.TemperatureParams{Base: 18, Amplitude: 4},
			Wind:        scenario.WindParams{Mean: 6, Variance: 2},
			Solar:       scenario.SolarParams{Peak: 0.8},
		},
	}
}

// mustNew returns a controller for `scn`, failing the test if it cannot be built.
func mustNew(t *testing.T, scn *scenario.Scenario) *Controller {
	t.Helper()
	c, err := New(scn)
	if err != nil {
		t.Fatalf("Could not create controller: %v", err)
	}
	return c
}

// mustStart creates a controller and starts its run with the default contract.
func mustStart(t *testing.T, scn *scenario.Scenario) *Controller {
	t.Helper()
	c := mustNew(t, scn)
	if err := c.StartRun(c.DefaultContract()); err != nil {
		t.Fatalf("Could not start run: %v", err)
	}
	return c
}

func unitSnapshot(s Snapshot, id string) UnitSnapshot {
	for _, u := range s.Units {
		if u.ID == id {
			return u
		}
	}
	return UnitSnapshot{}
}
