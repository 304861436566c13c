package scenario

import "time"

// Example returns a self-contained three zone scenario with a mix of thermal, wind and solar generation.
// Every call returns a fresh value.
func Example() *Scenario {
	seed := int64(42)
	return &Scenario{
		Meta: &Meta{
			Region:               "Tri-Valley",
			Seed:                 &seed,
			ReservePercent:       8,
			PriceCap:             1000,
			DayAheadDefaultPrice: 55,
			ScoreWeights:         ScoreWeights{Reliability: 0.5, Cost: 0.3, Emissions: 0.2},
		},
		Clock: &Clock{
			Start:         time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
			DurationHours: 24,
			TickMinutes:   15,
		},
		Zones: []Zone{
			{ID: "north", Name: "North", BaseLoad: 420, TempSensitivity: 6},
			{ID: "central", Name: "Central", BaseLoad: 650, TempSensitivity: 9},
			{ID: "south", Name: "South", BaseLoad: 380, TempSensitivity: 5},
		},
		Transmission: []TransmissionLink{
			{ID: "north-central", From: "north", To: "central", Limit: 250},
			{ID: "central-south", From: "central", To: "south", Limit: 200},
		},
		ThermalUnits: []ThermalUnit{
			{ID: "n-coal", Name: "Ridge Coal", Zone: "north", Fuel: "coal", Pmax: 400, Pmin: 150, Ramp: 60, HeatRate: 10.5, FuelPrice: 22, VOM: 4, Emissions: 0.95, ReserveCap: 40, PoissonRate: 0.01, RepairHours: [2]float64{4, 10}},
			{ID: "n-ct", Name: "North Peaker", Zone: "north", Fuel: "gas", Pmax: 120, Pmin: 20, Ramp: 60, HeatRate: 11, FuelPrice: 35, VOM: 6, Emissions: 0.55, ReserveCap: 60, PoissonRate: 0.02, RepairHours: [2]float64{2, 6}},
			{ID: "c-ccgt", Name: "Central CCGT", Zone: "central", Fuel: "gas", Pmax: 600, Pmin: 200, Ramp: 100, HeatRate: 7, FuelPrice: 35, VOM: 3, Emissions: 0.37, ReserveCap: 80, PoissonRate: 0.01, RepairHours: [2]float64{3, 8}},
			{ID: "c-ct", Name: "Central Peaker", Zone: "central", Fuel: "gas", Pmax: 200, Pmin: 30, Ramp: 100, HeatRate: 10, FuelPrice: 35, VOM: 6, Emissions: 0.5, ReserveCap: 100, PoissonRate: 0.02, RepairHours: [2]float64{2, 6}},
			{ID: "s-ccgt", Name: "Harbour CCGT", Zone: "south", Fuel: "gas", Pmax: 350, Pmin: 100, Ramp: 80, HeatRate: 7.2, FuelPrice: 35, VOM: 3, Emissions: 0.38, ReserveCap: 60, PoissonRate: 0.01, RepairHours: [2]float64{3, 8}},
		},
		Renewables: &Renewables{
			Solar: []Plant{{Zone: "south", Pmax: 180}, {Zone: "central", Pmax: 90}},
			Wind:  []Plant{{Zone: "north", Pmax: 220}},
		},
		Battery: &Battery{Zone: "central", Power: 100, DurationHours: 4, RoundTripEff: 0.88, InitialSoc: 0.5},
		Weather: &Weather{
			Temperature: TemperatureParams{Base: 24, Amplitude: 6},
			Wind:        WindParams{Mean: 8, Variance: 4},
			Solar:       SolarParams{Peak: 0.9},
		},
	}
}
