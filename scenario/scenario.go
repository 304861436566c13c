// Package scenario holds the immutable description of a grid simulation run: its zones, links, units,
// renewables, battery and weather parameters.
package scenario

import "time"

type ScoreWeights struct {
	Reliability float64 `json:"reliability" yaml:"reliability"`
	Cost        float64 `json:"cost" yaml:"cost"`
	Emissions   float64 `json:"emissions" yaml:"emissions"`
}

type Meta struct {
	Region               string       `json:"region" yaml:"region"`
	Seed                 *int64       `json:"seed" yaml:"seed"`
	ReservePercent       float64      `json:"reservePercent" yaml:"reservePercent"`
	PriceCap             float64      `json:"priceCap" yaml:"priceCap"`
	DayAheadDefaultPrice float64      `json:"dayAheadDefaultPrice" yaml:"dayAheadDefaultPrice"`
	ScoreWeights         ScoreWeights `json:"scoreWeights" yaml:"scoreWeights"`
}

type Clock struct {
	Start         time.Time `json:"start" yaml:"start"`
	DurationHours float64   `json:"durationHours" yaml:"durationHours"`
	TickMinutes   float64   `json:"tickMinutes" yaml:"tickMinutes"`
}

type Zone struct {
	ID              string  `json:"id" yaml:"id"`
	Name            string  `json:"name" yaml:"name"`
	BaseLoad        float64 `json:"baseLoad" yaml:"baseLoad"`
	TempSensitivity float64 `json:"tempSensitivity" yaml:"tempSensitivity"` // MW per degree away from the comfort temperature
}

type TransmissionLink struct {
	ID    string  `json:"id" yaml:"id"`
	From  string  `json:"from" yaml:"from"`
	To    string  `json:"to" yaml:"to"`
	Limit float64 `json:"limit" yaml:"limit"`
}

// ThermalUnit is a dispatchable generator. Costs are per MWh, ramp is MW per tick.
type ThermalUnit struct {
	ID          string     `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	Zone        string     `json:"zone" yaml:"zone"`
	Fuel        string     `json:"fuel,omitempty" yaml:"fuel,omitempty"`
	Pmax        float64    `json:"pmax" yaml:"pmax"`
	Pmin        float64    `json:"pmin" yaml:"pmin"`
	Ramp        float64    `json:"ramp" yaml:"ramp"`
	HeatRate    float64    `json:"heatRate" yaml:"heatRate"`
	FuelPrice   float64    `json:"fuelPrice" yaml:"fuelPrice"`
	VOM         float64    `json:"vom" yaml:"vom"`
	Emissions   float64    `json:"emissions" yaml:"emissions"`
	ReserveCap  float64    `json:"reserveCap" yaml:"reserveCap"`
	PoissonRate float64    `json:"poissonRate" yaml:"poissonRate"`
	RepairHours [2]float64 `json:"repairHours" yaml:"repairHours"`
}

// Plant is a renewable plant attached to a zone.
type Plant struct {
	Zone string  `json:"zone" yaml:"zone"`
	Pmax float64 `json:"pmax" yaml:"pmax"`
}

type Renewables struct {
	Solar []Plant `json:"solar" yaml:"solar"`
	Wind  []Plant `json:"wind" yaml:"wind"`
}

type Battery struct {
	Zone          string  `json:"zone" yaml:"zone"`
	Power         float64 `json:"power" yaml:"power"`
	DurationHours float64 `json:"durationHours" yaml:"durationHours"`
	RoundTripEff  float64 `json:"roundTripEff" yaml:"roundTripEff"`
	InitialSoc    float64 `json:"initialSoc" yaml:"initialSoc"` // fraction of energy capacity
}

type TemperatureParams struct {
	Base      float64 `json:"base" yaml:"base"`
	Amplitude float64 `json:"amplitude" yaml:"amplitude"`
}

type WindParams struct {
	Mean     float64 `json:"mean" yaml:"mean"`
	Variance float64 `json:"variance" yaml:"variance"`
}

type SolarParams struct {
	Peak float64 `json:"peak" yaml:"peak"`
}

type Weather struct {
	Temperature TemperatureParams `json:"temperature" yaml:"temperature"`
	Wind        WindParams        `json:"wind" yaml:"wind"`
	Solar       SolarParams       `json:"solar" yaml:"solar"`
}

// Scenario is the full, immutable input to a simulation run.
// Pointer fields are pointers so that their presence can be validated.
type Scenario struct {
	Meta         *Meta              `json:"meta" yaml:"meta"`
	Clock        *Clock             `json:"clock" yaml:"clock"`
	Zones        []Zone             `json:"zones" yaml:"zones"`
	Transmission []TransmissionLink `json:"transmission" yaml:"transmission"`
	ThermalUnits []ThermalUnit      `json:"thermalUnits" yaml:"thermalUnits"`
	Renewables   *Renewables        `json:"renewables" yaml:"renewables"`
	Battery      *Battery           `json:"battery" yaml:"battery"`
	Weather      *Weather           `json:"weather" yaml:"weather"`
}

// SeedValue returns the configured seed, or zero if none was given.
func (m Meta) SeedValue() int64 {
	if m.Seed == nil {
		return 0
	}
	return *m.Seed
}

// Clone returns a deep copy of the scenario that shares no memory with the original.
func (s *Scenario) Clone() *Scenario {
	if s == nil {
		return nil
	}
	c := &Scenario{}

	if s.Meta != nil {
		meta := *s.Meta
		if s.Meta.Seed != nil {
			seed := *s.Meta.Seed
			meta.Seed = &seed
		}
		c.Meta = &meta
	}
	if s.Clock != nil {
		clock := *s.Clock
		c.Clock = &clock
	}
	if s.Zones != nil {
		c.Zones = append([]Zone(nil), s.Zones...)
	}
	if s.Transmission != nil {
		c.Transmission = append([]TransmissionLink(nil), s.Transmission...)
	}
	if s.ThermalUnits != nil {
		c.ThermalUnits = append([]ThermalUnit(nil), s.ThermalUnits...)
	}
	if s.Renewables != nil {
		c.Renewables = &Renewables{}
		if s.Renewables.Solar != nil {
			c.Renewables.Solar = append([]Plant(nil), s.Renewables.Solar...)
		}
		if s.Renewables.Wind != nil {
			c.Renewables.Wind = append([]Plant(nil), s.Renewables.Wind...)
		}
	}
	if s.Battery != nil {
		battery := *s.Battery
		c.Battery = &battery
	}
	if s.Weather != nil {
		weather := *s.Weather
		c.Weather = &weather
	}
	return c
}
