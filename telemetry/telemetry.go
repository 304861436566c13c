package telemetry

import (
	"time"
)

// ZoneReading holds the state of one zone at the end of a tick
type ZoneReading struct {
	ZoneID    string
	Load      float64 // MW
	Price     float64
	Renewable float64 // MW of solar and wind
	NetLoad   float64 // load less renewables and battery, MW
	Unmet     float64 // MW shed
	Congested bool
}

// LinkReading holds the state of one transmission link at the end of a tick
type LinkReading struct {
	LinkID    string
	Flow      float64
	Limit     float64
	Congested bool
}

// UnitReading holds the output of one thermal unit at the end of a tick
type UnitReading struct {
	UnitID string
	Output float64
	Status string
}

// BatteryReading holds the battery state at the end of a tick
type BatteryReading struct {
	SocMWh      float64
	SocFraction float64
	PowerMW     float64 // positive when discharging
	Mode        string
	Setting     string
}

// TickRecord is one completed tick. The tick log is a slice of these and is what gets exported and archived.
type TickRecord struct {
	Tick        int
	Time        time.Time
	Temperature float64
	WindSpeed   float64
	Solar       float64
	Zones       []ZoneReading
	Links       []LinkReading
	Units       []UnitReading
	Battery     BatteryReading
	Reserve     float64
	Cash        float64 // cumulative
}

// Event is an operator-facing message raised by the engine, e.g. a forced outage or a rejected command.
type Event struct {
	ID      int
	Tick    int
	Time    time.Time
	Message string
}

// Clone returns a copy of the record that shares no slices with `r`.
func (r TickRecord) Clone() TickRecord {
	c := r
	c.Zones = append([]ZoneReading(nil), r.Zones...)
	c.Links = append([]LinkReading(nil), r.Links...)
	c.Units = append([]UnitReading(nil), r.Units...)
	return c
}
