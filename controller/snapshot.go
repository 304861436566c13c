package controller

import (
	"time"

	"github.com/cepro/gridsim/dispatch"
	"github.com/cepro/gridsim/kpi"
	"github.com/cepro/gridsim/telemetry"
	timeutils "github.com/cepro/gridsim/time_utils"
)

type ZoneSnapshot struct {
	telemetry.ZoneReading
	Name         string
	PriceHistory []float64 // oldest first
}

type LinkSnapshot struct {
	telemetry.LinkReading
	From string
	To   string
}

type UnitSnapshot struct {
	ID            string
	Name          string
	Zone          string
	Status        dispatch.UnitStatus
	Output        float64
	CommandOn     bool
	Committed     bool
	ToggleAllowed bool
	OutageTicks   int
}

type BatterySnapshot struct {
	telemetry.BatteryReading
	Zone           string
	EnergyCapacity float64
}

// Snapshot is a read-only copy of the engine state. It shares no memory with the controller.
type Snapshot struct {
	RunID      string
	Phase      Phase
	Tick       int
	TotalTicks int
	Time       time.Time
	TimeLabel  string

	Temperature float64
	WindSpeed   float64
	Solar       float64

	Zones   []ZoneSnapshot
	Links   []LinkSnapshot
	Units   []UnitSnapshot
	Battery BatterySnapshot

	Stack              []dispatch.StackEntry // last tick's dispatch, cheapest first
	Reserve            float64
	ReserveRequirement float64

	Totals       kpi.Totals
	AveragePrice float64
	PriceStats   kpi.PriceStats
	Contract     kpi.Contract
	Overrides    Overrides

	LastEvent *telemetry.Event
}

// CurrentSnapshot returns a copy of the current state.
func (c *Controller) CurrentSnapshot() Snapshot {
	now := c.clock.TimeAt(c.tick)
	s := Snapshot{
		RunID:       c.runID.String(),
		Phase:       c.phase,
		Tick:        c.tick,
		TotalTicks:  c.clock.TotalTicks,
		Time:        now,
		TimeLabel:   timeutils.Label(now),
		Temperature: c.lastTemperature,
		WindSpeed:   c.lastWindSpeed,
		Solar:       c.lastSolar,
		Zones:       make([]ZoneSnapshot, 0, len(c.zones)),
		Links:       make([]LinkSnapshot, 0, len(c.links)),
		Units:       make([]UnitSnapshot, 0, len(c.units)),
		Battery: BatterySnapshot{
			BatteryReading: telemetry.BatteryReading{
				SocMWh:      c.battery.SocMWh,
				SocFraction: c.battery.SocFraction(),
				PowerMW:     c.battery.PowerMW,
				Mode:        string(c.battery.Mode),
				Setting:     string(c.battery.ModeSetting),
			},
			Zone:           c.battery.Config.Zone,
			EnergyCapacity: c.battery.EnergyCapacity,
		},
		Stack:              append([]dispatch.StackEntry(nil), c.stack...),
		Reserve:            c.reserve,
		ReserveRequirement: c.reserveRequirement,
		Totals:             c.totals,
		AveragePrice:       c.totals.AveragePrice(),
		PriceStats:         kpi.Stats(c.prices),
		Contract:           c.contract,
		Overrides:          c.ActiveOverrides(),
	}

	for _, z := range c.zones {
		s.Zones = append(s.Zones, ZoneSnapshot{
			ZoneReading:  z.reading(),
			Name:         z.config.Name,
			PriceHistory: append([]float64(nil), z.priceHistory...),
		})
	}
	for _, l := range c.links {
		s.Links = append(s.Links, LinkSnapshot{
			LinkReading: telemetry.LinkReading{LinkID: l.Config.ID, Flow: l.Flow, Limit: l.Limit, Congested: l.Congested},
			From:        l.Config.From,
			To:          l.Config.To,
		})
	}
	for _, u := range c.units {
		s.Units = append(s.Units, UnitSnapshot{
			ID:            u.Config.ID,
			Name:          u.Config.Name,
			Zone:          u.Config.Zone,
			Status:        u.Status,
			Output:        u.Output,
			CommandOn:     u.CommandOn,
			Committed:     u.Committed,
			ToggleAllowed: u.ToggleAllowed && !u.OnOutage(),
			OutageTicks:   u.OutageTicks,
		})
	}
	if n := len(c.events); n > 0 {
		last := c.events[n-1]
		s.LastEvent = &last
	}
	return s
}
