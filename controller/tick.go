package controller

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/cepro/gridsim/dispatch"
	"github.com/cepro/gridsim/kpi"
	"github.com/cepro/gridsim/outage"
	"github.com/cepro/gridsim/pricing"
	"github.com/cepro/gridsim/renewable"
	"github.com/cepro/gridsim/scenario"
	"github.com/cepro/gridsim/telemetry"
	"github.com/cepro/gridsim/transmission"
)

const (
	comfortTemperature = 18.0
	diurnalLoadSwing   = 0.1
	loadPeakHour       = 15.0 // afternoon peak of the diurnal swing
	shedEpsilon        = 1e-6
)

// zonalLoad is the zone demand for an hour of day and temperature: a diurnal swing around the base load plus
// heating or cooling load away from the comfort temperature.
func zonalLoad(z scenario.Zone, hour, temperature float64) float64 {
	diurnal := 1 + diurnalLoadSwing*math.Sin(2*math.Pi*(hour-loadPeakHour+6)/24)
	return z.BaseLoad*diurnal + z.TempSensitivity*math.Abs(temperature-comfortTemperature)
}

// Step simulates one tick and returns the resulting snapshot. Outside the running phase it changes nothing and
// returns the current snapshot; once the run is done that is the frozen final state.
func (c *Controller) Step() Snapshot {
	if c.phase != PhaseRunning {
		return c.CurrentSnapshot()
	}
	if c.tick >= c.clock.TotalTicks {
		// a horizon shorter than one tick has nothing to simulate
		c.finish()
		return c.CurrentSnapshot()
	}

	tickHours := c.clock.TickHours()
	now := c.clock.TimeAt(c.tick)
	hour := c.clock.HourOfDay(c.tick)
	costs := c.costModel()

	// weather
	temperature, windSpeed, solar := c.weather.At(c.tick)
	c.lastTemperature, c.lastWindSpeed, c.lastSolar = temperature, windSpeed, solar

	// load and renewables
	systemLoad := 0.0
	for _, z := range c.zones {
		z.load = zonalLoad(z.config, hour, temperature)
		z.renewable = renewable.ZoneOutput(*c.scenario.Renewables, z.config.ID, windSpeed, solar).Total()
		z.netLoad = z.load - z.renewable
		systemLoad += z.load
	}

	// battery acts on its anchor zone before thermal dispatch
	anchor := c.zoneMap[c.battery.Config.Zone]
	previousMode := c.battery.Mode
	batteryPower := c.battery.Step(anchor.netLoad, anchor.load, tickHours)
	anchor.netLoad -= batteryPower
	if c.battery.Mode != previousMode {
		c.logger.Debug("Battery mode changed", "tick", c.tick, "mode", c.battery.Mode, "power", batteryPower)
	}

	// outages
	for _, e := range outage.Process(c.units, c.src, tickHours, c.outageScale()) {
		c.logEvent(e.Message)
	}

	// thermal dispatch
	balance := make(map[string]float64, len(c.zones))
	c.stack = c.stack[:0]
	c.reserve = 0
	for _, z := range c.zones {
		result := dispatch.Zone(z.units, z.netLoad, costs)
		balance[z.config.ID] = -result.Remaining
		c.reserve += result.Reserve
		c.stack = append(c.stack, result.Stack...)
	}
	sort.SliceStable(c.stack, func(i, j int) bool {
		return c.stack[i].Cost < c.stack[j].Cost
	})

	// transmission
	flows := transmission.Balance(c.zoneIDs, c.links, balance)
	totalUnmet := flows.TotalUnmet(c.zoneIDs)
	shedding := totalUnmet > shedEpsilon

	// pricing
	for _, z := range c.zones {
		id := z.config.ID
		z.unmet = flows.Unmet[id]
		z.adder = flows.Adder[id]
		z.congested = flows.Congested[id]
		z.price = pricing.ZonePrice(z.units, costs, z.adder, c.scenario.Meta.PriceCap, shedding)

		z.priceHistory = append(z.priceHistory, z.price)
		if len(z.priceHistory) > priceHistoryLen {
			z.priceHistory = z.priceHistory[len(z.priceHistory)-priceHistoryLen:]
		}
		c.prices = append(c.prices, z.price)
		c.totals.AddPrices(z.price)
	}

	// accounting
	for _, u := range c.units {
		c.totals.AddGeneration(kpiGeneration(u, c.zoneMap[u.Config.Zone].price, costs), tickHours)
	}
	c.totals.AddBattery(batteryPower, anchor.price, tickHours)
	c.totals.AddLoad(systemLoad, totalUnmet, tickHours)
	for _, id := range c.zoneIDs {
		c.totals.CurtailedMWh += flows.Surplus[id] * tickHours
	}
	if flows.AnyCongested {
		c.totals.CongestedTicks++
	}
	if shedding {
		c.logEvent(fmt.Sprintf("Load shed: %.1f MW unserved", totalUnmet))
	}
	c.checkReserve(systemLoad)

	c.tickLog = append(c.tickLog, c.record(now, batteryPower))
	c.tick++

	if c.tick >= c.clock.TotalTicks {
		c.finish()
	}
	return c.CurrentSnapshot()
}

// checkReserve compares the spinning reserve on offer against the requirement and raises an event when the
// system first falls short.
func (c *Controller) checkReserve(systemLoad float64) {
	c.reserveRequirement = c.reservePercent() / 100 * systemLoad
	short := c.reserve < c.reserveRequirement-shedEpsilon
	if short {
		c.totals.ReserveShortfallTicks++
		if !c.inShortfall {
			c.logEvent(fmt.Sprintf("Reserve shortfall: %.1f MW on offer against %.1f MW required", c.reserve, c.reserveRequirement))
		}
	}
	c.inShortfall = short
}

// finish settles the day-ahead contract and freezes the run.
func (c *Controller) finish() {
	amount := c.totals.Settle(&c.contract, c.scenario.Clock.DurationHours)
	c.phase = PhaseDone
	c.logEvent(fmt.Sprintf("Run complete: day-ahead settlement %.0f", amount))

	card := c.ComputeScore()
	c.logger.Info(
		"Run complete",
		"run_id", c.runID,
		"ticks", c.tick,
		"unmet_mwh", c.totals.UnmetMWh,
		"average_price", c.totals.AveragePrice(),
		"cash", c.totals.Cash,
		"emissions", c.totals.Emissions,
		"score", card.Score,
	)
}

func (c *Controller) record(now time.Time, batteryPower float64) telemetry.TickRecord {
	r := telemetry.TickRecord{
		Tick:        c.tick,
		Time:        now,
		Temperature: c.lastTemperature,
		WindSpeed:   c.lastWindSpeed,
		Solar:       c.lastSolar,
		Zones:       make([]telemetry.ZoneReading, 0, len(c.zones)),
		Links:       make([]telemetry.LinkReading, 0, len(c.links)),
		Units:       make([]telemetry.UnitReading, 0, len(c.units)),
		Battery: telemetry.BatteryReading{
			SocMWh:      c.battery.SocMWh,
			SocFraction: c.battery.SocFraction(),
			PowerMW:     batteryPower,
			Mode:        string(c.battery.Mode),
			Setting:     string(c.battery.ModeSetting),
		},
		Reserve: c.reserve,
		Cash:    c.totals.Cash,
	}
	for _, z := range c.zones {
		r.Zones = append(r.Zones, z.reading())
	}
	for _, l := range c.links {
		r.Links = append(r.Links, telemetry.LinkReading{LinkID: l.Config.ID, Flow: l.Flow, Limit: l.Limit, Congested: l.Congested})
	}
	for _, u := range c.units {
		r.Units = append(r.Units, telemetry.UnitReading{UnitID: u.Config.ID, Output: u.Output, Status: string(u.Status)})
	}
	return r
}

func (z *zoneState) reading() telemetry.ZoneReading {
	return telemetry.ZoneReading{
		ZoneID:    z.config.ID,
		Load:      z.load,
		Price:     z.price,
		Renewable: z.renewable,
		NetLoad:   z.netLoad,
		Unmet:     z.unmet,
		Congested: z.congested,
	}
}

func kpiGeneration(u *dispatch.Unit, price float64, costs dispatch.CostModel) kpi.Generation {
	return kpi.Generation{
		OutputMW:   u.Output,
		Price:      price,
		FuelCost:   costs.FuelCost(u.Config),
		VOM:        u.Config.VOM,
		EmissionsT: u.Config.Emissions,
	}
}
