package controller

import (
	"fmt"
	"math"

	"github.com/cepro/gridsim/battery"
	"github.com/cepro/gridsim/dispatch"
	"github.com/cepro/gridsim/transmission"
)

// ActionResult reports the outcome of an operator action. Rejected actions are not errors: the run carries on
// and Reason says why nothing changed.
type ActionResult struct {
	OK     bool
	Reason string
}

func rejected(format string, args ...any) ActionResult {
	return ActionResult{Reason: fmt.Sprintf(format, args...)}
}

var accepted = ActionResult{OK: true}

// Overrides replace scenario parameters for the rest of the run. Nil fields leave the current value alone.
type Overrides struct {
	Gas     *float64 `mapstructure:"gas"`     // fuel price for gas units
	Reserve *float64 `mapstructure:"reserve"` // reserve requirement, percent of system load
	Outage  *float64 `mapstructure:"outage"`  // multiplier on every unit's outage rate
	Tx      *float64 `mapstructure:"tx"`      // transfer limit of every link, MW
}

func (c *Controller) costModel() dispatch.CostModel {
	return dispatch.CostModel{GasPrice: c.overrides.Gas}
}

func (c *Controller) outageScale() float64 {
	if c.overrides.Outage == nil {
		return 1
	}
	return *c.overrides.Outage
}

func (c *Controller) reservePercent() float64 {
	if c.overrides.Reserve == nil {
		return c.scenario.Meta.ReservePercent
	}
	return *c.overrides.Reserve
}

// ToggleUnit flips the operator command of a unit. The returned command captures the unit as it was before the
// toggle and can be handed to RestoreUnitState to undo it.
func (c *Controller) ToggleUnit(id string) (ActionResult, dispatch.Command) {
	u, ok := c.unitMap[id]
	if !ok {
		return rejected("unknown unit '%s'", id), dispatch.Command{}
	}
	if c.phase == PhaseDone {
		return rejected("run is finished"), dispatch.Command{}
	}
	if u.OnOutage() {
		return rejected("%s is on forced outage", u.Config.Name), dispatch.Command{}
	}

	previous := u.Snapshot(c.tick)
	u.SetCommand(!u.CommandOn)

	if u.CommandOn {
		c.logEvent(fmt.Sprintf("%s commanded on", u.Config.Name))
	} else {
		c.logEvent(fmt.Sprintf("%s commanded off", u.Config.Name))
	}
	return accepted, previous
}

// RestoreUnitState undoes a toggle by reinstating the captured command state. It is refused once more than an
// hour of simulated time has passed since the command was captured.
func (c *Controller) RestoreUnitState(id string, previous dispatch.Command) ActionResult {
	u, ok := c.unitMap[id]
	if !ok {
		return rejected("unknown unit '%s'", id)
	}
	if previous.UnitID != id {
		return rejected("command state belongs to unit '%s', not '%s'", previous.UnitID, id)
	}
	if c.phase == PhaseDone {
		return rejected("run is finished")
	}
	if u.OnOutage() {
		return rejected("%s is on forced outage", u.Config.Name)
	}
	if elapsed := c.tick - previous.Tick; elapsed > c.clock.TicksPerHour() {
		return rejected("undo window has passed (%d ticks ago)", elapsed)
	}

	u.Restore(previous)
	c.logEvent(fmt.Sprintf("%s command undone", u.Config.Name))
	return accepted
}

// SetBatteryMode changes the battery setting to "auto", "charge" or "discharge". A change the battery cannot
// honour at its current state of charge is refused and logged as an event.
func (c *Controller) SetBatteryMode(mode string) ActionResult {
	ok, reason := c.battery.SetMode(battery.Setting(mode))
	if !ok {
		c.logEvent(fmt.Sprintf("Battery mode change to %s rejected: %s", mode, reason))
		return ActionResult{Reason: reason}
	}
	c.logEvent(fmt.Sprintf("Battery mode set to %s", mode))
	return accepted
}

// ApplyOverrides merges `o` into the active overrides. A transfer limit override is applied to every link
// straight away; the others take effect from the next tick.
func (c *Controller) ApplyOverrides(o Overrides) {
	if o.Gas != nil {
		gas := *o.Gas
		c.overrides.Gas = &gas
		c.logEvent(fmt.Sprintf("Gas price override: %.2f", gas))
	}
	if o.Reserve != nil {
		reserve := math.Max(0, *o.Reserve)
		c.overrides.Reserve = &reserve
		c.logEvent(fmt.Sprintf("Reserve requirement override: %.1f%%", reserve))
	}
	if o.Outage != nil {
		scale := math.Max(0, *o.Outage)
		c.overrides.Outage = &scale
		c.logEvent(fmt.Sprintf("Outage rate multiplier: %.2f", scale))
	}
	if o.Tx != nil {
		limit := math.Max(0, *o.Tx)
		c.overrides.Tx = &limit
		transmission.SetLimit(c.links, limit)
		c.logEvent(fmt.Sprintf("Transmission limit override: %.0f MW", limit))
	}
}

// ActiveOverrides returns a copy of the overrides currently in force.
func (c *Controller) ActiveOverrides() Overrides {
	return Overrides{
		Gas:     copyFloat(c.overrides.Gas),
		Reserve: copyFloat(c.overrides.Reserve),
		Outage:  copyFloat(c.overrides.Outage),
		Tx:      copyFloat(c.overrides.Tx),
	}
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
