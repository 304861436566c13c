package dispatch

import "github.com/cepro/gridsim/scenario"

// UnitStatus is a short operator-facing description of what a unit is doing.
type UnitStatus string

const (
	StatusOnline      UnitStatus = "Online"
	StatusOffline     UnitStatus = "Offline"
	StatusRampingDown UnitStatus = "Ramping down"
	StatusOutage      UnitStatus = "Outage"
)

// Unit is the runtime mirror of a thermal unit. Config is a private copy of the scenario unit.
type Unit struct {
	Config scenario.ThermalUnit

	CommandOn     bool    // operator command
	Committed     bool    // online and available to follow load
	Output        float64 // MW delivered this tick
	TargetOutput  float64 // MW the dispatcher scheduled; zero while ramping down
	Reserve       float64 // spinning reserve MW offered this tick
	OutageTicks   int     // remaining ticks of a forced outage
	ToggleAllowed bool
	Status        UnitStatus
}

// NewUnit returns a unit that is commanded on with zero output, ready to ramp up on the first tick.
func NewUnit(cfg scenario.ThermalUnit) *Unit {
	return &Unit{
		Config:        cfg,
		CommandOn:     true,
		Committed:     true,
		ToggleAllowed: true,
		Status:        StatusOnline,
	}
}

// OnOutage returns true while the unit is forced off.
func (u *Unit) OnOutage() bool {
	return u.OutageTicks > 0
}

// ForceOff trips the unit for the given number of ticks.
func (u *Unit) ForceOff(ticks int) {
	u.OutageTicks = ticks
	u.CommandOn = false
	u.Committed = false
	u.Output = 0
	u.TargetOutput = 0
	u.Reserve = 0
	u.ToggleAllowed = false
	u.Status = StatusOutage
}

// ReturnToService clears an outage and commands the unit back on. It ramps up from zero.
func (u *Unit) ReturnToService() {
	u.OutageTicks = 0
	u.CommandOn = true
	u.Committed = true
	u.ToggleAllowed = true
	u.Status = StatusOnline
}

// Command captures exactly the unit fields an operator toggle can change, so that a toggle can be undone.
type Command struct {
	UnitID       string
	CommandOn    bool
	Committed    bool
	Output       float64
	TargetOutput float64
	Tick         int // tick index at which the command snapshot was taken
}

// Snapshot returns the current command state of the unit, stamped with `tick`.
func (u *Unit) Snapshot(tick int) Command {
	return Command{
		UnitID:       u.Config.ID,
		CommandOn:    u.CommandOn,
		Committed:    u.Committed,
		Output:       u.Output,
		TargetOutput: u.TargetOutput,
		Tick:         tick,
	}
}

// Restore reinstates the fields captured by `c`.
func (u *Unit) Restore(c Command) {
	u.CommandOn = c.CommandOn
	u.Committed = c.Committed
	u.Output = c.Output
	u.TargetOutput = c.TargetOutput
	u.Status = statusFor(u)
}

func statusFor(u *Unit) UnitStatus {
	switch {
	case u.OnOutage():
		return StatusOutage
	case u.CommandOn:
		return StatusOnline
	case u.Output > outputEpsilon:
		return StatusRampingDown
	default:
		return StatusOffline
	}
}

// SetCommand records an operator on/off command. The unit follows it at the next dispatch, ramping rather
// than jumping.
func (u *Unit) SetCommand(on bool) {
	u.CommandOn = on
	u.Committed = on
	u.Status = statusFor(u)
}
