// Package battery models a single grid battery: its state of energy and the heuristic that decides when it
// charges and discharges.
package battery

import (
	"math"

	"github.com/cepro/gridsim/scenario"
)

// Setting is the operator's choice of how the battery should be run.
type Setting string

const (
	SettingAuto      Setting = "auto"
	SettingCharge    Setting = "charge"
	SettingDischarge Setting = "discharge"
)

// Mode is what the battery actually did in the last tick.
type Mode string

const (
	ModeIdle      Mode = "idle"
	ModeCharge    Mode = "charge"
	ModeDischarge Mode = "discharge"
)

const (
	autoReferenceFraction = 0.9  // auto mode compares net load against this share of gross load
	autoDeadband          = 20.0 // MW either side of the reference before auto mode acts
	socEpsilon            = 1e-6
)

// Battery is the runtime state of the grid battery. PowerMW is measured at the grid connection: positive when
// discharging, negative when charging.
type Battery struct {
	Config scenario.Battery

	EnergyCapacity float64 // MWh
	SocMWh         float64
	ModeSetting    Setting
	Mode           Mode
	PowerMW        float64
	ThroughputMWh  float64 // grid-side energy moved in either direction
}

// New returns a battery at its configured initial state of charge, in auto mode.
func New(cfg scenario.Battery) *Battery {
	capacity := math.Max(0, cfg.Power*cfg.DurationHours)
	return &Battery{
		Config:         cfg,
		EnergyCapacity: capacity,
		SocMWh:         clamp(cfg.InitialSoc*capacity, 0, capacity),
		ModeSetting:    SettingAuto,
		Mode:           ModeIdle,
	}
}

// legEfficiency is the efficiency applied on each of the charge and discharge legs, so that a full cycle
// loses 1 - roundTripEff of the energy.
func (b *Battery) legEfficiency() float64 {
	if b.Config.RoundTripEff <= 0 || b.Config.RoundTripEff > 1 {
		return 1
	}
	return math.Sqrt(b.Config.RoundTripEff)
}

// DischargeHeadroom returns the grid-side MW the battery can deliver for a whole tick.
func (b *Battery) DischargeHeadroom(tickHours float64) float64 {
	energyAvailable := b.SocMWh * b.legEfficiency()
	return math.Max(0, math.Min(b.Config.Power, energyAvailable/tickHours))
}

// ChargeHeadroom returns the grid-side MW the battery can absorb for a whole tick.
func (b *Battery) ChargeHeadroom(tickHours float64) float64 {
	spaceAvailable := (b.EnergyCapacity - b.SocMWh) / b.legEfficiency()
	return math.Max(0, math.Min(b.Config.Power, spaceAvailable/tickHours))
}

// SocFraction returns the state of charge as a fraction of capacity.
func (b *Battery) SocFraction() float64 {
	if b.EnergyCapacity <= 0 {
		return 0
	}
	return b.SocMWh / b.EnergyCapacity
}

// SetMode changes the operator setting. Forcing a charge when full or a discharge when empty is refused and
// the reason is returned.
func (b *Battery) SetMode(setting Setting) (bool, string) {
	switch setting {
	case SettingAuto:
	case SettingCharge:
		if b.SocMWh >= b.EnergyCapacity-socEpsilon {
			return false, "battery is already full"
		}
	case SettingDischarge:
		if b.SocMWh <= socEpsilon {
			return false, "battery is already empty"
		}
	default:
		return false, "unknown battery mode '" + string(setting) + "'"
	}
	b.ModeSetting = setting
	return true, ""
}

// Step decides and applies this tick's charge or discharge given the anchor zone's net and gross load, and
// returns the grid-side power (positive discharge).
func (b *Battery) Step(netLoad, grossLoad, tickHours float64) float64 {
	dischargeHeadroom := b.DischargeHeadroom(tickHours)
	chargeHeadroom := b.ChargeHeadroom(tickHours)

	power := 0.0
	switch b.ModeSetting {
	case SettingCharge:
		power = -chargeHeadroom
	case SettingDischarge:
		power = dischargeHeadroom
	default:
		reference := autoReferenceFraction * grossLoad
		switch {
		case netLoad > reference+autoDeadband:
			power = math.Min(dischargeHeadroom, netLoad-reference)
		case netLoad < reference-autoDeadband:
			power = -math.Min(chargeHeadroom, reference-netLoad)
		}
	}

	b.apply(power, tickHours)
	return b.PowerMW
}

func (b *Battery) apply(power, tickHours float64) {
	leg := b.legEfficiency()
	switch {
	case power > socEpsilon:
		b.SocMWh -= power * tickHours / leg
		b.Mode = ModeDischarge
	case power < -socEpsilon:
		b.SocMWh += -power * tickHours * leg
		b.Mode = ModeCharge
	default:
		power = 0
		b.Mode = ModeIdle
	}
	b.SocMWh = clamp(b.SocMWh, 0, b.EnergyCapacity)
	b.PowerMW = power
	b.ThroughputMWh += math.Abs(power) * tickHours
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}
