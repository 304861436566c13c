// Package dispatch allocates zonal net load across thermal units in merit order, respecting ramp limits,
// minimum stable output and outage state.
package dispatch

import (
	"math"
	"sort"

	"github.com/cepro/gridsim/scenario"
)

const (
	outputEpsilon = 1e-6
	gasFuel       = "gas"
)

// CostModel prices unit energy. GasPrice, when set, replaces the configured fuel price of gas units (and of
// units with no fuel type).
type CostModel struct {
	GasPrice *float64
}

// FuelPrice returns the fuel price that applies to the unit.
func (m CostModel) FuelPrice(u scenario.ThermalUnit) float64 {
	if m.GasPrice != nil && (u.Fuel == "" || u.Fuel == gasFuel) {
		return *m.GasPrice
	}
	return u.FuelPrice
}

// FuelCost returns the fuel cost per MWh.
func (m CostModel) FuelCost(u scenario.ThermalUnit) float64 {
	return u.HeatRate * m.FuelPrice(u) / 10
}

// VariableCost returns the short run marginal cost per MWh used for merit order and pricing.
func (m CostModel) VariableCost(u scenario.ThermalUnit) float64 {
	return m.FuelCost(u) + u.VOM
}

// StackEntry is one row of the dispatch stack shown to operators.
type StackEntry struct {
	UnitID  string
	Name    string
	Zone    string
	Cost    float64
	Output  float64
	Reserve float64
	Status  UnitStatus
}

// ZoneResult is the outcome of dispatching one zone.
type ZoneResult struct {
	Remaining float64 // net load left unserved by local units; negative means local surplus
	Reserve   float64 // spinning reserve offered by the zone's units
	Stack     []StackEntry
}

// MeritOrder returns the units sorted by ascending variable cost. Ties keep their scenario order.
func MeritOrder(units []*Unit, costs CostModel) []*Unit {
	ordered := append([]*Unit(nil), units...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return costs.VariableCost(ordered[i].Config) < costs.VariableCost(ordered[j].Config)
	})
	return ordered
}

// Zone walks the zone's units in merit order and moves each towards the remaining net load, within its ramp,
// minimum and maximum output. Unit state is updated in place.
//
// This is a single greedy pass per zone: it does not optimise across zones and is not re-run after
// transmission has moved energy between zones.
func Zone(units []*Unit, netLoad float64, costs CostModel) ZoneResult {
	result := ZoneResult{Remaining: netLoad}

	for _, u := range MeritOrder(units, costs) {
		cfg := u.Config
		u.Reserve = 0

		switch {
		case u.OnOutage():
			u.Output = 0
			u.TargetOutput = 0
			u.Committed = false
			u.CommandOn = false
			u.ToggleAllowed = false
			u.Status = StatusOutage

		case !u.CommandOn && u.Output <= outputEpsilon:
			u.Output = 0
			u.TargetOutput = 0
			u.Committed = false
			u.ToggleAllowed = true
			u.Status = StatusOffline

		case !u.CommandOn:
			// decommitting: keep serving load while ramping down
			u.Output = math.Max(0, u.Output-cfg.Ramp)
			u.TargetOutput = 0
			u.Committed = false
			u.ToggleAllowed = true
			u.Status = StatusRampingDown
			result.Remaining -= u.Output

		default:
			maxOutput := math.Min(cfg.Pmax, u.Output+cfg.Ramp)
			floor := math.Max(0, u.Output-cfg.Ramp)
			minOutput := math.Min(cfg.Pmin, maxOutput)

			target := math.Min(maxOutput, result.Remaining)
			if result.Remaining > 0 && target < minOutput {
				target = minOutput
			}
			if target < floor {
				target = floor
			}

			u.Output = target
			u.TargetOutput = target
			u.Committed = true
			u.ToggleAllowed = true
			u.Status = StatusOnline
			u.Reserve = math.Max(0, math.Min(maxOutput-target, cfg.ReserveCap))

			result.Remaining -= target
			result.Reserve += u.Reserve
		}

		result.Stack = append(result.Stack, StackEntry{
			UnitID:  cfg.ID,
			Name:    cfg.Name,
			Zone:    cfg.Zone,
			Cost:    costs.VariableCost(cfg),
			Output:  u.Output,
			Reserve: u.Reserve,
			Status:  u.Status,
		})
	}

	return result
}
