// Package outage models forced outages of thermal units as a discretised Poisson arrival process.
package outage

import (
	"fmt"
	"math"

	"github.com/cepro/gridsim/dispatch"
	"github.com/cepro/gridsim/rng"
)

// Event describes an outage starting or a unit returning to service.
type Event struct {
	UnitID  string
	Started bool // false means the unit recovered
	Ticks   int  // outage length in ticks, set when Started
	Message string
}

// Probability returns the chance of at least one outage arrival in `hours` for a unit with failure rate `rate`
// (arrivals per hour).
func Probability(rate, hours float64) float64 {
	if rate <= 0 || hours <= 0 {
		return 0
	}
	return 1 - math.Exp(-rate*hours)
}

// DurationTicks converts a repair time in hours into whole ticks, rounding up, never less than one tick.
func DurationTicks(repairHours, tickHours float64) int {
	ticks := int(math.Ceil(repairHours/tickHours - 1e-9))
	if ticks < 1 {
		return 1
	}
	return ticks
}

// Process advances the outage state of every unit by one tick, in the given order. Units already on outage
// count down and return to service when their outage expires; a unit that recovers is not sampled again in
// the same tick. Every other unit draws exactly once from `src` and, when it trips, draws its repair time.
func Process(units []*dispatch.Unit, src *rng.Source, tickHours, rateScale float64) []Event {
	var events []Event

	for _, u := range units {
		if u.OnOutage() {
			u.OutageTicks--
			if u.OutageTicks == 0 {
				u.ReturnToService()
				events = append(events, Event{
					UnitID:  u.Config.ID,
					Message: fmt.Sprintf("%s returned to service", u.Config.Name),
				})
			}
			continue
		}

		p := Probability(u.Config.PoissonRate*rateScale, tickHours)
		if src.Next() >= p {
			continue
		}

		minHours, maxHours := u.Config.RepairHours[0], u.Config.RepairHours[1]
		if maxHours < minHours {
			minHours, maxHours = maxHours, minHours
		}
		ticks := DurationTicks(src.NextRange(minHours, maxHours), tickHours)
		u.ForceOff(ticks)
		events = append(events, Event{
			UnitID:  u.Config.ID,
			Started: true,
			Ticks:   ticks,
			Message: fmt.Sprintf("Forced outage: %s offline for %d ticks", u.Config.Name, ticks),
		})
	}

	return events
}
