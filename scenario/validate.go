package scenario

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingFields is wrapped by ValidationError when required fields are absent.
	ErrMissingFields = errors.New("scenario is missing required fields")

	// ErrInvalidTopology is returned when the scenario does not describe exactly three zones joined by two links.
	ErrInvalidTopology = errors.New("invalid scenario topology")
)

const (
	RequiredZones = 3
	RequiredLinks = 2
)

// ValidationError lists the identifiers of every missing field, e.g. "meta.seed" or "battery.zone".
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFields, strings.Join(e.Missing, ", "))
}

func (e *ValidationError) Unwrap() error {
	return ErrMissingFields
}

// Validate checks only for the presence of the required sections and fields and returns the identifiers of
// those that are missing. An empty result means the scenario can be handed to the engine.
func Validate(s *Scenario) []string {
	if s == nil {
		return []string{"scenario"}
	}

	var missing []string
	add := func(field string) {
		missing = append(missing, field)
	}

	if s.Meta == nil {
		add("meta")
	} else {
		if s.Meta.Seed == nil {
			add("meta.seed")
		}
		if s.Meta.PriceCap == 0 {
			add("meta.priceCap")
		}
	}

	if s.Clock == nil {
		add("clock")
	} else {
		if s.Clock.Start.IsZero() {
			add("clock.start")
		}
		if s.Clock.DurationHours == 0 {
			add("clock.durationHours")
		}
		if s.Clock.TickMinutes == 0 {
			add("clock.tickMinutes")
		}
	}

	if len(s.Zones) == 0 {
		add("zones")
	}
	for i, z := range s.Zones {
		if z.ID == "" {
			add(fmt.Sprintf("zones[%d].id", i))
		}
	}

	if len(s.Transmission) == 0 {
		add("transmission")
	}
	for i, l := range s.Transmission {
		if l.From == "" {
			add(fmt.Sprintf("transmission[%d].from", i))
		}
		if l.To == "" {
			add(fmt.Sprintf("transmission[%d].to", i))
		}
	}

	if len(s.ThermalUnits) == 0 {
		add("thermalUnits")
	}
	for i, u := range s.ThermalUnits {
		if u.ID == "" {
			add(fmt.Sprintf("thermalUnits[%d].id", i))
		}
		if u.Zone == "" {
			add(fmt.Sprintf("thermalUnits[%d].zone", i))
		}
	}

	if s.Renewables == nil {
		add("renewables")
	}

	if s.Battery == nil {
		add("battery")
	} else if s.Battery.Zone == "" {
		add("battery.zone")
	}

	if s.Weather == nil {
		add("weather")
	}

	return missing
}

// CheckTopology verifies the structural invariants the engine depends on: exactly three zones, exactly two
// links, at least one thermal unit, and that every reference to a zone names a known zone.
func CheckTopology(s *Scenario) error {
	if len(s.Zones) != RequiredZones {
		return fmt.Errorf("%w: expected %d zones, got %d", ErrInvalidTopology, RequiredZones, len(s.Zones))
	}
	if len(s.Transmission) != RequiredLinks {
		return fmt.Errorf("%w: expected %d transmission links, got %d", ErrInvalidTopology, RequiredLinks, len(s.Transmission))
	}
	if len(s.ThermalUnits) == 0 {
		return fmt.Errorf("%w: no thermal units", ErrInvalidTopology)
	}

	zones := make(map[string]bool, len(s.Zones))
	for _, z := range s.Zones {
		if zones[z.ID] {
			return fmt.Errorf("%w: duplicate zone '%s'", ErrInvalidTopology, z.ID)
		}
		zones[z.ID] = true
	}
	for _, l := range s.Transmission {
		if !zones[l.From] || !zones[l.To] {
			return fmt.Errorf("%w: link '%s' references an unknown zone", ErrInvalidTopology, l.ID)
		}
		if l.From == l.To {
			return fmt.Errorf("%w: link '%s' starts and ends in the same zone", ErrInvalidTopology, l.ID)
		}
	}
	units := make(map[string]bool, len(s.ThermalUnits))
	for _, u := range s.ThermalUnits {
		if !zones[u.Zone] {
			return fmt.Errorf("%w: unit '%s' is in unknown zone '%s'", ErrInvalidTopology, u.ID, u.Zone)
		}
		if units[u.ID] {
			return fmt.Errorf("%w: duplicate unit '%s'", ErrInvalidTopology, u.ID)
		}
		units[u.ID] = true
	}
	if s.Renewables != nil {
		for _, p := range append(append([]Plant(nil), s.Renewables.Solar...), s.Renewables.Wind...) {
			if !zones[p.Zone] {
				return fmt.Errorf("%w: renewable plant in unknown zone '%s'", ErrInvalidTopology, p.Zone)
			}
		}
	}
	if s.Battery != nil && !zones[s.Battery.Zone] {
		return fmt.Errorf("%w: battery in unknown zone '%s'", ErrInvalidTopology, s.Battery.Zone)
	}
	if s.Clock != nil && s.Clock.TickMinutes <= 0 {
		return fmt.Errorf("%w: tick length must be positive", ErrInvalidTopology)
	}
	if s.Clock != nil && s.Clock.DurationHours <= 0 {
		return fmt.Errorf("%w: clock duration must be positive", ErrInvalidTopology)
	}
	return nil
}
