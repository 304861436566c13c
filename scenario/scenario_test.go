package scenario

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadYaml(t *testing.T) {
	s, err := Read("testdata/flat.yaml")
	require.NoError(t, err)

	assert.Equal(t, "Flatland", s.Meta.Region)
	assert.Equal(t, int64(42), s.Meta.SeedValue())
	assert.Equal(t, 24.0, s.Clock.DurationHours)
	assert.Len(t, s.Zones, 3)
	assert.Len(t, s.Transmission, 2)
	assert.Equal(t, [2]float64{1, 2}, s.ThermalUnits[0].RepairHours)
	assert.Equal(t, "b", s.Battery.Zone)
	assert.NoError(t, CheckTopology(s))
}

func TestReadReportsMissingFields(t *testing.T) {
	_, err := Read("testdata/missing.json")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingFields))

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.ElementsMatch(t, []string{"meta.seed", "transmission[1].to", "battery", "weather"}, validationErr.Missing)
}

func TestValidateNil(t *testing.T) {
	assert.Equal(t, []string{"scenario"}, Validate(nil))
}

func TestCheckTopology(t *testing.T) {

	type subTest struct {
		name   string
		modify func(s *Scenario)
		ok     bool
	}

	subTests := []subTest{
		{"example is valid", func(s *Scenario) {}, true},
		{"two zones", func(s *Scenario) { s.Zones = s.Zones[:2] }, false},
		{"three links", func(s *Scenario) { s.Transmission = append(s.Transmission, s.Transmission[0]) }, false},
		{"no units", func(s *Scenario) { s.ThermalUnits = nil }, false},
		{"unknown link zone", func(s *Scenario) { s.Transmission[0].To = "nowhere" }, false},
		{"self loop", func(s *Scenario) { s.Transmission[1].To = s.Transmission[1].From }, false},
		{"unknown unit zone", func(s *Scenario) { s.ThermalUnits[0].Zone = "nowhere" }, false},
		{"duplicate unit", func(s *Scenario) { s.ThermalUnits[1].ID = s.ThermalUnits[0].ID }, false},
		{"unknown battery zone", func(s *Scenario) { s.Battery.Zone = "nowhere" }, false},
		{"zero duration", func(s *Scenario) { s.Clock.DurationHours = 0 }, false},
		{"negative duration", func(s *Scenario) { s.Clock.DurationHours = -24 }, false},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			s := Example()
			subTest.modify(s)
			err := CheckTopology(s)
			if subTest.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidTopology)
			}
		})
	}
}

func TestCloneSharesNoMemory(t *testing.T) {
	original := Example()
	c := original.Clone()
	require.Equal(t, original, c)

	*c.Meta.Seed = 7
	c.Meta.PriceCap = 1
	c.Zones[0].BaseLoad = 1
	c.Transmission[0].Limit = 1
	c.ThermalUnits[0].Pmax = 1
	c.Renewables.Solar[0].Pmax = 1
	c.Battery.Power = 1
	c.Weather.Wind.Mean = 1
	c.Clock.TickMinutes = 1

	assert.Equal(t, int64(42), original.Meta.SeedValue())
	assert.Equal(t, 1000.0, original.Meta.PriceCap)
	assert.Equal(t, 420.0, original.Zones[0].BaseLoad)
	assert.Equal(t, 250.0, original.Transmission[0].Limit)
	assert.Equal(t, 400.0, original.ThermalUnits[0].Pmax)
	assert.Equal(t, 180.0, original.Renewables.Solar[0].Pmax)
	assert.Equal(t, 100.0, original.Battery.Power)
	assert.Equal(t, 8.0, original.Weather.Wind.Mean)
	assert.Equal(t, 15.0, original.Clock.TickMinutes)
}
