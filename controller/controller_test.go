package controller

import (
	"bytes"
	"encoding/csv"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/cepro/gridsim/dispatch"
	"github.com/cepro/gridsim/kpi"
	"github.com/cepro/gridsim/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsInvalidScenarios(test *testing.T) {
	missing := flatScenario()
	missing.Battery = nil
	missing.Meta.Seed = nil
	_, err := New(missing)
	require.Error(test, err)
	assert.True(test, errors.Is(err, scenario.ErrMissingFields))
	var validationErr *scenario.ValidationError
	require.True(test, errors.As(err, &validationErr))
	assert.Equal(test, []string{"meta.seed", "battery"}, validationErr.Missing)

	twoZones := flatScenario()
	twoZones.Zones = twoZones.Zones[:2]
	_, err = New(twoZones)
	assert.True(test, errors.Is(err, scenario.ErrInvalidTopology))

	negative := flatScenario()
	negative.Clock.DurationHours = -24
	_, err = New(negative)
	assert.ErrorIs(test, err, scenario.ErrInvalidTopology)
}

func TestHorizonShorterThanOneTick(test *testing.T) {
	scn := flatScenario()
	scn.Clock.DurationHours = 0.25
	c := mustNew(test, scn)

	card, err := c.RunHeadless()
	require.NoError(test, err)
	assert.Equal(test, PhaseDone, c.Phase())
	assert.Equal(test, 0, c.Tick())
	assert.Empty(test, c.TickLog())
	assert.Equal(test, 1.0, card.Reliability)

	snapshot := c.Step()
	assert.Equal(test, PhaseDone, snapshot.Phase)
	assert.Equal(test, 0, snapshot.Tick)
}

func TestLifecycle(test *testing.T) {
	c := mustNew(test, flatScenario())
	assert.Equal(test, PhasePreRun, c.Phase())

	// pause and resume do nothing before the run starts, and stepping is a no-op
	c.Pause()
	assert.False(test, c.CanResume())
	c.Resume()
	assert.Equal(test, PhasePreRun, c.Phase())
	c.Step()
	assert.Equal(test, 0, c.Tick())

	require.NoError(test, c.StartRun(kpi.Contract{Quantity: 50, Price: 45}))
	assert.Equal(test, PhaseRunning, c.Phase())
	assert.False(test, c.CanResume())

	err := c.StartRun(kpi.Contract{})
	assert.True(test, errors.Is(err, ErrInvalidTransition))

	c.Step()
	assert.Equal(test, 1, c.Tick())

	c.Pause()
	assert.Equal(test, PhasePaused, c.Phase())
	assert.True(test, c.CanResume())
	c.Step()
	assert.Equal(test, 1, c.Tick())

	c.Resume()
	assert.Equal(test, PhaseRunning, c.Phase())

	_, err = c.RunHeadless()
	require.NoError(test, err)
	assert.Equal(test, PhaseDone, c.Phase())
	assert.Equal(test, 24, c.Tick())
	assert.False(test, c.CanResume())

	// stepping once done returns the frozen final state
	final := c.CurrentSnapshot()
	again := c.Step()
	assert.Equal(test, final, again)
	assert.Len(test, c.TickLog(), 24)

	assert.True(test, errors.Is(c.StartRun(kpi.Contract{}), ErrInvalidTransition))

	// the contract is settled once, at the end of the run
	contract := c.Contract()
	assert.True(test, contract.Settled)
	assert.InDelta(test, (45-c.Totals().AveragePrice())*50*24, contract.Amount, 1e-6)

	c.Reset()
	assert.Equal(test, PhasePreRun, c.Phase())
	assert.Equal(test, 0, c.Tick())
	assert.Empty(test, c.TickLog())
	assert.Empty(test, c.Events())
	assert.False(test, c.Contract().Settled)
}

func TestFlatScenarioServesAllLoad(test *testing.T) {
	c := mustNew(test, flatScenario())

	card, err := c.RunHeadless()
	require.NoError(test, err)

	assert.Equal(test, PhaseDone, c.Phase())
	assert.Equal(test, 24, c.Tick())
	assert.InDelta(test, 0, c.Totals().UnmetMWh, 1e-6)
	assert.InDelta(test, 1, card.Reliability, 1e-9)
	assert.Contains(test, card.Badges, kpi.BadgeZeroShed)
	assert.Contains(test, card.Badges, kpi.BadgeCongestionManager)
	assert.GreaterOrEqual(test, len(card.Badges), 3)
	assert.Equal(test, 0, c.Totals().CongestedTicks)

	for _, r := range c.TickLog() {
		for _, z := range r.Zones {
			assert.InDelta(test, 0, z.Unmet, 1e-9)
			assert.GreaterOrEqual(test, z.Price, 30.0)
		}
	}
}

func TestZeroLimitLinkIsAlwaysCongested(test *testing.T) {
	scn := flatScenario()
	scn.Transmission[0].Limit = 0
	// zone a imports everything, zone b is forced to export by its minimum output
	scn.ThermalUnits = scn.ThermalUnits[1:]
	scn.ThermalUnits[0].Pmin = 600

	c := mustNew(test, scn)
	_, err := c.RunHeadless()
	require.NoError(test, err)

	log := c.TickLog()
	require.Len(test, log, 24)
	for _, r := range log {
		assert.True(test, r.Links[0].Congested, "tick %d", r.Tick)
		assert.InDelta(test, 0, r.Links[0].Flow, 1e-9, "tick %d", r.Tick)
		assert.Greater(test, r.Zones[0].Unmet, 0.0)
		// load is being shed, so every zone clears at the cap
		for _, z := range r.Zones {
			assert.Equal(test, 500.0, z.Price)
		}
	}
	assert.Equal(test, 24, c.Totals().CongestedTicks)
	assert.Greater(test, c.Totals().CurtailedMWh, 0.0)
}

// scriptedRun drives `c` to completion, applying a fixed set of operator actions at fixed ticks.
func scriptedRun(test *testing.T, c *Controller) {
	test.Helper()
	require.NoError(test, c.StartRun(kpi.Contract{Quantity: 100, Price: 60}))

	gas := 55.0
	outageScale := 5.0
	var undo dispatch.Command
	for c.Phase() == PhaseRunning {
		switch c.Tick() {
		case 8:
			_, undo = c.ToggleUnit("c-ct")
		case 9:
			c.RestoreUnitState("c-ct", undo)
		case 20:
			c.SetBatteryMode("charge")
		case 30:
			c.ApplyOverrides(Overrides{Gas: &gas, Outage: &outageScale})
		case 40:
			c.ToggleUnit("n-coal")
		case 60:
			c.SetBatteryMode("auto")
		}
		c.Step()
	}
}

func TestDeterminism(test *testing.T) {
	first := mustNew(test, scenario.Example())
	second := mustNew(test, scenario.Example())

	scriptedRun(test, first)
	scriptedRun(test, second)

	assert.Equal(test, first.TickLog(), second.TickLog())
	assert.Equal(test, first.Events(), second.Events())
	assert.Equal(test, first.Totals(), second.Totals())

	// a reset run replays identically
	log := first.TickLog()
	first.Reset()
	scriptedRun(test, first)
	assert.Equal(test, log, first.TickLog())

	// a different seed diverges
	other := scenario.Example()
	seed := int64(7)
	other.Meta.Seed = &seed
	third := mustNew(test, other)
	scriptedRun(test, third)
	assert.NotEqual(test, log, third.TickLog())
}

func TestInvariants(test *testing.T) {
	scn := scenario.Example()
	c := mustNew(test, scn)
	outageScale := 10.0
	c.ApplyOverrides(Overrides{Outage: &outageScale})

	_, err := c.RunHeadless()
	require.NoError(test, err)

	log := c.TickLog()
	expectedTicks := int(math.Round(scn.Clock.DurationHours * 60 / scn.Clock.TickMinutes))
	require.Len(test, log, expectedTicks)
	assert.Equal(test, PhaseDone, c.Phase())

	capacity := scn.Battery.Power * scn.Battery.DurationHours
	ramps := make(map[string]float64)
	for _, u := range scn.ThermalUnits {
		ramps[u.ID] = u.Ramp
	}
	previous := make(map[string]float64)
	outages := 0

	for _, r := range log {
		assert.GreaterOrEqual(test, r.Battery.SocMWh, 0.0)
		assert.LessOrEqual(test, r.Battery.SocMWh, capacity)

		for _, z := range r.Zones {
			assert.LessOrEqual(test, z.Price, scn.Meta.PriceCap)
		}
		for _, l := range r.Links {
			assert.LessOrEqual(test, math.Abs(l.Flow), l.Limit+1e-9)
		}
		for _, u := range r.Units {
			// a forced outage trips the unit instantly
			if u.Status == string(dispatch.StatusOutage) {
				outages++
			} else {
				assert.LessOrEqual(test, math.Abs(u.Output-previous[u.UnitID]), ramps[u.UnitID]+1e-9, "unit %s tick %d", u.UnitID, r.Tick)
			}
			previous[u.UnitID] = u.Output
		}
	}
	assert.Greater(test, outages, 0, "expected the raised outage rate to trip at least one unit")
}

func TestExportCSV(test *testing.T) {
	c := mustNew(test, flatScenario())
	_, err := c.RunHeadless()
	require.NoError(test, err)

	content, err := c.ExportCSV()
	require.NoError(test, err)

	rows, err := csv.NewReader(bytes.NewReader(content)).ReadAll()
	require.NoError(test, err)
	require.Len(test, rows, 24*3+1)
	assert.Equal(test, "timestamp,temperature,zone,load,price,renewable,netLoad,batterySOC,batteryMode,cash", strings.Join(rows[0], ","))

	assert.Equal(test, "2024-01-15T00:00:00Z", rows[1][0])
	assert.Equal(test, []string{"a", "b", "c"}, []string{rows[1][2], rows[2][2], rows[3][2]})
	assert.Equal(test, "2024-01-15T23:00:00Z", rows[len(rows)-1][0])
}

func TestToggleAndUndo(test *testing.T) {
	c := mustStart(test, flatScenario())
	for i := 0; i < 3; i++ {
		c.Step()
	}

	before := unitSnapshot(c.CurrentSnapshot(), "ub")
	require.True(test, before.CommandOn)
	require.Greater(test, before.Output, 0.0)

	result, previous := c.ToggleUnit("ub")
	require.True(test, result.OK)
	toggled := unitSnapshot(c.CurrentSnapshot(), "ub")
	assert.False(test, toggled.CommandOn)
	assert.False(test, toggled.Committed)

	result = c.RestoreUnitState("ub", previous)
	require.True(test, result.OK, result.Reason)
	after := unitSnapshot(c.CurrentSnapshot(), "ub")
	assert.Equal(test, before.Output, after.Output)
	assert.Equal(test, before.Committed, after.Committed)
	assert.Equal(test, before.CommandOn, after.CommandOn)
	assert.Equal(test, before.Status, after.Status)

	// a toggled off unit ramps down rather than dropping out of the log
	_, previous = c.ToggleUnit("ub")
	c.Step()
	assert.False(test, unitSnapshot(c.CurrentSnapshot(), "ub").Committed)

	// one hourly tick later the undo is still allowed, two is too late
	c.Step()
	result = c.RestoreUnitState("ub", previous)
	assert.False(test, result.OK)
	assert.Contains(test, result.Reason, "undo window")

	result, _ = c.ToggleUnit("nope")
	assert.False(test, result.OK)
	assert.Contains(test, result.Reason, "unknown unit")

	result = c.RestoreUnitState("ua", previous)
	assert.False(test, result.OK)
}

func TestToggleRejectedDuringOutage(test *testing.T) {
	scn := flatScenario()
	scn.ThermalUnits[0].PoissonRate = 1000
	scn.ThermalUnits[0].RepairHours = [2]float64{5, 5}

	c := mustStart(test, scn)
	snapshot := c.Step()

	ua := unitSnapshot(snapshot, "ua")
	assert.Equal(test, dispatch.StatusOutage, ua.Status)
	assert.False(test, ua.ToggleAllowed)
	assert.Equal(test, 0.0, ua.Output)
	require.NotNil(test, snapshot.LastEvent)

	result, _ := c.ToggleUnit("ua")
	assert.False(test, result.OK)
	assert.Contains(test, result.Reason, "forced outage")

	// five hour repair: back in service on the sixth tick after the trip
	for i := 0; i < 5; i++ {
		c.Step()
	}
	found := false
	for _, e := range c.Events() {
		if strings.Contains(e.Message, "returned to service") {
			found = true
		}
	}
	assert.True(test, found)
}

func TestSetBatteryMode(test *testing.T) {
	c := mustStart(test, flatScenario())

	assert.True(test, c.SetBatteryMode("charge").OK)
	snapshot := c.Step()
	assert.Equal(test, "charge", snapshot.Battery.Setting)
	assert.Equal(test, "charge", snapshot.Battery.Mode)
	assert.Less(test, snapshot.Battery.PowerMW, 0.0)

	result := c.SetBatteryMode("bogus")
	assert.False(test, result.OK)
	assert.Contains(test, c.CurrentSnapshot().LastEvent.Message, "rejected")

	full := flatScenario()
	full.Battery.InitialSoc = 1
	c = mustStart(test, full)
	result = c.SetBatteryMode("charge")
	assert.False(test, result.OK)
	assert.Equal(test, "auto", c.CurrentSnapshot().Battery.Setting)
}

func TestApplyOverrides(test *testing.T) {
	base := mustStart(test, flatScenario())
	overridden := mustStart(test, flatScenario())

	gas := 100.0
	tx := 123.0
	overridden.ApplyOverrides(Overrides{Gas: &gas, Tx: &tx})

	// transfer limits change straight away
	for _, l := range overridden.CurrentSnapshot().Links {
		assert.Equal(test, 123.0, l.Limit)
	}

	baseSnapshot := base.Step()
	overriddenSnapshot := overridden.Step()

	// 8 * 30 / 10 + 2 is below the floor, 8 * 100 / 10 + 2 is not
	assert.Equal(test, 30.0, baseSnapshot.Zones[0].Price)
	assert.InDelta(test, 82, overriddenSnapshot.Zones[0].Price, 1e-9)
	require.NotNil(test, overriddenSnapshot.Overrides.Gas)
	assert.Equal(test, 100.0, *overriddenSnapshot.Overrides.Gas)
	assert.Nil(test, overriddenSnapshot.Overrides.Reserve)

	// requiring more reserve than the units can carry
	reserve := 50.0
	overridden.ApplyOverrides(Overrides{Reserve: &reserve})
	overridden.Step()
	assert.Equal(test, 1, overridden.Totals().ReserveShortfallTicks)
}

func TestScenarioIsNotModified(test *testing.T) {
	scn := scenario.Example()
	original := scn.Clone()

	c := mustNew(test, scn)
	tx := 1.0
	c.ApplyOverrides(Overrides{Tx: &tx})
	c.ToggleUnit("n-coal")
	_, err := c.RunHeadless()
	require.NoError(test, err)

	assert.Equal(test, original, scn)
	assert.Equal(test, original, c.Scenario())
}

func TestSnapshotIsACopy(test *testing.T) {
	c := mustStart(test, flatScenario())
	for i := 0; i < 3; i++ {
		c.Step()
	}

	snapshot := c.CurrentSnapshot()
	require.Len(test, snapshot.Zones[0].PriceHistory, 3)
	snapshot.Zones[0].PriceHistory[0] = -1
	snapshot.Units[0].Output = -1
	snapshot.Stack[0].Output = -1

	fresh := c.CurrentSnapshot()
	assert.NotEqual(test, -1.0, fresh.Zones[0].PriceHistory[0])
	assert.NotEqual(test, -1.0, fresh.Units[0].Output)
	assert.NotEqual(test, -1.0, fresh.Stack[0].Output)
	assert.Equal(test, "Mon 15 Jan 03:00", fresh.TimeLabel)
	assert.Len(test, fresh.Stack, 3)
}

func TestPriceHistoryIsBounded(test *testing.T) {
	scn := flatScenario()
	scn.Clock.DurationHours = 48
	c := mustNew(test, scn)
	_, err := c.RunHeadless()
	require.NoError(test, err)

	snapshot := c.CurrentSnapshot()
	assert.Len(test, snapshot.Zones[0].PriceHistory, priceHistoryLen)
	assert.Equal(test, 48*3, snapshot.PriceStats.Count)
}

func TestZonalLoad(test *testing.T) {
	zone := scenario.Zone{ID: "z", BaseLoad: 500, TempSensitivity: 10}

	type subTest struct {
		name        string
		hour        float64
		temperature float64
		expected    float64
	}

	subTests := []subTest{
		{"morning at comfort temperature", 9, 18, 500},
		{"afternoon peak", 15, 18, 550},
		{"night trough", 3, 18, 450},
		{"heating load", 9, 8, 600},
		{"cooling load", 9, 28, 600},
	}

	for _, subTest := range subTests {
		test.Run(subTest.name, func(t *testing.T) {
			load := zonalLoad(zone, subTest.hour, subTest.temperature)
			if !almostEqual(load, subTest.expected, 1e-9) {
				t.Errorf("load %f, expected %f", load, subTest.expected)
			}
		})
	}
}
