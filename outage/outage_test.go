package outage

import (
	"math"
	"testing"

	"github.com/cepro/gridsim/dispatch"
	"github.com/cepro/gridsim/rng"
	"github.com/cepro/gridsim/scenario"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbability(t *testing.T) {
	assert.Equal(t, 0.0, Probability(0, 1))
	assert.Equal(t, 0.0, Probability(0.1, 0))
	assert.InDelta(t, 1-math.Exp(-0.5), Probability(0.5, 1), 1e-12)
	assert.InDelta(t, 1-math.Exp(-0.125), Probability(0.5, 0.25), 1e-12)
}

func TestDurationTicks(t *testing.T) {

	type subTest struct {
		name          string
		repairHours   float64
		tickHours     float64
		expectedTicks int
	}

	subTests := []subTest{
		{"whole hours", 3, 1, 3},
		{"partial tick rounds up", 3.1, 1, 4},
		{"quarter hour ticks", 2.5, 0.25, 10},
		{"never zero", 0, 1, 1},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			assert.Equal(t, subTest.expectedTicks, DurationTicks(subTest.repairHours, subTest.tickHours))
		})
	}
}

func newUnit(id string, rate float64) *dispatch.Unit {
	return dispatch.NewUnit(scenario.ThermalUnit{
		ID: id, Name: id, Zone: "z", Pmax: 100, Ramp: 100,
		PoissonRate: rate, RepairHours: [2]float64{2, 2},
	})
}

func TestCertainOutageAndRecovery(t *testing.T) {
	// an enormous rate makes the outage practically certain on the first tick
	u := newUnit("u", 1e6)
	u.Output = 80
	src := rng.New(1)

	events := Process([]*dispatch.Unit{u}, src, 1, 1)
	require.Len(t, events, 1)
	assert.True(t, events[0].Started)
	assert.Equal(t, 2, events[0].Ticks)
	assert.True(t, u.OnOutage())
	assert.False(t, u.CommandOn)
	assert.Equal(t, 0.0, u.Output)

	// one more tick still out
	events = Process([]*dispatch.Unit{u}, src, 1, 1)
	assert.Empty(t, events)
	assert.True(t, u.OnOutage())

	// recovery tick: back in service, not sampled again this tick
	events = Process([]*dispatch.Unit{u}, src, 1, 1)
	require.Len(t, events, 1)
	assert.False(t, events[0].Started)
	assert.False(t, u.OnOutage())
	assert.True(t, u.CommandOn)
	assert.True(t, u.ToggleAllowed)
}

func TestZeroRateNeverTripsButStillDraws(t *testing.T) {
	u := newUnit("u", 0)
	src := rng.New(5)
	reference := rng.New(5)

	for i := 0; i < 100; i++ {
		assert.Empty(t, Process([]*dispatch.Unit{u}, src, 1, 1))
		reference.Next()
	}
	// one draw per unit per tick keeps the random sequence aligned regardless of rates
	assert.Equal(t, reference.Next(), src.Next())
}

func TestRateScaleOverride(t *testing.T) {
	u := newUnit("u", 1e6)
	events := Process([]*dispatch.Unit{u}, rng.New(1), 1, 0)
	assert.Empty(t, events, "a zero multiplier disables outages")
}

func TestOutageFrequency(t *testing.T) {
	units := make([]*dispatch.Unit, 200)
	for i := range units {
		units[i] = newUnit("u", 0.1)
	}
	events := Process(units, rng.New(3), 1, 1)
	// expect about 200 * (1 - e^-0.1) = 19 outages
	assert.InDelta(t, 19, len(events), 15)
}
