package transmission

import (
	"testing"

	"github.com/cepro/gridsim/scenario"
	"github.com/stretchr/testify/assert"
)

var zones = []string{"a", "b", "c"}

func newLinks(limitAB, limitBC float64) []*Link {
	return []*Link{
		NewLink(scenario.TransmissionLink{ID: "ab", From: "a", To: "b", Limit: limitAB}),
		NewLink(scenario.TransmissionLink{ID: "bc", From: "b", To: "c", Limit: limitBC}),
	}
}

func TestBalance(t *testing.T) {

	type subTest struct {
		name           string
		limitAB        float64
		limitBC        float64
		balance        map[string]float64
		expectedFlows  [2]float64
		expectedUnmet  map[string]float64
		expectedAdders map[string]float64
	}

	subTests := []subTest{
		{
			name:           "surplus flows to deficit",
			limitAB:        300,
			limitBC:        300,
			balance:        map[string]float64{"a": 100, "b": -60, "c": 0},
			expectedFlows:  [2]float64{60, 0},
			expectedUnmet:  map[string]float64{},
			expectedAdders: map[string]float64{},
		},
		{
			name:           "reverse direction is negative",
			limitAB:        300,
			limitBC:        300,
			balance:        map[string]float64{"a": -40, "b": 60, "c": 0},
			expectedFlows:  [2]float64{-40, 0},
			expectedUnmet:  map[string]float64{},
			expectedAdders: map[string]float64{},
		},
		{
			name:           "limit binds and congests",
			limitAB:        50,
			limitBC:        300,
			balance:        map[string]float64{"a": 100, "b": -80, "c": 0},
			expectedFlows:  [2]float64{50, 0},
			expectedUnmet:  map[string]float64{"b": 30},
			expectedAdders: map[string]float64{"a": CongestionAdder, "b": CongestionAdder},
		},
		{
			name:           "adders do not stack on a zone touching two congested links",
			limitAB:        20,
			limitBC:        20,
			balance:        map[string]float64{"a": 100, "b": -100, "c": 100},
			expectedFlows:  [2]float64{20, -20},
			expectedUnmet:  map[string]float64{"b": 60},
			expectedAdders: map[string]float64{"a": CongestionAdder, "b": CongestionAdder, "c": CongestionAdder},
		},
		{
			name:           "wheeling through the middle zone is not attempted",
			limitAB:        300,
			limitBC:        300,
			balance:        map[string]float64{"a": 100, "b": 0, "c": -100},
			expectedFlows:  [2]float64{0, 0},
			expectedUnmet:  map[string]float64{"c": 100},
			expectedAdders: map[string]float64{},
		},
	}

	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			links := newLinks(subTest.limitAB, subTest.limitBC)
			r := Balance(zones, links, subTest.balance)

			assert.InDelta(t, subTest.expectedFlows[0], links[0].Flow, 1e-9)
			assert.InDelta(t, subTest.expectedFlows[1], links[1].Flow, 1e-9)
			for _, z := range zones {
				assert.InDelta(t, subTest.expectedUnmet[z], r.Unmet[z], 1e-9, "unmet in %s", z)
				assert.Equal(t, subTest.expectedAdders[z], r.Adder[z], "adder in %s", z)
			}
			for _, l := range links {
				assert.LessOrEqual(t, l.Flow, l.Limit)
				assert.GreaterOrEqual(t, l.Flow, -l.Limit)
			}
		})
	}
}

func TestZeroLimitLinkIsAlwaysCongested(t *testing.T) {
	links := newLinks(0, 500)
	r := Balance(zones, links, map[string]float64{"a": 200, "b": -200, "c": 0})
	assert.True(t, links[0].Congested)
	assert.Equal(t, 0.0, links[0].Flow)
	assert.False(t, links[1].Congested)
	assert.True(t, r.AnyCongested)
	assert.InDelta(t, 200, r.TotalUnmet(zones), 1e-9)
	assert.InDelta(t, 200, r.Surplus["a"], 1e-9)
}

func TestBalanceDoesNotModifyInput(t *testing.T) {
	in := map[string]float64{"a": 100, "b": -60, "c": 0}
	Balance(zones, newLinks(300, 300), in)
	assert.Equal(t, map[string]float64{"a": 100, "b": -60, "c": 0}, in)
}

func TestSetLimit(t *testing.T) {
	links := newLinks(100, 200)
	SetLimit(links, 75)
	assert.Equal(t, 75.0, links[0].Limit)
	assert.Equal(t, 75.0, links[1].Limit)
	assert.Equal(t, 100.0, links[0].Config.Limit)
}
