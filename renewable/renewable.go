// Package renewable converts weather into wind and solar plant output.
package renewable

import (
	"math"

	"github.com/cepro/gridsim/cartesian"
	"github.com/cepro/gridsim/scenario"
)

const (
	CutInSpeed  = 3.0  // m/s
	RatedSpeed  = 12.0 // m/s
	CutOutSpeed = 25.0 // m/s
	RatedFactor = 0.9
)

// windCurve is the turbine power curve as a fraction of nameplate. Outside its span (negative speeds or above
// cut-out) the output is zero.
var windCurve = cartesian.Curve{
	Points: []cartesian.Point{
		{X: 0, Y: 0},
		{X: CutInSpeed, Y: 0},
		{X: RatedSpeed, Y: RatedFactor},
		{X: CutOutSpeed, Y: RatedFactor},
	},
}

// WindCapacityFactor returns the fraction of nameplate a wind plant produces at the given wind speed.
func WindCapacityFactor(windSpeed float64) float64 {
	return windCurve.ValueOr(windSpeed, 0)
}

// Output is the renewable generation in one zone for one tick.
type Output struct {
	Solar float64
	Wind  float64
}

func (o Output) Total() float64 {
	return o.Solar + o.Wind
}

// ZoneOutput sums the output of every solar and wind plant in `zone`. Each plant is clamped to its nameplate.
func ZoneOutput(plants scenario.Renewables, zone string, windSpeed, solarFraction float64) Output {
	var out Output
	for _, p := range plants.Solar {
		if p.Zone != zone {
			continue
		}
		out.Solar += clampToPlant(p.Pmax*solarFraction, p.Pmax)
	}
	cf := WindCapacityFactor(windSpeed)
	for _, p := range plants.Wind {
		if p.Zone != zone {
			continue
		}
		out.Wind += clampToPlant(p.Pmax*cf, p.Pmax)
	}
	return out
}

func clampToPlant(mw, pmax float64) float64 {
	return math.Min(pmax, math.Max(0, mw))
}
