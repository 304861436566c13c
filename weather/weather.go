// Package weather precomputes the weather for a whole simulation horizon.
package weather

import (
	"math"

	"github.com/cepro/gridsim/rng"
	"github.com/cepro/gridsim/scenario"
	timeutils "github.com/cepro/gridsim/time_utils"
)

const (
	temperatureNoiseStd = 1.0
	solarNoiseStd       = 0.05
	temperaturePeakHour = 15.0
	sunriseHour         = 6.0
	daylightHours       = 12.0
)

// Series holds one value per tick for each weather variable.
type Series struct {
	Temperature []float64 // degrees C
	WindSpeed   []float64 // m/s, never negative
	Solar       []float64 // irradiance as a fraction of clear-sky peak, in [0,1]
}

// At returns the weather at the given tick.
func (s Series) At(tick int) (temperature, windSpeed, solar float64) {
	return s.Temperature[tick], s.WindSpeed[tick], s.Solar[tick]
}

// Len returns the number of ticks covered.
func (s Series) Len() int {
	return len(s.Temperature)
}

// Generate builds the full-horizon series. For every tick it draws temperature, wind and solar noise from
// `src`, in that order, so the draw order is fixed regardless of how the run is later paced.
func Generate(params scenario.Weather, clock timeutils.SimClock, src *rng.Source) Series {
	n := clock.TotalTicks
	s := Series{
		Temperature: make([]float64, n),
		WindSpeed:   make([]float64, n),
		Solar:       make([]float64, n),
	}

	windStd := math.Sqrt(math.Max(0, params.Wind.Variance))

	for tick := 0; tick < n; tick++ {
		hour := clock.HourOfDay(tick)

		s.Temperature[tick] = TemperatureBase(params.Temperature, hour) + src.Normal(0, temperatureNoiseStd)
		s.WindSpeed[tick] = math.Max(0, params.Wind.Mean+src.Normal(0, windStd))
		s.Solar[tick] = clamp01(SolarEnvelope(params.Solar, hour) + src.Normal(0, solarNoiseStd))
	}
	return s
}

// TemperatureBase is the smooth diurnal temperature curve, peaking mid-afternoon.
func TemperatureBase(p scenario.TemperatureParams, hour float64) float64 {
	return p.Base + p.Amplitude*math.Sin(2*math.Pi*(hour-(temperaturePeakHour-6))/24)
}

// SolarEnvelope is the clear-sky irradiance fraction: a half sine between sunrise and sunset peaking at midday.
func SolarEnvelope(p scenario.SolarParams, hour float64) float64 {
	if hour <= sunriseHour || hour >= sunriseHour+daylightHours {
		return 0
	}
	return p.Peak * math.Sin(math.Pi*(hour-sunriseHour)/daylightHours)
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}
