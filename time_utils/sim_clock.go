package timeutils

import (
	"math"
	"time"
)

// SimClock maps tick indices of a simulation onto wall-clock times. Ticks are zero-based: tick 0 starts at
// `Start` and the horizon ends after `TotalTicks` ticks.
type SimClock struct {
	Start       time.Time
	TickMinutes float64
	TotalTicks  int
}

// NewSimClock returns a clock covering `durationHours` in ticks of `tickMinutes`. The number of ticks is
// rounded to the nearest whole tick.
func NewSimClock(start time.Time, durationHours, tickMinutes float64) SimClock {
	return SimClock{
		Start:       start,
		TickMinutes: tickMinutes,
		TotalTicks:  int(math.Round(durationHours * 60 / tickMinutes)),
	}
}

// TickHours returns the length of one tick in hours.
func (c SimClock) TickHours() float64 {
	return c.TickMinutes / 60
}

// TickDuration returns the length of one tick.
func (c SimClock) TickDuration() time.Duration {
	return time.Duration(c.TickMinutes * float64(time.Minute))
}

// TicksPerHour returns the number of whole ticks in an hour, never less than one.
func (c SimClock) TicksPerHour() int {
	n := int(math.Round(60 / c.TickMinutes))
	if n < 1 {
		return 1
	}
	return n
}

// TimeAt returns the start time of the given tick.
func (c SimClock) TimeAt(tick int) time.Time {
	return c.Start.Add(time.Duration(tick) * c.TickDuration())
}

// HourOfDay returns the fractional hour of the day, in the location of `Start`, at the start of the given tick.
func (c SimClock) HourOfDay(tick int) float64 {
	return FractionalHour(c.TimeAt(tick))
}

// Horizon returns the absolute period covered by the clock.
func (c SimClock) Horizon() Period {
	return Period{Start: c.Start, End: c.TimeAt(c.TotalTicks)}
}

// FractionalHour returns the hour of day of `t` including the minute and second fractions, e.g. 13.5 for 13:30.
func FractionalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60 + float64(t.Second())/3600
}

// Label formats `t` the way times are shown to operators, e.g. "Mon 15 Jan 14:30".
func Label(t time.Time) string {
	return t.Format("Mon 02 Jan 15:04")
}
