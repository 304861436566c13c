// Package kpi accumulates the running reliability, cost and emissions totals of a run and turns them into a
// final scorecard.
package kpi

import (
	"math"

	"github.com/cepro/gridsim/scenario"
)

const (
	costScale      = 100000.0 // cash at which the cost score bottoms out
	emissionsScale = 1000.0   // tonnes at which the emissions score bottoms out

	zeroShedThreshold       = 0.01
	congestionTickThreshold = 10
	minBadges               = 3
)

const (
	BadgeZeroShed          = "Zero Shed Day"
	BadgeCongestionManager = "Congestion Manager"
	BadgeBatteryHero       = "Battery Hero"
)

// fillerBadges top the badge list up to minBadges, in this order.
var fillerBadges = []string{"Grid Operator", "Steady Hand", "Market Participant"}

// Totals are the cumulative accumulators for a run. Energy is in MWh, money in currency units, emissions in
// tonnes.
type Totals struct {
	UnmetMWh              float64
	PriceSum              float64
	PriceCount            int
	Emissions             float64
	Cash                  float64
	Revenue               float64
	FuelCost              float64
	VOMCost               float64
	CongestedTicks        int
	ThroughputMWh         float64
	ServedMWh             float64
	TotalLoadMWh          float64
	CurtailedMWh          float64
	ReserveShortfallTicks int
}

// Generation is the contribution of one thermal unit over one tick.
type Generation struct {
	OutputMW   float64
	Price      float64 // clearing price of the unit's zone
	FuelCost   float64 // per MWh
	VOM        float64 // per MWh
	EmissionsT float64 // tonnes per MWh
}

// AddGeneration books the revenue, expenses and emissions of a unit for a tick of `tickHours`.
func (t *Totals) AddGeneration(g Generation, tickHours float64) {
	energy := g.OutputMW * tickHours
	revenue := energy * g.Price
	fuel := energy * g.FuelCost
	vom := energy * g.VOM

	t.Revenue += revenue
	t.FuelCost += fuel
	t.VOMCost += vom
	t.Cash += revenue - fuel - vom
	t.Emissions += energy * g.EmissionsT
}

// AddBattery books battery energy at the anchor zone price. Charging (negative power) is a purchase.
func (t *Totals) AddBattery(powerMW, price, tickHours float64) {
	revenue := powerMW * price * tickHours
	t.Revenue += revenue
	t.Cash += revenue
	t.ThroughputMWh += math.Abs(powerMW) * tickHours
}

// AddPrices records one price observation per zone.
func (t *Totals) AddPrices(prices ...float64) {
	for _, p := range prices {
		t.PriceSum += p
		t.PriceCount++
	}
}

// AddLoad records the system load for a tick and how much of it went unserved.
func (t *Totals) AddLoad(loadMW, unmetMW, tickHours float64) {
	t.TotalLoadMWh += loadMW * tickHours
	t.UnmetMWh += unmetMW * tickHours
	t.ServedMWh += math.Max(0, loadMW-unmetMW) * tickHours
}

// AveragePrice is the time-weighted average of every recorded zonal price, or zero before any were recorded.
func (t Totals) AveragePrice() float64 {
	if t.PriceCount == 0 {
		return 0
	}
	return t.PriceSum / float64(t.PriceCount)
}

// Contract is the day-ahead forward position fixed at the start of a run.
type Contract struct {
	Quantity float64 // MW
	Price    float64
	Settled  bool
	Amount   float64 // cash booked at settlement
}

// Settle books the day-ahead contract against the realised average price, once. Calls after the first return
// the amount already booked and leave the totals untouched.
func (t *Totals) Settle(c *Contract, durationHours float64) float64 {
	if c.Settled {
		return c.Amount
	}
	c.Amount = (c.Price - t.AveragePrice()) * c.Quantity * durationHours
	c.Settled = true
	t.Cash += c.Amount
	return c.Amount
}

// Scorecard is the end-of-run assessment.
type Scorecard struct {
	Reliability float64
	CostScore   float64
	Emissions   float64
	Score       float64
	Badges      []string
	Totals      Totals
}

// ComputeScore scores the totals against the scenario weights. `batteryCapacity` is the battery's energy
// capacity in MWh.
func ComputeScore(t Totals, weights scenario.ScoreWeights, batteryCapacity float64) Scorecard {
	reliability := 1.0
	if t.TotalLoadMWh > 0 {
		reliability = math.Max(0, 1-t.UnmetMWh/t.TotalLoadMWh)
	}
	costScore := clamp01(1 - t.Cash/costScale)
	emissionsScore := clamp01(1 - t.Emissions/emissionsScale)

	weighted := weights.Reliability*reliability + weights.Cost*costScore + weights.Emissions*emissionsScore

	return Scorecard{
		Reliability: reliability,
		CostScore:   costScore,
		Emissions:   emissionsScore,
		Score:       weighted,
		Badges:      Badges(t, batteryCapacity),
		Totals:      t,
	}
}

// Badges returns the earned badges followed by filler badges, at least minBadges in total.
func Badges(t Totals, batteryCapacity float64) []string {
	var badges []string
	if t.UnmetMWh < zeroShedThreshold {
		badges = append(badges, BadgeZeroShed)
	}
	if t.CongestedTicks < congestionTickThreshold {
		badges = append(badges, BadgeCongestionManager)
	}
	if t.ThroughputMWh > batteryCapacity {
		badges = append(badges, BadgeBatteryHero)
	}
	for _, filler := range fillerBadges {
		if len(badges) >= minBadges {
			break
		}
		badges = append(badges, filler)
	}
	return badges
}

func clamp01(x float64) float64 {
	return math.Min(1, math.Max(0, x))
}
