// Package pricing sets zonal clearing prices.
package pricing

import (
	"math"

	"github.com/cepro/gridsim/dispatch"
)

// PriceFloor is the lowest energy price a zone clears at while load is served.
const PriceFloor = 30.0

// ZonePrice returns the clearing price of a zone. When load is being shed the price is the cap. Otherwise it is
// the highest variable cost among the zone's dispatched units (targetOutput > 0), no lower than PriceFloor,
// plus the congestion adder, and never above the cap.
func ZonePrice(units []*dispatch.Unit, costs dispatch.CostModel, adder, priceCap float64, shedding bool) float64 {
	if shedding {
		return priceCap
	}

	marginal := PriceFloor
	for _, u := range units {
		if u.TargetOutput > 0 {
			marginal = math.Max(marginal, costs.VariableCost(u.Config))
		}
	}
	return math.Min(priceCap, marginal+adder)
}
