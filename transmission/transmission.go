// Package transmission moves surplus energy between zones over the two interconnecting links and flags
// congestion.
package transmission

import (
	"math"

	"github.com/cepro/gridsim/scenario"
)

const (
	// CongestionTolerance is how close to its limit a link's flow must be for the link to count as congested.
	CongestionTolerance = 0.01

	// CongestionAdder is the price adder applied to both ends of a congested link.
	CongestionAdder = 15.0

	balanceEpsilon = 1e-9
)

// Link is the runtime mirror of a transmission link. A positive flow runs from `From` to `To`.
type Link struct {
	Config    scenario.TransmissionLink
	Limit     float64
	Flow      float64
	Congested bool
}

func NewLink(cfg scenario.TransmissionLink) *Link {
	return &Link{Config: cfg, Limit: cfg.Limit}
}

// Result is the outcome of balancing one tick. All maps are keyed by zone ID.
type Result struct {
	Balance      map[string]float64 // supply minus demand after transfers
	Unmet        map[string]float64 // load shed in the zone, MW
	Surplus      map[string]float64 // supply that could not be exported, MW
	Adder        map[string]float64 // congestion price adder
	Congested    map[string]bool
	AnyCongested bool
}

// TotalUnmet sums unmet load across `zones`.
func (r Result) TotalUnmet(zones []string) float64 {
	total := 0.0
	for _, z := range zones {
		total += r.Unmet[z]
	}
	return total
}

// Balance resolves transfers for one tick. `balance` holds, per zone, local supply minus load (positive is a
// surplus); it is not modified. Links are processed in order: when one end has a surplus and the other a
// deficit, the smaller of the two, bounded by the link limit, flows across.
//
// A congested link adds CongestionAdder to both its end zones. A zone touching two congested links still gets
// a single adder.
func Balance(zones []string, links []*Link, balance map[string]float64) Result {
	r := Result{
		Balance:   make(map[string]float64, len(zones)),
		Unmet:     make(map[string]float64, len(zones)),
		Surplus:   make(map[string]float64, len(zones)),
		Adder:     make(map[string]float64, len(zones)),
		Congested: make(map[string]bool, len(zones)),
	}
	for _, z := range zones {
		r.Balance[z] = balance[z]
	}

	for _, link := range links {
		from, to := link.Config.From, link.Config.To
		limit := math.Max(0, link.Limit)
		fromBalance, toBalance := r.Balance[from], r.Balance[to]

		flow := 0.0
		switch {
		case fromBalance > balanceEpsilon && toBalance < -balanceEpsilon:
			flow = math.Min(math.Min(fromBalance, -toBalance), limit)
		case toBalance > balanceEpsilon && fromBalance < -balanceEpsilon:
			flow = -math.Min(math.Min(toBalance, -fromBalance), limit)
		}

		r.Balance[from] -= flow
		r.Balance[to] += flow

		link.Flow = flow
		link.Congested = math.Abs(flow) >= limit-CongestionTolerance
		if link.Congested {
			r.AnyCongested = true
			r.Congested[from] = true
			r.Congested[to] = true
			r.Adder[from] = math.Max(r.Adder[from], CongestionAdder)
			r.Adder[to] = math.Max(r.Adder[to], CongestionAdder)
		}
	}

	for _, z := range zones {
		if r.Balance[z] < -balanceEpsilon {
			r.Unmet[z] = -r.Balance[z]
		} else if r.Balance[z] > balanceEpsilon {
			r.Surplus[z] = r.Balance[z]
		}
	}
	return r
}

// SetLimit overrides the transfer limit of every link.
func SetLimit(links []*Link, limit float64) {
	for _, l := range links {
		l.Limit = limit
	}
}
