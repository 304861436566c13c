package kpi

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// PriceStats summarises a series of prices.
type PriceStats struct {
	Count  int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Stats returns summary statistics of `prices`. The standard deviation is the unbiased sample estimate and is
// zero for fewer than two prices.
func Stats(prices []float64) PriceStats {
	if len(prices) == 0 {
		return PriceStats{}
	}
	s := PriceStats{
		Count: len(prices),
		Min:   floats.Min(prices),
		Max:   floats.Max(prices),
	}
	if len(prices) == 1 {
		s.Mean = prices[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(prices, nil)
	return s
}
