package cartesian

// Point represents a cartesian X,Y point
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Curve is a piecewise-linear function defined by points in ascending X order.
type Curve struct {
	Points []Point `json:"points" yaml:"points"`
}

// ValueAt returns the y-value of the curve at `x`, interpolating linearly between the two surrounding points.
// The boolean is false if `x` is outside of the horizontal span of the curve.
func (c *Curve) ValueAt(x float64) (float64, bool) {

	// Loop over each pair of points in the curve
	for i := 0; i < len(c.Points)-1; i++ {
		p1 := c.Points[i]
		p2 := c.Points[i+1]

		// Check if `x` is 'within the vertical band' of the two current points
		if p1.X <= x && x <= p2.X {
			if p1.X == p2.X {
				return p2.Y, true
			}
			return linearInterpolation(p1, p2, x), true
		}
	}
	return 0, false
}

// ValueOr returns the y-value of the curve at `x`, or `fallback` if `x` is outside of the curve.
func (c *Curve) ValueOr(x, fallback float64) float64 {
	y, ok := c.ValueAt(x)
	if !ok {
		return fallback
	}
	return y
}

// linearInterpolation returns the y-value at `x` given two points.
func linearInterpolation(p1, p2 Point, x float64) float64 {
	return p1.Y + (x-p1.X)*((p2.Y-p1.Y)/(p2.X-p1.X))
}
