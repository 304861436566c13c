package cartesian

import (
	"testing"
)

func TestLinearInterpolate(t *testing.T) {

	type subTest struct {
		name      string
		p1        Point
		p2        Point
		x         float64
		expectedY float64
	}

	subTests := []subTest{
		{"positive gradient, positive value", Point{0, 0}, Point{1, 1}, 0.5, 0.5},
		{"positive gradient, negative value", Point{0, 0}, Point{-1, -1}, -0.5, -0.5},
		{"negative gradient, positive value", Point{6, 6}, Point{12, 0}, 9, 3},
		{"flat", Point{12, 0.9}, Point{25, 0.9}, 20, 0.9},
	}
	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			y := linearInterpolation(subTest.p1, subTest.p2, subTest.x)
			if y != subTest.expectedY {
				t.Errorf("Got %f, expected %f", y, subTest.expectedY)
			}
		})
	}
}

func TestValueAt(t *testing.T) {

	curve := Curve{
		Points: []Point{
			{0, 0},
			{3, 0},
			{12, 0.9},
			{25, 0.9},
		},
	}

	type subTest struct {
		name       string
		x          float64
		expectedY  float64
		expectedOk bool
	}

	subTests := []subTest{
		{"before the curve", -1, 0, false},
		{"first point", 0, 0, true},
		{"flat start", 2, 0, true},
		{"mid ramp", 7.5, 0.45, true},
		{"rated", 12, 0.9, true},
		{"plateau", 20, 0.9, true},
		{"last point", 25, 0.9, true},
		{"after the curve", 25.01, 0, false},
	}
	for _, subTest := range subTests {
		t.Run(subTest.name, func(t *testing.T) {
			y, ok := curve.ValueAt(subTest.x)
			if ok != subTest.expectedOk {
				t.Fatalf("Got ok=%t, expected %t", ok, subTest.expectedOk)
			}
			if ok && !almostEqual(y, subTest.expectedY, 1e-9) {
				t.Errorf("Got %f, expected %f", y, subTest.expectedY)
			}
		})
	}

	if v := curve.ValueOr(30, -1); v != -1 {
		t.Errorf("ValueOr outside curve got %f, expected fallback", v)
	}
}

func TestValueAtStep(t *testing.T) {
	// at a vertical step the first matching segment wins
	curve := Curve{Points: []Point{{0, 0}, {5, 0}, {5, 1}, {10, 1}}}
	y, ok := curve.ValueAt(5)
	if !ok || y != 0 {
		t.Errorf("Got %f (ok=%t), expected the first segment's end value", y, ok)
	}
}

func almostEqual(a, b, tolerance float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < tolerance
}
