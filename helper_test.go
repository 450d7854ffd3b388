package sdc

import (
	"fmt"
	"math"
	"testing"

	"github.com/gonum/floats"
)

func assertPanic(t *testing.T, f func()) {
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("code did not panic")
		}
	}()
	f()
}

func vectorsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := len(a) - 1; i >= 0; i-- {
		if !floats.EqualWithinRel(a[i], b[i], 1e-3) {
			return false
		}
	}
	return true
}

// anglesEqual returns whether two angles in radians are equal.
func anglesEqual(a, b float64) (bool, error) {
	diff := math.Mod(math.Abs(a-b), 2*math.Pi)
	if diff < angleε {
		return true, nil
	}
	return false, fmt.Errorf("difference of %3.10f degrees", math.Abs(Rad2deg(diff)))
}

// quaternionsEqual returns whether the two quaternions represent the same
// attitude (q and -q are the same rotation) within tol per component.
func quaternionsEqual(a, b Quaternion, tol float64) bool {
	if a.Q0*b.Q0+a.Q1*b.Q1+a.Q2*b.Q2+a.Q3*b.Q3 < 0 {
		b = Quaternion{-b.Q0, -b.Q1, -b.Q2, -b.Q3}
	}
	return floats.EqualWithinAbs(a.Q0, b.Q0, tol) && floats.EqualWithinAbs(a.Q1, b.Q1, tol) &&
		floats.EqualWithinAbs(a.Q2, b.Q2, tol) && floats.EqualWithinAbs(a.Q3, b.Q3, tol)
}
