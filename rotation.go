package sdc

import (
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// R1 rotation about the 1st axis.
func R1(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{1, 0, 0, 0, c, s, 0, -s, c})
}

// R2 rotation about the 2nd axis.
func R2(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, 0, -s, 0, 1, 0, s, 0, c})
}

// R3 rotation about the 3rd axis.
func R3(x float64) *mat64.Dense {
	s, c := math.Sincos(x)
	return mat64.NewDense(3, 3, []float64{c, s, 0, -s, c, 0, 0, 0, 1})
}

// Rot313 performs a 3-1-3 Euler rotation: R3(θ3) times R1(θ2) times R3(θ1).
func Rot313(θ1, θ2, θ3 float64) *mat64.Dense {
	var m mat64.Dense
	m.Mul(R1(θ2), R3(θ1))
	m.Mul(R3(θ3), &m)
	return &m
}

// Rot321 performs a 3-2-1 Euler rotation: R1(φ) times R2(θ) times R3(ψ),
// i.e. the yaw-pitch-roll frame rotation.
func Rot321(φ, θ, ψ float64) *mat64.Dense {
	var m mat64.Dense
	m.Mul(R2(θ), R3(ψ))
	m.Mul(R1(φ), &m)
	return &m
}

// EulerSequenceToMatrix composes the three elementary rotations given by the
// sequence string. "321" maps [φ θ ψ] to R1(φ)R2(θ)R3(ψ) and "313" maps
// [θ1 θ2 θ3] to R3(θ3)R1(θ2)R3(θ1). Any other ordering returns
// ErrUnsupportedSequence.
func EulerSequenceToMatrix(angles []float64, sequence string) (*mat64.Dense, error) {
	if len(angles) != 3 {
		return nil, ErrInvalidDimension
	}
	switch sequence {
	case "321":
		return Rot321(angles[0], angles[1], angles[2]), nil
	case "313":
		return Rot313(angles[0], angles[1], angles[2]), nil
	default:
		return nil, ErrUnsupportedSequence
	}
}

// PQW2ECI converts a given vector from the perifocal frame to ECI via the
// 3-1-3 (RAAN, inclination, argument of periapsis) composition.
func PQW2ECI(i, ω, Ω float64, vI []float64) []float64 {
	return MxV33(Rot313(-ω, -i, -Ω), vI)
}

// MxV33 multiplies a matrix with a vector. Note that there is no dimension check!
func MxV33(m *mat64.Dense, v []float64) (o []float64) {
	vVec := mat64.NewVector(len(v), v)
	var rVec mat64.Vector
	rVec.MulVec(m, vVec)
	return []float64{rVec.At(0, 0), rVec.At(1, 0), rVec.At(2, 0)}
}

// ValidateRotation returns ErrInvalidRotation unless m is orthogonal and
// proper (unit determinant) within tol, or ErrInvalidDimension if it is
// not 3x3.
func ValidateRotation(m *mat64.Dense, tol float64) error {
	r, c := m.Dims()
	if r != 3 || c != 3 {
		return ErrInvalidDimension
	}
	var mtm mat64.Dense
	mtm.Mul(m.T(), m)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			expected := 0.0
			if i == j {
				expected = 1.0
			}
			if !floats.EqualWithinAbs(mtm.At(i, j), expected, tol) {
				return ErrInvalidRotation
			}
		}
	}
	if !floats.EqualWithinAbs(mat64.Det(m), 1, tol) {
		return ErrInvalidRotation
	}
	return nil
}
