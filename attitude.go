package sdc

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

// InertiaTensor is a 3x3 symmetric positive definite inertia tensor in
// kg m^2, expressed in the body frame. The inverse is computed once at
// construction since Euler's equations need it at every derivative call.
type InertiaTensor struct {
	mat *mat64.SymDense
	inv *mat64.Dense
}

// NewInertiaTensor returns an inertia tensor from the provided 9 elements in
// row major order. Fails with ErrSingularInertia if the tensor cannot be
// inverted.
func NewInertiaTensor(elements []float64) (*InertiaTensor, error) {
	if len(elements) != 9 {
		return nil, fmt.Errorf("inertia tensor needs 9 elements, got %d: %w", len(elements), ErrInvalidDimension)
	}
	m := mat64.NewSymDense(3, elements)
	var inv mat64.Dense
	if err := inv.Inverse(m); err != nil {
		return nil, fmt.Errorf("%s: %w", err, ErrSingularInertia)
	}
	return &InertiaTensor{m, &inv}, nil
}

// NewDiagonalInertia returns the inertia tensor diag(I1, I2, I3).
func NewDiagonalInertia(i1, i2, i3 float64) (*InertiaTensor, error) {
	return NewInertiaTensor([]float64{i1, 0, 0, 0, i2, 0, 0, 0, i3})
}

// BoxInertia returns the inertia tensor of a rectangular rigid body of the
// given mass (kg) and outer dimensions (m) about its center.
func BoxInertia(mass float64, dims []float64) (*InertiaTensor, error) {
	if len(dims) != 3 {
		return nil, fmt.Errorf("dimensions need 3 components, got %d: %w", len(dims), ErrInvalidDimension)
	}
	a, b, c := dims[0]/2, dims[1]/2, dims[2]/2
	return NewDiagonalInertia(
		(mass/3)*(b*b+c*c),
		(mass/3)*(a*a+c*c),
		(mass/3)*(a*a+b*b))
}

// At returns the tensor element at row i, column j.
func (I *InertiaTensor) At(i, j int) float64 {
	return I.mat.At(i, j)
}

// Mat returns the tensor as a mat64 symmetric matrix.
func (I *InertiaTensor) Mat() *mat64.SymDense {
	return I.mat
}

// AngularMomentum returns the body frame angular momentum h = I ω.
func (I *InertiaTensor) AngularMomentum(ω []float64) []float64 {
	var h mat64.Vector
	h.MulVec(I.mat, mat64.NewVector(3, ω))
	return []float64{h.At(0, 0), h.At(1, 0), h.At(2, 0)}
}

// KineticEnergy returns the rotational kinetic energy T = ω' I ω / 2.
func (I *InertiaTensor) KineticEnergy(ω []float64) float64 {
	return 0.5 * dot(ω, I.AngularMomentum(ω))
}

// EulerEquations returns the angular acceleration of Euler's rotational
// equation of motion, I^-1 (τ - ω x I ω). A nil torque means torque-free.
func (I *InertiaTensor) EulerEquations(ω, τ []float64) []float64 {
	gyro := cross(ω, I.AngularMomentum(ω))
	rhs := make([]float64, 3)
	for i := 0; i < 3; i++ {
		if τ != nil {
			rhs[i] = τ[i] - gyro[i]
		} else {
			rhs[i] = -gyro[i]
		}
	}
	var ωDot mat64.Vector
	ωDot.MulVec(I.inv, mat64.NewVector(3, rhs))
	return []float64{ωDot.At(0, 0), ωDot.At(1, 0), ωDot.At(2, 0)}
}

// QuaternionRate returns the quaternion kinematic equation Ω(ω) q / 2. This
// holds for any rigid body regardless of its inertia.
func QuaternionRate(q Quaternion, ω []float64) Quaternion {
	var qDot mat64.Vector
	qDot.MulVec(omegaMatrix(ω), mat64.NewVector(4, []float64{q.Q0, q.Q1, q.Q2, q.Q3}))
	return Quaternion{0.5 * qDot.At(0, 0), 0.5 * qDot.At(1, 0), 0.5 * qDot.At(2, 0), 0.5 * qDot.At(3, 0)}
}

// Attitude is the attitude state of a rigid body: orientation quaternion and
// body frame angular velocity in rad/s. It is only mutated by integrating
// the dynamics, which renormalizes the quaternion as drift accumulates.
type Attitude struct {
	Q        Quaternion
	Velocity []float64
}

// NewAttitude returns an attitude from an orientation and a body rate vector.
func NewAttitude(q Quaternion, ω []float64) (Attitude, error) {
	if len(ω) != 3 {
		return Attitude{}, fmt.Errorf("angular velocity needs 3 components, got %d: %w", len(ω), ErrInvalidDimension)
	}
	qu, err := q.Normalize()
	if err != nil {
		return Attitude{}, err
	}
	return Attitude{qu, []float64{ω[0], ω[1], ω[2]}}, nil
}

// State returns the 7 element state vector [q0 q1 q2 q3 ω1 ω2 ω3].
func (a Attitude) State() []float64 {
	return []float64{a.Q.Q0, a.Q.Q1, a.Q.Q2, a.Q.Q3, a.Velocity[0], a.Velocity[1], a.Velocity[2]}
}

// BodyShape classifies an axisymmetric body from its inertias.
type BodyShape uint8

// The axisymmetric body shapes.
const (
	Prolate BodyShape = iota + 1
	Oblate
	Spherical
)

// String implements the Stringer interface.
func (s BodyShape) String() string {
	switch s {
	case Prolate:
		return "prolate"
	case Oblate:
		return "oblate"
	case Spherical:
		return "spherical"
	}
	panic("cannot stringify unknown body shape")
}

// AxisymmetricBody is a torque-free rigid body with inertia tensor
// diag(It, It, Is): It about the two transverse axes and Is about the spin
// axis. Its motion has a closed form solution which doubles as a correctness
// oracle for the numerical propagation.
type AxisymmetricBody struct {
	It, Is float64
}

// NewAxisymmetricBody returns an axisymmetric body from its transverse and
// spin inertias, which must both be positive.
func NewAxisymmetricBody(iT, iS float64) (*AxisymmetricBody, error) {
	if iT <= 0 || iS <= 0 {
		return nil, fmt.Errorf("inertias must be positive (It=%f Is=%f): %w", iT, iS, ErrSingularInertia)
	}
	return &AxisymmetricBody{iT, iS}, nil
}

// Tensor returns the full inertia tensor diag(It, It, Is).
func (b AxisymmetricBody) Tensor() *InertiaTensor {
	tensor, _ := NewDiagonalInertia(b.It, b.It, b.Is)
	return tensor
}

// Shape classifies this body: prolate for Is > It, oblate for Is < It,
// spherical otherwise. Spherical bodies exhibit no nutation.
func (b AxisymmetricBody) Shape() BodyShape {
	if floats.EqualWithinAbs(b.Is, b.It, 1e-12) {
		return Spherical
	}
	if b.Is > b.It {
		return Prolate
	}
	return Oblate
}

// NutationRate returns the body frame nutation rate ω3 (Is - It) / It for
// the provided spin rate.
func (b AxisymmetricBody) NutationRate(ω3 float64) float64 {
	return ω3 * (b.Is - b.It) / b.It
}

// NutationPeriod returns the period of the transverse coning motion, and
// whether it is finite (a spherical body does not nutate).
func (b AxisymmetricBody) NutationPeriod(ω3 float64) (float64, bool) {
	Ωn := b.NutationRate(ω3)
	if floats.EqualWithinAbs(Ωn, 0, 1e-12) {
		return math.Inf(1), false
	}
	return 2 * math.Pi / math.Abs(Ωn), true
}

// AnalyticalSolution returns the exact torque-free body rates at time t for
// the provided initial rates: the transverse components trace a circle of
// radius sqrt(ω1²+ω2²) at the nutation rate while the spin component stays
// constant.
func (b AxisymmetricBody) AnalyticalSolution(ω0 []float64, t float64) ([]float64, error) {
	if len(ω0) != 3 {
		return nil, fmt.Errorf("angular velocity needs 3 components, got %d: %w", len(ω0), ErrInvalidDimension)
	}
	A := math.Sqrt(ω0[0]*ω0[0] + ω0[1]*ω0[1])
	φ0 := math.Atan2(ω0[1], ω0[0])
	Ωn := b.NutationRate(ω0[2])
	s, c := math.Sincos(Ωn*t + φ0)
	return []float64{A * c, A * s, ω0[2]}, nil
}
