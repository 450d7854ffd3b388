package sdc

import (
	"fmt"
	"math"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

const (
	// slerpDotThreshold is the cosine above which Slerp falls back to a
	// normalized linear interpolation (the angle between the quaternions is
	// below ~0.0255 degrees and the sine denominator is no longer reliable).
	slerpDotThreshold = 0.9995

	// rotationε is the orthogonality and determinant tolerance applied
	// before a matrix to quaternion conversion.
	rotationε = 1e-9
)

// Quaternion is an attitude quaternion in scalar-first convention:
// [q0 q1 q2 q3] with q0 the scalar part. It is a plain value, freely copied.
// A unit norm quaternion represents a valid attitude; chains of products
// should be renormalized to control drift.
type Quaternion struct {
	Q0, Q1, Q2, Q3 float64
}

// IdentityQuaternion returns the no-rotation quaternion.
func IdentityQuaternion() Quaternion {
	return Quaternion{1, 0, 0, 0}
}

// NewQuaternion returns a quaternion from its four components, scalar first.
func NewQuaternion(q []float64) (Quaternion, error) {
	if len(q) != 4 {
		return Quaternion{}, fmt.Errorf("quaternion needs 4 components, got %d: %w", len(q), ErrInvalidDimension)
	}
	return Quaternion{q[0], q[1], q[2], q[3]}, nil
}

// NewQuaternionFromAxisAngle returns the quaternion of a rotation of angle
// radians about the provided axis.
func NewQuaternionFromAxisAngle(axis []float64, angle float64) (Quaternion, error) {
	if len(axis) != 3 {
		return Quaternion{}, fmt.Errorf("axis needs 3 components, got %d: %w", len(axis), ErrInvalidDimension)
	}
	if floats.EqualWithinAbs(norm(axis), 0, 1e-12) {
		return Quaternion{}, fmt.Errorf("axis of rotation: %w", ErrDegenerateInput)
	}
	e := unit(axis)
	s, c := math.Sincos(angle / 2)
	return Quaternion{c, s * e[0], s * e[1], s * e[2]}, nil
}

// NewQuaternionFromEuler321 returns the quaternion of the 3-2-1
// (yaw-pitch-roll) rotation by the angles [φ θ ψ] in radians.
func NewQuaternionFromEuler321(φ, θ, ψ float64) Quaternion {
	sψ, cψ := math.Sincos(ψ / 2)
	sθ, cθ := math.Sincos(θ / 2)
	sφ, cφ := math.Sincos(φ / 2)
	return Quaternion{
		cψ*cθ*cφ + sψ*sθ*sφ,
		cψ*cθ*sφ - sψ*sθ*cφ,
		cψ*sθ*cφ + sψ*cθ*sφ,
		sψ*cθ*cφ - cψ*sθ*sφ}
}

// Euler321 returns the 3-2-1 Euler angles [φ θ ψ] of this quaternion in
// radians. The pitch argument is clamped to avoid NaN at the ±90 degree
// gimbal lock.
func (q Quaternion) Euler321() (φ, θ, ψ float64) {
	φ = math.Atan2(2*(q.Q0*q.Q1+q.Q2*q.Q3), 1-2*(q.Q1*q.Q1+q.Q2*q.Q2))
	sinθ := 2 * (q.Q0*q.Q2 - q.Q3*q.Q1)
	if sinθ > 1 {
		sinθ = 1
	} else if sinθ < -1 {
		sinθ = -1
	}
	θ = math.Asin(sinθ)
	ψ = math.Atan2(2*(q.Q0*q.Q3+q.Q1*q.Q2), 1-2*(q.Q2*q.Q2+q.Q3*q.Q3))
	return
}

// Norm returns the norm of this quaternion.
func (q Quaternion) Norm() float64 {
	return math.Sqrt(q.Q0*q.Q0 + q.Q1*q.Q1 + q.Q2*q.Q2 + q.Q3*q.Q3)
}

// Normalize returns the unit quaternion of this quaternion, or
// ErrDegenerateInput for a zero quaternion.
func (q Quaternion) Normalize() (Quaternion, error) {
	n := q.Norm()
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return Quaternion{}, fmt.Errorf("normalizing zero quaternion: %w", ErrDegenerateInput)
	}
	return Quaternion{q.Q0 / n, q.Q1 / n, q.Q2 / n, q.Q3 / n}, nil
}

// Conjugate returns the conjugate of this quaternion.
func (q Quaternion) Conjugate() Quaternion {
	return Quaternion{q.Q0, -q.Q1, -q.Q2, -q.Q3}
}

// Inverse returns the inverse of this quaternion, i.e. the conjugate scaled
// by the squared norm. For a unit quaternion this is exactly the conjugate.
func (q Quaternion) Inverse() (Quaternion, error) {
	n := q.Norm()
	if floats.EqualWithinAbs(n, 0, 1e-12) {
		return Quaternion{}, fmt.Errorf("inverting zero quaternion: %w", ErrDegenerateInput)
	}
	n2 := n * n
	c := q.Conjugate()
	return Quaternion{c.Q0 / n2, c.Q1 / n2, c.Q2 / n2, c.Q3 / n2}, nil
}

// Mul returns the Hamilton product of this quaternion with o. The product is
// not commutative: q.Mul(o) is the rotation o followed by the rotation q.
func (q Quaternion) Mul(o Quaternion) Quaternion {
	return Quaternion{
		q.Q0*o.Q0 - q.Q1*o.Q1 - q.Q2*o.Q2 - q.Q3*o.Q3,
		q.Q0*o.Q1 + q.Q1*o.Q0 + q.Q2*o.Q3 - q.Q3*o.Q2,
		q.Q0*o.Q2 - q.Q1*o.Q3 + q.Q2*o.Q0 + q.Q3*o.Q1,
		q.Q0*o.Q3 + q.Q1*o.Q2 - q.Q2*o.Q1 + q.Q3*o.Q0}
}

// Rotate rotates the provided vector by this quaternion, i.e. the vector
// part of q (0,v) q^-1.
func (q Quaternion) Rotate(v []float64) ([]float64, error) {
	if len(v) != 3 {
		return nil, fmt.Errorf("vector needs 3 components, got %d: %w", len(v), ErrInvalidDimension)
	}
	qInv, err := q.Inverse()
	if err != nil {
		return nil, err
	}
	p := q.Mul(Quaternion{0, v[0], v[1], v[2]}).Mul(qInv)
	return []float64{p.Q1, p.Q2, p.Q3}, nil
}

// DCM returns the direction cosine matrix of this quaternion, i.e. the frame
// rotation matrix mapping inertial coordinates to body coordinates. The
// quaternion is normalized first, so DCM composes with Rot321 and friends.
func (q Quaternion) DCM() (*mat64.Dense, error) {
	qu, err := q.Normalize()
	if err != nil {
		return nil, err
	}
	q0, q1, q2, q3 := qu.Q0, qu.Q1, qu.Q2, qu.Q3
	return mat64.NewDense(3, 3, []float64{
		1 - 2*(q2*q2+q3*q3), 2 * (q1*q2 + q0*q3), 2 * (q1*q3 - q0*q2),
		2 * (q1*q2 - q0*q3), 1 - 2*(q1*q1+q3*q3), 2 * (q2*q3 + q0*q1),
		2 * (q1*q3 + q0*q2), 2 * (q2*q3 - q0*q1), 1 - 2*(q1*q1+q2*q2)}), nil
}

// NewQuaternionFromDCM returns the quaternion of the provided direction
// cosine matrix using Shepperd's method: the branch is selected by the
// largest of the trace and the diagonal terms so no division comes close to
// zero. The matrix is validated first and ErrInvalidRotation is returned for
// a non-orthogonal or improper matrix.
func NewQuaternionFromDCM(m *mat64.Dense) (Quaternion, error) {
	if err := ValidateRotation(m, rotationε); err != nil {
		return Quaternion{}, err
	}
	c11, c12, c13 := m.At(0, 0), m.At(0, 1), m.At(0, 2)
	c21, c22, c23 := m.At(1, 0), m.At(1, 1), m.At(1, 2)
	c31, c32, c33 := m.At(2, 0), m.At(2, 1), m.At(2, 2)
	tr := c11 + c22 + c33
	var q Quaternion
	switch {
	case tr >= c11 && tr >= c22 && tr >= c33:
		q.Q0 = 0.5 * math.Sqrt(1+tr)
		q.Q1 = (c23 - c32) / (4 * q.Q0)
		q.Q2 = (c31 - c13) / (4 * q.Q0)
		q.Q3 = (c12 - c21) / (4 * q.Q0)
	case c11 >= c22 && c11 >= c33:
		q.Q1 = 0.5 * math.Sqrt(1+2*c11-tr)
		q.Q0 = (c23 - c32) / (4 * q.Q1)
		q.Q2 = (c12 + c21) / (4 * q.Q1)
		q.Q3 = (c13 + c31) / (4 * q.Q1)
	case c22 >= c33:
		q.Q2 = 0.5 * math.Sqrt(1+2*c22-tr)
		q.Q0 = (c31 - c13) / (4 * q.Q2)
		q.Q1 = (c12 + c21) / (4 * q.Q2)
		q.Q3 = (c23 + c32) / (4 * q.Q2)
	default:
		q.Q3 = 0.5 * math.Sqrt(1+2*c33-tr)
		q.Q0 = (c12 - c21) / (4 * q.Q3)
		q.Q1 = (c13 + c31) / (4 * q.Q3)
		q.Q2 = (c23 + c32) / (4 * q.Q3)
	}
	return q.Normalize()
}

// Slerp spherically interpolates between q1 and q2 for t in [0, 1]. Since q
// and -q represent the same attitude, q2 is negated when the dot product is
// negative so the interpolation takes the shortest path. Nearly parallel
// quaternions interpolate linearly with a final renormalization.
func Slerp(q1, q2 Quaternion, t float64) Quaternion {
	d := q1.Q0*q2.Q0 + q1.Q1*q2.Q1 + q1.Q2*q2.Q2 + q1.Q3*q2.Q3
	if d < 0 {
		d = -d
		q2 = Quaternion{-q2.Q0, -q2.Q1, -q2.Q2, -q2.Q3}
	}
	var s1, s2 float64
	if d > slerpDotThreshold {
		s1, s2 = 1-t, t
	} else {
		θ := math.Acos(d)
		sinθ := math.Sin(θ)
		s1 = math.Sin((1-t)*θ) / sinθ
		s2 = math.Sin(t*θ) / sinθ
	}
	q := Quaternion{
		s1*q1.Q0 + s2*q2.Q0,
		s1*q1.Q1 + s2*q2.Q1,
		s1*q1.Q2 + s2*q2.Q2,
		s1*q1.Q3 + s2*q2.Q3}
	// Both inputs are unit attitudes so the interpolant cannot vanish.
	q, _ = q.Normalize()
	return q
}

// String implements the Stringer interface.
func (q Quaternion) String() string {
	return fmt.Sprintf("[%f %f %f %f]", q.Q0, q.Q1, q.Q2, q.Q3)
}
