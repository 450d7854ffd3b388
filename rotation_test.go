package sdc

import (
	"errors"
	"math"
	"testing"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
)

func TestElementaryRotations(t *testing.T) {
	// Frame rotations: R3(90 deg) maps the inertial X axis to [0 -1 0] in
	// the rotated frame.
	x := []float64{1, 0, 0}
	if !vectorsEqual(MxV33(R3(math.Pi/2), x), []float64{0, -1, 0}) {
		t.Fatal("R3(90) of x incorrect")
	}
	if !vectorsEqual(MxV33(R1(math.Pi/2), []float64{0, 1, 0}), []float64{0, 0, -1}) {
		t.Fatal("R1(90) of y incorrect")
	}
	if !vectorsEqual(MxV33(R2(math.Pi/2), []float64{0, 0, 1}), []float64{-1, 0, 0}) {
		t.Fatal("R2(90) of z incorrect")
	}
	// All elementary rotations are proper orthogonal.
	for _, m := range []*mat64.Dense{R1(0.3), R2(-1.2), R3(2.8)} {
		if err := ValidateRotation(m, 1e-9); err != nil {
			t.Fatalf("elementary rotation fails validation: %s", err)
		}
	}
}

func TestRot313(t *testing.T) {
	θ1, θ2, θ3 := 0.3, -0.9, 1.7
	var expected mat64.Dense
	expected.Mul(R1(θ2), R3(θ1))
	expected.Mul(R3(θ3), &expected)
	got := Rot313(θ1, θ2, θ3)
	if !mat64.EqualApprox(got, &expected, 1e-12) {
		t.Fatal("Rot313 does not match the explicit composition")
	}
	if err := ValidateRotation(got, 1e-9); err != nil {
		t.Fatalf("Rot313 fails validation: %s", err)
	}
}

func TestRot321(t *testing.T) {
	φ, θ, ψ := 0.1, -0.4, 2.1
	var expected mat64.Dense
	expected.Mul(R2(θ), R3(ψ))
	expected.Mul(R1(φ), &expected)
	if !mat64.EqualApprox(Rot321(φ, θ, ψ), &expected, 1e-12) {
		t.Fatal("Rot321 does not match the explicit composition")
	}
}

func TestEulerSequenceToMatrix(t *testing.T) {
	angles := []float64{0.1, 0.2, 0.3}
	m321, err := EulerSequenceToMatrix(angles, "321")
	if err != nil {
		t.Fatalf("321 sequence failed: %s", err)
	}
	if !mat64.EqualApprox(m321, Rot321(0.1, 0.2, 0.3), 1e-12) {
		t.Fatal("321 sequence does not match Rot321")
	}
	m313, err := EulerSequenceToMatrix(angles, "313")
	if err != nil {
		t.Fatalf("313 sequence failed: %s", err)
	}
	if !mat64.EqualApprox(m313, Rot313(0.1, 0.2, 0.3), 1e-12) {
		t.Fatal("313 sequence does not match Rot313")
	}
	if _, err = EulerSequenceToMatrix(angles, "123"); !errors.Is(err, ErrUnsupportedSequence) {
		t.Fatalf("123 sequence should be unsupported, got %v", err)
	}
	if _, err = EulerSequenceToMatrix([]float64{0.1, 0.2}, "321"); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("two angles should be an invalid dimension, got %v", err)
	}
}

func TestPQW2ECI(t *testing.T) {
	// With all angles zero the perifocal frame is the inertial frame.
	v := []float64{123.4, -56.7, 89.0}
	if !vectorsEqual(PQW2ECI(0, 0, 0, v), v) {
		t.Fatal("PQW2ECI with zero angles is not the identity")
	}
	// A polar orbit with the node along X maps the transverse perifocal
	// direction to inertial Z.
	if !vectorsEqual(PQW2ECI(math.Pi/2, 0, 0, []float64{0, 1, 0}), []float64{0, 0, 1}) {
		t.Fatal("PQW2ECI of polar orbit incorrect")
	}
	// The transformation preserves norms.
	out := PQW2ECI(Deg2rad(87.87), Deg2rad(53.38), Deg2rad(227.89), v)
	if !floats.EqualWithinRel(norm(out), norm(v), 1e-12) {
		t.Fatal("PQW2ECI does not preserve the norm")
	}
	// And its inverse is the transpose of the underlying 3-1-3 rotation.
	m := Rot313(Deg2rad(-53.38), Deg2rad(-87.87), Deg2rad(-227.89))
	var mt mat64.Dense
	mt.Clone(m.T())
	if !vectorsEqual(MxV33(&mt, out), v) {
		t.Fatal("PQW2ECI inverse transform does not recover the input")
	}
}

func TestValidateRotation(t *testing.T) {
	if err := ValidateRotation(R3(0.75), 1e-9); err != nil {
		t.Fatalf("valid rotation rejected: %s", err)
	}
	// A scaled matrix is not orthogonal.
	var scaled mat64.Dense
	scaled.Scale(2, R3(0.75))
	if err := ValidateRotation(&scaled, 1e-9); !errors.Is(err, ErrInvalidRotation) {
		t.Fatalf("scaled matrix should be invalid, got %v", err)
	}
	// A reflection is orthogonal but improper.
	reflection := mat64.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, -1})
	if err := ValidateRotation(reflection, 1e-9); !errors.Is(err, ErrInvalidRotation) {
		t.Fatalf("reflection should be invalid, got %v", err)
	}
	if err := ValidateRotation(mat64.NewDense(2, 2, []float64{1, 0, 0, 1}), 1e-9); !errors.Is(err, ErrInvalidDimension) {
		t.Fatalf("2x2 matrix should be an invalid dimension, got %v", err)
	}
}
