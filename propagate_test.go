package sdc

import (
	"errors"
	"math"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gonum/floats"
)

func TestOrbitPropagationConservation(t *testing.T) {
	o := NewOrbitFromOE(7000, 0.01, 30, 10, 5, 0, Earth)
	ξ0 := o.Energyξ()
	h0 := o.HNorm()
	initial := *o
	start := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	prop := NewOrbitPropagation(o, start, start.Add(5830*time.Second), ExportConfig{})
	if err := prop.Propagate(); err != nil {
		t.Fatalf("propagation failed: %s", err)
	}
	// A bit more than one orbital period: the slow elements are untouched
	// by a conservative two body propagation.
	if ok, err := initial.Equals(*o); !ok {
		t.Fatalf("orbit changed during two body propagation: %s", err)
	}
	if !floats.EqualWithinRel(o.Energyξ(), ξ0, 1e-6) {
		t.Fatalf("energy drifted: %.12f != %.12f", o.Energyξ(), ξ0)
	}
	if !floats.EqualWithinRel(o.HNorm(), h0, 1e-6) {
		t.Fatalf("angular momentum drifted: %.12f != %.12f", o.HNorm(), h0)
	}
}

func TestOrbitPropagationStop(t *testing.T) {
	o := NewOrbitFromOE(7000, 0.01, 30, 10, 5, 0, Earth)
	start := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	prop := NewOrbitPropagation(o, start, start.Add(time.Hour), ExportConfig{})
	// A stop request queued before the run halts it on the first step.
	prop.StopPropagation()
	if err := prop.Propagate(); err != nil {
		t.Fatalf("stopped propagation should not fail: %s", err)
	}
	if prop.CurrentDT != prop.StartDT {
		t.Fatalf("propagation should have stopped immediately, reached %s", prop.CurrentDT)
	}
}

func TestAttitudePropagationConservation(t *testing.T) {
	// Torque-free axisymmetric body: the numerical propagation must conserve
	// the angular momentum and the kinetic energy at every sampled state,
	// and track the closed form solution of the body rates.
	body, _ := NewAxisymmetricBody(100, 50)
	tensor := body.Tensor()
	ω0 := []float64{0.1, 0.05, 1.0}
	a, err := NewAttitude(IdentityQuaternion(), ω0)
	if err != nil {
		t.Fatalf("NewAttitude failed: %s", err)
	}
	h0 := norm(tensor.AngularMomentum(ω0))
	T0 := tensor.KineticEnergy(ω0)
	start := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	span := 20 * time.Second
	conf := ExportConfig{Filename: "attconservation", AsCSV: true}
	fname := sdcConfig().outputDir + "/prop-" + conf.NameOf()
	defer os.Remove(fname)
	prop := NewAttitudePropagation(&a, tensor, start, start.Add(span), 10*time.Millisecond, conf)
	if err = prop.Propagate(); err != nil {
		t.Fatalf("propagation failed: %s", err)
	}
	if !floats.EqualWithinAbs(a.Q.Norm(), 1, 1e-9) {
		t.Fatalf("quaternion norm drifted: %.12f", a.Q.Norm())
	}
	ωExpected, _ := body.AnalyticalSolution(ω0, span.Seconds())
	for i := 0; i < 3; i++ {
		if !floats.EqualWithinAbs(a.Velocity[i], ωExpected[i], 1e-5) {
			t.Fatalf("body rates do not match the closed form solution: %+v != %+v", a.Velocity, ωExpected)
		}
	}
	// The streamed history carries the conserved diagnostics of every
	// integration step.
	content, err := os.ReadFile(fname)
	if err != nil {
		t.Fatalf("state history not written: %s", err)
	}
	samples := 0
	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		if strings.HasPrefix(line, "#") || strings.HasPrefix(line, "time,") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) != 11 {
			t.Fatalf("malformed history row: %s", line)
		}
		hNorm, err := strconv.ParseFloat(fields[9], 64)
		if err != nil {
			t.Fatalf("cannot parse |h| of row %q: %s", line, err)
		}
		energy, err := strconv.ParseFloat(fields[10], 64)
		if err != nil {
			t.Fatalf("cannot parse energy of row %q: %s", line, err)
		}
		if !floats.EqualWithinRel(hNorm, h0, 1e-6) {
			t.Fatalf("angular momentum not conserved at sample %d: %.9f != %.9f", samples, hNorm, h0)
		}
		if !floats.EqualWithinRel(energy, T0, 1e-6) {
			t.Fatalf("kinetic energy not conserved at sample %d: %.9f != %.9f", samples, energy, T0)
		}
		samples++
	}
	if samples < 2000 {
		t.Fatalf("too few sampled states: %d", samples)
	}
}

func TestAttitudePropagationSpherical(t *testing.T) {
	// A spherical body does not nutate: the rates are frozen.
	body, _ := NewAxisymmetricBody(100, 100)
	ω0 := []float64{0.1, 0.05, 1.0}
	a, _ := NewAttitude(IdentityQuaternion(), ω0)
	start := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	prop := NewAttitudePropagation(&a, body.Tensor(), start, start.Add(10*time.Second), 10*time.Millisecond, ExportConfig{})
	if err := prop.Propagate(); err != nil {
		t.Fatalf("propagation failed: %s", err)
	}
	for i := 0; i < 3; i++ {
		if !floats.EqualWithinAbs(a.Velocity[i], ω0[i], 1e-9) {
			t.Fatalf("spherical body rates changed: %+v", a.Velocity)
		}
	}
}

func TestAttitudePropagationFailure(t *testing.T) {
	body, _ := NewAxisymmetricBody(100, 50)
	a, _ := NewAttitude(IdentityQuaternion(), []float64{0.1, 0.05, 1.0})
	start := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	prop := NewAttitudePropagation(&a, body.Tensor(), start, start.Add(time.Second), 10*time.Millisecond, ExportConfig{})
	prop.Torque = func(t float64) []float64 {
		return []float64{math.NaN(), 0, 0}
	}
	err := prop.Propagate()
	if !errors.Is(err, ErrIntegrationFailure) {
		t.Fatalf("non finite dynamics should fail the propagation, got %v", err)
	}
}

func TestPropagateUntil(t *testing.T) {
	o := NewOrbitFromOE(7000, 0.01, 30, 10, 5, 0, Earth)
	start := time.Date(2017, 3, 1, 0, 0, 0, 0, time.UTC)
	// An endless propagation redirected to a close stop date.
	prop := NewPreciseOrbitPropagation(o, start, start, time.Second, ExportConfig{})
	if err := prop.PropagateUntil(start.Add(time.Minute)); err != nil {
		t.Fatalf("propagation failed: %s", err)
	}
	if prop.CurrentDT.Sub(start) < time.Minute {
		t.Fatalf("propagation stopped early at %s", prop.CurrentDT)
	}
}
