package sdc

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/kit/log"
)

const (
	// StepSize is the default step size of propagation.
	StepSize = 10 * time.Second
)

/* Handles the numerical propagations. */

// OrbitState is a propagated orbit sample.
type OrbitState struct {
	DT    time.Time
	Orbit Orbit
}

// AttitudeState is a propagated attitude sample along with the conserved
// quantity diagnostics of the torque-free problem.
type AttitudeState struct {
	DT       time.Time
	Attitude Attitude
	HNorm    float64 // angular momentum magnitude, N m s
	Energy   float64 // rotational kinetic energy, J
}

func newPropLogger(subsys string) kitlog.Logger {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	return kitlog.With(klog, "subsys", subsys)
}

// OrbitPropagation propagates a two-body orbit with a fixed step RK4. It
// implements ode.Integrable; the integrator owns the sequential dependency
// between steps while independent propagations may run concurrently.
type OrbitPropagation struct {
	Orbit                      *Orbit // As pointer because the orbit changes during propagation.
	StartDT, StopDT, CurrentDT time.Time
	step                       time.Duration
	stopChan                   chan bool
	histChan                   chan<- OrbitState
	logger                     kitlog.Logger
	wg                         sync.WaitGroup
	failure                    error
}

// NewOrbitPropagation is the same as NewPreciseOrbitPropagation with the
// default step size.
func NewOrbitPropagation(o *Orbit, start, end time.Time, conf ExportConfig) *OrbitPropagation {
	return NewPreciseOrbitPropagation(o, start, end, StepSize, conf)
}

// NewPreciseOrbitPropagation returns a new OrbitPropagation instance with a
// custom time step.
func NewPreciseOrbitPropagation(o *Orbit, start, end time.Time, step time.Duration, conf ExportConfig) *OrbitPropagation {
	// Must switch to UTC as all time scales are in UTC.
	if start.Location() != time.UTC {
		start = start.UTC()
	}
	if end.Location() != time.UTC {
		end = end.UTC()
	}
	p := &OrbitPropagation{Orbit: o, StartDT: start, StopDT: end, CurrentDT: start,
		step: step, stopChan: make(chan bool, 1), logger: newPropLogger("astro")}
	if !conf.IsUseless() {
		histChan := make(chan OrbitState, 1000) // a 1k entry buffer
		p.histChan = histChan
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			StreamOrbitStates(conf, histChan)
		}()
		histChan <- OrbitState{p.CurrentDT, *o}
	}
	if end.Before(start) {
		p.logger.Log("level", "warning", "message", "no end date")
	}
	return p
}

// LogStatus logs the status of the propagation.
func (p *OrbitPropagation) LogStatus() {
	p.logger.Log("level", "info", "date", p.CurrentDT, "orbit", p.Orbit)
}

// PropagateUntil propagates until the given time is reached.
func (p *OrbitPropagation) PropagateUntil(dt time.Time) error {
	p.StopDT = dt
	return p.Propagate()
}

// Propagate starts the propagation and returns nil on completion or an
// error wrapping ErrIntegrationFailure when the state stops being finite.
// The failure is a result status: the caller may retry with another step
// size, this function never does.
func (p *OrbitPropagation) Propagate() error {
	p.LogStatus()
	ode.NewRK4(0, p.step.Seconds(), p).Solve() // Blocking.
	duration := p.CurrentDT.Sub(p.StartDT)
	if p.failure != nil {
		p.logger.Log("level", "error", "status", "failed", "duration", duration, "err", p.failure)
	} else {
		p.logger.Log("level", "notice", "status", "finished", "duration", duration)
	}
	p.LogStatus()
	p.wg.Wait() // Don't return until we're done writing all the files.
	return p.failure
}

// StopPropagation is used to stop the propagation before it is completed.
func (p *OrbitPropagation) StopPropagation() {
	p.stopChan <- true
}

// Stop implements the stop call of the integrator.
func (p *OrbitPropagation) Stop(t float64) bool {
	select {
	case <-p.stopChan:
		p.closeHist()
		return true // Stop because there is a request to stop.
	default:
		if p.failure != nil {
			p.closeHist()
			return true
		}
		p.CurrentDT = p.CurrentDT.Add(p.step)
		if p.StopDT.Before(p.StartDT) {
			// A hard limit is set on a ten year propagation.
			if p.CurrentDT.After(p.StartDT.Add(24 * 3652.5 * time.Hour)) {
				p.logger.Log("level", "critical", "status", "killed")
				p.closeHist()
				return true
			}
			return false
		}
		if p.CurrentDT.Sub(p.StopDT).Nanoseconds() > 0 {
			p.closeHist()
			return true // Stop, we've reached the end of the simulation.
		}
	}
	return false
}

func (p *OrbitPropagation) closeHist() {
	if p.histChan != nil {
		close(p.histChan)
		p.histChan = nil
	}
}

// GetState returns the 6 element Cartesian state for the integrator.
func (p *OrbitPropagation) GetState() []float64 {
	s := make([]float64, 6)
	R, V := p.Orbit.RV()
	for i := 0; i < 3; i++ {
		s[i] = R[i]
		s[i+3] = V[i]
	}
	return s
}

// SetState sets the updated state.
func (p *OrbitPropagation) SetState(t float64, s []float64) {
	for _, val := range s {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			if p.failure == nil {
				p.failure = fmt.Errorf("non finite state at %s: %w", p.CurrentDT, ErrIntegrationFailure)
			}
			return
		}
	}
	R := []float64{s[0], s[1], s[2]}
	V := []float64{s[3], s[4], s[5]}
	newOrbit, err := NewOrbitFromRV(R, V, p.Orbit.Origin)
	if err != nil {
		p.failure = fmt.Errorf("state degenerated at %s (%s): %w", p.CurrentDT, err, ErrIntegrationFailure)
		return
	}
	*p.Orbit = *newOrbit // Deref is important.
	if p.Orbit.RNorm() < p.Orbit.Origin.Radius {
		p.logger.Log("level", "critical", "collided", p.Orbit.Origin.Name, "dt", p.CurrentDT, "r", p.Orbit.RNorm())
	}
	if p.histChan != nil {
		p.histChan <- OrbitState{p.CurrentDT, *p.Orbit}
	}
}

// Func is the two-body equation of motion for the integrator.
func (p *OrbitPropagation) Func(t float64, f []float64) []float64 {
	return TwoBodyDynamics(f, p.Orbit.Origin.μ)
}

// AttitudePropagation propagates the rigid body attitude state (quaternion
// kinematics plus Euler's equations) with a fixed step RK4. The quaternion
// norm drifts during integration so it is renormalized every few steps (one
// by default, see configuration).
type AttitudePropagation struct {
	State0                     *Attitude // As pointer, updated during propagation.
	Tensor                     *InertiaTensor
	Torque                     func(t float64) []float64 // nil means torque-free
	StartDT, StopDT, CurrentDT time.Time
	step                       time.Duration
	stopChan                   chan bool
	histChan                   chan<- AttitudeState
	logger                     kitlog.Logger
	wg                         sync.WaitGroup
	failure                    error
	stepCount                  int
}

// NewAttitudePropagation returns an attitude propagation over the provided
// time span and step.
func NewAttitudePropagation(a *Attitude, tensor *InertiaTensor, start, end time.Time, step time.Duration, conf ExportConfig) *AttitudePropagation {
	if start.Location() != time.UTC {
		start = start.UTC()
	}
	if end.Location() != time.UTC {
		end = end.UTC()
	}
	p := &AttitudePropagation{State0: a, Tensor: tensor, StartDT: start, StopDT: end,
		CurrentDT: start, step: step, stopChan: make(chan bool, 1), logger: newPropLogger("attitude")}
	if !conf.IsUseless() {
		histChan := make(chan AttitudeState, 1000)
		p.histChan = histChan
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			StreamAttitudeStates(conf, histChan)
		}()
		histChan <- p.sample()
	}
	return p
}

func (p *AttitudePropagation) sample() AttitudeState {
	ω := p.State0.Velocity
	return AttitudeState{p.CurrentDT, *p.State0, norm(p.Tensor.AngularMomentum(ω)), p.Tensor.KineticEnergy(ω)}
}

// Propagate starts the propagation, returning nil on completion or an error
// wrapping ErrIntegrationFailure.
func (p *AttitudePropagation) Propagate() error {
	p.logger.Log("level", "info", "date", p.CurrentDT, "q", p.State0.Q, "|h|", norm(p.Tensor.AngularMomentum(p.State0.Velocity)))
	ode.NewRK4(0, p.step.Seconds(), p).Solve() // Blocking.
	duration := p.CurrentDT.Sub(p.StartDT)
	if p.failure != nil {
		p.logger.Log("level", "error", "status", "failed", "duration", duration, "err", p.failure)
	} else {
		p.logger.Log("level", "notice", "status", "finished", "duration", duration)
	}
	p.wg.Wait()
	return p.failure
}

// StopPropagation is used to stop the propagation before it is completed.
func (p *AttitudePropagation) StopPropagation() {
	p.stopChan <- true
}

// Stop implements the stop call of the integrator.
func (p *AttitudePropagation) Stop(t float64) bool {
	select {
	case <-p.stopChan:
		p.closeHist()
		return true
	default:
		if p.failure != nil {
			p.closeHist()
			return true
		}
		p.CurrentDT = p.CurrentDT.Add(p.step)
		if p.CurrentDT.Sub(p.StopDT).Nanoseconds() > 0 {
			p.closeHist()
			return true
		}
	}
	return false
}

func (p *AttitudePropagation) closeHist() {
	if p.histChan != nil {
		close(p.histChan)
		p.histChan = nil
	}
}

// GetState returns the 7 element state [q0 q1 q2 q3 ω1 ω2 ω3].
func (p *AttitudePropagation) GetState() []float64 {
	return p.State0.State()
}

// SetState sets the updated state, renormalizing the quaternion to control
// integration drift.
func (p *AttitudePropagation) SetState(t float64, s []float64) {
	for _, val := range s {
		if math.IsNaN(val) || math.IsInf(val, 0) {
			if p.failure == nil {
				p.failure = fmt.Errorf("non finite state at %s: %w", p.CurrentDT, ErrIntegrationFailure)
			}
			return
		}
	}
	q := Quaternion{s[0], s[1], s[2], s[3]}
	p.stepCount++
	if every := sdcConfig().renormEvery; every > 0 && p.stepCount%every == 0 {
		qn, err := q.Normalize()
		if err != nil {
			p.failure = fmt.Errorf("quaternion vanished at %s: %w", p.CurrentDT, ErrIntegrationFailure)
			return
		}
		q = qn
	}
	p.State0.Q = q
	copy(p.State0.Velocity, s[4:7])
	if p.histChan != nil {
		p.histChan <- p.sample()
	}
}

// Func is the attitude equation of motion for the integrator.
func (p *AttitudePropagation) Func(t float64, f []float64) []float64 {
	q := Quaternion{f[0], f[1], f[2], f[3]}
	ω := f[4:7]
	var τ []float64
	if p.Torque != nil {
		τ = p.Torque(t)
	}
	qDot := QuaternionRate(q, ω)
	ωDot := p.Tensor.EulerEquations(ω, τ)
	return []float64{qDot.Q0, qDot.Q1, qDot.Q2, qDot.Q3, ωDot[0], ωDot[1], ωDot[2]}
}
