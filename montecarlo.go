package sdc

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/gonum/matrix/mat64"
	"github.com/gonum/stat/distmv"
)

// Runnable is one independent trajectory propagation. Both
// OrbitPropagation and AttitudePropagation implement it.
type Runnable interface {
	Propagate() error
}

// StateDispersion draws Gaussian dispersed initial state vectors around a
// nominal state.
type StateDispersion struct {
	dist *distmv.Normal
	mu   sync.Mutex
}

// NewStateDispersion returns a dispersion of the provided mean state and
// covariance. A nil source seeds from the default rand source.
func NewStateDispersion(mean []float64, covariance *mat64.SymDense, src *rand.Rand) (*StateDispersion, error) {
	dist, ok := distmv.NewNormal(mean, covariance, src)
	if !ok {
		return nil, fmt.Errorf("covariance is not positive definite: %w", ErrDegenerateInput)
	}
	return &StateDispersion{dist: dist}, nil
}

// Sample draws one dispersed state vector. Safe for concurrent use.
func (d *StateDispersion) Sample() []float64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dist.Rand(nil)
}

// MonteCarlo propagates a batch of independently dispersed trajectories.
// Each trajectory is a pure function of its own initial state, so the runs
// are embarrassingly parallel: one goroutine per trajectory, with the
// sequential dependency confined to the integrator inside each run.
type MonteCarlo struct {
	Runs       int
	Dispersion *StateDispersion
	// Build turns a dispersed initial state vector into a propagation.
	Build func(run int, state []float64) Runnable
}

// Propagate runs the whole batch and returns the per run results, indexed
// by run number. A failed run does not abort the others.
func (mc MonteCarlo) Propagate() []error {
	errs := make([]error, mc.Runs)
	var wg sync.WaitGroup
	for run := 0; run < mc.Runs; run++ {
		wg.Add(1)
		go func(run int, state []float64) {
			defer wg.Done()
			errs[run] = mc.Build(run, state).Propagate()
		}(run, mc.Dispersion.Sample())
	}
	wg.Wait()
	return errs
}
