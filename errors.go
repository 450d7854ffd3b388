package sdc

import "errors"

// Validation and computation errors. All of these are deterministic: they are
// detected before or during a single pure computation and surfaced to the
// caller immediately. Only ErrIntegrationFailure depends on numerical
// tolerances rather than input validity.
var (
	// ErrInvalidDimension indicates a vector or matrix of the wrong shape.
	ErrInvalidDimension = errors.New("sdc: invalid dimension")

	// ErrDegenerateInput indicates a zero vector or quaternion where a direction is required.
	ErrDegenerateInput = errors.New("sdc: degenerate input (zero norm)")

	// ErrDegenerateGeometry indicates collinear position and velocity vectors (zero angular momentum).
	ErrDegenerateGeometry = errors.New("sdc: degenerate geometry")

	// ErrSingularInertia indicates a non-invertible inertia tensor.
	ErrSingularInertia = errors.New("sdc: singular inertia tensor")

	// ErrInvalidRotation indicates a matrix which fails the orthogonality or determinant check.
	ErrInvalidRotation = errors.New("sdc: matrix is not a proper rotation")

	// ErrUnsupportedSequence indicates an Euler angle ordering which is not implemented.
	ErrUnsupportedSequence = errors.New("sdc: unsupported Euler sequence")

	// ErrIntegrationFailure indicates the propagation did not complete (NaN or Inf state).
	ErrIntegrationFailure = errors.New("sdc: integration failure")
)
