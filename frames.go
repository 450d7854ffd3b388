package sdc

import (
	"fmt"
	"math"
	"time"

	"github.com/gonum/floats"
	"github.com/gonum/matrix/mat64"
	"github.com/soniakeys/meeus/v3/julian"
)

const (
	// EarthRotationRate is the Earth rotation rate in radians per second.
	EarthRotationRate = 7.292115e-5
)

// ReferenceFrame tags one of the reference frames of this package. Frames
// are stateless: they carry descriptive metadata only, and the actual
// transformations are the free functions below, parameterized by time or by
// the instantaneous position and velocity.
type ReferenceFrame uint8

// The supported reference frames.
const (
	FrameECI ReferenceFrame = iota
	FrameECEF
	FrameLVLH
	FrameBody
)

// String implements the Stringer interface.
func (f ReferenceFrame) String() string {
	switch f {
	case FrameECI:
		return "ECI"
	case FrameECEF:
		return "ECEF"
	case FrameLVLH:
		return "LVLH"
	case FrameBody:
		return "Body"
	}
	panic("cannot stringify unknown reference frame")
}

// Description returns what this frame is.
func (f ReferenceFrame) Description() string {
	switch f {
	case FrameECI:
		return "Earth-Centered Inertial frame"
	case FrameECEF:
		return "Earth-Centered Earth-Fixed frame"
	case FrameLVLH:
		return "Local-Vertical-Local-Horizontal orbit frame"
	case FrameBody:
		return "spacecraft body frame"
	}
	panic("cannot describe unknown reference frame")
}

// ECI2LVLH returns the orthonormal LVLH basis matrix for the provided ECI
// position and velocity (km, km/s). Its columns are the radial unit vector,
// the transverse unit vector h x rhat, and the orbit normal h/|h|. Fails
// with ErrDegenerateGeometry when r and v are parallel (zero angular
// momentum) or when r is zero.
func ECI2LVLH(r, v []float64) (*mat64.Dense, error) {
	if len(r) != 3 || len(v) != 3 {
		return nil, fmt.Errorf("r and v must have 3 components: %w", ErrInvalidDimension)
	}
	if floats.EqualWithinAbs(norm(r), 0, 1e-12) {
		return nil, fmt.Errorf("zero position vector: %w", ErrDegenerateGeometry)
	}
	h := cross(r, v)
	if floats.EqualWithinAbs(norm(h), 0, 1e-12) {
		return nil, fmt.Errorf("r and v are collinear: %w", ErrDegenerateGeometry)
	}
	rHat := unit(r)
	hHat := unit(h)
	tHat := cross(hHat, rHat)
	return mat64.NewDense(3, 3, []float64{
		rHat[0], tHat[0], hHat[0],
		rHat[1], tHat[1], hHat[1],
		rHat[2], tHat[2], hHat[2]}), nil
}

// ECI2ECEFAt returns the ECI to ECEF rotation after Δt of Earth rotation: a
// pure Z axis rotation by EarthRotationRate times the elapsed seconds.
func ECI2ECEFAt(Δt time.Duration) *mat64.Dense {
	return R3(EarthRotationRate * Δt.Seconds())
}

// ECEF2ECIAt is the inverse (transpose) of ECI2ECEFAt.
func ECEF2ECIAt(Δt time.Duration) *mat64.Dense {
	return R3(-EarthRotationRate * Δt.Seconds())
}

// ECI2ECEF converts the provided ECI vector to ECEF for the θgst given in radians.
func ECI2ECEF(R []float64, θgst float64) []float64 {
	return MxV33(R3(θgst), R)
}

// ECEF2ECI converts the provided ECEF vector to ECI for the θgst given in radians.
func ECEF2ECI(R []float64, θgst float64) []float64 {
	return ECI2ECEF(R, -θgst)
}

// GEO2ECEF converts the provided parameters (in km and radians) to the ECEF vector.
// Note that the first parameter is the altitude, not the radius from the center of the body!
func GEO2ECEF(altitude, latitude, longitude float64) []float64 {
	sLong, cLong := math.Sincos(longitude)
	sLat, cLat := math.Sincos(latitude)
	r := altitude + Earth.Radius
	return []float64{r * cLat * cLong, r * cLat * sLong, r * sLat}
}

// ThetaGST returns the Greenwich mean sidereal time angle in radians for the
// provided date, from the UT1 Julian centuries polynomial (Vallado, 3-45).
func ThetaGST(dt time.Time) float64 {
	T := (julian.TimeToJD(dt.UTC()) - 2451545.0) / 36525
	θSec := 67310.54841 + (876600*3600+8640184.812866)*T + 0.093104*T*T - 6.2e-6*T*T*T
	θDeg := math.Mod(θSec/240, 360)
	if θDeg < 0 {
		θDeg += 360
	}
	return θDeg * deg2rad
}
