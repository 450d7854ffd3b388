package sdc

// CelestialObject defines the gravitational body an orbit is centered on.
type CelestialObject struct {
	Name         string
	Radius       float64 // equatorial radius, km
	μ            float64 // gravitational parameter, km^3/s^2
	RotationRate float64 // sidereal rotation rate, rad/s
	J2           float64
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.μ == b.μ
}

// Earth is home.
var Earth = CelestialObject{"Earth", 6378.137, 398600.4418, EarthRotationRate, 1.08262668e-3}
