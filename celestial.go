package tlefit

import (
	"fmt"
	"time"

	"github.com/soniakeys/meeus/v3/base"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/soniakeys/meeus/v3/moonposition"
	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/meeus/v3/solar"
)

const (
	// AU is one astronomical unit in kilometers.
	AU = 1.49597870700e8
)

// CelestialObject defines a celestial object.
type CelestialObject struct {
	Name   string
	Radius float64
	μ      float64
	SOI    float64 // With respect to the Sun
	J2     float64
	J3     float64
}

// GM returns μ (which is unexported because it's a lowercase letter)
func (c CelestialObject) GM() float64 {
	return c.μ
}

// J returns the perturbing J_n factor for the provided n.
// Currently only J2 and J3 are supported.
func (c CelestialObject) J(n uint8) float64 {
	switch n {
	case 2:
		return c.J2
	case 3:
		return c.J3
	default:
		return 0.0
	}
}

// String implements the Stringer interface.
func (c CelestialObject) String() string {
	return c.Name + " body"
}

// Equals returns whether the provided celestial object is the same.
func (c *CelestialObject) Equals(b CelestialObject) bool {
	return c.Name == b.Name && c.Radius == b.Radius && c.μ == b.μ && c.SOI == b.SOI && c.J2 == b.J2
}

// GeocentricPosition returns the geocentric equatorial position vector of this
// body at the given date, in km. Only the Sun and the Moon have a geocentric
// ephemeris (solar theory and truncated ELP via meeus); everything else panics.
func (c CelestialObject) GeocentricPosition(dt time.Time) []float64 {
	jde := julian.TimeToJD(dt.UTC())
	ε := nutation.MeanObliquity(jde).Rad()
	switch c.Name {
	case "Sun":
		T := base.J2000Century(jde)
		λ := solar.ApparentLongitude(T).Rad()
		r := solar.Radius(T) * AU
		return eclipticToEquatorial(λ, 0, r, ε)
	case "Moon":
		λ, β, Δ := moonposition.Position(jde)
		return eclipticToEquatorial(λ.Rad(), β.Rad(), Δ, ε)
	default:
		panic(fmt.Errorf("no geocentric ephemeris for %s", c.Name))
	}
}

/* Definitions */

// Sun is our closest star.
var Sun = CelestialObject{"Sun", 695700, 1.32712440017987e11, -1, 0, 0}

// Earth is home.
var Earth = CelestialObject{"Earth", 6378.1363, 3.98600433e5, 924645.0, 1082.6269e-6, -2.5324e-6}

// Moon is the Earth's third-body companion.
var Moon = CelestialObject{"Moon", 1737.4, 4902.800066, 66100, 0, 0}
