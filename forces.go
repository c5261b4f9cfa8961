package tlefit

import (
	"fmt"
	"math"
	"time"
)

const (
	// solarPressureAU is the solar radiation pressure at one AU in N/m².
	solarPressureAU = 4.56e-6
)

// ForceModel defines a perturbation contributor. Acceleration returns the
// perturbing acceleration in km/s² expressed in the inertial frame.
type ForceModel interface {
	Acceleration(o Orbit, dt time.Time) []float64
	String() string
}

// Forces is the ordered force model stack applied at every integration step.
// Contributions are additive, so the ordering only matters at floating point
// precision.
type Forces []ForceModel

// Acceleration sums the contributions of the whole stack.
func (f Forces) Acceleration(o Orbit, dt time.Time) []float64 {
	acc := make([]float64, 3)
	for _, force := range f {
		contrib := force.Acceleration(o, dt)
		for i := 0; i < 3; i++ {
			acc[i] += contrib[i]
			if math.IsNaN(acc[i]) {
				panic(fmt.Errorf("%s acceleration NaN at %s for %s", force, dt, o))
			}
		}
	}
	return acc
}

// GravityHarmonics is the zonal harmonic expansion of the central body gravity
// field, Cartesian form. Only J2 and J3 are supported.
type GravityHarmonics struct {
	Body CelestialObject
	Jn   uint8
}

func (g GravityHarmonics) String() string {
	return fmt.Sprintf("%s J%d harmonics", g.Body.Name, g.Jn)
}

// Acceleration implements the ForceModel interface.
func (g GravityHarmonics) Acceleration(o Orbit, dt time.Time) []float64 {
	pert := make([]float64, 3)
	if g.Jn < 2 {
		return pert
	}
	R := o.R()
	x := R[0]
	y := R[1]
	z := R[2]
	z2 := math.Pow(R[2], 2)
	z3 := math.Pow(R[2], 3)
	r2 := math.Pow(R[0], 2) + math.Pow(R[1], 2) + z2
	r252 := math.Pow(r2, 5/2.)
	r272 := math.Pow(r2, 7/2.)
	// J2 (closed form via SageMath)
	accJ2 := (3 / 2.) * g.Body.J(2) * math.Pow(g.Body.Radius, 2) * g.Body.μ
	pert[0] += accJ2 * (5*x*z2/r272 - x/r252)
	pert[1] += accJ2 * (5*y*z2/r272 - y/r252)
	pert[2] += accJ2 * (5*z3/r272 - 3*z/r252)
	if g.Jn >= 3 {
		r292 := math.Pow(r2, 9/2.)
		z4 := math.Pow(R[2], 4)
		accJ3 := g.Body.J(3) * math.Pow(g.Body.Radius, 3) * g.Body.μ
		pert[0] += (5 / 2.) * accJ3 * (7*x*z3/r292 - 3*x*z/r272)
		pert[1] += (5 / 2.) * accJ3 * (7*y*z3/r292 - 3*y*z/r272)
		pert[2] += 0.5 * accJ3 * (35*z4/r292 - 30*z2/r272 + 3/r252)
	}
	return pert
}

// ThirdBodyAttraction is the differential attraction of a third body (Sun or
// Moon) on the spacecraft, in the geocentric frame.
type ThirdBodyAttraction struct {
	Body CelestialObject
}

func (t ThirdBodyAttraction) String() string {
	return fmt.Sprintf("%s third body", t.Body.Name)
}

// Acceleration implements the ForceModel interface.
func (t ThirdBodyAttraction) Acceleration(o Orbit, dt time.Time) []float64 {
	pert := make([]float64, 3)
	if t.Body.Equals(o.Origin) {
		return pert
	}
	bodyR := t.Body.GeocentricPosition(dt) // r_{3} from the central body
	scR := o.R()
	scPert := make([]float64, 3) // r_{3/sc} of spacecraft to perturbing body.
	for i := 0; i < 3; i++ {
		scPert[i] = bodyR[i] - scR[i]
	}
	bodyRNorm3 := math.Pow(norm(bodyR), 3)
	scPertNorm3 := math.Pow(norm(scPert), 3)
	for i := 0; i < 3; i++ {
		pert[i] = t.Body.μ * (scPert[i]/scPertNorm3 - bodyR[i]/bodyRNorm3)
	}
	return pert
}

// AtmosphericDrag models drag with a piecewise exponential density, the
// spacecraft ballistic parameters and an injected solar activity source.
type AtmosphericDrag struct {
	SC      Spacecraft
	Weather SpaceWeather
}

func (d AtmosphericDrag) String() string {
	return fmt.Sprintf("drag Cd=%.2f A=%.2fm²", d.SC.Cd, d.SC.Area)
}

// Acceleration implements the ForceModel interface. The relative velocity
// accounts for the rotation of the atmosphere with the Earth.
func (d AtmosphericDrag) Acceleration(o Orbit, dt time.Time) []float64 {
	R, V := o.RV()
	// v_rel = v - ω⨯r
	ω := []float64{0, 0, EarthRotationRate}
	ωxR := cross(ω, R)
	vRel := make([]float64, 3)
	for i := 0; i < 3; i++ {
		vRel[i] = V[i] - ωxR[i]
	}
	f107, _, err := d.Weather.Activity(dt)
	if err != nil {
		panic(fmt.Errorf("drag model starved of solar activity data: %s", err))
	}
	ρ := atmDensity(o.RNorm()-o.Origin.Radius, f107)
	// ρ is kg/m³ and vRel km/s, the 1e3 factor lands the result in km/s².
	factor := -0.5e3 * ρ * (d.SC.Cd * d.SC.Area / d.SC.Mass) * norm(vRel)
	pert := make([]float64, 3)
	for i := 0; i < 3; i++ {
		pert[i] = factor * vRel[i]
	}
	return pert
}

// SolarRadiationPressure is the cannonball radiation pressure model with a
// cylindrical umbra eclipse test.
type SolarRadiationPressure struct {
	SC Spacecraft
}

func (s SolarRadiationPressure) String() string {
	return fmt.Sprintf("SRP Cr=%.2f A=%.2fm²", s.SC.Cr, s.SC.Area)
}

// Acceleration implements the ForceModel interface.
func (s SolarRadiationPressure) Acceleration(o Orbit, dt time.Time) []float64 {
	pert := make([]float64, 3)
	sunR := Sun.GeocentricPosition(dt)
	scR := o.R()
	if inUmbra(scR, sunR, o.Origin.Radius) {
		return pert
	}
	sun2sc := make([]float64, 3)
	for i := 0; i < 3; i++ {
		sun2sc[i] = scR[i] - sunR[i]
	}
	rNorm := norm(sun2sc)
	// Pressure scales with the inverse square of the Sun distance; the 1e-3
	// factor converts m/s² to km/s².
	mag := 1e-3 * solarPressureAU * (s.SC.Cr * s.SC.Area / s.SC.Mass) * math.Pow(AU/rNorm, 2)
	dir := unit(sun2sc)
	for i := 0; i < 3; i++ {
		pert[i] = mag * dir[i]
	}
	return pert
}

// inUmbra returns whether the spacecraft is inside the cylindrical shadow of
// the central body.
func inUmbra(scR, sunR []float64, bodyRadius float64) bool {
	sunDir := unit(sunR)
	along := dot(scR, sunDir)
	if along >= 0 {
		// Sun side of the body.
		return false
	}
	perp := make([]float64, 3)
	for i := 0; i < 3; i++ {
		perp[i] = scR[i] - along*sunDir[i]
	}
	return norm(perp) < bodyRadius
}
