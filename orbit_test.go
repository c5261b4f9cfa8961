package tlefit

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

func TestOrbitRV2COE(t *testing.T) {
	R := []float64{6524.834, 6862.875, 6448.296}
	V := []float64{4.901327, 5.533756, -1.976341}
	o := NewOrbitFromRV(R, V, Earth)
	oT := NewOrbitFromOE(36127.343, 0.832853, 87.869126, 227.898260, 53.384931, 92.335157, Earth)
	if ok, err := o.StrictlyEquals(*oT); !ok {
		t.Logf("\no0: %s\no1: %s", o, oT)
		t.Fatalf("orbits differ: %s", err)
	}
	if ok, err := anglesEqual(Deg2rad(281.283201), o.Tildeω()); !ok {
		t.Fatalf("longitude of periapsis invalid: %s (%f)", err, o.Tildeω())
	}
	if ok, err := anglesEqual(Deg2rad(145.720695), o.ArgLatitudeU()); !ok {
		t.Fatalf("argument of latitude invalid: %s (%f)", err, o.ArgLatitudeU())
	}
	valladoε := 1e-6
	if !scalar.EqualWithinAbs(o.Energyξ(), -5.516604, valladoε) {
		t.Fatalf("incorrect energy ξ=%f", o.Energyξ())
	}
	if !scalar.EqualWithinAbs(norm(o.R()), o.RNorm(), valladoε) {
		t.Fatalf("incorrect r norm |R|=%f\tr=%f", norm(o.R()), o.RNorm())
	}
	if !scalar.EqualWithinAbs(norm(o.V()), o.VNorm(), valladoε) {
		t.Fatalf("incorrect v norm |V|=%f\tv=%f", norm(o.V()), o.VNorm())
	}
}

func TestOrbitCOE2RV(t *testing.T) {
	a0 := 36126.64283
	e0 := 0.83280
	i0 := 87.874925
	ω0 := 53.378089
	Ω0 := 227.891253
	ν0 := 92.335027
	R := []float64{6524.344, 6861.535, 6449.125}
	V := []float64{4.902276, 5.533124, -1.975709}

	o0 := NewOrbitFromOE(a0, e0, i0, Ω0, ω0, ν0, Earth)
	if !vectorsEqual(R, o0.R()) {
		t.Fatalf("R vector incorrectly computed:\n%+v\n%+v", R, o0.R())
	}
	if !vectorsEqual(V, o0.V()) {
		t.Fatal("V vector incorrectly computed")
	}

	o1 := NewOrbitFromRV(R, V, Earth)
	if ok, err := o0.Equals(*o1); !ok {
		t.Logf("\no0: %s\no1: %s", o0, o1)
		t.Fatal(err)
	}
	if ok, err := anglesEqual(Deg2rad(ν0), o1.ν); !ok {
		t.Fatalf("true anomaly invalid: %s", err)
	}
}

func TestOrbitFromMeanOE(t *testing.T) {
	// Kepler round trip: M -> ν -> M for a mildly eccentric orbit.
	for _, M0 := range []float64{0, 42, 90, 180, 270, 359} {
		o := NewOrbitFromMeanOE(7000, 0.001, 98, 42, 42, M0, Earth)
		M1 := Rad2deg(o.MeanAnomaly())
		if ok, err := anglesEqual(Deg2rad(M0), Deg2rad(M1)); !ok {
			t.Fatalf("M=%f: mean anomaly round trip failed: %s", M0, err)
		}
	}
	// A circular orbit has M = ν.
	o := NewOrbitFromMeanOE(7000, 0, 98, 42, 42, 42, Earth)
	if ok, err := anglesEqual(o.ν, Deg2rad(42)); !ok {
		t.Fatalf("circular orbit M != ν: %s", err)
	}
}

func TestOrbitMeanMotion(t *testing.T) {
	o := NewOrbitFromOE(7000, 0.001, 98, 42, 42, 42, Earth)
	revPerDay := o.MeanMotion() * 86400 / (2 * math.Pi)
	if !scalar.EqualWithinAbs(revPerDay, 14.82366875, 1e-3) {
		t.Fatalf("mean motion %f rev/day", revPerDay)
	}
	period := o.Period()
	if !scalar.EqualWithinAbs(period.Seconds(), 86400/revPerDay, 1e-3) {
		t.Fatalf("period %s inconsistent with mean motion", period)
	}
}

func TestOrbitEnergyAndPeriApo(t *testing.T) {
	o := NewOrbitFromOE(7000, 0.1, 98, 42, 42, 42, Earth)
	if !scalar.EqualWithinAbs(o.Periapsis(), 6300, 1e-9) {
		t.Fatalf("periapsis %f", o.Periapsis())
	}
	if !scalar.EqualWithinAbs(o.Apoapsis(), 7700, 1e-9) {
		t.Fatalf("apoapsis %f", o.Apoapsis())
	}
	if o.Energyξ() >= 0 {
		t.Fatal("bound orbit must have negative energy")
	}
}
