package tlefit

import (
	"testing"
	"time"
)

func TestPropagateTwoBodyClosure(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	o := NewOrbitFromOE(7000, 0.001, 98, 42, 42, 42, Earth)
	initial := *o
	sc := Spacecraft{Name: "test", Mass: 400, Area: 0.3, Cd: 2.0, Cr: 1.0}
	end := start.Add(o.Period())
	eph, err := NewPropagation(&sc, o, start, end, Forces{}, ExportConfig{}).Propagate()
	if err != nil {
		t.Fatal(err)
	}
	// After exactly one period of unperturbed motion the orbit must close.
	if ok, err := initial.Equals(*o); !ok {
		t.Fatalf("two body orbit did not close: %s\ninitial: %s\nfinal:   %s", err, initial, o)
	}
	min, max := eph.Bounds()
	if !min.Equal(start) {
		t.Fatalf("ephemeris starts at %s", min)
	}
	// The trailing partial step must land the ephemeris exactly on the stop date.
	if !max.Equal(end) {
		t.Fatalf("ephemeris ends at %s, want %s", max, end)
	}
}

func TestPropagateCoversWindow(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	o := NewOrbitFromOE(7000, 0.001, 98, 42, 42, 42, Earth)
	sc := Spacecraft{Name: "test", Mass: 400, Area: 0.3, Cd: 2.0, Cr: 1.0}
	// A window which is not a multiple of the integration step.
	end := start.Add(95 * time.Second)
	eph, err := NewPropagation(&sc, o, start, end, Forces{}, ExportConfig{}).Propagate()
	if err != nil {
		t.Fatal(err)
	}
	if _, max := eph.Bounds(); !max.Equal(end) {
		t.Fatalf("ephemeris ends at %s, want %s", max, end)
	}
	samples, err := eph.Sample(start, end, 30*time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 4 {
		t.Fatalf("got %d samples, want 4", len(samples))
	}
}

func TestPropagateDegenerateWindow(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	o := NewOrbitFromOE(7000, 0.001, 98, 42, 42, 42, Earth)
	sc := Spacecraft{Name: "test", Mass: 400, Area: 0.3, Cd: 2.0, Cr: 1.0}
	eph, err := NewPropagation(&sc, o, start, start, Forces{}, ExportConfig{}).Propagate()
	if err != nil {
		t.Fatal(err)
	}
	samples, err := eph.Sample(start, start, time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 1 {
		t.Fatalf("degenerate window: %d samples", len(samples))
	}
}

func TestPropagateWithForceStack(t *testing.T) {
	start := time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC)
	o := NewOrbitFromOE(7000, 0.001, 98, 42, 42, 42, Earth)
	unperturbed := NewOrbitFromOE(7000, 0.001, 98, 42, 42, 42, Earth)
	sc := Spacecraft{Name: "test", Mass: 400, Area: 0.3, Cd: 2.0, Cr: 1.0}
	forces := Forces{
		GravityHarmonics{Earth, 3},
		AtmosphericDrag{sc, ConstantSpaceWeather{F107: 150, Ap: 15}},
		SolarRadiationPressure{sc},
		ThirdBodyAttraction{Sun},
		ThirdBodyAttraction{Moon},
	}
	end := start.Add(30 * time.Minute)
	if _, err := NewPropagation(&sc, o, start, end, forces, ExportConfig{}).Propagate(); err != nil {
		t.Fatal(err)
	}
	if _, err := NewPropagation(&sc, unperturbed, start, end, Forces{}, ExportConfig{}).Propagate(); err != nil {
		t.Fatal(err)
	}
	// J2 regresses the node; after half an hour the RAANs measurably differ.
	_, _, _, Ωp, _, _, _, _, _ := o.Elements()
	_, _, _, Ω2, _, _, _, _, _ := unperturbed.Elements()
	if Ωp == Ω2 {
		t.Fatal("the perturbed node did not move")
	}
}
