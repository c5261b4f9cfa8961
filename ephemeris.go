package tlefit

import (
	"fmt"
	"sort"
	"time"
)

// FrameEME2000 tags the single pseudo-inertial Earth equatorial frame every
// state in this package is expressed in.
const FrameEME2000 = "EME2000"

// State stores a propagated state.
type State struct {
	DT    time.Time
	Orbit Orbit
}

// R returns the position vector in km.
func (s State) R() []float64 {
	return s.Orbit.R()
}

// V returns the velocity vector in km/s.
func (s State) V() []float64 {
	return s.Orbit.V()
}

// StateSample is a discrete evaluation of an ephemeris.
type StateSample = State

// OutOfRangeError is returned when an ephemeris is evaluated outside of its
// validity interval.
type OutOfRangeError struct {
	At       time.Time
	Min, Max time.Time
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("ephemeris: %s outside of [%s, %s]", e.At, e.Min, e.Max)
}

// Ephemeris is a continuous trajectory representation over a bounded validity
// interval. It owns the states pushed by the propagator and is read-only
// afterwards.
type Ephemeris struct {
	Frame  string
	states []State
}

func newEphemeris(frame string) *Ephemeris {
	return &Ephemeris{Frame: frame}
}

// append adds a state; the propagator guarantees non-decreasing times.
func (e *Ephemeris) append(s State) {
	e.states = append(e.states, s)
}

// Bounds returns the validity interval of this ephemeris.
func (e *Ephemeris) Bounds() (min, max time.Time) {
	if len(e.states) == 0 {
		return
	}
	return e.states[0].DT, e.states[len(e.states)-1].DT
}

// At evaluates the ephemeris at the given time. Exact at stored nodes, cubic
// Hermite (position and velocity of the bracketing nodes) in between.
func (e *Ephemeris) At(dt time.Time) (State, error) {
	min, max := e.Bounds()
	if len(e.states) == 0 || dt.Before(min) || dt.After(max) {
		return State{}, OutOfRangeError{dt, min, max}
	}
	// First node not before dt.
	idx := sort.Search(len(e.states), func(i int) bool { return !e.states[i].DT.Before(dt) })
	if e.states[idx].DT.Equal(dt) {
		return e.states[idx], nil
	}
	s0, s1 := e.states[idx-1], e.states[idx]
	h := s1.DT.Sub(s0.DT).Seconds()
	τ := dt.Sub(s0.DT).Seconds() / h
	R0, V0 := s0.Orbit.RV()
	R1, V1 := s1.Orbit.RV()
	R := make([]float64, 3)
	V := make([]float64, 3)
	τ2 := τ * τ
	τ3 := τ2 * τ
	h00 := 2*τ3 - 3*τ2 + 1
	h10 := τ3 - 2*τ2 + τ
	h01 := -2*τ3 + 3*τ2
	h11 := τ3 - τ2
	// Derivatives of the Hermite basis for the velocity.
	d00 := (6*τ2 - 6*τ) / h
	d10 := (3*τ2 - 4*τ + 1) / h
	d01 := (-6*τ2 + 6*τ) / h
	d11 := (3*τ2 - 2*τ) / h
	for i := 0; i < 3; i++ {
		R[i] = h00*R0[i] + h10*h*V0[i] + h01*R1[i] + h11*h*V1[i]
		V[i] = d00*R0[i] + d10*h*V0[i] + d01*R1[i] + d11*h*V1[i]
	}
	return State{dt, *NewOrbitFromRV(R, V, s0.Orbit.Origin)}, nil
}

// Sample walks the ephemeris from start to end (both inclusive) at a fixed
// step and returns the ordered sample sequence. The count is always
// floor(span/step)+1. If any evaluation falls outside the validity interval
// the error is returned immediately, with no partial result.
func (e *Ephemeris) Sample(start, end time.Time, step time.Duration) ([]StateSample, error) {
	if step <= 0 {
		return nil, ConfigurationError{"sample.step", "must be strictly positive"}
	}
	if start.After(end) {
		return nil, ConfigurationError{"sample.window", "start after end"}
	}
	samples := make([]StateSample, 0, int(end.Sub(start)/step)+1)
	for t := start; !t.After(end); t = t.Add(step) {
		s, err := e.At(t)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, nil
}
