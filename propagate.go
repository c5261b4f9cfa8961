package tlefit

import (
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/ChristopherRabotin/ode"
	kitlog "github.com/go-kit/log"
)

const (
	// StepSize is the default integration step of propagation.
	StepSize = 10 * time.Second
)

// PropagationError denotes an integrator failure. The whole run is aborted,
// there is no partial trajectory to salvage.
type PropagationError struct {
	DT  time.Time
	Msg string
}

func (e PropagationError) Error() string {
	return fmt.Sprintf("propagation failed at %s: %s", e.DT, e.Msg)
}

/* Handles the numerical propagation. */

// Propagation integrates the Cartesian equations of motion of a spacecraft
// subject to a force model stack, and accumulates the trajectory into an
// Ephemeris. It implements ode.Integrable.
type Propagation struct {
	SC                         *Spacecraft
	Orbit                      *Orbit // As pointer because the orbit changes during propagation.
	StartDT, StopDT, CurrentDT time.Time
	Forces                     Forces
	step                       time.Duration
	eph                        *Ephemeris
	histChan                   chan State
	wg                         sync.WaitGroup
	err                        error
	collided                   bool
	logger                     kitlog.Logger
}

// NewPropagation is the same as NewPrecisePropagation with the default step size.
func NewPropagation(sc *Spacecraft, o *Orbit, start, end time.Time, forces Forces, conf ExportConfig) *Propagation {
	return NewPrecisePropagation(sc, o, start, end, forces, StepSize, conf)
}

// NewPrecisePropagation returns a new Propagation instance with a custom time step.
func NewPrecisePropagation(sc *Spacecraft, o *Orbit, start, end time.Time, forces Forces, step time.Duration, conf ExportConfig) *Propagation {
	// Must switch to UTC as all ephemeris data is in UTC.
	if start.Location() != time.UTC {
		start = start.UTC()
	}
	if end.Location() != time.UTC {
		end = end.UTC()
	}
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	klog = kitlog.With(klog, "subsys", "astro", "sc", sc.Name)

	p := &Propagation{SC: sc, Orbit: o, StartDT: start, StopDT: end, CurrentDT: start,
		Forces: forces, step: step, eph: newEphemeris(FrameEME2000), logger: klog}

	// If no filepath is provided, then no output will be written.
	if !conf.IsUseless() {
		p.histChan = make(chan State, 1000) // a 1k entry buffer
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			StreamStates(conf, p.histChan)
		}()
	}

	if end.Before(start) {
		p.logger.Log("level", "warning", "message", "stop date before start date")
	}

	// Store the initial data point.
	p.record(State{p.CurrentDT, *o})
	return p
}

func (p *Propagation) record(s State) {
	p.eph.append(s)
	if p.histChan != nil {
		p.histChan <- s
	}
}

// LogStatus returns the status of the propagation.
func (p *Propagation) LogStatus() {
	p.logger.Log("level", "info", "date", p.CurrentDT, "orbit", p.Orbit)
}

// Propagate runs the integration until the stop date is reached (blocking) and
// returns the accumulated ephemeris.
func (p *Propagation) Propagate() (*Ephemeris, error) {
	p.LogStatus()
	p.run()
	if p.histChan != nil {
		close(p.histChan)
		p.wg.Wait() // Don't return until we're done writing all the files.
	}
	if p.err != nil {
		return nil, p.err
	}
	duration := p.CurrentDT.Sub(p.StartDT)
	durStr := duration.String()
	if duration.Hours() > 24 {
		durStr += fmt.Sprintf(" (~%.3fd)", duration.Hours()/24)
	}
	p.logger.Log("level", "notice", "status", "finished", "duration", durStr)
	p.LogStatus()
	return p.eph, nil
}

func (p *Propagation) run() {
	defer func() {
		if r := recover(); r != nil {
			p.err = PropagationError{p.CurrentDT, fmt.Sprint(r)}
		}
	}()
	ode.NewRK4(0, p.step.Seconds(), p).Solve() // Blocking.
	if p.err != nil {
		return
	}
	// A trailing partial step when the window is not a multiple of the step,
	// so that the ephemeris always covers the full [start, stop] interval.
	if rem := p.StopDT.Sub(p.CurrentDT); rem > 0 {
		p.step = rem
		ode.NewRK4(0, rem.Seconds(), p).Solve()
	}
}

// Stop implements the stop call of the integrator.
func (p *Propagation) Stop(t float64) bool {
	if p.err != nil {
		return true
	}
	return p.CurrentDT.Add(p.step).After(p.StopDT)
}

// GetState returns the state for the integrator.
func (p *Propagation) GetState() (s []float64) {
	s = make([]float64, 6)
	R, V := p.Orbit.RV()
	for i := 0; i < 3; i++ {
		s[i] = R[i]
		s[i+3] = V[i]
	}
	return
}

// SetState sets the updated state.
// NOTE: the time bookkeeping happens here and not in Stop, otherwise the first
// integration step would not be recorded.
func (p *Propagation) SetState(t float64, s []float64) {
	p.CurrentDT = p.CurrentDT.Add(p.step)
	R := []float64{s[0], s[1], s[2]}
	V := []float64{s[3], s[4], s[5]}
	for i := 0; i < 3; i++ {
		if math.IsNaN(R[i]) || math.IsNaN(V[i]) {
			p.err = PropagationError{p.CurrentDT, fmt.Sprintf("state component %d is NaN", i)}
			return
		}
	}
	*p.Orbit = *NewOrbitFromRV(R, V, p.Orbit.Origin)

	// Orbit sanity checks and warnings.
	if !p.collided && p.Orbit.RNorm() < p.Orbit.Origin.Radius {
		p.collided = true
		p.logger.Log("level", "critical", "collided", p.Orbit.Origin.Name, "dt", p.CurrentDT, "r", p.Orbit.RNorm(), "radius", p.Orbit.Origin.Radius)
	} else if p.collided && p.Orbit.RNorm() > p.Orbit.Origin.Radius*1.1 {
		// Now further from the 10% dead zone
		p.collided = false
		p.logger.Log("level", "critical", "revived", p.Orbit.Origin.Name, "dt", p.CurrentDT)
	}

	p.record(State{p.CurrentDT, *p.Orbit})
}

// Func is the integration function in Cartesian coordinates.
func (p *Propagation) Func(t float64, f []float64) (fDot []float64) {
	fDot = make([]float64, 6) // init return vector
	R := []float64{f[0], f[1], f[2]}
	V := []float64{f[3], f[4], f[5]}
	tmpOrbit := NewOrbitFromRV(R, V, p.Orbit.Origin)
	bodyAcc := -tmpOrbit.Origin.μ / math.Pow(tmpOrbit.RNorm(), 3)
	// d\vec{R}/dt
	fDot[0] = f[3]
	fDot[1] = f[4]
	fDot[2] = f[5]
	// d\vec{V}/dt
	pert := p.Forces.Acceleration(*tmpOrbit, p.CurrentDT)
	fDot[3] = bodyAcc*f[0] + pert[0]
	fDot[4] = bodyAcc*f[1] + pert[1]
	fDot[5] = bodyAcc*f[2] + pert[2]
	for i := 0; i < 6; i++ {
		if math.IsNaN(fDot[i]) {
			panic(fmt.Errorf("fDot[%d]=NaN @ dt=%s\ncur:%s", i, p.CurrentDT, p.Orbit))
		}
	}
	return
}
