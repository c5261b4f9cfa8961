package tlefit

import (
	"fmt"
	"math"
	"os"
	"time"

	kitlog "github.com/go-kit/log"
	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/mat"
)

// ConvergenceError is returned when the evaluation budget is exhausted before
// the residual RMS settles.
type ConvergenceError struct {
	Evaluations int
	RMS         float64
}

func (e ConvergenceError) Error() string {
	return fmt.Sprintf("fit did not converge after %d evaluations (RMS %.3f m)", e.Evaluations, e.RMS)
}

// FitSettings tunes the differential correction. Zero values fall back to the
// defaults of a one meter threshold and a thousand evaluations.
type FitSettings struct {
	FreeBStar      bool    // also estimate the drag term
	Threshold      float64 // convergence threshold on the RMS change, in meters
	MaxEvaluations int
	Logger         kitlog.Logger
}

// Bounds clamping the estimated state to what the element set text can encode.
const (
	minEccentricity = 1e-7
	maxEccentricity = 0.9999999
)

// FitTLE adjusts the mean elements of the guess so that its SGP4 trajectory
// matches the sampled states, by finite difference Gauss-Newton on the position
// residuals. The six Keplerian elements are always estimated; B* only when
// freed. It returns the fitted element set and the final residual RMS in
// meters.
func FitTLE(guess TLE, samples []StateSample, settings FitSettings) (TLE, float64, error) {
	if len(samples) < 2 {
		return guess, 0, ConfigurationError{"fit.samples", "at least two samples required"}
	}
	if settings.Threshold <= 0 {
		settings.Threshold = 1.0
	}
	if settings.MaxEvaluations <= 0 {
		settings.MaxEvaluations = 1000
	}
	logger := settings.Logger
	if logger == nil {
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	}
	logger = kitlog.With(logger, "subsys", "fit", "norad", guess.Number)

	nParams := 6
	if settings.FreeBStar {
		nParams = 7
	}
	// Finite difference steps, all above the quantization of the element set
	// text so that a perturbed state still changes the rendered lines.
	fdSteps := []float64{1e-6, 1e-6, 1e-3, 1e-3, 1e-3, 1e-3, 1e-5}

	evals := 0
	rms := math.NaN()
	// One evaluation renders the candidate, initializes SGP4 and propagates to
	// every sample. Every evaluation counts against the budget.
	evaluate := func(t TLE) ([]float64, float64, error) {
		if evals >= settings.MaxEvaluations {
			return nil, math.NaN(), ConvergenceError{evals, rms}
		}
		evals++
		return sgp4Residuals(t, samples)
	}

	x := fitState(guess, nParams)
	current := applyFitState(guess, x)
	res, currentRMS, err := evaluate(current)
	if err != nil {
		return guess, 0, err
	}
	rms = currentRMS
	logger.Log("level", "info", "iteration", 0, "rms", fmt.Sprintf("%.3f", rms))

	for iteration := 1; ; iteration++ {
		// Forward difference Jacobian, column per estimated parameter.
		jac := mat.NewDense(len(res), nParams, nil)
		for j := 0; j < nParams; j++ {
			xPert := make([]float64, nParams)
			copy(xPert, x)
			xPert[j] += fdSteps[j]
			resPert, _, err := evaluate(applyFitState(guess, xPert))
			if err != nil {
				return current, rms, err
			}
			for i := range res {
				jac.Set(i, j, (resPert[i]-res[i])/fdSteps[j])
			}
		}
		rhs := mat.NewVecDense(len(res), nil)
		for i, r := range res {
			rhs.SetVec(i, -r)
		}
		δ := mat.NewVecDense(nParams, nil)
		if err := δ.SolveVec(jac, rhs); err != nil {
			return current, rms, fmt.Errorf("normal equations singular at iteration %d: %s", iteration, err)
		}

		// Step-halving line search along the correction.
		improved := false
		α := 1.0
		for half := 0; half < 8; half++ {
			xTrial := make([]float64, nParams)
			for j := range xTrial {
				xTrial[j] = x[j] + α*δ.AtVec(j)
			}
			trial := applyFitState(guess, xTrial)
			resTrial, trialRMS, err := evaluate(trial)
			if err != nil {
				return current, rms, err
			}
			if trialRMS < rms {
				x = fitState(trial, nParams)
				current = trial
				res = resTrial
				improved = true
				Δrms := rms - trialRMS
				rms = trialRMS
				logger.Log("level", "info", "iteration", iteration, "rms", fmt.Sprintf("%.3f", rms), "evaluations", evals)
				if Δrms <= settings.Threshold {
					return current, rms, nil
				}
				break
			}
			α /= 2
		}
		if !improved {
			// The line search cannot reduce the RMS any further.
			logger.Log("level", "info", "status", "converged", "iterations", iteration, "rms", fmt.Sprintf("%.3f", rms), "evaluations", evals)
			return current, rms, nil
		}
	}
}

// fitState extracts the estimated parameter vector from an element set.
func fitState(t TLE, nParams int) []float64 {
	x := []float64{t.MeanMotion, t.Eccentricity, t.Inclination, t.RAAN, t.ArgPerigee, t.MeanAnomaly, t.BStar}
	return x[:nParams]
}

// applyFitState writes the parameter vector back onto a copy of the element
// set, clamped to what the text format can represent.
func applyFitState(t TLE, x []float64) TLE {
	t.MeanMotion = math.Max(x[0], 1e-6)
	t.Eccentricity = math.Min(math.Max(x[1], minEccentricity), maxEccentricity)
	t.Inclination = wrapDeg(x[2])
	t.RAAN = wrapDeg(x[3])
	t.ArgPerigee = wrapDeg(x[4])
	t.MeanAnomaly = wrapDeg(x[5])
	if len(x) > 6 {
		t.BStar = x[6]
	}
	return t
}

func wrapDeg(v float64) float64 {
	v = math.Mod(v, 360)
	if v < 0 {
		v += 360
	}
	return v
}

// sgp4Residuals propagates the element set to every sample and returns the
// per-axis position residuals in meters along with their RMS.
func sgp4Residuals(t TLE, samples []StateSample) ([]float64, float64, error) {
	sat, err := newSGP4(t)
	if err != nil {
		return nil, math.NaN(), err
	}
	res := make([]float64, 3*len(samples))
	sumSq := 0.0
	for k, sample := range samples {
		pos := sgp4Position(sat, sample.DT)
		truth := sample.R()
		for i := 0; i < 3; i++ {
			r := (pos[i] - truth[i]) * 1e3
			if math.IsNaN(r) {
				return nil, math.NaN(), fmt.Errorf("sgp4 diverged at %s", sample.DT)
			}
			res[3*k+i] = r
			sumSq += r * r
		}
	}
	return res, math.Sqrt(sumSq / float64(len(res))), nil
}

// ResidualRMS returns the RMS in meters of the SGP4 position residuals of the
// element set against the samples.
func ResidualRMS(t TLE, samples []StateSample) (float64, error) {
	_, rms, err := sgp4Residuals(t, samples)
	return rms, err
}

// newSGP4 initializes the analytical propagator from the rendered lines. The
// underlying library panics on malformed input, which we surface as an error.
func newSGP4(t TLE) (sat satellite.Satellite, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sgp4 initialization: %v", r)
		}
	}()
	l1, l2 := t.Lines()
	sat = satellite.TLEToSat(l1, l2, satellite.GravityWGS72)
	return
}

// sgp4Position returns the TEME position in km at the given time. The
// analytical propagator only accepts whole seconds, so the time is rounded to
// the nearest second rather than silently truncated.
func sgp4Position(sat satellite.Satellite, dt time.Time) []float64 {
	dt = dt.UTC().Round(time.Second)
	pos, _ := satellite.Propagate(sat, dt.Year(), int(dt.Month()), dt.Day(), dt.Hour(), dt.Minute(), dt.Second())
	return []float64{pos.X, pos.Y, pos.Z}
}
