package tlefit

import (
	"errors"
	"testing"
	"time"

	kitlog "github.com/go-kit/log"
	satellite "github.com/joshuaferrara/go-satellite"
)

// sgp4Samples builds truth samples from the analytical propagation of an
// element set, so the fit target is exactly representable.
func sgp4Samples(t *testing.T, tle TLE, span, step time.Duration) []StateSample {
	t.Helper()
	sat, err := newSGP4(tle)
	if err != nil {
		t.Fatal(err)
	}
	var samples []StateSample
	for dt := tle.Epoch; !dt.After(tle.Epoch.Add(span)); dt = dt.Add(step) {
		pos, vel := satellite.Propagate(sat, dt.Year(), int(dt.Month()), dt.Day(), dt.Hour(), dt.Minute(), dt.Second())
		samples = append(samples, State{dt, *NewOrbitFromRV([]float64{pos.X, pos.Y, pos.Z}, []float64{vel.X, vel.Y, vel.Z}, Earth)})
	}
	return samples
}

func testGuessTLE() TLE {
	s := ReferenceScenario()
	return NewTLEFromElements(s.Identity, s.Epoch, s.SMA, s.Ecc, s.Inc, s.RAAN, s.ArgPerigee, s.MeanAnomaly, 1e-4, Earth)
}

func TestFitRejectsTooFewSamples(t *testing.T) {
	guess := testGuessTLE()
	_, _, err := FitTLE(guess, nil, FitSettings{})
	var confErr ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
	samples := sgp4Samples(t, guess, 0, time.Minute)
	if _, _, err = FitTLE(guess, samples, FitSettings{}); err == nil {
		t.Fatal("accepted a single sample")
	}
}

func TestFitSelfConsistent(t *testing.T) {
	truth := testGuessTLE()
	samples := sgp4Samples(t, truth, 6*time.Hour, 10*time.Minute)

	// The truth element set reproduces its own trajectory exactly.
	rms, err := ResidualRMS(truth, samples)
	if err != nil {
		t.Fatal(err)
	}
	if rms != 0 {
		t.Fatalf("truth RMS %f m", rms)
	}

	// Perturb the elements and require the fit to recover the trajectory.
	guess := truth
	guess.Inclination += 0.01
	guess.MeanAnomaly += 0.05
	guess.MeanMotion += 1e-4
	guess.BStar = 0
	guessRMS, err := ResidualRMS(guess, samples)
	if err != nil {
		t.Fatal(err)
	}
	fitted, fittedRMS, err := FitTLE(guess, samples, FitSettings{FreeBStar: true, Logger: kitlog.NewNopLogger()})
	if err != nil {
		t.Fatal(err)
	}
	if fittedRMS >= guessRMS/10 {
		t.Fatalf("fit barely improved: %f m -> %f m", guessRMS, fittedRMS)
	}
	if fittedRMS > 200 {
		t.Fatalf("fitted RMS %f m too large", fittedRMS)
	}
	// The fitted elements stay near the truth.
	if diff := fitted.Inclination - truth.Inclination; diff > 0.01 || diff < -0.01 {
		t.Fatalf("inclination drifted by %f°", diff)
	}
}

func TestFitEvaluationBudget(t *testing.T) {
	truth := testGuessTLE()
	samples := sgp4Samples(t, truth, time.Hour, 10*time.Minute)
	guess := truth
	guess.MeanAnomaly += 1
	_, _, err := FitTLE(guess, samples, FitSettings{MaxEvaluations: 3, Logger: kitlog.NewNopLogger()})
	var convErr ConvergenceError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConvergenceError, got %v", err)
	}
	if convErr.Evaluations != 3 {
		t.Fatalf("budget of 3, used %d", convErr.Evaluations)
	}
}

func TestSGP4PositionWholeSeconds(t *testing.T) {
	truth := testGuessTLE()
	sat, err := newSGP4(truth)
	if err != nil {
		t.Fatal(err)
	}
	// Fractional seconds round to the nearest whole second.
	sub := sgp4Position(sat, truth.Epoch.Add(90*time.Second+600*time.Millisecond))
	whole := sgp4Position(sat, truth.Epoch.Add(91*time.Second))
	for i := 0; i < 3; i++ {
		if sub[i] != whole[i] {
			t.Fatalf("fractional epoch not rounded: %+v vs %+v", sub, whole)
		}
	}
}

func TestFitStateClamping(t *testing.T) {
	guess := testGuessTLE()
	out := applyFitState(guess, []float64{-1, -0.5, 370, -10, 42, 720, 1e-3})
	if out.MeanMotion <= 0 {
		t.Fatal("mean motion must stay positive")
	}
	if out.Eccentricity < minEccentricity || out.Eccentricity > maxEccentricity {
		t.Fatalf("eccentricity %g out of bounds", out.Eccentricity)
	}
	for _, angle := range []float64{out.Inclination, out.RAAN, out.ArgPerigee, out.MeanAnomaly} {
		if angle < 0 || angle >= 360 {
			t.Fatalf("angle %f not wrapped", angle)
		}
	}
	if out.BStar != 1e-3 {
		t.Fatal("B* not applied")
	}
	// Without the drag column, B* is untouched.
	if got := applyFitState(guess, []float64{15, 0.001, 98, 42, 42, 42}); got.BStar != guess.BStar {
		t.Fatal("B* must only change when freed")
	}
}
