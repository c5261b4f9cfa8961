package tlefit

import (
	"fmt"
	"os"

	kitlog "github.com/go-kit/log"
)

// FitReport is the outcome of a pipeline run, before and after the fit.
type FitReport struct {
	Guess     TLE
	Fitted    TLE
	GuessRMS  float64 // meters
	FittedRMS float64 // meters
	Samples   int
}

// String implements the Stringer interface.
func (r FitReport) String() string {
	return fmt.Sprintf("=== guess (RMS %.1f m) ===\n%s\n=== fitted (RMS %.1f m, %d samples) ===\n%s",
		r.GuessRMS, r.Guess, r.FittedRMS, r.Samples, r.Fitted)
}

// Pipeline chains the scenario steps end to end: numerical propagation of the
// initial osculating state under the full force stack, ephemeris sampling, and
// differential correction of a guess element set against the samples.
type Pipeline struct {
	Scenario ScenarioConfig
	Weather  SpaceWeather // defaults to a constant mean activity
	Export   ExportConfig
	Logger   kitlog.Logger
}

// Run executes the scenario and returns the before/after report.
func (p Pipeline) Run() (FitReport, error) {
	var report FitReport
	if err := p.Scenario.Validate(); err != nil {
		return report, err
	}
	logger := p.Logger
	if logger == nil {
		logger = kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stdout))
	}
	logger = kitlog.With(logger, "subsys", "pipeline", "scenario", p.Scenario.Name)
	weather := p.Weather
	if weather == nil {
		weather = ConstantSpaceWeather{F107: 150, Ap: 15}
	}

	s := p.Scenario
	orbit := NewOrbitFromMeanOE(s.SMA, s.Ecc, s.Inc, s.RAAN, s.ArgPerigee, s.MeanAnomaly, Earth)
	forces := Forces{
		GravityHarmonics{Earth, 3},
		AtmosphericDrag{s.SC, weather},
		SolarRadiationPressure{s.SC},
		ThirdBodyAttraction{Sun},
		ThirdBodyAttraction{Moon},
	}
	start := s.Epoch.UTC()
	end := start.Add(s.Duration)

	sc := s.SC
	eph, err := NewPropagation(&sc, orbit, start, end, forces, p.Export).Propagate()
	if err != nil {
		return report, err
	}
	samples, err := eph.Sample(start, end, s.SampleStep)
	if err != nil {
		return report, err
	}
	logger.Log("level", "info", "samples", len(samples), "window", s.Duration)

	report.Samples = len(samples)
	report.Guess = NewTLEFromElements(s.Identity, start, s.SMA, s.Ecc, s.Inc, s.RAAN, s.ArgPerigee, s.MeanAnomaly, 0, Earth)
	if report.GuessRMS, err = ResidualRMS(report.Guess, samples); err != nil {
		return report, err
	}

	// TODO: wire the scenario estimator settings into the fit call.
	report.Fitted, report.FittedRMS, err = FitTLE(report.Guess, samples, FitSettings{
		FreeBStar:      true,
		Threshold:      1.0,
		MaxEvaluations: 1000,
		Logger:         p.Logger,
	})
	if err != nil {
		return report, err
	}
	logger.Log("level", "notice", "status", "fitted", "rms_before", fmt.Sprintf("%.1f", report.GuessRMS), "rms_after", fmt.Sprintf("%.1f", report.FittedRMS))
	return report, nil
}
