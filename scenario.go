package tlefit

import (
	"fmt"
	"strings"
	"time"
)

// ConfigurationError denotes an invalid scenario or a missing data file. It is
// fatal: the run never starts.
type ConfigurationError struct {
	Field string
	Msg   string
}

func (e ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %s: %s", e.Field, e.Msg)
}

// Spacecraft defines the physical spacecraft parameters used by the drag and
// radiation pressure models.
type Spacecraft struct {
	Name string
	Mass float64 // kg
	Area float64 // cross section in m²
	Cd   float64 // drag coefficient
	Cr   float64 // reflectivity coefficient
}

// SatelliteIdentity holds the metadata embedded verbatim into TLE lines 1 and 2.
type SatelliteIdentity struct {
	Number         int
	Classification string // "U", "C" or "S"
	LaunchYear     int
	LaunchNumber   int
	LaunchPiece    string
	EphemerisType  int
	ElementNumber  int
	RevolutionNum  int
}

// Validate checks the TLE format constraints on the identity fields.
func (id SatelliteIdentity) Validate() error {
	if id.Number < 0 || id.Number > 99999 {
		return ConfigurationError{"identity.number", "must fit in five digits"}
	}
	switch id.Classification {
	case "U", "C", "S":
	default:
		return ConfigurationError{"identity.classification", "must be U, C or S"}
	}
	if id.LaunchNumber < 0 || id.LaunchNumber > 999 {
		return ConfigurationError{"identity.launch_number", "must fit in three digits"}
	}
	if l := len(strings.TrimSpace(id.LaunchPiece)); l < 1 || l > 3 {
		return ConfigurationError{"identity.launch_piece", "must be one to three characters"}
	}
	if id.ElementNumber < 0 || id.ElementNumber > 9999 {
		return ConfigurationError{"identity.element_number", "must fit in four digits"}
	}
	if id.RevolutionNum < 0 || id.RevolutionNum > 99999 {
		return ConfigurationError{"identity.revolution_number", "must fit in five digits"}
	}
	return nil
}

// ScenarioConfig holds the full parameter entry for one propagate-and-fit run.
// Immutable once constructed.
type ScenarioConfig struct {
	Name     string
	SC       Spacecraft
	Identity SatelliteIdentity

	Epoch time.Time // UTC

	// Initial Keplerian elements: a in km, angles in degrees, mean anomaly.
	SMA         float64
	Ecc         float64
	Inc         float64
	ArgPerigee  float64
	RAAN        float64
	MeanAnomaly float64

	Duration   time.Duration // fitting window length
	SampleStep time.Duration // ephemeris sampling cadence

	// Estimator settings. NOTE: these are declared for the fit but the
	// pipeline does not pass them through yet (cf. Pipeline.Run).
	EstimatorMaxIterations    int
	EstimatorMaxEvaluations   int
	EstimatorConvergenceThres float64
}

// Validate returns a ConfigurationError on the first invalid parameter.
func (s ScenarioConfig) Validate() error {
	if s.SC.Mass <= 0 {
		return ConfigurationError{"spacecraft.mass", "must be strictly positive"}
	}
	if s.SC.Area < 0 {
		return ConfigurationError{"spacecraft.area", "cannot be negative"}
	}
	if s.SC.Cd < 0 {
		return ConfigurationError{"spacecraft.cd", "cannot be negative"}
	}
	if s.SC.Cr < 0 {
		return ConfigurationError{"spacecraft.cr", "cannot be negative"}
	}
	if s.Epoch.IsZero() {
		return ConfigurationError{"epoch", "not set"}
	}
	if s.SMA <= Earth.Radius {
		return ConfigurationError{"sma", "below the surface"}
	}
	if s.Ecc < 0 || s.Ecc >= 1 {
		return ConfigurationError{"ecc", "must be in [0,1)"}
	}
	if s.Duration < 0 {
		return ConfigurationError{"duration", "cannot be negative"}
	}
	if s.SampleStep <= 0 {
		return ConfigurationError{"sample_step", "must be strictly positive"}
	}
	return s.Identity.Validate()
}

// ReferenceScenario returns the sun-synchronous-ish 400 kg scenario used
// throughout the tests and the default run of cmd/tlefit.
func ReferenceScenario() ScenarioConfig {
	return ScenarioConfig{
		Name: "reference",
		SC:   Spacecraft{Name: "refsat", Mass: 400, Area: 0.3, Cd: 2.0, Cr: 1.0},
		Identity: SatelliteIdentity{
			Number:         99999,
			Classification: "U",
			LaunchYear:     2018,
			LaunchNumber:   42,
			LaunchPiece:    "F",
			EphemerisType:  0,
			ElementNumber:  999,
			RevolutionNum:  100,
		},
		Epoch:                     time.Date(2019, 1, 1, 0, 0, 0, 0, time.UTC),
		SMA:                       7000,
		Ecc:                       0.001,
		Inc:                       98,
		ArgPerigee:                42,
		RAAN:                      42,
		MeanAnomaly:               42,
		Duration:                  24 * time.Hour,
		SampleStep:                60 * time.Second,
		EstimatorMaxIterations:    1000,
		EstimatorMaxEvaluations:   1000,
		EstimatorConvergenceThres: 1e-3,
	}
}
