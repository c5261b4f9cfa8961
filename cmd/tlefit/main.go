package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	tlefit "github.com/GorgiAstro/tle-fitting"
	"github.com/soniakeys/meeus/v3/julian"
	"github.com/spf13/viper"
)

// This code only reads the scenario file, runs the propagate-and-fit pipeline
// and prints the element sets before and after the differential correction.

const (
	defaultScenario = "~~unset~~"
)

var (
	scenario string
	export   string
	verbose  bool
)

func init() {
	// Read flags
	flag.StringVar(&scenario, "scenario", defaultScenario, "fitting scenario TOML file (omit to run the reference scenario)")
	flag.StringVar(&export, "export", "", "export the propagated trajectory under this name")
	flag.BoolVar(&verbose, "verbose", false, "really verbose (esp. for configuration)")
}

func main() {
	flag.Parse()
	conf := tlefit.ReferenceScenario()
	var weather tlefit.SpaceWeather
	if scenario != defaultScenario {
		scenario = strings.Replace(scenario, ".toml", "", 1)
		viper.AddConfigPath(".")
		viper.SetConfigName(scenario)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("./%s.toml: Error %s", scenario, err)
		}
		conf = scenarioFromConf()
		if pattern := viper.GetString("weather.bulletins"); pattern != "" {
			archive, err := tlefit.LoadBulletins(pattern)
			if err != nil {
				log.Fatalf("weather bulletins: %s", err)
			}
			weather = archive
		}
	}
	if verbose {
		log.Printf("[conf] scenario `%s`: %s for %s, sampled every %s", conf.Name, conf.SC.Name, conf.Duration, conf.SampleStep)
	}

	pipeline := tlefit.Pipeline{
		Scenario: conf,
		Weather:  weather,
		Export:   tlefit.ExportConfig{Filename: export, AsCSV: export != "", Timestamp: true},
	}
	report, err := pipeline.Run()
	if err != nil {
		log.Fatalf("pipeline: %s", err)
	}
	fmt.Println(report)
}

func scenarioFromConf() tlefit.ScenarioConfig {
	return tlefit.ScenarioConfig{
		Name: viper.GetString("scenario.name"),
		SC: tlefit.Spacecraft{
			Name: viper.GetString("spacecraft.name"),
			Mass: viper.GetFloat64("spacecraft.mass"),
			Area: viper.GetFloat64("spacecraft.area"),
			Cd:   viper.GetFloat64("spacecraft.cd"),
			Cr:   viper.GetFloat64("spacecraft.cr"),
		},
		Identity: tlefit.SatelliteIdentity{
			Number:         viper.GetInt("identity.number"),
			Classification: viper.GetString("identity.classification"),
			LaunchYear:     viper.GetInt("identity.launchYear"),
			LaunchNumber:   viper.GetInt("identity.launchNumber"),
			LaunchPiece:    viper.GetString("identity.launchPiece"),
			EphemerisType:  viper.GetInt("identity.ephemerisType"),
			ElementNumber:  viper.GetInt("identity.elementNumber"),
			RevolutionNum:  viper.GetInt("identity.revolutionNumber"),
		},
		Epoch:                     confReadJDEorTime("orbit.epoch"),
		SMA:                       viper.GetFloat64("orbit.sma"),
		Ecc:                       viper.GetFloat64("orbit.ecc"),
		Inc:                       viper.GetFloat64("orbit.inc"),
		RAAN:                      viper.GetFloat64("orbit.RAAN"),
		ArgPerigee:                viper.GetFloat64("orbit.argPeri"),
		MeanAnomaly:               viper.GetFloat64("orbit.mAnomaly"),
		Duration:                  viper.GetDuration("fit.duration"),
		SampleStep:                viper.GetDuration("fit.step"),
		EstimatorMaxIterations:    viper.GetInt("fit.maxIterations"),
		EstimatorMaxEvaluations:   viper.GetInt("fit.maxEvaluations"),
		EstimatorConvergenceThres: viper.GetFloat64("fit.convergence"),
	}
}

func confReadJDEorTime(key string) (dt time.Time) {
	jde := viper.GetFloat64(key)
	if jde == 0 {
		dt = viper.GetTime(key)
	} else {
		dt = julian.JDToTime(jde)
	}
	return
}
