package tlefit

import (
	"fmt"
	"os"
	"time"

	"github.com/soniakeys/meeus/v3/julian"
)

// ExportConfig configures the trajectory export.
type ExportConfig struct {
	Filename  string
	AsCSV     bool
	Timestamp bool
}

// IsUseless returns whether this config doesn't actually do anything.
func (c ExportConfig) IsUseless() bool {
	return c.Filename == "" || !c.AsCSV
}

// createInterpolatedFile returns a file which requires a defer close statement!
func createInterpolatedFile(filename string, stamped bool, stateDT time.Time) *os.File {
	config := tlefitConfig()
	if stamped {
		t := time.Now()
		filename = fmt.Sprintf("%s/prop-%s-%d-%02d-%02dT%02d.%02d.%02d.xyzv", config.outputDir, filename, t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second())
	} else {
		filename = fmt.Sprintf("%s/prop-%s.xyzv", config.outputDir, filename)
	}
	f, err := os.Create(filename)
	if err != nil {
		panic(err)
	}
	// Header
	f.WriteString(fmt.Sprintf(`# Creation date (UTC): %s
# Records are <jd> <x> <y> <z> <vel x> <vel y> <vel z>
#   Position in km
#   Velocity in km/sec
#   Simulation time start (UTC): %s`, time.Now(), stateDT.UTC()))
	return f
}

// StreamStates streams the states of the channel to the configured file, one
// record per accepted integration step.
func StreamStates(conf ExportConfig, stateChan <-chan State) {
	var f *os.File
	var started bool
	for state := range stateChan {
		if !started {
			started = true
			f = createInterpolatedFile(conf.Filename, conf.Timestamp, state.DT)
			defer f.Close()
		}
		R, V := state.Orbit.RV()
		jd := julian.TimeToJD(state.DT.UTC())
		if _, err := f.WriteString(fmt.Sprintf("\n%f %f %f %f %f %f %f", jd, R[0], R[1], R[2], V[0], V[1], V[2])); err != nil {
			panic(err)
		}
	}
}
