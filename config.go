package tlefit

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

var (
	cfgLoaded = false
	config    = _tlefitconfig{}
)

// _tlefitconfig is a "hidden" struct, just use `tlefitConfig`
type _tlefitconfig struct {
	dataDir   string
	outputDir string
}

// tlefitConfig returns the process configuration: where the reference data
// files (solar activity bulletins) live and where exports go. Absence of the
// configuration is a fatal setup error.
func tlefitConfig() _tlefitconfig {
	if cfgLoaded {
		return config
	}
	// Load the configuration file
	confPath := os.Getenv("TLEFIT_CONFIG")
	if confPath == "" {
		panic("environment variable `TLEFIT_CONFIG` is missing or empty")
	}
	viper.SetConfigName("conf")
	viper.AddConfigPath(confPath)
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("%s/conf.toml not found", confPath))
	}

	dataDir := viper.GetString("data.directory")
	outputDir := viper.GetString("general.output_path")
	if dataDir == "" {
		panic(fmt.Errorf("data.directory not set in %s/conf.toml", confPath))
	}

	cfgLoaded = true
	config = _tlefitconfig{dataDir: dataDir, outputDir: outputDir}
	return config
}
