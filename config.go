package sdc

import (
	"os"
	"sync"

	"github.com/spf13/viper"
)

var (
	cfgOnce sync.Once
	config  _sdcconfig
)

// _sdcconfig is a "hidden" struct, just use `sdcConfig`.
// Every entry is a documented tolerance or output knob, never a physical
// constant: the defaults match the conventions of this package and a
// conf.toml only needs to exist to override them.
type _sdcconfig struct {
	// circularε is the eccentricity below which RAAN, argument of perigee
	// and true anomaly are defined as 0 during element extraction.
	circularε float64
	// energyε is the specific energy magnitude below which an orbit is
	// reported parabolic (infinite semi major axis).
	energyε float64
	// classCircularε and classParabolicε are the orbit classification
	// boundaries on eccentricity.
	classCircularε  float64
	classParabolicε float64
	// renormEvery is the integration step interval at which the attitude
	// quaternion is renormalized.
	renormEvery int
	outputDir   string
}

// sdcConfig returns the package configuration. The defaults apply when the
// `SDC_CONFIG` environment variable is unset; otherwise it must point to a
// directory holding a conf.toml whose entries override them. The load
// happens exactly once; concurrent propagations may all call this.
func sdcConfig() _sdcconfig {
	cfgOnce.Do(loadConfig)
	return config
}

func loadConfig() {
	viper.SetDefault("tolerances.circular", 1e-10)
	viper.SetDefault("tolerances.parabolic_energy", 1e-10)
	viper.SetDefault("classification.circular", 1e-3)
	viper.SetDefault("classification.parabolic_band", 1e-3)
	viper.SetDefault("propagation.renormalize_every", 1)
	viper.SetDefault("general.output_path", ".")

	if confPath := os.Getenv("SDC_CONFIG"); confPath != "" {
		viper.SetConfigName("conf")
		viper.AddConfigPath(confPath)
		if err := viper.ReadInConfig(); err != nil {
			panic("SDC_CONFIG is set but " + confPath + "/conf.toml cannot be read")
		}
	}

	config = _sdcconfig{
		circularε:       viper.GetFloat64("tolerances.circular"),
		energyε:         viper.GetFloat64("tolerances.parabolic_energy"),
		classCircularε:  viper.GetFloat64("classification.circular"),
		classParabolicε: viper.GetFloat64("classification.parabolic_band"),
		renormEvery:     viper.GetInt("propagation.renormalize_every"),
		outputDir:       viper.GetString("general.output_path"),
	}
}
