// Package config loads the static, machine-specific parameters spec.md
// §6 calls for: per-axis geometry/limits/rates, GPIO pins and driver
// family name (the mode tables themselves live in internal/driver). Loaded once at startup into an explicit struct and threaded
// through construction of Steppers, Planner and Executor — spec.md §9's
// "re-architect as an explicit configuration record" applied with
// github.com/spf13/viper, grounded on
// EdgxCloud-EdgeFlow/internal/config/config.go's Load/setDefaults shape
// and original_source/config.py's section/key layout (axes.x.step_angle,
// axes.x.lead, ...).
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"cncrouter/internal/ramp"
)

// AxisConfig is the immutable-after-load parameter set for one stepper
// axis (spec.md §3 "Axis parameters").
type AxisConfig struct {
	Driver        string       `mapstructure:"driver"`
	StepAngleDeg  float64      `mapstructure:"step_angle"`
	Mode          int          `mapstructure:"mode"`
	LeadMM        float64      `mapstructure:"lead"`
	LimitMin      float64      `mapstructure:"limit_min"`
	LimitMax      float64      `mapstructure:"limit_max"`
	InvertDir     bool         `mapstructure:"invert_dir"`
	TraversalRate float64      `mapstructure:"traversal_rate"` // mm/min
	FeedRate      float64      `mapstructure:"feed_rate"`      // mm/min
	AccelMMPerS2  float64      `mapstructure:"acceleration"`
	RampType      ramp.Variant `mapstructure:"-"`
	RampTypeName  string       `mapstructure:"ramp_type"`
	GPIO          AxisGPIO     `mapstructure:"gpio"`
}

// AxisGPIO holds the BCM pin numbers wired to one axis's driver.
type AxisGPIO struct {
	Step   int `mapstructure:"step"`
	Dir    int `mapstructure:"dir"`
	Enable int `mapstructure:"enable"`
	M0     int `mapstructure:"m0"`
	M1     int `mapstructure:"m1"`
	M2     int `mapstructure:"m2"`
	M3     int `mapstructure:"m3"` // only used by 4-bit descriptors (DRV8711)
}

// Config is the complete machine parameter set, loaded once at startup.
type Config struct {
	Axes         map[string]AxisConfig `mapstructure:"axes"` // keys "x","y","z"
	CoordFile    string                `mapstructure:"coord_file"`
	RampCacheDB  string                `mapstructure:"ramp_cache_db"`
	Logging      LoggingConfig         `mapstructure:"logging"`
}

// LoggingConfig mirrors internal/logx.Config in viper-mappable form.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	LogDir string `mapstructure:"log_dir"`
}

// Load reads configuration from the given path (or the default search
// path when empty), applying defaults for anything unset, then
// overriding from CNCROUTER_-prefixed environment variables. A missing
// configuration file is not an error: the defaults apply.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("cncrouter")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	v.SetEnvPrefix("CNCROUTER")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	for name, axis := range cfg.Axes {
		axis.RampType = parseRampType(axis.RampTypeName)
		cfg.Axes[name] = axis
	}

	return &cfg, nil
}

func parseRampType(name string) ramp.Variant {
	switch name {
	case "sigmoidal":
		return ramp.Sigmoidal
	case "polynomial":
		return ramp.Polynomial
	default:
		return ramp.Trapezoidal
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("coord_file", "./cncrouter.pos")
	v.SetDefault("ramp_cache_db", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "")

	for _, axis := range []string{"x", "y", "z"} {
		prefix := "axes." + axis + "."
		v.SetDefault(prefix+"driver", "DRV8825")
		v.SetDefault(prefix+"step_angle", 1.8)
		v.SetDefault(prefix+"mode", 2)
		v.SetDefault(prefix+"lead", 5.0)
		v.SetDefault(prefix+"limit_min", 0.0)
		v.SetDefault(prefix+"limit_max", 300.0)
		v.SetDefault(prefix+"invert_dir", false)
		v.SetDefault(prefix+"traversal_rate", 1500.0)
		v.SetDefault(prefix+"feed_rate", 500.0)
		v.SetDefault(prefix+"acceleration", 200.0)
		v.SetDefault(prefix+"ramp_type", "trapezoidal")
	}
}

func defaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".cncrouter")
}
