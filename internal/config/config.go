// Package config loads controller settings from config.yml and COOPDOOR_*
// environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sweeney/coop-door/internal/controller"
	"github.com/sweeney/coop-door/internal/gpio"
	"github.com/sweeney/coop-door/internal/i2cbus"
	"github.com/sweeney/coop-door/internal/logger"
	"github.com/sweeney/coop-door/internal/logic"
	"github.com/sweeney/coop-door/internal/motor"
	"github.com/sweeney/coop-door/internal/rtc"
)

// EnvPrefix prefixes every environment override, e.g. COOPDOOR_STORE_PATH.
const EnvPrefix = "COOPDOOR"

// Store backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

// Config is the root configuration.
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	Schedule string         `mapstructure:"schedule"`
	Store    StoreConfig    `mapstructure:"store"`
	Hardware HardwareConfig `mapstructure:"hardware"`
	Switch   SwitchConfig   `mapstructure:"switch"`
	Door     ActuatorConfig `mapstructure:"door"`
	Lock     ActuatorConfig `mapstructure:"lock"`
	Blink    time.Duration  `mapstructure:"blink"`
}

// StoreConfig selects the retained store.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
	Path    string `mapstructure:"path"`
}

// HardwareConfig holds bus and pin assignments.
type HardwareConfig struct {
	I2CBus         string `mapstructure:"i2c_bus"`
	RTCAddr        uint16 `mapstructure:"rtc_addr"`
	MotorKitAddr   uint16 `mapstructure:"motorkit_addr"`
	PinSwitch      int    `mapstructure:"pin_switch"`
	PinWake        int    `mapstructure:"pin_wake"`
	PinDriverPower int    `mapstructure:"pin_driver_power"`
	PinIndicator   int    `mapstructure:"pin_indicator"`
}

// SwitchConfig describes the manual switch.
type SwitchConfig struct {
	Settle    time.Duration `mapstructure:"settle"`
	OpenLevel bool          `mapstructure:"open_level"`
}

// ActuatorConfig describes one actuator and the MotorKit terminal it is
// wired to.
type ActuatorConfig struct {
	Motor                int           `mapstructure:"motor"`
	Threshold            time.Duration `mapstructure:"threshold"`
	OpenThrottle         float64       `mapstructure:"open_throttle"`
	CloseThrottle        float64       `mapstructure:"close_throttle"`
	ReducedThreshold     time.Duration `mapstructure:"reduced_threshold"`
	ReducedOpenThrottle  float64       `mapstructure:"reduced_open_throttle"`
	ReducedCloseThrottle float64       `mapstructure:"reduced_close_throttle"`
}

func setActuatorDefaults(v *viper.Viper, key string, motorN int, spec logic.ActuatorSpec) {
	v.SetDefault(key+".motor", motorN)
	v.SetDefault(key+".threshold", spec.Threshold)
	v.SetDefault(key+".open_throttle", spec.OpenThrottle)
	v.SetDefault(key+".close_throttle", spec.CloseThrottle)
	v.SetDefault(key+".reduced_threshold", spec.ReducedThreshold)
	v.SetDefault(key+".reduced_open_throttle", spec.ReducedOpenThrottle)
	v.SetDefault(key+".reduced_close_throttle", spec.ReducedCloseThrottle)
}

func setDefaults(v *viper.Viper) {
	def := controller.DefaultConfig()

	v.SetDefault("log_level", logger.InfoLevel)
	v.SetDefault("schedule", "/etc/coop-door/schedule.json")
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", "/run/coop-door/sleep-memory")
	v.SetDefault("hardware.i2c_bus", i2cbus.DefaultBus)
	v.SetDefault("hardware.rtc_addr", rtc.DefaultAddr)
	v.SetDefault("hardware.motorkit_addr", motor.DefaultAddr)
	v.SetDefault("hardware.pin_switch", gpio.DefaultPinSwitch)
	v.SetDefault("hardware.pin_wake", gpio.DefaultPinWake)
	v.SetDefault("hardware.pin_driver_power", gpio.DefaultPinDriverPower)
	v.SetDefault("hardware.pin_indicator", gpio.DefaultPinIndicator)
	v.SetDefault("switch.settle", def.SwitchSettle)
	v.SetDefault("switch.open_level", def.SwitchOpenLevel)
	v.SetDefault("blink", def.Blink)
	setActuatorDefaults(v, "door", 1, def.Door)
	setActuatorDefaults(v, "lock", 2, def.Lock)
}

// Load reads the config file at path, or searches for config.yml in
// /etc/coop-door and the working directory when path is empty. A missing
// file is not an error; defaults and environment variables still apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/coop-door")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validThrottle(v float64) bool {
	return v >= -1 && v <= 1
}

func (a ActuatorConfig) validate(key string) []string {
	var errs []string
	if a.Motor < 1 || a.Motor > 4 {
		errs = append(errs, key+".motor must be between 1 and 4")
	}
	if a.Threshold <= 0 {
		errs = append(errs, key+".threshold must be positive")
	}
	// The timer holds whole seconds in one byte.
	if a.Threshold >= 256*time.Second {
		errs = append(errs, key+".threshold must be under 256s")
	}
	if !validThrottle(a.OpenThrottle) || !validThrottle(a.CloseThrottle) ||
		!validThrottle(a.ReducedOpenThrottle) || !validThrottle(a.ReducedCloseThrottle) {
		errs = append(errs, key+" throttles must be within [-1, 1]")
	}
	return errs
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if !logger.ValidLevel(c.LogLevel) {
		errs = append(errs, "log_level must be one of debug, info, warn, error")
	}

	switch c.Store.Backend {
	case BackendFile, BackendSQLite:
		if c.Store.Path == "" {
			errs = append(errs, "store.path is required")
		}
	case BackendMemory:
	default:
		errs = append(errs, "store.backend must be file, sqlite or memory")
	}

	if c.Schedule == "" {
		errs = append(errs, "schedule is required")
	}
	if c.Switch.Settle < 0 {
		errs = append(errs, "switch.settle must not be negative")
	}
	if c.Blink <= 0 {
		errs = append(errs, "blink must be positive")
	}

	errs = append(errs, c.Door.validate("door")...)
	errs = append(errs, c.Lock.validate("lock")...)
	if c.Door.Motor == c.Lock.Motor {
		errs = append(errs, "door.motor and lock.motor must differ")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Spec returns the actuator settings for the controller.
func (a ActuatorConfig) Spec(name string) logic.ActuatorSpec {
	return logic.ActuatorSpec{
		Name:                 name,
		Threshold:            a.Threshold,
		OpenThrottle:         a.OpenThrottle,
		CloseThrottle:        a.CloseThrottle,
		ReducedThreshold:     a.ReducedThreshold,
		ReducedOpenThrottle:  a.ReducedOpenThrottle,
		ReducedCloseThrottle: a.ReducedCloseThrottle,
	}
}

// Controller returns the controller tunables.
func (c *Config) Controller() controller.Config {
	return controller.Config{
		Lock:            c.Lock.Spec("lock"),
		Door:            c.Door.Spec("door"),
		SwitchSettle:    c.Switch.Settle,
		SwitchOpenLevel: c.Switch.OpenLevel,
		Blink:           c.Blink,
	}
}
