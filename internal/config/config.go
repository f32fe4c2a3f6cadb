// Package config defines the data structures related to configuration and
// includes functions for loading and validating the config.
package config

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iwvelando/finance-schedule/pkg/constants"
	"github.com/iwvelando/finance-schedule/pkg/datetime"
	"github.com/iwvelando/finance-schedule/pkg/loans"
	"github.com/iwvelando/finance-schedule/pkg/validation"
	"github.com/spf13/viper"
)

// DateLayout is the format expected for dates in config files and is also
// the output date format.
const DateLayout = constants.DateLayout

// Cache backends.
const (
	CacheBackendNone   = "none"
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
)

const defaultCacheTTL = 10 * time.Minute

// Configuration holds all configuration for finance-schedule.
type Configuration struct {
	Logging     LoggingConfig   `yaml:"logging,omitempty"`
	Output      OutputConfig    `yaml:"output,omitempty"`
	Engine      EngineConfig    `yaml:"engine,omitempty"`
	RateTable   RateTable       `yaml:"rateTable,omitempty" mapstructure:"rateTable"`
	Cache       CacheConfig     `yaml:"cache,omitempty"`
	Tracing     TracingConfig   `yaml:"tracing,omitempty"`
	Optimizer   OptimizerConfig `yaml:"optimizer,omitempty"`
	Simulations []Simulation    `yaml:"simulations"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format   string `yaml:"format,omitempty"`   // pretty, csv
	Currency string `yaml:"currency,omitempty"` // ISO 4217 code
}

// EngineConfig holds defaults applied to every simulation.
type EngineConfig struct {
	DayCount string `yaml:"dayCount,omitempty" mapstructure:"dayCount"` // actual, commercial
}

// CacheConfig selects where computed schedules are memoized.
type CacheConfig struct {
	Backend       string        `yaml:"backend,omitempty"` // none, memory, redis
	RedisAddress  string        `yaml:"redisAddress,omitempty" mapstructure:"redisAddress"`
	RedisPassword string        `yaml:"redisPassword,omitempty" mapstructure:"redisPassword"`
	RedisDB       int           `yaml:"redisDB,omitempty" mapstructure:"redisDB"`
	TTL           time.Duration `yaml:"ttl,omitempty"`
}

// TracingConfig configures span export. An empty endpoint disables export.
type TracingConfig struct {
	Endpoint    string `yaml:"endpoint,omitempty"`
	ServiceName string `yaml:"serviceName,omitempty" mapstructure:"serviceName"`
	Insecure    bool   `yaml:"insecure,omitempty"`
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.AutomaticEnv()

	v.SetConfigType("yml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	return decode(v)
}

// LoadConfigurationFromReader loads a YAML-formatted configuration from r,
// as used for uploaded files.
func LoadConfigurationFromReader(r io.Reader) (*Configuration, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading configuration, %s", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("configuration is empty")
	}

	v := viper.New()
	v.SetConfigType("yml")
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("error parsing configuration, %s", err)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Configuration, error) {
	var configuration Configuration
	if err := v.Unmarshal(&configuration); err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}
	configuration.ApplyDefaults()
	return &configuration, nil
}

// ApplyDefaults fills unset options with their defaults.
func (c *Configuration) ApplyDefaults() {
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
	if c.Output.Currency == "" {
		c.Output.Currency = constants.DefaultCurrency
	}
	c.Output.Currency = strings.ToUpper(strings.TrimSpace(c.Output.Currency))
	if c.Engine.DayCount == "" {
		c.Engine.DayCount = datetime.DayCountActual.String()
	}
	if len(c.RateTable) == 0 {
		c.RateTable = DefaultRateTable()
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheBackendNone
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = defaultCacheTTL
	}
	if c.Tracing.ServiceName == "" {
		c.Tracing.ServiceName = constants.DefaultServiceName
	}
	c.Optimizer.Normalize()
}

// Validate returns the first setting that would make the configuration
// unusable. Problems with a single simulation surface when it is converted.
func (c *Configuration) Validate() error {
	if err := validation.ValidateOutputFormat(c.Output.Format); err != nil {
		return err
	}
	if err := validation.ValidateCurrency(c.Output.Currency); err != nil {
		return err
	}
	if _, err := datetime.ParseDayCount(c.Engine.DayCount); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := c.RateTable.Validate(); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case CacheBackendNone, CacheBackendMemory:
	case CacheBackendRedis:
		if strings.TrimSpace(c.Cache.RedisAddress) == "" {
			return fmt.Errorf("cache: the redis backend requires redisAddress")
		}
	default:
		return fmt.Errorf("cache: unknown backend %q", c.Cache.Backend)
	}
	return nil
}

// ActiveSimulations returns the simulations marked active, in order.
func (c *Configuration) ActiveSimulations() []Simulation {
	var active []Simulation
	for _, sim := range c.Simulations {
		if sim.Active {
			active = append(active, sim)
		}
	}
	return active
}

// FindSimulation returns the simulation with the given name.
func (c *Configuration) FindSimulation(name string) (Simulation, bool) {
	for _, sim := range c.Simulations {
		if sim.Name == name {
			return sim, true
		}
	}
	return Simulation{}, false
}

// ValidateConfiguration performs general validation of the configuration and returns warnings
func (c *Configuration) ValidateConfiguration() []string {
	var sims []validation.SimulationInfo
	for _, sim := range c.Simulations {
		if !sim.Active {
			continue
		}
		info := validation.SimulationInfo{
			Name:              sim.Name,
			Modality:          sim.Modality,
			BalloonPolicy:     loans.StandardInterval.String(),
			Installments:      sim.Installments,
			FirstBalloonMonth: sim.FirstBalloonMonth,
			BalloonMonths:     sim.BalloonMonths,
			MonthlyRate:       sim.MonthlyRate,
		}
		if policy, err := loans.ParseBalloonPolicy(sim.BalloonPolicy); err == nil {
			info.BalloonPolicy = policy.String()
		}
		if rate, ok := c.RateTable.RateFor(sim.Installments); ok {
			info.TableRate = &rate
		}
		sims = append(sims, info)
	}

	validator := validation.ConfigValidator{Simulations: sims}
	return validator.ValidateAll()
}
