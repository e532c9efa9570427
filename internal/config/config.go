// Package config loads the household simulator configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"household_simulator/internal/clock"
	"household_simulator/internal/device"
	"household_simulator/internal/ev"
	"household_simulator/internal/grid"
	"household_simulator/internal/house"
	"household_simulator/internal/model"
	"household_simulator/internal/store"
	"household_simulator/internal/weather"
)

// Config holds every parameter of one simulated household.
type Config struct {
	StartTime string         `yaml:"start_time" json:"start_time"` // clock.Layout, UTC
	Outdoor   weather.Config `yaml:"outdoor" json:"outdoor"`
	House     house.Config   `yaml:"house" json:"house"`
	Grid      grid.Config    `yaml:"grid" json:"grid"`

	HistoryLimit int `yaml:"history_limit" json:"history_limit"` // snapshots kept for sim:history
}

// Default returns the reference household: a well insulated house with
// a 5 kW air conditioner, a 10 kW heater and a 40 kWh vehicle.
func Default() Config {
	return Config{
		StartTime: "2020-01-01 00:00:00",
		Outdoor: weather.Config{
			MaxMeanTemp:    25,
			MinMeanTemp:    -15,
			DailyVariation: 10,
		},
		House: house.Config{
			InitAirTemp:   20,
			InitMassTemp:  20,
			TargetTemp:    20,
			ToleranceTemp: 2,
			ThermalParams: house.ThermalParams{
				Ua: 2.18e02,
				Ca: 9.08e05,
				Hm: 2.84e03,
				Cm: 3.45e06,
			},
			CoolingUnit: device.CoolingConfig{
				ID:                    "hvac_1",
				COP:                   2.5,
				CoolingCapacity:       5000,
				LatentCoolingFraction: 0.35,
			},
			HeatingUnit: device.HeatingConfig{
				ID:              "heater_1",
				HeatingCapacity: 10000,
			},
			EV: ev.Config{
				BatteryCapacity:     40000,
				MaxAutonomy:         200,
				ChargingPower:       7000,
				ChargingEfficiency:  0.9,
				Plugged:             true,
				InitialBatteryLevel: 20000,
				AutonomyObjective:   200,
			},
		},
		Grid: grid.Config{
			DayPrice:    0.0000650,
			PeakPrice:   0.000520,
			MinTemp:     -10,
			MaxTemp:     30,
			TodayPolicy: model.PolicyFixed,
		},
		HistoryLimit: store.DefaultLimit,
	}
}

// Load reads a YAML file over the defaults, then applies environment
// variable overrides. A missing file yields the defaults. The result is
// validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if len(data) > 0 {
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	if v := os.Getenv("HOUSEHOLD_START_TIME"); v != "" {
		cfg.StartTime = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section of the configuration.
func (c *Config) Validate() error {
	if _, err := c.Start(); err != nil {
		return err
	}
	if err := c.Outdoor.Validate(); err != nil {
		return fmt.Errorf("outdoor: %w", err)
	}
	if err := c.House.Validate(); err != nil {
		return fmt.Errorf("house: %w", err)
	}
	if err := c.Grid.Validate(); err != nil {
		return fmt.Errorf("grid: %w", err)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("history_limit must be positive, got %d", c.HistoryLimit)
	}
	return nil
}

// Start returns the parsed simulation start time.
func (c *Config) Start() (time.Time, error) {
	t, err := clock.Parse(c.StartTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("start_time %q: %w", c.StartTime, err)
	}
	return t, nil
}

// Marshal encodes the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
