package ev

import (
	"errors"
	"fmt"
	"time"

	"household_simulator/internal/model"
)

var (
	ErrEndtripAutonomyRequired = errors.New("endtrip autonomy is required when plugging in an unplugged vehicle")
	ErrInvalidConfig           = errors.New("invalid vehicle charger configuration")
)

// Config holds the vehicle and charger parameters.
type Config struct {
	BatteryCapacity    float64 `yaml:"battery_capacity" json:"battery_capacity"` // Wh
	MaxAutonomy        float64 `yaml:"max_autonomy" json:"max_autonomy"`         // km at full charge
	ChargingPower      float64 `yaml:"charging_power" json:"charging_power"`     // W delivered to the battery
	ChargingEfficiency float64 `yaml:"charging_efficiency" json:"charging_efficiency"`

	// Initial state
	Plugged             bool    `yaml:"plugged" json:"plugged"`
	InitialBatteryLevel float64 `yaml:"initial_battery_level" json:"initial_battery_level"` // Wh
	AutonomyObjective   float64 `yaml:"autonomy_objective" json:"autonomy_objective"`       // km
}

func (c Config) Validate() error {
	switch {
	case c.BatteryCapacity <= 0:
		return fmt.Errorf("%w: battery capacity must be positive: %v", ErrInvalidConfig, c.BatteryCapacity)
	case c.MaxAutonomy <= 0:
		return fmt.Errorf("%w: max autonomy must be positive: %v", ErrInvalidConfig, c.MaxAutonomy)
	case c.ChargingPower < 0:
		return fmt.Errorf("%w: charging power must not be negative: %v", ErrInvalidConfig, c.ChargingPower)
	case c.ChargingEfficiency <= 0 || c.ChargingEfficiency > 1:
		return fmt.Errorf("%w: charging efficiency must be in (0, 1]: %v", ErrInvalidConfig, c.ChargingEfficiency)
	case c.Plugged && (c.InitialBatteryLevel < 0 || c.InitialBatteryLevel > c.BatteryCapacity):
		return fmt.Errorf("%w: initial battery level must be in [0, %v]: %v", ErrInvalidConfig, c.BatteryCapacity, c.InitialBatteryLevel)
	}
	return nil
}

// Charger simulates an electric vehicle and its home charger. While the
// vehicle is away its charge is unknown, so battery level and autonomy
// are only tracked while plugged.
type Charger struct {
	cfg Config

	plugged           bool
	charging          bool
	batteryWh         float64
	autonomyObjective float64
}

func NewCharger(cfg Config) (*Charger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Charger{
		cfg:               cfg,
		plugged:           cfg.Plugged,
		autonomyObjective: cfg.AutonomyObjective,
	}
	if c.plugged {
		c.batteryWh = cfg.InitialBatteryLevel
		c.charging = c.autonomy() < c.autonomyObjective
	}
	return c, nil
}

// Validate checks an action against the current state without applying it.
func (c *Charger) Validate(a model.EVAction) error {
	if a.PlugAction != nil && *a.PlugAction == model.Plug && !c.plugged && a.EndtripAutonomy == nil {
		return ErrEndtripAutonomyRequired
	}
	return nil
}

// Step applies the action and charges the battery for dt.
func (c *Charger) Step(a model.EVAction, dt time.Duration) error {
	if err := c.Validate(a); err != nil {
		return err
	}

	if a.PlugAction != nil {
		switch *a.PlugAction {
		case model.Plug:
			if !c.plugged {
				c.batteryWh = c.levelForAutonomy(*a.EndtripAutonomy)
			}
			c.plugged = true
		case model.Unplug:
			c.plugged = false
			c.batteryWh = 0
		}
	}

	if a.AutonomyObjective != nil {
		c.autonomyObjective = *a.AutonomyObjective
	}

	if !c.plugged {
		c.charging = false
		return nil
	}

	c.charging = c.autonomy() < c.autonomyObjective
	if c.charging && dt > 0 {
		c.batteryWh += c.cfg.ChargingPower * dt.Seconds() / 3600
		if c.batteryWh > c.cfg.BatteryCapacity {
			c.batteryWh = c.cfg.BatteryCapacity
		}
	}
	return nil
}

// PowerConsumption is the power drawn from the grid in W, including
// charger losses.
func (c *Charger) PowerConsumption() float64 {
	if !c.charging {
		return 0
	}
	return c.cfg.ChargingPower / c.cfg.ChargingEfficiency
}

// BatteryLevel returns the stored energy in Wh, or nil while unplugged.
func (c *Charger) BatteryLevel() *float64 {
	if !c.plugged {
		return nil
	}
	v := c.batteryWh
	return &v
}

// CurrentAutonomy returns the driving range in km, or nil while unplugged.
func (c *Charger) CurrentAutonomy() *float64 {
	if !c.plugged {
		return nil
	}
	v := c.autonomy()
	return &v
}

func (c *Charger) PlugStatus() model.PlugStatus {
	if c.plugged {
		return model.Plugged
	}
	return model.Unplugged
}

func (c *Charger) ChargingStatus() model.ChargingStatus {
	if c.charging {
		return model.Charging
	}
	return model.Idle
}

// State returns a snapshot of the charger.
func (c *Charger) State() model.EVState {
	return model.EVState{
		BatteryLevel:      c.BatteryLevel(),
		CurrentAutonomy:   c.CurrentAutonomy(),
		PlugStatus:        c.PlugStatus(),
		ChargingStatus:    c.ChargingStatus(),
		AutonomyObjective: c.autonomyObjective,
		PowerConsumption:  c.PowerConsumption(),
	}
}

func (c *Charger) autonomy() float64 {
	return c.cfg.MaxAutonomy * c.batteryWh / c.cfg.BatteryCapacity
}

// levelForAutonomy converts a reported range back into stored energy,
// clamped to the battery's physical limits.
func (c *Charger) levelForAutonomy(km float64) float64 {
	wh := km * c.cfg.BatteryCapacity / c.cfg.MaxAutonomy
	if wh < 0 {
		return 0
	}
	if wh > c.cfg.BatteryCapacity {
		return c.cfg.BatteryCapacity
	}
	return wh
}
