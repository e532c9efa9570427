package device

import "fmt"

// CoolingConfig holds the air conditioner parameters.
type CoolingConfig struct {
	ID                    string  `yaml:"id" json:"id"`
	COP                   float64 `yaml:"cop" json:"cop"`
	CoolingCapacity       float64 `yaml:"cooling_capacity" json:"cooling_capacity"` // W
	LatentCoolingFraction float64 `yaml:"latent_cooling_fraction" json:"latent_cooling_fraction"`
}

func (c CoolingConfig) Validate() error {
	if c.COP <= 0 {
		return fmt.Errorf("cooling unit %s: %w: %v", c.ID, ErrInvalidCOP, c.COP)
	}
	if c.CoolingCapacity < 0 {
		return fmt.Errorf("cooling unit %s: %w: %v", c.ID, ErrNegativeCapacity, c.CoolingCapacity)
	}
	if c.LatentCoolingFraction < 0 || c.LatentCoolingFraction > 1 {
		return fmt.Errorf("cooling unit %s: %w: %v", c.ID, ErrInvalidLatentFraction, c.LatentCoolingFraction)
	}
	return nil
}

// CoolingUnit is an air conditioner. Part of the cooling capacity goes
// into latent (humidity) cooling and does not lower the air temperature.
type CoolingUnit struct {
	cfg      CoolingConfig
	turnedOn bool
}

func NewCoolingUnit(cfg CoolingConfig) (*CoolingUnit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &CoolingUnit{cfg: cfg}, nil
}

// Step turns the unit on above target+tolerance and off below target.
func (c *CoolingUnit) Step(targetTemp, toleranceTemp, currentTemp float64) {
	band := DeadBand{Low: targetTemp, High: targetTemp + toleranceTemp, OnAbove: true}
	c.turnedOn = band.Next(currentTemp, c.turnedOn)
}

func (c *CoolingUnit) HeatOutput() float64 {
	if !c.turnedOn {
		return 0
	}
	return -c.cfg.CoolingCapacity / (1 + c.cfg.LatentCoolingFraction)
}

func (c *CoolingUnit) PowerConsumption() float64 {
	if !c.turnedOn {
		return 0
	}
	return c.cfg.CoolingCapacity / c.cfg.COP
}

func (c *CoolingUnit) TurnedOn() bool { return c.turnedOn }
func (c *CoolingUnit) thermalDevice() {}
