package device

import "fmt"

// HeatingConfig holds the electric heater parameters.
type HeatingConfig struct {
	ID              string  `yaml:"id" json:"id"`
	HeatingCapacity float64 `yaml:"heating_capacity" json:"heating_capacity"` // W
}

func (c HeatingConfig) Validate() error {
	if c.HeatingCapacity < 0 {
		return fmt.Errorf("heating unit %s: %w: %v", c.ID, ErrNegativeCapacity, c.HeatingCapacity)
	}
	return nil
}

// HeatingUnit is a resistive heater: every watt drawn becomes heat.
type HeatingUnit struct {
	cfg      HeatingConfig
	turnedOn bool
}

func NewHeatingUnit(cfg HeatingConfig) (*HeatingUnit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &HeatingUnit{cfg: cfg}, nil
}

// Step turns the heater off above target and on below target-tolerance.
func (h *HeatingUnit) Step(targetTemp, toleranceTemp, currentTemp float64) {
	band := DeadBand{Low: targetTemp - toleranceTemp, High: targetTemp, OnAbove: false}
	h.turnedOn = band.Next(currentTemp, h.turnedOn)
}

func (h *HeatingUnit) HeatOutput() float64 {
	if !h.turnedOn {
		return 0
	}
	return h.cfg.HeatingCapacity
}

func (h *HeatingUnit) PowerConsumption() float64 {
	if !h.turnedOn {
		return 0
	}
	return h.cfg.HeatingCapacity
}

func (h *HeatingUnit) TurnedOn() bool { return h.turnedOn }
func (h *HeatingUnit) thermalDevice() {}
