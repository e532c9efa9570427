package house

import (
	"errors"
	"fmt"
	"time"

	"household_simulator/internal/device"
	"household_simulator/internal/ev"
	"household_simulator/internal/model"
)

var ErrNegativeTolerance = errors.New("tolerance temperature must not be negative")

// Config holds the house envelope, its thermostat setpoint and the
// devices it owns.
type Config struct {
	InitAirTemp   float64 `yaml:"init_air_temp" json:"init_air_temp"`   // °C
	InitMassTemp  float64 `yaml:"init_mass_temp" json:"init_mass_temp"` // °C
	TargetTemp    float64 `yaml:"target_temp" json:"target_temp"`       // °C
	ToleranceTemp float64 `yaml:"tolerance_temp" json:"tolerance_temp"` // °C

	ThermalParams `yaml:",inline"`

	CoolingUnit device.CoolingConfig `yaml:"cooling_unit" json:"cooling_unit"`
	HeatingUnit device.HeatingConfig `yaml:"heating_unit" json:"heating_unit"`
	EV          ev.Config            `yaml:"ev" json:"ev"`
}

// House owns the air and mass temperatures and steps its devices.
type House struct {
	solver *ThermalSolver

	currentTemp   float64
	massTemp      float64
	targetTemp    float64
	toleranceTemp float64

	cooling *device.CoolingUnit
	heating *device.HeatingUnit
	charger *ev.Charger
}

// Validate checks the house and every device configuration.
func (c Config) Validate() error {
	_, err := New(c)
	return err
}

func New(cfg Config) (*House, error) {
	if cfg.ToleranceTemp < 0 {
		return nil, fmt.Errorf("%w: %v", ErrNegativeTolerance, cfg.ToleranceTemp)
	}
	solver, err := NewThermalSolver(cfg.ThermalParams)
	if err != nil {
		return nil, fmt.Errorf("house thermal model: %w", err)
	}
	cooling, err := device.NewCoolingUnit(cfg.CoolingUnit)
	if err != nil {
		return nil, err
	}
	heating, err := device.NewHeatingUnit(cfg.HeatingUnit)
	if err != nil {
		return nil, err
	}
	charger, err := ev.NewCharger(cfg.EV)
	if err != nil {
		return nil, fmt.Errorf("vehicle charger: %w", err)
	}
	return &House{
		solver:        solver,
		currentTemp:   cfg.InitAirTemp,
		massTemp:      cfg.InitMassTemp,
		targetTemp:    cfg.TargetTemp,
		toleranceTemp: cfg.ToleranceTemp,
		cooling:       cooling,
		heating:       heating,
		charger:       charger,
	}, nil
}

// Validate checks an action against the current state without applying it.
func (h *House) Validate(a model.Action) error {
	return h.charger.Validate(a.EVAction)
}

// Step integrates the house over dt with outdoor temperature odTemp,
// then lets the thermostat and the charger react to the new state.
// The devices' heat output during the interval is the output they had
// when it started.
func (h *House) Step(odTemp float64, dt time.Duration, a model.Action) error {
	if err := h.Validate(a); err != nil {
		return err
	}
	if a.TargetTempCommand != nil {
		h.targetTemp = *a.TargetTempCommand
	}

	h.currentTemp, h.massTemp = h.solver.Integrate(h.currentTemp, h.massTemp, odTemp, h.heatOutput(), dt)

	for _, d := range h.devices() {
		d.Step(h.targetTemp, h.toleranceTemp, h.currentTemp)
	}
	return h.charger.Step(a.EVAction, dt)
}

func (h *House) devices() []device.ThermalDevice {
	return []device.ThermalDevice{h.cooling, h.heating}
}

func (h *House) heatOutput() float64 {
	var q float64
	for _, d := range h.devices() {
		q += d.HeatOutput()
	}
	return q
}

// ThermalPowerConsumption is the power drawn by the cooling and heating
// units in W.
func (h *House) ThermalPowerConsumption() float64 {
	var p float64
	for _, d := range h.devices() {
		p += d.PowerConsumption()
	}
	return p
}

// PowerConsumption is the total power drawn by the house in W.
func (h *House) PowerConsumption() float64 {
	return h.ThermalPowerConsumption() + h.charger.PowerConsumption()
}

func (h *House) State() model.HouseState {
	return model.HouseState{
		CurrentTemp: h.currentTemp,
		TargetTemp:  h.targetTemp,
		CoolingUnit: deviceState(h.cooling),
		HeatingUnit: deviceState(h.heating),
		EV:          h.charger.State(),

		HouseConsumption: h.PowerConsumption(),
	}
}

func deviceState(d device.ThermalDevice) model.DeviceState {
	return model.DeviceState{
		TurnedOn:         d.TurnedOn(),
		PowerConsumption: d.PowerConsumption(),
	}
}
