package device

import "errors"

var (
	ErrInvalidCOP            = errors.New("coefficient of performance (COP) must be positive")
	ErrNegativeCapacity      = errors.New("capacity must not be negative")
	ErrInvalidLatentFraction = errors.New("latent cooling fraction must be between 0 and 1")
)

// ThermalDevice is a thermostatically controlled load. The set of
// implementations is closed: CoolingUnit and HeatingUnit.
type ThermalDevice interface {
	// Step applies the hysteresis rule for the given setpoint.
	Step(targetTemp, toleranceTemp, currentTemp float64)
	// HeatOutput is the heat injected into the air node in W
	// (negative when cooling).
	HeatOutput() float64
	// PowerConsumption is the electric power drawn in W.
	PowerConsumption() float64
	TurnedOn() bool

	thermalDevice()
}

var (
	_ ThermalDevice = (*CoolingUnit)(nil)
	_ ThermalDevice = (*HeatingUnit)(nil)
)

// DeadBand is the closed temperature range in which a device keeps its
// previous on/off state. OnAbove selects which side turns the device on:
// true for cooling (on above High, off below Low), false for heating
// (on below Low, off above High).
type DeadBand struct {
	Low     float64
	High    float64
	OnAbove bool
}

// Contains reports whether temp lies inside the band.
func (b DeadBand) Contains(temp float64) bool {
	return temp >= b.Low && temp <= b.High
}

// Next returns the on/off state after observing temp with previous
// state on. Inside the band the state never changes.
func (b DeadBand) Next(temp float64, on bool) bool {
	switch {
	case b.Contains(temp):
		return on
	case temp > b.High:
		return b.OnAbove
	default:
		return !b.OnAbove
	}
}
