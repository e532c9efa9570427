package simulator

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"household_simulator/internal/clock"
	"household_simulator/internal/config"
	"household_simulator/internal/grid"
	"household_simulator/internal/house"
	"household_simulator/internal/model"
	"household_simulator/internal/weather"
)

// ForecastHorizon is how far ahead the outdoor temperature is forecast
// for the tariff publication.
const ForecastHorizon = 12 * time.Hour

var ErrNegativeStep = errors.New("step duration must not be negative")

// Option configures a Simulator.
type Option func(*Simulator)

// WithLogger sets the logger used for tariff events.
func WithLogger(l *slog.Logger) Option {
	return func(s *Simulator) {
		s.logger = l
	}
}

// Simulator advances one household and its grid connection in time.
// It is not safe for concurrent use.
type Simulator struct {
	logger *slog.Logger

	clock   *clock.Clock
	outdoor *weather.Model
	house   *house.House
	grid    *grid.Grid

	outdoorTemp float64
}

// New builds a simulator at the configured start time.
func New(cfg config.Config, opts ...Option) (*Simulator, error) {
	s := &Simulator{logger: slog.Default()}
	for _, o := range opts {
		o(s)
	}

	start, err := cfg.Start()
	if err != nil {
		return nil, err
	}
	s.clock = clock.New(start)

	if s.outdoor, err = weather.NewModel(cfg.Outdoor); err != nil {
		return nil, fmt.Errorf("outdoor: %w", err)
	}
	if s.house, err = house.New(cfg.House); err != nil {
		return nil, fmt.Errorf("house: %w", err)
	}
	if s.grid, err = grid.New(cfg.Grid, start, s.logger); err != nil {
		return nil, fmt.Errorf("grid: %w", err)
	}
	s.outdoorTemp = s.outdoor.Temperature(s.clock.Now())
	return s, nil
}

// Step applies the action and advances the simulation by dt. The grid
// bills the consumption the house had before this step. A rejected
// action leaves the simulator untouched.
func (s *Simulator) Step(a model.Action, dt time.Duration) (model.State, error) {
	if dt < 0 {
		return model.State{}, fmt.Errorf("%w: %v", ErrNegativeStep, dt)
	}
	if err := s.house.Validate(a); err != nil {
		return model.State{}, err
	}

	now := s.clock.Advance(dt)
	s.outdoorTemp = s.outdoor.Temperature(now)

	consumption := s.house.PowerConsumption()
	if err := s.house.Step(s.outdoorTemp, dt, a); err != nil {
		return model.State{}, err
	}

	forecast := s.outdoor.Temperature(now.Add(ForecastHorizon))
	s.grid.Step(forecast, consumption, dt, now)

	return s.State(), nil
}

// State returns a snapshot of the simulation. It shares no memory
// with the simulator.
func (s *Simulator) State() model.State {
	return model.State{
		HouseState:  s.house.State(),
		GridState:   s.grid.State(),
		Time:        s.clock.Now(),
		OutdoorTemp: s.outdoorTemp,
	}
}

// Now returns the simulated time.
func (s *Simulator) Now() time.Time {
	return s.clock.Now()
}
