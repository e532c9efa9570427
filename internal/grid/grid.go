package grid

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"household_simulator/internal/clock"
	"household_simulator/internal/model"
)

var (
	ErrNegativePrice      = errors.New("price must not be negative")
	ErrInvalidTempRange   = errors.New("tariff min temperature must not exceed max temperature")
	ErrInvalidTodayPolicy = errors.New("today policy must be fixed or variable")
)

// Hours of the day at which the tariff changes. The day rolls over at
// midnight.
const publishHour = 19

var (
	peakStartHours = []int{6, 16}
	peakEndHours   = []int{8, 20}
)

// Config holds the tariff parameters.
type Config struct {
	DayPrice  float64 `yaml:"day_price" json:"day_price"`   // $/Wh
	PeakPrice float64 `yaml:"peak_price" json:"peak_price"` // $/Wh
	// Tomorrow is variable when the forecast temperature falls outside
	// [MinTemp, MaxTemp].
	MinTemp     float64      `yaml:"min_temp" json:"min_temp"`
	MaxTemp     float64      `yaml:"max_temp" json:"max_temp"`
	TodayPolicy model.Policy `yaml:"today_policy" json:"today_policy"`
}

func (c Config) Validate() error {
	if c.DayPrice < 0 || c.PeakPrice < 0 {
		return fmt.Errorf("%w: day %v, peak %v", ErrNegativePrice, c.DayPrice, c.PeakPrice)
	}
	if c.MinTemp > c.MaxTemp {
		return fmt.Errorf("%w: min %v, max %v", ErrInvalidTempRange, c.MinTemp, c.MaxTemp)
	}
	switch c.TodayPolicy {
	case model.PolicyFixed, model.PolicyVariable:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidTodayPolicy, c.TodayPolicy)
	}
	return nil
}

// Grid tracks the tariff policy, the current price and the running
// expense counters of the house.
type Grid struct {
	cfg    Config
	logger *slog.Logger

	todayPolicy    model.Policy
	tomorrowPolicy model.Policy
	price          float64

	totalExpenses float64
	dayExpenses   float64
	blockExpenses float64
}

// New creates the grid at the simulation start. The initial price is
// the one in force at start. A nil logger uses slog's default.
func New(cfg Config, start time.Time, logger *slog.Logger) (*Grid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	g := &Grid{
		cfg:            cfg,
		logger:         logger,
		todayPolicy:    cfg.TodayPolicy,
		tomorrowPolicy: model.PolicyUnpublished,
	}
	g.price = g.priceAt(clock.Decompose(start).Hour)
	return g, nil
}

// Step bills powerW drawn over the dt ending at now and applies every
// tariff event of the hour boundaries in (now-dt, now]. The span is
// billed in segments so energy before a boundary is charged at the old
// price into the old counters.
func (g *Grid) Step(forecastTemp, powerW float64, dt time.Duration, now time.Time) {
	if dt <= 0 {
		return
	}
	start := now.Add(-dt)
	cursor := start
	for _, b := range clock.Boundaries(start, now) {
		g.bill(powerW, b.Sub(cursor))
		g.cross(b, forecastTemp)
		cursor = b
	}
	g.bill(powerW, now.Sub(cursor))
}

func (g *Grid) bill(powerW float64, d time.Duration) {
	if d <= 0 {
		return
	}
	expense := g.price * powerW * d.Seconds() / 3600
	g.totalExpenses += expense
	g.dayExpenses += expense
	g.blockExpenses += expense
}

// cross applies the events of hour boundary b.
func (g *Grid) cross(b time.Time, forecastTemp float64) {
	hour := clock.Decompose(b).Hour

	if b.Equal(clock.StartOfDay(b)) {
		today := g.tomorrowPolicy
		if today == model.PolicyUnpublished {
			today = model.PolicyFixed
		}
		g.logger.Debug("tariff day rollover",
			slog.Time("time", b),
			slog.String("today_policy", string(today)),
			slog.Float64("day_expenses", g.dayExpenses),
		)
		g.todayPolicy = today
		g.tomorrowPolicy = model.PolicyUnpublished
		g.dayExpenses = 0
	}

	if hour == publishHour {
		g.tomorrowPolicy = model.PolicyFixed
		if forecastTemp < g.cfg.MinTemp || forecastTemp > g.cfg.MaxTemp {
			g.tomorrowPolicy = model.PolicyVariable
		}
		g.logger.Debug("tariff published",
			slog.Time("time", b),
			slog.Float64("forecast_temp", forecastTemp),
			slog.String("tomorrow_policy", string(g.tomorrowPolicy)),
		)
	}

	switch {
	case slices.Contains(peakStartHours, hour):
		g.price = g.cfg.DayPrice
		if g.todayPolicy == model.PolicyVariable {
			g.price = g.cfg.PeakPrice
		}
	case slices.Contains(peakEndHours, hour):
		g.price = g.cfg.DayPrice
	}

	if hour%2 == 0 {
		g.blockExpenses = 0
	}
}

// priceAt is the price in force during the given hour of today.
func (g *Grid) priceAt(hour int) float64 {
	if g.todayPolicy != model.PolicyVariable {
		return g.cfg.DayPrice
	}
	for i, s := range peakStartHours {
		if hour >= s && hour < peakEndHours[i] {
			return g.cfg.PeakPrice
		}
	}
	return g.cfg.DayPrice
}

func (g *Grid) State() model.GridState {
	return model.GridState{
		TodayPolicy:    g.todayPolicy,
		TomorrowPolicy: g.tomorrowPolicy,
		Price:          g.price,
		TotalExpenses:  g.totalExpenses,
		DayExpenses:    g.dayExpenses,
		BlockExpenses:  g.blockExpenses,
	}
}
