package weather

import (
	"errors"
	"fmt"
	"math"
	"time"

	"household_simulator/internal/clock"
)

var ErrInvalidMeanRange = errors.New("max mean temperature must not be below min mean temperature")

// Config describes the seasonal and daily outdoor temperature swing (°C).
type Config struct {
	MaxMeanTemp    float64 `yaml:"max_mean_temp" json:"max_mean_temp"`
	MinMeanTemp    float64 `yaml:"min_mean_temp" json:"min_mean_temp"`
	DailyVariation float64 `yaml:"daily_variation" json:"daily_variation"`
}

func (c Config) Validate() error {
	if c.MaxMeanTemp < c.MinMeanTemp {
		return fmt.Errorf("%w: max %v, min %v", ErrInvalidMeanRange, c.MaxMeanTemp, c.MinMeanTemp)
	}
	return nil
}

// Model is the outdoor temperature as a pure function of time: a yearly
// cosine (coldest January 1st, hottest July 1st) plus a daily cosine
// (coldest at midnight, hottest at noon).
type Model struct {
	cfg Config
}

func NewModel(cfg Config) (*Model, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Model{cfg: cfg}, nil
}

// Temperature returns the outdoor temperature at t in °C.
func (m *Model) Temperature(t time.Time) float64 {
	cal := clock.Decompose(t)
	return m.MeanTemperature(t) + math.Cos(float64(cal.Hour)/24*2*math.Pi+math.Pi)*m.cfg.DailyVariation/2
}

// MeanTemperature returns the daily mean temperature for t's day of year.
func (m *Model) MeanTemperature(t time.Time) float64 {
	cal := clock.Decompose(t)
	halfSwing := (m.cfg.MaxMeanTemp - m.cfg.MinMeanTemp) / 2
	mid := (m.cfg.MaxMeanTemp + m.cfg.MinMeanTemp) / 2
	return -math.Cos(float64(cal.DayOfYear)/365*2*math.Pi)*halfSwing + mid
}
