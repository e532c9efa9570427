package clock

import "time"

// Layout is the wall-clock format used for configured start times.
const Layout = "2006-01-02 15:04:05"

// Clock is the simulation clock. It only moves when Advance is called.
type Clock struct {
	now time.Time
}

// New creates a clock at the given instant, normalized to UTC.
func New(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

// Parse reads a wall-clock timestamp in Layout as a UTC instant. The
// household's local time is modelled without time zones or DST.
func Parse(s string) (time.Time, error) {
	return time.ParseInLocation(Layout, s, time.UTC)
}

// Now returns the current simulated instant.
func (c *Clock) Now() time.Time {
	return c.now
}

// Advance moves the clock forward by d. Negative durations are ignored.
func (c *Clock) Advance(d time.Duration) time.Time {
	if d > 0 {
		c.now = c.now.Add(d)
	}
	return c.now
}

// Calendar is the decomposition of an instant into calendar fields.
type Calendar struct {
	Year      int
	DayOfYear int // 1 for January 1st
	Hour      int
	Minute    int
	Second    int
}

// Decompose returns the calendar fields of t, evaluated in UTC.
func Decompose(t time.Time) Calendar {
	t = t.UTC()
	return Calendar{
		Year:      t.Year(),
		DayOfYear: t.YearDay(),
		Hour:      t.Hour(),
		Minute:    t.Minute(),
		Second:    t.Second(),
	}
}

// StartOfDay returns midnight of t's calendar day.
func StartOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Boundaries returns every whole-hour instant in (start, end], in
// chronological order. A boundary hit exactly at end belongs to this
// span, one at start to the previous span.
func Boundaries(start, end time.Time) []time.Time {
	if !start.Before(end) {
		return nil
	}
	var out []time.Time
	b := start.UTC().Truncate(time.Hour).Add(time.Hour)
	for ; within(b, start, end); b = b.Add(time.Hour) {
		out = append(out, b)
	}
	return out
}

func within(b, start, end time.Time) bool {
	return b.After(start) && !b.After(end)
}
