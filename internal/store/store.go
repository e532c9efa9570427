// Package store keeps the recent trajectory of a simulation in memory.
package store

import (
	"sort"
	"sync"
	"time"

	"household_simulator/internal/model"
)

// DefaultLimit is one week of one-minute steps.
const DefaultLimit = 7 * 24 * 60

// TimeRange is a closed interval of simulated time.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// History holds state snapshots sorted by simulated time, dropping the
// oldest once the limit is reached.
type History struct {
	mu     sync.RWMutex
	limit  int
	states []model.State
}

// New returns an empty history. A non-positive limit means DefaultLimit.
func New(limit int) *History {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &History{limit: limit}
}

// Add records a snapshot. Snapshots at or after st.Time are replaced,
// so a zero-length step overwrites the state it started from.
func (h *History) Add(st model.State) {
	h.mu.Lock()
	defer h.mu.Unlock()

	idx := sort.Search(len(h.states), func(i int) bool {
		return !h.states[i].Time.Before(st.Time)
	})
	h.states = append(h.states[:idx], st)

	if over := len(h.states) - h.limit; over > 0 {
		h.states = append(h.states[:0], h.states[over:]...)
	}
}

// Len returns the number of recorded snapshots.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.states)
}

// TimeRange returns the span covered by the history.
func (h *History) TimeRange() (TimeRange, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.states) == 0 {
		return TimeRange{}, false
	}
	return TimeRange{
		Start: h.states[0].Time,
		End:   h.states[len(h.states)-1].Time,
	}, true
}

// InRange returns snapshots between start (inclusive) and end
// (exclusive). A zero start or end leaves that side open.
func (h *History) InRange(start, end time.Time) []model.State {
	h.mu.RLock()
	defer h.mu.RUnlock()

	startIdx := 0
	if !start.IsZero() {
		startIdx = sort.Search(len(h.states), func(i int) bool {
			return !h.states[i].Time.Before(start)
		})
	}
	endIdx := len(h.states)
	if !end.IsZero() {
		endIdx = sort.Search(len(h.states), func(i int) bool {
			return !h.states[i].Time.Before(end)
		})
	}

	if startIdx >= endIdx {
		return nil
	}

	result := make([]model.State, endIdx-startIdx)
	copy(result, h.states[startIdx:endIdx])
	return result
}

// At returns the most recent snapshot at or before t.
func (h *History) At(t time.Time) (model.State, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	// First snapshot after t
	idx := sort.Search(len(h.states), func(i int) bool {
		return h.states[i].Time.After(t)
	})
	if idx == 0 {
		return model.State{}, false
	}
	return h.states[idx-1], true
}
