// Package runner serialises access to a Simulator shared by several
// goroutines and optionally steps it on a cron schedule.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"household_simulator/internal/log"
	"household_simulator/internal/model"
	"household_simulator/internal/simulator"
	"household_simulator/internal/store"
)

// Callback receives the state after every successful step, in step
// order. It runs under the runner's lock and must not call back into
// the Runner.
type Callback interface {
	OnState(state model.State)
}

// Runner wraps a Simulator behind a mutex and records its trajectory.
type Runner struct {
	mu       sync.Mutex
	sim      *simulator.Simulator
	history  *store.History
	callback Callback

	cron *cron.Cron
}

type Option func(*Runner)

// WithHistory records states into h instead of a store.DefaultLimit
// history.
func WithHistory(h *store.History) Option {
	return func(r *Runner) { r.history = h }
}

func New(sim *simulator.Simulator, cb Callback, opts ...Option) *Runner {
	r := &Runner{sim: sim, callback: cb}
	for _, opt := range opts {
		opt(r)
	}
	if r.history == nil {
		r.history = store.New(store.DefaultLimit)
	}
	r.history.Add(sim.State())
	return r
}

// Step advances the simulation and notifies the callback.
func (r *Runner) Step(a model.Action, dt time.Duration) (model.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	st, err := r.sim.Step(a, dt)
	if err != nil {
		return model.State{}, err
	}
	r.history.Add(st)
	if r.callback != nil {
		r.callback.OnState(st)
	}
	return st, nil
}

// State returns the current simulation state.
func (r *Runner) State() model.State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.State()
}

// History returns the store recording every successful step. It is
// safe for concurrent use.
func (r *Runner) History() *store.History {
	return r.history
}

// Describe renders the current state as plain English.
func (r *Runner) Describe() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sim.Describe()
}

// Schedule steps the simulation by dt with an empty action every time
// the cron spec (with a seconds field) fires. Any previous schedule is
// stopped first.
func (r *Runner) Schedule(ctx context.Context, spec string, dt time.Duration) error {
	if dt <= 0 {
		return fmt.Errorf("auto step duration must be positive: %v", dt)
	}
	c := cron.New(cron.WithSeconds())
	if _, err := c.AddFunc(spec, func() {
		if _, err := r.Step(model.Action{}, dt); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "auto step failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("register auto step %q: %w", spec, err)
	}

	r.Stop()
	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	c.Start()
	log.Ctx(ctx).InfoContext(ctx, "auto step scheduled", "spec", spec, "dt", dt.String())
	return nil
}

// Stop cancels the schedule and waits for a running step to finish.
func (r *Runner) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
}
