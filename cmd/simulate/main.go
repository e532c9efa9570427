// Command simulate replays a household over a fixed span of simulated
// time and prints periodic reports, without starting a server.
package main

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/levenlabs/go-lflag"
	"gopkg.in/yaml.v3"

	"household_simulator/internal/config"
	"household_simulator/internal/log"
	"household_simulator/internal/model"
	"household_simulator/internal/simulator"
)

// scenarioEntry is an action applied once the elapsed simulated time
// reaches At.
type scenarioEntry struct {
	At     time.Duration `yaml:"at"`
	Action model.Action  `yaml:"action"`
}

type runOptions struct {
	Span        time.Duration
	Step        time.Duration
	ReportEvery time.Duration // 0 disables periodic reports
	Describe    bool
	Scenario    []scenarioEntry
}

func (o runOptions) validate() error {
	switch {
	case o.Step <= 0:
		return fmt.Errorf("step must be positive, got %s", o.Step)
	case o.Span < 0:
		return fmt.Errorf("span must not be negative, got %s", o.Span)
	case o.ReportEvery < 0:
		return fmt.Errorf("report-every must not be negative, got %s", o.ReportEvery)
	}
	return nil
}

func main() {
	configPath := lflag.String("config", "", "Path to the household YAML configuration (built-in defaults when empty)")
	scenarioPath := lflag.String("scenario", "", "Path to a YAML list of timed actions")
	span := lflag.Duration("span", 24*time.Hour, "Simulated time to replay")
	step := lflag.Duration("step", time.Minute, "Simulated time advanced per step")
	reportEvery := lflag.Duration("report-every", time.Hour, "Simulated time between reports, 0 to disable")
	describe := lflag.Bool("describe", false, "Print the full description instead of a one-line report")
	printConfig := lflag.Bool("print-config", false, "Print the effective configuration as YAML and exit")
	lflag.Configure()

	level, err := log.LlogLevel()
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)
	logger := log.Default()
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}
	if *printConfig {
		if err := writeConfig(os.Stdout, cfg); err != nil {
			logger.Error("failed to print config", "error", err)
			os.Exit(1)
		}
		return
	}

	scenario, err := loadScenario(*scenarioPath)
	if err != nil {
		logger.Error("failed to load scenario", "path", *scenarioPath, "error", err)
		os.Exit(1)
	}

	sim, err := simulator.New(*cfg, simulator.WithLogger(logger))
	if err != nil {
		logger.Error("failed to build simulator", "error", err)
		os.Exit(1)
	}

	opts := runOptions{
		Span:        *span,
		Step:        *step,
		ReportEvery: *reportEvery,
		Describe:    *describe,
		Scenario:    scenario,
	}
	if _, err := run(os.Stdout, sim, opts); err != nil {
		logger.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func writeConfig(w io.Writer, cfg *config.Config) error {
	data, err := cfg.Marshal()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// loadScenario reads the timed actions at path, sorted by time. An
// empty path yields no actions.
func loadScenario(path string) ([]scenarioEntry, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var entries []scenarioEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	for _, e := range entries {
		if e.At < 0 {
			return nil, fmt.Errorf("scenario action at %s: negative offset", e.At)
		}
	}
	slices.SortStableFunc(entries, func(a, b scenarioEntry) int {
		return cmp.Compare(a.At, b.At)
	})
	return entries, nil
}

// run steps sim through opts.Span and writes reports to w. Steps are
// shortened to land on the next scenario offset, where the action is
// applied with a zero-length step.
func run(w io.Writer, sim *simulator.Simulator, opts runOptions) (model.State, error) {
	if err := opts.validate(); err != nil {
		return model.State{}, err
	}

	st := sim.State()
	var elapsed, nextReport time.Duration
	var steps int
	pending := opts.Scenario
	report := func() {
		if opts.Describe {
			fmt.Fprintf(w, "%s\n\n", simulator.DescribeState(st))
			return
		}
		fmt.Fprintln(w, reportLine(st))
	}

	for {
		for len(pending) > 0 && pending[0].At <= elapsed {
			e := pending[0]
			pending = pending[1:]
			var err error
			if st, err = sim.Step(e.Action, 0); err != nil {
				return st, fmt.Errorf("scenario action at %s: %w", e.At, err)
			}
			fmt.Fprintf(w, "%s  %s\n", st.Time.Format(time.DateTime), simulator.DescribeAction(e.Action))
		}
		if opts.ReportEvery > 0 && elapsed >= nextReport {
			report()
			nextReport += opts.ReportEvery
		}
		if elapsed >= opts.Span {
			break
		}

		dt := min(opts.Step, opts.Span-elapsed)
		if len(pending) > 0 {
			dt = min(dt, pending[0].At-elapsed)
		}
		var err error
		if st, err = sim.Step(model.Action{}, dt); err != nil {
			return st, fmt.Errorf("step %d: %w", steps+1, err)
		}
		elapsed += dt
		steps++
	}

	fmt.Fprintf(w, "Simulated %s in %d steps: total expenses $%.2f, today's expenses $%.2f.\n",
		elapsed, steps, st.GridState.TotalExpenses, st.GridState.DayExpenses)
	return st, nil
}

func reportLine(st model.State) string {
	h := st.HouseState
	return fmt.Sprintf("%s  indoor %6.2f C  outdoor %6.2f C  load %6.2f kW  price %5.1f c/kWh  total $%.2f",
		st.Time.Format(time.DateTime), h.CurrentTemp, st.OutdoorTemp,
		h.HouseConsumption/1000, st.GridState.Price*1e5, st.GridState.TotalExpenses)
}
