package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household_simulator/internal/config"
	"household_simulator/internal/ev"
	"household_simulator/internal/model"
	"household_simulator/internal/simulator"
)

func newSim(t *testing.T) *simulator.Simulator {
	t.Helper()
	sim, err := simulator.New(config.Default(), simulator.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	return sim
}

func TestRun_Reports(t *testing.T) {
	var buf bytes.Buffer
	st, err := run(&buf, newSim(t), runOptions{Span: 2 * time.Hour, Step: time.Minute, ReportEvery: time.Hour})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.True(t, strings.HasPrefix(lines[0], "2020-01-01 00:00:00  indoor"))
	assert.True(t, strings.HasPrefix(lines[1], "2020-01-01 01:00:00  indoor"))
	assert.True(t, strings.HasPrefix(lines[2], "2020-01-01 02:00:00  indoor"))
	assert.True(t, strings.HasPrefix(lines[3], "Simulated 2h0m0s in 120 steps: total expenses $"))
	assert.Equal(t, time.Date(2020, 1, 1, 2, 0, 0, 0, time.UTC), st.Time)
	assert.Positive(t, st.GridState.TotalExpenses)
}

func TestRun_PartialLastStep(t *testing.T) {
	var buf bytes.Buffer
	st, err := run(&buf, newSim(t), runOptions{Span: 50 * time.Minute, Step: 15 * time.Minute})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 50, 0, 0, time.UTC), st.Time)
	assert.True(t, strings.HasPrefix(buf.String(), "Simulated 50m0s in 4 steps: total expenses $"))
}

func TestRun_Describe(t *testing.T) {
	var buf bytes.Buffer
	_, err := run(&buf, newSim(t), runOptions{Span: time.Hour, Step: time.Hour, ReportEvery: time.Hour, Describe: true})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "It is January 01, 2020, 12:00 AM,")
	assert.Contains(t, out, "It is January 01, 2020, 01:00 AM,")
}

func TestRun_Scenario(t *testing.T) {
	var buf bytes.Buffer
	opts := runOptions{
		Span: 2 * time.Hour,
		Step: 10 * time.Minute,
		Scenario: []scenarioEntry{
			{At: 30 * time.Minute, Action: model.Action{EVAction: model.EVAction{PlugAction: model.PlugActionPtr(model.Unplug)}}},
			{At: time.Hour, Action: model.Action{EVAction: model.EVAction{
				PlugAction:      model.PlugActionPtr(model.Plug),
				EndtripAutonomy: model.Float(50),
			}}},
		},
	}
	st, err := run(&buf, newSim(t), opts)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "2020-01-01 00:30:00  The electric vehicle is unplugged.\n")
	assert.Contains(t, buf.String(), "2020-01-01 01:00:00  The electric vehicle is plugged in with an autonomy of 50 km.\n")
	assert.Equal(t, model.Plugged, st.HouseState.EV.PlugStatus)
	require.NotNil(t, st.HouseState.EV.CurrentAutonomy)
	assert.Greater(t, *st.HouseState.EV.CurrentAutonomy, 50.0)
}

func TestRun_ScenarioOffGrid(t *testing.T) {
	var buf bytes.Buffer
	opts := runOptions{
		Span:     time.Hour,
		Step:     10 * time.Minute,
		Scenario: []scenarioEntry{{At: 25 * time.Minute, Action: model.Action{TargetTempCommand: model.Float(22)}}},
	}
	st, err := run(&buf, newSim(t), opts)
	require.NoError(t, err)

	// The 20m..30m step is split at the action.
	assert.Contains(t, buf.String(), "2020-01-01 00:25:00  The target indoors temperature is set to 22 C.\n")
	assert.Contains(t, buf.String(), "Simulated 1h0m0s in 7 steps:")
	assert.Equal(t, time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC), st.Time)
	assert.Equal(t, 22.0, st.HouseState.TargetTemp)
}

func TestRun_ScenarioBeyondSpan(t *testing.T) {
	var buf bytes.Buffer
	opts := runOptions{
		Span:     30 * time.Minute,
		Step:     10 * time.Minute,
		Scenario: []scenarioEntry{{At: 2 * time.Hour, Action: model.Action{TargetTempCommand: model.Float(22)}}},
	}
	st, err := run(&buf, newSim(t), opts)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "target indoors temperature")
	assert.Contains(t, buf.String(), "Simulated 30m0s in 3 steps:")
	assert.Equal(t, time.Date(2020, 1, 1, 0, 30, 0, 0, time.UTC), st.Time)
}

func TestRun_ScenarioError(t *testing.T) {
	opts := runOptions{
		Span: time.Hour,
		Step: time.Minute,
		Scenario: []scenarioEntry{
			{At: 0, Action: model.Action{EVAction: model.EVAction{PlugAction: model.PlugActionPtr(model.Unplug)}}},
			{At: time.Minute, Action: model.Action{EVAction: model.EVAction{PlugAction: model.PlugActionPtr(model.Plug)}}},
		},
	}
	_, err := run(io.Discard, newSim(t), opts)
	assert.ErrorIs(t, err, ev.ErrEndtripAutonomyRequired)
	assert.ErrorContains(t, err, "scenario action at 1m0s")
}

func TestRun_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts runOptions
	}{
		{"zero step", runOptions{Span: time.Hour}},
		{"negative span", runOptions{Span: -time.Hour, Step: time.Minute}},
		{"negative report", runOptions{Span: time.Hour, Step: time.Minute, ReportEvery: -time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(io.Discard, newSim(t), tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestWriteConfig(t *testing.T) {
	cfg := config.Default()
	cfg.House.TargetTemp = 23

	var buf bytes.Buffer
	require.NoError(t, writeConfig(&buf, &cfg))
	assert.Contains(t, buf.String(), "target_temp: 23")

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	got, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *got)
}

func TestLoadScenario(t *testing.T) {
	entries, err := loadScenario("")
	require.NoError(t, err)
	assert.Empty(t, entries)

	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
- at: 2h
  action:
    target_temp_command: 21
- at: 30m
  action:
    ev_action:
      plug_action: unplug
`), 0o644))

	entries, err = loadScenario(path)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 30*time.Minute, entries[0].At)
	require.NotNil(t, entries[0].Action.EVAction.PlugAction)
	assert.Equal(t, model.Unplug, *entries[0].Action.EVAction.PlugAction)
	assert.Equal(t, 2*time.Hour, entries[1].At)
	require.NotNil(t, entries[1].Action.TargetTempCommand)
	assert.Equal(t, 21.0, *entries[1].Action.TargetTempCommand)

	require.NoError(t, os.WriteFile(path, []byte("- at: -1h\n"), 0o644))
	_, err = loadScenario(path)
	assert.ErrorContains(t, err, "negative offset")

	_, err = loadScenario(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
