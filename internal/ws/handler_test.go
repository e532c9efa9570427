package ws

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"household_simulator/internal/config"
	"household_simulator/internal/model"
	"household_simulator/internal/runner"
	"household_simulator/internal/simulator"
)

// testHandler wires a simulator, runner, hub and bridge the way the
// server does.
func testHandler(t *testing.T) (*Handler, *runner.Runner) {
	t.Helper()
	sim, err := simulator.New(config.Default(), simulator.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	hub := NewHub()
	r := runner.New(sim, NewBridge(hub))
	return NewHandler(hub, r), r
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// sendJSON sends a JSON message on the connection.
func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func readState(t *testing.T, conn *websocket.Conn) model.State {
	t.Helper()
	env := readJSON(t, conn)
	require.Equal(t, TypeSimState, env.Type)
	var st model.State
	require.NoError(t, json.Unmarshal(env.Payload, &st))
	return st
}

func readError(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	env := readJSON(t, conn)
	require.Equal(t, TypeSimError, env.Type)
	var p ErrorPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	return p.Message
}

func TestHandler_InitialState(t *testing.T) {
	handler, _ := testHandler(t)
	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	st := readState(t, conn)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), st.Time)
	assert.Equal(t, 20.0, st.HouseState.TargetTemp)
}

func TestHandler_StepBroadcasts(t *testing.T) {
	handler, r := testHandler(t)
	conn1, cleanup1 := dialHandler(t, handler)
	defer cleanup1()
	readState(t, conn1)

	server := httptest.NewServer(handler)
	defer server.Close()
	conn2, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn2.Close()
	readState(t, conn2)

	sendJSON(t, conn1, TypeSimStep, StepPayload{
		Action: model.Action{TargetTempCommand: model.Float(22)},
		DtSec:  900,
	})

	for _, c := range []*websocket.Conn{conn1, conn2} {
		st := readState(t, c)
		assert.Equal(t, time.Date(2020, 1, 1, 0, 15, 0, 0, time.UTC), st.Time)
		assert.Equal(t, 22.0, st.HouseState.TargetTemp)
	}
	assert.Equal(t, 22.0, r.State().HouseState.TargetTemp)
}

func TestHandler_GetState(t *testing.T) {
	handler, r := testHandler(t)
	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readState(t, conn)

	_, err := r.Step(model.Action{}, time.Hour)
	require.NoError(t, err)
	readState(t, conn) // broadcast

	sendJSON(t, conn, TypeSimGetState, nil)
	st := readState(t, conn)
	assert.Equal(t, time.Date(2020, 1, 1, 1, 0, 0, 0, time.UTC), st.Time)
}

func TestHandler_Describe(t *testing.T) {
	handler, _ := testHandler(t)
	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readState(t, conn)

	sendJSON(t, conn, TypeSimDescribe, nil)
	env := readJSON(t, conn)
	require.Equal(t, TypeSimDescription, env.Type)

	var p DescriptionPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.True(t, strings.HasPrefix(p.Text, "It is January 01, 2020, 12:00 AM"))
	assert.Contains(t, p.Text, "The electric vehicle is plugged and the charger is charging.")
}

func TestHandler_GetHistory(t *testing.T) {
	handler, r := testHandler(t)
	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readState(t, conn)

	for range 3 {
		_, err := r.Step(model.Action{}, time.Hour)
		require.NoError(t, err)
		readState(t, conn)
	}

	readPayload := func() HistoryPayload {
		env := readJSON(t, conn)
		require.Equal(t, TypeSimHistory, env.Type)
		var p HistoryPayload
		require.NoError(t, json.Unmarshal(env.Payload, &p))
		return p
	}
	readHistory := func() []model.State {
		return readPayload().States
	}

	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	sendJSON(t, conn, TypeSimGetHistory, nil)
	all := readPayload()
	assert.Len(t, all.States, 4)
	assert.Equal(t, 4, all.Retained)
	require.NotNil(t, all.Range)
	assert.True(t, start.Equal(all.Range.Start))
	assert.True(t, start.Add(3*time.Hour).Equal(all.Range.End))

	at := start.Add(90 * time.Minute)
	sendJSON(t, conn, TypeSimGetHistory, HistoryRequestPayload{At: &at})
	states := readHistory()
	require.Len(t, states, 1)
	assert.Equal(t, start.Add(time.Hour), states[0].Time)

	before := start.Add(-time.Minute)
	sendJSON(t, conn, TypeSimGetHistory, HistoryRequestPayload{At: &before})
	assert.Empty(t, readHistory())

	sendJSON(t, conn, TypeSimGetHistory, HistoryRequestPayload{From: start.Add(time.Hour), To: start.Add(3 * time.Hour)})
	states = readHistory()
	require.Len(t, states, 2)
	assert.Equal(t, start.Add(time.Hour), states[0].Time)
	assert.Equal(t, start.Add(2*time.Hour), states[1].Time)

	sendJSON(t, conn, TypeSimGetHistory, HistoryRequestPayload{From: start.Add(10 * time.Hour)})
	assert.Empty(t, readHistory())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"sim:get_history","payload":{"from":"noon"}}`)))
	assert.Contains(t, readError(t, conn), "invalid sim:get_history payload")
}

func TestHandler_Errors(t *testing.T) {
	handler, r := testHandler(t)
	conn, cleanup := dialHandler(t, handler)
	defer cleanup()
	readState(t, conn)

	t.Run("malformed", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{")))
		assert.Contains(t, readError(t, conn), "invalid message")
	})

	t.Run("unknown type", func(t *testing.T) {
		sendJSON(t, conn, "sim:reset", nil)
		assert.Contains(t, readError(t, conn), "sim:reset")
	})

	t.Run("missing payload", func(t *testing.T) {
		sendJSON(t, conn, TypeSimStep, nil)
		assert.Contains(t, readError(t, conn), "invalid sim:step payload")
	})

	t.Run("negative step", func(t *testing.T) {
		sendJSON(t, conn, TypeSimStep, StepPayload{DtSec: -60})
		assert.Contains(t, readError(t, conn), simulator.ErrNegativeStep.Error())
	})

	t.Run("plug without endtrip", func(t *testing.T) {
		sendJSON(t, conn, TypeSimStep, StepPayload{
			Action: model.Action{EVAction: model.EVAction{PlugAction: model.PlugActionPtr(model.Unplug)}},
			DtSec:  60,
		})
		readState(t, conn)

		sendJSON(t, conn, TypeSimStep, StepPayload{
			Action: model.Action{EVAction: model.EVAction{PlugAction: model.PlugActionPtr(model.Plug)}},
			DtSec:  60,
		})
		assert.Contains(t, readError(t, conn), "endtrip autonomy")
	})

	assert.Equal(t, time.Date(2020, 1, 1, 0, 1, 0, 0, time.UTC), r.State().Time)
}
