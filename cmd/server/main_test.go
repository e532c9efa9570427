package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
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
	"household_simulator/internal/ws"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	sim, err := simulator.New(config.Default(), simulator.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	require.NoError(t, err)
	hub := ws.NewHub()
	r := runner.New(sim, ws.NewBridge(hub))
	server := httptest.NewServer(newRouter(ws.NewHandler(hub, r), r))
	t.Cleanup(server.Close)
	return server
}

func TestHealth(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok\n", string(body))

	resp, err = http.Post(server.URL+"/health", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestStateAndDescribe(t *testing.T) {
	server := testServer(t)

	resp, err := http.Get(server.URL + "/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	var st model.State
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&st))
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), st.Time)
	assert.Equal(t, model.PolicyFixed, st.GridState.TodayPolicy)

	resp, err = http.Get(server.URL + "/describe")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "It is January 01, 2020, 12:00 AM"))
}

func TestWebSocketRoute(t *testing.T) {
	server := testServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"type":"sim:state"`)
}
