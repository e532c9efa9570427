package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/levenlabs/go-lflag"

	"household_simulator/internal/config"
	"household_simulator/internal/log"
	"household_simulator/internal/runner"
	"household_simulator/internal/simulator"
	"household_simulator/internal/store"
	"household_simulator/internal/ws"
)

func main() {
	configPath := lflag.String("config", "", "Path to the household YAML configuration (built-in defaults when empty)")
	listenAddr := lflag.String("http-listen", ":8080", "HTTP server listen address")
	autoStepSchedule := lflag.String("auto-step-schedule", "", "Cron spec with a seconds field for automatic steps (e.g. \"*/5 * * * * *\"), disabled when empty")
	autoStepDuration := lflag.Duration("auto-step-duration", time.Minute, "Simulated time advanced by each automatic step")

	// parse flags
	lflag.Configure()

	// lflag sets llog's level; slog follows it
	level, err := log.LlogLevel()
	if err != nil {
		panic(err)
	}
	log.SetDefaultLogLevel(level)
	logger := log.Default()
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	ctx = log.With(ctx, logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to load config", "path", *configPath, "error", err)
		os.Exit(1)
	}

	sim, err := simulator.New(*cfg, simulator.WithLogger(logger))
	if err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "failed to build simulator", "error", err)
		os.Exit(1)
	}

	hub := ws.NewHub()
	r := runner.New(sim, ws.NewBridge(hub), runner.WithHistory(store.New(cfg.HistoryLimit)))
	defer r.Stop()

	if *autoStepSchedule != "" {
		if err := r.Schedule(ctx, *autoStepSchedule, *autoStepDuration); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to schedule auto steps", "error", err)
			os.Exit(1)
		}
	}

	srv := &http.Server{
		Addr:              *listenAddr,
		Handler:           handlers.RecoveryHandler()(handlers.CombinedLoggingHandler(os.Stderr, newRouter(ws.NewHandler(hub, r), r))),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hub.CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "server shutdown failed", "error", err)
		}
	}()

	log.Ctx(ctx).InfoContext(ctx, "starting server", "addr", *listenAddr, "start_time", sim.Now())
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}

func newRouter(wsHandler http.Handler, r *runner.Runner) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	}).Methods(http.MethodGet)
	router.HandleFunc("/state", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(r.State()); err != nil {
			log.Ctx(req.Context()).ErrorContext(req.Context(), "encode state", "error", err)
		}
	}).Methods(http.MethodGet)
	router.HandleFunc("/describe", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, r.Describe())
	}).Methods(http.MethodGet)
	router.Handle("/ws", wsHandler)
	return router
}
