package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/aortez/cellsim-server/internal/cellworld"
	"github.com/aortez/cellsim-server/internal/config"
	"github.com/aortez/cellsim-server/internal/event"
	"github.com/aortez/cellsim-server/internal/logging"
	"github.com/aortez/cellsim-server/internal/metrics"
	"github.com/aortez/cellsim-server/internal/statemachine"
	"github.com/aortez/cellsim-server/internal/telemetry"
	"github.com/aortez/cellsim-server/internal/transport"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Init(cfg.LogLevel)
	log.Info().
		Uint16("port", cfg.Port).
		Str("scenario", cfg.Scenario).
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Msg("starting cellsim-server")

	startedAt := time.Now()
	m := metrics.New()

	telemetryPublisher, err := telemetry.Connect(cfg.NATSURL, "cellsim.events")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect telemetry publisher")
	}
	defer telemetryPublisher.Close()

	registry := cellworld.NewDefaultRegistry()

	machine := statemachine.New(registry, m,
		statemachine.WithTelemetry(telemetryPublisher),
		statemachine.WithDefaultWorldSize(cfg.Width, cfg.Height),
		statemachine.WithDefaultScenario(cfg.Scenario),
	)

	hub := transport.NewHub(machine, m)
	machine.SetBroadcaster(hub)

	go hub.Run()
	go machine.MainLoop(time.Duration(cfg.TickInterval) * time.Millisecond)

	// A positive --steps auto-starts the simulation with that step budget,
	// so the server can run headless with no client ever connecting.
	if cfg.Steps > 0 {
		machine.QueueEvent(event.SimRun{
			TimestepS:  float64(cfg.FixedDTMs) / 1000,
			MaxSteps:   cfg.Steps,
			ScenarioID: cfg.Scenario,
			Respond: func(r event.Result[event.SimRunOk]) {
				if r.Err != nil {
					log.Error().Err(r.Err).Msg("auto-start sim_run failed")
				}
			},
		})
	}

	if cfg.PrintStats {
		c := cron.New()
		if _, err := c.AddFunc("@every 10s", func() {
			snap := machine.Snapshot()
			if snap == nil {
				log.Info().Str("state", machine.CurrentStateName()).Msg("stats: no snapshot yet")
				return
			}
			log.Info().
				Str("state", machine.CurrentStateName()).
				Uint64("timestep", snap.Timestep).
				Float64("fps_server", snap.FPSServer).
				Float64("total_mass", snap.TotalMass).
				Msg("stats")
		}); err != nil {
			log.Error().Err(err).Msg("failed to schedule stats job")
		} else {
			c.Start()
			defer c.Stop()
		}
	}

	router := transport.NewRouter(hub, machine, m, startedAt)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      logging.Middleware(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Info().Msg("shutting down cellsim-server")
		machine.QueueEvent(event.Exit{Respond: func(event.Result[struct{}]) {}})

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("server shutdown error")
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server error")
	}

	<-machine.Done()
}
