package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "github.com/i474232898/weather-tracker/internal/api/http"
	"github.com/i474232898/weather-tracker/internal/scheduler"
)

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with periodic refreshes",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := a.manager.Load(ctx); err != nil {
		return err
	}

	jobTimeout := a.cfg.FetchInterval
	handler := httpapi.NewHandler(a.manager, a.state, jobTimeout)
	server := httpapi.NewApp(handler)

	// Scheduler that periodically refreshes and saves.
	sched := scheduler.New(a.cfg.FetchInterval, jobTimeout, a.manager)
	if err := sched.Start(); err != nil {
		return err
	}

	// Cached data may be stale; refresh once on startup.
	startup := make(chan struct{})
	go func() {
		defer close(startup)
		refreshCtx, cancel := context.WithTimeout(ctx, jobTimeout)
		defer cancel()
		if err := a.manager.RefreshAll(refreshCtx); err != nil {
			log.Error().Err(err).Msg("startup refresh failed")
			return
		}
		a.manager.Save()
	}()

	go func() {
		log.Info().Str("port", a.cfg.Port).Str("provider", a.cfg.Provider).Msg("http server listening")
		if err := server.Listen(":" + a.cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}

	sched.Stop()
	<-startup
	handler.Wait()
	a.manager.Save()
	a.manager.Flush()
	return nil
}
