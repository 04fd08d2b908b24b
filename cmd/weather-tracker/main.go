package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/i474232898/weather-tracker/internal/config"
	"github.com/i474232898/weather-tracker/internal/persistence"
	"github.com/i474232898/weather-tracker/internal/session"
	"github.com/i474232898/weather-tracker/internal/view"
	"github.com/i474232898/weather-tracker/internal/weather"
	"github.com/i474232898/weather-tracker/internal/weather/providers"
)

// app holds the wiring shared by every command.
type app struct {
	cfg     *config.AppConfig
	state   *view.State
	manager *session.Manager
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var a app

	rootCmd := &cobra.Command{
		Use:           "weather-tracker",
		Short:         "Track the weather for a list of places",
		Long:          "Keeps an ordered list of places with cached current weather and daily forecasts.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
	}

	rootCmd.AddCommand(
		serveCmd(&a),
		listCmd(&a),
		refreshCmd(&a),
		searchCmd(&a),
		addCmd(&a),
		removeCmd(&a),
		reorderCmd(&a),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func (a *app) init() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	zerolog.SetGlobalLevel(cfg.LogLevel)

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	a.cfg = cfg
	a.state = view.NewState()
	a.manager = session.NewManager(
		newProvider(cfg, httpClient),
		a.state,
		persistence.NewFileStore(cfg.DataDir),
	)
	return nil
}

func newProvider(cfg *config.AppConfig, client *http.Client) weather.Provider {
	switch cfg.Provider {
	case config.ProviderOpenMeteo:
		return providers.NewOpenMeteoProvider(client, cfg.Units, cfg.Language)
	default:
		return providers.NewOpenWeatherProvider(client, cfg.OpenWeatherAPIKey, cfg.Units, cfg.Language)
	}
}
