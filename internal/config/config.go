package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	ProviderOpenWeather = "openweather"
	ProviderOpenMeteo   = "openmeteo"
)

type AppConfig struct {
	// Provider selects the single weather source used by the process.
	Provider          string
	OpenWeatherAPIKey string

	// DataDir holds the cities cache file.
	DataDir string

	// FetchInterval controls how often every tracked location is refreshed.
	FetchInterval time.Duration
	HTTPTimeout   time.Duration

	Units    string
	Language string
	LogLevel zerolog.Level

	Port string
}

// Load reads configuration from environment with sensible defaults. A .env
// file in the working directory is applied first when present.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("config: no .env file loaded")
	}
	return fromEnv()
}

func fromEnv() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.Provider = strings.ToLower(getenvDefault("WEATHER_PROVIDER", ProviderOpenWeather))
	switch cfg.Provider {
	case ProviderOpenWeather, ProviderOpenMeteo:
	default:
		return nil, fmt.Errorf("invalid WEATHER_PROVIDER %q: want %s or %s", cfg.Provider, ProviderOpenWeather, ProviderOpenMeteo)
	}

	cfg.OpenWeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	if cfg.Provider == ProviderOpenWeather && cfg.OpenWeatherAPIKey == "" {
		log.Warn().Msg("config: OPENWEATHER_API_KEY is empty, every fetch will fail")
	}

	dataDir, err := defaultDataDir()
	if err != nil {
		return nil, err
	}
	cfg.DataDir = getenvDefault("DATA_DIR", dataDir)

	if cfg.FetchInterval, err = getenvDuration("FETCH_INTERVAL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}

	cfg.Units = getenvDefault("UNITS", "metric")
	switch cfg.Units {
	case "metric", "imperial", "standard":
	default:
		return nil, fmt.Errorf("invalid UNITS %q", cfg.Units)
	}
	cfg.Language = getenvDefault("WEATHER_LANG", "en")

	level, err := zerolog.ParseLevel(getenvDefault("LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	cfg.LogLevel = level

	cfg.Port = getenvDefault("PORT", "8080")
	if _, err := strconv.Atoi(cfg.Port); err != nil {
		return nil, fmt.Errorf("invalid PORT %q: %w", cfg.Port, err)
	}

	return cfg, nil
}

// defaultDataDir is the per-user data directory, e.g. ~/.local/share/weather-tracker.
func defaultDataDir() (string, error) {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "weather-tracker"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve data directory: %w", err)
	}
	return filepath.Join(home, ".local", "share", "weather-tracker"), nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
