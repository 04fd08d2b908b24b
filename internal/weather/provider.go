package weather

import (
	"context"
	"errors"
)

// ErrProvider marks failures coming from the remote weather provider.
var ErrProvider = errors.New("weather provider error")

// Provider abstracts a weather data source (e.g. OpenWeatherMap, Open-Meteo).
type Provider interface {
	Name() string
	FetchWeather(ctx context.Context, lat, lon float64) (*Payload, error)
	Geocode(ctx context.Context, query string) ([]SearchResult, error)
}

// UISink receives state pushed by the session manager. Calls arrive from
// background goroutines; implementations must be safe for concurrent use and
// must ignore calls once the UI is gone.
type UISink interface {
	StoreChanged(snapshots []WeatherSnapshot)
	SearchResultsChanged(results []SearchResult)
	SetBusy(busy bool)
}
