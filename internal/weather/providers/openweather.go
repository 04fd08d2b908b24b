package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-tracker/internal/weather"
)

const (
	openWeatherOneCallURL = "https://api.openweathermap.org/data/3.0/onecall"
	openWeatherGeoURL     = "https://api.openweathermap.org/geo/1.0/direct"

	// Geocoding API maximum.
	openWeatherGeoLimit = 5
)

// OpenWeatherProvider implements weather.Provider on top of the One Call
// 3.0 and direct geocoding APIs of OpenWeatherMap.
type OpenWeatherProvider struct {
	name       string
	apiKey     string
	units      string
	lang       string
	oneCallURL string
	geoURL     string
	httpCfg    HTTPClientConfig
	circuit    *gobreaker.CircuitBreaker
}

func NewOpenWeatherProvider(client *http.Client, apiKey, units, lang string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		name:       "openweathermap",
		apiKey:     apiKey,
		units:      units,
		lang:       lang,
		oneCallURL: openWeatherOneCallURL,
		geoURL:     openWeatherGeoURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("openweather"),
	}
}

func (p *OpenWeatherProvider) Name() string {
	return p.name
}

func (p *OpenWeatherProvider) FetchWeather(ctx context.Context, lat, lon float64) (*weather.Payload, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather: %w: api key is not configured", weather.ErrProvider)
	}

	values := url.Values{}
	values.Set("lat", formatCoord(lat))
	values.Set("lon", formatCoord(lon))
	values.Set("exclude", "minutely,hourly,alerts")
	values.Set("units", p.units)
	values.Set("lang", p.lang)
	values.Set("appid", p.apiKey)

	// One Call already uses the shared payload layout.
	var payload weather.Payload
	if err := getJSON(ctx, p.httpCfg, p.circuit, "onecall", p.oneCallURL+"?"+values.Encode(), &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (p *OpenWeatherProvider) Geocode(ctx context.Context, query string) ([]weather.SearchResult, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("openweather: %w: api key is not configured", weather.ErrProvider)
	}

	values := url.Values{}
	values.Set("q", query)
	values.Set("limit", strconv.Itoa(openWeatherGeoLimit))
	values.Set("appid", p.apiKey)

	var results []weather.SearchResult
	if err := getJSON(ctx, p.httpCfg, p.circuit, "geocoding", p.geoURL+"?"+values.Encode(), &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []weather.SearchResult{}
	}
	return results, nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
