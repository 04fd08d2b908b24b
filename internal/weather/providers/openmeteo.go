package providers

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-tracker/internal/weather"
)

const (
	openMeteoForecastURL = "https://api.open-meteo.com/v1/forecast"
	openMeteoGeoURL      = "https://geocoding-api.open-meteo.com/v1/search"

	openMeteoForecastDays = 8
	openMeteoGeoCount     = 10
)

// Local hours sampled from the hourly series for the detailed daily temperatures.
const (
	morningHour = 6
	dayHour     = 12
	eveningHour = 18
	nightHour   = 0
)

// OpenMeteoProvider implements weather.Provider for Open-Meteo. It needs no
// API key and maps WMO weather codes onto OpenWeatherMap-style descriptions
// and icons so cached payloads look the same whichever provider filled them.
type OpenMeteoProvider struct {
	name        string
	units       string
	lang        string
	forecastURL string
	geoURL      string
	httpCfg     HTTPClientConfig
	circuit     *gobreaker.CircuitBreaker
}

func NewOpenMeteoProvider(client *http.Client, units, lang string) *OpenMeteoProvider {
	return &OpenMeteoProvider{
		name:        "openmeteo",
		units:       units,
		lang:        lang,
		forecastURL: openMeteoForecastURL,
		geoURL:      openMeteoGeoURL,
		httpCfg: HTTPClientConfig{
			Client:  client,
			Backoff: DefaultBackoff,
		},
		circuit: newCircuitBreaker("openmeteo"),
	}
}

func (p *OpenMeteoProvider) Name() string {
	return p.name
}

type openMeteoForecast struct {
	Timezone string `json:"timezone"`
	Current  *struct {
		Time        int64   `json:"time"`
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
		IsDay       int     `json:"is_day"`
	} `json:"current"`
	Hourly struct {
		Time        []int64   `json:"time"`
		Temperature []float64 `json:"temperature_2m"`
	} `json:"hourly"`
	Daily struct {
		Time          []int64   `json:"time"`
		WeatherCode   []int     `json:"weather_code"`
		TempMax       []float64 `json:"temperature_2m_max"`
		TempMin       []float64 `json:"temperature_2m_min"`
		UVIndexMax    []float64 `json:"uv_index_max"`
		PrecipProbMax []float64 `json:"precipitation_probability_max"`
		RainSum       []float64 `json:"rain_sum"`
		SnowfallSum   []float64 `json:"snowfall_sum"`
	} `json:"daily"`
}

func (p *OpenMeteoProvider) FetchWeather(ctx context.Context, lat, lon float64) (*weather.Payload, error) {
	values := url.Values{}
	values.Set("latitude", formatCoord(lat))
	values.Set("longitude", formatCoord(lon))
	values.Set("current", "temperature_2m,weather_code,is_day")
	values.Set("hourly", "temperature_2m")
	values.Set("daily", "weather_code,temperature_2m_max,temperature_2m_min,uv_index_max,precipitation_probability_max,rain_sum,snowfall_sum")
	values.Set("forecast_days", strconv.Itoa(openMeteoForecastDays))
	values.Set("timezone", "auto")
	values.Set("timeformat", "unixtime")
	if p.units == "imperial" {
		values.Set("temperature_unit", "fahrenheit")
	}

	var raw openMeteoForecast
	if err := getJSON(ctx, p.httpCfg, p.circuit, "forecast", p.forecastURL+"?"+values.Encode(), &raw); err != nil {
		return nil, err
	}
	return raw.toPayload(), nil
}

func (f *openMeteoForecast) toPayload() *weather.Payload {
	out := &weather.Payload{Timezone: f.Timezone}

	if f.Current != nil {
		out.Current = &weather.CurrentWeather{
			Dt:      f.Current.Time,
			Temp:    f.Current.Temperature,
			Weather: []weather.Conditions{wmoConditions(f.Current.WeatherCode, f.Current.IsDay != 0)},
		}
	}

	// Hourly temperatures keyed by unix time for the morning/day/evening/night picks.
	hourly := make(map[int64]float64, len(f.Hourly.Time))
	for i, ts := range f.Hourly.Time {
		if i < len(f.Hourly.Temperature) {
			hourly[ts] = f.Hourly.Temperature[i]
		}
	}

	d := f.Daily
	out.Daily = make([]weather.DailyForecast, 0, len(d.Time))
	for i, dayStart := range d.Time {
		tmin, tmax := at(d.TempMin, i), at(d.TempMax, i)
		mid := (tmin + tmax) / 2
		hour := func(h int64) float64 {
			if v, ok := hourly[dayStart+h*int64(time.Hour/time.Second)]; ok {
				return v
			}
			return mid
		}

		code := -1
		if i < len(d.WeatherCode) {
			code = d.WeatherCode[i]
		}

		day := weather.DailyForecast{
			Dt: dayStart,
			Temp: weather.DailyTemperature{
				Min:   tmin,
				Max:   tmax,
				Morn:  hour(morningHour),
				Day:   hour(dayHour),
				Eve:   hour(eveningHour),
				Night: hour(nightHour),
			},
			Weather: []weather.Conditions{wmoConditions(code, true)},
			UVI:     at(d.UVIndexMax, i),
			Pop:     at(d.PrecipProbMax, i) / 100,
		}
		if i < len(d.RainSum) {
			rain := d.RainSum[i]
			day.Rain = &rain
		}
		if i < len(d.SnowfallSum) {
			// Open-Meteo reports snowfall in cm.
			snow := d.SnowfallSum[i] * 10
			day.Snow = &snow
		}
		out.Daily = append(out.Daily, day)
	}
	return out
}

func at(s []float64, i int) float64 {
	if i < len(s) {
		return s[i]
	}
	return 0
}

// wmoConditions maps a WMO weather interpretation code to a description and
// an OpenWeatherMap icon id.
func wmoConditions(code int, isDay bool) weather.Conditions {
	var desc, icon string
	switch {
	case code == 0:
		desc, icon = "clear sky", "01"
	case code == 1:
		desc, icon = "mainly clear", "02"
	case code == 2:
		desc, icon = "partly cloudy", "03"
	case code == 3:
		desc, icon = "overcast", "04"
	case code == 45 || code == 48:
		desc, icon = "fog", "50"
	case code >= 51 && code <= 57:
		desc, icon = "drizzle", "09"
	case code >= 61 && code <= 65:
		desc, icon = "rain", "10"
	case code == 66 || code == 67:
		desc, icon = "freezing rain", "13"
	case code >= 71 && code <= 77:
		desc, icon = "snow", "13"
	case code >= 80 && code <= 82:
		desc, icon = "rain showers", "09"
	case code == 85 || code == 86:
		desc, icon = "snow showers", "13"
	case code >= 95:
		desc, icon = "thunderstorm", "11"
	default:
		desc, icon = "unknown", "01"
	}

	if isDay {
		icon += "d"
	} else {
		icon += "n"
	}
	return weather.Conditions{Description: desc, Icon: icon}
}

func (p *OpenMeteoProvider) Geocode(ctx context.Context, query string) ([]weather.SearchResult, error) {
	values := url.Values{}
	values.Set("name", query)
	values.Set("count", strconv.Itoa(openMeteoGeoCount))
	values.Set("language", p.lang)
	values.Set("format", "json")

	var raw struct {
		Results []struct {
			Name        string  `json:"name"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
			CountryCode string  `json:"country_code"`
			Admin1      string  `json:"admin1"`
		} `json:"results"`
	}
	if err := getJSON(ctx, p.httpCfg, p.circuit, "geocoding", p.geoURL+"?"+values.Encode(), &raw); err != nil {
		return nil, err
	}

	out := make([]weather.SearchResult, 0, len(raw.Results))
	for _, r := range raw.Results {
		res := weather.SearchResult{
			Name:    r.Name,
			Country: r.CountryCode,
			Lat:     r.Latitude,
			Lon:     r.Longitude,
		}
		if r.Admin1 != "" {
			state := r.Admin1
			res.State = &state
		}
		out = append(out, res)
	}
	return out, nil
}
