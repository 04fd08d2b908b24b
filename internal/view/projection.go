// Package view turns cached weather snapshots into display-ready structures.
package view

import (
	"time"

	"github.com/i474232898/weather-tracker/internal/weather"
)

const (
	todayLabel   = "Today"
	unknownLabel = "Unknown"
	timeLayout   = "2006-01-02 15:04:05 -07:00"
)

type TemperatureInfo struct {
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Morning float64 `json:"morning"`
	Day     float64 `json:"day"`
	Evening float64 `json:"evening"`
	Night   float64 `json:"night"`
}

type WeatherInfo struct {
	Description       string          `json:"description"`
	Icon              string          `json:"icon"`
	CurrentTemp       float64         `json:"current_temp"`
	DetailedTemp      TemperatureInfo `json:"detailed_temp"`
	UV                int             `json:"uv"`
	PrecipitationProb float64         `json:"precipitation_prob"`
	Rain              float64         `json:"rain"`
	Snow              float64         `json:"snow"`
}

type ForecastDay struct {
	DayName string      `json:"day_name"`
	Weather WeatherInfo `json:"weather"`
}

// CityWeather is everything the UI shows for one tracked location.
type CityWeather struct {
	CityName   string           `json:"city_name"`
	Location   weather.Location `json:"location"`
	Current    WeatherInfo      `json:"current"`
	Forecast   []ForecastDay    `json:"forecast"`
	UpdateTime string           `json:"update_time"`
}

// ProjectCity builds the display form of s. Day names and the update time
// are rendered in now's time zone.
func ProjectCity(s weather.WeatherSnapshot, now time.Time) CityWeather {
	return CityWeather{
		CityName:   s.Location.Name,
		Location:   s.Location,
		Current:    currentInfo(s.Data),
		Forecast:   forecastDays(s.Data, now),
		UpdateTime: UpdateTime(s.LastUpdate, now.Location()),
	}
}

// ProjectAll projects every snapshot, keeping order.
func ProjectAll(snapshots []weather.WeatherSnapshot, now time.Time) []CityWeather {
	out := make([]CityWeather, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, ProjectCity(s, now))
	}
	return out
}

// DayTemperatures returns the daytime temperature of every forecast day.
func DayTemperatures(s weather.WeatherSnapshot) []float64 {
	if s.Data == nil {
		return nil
	}
	out := make([]float64, 0, len(s.Data.Daily))
	for _, d := range s.Data.Daily {
		out = append(out, d.Temp.Day)
	}
	return out
}

// DayName returns "Today" when t falls on the same calendar day as now,
// otherwise the weekday name.
func DayName(t, now time.Time) string {
	t = t.In(now.Location())
	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return todayLabel
	}
	return t.Weekday().String()
}

// UpdateTime formats an epoch-seconds timestamp in loc, or "Unknown" when
// the location was never fetched.
func UpdateTime(ts int64, loc *time.Location) string {
	if ts <= 0 {
		return unknownLabel
	}
	return time.Unix(ts, 0).In(loc).Format(timeLayout)
}

func firstConditions(c []weather.Conditions) weather.Conditions {
	if len(c) == 0 {
		return weather.Conditions{}
	}
	return c[0]
}

func temperatureInfo(t weather.DailyTemperature) TemperatureInfo {
	return TemperatureInfo{
		Min:     t.Min,
		Max:     t.Max,
		Morning: t.Morn,
		Day:     t.Day,
		Evening: t.Eve,
		Night:   t.Night,
	}
}

func currentInfo(p *weather.Payload) WeatherInfo {
	if p == nil || p.Current == nil {
		return WeatherInfo{}
	}

	cur := p.Current
	cond := firstConditions(cur.Weather)

	// Without a daily block every detailed value falls back to the current reading.
	detailed := TemperatureInfo{
		Min: cur.Temp, Max: cur.Temp,
		Morning: cur.Temp, Day: cur.Temp, Evening: cur.Temp, Night: cur.Temp,
	}
	if len(p.Daily) > 0 {
		detailed = temperatureInfo(p.Daily[0].Temp)
	}

	return WeatherInfo{
		Description:  cond.Description,
		Icon:         cond.Icon,
		CurrentTemp:  cur.Temp,
		DetailedTemp: detailed,
	}
}

func forecastDays(p *weather.Payload, now time.Time) []ForecastDay {
	if p == nil {
		return []ForecastDay{}
	}

	out := make([]ForecastDay, 0, len(p.Daily))
	for _, d := range p.Daily {
		cond := firstConditions(d.Weather)
		info := WeatherInfo{
			Description:       cond.Description,
			Icon:              cond.Icon,
			CurrentTemp:       d.Temp.Day,
			DetailedTemp:      temperatureInfo(d.Temp),
			UV:                int(d.UVI),
			PrecipitationProb: d.Pop,
		}
		if d.Rain != nil {
			info.Rain = *d.Rain
		}
		if d.Snow != nil {
			info.Snow = *d.Snow
		}
		out = append(out, ForecastDay{
			DayName: DayName(time.Unix(d.Dt, 0), now),
			Weather: info,
		})
	}
	return out
}
