package weather

// Location identifies a tracked place. Two locations are the same place only
// when all three fields match.
type Location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Name string  `json:"city_name"`
}

// Conditions is a short weather description as reported by the provider.
type Conditions struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// CurrentWeather is the "now" block of a provider payload.
type CurrentWeather struct {
	Dt      int64        `json:"dt"`
	Temp    float64      `json:"temp"`
	Weather []Conditions `json:"weather"`
}

// DailyTemperature holds the temperatures over the course of one day.
type DailyTemperature struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Morn  float64 `json:"morn"`
	Day   float64 `json:"day"`
	Eve   float64 `json:"eve"`
	Night float64 `json:"night"`
}

// DailyForecast is one entry of the daily forecast.
type DailyForecast struct {
	Dt      int64            `json:"dt"`
	Temp    DailyTemperature `json:"temp"`
	Weather []Conditions     `json:"weather"`
	UVI     float64          `json:"uvi"`
	Pop     float64          `json:"pop"`
	Rain    *float64         `json:"rain,omitempty"`
	Snow    *float64         `json:"snow,omitempty"`
}

// Payload is the weather data a provider returned for one location. Every
// provider maps its response into this shape so that the cache file does not
// depend on which provider filled it.
type Payload struct {
	Timezone string          `json:"timezone,omitempty"`
	Current  *CurrentWeather `json:"current,omitempty"`
	Daily    []DailyForecast `json:"daily,omitempty"`
}

// Clone returns a deep copy of the payload.
func (p *Payload) Clone() *Payload {
	if p == nil {
		return nil
	}

	out := &Payload{Timezone: p.Timezone}
	if p.Current != nil {
		cur := *p.Current
		cur.Weather = append([]Conditions(nil), p.Current.Weather...)
		out.Current = &cur
	}
	if p.Daily != nil {
		out.Daily = make([]DailyForecast, len(p.Daily))
		for i, d := range p.Daily {
			d.Weather = append([]Conditions(nil), d.Weather...)
			if d.Rain != nil {
				v := *d.Rain
				d.Rain = &v
			}
			if d.Snow != nil {
				v := *d.Snow
				d.Snow = &v
			}
			out.Daily[i] = d
		}
	}
	return out
}

// WeatherSnapshot is the cached weather for one tracked location.
// LastUpdate is in epoch seconds; zero means the location was never fetched.
type WeatherSnapshot struct {
	Location   Location `json:"city_data"`
	Data       *Payload `json:"weather_data"`
	LastUpdate int64    `json:"last_update_timestamp"`
}

// NewSnapshot returns an empty snapshot for loc.
func NewSnapshot(loc Location) WeatherSnapshot {
	return WeatherSnapshot{Location: loc}
}

// Clone returns a copy that shares no memory with s.
func (s WeatherSnapshot) Clone() WeatherSnapshot {
	s.Data = s.Data.Clone()
	return s
}

// Apply stores a freshly fetched payload. Data and timestamp always change together.
func (s *WeatherSnapshot) Apply(p *Payload, fetchedAt int64) {
	s.Data = p
	s.LastUpdate = fetchedAt
}

// SearchResult is one geocoding match.
type SearchResult struct {
	Name    string  `json:"name"`
	State   *string `json:"state,omitempty"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// Location converts the match into a trackable location named after the match.
func (r SearchResult) Location() Location {
	return Location{Lat: r.Lat, Lon: r.Lon, Name: r.Name}
}
