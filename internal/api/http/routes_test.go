package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-tracker/internal/persistence"
	"github.com/i474232898/weather-tracker/internal/session"
	"github.com/i474232898/weather-tracker/internal/view"
	"github.com/i474232898/weather-tracker/internal/weather"
)

type stubProvider struct {
	daily      []float64
	geocode    []weather.SearchResult
	geocodeErr error
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) FetchWeather(_ context.Context, lat, _ float64) (*weather.Payload, error) {
	out := &weather.Payload{Current: &weather.CurrentWeather{Temp: lat}}
	for i, t := range p.daily {
		out.Daily = append(out.Daily, weather.DailyForecast{
			Dt:   int64(1700000000 + i*86400),
			Temp: weather.DailyTemperature{Day: t},
		})
	}
	return out, nil
}

func (p *stubProvider) Geocode(context.Context, string) ([]weather.SearchResult, error) {
	return p.geocode, p.geocodeErr
}

type testEnv struct {
	app     *fiber.App
	handler *Handler
	state   *view.State
}

func newTestEnv(t *testing.T, p weather.Provider) *testEnv {
	t.Helper()
	state := view.NewState()
	m := session.NewManager(p, state, persistence.NewFileStore(t.TempDir()))
	h := NewHandler(m, state, 5*time.Second)
	t.Cleanup(func() {
		h.Wait()
		m.Flush()
	})
	return &testEnv{app: NewApp(h), handler: h, state: state}
}

func (e *testEnv) do(t *testing.T, method, target, body string) (int, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (e *testEnv) addCities(t *testing.T, names ...string) {
	t.Helper()
	for i, name := range names {
		body := `{"lat": ` + strconv.Itoa(i+1) + `, "lon": 0, "name": "` + name + `"}`
		status, _ := e.do(t, http.MethodPost, "/api/v1/cities", body)
		require.Equal(t, http.StatusAccepted, status)
		// Adds run in the background; wait so the order is deterministic.
		e.handler.Wait()
	}
}

func cityNames(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, ok := body["cities"].([]any)
	require.True(t, ok, "cities field missing: %v", body)
	out := make([]string, 0, len(raw))
	for _, c := range raw {
		out = append(out, c.(map[string]any)["city_name"].(string))
	}
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})
	status, body := env.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])
}

func TestAddListRemoveReorder(t *testing.T) {
	env := newTestEnv(t, &stubProvider{daily: []float64{10, 20}})
	env.addCities(t, "Paris", "Berlin", "Oslo")

	status, body := env.do(t, http.MethodGet, "/api/v1/cities", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Paris", "Berlin", "Oslo"}, cityNames(t, body))

	status, body = env.do(t, http.MethodPost, "/api/v1/cities/reorder", `{"from": 0, "to": 2}`)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Oslo", "Berlin", "Paris"}, cityNames(t, body))

	status, body = env.do(t, http.MethodDelete, "/api/v1/cities/1", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, []string{"Oslo", "Paris"}, cityNames(t, body))
}

func TestAddDuplicateIsIgnored(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})
	env.addCities(t, "Paris")

	status, _ := env.do(t, http.MethodPost, "/api/v1/cities", `{"lat": 1, "lon": 0, "name": "Paris"}`)
	require.Equal(t, http.StatusAccepted, status)
	env.handler.Wait()

	assert.Len(t, env.state.Cities(), 1)
}

func TestAddValidation(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed", body: `{"lat":`},
		{name: "missing name", body: `{"lat": 1, "lon": 2}`},
		{name: "missing lat", body: `{"lon": 2, "name": "X"}`},
		{name: "lat out of range", body: `{"lat": 91, "lon": 2, "name": "X"}`},
		{name: "lon out of range", body: `{"lat": 1, "lon": -181, "name": "X"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, "/api/v1/cities", tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestAddAtZeroCoordinates(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})
	status, _ := env.do(t, http.MethodPost, "/api/v1/cities", `{"lat": 0, "lon": 0, "name": "Null Island"}`)
	require.Equal(t, http.StatusAccepted, status)
	env.handler.Wait()

	cities := env.state.Cities()
	require.Len(t, cities, 1)
	assert.Equal(t, "Null Island", cities[0].CityName)
}

func TestIndexErrors(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})
	env.addCities(t, "Paris")

	tests := []struct {
		name   string
		method string
		target string
		body   string
	}{
		{name: "remove past end", method: http.MethodDelete, target: "/api/v1/cities/4"},
		{name: "remove non-numeric", method: http.MethodDelete, target: "/api/v1/cities/abc"},
		{name: "reorder past end", method: http.MethodPost, target: "/api/v1/cities/reorder", body: `{"from": 0, "to": 3}`},
		{name: "reorder negative", method: http.MethodPost, target: "/api/v1/cities/reorder", body: `{"from": -1, "to": 0}`},
		{name: "reorder missing field", method: http.MethodPost, target: "/api/v1/cities/reorder", body: `{"from": 0}`},
		{name: "graph past end", method: http.MethodGet, target: "/api/v1/cities/9/forecast-graph?width=100&height=50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := env.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, true, body["error"])
		})
	}
}

func TestRefreshAll(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})
	env.addCities(t, "Paris")
	before := env.state.Status().Revision

	status, _ := env.do(t, http.MethodPost, "/api/v1/cities/refresh", "")
	require.Equal(t, http.StatusAccepted, status)
	env.handler.Wait()

	st := env.state.Status()
	assert.False(t, st.Busy)
	assert.NotEqual(t, before, st.Revision)
}

func TestSearch(t *testing.T) {
	state := "Texas"
	p := &stubProvider{geocode: []weather.SearchResult{
		{Name: "Paris", State: &state, Country: "US"},
		{Name: "Paris", State: &state, Country: "US", Lat: 1},
		{Name: "Paris", Country: "FR"},
	}}
	env := newTestEnv(t, p)

	status, body := env.do(t, http.MethodGet, "/api/v1/search?q=Paris", "")
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["results"], 2)
	assert.Len(t, env.state.SearchResults(), 2)

	status, body = env.do(t, http.MethodGet, "/api/v1/search", "")
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["results"])
	assert.Empty(t, env.state.SearchResults())
}

func TestSearchProviderFailure(t *testing.T) {
	env := newTestEnv(t, &stubProvider{geocodeErr: weather.ErrProvider})

	status, body := env.do(t, http.MethodGet, "/api/v1/search?q=Paris", "")
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, true, body["error"])
}

func TestForecastGraph(t *testing.T) {
	env := newTestEnv(t, &stubProvider{daily: []float64{10, 20, 15}})
	env.addCities(t, "Paris")

	status, body := env.do(t, http.MethodGet, "/api/v1/cities/0/forecast-graph?width=300&height=100", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Paris", body["city_name"])
	assert.Equal(t, float64(3), body["days"])
	assert.Equal(t, float64(5), body["min_temp"])
	assert.Equal(t, float64(25), body["max_temp"])
	assert.True(t, strings.HasPrefix(body["path"].(string), "M 0 0 M 300 0 M 300 100 M 0 100 M 50 75 Q"))

	status, body = env.do(t, http.MethodGet, "/api/v1/cities/0/forecast-graph?width=300&height=100&days=0", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "", body["path"])
}

func TestForecastGraphValidation(t *testing.T) {
	env := newTestEnv(t, &stubProvider{daily: []float64{1}})
	env.addCities(t, "Paris")

	for _, q := range []string{
		"height=100",
		"width=100",
		"width=abc&height=100",
		"width=-5&height=100",
		"width=100&height=100&days=17",
		"width=100&height=100&days=two",
	} {
		t.Run(q, func(t *testing.T) {
			status, _ := env.do(t, http.MethodGet, "/api/v1/cities/0/forecast-graph?"+q, "")
			assert.Equal(t, http.StatusBadRequest, status)
		})
	}
}

func TestStatus(t *testing.T) {
	env := newTestEnv(t, &stubProvider{})
	status, body := env.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, false, body["busy"])
	assert.NotEmpty(t, body["revision"])
}
