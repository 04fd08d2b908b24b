package view

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-tracker/internal/weather"
)

// State keeps the most recent data pushed by the session manager so that
// readers (HTTP handlers, CLI) can render it at any time. Every change gets
// a new revision id.
type State struct {
	mu        sync.RWMutex
	snapshots []weather.WeatherSnapshot
	results   []weather.SearchResult
	busy      bool
	revision  string
	updatedAt time.Time
	now       func() time.Time
}

// Status is the lightweight summary served to polling clients.
type Status struct {
	Busy      bool      `json:"busy"`
	Revision  string    `json:"revision"`
	Cities    int       `json:"cities"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewState creates an empty State with a fresh revision.
func NewState() *State {
	return &State{
		snapshots: []weather.WeatherSnapshot{},
		results:   []weather.SearchResult{},
		revision:  uuid.NewString(),
		now:       time.Now,
	}
}

var _ weather.UISink = (*State)(nil)

func (s *State) StoreChanged(snapshots []weather.WeatherSnapshot) {
	cp := make([]weather.WeatherSnapshot, len(snapshots))
	for i, snap := range snapshots {
		cp[i] = snap.Clone()
	}

	s.mu.Lock()
	s.snapshots = cp
	s.touch()
	s.mu.Unlock()

	log.Debug().Int("cities", len(cp)).Msg("view: store changed")
}

func (s *State) SearchResultsChanged(results []weather.SearchResult) {
	cp := append([]weather.SearchResult{}, results...)

	s.mu.Lock()
	s.results = cp
	s.touch()
	s.mu.Unlock()
}

func (s *State) SetBusy(busy bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.busy == busy {
		return
	}
	s.busy = busy
	s.touch()
}

// touch must be called with mu held.
func (s *State) touch() {
	s.revision = uuid.NewString()
	s.updatedAt = s.now()
}

// Cities projects the latest store contents.
func (s *State) Cities() []CityWeather {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return ProjectAll(s.snapshots, s.now())
}

// Snapshot returns a copy of the cached snapshot at index.
func (s *State) Snapshot(index int) (weather.WeatherSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if index < 0 || index >= len(s.snapshots) {
		return weather.WeatherSnapshot{}, false
	}
	return s.snapshots[index].Clone(), true
}

func (s *State) SearchResults() []weather.SearchResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]weather.SearchResult{}, s.results...)
}

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Busy:      s.busy,
		Revision:  s.revision,
		Cities:    len(s.snapshots),
		UpdatedAt: s.updatedAt,
	}
}
