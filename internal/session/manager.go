// Package session coordinates the tracked-location store, the weather
// provider, the on-disk cache and the UI sink.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/i474232898/weather-tracker/internal/persistence"
	"github.com/i474232898/weather-tracker/internal/store"
	"github.com/i474232898/weather-tracker/internal/weather"
)

// Manager owns the snapshot store and runs every command against it.
// Refreshes hold the store lock for the whole batch, so at most one refresh
// or add runs at a time and later callers wait their turn.
type Manager struct {
	store    *store.MemoryStore
	provider weather.Provider
	sink     weather.UISink
	files    *persistence.FileStore

	now   func() time.Time
	saves sync.WaitGroup
}

// NewManager creates a Manager with an empty store. Call Load to restore the cache file.
func NewManager(p weather.Provider, sink weather.UISink, files *persistence.FileStore) *Manager {
	return &Manager{
		store:    store.NewMemoryStore(),
		provider: p,
		sink:     sink,
		files:    files,
		now:      time.Now,
	}
}

// Load replaces the store contents with the cache file. A missing or broken
// file leaves the store empty; the error is only logged.
func (m *Manager) Load(ctx context.Context) error {
	snapshots, err := m.files.Load()
	if err != nil {
		log.Error().Err(err).Str("path", m.files.Path()).Msg("session: cannot load cached cities")
		snapshots = nil
	}

	kept, err := m.store.Replace(ctx, snapshots)
	if err != nil {
		return err
	}
	log.Info().Int("cities", kept).Msg("session: loaded cities")

	m.publish(ctx)
	return nil
}

// RefreshAll fetches fresh weather for every tracked location in order.
// A failed fetch leaves that entry as it was and the batch carries on.
func (m *Manager) RefreshAll(ctx context.Context) error {
	m.sink.SetBusy(true)
	defer m.sink.SetBusy(false)

	var snapshots []weather.WeatherSnapshot
	err := m.store.Batch(ctx, func(e store.Entries) error {
		for i := 0; i < e.Len(); i++ {
			m.refresh(ctx, e.At(i))
		}
		snapshots = e.Copy()
		return nil
	})
	if err != nil {
		return err
	}

	m.sink.StoreChanged(snapshots)
	return nil
}

// AddAndRefresh starts tracking loc and fetches its weather once. The entry
// is kept even when the fetch fails. Adding a location that is already
// tracked does nothing and reports false.
func (m *Manager) AddAndRefresh(ctx context.Context, loc weather.Location) (bool, error) {
	m.sink.SetBusy(true)
	defer m.sink.SetBusy(false)

	var (
		added     bool
		snapshots []weather.WeatherSnapshot
	)
	err := m.store.Batch(ctx, func(e store.Entries) error {
		if e.Index(loc) >= 0 {
			return nil
		}

		snap := weather.NewSnapshot(loc)
		m.refresh(ctx, &snap)
		e.Append(snap)

		added = true
		snapshots = e.Copy()
		return nil
	})
	if err != nil {
		return false, err
	}

	if !added {
		log.Debug().Str("city", loc.Name).Msg("session: location already tracked")
		return false, nil
	}
	m.sink.StoreChanged(snapshots)
	return true, nil
}

// Remove stops tracking the location at index.
func (m *Manager) Remove(ctx context.Context, index int) error {
	if err := m.store.Remove(ctx, index); err != nil {
		return err
	}
	m.publish(ctx)
	return nil
}

// Reorder swaps the locations at a and b.
func (m *Manager) Reorder(ctx context.Context, a, b int) error {
	if err := m.store.Reorder(ctx, a, b); err != nil {
		return err
	}
	m.publish(ctx)
	return nil
}

// Snapshots returns a copy of the tracked locations in display order.
func (m *Manager) Snapshots(ctx context.Context) ([]weather.WeatherSnapshot, error) {
	return m.store.Snapshots(ctx)
}

// Search looks up locations matching query. Results sharing name, country
// and state are collapsed before they reach the sink. On a provider error
// the sink keeps its previous results.
func (m *Manager) Search(ctx context.Context, query string) ([]weather.SearchResult, error) {
	if query == "" {
		empty := []weather.SearchResult{}
		m.sink.SearchResultsChanged(empty)
		return empty, nil
	}

	raw, err := m.provider.Geocode(ctx, query)
	if err != nil {
		log.Error().Err(err).Str("query", query).Msg("session: location search failed")
		return nil, err
	}

	results := weather.DedupeResults(raw)
	log.Debug().Str("query", query).Int("raw", len(raw)).Int("results", len(results)).Msg("session: search done")

	m.sink.SearchResultsChanged(results)
	return results, nil
}

// Save writes the current store to disk in the background. Failures are
// logged. Use Flush to wait for pending writes.
//
// The write happens under the store lock, so the file always matches the
// store as of some point in time and a later save is never overwritten by an
// earlier one.
func (m *Manager) Save() {
	m.saves.Add(1)
	go func() {
		defer m.saves.Done()

		saved := 0
		err := m.store.Batch(context.Background(), func(e store.Entries) error {
			saved = e.Len()
			return m.files.Save(e.Copy())
		})
		if err != nil {
			log.Error().Err(err).Str("path", m.files.Path()).Msg("session: save cities")
			return
		}
		log.Debug().Int("cities", saved).Str("path", m.files.Path()).Msg("session: cities saved")
	}()
}

// Flush blocks until every Save started so far has finished.
func (m *Manager) Flush() {
	m.saves.Wait()
}

// refresh must be called with the store lock held.
func (m *Manager) refresh(ctx context.Context, snap *weather.WeatherSnapshot) {
	loc := snap.Location
	payload, err := m.provider.FetchWeather(ctx, loc.Lat, loc.Lon)
	if err != nil {
		log.Error().Err(err).
			Str("provider", m.provider.Name()).
			Str("city", loc.Name).
			Msg("session: refresh failed")
		return
	}
	snap.Apply(payload, m.now().Unix())
}

func (m *Manager) publish(ctx context.Context) {
	snapshots, err := m.store.Snapshots(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("session: cannot publish store")
		return
	}
	m.sink.StoreChanged(snapshots)
}
