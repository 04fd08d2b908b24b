package store

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/i474232898/weather-tracker/internal/weather"
)

var (
	// ErrIndexOutOfRange is returned when a remove or reorder names a position
	// that does not exist.
	ErrIndexOutOfRange = errors.New("index out of range")
)

// Entries is the live, ordered snapshot list handed to Batch callbacks.
// It must not be retained after the callback returns.
type Entries struct {
	list *[]weather.WeatherSnapshot
}

// Len returns the number of tracked locations.
func (e Entries) Len() int { return len(*e.list) }

// At returns the entry at i for in-place updates.
func (e Entries) At(i int) *weather.WeatherSnapshot { return &(*e.list)[i] }

// Index returns the position of loc, or -1.
func (e Entries) Index(loc weather.Location) int {
	for i, s := range *e.list {
		if s.Location == loc {
			return i
		}
	}
	return -1
}

// Append adds snap at the end. Callers check Index first.
func (e Entries) Append(snap weather.WeatherSnapshot) {
	*e.list = append(*e.list, snap)
}

// Copy returns a deep copy of the current list.
func (e Entries) Copy() []weather.WeatherSnapshot {
	return cloneAll(*e.list)
}

// MemoryStore is the ordered, concurrency-safe list of weather snapshots.
// Insertion order is the display order. A single weighted semaphore guards
// the list so that waiting for it can be abandoned through a context.
type MemoryStore struct {
	sem     *semaphore.Weighted
	entries []weather.WeatherSnapshot
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sem: semaphore.NewWeighted(1),
	}
}

// Batch runs fn with exclusive access to the list.
func (s *MemoryStore) Batch(ctx context.Context, fn func(Entries) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("store: acquire lock: %w", err)
	}
	defer s.sem.Release(1)

	return fn(Entries{list: &s.entries})
}

// Add appends an empty snapshot for loc. It reports false when loc is already tracked.
func (s *MemoryStore) Add(ctx context.Context, loc weather.Location) (bool, error) {
	added := false
	err := s.Batch(ctx, func(e Entries) error {
		if e.Index(loc) >= 0 {
			return nil
		}
		e.Append(weather.NewSnapshot(loc))
		added = true
		return nil
	})
	return added, err
}

// Remove deletes the entry at index, shifting later entries left.
func (s *MemoryStore) Remove(ctx context.Context, index int) error {
	return s.Batch(ctx, func(e Entries) error {
		if index < 0 || index >= e.Len() {
			return fmt.Errorf("store: remove %d of %d: %w", index, e.Len(), ErrIndexOutOfRange)
		}
		s.entries = append(s.entries[:index], s.entries[index+1:]...)
		return nil
	})
}

// Reorder swaps the entries at a and b.
func (s *MemoryStore) Reorder(ctx context.Context, a, b int) error {
	return s.Batch(ctx, func(e Entries) error {
		n := e.Len()
		if a < 0 || a >= n || b < 0 || b >= n {
			return fmt.Errorf("store: reorder %d<->%d of %d: %w", a, b, n, ErrIndexOutOfRange)
		}
		s.entries[a], s.entries[b] = s.entries[b], s.entries[a]
		return nil
	})
}

// Snapshots returns a copy of the ordered list.
func (s *MemoryStore) Snapshots(ctx context.Context) ([]weather.WeatherSnapshot, error) {
	var out []weather.WeatherSnapshot
	err := s.Batch(ctx, func(e Entries) error {
		out = e.Copy()
		return nil
	})
	return out, err
}

// Replace swaps the whole list, e.g. with data loaded from disk. Repeated
// locations are dropped; the first occurrence wins. It returns the number of
// entries kept.
func (s *MemoryStore) Replace(ctx context.Context, snapshots []weather.WeatherSnapshot) (int, error) {
	kept := 0
	err := s.Batch(ctx, func(e Entries) error {
		s.entries = s.entries[:0]
		for _, snap := range snapshots {
			if e.Index(snap.Location) >= 0 {
				continue
			}
			e.Append(snap.Clone())
		}
		kept = e.Len()
		return nil
	})
	return kept, err
}

func cloneAll(list []weather.WeatherSnapshot) []weather.WeatherSnapshot {
	out := make([]weather.WeatherSnapshot, len(list))
	for i, s := range list {
		out[i] = s.Clone()
	}
	return out
}
