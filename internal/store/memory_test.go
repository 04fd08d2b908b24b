package store

import (
	"context"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/weather-tracker/internal/weather"
)

var (
	paris  = weather.Location{Lat: 48.85, Lon: 2.35, Name: "Paris"}
	berlin = weather.Location{Lat: 52.52, Lon: 13.40, Name: "Berlin"}
	oslo   = weather.Location{Lat: 59.91, Lon: 10.75, Name: "Oslo"}
)

func names(t *testing.T, s *MemoryStore) []string {
	t.Helper()
	snaps, err := s.Snapshots(context.Background())
	require.NoError(t, err)
	out := make([]string, 0, len(snaps))
	for _, snap := range snaps {
		out = append(out, snap.Location.Name)
	}
	return out
}

func TestMemoryStoreAdd(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	added, err := s.Add(ctx, paris)
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.Add(ctx, paris)
	require.NoError(t, err)
	assert.False(t, added, "duplicate add must be a no-op")

	// Same name, different coordinates is a different place.
	added, err = s.Add(ctx, weather.Location{Lat: 33.66, Lon: -95.55, Name: "Paris"})
	require.NoError(t, err)
	assert.True(t, added)

	snaps, err := s.Snapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	assert.Nil(t, snaps[0].Data)
	assert.Zero(t, snaps[0].LastUpdate)
}

func TestMemoryStoreRemove(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		index    int
		expected []string
		wantErr  bool
	}{
		{name: "first", index: 0, expected: []string{"Berlin", "Oslo"}},
		{name: "middle", index: 1, expected: []string{"Paris", "Oslo"}},
		{name: "last", index: 2, expected: []string{"Paris", "Berlin"}},
		{name: "past end", index: 3, expected: []string{"Paris", "Berlin", "Oslo"}, wantErr: true},
		{name: "negative", index: -1, expected: []string{"Paris", "Berlin", "Oslo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			for _, loc := range []weather.Location{paris, berlin, oslo} {
				_, err := s.Add(ctx, loc)
				require.NoError(t, err)
			}

			err := s.Remove(ctx, tt.index)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIndexOutOfRange)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, names(t, s))
		})
	}
}

func TestMemoryStoreReorder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		a, b     int
		expected []string
		wantErr  bool
	}{
		{name: "swap ends", a: 0, b: 2, expected: []string{"Oslo", "Berlin", "Paris"}},
		{name: "swap neighbours", a: 1, b: 0, expected: []string{"Berlin", "Paris", "Oslo"}},
		{name: "same index", a: 1, b: 1, expected: []string{"Paris", "Berlin", "Oslo"}},
		{name: "first invalid", a: 5, b: 0, expected: []string{"Paris", "Berlin", "Oslo"}, wantErr: true},
		{name: "second invalid", a: 0, b: 3, expected: []string{"Paris", "Berlin", "Oslo"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewMemoryStore()
			for _, loc := range []weather.Location{paris, berlin, oslo} {
				_, err := s.Add(ctx, loc)
				require.NoError(t, err)
			}

			err := s.Reorder(ctx, tt.a, tt.b)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrIndexOutOfRange)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.expected, names(t, s))
		})
	}
}

func TestMemoryStoreSnapshotsAreCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Add(ctx, paris)
	require.NoError(t, err)

	require.NoError(t, s.Batch(ctx, func(e Entries) error {
		e.At(0).Apply(&weather.Payload{Current: &weather.CurrentWeather{Temp: 12}}, 100)
		return nil
	}))

	snaps, err := s.Snapshots(ctx)
	require.NoError(t, err)
	snaps[0].Data.Current.Temp = -40
	snaps[0].Location.Name = "changed"

	again, err := s.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, 12.0, again[0].Data.Current.Temp)
	assert.Equal(t, "Paris", again[0].Location.Name)
}

func TestMemoryStoreReplaceDropsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	_, err := s.Add(ctx, oslo)
	require.NoError(t, err)

	first := weather.NewSnapshot(paris)
	first.LastUpdate = 1
	dup := weather.NewSnapshot(paris)
	dup.LastUpdate = 2

	kept, err := s.Replace(ctx, []weather.WeatherSnapshot{first, weather.NewSnapshot(berlin), dup})
	require.NoError(t, err)
	assert.Equal(t, 2, kept)

	snaps, err := s.Snapshots(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Paris", "Berlin"}, names(t, s))
	assert.Equal(t, int64(1), snaps[0].LastUpdate)
}

func TestMemoryStoreBatchHonoursContext(t *testing.T) {
	s := NewMemoryStore()
	held := make(chan struct{})
	release := make(chan struct{})

	go func() {
		_ = s.Batch(context.Background(), func(Entries) error {
			close(held)
			<-release
			return nil
		})
	}()
	<-held

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := s.Add(ctx, paris)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	added, err := s.Add(context.Background(), paris)
	require.NoError(t, err)
	assert.True(t, added)
}

// Random add/remove/reorder sequences never leave two entries for the same place.
func TestMemoryStoreNeverHoldsDuplicates(t *testing.T) {
	ctx := context.Background()
	pool := []weather.Location{paris, berlin, oslo, {Lat: 1, Lon: 1, Name: "Paris"}}
	rng := rand.New(rand.NewSource(7))

	s := NewMemoryStore()
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		seed := rng.Int63()
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				switch r.Intn(3) {
				case 0:
					_, _ = s.Add(ctx, pool[r.Intn(len(pool))])
				case 1:
					_ = s.Remove(ctx, r.Intn(5))
				case 2:
					_ = s.Reorder(ctx, r.Intn(5), r.Intn(5))
				}
			}
		}()
	}
	wg.Wait()

	snaps, err := s.Snapshots(ctx)
	require.NoError(t, err)
	seen := map[weather.Location]bool{}
	for _, snap := range snaps {
		assert.False(t, seen[snap.Location], "duplicate %v", snap.Location)
		seen[snap.Location] = true
	}
}
