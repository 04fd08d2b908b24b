package persistence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/i474232898/weather-tracker/internal/weather"
)

// FileName is the cache document written inside the data directory.
const FileName = "cities_data.json"

// ErrPersistence wraps every failure to read or write the cache document.
var ErrPersistence = errors.New("persistence error")

// FileStore reads and writes the tracked locations as one JSON document.
type FileStore struct {
	dir string
}

// NewFileStore returns a store rooted at dir. The directory is created on first save.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Path returns the full path of the cache document.
func (f *FileStore) Path() string {
	return filepath.Join(f.dir, FileName)
}

// Load reads the cache document. A missing file is reported as an error like
// any other; callers fall back to an empty list.
func (f *FileStore) Load() ([]weather.WeatherSnapshot, error) {
	if f.dir == "" {
		return nil, fmt.Errorf("%w: data directory not configured", ErrPersistence)
	}

	file, err := os.Open(f.Path())
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrPersistence, f.Path(), err)
	}
	defer file.Close()

	var data []weather.WeatherSnapshot
	if err := json.NewDecoder(bufio.NewReader(file)).Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %v", ErrPersistence, f.Path(), err)
	}
	if data == nil {
		data = []weather.WeatherSnapshot{}
	}
	return data, nil
}

// Save overwrites the cache document with snapshots.
func (f *FileStore) Save(snapshots []weather.WeatherSnapshot) error {
	if f.dir == "" {
		return fmt.Errorf("%w: data directory not configured", ErrPersistence)
	}
	if err := os.MkdirAll(f.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create %s: %v", ErrPersistence, f.dir, err)
	}
	if snapshots == nil {
		snapshots = []weather.WeatherSnapshot{}
	}

	// Write next to the target and rename so a crash never leaves half a document.
	tmp, err := os.CreateTemp(f.dir, FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", ErrPersistence, err)
	}
	defer os.Remove(tmp.Name())

	w := bufio.NewWriter(tmp)
	if err := json.NewEncoder(w).Encode(snapshots); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: encode: %v", ErrPersistence, err)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: write: %v", ErrPersistence, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: close: %v", ErrPersistence, err)
	}
	if err := os.Rename(tmp.Name(), f.Path()); err != nil {
		return fmt.Errorf("%w: replace %s: %v", ErrPersistence, f.Path(), err)
	}
	return nil
}
