// Package preferences persists the few client settings that outlive a session.
package preferences

import (
	"sync"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"
)

const (
	defaultPreferencesDir = "./wal/preferences"
	prefSegmentLimit      = 100
	prefMaxSegments       = 5
	darkModeKey           = "pref_dark_mode"

	valueEnabled  = "enabled"
	valueDisabled = "disabled"
)

// WALStore keeps preferences as WAL entries. The newest entry for a key wins.
type WALStore struct {
	wal *gowal.Wal
	mu  sync.RWMutex
}

// NewWALStore opens (or creates) the preferences WAL under dir.
func NewWALStore(dir string) (*WALStore, error) {
	if dir == "" {
		dir = defaultPreferencesDir
	}

	cfg := gowal.Config{
		Dir:              dir,
		Prefix:           "prefs_",
		SegmentThreshold: prefSegmentLimit,
		MaxSegments:      prefMaxSegments,
		IsInSyncDiskMode: true,
	}

	wal, err := gowal.NewWAL(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "init preferences WAL")
	}

	return &WALStore{wal: wal}, nil
}

// SetDarkMode records the theme preference.
func (s *WALStore) SetDarkMode(enabled bool) error {
	if s == nil || s.wal == nil {
		return errors.New("preferences store is not initialized")
	}

	value := valueDisabled
	if enabled {
		value = valueEnabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	nextIndex := s.wal.CurrentIndex() + 1
	if err := s.wal.Write(nextIndex, darkModeKey, []byte(value)); err != nil {
		return errors.Wrap(err, "write dark mode preference")
	}
	return nil
}

// DarkMode returns the last recorded theme preference, false when none was ever saved.
func (s *WALStore) DarkMode() (bool, error) {
	if s == nil || s.wal == nil {
		return false, errors.New("preferences store is not initialized")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for idx := s.wal.CurrentIndex(); idx > 0; idx-- {
		key, payload, err := s.wal.Get(idx)
		if err != nil || key != darkModeKey {
			continue
		}
		return string(payload) == valueEnabled, nil
	}

	return false, nil
}

// Close closes the underlying WAL.
func (s *WALStore) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("preferences store is not initialized")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.wal.Close()
}
