package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	cacheFileExtension = ".json"
	bytesPerMB         = 1 << 20
)

// Cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key must be a hex SHA-256 digest")
	ErrCacheDisabled   = errors.New("cache is disabled")
)

// Stats summarizes the store contents.
type Stats struct {
	Directory string        `json:"directory" yaml:"directory"`
	Entries   int           `json:"entries"   yaml:"entries"`
	Expired   int           `json:"expired"   yaml:"expired"`
	SizeBytes int64         `json:"size_bytes" yaml:"size_bytes"`
	TTL       time.Duration `json:"ttl"       yaml:"ttl"`
}

// FileStore is a directory of JSON cache entries. It is safe for concurrent use
// within one process.
type FileStore struct {
	directory string
	enabled   bool
	ttl       time.Duration
	maxBytes  int64

	mu sync.RWMutex
}

// NewFileStore opens (and creates) a store. A disabled store accepts every call
// and answers ErrCacheDisabled.
func NewFileStore(directory string, enabled bool, ttlSeconds, maxSizeMB int) (*FileStore, error) {
	if !enabled {
		return &FileStore{}, nil
	}
	if directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if _, err := NewTTLConfig(ttlSeconds); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(directory, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{
		directory: directory,
		enabled:   true,
		ttl:       time.Duration(ttlSeconds) * time.Second,
		maxBytes:  int64(maxSizeMB) * bytesPerMB,
	}, nil
}

// IsEnabled reports whether the store caches anything.
func (s *FileStore) IsEnabled() bool { return s.enabled }

// GetDirectory returns the cache directory.
func (s *FileStore) GetDirectory() string { return s.directory }

// GetTTL returns the entry lifetime.
func (s *FileStore) GetTTL() time.Duration { return s.ttl }

func (s *FileStore) path(key string) string {
	return filepath.Join(s.directory, key+cacheFileExtension)
}

func (s *FileStore) check(key string) error {
	if !s.enabled {
		return ErrCacheDisabled
	}
	if !validKey(key) {
		return fmt.Errorf("%w: %q", ErrInvalidCacheKey, key)
	}
	return nil
}

// Get loads the entry for key. Expired entries are removed and reported as
// ErrCacheExpired.
func (s *FileStore) Get(key string) (*CacheEntry, error) {
	if err := s.check(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, err := readEntry(s.path(key))
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	if entry.IsExpired() {
		s.mu.Lock()
		_ = os.Remove(s.path(key))
		s.mu.Unlock()
		return nil, ErrCacheExpired
	}
	return entry, nil
}

// Set writes data under key, replacing any previous entry.
func (s *FileStore) Set(key, label string, data json.RawMessage) error {
	if err := s.check(key); err != nil {
		return err
	}

	raw, err := json.Marshal(NewCacheEntry(key, label, data, s.ttl))
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.path(key)
	tmp := target + ".tmp"
	if writeErr := os.WriteFile(tmp, raw, 0o600); writeErr != nil {
		return fmt.Errorf("writing cache entry: %w", writeErr)
	}
	if renameErr := os.Rename(tmp, target); renameErr != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("committing cache entry: %w", renameErr)
	}
	return nil
}

// Delete removes key. Missing entries are not an error.
func (s *FileStore) Delete(key string) error {
	if err := s.check(key); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting cache entry: %w", err)
	}
	return nil
}

// Clear removes every entry and returns how many were removed.
func (s *FileStore) Clear() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.listLocked()
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, f := range files {
		if rmErr := os.Remove(f.path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			return removed, fmt.Errorf("removing %s: %w", filepath.Base(f.path), rmErr)
		}
		removed++
	}
	return removed, nil
}

// Prune drops expired and unreadable entries, then evicts the oldest entries
// until the store fits its size budget. It returns the number removed.
func (s *FileStore) Prune() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.listLocked()
	if err != nil {
		return 0, err
	}

	removed := 0
	var kept []cacheFile
	var total int64
	for _, f := range files {
		entry, readErr := readEntry(f.path)
		if readErr != nil || entry.IsExpired() {
			if os.Remove(f.path) == nil {
				removed++
			}
			continue
		}
		kept = append(kept, f)
		total += f.size
	}

	if s.maxBytes <= 0 || total <= s.maxBytes {
		return removed, nil
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].modTime.Before(kept[j].modTime) })
	for _, f := range kept {
		if total <= s.maxBytes {
			break
		}
		if os.Remove(f.path) == nil {
			removed++
			total -= f.size
		}
	}
	return removed, nil
}

// Stats reports entry counts and disk usage.
func (s *FileStore) Stats() (Stats, error) {
	if !s.enabled {
		return Stats{}, ErrCacheDisabled
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	files, err := s.listLocked()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Directory: s.directory, TTL: s.ttl}
	for _, f := range files {
		st.Entries++
		st.SizeBytes += f.size
		if entry, readErr := readEntry(f.path); readErr != nil || entry.IsExpired() {
			st.Expired++
		}
	}
	return st, nil
}

type cacheFile struct {
	path    string
	size    int64
	modTime time.Time
}

func (s *FileStore) listLocked() ([]cacheFile, error) {
	dirEntries, err := os.ReadDir(s.directory)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var out []cacheFile
	for _, de := range dirEntries {
		name := de.Name()
		if de.IsDir() || !strings.HasSuffix(name, cacheFileExtension) {
			continue
		}
		if !validKey(strings.TrimSuffix(name, cacheFileExtension)) {
			continue
		}
		info, infoErr := de.Info()
		if infoErr != nil {
			continue
		}
		out = append(out, cacheFile{
			path:    filepath.Join(s.directory, name),
			size:    info.Size(),
			modTime: info.ModTime(),
		})
	}
	return out, nil
}

func readEntry(path string) (*CacheEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrCacheNotFound
		}
		return nil, fmt.Errorf("reading cache entry: %w", err)
	}
	var entry CacheEntry
	if unmarshalErr := json.Unmarshal(data, &entry); unmarshalErr != nil {
		return nil, fmt.Errorf("decoding cache entry: %w", unmarshalErr)
	}
	return &entry, nil
}
