package storefront

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// Storage is the client-local persistent key/value store (tokens, user,
// theme, dismissed banners). Values are plain strings with no schema.
type Storage interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// InMemoryStorage is a concurrency-safe Storage for tests and ephemeral sessions.
type InMemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewInMemoryStorage creates an empty store.
func NewInMemoryStorage() *InMemoryStorage {
	return &InMemoryStorage{data: make(map[string]string)}
}

// Get implements Storage.
func (s *InMemoryStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

// Set implements Storage.
func (s *InMemoryStorage) Set(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("storefront: storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return nil
}

// Delete implements Storage.
func (s *InMemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, key)
	return nil
}

// Keys returns stored keys with the given prefix, sorted.
func (s *InMemoryStorage) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.data, prefix)
}

// FileStorage persists values to a YAML document. Every write rewrites the
// file through a temp file and rename so readers never see partial data.
type FileStorage struct {
	path string
	mu   sync.RWMutex
	data map[string]string
}

type storageDocument struct {
	Values map[string]string `yaml:"values"`
}

// OpenFileStorage loads path, treating a missing file as empty.
func OpenFileStorage(path string) (*FileStorage, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storefront: storage path is required")
	}
	s := &FileStorage{path: path, data: map[string]string{}}
	raw, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("storefront: read storage %s: %w", path, err)
	}
	var doc storageDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("storefront: parse storage %s: %w", path, err)
	}
	for key, value := range doc.Values {
		s.data[key] = value
	}
	return s, nil
}

// Path returns the backing file.
func (s *FileStorage) Path() string { return s.path }

// Get implements Storage.
func (s *FileStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

// Set implements Storage.
func (s *FileStorage) Set(_ context.Context, key, value string) error {
	if key == "" {
		return fmt.Errorf("storefront: storage key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	s.data[key] = value
	if err := s.flushLocked(); err != nil {
		if had {
			s.data[key] = prev
		} else {
			delete(s.data, key)
		}
		return err
	}
	return nil
}

// Delete implements Storage.
func (s *FileStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, had := s.data[key]
	if !had {
		return nil
	}
	delete(s.data, key)
	if err := s.flushLocked(); err != nil {
		s.data[key] = prev
		return err
	}
	return nil
}

// Keys returns stored keys with the given prefix, sorted.
func (s *FileStorage) Keys(prefix string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sortedKeys(s.data, prefix)
}

func (s *FileStorage) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("storefront: mkdir %s: %w", filepath.Dir(s.path), err)
	}
	data, err := yaml.Marshal(storageDocument{Values: s.data})
	if err != nil {
		return fmt.Errorf("storefront: encode storage: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".storefront-*.yaml")
	if err != nil {
		return fmt.Errorf("storefront: create temp storage: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("storefront: write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storefront: close storage: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("storefront: replace storage %s: %w", s.path, err)
	}
	return nil
}

func sortedKeys(data map[string]string, prefix string) []string {
	keys := make([]string, 0, len(data))
	for key := range data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
