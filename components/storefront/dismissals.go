package storefront

import (
	"context"
	"fmt"
)

// DismissalStore is the persisted set of dismissed banner versions.
type DismissalStore interface {
	Contains(ctx context.Context, key string) (bool, error)
	Add(ctx context.Context, key string) error
}

// DismissalSet implements DismissalStore on top of any Storage.
type DismissalSet struct {
	storage Storage
}

// NewDismissalSet wraps storage. A nil storage falls back to memory.
func NewDismissalSet(storage Storage) *DismissalSet {
	if storage == nil {
		storage = NewInMemoryStorage()
	}
	return &DismissalSet{storage: storage}
}

// Contains reports whether key was recorded as dismissed.
func (s *DismissalSet) Contains(ctx context.Context, key string) (bool, error) {
	value, ok, err := s.storage.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("storefront: read dismissal %s: %w", key, err)
	}
	return ok && value != "", nil
}

// Add records key as dismissed.
func (s *DismissalSet) Add(ctx context.Context, key string) error {
	if err := s.storage.Set(ctx, key, "1"); err != nil {
		return fmt.Errorf("storefront: persist dismissal %s: %w", key, err)
	}
	return nil
}
