package filters

import (
	"context"
	"fmt"
	"sync"
)

// Collection names a persisted set of filter names.
type Collection string

const (
	// DisabledFilters holds names of filters that are loaded but switched off.
	DisabledFilters Collection = "disabled_filters"
	// UnloadedFilters holds names of filters whose handler is detached.
	UnloadedFilters Collection = "unloaded_filters"
)

// Collections lists every collection the registry persists to.
var Collections = []Collection{DisabledFilters, UnloadedFilters}

// Store persists filter names per collection. Each record carries a single
// filter name; the registry never inserts a name that is already present.
type Store interface {
	// FindAll returns every stored name in insertion order.
	FindAll(ctx context.Context, coll Collection) ([]string, error)
	// InsertOne stores a record for name.
	InsertOne(ctx context.Context, coll Collection, name string) error
	// DeleteOne removes a single record for name, if any.
	DeleteOne(ctx context.Context, coll Collection, name string) error
	// Drop removes every record of the collection.
	Drop(ctx context.Context, coll Collection) error
}

// MemoryStore is an in-process Store for tests and development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[Collection][]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[Collection][]string)}
}

func checkCollection(coll Collection) error {
	for _, known := range Collections {
		if coll == known {
			return nil
		}
	}
	return fmt.Errorf("unknown filter collection %q", coll)
}

// FindAll implements Store.
func (s *MemoryStore) FindAll(_ context.Context, coll Collection) ([]string, error) {
	if err := checkCollection(coll); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.records[coll]...), nil
}

// InsertOne implements Store.
func (s *MemoryStore) InsertOne(_ context.Context, coll Collection, name string) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[coll] = append(s.records[coll], name)
	return nil
}

// DeleteOne implements Store.
func (s *MemoryStore) DeleteOne(_ context.Context, coll Collection, name string) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.records[coll]
	for i, existing := range records {
		if existing == name {
			s.records[coll] = append(records[:i:i], records[i+1:]...)
			return nil
		}
	}
	return nil
}

// Drop implements Store.
func (s *MemoryStore) Drop(_ context.Context, coll Collection) error {
	if err := checkCollection(coll); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, coll)
	return nil
}
