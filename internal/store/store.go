// Package store holds the fetched resource collections of one view session.
package store

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/lepinkainen/storefront/internal/jsonapi"
)

// Collection names one of the REST collections. The value doubles as the
// endpoint path segment.
type Collection string

const (
	Stores    Collection = "stores"
	Books     Collection = "books"
	Authors   Collection = "authors"
	Countries Collection = "countries"
)

// Collections lists every collection in fetch order.
var Collections = []Collection{Stores, Books, Authors, Countries}

// ErrUnknownCollection is returned when writing a collection the store has no
// slot for.
var ErrUnknownCollection = errors.New("unknown collection")

// Valid reports whether c names a known collection.
func (c Collection) Valid() bool {
	return slices.Contains(Collections, c)
}

// Snapshot is a consistent, read-only view of all collections at one point in
// time. Slices in a snapshot are never mutated after it is taken.
type Snapshot struct {
	Stores    []jsonapi.Resource
	Books     []jsonapi.Resource
	Authors   []jsonapi.Resource
	Countries []jsonapi.Resource
	// Epoch is the fetch cycle that was current when the snapshot was taken.
	Epoch uint64
}

// Store owns one slot per collection. Every slot starts empty and is only ever
// replaced as a whole.
type Store struct {
	mu    sync.RWMutex
	epoch uint64
	slots map[Collection][]jsonapi.Resource
}

// New creates an empty store.
func New() *Store {
	return &Store{
		slots: make(map[Collection][]jsonapi.Resource, len(Collections)),
	}
}

// BeginCycle starts a new fetch cycle and returns its epoch. Responses tagged
// with an older epoch are discarded by ReplaceIfCurrent.
func (s *Store) BeginCycle() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	return s.epoch
}

// Epoch returns the current fetch cycle.
func (s *Store) Epoch() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.epoch
}

// Replace swaps the contents of a collection regardless of cycle.
func (s *Store) Replace(c Collection, items []jsonapi.Resource) error {
	if !c.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}

	cloned := slices.Clone(items)
	if cloned == nil {
		cloned = []jsonapi.Resource{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[c] = cloned
	return nil
}

// ReplaceIfCurrent swaps the contents of a collection only when epoch is still
// the current cycle. It reports whether the write happened.
func (s *Store) ReplaceIfCurrent(epoch uint64, c Collection, items []jsonapi.Resource) (bool, error) {
	if !c.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}

	cloned := slices.Clone(items)
	if cloned == nil {
		cloned = []jsonapi.Resource{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		return false, nil
	}
	s.slots[c] = cloned
	return true, nil
}

// Get returns the current contents of a collection. The result must not be
// modified.
func (s *Store) Get(c Collection) []jsonapi.Resource {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.slots[c]
}

// Snapshot returns all collections as they are right now.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Stores:    s.slots[Stores],
		Books:     s.slots[Books],
		Authors:   s.slots[Authors],
		Countries: s.slots[Countries],
		Epoch:     s.epoch,
	}
}
