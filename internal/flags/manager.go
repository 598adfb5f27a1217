// Package flags resolves and caches country flag images by country code.
package flags

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// ErrEmptyCode is returned when a lookup is requested for a blank code.
var ErrEmptyCode = errors.New("empty country code")

// State is the lifecycle position of a single country code.
type State int

const (
	// StateAbsent means the code has never been requested.
	StateAbsent State = iota
	// StatePending means a lookup is in flight.
	StatePending
	// StateResolved means the flag URL is cached.
	StateResolved
	// StateFailed means the last lookup failed. The code may be retried.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAbsent:
		return "absent"
	case StatePending:
		return "pending"
	case StateResolved:
		return "resolved"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Lookup fetches the flag image URL of a country code.
type Lookup interface {
	LookupFlag(ctx context.Context, code string) (string, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, code string) (string, error)

// LookupFlag implements Lookup.
func (f LookupFunc) LookupFlag(ctx context.Context, code string) (string, error) {
	return f(ctx, code)
}

// Manager memoizes flag lookups. Flag reads never block on lookups.
type Manager struct {
	lookup      Lookup
	group       singleflight.Group
	concurrency int
	refetch     bool
	observer    func(code string, state State)

	mu     sync.RWMutex
	flags  map[string]string // replaced on every write, never mutated
	states map[string]State
}

// Option configures a Manager.
type Option func(*Manager)

// WithConcurrency caps the number of lookups EnsureAll runs at once. Zero
// means one goroutine per code.
func WithConcurrency(n int) Option {
	return func(m *Manager) {
		if n >= 0 {
			m.concurrency = n
		}
	}
}

// WithRefetch makes EnsureFlag look up codes again even when they are
// already resolved. The new value overwrites the old one.
func WithRefetch(refetch bool) Option {
	return func(m *Manager) {
		m.refetch = refetch
	}
}

// WithObserver registers a callback invoked after every state change. It is
// called without internal locks held.
func WithObserver(fn func(code string, state State)) Option {
	return func(m *Manager) {
		m.observer = fn
	}
}

// NewManager creates a manager backed by lookup.
func NewManager(lookup Lookup, opts ...Option) *Manager {
	m := &Manager{
		lookup: lookup,
		flags:  map[string]string{},
		states: map[string]State{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// normalizeCode trims surrounding whitespace. Case is kept so cache keys match
// the codes the view looks up.
func normalizeCode(code string) string {
	return strings.TrimSpace(code)
}

// Flag returns the cached flag URL for code.
func (m *Manager) Flag(code string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	url, ok := m.flags[normalizeCode(code)]
	return url, ok
}

// State returns the lifecycle state of code.
func (m *Manager) State(code string) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[normalizeCode(code)]
}

// Snapshot returns every resolved flag. The map must not be modified.
func (m *Manager) Snapshot() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags
}

// Len returns the number of resolved flags.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.flags)
}

// EnsureFlag resolves the flag of code unless it is already resolved.
// Concurrent calls for the same code share one lookup. A failure is logged,
// leaves the code unresolved and is returned.
func (m *Manager) EnsureFlag(ctx context.Context, code string) error {
	code = normalizeCode(code)
	if code == "" {
		return ErrEmptyCode
	}

	if !m.markPending(code) {
		return nil
	}

	_, err, _ := m.group.Do(code, func() (any, error) {
		url, err := m.lookup.LookupFlag(ctx, code)
		if err != nil {
			slog.Warn("Failed to fetch flag", "code", code, "error", err)
			m.markFailed(code)
			return nil, err
		}
		m.store(code, url)
		return url, nil
	})
	if err != nil {
		return fmt.Errorf("flag %s: %w", code, err)
	}
	return nil
}

// EnsureAll resolves every distinct code in codes concurrently and returns
// once all lookups have settled. Individual failures are logged by
// EnsureFlag and do not stop the others.
func (m *Manager) EnsureAll(ctx context.Context, codes []string) {
	var g errgroup.Group
	if m.concurrency > 0 {
		g.SetLimit(m.concurrency)
	}

	seen := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		code = normalizeCode(code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}

		g.Go(func() error {
			_ = m.EnsureFlag(ctx, code)
			return nil
		})
	}
	_ = g.Wait()
}

// markPending moves code to pending and reports whether a lookup is needed.
func (m *Manager) markPending(code string) bool {
	m.mu.Lock()
	state := m.states[code]
	if state == StateResolved && !m.refetch {
		m.mu.Unlock()
		return false
	}
	changed := state != StatePending && state != StateResolved
	if changed {
		m.states[code] = StatePending
	}
	m.mu.Unlock()

	if changed {
		m.notify(code, StatePending)
	}
	return true
}

// store merges code into the resolved flags. The map is copied so readers
// holding a Snapshot never see it change.
func (m *Manager) store(code, url string) {
	m.mu.Lock()
	next := maps.Clone(m.flags)
	next[code] = url
	m.flags = next
	m.states[code] = StateResolved
	m.mu.Unlock()

	slog.Debug("Resolved flag", "code", code, "url", url)
	m.notify(code, StateResolved)
}

func (m *Manager) markFailed(code string) {
	m.mu.Lock()
	if m.states[code] == StateResolved {
		// A refetch failed; the previously resolved value stays usable.
		m.mu.Unlock()
		return
	}
	m.states[code] = StateFailed
	m.mu.Unlock()

	m.notify(code, StateFailed)
}

func (m *Manager) notify(code string, state State) {
	if m.observer != nil {
		m.observer(code, state)
	}
}
