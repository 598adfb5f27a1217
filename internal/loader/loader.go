// Package loader runs fetch cycles that fill the resource store.
package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/lepinkainen/storefront/internal/jsonapi"
	"github.com/lepinkainen/storefront/internal/store"
	"golang.org/x/sync/errgroup"
)

// Fetcher retrieves one whole collection.
type Fetcher interface {
	Fetch(ctx context.Context, collection store.Collection) ([]jsonapi.Resource, error)
}

// FlagEnsurer populates the flag cache for a set of country codes.
type FlagEnsurer interface {
	EnsureAll(ctx context.Context, codes []string)
}

// Update describes one completed step of a fetch cycle.
type Update struct {
	Epoch      uint64
	Collection store.Collection
	Count      int
	Err        error
	// Stale is set when the response arrived after a newer cycle started and
	// was discarded.
	Stale bool
	// Flags is set once flag lookups triggered by the countries collection
	// have settled. Collection is empty in that case.
	Flags bool
}

// Result summarizes a finished fetch cycle.
type Result struct {
	Epoch  uint64
	Counts map[store.Collection]int
	Errors map[store.Collection]error
	Stale  []store.Collection
}

// Err joins every fetch error of the cycle, or returns nil.
func (r Result) Err() error {
	errs := make([]error, 0, len(r.Errors))
	for _, c := range store.Collections {
		if err, ok := r.Errors[c]; ok {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

// Option configures a Loader.
type Option func(*Loader)

// WithNotify registers a callback run after every step of a cycle. It is
// called from fetch goroutines and must be safe for concurrent use.
func WithNotify(fn func(Update)) Option {
	return func(l *Loader) {
		l.notify = fn
	}
}

// Loader fetches every collection concurrently and writes each into its own
// store slot as soon as it arrives.
type Loader struct {
	fetcher Fetcher
	store   *store.Store
	flags   FlagEnsurer
	notify  func(Update)
}

// New creates a Loader. flags may be nil to skip flag lookups.
func New(fetcher Fetcher, st *store.Store, flags FlagEnsurer, opts ...Option) *Loader {
	l := &Loader{
		fetcher: fetcher,
		store:   st,
		flags:   flags,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load runs one fetch cycle and returns once every fetch and flag lookup of
// the cycle has settled. Failures are logged and reported in the result; a
// failed collection keeps its previous contents.
func (l *Loader) Load(ctx context.Context) Result {
	epoch := l.store.BeginCycle()
	slog.Debug("Starting fetch cycle", "epoch", epoch)

	res := Result{
		Epoch:  epoch,
		Counts: make(map[store.Collection]int, len(store.Collections)),
		Errors: make(map[store.Collection]error),
	}
	var mu sync.Mutex

	// Goroutines never return errors so one failed fetch cannot cancel the
	// others through the group context.
	var g errgroup.Group
	for _, c := range store.Collections {
		g.Go(func() error {
			update := l.fetch(ctx, epoch, c)

			mu.Lock()
			switch {
			case update.Err != nil:
				res.Errors[c] = update.Err
			case update.Stale:
				res.Stale = append(res.Stale, c)
			default:
				res.Counts[c] = update.Count
			}
			mu.Unlock()

			l.emit(update)

			if c == store.Countries && update.Err == nil && !update.Stale {
				l.ensureFlags(ctx, epoch)
			}
			return nil
		})
	}
	_ = g.Wait()

	slog.Debug("Fetch cycle finished", "epoch", epoch, "errors", len(res.Errors), "stale", len(res.Stale))
	return res
}

func (l *Loader) fetch(ctx context.Context, epoch uint64, c store.Collection) Update {
	update := Update{Epoch: epoch, Collection: c}

	items, err := l.fetcher.Fetch(ctx, c)
	if err != nil {
		slog.Warn("Failed to fetch collection", "collection", c, "error", err)
		update.Err = err
		return update
	}

	written, err := l.store.ReplaceIfCurrent(epoch, c, items)
	if err != nil {
		slog.Warn("Failed to store collection", "collection", c, "error", err)
		update.Err = err
		return update
	}
	if !written {
		slog.Debug("Discarding stale response", "collection", c, "epoch", epoch, "current", l.store.Epoch())
		update.Stale = true
		return update
	}

	update.Count = len(items)
	slog.Debug("Fetched collection", "collection", c, "count", update.Count)
	return update
}

func (l *Loader) ensureFlags(ctx context.Context, epoch uint64) {
	if l.flags == nil {
		return
	}

	codes := CountryCodes(l.store.Get(store.Countries))
	if len(codes) == 0 {
		return
	}

	slog.Debug("Looking up flags", "codes", len(codes))
	l.flags.EnsureAll(ctx, codes)
	l.emit(Update{Epoch: epoch, Flags: true, Count: len(codes)})
}

func (l *Loader) emit(update Update) {
	if l.notify != nil {
		l.notify(update)
	}
}

// CountryCodes returns the distinct non-empty country codes of countries in
// collection order.
func CountryCodes(countries []jsonapi.Resource) []string {
	seen := make(map[string]struct{}, len(countries))
	codes := make([]string, 0, len(countries))
	for _, country := range countries {
		code, ok := country.Attributes.String("code")
		code = strings.TrimSpace(code)
		if !ok || code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	return codes
}
