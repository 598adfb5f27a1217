package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lepinkainen/storefront/internal/api"
	"github.com/lepinkainen/storefront/internal/cache"
	"github.com/lepinkainen/storefront/internal/config"
	"github.com/lepinkainen/storefront/internal/flags"
	"github.com/lepinkainen/storefront/internal/httpx"
	"github.com/lepinkainen/storefront/internal/loader"
	"github.com/lepinkainen/storefront/internal/ratelimit"
	"github.com/lepinkainen/storefront/internal/store"
	"github.com/lepinkainen/storefront/internal/view"
)

// newApp is replaced in tests.
var newApp = newApplication

const userAgent = "storefront"

// application wires the fetch, flag and assembly layers for one run.
type application struct {
	cfg       config.Config
	store     *store.Store
	flags     *flags.Manager
	loader    *loader.Loader
	assembler *view.Assembler
	http      *httpx.Client
	cacheDB   *cache.CacheDB
}

// appOptions carries per-command hooks into the loader and flag manager.
type appOptions struct {
	loader []loader.Option
	flags  []flags.Option
}

type appOption func(*appOptions)

func withLoaderOptions(opts ...loader.Option) appOption {
	return func(o *appOptions) { o.loader = append(o.loader, opts...) }
}

func withFlagOptions(opts ...flags.Option) appOption {
	return func(o *appOptions) { o.flags = append(o.flags, opts...) }
}

func newApplication(cfg config.Config, opts ...appOption) (*application, error) {
	var o appOptions
	for _, opt := range opts {
		opt(&o)
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	apiHTTP := httpx.NewClient("api",
		httpx.WithUserAgent(userAgent),
		httpx.WithTimeout(cfg.HTTPTimeout),
		httpx.WithRetryAttempts(cfg.HTTPRetries),
		httpx.WithRateLimiter(ratelimit.New("api", cfg.HTTPRPS)),
	)
	flagHTTP := httpx.NewClient("restcountries",
		httpx.WithUserAgent(userAgent),
		httpx.WithTimeout(cfg.HTTPTimeout),
		httpx.WithRetryAttempts(cfg.HTTPRetries),
		httpx.WithRateLimiter(ratelimit.New("restcountries", cfg.HTTPRPS)),
	)

	app := &application{
		cfg:       cfg,
		store:     store.New(),
		assembler: view.NewAssembler(view.WithLocation(loc), view.WithTopN(cfg.TopN)),
		http:      apiHTTP,
	}

	var lookup flags.Lookup = flags.NewRestCountries(cfg.FlagsBaseURL, flagHTTP)
	if cfg.CacheEnabled {
		db, err := cache.Open(cfg.CacheDBFile)
		if err != nil {
			// The flag cache only saves lookups; run without it.
			slog.Warn("Flag cache unavailable", "database", cfg.CacheDBFile, "error", err)
		} else {
			app.cacheDB = db
			lookup = flags.NewCachedLookup(lookup, db, cfg.CacheTTL)
		}
	}

	flagOpts := append([]flags.Option{
		flags.WithConcurrency(cfg.FlagsWorkers),
		flags.WithRefetch(cfg.FlagsRefetch),
	}, o.flags...)
	app.flags = flags.NewManager(lookup, flagOpts...)
	app.loader = loader.New(api.NewClient(cfg.APIBaseURL, apiHTTP), app.store, app.flags, o.loader...)
	return app, nil
}

// load runs one fetch cycle and logs its outcome.
func (a *application) load(ctx context.Context) loader.Result {
	res := a.loader.Load(ctx)
	if err := res.Err(); err != nil {
		slog.Warn("Some collections could not be fetched", "error", err)
	}
	slog.Info("Loaded store directory",
		"stores", res.Counts[store.Stores],
		"books", res.Counts[store.Books],
		"flags", a.flags.Len(),
		"flags_failed", len(a.failedFlags()),
	)
	return res
}

// failedFlags lists the country codes whose last flag lookup failed.
func (a *application) failedFlags() []string {
	var failed []string
	for _, code := range loader.CountryCodes(a.store.Get(store.Countries)) {
		if a.flags.State(code) == flags.StateFailed {
			failed = append(failed, code)
		}
	}
	return failed
}

// records assembles the current store contents.
func (a *application) records() []view.DisplayRecord {
	return a.assembler.Assemble(a.store.Snapshot(), a.flags)
}

func (a *application) Close() error {
	if a.cacheDB == nil {
		return nil
	}
	if err := a.cacheDB.Close(); err != nil {
		return fmt.Errorf("close flag cache %s: %w", a.cacheDB.Path(), err)
	}
	return nil
}

// openApp loads the configuration and builds the application.
func openApp(opts ...appOption) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return newApp(cfg, opts...)
}

// strictErr turns fetch failures into a command error when strict is set.
func strictErr(strict bool, res loader.Result) error {
	if !strict {
		return nil
	}
	if err := res.Err(); err != nil {
		return errors.Join(errors.New("incomplete store directory"), err)
	}
	return nil
}
