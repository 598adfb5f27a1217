// Package config maps viper settings onto a typed configuration.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to environment variable names, e.g.
// STOREFRONT_API_BASEURL for api.baseurl.
const EnvPrefix = "STOREFRONT"

// Configuration keys.
const (
	KeyAPIBaseURL   = "api.baseurl"
	KeyFlagsBaseURL = "flags.baseurl"
	KeyFlagsRefetch = "flags.refetch"
	KeyFlagsWorkers = "flags.concurrency"
	KeyHTTPTimeout  = "http.timeout"
	KeyHTTPRetries  = "http.retries"
	KeyHTTPRPS      = "http.rps"
	KeyCacheEnabled = "cache.enabled"
	KeyCacheDBFile  = "cache.dbfile"
	KeyCacheTTL     = "cache.ttl"
	KeyOutputDir    = "output.dir"
	KeyTimezone     = "display.timezone"
	KeyTopN         = "display.topbooks"
)

// Config holds the resolved settings of one run.
type Config struct {
	APIBaseURL   string
	FlagsBaseURL string
	// FlagsRefetch looks resolved flags up again on every fetch cycle.
	FlagsRefetch bool
	// FlagsWorkers caps concurrent flag lookups; 0 means one per code.
	FlagsWorkers int

	HTTPTimeout time.Duration
	HTTPRetries int
	// HTTPRPS limits requests per second per client; 0 disables limiting.
	HTTPRPS float64

	CacheEnabled bool
	CacheDBFile  string
	CacheTTL     time.Duration

	OutputDir string
	// Timezone is an IANA name used for dates; empty means the local zone.
	Timezone string
	TopN     int
}

// SetDefaults registers default values on the global viper instance.
func SetDefaults() {
	viper.SetDefault(KeyAPIBaseURL, "http://localhost:3000")
	viper.SetDefault(KeyFlagsBaseURL, "https://restcountries.com/v2")
	viper.SetDefault(KeyFlagsRefetch, false)
	viper.SetDefault(KeyFlagsWorkers, 4)
	viper.SetDefault(KeyHTTPTimeout, "10s")
	viper.SetDefault(KeyHTTPRetries, 3)
	viper.SetDefault(KeyHTTPRPS, 10)
	viper.SetDefault(KeyCacheEnabled, true)
	viper.SetDefault(KeyCacheDBFile, "./cache.db")
	viper.SetDefault(KeyCacheTTL, "720h") // 30 days
	viper.SetDefault(KeyOutputDir, "./stores")
	viper.SetDefault(KeyTimezone, "")
	viper.SetDefault(KeyTopN, 2)
}

// BindEnv enables STOREFRONT_ prefixed environment variables for every key.
func BindEnv() {
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
}

// Load reads the current viper settings and validates them.
func Load() (Config, error) {
	cfg := Config{
		APIBaseURL:   strings.TrimSpace(viper.GetString(KeyAPIBaseURL)),
		FlagsBaseURL: strings.TrimSpace(viper.GetString(KeyFlagsBaseURL)),
		FlagsRefetch: viper.GetBool(KeyFlagsRefetch),
		FlagsWorkers: viper.GetInt(KeyFlagsWorkers),
		HTTPTimeout:  viper.GetDuration(KeyHTTPTimeout),
		HTTPRetries:  viper.GetInt(KeyHTTPRetries),
		HTTPRPS:      viper.GetFloat64(KeyHTTPRPS),
		CacheEnabled: viper.GetBool(KeyCacheEnabled),
		CacheDBFile:  viper.GetString(KeyCacheDBFile),
		CacheTTL:     viper.GetDuration(KeyCacheTTL),
		OutputDir:    viper.GetString(KeyOutputDir),
		Timezone:     strings.TrimSpace(viper.GetString(KeyTimezone)),
		TopN:         viper.GetInt(KeyTopN),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.APIBaseURL == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", KeyAPIBaseURL))
	}
	if c.FlagsWorkers < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %d", KeyFlagsWorkers, c.FlagsWorkers))
	}
	if c.HTTPTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %s", KeyHTTPTimeout, c.HTTPTimeout))
	}
	if c.HTTPRetries < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyHTTPRetries, c.HTTPRetries))
	}
	if c.HTTPRPS < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %g", KeyHTTPRPS, c.HTTPRPS))
	}
	if c.CacheEnabled && c.CacheDBFile == "" {
		errs = append(errs, fmt.Errorf("%s must be set when the cache is enabled", KeyCacheDBFile))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative, got %s", KeyCacheTTL, c.CacheTTL))
	}
	if c.TopN < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1, got %d", KeyTopN, c.TopN))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Location returns the zone dates are displayed in.
func (c Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", KeyTimezone, err)
	}
	return loc, nil
}
