package flags

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lepinkainen/storefront/internal/cache"
	"github.com/lepinkainen/storefront/internal/httpx"
)

// DefaultBaseURL is the public REST Countries v2 API.
const DefaultBaseURL = "https://restcountries.com/v2"

// ErrNoFlag is returned when the country exists but carries no flag image.
var ErrNoFlag = errors.New("no flag in response")

// RestCountries looks flags up from a REST Countries compatible service.
type RestCountries struct {
	baseURL string
	http    *httpx.Client
}

// NewRestCountries creates a lookup against baseURL.
func NewRestCountries(baseURL string, http *httpx.Client) *RestCountries {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if http == nil {
		http = httpx.NewClient("restcountries")
	}
	return &RestCountries{baseURL: baseURL, http: http}
}

type countryResponse struct {
	Flag  string `json:"flag"`
	Flags struct {
		PNG string `json:"png"`
		SVG string `json:"svg"`
	} `json:"flags"`
}

// flagURL picks the flag field, falling back to the v3 style flags object.
func (r countryResponse) flagURL() string {
	switch {
	case r.Flag != "" && strings.Contains(r.Flag, "://"):
		return r.Flag
	case r.Flags.PNG != "":
		return r.Flags.PNG
	case r.Flags.SVG != "":
		return r.Flags.SVG
	default:
		return ""
	}
}

// LookupFlag implements Lookup.
func (c *RestCountries) LookupFlag(ctx context.Context, code string) (string, error) {
	endpoint := fmt.Sprintf("%s/alpha/%s", c.baseURL, url.PathEscape(code))

	var raw json.RawMessage
	if err := c.http.GetJSON(ctx, endpoint, &raw); err != nil {
		return "", err
	}

	// v2 answers with an object, v3 with a one-element array.
	raw = bytes.TrimSpace(raw)
	var resp countryResponse
	if len(raw) > 0 && raw[0] == '[' {
		var list []countryResponse
		if err := json.Unmarshal(raw, &list); err != nil {
			return "", fmt.Errorf("decode country %s: %w", code, err)
		}
		if len(list) == 0 {
			return "", ErrNoFlag
		}
		resp = list[0]
	} else if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("decode country %s: %w", code, err)
	}

	flag := resp.flagURL()
	if flag == "" {
		return "", ErrNoFlag
	}
	return flag, nil
}

// CachedLookup stores successful lookups of another Lookup in the SQLite
// cache so later sessions skip the network.
type CachedLookup struct {
	next Lookup
	db   *cache.CacheDB
	ttl  time.Duration
}

// NewCachedLookup wraps next. A nil db disables caching.
func NewCachedLookup(next Lookup, db *cache.CacheDB, ttl time.Duration) *CachedLookup {
	return &CachedLookup{next: next, db: db, ttl: ttl}
}

type cachedFlag struct {
	URL string `json:"url"`
}

// LookupFlag implements Lookup.
func (c *CachedLookup) LookupFlag(ctx context.Context, code string) (string, error) {
	entry, _, err := cache.GetOrFetch(c.db, cache.FlagTable, strings.ToUpper(code), c.ttl, func() (cachedFlag, error) {
		flag, err := c.next.LookupFlag(ctx, code)
		return cachedFlag{URL: flag}, err
	})
	if err != nil {
		return "", err
	}
	return entry.URL, nil
}
