// Package api fetches the store directory collections.
package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/lepinkainen/storefront/internal/httpx"
	"github.com/lepinkainen/storefront/internal/jsonapi"
	"github.com/lepinkainen/storefront/internal/store"
)

// DefaultBaseURL is where the development backend serves its collections.
const DefaultBaseURL = "http://localhost:3000"

// Client fetches collection envelopes from the REST backend.
type Client struct {
	baseURL string
	http    *httpx.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, http *httpx.Client) *Client {
	baseURL = strings.TrimSuffix(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if http == nil {
		http = httpx.NewClient("api")
	}
	return &Client{baseURL: baseURL, http: http}
}

// Endpoint returns the URL of a collection.
func (c *Client) Endpoint(collection store.Collection) string {
	return c.baseURL + "/" + url.PathEscape(string(collection))
}

// Fetch retrieves every record of a collection. An envelope without data is
// an empty collection.
func (c *Client) Fetch(ctx context.Context, collection store.Collection) ([]jsonapi.Resource, error) {
	if !collection.Valid() {
		return nil, fmt.Errorf("fetch %q: %w", collection, store.ErrUnknownCollection)
	}

	var doc jsonapi.Document
	if err := c.http.GetJSON(ctx, c.Endpoint(collection), &doc); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}

	if doc.Skipped > 0 {
		slog.Warn("Skipped malformed records", "collection", collection, "count", doc.Skipped)
	}
	if doc.Data == nil {
		doc.Data = []jsonapi.Resource{}
	}

	slog.Debug("Fetched collection", "collection", collection, "count", len(doc.Data))
	return doc.Data, nil
}
