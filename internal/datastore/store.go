// Package datastore writes display record snapshots into SQLite.
package datastore

import "github.com/lepinkainen/storefront/internal/view"

// Store defines the interface for local snapshot storage.
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// ReplaceSnapshot swaps the stored snapshot for records
	ReplaceSnapshot(records []view.DisplayRecord) (int, error)

	// Close closes the connection to the data store
	Close() error
}

// StoresTable holds one row per exported store.
const StoresTable = "stores"

// StoresSchema is the schema of StoresTable. Books are stored as a JSON array
// of {title, author, copies_sold} objects.
const StoresSchema = `CREATE TABLE IF NOT EXISTS stores (
	position INTEGER PRIMARY KEY,
	store_id TEXT NOT NULL,
	name TEXT NOT NULL,
	image TEXT,
	country_code TEXT NOT NULL,
	flag_url TEXT,
	rating INTEGER NOT NULL DEFAULT 0,
	established TEXT,
	website TEXT,
	books TEXT NOT NULL DEFAULT '[]',
	exported_at TIMESTAMP NOT NULL
)`
