package cache

// SQL schemas for cache tables
// All cache tables use "cache_key" as the primary key column for consistency

// FlagTable caches flag lookups keyed by upper-cased country code.
const FlagTable = "flag_cache"

// FlagCacheSchema defines the schema for the country flag lookup cache
const FlagCacheSchema = `
CREATE TABLE IF NOT EXISTS flag_cache (
	cache_key TEXT PRIMARY KEY NOT NULL,
	data TEXT NOT NULL,
	cached_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_flag_cached_at ON flag_cache(cached_at);
`

// AllCacheSchemas contains all cache table schemas for easy initialization
var AllCacheSchemas = []string{
	FlagCacheSchema,
}

// ValidCacheTableNames is the whitelist of allowed cache table names
// Used to prevent SQL injection when interpolating table names
var ValidCacheTableNames = map[string]bool{
	FlagTable: true,
}
