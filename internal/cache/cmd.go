package cache

import (
	"fmt"
	"log/slog"

	"github.com/spf13/viper"
)

// ClearCmd represents the cache clear subcommand
type ClearCmd struct {
	ExpiredOnly bool `help:"Only remove entries older than the cache TTL"`
}

func (c *ClearCmd) Run() error {
	dbPath := viper.GetString("cache.dbfile")
	if dbPath == "" {
		return fmt.Errorf("cache database path is not configured (cache.dbfile)")
	}

	slog.Info("Clearing cache", "database", dbPath, "expired_only", c.ExpiredOnly)

	cacheDB, err := Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open cache database: %w", err)
	}
	defer func() { _ = cacheDB.Close() }()

	var rows int64
	if c.ExpiredOnly {
		ttl := viper.GetDuration("cache.ttl")
		if ttl <= 0 {
			ttl = DefaultCacheTTL
		}
		rows, err = cacheDB.ClearExpired(FlagTable, ttl)
	} else {
		rows, err = cacheDB.ClearAll(FlagTable)
	}
	if err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	remaining, err := cacheDB.Count(FlagTable)
	if err != nil {
		return fmt.Errorf("failed to count cache entries: %w", err)
	}

	slog.Info("Cache cleared", "table", FlagTable, "rows_deleted", rows, "rows_remaining", remaining)
	return nil
}
