package testutil

import (
	"testing"

	"github.com/spf13/viper"
)

// ResetConfig resets viper and schedules another reset when the test
// completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)
}

// SetTestConfig resets viper and points every file-backed setting into env,
// so tests never touch the working directory.
func SetTestConfig(t *testing.T, env *TestEnv) {
	t.Helper()

	ResetConfig(t)
	viper.Set("cache.dbfile", env.Path("cache", "test-cache.db"))
	viper.Set("cache.ttl", "24h")
	viper.Set("output.dir", env.Path("out"))
}

// SetViperValue sets a viper configuration value and restores the previous
// value when the test completes.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)
	viper.Set(key, value)

	t.Cleanup(func() {
		// viper has no Unset, so an unset key cannot be restored
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}
