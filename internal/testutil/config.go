package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/lepinkainen/readingwrapped/internal/config"
)

// ResetConfig clears viper, installs the default keys and restores the
// package level config globals when the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	apiKey, debug := config.GoogleBooksAPIKey, config.Debug

	viper.Reset()
	config.SetDefaults()

	t.Cleanup(func() {
		config.GoogleBooksAPIKey = apiKey
		config.Debug = debug
		viper.Reset()
	})
}

// SetViperValue sets a viper key for the duration of the test.
// Call ResetConfig first so the cleanup leaves no trace.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	previous, hadValue := viper.Get(key), viper.IsSet(key)
	viper.Set(key, value)

	t.Cleanup(func() {
		if hadValue {
			viper.Set(key, previous)
		}
	})
}
