package testutil

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/lepinkainen/marquee/internal/config"
)

// ResetConfig resets viper to the marquee defaults and resets it again when
// the test completes.
func ResetConfig(t *testing.T) {
	t.Helper()

	viper.Reset()
	config.SetDefaults()

	t.Cleanup(viper.Reset)
}

// SetViperValue sets a viper configuration value for the duration of the test.
func SetViperValue(t *testing.T, key string, value any) {
	t.Helper()

	oldValue := viper.Get(key)
	hadValue := viper.IsSet(key)

	viper.Set(key, value)

	t.Cleanup(func() {
		// viper has no Unset, so a previously unset key keeps the test value
		if hadValue {
			viper.Set(key, oldValue)
		}
	})
}
