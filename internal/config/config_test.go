package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("FIBER_PORT", "")
	t.Setenv("WATCH_CITIES", "")
	t.Setenv("CHECK_INTERVAL", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 15*time.Minute, cfg.Scheduler.CheckInterval)
	assert.Empty(t, cfg.Scheduler.WatchCities)
	assert.Equal(t, "https://api.openweathermap.org/data/2.5", cfg.WeatherAPI.OpenWeatherURL)
	assert.Equal(t, 3, cfg.Retry.MaxRetries)
	assert.Equal(t, 2.0, cfg.Retry.Multiplier)
	assert.Equal(t, 32<<20, cfg.Upload.MaxBytes)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("FIBER_PORT", "9090")
	t.Setenv("OPENWEATHER_API_KEY", "abc")
	t.Setenv("WATCH_CITIES", "Moscow, Berlin ,,Cairo")
	t.Setenv("CHECK_INTERVAL", "1h")
	t.Setenv("CACHE_DURATION", "bogus")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "abc", cfg.WeatherAPI.OpenWeatherAPIKey)
	assert.Equal(t, []string{"Moscow", "Berlin", "Cairo"}, cfg.Scheduler.WatchCities)
	assert.Equal(t, time.Hour, cfg.Scheduler.CheckInterval)
	assert.Equal(t, time.Duration(0), cfg.Cache.Duration)
}
