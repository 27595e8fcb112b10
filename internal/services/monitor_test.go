package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/bobby-s-dev/temperature-analyzer/internal/metrics"
	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
	"github.com/bobby-s-dev/temperature-analyzer/pkg/client"
)

type stubFetcher struct {
	temps map[string]float64
	err   error
	calls int
}

func (f *stubFetcher) FetchTemperature(_ context.Context, city, _ string) (float64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return f.temps[city], nil
}

var july = time.Date(2024, time.July, 10, 12, 0, 0, 0, time.UTC)

func summerObservations() []models.Observation {
	start := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	temps := []float64{18, 20, 22, 19, 21}

	var obs []models.Observation
	for i, temp := range temps {
		obs = append(obs,
			models.Observation{City: "Berlin", Timestamp: start.AddDate(0, 0, i), Temperature: temp, Season: models.Summer},
			models.Observation{City: "Madrid", Timestamp: start.AddDate(0, 0, i), Temperature: temp + 10, Season: models.Summer},
		)
	}
	return obs
}

func newTestMonitor(t *testing.T, fetcher TemperatureFetcher) *Monitor {
	logger := zaptest.NewLogger(t)
	cache := NewReadingCache(time.Minute, 10, logger)
	t.Cleanup(cache.Stop)
	return NewMonitor(fetcher, cache, logger, WithClock(func() time.Time { return july }))
}

func TestMonitorWithoutDataset(t *testing.T) {
	m := newTestMonitor(t, &stubFetcher{})

	_, err := m.Cities()
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = m.Statistics("Berlin")
	assert.ErrorIs(t, err, ErrNoDataset)

	_, err = m.CheckCurrent(context.Background(), "Berlin", "key")
	assert.ErrorIs(t, err, ErrNoDataset)
}

func TestMonitorLoadObservations(t *testing.T) {
	m := newTestMonitor(t, &stubFetcher{})

	dataset := m.LoadObservations("history.csv", summerObservations())
	require.NotNil(t, dataset)
	assert.NotEmpty(t, dataset.ID)
	assert.Equal(t, "history.csv", dataset.Source)
	assert.Equal(t, 10, dataset.Observations)

	cities, err := m.Cities()
	require.NoError(t, err)
	assert.Equal(t, []string{"Berlin", "Madrid"}, cities)

	stats, err := m.Statistics("Madrid")
	require.NoError(t, err)
	assert.Equal(t, 30.0, stats.AverageTemp)

	_, err = m.Statistics("Atlantis")
	assert.ErrorIs(t, err, ErrCityNotFound)

	next := m.LoadObservations("other.csv", summerObservations()[:2])
	assert.NotEqual(t, dataset.ID, next.ID)
	current, err := m.Dataset()
	require.NoError(t, err)
	assert.Equal(t, next.ID, current.ID)
}

func TestMonitorLoadEmptyDataset(t *testing.T) {
	m := newTestMonitor(t, &stubFetcher{})

	dataset := m.LoadObservations("empty.csv", nil)
	assert.Empty(t, dataset.Cities)

	cities, err := m.Cities()
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func TestMonitorCheckCurrent(t *testing.T) {
	fetcher := &stubFetcher{temps: map[string]float64{"Berlin": 20.5, "Madrid": 45}}
	m := newTestMonitor(t, fetcher)
	m.LoadObservations("history.csv", summerObservations())

	check, err := m.CheckCurrent(context.Background(), "Berlin", "key")
	require.NoError(t, err)
	assert.Equal(t, models.Summer, check.Season)
	assert.Equal(t, 20.5, check.Temperature)
	assert.True(t, check.Normal)
	require.NotNil(t, check.Profile)
	assert.Equal(t, 20.0, check.Profile.Mean)
	assert.False(t, check.Cached)
	assert.Equal(t, july, check.CheckedAt)

	check, err = m.CheckCurrent(context.Background(), "Madrid", "key")
	require.NoError(t, err)
	assert.False(t, check.Normal)

	stats := m.GetStats()
	assert.Equal(t, 2, stats["live_checks"])
	assert.Equal(t, 1, stats["abnormal_checks"])
	assert.Equal(t, july, m.GetLastCheckTime())
}

func TestMonitorCheckCurrentUsesCache(t *testing.T) {
	fetcher := &stubFetcher{temps: map[string]float64{"Berlin": 19}}
	m := newTestMonitor(t, fetcher)
	m.LoadObservations("history.csv", summerObservations())

	_, err := m.CheckCurrent(context.Background(), "Berlin", "key")
	require.NoError(t, err)
	check, err := m.CheckCurrent(context.Background(), "Berlin", "key")
	require.NoError(t, err)

	assert.True(t, check.Cached)
	assert.Equal(t, 1, fetcher.calls)

	_, err = m.CheckCurrent(context.Background(), "Berlin", "other-key")
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestMonitorCheckCurrentSeasonWithoutHistory(t *testing.T) {
	fetcher := &stubFetcher{temps: map[string]float64{"Berlin": -40}}
	logger := zaptest.NewLogger(t)
	january := time.Date(2025, time.January, 5, 0, 0, 0, 0, time.UTC)
	m := NewMonitor(fetcher, nil, logger, WithClock(func() time.Time { return january }))
	m.LoadObservations("history.csv", summerObservations())

	check, err := m.CheckCurrent(context.Background(), "Berlin", "key")
	require.NoError(t, err)
	assert.Equal(t, models.Winter, check.Season)
	assert.True(t, check.Normal)
	assert.Nil(t, check.Profile)
}

func TestMonitorCheckCurrentAuthenticationError(t *testing.T) {
	authErr := &client.AuthenticationError{Detail: "Invalid API key"}
	m := newTestMonitor(t, &stubFetcher{err: authErr})
	m.LoadObservations("history.csv", summerObservations())

	_, err := m.CheckCurrent(context.Background(), "Berlin", "bad")
	require.Error(t, err)
	assert.Same(t, authErr, err)
	assert.Equal(t, 1, m.GetStats()["failed_checks"])
}

func TestMonitorCheckCurrentUpstreamError(t *testing.T) {
	upstream := errors.New("connection refused")
	m := newTestMonitor(t, &stubFetcher{err: upstream})
	m.LoadObservations("history.csv", summerObservations())

	_, err := m.CheckCurrent(context.Background(), "Berlin", "key")
	assert.ErrorIs(t, err, upstream)
}

func TestMonitorCheckCurrentUnknownCity(t *testing.T) {
	fetcher := &stubFetcher{}
	m := newTestMonitor(t, fetcher)
	m.LoadObservations("history.csv", summerObservations())

	_, err := m.CheckCurrent(context.Background(), "Atlantis", "key")
	assert.ErrorIs(t, err, ErrCityNotFound)
	assert.Zero(t, fetcher.calls)
}

func TestMonitorCheckTemperature(t *testing.T) {
	m := newTestMonitor(t, &stubFetcher{})
	m.LoadObservations("history.csv", summerObservations())

	normal, err := m.CheckTemperature("Berlin", 21, models.Summer)
	require.NoError(t, err)
	assert.True(t, normal)

	normal, err = m.CheckTemperature("Berlin", 35, models.Summer)
	require.NoError(t, err)
	assert.False(t, normal)

	normal, err = m.CheckTemperature("Berlin", 35, models.Autumn)
	require.NoError(t, err)
	assert.True(t, normal)
}

func TestLoadObservationsCountsAnomaliesWithoutCityLabels(t *testing.T) {
	m := newTestMonitor(t, &stubFetcher{})

	start := time.Date(2023, time.June, 1, 0, 0, 0, 0, time.UTC)
	var obs []models.Observation
	for _, city := range []string{"Oslo", "Lima"} {
		for i := 0; i < 10; i++ {
			temp := 20.0
			if i == 9 {
				temp = 60
			}
			obs = append(obs, models.Observation{City: city, Timestamp: start.AddDate(0, 0, i), Temperature: temp, Season: models.Summer})
		}
	}

	before := testutil.ToFloat64(metrics.AnomaliesDetected)
	m.LoadObservations("spikes.csv", obs)

	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.AnomaliesDetected)-before)
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.AnomaliesDetected))
}
