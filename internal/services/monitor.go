package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/temperature-analyzer/internal/analytics"
	"github.com/bobby-s-dev/temperature-analyzer/internal/metrics"
	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
	"github.com/bobby-s-dev/temperature-analyzer/pkg/client"
)

var (
	ErrNoDataset    = errors.New("no observations loaded")
	ErrCityNotFound = errors.New("city not found in dataset")
)

// TemperatureFetcher returns the current temperature for a city. It must
// return a *client.AuthenticationError when the credential is rejected.
type TemperatureFetcher interface {
	FetchTemperature(ctx context.Context, city, apiKey string) (float64, error)
}

type Option func(*Monitor)

// WithClock overrides the time source used to resolve the current season.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

// Monitor holds the analysis of the most recently loaded dataset and checks
// live readings against it.
type Monitor struct {
	fetcher TemperatureFetcher
	cache   *ReadingCache
	logger  *zap.Logger
	now     func() time.Time

	mu            sync.RWMutex
	dataset       *models.Dataset
	loadCount     int
	checkCount    int
	abnormalCount int
	failureCount  int
	lastCheckTime time.Time
}

func NewMonitor(fetcher TemperatureFetcher, cache *ReadingCache, logger *zap.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		fetcher: fetcher,
		cache:   cache,
		logger:  logger,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// LoadObservations analyzes obs and makes the result the current dataset,
// replacing any previous one.
func (m *Monitor) LoadObservations(source string, obs []models.Observation) *models.Dataset {
	startTime := time.Now()
	results := analytics.AnalyzeAll(obs)
	duration := time.Since(startTime)

	dataset := &models.Dataset{
		ID:           uuid.NewString(),
		Source:       source,
		LoadedAt:     m.now(),
		Observations: len(obs),
		Cities:       results,
	}

	anomalies := 0
	for _, stats := range results {
		anomalies += len(stats.Anomalies)
		if len(stats.Anomalies) > 0 {
			m.logger.Debug("City anomalies detected",
				zap.String("city", stats.City),
				zap.Int("anomalies", len(stats.Anomalies)))
		}
	}
	metrics.AnomaliesDetected.Add(float64(anomalies))
	metrics.DatasetsAnalyzed.Inc()
	metrics.ObservationsAnalyzed.Add(float64(len(obs)))
	metrics.AnalysisLatency.Observe(duration.Seconds())
	metrics.CitiesLoaded.Set(float64(len(results)))

	m.mu.Lock()
	m.dataset = dataset
	m.loadCount++
	m.mu.Unlock()

	m.logger.Info("Dataset analyzed",
		zap.String("dataset_id", dataset.ID),
		zap.String("source", source),
		zap.Int("observations", len(obs)),
		zap.Int("cities", len(results)),
		zap.Int("anomalies", anomalies),
		zap.Duration("duration", duration))

	return dataset
}

func (m *Monitor) Dataset() (*models.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.dataset == nil {
		return nil, ErrNoDataset
	}
	return m.dataset, nil
}

func (m *Monitor) Cities() ([]string, error) {
	dataset, err := m.Dataset()
	if err != nil {
		return nil, err
	}
	return dataset.CityNames(), nil
}

func (m *Monitor) Statistics(city string) (models.CityStatistics, error) {
	dataset, err := m.Dataset()
	if err != nil {
		return models.CityStatistics{}, err
	}

	for _, stats := range dataset.Cities {
		if stats.City == city {
			return stats, nil
		}
	}
	return models.CityStatistics{}, fmt.Errorf("%w: %s", ErrCityNotFound, city)
}

// CheckTemperature evaluates temp against the city's history for season.
func (m *Monitor) CheckTemperature(city string, temp float64, season models.Season) (bool, error) {
	stats, err := m.Statistics(city)
	if err != nil {
		return false, err
	}
	return analytics.IsNormal(stats, temp, season), nil
}

// CheckCurrent fetches the live temperature for city and compares it with the
// city's profile for the current season. Authentication failures from the
// fetcher are returned unchanged and never retried here.
func (m *Monitor) CheckCurrent(ctx context.Context, city, apiKey string) (*models.LiveCheck, error) {
	stats, err := m.Statistics(city)
	if err != nil {
		return nil, err
	}

	now := m.now()
	season := analytics.SeasonFor(now)

	temp, cached, err := m.currentTemperature(ctx, city, apiKey)
	if err != nil {
		m.mu.Lock()
		m.failureCount++
		m.mu.Unlock()
		metrics.LiveChecks.WithLabelValues("error").Inc()

		var authErr *client.AuthenticationError
		if errors.As(err, &authErr) {
			metrics.FetchErrors.WithLabelValues("authentication").Inc()
			m.logger.Warn("Live temperature rejected credential",
				zap.String("city", city),
				zap.String("detail", authErr.Detail))
			return nil, err
		}

		metrics.FetchErrors.WithLabelValues("upstream").Inc()
		m.logger.Error("Failed to fetch live temperature",
			zap.String("city", city),
			zap.Error(err))
		return nil, fmt.Errorf("failed to fetch live temperature for %s: %w", city, err)
	}

	check := &models.LiveCheck{
		City:        city,
		Season:      season,
		Temperature: temp,
		Normal:      analytics.IsNormal(stats, temp, season),
		Cached:      cached,
		CheckedAt:   now,
	}
	if profile, ok := stats.Profile(season); ok {
		check.Profile = &profile
	}

	m.mu.Lock()
	m.checkCount++
	m.lastCheckTime = now
	if !check.Normal {
		m.abnormalCount++
	}
	m.mu.Unlock()

	if check.Normal {
		metrics.LiveChecks.WithLabelValues("normal").Inc()
		m.logger.Info("Live temperature is normal for the season",
			zap.String("city", city),
			zap.String("season", string(season)),
			zap.Float64("temperature", temp))
	} else {
		metrics.LiveChecks.WithLabelValues("abnormal").Inc()
		m.logger.Warn("Live temperature is abnormal for the season",
			zap.String("city", city),
			zap.String("season", string(season)),
			zap.Float64("temperature", temp))
	}

	return check, nil
}

func (m *Monitor) currentTemperature(ctx context.Context, city, apiKey string) (float64, bool, error) {
	if m.cache != nil {
		if item, ok := m.cache.Get(city, apiKey); ok {
			m.logger.Debug("Cache hit for live temperature", zap.String("city", city))
			return item.Temperature, true, nil
		}
	}

	temp, err := m.fetcher.FetchTemperature(ctx, city, apiKey)
	if err != nil {
		return 0, false, err
	}

	if m.cache != nil {
		m.cache.Set(city, apiKey, temp)
	}
	return temp, false, nil
}

func (m *Monitor) GetLastCheckTime() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastCheckTime
}

func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := map[string]interface{}{
		"datasets_loaded": m.loadCount,
		"live_checks":     m.checkCount,
		"abnormal_checks": m.abnormalCount,
		"failed_checks":   m.failureCount,
		"last_check_time": m.lastCheckTime,
		"cities_loaded":   0,
		"dataset_id":      "",
	}
	if m.dataset != nil {
		stats["cities_loaded"] = len(m.dataset.Cities)
		stats["dataset_id"] = m.dataset.ID
	}
	if m.cache != nil {
		stats["cache_stats"] = m.cache.GetStats()
	}
	return stats
}
