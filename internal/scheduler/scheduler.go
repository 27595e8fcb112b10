package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
	"github.com/bobby-s-dev/temperature-analyzer/internal/services"
	"github.com/bobby-s-dev/temperature-analyzer/pkg/client"
)

const defaultInterval = 15 * time.Minute

var ErrNoAPIKey = errors.New("scheduler has no API key configured")

// Scheduler periodically checks the live temperature of a watch list of
// cities against the loaded dataset. Cities are checked one after another.
type Scheduler struct {
	monitor  *services.Monitor
	logger   *zap.Logger
	cron     *cron.Cron
	apiKey   string
	interval time.Duration

	mu          sync.Mutex
	cities      []string
	entryID     cron.EntryID
	running     bool
	lastRun     time.Time
	lastResults map[string]*models.LiveCheck
}

func NewScheduler(monitor *services.Monitor, cities []string, apiKey string, interval time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}

	cl := cronLogger{sugar: logger.Sugar()}
	return &Scheduler{
		monitor:  monitor,
		logger:   logger,
		cron:     cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		apiKey:   apiKey,
		interval: interval,
		cities:   cities,
	}
}

// Start registers the periodic job. It is a no-op when there is nothing to
// watch or no API key to watch with.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return nil
	}
	if len(s.cities) == 0 || s.apiKey == "" {
		s.logger.Info("Scheduler disabled, no watch cities or API key configured")
		return nil
	}

	id, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.runChecks)
	if err != nil {
		return fmt.Errorf("failed to schedule live checks: %w", err)
	}

	s.entryID = id
	s.running = true
	s.cron.Start()

	s.logger.Info("Scheduler started",
		zap.Duration("interval", s.interval),
		zap.Time("next_run", s.cron.Entry(id).Next),
		zap.Strings("cities", s.cities))

	return nil
}

func (s *Scheduler) runChecks() {
	if _, err := s.monitor.Dataset(); err != nil {
		s.logger.Debug("Skipping scheduled check, no dataset loaded")
		return
	}

	s.mu.Lock()
	cities := append([]string(nil), s.cities...)
	s.mu.Unlock()

	startTime := time.Now()
	s.logger.Info("Starting scheduled live temperature check", zap.Strings("cities", cities))

	results := make(map[string]*models.LiveCheck, len(cities))
	abnormal := 0
	for _, city := range cities {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		check, err := s.monitor.CheckCurrent(ctx, city, s.apiKey)
		cancel()

		if err != nil {
			var authErr *client.AuthenticationError
			if errors.As(err, &authErr) {
				s.logger.Error("Scheduled check aborted, API key rejected",
					zap.String("detail", authErr.Detail))
				break
			}
			s.logger.Warn("Scheduled check failed for city",
				zap.String("city", city),
				zap.Error(err))
			continue
		}

		results[city] = check
		if !check.Normal {
			abnormal++
		}
	}

	s.mu.Lock()
	s.lastRun = startTime
	s.lastResults = results
	s.mu.Unlock()

	s.logger.Info("Scheduled live temperature check completed",
		zap.Int("checked", len(results)),
		zap.Int("abnormal", abnormal),
		zap.Duration("duration", time.Since(startTime)))
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")

	ctx := s.cron.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(30 * time.Second):
		s.logger.Warn("Timed out waiting for running checks to finish")
	}
}

// ForceRun starts an out-of-schedule check of the watch list in the background.
func (s *Scheduler) ForceRun() error {
	if s.apiKey == "" {
		return ErrNoAPIKey
	}

	s.logger.Info("Manually triggering live temperature check")
	go s.runChecks()
	return nil
}

// LastResults returns the live checks of the most recent run, keyed by city.
func (s *Scheduler) LastResults() map[string]*models.LiveCheck {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]*models.LiveCheck, len(s.lastResults))
	for city, check := range s.lastResults {
		out[city] = check
	}
	return out
}

func (s *Scheduler) GetStatus() map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	status := map[string]interface{}{
		"running":  s.running,
		"interval": s.interval.String(),
		"last_run": s.lastRun,
		"cities":   s.cities,
	}
	if s.running {
		status["next_run"] = s.cron.Entry(s.entryID).Next
	}
	return status
}

func (s *Scheduler) UpdateCities(cities []string) {
	s.mu.Lock()
	s.cities = cities
	s.mu.Unlock()

	s.logger.Info("Scheduler cities updated", zap.Strings("cities", cities))
}

// cronLogger routes cron's internal logging through zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
