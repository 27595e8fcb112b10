package services

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

type CacheItem struct {
	Temperature float64
	FetchedAt   time.Time
	ExpiresAt   time.Time
}

// ReadingCache keeps recent live temperatures so repeated checks for the same
// city do not hit the upstream API. Entries are keyed by city and credential.
type ReadingCache struct {
	mu              sync.RWMutex
	readings        map[string]CacheItem
	logger          *zap.Logger
	defaultDuration time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
	hits            int
	misses          int
	now             func() time.Time
}

type CacheOption func(*ReadingCache)

// WithCacheClock overrides the time source used for expiry.
func WithCacheClock(now func() time.Time) CacheOption {
	return func(c *ReadingCache) { c.now = now }
}

func NewReadingCache(defaultDuration time.Duration, maxSize int, logger *zap.Logger, opts ...CacheOption) *ReadingCache {
	cache := &ReadingCache{
		readings:        make(map[string]CacheItem),
		logger:          logger,
		defaultDuration: defaultDuration,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(cache)
	}

	go cache.startCleanup()

	return cache
}

func cacheKey(city, credential string) string {
	return city + "\x00" + credential
}

func (c *ReadingCache) Set(city, credential string, temperature float64) {
	if c.defaultDuration <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey(city, credential)
	if _, exists := c.readings[key]; !exists && c.maxSize > 0 && len(c.readings) >= c.maxSize {
		c.evictOldest()
	}

	now := c.now()
	c.readings[key] = CacheItem{
		Temperature: temperature,
		FetchedAt:   now,
		ExpiresAt:   now.Add(c.defaultDuration),
	}

	c.logger.Debug("Live reading cached",
		zap.String("city", city),
		zap.Time("expires_at", now.Add(c.defaultDuration)))
}

func (c *ReadingCache) Get(city, credential string) (CacheItem, bool) {
	key := cacheKey(city, credential)

	c.mu.Lock()
	defer c.mu.Unlock()

	item, exists := c.readings[key]
	if !exists {
		c.misses++
		return CacheItem{}, false
	}

	if c.now().After(item.ExpiresAt) {
		delete(c.readings, key)
		c.misses++
		return CacheItem{}, false
	}

	c.hits++
	return item, true
}

func (c *ReadingCache) evictOldest() {
	var oldestKey string
	var oldestTime time.Time

	for key, item := range c.readings {
		if oldestKey == "" || item.ExpiresAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = item.ExpiresAt
		}
	}

	if oldestKey != "" {
		delete(c.readings, oldestKey)
		c.logger.Debug("Evicted oldest live reading from cache")
	}
}

func (c *ReadingCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *ReadingCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	expiredCount := 0

	for key, item := range c.readings {
		if now.After(item.ExpiresAt) {
			delete(c.readings, key)
			expiredCount++
		}
	}

	if expiredCount > 0 {
		c.logger.Debug("Cleaned expired cache items",
			zap.Int("count", expiredCount))
	}
}

func (c *ReadingCache) Stop() {
	c.stopOnce.Do(func() { close(c.stopCleanup) })
}

func (c *ReadingCache) GetStats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return map[string]interface{}{
		"items":            len(c.readings),
		"hits":             c.hits,
		"misses":           c.misses,
		"max_size":         c.maxSize,
		"default_duration": c.defaultDuration.String(),
	}
}
