package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/temperature-analyzer/internal/api"
	"github.com/bobby-s-dev/temperature-analyzer/internal/config"
	"github.com/bobby-s-dev/temperature-analyzer/internal/scheduler"
	"github.com/bobby-s-dev/temperature-analyzer/internal/services"
	"github.com/bobby-s-dev/temperature-analyzer/pkg/client"
)

func main() {
	// Initialize logger; the level is adjusted once configuration is loaded
	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	logCfg := zap.NewProductionConfig()
	logCfg.Level = level

	logger, err := logCfg.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	zap.ReplaceGlobals(logger)
	logger.Info("Starting Temperature Analyzer Service")

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}
	if err := level.UnmarshalText([]byte(cfg.Server.LogLevel)); err != nil {
		logger.Warn("Unknown log level, keeping info", zap.String("level", cfg.Server.LogLevel))
	}

	// Initialize live weather client
	weatherClient := client.NewOpenWeatherClient(cfg.WeatherAPI.OpenWeatherURL, client.ClientConfig{
		Timeout:        cfg.WeatherAPI.Timeout,
		MaxRetries:     cfg.Retry.MaxRetries,
		RetryDelay:     cfg.Retry.Delay,
		Multiplier:     cfg.Retry.Multiplier,
		Threshold:      cfg.CircuitBreaker.Threshold,
		BreakerTimeout: cfg.CircuitBreaker.Timeout,
	}, logger)

	// Initialize monitor
	cache := services.NewReadingCache(cfg.Cache.Duration, cfg.Cache.MaxSize, logger)
	monitor := services.NewMonitor(weatherClient, cache, logger)

	// Initialize scheduler
	checkScheduler := scheduler.NewScheduler(
		monitor,
		cfg.Scheduler.WatchCities,
		cfg.WeatherAPI.OpenWeatherAPIKey,
		cfg.Scheduler.CheckInterval,
		logger,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		BodyLimit:    cfg.Upload.MaxBytes + 1<<20,
		ErrorHandler: errorHandler,
	})

	// Setup handlers and routes
	handler := api.NewHandler(monitor, checkScheduler, cfg.WeatherAPI.OpenWeatherAPIKey, cfg.Upload.MaxBytes, logger)
	api.SetupRoutes(app, handler, logger)

	// Start scheduler
	if err := checkScheduler.Start(); err != nil {
		logger.Fatal("Failed to start scheduler", zap.Error(err))
	}

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	checkScheduler.Stop()
	cache.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func errorHandler(c *fiber.Ctx, err error) error {
	zap.L().Error("HTTP error",
		zap.String("method", c.Method()),
		zap.String("path", c.Path()),
		zap.Error(err))

	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   err.Error(),
		"success": false,
	})
}
