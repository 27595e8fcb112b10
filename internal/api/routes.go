package api

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/temperature-analyzer/internal/metrics"
)

func SetupRoutes(app *fiber.App, handler *Handler, log *zap.Logger) {
	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,HEAD",
		AllowHeaders: "Origin,Content-Type,Accept," + apiKeyHeader,
	}))

	// Custom logger middleware
	app.Use(logger.New(logger.Config{
		Format:     "${time} ${pid} ${locals:requestid} ${status} - ${method} ${path}\n",
		TimeFormat: time.RFC3339,
	}))

	app.Use(instrument)

	// Prometheus scrape endpoint
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")

	api.Get("/health", handler.GetHealth)
	api.Get("/stats", handler.GetStats)
	api.Get("/season", handler.GetSeason)

	api.Post("/observations", handler.UploadObservations)

	sched := api.Group("/scheduler")
	sched.Get("/", handler.GetScheduler)
	sched.Post("/run", handler.RunScheduler)
	sched.Put("/cities", handler.UpdateWatchCities)

	cities := api.Group("/cities")
	cities.Get("/", handler.GetCities)
	cities.Get("/:city/statistics", handler.GetStatistics)
	cities.Get("/:city/current", handler.GetCurrent)
	cities.Post("/:city/normality", handler.CheckNormality)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		log.Debug("Endpoint not found", zap.String("path", c.Path()))
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Endpoint not found",
			"path":  c.Path(),
		})
	})
}

// instrument records request counts and latency per matched route.
func instrument(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	route := c.Route().Path
	status := c.Response().StatusCode()
	if err != nil {
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		} else {
			status = fiber.StatusInternalServerError
		}
	}

	metrics.RequestsTotal.WithLabelValues(c.Method(), route, strconv.Itoa(status)).Inc()
	metrics.RequestDuration.WithLabelValues(c.Method(), route).Observe(time.Since(start).Seconds())

	return err
}
