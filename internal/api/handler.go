package api

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/bobby-s-dev/temperature-analyzer/internal/analytics"
	"github.com/bobby-s-dev/temperature-analyzer/internal/dataset"
	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
	"github.com/bobby-s-dev/temperature-analyzer/internal/scheduler"
	"github.com/bobby-s-dev/temperature-analyzer/internal/services"
	"github.com/bobby-s-dev/temperature-analyzer/pkg/client"
)

const apiKeyHeader = "X-API-Key"

var validate = validator.New()

type Handler struct {
	monitor        *services.Monitor
	scheduler      *scheduler.Scheduler
	logger         *zap.Logger
	defaultAPIKey  string
	maxUploadBytes int64
}

func NewHandler(monitor *services.Monitor, sched *scheduler.Scheduler, defaultAPIKey string, maxUploadBytes int, logger *zap.Logger) *Handler {
	return &Handler{
		monitor:        monitor,
		scheduler:      sched,
		logger:         logger,
		defaultAPIKey:  defaultAPIKey,
		maxUploadBytes: int64(maxUploadBytes),
	}
}

// normalityRequest is the body of POST /api/v1/cities/:city/normality.
type normalityRequest struct {
	Temperature *float64 `json:"temperature" validate:"required"`
	Season      string   `json:"season" validate:"required"`
}

// watchCitiesRequest is the body of PUT /api/v1/scheduler/cities.
type watchCitiesRequest struct {
	Cities []string `json:"cities" validate:"required,min=1,dive,required"`
}

// UploadObservations handles POST /api/v1/observations
func (h *Handler) UploadObservations(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A file form field is required",
		})
	}

	if h.maxUploadBytes > 0 && file.Size > h.maxUploadBytes {
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error": "Uploaded file is too large",
		})
	}

	f, err := file.Open()
	if err != nil {
		return err
	}
	defer f.Close()

	obs, err := dataset.Read(file.Filename, f)
	if err != nil {
		h.logger.Warn("Rejected observations upload",
			zap.String("filename", file.Filename),
			zap.Error(err))

		status := fiber.StatusUnprocessableEntity
		if errors.Is(err, dataset.ErrUnsupportedFormat) {
			status = fiber.StatusUnsupportedMediaType
		}
		return c.Status(status).JSON(fiber.Map{
			"error":   "Failed to parse observations",
			"details": err.Error(),
		})
	}

	ds := h.monitor.LoadObservations(file.Filename, obs)

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"id":           ds.ID,
		"source":       ds.Source,
		"loaded_at":    ds.LoadedAt,
		"observations": ds.Observations,
		"cities":       ds.CityNames(),
	})
}

// GetCities handles GET /api/v1/cities
func (h *Handler) GetCities(c *fiber.Ctx) error {
	cities, err := h.monitor.Cities()
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(fiber.Map{
		"cities": cities,
	})
}

// GetStatistics handles GET /api/v1/cities/:city/statistics
func (h *Handler) GetStatistics(c *fiber.Ctx) error {
	city, err := cityParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid city"})
	}

	stats, err := h.monitor.Statistics(city)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(stats)
}

// GetCurrent handles GET /api/v1/cities/:city/current
func (h *Handler) GetCurrent(c *fiber.Ctx) error {
	city, err := cityParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid city"})
	}

	apiKey := c.Get(apiKeyHeader)
	if apiKey == "" {
		apiKey = c.Query("api_key")
	}
	if apiKey == "" {
		apiKey = h.defaultAPIKey
	}
	if apiKey == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "An OpenWeatherMap API key is required",
		})
	}

	check, err := h.monitor.CheckCurrent(c.UserContext(), city, apiKey)
	if err != nil {
		var authErr *client.AuthenticationError
		if errors.As(err, &authErr) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": authErr.Detail,
			})
		}
		if errors.Is(err, services.ErrNoDataset) || errors.Is(err, services.ErrCityNotFound) {
			return h.lookupError(c, err)
		}

		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   "Failed to fetch current temperature",
			"details": err.Error(),
		})
	}

	return c.JSON(check)
}

// CheckNormality handles POST /api/v1/cities/:city/normality
func (h *Handler) CheckNormality(c *fiber.Ctx) error {
	city, err := cityParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid city"})
	}

	var req normalityRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	season, err := models.ParseSeason(req.Season)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	normal, err := h.monitor.CheckTemperature(city, *req.Temperature, season)
	if err != nil {
		return h.lookupError(c, err)
	}

	return c.JSON(fiber.Map{
		"city":        city,
		"season":      season,
		"temperature": *req.Temperature,
		"normal":      normal,
	})
}

// GetSeason handles GET /api/v1/season
func (h *Handler) GetSeason(c *fiber.Ctx) error {
	date := time.Now()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Date must be formatted as YYYY-MM-DD",
			})
		}
		date = parsed
	}

	return c.JSON(fiber.Map{
		"date":   date.Format("2006-01-02"),
		"season": analytics.SeasonFor(date),
	})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	resp := fiber.Map{
		"status":     "healthy",
		"timestamp":  time.Now(),
		"last_check": h.monitor.GetLastCheckTime(),
		"uptime":     time.Since(startTime).String(),
		"stats":      h.monitor.GetStats(),
	}
	if h.scheduler != nil {
		resp["scheduler"] = h.scheduler.GetStatus()
	}

	return c.JSON(resp)
}

// GetStats handles GET /api/v1/stats
func (h *Handler) GetStats(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"metrics":   h.monitor.GetStats(),
		"timestamp": time.Now(),
	})
}

// GetScheduler handles GET /api/v1/scheduler
func (h *Handler) GetScheduler(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return schedulerUnavailable(c)
	}

	return c.JSON(fiber.Map{
		"status":  h.scheduler.GetStatus(),
		"results": h.scheduler.LastResults(),
	})
}

// RunScheduler handles POST /api/v1/scheduler/run
func (h *Handler) RunScheduler(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return schedulerUnavailable(c)
	}
	if _, err := h.monitor.Dataset(); err != nil {
		return h.lookupError(c, err)
	}

	if err := h.scheduler.ForceRun(); err != nil {
		if errors.Is(err, scheduler.ErrNoAPIKey) {
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error": "Scheduler has no API key configured",
			})
		}
		return err
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Live temperature check started",
	})
}

// UpdateWatchCities handles PUT /api/v1/scheduler/cities
func (h *Handler) UpdateWatchCities(c *fiber.Ctx) error {
	if h.scheduler == nil {
		return schedulerUnavailable(c)
	}

	var req watchCitiesRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	for i, city := range req.Cities {
		req.Cities[i] = strings.TrimSpace(city)
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	h.scheduler.UpdateCities(req.Cities)
	// A scheduler started with an empty watch list begins running here.
	if err := h.scheduler.Start(); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"status": h.scheduler.GetStatus(),
	})
}

func schedulerUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "Scheduler is not configured",
	})
}

func (h *Handler) lookupError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNoDataset):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "No observations have been uploaded",
		})
	case errors.Is(err, services.ErrCityNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "City not found in the uploaded observations",
		})
	default:
		return err
	}
}

func cityParam(c *fiber.Ctx) (string, error) {
	return url.PathUnescape(c.Params("city"))
}

var startTime = time.Now()
