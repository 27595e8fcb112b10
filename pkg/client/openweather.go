package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

const defaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// AuthenticationError means the upstream provider rejected the credential.
// Detail is safe to show to an end user.
type AuthenticationError struct {
	Detail string
}

func (e *AuthenticationError) Error() string {
	return "authentication failed: " + e.Detail
}

// ErrEmptyCredential is returned before any request is made when no API key
// is supplied.
var ErrEmptyCredential = errors.New("api key is required")

type OpenWeatherClient struct {
	*BaseClient
	baseURL string
}

type OpenWeatherCurrentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		TempMin   float64 `json:"temp_min"`
		TempMax   float64 `json:"temp_max"`
	} `json:"main"`
	Dt   int64  `json:"dt"`
	Name string `json:"name"`
	Cod  int    `json:"cod"`
}

type openWeatherErrorResponse struct {
	Message string `json:"message"`
}

func NewOpenWeatherClient(baseURL string, config ClientConfig, logger *zap.Logger) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = defaultOpenWeatherURL
	}
	return &OpenWeatherClient{
		BaseClient: NewBaseClient("openweather", config, logger),
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// FetchTemperature returns the current temperature in °C for city. A rejected
// apiKey yields an *AuthenticationError; every other failure is wrapped and
// returned as is.
func (c *OpenWeatherClient) FetchTemperature(ctx context.Context, city, apiKey string) (float64, error) {
	if apiKey == "" {
		return 0, ErrEmptyCredential
	}

	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", apiKey)
	params.Set("units", "metric")

	data, err := c.GetWithRetry(ctx, c.baseURL+"/weather?"+params.Encode())
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized {
			return 0, &AuthenticationError{Detail: authDetail(statusErr.Body)}
		}
		return 0, fmt.Errorf("failed to fetch current temperature for %s: %w", city, err)
	}

	var response OpenWeatherCurrentResponse
	if err := json.Unmarshal(data, &response); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	if response.Cod != 0 && response.Cod != http.StatusOK {
		return 0, fmt.Errorf("API error: %d", response.Cod)
	}

	c.logger.Debug("Current temperature fetched",
		zap.String("city", city),
		zap.Float64("temperature", response.Main.Temp))

	return response.Main.Temp, nil
}

func authDetail(body []byte) string {
	var payload openWeatherErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Message != "" {
		return payload.Message
	}
	return "Invalid API key"
}
