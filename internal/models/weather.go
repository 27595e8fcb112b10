package models

import (
	"fmt"
	"strings"
	"time"
)

type Season string

const (
	Winter Season = "winter"
	Spring Season = "spring"
	Summer Season = "summer"
	Autumn Season = "autumn"
)

// Seasons lists every season in calendar order starting with winter.
var Seasons = []Season{Winter, Spring, Summer, Autumn}

// ParseSeason normalizes a season label. Surrounding whitespace and case are ignored.
func ParseSeason(s string) (Season, error) {
	season := Season(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Seasons {
		if season == known {
			return season, nil
		}
	}
	return "", fmt.Errorf("unknown season %q", s)
}

type Trend string

const (
	TrendPositive Trend = "positive"
	TrendNegative Trend = "negative"
)

// Observation is a single historical temperature reading.
type Observation struct {
	City        string    `json:"city" validate:"required"`
	Timestamp   time.Time `json:"timestamp" validate:"required"`
	Temperature float64   `json:"temperature"`
	Season      Season    `json:"season" validate:"required,oneof=winter spring summer autumn"`
}

type Anomaly struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
}

type SeasonProfile struct {
	Season Season  `json:"season"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
}

// CityStatistics is the analysis result for one city. It is not mutated after
// the analyzer returns it.
type CityStatistics struct {
	City            string          `json:"city"`
	AverageTemp     float64         `json:"average_temp"`
	MinTemp         float64         `json:"min_temp"`
	MaxTemp         float64         `json:"max_temp"`
	Anomalies       []Anomaly       `json:"anomalies"`
	SeasonalProfile []SeasonProfile `json:"seasonal_profile"`
	Trend           Trend           `json:"trend"`
}

// Profile returns the seasonal profile row for season, if the city was ever
// observed in it.
func (s CityStatistics) Profile(season Season) (SeasonProfile, bool) {
	for _, p := range s.SeasonalProfile {
		if p.Season == season {
			return p, true
		}
	}
	return SeasonProfile{}, false
}

// LiveCheck is the outcome of comparing a live reading against a city's
// seasonal profile. Profile is nil when the season has no history.
type LiveCheck struct {
	City        string         `json:"city"`
	Season      Season         `json:"season"`
	Temperature float64        `json:"temperature"`
	Normal      bool           `json:"normal"`
	Profile     *SeasonProfile `json:"profile,omitempty"`
	Cached      bool           `json:"cached"`
	CheckedAt   time.Time      `json:"checked_at"`
}

// Dataset is one analysis run over an uploaded set of observations.
type Dataset struct {
	ID           string           `json:"id"`
	Source       string           `json:"source"`
	LoadedAt     time.Time        `json:"loaded_at"`
	Observations int              `json:"observations"`
	Cities       []CityStatistics `json:"cities"`
}

// CityNames returns the analyzed cities in analysis order.
func (d *Dataset) CityNames() []string {
	names := make([]string, 0, len(d.Cities))
	for _, c := range d.Cities {
		names = append(names, c.City)
	}
	return names
}
