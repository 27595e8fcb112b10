// Package analytics computes per-city temperature statistics and checks live
// readings against a city's seasonal history. Everything here is pure and
// in-memory.
package analytics

import (
	"math"
	"sort"
	"time"

	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
)

const (
	// RollingWindow is the trailing window size, counted in observations.
	RollingWindow = 30

	// AnomalySigma is how many standard deviations from the local or seasonal
	// mean a reading may be before it is considered abnormal.
	AnomalySigma = 2.0
)

const day = 24 * time.Hour

// Analyze computes the statistics of a single city's observations. The input
// may be in any order and is not modified. obs must not be empty.
func Analyze(city string, obs []models.Observation) models.CityStatistics {
	sorted := make([]models.Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	temps := make([]float64, len(sorted))
	for i, o := range sorted {
		temps[i] = o.Temperature
	}

	stats := models.CityStatistics{
		City:            city,
		Anomalies:       detectAnomalies(sorted, temps),
		SeasonalProfile: seasonalProfile(sorted),
		Trend:           trend(sorted, temps),
	}
	stats.AverageTemp, stats.MinTemp, stats.MaxTemp = summarize(temps)

	return stats
}

// AnalyzeAll groups observations by city, in order of first appearance, and
// analyzes each city on the calling goroutine. It returns an empty slice for
// empty input.
func AnalyzeAll(obs []models.Observation) []models.CityStatistics {
	var order []string
	byCity := make(map[string][]models.Observation)

	for _, o := range obs {
		if _, seen := byCity[o.City]; !seen {
			order = append(order, o.City)
		}
		byCity[o.City] = append(byCity[o.City], o)
	}

	results := make([]models.CityStatistics, 0, len(order))
	for _, city := range order {
		results = append(results, Analyze(city, byCity[city]))
	}
	return results
}

func detectAnomalies(sorted []models.Observation, temps []float64) []models.Anomaly {
	anomalies := []models.Anomaly{}
	for i, w := range RollingStats(temps, RollingWindow) {
		if math.Abs(temps[i]-w.Mean) > AnomalySigma*w.Std {
			anomalies = append(anomalies, models.Anomaly{
				Timestamp:   sorted[i].Timestamp,
				Temperature: sorted[i].Temperature,
			})
		}
	}
	return anomalies
}

func seasonalProfile(sorted []models.Observation) []models.SeasonProfile {
	bySeason := make(map[models.Season][]float64)
	for _, o := range sorted {
		bySeason[o.Season] = append(bySeason[o.Season], o.Temperature)
	}

	profile := make([]models.SeasonProfile, 0, len(bySeason))
	for _, season := range models.Seasons {
		values, ok := bySeason[season]
		if !ok {
			continue
		}
		mean, std := MeanStd(values)
		profile = append(profile, models.SeasonProfile{Season: season, Mean: mean, Std: std})
		delete(bySeason, season)
	}

	// Labels outside the four known seasons still get a row, sorted by name.
	rest := make([]models.Season, 0, len(bySeason))
	for season := range bySeason {
		rest = append(rest, season)
	}
	sort.Slice(rest, func(i, j int) bool { return rest[i] < rest[j] })
	for _, season := range rest {
		mean, std := MeanStd(bySeason[season])
		profile = append(profile, models.SeasonProfile{Season: season, Mean: mean, Std: std})
	}

	return profile
}

func trend(sorted []models.Observation, temps []float64) models.Trend {
	if len(sorted) == 0 {
		return models.TrendNegative
	}

	first := sorted[0].Timestamp
	days := make([]float64, len(sorted))
	for i, o := range sorted {
		days[i] = float64(dayNumber(first, o.Timestamp))
	}

	slope, _ := LinearFit(days, temps)
	if slope > 0 {
		return models.TrendPositive
	}
	return models.TrendNegative
}

// dayNumber is the number of whole days between first and t, rounded down.
func dayNumber(first, t time.Time) int64 {
	elapsed := t.Sub(first)
	n := int64(elapsed / day)
	if elapsed%day < 0 {
		n--
	}
	return n
}

func summarize(temps []float64) (avg, lo, hi float64) {
	if len(temps) == 0 {
		return 0, 0, 0
	}

	lo, hi = temps[0], temps[0]
	sum := 0.0
	for _, t := range temps {
		sum += t
		if t < lo {
			lo = t
		}
		if t > hi {
			hi = t
		}
	}
	return sum / float64(len(temps)), lo, hi
}
