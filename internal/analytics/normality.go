package analytics

import (
	"math"

	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
)

// IsNormal reports whether temp lies within AnomalySigma standard deviations
// (inclusive) of the city's historical mean for season. A season the city was
// never observed in is treated as normal.
func IsNormal(stats models.CityStatistics, temp float64, season models.Season) bool {
	profile, ok := stats.Profile(season)
	if !ok {
		return true
	}
	return math.Abs(temp-profile.Mean) <= AnomalySigma*profile.Std
}
