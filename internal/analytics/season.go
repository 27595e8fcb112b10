package analytics

import (
	"time"

	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
)

// SeasonFor maps a date to its meteorological season.
func SeasonFor(t time.Time) models.Season {
	switch t.Month() {
	case time.December, time.January, time.February:
		return models.Winter
	case time.March, time.April, time.May:
		return models.Spring
	case time.June, time.July, time.August:
		return models.Summer
	default:
		return models.Autumn
	}
}
