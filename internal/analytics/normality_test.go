package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/bobby-s-dev/temperature-analyzer/internal/models"
)

func TestIsNormal(t *testing.T) {
	stats := models.CityStatistics{
		City: "Prague",
		SeasonalProfile: []models.SeasonProfile{
			{Season: models.Summer, Mean: 10, Std: 2},
			{Season: models.Winter, Mean: -2, Std: 0},
		},
	}

	tests := []struct {
		name   string
		temp   float64
		season models.Season
		want   bool
	}{
		{name: "at mean", temp: 10, season: models.Summer, want: true},
		{name: "upper bound inclusive", temp: 14, season: models.Summer, want: true},
		{name: "just above upper bound", temp: 14.0001, season: models.Summer, want: false},
		{name: "lower bound inclusive", temp: 6, season: models.Summer, want: true},
		{name: "just below lower bound", temp: 5.9999, season: models.Summer, want: false},
		{name: "zero std exact match", temp: -2, season: models.Winter, want: true},
		{name: "zero std any deviation", temp: -1.5, season: models.Winter, want: false},
		{name: "season never observed", temp: 100, season: models.Spring, want: true},
		{name: "another missing season", temp: -100, season: models.Autumn, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsNormal(stats, tt.temp, tt.season))
		})
	}
}

func TestIsNormalWithoutProfile(t *testing.T) {
	assert.True(t, IsNormal(models.CityStatistics{City: "Nowhere"}, 42, models.Summer))
}

func TestSeasonFor(t *testing.T) {
	want := map[time.Month]models.Season{
		time.January:   models.Winter,
		time.February:  models.Winter,
		time.March:     models.Spring,
		time.April:     models.Spring,
		time.May:       models.Spring,
		time.June:      models.Summer,
		time.July:      models.Summer,
		time.August:    models.Summer,
		time.September: models.Autumn,
		time.October:   models.Autumn,
		time.November:  models.Autumn,
		time.December:  models.Winter,
	}

	for month, season := range want {
		date := time.Date(2023, month, 15, 12, 0, 0, 0, time.UTC)
		assert.Equal(t, season, SeasonFor(date), month.String())
	}
}

func TestSeasonForAnalyzedProfile(t *testing.T) {
	stats := Analyze("A", series("A", models.Summer, 18, 20, 22, 19, 21))
	now := time.Date(2024, time.July, 4, 0, 0, 0, 0, time.UTC)

	assert.True(t, IsNormal(stats, 20.5, SeasonFor(now)))
	assert.False(t, IsNormal(stats, 40, SeasonFor(now)))
	assert.True(t, IsNormal(stats, 40, SeasonFor(now.AddDate(0, 6, 0))))
}
