package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanStd(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		wantMean float64
		wantStd  float64
	}{
		{name: "empty", values: nil, wantMean: 0, wantStd: 0},
		{name: "single value", values: []float64{7.5}, wantMean: 7.5, wantStd: 0},
		{name: "constant", values: []float64{3, 3, 3, 3}, wantMean: 3, wantStd: 0},
		{name: "sample deviation", values: []float64{2, 4, 4, 4, 5, 5, 7, 9}, wantMean: 5, wantStd: math.Sqrt(32.0 / 7.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mean, std := MeanStd(tt.values)
			assert.InDelta(t, tt.wantMean, mean, 1e-9)
			assert.InDelta(t, tt.wantStd, std, 1e-9)
		})
	}
}

func TestRollingStats(t *testing.T) {
	got := RollingStats([]float64{1, 2, 3, 4}, 2)
	require.Len(t, got, 4)

	assert.Equal(t, WindowStats{Mean: 1, Std: 0}, got[0])
	assert.InDelta(t, 1.5, got[1].Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), got[1].Std, 1e-9)
	assert.InDelta(t, 2.5, got[2].Mean, 1e-9)
	assert.InDelta(t, 3.5, got[3].Mean, 1e-9)
	assert.InDelta(t, math.Sqrt(0.5), got[3].Std, 1e-9)
}

func TestRollingStatsWindowLargerThanSeries(t *testing.T) {
	got := RollingStats([]float64{10, 20, 30}, 30)
	require.Len(t, got, 3)

	assert.InDelta(t, 20.0, got[2].Mean, 1e-9)
	assert.InDelta(t, 10.0, got[2].Std, 1e-9)
}

func TestRollingStatsDropsOldValues(t *testing.T) {
	values := []float64{100, 1, 1, 1}
	got := RollingStats(values, 3)

	assert.Equal(t, 1.0, got[3].Mean)
	assert.Equal(t, 0.0, got[3].Std)
}

func TestLinearFit(t *testing.T) {
	t.Run("exact line", func(t *testing.T) {
		slope, intercept := LinearFit([]float64{0, 1, 2}, []float64{1, 3, 5})
		assert.InDelta(t, 2.0, slope, 1e-12)
		assert.InDelta(t, 1.0, intercept, 1e-12)
	})

	t.Run("decreasing", func(t *testing.T) {
		slope, _ := LinearFit([]float64{0, 1, 2, 3}, []float64{9, 7, 8, 2})
		assert.Less(t, slope, 0.0)
	})

	t.Run("single point", func(t *testing.T) {
		slope, intercept := LinearFit([]float64{0}, []float64{12})
		assert.Equal(t, 0.0, slope)
		assert.Equal(t, 12.0, intercept)
	})

	t.Run("no variance in x", func(t *testing.T) {
		slope, intercept := LinearFit([]float64{4, 4, 4}, []float64{1, 2, 3})
		assert.Equal(t, 0.0, slope)
		assert.InDelta(t, 2.0, intercept, 1e-12)
	})

	t.Run("flat series", func(t *testing.T) {
		slope, _ := LinearFit([]float64{0, 1, 5, 9}, []float64{15, 15, 15, 15})
		assert.Equal(t, 0.0, slope)
	})
}
